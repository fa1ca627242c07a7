package models

// EventKind discriminates the scheduling event union
type EventKind string

const (
	EventTaskStart EventKind = "task_start"
	EventTaskEnd   EventKind = "task_end"
	EventJobStart  EventKind = "job_start"
	EventOther     EventKind = "other"
)

// Event is one scheduling event read from the log. Exactly the fields
// relevant to its Kind are set; an Event is immutable once decoded.
type Event struct {
	Kind EventKind

	// Task is set for EventTaskStart and EventTaskEnd
	Task *Task

	// Outcome is set for EventTaskEnd
	Outcome *Outcome

	// Job is set for EventJobStart
	Job *Job

	// Label carries the raw tag of an EventOther record
	Label string
}
