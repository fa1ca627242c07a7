package models

// Job is a top-level submitted computation that materializes a final stage
type Job struct {
	ID         int64
	FinalStage *Stage
}

// Stage is a maximal group of narrow-connected datasets, executable without a
// shuffle boundary. Dataset is the stage's representative (last) dataset.
type Stage struct {
	ID      int64
	Dataset *Dataset
	Parents []*Stage
}

// Task is the unit of computation for one partition within one stage.
// TaskID is the unique identity of this attempt; (StageID, Partition) is the
// registry key and may be re-occupied by a later attempt.
type Task struct {
	TaskID    string
	StageID   int64
	Partition int
	DatasetID int64
	Dataset   *Dataset
}

// Key returns the (stage, partition) registry key for the task
func (t *Task) Key() TaskKey {
	return TaskKey{StageID: t.StageID, Partition: t.Partition}
}

// TaskKey identifies the slot a task attempt occupies
type TaskKey struct {
	StageID   int64
	Partition int
}

// EndReason classifies how a task attempt finished
type EndReason string

const (
	EndSuccess     EndReason = "success"
	EndException   EndReason = "exception"
	EndFetchFailed EndReason = "fetch_failed"
	EndCancelled   EndReason = "cancelled"
)

// Outcome is the recorded end state of one task attempt
type Outcome struct {
	Reason  EndReason
	Message string
}

// Succeeded reports whether the outcome is a clean completion
func (o Outcome) Succeeded() bool {
	return o.Reason == EndSuccess
}
