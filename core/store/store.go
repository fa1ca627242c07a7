// Package store holds the replayed event history of one dataflow run: the
// raw event sequence in log order plus three derived registries (datasets by
// id, current task per stage/partition slot, outcome per task attempt).
//
// A store is populated by a single blocking replay pass at construction and
// is never written afterward, so every query is safe for concurrent use from
// any number of readers.
package store

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"dataflow-debugger/core/eventlog"
	"dataflow-debugger/core/lineage"
	"dataflow-debugger/core/models"
)

// ErrNoLogPath is returned when neither an explicit path nor a configured one
// was supplied.
var ErrNoLogPath = errors.New("store: no event log path configured")

// Store is the loaded, immutable replay state
type Store struct {
	logPath  string
	events   []*models.Event
	datasets map[int64]*models.Dataset
	tasks    map[models.TaskKey]*models.Task
	outcomes map[string]*models.Outcome
}

// Load opens the event log at logPath and replays it to completion. The
// returned store is fully loaded; any replay failure discards it.
func Load(logPath string) (*Store, error) {
	if logPath == "" {
		return nil, ErrNoLogPath
	}
	r, err := eventlog.Open(logPath)
	if err != nil {
		return nil, err
	}
	s, err := Replay(r)
	if err != nil {
		return nil, err
	}
	s.logPath = logPath
	return s, nil
}

// Replay drains the reader into a fresh store. It returns an error if the
// log terminates anywhere other than a clean record boundary; the partial
// store is not returned.
func Replay(r *eventlog.Reader) (*Store, error) {
	s := &Store{
		datasets: make(map[int64]*models.Dataset),
		tasks:    make(map[models.TaskKey]*models.Task),
		outcomes: make(map[string]*models.Outcome),
	}
	for {
		ev, err := r.ReadNext()
		if errors.Is(err, io.EOF) {
			return s, nil
		}
		if err != nil {
			return nil, fmt.Errorf("store: replay failed: %w", err)
		}
		if err := s.append(ev); err != nil {
			// The reader only closes itself on its own read errors.
			r.Close()
			return nil, fmt.Errorf("store: replay failed: %w", err)
		}
	}
}

// append records the event and updates the derived registries. It is the sole
// mutator and is only called from the construction-time replay pass.
func (s *Store) append(ev *models.Event) error {
	s.events = append(s.events, ev)

	switch ev.Kind {
	case models.EventTaskStart:
		s.resolveDataset(ev.Task)
		// A later start for the same slot supersedes the earlier attempt.
		s.tasks[ev.Task.Key()] = ev.Task

	case models.EventTaskEnd:
		s.resolveDataset(ev.Task)
		// Keyed by the attempt's identity, not the slot: an outcome for a
		// superseded attempt stays reachable through that attempt's task.
		s.outcomes[ev.Task.TaskID] = ev.Outcome

	case models.EventJobStart:
		datasets, err := lineage.DatasetsForJob(ev.Job)
		if err != nil {
			return err
		}
		for _, ds := range datasets {
			// Reconfirm, never replace: the first registration for an id wins,
			// which keeps re-running a job's closure idempotent.
			if _, ok := s.datasets[ds.ID]; !ok {
				s.datasets[ds.ID] = ds
			}
		}

	case models.EventOther:
		// Recorded in the raw sequence only.

	default:
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	return nil
}

func (s *Store) resolveDataset(t *models.Task) {
	if t.Dataset == nil {
		t.Dataset = s.datasets[t.DatasetID]
	}
}

// LogPath returns the path the store was loaded from, if it was loaded from a
// file.
func (s *Store) LogPath() string {
	return s.logPath
}

// Events returns the full event sequence in log order
func (s *Store) Events() []*models.Event {
	out := make([]*models.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Task returns the current task occupying the (stage, partition) slot
func (s *Store) Task(stageID int64, partition int) (*models.Task, bool) {
	t, ok := s.tasks[models.TaskKey{StageID: stageID, Partition: partition}]
	return t, ok
}

// Dataset returns the registered dataset with the given id
func (s *Store) Dataset(id int64) (*models.Dataset, bool) {
	ds, ok := s.datasets[id]
	return ds, ok
}

// Datasets returns all registered datasets ordered by id
func (s *Store) Datasets() []*models.Dataset {
	out := make([]*models.Dataset, 0, len(s.datasets))
	for _, ds := range s.datasets {
		out = append(out, ds)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// OutcomeForTask returns the recorded outcome for a task attempt, including
// attempts since superseded in the task registry
func (s *Store) OutcomeForTask(t *models.Task) (*models.Outcome, bool) {
	if t == nil {
		return nil, false
	}
	return s.OutcomeByTaskID(t.TaskID)
}

// OutcomeByTaskID returns the recorded outcome for a task attempt id
func (s *Store) OutcomeByTaskID(taskID string) (*models.Outcome, bool) {
	o, ok := s.outcomes[taskID]
	return o, ok
}

// OutcomeAt resolves the current task for the slot and returns its outcome,
// if one was recorded for that attempt
func (s *Store) OutcomeAt(stageID int64, partition int) (*models.Outcome, bool) {
	t, ok := s.Task(stageID, partition)
	if !ok {
		return nil, false
	}
	return s.OutcomeForTask(t)
}
