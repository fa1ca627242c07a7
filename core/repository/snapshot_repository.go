package repository

import (
	"fmt"
	"time"

	"dataflow-debugger/core/models"
	"dataflow-debugger/core/store"

	"github.com/google/uuid"
)

// SnapshotRepository archives the derived registries of a completed replay
// for cross-run comparison. Events themselves are never persisted; only the
// reconstructed datasets, tasks, and outcomes of one loaded store.
type SnapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// SaveSnapshot writes one snapshot of the store's registries and returns the
// generated snapshot id. The whole snapshot is written in one transaction.
func (r *SnapshotRepository) SaveSnapshot(s *store.Store) (string, error) {
	snapshotID := uuid.New().String()

	tx, err := r.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO lineage_snapshots (id, log_path, created_at)
		VALUES ($1, $2, $3)
	`, snapshotID, s.LogPath(), time.Now())
	if err != nil {
		return "", fmt.Errorf("insert snapshot: %w", err)
	}

	for _, ds := range s.Datasets() {
		_, err = tx.Exec(`
			INSERT INTO snapshot_datasets (snapshot_id, dataset_id, type, origin)
			VALUES ($1, $2, $3, $4)
		`, snapshotID, ds.ID, ds.Type, ds.Origin)
		if err != nil {
			return "", fmt.Errorf("insert dataset %d: %w", ds.ID, err)
		}

		for _, dep := range ds.Deps {
			_, err = tx.Exec(`
				INSERT INTO snapshot_dependencies (snapshot_id, dataset_id, parent_id, kind)
				VALUES ($1, $2, $3, $4)
			`, snapshotID, ds.ID, dep.Parent.ID, string(dep.Kind))
			if err != nil {
				return "", fmt.Errorf("insert dependency %d->%d: %w", ds.ID, dep.Parent.ID, err)
			}
		}
	}

	for _, ev := range s.Events() {
		if ev.Kind != models.EventTaskStart {
			continue
		}
		current, ok := s.Task(ev.Task.StageID, ev.Task.Partition)
		superseded := !ok || current.TaskID != ev.Task.TaskID

		var reason, message *string
		if outcome, ok := s.OutcomeForTask(ev.Task); ok {
			rs, ms := string(outcome.Reason), outcome.Message
			reason, message = &rs, &ms
		}

		_, err = tx.Exec(`
			INSERT INTO snapshot_tasks (snapshot_id, task_id, stage_id, partition_index, superseded, end_reason, end_message)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, snapshotID, ev.Task.TaskID, ev.Task.StageID, ev.Task.Partition, superseded, reason, message)
		if err != nil {
			return "", fmt.Errorf("insert task %s: %w", ev.Task.TaskID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit snapshot: %w", err)
	}
	return snapshotID, nil
}
