package eventlog

import (
	"fmt"
	"sort"

	"dataflow-debugger/core/models"
)

// record is the wire envelope for one log entry. Exactly one payload field is
// populated, selected by Kind.
type record struct {
	Kind    string         `json:"kind"`
	Task    *taskRecord    `json:"task,omitempty"`
	Outcome *outcomeRecord `json:"outcome,omitempty"`
	Job     *jobRecord     `json:"job,omitempty"`
	Label   string         `json:"label,omitempty"`
}

type taskRecord struct {
	TaskID    string `json:"task_id"`
	StageID   int64  `json:"stage_id"`
	Partition int    `json:"partition"`
	DatasetID int64  `json:"dataset_id,omitempty"`
}

type outcomeRecord struct {
	Reason  string `json:"reason"`
	Message string `json:"message,omitempty"`
}

// jobRecord is self-contained: it embeds the dataset and stage tables for the
// job's graph so the log can be replayed without any external state.
type jobRecord struct {
	JobID        int64           `json:"job_id"`
	FinalStageID int64           `json:"final_stage_id"`
	Datasets     []datasetRecord `json:"datasets"`
	Stages       []stageRecord   `json:"stages"`
}

type datasetRecord struct {
	ID     int64       `json:"id"`
	Type   string      `json:"type"`
	Origin string      `json:"origin,omitempty"`
	Deps   []depRecord `json:"deps,omitempty"`
}

type depRecord struct {
	Kind     string `json:"kind"`
	ParentID int64  `json:"parent_id"`
}

type stageRecord struct {
	ID        int64   `json:"id"`
	DatasetID int64   `json:"dataset_id"`
	ParentIDs []int64 `json:"parent_ids,omitempty"`
}

// event materializes the decoded record into a model event, resolving all
// intra-record references. An unresolvable reference is an error: a partially
// linked job graph must never be handed to the replay.
func (rec *record) event() (*models.Event, error) {
	switch models.EventKind(rec.Kind) {
	case models.EventTaskStart:
		task, err := rec.Task.task()
		if err != nil {
			return nil, err
		}
		return &models.Event{Kind: models.EventTaskStart, Task: task}, nil

	case models.EventTaskEnd:
		task, err := rec.Task.task()
		if err != nil {
			return nil, err
		}
		outcome, err := rec.Outcome.outcome()
		if err != nil {
			return nil, err
		}
		return &models.Event{Kind: models.EventTaskEnd, Task: task, Outcome: outcome}, nil

	case models.EventJobStart:
		job, err := rec.Job.job()
		if err != nil {
			return nil, err
		}
		return &models.Event{Kind: models.EventJobStart, Job: job}, nil

	case models.EventOther:
		return &models.Event{Kind: models.EventOther, Label: rec.Label}, nil
	}
	return nil, fmt.Errorf("unknown event kind %q", rec.Kind)
}

func (tr *taskRecord) task() (*models.Task, error) {
	if tr == nil {
		return nil, fmt.Errorf("task event carries no task payload")
	}
	if tr.TaskID == "" {
		return nil, fmt.Errorf("task record has empty task_id")
	}
	return &models.Task{
		TaskID:    tr.TaskID,
		StageID:   tr.StageID,
		Partition: tr.Partition,
		DatasetID: tr.DatasetID,
	}, nil
}

func (or *outcomeRecord) outcome() (*models.Outcome, error) {
	if or == nil {
		return nil, fmt.Errorf("task_end event carries no outcome payload")
	}
	switch reason := models.EndReason(or.Reason); reason {
	case models.EndSuccess, models.EndException, models.EndFetchFailed, models.EndCancelled:
		return &models.Outcome{Reason: reason, Message: or.Message}, nil
	}
	return nil, fmt.Errorf("unknown end reason %q", or.Reason)
}

func (jr *jobRecord) job() (*models.Job, error) {
	if jr == nil {
		return nil, fmt.Errorf("job_start event carries no job payload")
	}

	// Materialize datasets in two passes so edges can reference any dataset
	// in the table regardless of declaration order.
	datasets := make(map[int64]*models.Dataset, len(jr.Datasets))
	for _, dr := range jr.Datasets {
		if _, dup := datasets[dr.ID]; dup {
			return nil, fmt.Errorf("duplicate dataset id %d in job %d", dr.ID, jr.JobID)
		}
		datasets[dr.ID] = &models.Dataset{ID: dr.ID, Type: dr.Type, Origin: dr.Origin}
	}
	for _, dr := range jr.Datasets {
		ds := datasets[dr.ID]
		for _, er := range dr.Deps {
			kind := models.DependencyKind(er.Kind)
			if kind != models.DependencyNarrow && kind != models.DependencyWide {
				return nil, fmt.Errorf("dataset %d: unknown dependency kind %q", dr.ID, er.Kind)
			}
			parent, ok := datasets[er.ParentID]
			if !ok {
				return nil, fmt.Errorf("dataset %d: dependency on unknown dataset %d", dr.ID, er.ParentID)
			}
			ds.Deps = append(ds.Deps, models.Dependency{Kind: kind, Parent: parent})
		}
	}

	// Same two-pass scheme for the stage graph.
	stages := make(map[int64]*models.Stage, len(jr.Stages))
	for _, sr := range jr.Stages {
		if _, dup := stages[sr.ID]; dup {
			return nil, fmt.Errorf("duplicate stage id %d in job %d", sr.ID, jr.JobID)
		}
		ds, ok := datasets[sr.DatasetID]
		if !ok {
			return nil, fmt.Errorf("stage %d: unknown dataset %d", sr.ID, sr.DatasetID)
		}
		stages[sr.ID] = &models.Stage{ID: sr.ID, Dataset: ds}
	}
	for _, sr := range jr.Stages {
		st := stages[sr.ID]
		for _, pid := range sr.ParentIDs {
			parent, ok := stages[pid]
			if !ok {
				return nil, fmt.Errorf("stage %d: unknown parent stage %d", sr.ID, pid)
			}
			st.Parents = append(st.Parents, parent)
		}
	}

	final, ok := stages[jr.FinalStageID]
	if !ok {
		return nil, fmt.Errorf("job %d: unknown final stage %d", jr.JobID, jr.FinalStageID)
	}
	return &models.Job{ID: jr.JobID, FinalStage: final}, nil
}

// encode flattens a model event back into its wire record. Used by the Writer;
// the replay core itself only reads.
func encode(ev *models.Event) (*record, error) {
	switch ev.Kind {
	case models.EventTaskStart:
		if ev.Task == nil {
			return nil, fmt.Errorf("task_start event has no task")
		}
		return &record{Kind: string(ev.Kind), Task: encodeTask(ev.Task)}, nil

	case models.EventTaskEnd:
		if ev.Task == nil || ev.Outcome == nil {
			return nil, fmt.Errorf("task_end event needs task and outcome")
		}
		return &record{
			Kind:    string(ev.Kind),
			Task:    encodeTask(ev.Task),
			Outcome: &outcomeRecord{Reason: string(ev.Outcome.Reason), Message: ev.Outcome.Message},
		}, nil

	case models.EventJobStart:
		jr, err := encodeJob(ev.Job)
		if err != nil {
			return nil, err
		}
		return &record{Kind: string(ev.Kind), Job: jr}, nil

	case models.EventOther:
		return &record{Kind: string(ev.Kind), Label: ev.Label}, nil
	}
	return nil, fmt.Errorf("unknown event kind %q", ev.Kind)
}

func encodeTask(t *models.Task) *taskRecord {
	tr := &taskRecord{
		TaskID:    t.TaskID,
		StageID:   t.StageID,
		Partition: t.Partition,
		DatasetID: t.DatasetID,
	}
	if t.Dataset != nil {
		tr.DatasetID = t.Dataset.ID
	}
	return tr
}

// encodeJob walks the job's stage and dataset graphs and emits them as flat,
// id-sorted tables.
func encodeJob(job *models.Job) (*jobRecord, error) {
	if job == nil || job.FinalStage == nil {
		return nil, fmt.Errorf("job_start event has no final stage")
	}

	stages := map[int64]*models.Stage{}
	datasets := map[int64]*models.Dataset{}

	stageWork := []*models.Stage{job.FinalStage}
	for len(stageWork) > 0 {
		st := stageWork[len(stageWork)-1]
		stageWork = stageWork[:len(stageWork)-1]
		if st == nil {
			return nil, fmt.Errorf("job %d: nil stage reference", job.ID)
		}
		if _, seen := stages[st.ID]; seen {
			continue
		}
		stages[st.ID] = st
		stageWork = append(stageWork, st.Parents...)

		if st.Dataset == nil {
			return nil, fmt.Errorf("job %d: stage %d has no dataset", job.ID, st.ID)
		}
		dsWork := []*models.Dataset{st.Dataset}
		for len(dsWork) > 0 {
			ds := dsWork[len(dsWork)-1]
			dsWork = dsWork[:len(dsWork)-1]
			if _, seen := datasets[ds.ID]; seen {
				continue
			}
			datasets[ds.ID] = ds
			for _, dep := range ds.Deps {
				if dep.Parent == nil {
					return nil, fmt.Errorf("dataset %d: nil dependency parent", ds.ID)
				}
				dsWork = append(dsWork, dep.Parent)
			}
		}
	}

	jr := &jobRecord{JobID: job.ID, FinalStageID: job.FinalStage.ID}
	for _, ds := range datasets {
		dr := datasetRecord{ID: ds.ID, Type: ds.Type, Origin: ds.Origin}
		for _, dep := range ds.Deps {
			dr.Deps = append(dr.Deps, depRecord{Kind: string(dep.Kind), ParentID: dep.Parent.ID})
		}
		jr.Datasets = append(jr.Datasets, dr)
	}
	for _, st := range stages {
		sr := stageRecord{ID: st.ID, DatasetID: st.Dataset.ID}
		for _, parent := range st.Parents {
			sr.ParentIDs = append(sr.ParentIDs, parent.ID)
		}
		sort.Slice(sr.ParentIDs, func(i, j int) bool { return sr.ParentIDs[i] < sr.ParentIDs[j] })
		jr.Stages = append(jr.Stages, sr)
	}
	sort.Slice(jr.Datasets, func(i, j int) bool { return jr.Datasets[i].ID < jr.Datasets[j].ID })
	sort.Slice(jr.Stages, func(i, j int) bool { return jr.Stages[i].ID < jr.Stages[j].ID })
	return jr, nil
}
