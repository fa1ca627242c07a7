// Package lineage recovers the full set of datasets a job's execution may
// touch. The execution model splits a job into stages at wide-dependency
// boundaries, so the closure runs at two levels: stages are collected by
// following parent-stage references, and within each stage datasets are
// collected by following narrow edges only. A wide edge is never followed at
// the dataset level; its target lives in a different stage and is reached via
// the stage closure instead.
package lineage

import (
	"fmt"
	"sort"

	"dataflow-debugger/core/models"
)

// DatasetsForJob computes the union of per-stage dataset closures for the
// job, ordered by dataset id. The traversals are worklist-based with explicit
// visited sets, so arbitrarily deep lineage graphs cannot exhaust the stack.
func DatasetsForJob(job *models.Job) ([]*models.Dataset, error) {
	if job == nil {
		return nil, fmt.Errorf("lineage: nil job")
	}
	if job.FinalStage == nil {
		return nil, fmt.Errorf("lineage: job %d has no final stage", job.ID)
	}

	stages, err := stageClosure(job.FinalStage)
	if err != nil {
		return nil, fmt.Errorf("lineage: job %d: %w", job.ID, err)
	}

	found := make(map[int64]*models.Dataset)
	for _, st := range stages {
		if err := narrowClosure(st, found); err != nil {
			return nil, fmt.Errorf("lineage: job %d: %w", job.ID, err)
		}
	}

	out := make([]*models.Dataset, 0, len(found))
	for _, ds := range found {
		out = append(out, ds)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// stageClosure collects the final stage and every transitive ancestor stage.
// The stage graph is acyclic in a well-formed log; the visited set bounds the
// walk rather than guarding against cycles.
func stageClosure(final *models.Stage) ([]*models.Stage, error) {
	var stages []*models.Stage
	visited := make(map[int64]bool)

	work := []*models.Stage{final}
	for len(work) > 0 {
		st := work[len(work)-1]
		work = work[:len(work)-1]
		if st == nil {
			return nil, fmt.Errorf("nil stage reference")
		}
		if visited[st.ID] {
			continue
		}
		visited[st.ID] = true
		stages = append(stages, st)
		work = append(work, st.Parents...)
	}
	return stages, nil
}

// narrowClosure walks from the stage's representative dataset across narrow
// edges only, adding every dataset reached to found. Wide edges terminate the
// walk: their parents belong to other stages.
func narrowClosure(stage *models.Stage, found map[int64]*models.Dataset) error {
	if stage.Dataset == nil {
		return fmt.Errorf("stage %d has no dataset", stage.ID)
	}

	visited := make(map[int64]bool)
	work := []*models.Dataset{stage.Dataset}
	for len(work) > 0 {
		ds := work[len(work)-1]
		work = work[:len(work)-1]
		if visited[ds.ID] {
			continue
		}
		visited[ds.ID] = true
		found[ds.ID] = ds

		for _, dep := range ds.Deps {
			switch dep.Kind {
			case models.DependencyNarrow:
				if dep.Parent == nil {
					return fmt.Errorf("dataset %d: nil narrow dependency", ds.ID)
				}
				work = append(work, dep.Parent)
			case models.DependencyWide:
				// Crosses a stage boundary; the stage closure reaches it.
			default:
				return fmt.Errorf("dataset %d: unknown dependency kind %q", ds.ID, dep.Kind)
			}
		}
	}
	return nil
}
