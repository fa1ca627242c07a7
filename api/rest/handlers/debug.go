package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"dataflow-debugger/core/models"
	"dataflow-debugger/core/store"
	"dataflow-debugger/core/viz"

	"github.com/gorilla/mux"
)

// DebugHandler serves read-only queries over a loaded store. The store is
// immutable after its replay pass, so the handlers need no locking.
type DebugHandler struct {
	store    *store.Store
	exporter *viz.Exporter
}

// NewDebugHandler creates a new debug handler
func NewDebugHandler(s *store.Store, exporter *viz.Exporter) *DebugHandler {
	return &DebugHandler{store: s, exporter: exporter}
}

// EventResponse is the wire summary of one replayed event
type EventResponse struct {
	Kind      string `json:"kind"`
	TaskID    string `json:"task_id,omitempty"`
	StageID   int64  `json:"stage_id,omitempty"`
	Partition *int   `json:"partition,omitempty"`
	JobID     int64  `json:"job_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Label     string `json:"label,omitempty"`
}

// DatasetResponse is the wire form of one registered dataset
type DatasetResponse struct {
	ID     int64                `json:"id"`
	Type   string               `json:"type"`
	Origin string               `json:"origin,omitempty"`
	Deps   []DependencyResponse `json:"deps,omitempty"`
}

// DependencyResponse is one lineage edge
type DependencyResponse struct {
	Kind     string `json:"kind"`
	ParentID int64  `json:"parent_id"`
}

// TaskResponse is the wire form of the current task in a slot
type TaskResponse struct {
	TaskID    string `json:"task_id"`
	StageID   int64  `json:"stage_id"`
	Partition int    `json:"partition"`
	DatasetID int64  `json:"dataset_id,omitempty"`
}

// OutcomeResponse is the recorded end state of a task attempt
type OutcomeResponse struct {
	Reason  string `json:"reason"`
	Message string `json:"message,omitempty"`
}

// ListEvents handles GET /v1/events
func (h *DebugHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events := h.store.Events()
	out := make([]EventResponse, 0, len(events))
	for _, ev := range events {
		resp := EventResponse{Kind: string(ev.Kind), Label: ev.Label}
		if ev.Task != nil {
			p := ev.Task.Partition
			resp.TaskID = ev.Task.TaskID
			resp.StageID = ev.Task.StageID
			resp.Partition = &p
		}
		if ev.Outcome != nil {
			resp.Reason = string(ev.Outcome.Reason)
		}
		if ev.Job != nil {
			resp.JobID = ev.Job.ID
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

// ListDatasets handles GET /v1/datasets
func (h *DebugHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	datasets := h.store.Datasets()
	out := make([]DatasetResponse, 0, len(datasets))
	for _, ds := range datasets {
		out = append(out, datasetResponse(ds))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetDataset handles GET /v1/datasets/{id}
func (h *DebugHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid dataset id", http.StatusBadRequest)
		return
	}
	ds, ok := h.store.Dataset(id)
	if !ok {
		http.Error(w, "Dataset not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, datasetResponse(ds))
}

// GetTask handles GET /v1/tasks/{stage}/{partition}
func (h *DebugHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, ok, bad := h.taskFromVars(r)
	if bad {
		http.Error(w, "Invalid stage or partition", http.StatusBadRequest)
		return
	}
	if !ok {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, taskResponse(task))
}

// GetOutcome handles GET /v1/tasks/{stage}/{partition}/outcome
func (h *DebugHandler) GetOutcome(w http.ResponseWriter, r *http.Request) {
	task, ok, bad := h.taskFromVars(r)
	if bad {
		http.Error(w, "Invalid stage or partition", http.StatusBadRequest)
		return
	}
	if !ok {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}
	outcome, ok := h.store.OutcomeForTask(task)
	if !ok {
		http.Error(w, "No outcome recorded", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, OutcomeResponse{Reason: string(outcome.Reason), Message: outcome.Message})
}

// VisualizeRequest selects the output of a visualization call
type VisualizeRequest struct {
	Format string `json:"format,omitempty"`
	Path   string `json:"path,omitempty"`
}

// VisualizeResponse reports where the rendered graph was written
type VisualizeResponse struct {
	Path string `json:"path"`
}

// Visualize handles POST /v1/visualize
func (h *DebugHandler) Visualize(w http.ResponseWriter, r *http.Request) {
	var req VisualizeRequest
	if r.Body != nil {
		// An empty body means all defaults.
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	path, err := h.exporter.Visualize(req.Format, req.Path)
	if err != nil {
		http.Error(w, "Failed to render graph: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, VisualizeResponse{Path: path})
}

func (h *DebugHandler) taskFromVars(r *http.Request) (task *models.Task, ok, bad bool) {
	vars := mux.Vars(r)
	stage, err := strconv.ParseInt(vars["stage"], 10, 64)
	if err != nil {
		return nil, false, true
	}
	partition, err := strconv.Atoi(vars["partition"])
	if err != nil {
		return nil, false, true
	}
	task, ok = h.store.Task(stage, partition)
	return task, ok, false
}

func datasetResponse(ds *models.Dataset) DatasetResponse {
	resp := DatasetResponse{ID: ds.ID, Type: ds.Type, Origin: ds.Origin}
	for _, dep := range ds.Deps {
		resp.Deps = append(resp.Deps, DependencyResponse{Kind: string(dep.Kind), ParentID: dep.Parent.ID})
	}
	return resp
}

func taskResponse(t *models.Task) TaskResponse {
	resp := TaskResponse{TaskID: t.TaskID, StageID: t.StageID, Partition: t.Partition, DatasetID: t.DatasetID}
	if t.Dataset != nil {
		resp.DatasetID = t.Dataset.ID
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
