package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"dataflow-debugger/api/rest/handlers"
	"dataflow-debugger/api/rest/routes"
	"dataflow-debugger/core/eventlog"
	"dataflow-debugger/core/models"
	"dataflow-debugger/core/store"
	"dataflow-debugger/core/viz"

	"github.com/gorilla/mux"
)

func testRouter(t *testing.T) *mux.Router {
	t.Helper()

	d1 := &models.Dataset{ID: 1, Type: "ParallelCollection", Origin: "parallelize at app.go:10"}
	d2 := &models.Dataset{ID: 2, Type: "MappedDataset", Origin: "map at app.go:11",
		Deps: []models.Dependency{{Kind: models.DependencyNarrow, Parent: d1}}}
	s1 := &models.Stage{ID: 1, Dataset: d1}
	s2 := &models.Stage{ID: 2, Dataset: d2, Parents: []*models.Stage{s1}}
	task := &models.Task{TaskID: "task-1", StageID: 2, Partition: 0, DatasetID: 2}

	var buf bytes.Buffer
	w := eventlog.NewWriter(&buf)
	events := []*models.Event{
		{Kind: models.EventJobStart, Job: &models.Job{ID: 1, FinalStage: s2}},
		{Kind: models.EventTaskStart, Task: task},
		{Kind: models.EventTaskEnd, Task: task, Outcome: &models.Outcome{Reason: models.EndSuccess}},
	}
	for _, ev := range events {
		if err := w.Append(ev); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	st, err := store.Replay(eventlog.NewReader(io.NopCloser(&buf)))
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}

	r := mux.NewRouter()
	routes.SetupRoutes(r, st, viz.NewExporter(st, "true", t.TempDir()))
	return r
}

func get(t *testing.T, r *mux.Router, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestListEvents(t *testing.T) {
	rec := get(t, testRouter(t), "/v1/events")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var events []handlers.EventResponse
	if err := json.NewDecoder(rec.Body).Decode(&events); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].Kind != "job_start" || events[1].Kind != "task_start" || events[2].Kind != "task_end" {
		t.Errorf("event order lost: %+v", events)
	}
	if events[2].Reason != "success" {
		t.Errorf("task_end reason = %q, want success", events[2].Reason)
	}
}

func TestListDatasets(t *testing.T) {
	rec := get(t, testRouter(t), "/v1/datasets")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var datasets []handlers.DatasetResponse
	if err := json.NewDecoder(rec.Body).Decode(&datasets); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(datasets) != 2 {
		t.Fatalf("got %d datasets, want 2", len(datasets))
	}
	if datasets[1].ID != 2 || len(datasets[1].Deps) != 1 || datasets[1].Deps[0].ParentID != 1 {
		t.Errorf("dataset 2 edges wrong: %+v", datasets[1])
	}
}

func TestGetDataset(t *testing.T) {
	r := testRouter(t)

	rec := get(t, r, "/v1/datasets/1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var ds handlers.DatasetResponse
	if err := json.NewDecoder(rec.Body).Decode(&ds); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if ds.Type != "ParallelCollection" {
		t.Errorf("dataset 1 type = %q", ds.Type)
	}

	if rec := get(t, r, "/v1/datasets/99"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown dataset: status = %d, want 404", rec.Code)
	}
	if rec := get(t, r, "/v1/datasets/abc"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad dataset id: status = %d, want 400", rec.Code)
	}
}

func TestGetTaskAndOutcome(t *testing.T) {
	r := testRouter(t)

	rec := get(t, r, "/v1/tasks/2/0")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var task handlers.TaskResponse
	if err := json.NewDecoder(rec.Body).Decode(&task); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if task.TaskID != "task-1" || task.DatasetID != 2 {
		t.Errorf("task = %+v", task)
	}

	rec = get(t, r, "/v1/tasks/2/0/outcome")
	if rec.Code != http.StatusOK {
		t.Fatalf("outcome status = %d", rec.Code)
	}
	var outcome handlers.OutcomeResponse
	if err := json.NewDecoder(rec.Body).Decode(&outcome); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if outcome.Reason != "success" {
		t.Errorf("outcome = %+v", outcome)
	}

	if rec := get(t, r, "/v1/tasks/9/9"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown task: status = %d, want 404", rec.Code)
	}
	if rec := get(t, r, "/v1/tasks/x/y"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad task key: status = %d, want 400", rec.Code)
	}
}

func TestVisualizeEndpoint(t *testing.T) {
	r := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/visualize", bytes.NewBufferString(`{"format":"png"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp handlers.VisualizeResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Path == "" {
		t.Error("visualize returned an empty output path")
	}
}
