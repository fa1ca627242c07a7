package routes

import (
	"dataflow-debugger/api/rest/handlers"
	"dataflow-debugger/core/store"
	"dataflow-debugger/core/viz"

	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes over a loaded store
func SetupRoutes(r *mux.Router, s *store.Store, exporter *viz.Exporter) {
	debugHandler := handlers.NewDebugHandler(s, exporter)

	api := r.PathPrefix("/v1").Subrouter()

	api.HandleFunc("/events", debugHandler.ListEvents).Methods("GET")
	api.HandleFunc("/datasets", debugHandler.ListDatasets).Methods("GET")
	api.HandleFunc("/datasets/{id}", debugHandler.GetDataset).Methods("GET")
	api.HandleFunc("/tasks/{stage}/{partition}", debugHandler.GetTask).Methods("GET")
	api.HandleFunc("/tasks/{stage}/{partition}/outcome", debugHandler.GetOutcome).Methods("GET")
	api.HandleFunc("/visualize", debugHandler.Visualize).Methods("POST")
}
