package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"dataflow-debugger/api/rest/routes"
	"dataflow-debugger/config"
	"dataflow-debugger/core/repository"
	"dataflow-debugger/core/store"
	"dataflow-debugger/core/viz"

	"github.com/gorilla/mux"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		logPath    = flag.String("log", "", "event log to replay (overrides config)")
		inspect    = flag.Bool("inspect", false, "print the registered datasets and exit")
		visualize  = flag.Bool("visualize", false, "render the lineage graph and print the output path")
		format     = flag.String("format", "", "visualization image format (default from config)")
		output     = flag.String("o", "", "visualization output path (default generated)")
		archive    = flag.Bool("archive", false, "archive the replayed snapshot to the configured database")
		serve      = flag.Bool("serve", false, "serve the inspection API")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	path := *logPath
	if path == "" {
		path = cfg.EventLogPath
	}

	st, err := store.Load(path)
	if err != nil {
		log.Fatalf("Failed to replay event log: %v", err)
	}
	log.Printf("Replayed %d events, %d datasets registered", len(st.Events()), len(st.Datasets()))

	exporter := viz.NewExporter(st, cfg.Renderer, cfg.OutputDir)

	if *inspect {
		fmt.Print(viz.Listing(st))
	}

	if *visualize {
		fmtArg := *format
		if fmtArg == "" {
			fmtArg = cfg.Format
		}
		out, err := exporter.Visualize(fmtArg, *output)
		if err != nil {
			log.Fatalf("Failed to render lineage graph: %v", err)
		}
		fmt.Println(out)
	}

	if *archive {
		if cfg.DatabaseURL == "" {
			log.Fatalf("Archive requested but no database URL configured")
		}
		db, err := repository.NewDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		snapshotRepo := repository.NewSnapshotRepository(db)
		id, err := snapshotRepo.SaveSnapshot(st)
		if err != nil {
			log.Fatalf("Failed to archive snapshot: %v", err)
		}
		log.Printf("Archived snapshot %s", id)
	}

	if !*serve {
		return
	}

	r := mux.NewRouter()
	routes.SetupRoutes(r, st, exporter)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Printf("Serving inspection API on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	if err := server.Shutdown(context.Background()); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
}
