package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/cexll/reddit-tracker/internal/config"
	"github.com/cexll/reddit-tracker/internal/jobs"
	"github.com/cexll/reddit-tracker/internal/processor"
	"github.com/cexll/reddit-tracker/internal/rank"
	"github.com/cexll/reddit-tracker/internal/reddit"
	"github.com/cexll/reddit-tracker/internal/reply"
	"github.com/cexll/reddit-tracker/internal/status"
	"github.com/cexll/reddit-tracker/internal/tracking"
	"github.com/cexll/reddit-tracker/internal/web"
)

func main() {
	if err := run(context.Background()); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func run(ctx context.Context) error {
	// Load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}

	log.Printf("Starting reddit-tracker server...")
	log.Printf("Port: %d", cfg.Port)
	log.Printf("Tracking database: %s", cfg.DBPath)
	log.Printf("Top N: %d, reply window: %s, workers: %d", cfg.TopN, cfg.ReplyWindow, cfg.WorkerCount)

	store, closeStore, err := tracking.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open tracking store: %w", err)
	}
	defer func() { _ = closeStore() }()

	client := reddit.NewClient(cfg.RedditClientID, cfg.RedditClientSecret, cfg.RedditUserAgent)
	detector := rank.NewDetector(client, cfg.TopN)
	scanner := reply.NewScanner(client, cfg.ReplyWindow)
	classifier := status.NewClassifier(store)
	proc := processor.New(detector, scanner, classifier, store)

	registry := jobs.NewRegistry(cfg.JobTTL)
	registry.StartSweeper(ctx, cfg.JobTTL)

	handler := web.NewHandler(registry, proc, cfg.SessionSecret)

	r := mux.NewRouter()
	handler.RegisterRoutes(r)
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"service":"reddit-tracker","status":"running"}`)
	}).Methods("GET")

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("Server listening on %s", addr)
	log.Printf("Track endpoint: http://localhost%s/api/track", addr)
	log.Printf("Health check: http://localhost%s/health", addr)

	if err := http.ListenAndServe(addr, r); err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return nil
}
