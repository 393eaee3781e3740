package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cexll/reddit-tracker/internal/config"
	"github.com/cexll/reddit-tracker/internal/processor"
	"github.com/cexll/reddit-tracker/internal/rank"
	"github.com/cexll/reddit-tracker/internal/reddit"
	"github.com/cexll/reddit-tracker/internal/reply"
	"github.com/cexll/reddit-tracker/internal/status"
	"github.com/cexll/reddit-tracker/internal/tracking"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[MCP Tracker Server] %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := tracking.Open(ctx, cfg.DBPath)
	if err != nil {
		log.Fatalf("[MCP Tracker Server] Failed to open tracking store: %v", err)
	}
	defer func() { _ = closeStore() }()

	client := reddit.NewClient(cfg.RedditClientID, cfg.RedditClientSecret, cfg.RedditUserAgent)
	proc := processor.New(
		rank.NewDetector(client, cfg.TopN),
		reply.NewScanner(client, cfg.ReplyWindow),
		status.NewClassifier(store),
		store,
	)

	log.Println("[MCP Tracker Server] Starting Reddit Comment Tracker MCP Server v1.0.0")
	log.Printf("[MCP Tracker Server] Tracking database: %s", cfg.DBPath)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "reddit-tracker-server",
		Version: "v1.0.0",
	}, nil)

	tool := &mcp.Tool{
		Name:        "track_comment",
		Description: "Track a Reddit comment's current rank and recent reply activity, updating its stored history",
	}
	tr := &tracker{proc: proc}
	mcp.AddTool(server, tool, tr.HandleTrackComment)
	log.Println("[MCP Tracker Server] Registered tool: track_comment")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("[MCP Tracker Server] Received shutdown signal")
		cancel()
	}()

	log.Println("[MCP Tracker Server] Starting on stdio transport...")
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatalf("[MCP Tracker Server] Server error: %v", err)
	}
	log.Println("[MCP Tracker Server] Server stopped gracefully")
}
