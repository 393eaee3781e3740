package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/cexll/reddit-tracker/internal/config"
	"github.com/cexll/reddit-tracker/internal/input"
	"github.com/cexll/reddit-tracker/internal/output"
	"github.com/cexll/reddit-tracker/internal/processor"
	"github.com/cexll/reddit-tracker/internal/rank"
	"github.com/cexll/reddit-tracker/internal/reddit"
	"github.com/cexll/reddit-tracker/internal/reply"
	"github.com/cexll/reddit-tracker/internal/status"
	"github.com/cexll/reddit-tracker/internal/tracking"
)

func main() {
	var (
		source   = flag.String("input", "", "input spreadsheet: local CSV, download URL, or Google Sheets link")
		outPath  = flag.String("o", "", "output CSV path (default: auto-generated with timestamp)")
		parallel = flag.Bool("parallel", false, "scan replies concurrently after sequential rank detection")
		workers  = flag.Int("workers", 5, "number of parallel reply workers")
	)
	flag.Parse()

	if *source == "" {
		fmt.Fprintln(os.Stderr, "usage: trackctl -input <source> [-o out.csv] [-parallel] [-workers N]")
		os.Exit(2)
	}

	if err := run(context.Background(), *source, *outPath, *parallel, *workers); err != nil {
		log.Fatalf("trackctl: %v", err)
	}
}

func run(ctx context.Context, source, outPath string, parallel bool, workers int) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log.Printf("Loading input from %s", source)
	urls, err := input.Load(ctx, source)
	if err != nil {
		return err
	}
	log.Printf("Loaded %d comment URLs", len(urls))

	store, closeStore, err := tracking.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open tracking store: %w", err)
	}
	defer func() { _ = closeStore() }()

	newClient := func() *reddit.Client {
		return reddit.NewClient(cfg.RedditClientID, cfg.RedditClientSecret, cfg.RedditUserAgent)
	}
	client := newClient()
	detector := rank.NewDetector(client, cfg.TopN)
	scanner := reply.NewScanner(client, cfg.ReplyWindow)
	classifier := status.NewClassifier(store)

	proc := processor.New(detector, scanner, classifier, store)
	mode := processor.ModeSequential
	if parallel {
		// Each reply worker gets its own API session so the shared rank
		// session keeps its request ordering.
		proc.WithParallel(func() processor.ReplyScanner {
			return reply.NewScanner(newClient(), cfg.ReplyWindow)
		}, workers)
		mode = processor.ModeStagedParallel
		log.Printf("Using staged-parallel processing with %d workers", workers)
	}

	results, err := proc.ProcessBatch(ctx, urls, mode)
	if err != nil {
		return err
	}

	path, err := output.WriteFile(outPath, results)
	if err != nil {
		return err
	}
	log.Printf("Output saved to %s", path)

	printSummary(results)
	return nil
}

func printSummary(results []processor.Result) {
	statusCounts := make(map[string]int)
	rankCounts := make(map[string]int)
	for _, res := range results {
		statusCounts[res.Status]++
		rankCounts[res.PresentRank]++
	}

	fmt.Println("\nStatus distribution:")
	for _, s := range []status.Outcome{status.NoChange, status.RankingChanged, status.ReplyReceived, status.RankingChangedAndReply} {
		if n := statusCounts[string(s)]; n > 0 {
			fmt.Printf("  %s: %d\n", s, n)
		}
	}

	fmt.Println("\nRank distribution:")
	for _, r := range []string{"1", "2", "3", "4", "5", rank.NotRankedLabel} {
		if n := rankCounts[r]; n > 0 {
			fmt.Printf("  %s: %d\n", r, n)
		}
	}
}
