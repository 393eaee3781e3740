package processor

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/cexll/reddit-tracker/internal/identity"
	"github.com/cexll/reddit-tracker/internal/rank"
	"github.com/cexll/reddit-tracker/internal/status"
	"github.com/cexll/reddit-tracker/internal/tracking"
)

// PreviousUnknown is rendered when an identity has no stored history.
const PreviousUnknown = "N/A"

// RankDetector computes a comment's position within its comparison set.
type RankDetector interface {
	Detect(ctx context.Context, id identity.Identity) rank.Rank
}

// ReplyScanner checks a comment's subtree for recent reply activity.
type ReplyScanner interface {
	Scan(ctx context.Context, commentID string) (bool, time.Time)
}

// Classifier combines rank movement and reply activity into an outcome.
type Classifier interface {
	Classify(ctx context.Context, identity string, newRank rank.Rank, hasReply bool, replyAt time.Time) (status.Outcome, error)
}

// Result is one output record. The JSON keys double as the export column
// headers and are an external contract.
type Result struct {
	URL          string `json:"URL"`
	Status       string `json:"Status"`
	PresentRank  string `json:"Present Rank"`
	PreviousRank string `json:"Previous Rank"`
}

// Mode selects the batch scheduling strategy.
type Mode int

const (
	// ModeSequential resolves one identity completely before the next.
	ModeSequential Mode = iota
	// ModeStagedParallel ranks sequentially, scans replies concurrently,
	// then classifies in input order.
	ModeStagedParallel
)

// Processor runs the tracking pipeline across comment identities.
type Processor struct {
	detector   RankDetector
	scanner    ReplyScanner
	classifier Classifier
	store      tracking.Store

	newScanner func() ReplyScanner
	workers    int
}

// New creates a sequential processor.
func New(detector RankDetector, scanner ReplyScanner, classifier Classifier, store tracking.Store) *Processor {
	return &Processor{
		detector:   detector,
		scanner:    scanner,
		classifier: classifier,
		store:      store,
		workers:    5,
	}
}

// WithParallel configures staged-parallel scanning. Each worker calls
// newScanner once so it gets its own independent gateway session.
func (p *Processor) WithParallel(newScanner func() ReplyScanner, workers int) *Processor {
	p.newScanner = newScanner
	if workers > 0 {
		p.workers = workers
	}
	return p
}

// ProcessOne resolves a single comment reference end to end. Per-identity
// parse and gateway failures degrade to the safe defaults; only a store
// failure is returned as an error, since no status is computable without
// history.
func (p *Processor) ProcessOne(ctx context.Context, url string) (Result, error) {
	id, err := identity.Parse(url)
	if err != nil {
		log.Printf("Skipping unparseable reference %q: %v", url, err)
		return Result{
			URL:          url,
			Status:       string(status.NoChange),
			PresentRank:  rank.NotRankedLabel,
			PreviousRank: PreviousUnknown,
		}, nil
	}

	// Read history before the classifier advances it.
	previous, err := p.store.GetPrevious(ctx, id.Key())
	if err != nil {
		return Result{}, err
	}

	currentRank := p.detector.Detect(ctx, id)
	hasReply, replyAt := p.scanner.Scan(ctx, id.CommentID)

	outcome, err := p.classifier.Classify(ctx, id.Key(), currentRank, hasReply, replyAt)
	if err != nil {
		return Result{}, err
	}

	return Result{
		URL:          url,
		Status:       string(outcome),
		PresentRank:  currentRank.String(),
		PreviousRank: previousLabel(previous),
	}, nil
}

// ProcessBatch resolves every reference and returns exactly one result per
// input, in input order.
func (p *Processor) ProcessBatch(ctx context.Context, urls []string, mode Mode) ([]Result, error) {
	if mode == ModeStagedParallel {
		return p.processStaged(ctx, urls)
	}

	results := make([]Result, 0, len(urls))
	for i, url := range urls {
		log.Printf("Processing comment %d/%d: %s", i+1, len(urls), url)
		res, err := p.ProcessOne(ctx, url)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

type stagedItem struct {
	url       string
	id        identity.Identity
	malformed bool

	rank     rank.Rank
	hasReply bool
	replyAt  time.Time
}

func (p *Processor) processStaged(ctx context.Context, urls []string) ([]Result, error) {
	items := make([]stagedItem, len(urls))

	// Phase 1: rank detection, sequential. The gateway ties rate-limit
	// state to its session, so these requests stay in input order.
	for i, url := range urls {
		items[i].url = url
		id, err := identity.Parse(url)
		if err != nil {
			log.Printf("Skipping unparseable reference %q: %v", url, err)
			items[i].malformed = true
			continue
		}
		items[i].id = id
		items[i].rank = p.detector.Detect(ctx, id)
	}

	// Phase 2: reply scanning, bounded worker pool with an independent
	// scanner session per worker.
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			scanner := p.scanner
			if p.newScanner != nil {
				scanner = p.newScanner()
			}
			for i := range jobs {
				it := &items[i]
				if it.malformed {
					continue
				}
				it.hasReply, it.replyAt = scanner.Scan(ctx, it.id.CommentID)
			}
		}()
	}
	for i := range items {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	// Phase 3: join and classify, back in input order.
	results := make([]Result, 0, len(items))
	for _, it := range items {
		if it.malformed {
			results = append(results, Result{
				URL:          it.url,
				Status:       string(status.NoChange),
				PresentRank:  rank.NotRankedLabel,
				PreviousRank: PreviousUnknown,
			})
			continue
		}

		previous, err := p.store.GetPrevious(ctx, it.id.Key())
		if err != nil {
			return nil, err
		}
		outcome, err := p.classifier.Classify(ctx, it.id.Key(), it.rank, it.hasReply, it.replyAt)
		if err != nil {
			return nil, err
		}
		results = append(results, Result{
			URL:          it.url,
			Status:       string(outcome),
			PresentRank:  it.rank.String(),
			PreviousRank: previousLabel(previous),
		})
	}
	return results, nil
}

func previousLabel(previous string) string {
	if previous == "" {
		return PreviousUnknown
	}
	return previous
}
