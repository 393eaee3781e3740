package jobs

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/cexll/reddit-tracker/internal/processor"
)

// ErrJobRunning is returned when a session tries to start a second batch
// while one is still in flight.
var ErrJobRunning = errors.New("a tracking job is already running for this session")

// Job is the in-memory progress record of one batch, keyed by session.
type Job struct {
	ID         string
	Running    bool
	Progress   int
	Total      int
	CurrentURL string
	Results    []processor.Result
	Err        string
	StartedAt  time.Time

	// lastTouched guards the sweep: a job is only eligible for removal
	// once nothing has written to it for the full TTL.
	lastTouched time.Time
}

// Status is a point-in-time copy safe to hand to callers.
type Status struct {
	Running      bool
	Progress     int
	Total        int
	CurrentURL   string
	ResultsCount int
	Err          string
}

// Registry tracks in-flight and recently finished batch jobs. The map is
// never exposed; all access goes through accessors under one mutex.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
	now  func() time.Time
}

// NewRegistry creates a registry whose sweep removes jobs idle longer
// than ttl.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Registry{
		jobs: make(map[string]*Job),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Start registers a new running job for the session. A session can only
// run one job at a time; finished jobs are replaced.
func (r *Registry) Start(id string, total int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if job, ok := r.jobs[id]; ok && job.Running {
		return ErrJobRunning
	}

	now := r.now()
	r.jobs[id] = &Job{
		ID:          id,
		Running:     true,
		Total:       total,
		StartedAt:   now,
		lastTouched: now,
	}
	return nil
}

// SetProgress records which input the job is currently working on.
func (r *Registry) SetProgress(id string, done int, url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		job.Progress = done
		job.CurrentURL = url
		job.lastTouched = r.now()
	}
}

// Append adds a completed result to the job.
func (r *Registry) Append(id string, res processor.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		job.Results = append(job.Results, res)
		job.lastTouched = r.now()
	}
}

// Complete marks the job finished, with errMsg set when it failed.
func (r *Registry) Complete(id string, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		job.Running = false
		job.Progress = job.Total
		job.CurrentURL = ""
		job.Err = errMsg
		job.lastTouched = r.now()
	}
}

// Snapshot returns the current status of the session's job.
func (r *Registry) Snapshot(id string) (Status, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return Status{}, false
	}
	return Status{
		Running:      job.Running,
		Progress:     job.Progress,
		Total:        job.Total,
		CurrentURL:   job.CurrentURL,
		ResultsCount: len(job.Results),
		Err:          job.Err,
	}, true
}

// Results returns a copy of the job's results so far.
func (r *Registry) Results(id string) []processor.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil
	}
	out := make([]processor.Result, len(job.Results))
	copy(out, job.Results)
	return out
}

// Sweep removes finished jobs whose last write is older than the TTL and
// returns how many were removed. Running jobs are never swept, and the
// watermark is rechecked under the lock immediately before deletion.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.ttl)
	removed := 0
	for id, job := range r.jobs {
		if job.Running || job.lastTouched.After(cutoff) {
			continue
		}
		delete(r.jobs, id)
		removed++
	}
	return removed
}

// StartSweeper runs Sweep at the given interval until ctx is cancelled.
func (r *Registry) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := r.Sweep(); n > 0 {
					log.Printf("Swept %d expired tracking jobs", n)
				}
			}
		}
	}()
}
