package tracking

import (
	"context"
	"sync"
	"time"
)

// MemStore is an in-memory Store. It backs tests and one-shot runs that
// have no durable database configured.
type MemStore struct {
	mu      sync.Mutex
	records map[string]*Record
	now     func() time.Time
}

var _ Store = &MemStore{}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		records: make(map[string]*Record),
		now:     time.Now,
	}
}

func (s *MemStore) GetPrevious(ctx context.Context, identity string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[identity]; ok {
		return rec.CurrentRank, nil
	}
	return "", nil
}

func (s *MemStore) HasRankChanged(ctx context.Context, identity string, newRank string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[identity]
	if !ok {
		return false, nil
	}
	return rec.CurrentRank != newRank, nil
}

func (s *MemStore) Update(ctx context.Context, identity string, newRank string, replyAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[identity]
	if !ok {
		rec = &Record{Identity: identity}
		s.records[identity] = rec
	}

	rec.PreviousRank = rec.CurrentRank
	rec.CurrentRank = newRank
	rec.LastCheckedAt = s.now()
	if !replyAt.IsZero() {
		rec.LastReplyAt = replyAt
	}
	return nil
}

// Record returns a copy of the stored row, or ErrNotTracked.
func (s *MemStore) Record(ctx context.Context, identity string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[identity]
	if !ok {
		return nil, ErrNotTracked
	}
	cp := *rec
	return &cp, nil
}
