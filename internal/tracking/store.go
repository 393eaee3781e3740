package tracking

import (
	"context"
	"time"
)

// Record is the persisted history for one tracked comment identity.
// PreviousRank is always the CurrentRank as it stood before the most recent
// Update; it is never recomputed. LastReplyAt only ever moves forward.
type Record struct {
	Identity      string
	CurrentRank   string
	PreviousRank  string
	LastCheckedAt time.Time
	LastReplyAt   time.Time
}

// Store is durable per-identity rank and reply history across runs.
//
// GetPrevious and HasRankChanged read the stored current rank strictly
// before the corresponding Update is applied. Implementations must
// serialize Update calls per identity; updates to distinct identities are
// independent.
type Store interface {
	// GetPrevious returns the stored current rank, or "" for an identity
	// that has never been tracked.
	GetPrevious(ctx context.Context, identity string) (string, error)

	// HasRankChanged compares newRank against the stored current rank.
	// A never-tracked identity is never reported as changed.
	HasRankChanged(ctx context.Context, identity string, newRank string) (bool, error)

	// Update upserts the record: the stored current rank becomes the
	// previous rank, newRank becomes current, and the checked timestamp is
	// refreshed. A zero replyAt preserves the stored last-reply time.
	Update(ctx context.Context, identity string, newRank string, replyAt time.Time) error
}
