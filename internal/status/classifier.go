package status

import (
	"context"
	"time"

	"github.com/cexll/reddit-tracker/internal/rank"
	"github.com/cexll/reddit-tracker/internal/tracking"
)

// Outcome is the user-facing classification of one tracking pass. The
// strings appear verbatim in exported spreadsheets.
type Outcome string

const (
	NoChange               Outcome = "No Change"
	RankingChanged         Outcome = "Ranking Changed"
	ReplyReceived          Outcome = "Reply Received"
	RankingChangedAndReply Outcome = "Ranking Changed + Reply Received"
)

// Classifier combines rank movement and reply activity into an Outcome,
// advancing the store's history as a side effect.
type Classifier struct {
	store tracking.Store
}

// NewClassifier creates a classifier over the given store.
func NewClassifier(store tracking.Store) *Classifier {
	return &Classifier{store: store}
}

// Classify determines the outcome for one identity and records the new
// rank and reply evidence. The store update happens on every call, a
// NoChange result included, so history advances monotonically. Store
// errors are returned as-is: without history no status can be computed.
func (c *Classifier) Classify(ctx context.Context, identity string, newRank rank.Rank, hasReply bool, replyAt time.Time) (Outcome, error) {
	changed, err := c.store.HasRankChanged(ctx, identity, newRank.String())
	if err != nil {
		return "", err
	}

	if err := c.store.Update(ctx, identity, newRank.String(), replyAt); err != nil {
		return "", err
	}

	switch {
	case changed && hasReply:
		return RankingChangedAndReply, nil
	case changed:
		return RankingChanged, nil
	case hasReply:
		return ReplyReceived, nil
	default:
		return NoChange, nil
	}
}
