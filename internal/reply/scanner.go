package reply

import (
	"context"
	"log"
	"time"

	"github.com/cexll/reddit-tracker/internal/reddit"
)

// Gateway is the slice of the comment source the scanner needs.
type Gateway interface {
	FetchReplySubtree(ctx context.Context, commentID string) (*reddit.Comment, error)
}

// Scanner looks for reply activity within a sliding window.
type Scanner struct {
	gw     Gateway
	window time.Duration
	now    func() time.Time
}

// NewScanner creates a scanner with the given activity window.
func NewScanner(gw Gateway, window time.Duration) *Scanner {
	if window <= 0 {
		window = 72 * time.Hour
	}
	return &Scanner{gw: gw, window: window, now: time.Now}
}

// Scan reports whether any reply in the comment's descendant tree was
// created within the window, and the newest such timestamp. A failed scan
// and a quiet subtree are deliberately indistinguishable: both report
// (false, zero time).
func (s *Scanner) Scan(ctx context.Context, commentID string) (bool, time.Time) {
	root, err := s.gw.FetchReplySubtree(ctx, commentID)
	if err != nil {
		log.Printf("Reply scan for %s: %v", commentID, err)
		return false, time.Time{}
	}

	cutoff := s.now().Add(-s.window)
	latest := latestSince(root.Replies, cutoff)
	if latest.IsZero() {
		return false, time.Time{}
	}
	return true, latest
}

// latestSince folds over the tree and returns the newest creation time at
// or after the cutoff, or the zero time when nothing qualifies. Replies at
// any depth count, not just direct children.
func latestSince(nodes []*reddit.Comment, cutoff time.Time) time.Time {
	var latest time.Time
	for _, n := range nodes {
		if !n.CreatedAt.Before(cutoff) && n.CreatedAt.After(latest) {
			latest = n.CreatedAt
		}
		if sub := latestSince(n.Replies, cutoff); sub.After(latest) {
			latest = sub
		}
	}
	return latest
}
