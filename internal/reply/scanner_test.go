package reply

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cexll/reddit-tracker/internal/reddit"
)

type fakeGateway struct {
	tree *reddit.Comment
	err  error
}

func (g *fakeGateway) FetchReplySubtree(ctx context.Context, commentID string) (*reddit.Comment, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.tree, nil
}

func newScannerAt(gw Gateway, now time.Time) *Scanner {
	s := NewScanner(gw, 72*time.Hour)
	s.now = func() time.Time { return now }
	return s
}

func TestScan_GrandchildCounts(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-2 * time.Hour)
	old := now.Add(-100 * time.Hour)

	// Only a grandchild is inside the window.
	tree := &reddit.Comment{
		ID: "target",
		Replies: []*reddit.Comment{
			{
				ID:        "child",
				CreatedAt: old,
				Replies: []*reddit.Comment{
					{ID: "grandchild", CreatedAt: recent},
				},
			},
		},
	}

	has, at := newScannerAt(&fakeGateway{tree: tree}, now).Scan(context.Background(), "target")
	if !has {
		t.Fatal("Scan should report a recent reply from a nested level")
	}
	if !at.Equal(recent) {
		t.Fatalf("Scan timestamp = %v, want %v", at, recent)
	}
}

func TestScan_ReportsNewestQualifyingTimestamp(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	older := now.Add(-48 * time.Hour)
	newest := now.Add(-1 * time.Hour)

	tree := &reddit.Comment{
		ID: "target",
		Replies: []*reddit.Comment{
			{ID: "a", CreatedAt: older},
			{ID: "b", CreatedAt: newest},
			{ID: "c", CreatedAt: now.Add(-24 * time.Hour)},
		},
	}

	has, at := newScannerAt(&fakeGateway{tree: tree}, now).Scan(context.Background(), "target")
	if !has {
		t.Fatal("Scan should report a recent reply")
	}
	if !at.Equal(newest) {
		t.Fatalf("Scan timestamp = %v, want newest %v", at, newest)
	}
}

func TestScan_NothingInWindow(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	tree := &reddit.Comment{
		ID: "target",
		Replies: []*reddit.Comment{
			{ID: "a", CreatedAt: now.Add(-80 * time.Hour)},
		},
	}

	has, at := newScannerAt(&fakeGateway{tree: tree}, now).Scan(context.Background(), "target")
	if has {
		t.Fatal("Scan should not report replies outside the window")
	}
	if !at.IsZero() {
		t.Fatalf("Scan timestamp = %v, want zero", at)
	}
}

func TestScan_FetchFailureLooksLikeQuiet(t *testing.T) {
	gw := &fakeGateway{err: errors.New("boom")}
	has, at := NewScanner(gw, 72*time.Hour).Scan(context.Background(), "target")
	if has || !at.IsZero() {
		t.Fatalf("Scan after failure = (%v, %v), want (false, zero)", has, at)
	}
}

func TestScan_NoReplies(t *testing.T) {
	gw := &fakeGateway{tree: &reddit.Comment{ID: "target"}}
	has, at := NewScanner(gw, 72*time.Hour).Scan(context.Background(), "target")
	if has || !at.IsZero() {
		t.Fatalf("Scan of leaf = (%v, %v), want (false, zero)", has, at)
	}
}
