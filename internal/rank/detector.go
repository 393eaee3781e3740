package rank

import (
	"context"
	"log"

	"github.com/cexll/reddit-tracker/internal/identity"
	"github.com/cexll/reddit-tracker/internal/reddit"
)

// Gateway is the slice of the comment source the detector needs. The
// returned listings carry Reddit's own "best" ordering, which the detector
// treats as ground truth and never re-derives from scores.
type Gateway interface {
	FetchComment(ctx context.Context, commentID string) (*reddit.Comment, error)
	FetchTopLevelComments(ctx context.Context, postID string) ([]*reddit.Comment, error)
	FetchReplies(ctx context.Context, commentID string) ([]*reddit.Comment, error)
}

// Detector computes the position of a comment among its siblings.
type Detector struct {
	gw   Gateway
	topN int
}

// NewDetector creates a detector reporting positions up to topN.
func NewDetector(gw Gateway, topN int) *Detector {
	if topN <= 0 {
		topN = 5
	}
	return &Detector{gw: gw, topN: topN}
}

// Detect returns the comment's 1-based rank within its comparison set: the
// post's top-level comments for a top-level comment, the parent's direct
// replies otherwise. Every failure mode degrades to NotRanked so a batch
// can continue with its remaining identities.
func (d *Detector) Detect(ctx context.Context, id identity.Identity) Rank {
	target, err := d.gw.FetchComment(ctx, id.CommentID)
	if err != nil {
		log.Printf("Rank detection for %s: fetch target: %v", id, err)
		return NotRanked
	}

	// A deleted comment cannot meaningfully hold a rank.
	if target.Deleted {
		return NotRanked
	}

	var set []*reddit.Comment
	if target.IsTopLevel() {
		set, err = d.gw.FetchTopLevelComments(ctx, id.PostID)
	} else {
		parent := target.ParentCommentID()
		if parent == "" {
			log.Printf("Rank detection for %s: unresolvable parent %q", id, target.ParentID)
			return NotRanked
		}
		set, err = d.gw.FetchReplies(ctx, parent)
	}
	if err != nil {
		log.Printf("Rank detection for %s: fetch comparison set: %v", id, err)
		return NotRanked
	}

	pos := position(id.CommentID, set)
	if pos == NotRanked || int(pos) > d.topN {
		return NotRanked
	}
	return pos
}

// position returns the 1-based index of the first element with the target
// id, or NotRanked when the target is absent from the set.
func position(commentID string, set []*reddit.Comment) Rank {
	for i, c := range set {
		if c.ID == commentID {
			return Rank(i + 1)
		}
	}
	return NotRanked
}
