package reddit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	kindComment = "t1"
	kindMore    = "more"

	postPrefix    = "t3_"
	commentPrefix = "t1_"
)

// Comment is a snapshot of a single comment as returned by the Reddit API.
// Replies holds the direct children in the order the API returned them.
type Comment struct {
	ID        string
	ParentID  string // fullname of the parent ("t1_..." or "t3_...")
	LinkID    string // fullname of the post ("t3_...")
	Score     int
	CreatedAt time.Time
	Author    string
	Body      string
	Deleted   bool
	Replies   []*Comment
}

// IsTopLevel reports whether the comment is attached directly to the post.
func (c *Comment) IsTopLevel() bool {
	return strings.HasPrefix(c.ParentID, postPrefix)
}

// ParentCommentID returns the bare id of the parent comment, or "" when the
// parent is the post itself.
func (c *Comment) ParentCommentID() string {
	if strings.HasPrefix(c.ParentID, commentPrefix) {
		return strings.TrimPrefix(c.ParentID, commentPrefix)
	}
	return ""
}

// PostID returns the bare id of the post the comment belongs to.
func (c *Comment) PostID() string {
	return strings.TrimPrefix(c.LinkID, postPrefix)
}

// thing is Reddit's polymorphic wire envelope.
type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type listingData struct {
	Children []thing `json:"children"`
}

type commentData struct {
	ID         string          `json:"id"`
	ParentID   string          `json:"parent_id"`
	LinkID     string          `json:"link_id"`
	Score      int             `json:"score"`
	CreatedUTC float64         `json:"created_utc"`
	Author     string          `json:"author"`
	Body       string          `json:"body"`
	Replies    json.RawMessage `json:"replies"`
}

type moreData struct {
	Children []string `json:"children"`
}

func isTombstone(body string) bool {
	return body == "[deleted]" || body == "[removed]"
}

// parseThings converts a slice of wire things into comments, preserving the
// API order, and collects the child ids of any "more" placeholders.
func parseThings(things []thing) ([]*Comment, []string, error) {
	var (
		comments []*Comment
		more     []string
	)
	for _, th := range things {
		switch th.Kind {
		case kindComment:
			c, childMore, err := parseComment(th.Data)
			if err != nil {
				return nil, nil, err
			}
			comments = append(comments, c)
			more = append(more, childMore...)
		case kindMore:
			var md moreData
			if err := json.Unmarshal(th.Data, &md); err != nil {
				return nil, nil, fmt.Errorf("decode more placeholder: %w", err)
			}
			more = append(more, md.Children...)
		}
	}
	return comments, more, nil
}

func parseComment(raw json.RawMessage) (*Comment, []string, error) {
	var cd commentData
	if err := json.Unmarshal(raw, &cd); err != nil {
		return nil, nil, fmt.Errorf("decode comment: %w", err)
	}

	c := &Comment{
		ID:        cd.ID,
		ParentID:  cd.ParentID,
		LinkID:    cd.LinkID,
		Score:     cd.Score,
		CreatedAt: time.Unix(int64(cd.CreatedUTC), 0).UTC(),
		Author:    cd.Author,
		Body:      cd.Body,
		Deleted:   isTombstone(cd.Body),
	}

	// Reddit sends "" instead of a listing when a comment has no replies.
	var more []string
	if len(cd.Replies) > 0 && cd.Replies[0] == '{' {
		var env thing
		if err := json.Unmarshal(cd.Replies, &env); err != nil {
			return nil, nil, fmt.Errorf("decode replies listing: %w", err)
		}
		var ld listingData
		if err := json.Unmarshal(env.Data, &ld); err != nil {
			return nil, nil, fmt.Errorf("decode replies children: %w", err)
		}
		children, childMore, err := parseThings(ld.Children)
		if err != nil {
			return nil, nil, err
		}
		c.Replies = children
		more = childMore
	}

	return c, more, nil
}
