package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
)

const (
	sortBest     = "best"
	listingLimit = 500

	// morechildren accepts at most 100 ids per call.
	moreBatchSize = 100
)

type infoOptions struct {
	ID      string `url:"id"`
	RawJSON int    `url:"raw_json"`
}

// FetchComment fetches a single comment by bare id.
func (c *Client) FetchComment(ctx context.Context, commentID string) (*Comment, error) {
	var env thing
	opts := infoOptions{ID: commentPrefix + commentID, RawJSON: 1}
	if err := c.get(ctx, "/api/info", opts, &env); err != nil {
		return nil, err
	}

	var ld listingData
	if err := json.Unmarshal(env.Data, &ld); err != nil {
		return nil, fmt.Errorf("decode info listing: %w", err)
	}
	comments, _, err := parseThings(ld.Children)
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, ErrNotFound
	}
	return comments[0], nil
}

// FetchTopLevelComments returns the post's top-level comments in Reddit's
// "best" order with every collapsed placeholder expanded. The returned
// order is external ground truth and is never re-sorted locally.
func (c *Client) FetchTopLevelComments(ctx context.Context, postID string) ([]*Comment, error) {
	opts := listingOptions{Sort: sortBest, Limit: listingLimit, Depth: 1, RawJSON: 1}

	var envs []thing
	if err := c.get(ctx, "/comments/"+postID, opts, &envs); err != nil {
		return nil, err
	}
	if len(envs) < 2 {
		return nil, fmt.Errorf("unexpected comments response for post %s", postID)
	}

	var ld listingData
	if err := json.Unmarshal(envs[1].Data, &ld); err != nil {
		return nil, fmt.Errorf("decode comment listing: %w", err)
	}
	comments, more, err := parseThings(ld.Children)
	if err != nil {
		return nil, err
	}

	link := postPrefix + postID
	index := make(map[string]*Comment)
	var top []*Comment
	for _, cm := range comments {
		index[cm.ID] = cm
		if cm.ParentID == link {
			top = append(top, cm)
		}
	}

	// An unexpanded placeholder would make a trailing comment look absent,
	// so expansion failures here fail the whole listing.
	if err := c.expandMore(ctx, link, more, index, func(cm *Comment) {
		top = append(top, cm)
	}); err != nil {
		return nil, err
	}
	return top, nil
}

// FetchReplies returns the direct children of a comment in "best" order,
// fully expanded.
func (c *Client) FetchReplies(ctx context.Context, commentID string) ([]*Comment, error) {
	target, more, index, err := c.fetchCommentTree(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if err := c.expandMore(ctx, target.LinkID, more, index, nil); err != nil {
		return nil, err
	}
	return target.Replies, nil
}

// FetchReplySubtree returns the comment with its full descendant tree.
// Placeholder expansion failures reduce completeness but do not fail the
// fetch; the best obtainable subtree is returned.
func (c *Client) FetchReplySubtree(ctx context.Context, commentID string) (*Comment, error) {
	target, more, index, err := c.fetchCommentTree(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if err := c.expandMore(ctx, target.LinkID, more, index, nil); err != nil {
		log.Printf("Partial reply subtree for %s: %v", commentID, err)
	}
	return target, nil
}

// fetchCommentTree fetches the comment-focused listing for a comment and
// returns the target node, the pending "more" ids, and an id index of every
// node fetched so far.
func (c *Client) fetchCommentTree(ctx context.Context, commentID string) (*Comment, []string, map[string]*Comment, error) {
	// The comment's post is needed for the permalink listing.
	info, err := c.FetchComment(ctx, commentID)
	if err != nil {
		return nil, nil, nil, err
	}

	opts := listingOptions{Sort: sortBest, Limit: listingLimit, RawJSON: 1}
	path := fmt.Sprintf("/comments/%s/_/%s", info.PostID(), commentID)

	var envs []thing
	if err := c.get(ctx, path, opts, &envs); err != nil {
		return nil, nil, nil, err
	}
	if len(envs) < 2 {
		return nil, nil, nil, fmt.Errorf("unexpected comments response for comment %s", commentID)
	}

	var ld listingData
	if err := json.Unmarshal(envs[1].Data, &ld); err != nil {
		return nil, nil, nil, fmt.Errorf("decode comment listing: %w", err)
	}
	comments, more, err := parseThings(ld.Children)
	if err != nil {
		return nil, nil, nil, err
	}

	var target *Comment
	index := make(map[string]*Comment)
	var walk func(nodes []*Comment)
	walk = func(nodes []*Comment) {
		for _, n := range nodes {
			index[n.ID] = n
			if n.ID == commentID {
				target = n
			}
			walk(n.Replies)
		}
	}
	walk(comments)

	if target == nil {
		return nil, nil, nil, ErrNotFound
	}
	return target, more, index, nil
}

type moreChildrenOptions struct {
	APIType  string `url:"api_type"`
	LinkID   string `url:"link_id"`
	Children string `url:"children"`
	Sort     string `url:"sort,omitempty"`
	RawJSON  int    `url:"raw_json"`
}

type moreChildrenResponse struct {
	JSON struct {
		Data struct {
			Things []thing `json:"things"`
		} `json:"data"`
	} `json:"json"`
}

// expandMore drains "more" placeholders through /api/morechildren,
// attaching every returned comment to its parent in index. Comments whose
// parent is the post itself are handed to attachRoot when provided.
// Expanded batches can surface further placeholders; those are drained too.
func (c *Client) expandMore(ctx context.Context, linkFullname string, pending []string, index map[string]*Comment, attachRoot func(*Comment)) error {
	for len(pending) > 0 {
		n := len(pending)
		if n > moreBatchSize {
			n = moreBatchSize
		}
		batch := pending[:n]
		pending = pending[n:]

		opts := moreChildrenOptions{
			APIType:  "json",
			LinkID:   linkFullname,
			Children: strings.Join(batch, ","),
			Sort:     sortBest,
			RawJSON:  1,
		}
		var resp moreChildrenResponse
		if err := c.get(ctx, "/api/morechildren", opts, &resp); err != nil {
			return err
		}

		comments, more, err := parseThings(resp.JSON.Data.Things)
		if err != nil {
			return err
		}
		for _, cm := range comments {
			index[cm.ID] = cm
			if parent := cm.ParentCommentID(); parent != "" {
				if p, ok := index[parent]; ok {
					p.Replies = append(p.Replies, cm)
				}
				continue
			}
			if cm.ParentID == linkFullname && attachRoot != nil {
				attachRoot(cm)
			}
		}
		pending = append(pending, more...)
	}
	return nil
}
