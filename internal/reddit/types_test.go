package reddit

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseComment_NoReplies(t *testing.T) {
	// Reddit sends an empty string, not a listing, when there are no replies.
	raw := json.RawMessage(`{
		"id": "c1",
		"parent_id": "t3_post1",
		"link_id": "t3_post1",
		"score": 42,
		"created_utc": 1756100000.0,
		"author": "alice",
		"body": "hello",
		"replies": ""
	}`)

	c, more, err := parseComment(raw)
	if err != nil {
		t.Fatalf("parseComment failed: %v", err)
	}
	if len(more) != 0 {
		t.Fatalf("more = %v, want none", more)
	}
	if c.ID != "c1" || c.Score != 42 || c.Author != "alice" {
		t.Fatalf("parsed comment = %+v", c)
	}
	if !c.IsTopLevel() {
		t.Error("comment with t3_ parent should be top-level")
	}
	if c.PostID() != "post1" {
		t.Errorf("PostID = %q, want post1", c.PostID())
	}
	if got := c.ParentCommentID(); got != "" {
		t.Errorf("ParentCommentID = %q, want empty for top-level", got)
	}
	if want := time.Unix(1756100000, 0).UTC(); !c.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", c.CreatedAt, want)
	}
}

func TestParseComment_NestedReplies(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "c1",
		"parent_id": "t3_post1",
		"link_id": "t3_post1",
		"score": 10,
		"created_utc": 1756100000,
		"author": "alice",
		"body": "parent",
		"replies": {
			"kind": "Listing",
			"data": {
				"children": [
					{"kind": "t1", "data": {
						"id": "c2",
						"parent_id": "t1_c1",
						"link_id": "t3_post1",
						"score": 3,
						"created_utc": 1756100100,
						"author": "bob",
						"body": "child",
						"replies": ""
					}}
				]
			}
		}
	}`)

	c, _, err := parseComment(raw)
	if err != nil {
		t.Fatalf("parseComment failed: %v", err)
	}
	if len(c.Replies) != 1 {
		t.Fatalf("got %d replies, want 1", len(c.Replies))
	}
	child := c.Replies[0]
	if child.ID != "c2" || child.IsTopLevel() {
		t.Fatalf("child = %+v", child)
	}
	if child.ParentCommentID() != "c1" {
		t.Errorf("ParentCommentID = %q, want c1", child.ParentCommentID())
	}
}

func TestParseComment_Tombstone(t *testing.T) {
	for _, body := range []string{"[deleted]", "[removed]"} {
		raw := json.RawMessage(`{
			"id": "c1",
			"parent_id": "t3_post1",
			"link_id": "t3_post1",
			"body": "` + body + `",
			"replies": ""
		}`)
		c, _, err := parseComment(raw)
		if err != nil {
			t.Fatalf("parseComment(%s) failed: %v", body, err)
		}
		if !c.Deleted {
			t.Errorf("comment with body %s should be marked deleted", body)
		}
	}
}

func TestParseThings_CollectsMorePlaceholders(t *testing.T) {
	things := []thing{
		{Kind: "t1", Data: json.RawMessage(`{
			"id": "c1",
			"parent_id": "t3_post1",
			"link_id": "t3_post1",
			"body": "first",
			"replies": {"kind": "Listing", "data": {"children": [
				{"kind": "more", "data": {"children": ["c9", "c10"]}}
			]}}
		}`)},
		{Kind: "more", Data: json.RawMessage(`{"children": ["c5", "c6"]}`)},
	}

	comments, more, err := parseThings(things)
	if err != nil {
		t.Fatalf("parseThings failed: %v", err)
	}
	if len(comments) != 1 || comments[0].ID != "c1" {
		t.Fatalf("comments = %+v", comments)
	}

	want := map[string]bool{"c5": true, "c6": true, "c9": true, "c10": true}
	if len(more) != len(want) {
		t.Fatalf("more = %v, want ids %v", more, want)
	}
	for _, id := range more {
		if !want[id] {
			t.Errorf("unexpected more id %q", id)
		}
	}
}

func TestParseThings_PreservesOrder(t *testing.T) {
	mk := func(id string) thing {
		return thing{Kind: "t1", Data: json.RawMessage(`{
			"id": "` + id + `",
			"parent_id": "t3_post1",
			"link_id": "t3_post1",
			"body": "x",
			"replies": ""
		}`)}
	}

	comments, _, err := parseThings([]thing{mk("a"), mk("b"), mk("c")})
	if err != nil {
		t.Fatalf("parseThings failed: %v", err)
	}
	for i, id := range []string{"a", "b", "c"} {
		if comments[i].ID != id {
			t.Fatalf("comment %d = %q, want %q (API order must survive parsing)", i, comments[i].ID, id)
		}
	}
}
