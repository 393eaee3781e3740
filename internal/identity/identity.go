package identity

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformedReference indicates a comment reference that does not contain
// a recognizable post id and comment id.
var ErrMalformedReference = errors.New("malformed comment reference")

var (
	commentIDPattern = regexp.MustCompile(`/comments/[^/]+/[^/]+/([a-z0-9]+)`)
	postIDPattern    = regexp.MustCompile(`/comments/([a-z0-9]+)`)
)

// Identity uniquely addresses a trackable comment.
type Identity struct {
	PostID    string
	CommentID string
}

// Parse extracts an Identity from a Reddit comment URL of the shape
// .../comments/<post_id>/<slug>/<comment_id>/. Both segments must match or
// the reference is rejected as a whole.
func Parse(ref string) (Identity, error) {
	ref = strings.TrimSpace(ref)

	post := postIDPattern.FindStringSubmatch(ref)
	comment := commentIDPattern.FindStringSubmatch(ref)
	if post == nil || comment == nil {
		return Identity{}, fmt.Errorf("%w: %q", ErrMalformedReference, ref)
	}

	return Identity{PostID: post[1], CommentID: comment[1]}, nil
}

// Key returns the stable store key for the identity.
func (id Identity) Key() string {
	return id.PostID + "/" + id.CommentID
}

func (id Identity) String() string {
	return id.Key()
}
