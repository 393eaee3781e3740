package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/go-querystring/query"
)

const (
	defaultAPIBase  = "https://oauth.reddit.com"
	defaultTokenURL = "https://www.reddit.com/api/v1/access_token"

	// Reddit associates rate-limit state with the authenticated session, so
	// requests from one client are paced and never issued concurrently.
	requestSpacing = 600 * time.Millisecond
)

var (
	// ErrNotFound indicates the requested comment or post does not exist.
	ErrNotFound = errors.New("reddit: not found")

	// ErrUnavailable indicates an I/O, timeout, or rate-limit failure.
	ErrUnavailable = errors.New("reddit: api unavailable")
)

// Client is a thin Reddit data API client. Keep it minimal and focused:
// fetching comments and ordered comment listings is all the tracker needs.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	auth       *authenticator

	mu       sync.Mutex
	lastCall time.Time
	spacing  time.Duration
}

// NewClient creates a client authenticating with the given app credentials.
// Each Client is an independent API session.
func NewClient(clientID, clientSecret, userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		baseURL:    defaultAPIBase,
		userAgent:  userAgent,
		auth:       newAuthenticator(clientID, clientSecret, userAgent, defaultTokenURL),
		spacing:    requestSpacing,
	}
}

// listingOptions are the query parameters for comment listing endpoints.
type listingOptions struct {
	Sort    string `url:"sort,omitempty"`
	Limit   int    `url:"limit,omitempty"`
	Depth   int    `url:"depth,omitempty"`
	RawJSON int    `url:"raw_json"`
}

// get performs a paced GET against the API and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, opts interface{}, out interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if wait := c.spacing - time.Since(c.lastCall); wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.lastCall = time.Now()

	token, err := c.auth.accessToken(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	u := c.baseURL + path
	if opts != nil {
		values, err := query.Values(opts)
		if err != nil {
			return fmt.Errorf("encode query: %w", err)
		}
		u += "?" + values.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
