// Package torn talks to the Torn City REST API.
package torn

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/kbraden/ocwatch/internal/backfill"
)

const defaultBase = "https://api.torn.com"

// ErrAccessDenied marks an upstream refusal: the key is wrong or lacks the
// selection's required access level.
var ErrAccessDenied = errors.New("torn: access denied")

// Client is a Torn API client. The courtesy limiter spaces requests well
// under the API's per-minute cap regardless of what callers do; callers
// that page aggressively still apply their own budget on top.
type Client struct {
	apiKey  string
	base    string
	client  *http.Client
	limiter *rate.Limiter
	now     func() time.Time

	membersMu sync.Mutex
	members   map[string]memberEntry

	itemsMu      sync.Mutex
	itemsFetched time.Time
	items        map[string]ItemInfo
}

// NewClient creates a client for the given API key.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		base:    defaultBase,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(700*time.Millisecond), 1),
		now:     time.Now,
		members: make(map[string]memberEntry),
	}
}

// SetClock replaces the time source. Tests use this to step TTL caches.
func (c *Client) SetClock(now func() time.Time) {
	c.now = now
}

// apiError is the error envelope the API embeds in an otherwise 200 response.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

// accessDeniedCodes: 2 is "incorrect key", 16 is "access level of this key
// is not high enough".
func (e apiError) accessDenied() bool {
	return e.Code == 2 || e.Code == 16
}

// FactionNews fetches one page of a faction news selection. A nil cursor
// requests the most recent page; otherwise only entries older than the
// cursor timestamp are returned.
func (c *Client) FactionNews(ctx context.Context, factionID, selection string, to *int64) (backfill.Page, error) {
	q := url.Values{}
	q.Set("selections", selection)
	q.Set("striptags", "true")
	q.Set("comment", "ocwatch_"+selection)
	if to != nil {
		q.Set("to", strconv.FormatInt(*to, 10))
	}

	body, err := c.get(ctx, fmt.Sprintf("%s/faction/%s?%s", c.base, url.PathEscape(factionID), q.Encode()))
	if err != nil {
		return nil, err
	}

	envelope := make(map[string]json.RawMessage)
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("torn: failed to parse %s response: %w", selection, err)
	}
	if raw, ok := envelope["error"]; ok {
		return nil, decodeError(raw, selection)
	}

	raw, ok := envelope[selection]
	if !ok {
		return backfill.Page{}, nil
	}
	// An exhausted feed comes back as an empty array instead of an object.
	if bytes.Equal(bytes.TrimSpace(raw), []byte("[]")) {
		return backfill.Page{}, nil
	}

	var page backfill.Page
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("torn: failed to parse %s page: %w", selection, err)
	}
	return page, nil
}

func decodeError(raw json.RawMessage, selection string) error {
	var e apiError
	if err := json.Unmarshal(raw, &e); err != nil {
		return fmt.Errorf("torn: unreadable error envelope for %s: %w", selection, err)
	}
	if e.accessDenied() {
		return fmt.Errorf("torn: %s requires %s (code %d): %w", selection, ScopeFor(selection), e.Code, ErrAccessDenied)
	}
	return fmt.Errorf("torn: %s request failed: %s (code %d)", selection, e.Message, e.Code)
}

// get performs one authenticated GET and returns the response body.
func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("torn: rate limiter wait failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("torn: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "ApiKey "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("torn: request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("torn: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("torn: failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("torn: unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return body, nil
}
