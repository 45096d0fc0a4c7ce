// Package backfill implements the pagination-with-cache engine that draws a
// bounded, deduplicated history out of a cursor-paginated upstream feed.
//
// The upstream protocol: a request without a cursor returns the most recent
// page; a request with cursor T returns records strictly older than T. The
// engine fetches the latest page fresh, then walks backward using the
// minimum timestamp of each page as the next cursor, deduplicating by item
// ID and persisting partial progress after every page so an interrupted run
// loses at most the in-flight page.
package backfill

import (
	"context"
	"encoding/json"
)

// RawRecord is one upstream log entry before parsing: a blob of marked-up
// text plus the event time.
type RawRecord struct {
	Text      string `json:"news"`
	Timestamp int64  `json:"timestamp"`
}

// Page is one page of raw records keyed by the upstream's opaque record ID.
type Page map[string]RawRecord

// Item is the canonical, deduplicated representation of one feed event.
type Item struct {
	// ID uniquely identifies the item within its feed and is the
	// deduplication key. Seeing a known ID again means pagination has
	// reached previously-seen territory.
	ID string `json:"id"`

	// Timestamp is seconds since epoch; descending order = more recent.
	Timestamp int64 `json:"timestamp"`

	// Payload holds the feed-specific fields, serialized so history
	// round-trips through the kv store without losing type information.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Progress is reported to the caller after every merged page. Observational
// only; it carries no control-flow authority.
type Progress struct {
	Current  int // items accumulated so far
	Max      int // target count requested by the caller
	Requests int // rate-limited requests issued so far
}

// FetchFunc retrieves one page of a feed. A nil cursor requests the most
// recent page; otherwise records strictly older than *cursor. skipCache
// forces a fresh upstream call (required for the latest page).
type FetchFunc func(ctx context.Context, factionID string, cursor *int64, skipCache bool) (Page, error)

// Parser converts one raw page into canonical items. Records that match no
// known pattern are skipped (diagnostic logging only) and never abort the
// page, so a Parser returns zero or more items per record and no error.
type Parser interface {
	ParsePage(p Page) []Item
}
