// Package feedcache caches raw API pages keyed by their pagination cursor.
//
// A page fetched at cursor T never changes upstream, so re-running a
// backfill replays cached pages instead of burning rate-limit budget. The
// "latest" page is the exception: it means "whatever is true right now" and
// is never served from cache, though it is still written under a reserved
// latest key for inspection.
package feedcache

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kbraden/ocwatch/internal/kv"
	"github.com/kbraden/ocwatch/internal/logging"
)

// keyPrefix namespaces cache entries inside the shared kv store so ClearAll
// can't touch unrelated state (feed histories, settings).
const keyPrefix = "api_cache_"

// DefaultTTL matches the upstream pages' practical immutability horizon.
const DefaultTTL = 7 * 24 * time.Hour

// entry is the stored envelope: the page payload plus insertion time.
type entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"` // unix milliseconds
}

// Cache is a TTL'd response cache over an abstract kv store.
type Cache struct {
	store kv.Store
	ttl   time.Duration
	now   func() time.Time
}

// New creates a Cache with the default 7-day TTL.
func New(store kv.Store) *Cache {
	return &Cache{store: store, ttl: DefaultTTL, now: time.Now}
}

// SetClock replaces the clock. Tests only.
func (c *Cache) SetClock(now func() time.Time) {
	c.now = now
}

// SetTTL overrides the entry lifetime.
func (c *Cache) SetTTL(ttl time.Duration) {
	c.ttl = ttl
}

// CursorKey derives the cache key for a page fetched at a cursor.
func CursorKey(category string, cursor int64) string {
	return fmt.Sprintf("%s_to_%d", category, cursor)
}

// LatestKey derives the reserved key for a category's most-recent page.
// Cursor lookups never match it.
func LatestKey(category string) string {
	return "latest_" + category
}

// Get unmarshals the cached page for key into dst and reports whether a
// valid entry was found. Expired entries are evicted and treated as absent.
func (c *Cache) Get(key string, dst any) bool {
	raw, ok, err := c.store.Get(keyPrefix + key)
	if err != nil {
		logging.Warn("cache read failed", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		logging.Warn("cache entry corrupt, evicting", "key", key, "error", err)
		c.store.Delete(keyPrefix + key)
		return false
	}

	age := c.now().UnixMilli() - e.Timestamp
	if age > c.ttl.Milliseconds() {
		c.store.Delete(keyPrefix + key)
		return false
	}

	if err := json.Unmarshal(e.Data, dst); err != nil {
		logging.Warn("cache payload corrupt, evicting", "key", key, "error", err)
		c.store.Delete(keyPrefix + key)
		return false
	}
	return true
}

// Set stores v under key with the current time as insertion time.
func (c *Cache) Set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("feedcache: marshal payload for %q: %w", key, err)
	}
	raw, err := json.Marshal(entry{Data: data, Timestamp: c.now().UnixMilli()})
	if err != nil {
		return fmt.Errorf("feedcache: marshal entry for %q: %w", key, err)
	}
	if err := c.store.Set(keyPrefix+key, raw); err != nil {
		return fmt.Errorf("feedcache: store %q: %w", key, err)
	}
	return nil
}

// ClearAll removes every entry this cache owns, leaving unrelated keys in
// the underlying store untouched.
func (c *Cache) ClearAll() error {
	return c.ClearCategory("")
}

// ClearCategory removes cached pages whose key starts with the given
// category (both cursor pages and the latest page). An empty category
// clears everything under the cache prefix.
func (c *Cache) ClearCategory(category string) error {
	keys, err := c.store.Keys()
	if err != nil {
		return fmt.Errorf("feedcache: list keys: %w", err)
	}

	cleared := 0
	for _, k := range keys {
		if !strings.HasPrefix(k, keyPrefix) {
			continue
		}
		inner := strings.TrimPrefix(k, keyPrefix)
		if category != "" && !strings.HasPrefix(inner, category+"_") && inner != LatestKey(category) {
			continue
		}
		if err := c.store.Delete(k); err != nil {
			return fmt.Errorf("feedcache: delete %q: %w", k, err)
		}
		cleared++
	}

	logging.Info("response cache cleared", "category", category, "entries", cleared)
	return nil
}
