package backfill

import (
	"encoding/json"
	"fmt"

	"github.com/kbraden/ocwatch/internal/kv"
)

// historyKeyPrefix namespaces persisted feed histories in the kv store,
// separate from the response cache's prefix.
const historyKeyPrefix = "history_"

// HistoryKey returns the kv key holding a feed's accumulated history.
func HistoryKey(feed string) string {
	return historyKeyPrefix + feed
}

// LoadHistory returns a feed's persisted items, or an empty slice when no
// history exists yet.
func LoadHistory(s kv.Store, feed string) ([]Item, error) {
	raw, ok, err := s.Get(HistoryKey(feed))
	if err != nil {
		return nil, fmt.Errorf("backfill: load %s history: %w", feed, err)
	}
	if !ok {
		return nil, nil
	}

	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("backfill: decode %s history: %w", feed, err)
	}
	return items, nil
}

// SaveHistory overwrites a feed's persisted items. The slice is stored as
// one JSON array; readers may observe any previously committed state but
// never a torn record.
func SaveHistory(s kv.Store, feed string, items []Item) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("backfill: encode %s history: %w", feed, err)
	}
	if err := s.Set(HistoryKey(feed), raw); err != nil {
		return fmt.Errorf("backfill: save %s history: %w", feed, err)
	}
	return nil
}

// ClearHistory deletes a feed's persisted items. Used by the user-initiated
// reset action together with the response cache's category clear.
func ClearHistory(s kv.Store, feed string) error {
	if err := s.Delete(HistoryKey(feed)); err != nil {
		return fmt.Errorf("backfill: clear %s history: %w", feed, err)
	}
	return nil
}
