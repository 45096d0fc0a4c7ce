package backfill

import "sort"

// Merge combines a previously persisted historical item set with freshly
// fetched live items into one deduplicated collection. On an ID collision
// the live item wins: the upstream record may have been updated since it
// was cached. No order is guaranteed; callers wanting chronological output
// should apply SortDesc.
func Merge(historical, current []Item) []Item {
	byID := make(map[string]Item, len(historical)+len(current))
	order := make([]string, 0, len(historical)+len(current))

	for _, it := range historical {
		if _, ok := byID[it.ID]; !ok {
			order = append(order, it.ID)
		}
		byID[it.ID] = it
	}
	for _, it := range current {
		if _, ok := byID[it.ID]; !ok {
			order = append(order, it.ID)
		}
		byID[it.ID] = it
	}

	merged := make([]Item, 0, len(order))
	for _, id := range order {
		merged = append(merged, byID[id])
	}
	return merged
}

// SortDesc sorts items by timestamp descending (most recent first). Ties
// keep their relative order so repeated sorts are stable.
func SortDesc(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp > items[j].Timestamp
	})
}
