// Package feeds registers the faction news categories the tool understands
// and wires their API selections, parsers and response caching together.
package feeds

import (
	"context"
	"fmt"

	"github.com/kbraden/ocwatch/internal/backfill"
	"github.com/kbraden/ocwatch/internal/feedcache"
	"github.com/kbraden/ocwatch/internal/logging"
	"github.com/kbraden/ocwatch/internal/parse"
	"github.com/kbraden/ocwatch/internal/torn"
)

// Feed ties a news category to its upstream selection and parser.
type Feed struct {
	Name      string
	Selection string
	Scope     string
	Parser    backfill.Parser
}

// All returns the registered feeds in display order.
func All() []Feed {
	return []Feed{
		{Name: "armory", Selection: "armorynews", Scope: torn.ScopeFor("armorynews"), Parser: parse.NewArmoryParser()},
		{Name: "funds", Selection: "fundsnews", Scope: torn.ScopeFor("fundsnews"), Parser: parse.NewFundsParser()},
	}
}

// ByName looks up a registered feed.
func ByName(name string) (Feed, error) {
	for _, f := range All() {
		if f.Name == name {
			return f, nil
		}
	}
	return Feed{}, fmt.Errorf("feeds: unknown feed %q", name)
}

// NewsFetcher is the slice of the API client the fetch path needs.
type NewsFetcher interface {
	FactionNews(ctx context.Context, factionID, selection string, to *int64) (backfill.Page, error)
}

// FetchFunc builds the engine's fetch callback for one feed. Cursor pages
// are served from the response cache when fresh; the latest page always
// hits upstream and is recorded under the reserved latest key, which cursor
// lookups never read.
func FetchFunc(client NewsFetcher, cache *feedcache.Cache, f Feed) backfill.FetchFunc {
	return func(ctx context.Context, factionID string, cursor *int64, skipCache bool) (backfill.Page, error) {
		if cursor == nil {
			page, err := client.FactionNews(ctx, factionID, f.Selection, nil)
			if err != nil {
				return nil, err
			}
			if err := cache.Set(feedcache.LatestKey(f.Name), page); err != nil {
				logging.Warn("failed to record latest page", "feed", f.Name, "error", err)
			}
			return page, nil
		}

		key := feedcache.CursorKey(f.Name, *cursor)
		if !skipCache {
			var page backfill.Page
			if cache.Get(key, &page) {
				logging.Debug("response cache hit", "feed", f.Name, "cursor", *cursor)
				return page, nil
			}
		}

		page, err := client.FactionNews(ctx, factionID, f.Selection, cursor)
		if err != nil {
			return nil, err
		}
		if err := cache.Set(key, page); err != nil {
			logging.Warn("failed to cache page", "feed", f.Name, "cursor", *cursor, "error", err)
		}
		return page, nil
	}
}
