package backfill

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kbraden/ocwatch/internal/kv"
	"github.com/kbraden/ocwatch/internal/logging"
	"github.com/kbraden/ocwatch/internal/ratelimit"
)

// ErrMissingFactionID is returned when Run is called without a faction ID.
// No network call is made in that case.
var ErrMissingFactionID = errors.New("backfill: no faction ID available")

// Options tunes one backfill run.
type Options struct {
	// MaxCount is the target number of items; the run stops once the
	// accumulator reaches it. Defaults to 100.
	MaxCount int

	// Delay is the fixed pause between paged requests. Zero means no
	// delay (useful for cache replays and tests).
	Delay time.Duration

	// RequestsPerMinute caps upstream calls in any trailing minute.
	// Defaults to 10.
	RequestsPerMinute int
}

// Engine runs backfills for one feed. Construct one per feed; a single
// Engine must not have two runs in flight at once (pages are fetched
// strictly sequentially because each cursor depends on the previous page).
type Engine struct {
	feed   string
	fetch  FetchFunc
	parser Parser
	store  kv.Store
	log    *log.Logger

	onProgress func(Progress)
	onError    func(error)

	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an Engine for the named feed. The feed name scopes the
// persisted history; fetch and parser supply the feed's wire access and
// grammar. store receives incremental persistence and may be nil to disable
// it (tests).
func New(feed string, fetch FetchFunc, parser Parser, store kv.Store) *Engine {
	return &Engine{
		feed:   feed,
		fetch:  fetch,
		parser: parser,
		store:  store,
		log:    logging.WithPrefix(feed),
		sleep:  sleepCtx,
	}
}

// OnProgress registers a callback invoked after every merged page and once
// on completion. Progress.Current is non-decreasing across one run.
func (e *Engine) OnProgress(fn func(Progress)) {
	e.onProgress = fn
}

// OnError registers a callback invoked before Run returns an error.
func (e *Engine) OnError(fn func(error)) {
	e.onError = fn
}

// Run walks the feed backward from now until it has accumulated
// opts.MaxCount items or the feed is exhausted, and returns the items
// sorted by timestamp descending.
//
// Termination is detected three ways: an empty page, a page contributing no
// unseen items, or a page whose oldest item has the same ID as the previous
// page's oldest (the cursor is not making progress). The last heuristic
// compares only the oldest item's ID, not the full page; an upstream that
// returns pages out of timestamp order can end a run early.
//
// Any fetch error aborts the run immediately; history persisted up to the
// last successful page is retained.
func (e *Engine) Run(ctx context.Context, factionID string, opts Options) ([]Item, error) {
	if factionID == "" {
		e.fail(ErrMissingFactionID)
		return nil, ErrMissingFactionID
	}
	if opts.MaxCount <= 0 {
		opts.MaxCount = 100
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = 10
	}

	limiter := ratelimit.NewPerMinute(opts.RequestsPerMinute)

	var (
		items        []Item
		seen         = make(map[string]struct{})
		cursor       *int64
		lastOldestID string
	)

	// The latest page is always fetched fresh: it is "whatever is true
	// right now" and must never come from cache.
	if err := limiter.WaitForSlot(ctx); err != nil {
		e.fail(err)
		return nil, err
	}
	e.log.Debug("fetching latest page")
	page, err := e.fetch(ctx, factionID, nil, true)
	if err != nil {
		err = fmt.Errorf("backfill: fetch latest %s page: %w", e.feed, err)
		e.fail(err)
		return nil, err
	}

	if len(page) > 0 {
		fresh := e.unseen(e.parser.ParsePage(page), seen)
		if len(fresh) > 0 {
			SortDesc(fresh)
			items = append(items, fresh...)
			oldest := fresh[len(fresh)-1]
			lastOldestID = oldest.ID
			ts := oldest.Timestamp
			cursor = &ts
			e.log.Debug("first page merged", "count", len(items), "cursor", ts)
		}
		e.report(Progress{Current: len(items), Max: opts.MaxCount, Requests: limiter.Requests()})
	}

	for cursor != nil && len(items) < opts.MaxCount {
		if err := limiter.WaitForSlot(ctx); err != nil {
			e.fail(err)
			return nil, err
		}

		e.log.Debug("fetching page", "cursor", *cursor, "have", len(items), "want", opts.MaxCount)
		page, err := e.fetch(ctx, factionID, cursor, false)
		if err != nil {
			err = fmt.Errorf("backfill: fetch %s page at %d: %w", e.feed, *cursor, err)
			e.fail(err)
			return nil, err
		}
		if len(page) == 0 {
			e.log.Debug("empty page, feed exhausted")
			break
		}

		fresh := e.unseen(e.parser.ParsePage(page), seen)
		if len(fresh) == 0 {
			// Nothing new: upstream is exhausted or looping
			e.log.Debug("no unseen items in page, stopping")
			break
		}

		SortDesc(fresh)
		items = append(items, fresh...)
		e.report(Progress{Current: len(items), Max: opts.MaxCount, Requests: limiter.Requests()})
		e.persist(items)

		oldest := fresh[len(fresh)-1]
		if oldest.ID == lastOldestID {
			// Cursor made no progress; stop rather than loop forever
			e.log.Debug("oldest ID unchanged, stopping", "id", oldest.ID)
			break
		}
		lastOldestID = oldest.ID
		ts := oldest.Timestamp
		cursor = &ts

		if len(items) >= opts.MaxCount {
			break
		}
		if err := e.sleep(ctx, opts.Delay); err != nil {
			e.fail(err)
			return nil, err
		}
	}

	SortDesc(items)
	accumulated := len(items)
	if len(items) > opts.MaxCount {
		// Sorted desc first, so truncation drops the oldest excess items
		items = items[:opts.MaxCount]
	}
	e.persist(items)
	// Final progress reports the accumulated total (like every earlier
	// report), keeping Current non-decreasing even when truncation trims
	// the returned list.
	e.report(Progress{Current: accumulated, Max: opts.MaxCount, Requests: limiter.Requests()})

	e.log.Info("backfill complete", "items", len(items), "requests", limiter.Requests())
	return items, nil
}

// unseen filters parsed items down to those whose ID has not been
// accumulated yet, marking them seen.
func (e *Engine) unseen(parsed []Item, seen map[string]struct{}) []Item {
	fresh := make([]Item, 0, len(parsed))
	for _, it := range parsed {
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		fresh = append(fresh, it)
	}
	return fresh
}

// persist writes the accumulator's current contents so an interrupted run
// loses at most the in-flight page. Persistence failures are logged, not
// fatal: the run still holds the items in memory.
func (e *Engine) persist(items []Item) {
	if e.store == nil {
		return
	}
	if err := SaveHistory(e.store, e.feed, items); err != nil {
		e.log.Warn("incremental persist failed", "error", err)
	}
}

func (e *Engine) report(p Progress) {
	if e.onProgress != nil {
		e.onProgress(p)
	}
}

func (e *Engine) fail(err error) {
	e.log.Error("backfill aborted", "error", err)
	if e.onError != nil {
		e.onError(err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
