// Package ratelimit implements the trailing-window request limiter used by
// backfill runs.
//
// Unlike a token bucket, the limiter guarantees that no more than N requests
// are issued in any trailing window, which matches the upstream API's
// accounting. One Limiter is created per backfill run.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// buffer is added to every computed wait so the oldest timestamp has
// actually left the window when we re-check.
const buffer = 100 * time.Millisecond

// maxWaitRounds bounds the wait/re-check loop. Each round waits long enough
// for at least one slot to open, so hitting the bound means the clock or
// sleep hook is broken rather than the limiter being busy.
const maxWaitRounds = 100

// Limiter enforces at most maxRequests calls in any trailing window.
// Not safe for concurrent use; a backfill run issues requests sequentially.
type Limiter struct {
	maxRequests int
	window      time.Duration
	timestamps  []time.Time
	requests    int

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPerMinute creates a Limiter allowing requestsPerMinute calls in any
// trailing 60 seconds.
func NewPerMinute(requestsPerMinute int) *Limiter {
	return New(requestsPerMinute, time.Minute)
}

// New creates a Limiter allowing maxRequests calls in any trailing window.
func New(maxRequests int, window time.Duration) *Limiter {
	if maxRequests < 1 {
		maxRequests = 1
	}
	return &Limiter{
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
		sleep:       sleepCtx,
	}
}

// SetClock replaces the clock and sleep hooks. Tests only.
func (l *Limiter) SetClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) {
	l.now = now
	l.sleep = sleep
}

// Requests returns the number of slots granted so far. Diagnostics only.
func (l *Limiter) Requests() int {
	return l.requests
}

// WaitForSlot blocks until one more request can be issued without exceeding
// the limit, then records the request. It fails only on context
// cancellation (or a wedged clock, see maxWaitRounds).
func (l *Limiter) WaitForSlot(ctx context.Context) error {
	for round := 0; ; round++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := l.now()

		// Drop timestamps older than the trailing window
		live := l.timestamps[:0]
		for _, ts := range l.timestamps {
			if now.Sub(ts) < l.window {
				live = append(live, ts)
			}
		}
		l.timestamps = live

		if len(l.timestamps) < l.maxRequests {
			l.timestamps = append(l.timestamps, now)
			l.requests++
			return nil
		}

		if round >= maxWaitRounds {
			return fmt.Errorf("ratelimit: no slot opened after %d rounds", maxWaitRounds)
		}

		// Wait until the oldest recorded request leaves the window, then
		// re-check: time has passed and other slots may have opened.
		oldest := l.timestamps[0]
		wait := l.window - now.Sub(oldest) + buffer
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
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
