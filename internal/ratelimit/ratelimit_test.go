package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeClock advances only when the limiter sleeps.
type fakeClock struct {
	now    time.Time
	slept  []time.Duration
	cancel func(d time.Duration) error
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if c.cancel != nil {
		if err := c.cancel(d); err != nil {
			return err
		}
	}
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
	return nil
}

func TestUnderLimitNeverWaits(t *testing.T) {
	clock := newFakeClock()
	l := NewPerMinute(10)
	l.SetClock(clock.Now, clock.Sleep)

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		if err := l.WaitForSlot(ctx); err != nil {
			t.Fatalf("WaitForSlot %d failed: %v", i, err)
		}
	}

	if len(clock.slept) != 0 {
		t.Errorf("expected no sleeps under the limit, got %v", clock.slept)
	}
	if l.Requests() != 10 {
		t.Errorf("expected 10 requests recorded, got %d", l.Requests())
	}
}

func TestEleventhCallWaitsFullWindow(t *testing.T) {
	clock := newFakeClock()
	l := NewPerMinute(10)
	l.SetClock(clock.Now, clock.Sleep)

	ctx := context.Background()
	start := clock.now
	for i := 0; i < 12; i++ {
		if err := l.WaitForSlot(ctx); err != nil {
			t.Fatalf("WaitForSlot %d failed: %v", i, err)
		}
	}

	// All 10 initial slots were granted at the same instant, so the 11th
	// call must wait out the whole window (plus buffer), and the 12th gets
	// the slot freed by the 2nd initial request with no extra full window.
	if len(clock.slept) == 0 {
		t.Fatal("expected the 11th call to sleep")
	}
	first := clock.slept[0]
	if first < time.Minute || first > time.Minute+time.Second {
		t.Errorf("11th call slept %v, want ~window", first)
	}

	elapsed := clock.now.Sub(start)
	if elapsed < time.Minute {
		t.Errorf("12 calls completed in %v, faster than one window allows", elapsed)
	}
}

func TestWindowSlides(t *testing.T) {
	clock := newFakeClock()
	l := New(2, time.Minute)
	l.SetClock(clock.Now, clock.Sleep)

	ctx := context.Background()
	l.WaitForSlot(ctx)
	clock.now = clock.now.Add(59 * time.Second)
	l.WaitForSlot(ctx)

	// Third call: the first slot frees after 1s more
	if err := l.WaitForSlot(ctx); err != nil {
		t.Fatalf("WaitForSlot failed: %v", err)
	}
	if len(clock.slept) != 1 {
		t.Fatalf("expected exactly one sleep, got %d", len(clock.slept))
	}
	want := time.Second + buffer
	if clock.slept[0] != want {
		t.Errorf("slept %v, want %v", clock.slept[0], want)
	}
}

func TestCancellationDuringWait(t *testing.T) {
	clock := newFakeClock()
	clock.cancel = func(time.Duration) error { return context.Canceled }

	l := New(1, time.Minute)
	l.SetClock(clock.Now, clock.Sleep)

	ctx := context.Background()
	if err := l.WaitForSlot(ctx); err != nil {
		t.Fatalf("first WaitForSlot failed: %v", err)
	}
	err := l.WaitForSlot(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCancelledContextFailsFast(t *testing.T) {
	l := NewPerMinute(10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.WaitForSlot(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestWedgedClockBoundsRetries(t *testing.T) {
	clock := newFakeClock()
	l := New(1, time.Minute)
	l.SetClock(clock.Now, func(ctx context.Context, d time.Duration) error {
		return nil // time never advances
	})

	ctx := context.Background()
	if err := l.WaitForSlot(ctx); err != nil {
		t.Fatalf("first WaitForSlot failed: %v", err)
	}
	if err := l.WaitForSlot(ctx); err == nil {
		t.Error("expected bounded-retry error with a wedged clock")
	}
}
