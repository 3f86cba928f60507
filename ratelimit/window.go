// Package ratelimit provides request gates for the single check stream.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/fwojciec/domcheck"
)

var _ domcheck.Limiter = (*Window)(nil)

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Window is a sliding-window rate limiter. It admits at most limit requests
// in any trailing period, tracking the timestamps of admitted requests.
type Window struct {
	mu     sync.Mutex
	limit  int
	period time.Duration
	stamps []time.Time

	now   func() time.Time
	sleep SleepFunc
}

// Option configures a Window.
type Option func(*Window)

// WithClock replaces the wall clock and the sleep used while waiting.
// Tests use it to drive the window with a fake clock.
func WithClock(now func() time.Time, sleep SleepFunc) Option {
	return func(w *Window) {
		w.now = now
		w.sleep = sleep
	}
}

// NewWindow creates a Window admitting limit requests per period.
func NewWindow(limit int, period time.Duration, opts ...Option) (*Window, error) {
	if limit <= 0 {
		return nil, domcheck.Errorf(domcheck.EINVALID, "rate limit must be positive, got %d", limit)
	}
	if period <= 0 {
		return nil, domcheck.Errorf(domcheck.EINVALID, "rate period must be positive, got %s", period)
	}
	w := &Window{
		limit:  limit,
		period: period,
		stamps: make([]time.Time, 0, limit),
		now:    time.Now,
		sleep:  Sleep,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Wait blocks until a request fits in the window, then records it.
// Returns an error if the context is canceled; nothing is recorded then.
func (w *Window) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		w.mu.Lock()
		now := w.now()
		w.evict(now)
		if len(w.stamps) < w.limit {
			w.stamps = append(w.stamps, now)
			w.mu.Unlock()
			return nil
		}
		delay := w.stamps[0].Add(w.period).Sub(now)
		w.mu.Unlock()

		if err := w.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// Len returns the number of requests currently inside the window.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.evict(w.now())
	return len(w.stamps)
}

// evict drops timestamps that left the window. Caller holds mu.
func (w *Window) evict(now time.Time) {
	cutoff := now.Add(-w.period)
	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		n := copy(w.stamps, w.stamps[i:])
		w.stamps = w.stamps[:n]
	}
}

// Sleep pauses for d, returning early with the context's error.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
