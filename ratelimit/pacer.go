package ratelimit

import (
	"context"
	"time"

	"github.com/fwojciec/domcheck"
	"golang.org/x/time/rate"
)

var (
	_ domcheck.Limiter = (*Pacer)(nil)
	_ domcheck.Limiter = Chain(nil)
)

// Pacer spaces requests at least interval apart using a token bucket with
// a burst of 1 (no bursting allowed).
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a Pacer. A non-positive interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Pacer{limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the next request slot.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Chain waits on each limiter in order. A Window should come last so the
// timestamp it records is the moment the request actually departs.
type Chain []domcheck.Limiter

// Wait blocks until every limiter in the chain admits the request.
func (c Chain) Wait(ctx context.Context) error {
	for _, l := range c {
		if err := l.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}
