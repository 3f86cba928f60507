// Package retry repeats provider requests with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/fwojciec/domcheck"
)

// Default policy values.
const (
	DefaultMaxAttempts = 5
	DefaultBase        = 1 * time.Second
	DefaultCap         = 60 * time.Second
	DefaultFactor      = 2.0
)

// AttemptFunc performs one attempt. attempt is zero-based.
type AttemptFunc[T any] func(ctx context.Context, attempt int) (T, error)

// LogFunc is called before each retry with the upcoming attempt number
// (1-based), the pause before it, and the error that caused it.
type LogFunc func(attempt int, delay time.Duration, err error)

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy governs how often and how patiently an attempt is repeated.
type Policy struct {
	// MaxAttempts caps the total number of attempts, including the first.
	MaxAttempts int

	// Base is the first backoff delay; each retry multiplies it by Factor.
	Base time.Duration

	// Factor is the backoff multiplier. Zero means DefaultFactor.
	Factor float64

	// Cap bounds computed backoff delays. Zero means DefaultCap.
	// Server hints are not capped.
	Cap time.Duration

	// Jitter randomizes each computed delay within [d/2, d).
	Jitter bool

	// OnRetry, if set, is called before each pause.
	OnRetry LogFunc

	// Sleep replaces the real pause, for tests.
	Sleep SleepFunc
}

// DefaultPolicy returns 5 attempts with delays of 1s, 2s, 4s, 8s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		Base:        DefaultBase,
		Factor:      DefaultFactor,
		Cap:         DefaultCap,
	}
}

// Backoff returns the computed delay after the given zero-based attempt:
// Base * Factor^attempt, bounded by Cap.
func (p Policy) Backoff(attempt int) time.Duration {
	limit := p.Cap
	if limit <= 0 {
		limit = DefaultCap
	}
	factor := p.Factor
	if factor <= 0 {
		factor = DefaultFactor
	}

	// Saturates at the cap rather than overflowing.
	f := float64(p.Base) * math.Pow(factor, float64(attempt))
	d := limit
	if f < float64(limit) {
		d = time.Duration(f)
	}
	if p.Jitter && d > 1 {
		half := d / 2
		d = half + rand.N(half)
	}
	return d
}

// Delay returns the pause before retrying after err. A server wait hint
// takes precedence over the computed backoff.
func (p Policy) Delay(attempt int, err error) time.Duration {
	if hint, ok := domcheck.RetryAfter(err); ok {
		return hint
	}
	return p.Backoff(attempt)
}

// Retryable reports whether err is worth another attempt.
func Retryable(err error) bool {
	switch domcheck.ErrorCode(err) {
	case domcheck.ETHROTTLED, domcheck.ETRANSIENT:
		return true
	}
	return false
}

// ExhaustedError is returned when every allowed attempt failed with a
// retryable error. It wraps the last error, so domcheck.ErrorCode still
// reports ETHROTTLED or ETRANSIENT.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	msg := domcheck.ErrorMessage(e.Err)
	if domcheck.ErrorCode(e.Err) == domcheck.EINTERNAL {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("gave up after %d attempts: %s", e.Attempts, msg)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// IsExhausted reports whether err came from running out of attempts.
func IsExhausted(err error) bool {
	var e *ExhaustedError
	return errors.As(err, &e)
}

// Do runs fn until it succeeds, fails with a non-retryable error, or the
// policy's attempts are used up. Pauses honor ctx.
func Do[T any](ctx context.Context, p Policy, fn AttemptFunc[T]) (T, error) {
	var zero T

	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = pause
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		v, err := fn(ctx, attempt)
		if err == nil {
			return v, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}
		if !Retryable(err) {
			return zero, err
		}
		lastErr = err

		// Don't pause after the last attempt
		if attempt >= maxAttempts-1 {
			break
		}

		delay := p.Delay(attempt, err)
		if p.OnRetry != nil {
			p.OnRetry(attempt+2, delay, err)
		}
		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
	}

	return zero, &ExhaustedError{Attempts: maxAttempts, Err: lastErr}
}

func pause(ctx context.Context, d time.Duration) error {
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
