package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/domcheck"
)

// Ensure LoggingLimiter implements domcheck.Limiter.
var _ domcheck.Limiter = (*LoggingLimiter)(nil)

// LoggingLimiter wraps a Limiter and logs waits longer than threshold.
type LoggingLimiter struct {
	next      domcheck.Limiter
	logger    *slog.Logger
	threshold time.Duration
}

// NewLoggingLimiter creates a new LoggingLimiter.
func NewLoggingLimiter(next domcheck.Limiter, logger *slog.Logger, threshold time.Duration) *LoggingLimiter {
	return &LoggingLimiter{next: next, logger: logger, threshold: threshold}
}

// Wait delegates to the wrapped limiter.
func (l *LoggingLimiter) Wait(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		if d := time.Since(begin); d >= l.threshold || err != nil {
			l.logger.Info("rate limit wait",
				"duration", d,
				"err", err,
			)
		}
	}(time.Now())
	return l.next.Wait(ctx)
}
