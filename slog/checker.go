// Package slog provides logging decorators for domcheck services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/domcheck"
)

// Ensure LoggingChecker implements domcheck.Checker.
var _ domcheck.Checker = (*LoggingChecker)(nil)

// LoggingChecker wraps a Checker with one log line per domain.
type LoggingChecker struct {
	next   domcheck.Checker
	logger *slog.Logger
}

// NewLoggingChecker creates a new LoggingChecker.
func NewLoggingChecker(next domcheck.Checker, logger *slog.Logger) *LoggingChecker {
	return &LoggingChecker{next: next, logger: logger}
}

// Check delegates to the wrapped checker and logs the verdict. Failed
// checks are logged at warn level.
func (c *LoggingChecker) Check(ctx context.Context, domain string) (result *domcheck.CheckResult) {
	defer func(begin time.Time) {
		level := slog.LevelInfo
		attrs := []any{
			"domain", result.Domain,
			"available", result.Verdict(),
			"attempts", result.Attempts,
			"duration", time.Since(begin),
		}
		if !result.OK() {
			level = slog.LevelWarn
			attrs = append(attrs, "code", result.Code, "err", result.Error)
		}
		c.logger.Log(ctx, level, "check", attrs...)
	}(time.Now())
	return c.next.Check(ctx, domain)
}
