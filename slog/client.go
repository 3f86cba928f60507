package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/domcheck"
)

// Ensure LoggingClient implements domcheck.Client.
var _ domcheck.Client = (*LoggingClient)(nil)

// LoggingClient wraps a Client with debug logging of every request.
type LoggingClient struct {
	next   domcheck.Client
	logger *slog.Logger
}

// NewLoggingClient creates a new LoggingClient.
func NewLoggingClient(next domcheck.Client, logger *slog.Logger) *LoggingClient {
	return &LoggingClient{next: next, logger: logger}
}

// Query delegates to the wrapped client and logs the status and outcome.
func (c *LoggingClient) Query(ctx context.Context, domain string) (resp *domcheck.Response, err error) {
	defer func(begin time.Time) {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		attrs := []any{
			"domain", domain,
			"status", status,
			"duration", time.Since(begin),
			"err", err,
		}
		if wait, ok := domcheck.RetryAfter(err); ok {
			attrs = append(attrs, "retry_after", wait)
		}
		c.logger.Debug("query", attrs...)
	}(time.Now())
	return c.next.Query(ctx, domain)
}
