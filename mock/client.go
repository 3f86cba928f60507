package mock

import (
	"context"

	"github.com/fwojciec/domcheck"
)

var _ domcheck.Client = (*Client)(nil)

// Client is a mock implementation of domcheck.Client.
type Client struct {
	QueryFn func(ctx context.Context, domain string) (*domcheck.Response, error)
}

func (c *Client) Query(ctx context.Context, domain string) (*domcheck.Response, error) {
	return c.QueryFn(ctx, domain)
}

var _ domcheck.Limiter = (*Limiter)(nil)

// Limiter is a mock implementation of domcheck.Limiter.
type Limiter struct {
	WaitFn func(ctx context.Context) error
}

func (l *Limiter) Wait(ctx context.Context) error {
	return l.WaitFn(ctx)
}

var _ domcheck.ResponseParser = (*ResponseParser)(nil)

// ResponseParser is a mock implementation of domcheck.ResponseParser.
type ResponseParser struct {
	ParseFn func(payload map[string]any) (bool, error)
}

func (p *ResponseParser) Parse(payload map[string]any) (bool, error) {
	return p.ParseFn(payload)
}
