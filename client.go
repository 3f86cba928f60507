package domcheck

import "context"

// Response is a decoded provider response.
type Response struct {
	StatusCode int
	Payload    map[string]any
}

// Client performs single availability requests against a provider API.
type Client interface {
	// Query sends one request for the domain.
	// Failures are classified by code: ETHROTTLED (429, possibly with a
	// RetryAfter hint), ETRANSIENT (timeouts, connection errors, 5xx) and
	// EFATAL (other client errors). The response is returned alongside the
	// error whenever the server answered, so callers can record the status.
	Query(ctx context.Context, domain string) (*Response, error)
}

// Limiter gates outgoing requests.
type Limiter interface {
	// Wait blocks until a request may be sent.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context) error
}

// ResponseParser extracts an availability verdict from a provider payload.
type ResponseParser interface {
	// Parse returns EPARSE when the payload does not match a known shape.
	Parse(payload map[string]any) (bool, error)
}
