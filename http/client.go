// Package http provides an HTTP implementation of domcheck.Client for
// RapidAPI-style domain availability providers.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/domcheck"
	"golang.org/x/net/publicsuffix"
)

// DefaultTimeout is the default timeout for a single provider request.
const DefaultTimeout = 10 * time.Second

// Default provider identification headers.
const (
	DefaultKeyHeader  = "X-RapidAPI-Key"
	DefaultHostHeader = "X-RapidAPI-Host"
)

// maxBodySize bounds how much of a response is read.
const maxBodySize = 1 << 20

// BodyFormat selects the JSON body sent with POST requests.
type BodyFormat string

// Supported body formats.
const (
	// BodyNone sends no body; the domain travels in the URL.
	BodyNone BodyFormat = ""

	// BodyDomain sends {"domain": "abcd.com"}.
	BodyDomain BodyFormat = "domain"

	// BodyNameTLD sends {"name": "abcd", "tld": "com"}.
	BodyNameTLD BodyFormat = "name_tld"
)

// Ensure Client implements domcheck.Client at compile time.
var _ domcheck.Client = (*Client)(nil)

// Client queries a provider endpoint, one request per call.
// The endpoint is a URL template; {domain}, {name} and {tld} are replaced
// with the query-escaped domain, its registrable label and its public suffix.
type Client struct {
	client   *http.Client
	timeout  time.Duration
	endpoint string
	method   string
	body     BodyFormat

	apiKey     string
	apiHost    string
	keyHeader  string
	hostHeader string

	now func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the timeout for each request.
// Defaults to DefaultTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithMethod sets the HTTP method. Defaults to GET.
func WithMethod(method string) Option {
	return func(c *Client) {
		c.method = strings.ToUpper(method)
	}
}

// WithBody sets the JSON body format sent with each request.
func WithBody(f BodyFormat) Option {
	return func(c *Client) {
		c.body = f
	}
}

// WithHeaderNames overrides the API key and API host header names.
func WithHeaderNames(key, host string) Option {
	return func(c *Client) {
		if key != "" {
			c.keyHeader = key
		}
		if host != "" {
			c.hostHeader = host
		}
	}
}

// WithClock sets the clock used to interpret HTTP-date Retry-After values.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a Client for the endpoint template.
func NewClient(endpoint, apiKey, apiHost string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, domcheck.Errorf(domcheck.EINVALID, "endpoint required")
	}
	c := &Client{
		timeout:    DefaultTimeout,
		endpoint:   endpoint,
		method:     http.MethodGet,
		apiKey:     apiKey,
		apiHost:    apiHost,
		keyHeader:  DefaultKeyHeader,
		hostHeader: DefaultHostHeader,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	switch c.body {
	case BodyNone, BodyDomain, BodyNameTLD:
	default:
		return nil, domcheck.Errorf(domcheck.EINVALID, "unknown body format %q", c.body)
	}
	if _, err := url.Parse(expand(endpoint, "example.com")); err != nil {
		return nil, domcheck.Errorf(domcheck.EINVALID, "invalid endpoint %q: %v", endpoint, err)
	}

	c.client = &http.Client{
		Timeout: c.timeout,
	}

	return c, nil
}

// Query sends one availability request for the domain.
func (c *Client) Query(ctx context.Context, domain string) (*domcheck.Response, error) {
	req, err := c.newRequest(ctx, domain)
	if err != nil {
		return nil, domcheck.Errorf(domcheck.EFATAL, "build request for %s: %v", domain, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// Timeouts and connection failures.
		return nil, domcheck.Errorf(domcheck.ETRANSIENT, "request failed: %v", err)
	}
	defer resp.Body.Close()

	out := &domcheck.Response{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return out, ctxErr
		}
		return out, domcheck.Errorf(domcheck.ETRANSIENT, "read response: %v", err)
	}

	switch code := resp.StatusCode; {
	case code == http.StatusTooManyRequests:
		wait := parseRetryAfter(resp.Header.Get("Retry-After"), c.now())
		return out, domcheck.Throttledf(wait, "HTTP 429: rate limited by provider")
	case code >= 500:
		return out, domcheck.Errorf(domcheck.ETRANSIENT, "HTTP %d: %s", code, snippet(body))
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return out, domcheck.Errorf(domcheck.EFATAL, "HTTP %d: authentication failed, check the API key and host", code)
	case code < 200 || code >= 300:
		return out, domcheck.Errorf(domcheck.EFATAL, "HTTP %d: %s", code, snippet(body))
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return out, domcheck.Errorf(domcheck.EPARSE, "response is not a JSON object: %v", err)
	}
	out.Payload = payload
	return out, nil
}

// Close releases resources. http.Client needs no explicit cleanup, but idle
// connections are closed.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func (c *Client) newRequest(ctx context.Context, domain string) (*http.Request, error) {
	var body io.Reader
	if c.body != BodyNone {
		b, err := json.Marshal(requestBody(c.body, domain))
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, c.method, expand(c.endpoint, domain), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set(c.keyHeader, c.apiKey)
	req.Header.Set(c.hostHeader, c.apiHost)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func requestBody(f BodyFormat, domain string) map[string]string {
	if f == BodyNameTLD {
		name, tld := SplitDomain(domain)
		return map[string]string{"name": name, "tld": tld}
	}
	return map[string]string{"domain": domain}
}

// expand fills the endpoint template placeholders.
func expand(endpoint, domain string) string {
	name, tld := SplitDomain(domain)
	return strings.NewReplacer(
		"{domain}", url.QueryEscape(domain),
		"{name}", url.QueryEscape(name),
		"{tld}", url.QueryEscape(tld),
	).Replace(endpoint)
}

// SplitDomain splits a domain into the label before its public suffix and
// the suffix itself: "abcd.co.uk" → ("abcd", "co.uk"). A name that is
// entirely a public suffix returns the whole name and an empty suffix.
func SplitDomain(domain string) (name, tld string) {
	suffix, _ := publicsuffix.PublicSuffix(domain)
	if suffix == "" || suffix == domain {
		return domain, ""
	}
	return strings.TrimSuffix(domain, "."+suffix), suffix
}

// parseRetryAfter accepts delta seconds (integer or decimal) or an HTTP
// date. Unparseable or past values yield zero.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		// Also rejects NaN and absurd hints.
		if !(secs > 0 && secs < 1e6) {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// snippet trims a response body for error messages.
func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "empty body"
	}
	const maxLen = 200
	if len(s) > maxLen {
		s = s[:maxLen] + "..."
	}
	return fmt.Sprintf("%q", s)
}
