// Package check composes rate limiting, retries and response parsing into
// per-domain checks, and runs them over a batch of domain names.
package check

import (
	"context"
	"errors"
	"strings"

	"github.com/fwojciec/domcheck"
	"github.com/fwojciec/domcheck/retry"
	"golang.org/x/net/idna"
)

var _ domcheck.Checker = (*Checker)(nil)

// Checker checks one domain against the provider.
// The limiter is consulted before every attempt, including retries, so
// retried requests count against the rate limit too.
type Checker struct {
	Client  domcheck.Client
	Limiter domcheck.Limiter
	Parser  domcheck.ResponseParser
	Retry   retry.Policy
}

// Check normalizes the domain, queries the provider under the retry policy
// and parses the verdict. It never returns an error; failures are recorded
// on the result.
func (c *Checker) Check(ctx context.Context, domain string) *domcheck.CheckResult {
	name, err := Normalize(domain)
	if err != nil {
		return domcheck.Failed(domain, err)
	}

	var status, attempts int
	resp, err := retry.Do(ctx, c.Retry, func(ctx context.Context, attempt int) (*domcheck.Response, error) {
		attempts = attempt + 1
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		resp, err := c.Client.Query(ctx, name)
		if resp != nil {
			status = resp.StatusCode
		}
		return resp, err
	})

	var result *domcheck.CheckResult
	switch {
	case err != nil:
		result = domcheck.Failed(name, interrupted(err))
	default:
		available, perr := c.Parser.Parse(resp.Payload)
		if perr != nil {
			result = domcheck.Failed(name, perr)
		} else {
			result = domcheck.Succeeded(name, available)
		}
	}
	result.HTTPStatus = status
	result.Attempts = attempts
	return result
}

// interrupted maps context errors onto ECANCELED.
func interrupted(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domcheck.Errorf(domcheck.ECANCELED, "check interrupted")
	}
	return err
}

// DNS limits on names and labels (RFC 1035).
const (
	maxNameLength  = 253
	maxLabelLength = 63
)

// Normalize lower-cases a domain name, strips a trailing dot and converts
// internationalized labels to their ASCII (punycode) form.
func Normalize(domain string) (string, error) {
	d := strings.TrimSuffix(strings.TrimSpace(domain), ".")
	if d == "" {
		return "", domcheck.Errorf(domcheck.EINVALID, "empty domain name")
	}
	if len(d) > maxNameLength {
		return "", domcheck.Errorf(domcheck.EINVALID, "domain name too long (%d bytes)", len(d))
	}
	ascii, err := idna.Lookup.ToASCII(d)
	if err != nil {
		return "", domcheck.Errorf(domcheck.EINVALID, "invalid domain name %q: %v", domain, err)
	}
	if !strings.Contains(ascii, ".") {
		return "", domcheck.Errorf(domcheck.EINVALID, "domain name %q has no TLD", domain)
	}
	if len(ascii) > maxNameLength {
		return "", domcheck.Errorf(domcheck.EINVALID, "domain name %q too long (%d bytes)", domain, len(ascii))
	}
	for label := range strings.SplitSeq(ascii, ".") {
		if len(label) > maxLabelLength {
			return "", domcheck.Errorf(domcheck.EINVALID, "domain name %q has a label over %d bytes", domain, maxLabelLength)
		}
	}
	return ascii, nil
}
