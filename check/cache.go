package check

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/domcheck"
)

var _ domcheck.Checker = (*CachedChecker)(nil)

// CachedChecker serves recent verdicts from the result history and only
// falls through to the wrapped checker for domains without one.
// Only verdicts recorded under the same provider fingerprint are reused.
type CachedChecker struct {
	Next        domcheck.Checker
	Results     domcheck.ResultService
	Fingerprint string
	MaxAge      time.Duration

	now func() time.Time
}

// NewCachedChecker creates a CachedChecker.
func NewCachedChecker(next domcheck.Checker, results domcheck.ResultService, fingerprint string, maxAge time.Duration) *CachedChecker {
	return &CachedChecker{
		Next:        next,
		Results:     results,
		Fingerprint: fingerprint,
		MaxAge:      maxAge,
		now:         time.Now,
	}
}

// Check returns a cached verdict when one is fresh enough.
func (c *CachedChecker) Check(ctx context.Context, domain string) *domcheck.CheckResult {
	name, err := Normalize(domain)
	if err != nil {
		return c.Next.Check(ctx, domain)
	}

	after := c.now().Add(-c.MaxAge)
	cached, err := c.Results.FindResults(ctx, domcheck.ResultFilter{
		Domain:        &name,
		Fingerprint:   &c.Fingerprint,
		CheckedAfter:  &after,
		OnlySucceeded: true,
		Limit:         1,
	})
	if err != nil || len(cached) == 0 {
		return c.Next.Check(ctx, domain)
	}

	// Zero attempts marks a verdict that did not reach the provider.
	hit := *cached[0]
	hit.Attempts = 0
	return &hit
}

// Fingerprint identifies a provider configuration so cached verdicts are
// not reused across providers or response shapes.
func Fingerprint(parts ...string) string {
	h := xxhash.Sum64String(strings.Join(parts, "\x00"))
	return fmt.Sprintf("%x", h)
}
