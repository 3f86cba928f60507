package check_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/domcheck"
	"github.com/fwojciec/domcheck/check"
	"github.com/fwojciec/domcheck/mock"
	"github.com/fwojciec/domcheck/retry"
	"github.com/fwojciec/domcheck/shape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noSleep returns a retry policy that records pauses instead of waiting.
func noSleep(delays *[]time.Duration) retry.Policy {
	p := retry.DefaultPolicy()
	p.Sleep = func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
	return p
}

func flatParser(t *testing.T) domcheck.ResponseParser {
	t.Helper()
	p, err := shape.NewParser(domcheck.ResponseShape{Kind: domcheck.ShapeFlat})
	require.NoError(t, err)
	return p
}

func ok(available bool) (*domcheck.Response, error) {
	return &domcheck.Response{StatusCode: 200, Payload: map[string]any{"available": available}}, nil
}

func TestChecker_Check(t *testing.T) {
	t.Parallel()

	t.Run("returns verdict on success", func(t *testing.T) {
		t.Parallel()

		var delays []time.Duration
		c := &check.Checker{
			Client: &mock.Client{QueryFn: func(_ context.Context, domain string) (*domcheck.Response, error) {
				assert.Equal(t, "abcd.com", domain)
				return ok(true)
			}},
			Parser: flatParser(t),
			Retry:  noSleep(&delays),
		}

		r := c.Check(context.Background(), "abcd.com")

		require.True(t, r.OK())
		assert.True(t, *r.Available)
		assert.Empty(t, r.Error)
		assert.Equal(t, 200, r.HTTPStatus)
		assert.Equal(t, 1, r.Attempts)
	})

	t.Run("waits on limiter before every attempt", func(t *testing.T) {
		t.Parallel()

		var delays []time.Duration
		var events []string
		c := &check.Checker{
			Limiter: &mock.Limiter{WaitFn: func(context.Context) error {
				events = append(events, "wait")
				return nil
			}},
			Client: &mock.Client{QueryFn: func(context.Context, string) (*domcheck.Response, error) {
				events = append(events, "query")
				if len(events) < 4 {
					return &domcheck.Response{StatusCode: 503}, domcheck.Errorf(domcheck.ETRANSIENT, "HTTP 503")
				}
				return ok(false)
			}},
			Parser: flatParser(t),
			Retry:  noSleep(&delays),
		}

		r := c.Check(context.Background(), "abcd.com")

		assert.Equal(t, []string{"wait", "query", "wait", "query"}, events)
		assert.Equal(t, "false", r.Verdict())
		assert.Equal(t, 2, r.Attempts)
	})

	t.Run("fatal error is recorded after one attempt", func(t *testing.T) {
		t.Parallel()

		var delays []time.Duration
		calls := 0
		c := &check.Checker{
			Client: &mock.Client{QueryFn: func(context.Context, string) (*domcheck.Response, error) {
				calls++
				return &domcheck.Response{StatusCode: 401}, domcheck.Errorf(domcheck.EFATAL, "HTTP 401: authentication failed")
			}},
			Parser: flatParser(t),
			Retry:  noSleep(&delays),
		}

		r := c.Check(context.Background(), "abcd.com")

		assert.Equal(t, 1, calls)
		assert.Nil(t, r.Available)
		assert.Equal(t, domcheck.EFATAL, r.Code)
		assert.Equal(t, 401, r.HTTPStatus)
		assert.Contains(t, r.Error, "authentication failed")
	})

	t.Run("exhausted throttling is recorded as throttled", func(t *testing.T) {
		t.Parallel()

		var delays []time.Duration
		c := &check.Checker{
			Client: &mock.Client{QueryFn: func(context.Context, string) (*domcheck.Response, error) {
				return &domcheck.Response{StatusCode: 429}, domcheck.Throttledf(0, "HTTP 429")
			}},
			Parser: flatParser(t),
			Retry:  noSleep(&delays),
		}

		r := c.Check(context.Background(), "abcd.com")

		assert.Nil(t, r.Available)
		assert.Equal(t, domcheck.ETHROTTLED, r.Code)
		assert.Equal(t, retry.DefaultMaxAttempts, r.Attempts)
		assert.Contains(t, r.Error, "gave up after 5 attempts")
	})

	t.Run("parse error is recorded", func(t *testing.T) {
		t.Parallel()

		var delays []time.Duration
		c := &check.Checker{
			Client: &mock.Client{QueryFn: func(context.Context, string) (*domcheck.Response, error) {
				return &domcheck.Response{StatusCode: 200, Payload: map[string]any{"unexpected": 1.0}}, nil
			}},
			Parser: flatParser(t),
			Retry:  noSleep(&delays),
		}

		r := c.Check(context.Background(), "abcd.com")

		assert.Nil(t, r.Available)
		assert.Equal(t, domcheck.EPARSE, r.Code)
	})

	t.Run("invalid domain never reaches the provider", func(t *testing.T) {
		t.Parallel()

		c := &check.Checker{
			Client: &mock.Client{QueryFn: func(context.Context, string) (*domcheck.Response, error) {
				t.Fatal("should not query")
				return nil, nil
			}},
			Parser: flatParser(t),
		}

		r := c.Check(context.Background(), "not a domain")

		assert.Equal(t, "not a domain", r.Domain)
		assert.Equal(t, domcheck.EINVALID, r.Code)
		assert.Equal(t, 0, r.Attempts)
	})

	t.Run("interrupt while waiting is recorded as canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		c := &check.Checker{
			Limiter: &mock.Limiter{WaitFn: func(ctx context.Context) error {
				cancel()
				return ctx.Err()
			}},
			Client: &mock.Client{QueryFn: func(context.Context, string) (*domcheck.Response, error) {
				return nil, errors.New("unreachable")
			}},
			Parser: flatParser(t),
		}

		r := c.Check(ctx, "abcd.com")

		assert.Equal(t, domcheck.ECANCELED, r.Code)
		assert.Nil(t, r.Available)
	})
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"abcd.com", "abcd.com", false},
		{"  ABCD.com. ", "abcd.com", false},
		{"bücher.de", "xn--bcher-kva.de", false},
		{"", "", true},
		{"abcd", "", true},
		{"ab cd.com", "", true},
		{"-abcd.com", "", true},
		{strings.Repeat("a", 63) + ".com", strings.Repeat("a", 63) + ".com", false},
		{strings.Repeat("a", 64) + ".com", "", true},
		{strings.Repeat("abcdefghi.", 26) + "com", "", true},
		{strings.Repeat("x", 70*1024) + ".com", "", true},
	}
	for _, tt := range tests {
		got, err := check.Normalize(tt.in)
		if tt.wantErr {
			require.Error(t, err, tt.in)
			assert.Equal(t, domcheck.EINVALID, domcheck.ErrorCode(err), tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
