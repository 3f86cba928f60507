package ratelimit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fwojciec/domcheck"
	"github.com/fwojciec/domcheck/mock"
	"github.com/fwojciec/domcheck/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacer(t *testing.T) {
	t.Parallel()

	t.Run("first request is immediate", func(t *testing.T) {
		t.Parallel()

		p := ratelimit.NewPacer(time.Second)

		start := time.Now()
		require.NoError(t, p.Wait(context.Background()))
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("spaces consecutive requests", func(t *testing.T) {
		t.Parallel()

		p := ratelimit.NewPacer(100 * time.Millisecond)
		require.NoError(t, p.Wait(context.Background()))

		start := time.Now()
		require.NoError(t, p.Wait(context.Background()))
		assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	})

	t.Run("zero interval never waits", func(t *testing.T) {
		t.Parallel()

		p := ratelimit.NewPacer(0)
		start := time.Now()
		for range 100 {
			require.NoError(t, p.Wait(context.Background()))
		}
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		p := ratelimit.NewPacer(time.Second)
		require.NoError(t, p.Wait(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		assert.Error(t, p.Wait(ctx))
	})
}

func TestChain(t *testing.T) {
	t.Parallel()

	t.Run("waits on every limiter in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		chain := ratelimit.Chain{
			&mock.Limiter{WaitFn: func(context.Context) error { order = append(order, "pacer"); return nil }},
			&mock.Limiter{WaitFn: func(context.Context) error { order = append(order, "window"); return nil }},
		}

		require.NoError(t, chain.Wait(context.Background()))
		assert.Equal(t, []string{"pacer", "window"}, order)
	})

	t.Run("stops at first error", func(t *testing.T) {
		t.Parallel()

		called := false
		chain := ratelimit.Chain{
			&mock.Limiter{WaitFn: func(context.Context) error { return errors.New("canceled") }},
			&mock.Limiter{WaitFn: func(context.Context) error { called = true; return nil }},
		}

		require.Error(t, chain.Wait(context.Background()))
		assert.False(t, called)
	})

	t.Run("implements domcheck.Limiter interface", func(t *testing.T) {
		t.Parallel()
		var _ domcheck.Limiter = ratelimit.Chain{}
	})
}
