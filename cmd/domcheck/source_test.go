package main_test

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/domcheck/bloom"
	main "github.com/fwojciec/domcheck/cmd/domcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want string
	}{
		{"abcd.com", "abcd.com"},
		{"  abcd.com \r", "abcd.com"},
		{"", ""},
		{"   ", ""},
		{"# a comment", ""},
		{"  #indented comment", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, main.ParseLine(tt.line), "line %q", tt.line)
	}
}

func TestStreamDomains(t *testing.T) {
	t.Parallel()

	t.Run("yields domains in input order", func(t *testing.T) {
		t.Parallel()

		s := main.StreamDomains(context.Background(), strings.NewReader("b.com\n\n# skip\na.com\nc.com"), nil)
		got := slices.Collect(s.All())

		require.NoError(t, s.Wait())
		assert.Equal(t, []string{"b.com", "a.com", "c.com"}, got)
	})

	t.Run("drops repeated names when filtering", func(t *testing.T) {
		t.Parallel()

		s := main.StreamDomains(context.Background(), strings.NewReader("a.com\nA.com\nb.com\na.com\n"), bloom.NewFilter(100, 0.0001))
		got := slices.Collect(s.All())

		require.NoError(t, s.Wait())
		assert.Equal(t, []string{"a.com", "b.com"}, got)
		assert.Equal(t, 2, s.Duplicates)
	})

	t.Run("keeps repeated names without a filter", func(t *testing.T) {
		t.Parallel()

		s := main.StreamDomains(context.Background(), strings.NewReader("a.com\na.com\n"), nil)
		got := slices.Collect(s.All())

		require.NoError(t, s.Wait())
		assert.Equal(t, []string{"a.com", "a.com"}, got)
	})

	t.Run("oversized lines do not end the stream", func(t *testing.T) {
		t.Parallel()

		long := strings.Repeat("x", 70*1024) + ".com"
		s := main.StreamDomains(context.Background(), strings.NewReader("a.com\n"+long+"\nb.com\n"), nil)
		got := slices.Collect(s.All())

		require.NoError(t, s.Wait())
		assert.Equal(t, []string{"a.com", long, "b.com"}, got)
	})

	t.Run("reports read errors", func(t *testing.T) {
		t.Parallel()

		r := io.MultiReader(strings.NewReader("a.com\n"), errReader{errors.New("disk gone")})
		s := main.StreamDomains(context.Background(), r, nil)
		got := slices.Collect(s.All())

		assert.Equal(t, []string{"a.com"}, got)
		assert.EqualError(t, s.Wait(), "disk gone")
	})

	t.Run("cancellation ends the sequence while the reader blocks", func(t *testing.T) {
		t.Parallel()

		pr, pw := io.Pipe()
		t.Cleanup(func() { pw.Close() })
		ctx, cancel := context.WithCancel(context.Background())

		s := main.StreamDomains(ctx, pr, nil)
		go func() {
			_, _ = pw.Write([]byte("a.com\n"))
			cancel()
		}()

		done := make(chan []string)
		go func() { done <- slices.Collect(s.All()) }()

		select {
		case got := <-done:
			assert.LessOrEqual(t, len(got), 1)
		case <-time.After(5 * time.Second):
			t.Fatal("sequence did not end after cancellation")
		}
		s.Stop()
	})
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }
