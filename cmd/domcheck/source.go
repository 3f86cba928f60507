package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"iter"
	"strings"

	"github.com/fwojciec/domcheck/bloom"
	"golang.org/x/sync/errgroup"
)

// Bloom filter sizing for --unique.
const (
	uniqueCapacity = 1_000_000
	uniqueFPRate   = 1e-7
)

// DomainStream reads domain names in a background goroutine so that a
// blocked read on stdin never delays an interrupt.
type DomainStream struct {
	ctx    context.Context
	ch     chan string
	g      *errgroup.Group
	cancel context.CancelFunc

	// Duplicates counts lines dropped by the filter. Read it after the
	// stream has been drained.
	Duplicates int
}

// StreamDomains starts reading lines from r. Lines have no length limit, so
// an oversized line still reaches the checker as one name. Blank lines and
// lines starting with '#' are skipped. When seen is non-nil, repeated names
// are dropped.
func StreamDomains(ctx context.Context, r io.Reader, seen *bloom.Filter) *DomainStream {
	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	s := &DomainStream{
		ctx:    ctx,
		ch:     make(chan string),
		g:      g,
		cancel: cancel,
	}

	g.Go(func() error {
		defer close(s.ch)
		br := bufio.NewReader(r)
		for {
			line, err := br.ReadString('\n')
			domain := ParseLine(line)
			switch {
			case domain == "":
			case seen != nil && seen.Seen(domain):
				s.Duplicates++
			default:
				select {
				case s.ch <- domain:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
		}
	})
	return s
}

// ParseLine returns the domain on an input line, or "" for blank and
// comment lines.
func ParseLine(line string) string {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return ""
	}
	return line
}

// All yields domains until the input is exhausted or the context is done.
func (s *DomainStream) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			select {
			case domain, ok := <-s.ch:
				if !ok || !yield(domain) {
					return
				}
			case <-s.ctx.Done():
				return
			}
		}
	}
}

// Wait returns the read error once the stream has been fully drained.
func (s *DomainStream) Wait() error {
	defer s.cancel()
	return s.g.Wait()
}

// Stop abandons the stream without waiting for the reader.
func (s *DomainStream) Stop() {
	s.cancel()
}
