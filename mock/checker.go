package mock

import (
	"context"

	"github.com/fwojciec/domcheck"
)

var _ domcheck.Checker = (*Checker)(nil)

// Checker is a mock implementation of domcheck.Checker.
type Checker struct {
	CheckFn func(ctx context.Context, domain string) *domcheck.CheckResult
}

func (c *Checker) Check(ctx context.Context, domain string) *domcheck.CheckResult {
	return c.CheckFn(ctx, domain)
}

var _ domcheck.ResultWriter = (*ResultWriter)(nil)

// ResultWriter is a mock implementation of domcheck.ResultWriter.
type ResultWriter struct {
	WriteFn func(r *domcheck.CheckResult) error
	FlushFn func() error
}

func (w *ResultWriter) Write(r *domcheck.CheckResult) error {
	return w.WriteFn(r)
}

func (w *ResultWriter) Flush() error {
	return w.FlushFn()
}
