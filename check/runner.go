package check

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/fwojciec/domcheck"
)

// Runner checks a batch of domains strictly one at a time, in input order.
type Runner struct {
	Checker domcheck.Checker

	// Store, if set, records the run and every result.
	Store       domcheck.ResultService
	Fingerprint string
}

// Summary holds the outcome counts of a run.
type Summary struct {
	RunID       string
	Total       int
	Available   int
	Unavailable int
	Failed      int
}

func (s *Summary) add(r *domcheck.CheckResult) {
	s.Total++
	switch {
	case r.Available == nil:
		s.Failed++
	case *r.Available:
		s.Available++
	default:
		s.Unavailable++
	}
}

// ProgressEvent reports one completed check.
type ProgressEvent struct {
	Completed int
	Result    *domcheck.CheckResult
}

// ProgressFunc is a callback for reporting run progress.
type ProgressFunc func(event ProgressEvent)

// Results lazily yields one result per domain, in input order. It stops
// before the next check once ctx is done; a check interrupted midway still
// yields its (ECANCELED) result.
func (r *Runner) Results(ctx context.Context, domains iter.Seq[string]) iter.Seq[*domcheck.CheckResult] {
	return func(yield func(*domcheck.CheckResult) bool) {
		for domain := range domains {
			if ctx.Err() != nil {
				return
			}
			if !yield(r.Checker.Check(ctx, domain)) {
				return
			}
		}
	}
}

// Run checks every domain, writing and flushing each result as soon as it
// is known so partial progress survives an interrupt. It returns the
// context's error when interrupted, along with the summary so far.
func (r *Runner) Run(ctx context.Context, domains iter.Seq[string], w domcheck.ResultWriter, progress ProgressFunc) (*Summary, error) {
	// Bookkeeping must survive the interrupt that stops the batch.
	storeCtx := context.WithoutCancel(ctx)

	summary := &Summary{}
	var run *domcheck.Run
	if r.Store != nil {
		run = &domcheck.Run{Fingerprint: r.Fingerprint}
		if err := r.Store.CreateRun(storeCtx, run); err != nil {
			return summary, fmt.Errorf("failed to create run: %w", err)
		}
		summary.RunID = run.ID
	}

	for result := range r.Results(ctx, domains) {
		summary.add(result)

		if err := w.Write(result); err != nil {
			return summary, fmt.Errorf("failed to write result for %s: %w", result.Domain, err)
		}
		if err := w.Flush(); err != nil {
			return summary, fmt.Errorf("failed to flush results: %w", err)
		}

		if run != nil {
			if err := r.Store.SaveResult(storeCtx, run.ID, result); err != nil {
				return summary, fmt.Errorf("failed to save result for %s: %w", result.Domain, err)
			}
		}

		if progress != nil {
			progress(ProgressEvent{Completed: summary.Total, Result: result})
		}
	}

	if run != nil {
		run.Total = summary.Total
		run.Available = summary.Available
		run.Failed = summary.Failed
		run.FinishedAt = time.Now().UTC()
		if err := r.Store.FinishRun(storeCtx, run); err != nil {
			return summary, fmt.Errorf("failed to finish run: %w", err)
		}
	}

	return summary, ctx.Err()
}
