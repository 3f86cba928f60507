package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fwojciec/domcheck"
	"github.com/fwojciec/domcheck/bloom"
	"github.com/fwojciec/domcheck/check"
	"github.com/fwojciec/domcheck/csv"
)

// Run executes the check command.
func (c *CheckCmd) Run(deps *Dependencies) error {
	in, err := c.openInput(deps)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", domcheck.ErrorMessage(err))
		return err
	}
	defer in.Close()

	var seen *bloom.Filter
	if c.Unique {
		seen = bloom.NewFilter(uniqueCapacity, uniqueFPRate)
	}
	stream := StreamDomains(deps.Ctx, in, seen)

	if c.DryRun {
		return c.dryRun(deps, stream)
	}

	if c.Reuse > 0 && deps.Results == nil {
		err := domcheck.Errorf(domcheck.EINVALID, "--reuse requires --db")
		fmt.Fprintf(deps.Stderr, "error: %s\n", domcheck.ErrorMessage(err))
		stream.Stop()
		return err
	}

	out, err := c.openOutput(deps)
	if err != nil {
		stream.Stop()
		return err
	}
	defer out.Close()

	checker := deps.Checker
	if c.Reuse > 0 {
		checker = check.NewCachedChecker(checker, deps.Results, deps.Fingerprint, c.Reuse)
	}
	runner := &check.Runner{
		Checker:     checker,
		Store:       deps.Results,
		Fingerprint: deps.Fingerprint,
	}
	w := csv.NewWriter(out, csv.WithHeader(!c.NoHeader), csv.WithStatus(c.Status))

	progress := func(event check.ProgressEvent) {
		deps.Logger.Debug("progress", "completed", event.Completed, "domain", event.Result.Domain)
	}

	summary, err := runner.Run(deps.Ctx, stream.All(), w, progress)
	if err != nil {
		stream.Stop()
		if errors.Is(err, deps.Ctx.Err()) {
			fmt.Fprintf(deps.Stderr, "Interrupted after %d domains\n", summary.Total)
		} else {
			fmt.Fprintf(deps.Stderr, "error: %s\n", domcheck.ErrorMessage(err))
		}
		return err
	}
	if err := stream.Wait(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: failed to read input: %s\n", err)
		return fmt.Errorf("failed to read input: %w", err)
	}

	if stream.Duplicates > 0 {
		deps.Logger.Info("skipped duplicates", "count", stream.Duplicates, "distinct", seen.Len())
	}
	deps.Logger.Info("run complete",
		"run", summary.RunID,
		"total", summary.Total,
		"available", summary.Available,
		"unavailable", summary.Unavailable,
		"failed", summary.Failed,
	)
	return nil
}

func (c *CheckCmd) dryRun(deps *Dependencies, stream *DomainStream) error {
	n := 0
	for range stream.All() {
		n++
	}
	if err := deps.Ctx.Err(); err != nil {
		stream.Stop()
		return err
	}
	if err := stream.Wait(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: failed to read input: %s\n", err)
		return fmt.Errorf("failed to read input: %w", err)
	}
	fmt.Fprintf(deps.Stdout, "Would check %d domains.\n", n)
	return nil
}

func (c *CheckCmd) openInput(deps *Dependencies) (io.ReadCloser, error) {
	if c.Input == "-" {
		return io.NopCloser(deps.Stdin), nil
	}
	f, err := os.Open(c.Input)
	if err != nil {
		return nil, domcheck.Errorf(domcheck.EINVALID, "cannot open input: %v", err)
	}
	return f, nil
}

func (c *CheckCmd) openOutput(deps *Dependencies) (io.WriteCloser, error) {
	if c.Output == "-" {
		return nopWriteCloser{deps.Stdout}, nil
	}
	f, err := os.Create(c.Output)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: cannot create output: %s\n", err)
		return nil, fmt.Errorf("failed to create output: %w", err)
	}
	return f, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
