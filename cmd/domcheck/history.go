package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/fwojciec/domcheck"
)

// Run executes the history command.
func (c *HistoryCmd) Run(deps *Dependencies) error {
	if deps.Results == nil {
		err := domcheck.Errorf(domcheck.EINVALID, "history requires --db")
		fmt.Fprintf(deps.Stderr, "error: %s\n", domcheck.ErrorMessage(err))
		return err
	}

	runs, err := deps.Results.FindRuns(deps.Ctx, domcheck.RunFilter{Limit: c.Limit})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", domcheck.ErrorMessage(err))
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(deps.Stdout, "No runs found. Use 'domcheck --db <path> check' to record one.")
		return nil
	}

	tw := tabwriter.NewWriter(deps.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tTOTAL\tAVAILABLE\tFAILED\tSTATUS")
	for _, r := range runs {
		status := "finished"
		if r.FinishedAt.IsZero() {
			status = "incomplete"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID,
			r.StartedAt.UTC().Format(time.DateTime),
			r.Total,
			r.Available,
			r.Failed,
			status,
		)
	}
	return tw.Flush()
}
