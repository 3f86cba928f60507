package domcheck

import (
	"context"
	"time"
)

// Run records one batch invocation.
type Run struct {
	ID          string    `json:"id"`
	Fingerprint string    `json:"fingerprint"`
	Total       int       `json:"total"`
	Available   int       `json:"available"`
	Failed      int       `json:"failed"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`
}

// RunFilter represents a filter for FindRuns.
type RunFilter struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// ResultFilter represents a filter for FindResults.
type ResultFilter struct {
	RunID       *string `json:"runId"`
	Domain      *string `json:"domain"`
	Fingerprint *string `json:"fingerprint"`

	// CheckedAfter restricts results to those checked after the given time.
	CheckedAfter *time.Time `json:"checkedAfter"`

	// OnlySucceeded restricts results to those carrying a verdict.
	OnlySucceeded bool `json:"onlySucceeded"`

	Limit int `json:"limit"`
}

// ResultService persists runs and their check results.
type ResultService interface {
	// CreateRun starts a new run. ID and StartedAt are assigned.
	CreateRun(ctx context.Context, run *Run) error

	// FinishRun stores the final counters of a run.
	// Returns ENOTFOUND if the run does not exist.
	FinishRun(ctx context.Context, run *Run) error

	// FindRuns retrieves runs, most recent first.
	FindRuns(ctx context.Context, filter RunFilter) ([]*Run, error)

	// SaveResult records a result under a run.
	SaveResult(ctx context.Context, runID string, result *CheckResult) error

	// FindResults retrieves results matching the filter, most recent first.
	FindResults(ctx context.Context, filter ResultFilter) ([]*CheckResult, error)
}
