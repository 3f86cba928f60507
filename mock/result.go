package mock

import (
	"context"

	"github.com/fwojciec/domcheck"
)

var _ domcheck.ResultService = (*ResultService)(nil)

// ResultService is a mock implementation of domcheck.ResultService.
type ResultService struct {
	CreateRunFn   func(ctx context.Context, run *domcheck.Run) error
	FinishRunFn   func(ctx context.Context, run *domcheck.Run) error
	FindRunsFn    func(ctx context.Context, filter domcheck.RunFilter) ([]*domcheck.Run, error)
	SaveResultFn  func(ctx context.Context, runID string, result *domcheck.CheckResult) error
	FindResultsFn func(ctx context.Context, filter domcheck.ResultFilter) ([]*domcheck.CheckResult, error)
}

func (s *ResultService) CreateRun(ctx context.Context, run *domcheck.Run) error {
	return s.CreateRunFn(ctx, run)
}

func (s *ResultService) FinishRun(ctx context.Context, run *domcheck.Run) error {
	return s.FinishRunFn(ctx, run)
}

func (s *ResultService) FindRuns(ctx context.Context, filter domcheck.RunFilter) ([]*domcheck.Run, error) {
	return s.FindRunsFn(ctx, filter)
}

func (s *ResultService) SaveResult(ctx context.Context, runID string, result *domcheck.CheckResult) error {
	return s.SaveResultFn(ctx, runID, result)
}

func (s *ResultService) FindResults(ctx context.Context, filter domcheck.ResultFilter) ([]*domcheck.CheckResult, error) {
	return s.FindResultsFn(ctx, filter)
}
