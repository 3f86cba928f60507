package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/fwojciec/domcheck"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ domcheck.ResultService = (*ResultService)(nil)

// ResultService implements domcheck.ResultService using SQLite.
type ResultService struct {
	db *DB
}

// NewResultService creates a new ResultService.
func NewResultService(db *DB) *ResultService {
	return &ResultService{db: db}
}

// CreateRun starts a new run with a generated ID.
func (s *ResultService) CreateRun(ctx context.Context, run *domcheck.Run) error {
	run.ID = uuid.New().String()
	run.StartedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, fingerprint, started_at)
		VALUES (?, ?, ?)
	`, run.ID, run.Fingerprint, formatTime(run.StartedAt))

	return err
}

// FinishRun stores the final counters of a run.
func (s *ResultService) FinishRun(ctx context.Context, run *domcheck.Run) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET total = ?, available = ?, failed = ?, finished_at = ?
		WHERE id = ?
	`, run.Total, run.Available, run.Failed, formatTime(run.FinishedAt), run.ID)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domcheck.Errorf(domcheck.ENOTFOUND, "run not found")
	}
	return nil
}

// FindRuns retrieves runs, most recent first.
func (s *ResultService) FindRuns(ctx context.Context, filter domcheck.RunFilter) ([]*domcheck.Run, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, fingerprint, total, available, failed, started_at, finished_at FROM runs ORDER BY started_at DESC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domcheck.Run
	for rows.Next() {
		var run domcheck.Run
		var startedAt, finishedAt string

		if err := rows.Scan(&run.ID, &run.Fingerprint, &run.Total, &run.Available, &run.Failed,
			&startedAt, &finishedAt); err != nil {
			return nil, err
		}

		if run.StartedAt, err = parseTime(startedAt, "started_at"); err != nil {
			return nil, err
		}
		// An unfinished run was interrupted before FinishRun.
		if finishedAt != "" {
			if run.FinishedAt, err = parseTime(finishedAt, "finished_at"); err != nil {
				return nil, err
			}
		}

		runs = append(runs, &run)
	}

	return runs, rows.Err()
}

// SaveResult records a result under a run.
func (s *ResultService) SaveResult(ctx context.Context, runID string, result *domcheck.CheckResult) error {
	if runID == "" {
		return domcheck.Errorf(domcheck.EINVALID, "run ID required")
	}
	if result.Domain == "" {
		return domcheck.Errorf(domcheck.EINVALID, "result domain required")
	}

	var available sql.NullBool
	if result.Available != nil {
		available = sql.NullBool{Bool: *result.Available, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO results (run_id, domain, available, code, error, http_status, attempts, checked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, result.Domain, available, result.Code, result.Error, result.HTTPStatus, result.Attempts,
		formatTime(result.CheckedAt))

	return err
}

// FindResults retrieves results matching the filter, most recent first.
func (s *ResultService) FindResults(ctx context.Context, filter domcheck.ResultFilter) ([]*domcheck.CheckResult, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`SELECT r.domain, r.available, r.code, r.error, r.http_status, r.attempts, r.checked_at
		FROM results r JOIN runs u ON u.id = r.run_id WHERE 1=1`)

	if filter.RunID != nil {
		query.WriteString(" AND r.run_id = ?")
		args = append(args, *filter.RunID)
	}
	if filter.Domain != nil {
		query.WriteString(" AND r.domain = ?")
		args = append(args, *filter.Domain)
	}
	if filter.Fingerprint != nil {
		query.WriteString(" AND u.fingerprint = ?")
		args = append(args, *filter.Fingerprint)
	}
	if filter.CheckedAfter != nil {
		query.WriteString(" AND r.checked_at > ?")
		args = append(args, formatTime(*filter.CheckedAfter))
	}
	if filter.OnlySucceeded {
		query.WriteString(" AND r.available IS NOT NULL")
	}

	query.WriteString(" ORDER BY r.checked_at DESC, r.id DESC")
	appendPagination(&query, &args, filter.Limit, 0)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domcheck.CheckResult
	for rows.Next() {
		var result domcheck.CheckResult
		var available sql.NullBool
		var checkedAt string

		if err := rows.Scan(&result.Domain, &available, &result.Code, &result.Error, &result.HTTPStatus,
			&result.Attempts, &checkedAt); err != nil {
			return nil, err
		}

		if available.Valid {
			v := available.Bool
			result.Available = &v
		}
		if result.CheckedAt, err = parseTime(checkedAt, "checked_at"); err != nil {
			return nil, err
		}

		results = append(results, &result)
	}

	return results, rows.Err()
}
