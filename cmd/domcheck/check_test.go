package main_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/domcheck"
	main "github.com/fwojciec/domcheck/cmd/domcheck"
	"github.com/fwojciec/domcheck/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// verdicts returns a checker that answers from a fixed table.
func verdicts(table map[string]bool) *mock.Checker {
	return &mock.Checker{
		CheckFn: func(_ context.Context, domain string) *domcheck.CheckResult {
			v, ok := table[domain]
			if !ok {
				return domcheck.Failed(domain, domcheck.Errorf(domcheck.EPARSE, "unrecognized response"))
			}
			r := domcheck.Succeeded(domain, v)
			r.HTTPStatus = 200
			r.Attempts = 1
			return r
		},
	}
}

func testDeps(stdin string, checker domcheck.Checker) (*main.Dependencies, *bytes.Buffer, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	return &main.Dependencies{
		Ctx:     context.Background(),
		Stdin:   strings.NewReader(stdin),
		Stdout:  stdout,
		Stderr:  stderr,
		Logger:  slog.New(slog.NewTextHandler(stderr, nil)),
		Checker: checker,
	}, stdout, stderr
}

func TestCheckCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("writes one row per domain in input order", func(t *testing.T) {
		t.Parallel()

		deps, stdout, stderr := testDeps("abcd.com\nabce.com\nweird.com\n", verdicts(map[string]bool{
			"abcd.com": true,
			"abce.com": false,
		}))

		cmd := &main.CheckCmd{Input: "-", Output: "-"}
		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "domain,available,error\nabcd.com,true,\nabce.com,false,\nweird.com,,unrecognized response\n", stdout.String())
		assert.Contains(t, stderr.String(), "total=3")
		assert.Contains(t, stderr.String(), "failed=1")
	})

	t.Run("status columns and no header", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := testDeps("abcd.com\n", verdicts(map[string]bool{"abcd.com": true}))

		cmd := &main.CheckCmd{Input: "-", Output: "-", NoHeader: true, Status: true}
		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "abcd.com,true,,200,1\n", stdout.String())
	})

	t.Run("dry run never calls the checker", func(t *testing.T) {
		t.Parallel()

		checker := &mock.Checker{
			CheckFn: func(context.Context, string) *domcheck.CheckResult {
				t.Fatal("checker called during dry run")
				return nil
			},
		}
		deps, stdout, _ := testDeps("a.com\n# c\n\nb.com\na.com\n", checker)

		cmd := &main.CheckCmd{Input: "-", Output: "-", DryRun: true, Unique: true}
		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "Would check 2 domains.\n", stdout.String())
	})

	t.Run("reuse without a store is rejected", func(t *testing.T) {
		t.Parallel()

		deps, stdout, stderr := testDeps("abcd.com\n", verdicts(nil))

		cmd := &main.CheckCmd{Input: "-", Output: "-", Reuse: time.Hour}
		err := cmd.Run(deps)

		require.Error(t, err)
		assert.Equal(t, domcheck.EINVALID, domcheck.ErrorCode(err))
		assert.Contains(t, stderr.String(), "--reuse requires --db")
		assert.Empty(t, stdout.String())
	})

	t.Run("missing input file", func(t *testing.T) {
		t.Parallel()

		deps, _, stderr := testDeps("", verdicts(nil))

		cmd := &main.CheckCmd{Input: "/nonexistent/domains.txt", Output: "-"}
		err := cmd.Run(deps)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "cannot open input")
	})

	t.Run("records the run when a store is configured", func(t *testing.T) {
		t.Parallel()

		var saved []string
		var finished *domcheck.Run
		store := &mock.ResultService{
			CreateRunFn: func(_ context.Context, run *domcheck.Run) error {
				run.ID = "run-1"
				return nil
			},
			SaveResultFn: func(_ context.Context, runID string, r *domcheck.CheckResult) error {
				saved = append(saved, runID+":"+r.Domain)
				return nil
			},
			FinishRunFn: func(_ context.Context, run *domcheck.Run) error {
				finished = run
				return nil
			},
		}
		deps, _, stderr := testDeps("abcd.com\nabce.com\n", verdicts(map[string]bool{"abcd.com": true, "abce.com": false}))
		deps.Results = store
		deps.Fingerprint = "fp"

		cmd := &main.CheckCmd{Input: "-", Output: "-"}
		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Equal(t, []string{"run-1:abcd.com", "run-1:abce.com"}, saved)
		require.NotNil(t, finished)
		assert.Equal(t, "fp", finished.Fingerprint)
		assert.Equal(t, 2, finished.Total)
		assert.Equal(t, 1, finished.Available)
		assert.Contains(t, stderr.String(), "run=run-1")
	})

	t.Run("reuse serves cached verdicts", func(t *testing.T) {
		t.Parallel()

		var checked []string
		checker := &mock.Checker{
			CheckFn: func(_ context.Context, domain string) *domcheck.CheckResult {
				checked = append(checked, domain)
				return domcheck.Succeeded(domain, false)
			},
		}
		store := &mock.ResultService{
			CreateRunFn:  func(context.Context, *domcheck.Run) error { return nil },
			SaveResultFn: func(context.Context, string, *domcheck.CheckResult) error { return nil },
			FinishRunFn:  func(context.Context, *domcheck.Run) error { return nil },
			FindResultsFn: func(_ context.Context, f domcheck.ResultFilter) ([]*domcheck.CheckResult, error) {
				if *f.Domain == "abcd.com" && *f.Fingerprint == "fp" {
					r := domcheck.Succeeded("abcd.com", true)
					r.Attempts = 1
					return []*domcheck.CheckResult{r}, nil
				}
				return nil, nil
			},
		}
		deps, stdout, _ := testDeps("abcd.com\nabce.com\n", checker)
		deps.Results = store
		deps.Fingerprint = "fp"

		cmd := &main.CheckCmd{Input: "-", Output: "-", Reuse: time.Hour, Status: true, NoHeader: true}
		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Equal(t, []string{"abce.com"}, checked)
		assert.Equal(t, "abcd.com,true,,,0\nabce.com,false,,,0\n", stdout.String())
	})

	t.Run("interrupt keeps rows already written", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		pr, pw := io.Pipe()
		t.Cleanup(func() { pw.Close() })
		go func() { _, _ = pw.Write([]byte("abcd.com\n")) }()

		checker := &mock.Checker{
			CheckFn: func(_ context.Context, domain string) *domcheck.CheckResult {
				defer cancel()
				return domcheck.Succeeded(domain, true)
			},
		}
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:     ctx,
			Stdin:   pr,
			Stdout:  stdout,
			Stderr:  stderr,
			Logger:  slog.New(slog.NewTextHandler(stderr, nil)),
			Checker: checker,
		}

		cmd := &main.CheckCmd{Input: "-", Output: "-"}
		err := cmd.Run(deps)

		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, "domain,available,error\nabcd.com,true,\n", stdout.String())
		assert.Contains(t, stderr.String(), "Interrupted after 1 domains")
	})
}
