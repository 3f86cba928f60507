// Package csv writes check results as CSV rows.
package csv

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/fwojciec/domcheck"
)

// Ensure Writer implements domcheck.ResultWriter at compile time.
var _ domcheck.ResultWriter = (*Writer)(nil)

// Writer writes one row per result: domain, available, error. The
// available column is "true", "false" or empty when unknown.
type Writer struct {
	w           *csv.Writer
	header      bool
	status      bool
	wroteHeader bool
}

// Option configures a Writer.
type Option func(*Writer)

// WithHeader controls whether a header row precedes the first result.
// Defaults to true.
func WithHeader(on bool) Option {
	return func(w *Writer) {
		w.header = on
	}
}

// WithStatus appends http_status and attempts columns.
func WithStatus(on bool) Option {
	return func(w *Writer) {
		w.status = on
	}
}

// NewWriter creates a Writer on top of out.
func NewWriter(out io.Writer, opts ...Option) *Writer {
	w := &Writer{
		w:      csv.NewWriter(out),
		header: true,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write appends the row for r, preceded by the header on first use.
func (w *Writer) Write(r *domcheck.CheckResult) error {
	if w.header && !w.wroteHeader {
		if err := w.w.Write(w.columns()); err != nil {
			return err
		}
		w.wroteHeader = true
	}
	return w.w.Write(w.row(r))
}

// Flush writes buffered rows to the underlying writer.
func (w *Writer) Flush() error {
	w.w.Flush()
	return w.w.Error()
}

func (w *Writer) columns() []string {
	cols := []string{"domain", "available", "error"}
	if w.status {
		cols = append(cols, "http_status", "attempts")
	}
	return cols
}

func (w *Writer) row(r *domcheck.CheckResult) []string {
	row := []string{r.Domain, r.Verdict(), r.Error}
	if w.status {
		status := ""
		if r.HTTPStatus != 0 {
			status = strconv.Itoa(r.HTTPStatus)
		}
		row = append(row, status, strconv.Itoa(r.Attempts))
	}
	return row
}
