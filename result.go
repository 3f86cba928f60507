package domcheck

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// CheckResult is the verdict for a single domain name.
// Available is nil when the check failed and the availability is unknown.
type CheckResult struct {
	Domain     string    `json:"domain"`
	Available  *bool     `json:"available"`
	Code       string    `json:"code,omitempty"`
	Error      string    `json:"error,omitempty"`
	HTTPStatus int       `json:"httpStatus,omitempty"`
	Attempts   int       `json:"attempts"`
	CheckedAt  time.Time `json:"checkedAt"`
}

// Succeeded returns a result carrying an availability verdict.
func Succeeded(domain string, available bool) *CheckResult {
	return &CheckResult{
		Domain:    domain,
		Available: &available,
		CheckedAt: time.Now().UTC(),
	}
}

// Failed returns a result recording why the domain could not be checked.
func Failed(domain string, err error) *CheckResult {
	return &CheckResult{
		Domain:    domain,
		Code:      ErrorCode(err),
		Error:     describe(err),
		CheckedAt: time.Now().UTC(),
	}
}

// Verdict formats the availability as "true", "false" or "" when unknown.
func (r *CheckResult) Verdict() string {
	if r.Available == nil {
		return ""
	}
	return strconv.FormatBool(*r.Available)
}

// OK reports whether the check produced a verdict.
func (r *CheckResult) OK() bool {
	return r.Available != nil
}

// describe returns the message of a bare application error and the full
// error text for anything wrapped.
func describe(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && error(e) == err {
		return e.Message
	}
	return err.Error()
}

// Checker checks the availability of a single domain name.
type Checker interface {
	// Check always returns a result; failures are recorded on the result
	// rather than returned.
	Check(ctx context.Context, domain string) *CheckResult
}

// ResultWriter writes check results incrementally.
type ResultWriter interface {
	// Write appends one result.
	Write(r *CheckResult) error

	// Flush forces buffered results to the underlying output.
	Flush() error
}
