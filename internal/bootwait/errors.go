package bootwait

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/giantswarm/waitforit/internal/pattern"
	"github.com/giantswarm/waitforit/internal/sentinel"
)

// ErrBootTimeout matches every *TimeoutError via errors.Is.
const ErrBootTimeout = sentinel.Error("boot timeout")

// TimeoutError reports a pattern that did not appear in time. It carries the
// whole log as it was when the wait gave up, so the error alone is enough to
// diagnose a failing test.
type TimeoutError struct {
	Command string        // command line the process was started with
	Pattern string        // the awaited pattern, as the caller wrote it
	Timeout time.Duration // how long the wait lasted
	Log     string        // verbatim log snapshot
	Cause   error         // ErrProcessExited for an early exit, else nil
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("running command '%s': waiting for '%s' did not occur within %s", e.Command, e.Pattern, e.Timeout)
	if e.Cause != nil {
		msg += " (" + e.Cause.Error() + ")"
	}
	return msg + ":\n" + e.Log
}

// Is makes errors.Is(err, ErrBootTimeout) true for any *TimeoutError.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrBootTimeout //nolint:errorlint // sentinel comparison
}

func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// Diagnostics names what is being waited for in a TimeoutError.
type Diagnostics struct {
	Command string
	Pattern string
}

// PollOrFail is Poll that turns a timeout, or an early exit, into a
// *TimeoutError. Read failures and cancellation are returned unchanged.
func PollOrFail(ctx context.Context, cfg Config, read ReadFunc, m pattern.Matcher, diag Diagnostics) error {
	matched, err := Poll(ctx, cfg, read, m)
	if matched {
		return nil
	}
	if err != nil && !errors.Is(err, ErrProcessExited) {
		return err
	}

	snapshot, readErr := read()
	if readErr != nil {
		snapshot = fmt.Sprintf("<log unavailable: %v>", readErr)
	}
	return &TimeoutError{
		Command: diag.Command,
		Pattern: diag.Pattern,
		Timeout: cfg.Timeout,
		Log:     snapshot,
		Cause:   err,
	}
}

var _ error = (*TimeoutError)(nil)
