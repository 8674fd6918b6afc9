package bootwait

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/giantswarm/waitforit/internal/pattern"
	"github.com/giantswarm/waitforit/internal/sentinel"
	"k8s.io/apimachinery/pkg/util/wait"
)

// PollInterval is the pause between two reads of the log.
const PollInterval = 10 * time.Millisecond

// SettleDelay is the pause between first seeing a match and reporting it.
const SettleDelay = 10 * time.Millisecond

const (
	// ErrIntervalNotPositive indicates a negative poll interval.
	ErrIntervalNotPositive = sentinel.Error("interval must be positive")

	// ErrTimeoutNotPositive indicates a non-positive timeout.
	ErrTimeoutNotPositive = sentinel.Error("timeout must be positive")

	// ErrNilPattern indicates a wait without anything to wait for.
	ErrNilPattern = sentinel.Error("pattern must not be nil")

	// ErrProcessExited indicates the process exited and its final output does
	// not contain the pattern.
	ErrProcessExited = sentinel.Error("process exited before the pattern appeared")
)

// ReadFunc returns the full current content of the log.
type ReadFunc func() (string, error)

// Config configures a single wait.
type Config struct {
	Timeout  time.Duration // deadline, measured from the start of the wait
	Interval time.Duration // zero uses PollInterval

	// Exited, when non-nil, ends the wait early with ErrProcessExited once it
	// is closed and a final read still has no match.
	Exited <-chan struct{}

	Logger *slog.Logger // optional, defaults to slog.Default()
}

func (c Config) interval() (time.Duration, error) {
	switch {
	case c.Interval == 0:
		return PollInterval, nil
	case c.Interval < 0:
		return 0, ErrIntervalNotPositive
	default:
		return c.Interval, nil
	}
}

// Poll reads the log until m matches or cfg.Timeout elapses. It returns
// (true, nil) on a match, after SettleDelay, and (false, nil) on timeout.
// A failing read, an early exit (see Config.Exited) or ctx being canceled
// ends the wait with (false, err).
func Poll(ctx context.Context, cfg Config, read ReadFunc, m pattern.Matcher) (bool, error) {
	if pattern.IsNil(m) {
		return false, ErrNilPattern
	}
	if cfg.Timeout <= 0 {
		return false, fmt.Errorf("wait for %q: %w", m.String(), ErrTimeoutNotPositive)
	}
	interval, err := cfg.interval()
	if err != nil {
		return false, fmt.Errorf("wait for %q: %w", m.String(), err)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	// attempt is only touched by the condition, which the poller never runs
	// concurrently with itself.
	attempt := 0
	err = wait.PollUntilContextTimeout(ctx, interval, cfg.Timeout, true,
		func(context.Context) (bool, error) {
			attempt++
			// Sample the exit signal before reading so the read that follows
			// is guaranteed to include the process's final output.
			exited := isClosed(cfg.Exited)

			buf, err := read()
			if err != nil {
				return false, err
			}
			if pattern.FindFirst(buf, m) {
				log.Debug("pattern matched", "pattern", m.String(), "attempt", attempt)
				return true, nil
			}
			if exited {
				return false, ErrProcessExited
			}
			return false, nil
		})
	if err != nil {
		if !wait.Interrupted(err) {
			return false, err
		}
		if ctx.Err() != nil {
			return false, fmt.Errorf("wait for %q: %w", m.String(), ctx.Err())
		}
		log.Debug("wait timed out", "pattern", m.String(), "timeout", cfg.Timeout, "attempts", attempt)
		return false, nil
	}

	time.Sleep(SettleDelay)
	return true, nil
}

func isClosed(ch <-chan struct{}) bool {
	if ch == nil {
		return false
	}
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
