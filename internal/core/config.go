package core

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/giantswarm/waitforit/internal/metrics"
	"github.com/giantswarm/waitforit/internal/pattern"
	"github.com/giantswarm/waitforit/internal/process"
)

// SessionConfig holds the fully resolved settings of one session. Every
// default has been applied by the time it reaches Start.
type SessionConfig struct {
	// Command is the shell command line to run.
	Command string
	// ReadyPattern must appear in the log before Start returns.
	ReadyPattern pattern.Matcher
	// ReadyText is ReadyPattern as the caller wrote it, for error messages.
	ReadyText string
	// Timeout bounds the boot wait and is the default for later waits.
	Timeout time.Duration
	// Redirection is the shell token placed before the log path, e.g. ">>".
	Redirection string
	// Shell runs Command, resolved through PATH.
	Shell string
	// Env is layered over the inherited environment of the child.
	Env map[string]string
	// PortEnv names variables that each receive a free TCP port, added to
	// Env for the lifetime of the session.
	PortEnv []string

	// LogDir holds the temporary log. Empty uses the system temp dir.
	LogDir string
	// LogArchive, when set, receives a copy of the log on Close.
	LogArchive string
	// LockFile, when set, is locked for the lifetime of the session.
	LockFile string
	// FailOnExit ends the boot wait early when the process exits first.
	FailOnExit bool
	// StopTimeout bounds process termination on Close. Zero uses
	// process.DefaultStopTimeout.
	StopTimeout time.Duration

	Logger  *slog.Logger      // nil uses Logger()
	Metrics metrics.Collector // nil discards
}

// Validate checks all SessionConfig invariants and reports every violation at
// once. The returned error wraps ErrConfig, plus ErrMissingReadyPattern or
// process.ErrInvalidEnvKey where they apply.
func (c SessionConfig) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Command) == "" {
		errs = append(errs, errors.New("command must not be empty"))
	}
	if pattern.IsNil(c.ReadyPattern) {
		errs = append(errs, ErrMissingReadyPattern)
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be greater than 0, got %s", c.Timeout))
	}
	if strings.TrimSpace(c.Redirection) == "" {
		errs = append(errs, errors.New("redirection must not be empty"))
	}
	if c.Shell == "" {
		errs = append(errs, errors.New("shell must not be empty"))
	}
	if c.StopTimeout < 0 {
		errs = append(errs, fmt.Errorf("stop timeout must not be negative, got %s", c.StopTimeout))
	}
	for _, k := range sortedKeys(c.Env) {
		if !process.ValidEnvKey(k) {
			errs = append(errs, fmt.Errorf("%w: %q", process.ErrInvalidEnvKey, k))
		}
	}
	seen := make(map[string]bool, len(c.PortEnv))
	for _, k := range c.PortEnv {
		switch {
		case !process.ValidEnvKey(k):
			errs = append(errs, fmt.Errorf("%w: %q", process.ErrInvalidEnvKey, k))
		case seen[k]:
			errs = append(errs, fmt.Errorf("port variable %q listed twice", k))
		default:
			if _, ok := c.Env[k]; ok {
				errs = append(errs, fmt.Errorf("port variable %q is also set in env", k))
			}
		}
		seen[k] = true
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrConfig, errors.Join(errs...))
}

func (c SessionConfig) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return Logger()
}

func (c SessionConfig) metrics() metrics.Collector {
	if c.Metrics != nil {
		return c.Metrics
	}
	return metrics.NewNoop()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
