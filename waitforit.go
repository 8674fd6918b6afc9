package waitforit

import (
	"context"
	"errors"
	"time"

	"github.com/giantswarm/waitforit/internal/core"
)

// Session is a running command and its log. Create one with New or Run.
//
// Queries (Contains, Count, Log), waits and accessors are safe for concurrent
// use. Close must not be called concurrently with any other method.
//
// The core.Session is a named field rather than embedded so callers cannot
// reach methods outside the public API.
type Session struct {
	s *core.Session
}

// New starts command and blocks until its ready pattern appears in the log.
//
// Configuration problems, including a missing ready pattern, wrap ErrConfig
// and are reported before anything is started. If the pattern does not
// appear within the timeout, New returns a *BootTimeoutError. On every
// failure the process has been stopped and the log removed; there is
// nothing to Close.
//
// Canceling ctx aborts the boot wait. It has no effect once New returned.
func New(ctx context.Context, command string, opts ...Option) (*Session, error) {
	s, err := core.Start(ctx, resolveConfig(command, opts))
	if err != nil {
		return nil, err
	}
	return &Session{s: s}, nil
}

// Run starts a session like New, calls fn with it and closes it when fn
// returns, errors or panics. An error from fn and an error from Close are
// joined.
func Run(ctx context.Context, command string, fn func(*Session) error, opts ...Option) (err error) {
	sess, err := New(ctx, command, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()
	return fn(sess)
}

// Contains reports whether p occurs anywhere in the log right now.
func (s *Session) Contains(p Pattern) (bool, error) {
	return s.s.Contains(p.m)
}

// Count returns the number of non-overlapping occurrences of p in the log
// right now.
func (s *Session) Count(p Pattern) (int, error) {
	return s.s.Count(p.m)
}

// Wait blocks until p appears in the log and reports whether it did. The
// deadline is timeout from now; timeout <= 0 uses the session timeout.
// A timeout, a read failure or a closed session all report false. Wait never
// stops the process.
func (s *Session) Wait(ctx context.Context, p Pattern, timeout time.Duration) bool {
	return s.s.Wait(ctx, p.m, timeout)
}

// WaitOrFail is Wait returning a *BootTimeoutError, with the full log, when p
// does not appear in time. It does not stop the process either. The zero
// Pattern is rejected with ErrNilPattern.
func (s *Session) WaitOrFail(ctx context.Context, p Pattern, timeout time.Duration) error {
	return s.s.WaitOrFail(ctx, p.m, p.text, timeout)
}

// Log returns the full current content of the log.
func (s *Session) Log() (string, error) {
	return s.s.Log()
}

// LogPath returns the path of the temporary log. The file is removed by
// Close.
func (s *Session) LogPath() string {
	return s.s.LogPath()
}

// Pid returns the process id of the shell running the command, or 0 after
// Close.
func (s *Session) Pid() int {
	return s.s.Pid()
}

// ID returns a unique, time-ordered identifier for the session. It also
// appears in the log file name and in every log record of the session.
func (s *Session) ID() string {
	return s.s.ID()
}

// Command returns the command line the session runs.
func (s *Session) Command() string {
	return s.s.Command()
}

// Timeout returns the resolved session timeout.
func (s *Session) Timeout() time.Duration {
	return s.s.Timeout()
}

// Port returns the port allocated for name with WithPortEnv, or 0.
func (s *Session) Port(name string) int {
	return s.s.Port(name)
}

// Exited returns a channel that is closed once the command has exited, on
// its own or because of Close.
func (s *Session) Exited() <-chan struct{} {
	return s.s.Exited()
}

// Close stops the command's process group, waits for it to exit and deletes
// the log. A command that already exited is not an error. Close is
// idempotent.
func (s *Session) Close() error {
	return s.s.Close()
}
