package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/giantswarm/waitforit/internal/bootwait"
	"github.com/giantswarm/waitforit/internal/filelock"
	"github.com/giantswarm/waitforit/internal/logsink"
	"github.com/giantswarm/waitforit/internal/metrics"
	"github.com/giantswarm/waitforit/internal/netutil"
	"github.com/giantswarm/waitforit/internal/pattern"
	"github.com/giantswarm/waitforit/internal/process"
	"github.com/gofrs/flock"
	"github.com/oklog/ulid/v2"
)

// logPrefix starts the name of every temporary log file.
const logPrefix = "waitforit"

// portRegistry is shared by all sessions of the process so that two of them
// are never handed the same port.
var portRegistry = netutil.NewPortRegistry(nil)

// Session is one spawned command together with its log.
//
// Queries, waits and accessors may be called from any goroutine. Close must
// not run concurrently with any other method.
type Session struct {
	id      string
	cfg     SessionConfig
	log     *slog.Logger
	metrics metrics.Collector

	lock  *flock.Flock
	ports map[string]int
	sink  *logsink.Sink
	proc  *process.Handle

	exited <-chan struct{}
	pid    atomic.Int64
	closed atomic.Bool
}

// Start runs cfg.Command and returns once cfg.ReadyPattern appears in its log.
// On any failure the process, the log and the lock are released before the
// error is returned; the caller never has anything to clean up.
//
// A boot that runs out of time returns a *bootwait.TimeoutError.
func Start(ctx context.Context, cfg SessionConfig) (_ *Session, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	id := ulid.Make().String()
	s := &Session{
		id:      id,
		cfg:     cfg,
		log:     cfg.logger().With("session", id),
		metrics: cfg.metrics(),
	}

	start := time.Now()
	defer func() {
		if err == nil {
			return
		}
		s.metrics.BootFailed(failureReason(err), time.Since(start))
		if cleanupErr := s.teardown(); cleanupErr != nil {
			s.log.Warn("cleanup after start failure", "error", cleanupErr)
		}
	}()

	if cfg.LockFile != "" {
		s.lock, err = filelock.Acquire(ctx, cfg.LockFile, 0)
		if err != nil {
			return nil, err
		}
	}

	s.ports, err = portRegistry.AllocateNamed(cfg.PortEnv)
	if err != nil {
		return nil, fmt.Errorf("allocate ports: %w", err)
	}

	s.sink, err = logsink.Create(cfg.LogDir, logPrefix+"-"+id)
	if err != nil {
		return nil, err
	}

	s.proc, err = process.Spawn(process.SpawnConfig{
		Command:     cfg.Command,
		Shell:       cfg.Shell,
		Redirection: cfg.Redirection,
		Env:         s.env(),
		LogPath:     s.sink.Path(),
		Logger:      s.log,
	})
	if err != nil {
		return nil, err
	}
	s.exited = s.proc.Exited()
	s.pid.Store(int64(s.proc.Pid()))

	bootCfg := bootwait.Config{Timeout: cfg.Timeout, Logger: s.log}
	if cfg.FailOnExit {
		bootCfg.Exited = s.exited
	}
	err = bootwait.PollOrFail(ctx, bootCfg, s.sink.ReadAll, cfg.ReadyPattern,
		bootwait.Diagnostics{Command: cfg.Command, Pattern: cfg.ReadyText})
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	s.metrics.BootSucceeded(elapsed)
	s.log.Info("session ready", "pid", s.Pid(), "pattern", cfg.ReadyText, "elapsed", elapsed)
	return s, nil
}

// ID returns the session's unique, time-ordered identifier.
func (s *Session) ID() string { return s.id }

// Command returns the command line the session runs.
func (s *Session) Command() string { return s.cfg.Command }

// Timeout returns the resolved session timeout.
func (s *Session) Timeout() time.Duration { return s.cfg.Timeout }

// LogPath returns the path of the temporary log. The file is gone after Close.
func (s *Session) LogPath() string { return s.sink.Path() }

// Pid returns the process id of the command's shell, or 0 after Close.
func (s *Session) Pid() int { return int(s.pid.Load()) }

// Exited returns a channel that is closed once the process has exited.
func (s *Session) Exited() <-chan struct{} { return s.exited }

// Port returns the port allocated for the PortEnv variable name, or 0.
func (s *Session) Port(name string) int { return s.ports[name] }

// env is cfg.Env plus the allocated ports.
func (s *Session) env() map[string]string {
	if len(s.ports) == 0 {
		return s.cfg.Env
	}
	env := maps.Clone(s.cfg.Env)
	if env == nil {
		env = make(map[string]string, len(s.ports))
	}
	for name, port := range s.ports {
		env[name] = strconv.Itoa(port)
	}
	return env
}

// Log returns the full current content of the log.
func (s *Session) Log() (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}
	return s.sink.ReadAll()
}

// Contains reports whether m occurs anywhere in the current log.
func (s *Session) Contains(m pattern.Matcher) (bool, error) {
	buf, err := s.Log()
	if err != nil {
		return false, err
	}
	return pattern.FindFirst(buf, m), nil
}

// Count returns the number of non-overlapping occurrences of m in the
// current log.
func (s *Session) Count(m pattern.Matcher) (int, error) {
	buf, err := s.Log()
	if err != nil {
		return 0, err
	}
	return pattern.CountAll(buf, m), nil
}

// Wait blocks until m appears in the log or timeout elapses, measured from
// now. timeout <= 0 uses the session timeout. Any failure, including a closed
// session, reports false. The process is never touched.
func (s *Session) Wait(ctx context.Context, m pattern.Matcher, timeout time.Duration) bool {
	if s.closed.Load() {
		return false
	}
	start := time.Now()
	ok, err := bootwait.Poll(ctx, s.waitConfig(timeout), s.sink.ReadAll, m)
	if err != nil {
		s.log.Debug("wait failed", "error", err)
	}
	s.metrics.WaitFinished(ok, time.Since(start))
	return ok
}

// WaitOrFail is Wait that returns a *bootwait.TimeoutError, carrying text and
// the log, when m does not appear in time.
func (s *Session) WaitOrFail(ctx context.Context, m pattern.Matcher, text string, timeout time.Duration) error {
	if s.closed.Load() {
		return ErrClosed
	}
	cfg := s.waitConfig(timeout)
	start := time.Now()
	err := bootwait.PollOrFail(ctx, cfg, s.sink.ReadAll, m,
		bootwait.Diagnostics{Command: s.cfg.Command, Pattern: text})
	s.metrics.WaitFinished(err == nil, time.Since(start))
	return err
}

func (s *Session) waitConfig(timeout time.Duration) bootwait.Config {
	if timeout <= 0 {
		timeout = s.cfg.Timeout
	}
	return bootwait.Config{Timeout: timeout, Logger: s.log}
}

// Close stops the process group, archives the log if configured, deletes the
// log and releases the lock. Every step runs even if an earlier one fails;
// the failures are joined. A process that already exited is not an error.
// Calling Close again is a no-op.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := s.teardown()
	if err != nil {
		s.log.Warn("session closed with errors", "error", err)
		return err
	}
	s.log.Debug("session closed")
	return nil
}

// teardown releases whatever has been allocated so far, in reverse order of
// allocation. It tolerates absent resources.
func (s *Session) teardown() error {
	var errs []error

	if s.proc != nil {
		start := time.Now()
		if err := process.StopAndNil(&s.proc, s.cfg.StopTimeout); err != nil {
			errs = append(errs, fmt.Errorf("stop process: %w", err))
		}
		s.pid.Store(0)
		s.metrics.ProcessTerminated(time.Since(start))
	}

	if s.sink != nil {
		if s.cfg.LogArchive != "" {
			if err := s.sink.Archive(s.cfg.LogArchive); err != nil {
				errs = append(errs, fmt.Errorf("archive log: %w", err))
			}
		}
		if err := s.sink.Destroy(); err != nil {
			errs = append(errs, fmt.Errorf("destroy log: %w", err))
		}
	}

	// Ports go back only once nothing can be listening on them.
	portRegistry.Release(slices.Collect(maps.Values(s.ports))...)

	filelock.Release(s.log, s.lock)
	s.lock = nil

	return errors.Join(errs...)
}

// failureReason maps a boot error to a metrics reason label. An early exit is
// checked first because it also matches ErrBootTimeout.
func failureReason(err error) string {
	switch {
	case errors.Is(err, bootwait.ErrProcessExited):
		return metrics.ReasonExited
	case errors.Is(err, bootwait.ErrBootTimeout):
		return metrics.ReasonTimeout
	case errors.Is(err, process.ErrSpawn):
		return metrics.ReasonSpawn
	case errors.Is(err, logsink.ErrIO):
		return metrics.ReasonIO
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.ReasonCanceled
	default:
		return metrics.ReasonOther
	}
}
