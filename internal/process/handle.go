package process

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// DefaultStopTimeout bounds how long Stop waits for the process group to exit
// after SIGTERM before escalating and giving up.
const DefaultStopTimeout = 10 * time.Second

// termGracePeriod is the longest Stop waits after SIGTERM before sending
// SIGKILL. It is capped at the Stop timeout.
const termGracePeriod = 5 * time.Second

// killDrainTimeout is the hard upper bound for collecting the wait result
// after SIGKILL, or after finding the process already gone.
const killDrainTimeout = 10 * time.Second

// launcher runs the generated invocation.
const launcher = "/bin/sh"

// SpawnConfig describes the command to start.
type SpawnConfig struct {
	Command     string            // shell command line, run via Shell -c
	Shell       string            // shell resolved through PATH by env(1), e.g. "sh" or "bash"
	Redirection string            // token placed before the log path, e.g. ">>"
	Env         map[string]string // extra variables, layered over the inherited environment
	LogPath     string            // file the combined output is appended to
	Logger      *slog.Logger      // optional, defaults to slog.Default()

	// launcher overrides the outer shell; tests use it to force a spawn failure.
	launcher string
}

// Handle is a running (or reaped) child process.
//
// Handle is not safe for concurrent use of Stop. Pid, Exited and ExitCode may
// be called from any goroutine.
type Handle struct {
	cmd      *exec.Cmd
	pid      int
	waitDone <-chan error    // cmd.Wait result, consumed once by Stop
	exited   <-chan struct{} // closed after cmd.Wait returns
	state    *os.ProcessState
	log      *slog.Logger
}

// Spawn starts cfg.Command. The returned Handle owns the child until Stop.
// Failures to build the invocation are returned as is; an OS refusal to
// create the process wraps ErrSpawn.
func Spawn(cfg SpawnConfig) (*Handle, error) {
	script, err := BuildInvocation(cfg.Command, cfg.Shell, cfg.Redirection, cfg.LogPath, cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("build invocation: %w", err)
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	bin := cfg.launcher
	if bin == "" {
		bin = launcher
	}

	cmd := exec.Command(bin, "-c", script) //nolint:gosec // G204: every user value in script is shell-quoted
	configureSysProcAttr(cmd)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrSpawn, cfg.Command, err)
	}

	h := &Handle{cmd: cmd, pid: cmd.Process.Pid, log: log}

	// cmd.Wait must be called exactly once. done carries its result to Stop;
	// exited is a broadcast for pollers that want to notice an early exit.
	done := make(chan error, 1)
	exited := make(chan struct{})
	go func() {
		err := cmd.Wait()
		h.state = cmd.ProcessState
		close(exited)
		done <- err
	}()
	h.waitDone = done
	h.exited = exited

	log.Debug("process spawned", "pid", h.pid, "command", cfg.Command, "log", cfg.LogPath)
	return h, nil
}

// Pid returns the child's process id, or 0 once it has been stopped.
func (h *Handle) Pid() int {
	return h.pid
}

// Exited returns a channel closed when the child exits. It stays valid after
// Stop.
func (h *Handle) Exited() <-chan struct{} {
	return h.exited
}

// ExitCode returns the child's exit code, or -1 while it is still running or
// when it was ended by a signal.
func (h *Handle) ExitCode() int {
	if h.exited == nil {
		return -1
	}
	select {
	case <-h.exited:
		return h.state.ExitCode()
	default:
		return -1
	}
}

// Stop sends SIGTERM to the child's process group and blocks until the child
// has been reaped. A child that already exited, on its own or otherwise, is
// not an error. If the group ignores SIGTERM it is killed after a grace
// period capped at timeout. Stop is idempotent.
func (h *Handle) Stop(timeout time.Duration) error {
	if h.cmd == nil {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultStopTimeout
	}
	pid := h.pid
	start := time.Now()

	err := stopGroup(h.cmd, h.waitDone, timeout)
	h.cmd = nil
	h.pid = 0
	if err != nil {
		h.log.Warn("process stop failed; process may be orphaned", "pid", pid, "error", err)
		return err
	}
	h.log.Debug("process stopped", "pid", pid, "exit_code", h.ExitCode(), "elapsed", time.Since(start))
	return nil
}

// stopGroup implements SIGTERM, then SIGKILL after a grace period, then a
// bounded wait for the reaper goroutine.
func stopGroup(cmd *exec.Cmd, done <-chan error, timeout time.Duration) error {
	pid := cmd.Process.Pid

	// The group is signalled even when the leader has exited so stragglers
	// it left behind are terminated too.
	if err := signalGroup(cmd, pid, syscall.SIGTERM); err != nil {
		if !errors.Is(err, syscall.ESRCH) {
			return fmt.Errorf("signal process %d: %w", pid, err)
		}
		// Nothing left to signal.
		ok, waitErr := drainDone(done, killDrainTimeout)
		if !ok {
			return fmt.Errorf("timed out reaping process %d", pid)
		}
		return expectExit(waitErr)
	}

	grace := min(termGracePeriod, timeout)
	killTimer := time.AfterFunc(grace, func() {
		_ = signalGroup(cmd, pid, syscall.SIGKILL)
	})
	defer killTimer.Stop()

	total := time.NewTimer(timeout)
	defer total.Stop()

	select {
	case err := <-done:
		return expectExit(err)
	case <-total.C:
		ok, waitErr := drainDone(done, killDrainTimeout)
		if !ok {
			return fmt.Errorf("timed out waiting for process %d to exit after SIGKILL", pid)
		}
		return expectExit(waitErr)
	}
}

// signalGroup signals the process group led by pid, falling back to the
// leader alone when the group cannot be addressed.
func signalGroup(cmd *exec.Cmd, pid int, sig syscall.Signal) error {
	err := syscall.Kill(-pid, sig)
	if err == nil || errors.Is(err, syscall.ESRCH) {
		return err
	}
	if err := cmd.Process.Signal(sig); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return syscall.ESRCH
		}
		return err
	}
	return nil
}

// drainDone waits up to timeout for the cmd.Wait result. It reports false if
// the timeout elapsed first.
func drainDone(done <-chan error, timeout time.Duration) (bool, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case err := <-done:
		return true, err
	case <-t.C:
		return false, nil
	}
}

// expectExit treats any exit of the child, signalled or with a non-zero
// status, as a successful stop. Only errors from Wait itself are returned.
func expectExit(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return fmt.Errorf("wait for process: %w", err)
}
