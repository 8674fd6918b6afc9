// Package waitforit starts a shell command for the duration of a test and
// blocks until the command prints that it is ready.
//
// Each Session runs exactly one command. Its combined stdout and stderr are
// appended to a temporary log file, and New returns only once a ready pattern
// shows up in that log. If the pattern does not appear within the timeout,
// the process is killed, the log is deleted and New returns a
// *BootTimeoutError carrying the full log, so a failing test shows why the
// service never came up.
//
// # Basic Usage
//
//	sess, err := waitforit.New(ctx, "bin/server --port 8080",
//	    waitforit.WithWaitFor("Listening on"),
//	    waitforit.WithTimeout(30*time.Second),
//	    waitforit.WithEnv(map[string]string{"APP_ENV": "test"}),
//	)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer sess.Close()
//
// Run wraps New and Close for callers that prefer a scoped form; Close runs
// even when the callback fails or panics:
//
//	err := waitforit.Run(ctx, "bin/worker", func(s *waitforit.Session) error {
//	    return s.WaitOrFail(ctx, waitforit.Literal("job done"), 0)
//	}, waitforit.WithWaitFor("worker started"))
//
// # Patterns
//
// A Pattern is either a literal string, matched verbatim (Literal), or a
// regular expression (Regexp, MustCompile). WithWaitFor is shorthand for
// WithReadyPattern(Literal(s)).
//
// # Defaults
//
// Every setting resolves in order: an explicit option, then the
// DefaultsProvider passed with WithDefaults, then a built-in default
// (DefaultTimeout, DefaultRedirection, DefaultShell, no extra environment).
// There is no built-in ready pattern; a session without one fails with
// ErrMissingReadyPattern before anything is started. LoadDefaults reads a
// provider from a YAML or TOML file so a test suite can share one
// configuration.
//
// # Waiting
//
// Waiting is a poll of the whole log every 10ms, followed by a 10ms settle
// delay on a match. Wait reports false on timeout and never stops the
// process; WaitOrFail returns a *BootTimeoutError instead. Both accept a
// timeout override; zero uses the session timeout.
//
// # Process Lifecycle
//
// The command runs through "/usr/bin/env K=V... <shell> -c <command>" in its
// own process group, with every environment value shell-quoted. Close sends
// SIGTERM to the whole group, escalates to SIGKILL after a grace period and
// then removes the log. A process that already exited on its own is not an
// error.
//
// # Logging
//
// Diagnostic output goes through log/slog. Use SetLogger to route it, or
// WithLogger for a single session.
package waitforit
