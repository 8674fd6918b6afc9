package waitforit

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"
)

// requirePositive panics if v <= 0 with a descriptive message.
func requirePositive[T int | time.Duration](name string, v T) {
	if v <= 0 {
		panic(fmt.Sprintf("waitforit: %s must be greater than 0, got %v", name, v))
	}
}

// requireNonEmpty panics if s is empty or blank with a descriptive message.
func requireNonEmpty(name, s string) {
	if strings.TrimSpace(s) == "" {
		panic(fmt.Sprintf("waitforit: %s must not be empty", name))
	}
}

// requireNonNil panics if isNil with a descriptive message.
func requireNonNil(name string, isNil bool) {
	if isNil {
		panic(fmt.Sprintf("waitforit: %s must not be nil", name))
	}
}

// Option configures a Session during construction via New or Run.
//
// Option constructors panic on invalid input (empty strings, non-positive
// durations, nil values). Option values are typically literals in test code,
// so an invalid value is a programmer error; this mirrors
// [regexp.MustCompile]. Settings that may come from outside the program, such
// as environment variable names or a defaults file, are validated by New and
// reported as ErrConfig instead.
type Option func(*options)

// options holds what the caller set explicitly. Zero values mean "not set"
// and fall through to the DefaultsProvider.
type options struct {
	ready       Pattern
	timeout     time.Duration
	redirection string
	shell       string
	env         map[string]string
	portEnv     []string
	logDir      string
	logArchive  string
	lockFile    string
	failOnExit  bool
	stopTimeout time.Duration
	defaults    DefaultsProvider
	logger      *slog.Logger
	metrics     MetricsCollector
}

// WithReadyPattern sets the pattern New waits for before returning.
// Panics if p is the zero Pattern.
func WithReadyPattern(p Pattern) Option {
	requireNonNil("ready pattern", p.IsZero())
	return func(o *options) {
		o.ready = p
	}
}

// WithWaitFor is WithReadyPattern(Literal(s)).
// Panics if s is empty. Whitespace is a valid marker.
func WithWaitFor(s string) Option {
	if s == "" {
		panic("waitforit: ready pattern must not be empty")
	}
	return WithReadyPattern(Literal(s))
}

// WithTimeout sets how long New waits for the ready pattern. It is also the
// default for Session.Wait and Session.WaitOrFail.
//
// Default: 10 seconds.
//
// Panics if d <= 0.
func WithTimeout(d time.Duration) Option {
	requirePositive("timeout", d)
	return func(o *options) {
		o.timeout = d
	}
}

// WithRedirection sets the shell redirection operator placed between the
// command and the log path. It is inserted verbatim; ">" truncates instead
// of appending. Stderr always follows stdout.
//
// Default: ">>".
//
// Panics if r is blank.
func WithRedirection(r string) Option {
	requireNonEmpty("redirection", r)
	return func(o *options) {
		o.redirection = r
	}
}

// WithEnv adds variables to the command's environment, on top of the
// environment inherited from the current process. Repeated calls merge, later
// values winning. Setting any variable replaces the DefaultsProvider's
// environment entirely; WithEnv(nil) clears it.
func WithEnv(env map[string]string) Option {
	env = maps.Clone(env)
	return func(o *options) {
		if o.env == nil {
			o.env = make(map[string]string, len(env))
		}
		maps.Copy(o.env, env)
	}
}

// WithPortEnv allocates one free loopback TCP port per name and passes it to
// the command in that environment variable. Ports are unique among all
// sessions of the process and are returned on Close; read them back with
// Session.Port. Repeated calls append.
//
// Panics if no name is given or a name is blank.
func WithPortEnv(names ...string) Option {
	if len(names) == 0 {
		panic("waitforit: port variable names must not be empty")
	}
	for _, n := range names {
		requireNonEmpty("port variable name", n)
	}
	names = slices.Clone(names)
	return func(o *options) {
		o.portEnv = append(o.portEnv, names...)
	}
}

// WithShell sets the shell that runs the command, resolved through PATH.
//
// Default: "sh".
//
// Panics if shell is blank.
func WithShell(shell string) Option {
	requireNonEmpty("shell", shell)
	return func(o *options) {
		o.shell = shell
	}
}

// WithLogDir sets the directory of the temporary log. It is created if
// missing.
//
// Default: the system temporary directory.
//
// Panics if dir is blank.
func WithLogDir(dir string) Option {
	requireNonEmpty("log directory", dir)
	return func(o *options) {
		o.logDir = dir
	}
}

// WithLogArchive copies the log to path when the session is closed, and when
// New fails after the process was started. CI jobs can then keep the output
// of services after their temporary logs are gone.
//
// Panics if path is blank.
func WithLogArchive(path string) Option {
	requireNonEmpty("log archive path", path)
	return func(o *options) {
		o.logArchive = path
	}
}

// WithLockFile makes New take an exclusive lock on path before starting the
// command and hold it until Close. Sessions using the same path, in this or
// any other process, run one at a time; use it for services that bind a
// fixed port.
//
// Panics if path is blank.
func WithLockFile(path string) Option {
	requireNonEmpty("lock file path", path)
	return func(o *options) {
		o.lockFile = path
	}
}

// WithFailOnExit makes New fail as soon as the command exits without having
// printed the ready pattern, rather than waiting out the timeout. The
// returned *BootTimeoutError wraps ErrProcessExited.
func WithFailOnExit() Option {
	return func(o *options) {
		o.failOnExit = true
	}
}

// WithStopTimeout bounds how long Close waits for the process group to exit.
// SIGKILL is sent after a grace period capped at d.
//
// Default: 10 seconds.
//
// Panics if d <= 0.
func WithStopTimeout(d time.Duration) Option {
	requirePositive("stop timeout", d)
	return func(o *options) {
		o.stopTimeout = d
	}
}

// WithDefaults sets where settings not given as options come from.
// Panics if p is nil.
func WithDefaults(p DefaultsProvider) Option {
	requireNonNil("defaults provider", p == nil)
	return func(o *options) {
		o.defaults = p
	}
}

// WithLogger sets the logger for one session, overriding SetLogger.
// Panics if l is nil.
func WithLogger(l *slog.Logger) Option {
	requireNonNil("logger", l == nil)
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics sets the collector that receives the session's timings.
// Panics if m is nil.
func WithMetrics(m MetricsCollector) Option {
	requireNonNil("metrics collector", m == nil)
	return func(o *options) {
		o.metrics = m
	}
}
