package waitforit

import (
	"github.com/giantswarm/waitforit/internal/bootwait"
	"github.com/giantswarm/waitforit/internal/core"
	"github.com/giantswarm/waitforit/internal/logsink"
	"github.com/giantswarm/waitforit/internal/process"
)

// Sentinel errors for error inspection with errors.Is.
const (
	// ErrConfig is wrapped by every error New returns for an invalid
	// configuration. No process has been started when it is returned.
	ErrConfig = core.ErrConfig

	// ErrMissingReadyPattern is returned, wrapped in ErrConfig, when no ready
	// pattern was given and the DefaultsProvider has none either.
	ErrMissingReadyPattern = core.ErrMissingReadyPattern

	// ErrInvalidEnvKey is returned, wrapped in ErrConfig, for an environment
	// variable name that is not a valid shell identifier.
	ErrInvalidEnvKey = process.ErrInvalidEnvKey

	// ErrSpawn indicates the operating system refused to start the command.
	ErrSpawn = process.ErrSpawn

	// ErrIO indicates the log file could not be created, read or removed.
	ErrIO = logsink.ErrIO

	// ErrBootTimeout matches every *BootTimeoutError.
	ErrBootTimeout = bootwait.ErrBootTimeout

	// ErrProcessExited is the cause of a *BootTimeoutError when the process
	// exited before printing the pattern. See WithFailOnExit.
	ErrProcessExited = bootwait.ErrProcessExited

	// ErrNilPattern is returned by Session.WaitOrFail for the zero Pattern.
	ErrNilPattern = bootwait.ErrNilPattern

	// ErrClosed is returned by log queries on a closed Session.
	ErrClosed = core.ErrClosed
)

// BootTimeoutError reports that a pattern did not appear in time. It is
// returned by New when the ready pattern is missing and by
// Session.WaitOrFail. Its Log field holds the complete log at the moment the
// wait gave up.
type BootTimeoutError = bootwait.TimeoutError
