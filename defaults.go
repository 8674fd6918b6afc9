package waitforit

import (
	"time"

	"github.com/giantswarm/waitforit/internal/process"
)

// Default values applied when neither an option nor the DefaultsProvider sets
// a field.
const (
	// DefaultTimeout bounds the boot wait and every later wait that does not
	// pass its own timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultRedirection appends the command's output to the log.
	DefaultRedirection = ">>"

	// DefaultShell runs the command. It is resolved through PATH.
	DefaultShell = "sh"

	// DefaultStopTimeout bounds how long Close waits for the process group
	// to exit.
	DefaultStopTimeout = process.DefaultStopTimeout
)
