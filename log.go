package waitforit

import (
	"log/slog"

	"github.com/giantswarm/waitforit/internal/core"
)

// SetLogger replaces the package-level logger used by sessions that were not
// given one through WithLogger. The provided logger should already have any
// desired attributes; each session only adds its "session" ID.
//
// If l is nil, the logger resets to slog.Default() with a "component"
// attribute. SetLogger is safe to call concurrently, but only affects
// sessions created afterwards.
//
// Example:
//
//	waitforit.SetLogger(myLogger.With("component", "waitforit"))
func SetLogger(l *slog.Logger) {
	core.SetLogger(l)
}
