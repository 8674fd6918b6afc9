package core

import "github.com/giantswarm/waitforit/internal/sentinel"

const (
	// ErrConfig wraps every configuration problem found before a session
	// allocates anything.
	ErrConfig = sentinel.Error("invalid session configuration")

	// ErrMissingReadyPattern indicates that neither the caller nor the
	// defaults provider supplied a ready pattern.
	ErrMissingReadyPattern = sentinel.Error("no ready pattern configured")

	// ErrClosed is returned by log queries on a closed session.
	ErrClosed = sentinel.Error("session closed")
)
