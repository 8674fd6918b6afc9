package process

import "github.com/giantswarm/waitforit/internal/sentinel"

// ErrSpawn is returned when the operating system refuses to start the child.
const ErrSpawn = sentinel.Error("spawn process")

// ErrInvalidEnvKey is returned for environment names that are not
// [A-Za-z_][A-Za-z0-9_]*.
const ErrInvalidEnvKey = sentinel.Error("invalid environment variable name")

// ErrEmptyCommand is returned when no command is given.
const ErrEmptyCommand = sentinel.Error("command must not be empty")

// ErrEmptyShell is returned when no shell is given.
const ErrEmptyShell = sentinel.Error("shell must not be empty")

// ErrEmptyRedirection is returned when the redirection token is blank.
const ErrEmptyRedirection = sentinel.Error("redirection must not be empty")

// ErrEmptyLogPath is returned when no log path is given.
const ErrEmptyLogPath = sentinel.Error("log path must not be empty")
