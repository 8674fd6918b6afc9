package logsink

import (
	"errors"
	"fmt"
	"os"

	"github.com/giantswarm/waitforit/internal/fileutil"
	"github.com/giantswarm/waitforit/internal/sentinel"
)

// ErrIO marks failures to allocate, read, or remove log storage.
const ErrIO = sentinel.Error("log storage failure")

// archiveMode is the permission set on archived copies of a log.
const archiveMode os.FileMode = 0o644

// Sink is an append-only log file. The child process writes to Path through a
// shell redirect; Sink itself never writes.
type Sink struct {
	path string
}

// Create allocates a uniquely named empty file in dir (os.TempDir when dir is
// empty). The file name is prefix-<random>.log. The handle is closed right
// away; only the path is kept.
func Create(dir, prefix string) (*Sink, error) {
	if dir != "" {
		if err := fileutil.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIO, err)
		}
	}
	f, err := os.CreateTemp(dir, prefix+"-*.log")
	if err != nil {
		return nil, fmt.Errorf("%w: create log file: %w", ErrIO, err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: close log file %s: %w", ErrIO, path, err)
	}
	return &Sink{path: path}, nil
}

// Path returns the path of the log file.
func (s *Sink) Path() string {
	return s.path
}

// ReadAll returns everything written to the log so far.
func (s *Sink) ReadAll() (string, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", ErrIO, s.path, err)
	}
	return string(b), nil
}

// Archive copies the current log contents to dst. dst is replaced
// atomically, so a reader never sees a half-written archive.
func (s *Sink) Archive(dst string) error {
	if err := fileutil.CopyFileAtomic(s.path, dst, archiveMode); err != nil {
		return fmt.Errorf("%w: archive %s to %s: %w", ErrIO, s.path, dst, err)
	}
	return nil
}

// Destroy removes the log file. A file that is already gone is not an error.
func (s *Sink) Destroy() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: remove %s: %w", ErrIO, s.path, err)
	}
	return nil
}
