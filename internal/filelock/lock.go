// Package filelock serializes sessions across processes with an advisory
// file lock.
package filelock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/giantswarm/waitforit/internal/fileutil"
	"github.com/gofrs/flock"
)

// DefaultRetryInterval is the pause between two attempts to take a lock that
// is held elsewhere.
const DefaultRetryInterval = 50 * time.Millisecond

// Acquire blocks until it holds an exclusive lock on path, or ctx is done.
// The parent directory is created if missing. retry <= 0 uses
// DefaultRetryInterval.
func Acquire(ctx context.Context, path string, retry time.Duration) (*flock.Flock, error) {
	if retry <= 0 {
		retry = DefaultRetryInterval
	}
	if err := fileutil.EnsureDirForFile(path); err != nil {
		return nil, fmt.Errorf("acquiring file lock %s: %w", path, err)
	}

	fl := flock.New(path)
	locked, err := fl.TryLockContext(ctx, retry)
	if err != nil {
		return nil, fmt.Errorf("acquiring file lock %s: %w", path, err)
	}
	if !locked {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("acquiring file lock %s: %w", path, ctx.Err())
		}
		return nil, fmt.Errorf("acquiring file lock %s: lock not acquired", path)
	}
	return fl, nil
}

// Release unlocks and closes fl. The file stays on disk: removing it could
// invalidate a lock another process has just taken on the same path.
// Failures are logged, not returned. A nil fl is a no-op.
func Release(logger *slog.Logger, fl *flock.Flock) {
	if fl == nil {
		return
	}
	if err := fl.Close(); err != nil {
		logger.Debug("failed to release file lock", "path", fl.Path(), "err", err)
	}
}
