package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir), "second call on an existing dir")

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestEnsureDirForFile(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "logs", "boot.log")
	require.NoError(t, EnsureDirForFile(file))

	info, err := os.Stat(filepath.Dir(file))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCopyFileAtomic(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "src.log")
	require.NoError(t, os.WriteFile(src, []byte("Started\nDone\n"), 0o600))

	tests := map[string]struct {
		src     string
		dst     string
		wantErr error
	}{
		"copies into nested dir": {src: src, dst: filepath.Join(t.TempDir(), "ci", "artifacts", "boot.log")},
		"empty source":           {src: "", dst: filepath.Join(t.TempDir(), "x.log"), wantErr: ErrEmptySrc},
		"empty destination":      {src: src, dst: "", wantErr: ErrEmptyDst},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := CopyFileAtomic(tc.src, tc.dst, 0o644)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)

			got, err := os.ReadFile(tc.dst)
			require.NoError(t, err)
			assert.Equal(t, "Started\nDone\n", string(got))

			entries, err := os.ReadDir(filepath.Dir(tc.dst))
			require.NoError(t, err)
			assert.Len(t, entries, 1, "temp file must not be left behind")
		})
	}
}

func TestCopyFileAtomic_MissingSource(t *testing.T) {
	t.Parallel()

	dstDir := t.TempDir()
	err := CopyFileAtomic(filepath.Join(dstDir, "missing.log"), filepath.Join(dstDir, "out.log"), 0o644)
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dstDir, "out.log"))
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}
