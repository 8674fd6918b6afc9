package process

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildInvocation(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		command     string
		shell       string
		redirection string
		logPath     string
		env         map[string]string
		want        string
		wantErr     error
	}{
		"no env": {
			command: "echo hi", shell: "sh", redirection: ">>", logPath: "/tmp/a.log",
			want: `exec /usr/bin/env sh -c 'echo hi' >> /tmp/a.log 2>&1`,
		},
		"env sorted and quoted": {
			command: "run", shell: "bash", redirection: ">>", logPath: "/tmp/a.log",
			env:  map[string]string{"SLEEP": "0", "GREETING": "hello world"},
			want: `exec /usr/bin/env GREETING='hello world' SLEEP=0 bash -c run >> /tmp/a.log 2>&1`,
		},
		"empty value": {
			command: "run", shell: "sh", redirection: ">>", logPath: "/tmp/a.log",
			env:  map[string]string{"EMPTY": ""},
			want: `exec /usr/bin/env EMPTY='' sh -c run >> /tmp/a.log 2>&1`,
		},
		"truncate redirection kept verbatim": {
			command: "run", shell: "sh", redirection: ">", logPath: "/tmp/a.log",
			want: `exec /usr/bin/env sh -c run > /tmp/a.log 2>&1`,
		},
		"log path with space": {
			command: "run", shell: "sh", redirection: ">>", logPath: "/tmp/my logs/a.log",
			want: `exec /usr/bin/env sh -c run >> '/tmp/my logs/a.log' 2>&1`,
		},
		"invalid env key": {
			command: "run", shell: "sh", redirection: ">>", logPath: "/tmp/a.log",
			env:     map[string]string{"BAD KEY": "x"},
			wantErr: ErrInvalidEnvKey,
		},
		"env key injection": {
			command: "run", shell: "sh", redirection: ">>", logPath: "/tmp/a.log",
			env:     map[string]string{"A;rm": "x"},
			wantErr: ErrInvalidEnvKey,
		},
		"empty command":     {shell: "sh", redirection: ">>", logPath: "/tmp/a.log", wantErr: ErrEmptyCommand},
		"empty shell":       {command: "run", redirection: ">>", logPath: "/tmp/a.log", wantErr: ErrEmptyShell},
		"blank redirection": {command: "run", shell: "sh", redirection: " ", logPath: "/tmp/a.log", wantErr: ErrEmptyRedirection},
		"empty log path":    {command: "run", shell: "sh", redirection: ">>", wantErr: ErrEmptyLogPath},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := BuildInvocation(tc.command, tc.shell, tc.redirection, tc.logPath, tc.env)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestValidEnvKey(t *testing.T) {
	t.Parallel()

	for key, want := range map[string]bool{
		"PATH": true, "_x": true, "a1": true, "": false, "1A": false, "A-B": false, "A=B": false, "$A": false,
	} {
		assert.Equal(t, want, ValidEnvKey(key), "key %q", key)
	}
}

// spawn starts command with output in a fresh log file and stops it when the
// test ends.
func spawn(t *testing.T, command string, env map[string]string) (*Handle, string) {
	t.Helper()

	logPath := filepath.Join(t.TempDir(), "out.log")
	require.NoError(t, os.WriteFile(logPath, nil, 0o600))

	h, err := Spawn(SpawnConfig{
		Command:     command,
		Shell:       "sh",
		Redirection: ">>",
		Env:         env,
		LogPath:     logPath,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Stop(time.Second) })
	return h, logPath
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

// logContains is safe to call from require.Eventually's goroutine.
func logContains(path, s string) bool {
	b, err := os.ReadFile(path)
	return err == nil && strings.Contains(string(b), s)
}

func TestSpawn_EnvReachesChildVerbatim(t *testing.T) {
	t.Parallel()

	values := map[string]string{
		"PLAIN":  "0",
		"SPACES": "hello world",
		"QUOTES": `it's "quoted"`,
		"DOLLAR": "$HOME `id` $(id)",
		"GLOB":   "*; echo injected",
	}
	h, logPath := spawn(t, `printf '%s|%s|%s|%s|%s\n' "$PLAIN" "$SPACES" "$QUOTES" "$DOLLAR" "$GLOB"`, values)

	select {
	case <-h.Exited():
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit")
	}

	want := strings.Join([]string{values["PLAIN"], values["SPACES"], values["QUOTES"], values["DOLLAR"], values["GLOB"]}, "|") + "\n"
	assert.Equal(t, want, readLog(t, logPath))
	assert.Equal(t, 0, h.ExitCode())
}

func TestSpawn_CapturesStdoutAndStderr(t *testing.T) {
	t.Parallel()

	h, logPath := spawn(t, "echo out; echo err 1>&2", nil)
	<-h.Exited()

	got := readLog(t, logPath)
	assert.Contains(t, got, "out\n")
	assert.Contains(t, got, "err\n")
}

func TestSpawn_AppendsToExistingLog(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "out.log")
	require.NoError(t, os.WriteFile(logPath, []byte("previous\n"), 0o600))

	h, err := Spawn(SpawnConfig{Command: "echo next", Shell: "sh", Redirection: ">>", LogPath: logPath})
	require.NoError(t, err)
	<-h.Exited()
	require.NoError(t, h.Stop(time.Second))

	assert.Equal(t, "previous\nnext\n", readLog(t, logPath))
}

func TestSpawn_LauncherFailure(t *testing.T) {
	t.Parallel()

	_, err := Spawn(SpawnConfig{
		Command:     "echo hi",
		Shell:       "sh",
		Redirection: ">>",
		LogPath:     filepath.Join(t.TempDir(), "out.log"),
		launcher:    filepath.Join(t.TempDir(), "no-such-shell"),
	})
	require.ErrorIs(t, err, ErrSpawn)
	assert.Contains(t, err.Error(), `"echo hi"`)
}

func TestSpawn_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := Spawn(SpawnConfig{Command: "echo", Shell: "sh", Redirection: ">>"})
	require.ErrorIs(t, err, ErrEmptyLogPath)
}

func TestHandle_StopTerminatesGroup(t *testing.T) {
	t.Parallel()

	// The background subshell is a grandchild; it must go down with the group
	// and never get to write its marker.
	h, logPath := spawn(t, "(sleep 1; echo survived) & echo running; wait", nil)
	require.Eventually(t, func() bool {
		return logContains(logPath, "running")
	}, 5*time.Second, 10*time.Millisecond)

	pid := h.Pid()
	require.NotZero(t, pid)
	require.NoError(t, h.Stop(5*time.Second))

	assert.Zero(t, h.Pid())
	assert.ErrorIs(t, syscall.Kill(pid, 0), syscall.ESRCH, "leader must be reaped")

	time.Sleep(1500 * time.Millisecond)
	assert.NotContains(t, readLog(t, logPath), "survived")
}

func TestHandle_StopAfterExit(t *testing.T) {
	t.Parallel()

	h, _ := spawn(t, "exit 3", nil)
	<-h.Exited()

	require.NoError(t, h.Stop(time.Second))
	assert.Equal(t, 3, h.ExitCode())
	require.NoError(t, h.Stop(time.Second), "second stop is a no-op")
}

func TestHandle_StopEscalatesToKill(t *testing.T) {
	t.Parallel()

	h, logPath := spawn(t, `trap '' TERM; echo armed; while :; do sleep 1; done`, nil)
	require.Eventually(t, func() bool {
		return logContains(logPath, "armed")
	}, 5*time.Second, 10*time.Millisecond)

	start := time.Now()
	require.NoError(t, h.Stop(200*time.Millisecond))
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, -1, h.ExitCode(), "killed by signal")
}

func TestHandle_ExitCodeWhileRunning(t *testing.T) {
	t.Parallel()

	h, _ := spawn(t, "sleep 30", nil)
	assert.Equal(t, -1, h.ExitCode())
	assert.Equal(t, -1, (&Handle{}).ExitCode())
}

func TestExpectExit(t *testing.T) {
	t.Parallel()

	assert.NoError(t, expectExit(nil))
	assert.NoError(t, expectExit(exitError(t, "exit 1")))
	assert.NoError(t, expectExit(exitError(t, "kill -TERM $$")))
	assert.Error(t, expectExit(errors.New("wait: no child processes")))
}

func TestDrainDone(t *testing.T) {
	t.Parallel()

	want := errors.New("boom")
	done := make(chan error, 1)
	done <- want
	ok, err := drainDone(done, time.Second)
	assert.True(t, ok)
	assert.ErrorIs(t, err, want)

	ok, err = drainDone(make(chan error), 10*time.Millisecond)
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestStopAndNil(t *testing.T) {
	t.Parallel()

	t.Run("nil pointer", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, StopAndNil[*fakeStoppable](nil, time.Second))
	})

	t.Run("nil value", func(t *testing.T) {
		t.Parallel()
		var p *fakeStoppable
		assert.NoError(t, StopAndNil(&p, time.Second))
	})

	t.Run("stops and clears", func(t *testing.T) {
		t.Parallel()
		f := &fakeStoppable{}
		p := f
		require.NoError(t, StopAndNil(&p, 3*time.Second))
		assert.Nil(t, p)
		assert.True(t, f.stopped)
		assert.Equal(t, 3*time.Second, f.timeout)
	})

	t.Run("clears on error", func(t *testing.T) {
		t.Parallel()
		f := &fakeStoppable{err: errors.New("stop failed")}
		p := f
		require.EqualError(t, StopAndNil(&p, time.Second), "stop failed")
		assert.Nil(t, p)
	})
}

type fakeStoppable struct {
	stopped bool
	timeout time.Duration
	err     error
}

func (f *fakeStoppable) Stop(timeout time.Duration) error {
	f.stopped = true
	f.timeout = timeout
	return f.err
}

// exitError runs script and returns the *exec.ExitError it produces.
func exitError(t *testing.T, script string) error {
	t.Helper()
	err := exec.Command("/bin/sh", "-c", script).Run()
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	return err
}
