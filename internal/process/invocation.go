package process

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/kballard/go-shellquote"
)

// envBinary is the absolute path of env(1); it injects the environment so
// that nothing user supplied is ever interpreted as shell syntax.
const envBinary = "/usr/bin/env"

var envKeyRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidEnvKey reports whether k is a portable environment variable name.
func ValidEnvKey(k string) bool {
	return envKeyRegexp.MatchString(k)
}

// BuildInvocation returns the script handed to the outer /bin/sh -c. Env
// entries are emitted in key order so the result is deterministic. The
// redirection token is inserted verbatim between the command and the log
// path; stderr always follows stdout into the log.
func BuildInvocation(command, shell, redirection, logPath string, env map[string]string) (string, error) {
	if command == "" {
		return "", ErrEmptyCommand
	}
	if shell == "" {
		return "", ErrEmptyShell
	}
	if strings.TrimSpace(redirection) == "" {
		return "", ErrEmptyRedirection
	}
	if logPath == "" {
		return "", ErrEmptyLogPath
	}

	keys := make([]string, 0, len(env))
	for k := range env {
		if !ValidEnvKey(k) {
			return "", fmt.Errorf("%w: %q", ErrInvalidEnvKey, k)
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	b.WriteString("exec ")
	b.WriteString(envBinary)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(shellquote.Join(k))
		b.WriteByte('=')
		b.WriteString(shellquote.Join(env[k]))
	}
	b.WriteByte(' ')
	b.WriteString(shellquote.Join(shell, "-c", command))
	b.WriteByte(' ')
	b.WriteString(redirection)
	b.WriteByte(' ')
	b.WriteString(shellquote.Join(logPath))
	b.WriteString(" 2>&1")
	return b.String(), nil
}
