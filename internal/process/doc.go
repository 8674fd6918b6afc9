// Package process spawns a single shell command whose combined output is
// appended to a log file, and tears it down again.
//
// The command runs as /bin/sh -c "exec /usr/bin/env K=V ... <shell> -c CMD
// <redirection> LOG 2>&1" in its own process group, with every environment
// key, value, the command and the log path shell-quoted. Handle tracks the
// child, reaps it exactly once, and terminates the whole group on Stop.
package process
