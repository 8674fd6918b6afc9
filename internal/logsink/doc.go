// Package logsink owns the temporary file a spawned command's combined output
// is appended to. Reads always return the whole file as currently flushed;
// nothing is cached between reads.
package logsink
