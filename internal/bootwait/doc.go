// Package bootwait blocks until a pattern shows up in a log, or a deadline
// passes.
//
// A wait has two outcomes only: Matched or TimedOut. The log is re-read in
// full every PollInterval; once the pattern is seen the caller is held for a
// further SettleDelay so a line that was only partially flushed has a chance
// to complete. Both delays are small and fixed. There is no backoff and no
// file-change notification: the horizon is seconds and latency matters more
// than the cost of a read.
package bootwait
