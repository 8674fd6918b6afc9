// Package core implements the session lifecycle behind the public waitforit
// API: validate the configuration, take the optional file lock, create the
// log, spawn the command and block until it prints its ready pattern. Queries
// and waits after boot only read the log; Close alone mutates the session.
package core
