// Package sentinel provides a string-backed error type so sentinel errors can
// be declared as constants and still match through wrapped chains with
// errors.Is.
package sentinel
