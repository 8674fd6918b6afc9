// Package pattern turns ready markers into matchers and matches them against
// captured output.
package pattern

import (
	"regexp"
	"strings"
)

// Source is anything that can be turned into a Matcher: literal text or an
// already compiled expression.
type Source interface {
	string | *regexp.Regexp
}

// Matcher finds a pattern in captured output. *regexp.Regexp and Literal
// implement it.
type Matcher interface {
	MatchString(s string) bool
	String() string
}

// Literal matches its text byte for byte. Unlike a quoted regular
// expression it accepts any string, invalid UTF-8 included.
type Literal string

// MatchString reports whether l occurs in s.
func (l Literal) MatchString(s string) bool {
	return strings.Contains(s, string(l))
}

func (l Literal) String() string {
	return string(l)
}

// Compile returns a *regexp.Regexp unchanged and a string as a Literal. A nil
// *regexp.Regexp yields a nil Matcher.
func Compile[S Source](in S) Matcher {
	switch v := any(in).(type) {
	case *regexp.Regexp:
		if v == nil {
			return nil
		}
		return v
	case string:
		return Literal(v)
	}
	panic("unreachable")
}

// IsNil reports whether m is nil or wraps a nil *regexp.Regexp.
func IsNil(m Matcher) bool {
	if m == nil {
		return true
	}
	re, ok := m.(*regexp.Regexp)
	return ok && re == nil
}

// FindFirst reports whether m matches anywhere in buf. A nil m never
// matches.
func FindFirst(buf string, m Matcher) bool {
	if IsNil(m) {
		return false
	}
	return m.MatchString(buf)
}

// CountAll returns the number of non-overlapping matches of m in buf.
func CountAll(buf string, m Matcher) int {
	if IsNil(m) {
		return 0
	}
	switch v := m.(type) {
	case Literal:
		return strings.Count(buf, string(v))
	case *regexp.Regexp:
		return len(v.FindAllStringIndex(buf, -1))
	default:
		// Other matchers only report presence.
		if v.MatchString(buf) {
			return 1
		}
		return 0
	}
}
