package waitforit

import (
	"regexp"

	"github.com/giantswarm/waitforit/internal/pattern"
)

// Pattern is what a session waits for or searches the log for. The zero value
// is "no pattern" and never matches.
type Pattern struct {
	m    pattern.Matcher
	text string
}

// Literal returns a Pattern matching s byte for byte. Regular expression
// metacharacters in s have no special meaning, and s need not be valid
// UTF-8.
func Literal(s string) Pattern {
	return Pattern{m: pattern.Compile(s), text: s}
}

// Regexp returns a Pattern matching re. A nil re yields the zero Pattern.
func Regexp(re *regexp.Regexp) Pattern {
	if re == nil {
		return Pattern{}
	}
	return Pattern{m: pattern.Compile(re), text: re.String()}
}

// MustCompile is Regexp(regexp.MustCompile(expr)). It panics if expr does not
// compile.
func MustCompile(expr string) Pattern {
	return Regexp(regexp.MustCompile(expr))
}

// String returns the pattern as it was given: the literal text or the
// expression source.
func (p Pattern) String() string {
	return p.text
}

// IsZero reports whether p is the zero Pattern.
func (p Pattern) IsZero() bool {
	return p.m == nil
}
