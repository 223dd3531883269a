package audience

import (
	"time"

	"github.com/dlclark/regexp2"
)

// regexMatchTimeout bounds a single in-memory match; backtracking patterns
// can otherwise run for a long time on hostile input.
const regexMatchTimeout = 100 * time.Millisecond

// compilePattern compiles a case-insensitive pattern with a backtracking
// engine. MongoDB evaluates $regex with PCRE, so lookarounds and
// backreferences must be accepted here too.
func compilePattern(pattern string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(pattern, regexp2.IgnoreCase)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = regexMatchTimeout
	return re, nil
}

// matchPattern reports a match; a timed out evaluation counts as a miss.
func matchPattern(re *regexp2.Regexp, s string) bool {
	ok, err := re.MatchString(s)
	return err == nil && ok
}
