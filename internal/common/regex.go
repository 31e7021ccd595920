package common

import (
	"regexp"
)

var leadingFlags = regexp.MustCompile(`^\(\?[imsU]+\)`)

// CompileInsensitive compiles a pattern as case-insensitive unless it already
// opens with its own flag group such as (?s) or (?i).
func CompileInsensitive(pattern string) (*regexp.Regexp, error) {
	if !leadingFlags.MatchString(pattern) {
		pattern = "(?i)" + pattern
	}
	return regexp.Compile(pattern)
}

// MustCompileInsensitive is like CompileInsensitive but panics on an invalid pattern.
// Only use it for patterns compiled into the binary.
func MustCompileInsensitive(pattern string) *regexp.Regexp {
	re, err := CompileInsensitive(pattern)
	if err != nil {
		panic(err)
	}
	return re
}
