// Package exclude provides glob-based path exclusion for the change tracker.
// Patterns match the full path, case-insensitively, in the style of shell
// globs ("*Docker*", "*.tmp"). A path is excluded when any pattern matches.
package exclude

import (
	"strings"

	"github.com/gobwas/glob"
)

// Set is a compiled set of exclusion patterns. It is immutable after
// construction and safe for concurrent use.
type Set struct {
	patterns []string
	globs    []glob.Glob
}

// New compiles the given patterns into a Set. Patterns are lowercased before
// compilation so that matching is case-insensitive. Invalid patterns are
// skipped rather than failing the whole set.
func New(patterns []string) *Set {
	s := &Set{}
	for _, pattern := range patterns {
		g, err := glob.Compile(strings.ToLower(pattern))
		if err != nil {
			continue // Skip invalid patterns
		}
		s.patterns = append(s.patterns, pattern)
		s.globs = append(s.globs, g)
	}
	return s
}

// Match returns true if the path matches any exclusion pattern.
func (s *Set) Match(path string) bool {
	if s == nil || len(s.globs) == 0 {
		return false
	}
	lower := strings.ToLower(path)
	for _, g := range s.globs {
		if g.Match(lower) {
			return true
		}
	}
	return false
}

// Len returns the number of compiled patterns.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.globs)
}

// Patterns returns the original pattern strings that compiled successfully.
func (s *Set) Patterns() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.patterns))
	copy(out, s.patterns)
	return out
}
