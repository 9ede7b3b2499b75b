// Package filter selects archive entries by glob patterns.
package filter

import (
	"fmt"
	"path/filepath"

	"github.com/gobwas/glob"
)

// Matcher decides which entry names an operation touches. Include
// patterns narrow the selection, exclude patterns subtract from it;
// with no include patterns every name is selected.
type Matcher struct {
	includes []glob.Glob
	excludes []glob.Glob
}

// NewMatcher compiles the given patterns. Patterns match against the
// whole entry name with / as separator; * crosses separators.
func NewMatcher(includes, excludes []string) (*Matcher, error) {
	in, err := compileAll(includes)
	if err != nil {
		return nil, err
	}
	ex, err := compileAll(excludes)
	if err != nil {
		return nil, err
	}
	return &Matcher{includes: in, excludes: ex}, nil
}

func compileAll(patterns []string) ([]glob.Glob, error) {
	compiled := make([]glob.Glob, len(patterns))
	for i, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile pattern %s: %w", pattern, err)
		}
		compiled[i] = g
	}
	return compiled, nil
}

// Match reports whether name is selected.
func (m *Matcher) Match(name string) bool {
	normalized := filepath.ToSlash(name)

	if len(m.includes) > 0 {
		included := false
		for _, g := range m.includes {
			if g.Match(normalized) {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}

	for _, g := range m.excludes {
		if g.Match(normalized) {
			return false
		}
	}
	return true
}
