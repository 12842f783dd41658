// Package glob matches file paths against the glob pattern lists used by
// step configuration: a plain pattern (no leading "!") includes matching
// paths, a pattern beginning with "!" excludes previously-matched paths.
package glob

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dlclark/regexp2"
)

// Matcher compiles a list of glob patterns once and matches many files
// against it. Most steps reuse the same pattern list across every job in a
// run, so the compiled form avoids repeated pattern parsing.
type Matcher struct {
	includes []string
	excludes []string
	// exclRe is allocated by New but not consulted by Match: includes and
	// excludes are both matched with doublestar.
	exclRe map[string]*regexp2.Regexp
}

// New compiles a glob matcher from a pattern list. Patterns prefixed with
// "!" exclude; all others include. An empty pattern list matches everything.
func New(patterns []string) (*Matcher, error) {
	m := &Matcher{exclRe: map[string]*regexp2.Regexp{}}
	for _, p := range patterns {
		if strings.HasPrefix(p, "!") {
			m.excludes = append(m.excludes, strings.TrimPrefix(p, "!"))
		} else {
			m.includes = append(m.includes, p)
		}
	}
	for _, p := range m.includes {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("glob: invalid pattern %q", p)
		}
	}
	for _, p := range m.excludes {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("glob: invalid exclude pattern %q", p)
		}
	}
	return m, nil
}

// Match reports whether path matches the compiled pattern list: it must
// match at least one include (or there must be no includes at all) and no
// exclude.
func (m *Matcher) Match(path string) bool {
	path = filepath.ToSlash(path)
	base := filepath.Base(path)
	if len(m.includes) > 0 && !m.matchesAny(m.includes, path, base) {
		return false
	}
	if m.matchesAny(m.excludes, path, base) {
		return false
	}
	return true
}

func (m *Matcher) matchesAny(patterns []string, path, base string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, base); ok {
			return true
		}
	}
	return false
}

// Matches filters files to those matching the pattern list. It mirrors
// original_source/src/glob.rs's get_matches, which runs the same pattern
// list against an explicit file slice rather than walking the filesystem.
func Matches(patterns []string, files []string) ([]string, error) {
	m, err := New(patterns)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(files))
	for _, f := range files {
		if m.Match(f) {
			out = append(out, f)
		}
	}
	return out, nil
}

// ExcludeLookahead compiles pattern as a regexp2 regular expression (whose
// backtracking engine supports negative lookahead, unlike doublestar's glob
// syntax) and reports whether the slash-separated path matches it.
func ExcludeLookahead(pattern, path string) (bool, error) {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return false, fmt.Errorf("glob: compiling lookahead pattern %q: %w", pattern, err)
	}
	ok, err := re.MatchString(filepath.ToSlash(path))
	if err != nil {
		return false, fmt.Errorf("glob: matching lookahead pattern %q: %w", pattern, err)
	}
	return ok, nil
}
