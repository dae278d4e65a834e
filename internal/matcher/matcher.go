// Package matcher evaluates exclude-pattern glob rules against candidate
// repository paths. Matching is pure and parallel-safe: a RuleSet is
// immutable after construction and Matches has no side effects.
package matcher

import (
	"fmt"
	"path"
	"strings"
)

// RuleSet is an ordered set of normalized glob patterns. A path is
// excluded if any pattern matches; insertion order does not affect the
// outcome, only which rule reports the match first.
//
// Pattern dialect:
//   - '*' matches any run of characters except '/'
//   - a pattern without '/' is anchored to the final path segment, so
//     "*.log" matches both "a.log" and "dir/a.log" but not "a.log.bak"
//   - a trailing "/*" means anything strictly under that directory
//   - everything else matches the full relative path, segment-aligned
//
// Matching is case-sensitive.
type RuleSet struct {
	patterns []string
}

// New builds a RuleSet from the given patterns. Patterns are normalized
// to forward-slash, relative-path form; malformed globs are rejected up
// front so Matches never has to report an error.
func New(patterns ...string) (*RuleSet, error) {
	rs := &RuleSet{patterns: make([]string, 0, len(patterns))}
	for _, p := range patterns {
		p = NormalizePath(p)
		if p == "" {
			continue
		}
		if _, err := path.Match(strings.TrimSuffix(p, "/*"), ""); err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		rs.patterns = append(rs.patterns, p)
	}
	return rs, nil
}

// MustNew is New for static pattern lists known to be well-formed.
func MustNew(patterns ...string) *RuleSet {
	rs, err := New(patterns...)
	if err != nil {
		panic(err)
	}
	return rs
}

// Matches reports whether relPath is excluded by any rule. relPath must
// be relative to the repository root; it is normalized before matching.
// An empty RuleSet matches nothing.
func (rs *RuleSet) Matches(relPath string) bool {
	relPath = NormalizePath(relPath)
	for _, p := range rs.patterns {
		if matchOne(p, relPath) {
			return true
		}
	}
	return false
}

// Len returns the number of rules in the set.
func (rs *RuleSet) Len() int { return len(rs.patterns) }

// Patterns returns a copy of the normalized pattern list.
func (rs *RuleSet) Patterns() []string {
	out := make([]string, len(rs.patterns))
	copy(out, rs.patterns)
	return out
}

func matchOne(pattern, relPath string) bool {
	if dir, ok := strings.CutSuffix(pattern, "/*"); ok {
		return underDirectory(dir, relPath)
	}
	if !strings.Contains(pattern, "/") {
		base := relPath
		if i := strings.LastIndexByte(relPath, '/'); i >= 0 {
			base = relPath[i+1:]
		}
		ok, _ := path.Match(pattern, base)
		return ok
	}
	// path.Match never lets '*' cross a '/', which keeps full-path
	// patterns segment-aligned.
	ok, _ := path.Match(pattern, relPath)
	return ok
}

// underDirectory reports whether relPath lies strictly below a directory
// matching dirPattern. The directory part may itself contain globs.
func underDirectory(dirPattern, relPath string) bool {
	want := strings.Split(dirPattern, "/")
	have := strings.Split(relPath, "/")
	if len(have) <= len(want) {
		return false
	}
	for i, seg := range want {
		ok, err := path.Match(seg, have[i])
		if err != nil || !ok {
			return false
		}
	}
	return true
}

// NormalizePath converts a path or pattern to forward-slash relative form:
// backslashes become slashes, leading "./" and "/" are stripped, and
// trailing slashes are dropped.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")
	if p != "" && strings.HasSuffix(p, "/") && !strings.HasSuffix(p, "/*") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
