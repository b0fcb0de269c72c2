// Package exclusion decides which files and directories are skipped during
// a backup, based on glob patterns matched against a path's base name.
package exclusion

import (
	"path"
	"path/filepath"
	"strings"
)

// Filter matches path base names against an ordered list of glob patterns.
//
// Matches are memoized positively: once an input is known to be excluded it
// is answered from the cache, keyed by the exact input string. Negative
// results are recomputed on every call, which keeps the cache bounded by the
// number of excluded items rather than the number of files walked.
type Filter struct {
	patterns []string
	cache    map[string]struct{}
}

// NewFilter builds a Filter from the given patterns.
func NewFilter(patterns []string) *Filter {
	f := &Filter{cache: make(map[string]struct{})}
	f.AddPatterns(patterns)
	return f
}

// AddPattern appends a pattern. Empty and duplicate patterns are ignored.
// Any cached decision is invalidated, since it may depend on the old set.
func (f *Filter) AddPattern(pattern string) {
	if pattern == "" {
		return
	}
	for _, p := range f.patterns {
		if p == pattern {
			return
		}
	}
	f.patterns = append(f.patterns, pattern)
	f.ClearCache()
}

// AddPatterns appends multiple patterns.
func (f *Filter) AddPatterns(patterns []string) {
	for _, p := range patterns {
		f.AddPattern(p)
	}
}

// RemovePattern removes a pattern if present and invalidates the cache.
func (f *Filter) RemovePattern(pattern string) {
	for i, p := range f.patterns {
		if p == pattern {
			f.patterns = append(f.patterns[:i], f.patterns[i+1:]...)
			f.ClearCache()
			return
		}
	}
}

// ShouldExclude reports whether input should be skipped. Only the final
// path component is tested against the patterns; input may be a bare name
// or a longer path.
func (f *Filter) ShouldExclude(input string) bool {
	if _, ok := f.cache[input]; ok {
		return true
	}

	name := filepath.Base(input)
	for _, pattern := range f.patterns {
		// Malformed patterns never match, same as an fnmatch miss.
		if ok, err := path.Match(normalizePattern(pattern), name); err == nil && ok {
			f.cache[input] = struct{}{}
			return true
		}
	}
	return false
}

// normalizePattern rewrites shell-style negated character classes
// ("[!abc]") to the "[^abc]" form path.Match understands.
func normalizePattern(pattern string) string {
	return strings.ReplaceAll(pattern, "[!", "[^")
}

// FilterPaths returns paths with every excluded entry removed.
func (f *Filter) FilterPaths(paths []string) []string {
	kept := make([]string, 0, len(paths))
	for _, p := range paths {
		if !f.ShouldExclude(p) {
			kept = append(kept, p)
		}
	}
	return kept
}

// Patterns returns a copy of the active pattern list.
func (f *Filter) Patterns() []string {
	out := make([]string, len(f.patterns))
	copy(out, f.patterns)
	return out
}

// Len returns the number of active patterns.
func (f *Filter) Len() int {
	return len(f.patterns)
}

// ClearCache drops all memoized decisions.
func (f *Filter) ClearCache() {
	f.cache = make(map[string]struct{})
}
