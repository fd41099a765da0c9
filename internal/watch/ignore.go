package watch

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// IgnoreMatcher matches slash-separated paths relative to a watch root against glob patterns.
// A path is ignored when it, or any directory above it, matches a pattern.
type IgnoreMatcher struct {
	globs []glob.Glob
}

func NewIgnoreMatcher(patterns []string) (*IgnoreMatcher, error) {
	m := &IgnoreMatcher{}
	for _, p := range patterns {
		p = strings.Trim(strings.TrimSpace(p), "/")
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("compile ignore pattern %q: %w", p, err)
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

func (m *IgnoreMatcher) Match(rel string) bool {
	if m == nil || len(m.globs) == 0 || rel == "" {
		return false
	}
	prefix := ""
	for _, part := range strings.Split(rel, "/") {
		if prefix == "" {
			prefix = part
		} else {
			prefix += "/" + part
		}
		for _, g := range m.globs {
			if g.Match(prefix) {
				return true
			}
		}
	}
	return false
}
