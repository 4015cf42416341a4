package tree

import (
	"strings"

	"golang.org/x/text/cases"
)

// HiddenMatcher decides which directory entries are left out of folder listings.
// Patterns are either an exact file name or "*.ext"; matching ignores case.
type HiddenMatcher struct {
	exact    map[string]struct{}
	suffixes []string
}

func NewHiddenMatcher(patterns []string) *HiddenMatcher {
	m := &HiddenMatcher{exact: make(map[string]struct{})}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if ext, ok := strings.CutPrefix(p, "*."); ok && ext != "" {
			m.suffixes = append(m.suffixes, "."+fold(ext))
			continue
		}
		m.exact[fold(p)] = struct{}{}
	}
	return m
}

// Match reports whether name is hidden.
func (m *HiddenMatcher) Match(name string) bool {
	if m == nil {
		return false
	}
	folded := fold(name)
	if _, ok := m.exact[folded]; ok {
		return true
	}
	for _, s := range m.suffixes {
		if strings.HasSuffix(folded, s) {
			return true
		}
	}
	return false
}

// fold uses a fresh Caser per call; Casers are not safe for concurrent use.
func fold(s string) string {
	return cases.Fold().String(s)
}
