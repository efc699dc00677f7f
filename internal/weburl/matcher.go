package weburl

import "strings"

// Matcher decides whether a URL is excluded from crawling and link checks.
// A URL is excluded when it contains any configured exclusion URL or
// substring pattern.
type Matcher struct {
	urls     []string
	patterns []string
}

// NewMatcher creates a Matcher. Empty entries are ignored.
func NewMatcher(urls, patterns []string) *Matcher {
	return &Matcher{
		urls:     nonEmpty(urls),
		patterns: nonEmpty(patterns),
	}
}

// Match reports whether u is excluded.
func (m *Matcher) Match(u string) bool {
	if m == nil {
		return false
	}
	for _, excluded := range m.urls {
		if strings.Contains(u, excluded) {
			return true
		}
	}
	for _, pattern := range m.patterns {
		if strings.Contains(u, pattern) {
			return true
		}
	}
	return false
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
