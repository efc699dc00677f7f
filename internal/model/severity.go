package model

import (
	"fmt"
	"strings"
)

// Severity represents how urgent an audit issue is. Severities order from
// low to high; the text form ("low", "medium", "high") is what every report
// artifact carries.
type Severity int

const (
	// SeverityLow indicates cosmetic or best-practice issues.
	// Examples: overlong meta description, absolute internal links, placeholder text.
	SeverityLow Severity = iota

	// SeverityMedium indicates issues that degrade the page for users or search engines.
	// Examples: missing title, missing alt text, slow page load, malformed tel: links.
	SeverityMedium

	// SeverityHigh indicates issues that break the page or its navigation.
	// Examples: HTTP errors, broken links, pages that fail to load.
	SeverityHigh
)

// Severities lists every severity from most to least urgent.
var Severities = []Severity{SeverityHigh, SeverityMedium, SeverityLow}

// String returns the lower-case name of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParseSeverity converts a severity name to a Severity. Matching is case-insensitive.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	default:
		return SeverityLow, fmt.Errorf("unknown severity %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalCSV implements gocsv.TypeMarshaller.
func (s Severity) MarshalCSV() (string, error) {
	return s.String(), nil
}
