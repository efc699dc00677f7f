// Package weburl canonicalizes and classifies the URLs handled by the crawler.
//
// Normalization is deliberately minimal: only the fragment is removed, so
// the canonical form stays recognisable in reports and matches what a
// browser reports as the document URL.
package weburl

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrMalformedURL is returned when an input cannot be parsed as a URL.
var ErrMalformedURL = errors.New("malformed URL")

// Normalize returns the canonical form of raw used for deduplication and
// graph keys. It strips any fragment. Normalize is idempotent.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty string", ErrMalformedURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrMalformedURL, raw, err)
	}
	if !u.IsAbs() || (u.Host == "" && u.Opaque == "") {
		return "", fmt.Errorf("%w: %q is not absolute", ErrMalformedURL, raw)
	}
	before, _, _ := strings.Cut(raw, "#")
	return before, nil
}

// Resolve resolves href against base following RFC 3986 reference
// resolution and strips the fragment of the result.
func Resolve(href, base string) (string, error) {
	baseURL, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("%w: base %q: %w", ErrMalformedURL, base, err)
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("%w: href %q: %w", ErrMalformedURL, href, err)
	}
	resolved := baseURL.ResolveReference(ref)
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved.String(), nil
}

// StripFragment removes the fragment from raw without validating it.
func StripFragment(raw string) string {
	before, _, _ := strings.Cut(raw, "#")
	return before
}

// Hostname returns the host of u without port. It returns an empty string
// when u cannot be parsed.
func Hostname(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}

// IsInternal reports whether u belongs to the site with the given hostname.
// Only the hostname is compared; scheme and port are ignored.
func IsInternal(u, siteHostname string) bool {
	host := Hostname(u)
	return host != "" && strings.EqualFold(host, siteHostname)
}

// IsHTTP reports whether u has an http or https scheme.
func IsHTTP(u string) bool {
	lower := strings.ToLower(strings.TrimSpace(u))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// IsTel reports whether u has a tel: scheme.
func IsTel(u string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(u)), "tel:")
}

// IsAbsolute reports whether href carries its own scheme.
func IsAbsolute(href string) bool {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return false
	}
	return u.IsAbs()
}
