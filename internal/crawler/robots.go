package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/temoto/robotstxt"
)

// Robots is the robots.txt rule group that applies to the crawler's user agent.
// A nil *Robots allows everything.
type Robots struct {
	group *robotstxt.Group
}

// LoadRobots fetches /robots.txt of siteURL. A missing file (4xx) allows
// everything; a server error (5xx) disallows everything.
func LoadRobots(ctx context.Context, client *http.Client, siteURL, userAgent string) (*Robots, error) {
	u, err := url.Parse(siteURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse site URL: %w", err)
	}
	robotsURL := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/robots.txt"}).String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create robots.txt request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", robotsURL, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best effort

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", robotsURL, err)
	}
	return &Robots{group: data.FindGroup(userAgent)}, nil
}

// ParseRobots parses robots.txt content for userAgent.
func ParseRobots(content, userAgent string) (*Robots, error) {
	data, err := robotstxt.FromString(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse robots.txt: %w", err)
	}
	return &Robots{group: data.FindGroup(userAgent)}, nil
}

// Allowed reports whether rawURL may be crawled.
func (r *Robots) Allowed(rawURL string) bool {
	if r == nil || r.group == nil {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return r.group.Test(path)
}
