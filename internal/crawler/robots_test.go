package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestRobotsAllowed tests path matching against robots.txt rules.
func TestRobotsAllowed(t *testing.T) {
	t.Parallel()

	robots, err := ParseRobots("User-agent: *\nDisallow: /admin\nDisallow: /tmp/\n", "siteaudit")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		url      string
		expected bool
	}{
		{"https://example.com/", true},
		{"https://example.com", true},
		{"https://example.com/admin/users", false},
		{"https://example.com/tmp/file?x=1", false},
		{"https://example.com/blog", true},
	}
	for _, tc := range tests {
		if got := robots.Allowed(tc.url); got != tc.expected {
			t.Errorf("Allowed(%q) = %v, expected %v", tc.url, got, tc.expected)
		}
	}

	var nilRobots *Robots
	if !nilRobots.Allowed("https://example.com/admin") {
		t.Error("nil robots must allow everything")
	}
}

// TestLoadRobots tests fetching robots.txt over HTTP.
func TestLoadRobots(t *testing.T) {
	t.Parallel()

	t.Run("served file", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/robots.txt" {
				http.NotFound(w, r)
				return
			}
			fmt.Fprint(w, "User-agent: *\nDisallow: /private\n")
		}))
		defer server.Close()

		robots, err := LoadRobots(context.Background(), server.Client(), server.URL+"/some/page", "siteaudit")
		if err != nil {
			t.Fatal(err)
		}
		if robots.Allowed(server.URL + "/private/page") {
			t.Error("expected /private to be disallowed")
		}
	})

	t.Run("missing file allows all", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		robots, err := LoadRobots(context.Background(), server.Client(), server.URL, "siteaudit")
		if err != nil {
			t.Fatal(err)
		}
		if !robots.Allowed(server.URL + "/private") {
			t.Error("expected everything to be allowed")
		}
	})
}
