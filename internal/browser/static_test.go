package browser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testPage = `<!DOCTYPE html>
<html><head>
<title>  Example
  Page </title>
<meta name="description" content="An example page">
</head><body>
<nav><a href="/about">About</a></nav>
<h1>Hello</h1>
<p>Welcome</p>
<a href="https://example.org/ext#frag"> External </a>
<a href="contact.html">Contact</a>
<a href="http://[::1">Broken</a>
<img src="/logo.png" alt="Logo">
<img src="/spacer.gif">
</body></html>`

// newTestServer serves a small site used by the static browser tests.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(testPage))
	})
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	mux.HandleFunc("/nohead", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/file.pdf", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 <a href=\"/x\">x</a>"))
	})
	mux.HandleFunc("/headers", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<title>" + r.Header.Get("X-Audit") + "|" + r.Header.Get("User-Agent") + "</title>"))
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

// TestStaticNavigate tests document loading and DOM queries.
func TestStaticNavigate(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	b := NewStatic(Options{})

	resp, doc, err := b.Navigate(context.Background(), ts.URL+"/", 5*time.Second)
	if err != nil {
		t.Fatalf("navigate failed: %v", err)
	}

	t.Run("response", func(t *testing.T) {
		t.Parallel()
		if resp.Status != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.Status)
		}
		if resp.FinalURL != ts.URL+"/" {
			t.Errorf("unexpected final url %q", resp.FinalURL)
		}
		if resp.LoadTime <= 0 {
			t.Error("expected positive load time")
		}
	})

	t.Run("title is whitespace collapsed", func(t *testing.T) {
		t.Parallel()
		title, err := doc.Title()
		if err != nil {
			t.Fatal(err)
		}
		if title != "Example Page" {
			t.Errorf("got %q", title)
		}
	})

	t.Run("links are resolved", func(t *testing.T) {
		t.Parallel()
		links, err := doc.QueryAll("a[href]")
		if err != nil {
			t.Fatal(err)
		}
		if len(links) != 4 {
			t.Fatalf("expected 4 links, got %d", len(links))
		}
		if links[0].Href != ts.URL+"/about" || links[0].RawHref != "/about" || links[0].Text != "About" {
			t.Errorf("unexpected first link: %+v", links[0])
		}
		if links[1].Href != "https://example.org/ext" || links[1].Text != "External" {
			t.Errorf("unexpected second link: %+v", links[1])
		}
		if links[2].Href != ts.URL+"/contact.html" {
			t.Errorf("unexpected third link: %+v", links[2])
		}
		if links[3].Href != "" || links[3].RawHref != "http://[::1" {
			t.Errorf("malformed href must resolve to nothing: %+v", links[3])
		}
	})

	t.Run("nav selector", func(t *testing.T) {
		t.Parallel()
		nav, err := doc.QueryAll("nav a[href]")
		if err != nil {
			t.Fatal(err)
		}
		if len(nav) != 1 {
			t.Errorf("expected 1 nav link, got %d", len(nav))
		}
	})

	t.Run("images and meta", func(t *testing.T) {
		t.Parallel()
		imgs, err := doc.QueryAll("img")
		if err != nil {
			t.Fatal(err)
		}
		if len(imgs) != 2 || imgs[0].Alt != "Logo" || imgs[1].Alt != "" || imgs[1].Src != ts.URL+"/spacer.gif" {
			t.Errorf("unexpected images: %+v", imgs)
		}
		meta, err := doc.QueryAll(`meta[name="description"]`)
		if err != nil {
			t.Fatal(err)
		}
		if len(meta) != 1 || meta[0].Content != "An example page" {
			t.Errorf("unexpected meta: %+v", meta)
		}
	})

	t.Run("text content", func(t *testing.T) {
		t.Parallel()
		body, err := doc.TextContent("body")
		if err != nil {
			t.Fatal(err)
		}
		if body == "" {
			t.Error("expected body text")
		}
		missing, err := doc.TextContent("article")
		if err != nil || missing != "" {
			t.Errorf("expected empty text for missing element, got %q, %v", missing, err)
		}
	})

	t.Run("invalid selector", func(t *testing.T) {
		t.Parallel()
		if _, err := doc.QueryAll("a[href"); err == nil {
			t.Error("expected error for invalid selector")
		}
	})
}

// TestStaticRedirect tests that the final URL follows redirects.
func TestStaticRedirect(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	resp, _, err := NewStatic(Options{}).Navigate(context.Background(), ts.URL+"/old", 5*time.Second)
	if err != nil {
		t.Fatalf("navigate failed: %v", err)
	}
	if resp.FinalURL != ts.URL+"/" {
		t.Errorf("expected final url %q, got %q", ts.URL+"/", resp.FinalURL)
	}
}

// TestStaticTimeout tests that exceeding the timeout yields ErrTimeout.
func TestStaticTimeout(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	_, _, err := NewStatic(Options{}).Navigate(context.Background(), ts.URL+"/slow", 50*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if !IsTimeout(err) {
		t.Error("expected IsTimeout to be true")
	}
}

// TestStaticCancelled tests that parent cancellation is not reported as a timeout.
func TestStaticCancelled(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewStatic(Options{}).Navigate(ctx, ts.URL+"/", time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if IsTimeout(err) {
		t.Error("cancellation must not be classified as a timeout")
	}
}

// TestStaticNonHTML tests that non-markup bodies yield an empty document.
func TestStaticNonHTML(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	_, doc, err := NewStatic(Options{}).Navigate(context.Background(), ts.URL+"/file.pdf", 5*time.Second)
	if err != nil {
		t.Fatalf("navigate failed: %v", err)
	}
	links, err := doc.QueryAll("a[href]")
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 0 {
		t.Errorf("expected no links in a PDF, got %d", len(links))
	}
}

// TestStaticHeaders tests that the user agent and extra headers are sent.
func TestStaticHeaders(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	b := NewStatic(Options{UserAgent: "siteaudit-test", Headers: map[string]string{"X-Audit": "yes"}})
	_, doc, err := b.Navigate(context.Background(), ts.URL+"/headers", 5*time.Second)
	if err != nil {
		t.Fatalf("navigate failed: %v", err)
	}
	title, _ := doc.Title()
	if title != "yes|siteaudit-test" {
		t.Errorf("unexpected headers echo %q", title)
	}
}

// TestStaticRequestStatus tests link status checks.
func TestStaticRequestStatus(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	b := NewStatic(Options{})
	defer b.Close()

	testCases := []struct {
		path     string
		expected int
	}{
		{"/", http.StatusOK},
		{"/missing", http.StatusNotFound},
		{"/nohead", http.StatusOK},
		{"/old", http.StatusOK},
	}
	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			t.Parallel()
			status, err := b.RequestStatus(context.Background(), ts.URL+tc.path, 5*time.Second)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if status != tc.expected {
				t.Errorf("expected %d, got %d", tc.expected, status)
			}
		})
	}

	t.Run("unreachable host", func(t *testing.T) {
		t.Parallel()
		_, err := b.RequestStatus(context.Background(), "http://127.0.0.1:1/", time.Second)
		if err == nil {
			t.Error("expected connection error")
		}
	})
}

// TestNew tests engine selection.
func TestNew(t *testing.T) {
	t.Parallel()

	b, err := New(EngineStatic, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := b.(*Static); !ok {
		t.Errorf("expected *Static, got %T", b)
	}

	var unknown *UnknownEngineError
	if _, err := New("lynx", Options{}); !errors.As(err, &unknown) {
		t.Errorf("expected UnknownEngineError, got %v", err)
	}
}
