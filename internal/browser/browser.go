package browser

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"
)

// ErrTimeout is wrapped by errors returned when a navigation or link status
// request exceeds its timeout.
var ErrTimeout = errors.New("timeout exceeded")

// Engine names accepted by New.
const (
	EnginePlaywright = "playwright"
	EngineStatic     = "static"
)

// DefaultUserAgent is sent by both engines unless overridden.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Response describes the outcome of a navigation.
type Response struct {
	// Status is the HTTP status of the main document, 0 if unknown.
	Status int

	// FinalURL is the document URL after redirects.
	FinalURL string

	// LoadTime is the navigation duration. Zero means unknown.
	LoadTime time.Duration
}

// Element is the subset of DOM element properties the audit reads.
type Element struct {
	// Href is the resolved absolute link target (the DOM href property).
	Href string

	// RawHref is the href attribute exactly as written in the markup.
	RawHref string

	// Text is the trimmed text content.
	Text string

	// Src is the resolved source URL of images.
	Src string

	// Alt is the alt attribute.
	Alt string

	// Content is the content attribute, used by meta elements.
	Content string
}

// Document is a read-only view of the currently loaded page.
type Document interface {
	// Title returns the document title.
	Title() (string, error)

	// QueryAll returns every element matching a CSS selector, in document order.
	QueryAll(selector string) ([]Element, error)

	// TextContent returns the text of the first element matching selector,
	// or an empty string when nothing matches.
	TextContent(selector string) (string, error)
}

// StatusChecker reports the HTTP status of a URL without navigating to it.
type StatusChecker interface {
	RequestStatus(ctx context.Context, url string, timeout time.Duration) (int, error)
}

// Browser loads pages and checks links.
type Browser interface {
	StatusChecker

	// Navigate loads url and returns its response and document.
	Navigate(ctx context.Context, url string, timeout time.Duration) (*Response, Document, error)

	// Close releases the engine.
	Close() error
}

// Options configures a browser engine.
type Options struct {
	// UserAgent overrides DefaultUserAgent.
	UserAgent string

	// Headers are sent with every request.
	Headers map[string]string

	// Headed shows the Chromium window. Ignored by the static engine.
	Headed bool

	// Logger receives engine diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// IsTimeout reports whether err is a navigation or request timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// New creates a browser for the named engine.
func New(engine string, opts Options) (Browser, error) {
	switch engine {
	case EngineStatic:
		return NewStatic(opts), nil
	case EnginePlaywright, "":
		return LaunchPlaywright(opts)
	default:
		return nil, &UnknownEngineError{Engine: engine}
	}
}

// UnknownEngineError is returned by New for an unsupported engine name.
type UnknownEngineError struct {
	Engine string
}

func (e *UnknownEngineError) Error() string {
	return "unknown browser engine: " + e.Engine
}
