package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration. Callers use
// errors.Is() to tell them apart.
var (
	// ErrNoStartURL is returned when neither the config file nor the command
	// line provides a start URL.
	ErrNoStartURL = errors.New("no start URL specified: set startUrl or pass it as an argument")

	// ErrInvalidStartURL is returned when the start URL is not an absolute http(s) URL.
	ErrInvalidStartURL = errors.New("invalid start URL: must be an absolute http or https URL")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidDepth is returned when the maximum depth is negative.
	ErrInvalidDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidMaxPages is returned when the page limit is negative.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidCrawlDelay is returned when the request delay is negative.
	// Use 0 for no delay between navigations.
	ErrInvalidCrawlDelay = errors.New("invalid request delay: must be non-negative")

	// ErrInvalidRetry is returned when retry attempts are below 1 or the delay is negative.
	ErrInvalidRetry = errors.New("invalid retry settings: attempts must be at least 1 and delay non-negative")

	// ErrInvalidEngine is returned for an unknown browser engine.
	ErrInvalidEngine = errors.New("invalid engine: must be playwright or static")

	// ErrInvalidOrder is returned for an unknown crawl order.
	ErrInvalidOrder = errors.New("invalid crawl order: must be depth-first or breadth-first")

	// ErrInvalidFormat is returned for an unknown report format.
	ErrInvalidFormat = errors.New("invalid report format: must be json, graph, csv, html or markdown")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
