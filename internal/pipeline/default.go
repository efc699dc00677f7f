package pipeline

import (
	"log/slog"
	"time"

	"github.com/nao1215/siteaudit/internal/browser"
	"github.com/nao1215/siteaudit/internal/retry"
	"github.com/nao1215/siteaudit/internal/weburl"
)

// Checks switches the individual checks on and off.
type Checks struct {
	Title        bool
	HTTPStatus   bool
	SEO          bool
	Placeholders bool
	Links        bool
	Performance  bool
	Images       bool
	TelLinks     bool
}

// AllChecks returns Checks with every check enabled.
func AllChecks() Checks {
	return Checks{
		Title:        true,
		HTTPStatus:   true,
		SEO:          true,
		Placeholders: true,
		Links:        true,
		Performance:  true,
		Images:       true,
		TelLinks:     true,
	}
}

// Settings holds everything DefaultPipeline needs to build the checks.
type Settings struct {
	Checks            Checks
	Placeholders      []string
	TelCountryCodes   []string
	SlowPageThreshold time.Duration
	LinkTimeout       time.Duration
	Retry             retry.Policy
	Exclusions        *weburl.Matcher
	Logger            *slog.Logger
}

// DefaultPipeline creates a pipeline with the enabled checks in their
// fixed order: title, http-status, seo, placeholders, performance, images,
// tel-links, links.
func DefaultPipeline(s Settings, checker browser.StatusChecker, opts ...Option) *Pipeline {
	if s.Logger != nil {
		opts = append([]Option{WithLogger(s.Logger)}, opts...)
	}
	p := New(opts...)

	if s.Checks.Title {
		p.AddCheck(TitleCheck{})
	}
	if s.Checks.HTTPStatus {
		p.AddCheck(StatusCheck{})
	}
	if s.Checks.SEO {
		p.AddCheck(SEOCheck{})
	}
	if s.Checks.Placeholders {
		p.AddCheck(NewPlaceholderCheck(s.Placeholders))
	}
	if s.Checks.Performance {
		p.AddCheck(NewPerformanceCheck(s.SlowPageThreshold))
	}
	if s.Checks.Images {
		p.AddCheck(ImageCheck{})
	}
	if s.Checks.TelLinks {
		p.AddCheck(NewTelCheck(s.TelCountryCodes))
	}
	if s.Checks.Links {
		linkOpts := []LinkCheckOption{
			WithLinkRetry(s.Retry),
			WithLinkExclusions(s.Exclusions),
		}
		if s.LinkTimeout > 0 {
			linkOpts = append(linkOpts, WithLinkTimeout(s.LinkTimeout))
		}
		if s.Logger != nil {
			linkOpts = append(linkOpts, WithLinkLogger(s.Logger))
		}
		p.AddCheck(NewLinkCheck(checker, linkOpts...))
	}

	return p
}
