package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/siteaudit/internal/model"
)

// Check is one issue detector. Implementations may hold their own
// thresholds and matchers.
type Check interface {
	// Inspect examines the page and returns the issues it found.
	// An error means the check could not complete; issues returned
	// alongside it are still recorded.
	Inspect(ctx context.Context, page *Page) ([]model.Issue, error)

	// Name returns the check's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple checks.
type Pipeline struct {
	// checks contains the ordered list of checks to execute.
	checks []Check

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing checks
	// after one fails. If false, Run stops on the first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a check fails. Failed checks are logged as warnings and
// subsequent checks still execute.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
// Checks should be added using AddCheck after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		checks:          make([]Check, 0),
		continueOnError: false,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddCheck appends a check to the pipeline.
// Checks are executed in the order they are added.
func (p *Pipeline) AddCheck(check Check) {
	p.checks = append(p.checks, check)
}

// AddChecks appends multiple checks to the pipeline.
func (p *Pipeline) AddChecks(checks ...Check) {
	p.checks = append(p.checks, checks...)
}

// Run executes all checks on page in sequence and returns the collected
// issues in detection order.
//
// Context cancellation is checked before each check; a cancelled context
// returns the issues collected so far together with ctx.Err().
func (p *Pipeline) Run(ctx context.Context, page *Page) ([]model.Issue, error) {
	var issues []model.Issue

	for _, check := range p.checks {
		select {
		case <-ctx.Done():
			p.logger.Debug("pipeline cancelled",
				"check", check.Name(),
				"page", page.URL,
			)
			return issues, ctx.Err()
		default:
		}

		found, err := check.Inspect(ctx, page)
		issues = append(issues, found...)

		if err != nil {
			if ctx.Err() != nil {
				return issues, ctx.Err()
			}
			p.logger.Warn("check failed",
				"check", check.Name(),
				"page", page.URL,
				"error", err,
			)
			if !p.continueOnError {
				return issues, err
			}
			continue
		}

		p.logger.Debug("check completed",
			"check", check.Name(),
			"page", page.URL,
			"issues", len(found),
		)
	}

	return issues, nil
}

// CheckCount returns the number of checks in the pipeline.
func (p *Pipeline) CheckCount() int {
	return len(p.checks)
}

// CheckNames returns the names of all checks in execution order.
func (p *Pipeline) CheckNames() []string {
	names := make([]string, len(p.checks))
	for i, check := range p.checks {
		names[i] = check.Name()
	}
	return names
}
