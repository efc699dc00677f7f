// Package retry re-runs network-sensitive operations with a fixed delay
// between attempts.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultMaxAttempts is the total number of attempts, including the first.
	DefaultMaxAttempts = 3

	// DefaultDelay is the wait between two attempts.
	DefaultDelay = 2 * time.Second
)

// Policy configures how an operation is retried.
type Policy struct {
	// MaxAttempts is the total number of attempts. Values below 1 mean one attempt.
	MaxAttempts int

	// Delay is the fixed wait between attempts.
	Delay time.Duration
}

// DefaultPolicy returns 3 attempts with a 2 second delay.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		Delay:       DefaultDelay,
	}
}

// NotifyFunc is called after a failed attempt that will be retried.
// attempt is the 1-based number of the attempt that failed.
type NotifyFunc func(attempt int, err error, wait time.Duration)

// Do runs op until it succeeds or the policy's attempts are exhausted.
//
// The error of the last failed attempt is returned as is, without wrapping,
// so callers can classify it with errors.Is / errors.As. An error wrapped
// with backoff.Permanent stops retrying immediately and its inner error is
// returned. If ctx is cancelled while waiting, ctx.Err() is returned.
func Do[T any](ctx context.Context, p Policy, op func() (T, error), notify NotifyFunc) (T, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), uint64(attempts-1)), //nolint:gosec // attempts is at least 1
		ctx,
	)

	attempt := 0
	return backoff.RetryNotifyWithData(func() (T, error) {
		attempt++
		return op()
	}, b, func(err error, wait time.Duration) {
		if notify != nil {
			notify(attempt, err, wait)
		}
	})
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
