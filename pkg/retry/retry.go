// Package retry provides a generic retry combinator for external calls.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Backoff returns the delay to wait after the given failed attempt (1-based)
type Backoff func(attempt int) time.Duration

// Policy controls how an operation is retried
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first one
	MaxAttempts int

	// Backoff computes the delay between attempts. Nil means no delay.
	Backoff Backoff

	// Retryable decides whether an error is worth another attempt.
	// Nil means every error is retried.
	Retryable func(error) bool

	// OnRetry is called before sleeping for the next attempt
	OnRetry func(attempt int, delay time.Duration, err error)
}

// ExponentialBackoff doubles base after every attempt, capped at max.
// A zero max disables the cap. A zero base means no delay.
func ExponentialBackoff(base, max time.Duration) Backoff {
	return func(attempt int) time.Duration {
		if base <= 0 {
			return 0
		}
		d := base
		for i := 1; i < attempt; i++ {
			if d > math.MaxInt64/2 {
				d = math.MaxInt64
				break
			}
			d *= 2
		}
		if max > 0 && d > max {
			return max
		}
		return d
	}
}

// Do runs op until it succeeds, returns a non-retryable error, or the attempts
// run out. The last error is returned wrapped with the attempt count.
func Do[T any](ctx context.Context, policy Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if policy.Retryable != nil && !policy.Retryable(err) {
			return zero, err
		}
		if attempt == attempts {
			break
		}

		var delay time.Duration
		if policy.Backoff != nil {
			delay = policy.Backoff(attempt)
		}
		if policy.OnRetry != nil {
			policy.OnRetry(attempt, delay, err)
		}

		if err := sleep(ctx, delay); err != nil {
			return zero, fmt.Errorf("retry aborted after %d attempts: %w", attempt, lastErr)
		}
	}

	return zero, fmt.Errorf("giving up after %d attempts: %w", attempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
