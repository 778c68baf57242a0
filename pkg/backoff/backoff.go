// Package backoff retries operations with capped exponential backoff.
// Whether an error is worth retrying is decided by an explicit caller
// predicate, never inferred from error text.
package backoff

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// Policy bounds a retry loop.
type Policy struct {
	// MaxAttempts is the total number of tries, first attempt included.
	MaxAttempts int
	// BaseDelay is the wait before the second attempt.
	BaseDelay time.Duration
	// MaxDelay caps the exponentially growing wait.
	MaxDelay time.Duration
	// Multiplier scales the wait after each failed attempt.
	Multiplier float64
	// Jitter spreads each wait by up to +/-10 percent.
	Jitter bool
}

// DefaultPolicy returns the policy used for repository plumbing calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
		Multiplier:  2.0,
		Jitter:      true,
	}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	if p.BaseDelay <= 0 {
		p.BaseDelay = 500 * time.Millisecond
	}

	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}

	if p.Multiplier < 1 {
		p.Multiplier = 2.0
	}

	return p
}

// delay computes the wait after the given zero-based failed attempt.
func (p Policy) delay(attempt int) time.Duration {
	d := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt))

	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}

	if p.Jitter {
		d += (rand.Float64() - 0.5) * 0.2 * d

		if d < 0 {
			d = float64(p.BaseDelay)
		}
	}

	return time.Duration(d)
}

// Do runs fn until it succeeds, the policy is exhausted, a non-retryable
// error occurs, or ctx is cancelled. retryable classifies errors; a nil
// predicate disables retries entirely. The wait between attempts honors
// ctx cancellation. When the policy is exhausted the last error is
// returned wrapped with the attempt count.
func Do(ctx context.Context, p Policy, retryable func(error) bool, fn func(context.Context) error) error {
	p = p.normalized()

	var lastErr error

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if retryable == nil || !retryable(lastErr) {
			return lastErr
		}

		if attempt == p.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.delay(attempt)):
		}
	}

	return fmt.Errorf("%d attempts: %w", p.MaxAttempts, lastErr)
}
