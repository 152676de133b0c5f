package broker

import (
	"context"
	"fmt"
	"time"

	"subject-feed/src/logger"
)

// Backoff is a bounded exponential retry policy.
type Backoff struct {
	// Attempts is the total number of tries, including the first.
	Attempts int
	// Initial is the delay after the first failure.
	Initial time.Duration
	// Max caps every delay.
	Max time.Duration
}

// DefaultBackoff retries 8 times, doubling from 300ms up to 30s.
var DefaultBackoff = Backoff{
	Attempts: 8,
	Initial:  300 * time.Millisecond,
	Max:      30 * time.Second,
}

// Delay returns the wait after the given failed attempt (1-based).
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := b.Initial
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= b.Max {
			return b.Max
		}
	}
	if d > b.Max {
		return b.Max
	}
	return d
}

// retry runs fn until it succeeds, the attempts are used up, or ctx ends.
// Failures are wrapped in ErrConnectionFailure.
func retry(ctx context.Context, b Backoff, log logger.Logger, op string, fn func(ctx context.Context) error) error {
	attempts := b.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			if attempt > 1 {
				log.Info("[Broker] %s succeeded after %d attempts", op, attempt)
			}
			return nil
		}
		if attempt == attempts {
			break
		}

		delay := b.Delay(attempt)
		log.Warn("[Broker] %s failed (attempt %d/%d), retrying in %s: %v", op, attempt, attempts, delay, err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %s: %w", ErrConnectionFailure, op, ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("%w: %s failed after %d attempts: %w", ErrConnectionFailure, op, attempts, err)
}
