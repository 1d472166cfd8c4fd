package arbiter

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryPredicate wraps p so that predicate errors (typically transient I/O
// failures in predicates that consult an external system) are retried with
// exponential backoff before propagating. A false result is a decision, not
// a failure, and is returned immediately. After attempts tries the last
// error propagates. The engine itself never retries; this wrapper is opt-in
// per constraint.
func RetryPredicate(p Predicate, attempts int, baseInterval, maxInterval time.Duration) Predicate {
	return func(ctx context.Context, target any, extra ...any) (bool, error) {
		var failures int
		for {
			ok, err := p(ctx, target, extra...)
			if err == nil {
				return ok, nil
			}

			failures++
			if failures >= attempts {
				return false, err
			}
			wait := backoff(baseInterval, maxInterval, failures)

			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(wait):
			}
		}
	}
}

// backoff calculates the next backoff interval given consecutive failures.
// It uses exponential backoff with jitter, capped at maxInterval.
func backoff(baseInterval, maxInterval time.Duration, consecutiveFailures int) time.Duration {
	if consecutiveFailures <= 0 {
		return baseInterval
	}

	// Exponential: base * 2^failures
	multiplier := math.Pow(2, float64(consecutiveFailures))
	interval := time.Duration(float64(baseInterval) * multiplier)

	if interval > maxInterval {
		interval = maxInterval
	}

	// Add jitter: +/- 25% of the interval
	jitter := time.Duration(float64(interval) * 0.25 * (rand.Float64()*2 - 1))
	interval += jitter

	// Never go below the base interval
	if interval < baseInterval {
		interval = baseInterval
	}

	return interval
}
