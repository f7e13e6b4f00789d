package brain

import (
	"math/rand"
	"time"
)

// RetryPolicy controls how transient stage failures are retried.
//
// A stage error is considered transient when it implements
// Retryable() bool and returns true (see StageError). Permanent errors
// halt the run on the first failure.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// 1 means no retries.
	MaxAttempts int

	// BaseDelay is the base delay for exponential backoff.
	BaseDelay time.Duration

	// MaxDelay caps the exponential growth. Zero means no cap.
	MaxDelay time.Duration
}

// Retryable classifies errors that are worth retrying.
//
// Stage implementations can return errors implementing this interface to
// opt in to retries under the engine's RetryPolicy.
type Retryable interface {
	Retryable() bool
}

// Validate checks if the RetryPolicy configuration is valid:
//   - MaxAttempts must be >= 1 (1 means no retries, just the initial attempt)
//   - If both MaxDelay and BaseDelay are > 0, MaxDelay must be >= BaseDelay
func (rp *RetryPolicy) Validate() error {
	if rp.MaxAttempts < 1 {
		return ErrInvalidRetryPolicy
	}
	if rp.MaxDelay > 0 && rp.BaseDelay > 0 && rp.MaxDelay < rp.BaseDelay {
		return ErrInvalidRetryPolicy
	}
	return nil
}

// isRetryable reports whether err opts in to retries.
func isRetryable(err error) bool {
	r, ok := err.(Retryable)
	return ok && r.Retryable()
}

// computeBackoff calculates the delay before the given retry attempt.
//
// Delay is base * 2^attempt, capped at maxDelay, plus a random jitter in
// [0, base) to avoid synchronized retries.
//
// Example delays with base=1s, maxDelay=30s:
//   - attempt 0: 1s + jitter
//   - attempt 1: 2s + jitter
//   - attempt 2: 4s + jitter
//   - attempt 10: 30s + jitter (capped)
func computeBackoff(attempt int, base, maxDelay time.Duration, rng *rand.Rand) time.Duration {
	if base <= 0 {
		return 0
	}

	exponentialDelay := base * (1 << attempt)
	if maxDelay > 0 && exponentialDelay > maxDelay {
		exponentialDelay = maxDelay
	}

	var jitter time.Duration
	if rng != nil {
		jitter = time.Duration(rng.Int63n(int64(base)))
	} else {
		// Note: math/rand jitter for retry timing, not security-sensitive
		jitter = time.Duration(rand.Int63n(int64(base))) // #nosec G404
	}

	return exponentialDelay + jitter
}
