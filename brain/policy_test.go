package brain

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

func TestRetryPolicyValidate(t *testing.T) {
	tests := []struct {
		name    string
		policy  RetryPolicy
		wantErr bool
	}{
		{"single attempt is valid", RetryPolicy{MaxAttempts: 1}, false},
		{"typical policy", RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second}, false},
		{"zero attempts", RetryPolicy{MaxAttempts: 0}, true},
		{"negative attempts", RetryPolicy{MaxAttempts: -1}, true},
		{"max delay below base", RetryPolicy{MaxAttempts: 3, BaseDelay: 10 * time.Second, MaxDelay: time.Second}, true},
		{"no cap is valid", RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidRetryPolicy) {
				t.Errorf("expected ErrInvalidRetryPolicy, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	if isRetryable(errors.New("plain")) {
		t.Error("plain error should not be retryable")
	}
	if !isRetryable(&StageError{Message: "locked", Transient: true}) {
		t.Error("transient StageError should be retryable")
	}
	if isRetryable(&StageError{Message: "bad input", Transient: false}) {
		t.Error("permanent StageError should not be retryable")
	}
}

func TestComputeBackoff(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	base := 100 * time.Millisecond
	maxDelay := time.Second

	t.Run("zero base disables delay", func(t *testing.T) {
		if d := computeBackoff(3, 0, maxDelay, rng); d != 0 {
			t.Errorf("expected 0, got %v", d)
		}
	})

	t.Run("exponential growth with jitter", func(t *testing.T) {
		for attempt := 0; attempt < 3; attempt++ {
			d := computeBackoff(attempt, base, maxDelay, rng)
			lo := base * (1 << attempt)
			hi := lo + base
			if d < lo || d >= hi {
				t.Errorf("attempt %d: delay %v outside [%v, %v)", attempt, d, lo, hi)
			}
		}
	})

	t.Run("capped at max delay", func(t *testing.T) {
		d := computeBackoff(10, base, maxDelay, rng)
		if d < maxDelay || d >= maxDelay+base {
			t.Errorf("delay %v outside [%v, %v)", d, maxDelay, maxDelay+base)
		}
	})
}
