package brain

import (
	"testing"
	"time"

	"github.com/neurolab/braincycle-go/brain/emit"
	"github.com/neurolab/braincycle-go/brain/store"
)

func TestNewWithOptions(t *testing.T) {
	st := store.NewMemStore[testState]()

	t.Run("applies options", func(t *testing.T) {
		e, err := NewWithOptions(testReducer, st, emit.NewNullEmitter(),
			WithMaxSteps(20),
			WithStageTimeout(60*time.Second),
			WithRetryPolicy(RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}),
		)
		if err != nil {
			t.Fatalf("NewWithOptions failed: %v", err)
		}
		if e.opts.MaxSteps != 20 {
			t.Errorf("MaxSteps = %d, want 20", e.opts.MaxSteps)
		}
		if e.opts.StageTimeout != 60*time.Second {
			t.Errorf("StageTimeout = %v, want 60s", e.opts.StageTimeout)
		}
		if e.opts.Retry.MaxAttempts != 3 {
			t.Errorf("Retry.MaxAttempts = %d, want 3", e.opts.Retry.MaxAttempts)
		}
	})

	t.Run("invalid retry policy fails construction", func(t *testing.T) {
		_, err := NewWithOptions(testReducer, st, emit.NewNullEmitter(),
			WithRetryPolicy(RetryPolicy{MaxAttempts: 0}),
		)
		if err == nil {
			t.Fatal("expected error for invalid retry policy")
		}
	})

	t.Run("no options gives zero defaults", func(t *testing.T) {
		e, err := NewWithOptions(testReducer, st, emit.NewNullEmitter())
		if err != nil {
			t.Fatalf("NewWithOptions failed: %v", err)
		}
		if e.opts.MaxSteps != 0 || e.opts.StageTimeout != 0 || e.opts.Metrics != nil {
			t.Errorf("expected zero-valued options, got %+v", e.opts)
		}
	})
}
