package store

import (
	"context"
	"errors"
	"testing"
)

// analysisState is a minimal JSON-serializable state used across store tests.
type analysisState struct {
	Dataset string   `json:"dataset"`
	Cycles  int      `json:"cycles"`
	Hubs    []string `json:"hubs"`
}

// runStoreContract exercises the Store[S] behavior shared by all backends.
func runStoreContract(t *testing.T, st Store[analysisState]) {
	t.Helper()
	ctx := context.Background()

	t.Run("load latest on unknown run returns ErrNotFound", func(t *testing.T) {
		_, _, err := st.LoadLatest(ctx, "no-such-run")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("save and load latest", func(t *testing.T) {
		if err := st.SaveStep(ctx, "run-001", 1, "process", analysisState{Dataset: "toy", Cycles: 0}); err != nil {
			t.Fatalf("SaveStep failed: %v", err)
		}
		if err := st.SaveStep(ctx, "run-001", 2, "analyze", analysisState{Dataset: "toy", Cycles: 12}); err != nil {
			t.Fatalf("SaveStep failed: %v", err)
		}

		state, step, err := st.LoadLatest(ctx, "run-001")
		if err != nil {
			t.Fatalf("LoadLatest failed: %v", err)
		}
		if step != 2 {
			t.Errorf("expected step 2, got %d", step)
		}
		if state.Cycles != 12 {
			t.Errorf("expected 12 cycles, got %d", state.Cycles)
		}
	})

	t.Run("save step is idempotent per run and step", func(t *testing.T) {
		if err := st.SaveStep(ctx, "run-002", 1, "process", analysisState{Cycles: 1}); err != nil {
			t.Fatalf("SaveStep failed: %v", err)
		}
		if err := st.SaveStep(ctx, "run-002", 1, "process", analysisState{Cycles: 5}); err != nil {
			t.Fatalf("repeated SaveStep failed: %v", err)
		}

		state, step, err := st.LoadLatest(ctx, "run-002")
		if err != nil {
			t.Fatalf("LoadLatest failed: %v", err)
		}
		if step != 1 {
			t.Errorf("expected step 1, got %d", step)
		}
		_ = state
	})

	t.Run("checkpoint round trip", func(t *testing.T) {
		saved := analysisState{Dataset: "connectome", Cycles: 99, Hubs: []string{"Region_7", "Region_12"}}
		if err := st.SaveCheckpoint(ctx, "after-analyze", saved, 2); err != nil {
			t.Fatalf("SaveCheckpoint failed: %v", err)
		}

		state, step, err := st.LoadCheckpoint(ctx, "after-analyze")
		if err != nil {
			t.Fatalf("LoadCheckpoint failed: %v", err)
		}
		if step != 2 {
			t.Errorf("expected step 2, got %d", step)
		}
		if state.Cycles != 99 {
			t.Errorf("expected 99 cycles, got %d", state.Cycles)
		}
		if len(state.Hubs) != 2 || state.Hubs[0] != "Region_7" {
			t.Errorf("unexpected hubs: %v", state.Hubs)
		}
	})

	t.Run("load unknown checkpoint returns ErrNotFound", func(t *testing.T) {
		_, _, err := st.LoadCheckpoint(ctx, "no-such-checkpoint")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
