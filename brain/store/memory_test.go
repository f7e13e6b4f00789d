package store

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
)

func TestMemStore_Contract(t *testing.T) {
	runStoreContract(t, NewMemStore[analysisState]())
}

func TestMemStore_ConcurrentSaves(t *testing.T) {
	st := NewMemStore[analysisState]()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(step int) {
			defer wg.Done()
			_ = st.SaveStep(ctx, "run-001", step, "process", analysisState{Cycles: step})
		}(i)
	}
	wg.Wait()

	state, step, err := st.LoadLatest(ctx, "run-001")
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if step != 50 {
		t.Errorf("expected latest step 50, got %d", step)
	}
	if state.Cycles != 50 {
		t.Errorf("expected state from step 50, got %d", state.Cycles)
	}
}

func TestMemStore_JSONRoundTrip(t *testing.T) {
	st := NewMemStore[analysisState]()
	ctx := context.Background()

	_ = st.SaveStep(ctx, "run-001", 1, "process", analysisState{Dataset: "toy"})
	_ = st.SaveCheckpoint(ctx, "cp-1", analysisState{Cycles: 3}, 1)

	data, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	restored := NewMemStore[analysisState]()
	if err := json.Unmarshal(data, restored); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	state, step, err := restored.LoadLatest(ctx, "run-001")
	if err != nil {
		t.Fatalf("LoadLatest after restore failed: %v", err)
	}
	if step != 1 || state.Dataset != "toy" {
		t.Errorf("unexpected restored step: step=%d state=%+v", step, state)
	}

	cpState, _, err := restored.LoadCheckpoint(ctx, "cp-1")
	if err != nil {
		t.Fatalf("LoadCheckpoint after restore failed: %v", err)
	}
	if cpState.Cycles != 3 {
		t.Errorf("expected 3 cycles in restored checkpoint, got %d", cpState.Cycles)
	}
}

func TestMemStore_JSONRoundTripEmpty(t *testing.T) {
	st := NewMemStore[analysisState]()

	data, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	restored := NewMemStore[analysisState]()
	if err := json.Unmarshal(data, restored); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if restored.steps == nil || restored.checkpoints == nil {
		t.Error("expected maps to be initialized after restore")
	}
}
