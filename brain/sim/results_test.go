package sim

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/neurolab/braincycle-go/brain/connectome"
)

func TestSnapshotRoundTrip(t *testing.T) {
	g := OverlappingCycles()

	trace, err := Run(context.Background(), g, Config{
		Steps:         5,
		InitialActive: []string{"Region_L0"},
	}, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	snap := Snapshot("overlapping_cycles", g, trace)
	if snap.Experiment != "overlapping_cycles" {
		t.Errorf("Experiment = %q", snap.Experiment)
	}
	if len(snap.Regions) != g.Order() || len(snap.Synapses) != g.Size() {
		t.Fatalf("snapshot has %d regions / %d synapses, graph has %d / %d",
			len(snap.Regions), len(snap.Synapses), g.Order(), g.Size())
	}

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var decoded Results
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	rebuilt, err := decoded.Rebuild()
	if err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}
	if rebuilt.Order() != g.Order() || rebuilt.Size() != g.Size() {
		t.Errorf("rebuilt graph is %d/%d, want %d/%d",
			rebuilt.Order(), rebuilt.Size(), g.Order(), g.Size())
	}

	// Synapse kinds survive the round trip.
	s, ok := rebuilt.Synapse("Region_R1", "Region_L1")
	if !ok {
		t.Fatal("inhibitory synapse missing after rebuild")
	}
	if s.Kind != connectome.Inhibitory {
		t.Errorf("kind = %v, want inhibitory", s.Kind)
	}

	if decoded.Trace == nil || len(decoded.Trace.Steps) != len(trace.Steps) {
		t.Error("trace did not survive the round trip")
	}
}

func TestTrackerString(t *testing.T) {
	tr := NewActivityTracker("run-x")
	tr.RecordFiring("Region_A0", 1)
	tr.RecordFiring("Region_A0", 2)
	tr.RecordFiring("Region_A1", 2)

	got := tr.String()
	want := "ActivityTracker(run=run-x, firings=3, regions=2)"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
