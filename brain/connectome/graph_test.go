package connectome

import (
	"testing"
)

func TestGraphBasics(t *testing.T) {
	g := NewGraph()

	a := g.AddRegion("Region_A")
	b := g.AddRegion("Region_B")
	if a.ID() == b.ID() {
		t.Error("distinct regions share an ID")
	}

	t.Run("duplicate label returns same region", func(t *testing.T) {
		again := g.AddRegion("Region_A")
		if again != a {
			t.Error("AddRegion created a duplicate for an existing label")
		}
		if g.Order() != 2 {
			t.Errorf("Order = %d, want 2", g.Order())
		}
	})

	t.Run("connect creates missing regions", func(t *testing.T) {
		if err := g.Connect("Region_B", "Region_C", 0.8, Excitatory); err != nil {
			t.Fatalf("Connect failed: %v", err)
		}
		if _, ok := g.RegionByLabel("Region_C"); !ok {
			t.Error("Connect did not create Region_C")
		}
		if g.Size() != 1 {
			t.Errorf("Size = %d, want 1", g.Size())
		}
	})

	t.Run("self-connection rejected", func(t *testing.T) {
		if err := g.Connect("Region_A", "Region_A", 1.0, Excitatory); err == nil {
			t.Error("expected error for self-connection")
		}
	})

	t.Run("synapse lookup", func(t *testing.T) {
		s, ok := g.Synapse("Region_B", "Region_C")
		if !ok {
			t.Fatal("synapse B->C not found")
		}
		if s.Weight() != 0.8 {
			t.Errorf("weight = %v, want 0.8", s.Weight())
		}
		if s.Kind != Excitatory {
			t.Errorf("kind = %v, want excitatory", s.Kind)
		}
		if _, ok := g.Synapse("Region_C", "Region_B"); ok {
			t.Error("reverse direction should not exist in a directed graph")
		}
	})
}

func TestGraphDeterministicIteration(t *testing.T) {
	g := NewGraph()
	_ = g.Connect("Region_C", "Region_A", 1, Excitatory)
	_ = g.Connect("Region_A", "Region_B", 1, Excitatory)
	_ = g.Connect("Region_B", "Region_C", 1, Inhibitory)

	regions := g.Regions()
	for i := 1; i < len(regions); i++ {
		if regions[i-1].Label >= regions[i].Label {
			t.Fatalf("Regions not sorted: %q before %q", regions[i-1].Label, regions[i].Label)
		}
	}

	synapses := g.Synapses()
	if len(synapses) != 3 {
		t.Fatalf("Synapses len = %d, want 3", len(synapses))
	}
	if synapses[0].F.Label != "Region_A" {
		t.Errorf("first synapse from %q, want Region_A", synapses[0].F.Label)
	}
}

func TestPruneWeakEdges(t *testing.T) {
	g := NewGraph()
	_ = g.Connect("Region_A", "Region_B", 0.9, Excitatory)
	_ = g.Connect("Region_B", "Region_C", 0.2, Excitatory)
	_ = g.Connect("Region_C", "Region_A", 0.5, Inhibitory)

	removed := g.PruneWeakEdges(0.5)
	if removed != 1 {
		t.Errorf("removed = %d, want 1 (only the 0.2 edge is below threshold)", removed)
	}
	if g.Size() != 2 {
		t.Errorf("Size = %d, want 2", g.Size())
	}
	if _, ok := g.Synapse("Region_B", "Region_C"); ok {
		t.Error("weak synapse survived pruning")
	}
	if _, ok := g.Synapse("Region_C", "Region_A"); !ok {
		t.Error("threshold-equal synapse should survive (strict less-than)")
	}
	if g.Order() != 3 {
		t.Errorf("pruning removed regions: Order = %d, want 3", g.Order())
	}
}

func TestStandardize(t *testing.T) {
	g := NewGraph()
	_ = g.Connect("V1", "Region_V2", 1, Excitatory)
	_ = g.Connect("Region_V2", "hippocampus", 1, Excitatory)

	report := g.Standardize()

	if len(report.RenamedRegions) != 2 {
		t.Fatalf("renamed %v, want 2 entries", report.RenamedRegions)
	}
	for _, label := range []string{"Region_V1", "Region_V2", "Region_hippocampus"} {
		if _, ok := g.RegionByLabel(label); !ok {
			t.Errorf("missing standardized region %q", label)
		}
	}
	if _, ok := g.RegionByLabel("V1"); ok {
		t.Error("old label still resolves after rename")
	}

	t.Run("idempotent", func(t *testing.T) {
		second := g.Standardize()
		if len(second.RenamedRegions) != 0 {
			t.Errorf("second Standardize renamed %v, want none", second.RenamedRegions)
		}
	})

	t.Run("edges survive rename", func(t *testing.T) {
		if _, ok := g.Synapse("Region_V1", "Region_V2"); !ok {
			t.Error("synapse lost its endpoints after rename")
		}
	})
}

func TestSynapseKindRoundTrip(t *testing.T) {
	if ParseSynapseKind(Inhibitory.String()) != Inhibitory {
		t.Error("inhibitory did not round-trip")
	}
	if ParseSynapseKind(Excitatory.String()) != Excitatory {
		t.Error("excitatory did not round-trip")
	}
	if ParseSynapseKind("mystery") != Excitatory {
		t.Error("unknown kind should default to excitatory")
	}
}
