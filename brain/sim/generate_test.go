package sim

import (
	"context"
	"testing"

	"github.com/neurolab/braincycle-go/brain/connectome"
	"github.com/neurolab/braincycle-go/brain/cycles"
)

func TestDefinedCycles(t *testing.T) {
	g := DefinedCycles()

	if g.Order() != 15 {
		t.Errorf("Order = %d, want 15 (4+5+6 regions)", g.Order())
	}

	found, err := cycles.Detect(context.Background(), g, cycles.Options{})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	stats := cycles.ComputeStats(found)
	if stats.TotalCycles != 3 {
		t.Fatalf("TotalCycles = %d, want 3", stats.TotalCycles)
	}
	counts := stats.LengthCounts()
	for _, length := range []int{4, 5, 6} {
		if counts[length] != 1 {
			t.Errorf("length %d appears %d times, want 1", length, counts[length])
		}
	}
}

func TestOverlappingCyclesProducesHubs(t *testing.T) {
	g := OverlappingCycles()

	found, err := cycles.Detect(context.Background(), g, cycles.Options{})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(found) < 3 {
		t.Fatalf("found %d cycles, want at least the two rings plus a composite", len(found))
	}

	hubs := cycles.Hubs(found, cycles.DefaultHubThreshold)
	if len(hubs) == 0 {
		t.Error("linked cycles should produce at least one hub")
	}

	var inhibitory int
	for _, s := range g.Synapses() {
		if s.Kind == connectome.Inhibitory {
			inhibitory++
		}
	}
	if inhibitory != 1 {
		t.Errorf("inhibitory synapses = %d, want 1", inhibitory)
	}
}

func TestRandomBrain(t *testing.T) {
	t.Run("deterministic for a seed", func(t *testing.T) {
		a := RandomBrain(30, 0.2, 42)
		b := RandomBrain(30, 0.2, 42)
		if a.Order() != b.Order() || a.Size() != b.Size() {
			t.Errorf("same seed produced different graphs: %d/%d vs %d/%d",
				a.Order(), a.Size(), b.Order(), b.Size())
		}

		sa, sb := a.Synapses(), b.Synapses()
		for i := range sa {
			if sa[i].F.Label != sb[i].F.Label || sa[i].T.Label != sb[i].T.Label || sa[i].W != sb[i].W {
				t.Fatalf("synapse %d differs between identically seeded graphs", i)
			}
		}
	})

	t.Run("different seeds differ", func(t *testing.T) {
		a := RandomBrain(30, 0.2, 1)
		b := RandomBrain(30, 0.2, 2)
		if a.Size() == b.Size() {
			sa, sb := a.Synapses(), b.Synapses()
			same := true
			for i := range sa {
				if sa[i].F.Label != sb[i].F.Label || sa[i].T.Label != sb[i].T.Label {
					same = false
					break
				}
			}
			if same {
				t.Error("different seeds produced identical edge sets")
			}
		}
	})

	t.Run("no self loops", func(t *testing.T) {
		g := RandomBrain(20, 0.5, 3)
		for _, s := range g.Synapses() {
			if s.F.Label == s.T.Label {
				t.Errorf("self loop on %s", s.F.Label)
			}
		}
	})
}
