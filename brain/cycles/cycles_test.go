package cycles

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/neurolab/braincycle-go/brain/connectome"
)

// ring builds a directed cycle over the given labels.
func ring(g *connectome.Graph, labels ...string) {
	for i, from := range labels {
		to := labels[(i+1)%len(labels)]
		if err := g.Connect(from, to, 1.0, connectome.Excitatory); err != nil {
			panic(err)
		}
	}
}

func TestDetectTriangle(t *testing.T) {
	g := connectome.NewGraph()
	ring(g, "Region_A", "Region_B", "Region_C")

	found, err := Detect(context.Background(), g, Options{})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("found %d cycles, want 1", len(found))
	}
	if len(found[0]) != 3 {
		t.Errorf("cycle length = %d, want 3", len(found[0]))
	}
}

func TestDetectNoCycles(t *testing.T) {
	g := connectome.NewGraph()
	_ = g.Connect("Region_A", "Region_B", 1, connectome.Excitatory)
	_ = g.Connect("Region_B", "Region_C", 1, connectome.Excitatory)
	_ = g.Connect("Region_A", "Region_C", 1, connectome.Excitatory)

	found, err := Detect(context.Background(), g, Options{})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("found %d cycles in a DAG, want 0", len(found))
	}
}

func TestDetectDisjointCycles(t *testing.T) {
	g := connectome.NewGraph()
	ring(g, "Region_A", "Region_B", "Region_C")
	ring(g, "Region_D", "Region_E", "Region_F", "Region_G")
	ring(g, "Region_H", "Region_I")

	found, err := Detect(context.Background(), g, Options{})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(found) != 3 {
		t.Fatalf("found %d cycles, want 3", len(found))
	}

	stats := ComputeStats(found)
	if stats.TotalCycles != 3 {
		t.Errorf("TotalCycles = %d, want 3", stats.TotalCycles)
	}
	want := []int{2, 3, 4}
	if len(stats.CycleLengths) != len(want) {
		t.Fatalf("CycleLengths = %v, want %v", stats.CycleLengths, want)
	}
	for i, length := range want {
		if stats.CycleLengths[i] != length {
			t.Errorf("CycleLengths = %v, want %v", stats.CycleLengths, want)
			break
		}
	}
}

func TestDetectEachCycleOnce(t *testing.T) {
	// Two triangles sharing an edge: A->B->C->A and A->B->D->A.
	g := connectome.NewGraph()
	_ = g.Connect("Region_A", "Region_B", 1, connectome.Excitatory)
	_ = g.Connect("Region_B", "Region_C", 1, connectome.Excitatory)
	_ = g.Connect("Region_C", "Region_A", 1, connectome.Excitatory)
	_ = g.Connect("Region_B", "Region_D", 1, connectome.Excitatory)
	_ = g.Connect("Region_D", "Region_A", 1, connectome.Excitatory)

	found, err := Detect(context.Background(), g, Options{})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("found %d cycles, want exactly 2 (no duplicates by rotation)", len(found))
	}
}

func TestDetectLengthBound(t *testing.T) {
	g := connectome.NewGraph()
	ring(g, "Region_A", "Region_B", "Region_C", "Region_D", "Region_E", "Region_F", "Region_G")

	t.Run("default bound excludes 7-cycle", func(t *testing.T) {
		found, err := Detect(context.Background(), g, Options{})
		if err != nil {
			t.Fatalf("Detect failed: %v", err)
		}
		if len(found) != 0 {
			t.Errorf("found %d cycles, want 0 under default length bound", len(found))
		}
	})

	t.Run("raised bound includes it", func(t *testing.T) {
		found, err := Detect(context.Background(), g, Options{MaxLength: 7})
		if err != nil {
			t.Fatalf("Detect failed: %v", err)
		}
		if len(found) != 1 {
			t.Errorf("found %d cycles, want 1 with MaxLength 7", len(found))
		}
	})
}

func TestDetectTimeoutReturnsPartial(t *testing.T) {
	// A dense complete digraph makes enumeration slow enough to hit a
	// tiny deadline deterministically.
	g := connectome.NewGraph()
	for i := 0; i < 30; i++ {
		for j := 0; j < 30; j++ {
			if i != j {
				_ = g.Connect(
					fmt.Sprintf("Region_%02d", i),
					fmt.Sprintf("Region_%02d", j),
					1.0, connectome.Excitatory,
				)
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	found, err := Detect(ctx, g, Options{})
	if err == nil {
		t.Fatal("expected timeout error on dense graph with 1ms deadline")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error should wrap DeadlineExceeded, got %v", err)
	}
	// Partial results must still be well-formed cycles.
	for _, c := range found {
		if len(c) < 2 {
			t.Errorf("partial result contains malformed cycle %v", c)
		}
	}
}

func TestHubs(t *testing.T) {
	found := []Cycle{
		{"Region_A", "Region_B"},
		{"Region_A", "Region_C"},
		{"Region_A", "Region_D"},
		{"Region_A", "Region_E"},
		{"Region_B", "Region_C"},
	}

	hubs := Hubs(found, DefaultHubThreshold)
	if len(hubs) != 1 || hubs[0] != "Region_A" {
		t.Errorf("hubs = %v, want [Region_A] (4 cycles > threshold 3)", hubs)
	}

	t.Run("threshold is strict", func(t *testing.T) {
		// Region_A appears in exactly 4 cycles; with minCycles 4 it is
		// no longer a hub.
		if got := Hubs(found, 4); len(got) != 0 {
			t.Errorf("hubs = %v, want none at strict threshold 4", got)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := Hubs(nil, DefaultHubThreshold); len(got) != 0 {
			t.Errorf("hubs = %v, want none for no cycles", got)
		}
	})
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil)
	if stats.TotalCycles != 0 {
		t.Errorf("TotalCycles = %d, want 0", stats.TotalCycles)
	}
	if len(stats.CycleLengths) != 0 {
		t.Errorf("CycleLengths = %v, want empty", stats.CycleLengths)
	}
}
