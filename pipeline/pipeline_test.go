package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/neurolab/braincycle-go/brain/emit"
	"github.com/neurolab/braincycle-go/brain/graphml"
	"github.com/neurolab/braincycle-go/brain/sim"
)

// writeTestData renders the defined-cycles connectome into dir as a raw
// GraphML input file and returns the configured pipeline Config.
func writeTestData(t *testing.T) Config {
	t.Helper()

	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.DataDir = filepath.Join(root, "data")
	cfg.ResultsDir = filepath.Join(root, "results")
	cfg.FiguresDir = filepath.Join(root, "figures")

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(filepath.Join(cfg.DataDir, "toy_brain.graphml"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := graphml.Encode(f, sim.DefinedCycles()); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestPipelineEndToEnd(t *testing.T) {
	cfg := writeTestData(t)
	logger := zaptest.NewLogger(t)
	buf := emit.NewBufferedEmitter()

	engine, closer, err := Build(cfg, logger, buf, nil, "run-e2e")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer closer()

	final, err := engine.Run(context.Background(), "run-e2e", State{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	t.Run("stages run exactly once in order", func(t *testing.T) {
		var order []string
		for _, ev := range buf.GetHistory("run-e2e") {
			if ev.Msg == "stage_start" {
				order = append(order, ev.Stage)
			}
		}
		want := []string{StageProcess, StageAnalyze, StageVisualize}
		if len(order) != len(want) {
			t.Fatalf("stage starts %v, want %v", order, want)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Errorf("stage %d: got %q, want %q", i, order[i], want[i])
			}
		}
	})

	t.Run("analysis results", func(t *testing.T) {
		if final.Stats == nil {
			t.Fatal("final state has no stats")
		}
		if final.Stats.TotalCycles != 3 {
			t.Errorf("TotalCycles = %d, want 3 (rings of 4, 5, 6)", final.Stats.TotalCycles)
		}
		counts := final.Stats.LengthCounts()
		for _, length := range []int{4, 5, 6} {
			if counts[length] != 1 {
				t.Errorf("length %d appears %d times, want 1", length, counts[length])
			}
		}
		// Disjoint rings have no overlapping regions, so no hubs.
		if len(final.Hubs) != 0 {
			t.Errorf("hubs = %v, want none", final.Hubs)
		}
	})

	t.Run("results files", func(t *testing.T) {
		var stats struct {
			TotalCycles  int   `json:"total_cycles"`
			CycleLengths []int `json:"cycle_lengths"`
		}
		data, err := os.ReadFile(filepath.Join(cfg.ResultsDir, CycleStatsFile))
		if err != nil {
			t.Fatalf("read cycle stats: %v", err)
		}
		if err := json.Unmarshal(data, &stats); err != nil {
			t.Fatalf("parse cycle stats: %v", err)
		}
		// cycle_lengths is the per-cycle length list, sorted.
		if stats.TotalCycles != 3 || len(stats.CycleLengths) != 3 ||
			stats.CycleLengths[0] != 4 || stats.CycleLengths[1] != 5 || stats.CycleLengths[2] != 6 {
			t.Errorf("cycle_stats.json = %+v", stats)
		}

		var hubs struct {
			OverlappingHubs []string `json:"overlapping_hubs"`
		}
		data, err = os.ReadFile(filepath.Join(cfg.ResultsDir, HubNodesFile))
		if err != nil {
			t.Fatalf("read hub nodes: %v", err)
		}
		if err := json.Unmarshal(data, &hubs); err != nil {
			t.Fatalf("parse hub nodes: %v", err)
		}

		if _, err := os.Stat(filepath.Join(cfg.ResultsDir, "toy_brain.graphml")); err != nil {
			t.Error("standardized graph missing from results dir")
		}
	})

	t.Run("figures", func(t *testing.T) {
		for _, name := range []string{"toy_brain_network.svg", "toy_brain.dot", CycleHistogramFile} {
			if _, err := os.Stat(filepath.Join(cfg.FiguresDir, name)); err != nil {
				t.Errorf("figure %s missing: %v", name, err)
			}
		}
	})
}

func TestPipelineHaltsOnBadInput(t *testing.T) {
	cfg := writeTestData(t)
	// Add a corrupt file next to the good one.
	if err := os.WriteFile(filepath.Join(cfg.DataDir, "broken.graphml"), []byte("not xml"), 0o644); err != nil {
		t.Fatal(err)
	}

	buf := emit.NewBufferedEmitter()
	engine, closer, err := Build(cfg, zaptest.NewLogger(t), buf, nil, "run-bad")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer closer()

	if _, err := engine.Run(context.Background(), "run-bad", State{}); err == nil {
		t.Fatal("expected run to fail on corrupt input")
	}

	// Downstream stages must not have started.
	for _, ev := range buf.GetHistory("run-bad") {
		if ev.Msg == "stage_start" && ev.Stage != StageProcess {
			t.Errorf("stage %s started after process failed", ev.Stage)
		}
	}
	if _, err := os.Stat(filepath.Join(cfg.ResultsDir, CycleStatsFile)); err == nil {
		t.Error("analysis output written despite failed processing")
	}
}

func TestPipelineRejectsUndirected(t *testing.T) {
	cfg := writeTestData(t)
	undirected := `<graphml><graph edgedefault="undirected"><node id="a"/><node id="b"/><edge source="a" target="b"/></graph></graphml>`
	if err := os.WriteFile(filepath.Join(cfg.DataDir, "undirected.graphml"), []byte(undirected), 0o644); err != nil {
		t.Fatal(err)
	}

	engine, closer, err := Build(cfg, zaptest.NewLogger(t), emit.NewNullEmitter(), nil, "run-undir")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer closer()

	if _, err := engine.Run(context.Background(), "run-undir", State{}); err == nil {
		t.Fatal("expected run to reject undirected input")
	}
}

func TestPipelineSQLiteStore(t *testing.T) {
	cfg := writeTestData(t)
	cfg.Store = "sqlite"
	cfg.StorePath = filepath.Join(t.TempDir(), "steps.db")

	engine, closer, err := Build(cfg, zaptest.NewLogger(t), emit.NewNullEmitter(), nil, "run-sqlite")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer closer()

	final, err := engine.Run(context.Background(), "run-sqlite", State{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if final.Stats == nil || final.Stats.TotalCycles != 3 {
		t.Errorf("unexpected final state: %+v", final.Stats)
	}
	if _, err := os.Stat(cfg.StorePath); err != nil {
		t.Error("sqlite database file not created")
	}
}

func TestReduce(t *testing.T) {
	prev := State{DataDir: "data", GraphFiles: []string{"a.graphml"}, RenamedRegions: 2}
	delta := State{GraphFiles: []string{"b.graphml"}, RenamedRegions: 1, Hubs: []string{"Region_X"}}

	merged := Reduce(prev, delta)
	if merged.DataDir != "data" {
		t.Error("unset path in delta overwrote previous value")
	}
	if len(merged.GraphFiles) != 2 {
		t.Errorf("GraphFiles = %v, want both entries", merged.GraphFiles)
	}
	if merged.RenamedRegions != 3 {
		t.Errorf("RenamedRegions = %d, want 3", merged.RenamedRegions)
	}
	if len(merged.Hubs) != 1 {
		t.Errorf("Hubs = %v", merged.Hubs)
	}
}
