package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/neurolab/braincycle-go/brain"
	"github.com/neurolab/braincycle-go/brain/cycles"
	"github.com/neurolab/braincycle-go/brain/graphml"
)

// Results file names written by the analyze stage.
const (
	CycleStatsFile = "cycle_stats.json"
	HubNodesFile   = "hub_nodes.json"
)

// AnalyzeStage detects bounded cycles in every standardized graph and
// writes cycle_stats.json and hub_nodes.json to the results directory.
//
// Detection runs under a per-graph deadline. A graph that exhausts its
// budget contributes the cycles found so far and a warning instead of
// failing the run; a truncated count is still a usable lower bound.
type AnalyzeStage struct {
	cfg     Config
	log     *zap.Logger
	metrics *brain.PrometheusMetrics
	runID   string
}

// NewAnalyzeStage builds the analyze stage. runID labels the cycle
// metrics; pass the pipeline run ID.
func NewAnalyzeStage(cfg Config, logger *zap.Logger, metrics *brain.PrometheusMetrics, runID string) *AnalyzeStage {
	return &AnalyzeStage{cfg: cfg, log: logger.Named("analyze"), metrics: metrics, runID: runID}
}

// Run implements brain.Stage.
func (a *AnalyzeStage) Run(ctx context.Context, state State) brain.StageResult[State] {
	fail := func(err error) brain.StageResult[State] {
		return brain.StageResult[State]{Err: &brain.StageError{
			Message: err.Error(),
			Code:    "ANALYZE_FAILED",
			Stage:   "analyze",
			Cause:   err,
		}}
	}

	if len(state.GraphFiles) == 0 {
		return fail(fmt.Errorf("no standardized graphs in state; run the process stage first"))
	}

	var delta State
	for _, file := range state.GraphFiles {
		found, warn, err := a.analyzeFile(ctx, filepath.Join(state.ResultsDir, file))
		if err != nil {
			return fail(err)
		}
		delta.Cycles = append(delta.Cycles, found...)
		if warn != "" {
			delta.Warnings = append(delta.Warnings, warn)
		}
	}

	stats := cycles.ComputeStats(delta.Cycles)
	delta.Stats = &stats
	delta.Hubs = cycles.Hubs(delta.Cycles, a.cfg.HubThreshold)

	if a.metrics != nil {
		a.metrics.AddCyclesDetected(a.runID, stats.TotalCycles)
	}

	if err := writeJSON(filepath.Join(state.ResultsDir, CycleStatsFile), stats); err != nil {
		return fail(err)
	}
	if err := writeJSON(filepath.Join(state.ResultsDir, HubNodesFile), cycles.HubSet{OverlappingHubs: delta.Hubs}); err != nil {
		return fail(err)
	}

	a.log.Info("analysis complete",
		zap.Int("total_cycles", stats.TotalCycles),
		zap.Int("hubs", len(delta.Hubs)))

	return brain.StageResult[State]{Delta: delta}
}

func (a *AnalyzeStage) analyzeFile(ctx context.Context, path string) ([]cycles.Cycle, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	g, _, err := graphml.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", path, err)
	}

	detectCtx := ctx
	if a.cfg.AnalyzeTimeout > 0 {
		var cancel context.CancelFunc
		detectCtx, cancel = context.WithTimeout(ctx, a.cfg.AnalyzeTimeout)
		defer cancel()
	}

	found, err := cycles.Detect(detectCtx, g, cycles.Options{MaxLength: a.cfg.MaxCycleLength})
	if err != nil {
		// Our own deadline expiring yields a partial result; the run's
		// context being cancelled is still fatal.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			warn := fmt.Sprintf("%s: cycle search hit the %s budget, counts are a lower bound (%d cycles found)",
				filepath.Base(path), a.cfg.AnalyzeTimeout, len(found))
			a.log.Warn("cycle search truncated",
				zap.String("file", filepath.Base(path)),
				zap.Int("partial_cycles", len(found)))
			return found, warn, nil
		}
		return nil, "", fmt.Errorf("detect cycles in %s: %w", path, err)
	}

	a.log.Debug("graph analyzed",
		zap.String("file", filepath.Base(path)),
		zap.Int("cycles", len(found)))
	return found, "", nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
