package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/neurolab/braincycle-go/brain"
	"github.com/neurolab/braincycle-go/brain/graphml"
	"github.com/neurolab/braincycle-go/brain/viz"
)

// CycleHistogramFile is the cycle length distribution figure.
const CycleHistogramFile = "cycle_distribution.png"

// VisualizeStage renders figures from the analysis results: one network
// diagram and one DOT export per graph, plus a combined cycle length
// histogram. Hubs from the analyze stage are highlighted in red.
type VisualizeStage struct {
	cfg Config
	log *zap.Logger
}

// NewVisualizeStage builds the visualize stage.
func NewVisualizeStage(cfg Config, logger *zap.Logger) *VisualizeStage {
	return &VisualizeStage{cfg: cfg, log: logger.Named("visualize")}
}

// Run implements brain.Stage.
func (v *VisualizeStage) Run(ctx context.Context, state State) brain.StageResult[State] {
	fail := func(err error) brain.StageResult[State] {
		return brain.StageResult[State]{Err: &brain.StageError{
			Message: err.Error(),
			Code:    "VISUALIZE_FAILED",
			Stage:   "visualize",
			Cause:   err,
		}}
	}

	if len(state.GraphFiles) == 0 {
		return fail(fmt.Errorf("no standardized graphs in state; run the process stage first"))
	}
	if err := os.MkdirAll(v.cfg.FiguresDir, 0o755); err != nil {
		return fail(fmt.Errorf("create figures dir: %w", err))
	}

	var delta State
	for _, file := range state.GraphFiles {
		select {
		case <-ctx.Done():
			return fail(ctx.Err())
		default:
		}

		figures, err := v.renderGraph(state, file)
		if err != nil {
			return fail(err)
		}
		delta.Figures = append(delta.Figures, figures...)
	}

	if len(state.Cycles) > 0 {
		histPath := filepath.Join(v.cfg.FiguresDir, CycleHistogramFile)
		if err := viz.SaveCycleHistogram(state.Cycles, histPath); err != nil {
			return fail(err)
		}
		delta.Figures = append(delta.Figures, CycleHistogramFile)
	} else {
		delta.Warnings = append(delta.Warnings, "no cycles detected, skipping histogram")
	}

	v.log.Info("figures rendered",
		zap.Int("figures", len(delta.Figures)),
		zap.String("figures_dir", v.cfg.FiguresDir))

	return brain.StageResult[State]{Delta: delta, Route: brain.Stop()}
}

// renderGraph writes the network SVG and DOT export for one graph.
func (v *VisualizeStage) renderGraph(state State, file string) ([]string, error) {
	f, err := os.Open(filepath.Join(state.ResultsDir, file))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", file, err)
	}
	defer f.Close()

	g, _, err := graphml.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", file, err)
	}

	base := strings.TrimSuffix(file, filepath.Ext(file))
	positions := viz.Layout(g, v.cfg.LayoutSeed)

	svgName := base + "_network.svg"
	out, err := os.Create(filepath.Join(v.cfg.FiguresDir, svgName))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", svgName, err)
	}
	defer out.Close()

	if err := viz.RenderNetworkSVG(out, g, positions, state.Hubs); err != nil {
		return nil, fmt.Errorf("render %s: %w", svgName, err)
	}

	dotName := base + ".dot"
	dotBytes, err := viz.MarshalDOT(g, base)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", dotName, err)
	}
	if err := os.WriteFile(filepath.Join(v.cfg.FiguresDir, dotName), dotBytes, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", dotName, err)
	}

	v.log.Debug("graph rendered",
		zap.String("svg", svgName),
		zap.String("dot", dotName))

	return []string{svgName, dotName}, nil
}
