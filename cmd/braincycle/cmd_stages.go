package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neurolab/braincycle-go/brain/cycles"
	"github.com/neurolab/braincycle-go/pipeline"
)

// The single-stage commands rerun one pipeline stage against the
// filesystem state left by earlier stages, mirroring how the stages
// exchange data during a full run.

// processCmd runs only the process stage
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Standardize raw GraphML files from the data directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		stage := pipeline.NewProcessStage(cfg, logger, nil)
		result := stage.Run(cmd.Context(), pipeline.State{DataDir: cfg.DataDir})
		if result.Err != nil {
			return result.Err
		}
		logger.Info("process stage complete",
			zap.Strings("graphs", result.Delta.GraphFiles),
			zap.Int("renamed_regions", result.Delta.RenamedRegions))
		for _, w := range result.Delta.Warnings {
			logger.Warn(w)
		}
		return nil
	},
}

// analyzeCmd runs only the analyze stage
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Detect cycles and hubs in standardized graphs",
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := stateFromResults(cfg)
		if err != nil {
			return err
		}

		stage := pipeline.NewAnalyzeStage(cfg, logger, nil, "analyze-cli")
		result := stage.Run(cmd.Context(), state)
		if result.Err != nil {
			return result.Err
		}
		logger.Info("analyze stage complete",
			zap.Int("cycles", result.Delta.Stats.TotalCycles),
			zap.Strings("hubs", result.Delta.Hubs))
		return nil
	},
}

// visualizeCmd runs only the visualize stage
var visualizeCmd = &cobra.Command{
	Use:   "visualize",
	Short: "Render figures from existing analysis results",
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := stateFromResults(cfg)
		if err != nil {
			return err
		}
		if err := loadAnalysis(cfg, &state); err != nil {
			return err
		}

		stage := pipeline.NewVisualizeStage(cfg, logger)
		result := stage.Run(cmd.Context(), state)
		if result.Err != nil {
			return result.Err
		}
		logger.Info("visualize stage complete", zap.Strings("figures", result.Delta.Figures))
		return nil
	},
}

// stateFromResults reconstructs pipeline state from the results
// directory so a single stage can run without a fresh process pass.
func stateFromResults(cfg pipeline.Config) (pipeline.State, error) {
	state := pipeline.State{
		DataDir:    cfg.DataDir,
		ResultsDir: cfg.ResultsDir,
		FiguresDir: cfg.FiguresDir,
	}

	matches, err := filepath.Glob(filepath.Join(cfg.ResultsDir, "*.graphml"))
	if err != nil {
		return state, err
	}
	if len(matches) == 0 {
		return state, fmt.Errorf("no standardized graphs in %s; run the process stage first", cfg.ResultsDir)
	}
	sort.Strings(matches)
	for _, m := range matches {
		state.GraphFiles = append(state.GraphFiles, filepath.Base(m))
	}
	return state, nil
}

// loadAnalysis restores cycle stats and hubs from the analyze stage's
// JSON output. The histogram only needs cycle lengths, so the recorded
// lengths are expanded into length-only cycle records.
func loadAnalysis(cfg pipeline.Config, state *pipeline.State) error {
	var stats cycles.Stats
	if err := readJSON(filepath.Join(cfg.ResultsDir, pipeline.CycleStatsFile), &stats); err != nil {
		return fmt.Errorf("load analysis results (run analyze first): %w", err)
	}
	state.Stats = &stats
	for _, length := range stats.CycleLengths {
		state.Cycles = append(state.Cycles, make(cycles.Cycle, length))
	}

	var hubs cycles.HubSet
	if err := readJSON(filepath.Join(cfg.ResultsDir, pipeline.HubNodesFile), &hubs); err != nil {
		return fmt.Errorf("load hub results (run analyze first): %w", err)
	}
	state.Hubs = hubs.OverlappingHubs
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
