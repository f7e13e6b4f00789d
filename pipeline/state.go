// Package pipeline assembles the brain-cycle analysis pipeline: process
// raw connectome files, analyze them for recurrent cycles and hubs, and
// render figures. The stages communicate through State and through files
// under the results and figures directories, so each stage can also be
// run in isolation against a previous stage's output.
package pipeline

import (
	"github.com/neurolab/braincycle-go/brain/cycles"
)

// State is the shared pipeline state. It carries paths and summary data
// rather than in-memory graphs, so it serializes cleanly into the step
// store and each stage rereads exactly what the previous stage wrote to
// disk.
type State struct {
	// DataDir holds the raw input GraphML files.
	DataDir string `json:"data_dir"`

	// ResultsDir receives standardized graphs and JSON summaries.
	ResultsDir string `json:"results_dir"`

	// FiguresDir receives rendered figures.
	FiguresDir string `json:"figures_dir"`

	// GraphFiles lists standardized GraphML files written by the process
	// stage, relative to ResultsDir.
	GraphFiles []string `json:"graph_files,omitempty"`

	// RenamedRegions counts region labels given the canonical prefix.
	RenamedRegions int `json:"renamed_regions,omitempty"`

	// DefaultedWeights counts synapses that had no weight in the input.
	DefaultedWeights int `json:"defaulted_weights,omitempty"`

	// PrunedSynapses counts synapses removed as below the weight threshold.
	PrunedSynapses int `json:"pruned_synapses,omitempty"`

	// Cycles holds every detected cycle across all graphs.
	Cycles []cycles.Cycle `json:"cycles,omitempty"`

	// Stats summarizes the detected cycles.
	Stats *cycles.Stats `json:"stats,omitempty"`

	// Hubs lists regions participating in many cycles.
	Hubs []string `json:"hubs,omitempty"`

	// Figures lists rendered figure files, relative to FiguresDir.
	Figures []string `json:"figures,omitempty"`

	// Warnings collects non-fatal observations (defaulted weights,
	// truncated cycle search) surfaced to the final report.
	Warnings []string `json:"warnings,omitempty"`
}

// Reduce merges a stage's delta into the previous state. Paths are
// sticky: a stage only overrides a directory if it sets one. Slices
// append, counters add, and pointers replace.
func Reduce(prev, delta State) State {
	if delta.DataDir != "" {
		prev.DataDir = delta.DataDir
	}
	if delta.ResultsDir != "" {
		prev.ResultsDir = delta.ResultsDir
	}
	if delta.FiguresDir != "" {
		prev.FiguresDir = delta.FiguresDir
	}

	prev.GraphFiles = append(prev.GraphFiles, delta.GraphFiles...)
	prev.Cycles = append(prev.Cycles, delta.Cycles...)
	prev.Hubs = append(prev.Hubs, delta.Hubs...)
	prev.Figures = append(prev.Figures, delta.Figures...)
	prev.Warnings = append(prev.Warnings, delta.Warnings...)

	prev.RenamedRegions += delta.RenamedRegions
	prev.DefaultedWeights += delta.DefaultedWeights
	prev.PrunedSynapses += delta.PrunedSynapses

	if delta.Stats != nil {
		prev.Stats = delta.Stats
	}
	return prev
}
