package connectome

import "strings"

// RegionPrefix is the canonical naming prefix for brain regions.
// Datasets from different labs label nodes inconsistently; the process
// stage normalizes them all to this prefix before analysis.
const RegionPrefix = "Region_"

// StandardizeReport describes the changes Standardize made.
type StandardizeReport struct {
	// RenamedRegions lists original labels that were given the canonical
	// prefix, in sorted order.
	RenamedRegions []string

	// DefaultedWeights counts synapses whose weight was missing in the
	// source file and defaulted to 1.0 at load time. Filled in by the
	// GraphML decoder, carried here so the process stage reports one
	// consolidated summary.
	DefaultedWeights int
}

// Standardize renames every region lacking the canonical prefix and
// returns a report of what changed. Already-canonical labels are left
// alone, so Standardize is idempotent.
func (g *Graph) Standardize() StandardizeReport {
	var report StandardizeReport

	for _, r := range g.Regions() {
		if strings.HasPrefix(r.Label, RegionPrefix) {
			continue
		}
		old := r.Label
		delete(g.regions, old)
		r.Label = RegionPrefix + old
		g.regions[r.Label] = r
		report.RenamedRegions = append(report.RenamedRegions, old)
	}

	return report
}
