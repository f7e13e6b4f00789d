package viz

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/neurolab/braincycle-go/brain/cycles"
)

// SaveCycleHistogram renders the distribution of cycle lengths as a PNG
// histogram at path. The file extension selects the output format, so
// ".svg" and ".pdf" work too.
func SaveCycleHistogram(found []cycles.Cycle, path string) error {
	if len(found) == 0 {
		return fmt.Errorf("no cycles to plot")
	}

	values := make(plotter.Values, len(found))
	for i, c := range found {
		values[i] = float64(len(c))
	}

	p := plot.New()
	p.Title.Text = "Cycle Length Distribution"
	p.X.Label.Text = "Cycle length (regions)"
	p.Y.Label.Text = "Count"

	h, err := plotter.NewHist(values, cycles.DefaultMaxLength)
	if err != nil {
		return fmt.Errorf("build histogram: %w", err)
	}
	p.Add(h)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save histogram: %w", err)
	}
	return nil
}
