package viz

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo/float"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/neurolab/braincycle-go/brain/connectome"
)

const (
	svgWidth   = 900
	svgHeight  = 700
	svgMargin  = 60
	nodeRadius = 10
)

// RenderNetworkSVG draws the connectome as an SVG network diagram.
//
// Conventions match the published figures: hub regions are red, other
// regions steel blue, inhibitory synapses dashed. Positions come from
// Layout and are rescaled to the canvas. Every region must have a
// position; svgo reports no write errors, so inputs are validated up
// front.
func RenderNetworkSVG(w io.Writer, g *connectome.Graph, positions map[string]r2.Vec, hubs []string) error {
	for _, r := range g.Regions() {
		if _, ok := positions[r.Label]; !ok {
			return fmt.Errorf("no position for region %s", r.Label)
		}
	}

	hubSet := make(map[string]bool, len(hubs))
	for _, h := range hubs {
		hubSet[h] = true
	}

	scaled := rescale(positions)

	canvas := svg.New(w)
	canvas.Start(svgWidth, svgHeight)
	canvas.Rect(0, 0, svgWidth, svgHeight, `fill="white"`)

	// Edges first so nodes draw on top.
	for _, s := range g.Synapses() {
		from, to := scaled[s.F.Label], scaled[s.T.Label]

		// Stroke width tracks connection strength.
		style := fmt.Sprintf(`stroke="gray" stroke-width="%.1f"`, 0.5+2*s.W)
		if s.Kind == connectome.Inhibitory {
			style += ` stroke-dasharray="6,4"`
		}
		canvas.Line(from.X, from.Y, to.X, to.Y, style)
	}

	for _, r := range g.Regions() {
		pos := scaled[r.Label]

		fill := `fill="steelblue"`
		if hubSet[r.Label] {
			fill = `fill="red"`
		}
		canvas.Circle(pos.X, pos.Y, nodeRadius, fill, `stroke="black"`)
		canvas.Text(pos.X, pos.Y-nodeRadius-4, r.Label,
			`font-size="11"`, `font-family="sans-serif"`, `text-anchor="middle"`)
	}

	canvas.End()
	return nil
}

// rescale maps layout coordinates onto the canvas with margins.
func rescale(positions map[string]r2.Vec) map[string]r2.Vec {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, v := range positions {
		minX, maxX = math.Min(minX, v.X), math.Max(maxX, v.X)
		minY, maxY = math.Min(minY, v.Y), math.Max(maxY, v.Y)
	}

	spanX, spanY := maxX-minX, maxY-minY
	if spanX == 0 {
		spanX = 1
	}
	if spanY == 0 {
		spanY = 1
	}

	out := make(map[string]r2.Vec, len(positions))
	for label, v := range positions {
		out[label] = r2.Vec{
			X: svgMargin + (v.X-minX)/spanX*(svgWidth-2*svgMargin),
			Y: svgMargin + (v.Y-minY)/spanY*(svgHeight-2*svgMargin),
		}
	}
	return out
}
