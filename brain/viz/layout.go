// Package viz renders connectomes and analysis results as figures:
// force-directed network diagrams (SVG), cycle length histograms (PNG)
// and DOT exports for external tooling.
package viz

import (
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/layout"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/neurolab/braincycle-go/brain/connectome"
)

// layoutUpdates is the number of force-directed iterations. Eades
// converges quickly on connectome-sized graphs; more iterations buy
// little.
const layoutUpdates = 100

// Layout computes 2D positions for every region using Eades
// force-directed placement. The seed fixes the initial placement, so the
// same graph and seed always produce the same figure.
func Layout(g *connectome.Graph, seed uint64) map[string]r2.Vec {
	eades := layout.EadesR2{
		Updates:   layoutUpdates,
		Repulsion: 1,
		Rate:      0.05,
		Theta:     0.1,
		Src:       rand.NewSource(seed),
	}

	optimizer := layout.NewOptimizerR2(orderedView{g}, eades.Update)
	for optimizer.Update() {
	}

	positions := make(map[string]r2.Vec, g.Order())
	for _, r := range g.Regions() {
		positions[r.Label] = optimizer.Coord2(r.ID())
	}
	return positions
}

// orderedView presents the connectome with deterministic node iteration.
// The underlying gonum simple graph iterates nodes in map order, which
// would consume the seeded random stream differently on every call and
// assign the same coordinates to different regions between runs.
type orderedView struct {
	*connectome.Graph
}

func (v orderedView) Nodes() graph.Nodes {
	regions := v.Graph.Regions()
	nodes := make([]graph.Node, len(regions))
	for i, r := range regions {
		nodes[i] = r
	}
	sortNodes(nodes)
	return iterator.NewOrderedNodes(nodes)
}

func (v orderedView) From(id int64) graph.Nodes { return orderNodes(v.Graph.From(id)) }

func (v orderedView) To(id int64) graph.Nodes { return orderNodes(v.Graph.To(id)) }

func orderNodes(it graph.Nodes) graph.Nodes {
	nodes := graph.NodesOf(it)
	sortNodes(nodes)
	return iterator.NewOrderedNodes(nodes)
}

func sortNodes(nodes []graph.Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
}
