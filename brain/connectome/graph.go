// Package connectome models directed brain-region networks.
//
// A connectome is a weighted directed graph whose nodes are brain regions
// and whose edges are synaptic connections. The Graph type wraps gonum's
// weighted directed graph so the analysis packages can run gonum
// algorithms (strongly connected components, force-directed layout, DOT
// export) directly against it.
package connectome

import (
	"fmt"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/simple"
)

// SynapseKind classifies a connection's effect on its target region.
type SynapseKind int

const (
	// Excitatory connections push the target region toward firing.
	Excitatory SynapseKind = iota
	// Inhibitory connections suppress the target region.
	Inhibitory
)

// String returns the lowercase name used in GraphML and JSON output.
func (k SynapseKind) String() string {
	if k == Inhibitory {
		return "inhibitory"
	}
	return "excitatory"
}

// ParseSynapseKind converts the wire form back to a SynapseKind.
// Unknown values default to Excitatory, matching how untyped edges are
// treated in recorded datasets.
func ParseSynapseKind(s string) SynapseKind {
	if s == "inhibitory" {
		return Inhibitory
	}
	return Excitatory
}

// Region is a node in the connectome. It implements graph.Node so gonum
// algorithms can traverse it directly.
type Region struct {
	id int64

	// Label is the region's name, e.g. "Region_V1".
	Label string
}

// ID implements graph.Node.
func (r *Region) ID() int64 { return r.id }

// DOTID implements dot.Node so DOT export uses region labels instead of
// numeric IDs.
func (r *Region) DOTID() string { return r.Label }

// Synapse is a weighted directed edge between two regions. It implements
// graph.WeightedEdge.
type Synapse struct {
	F, T *Region

	// W is the connection strength.
	W float64

	// Kind marks the synapse as excitatory or inhibitory.
	Kind SynapseKind
}

// From implements graph.Edge.
func (s *Synapse) From() graph.Node { return s.F }

// To implements graph.Edge.
func (s *Synapse) To() graph.Node { return s.T }

// ReversedEdge implements graph.Edge.
func (s *Synapse) ReversedEdge() graph.Edge {
	return &Synapse{F: s.T, T: s.F, W: s.W, Kind: s.Kind}
}

// Weight implements graph.WeightedEdge.
func (s *Synapse) Weight() float64 { return s.W }

// Attributes implements encoding.Attributer so DOT export carries the
// synapse weight and kind.
func (s *Synapse) Attributes() []encoding.Attribute {
	return []encoding.Attribute{
		{Key: "weight", Value: strconv.FormatFloat(s.W, 'g', -1, 64)},
		{Key: "kind", Value: s.Kind.String()},
	}
}

// Graph is a connectome: brain regions connected by weighted synapses.
//
// Graph is not safe for concurrent mutation. The pipeline builds a graph
// in the process stage and treats it as read-only afterwards.
type Graph struct {
	wg      *simple.WeightedDirectedGraph
	regions map[string]*Region
}

// NewGraph returns an empty connectome.
func NewGraph() *Graph {
	return &Graph{
		wg:      simple.NewWeightedDirectedGraph(0, 0),
		regions: make(map[string]*Region),
	}
}

// AddRegion adds a region with the given label, or returns the existing
// region if the label is already present.
func (g *Graph) AddRegion(label string) *Region {
	if r, ok := g.regions[label]; ok {
		return r
	}
	r := &Region{id: g.wg.NewNode().ID(), Label: label}
	g.wg.AddNode(r)
	g.regions[label] = r
	return r
}

// RegionByLabel looks up a region by its label.
func (g *Graph) RegionByLabel(label string) (*Region, bool) {
	r, ok := g.regions[label]
	return r, ok
}

// Connect adds a synapse between two regions, creating the regions if
// they do not exist yet. Self-loops are rejected.
func (g *Graph) Connect(from, to string, weight float64, kind SynapseKind) error {
	if from == to {
		return fmt.Errorf("self-connection not allowed: %s", from)
	}
	f := g.AddRegion(from)
	t := g.AddRegion(to)
	g.wg.SetWeightedEdge(&Synapse{F: f, T: t, W: weight, Kind: kind})
	return nil
}

// Synapse returns the synapse from one region to another, if present.
func (g *Graph) Synapse(from, to string) (*Synapse, bool) {
	f, ok := g.regions[from]
	if !ok {
		return nil, false
	}
	t, ok := g.regions[to]
	if !ok {
		return nil, false
	}
	e := g.wg.WeightedEdge(f.ID(), t.ID())
	if e == nil {
		return nil, false
	}
	return e.(*Synapse), true
}

// Regions returns all regions sorted by label for deterministic iteration.
func (g *Graph) Regions() []*Region {
	out := make([]*Region, 0, len(g.regions))
	for _, r := range g.regions {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// Synapses returns all synapses sorted by (from, to) label for
// deterministic iteration.
func (g *Graph) Synapses() []*Synapse {
	var out []*Synapse
	it := g.wg.Edges()
	for it.Next() {
		out = append(out, it.Edge().(*Synapse))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].F.Label != out[j].F.Label {
			return out[i].F.Label < out[j].F.Label
		}
		return out[i].T.Label < out[j].T.Label
	})
	return out
}

// Order returns the number of regions.
func (g *Graph) Order() int { return g.wg.Nodes().Len() }

// Size returns the number of synapses.
func (g *Graph) Size() int { return g.wg.Edges().Len() }

// Node implements graph.Graph.
func (g *Graph) Node(id int64) graph.Node { return g.wg.Node(id) }

// Nodes implements graph.Graph.
func (g *Graph) Nodes() graph.Nodes { return g.wg.Nodes() }

// From implements graph.Graph.
func (g *Graph) From(id int64) graph.Nodes { return g.wg.From(id) }

// To implements graph.Directed.
func (g *Graph) To(id int64) graph.Nodes { return g.wg.To(id) }

// HasEdgeBetween implements graph.Graph.
func (g *Graph) HasEdgeBetween(xid, yid int64) bool { return g.wg.HasEdgeBetween(xid, yid) }

// HasEdgeFromTo implements graph.Directed.
func (g *Graph) HasEdgeFromTo(uid, vid int64) bool { return g.wg.HasEdgeFromTo(uid, vid) }

// Edge implements graph.Graph.
func (g *Graph) Edge(uid, vid int64) graph.Edge { return g.wg.Edge(uid, vid) }

// WeightedEdge implements graph.Weighted.
func (g *Graph) WeightedEdge(uid, vid int64) graph.WeightedEdge { return g.wg.WeightedEdge(uid, vid) }

// Weight implements graph.Weighted.
func (g *Graph) Weight(uid, vid int64) (float64, bool) { return g.wg.Weight(uid, vid) }

// Edges returns an iterator over all synapses.
func (g *Graph) Edges() graph.Edges { return g.wg.Edges() }

// PruneWeakEdges removes synapses with weight strictly below threshold
// and returns the number removed. Regions are kept even if they become
// isolated; cycle analysis ignores them naturally.
func (g *Graph) PruneWeakEdges(threshold float64) int {
	var weak []*Synapse
	it := g.wg.Edges()
	for it.Next() {
		s := it.Edge().(*Synapse)
		if s.W < threshold {
			weak = append(weak, s)
		}
	}
	for _, s := range weak {
		g.wg.RemoveEdge(s.F.ID(), s.T.ID())
	}
	return len(weak)
}
