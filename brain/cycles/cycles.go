// Package cycles enumerates directed cycles in connectome graphs.
//
// Recurrent loops are the object of study: a cycle of excitatory
// synapses can sustain activity, and regions sitting on many cycles act
// as hubs. Enumeration is exponential in the worst case, so detection is
// bounded both by cycle length and by the caller's context deadline.
package cycles

import (
	"context"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph/topo"

	"github.com/neurolab/braincycle-go/brain/connectome"
)

// DefaultMaxLength bounds cycle enumeration to loops of at most six
// regions. Longer loops exist in dense connectomes but are rarely
// interpretable, and unbounded search does not terminate in practice.
const DefaultMaxLength = 6

// DefaultHubThreshold is the minimum cycle participation before a region
// counts as a hub: strictly more than this many cycles.
const DefaultHubThreshold = 3

// Cycle is an ordered list of region labels forming a directed loop.
// The first label is the cycle's minimal member under graph node order,
// which makes each cycle's representation canonical.
type Cycle []string

// Options configures cycle detection.
type Options struct {
	// MaxLength bounds the number of regions per cycle.
	// Zero means DefaultMaxLength.
	MaxLength int
}

// Detect enumerates all simple directed cycles of bounded length.
//
// The search decomposes the graph into strongly connected components
// first; only components with at least two regions can contain cycles
// (self-loops are excluded from connectomes at construction). Within a
// component, cycles are rooted at their minimal node so each cycle is
// found exactly once.
//
// Detect honors ctx: when the deadline expires mid-search it returns the
// cycles found so far together with a non-nil error wrapping ctx.Err().
// Callers can treat the partial result as a lower bound.
func Detect(ctx context.Context, g *connectome.Graph, opts Options) ([]Cycle, error) {
	maxLen := opts.MaxLength
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}

	d := &detector{
		g:      g,
		ctx:    ctx,
		maxLen: maxLen,
	}

	for _, scc := range topo.TarjanSCC(g) {
		if len(scc) < 2 {
			continue
		}

		member := make(map[int64]bool, len(scc))
		ids := make([]int64, 0, len(scc))
		for _, n := range scc {
			member[n.ID()] = true
			ids = append(ids, n.ID())
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		d.member = member
		for _, root := range ids {
			d.root = root
			d.onPath = map[int64]bool{root: true}
			if err := d.search([]int64{root}); err != nil {
				return d.cycles, fmt.Errorf("cycle detection stopped after %d cycles: %w", len(d.cycles), err)
			}
		}
	}

	return d.cycles, nil
}

type detector struct {
	g      *connectome.Graph
	ctx    context.Context
	maxLen int

	member map[int64]bool
	root   int64
	onPath map[int64]bool

	ops    int
	cycles []Cycle
}

// search extends the current path by one region. Only nodes with an ID
// greater than the root are explored, which restricts each cycle to the
// iteration rooted at its minimal member.
func (d *detector) search(path []int64) error {
	v := path[len(path)-1]

	it := d.g.From(v)
	for it.Next() {
		d.ops++
		if d.ops%1024 == 0 {
			select {
			case <-d.ctx.Done():
				return d.ctx.Err()
			default:
			}
		}

		w := it.Node().ID()
		switch {
		case w == d.root && len(path) >= 2:
			d.record(path)
		case !d.onPath[w] && w > d.root && d.member[w] && len(path) < d.maxLen:
			d.onPath[w] = true
			if err := d.search(append(path, w)); err != nil {
				return err
			}
			delete(d.onPath, w)
		}
	}
	return nil
}

func (d *detector) record(path []int64) {
	cycle := make(Cycle, len(path))
	for i, id := range path {
		cycle[i] = d.g.Node(id).(*connectome.Region).Label
	}
	d.cycles = append(d.cycles, cycle)
}

// Stats summarizes a detection run. The field names and shapes match
// the JSON layout of cycle_stats.json: cycle_lengths is the per-cycle
// length list, not a histogram.
type Stats struct {
	TotalCycles  int   `json:"total_cycles"`
	CycleLengths []int `json:"cycle_lengths"`
}

// ComputeStats tallies the cycle count and collects each cycle's
// length, sorted ascending so output is deterministic.
func ComputeStats(found []Cycle) Stats {
	stats := Stats{TotalCycles: len(found)}
	for _, c := range found {
		stats.CycleLengths = append(stats.CycleLengths, len(c))
	}
	sort.Ints(stats.CycleLengths)
	return stats
}

// LengthCounts folds the per-cycle lengths into a length histogram.
func (s Stats) LengthCounts() map[int]int {
	counts := make(map[int]int, len(s.CycleLengths))
	for _, l := range s.CycleLengths {
		counts[l]++
	}
	return counts
}

// Hubs returns the regions participating in strictly more than minCycles
// cycles, sorted by label. Pass DefaultHubThreshold for the standard
// definition.
func Hubs(found []Cycle, minCycles int) []string {
	participation := make(map[string]int)
	for _, c := range found {
		for _, label := range c {
			participation[label]++
		}
	}

	var hubs []string
	for label, n := range participation {
		if n > minCycles {
			hubs = append(hubs, label)
		}
	}
	sort.Strings(hubs)
	return hubs
}

// HubSet is the JSON layout of hub_nodes.json.
type HubSet struct {
	OverlappingHubs []string `json:"overlapping_hubs"`
}
