package sim

import (
	"fmt"
	"math/rand"

	"github.com/neurolab/braincycle-go/brain/connectome"
)

// DefinedCycles builds the standard test connectome: three disjoint
// directed rings of 4, 5 and 6 regions. Cycle detection on this graph
// has a known answer (exactly three cycles, one per length), which makes
// it the canonical smoke-test input.
func DefinedCycles() *connectome.Graph {
	g := connectome.NewGraph()
	addRing(g, "Region_A", 4)
	addRing(g, "Region_B", 5)
	addRing(g, "Region_C", 6)
	return g
}

// OverlappingCycles builds two rings joined by cross-links, plus one
// inhibitory edge into the shared region. Regions on the cross-links sit
// on many overlapping cycles, so this graph exercises hub detection, and
// the inhibitory edge gives simulations a suppression pathway.
func OverlappingCycles() *connectome.Graph {
	g := connectome.NewGraph()
	addRing(g, "Region_L", 4)
	addRing(g, "Region_R", 4)

	// Cross-links create composite cycles through both rings.
	mustConnect(g, "Region_L1", "Region_R2", 0.9, connectome.Excitatory)
	mustConnect(g, "Region_R3", "Region_L2", 0.9, connectome.Excitatory)
	mustConnect(g, "Region_L3", "Region_R0", 0.7, connectome.Excitatory)

	// One inhibitory edge into the busiest junction.
	mustConnect(g, "Region_R1", "Region_L1", 0.8, connectome.Inhibitory)

	return g
}

// RandomBrain builds a random directed connectome with n regions where
// each ordered pair gains a synapse with probability p. Weights are
// uniform in (0, 1]. The same seed always yields the same graph.
func RandomBrain(n int, p float64, seed int64) *connectome.Graph {
	rng := rand.New(rand.NewSource(seed)) // #nosec G404 -- reproducible generation

	g := connectome.NewGraph()
	for i := 0; i < n; i++ {
		g.AddRegion(regionLabel(i))
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j || rng.Float64() >= p {
				continue
			}
			kind := connectome.Excitatory
			// Roughly one in five synapses is inhibitory, matching the
			// excitatory bias of cortical wiring.
			if rng.Float64() < 0.2 {
				kind = connectome.Inhibitory
			}
			mustConnect(g, regionLabel(i), regionLabel(j), 1-rng.Float64(), kind)
		}
	}
	return g
}

func regionLabel(i int) string {
	return fmt.Sprintf("%s%03d", connectome.RegionPrefix, i)
}

// addRing connects prefix0 -> prefix1 -> ... -> prefix(n-1) -> prefix0.
func addRing(g *connectome.Graph, prefix string, n int) {
	for i := 0; i < n; i++ {
		from := fmt.Sprintf("%s%d", prefix, i)
		to := fmt.Sprintf("%s%d", prefix, (i+1)%n)
		mustConnect(g, from, to, 1.0, connectome.Excitatory)
	}
}

func mustConnect(g *connectome.Graph, from, to string, w float64, kind connectome.SynapseKind) {
	if err := g.Connect(from, to, w, kind); err != nil {
		// Generators only connect distinct labels; a failure here is a bug.
		panic(err)
	}
}
