package sim

import (
	"github.com/neurolab/braincycle-go/brain/connectome"
	"github.com/neurolab/braincycle-go/brain/cycles"
)

// SynapseRecord is the JSON form of a synapse in a results snapshot.
type SynapseRecord struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Weight float64 `json:"weight"`
	Kind   string  `json:"kind"`
}

// Results is the snapshot written after an experiment: the connectome
// that was simulated and the full activation trace.
type Results struct {
	Experiment string          `json:"experiment"`
	Regions    []string        `json:"regions"`
	Synapses   []SynapseRecord `json:"synapses"`
	Trace      *Result         `json:"trace"`

	// Cycles and Hubs hold the structural analysis of the connectome,
	// when the experiment ran one.
	Cycles []cycles.Cycle `json:"cycles,omitempty"`
	Hubs   []string       `json:"hubs,omitempty"`
}

// Snapshot captures a graph and its simulation trace as a Results
// record ready for JSON serialization.
func Snapshot(experiment string, g *connectome.Graph, trace *Result) *Results {
	res := &Results{
		Experiment: experiment,
		Trace:      trace,
	}
	for _, r := range g.Regions() {
		res.Regions = append(res.Regions, r.Label)
	}
	for _, s := range g.Synapses() {
		res.Synapses = append(res.Synapses, SynapseRecord{
			From:   s.F.Label,
			To:     s.T.Label,
			Weight: s.W,
			Kind:   s.Kind.String(),
		})
	}
	return res
}

// Rebuild reconstructs the connectome described by the snapshot.
func (r *Results) Rebuild() (*connectome.Graph, error) {
	g := connectome.NewGraph()
	for _, label := range r.Regions {
		g.AddRegion(label)
	}
	for _, s := range r.Synapses {
		if err := g.Connect(s.From, s.To, s.Weight, connectome.ParseSynapseKind(s.Kind)); err != nil {
			return nil, err
		}
	}
	return g, nil
}
