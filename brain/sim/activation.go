// Package sim runs discrete-time activation dynamics over connectomes.
//
// The model is deliberately simple: at each step a region fires iff it
// has at least one active excitatory predecessor and fewer active
// inhibitory predecessors than the inhibition threshold. Activity is
// one-step: a region stays active only as long as its inputs keep
// driving it. Runs are fully determined by the graph, the config, and
// the seed.
//
// The defaults are tuned for small toy connectomes: a single active
// inhibitory input suppresses its target, and a fifth of regions start
// active, so suppression pathways and spreading activity both show up
// in a ten-step run.
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/neurolab/braincycle-go/brain/connectome"
)

// Config controls a simulation run.
//
// Zero values get defaults, so Config{} is a valid quick-look run.
type Config struct {
	// Steps is the number of update steps. Default 10.
	Steps int

	// ActivationRate is the fraction of regions activated at step zero
	// when InitialActive is empty. Default 0.2.
	ActivationRate float64

	// InhibitionThreshold is the number of active inhibitory inputs at
	// which a region is suppressed. Default 1: a single active
	// inhibitory predecessor silences the target.
	InhibitionThreshold int

	// Seed makes the initial random activation reproducible.
	Seed int64

	// InitialActive names the regions active at step zero. When set,
	// ActivationRate and Seed are ignored.
	InitialActive []string
}

func (c Config) withDefaults() Config {
	if c.Steps <= 0 {
		c.Steps = 10
	}
	if c.ActivationRate <= 0 {
		c.ActivationRate = 0.2
	}
	if c.InhibitionThreshold <= 0 {
		c.InhibitionThreshold = 1
	}
	return c
}

// StepState is the set of active regions after one update step.
type StepState struct {
	Step   int      `json:"step"`
	Active []string `json:"active"`
}

// Result is a complete simulation trace.
type Result struct {
	Steps []StepState `json:"steps"`

	// PeakActive is the largest active-set size observed.
	PeakActive int `json:"peak_active"`

	// Silent reports whether activity died out before the last step.
	Silent bool `json:"silent"`
}

// Run simulates activation dynamics on the graph.
//
// Step zero's state is the initial activation; each subsequent entry in
// Result.Steps is one synchronous update. The run short-circuits once
// the active set is empty, since an empty set can never recover.
//
// If tracker is non-nil, every firing is recorded on it.
func Run(ctx context.Context, g *connectome.Graph, cfg Config, tracker *ActivityTracker) (*Result, error) {
	cfg = cfg.withDefaults()

	active, err := initialActive(g, cfg)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Steps: []StepState{{Step: 0, Active: sortedLabels(g, active)}},
	}
	result.PeakActive = len(active)

	for step := 1; step <= cfg.Steps; step++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		next := advance(g, active, cfg.InhibitionThreshold)
		labels := sortedLabels(g, next)

		if tracker != nil {
			for _, label := range labels {
				tracker.RecordFiring(label, step)
			}
		}

		result.Steps = append(result.Steps, StepState{Step: step, Active: labels})
		if len(next) > result.PeakActive {
			result.PeakActive = len(next)
		}
		if len(next) == 0 {
			result.Silent = true
			break
		}
		active = next
	}

	return result, nil
}

// advance computes one synchronous update of the active set.
func advance(g *connectome.Graph, active map[int64]bool, inhibitionThreshold int) map[int64]bool {
	next := make(map[int64]bool)

	nodes := g.Nodes()
	for nodes.Next() {
		id := nodes.Node().ID()

		excitatory, inhibitory := 0, 0
		preds := g.To(id)
		for preds.Next() {
			pid := preds.Node().ID()
			if !active[pid] {
				continue
			}
			syn := g.WeightedEdge(pid, id).(*connectome.Synapse)
			if syn.Kind == connectome.Inhibitory {
				inhibitory++
			} else {
				excitatory++
			}
		}

		if excitatory >= 1 && inhibitory < inhibitionThreshold {
			next[id] = true
		}
	}

	return next
}

func initialActive(g *connectome.Graph, cfg Config) (map[int64]bool, error) {
	active := make(map[int64]bool)

	if len(cfg.InitialActive) > 0 {
		for _, label := range cfg.InitialActive {
			r, ok := g.RegionByLabel(label)
			if !ok {
				return nil, fmt.Errorf("initial region not in graph: %s", label)
			}
			active[r.ID()] = true
		}
		return active, nil
	}

	regions := g.Regions()
	n := int(float64(len(regions)) * cfg.ActivationRate)
	if n < 1 && len(regions) > 0 {
		n = 1
	}

	rng := rand.New(rand.NewSource(cfg.Seed)) // #nosec G404 -- reproducible science, not crypto
	rng.Shuffle(len(regions), func(i, j int) { regions[i], regions[j] = regions[j], regions[i] })
	for _, r := range regions[:n] {
		active[r.ID()] = true
	}
	return active, nil
}

func sortedLabels(g *connectome.Graph, active map[int64]bool) []string {
	labels := make([]string, 0, len(active))
	for id := range active {
		labels = append(labels, g.Node(id).(*connectome.Region).Label)
	}
	sort.Strings(labels)
	return labels
}
