package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/neurolab/braincycle-go/brain"
	"github.com/neurolab/braincycle-go/brain/graphml"
)

// ProcessStage loads every GraphML file under DataDir, standardizes it
// and writes the cleaned graph to ResultsDir.
//
// Standardization: region labels gain the canonical prefix, missing edge
// weights default to 1.0, and synapses below the weight threshold are
// pruned. Undirected input is rejected with a hint to run the fix
// command; silently symmetrizing someone's data is worse than failing.
type ProcessStage struct {
	cfg     Config
	log     *zap.Logger
	metrics *brain.PrometheusMetrics
}

// NewProcessStage builds the process stage. logger must not be nil;
// metrics may be.
func NewProcessStage(cfg Config, logger *zap.Logger, metrics *brain.PrometheusMetrics) *ProcessStage {
	return &ProcessStage{cfg: cfg, log: logger.Named("process"), metrics: metrics}
}

type processedGraph struct {
	file             string
	renamed          int
	defaultedWeights int
	selfLoops        int
	pruned           int
	regions          int
	synapses         int
}

// Run implements brain.Stage.
func (p *ProcessStage) Run(ctx context.Context, state State) brain.StageResult[State] {
	fail := func(err error) brain.StageResult[State] {
		return brain.StageResult[State]{Err: &brain.StageError{
			Message: err.Error(),
			Code:    "PROCESS_FAILED",
			Stage:   "process",
			Cause:   err,
		}}
	}

	inputs, err := filepath.Glob(filepath.Join(p.cfg.DataDir, "*.graphml"))
	if err != nil {
		return fail(fmt.Errorf("scan data dir: %w", err))
	}
	if len(inputs) == 0 {
		return fail(fmt.Errorf("no .graphml files in %s", p.cfg.DataDir))
	}
	sort.Strings(inputs)

	if err := os.MkdirAll(p.cfg.ResultsDir, 0o755); err != nil {
		return fail(fmt.Errorf("create results dir: %w", err))
	}

	p.log.Info("processing connectome files",
		zap.Int("files", len(inputs)),
		zap.String("data_dir", p.cfg.DataDir))

	var (
		mu        sync.Mutex
		processed []processedGraph
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, input := range inputs {
		input := input
		g.Go(func() error {
			pg, err := p.processFile(ctx, input)
			if err != nil {
				return err
			}
			mu.Lock()
			processed = append(processed, *pg)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fail(err)
	}

	sort.Slice(processed, func(i, j int) bool { return processed[i].file < processed[j].file })

	delta := State{
		DataDir:    p.cfg.DataDir,
		ResultsDir: p.cfg.ResultsDir,
		FiguresDir: p.cfg.FiguresDir,
	}
	totalRegions, totalSynapses := 0, 0
	for _, pg := range processed {
		delta.GraphFiles = append(delta.GraphFiles, pg.file)
		delta.RenamedRegions += pg.renamed
		delta.DefaultedWeights += pg.defaultedWeights
		delta.PrunedSynapses += pg.pruned
		totalRegions += pg.regions
		totalSynapses += pg.synapses
		if pg.defaultedWeights > 0 {
			delta.Warnings = append(delta.Warnings,
				fmt.Sprintf("%s: %d synapses had no weight, defaulted to 1.0", pg.file, pg.defaultedWeights))
		}
		if pg.selfLoops > 0 {
			delta.Warnings = append(delta.Warnings,
				fmt.Sprintf("%s: skipped %d self-loop synapses", pg.file, pg.selfLoops))
		}
	}
	if p.metrics != nil {
		p.metrics.SetGraphSize(totalRegions, totalSynapses)
	}

	p.log.Info("processing complete",
		zap.Int("graphs", len(processed)),
		zap.Int("renamed_regions", delta.RenamedRegions),
		zap.Int("pruned_synapses", delta.PrunedSynapses))

	return brain.StageResult[State]{Delta: delta}
}

func (p *ProcessStage) processFile(ctx context.Context, input string) (*processedGraph, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	f, err := os.Open(input)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", input, err)
	}
	defer f.Close()

	g, report, err := graphml.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", input, err)
	}
	if !report.Directed {
		return nil, fmt.Errorf("%s is undirected; cycle analysis needs directed graphs (run the fix command to repair)", input)
	}

	std := g.Standardize()
	pruned := 0
	if p.cfg.WeightThreshold > 0 {
		pruned = g.PruneWeakEdges(p.cfg.WeightThreshold)
	}

	outName := filepath.Base(input)
	out, err := os.Create(filepath.Join(p.cfg.ResultsDir, outName))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", outName, err)
	}
	defer out.Close()

	if err := graphml.Encode(out, g); err != nil {
		return nil, fmt.Errorf("write %s: %w", outName, err)
	}

	p.log.Debug("standardized graph",
		zap.String("file", outName),
		zap.Int("regions", g.Order()),
		zap.Int("synapses", g.Size()),
		zap.Int("renamed", len(std.RenamedRegions)))

	return &processedGraph{
		file:             outName,
		renamed:          len(std.RenamedRegions),
		defaultedWeights: report.DefaultedWeights,
		selfLoops:        report.SelfLoops,
		pruned:           pruned,
		regions:          g.Order(),
		synapses:         g.Size(),
	}, nil
}
