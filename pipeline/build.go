package pipeline

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/neurolab/braincycle-go/brain"
	"github.com/neurolab/braincycle-go/brain/emit"
	"github.com/neurolab/braincycle-go/brain/store"
)

// Stage names in the standard pipeline.
const (
	StageProcess   = "process"
	StageAnalyze   = "analyze"
	StageVisualize = "visualize"
)

// mysqlDSNEnv names the environment variable carrying the MySQL DSN for
// the mysql store backend.
const mysqlDSNEnv = "BRAINCYCLE_MYSQL_DSN"

// Build assembles the standard three-stage pipeline:
//
//	process -> analyze -> visualize
//
// Each stage runs exactly once per run, in that order, and any stage
// failure halts the run. The returned engine is ready for Run; the
// caller owns the store's lifetime via the returned closer (a no-op for
// the memory backend).
func Build(cfg Config, logger *zap.Logger, emitter emit.Emitter, metrics *brain.PrometheusMetrics, runID string) (*brain.Engine[State], func() error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	st, closer, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	engine, err := brain.NewWithOptions(Reduce, st, emitter,
		brain.WithMaxSteps(10),
		brain.WithMetrics(metrics),
	)
	if err != nil {
		closer()
		return nil, nil, err
	}

	stages := map[string]brain.Stage[State]{
		StageProcess:   NewProcessStage(cfg, logger, metrics),
		StageAnalyze:   NewAnalyzeStage(cfg, logger, metrics, runID),
		StageVisualize: NewVisualizeStage(cfg, logger),
	}
	for name, stage := range stages {
		if err := engine.Add(name, stage); err != nil {
			closer()
			return nil, nil, err
		}
	}

	if err := engine.StartAt(StageProcess); err != nil {
		closer()
		return nil, nil, err
	}
	if err := engine.Connect(StageProcess, StageAnalyze, nil); err != nil {
		closer()
		return nil, nil, err
	}
	if err := engine.Connect(StageAnalyze, StageVisualize, nil); err != nil {
		closer()
		return nil, nil, err
	}

	return engine, closer, nil
}

// openStore creates the configured step store backend.
func openStore(cfg Config) (store.Store[State], func() error, error) {
	switch cfg.Store {
	case "memory":
		return store.NewMemStore[State](), func() error { return nil }, nil

	case "sqlite":
		s, err := store.NewSQLiteStore[State](cfg.StorePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, s.Close, nil

	case "mysql":
		dsn := os.Getenv(mysqlDSNEnv)
		if dsn == "" {
			return nil, nil, fmt.Errorf("mysql store selected but %s is not set", mysqlDSNEnv)
		}
		s, err := store.NewMySQLStore[State](dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open mysql store: %w", err)
		}
		return s, s.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
