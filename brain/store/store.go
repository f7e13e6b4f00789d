package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested run ID or checkpoint ID does not exist.
var ErrNotFound = errors.New("not found")

// Store provides persistence for pipeline state and checkpoints.
//
// It enables:
//   - Step-by-step state persistence during a pipeline run
//   - Latest state retrieval for resumption
//   - Named checkpoint save/load (e.g. "after-process" before re-running
//     analysis with a different cycle bound)
//
// Implementations:
//   - In-memory storage (memory.go, for tests and one-shot runs)
//   - SQLite (sqlite.go, single-file local persistence)
//   - MySQL (mysql.go, shared lab deployments)
//
// Type parameter S is the state type to persist.
type Store[S any] interface {
	// SaveStep persists the state after a stage execution step.
	// Each step is identified by runID + step number.
	SaveStep(ctx context.Context, runID string, step int, stage string, state S) error

	// LoadLatest retrieves the most recent state for a given run.
	// Returns ErrNotFound if runID doesn't exist.
	LoadLatest(ctx context.Context, runID string) (state S, step int, err error)

	// SaveCheckpoint creates a named snapshot of pipeline state.
	SaveCheckpoint(ctx context.Context, cpID string, state S, step int) error

	// LoadCheckpoint retrieves a previously saved checkpoint.
	// Returns ErrNotFound if cpID doesn't exist.
	LoadCheckpoint(ctx context.Context, cpID string) (state S, step int, err error)
}

// StepRecord represents a single execution step in the run history.
// Used internally by Store implementations to track step-by-step progression.
type StepRecord[S any] struct {
	// Step is the sequential step number (1-indexed).
	Step int

	// Stage identifies which pipeline stage produced this state.
	Stage string

	// State is the pipeline state after this step completed.
	State S
}

// Checkpoint represents a named snapshot of pipeline state.
type Checkpoint[S any] struct {
	// ID is the unique checkpoint identifier.
	ID string

	// State is the snapshotted pipeline state.
	State S

	// Step is the step number when this checkpoint was created.
	Step int
}
