package brain

import (
	"context"
	"time"
)

// Stage represents a processing unit in the analysis pipeline.
// It receives state of type S, performs computation, and returns a StageResult.
//
// Stages are the building blocks of braincycle pipelines. Each stage can:
//   - Access the current pipeline state
//   - Perform computation (load graphs, detect cycles, render figures)
//   - Return state modifications via Delta
//   - Control routing via Route
//   - Report errors
//
// Type parameter S is the state type shared across the pipeline.
type Stage[S any] interface {
	// Run executes the stage's logic with the given context and state.
	// It returns a StageResult containing state changes, routing decisions,
	// and any error encountered.
	Run(ctx context.Context, state S) StageResult[S]
}

// StageResult represents the output of a stage execution.
type StageResult[S any] struct {
	// Delta is the partial state update produced by this stage.
	// It will be merged with the current state using the configured reducer.
	Delta S

	// Route specifies the next step in pipeline execution.
	// Use Stop() for terminal stages, Goto(name) for explicit routing,
	// or leave zero to fall back to edge-based routing.
	Route Next

	// Err contains any error that occurred during stage execution.
	// A non-nil error halts the pipeline: unlike a shell script that
	// barrels on past a failed step, downstream stages never run on
	// bad inputs.
	Err error

	// latency is filled in by the engine for metrics recording.
	latency time.Duration
}

// Next specifies the next step in pipeline execution after a stage completes.
//
// It supports three routing modes:
//   - Terminal: Stop execution (Terminal = true)
//   - Single: Go to a specific stage (To = "analyze")
//   - Zero value: Fall back to edge-based routing
type Next struct {
	// To specifies the next stage to execute.
	// Mutually exclusive with Terminal.
	To string

	// Terminal indicates pipeline execution should stop.
	Terminal bool
}

// Stop returns a Next that terminates pipeline execution.
func Stop() Next {
	return Next{Terminal: true}
}

// Goto returns a Next that routes to the specified stage.
func Goto(stage string) Next {
	return Next{To: stage}
}

// StageFunc is a function adapter that implements the Stage interface.
// It allows using plain functions as stages without creating custom types.
//
// Example:
//
//	analyze := StageFunc[State](func(ctx context.Context, s State) StageResult[State] {
//	    return StageResult[State]{
//	        Delta: State{CyclesFound: 42},
//	        Route: Stop(),
//	    }
//	})
type StageFunc[S any] func(ctx context.Context, state S) StageResult[S]

// Run implements the Stage interface for StageFunc.
func (f StageFunc[S]) Run(ctx context.Context, state S) StageResult[S] {
	return f(ctx, state)
}

// StageError represents an error that occurred during stage execution.
// It provides structured error information for observability and retry
// classification.
type StageError struct {
	// Message is the human-readable error description.
	Message string

	// Code is a machine-readable error code for programmatic handling.
	Code string

	// Stage identifies which stage produced this error.
	Stage string

	// Transient marks errors worth retrying (e.g. a results directory
	// briefly locked by another process). Permanent errors such as a
	// malformed GraphML file are not retried.
	Transient bool

	// Cause is the underlying error that caused this StageError.
	Cause error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	if e.Stage != "" {
		return "stage " + e.Stage + ": " + e.Message
	}
	return e.Message
}

// Unwrap returns the underlying cause error for error wrapping support.
func (e *StageError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the error is transient.
func (e *StageError) Retryable() bool {
	return e.Transient
}
