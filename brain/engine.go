package brain

import (
	"context"
	"sync"
	"time"

	"github.com/neurolab/braincycle-go/brain/emit"
	"github.com/neurolab/braincycle-go/brain/store"
)

// Engine orchestrates stateful pipeline execution with checkpointing support.
//
// The Engine is the core runtime that:
//   - Manages pipeline topology (stages and edges)
//   - Executes stages in sequence, one per step
//   - Merges state updates via the reducer
//   - Persists state at each step via the store
//   - Emits observability events via the emitter
//   - Enforces execution limits (MaxSteps, StageTimeout, Retry)
//   - Supports checkpoint save/resume
//
// A stage failure halts the run and surfaces the error; downstream
// stages never execute on bad inputs.
//
// Type parameter S is the state type shared across the pipeline.
//
// Example:
//
//	reducer := func(prev, delta State) State {
//	    if delta.CycleStats != nil {
//	        prev.CycleStats = delta.CycleStats
//	    }
//	    return prev
//	}
//
//	st := store.NewMemStore[State]()
//	emitter := emit.NewLogEmitter(os.Stdout, false)
//
//	engine := New(reducer, st, emitter, Options{MaxSteps: 20})
//	engine.Add("process", processStage)
//	engine.Add("analyze", analyzeStage)
//	engine.Add("visualize", visualizeStage)
//	engine.StartAt("process")
//	engine.Connect("process", "analyze", nil)
//	engine.Connect("analyze", "visualize", nil)
//
//	final, err := engine.Run(ctx, "run-001", State{DataDir: "data"})
type Engine[S any] struct {
	mu sync.RWMutex

	// reducer merges partial state updates deterministically
	reducer Reducer[S]

	// stages maps stage names to Stage implementations
	stages map[string]Stage[S]

	// edges defines conditional transitions between stages
	edges []Edge[S]

	// startStage is the entry point for pipeline execution
	startStage string

	// store persists pipeline state and checkpoints
	store store.Store[S]

	// emitter receives observability events
	emitter emit.Emitter

	// opts contains execution configuration
	opts Options
}

// Reducer merges a stage's partial state update into the previous state.
//
// Reducers must be deterministic: given the same prev and delta they
// always produce the same result.
type Reducer[S any] func(prev, delta S) S

// New creates a new Engine with the given configuration.
//
// Parameters:
//   - reducer: Function to merge partial state updates (required for Run)
//   - st: Persistence backend for state and checkpoints (required for Run)
//   - emitter: Observability event receiver (optional, can be nil)
//   - opts: Execution configuration
//
// The constructor does not validate all parameters to allow flexible
// initialization. Validation occurs when Run() is called.
func New[S any](reducer Reducer[S], st store.Store[S], emitter emit.Emitter, opts Options) *Engine[S] {
	return &Engine[S]{
		reducer: reducer,
		stages:  make(map[string]Stage[S]),
		edges:   make([]Edge[S], 0),
		store:   st,
		emitter: emitter,
		opts:    opts,
	}
}

// NewWithOptions creates a new Engine configured via functional options.
//
// Returns an error if any option is invalid (e.g. a retry policy with
// MaxAttempts < 1).
func NewWithOptions[S any](reducer Reducer[S], st store.Store[S], emitter emit.Emitter, options ...Option) (*Engine[S], error) {
	cfg := &engineConfig{}
	for _, opt := range options {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return New(reducer, st, emitter, cfg.opts), nil
}

// Add registers a stage in the pipeline graph.
//
// Stages must be added before calling StartAt or Run. Stage names must
// be unique within the pipeline.
//
// Returns error if:
//   - name is empty
//   - stage is nil
//   - a stage with this name already exists
func (e *Engine[S]) Add(name string, stage Stage[S]) error {
	if name == "" {
		return &EngineError{Message: "stage name cannot be empty"}
	}
	if stage == nil {
		return &EngineError{Message: "stage cannot be nil"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.stages[name]; exists {
		return &EngineError{
			Message: "duplicate stage name: " + name,
			Code:    "DUPLICATE_STAGE",
		}
	}

	e.stages[name] = stage
	return nil
}

// StartAt sets the entry point for pipeline execution.
//
// The stage must have been registered via Add() before calling StartAt.
func (e *Engine[S]) StartAt(name string) error {
	if name == "" {
		return &EngineError{Message: "start stage name cannot be empty"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.stages[name]; !exists {
		return &EngineError{
			Message: "start stage does not exist: " + name,
			Code:    "STAGE_NOT_FOUND",
		}
	}

	e.startStage = name
	return nil
}

// Connect creates an edge between two stages.
//
// Edges define possible transitions in the pipeline graph. They can be:
//   - Unconditional: Always traverse (predicate = nil)
//   - Conditional: Only traverse if predicate returns true
//
// Explicit routing via StageResult.Route takes precedence over edges.
// Stage existence is not validated (lazy validation) to allow flexible
// construction order.
func (e *Engine[S]) Connect(from, to string, predicate Predicate[S]) error {
	if from == "" {
		return &EngineError{Message: "from stage name cannot be empty"}
	}
	if to == "" {
		return &EngineError{Message: "to stage name cannot be empty"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.edges = append(e.edges, Edge[S]{
		From: from,
		To:   to,
		When: predicate,
	})
	return nil
}

// Run executes the pipeline from start to completion or error.
//
// Pipeline execution:
//  1. Validates engine configuration (reducer, store, start stage)
//  2. Executes stages starting from the start stage
//  3. Follows routing decisions (Stop, Goto) and edges
//  4. Applies reducer to merge state updates
//  5. Persists state after each stage
//  6. Emits observability events
//  7. Enforces MaxSteps, StageTimeout and Retry
//  8. Respects context cancellation between stages
//
// Returns the final state after completion, or an error if validation
// fails, a stage fails, or limits are exceeded.
func (e *Engine[S]) Run(ctx context.Context, runID string, initial S) (S, error) {
	var zero S

	if err := e.validate(); err != nil {
		return zero, err
	}

	e.mu.RLock()
	start := e.startStage
	e.mu.RUnlock()

	e.emit(emit.Event{RunID: runID, Msg: "run_start", Meta: map[string]interface{}{"start_stage": start}})

	final, err := e.runLoop(ctx, runID, start, initial)
	if err != nil {
		e.emit(emit.Event{RunID: runID, Msg: "run_error", Meta: map[string]interface{}{"error": err.Error()}})
		return zero, err
	}

	e.emit(emit.Event{RunID: runID, Msg: "run_complete"})
	return final, nil
}

// validate checks that the engine is runnable.
func (e *Engine[S]) validate() error {
	if e.reducer == nil {
		return &EngineError{
			Message: "reducer is required",
			Code:    "MISSING_REDUCER",
		}
	}
	if e.store == nil {
		return &EngineError{
			Message: "store is required",
			Code:    "MISSING_STORE",
		}
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.startStage == "" {
		return &EngineError{
			Message: "start stage not set (call StartAt before Run)",
			Code:    "NO_START_STAGE",
		}
	}
	if _, exists := e.stages[e.startStage]; !exists {
		return &EngineError{
			Message: "start stage does not exist: " + e.startStage,
			Code:    "STAGE_NOT_FOUND",
		}
	}
	return nil
}

// runLoop drives stage execution from the given stage until a terminal
// route, a routing dead end, or an error.
func (e *Engine[S]) runLoop(ctx context.Context, runID, startStage string, initial S) (S, error) {
	var zero S

	currentState := initial
	currentStage := startStage
	step := 0

	for {
		step++

		if e.opts.MaxSteps > 0 && step > e.opts.MaxSteps {
			return zero, &EngineError{
				Message: "pipeline exceeded MaxSteps limit",
				Code:    "MAX_STEPS_EXCEEDED",
				Err:     ErrMaxStepsExceeded,
			}
		}

		// Check context cancellation between stages
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		e.mu.RLock()
		stageImpl, exists := e.stages[currentStage]
		e.mu.RUnlock()

		if !exists {
			return zero, &EngineError{
				Message: "stage not found during execution: " + currentStage,
				Code:    "STAGE_NOT_FOUND",
			}
		}

		e.emit(emit.Event{RunID: runID, Step: step, Stage: currentStage, Msg: "stage_start"})

		result, err := e.executeStage(ctx, runID, step, currentStage, stageImpl, currentState)
		if err != nil {
			e.emit(emit.Event{
				RunID: runID,
				Step:  step,
				Stage: currentStage,
				Msg:   "stage_error",
				Meta:  map[string]interface{}{"error": err.Error()},
			})
			return zero, err
		}

		currentState = e.reducer(currentState, result.Delta)

		// Persist state after stage execution
		if err := e.store.SaveStep(ctx, runID, step, currentStage, currentState); err != nil {
			return zero, &EngineError{
				Message: "failed to save step: " + err.Error(),
				Code:    "STORE_ERROR",
			}
		}

		e.emit(emit.Event{RunID: runID, Step: step, Stage: currentStage, Msg: "stage_end"})

		if result.Route.Terminal {
			return currentState, nil
		}

		if result.Route.To != "" {
			currentStage = result.Route.To
			continue
		}

		// No explicit route: fall back to edge-based routing
		nextStage := e.evaluateEdges(currentStage, currentState)
		if nextStage == "" {
			return zero, &EngineError{
				Message: "no valid route from stage: " + currentStage,
				Code:    "NO_ROUTE",
			}
		}

		currentStage = nextStage
	}
}

// executeStage runs a single stage, applying the per-stage timeout and
// retrying transient errors under the configured policy.
func (e *Engine[S]) executeStage(ctx context.Context, runID string, step int, name string, stage Stage[S], state S) (StageResult[S], error) {
	maxAttempts := e.opts.Retry.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var result StageResult[S]
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if e.opts.Metrics != nil {
				e.opts.Metrics.IncrementRetries(runID, name)
			}
			e.emit(emit.Event{
				RunID: runID,
				Step:  step,
				Stage: name,
				Msg:   "stage_retry",
				Meta:  map[string]interface{}{"attempt": attempt},
			})

			delay := computeBackoff(attempt-1, e.opts.Retry.BaseDelay, e.opts.Retry.MaxDelay, nil)
			if delay > 0 {
				select {
				case <-ctx.Done():
					return result, ctx.Err()
				case <-time.After(delay):
				}
			}
		}

		result = e.runStageOnce(ctx, name, stage, state)
		status := "success"
		if result.Err != nil {
			status = "error"
		}
		if e.opts.Metrics != nil {
			e.opts.Metrics.RecordStage(runID, name, result.latency, status)
		}

		if result.Err == nil {
			return result, nil
		}
		if !isRetryable(result.Err) {
			return result, result.Err
		}
	}

	return result, &EngineError{
		Message: "stage " + name + " failed after retries: " + result.Err.Error(),
		Code:    "MAX_ATTEMPTS_EXCEEDED",
		Err:     ErrMaxAttemptsExceeded,
	}
}

// runStageOnce executes a single stage attempt under the stage timeout.
func (e *Engine[S]) runStageOnce(ctx context.Context, name string, stage Stage[S], state S) StageResult[S] {
	stageCtx := ctx
	if e.opts.StageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, e.opts.StageTimeout)
		defer cancel()
	}

	start := time.Now()
	result := stage.Run(stageCtx, state)
	result.latency = time.Since(start)
	return result
}

// evaluateEdges finds the first matching edge from the given stage based
// on predicates.
//
// Evaluates outgoing edges in registration order:
//  1. If edge has nil predicate (unconditional), always matches
//  2. If edge predicate returns true for current state, matches
//  3. First matching edge wins (priority order)
//
// Returns empty string if no edges match.
func (e *Engine[S]) evaluateEdges(fromStage string, state S) string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, edge := range e.edges {
		if edge.From != fromStage {
			continue
		}
		if edge.When == nil {
			return edge.To
		}
		if edge.When(state) {
			return edge.To
		}
	}

	return ""
}

// SaveCheckpoint creates a named checkpoint for the most recent state of a run.
//
// Checkpoints enable re-running downstream stages without repeating
// upstream work, e.g. checkpoint "after-process" once and re-run the
// analyze stage with different cycle bounds from it.
func (e *Engine[S]) SaveCheckpoint(ctx context.Context, runID string, cpID string) error {
	latestState, latestStep, err := e.store.LoadLatest(ctx, runID)
	if err != nil {
		return &EngineError{
			Message: "cannot create checkpoint: run state not found: " + err.Error(),
			Code:    "RUN_NOT_FOUND",
		}
	}

	if err := e.store.SaveCheckpoint(ctx, cpID, latestState, latestStep); err != nil {
		return &EngineError{
			Message: "failed to save checkpoint: " + err.Error(),
			Code:    "CHECKPOINT_SAVE_FAILED",
		}
	}

	e.emit(emit.Event{
		RunID: runID,
		Step:  latestStep,
		Msg:   "checkpoint saved: " + cpID,
		Meta:  map[string]interface{}{"checkpoint_id": cpID},
	})

	return nil
}

// ResumeFromCheckpoint resumes pipeline execution from a saved checkpoint.
//
// The resume operation loads the checkpoint state, starts a new run with
// it as the initial state, and begins execution at the specified stage.
//
// Example:
//
//	_, _ = engine.Run(ctx, "run-001", initial)
//	_ = engine.SaveCheckpoint(ctx, "run-001", "after-process")
//
//	// Re-run analysis with a different cycle bound
//	final, err := engine.ResumeFromCheckpoint(ctx, "after-process", "run-002", "analyze")
func (e *Engine[S]) ResumeFromCheckpoint(ctx context.Context, cpID string, newRunID string, startStage string) (S, error) {
	var zero S

	checkpointState, checkpointStep, err := e.store.LoadCheckpoint(ctx, cpID)
	if err != nil {
		return zero, &EngineError{
			Message: "cannot resume: checkpoint not found: " + err.Error(),
			Code:    "CHECKPOINT_NOT_FOUND",
		}
	}

	if e.reducer == nil {
		return zero, &EngineError{
			Message: "reducer is required",
			Code:    "MISSING_REDUCER",
		}
	}
	if startStage == "" {
		return zero, &EngineError{
			Message: "start stage not specified for resume",
			Code:    "NO_START_STAGE",
		}
	}

	e.mu.RLock()
	_, exists := e.stages[startStage]
	e.mu.RUnlock()

	if !exists {
		return zero, &EngineError{
			Message: "resume start stage does not exist: " + startStage,
			Code:    "STAGE_NOT_FOUND",
		}
	}

	e.emit(emit.Event{
		RunID: newRunID,
		Stage: startStage,
		Msg:   "resuming from checkpoint: " + cpID,
		Meta: map[string]interface{}{
			"checkpoint_id":   cpID,
			"checkpoint_step": checkpointStep,
		},
	})

	final, err := e.runLoop(ctx, newRunID, startStage, checkpointState)
	if err != nil {
		e.emit(emit.Event{RunID: newRunID, Msg: "run_error", Meta: map[string]interface{}{"error": err.Error()}})
		return zero, err
	}

	e.emit(emit.Event{RunID: newRunID, Msg: "run_complete"})
	return final, nil
}

// emit sends an event if an emitter is configured.
func (e *Engine[S]) emit(event emit.Event) {
	if e.emitter != nil {
		e.emitter.Emit(event)
	}
}
