package emit

// Event represents an observability event emitted during pipeline execution.
//
// Events provide insight into pipeline behavior:
//   - Stage execution start/complete
//   - Graph processing progress (files, regions, synapses)
//   - Cycle detection milestones and timeouts
//   - Errors and warnings
//   - Checkpoint operations
//
// Events are emitted to an Emitter which can:
//   - Log to stdout/stderr
//   - Send to OpenTelemetry
//   - Feed a zap logger
//   - Buffer for post-run analysis
type Event struct {
	// RunID identifies the pipeline run that emitted this event.
	RunID string

	// Step is the sequential step number in the run (1-indexed).
	// Zero for run-level events (start, complete, error).
	Step int

	// Stage identifies which pipeline stage emitted this event.
	// Empty string for run-level events.
	Stage string

	// Msg is a human-readable description of the event.
	Msg string

	// Meta contains additional structured data specific to this event.
	// Common keys:
	//   - "duration_ms": Stage duration in milliseconds
	//   - "error": Error details
	//   - "file": GraphML file being processed
	//   - "cycles": Number of cycles found
	//   - "checkpoint_id": Checkpoint identifier
	Meta map[string]interface{}
}
