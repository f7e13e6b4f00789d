package emit

// Emitter receives and processes observability events from pipeline execution.
//
// Emitters enable pluggable observability backends:
//   - Logging: stdout, files, zap
//   - Distributed tracing: OpenTelemetry
//   - In-memory capture for tests and post-run reports
//
// Implementations should be:
//   - Non-blocking: Avoid slowing down pipeline execution
//   - Thread-safe: May be called concurrently from parallel file processing
//   - Resilient: Handle failures gracefully (don't crash the run)
type Emitter interface {
	// Emit sends an observability event to the configured backend.
	//
	// Emit should not block pipeline execution and should not panic.
	// Errors are handled internally by the implementation.
	Emit(event Event)
}

// MultiEmitter fans events out to several emitters in order.
//
// Useful when a run should both log to stdout and buffer events for the
// end-of-run report.
type MultiEmitter struct {
	emitters []Emitter
}

// NewMultiEmitter creates an emitter that forwards each event to every
// emitter in the given list. Nil entries are skipped.
func NewMultiEmitter(emitters ...Emitter) *MultiEmitter {
	out := make([]Emitter, 0, len(emitters))
	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}
	return &MultiEmitter{emitters: out}
}

// Emit forwards the event to all configured emitters.
func (m *MultiEmitter) Emit(event Event) {
	for _, e := range m.emitters {
		e.Emit(event)
	}
}
