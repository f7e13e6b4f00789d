package brain

import "time"

// Options configures Engine execution behavior.
//
// Zero values are valid - the Engine will use sensible defaults.
type Options struct {
	// MaxSteps limits pipeline execution to prevent infinite loops.
	// If 0, no limit is enforced.
	MaxSteps int

	// Retry controls retries of transient stage errors.
	// The zero value disables retries.
	Retry RetryPolicy

	// StageTimeout bounds each stage execution via context deadline.
	// If 0, stages only inherit the run context. The analyze stage in
	// particular can run away on dense connectomes without a bound.
	StageTimeout time.Duration

	// Metrics receives stage execution observations. Optional.
	Metrics *PrometheusMetrics
}

// Option is a functional option for configuring an Engine.
//
// Functional options provide a clean, extensible API for engine
// configuration. They can be mixed freely and applied in order:
//
//	engine, err := brain.NewWithOptions(
//	    reducer, st, emitter,
//	    brain.WithMaxSteps(20),
//	    brain.WithStageTimeout(60*time.Second),
//	)
type Option func(*engineConfig) error

// engineConfig collects options before applying them to an Engine.
// This indirection allows validation and composition of options.
type engineConfig struct {
	opts Options
}

// WithMaxSteps limits pipeline execution to prevent infinite loops.
//
// Default: 0 (no limit).
//
// The standard process → analyze → visualize pipeline takes 3 steps; a
// small multiple of the stage count is a reasonable bound for pipelines
// with conditional loops.
//
// When MaxSteps is exceeded, Run() returns an EngineError with code
// "MAX_STEPS_EXCEEDED".
func WithMaxSteps(n int) Option {
	return func(cfg *engineConfig) error {
		cfg.opts.MaxSteps = n
		return nil
	}
}

// WithRetryPolicy enables retries of transient stage errors.
//
// The policy is validated when the option is applied; an invalid policy
// (MaxAttempts < 1, MaxDelay < BaseDelay) fails engine construction.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(cfg *engineConfig) error {
		if err := policy.Validate(); err != nil {
			return err
		}
		cfg.opts.Retry = policy
		return nil
	}
}

// WithStageTimeout bounds each stage execution with a context deadline.
//
// Default: 0 (no per-stage deadline).
//
// Cycle enumeration is exponential in the worst case; the original
// analysis tooling bounded it to a wall-clock minute. A stage hitting
// the deadline observes ctx.Err() == context.DeadlineExceeded and
// decides whether partial output is acceptable.
func WithStageTimeout(d time.Duration) Option {
	return func(cfg *engineConfig) error {
		cfg.opts.StageTimeout = d
		return nil
	}
}

// WithMetrics attaches a PrometheusMetrics collector to the engine.
//
// The engine records stage latencies, outcomes and retries; domain
// stages additionally record graph sizes and cycle counts through the
// same collector.
func WithMetrics(metrics *PrometheusMetrics) Option {
	return func(cfg *engineConfig) error {
		cfg.opts.Metrics = metrics
		return nil
	}
}
