// Package brain provides the pipeline execution engine for braincycle-go.
package brain

// Edge represents a connection between two stages in the pipeline graph.
//
// Edges define the control flow between stages. They can be:
//   - Unconditional: Always traverse (When = nil).
//   - Conditional: Only traverse if predicate returns true (When != nil).
//
// Edges are used during pipeline construction to define possible
// transitions. At runtime, the Engine evaluates predicates to determine
// which edge to follow. Explicit routing via StageResult.Route overrides
// edge-based routing.
//
// Type parameter S is the state type used for predicate evaluation.
type Edge[S any] struct {
	// From is the source stage name.
	From string

	// To is the destination stage name.
	To string

	// When is an optional predicate that determines if this edge should
	// be traversed. If nil, the edge is unconditional.
	When Predicate[S]
}

// Predicate is a function that evaluates state to determine if an edge
// should be traversed.
//
// Predicates enable conditional routing based on pipeline state and
// should be pure functions (deterministic, no side effects).
//
// Common patterns:
//   - Skip visualization when no cycles were found: len(s.Cycles) > 0
//   - Branch on dataset size: s.Regions > 10000
//
// Type parameter S is the state type to evaluate.
type Predicate[S any] func(state S) bool
