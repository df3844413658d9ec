// Package ports defines the interfaces that the graph, state, and
// evaluation packages program against, so that concrete actors and
// concrete graph views can be swapped in without the core depending on
// their packages. This mirrors the dependency-inversion role the teacher
// repo gives its own ports package, though the interfaces themselves are
// shaped by the port-graph domain rather than the pipeline/unit domain.
package ports

import "context"

// Actor is the unit of computation a vertex may own. The engine treats
// Invoke as pure over its inputs: given the same inputs it is expected
// to produce the same outputs, which is what makes lazy re-evaluation
// sound. Nothing stops an actor from reading external state inside
// Invoke (a clock, a file, a network call); the engine only ever
// observes its declared outputs.
type Actor interface {
	// Inputs returns this actor's input local keys in the order
	// arguments must be collected and passed to Invoke.
	Inputs() []string

	// Outputs returns this actor's output local keys in the order
	// Invoke's result must be zipped against.
	Outputs() []string

	// Invoke runs the actor. len(out) must equal len(a.Outputs()); ctx
	// carries no engine-imposed cancellation but may be honored by an
	// actor that performs its own I/O.
	Invoke(ctx context.Context, in []any) (out []any, err error)

	// IsLazy reports whether lazy evaluation may skip re-invoking this
	// actor when none of its inputs are newer than its last evaluation.
	// An actor with side effects that must run on every execution
	// (regardless of whether inputs changed) should return false.
	IsLazy() bool

	// Priority orders leaf selection at the start of an evaluation:
	// higher priority leaves are visited first. Ties break on insertion
	// order of vertex ids.
	Priority() int

	// ID identifies this actor's implementation, conventionally
	// "module:name". The engine preserves but never interprets it; a
	// graph configuration's actor registry is keyed by actor type, not
	// by ID.
	ID() string
}
