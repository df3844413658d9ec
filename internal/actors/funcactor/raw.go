// Package funcactor adapts plain Go functions into ports.Actor
// implementations, grounded in the original's RawFuncNode/FuncNode
// (original_source/src/openalea/workflow/func_node.py). Go cannot
// recover a compiled function's parameter names the way CPython's
// inspect.getargspec can from a live function object, so Raw requires
// the caller to supply the input/output key lists explicitly — the
// documented boundary-of-scope narrowing from SPEC_FULL.md §1/§11.
package funcactor

import (
	"context"

	"github.com/ahrav/portflow/internal/ports"
)

// Func is the shape every Raw actor wraps.
type Func func(ctx context.Context, in []any) ([]any, error)

var _ ports.Actor = (*Raw)(nil)

// Raw wraps a Func plus explicit input/output key lists, an IsLazy flag,
// and a priority.
type Raw struct {
	id      string
	inputs  []string
	outputs []string
	fn      Func
	lazy    bool
	prio    int
}

// RawOption configures a Raw actor at construction.
type RawOption func(*Raw)

// WithLazy overrides the default IsLazy()==true.
func WithLazy(lazy bool) RawOption { return func(r *Raw) { r.lazy = lazy } }

// WithPriority overrides the default Priority()==0.
func WithPriority(p int) RawOption { return func(r *Raw) { r.prio = p } }

// NewRaw returns a Raw actor identified by id, with the given input and
// output key lists, invoking fn.
func NewRaw(id string, inputs, outputs []string, fn Func, opts ...RawOption) *Raw {
	r := &Raw{id: id, inputs: inputs, outputs: outputs, fn: fn, lazy: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Raw) Inputs() []string  { return r.inputs }
func (r *Raw) Outputs() []string { return r.outputs }
func (r *Raw) IsLazy() bool      { return r.lazy }
func (r *Raw) Priority() int     { return r.prio }
func (r *Raw) ID() string        { return r.id }

func (r *Raw) Invoke(ctx context.Context, in []any) ([]any, error) { return r.fn(ctx, in) }
