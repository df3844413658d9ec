package funcactor

import (
	"context"
	"fmt"
	"reflect"

	"github.com/ahrav/portflow/internal/ports"
)

var errType = reflect.TypeOf((*error)(nil)).Elem()

var _ ports.Actor = (*Reflect)(nil)

// Reflect wraps a Go function value and derives its port list from
// reflect.TypeOf(fn) rather than an explicit key list. The original's
// FuncNode parses the function's source with the ast module to recover
// the names bound in its return statement (e.g. "return c, res" yields
// output ports "c" and "res"); a compiled Go function carries no such
// names, so Reflect falls back to synthesized positional names in0,
// in1, … and out0, out1, …, keeping only the original's other
// contribution: narrowing a raw callable down to a fixed, well-typed
// port arity.
//
// A trailing error return is special-cased exactly as FuncNode
// special-cases its return shape: it becomes the Invoke failure return,
// not an output port, mirroring __call__'s handling of the 'None'
// output_type case for a function that returns nothing but can fail.
type Reflect struct {
	id      string
	fn      reflect.Value
	typ     reflect.Type
	inputs  []string
	outputs []string
	hasErr  bool
	lazy    bool
	prio    int
}

// ReflectOption configures a Reflect actor at construction.
type ReflectOption func(*Reflect)

// WithReflectLazy overrides the default IsLazy()==true.
func WithReflectLazy(lazy bool) ReflectOption { return func(r *Reflect) { r.lazy = lazy } }

// WithReflectPriority overrides the default Priority()==0.
func WithReflectPriority(p int) ReflectOption { return func(r *Reflect) { r.prio = p } }

// NewReflect returns a Reflect actor identified by id, wrapping fn. fn
// must be a func value with no variadic parameters (the original
// rejects *args the same way, directing callers to RawFuncNode
// instead — here, to Raw). At most one return value, and at most one
// trailing error return, is permitted; anything more must be adapted
// into a Raw actor, which accepts any aggregate return shape via a
// bare []any.
func NewReflect(id string, fn any, opts ...ReflectOption) (*Reflect, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, fmt.Errorf("funcactor: fn must be a function, got %T", fn)
	}
	t := v.Type()
	if t.IsVariadic() {
		return nil, fmt.Errorf("funcactor: fn must not be variadic, use Raw instead")
	}

	inputs := make([]string, t.NumIn())
	for i := range inputs {
		inputs[i] = fmt.Sprintf("in%d", i)
	}

	numOut := t.NumOut()
	hasErr := numOut > 0 && t.Out(numOut-1) == errType
	if hasErr {
		numOut--
	}
	if numOut > 1 {
		return nil, fmt.Errorf("funcactor: fn must return at most one value plus a trailing error, use Raw instead")
	}
	outputs := make([]string, numOut)
	for i := range outputs {
		outputs[i] = fmt.Sprintf("out%d", i)
	}

	r := &Reflect{
		id:      id,
		fn:      v,
		typ:     t,
		inputs:  inputs,
		outputs: outputs,
		hasErr:  hasErr,
		lazy:    true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Reflect) Inputs() []string  { return r.inputs }
func (r *Reflect) Outputs() []string { return r.outputs }
func (r *Reflect) IsLazy() bool      { return r.lazy }
func (r *Reflect) Priority() int     { return r.prio }
func (r *Reflect) ID() string        { return r.id }

// Invoke type-checks in against fn's parameter types, calls fn by
// reflection, and splits a trailing error return (if any) out of the
// result slice before returning it.
func (r *Reflect) Invoke(_ context.Context, in []any) ([]any, error) {
	if len(in) != len(r.inputs) {
		return nil, fmt.Errorf("funcactor: %s expects %d inputs, got %d", r.id, len(r.inputs), len(in))
	}

	args := make([]reflect.Value, len(in))
	for i, v := range in {
		want := r.typ.In(i)
		got := reflect.ValueOf(v)
		if !got.IsValid() {
			got = reflect.Zero(want)
		} else if !got.Type().AssignableTo(want) {
			return nil, fmt.Errorf("funcactor: %s input %d: want %s, got %T", r.id, i, want, v)
		}
		args[i] = got
	}

	results := r.fn.Call(args)

	if r.hasErr {
		last := results[len(results)-1]
		results = results[:len(results)-1]
		if err, _ := last.Interface().(error); err != nil {
			return nil, err
		}
	}

	out := make([]any, len(results))
	for i, v := range results {
		out[i] = v.Interface()
	}
	return out, nil
}
