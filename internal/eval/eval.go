// Package eval implements the Brute and Lazy evaluation algorithms of
// §4.6: a synchronous depth-first dependency walk that invokes each
// vertex's actor, collecting inputs through a wfstate.State and writing
// outputs back into it.
package eval

import (
	"context"
	"sort"

	"github.com/ahrav/portflow/internal/domain"
	"github.com/ahrav/portflow/internal/env"
	"github.com/ahrav/portflow/internal/portgraph"
	"github.com/ahrav/portflow/internal/wfstate"
)

// nodeEvaluator decides what "evaluate this node" means; Brute and Lazy
// differ only in this policy (§4.6's per-vertex state machine).
type nodeEvaluator func(ctx context.Context, g *portgraph.Graph, state *wfstate.State, ev *env.Environment, vid domain.VID, obs Observer) error

// Options configures a single Eval call.
type Options struct {
	// Observer receives BeforeEval/AfterEval/BeforeNode/AfterNode
	// callbacks; defaults to NopObserver.
	Observer Observer
}

// Brute evaluates the graph (or the subtree rooted at vid, if given),
// always re-invoking every visited actor regardless of staleness
// (§4.6 "Brute evaluation").
func Brute(ctx context.Context, g *portgraph.Graph, state *wfstate.State, ev *env.Environment, vid *domain.VID, opts Options) error {
	return run(ctx, g, state, ev, vid, opts, bruteEvaluateNode)
}

// Lazy evaluates the graph (or the subtree rooted at vid, if given),
// skipping an actor's invocation when it is lazy, was already evaluated
// in an earlier execution, and none of its inputs carry a timestamp
// newer than that earlier evaluation (§4.6 "Lazy evaluation").
func Lazy(ctx context.Context, g *portgraph.Graph, state *wfstate.State, ev *env.Environment, vid *domain.VID, opts Options) error {
	return run(ctx, g, state, ev, vid, opts, lazyEvaluateNode)
}

func run(ctx context.Context, g *portgraph.Graph, state *wfstate.State, ev *env.Environment, vid *domain.VID, opts Options, evaluateNode nodeEvaluator) error {
	obs := opts.Observer
	if obs == nil {
		obs = NopObserver{}
	}

	if !state.IsReadyForEvaluation() {
		err := domain.NewEvaluationError("state not ready for evaluation: an unconnected input port has no stored parameter")
		obs.AfterEval(err)
		return err
	}

	obs.BeforeEval()

	var roots []domain.VID
	if vid != nil {
		roots = []domain.VID{*vid}
	} else {
		leaves, err := seedLeaves(g)
		if err != nil {
			obs.AfterEval(err)
			return err
		}
		roots = leaves
	}

	// A diamond dependency (two downstream vertices sharing an upstream
	// one) revisits that upstream vertex harmlessly: the stop condition
	// below makes every visit after the first a no-op. The graph is
	// acyclic by construction (portgraph.Connect rejects cycles), so this
	// recursion always terminates.
	var walk func(v domain.VID) error
	walk = func(v domain.VID) error {
		neighbors, err := g.InNeighbors(v)
		if err != nil {
			return err
		}
		for _, n := range neighbors {
			if err := walk(n); err != nil {
				return err
			}
		}

		obs.BeforeNode(v)
		lastEval, hasLast := state.LastEvaluation(v)
		if hasLast && lastEval == ev.CurrentExecution() {
			// Idempotence within an execution (§4.6 stop condition).
			obs.AfterNode(v, true, nil)
			return nil
		}
		return evaluateNode(ctx, g, state, ev, v, obs)
	}

	for _, root := range roots {
		if err := walk(root); err != nil {
			obs.AfterEval(err)
			return err
		}
	}

	obs.AfterEval(nil)
	return nil
}

// seedLeaves returns the graph's leaves (vertices with no outgoing
// edges), ordered by descending actor priority, ties broken by
// insertion order of vertex ids (§4.6, §5 ordering guarantee (b)).
func seedLeaves(g *portgraph.Graph) ([]domain.VID, error) {
	all := g.Vertices()
	type seeded struct {
		vid      domain.VID
		priority int
		order    int
	}
	var leaves []seeded
	for i, vid := range all {
		hasOut, err := g.HasOutgoingEdges(vid)
		if err != nil {
			return nil, err
		}
		if hasOut {
			continue
		}
		prio := 0
		if a, err := g.Actor(vid); err == nil && a != nil {
			prio = a.Priority()
		}
		leaves = append(leaves, seeded{vid: vid, priority: prio, order: i})
	}
	sort.SliceStable(leaves, func(i, j int) bool {
		if leaves[i].priority != leaves[j].priority {
			return leaves[i].priority > leaves[j].priority
		}
		return leaves[i].order < leaves[j].order
	})
	out := make([]domain.VID, len(leaves))
	for i, s := range leaves {
		out[i] = s.vid
	}
	return out, nil
}

// evaluateNode performs the five steps common to both algorithms'
// "evaluate this node" (§4.6 "Brute evaluation", steps 1-5): stamp
// LastEvaluation before invocation, collect inputs, invoke, check
// arity, store outputs.
func evaluateNode(ctx context.Context, g *portgraph.Graph, state *wfstate.State, ev *env.Environment, vid domain.VID, obs Observer) error {
	actor, err := g.Actor(vid)
	if err != nil {
		obs.AfterNode(vid, false, err)
		return err
	}
	if actor == nil {
		// A vertex with no actor contributes nothing; stamp it so the
		// walk's idempotence check treats it as done for this execution.
		state.SetLastEvaluation(vid, ev.CurrentExecution())
		obs.AfterNode(vid, false, nil)
		return nil
	}

	// Step 1: stamp before invocation (§4.6, §9 "Pre-set last_eval").
	state.SetLastEvaluation(vid, ev.CurrentExecution())

	// Step 2: collect inputs in actor.Inputs() order.
	inputs := actor.Inputs()
	args := make([]any, len(inputs))
	for i, key := range inputs {
		pid, err := g.InPort(vid, key)
		if err != nil {
			obs.AfterNode(vid, false, err)
			return err
		}
		val, err := state.Get(pid)
		if err != nil {
			obs.AfterNode(vid, false, err)
			return err
		}
		args[i] = val
	}

	// Step 3: invoke.
	results, err := actor.Invoke(ctx, args)
	if err != nil {
		obs.AfterNode(vid, false, err)
		return err
	}

	// Step 4: arity check.
	outputs := actor.Outputs()
	if len(results) != len(outputs) {
		err := domain.NewEvaluationError("mismatch nb out ports vs. function result")
		obs.AfterNode(vid, false, err)
		return err
	}

	// Step 5: store outputs in actor.Outputs() order.
	for i, key := range outputs {
		pid, err := g.OutPort(vid, key)
		if err != nil {
			obs.AfterNode(vid, false, err)
			return err
		}
		if err := state.Store(pid, results[i]); err != nil {
			obs.AfterNode(vid, false, err)
			return err
		}
	}

	obs.AfterNode(vid, false, nil)
	return nil
}
