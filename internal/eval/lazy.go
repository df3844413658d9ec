package eval

import (
	"context"

	"github.com/ahrav/portflow/internal/domain"
	"github.com/ahrav/portflow/internal/env"
	"github.com/ahrav/portflow/internal/portgraph"
	"github.com/ahrav/portflow/internal/wfstate"
)

// lazyEvaluateNode is Lazy's policy (§4.6 "Lazy evaluation"). The walk
// has already filtered out the "already ran this execution" case, so
// only three possibilities remain here: never evaluated, non-lazy actor,
// or lazy-and-possibly-stale.
func lazyEvaluateNode(ctx context.Context, g *portgraph.Graph, state *wfstate.State, ev *env.Environment, vid domain.VID, obs Observer) error {
	_, hasLast := state.LastEvaluation(vid)
	if !hasLast {
		return evaluateNode(ctx, g, state, ev, vid, obs)
	}

	actor, err := g.Actor(vid)
	if err != nil {
		obs.AfterNode(vid, false, err)
		return err
	}
	if actor == nil || !actor.IsLazy() {
		return evaluateNode(ctx, g, state, ev, vid, obs)
	}

	stale, err := isStale(g, state, vid)
	if err != nil {
		obs.AfterNode(vid, false, err)
		return err
	}
	if stale {
		return evaluateNode(ctx, g, state, ev, vid, obs)
	}

	// Stale(e') -> Stale(e'): up to date, no invocation, no restamp. The
	// vertex retains its previous LastEvaluation, which is the signal
	// downstream nodes compare against.
	obs.AfterNode(vid, true, nil)
	return nil
}

// isStale reports whether any input port of vid carries a timestamp
// newer than vid's last evaluation (§4.6: "any input port p ... satisfies
// When(p) > LastEvaluation(vid)").
func isStale(g *portgraph.Graph, state *wfstate.State, vid domain.VID) (bool, error) {
	lastEval, _ := state.LastEvaluation(vid)

	actor, err := g.Actor(vid)
	if err != nil {
		return false, err
	}
	for _, key := range actor.Inputs() {
		pid, err := g.InPort(vid, key)
		if err != nil {
			return false, err
		}
		when, ok := state.When(pid)
		if !ok {
			// ⊥ never counts as "newer than" a concrete execution id.
			continue
		}
		if when > lastEval {
			return true, nil
		}
	}
	return false, nil
}
