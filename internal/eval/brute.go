package eval

import (
	"context"

	"github.com/ahrav/portflow/internal/domain"
	"github.com/ahrav/portflow/internal/env"
	"github.com/ahrav/portflow/internal/portgraph"
	"github.com/ahrav/portflow/internal/wfstate"
)

// bruteEvaluateNode is Brute's policy: always invoke, no staleness
// check. The walk's own idempotence guard (LastEvaluation ==
// CurrentExecution) already prevents a second invocation within the
// same execution, so this is simply evaluateNode.
func bruteEvaluateNode(ctx context.Context, g *portgraph.Graph, state *wfstate.State, ev *env.Environment, vid domain.VID, obs Observer) error {
	return evaluateNode(ctx, g, state, ev, vid, obs)
}
