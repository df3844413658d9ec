package eval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ahrav/portflow/internal/domain"
	"github.com/ahrav/portflow/internal/env"
	"github.com/ahrav/portflow/internal/portgraph"
	"github.com/ahrav/portflow/internal/wfstate"
)

// buildSingleActorGraph wires one echoActor with its "txt" input left
// unconnected, so the caller must seed a parameter there.
func buildSingleActorGraph(t *testing.T, a *echoActor) (*portgraph.Graph, domain.VID, *wfstate.State) {
	t.Helper()
	g := portgraph.New()
	vid, err := g.AddActor(a, nil)
	require.NoError(t, err)
	st := wfstate.New(g)
	return g, vid, st
}

// Scenario 1: single-actor lazy reuse.
func TestLazy_SingleActorReuse(t *testing.T) {
	a := newEchoActor("test:echo")
	g, vid, st := buildSingleActorGraph(t, a)
	in, err := g.InPort(vid, "txt")
	require.NoError(t, err)

	e := env.New() // current execution = 1
	require.NoError(t, st.StoreParam(in, "toto", e.CurrentExecution()))

	require.NoError(t, Lazy(context.Background(), g, st, e, nil, Options{}))
	require.Equal(t, 1, a.invocationCount())

	e.NewExecution() // execution = 2
	require.NoError(t, Lazy(context.Background(), g, st, e, nil, Options{}))
	require.Equal(t, 1, a.invocationCount(), "unchanged param must not retrigger a lazy actor")
}

// Scenario 2: non-lazy always fires.
func TestLazy_NonLazyAlwaysFires(t *testing.T) {
	a := newEchoActor("test:echo")
	a.SetLazy(false)
	g, vid, st := buildSingleActorGraph(t, a)
	in, err := g.InPort(vid, "txt")
	require.NoError(t, err)

	e := env.New()
	require.NoError(t, st.StoreParam(in, "toto", e.CurrentExecution()))

	require.NoError(t, Lazy(context.Background(), g, st, e, nil, Options{}))
	require.Equal(t, 1, a.invocationCount())

	e.NewExecution()
	require.NoError(t, Lazy(context.Background(), g, st, e, nil, Options{}))
	require.Equal(t, 2, a.invocationCount(), "non-lazy actor must fire on every execution")
}

// Scenario 3: input change retriggers.
func TestLazy_InputChangeRetriggers(t *testing.T) {
	a := newEchoActor("test:echo")
	g, vid, st := buildSingleActorGraph(t, a)
	in, err := g.InPort(vid, "txt")
	require.NoError(t, err)

	e := env.New()
	require.NoError(t, st.StoreParam(in, "toto", e.CurrentExecution()))
	require.NoError(t, Lazy(context.Background(), g, st, e, nil, Options{}))
	require.Equal(t, 1, a.invocationCount())

	e.NewExecution()
	require.NoError(t, st.StoreParam(in, "toto", e.CurrentExecution()))
	require.NoError(t, Lazy(context.Background(), g, st, e, nil, Options{}))
	require.Equal(t, 2, a.invocationCount(), "a freshly-stamped param must retrigger even with the same value")
}

// Scenario 4: dependency propagation f -> g. The first execution runs
// Lazy; the new execution runs Brute, which re-invokes both actors.
func TestEval_DependencyPropagation(t *testing.T) {
	graph := portgraph.New()
	f := newEchoActor("test:f")
	gActor := newEchoActor("test:g")

	fVID, err := graph.AddActor(f, nil)
	require.NoError(t, err)
	gVID, err := graph.AddActor(gActor, nil)
	require.NoError(t, err)

	fOut, err := graph.OutPort(fVID, "txt")
	require.NoError(t, err)
	gIn, err := graph.InPort(gVID, "txt")
	require.NoError(t, err)
	_, err = graph.Connect(fOut, gIn, nil)
	require.NoError(t, err)

	st := wfstate.New(graph)
	fIn, err := graph.InPort(fVID, "txt")
	require.NoError(t, err)

	e := env.New()
	require.NoError(t, st.StoreParam(fIn, "t", e.CurrentExecution()))

	require.NoError(t, Lazy(context.Background(), graph, st, e, &fVID, Options{}))
	require.Equal(t, 1, f.invocationCount())
	require.Equal(t, 0, gActor.invocationCount())

	require.NoError(t, Lazy(context.Background(), graph, st, e, &gVID, Options{}))
	require.Equal(t, 1, f.invocationCount())
	require.Equal(t, 1, gActor.invocationCount())

	e.NewExecution()
	require.NoError(t, Brute(context.Background(), graph, st, e, &gVID, Options{}))
	require.Equal(t, 2, f.invocationCount())
	require.Equal(t, 2, gActor.invocationCount())
}

// Scenario 5: multi-source input ordering.
func TestState_MultiSourceOrdering(t *testing.T) {
	graph := portgraph.New()
	sink := newEchoActor("test:sink")
	// Give the sink a single input "in" that will receive two sources.
	sinkVID, err := graph.AddVertex(nil)
	require.NoError(t, err)
	in, err := graph.AddInPort(sinkVID, "in", nil)
	require.NoError(t, err)

	src1VID, err := graph.AddVertex(nil)
	require.NoError(t, err)
	p3, err := graph.AddOutPort(src1VID, "out", nil)
	require.NoError(t, err)

	src2VID, err := graph.AddVertex(nil)
	require.NoError(t, err)
	p4, err := graph.AddOutPort(src2VID, "out", nil)
	require.NoError(t, err)

	_, err = graph.Connect(p3, in, nil)
	require.NoError(t, err)
	_, err = graph.Connect(p4, in, nil)
	require.NoError(t, err)

	st := wfstate.New(graph)
	require.NoError(t, st.Store(p3, "a"))
	require.NoError(t, st.Store(p4, "b"))

	got, err := st.Get(in)
	require.NoError(t, err)
	if p3 < p4 {
		require.Equal(t, []any{"a", "b"}, got)
	} else {
		require.Equal(t, []any{"b", "a"}, got)
	}
	_ = sink
}

// Scenario 6: arity mismatch.
func TestEval_ArityMismatch(t *testing.T) {
	g := portgraph.New()
	a := &arityMismatchActor{id: "test:arity"}
	_, err := g.AddActor(a, nil)
	require.NoError(t, err)

	st := wfstate.New(g)
	e := env.New()
	err = Brute(context.Background(), g, st, e, nil, Options{})
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrEvaluation)
}

// Brute idempotence within an execution (§8 determinism property).
func TestBrute_IdempotentWithinExecution(t *testing.T) {
	a := newEchoActor("test:echo")
	g, vid, st := buildSingleActorGraph(t, a)
	in, err := g.InPort(vid, "txt")
	require.NoError(t, err)

	e := env.New()
	require.NoError(t, st.StoreParam(in, "toto", e.CurrentExecution()))

	require.NoError(t, Brute(context.Background(), g, st, e, nil, Options{}))
	require.NoError(t, Brute(context.Background(), g, st, e, nil, Options{}))
	require.Equal(t, 1, a.invocationCount())
}

func TestEval_NotReadyFailsWithoutSideEffects(t *testing.T) {
	a := newEchoActor("test:echo")
	g, _, st := buildSingleActorGraph(t, a)
	e := env.New()

	err := Brute(context.Background(), g, st, e, nil, Options{})
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrEvaluation)
	require.Equal(t, 0, a.invocationCount())
}
