package wfstate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ahrav/portflow/internal/domain"
	"github.com/ahrav/portflow/internal/portgraph"
)

type stubActor struct {
	id      string
	inputs  []string
	outputs []string
}

func (a *stubActor) Inputs() []string  { return a.inputs }
func (a *stubActor) Outputs() []string { return a.outputs }
func (a *stubActor) Invoke(context.Context, []any) ([]any, error) {
	return make([]any, len(a.outputs)), nil
}
func (a *stubActor) IsLazy() bool  { return true }
func (a *stubActor) Priority() int { return 0 }
func (a *stubActor) ID() string    { return a.id }

func TestStore_RejectsInputPort(t *testing.T) {
	g := portgraph.New()
	vid, err := g.AddVertex(nil)
	require.NoError(t, err)
	in, err := g.AddInPort(vid, "x", nil)
	require.NoError(t, err)

	st := New(g)
	err = st.Store(in, "v")
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrMisuse)
}

func TestStoreParam_RejectsConnectedInput(t *testing.T) {
	g := portgraph.New()
	a := &stubActor{id: "t:a", outputs: []string{"out"}}
	b := &stubActor{id: "t:b", inputs: []string{"in"}}
	aVID, err := g.AddActor(a, nil)
	require.NoError(t, err)
	bVID, err := g.AddActor(b, nil)
	require.NoError(t, err)

	aOut, _ := g.OutPort(aVID, "out")
	bIn, _ := g.InPort(bVID, "in")
	_, err = g.Connect(aOut, bIn, nil)
	require.NoError(t, err)

	st := New(g)
	err = st.StoreParam(bIn, "v", 1)
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrMisuse)
}

func TestStoreParam_RejectsOutputPort(t *testing.T) {
	g := portgraph.New()
	a := &stubActor{id: "t:a", outputs: []string{"out"}}
	vid, err := g.AddActor(a, nil)
	require.NoError(t, err)
	out, err := g.OutPort(vid, "out")
	require.NoError(t, err)

	st := New(g)
	err = st.StoreParam(out, "v", 1)
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrMisuse)
}

func TestGet_RoundTripsStoredOutput(t *testing.T) {
	g := portgraph.New()
	a := &stubActor{id: "t:a", outputs: []string{"out"}}
	vid, err := g.AddActor(a, nil)
	require.NoError(t, err)
	out, err := g.OutPort(vid, "out")
	require.NoError(t, err)

	st := New(g)
	require.NoError(t, st.Store(out, 42))
	v, err := st.Get(out)
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestWhen_OutputEqualsOwnerLastEvaluation(t *testing.T) {
	g := portgraph.New()
	a := &stubActor{id: "t:a", outputs: []string{"out"}}
	vid, err := g.AddActor(a, nil)
	require.NoError(t, err)
	out, err := g.OutPort(vid, "out")
	require.NoError(t, err)

	st := New(g)
	st.SetLastEvaluation(vid, 7)

	when, ok := st.When(out)
	require.True(t, ok)
	require.Equal(t, domain.ExID(7), when)
}

func TestWhen_MultiSourceTakesMinimumAndBottomPropagates(t *testing.T) {
	g := portgraph.New()
	sinkVID, err := g.AddVertex(nil)
	require.NoError(t, err)
	in, err := g.AddInPort(sinkVID, "in", nil)
	require.NoError(t, err)

	src1VID, err := g.AddVertex(nil)
	require.NoError(t, err)
	p1, err := g.AddOutPort(src1VID, "out", nil)
	require.NoError(t, err)

	src2VID, err := g.AddVertex(nil)
	require.NoError(t, err)
	p2, err := g.AddOutPort(src2VID, "out", nil)
	require.NoError(t, err)

	_, err = g.Connect(p1, in, nil)
	require.NoError(t, err)
	_, err = g.Connect(p2, in, nil)
	require.NoError(t, err)

	st := New(g)
	st.SetLastEvaluation(src1VID, 3)
	// src2VID never evaluated: src2's When is ⊥.

	_, ok := st.When(in)
	require.False(t, ok, "a never-evaluated upstream must keep the downstream at bottom")

	st.SetLastEvaluation(src2VID, 5)
	when, ok := st.When(in)
	require.True(t, ok)
	require.Equal(t, domain.ExID(3), when, "the minimum of the two upstream timestamps")
}

func TestIsReadyForEvaluation(t *testing.T) {
	g := portgraph.New()
	a := &stubActor{id: "t:a", inputs: []string{"in"}}
	vid, err := g.AddActor(a, nil)
	require.NoError(t, err)
	in, err := g.InPort(vid, "in")
	require.NoError(t, err)

	st := New(g)
	require.False(t, st.IsReadyForEvaluation())

	require.NoError(t, st.StoreParam(in, "v", 1))
	require.True(t, st.IsReadyForEvaluation())
}

func TestPortGraphStillValid(t *testing.T) {
	g := portgraph.New()
	st := New(g)
	require.True(t, st.PortGraphStillValid())

	_, err := g.AddVertex(nil)
	require.NoError(t, err)
	require.False(t, st.PortGraphStillValid())
}

func TestClear_ResetsLastEvalToBottom(t *testing.T) {
	g := portgraph.New()
	a := &stubActor{id: "t:a", outputs: []string{"out"}}
	vid, err := g.AddActor(a, nil)
	require.NoError(t, err)

	st := New(g)
	st.SetLastEvaluation(vid, 9)
	_, ok := st.LastEvaluation(vid)
	require.True(t, ok)

	st.Clear()
	_, ok = st.LastEvaluation(vid)
	require.False(t, ok)
}
