package portgraph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ahrav/portflow/internal/domain"
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

func TestAddActor_RollsBackOnDuplicateOutputKey(t *testing.T) {
	g := New()
	a := &stubActor{id: "t:dup", inputs: []string{"x"}, outputs: []string{"y", "y"}}
	_, err := g.AddActor(a, nil)
	require.Error(t, err)
	vs, es, ps := g.PortCounts()
	require.Zero(t, vs)
	require.Zero(t, es)
	require.Zero(t, ps)
}

func TestAddActor_RoundTripRemoveVertex(t *testing.T) {
	g := New()
	beforeV, beforeE, beforeP := g.PortCounts()

	a := &stubActor{id: "t:echo", inputs: []string{"in"}, outputs: []string{"out"}}
	vid, err := g.AddActor(a, nil)
	require.NoError(t, err)

	require.NoError(t, g.RemoveVertex(vid))
	afterV, afterE, afterP := g.PortCounts()
	require.Equal(t, beforeV, afterV)
	require.Equal(t, beforeE, afterE)
	require.Equal(t, beforeP, afterP)
}

func TestConnect_RequiresOutputSourceAndInputTarget(t *testing.T) {
	g := New()
	a := &stubActor{id: "t:a", inputs: []string{"in"}, outputs: []string{"out"}}
	vid, err := g.AddActor(a, nil)
	require.NoError(t, err)

	in, err := g.InPort(vid, "in")
	require.NoError(t, err)
	out, err := g.OutPort(vid, "out")
	require.NoError(t, err)

	_, err = g.Connect(in, out, nil)
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrInvalidPort)
}

func TestConnect_RejectsCycle(t *testing.T) {
	g := New()
	a := &stubActor{id: "t:a", inputs: []string{"in"}, outputs: []string{"out"}}
	b := &stubActor{id: "t:b", inputs: []string{"in"}, outputs: []string{"out"}}
	aVID, err := g.AddActor(a, nil)
	require.NoError(t, err)
	bVID, err := g.AddActor(b, nil)
	require.NoError(t, err)

	aOut, _ := g.OutPort(aVID, "out")
	bIn, _ := g.InPort(bVID, "in")
	_, err = g.Connect(aOut, bIn, nil)
	require.NoError(t, err)

	bOut, _ := g.OutPort(bVID, "out")
	aIn, _ := g.InPort(aVID, "in")
	_, err = g.Connect(bOut, aIn, nil)
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrInvalidEdge)
}

func TestSetActor_EnforcesPortKeyConsistency(t *testing.T) {
	g := New()
	vid, err := g.AddVertex(nil)
	require.NoError(t, err)
	_, err = g.AddInPort(vid, "x", nil)
	require.NoError(t, err)

	a := &stubActor{id: "t:a", inputs: []string{"x", "y"}, outputs: nil}
	err = g.SetActor(vid, a)
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrInvalidPort)
}

func TestFingerprint_ChangesOnTopologyEdit(t *testing.T) {
	g := New()
	fp1 := g.Fingerprint()
	_, err := g.AddVertex(nil)
	require.NoError(t, err)
	fp2 := g.Fingerprint()
	require.NotEqual(t, fp1, fp2)
}

func TestFingerprint_OrderIndependent(t *testing.T) {
	g1 := New()
	v1, _ := g1.AddVertex(nil)
	v2, _ := g1.AddVertex(nil)
	_ = v1
	_ = v2

	g2 := New()
	want2 := domain.VID(2)
	want1 := domain.VID(1)
	_, err := g2.AddVertex(&want2)
	require.NoError(t, err)
	_, err = g2.AddVertex(&want1)
	require.NoError(t, err)

	require.Equal(t, g1.Fingerprint(), g2.Fingerprint())
}

func TestGetUpstreamSubGraph_ExcludesRootOwner(t *testing.T) {
	g := New()
	a := &stubActor{id: "t:a", inputs: nil, outputs: []string{"out"}}
	b := &stubActor{id: "t:b", inputs: []string{"in"}, outputs: []string{"out"}}
	c := &stubActor{id: "t:c", inputs: []string{"in"}, outputs: nil}

	aVID, err := g.AddActor(a, nil)
	require.NoError(t, err)
	bVID, err := g.AddActor(b, nil)
	require.NoError(t, err)
	cVID, err := g.AddActor(c, nil)
	require.NoError(t, err)

	aOut, _ := g.OutPort(aVID, "out")
	bIn, _ := g.InPort(bVID, "in")
	_, err = g.Connect(aOut, bIn, nil)
	require.NoError(t, err)

	bOut, _ := g.OutPort(bVID, "out")
	cIn, _ := g.InPort(cVID, "in")
	_, err = g.Connect(bOut, cIn, nil)
	require.NoError(t, err)

	sub, err := GetUpstreamSubGraph(g, cIn)
	require.NoError(t, err)
	vs := sub.Vertices()
	require.Contains(t, vs, bVID)
	require.Contains(t, vs, aVID)
	require.NotContains(t, vs, cVID)
}
