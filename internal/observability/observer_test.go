package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ahrav/portflow/internal/env"
	"github.com/ahrav/portflow/internal/eval"
	"github.com/ahrav/portflow/internal/portgraph"
	"github.com/ahrav/portflow/internal/wfstate"
)

type echoActor struct{ id string }

func (a *echoActor) Inputs() []string  { return []string{"in"} }
func (a *echoActor) Outputs() []string { return []string{"out"} }
func (a *echoActor) Invoke(_ context.Context, in []any) ([]any, error) {
	return []any{in[0]}, nil
}
func (a *echoActor) IsLazy() bool  { return false }
func (a *echoActor) Priority() int { return 0 }
func (a *echoActor) ID() string    { return a.id }

type recordingCollector struct {
	counters map[string]float64
}

func (c *recordingCollector) RecordLatency(string, time.Duration, map[string]string) {}
func (c *recordingCollector) RecordCounter(metric string, value float64, _ map[string]string) {
	if c.counters == nil {
		c.counters = make(map[string]float64)
	}
	c.counters[metric] += value
}
func (c *recordingCollector) RecordGauge(string, float64, map[string]string)     {}
func (c *recordingCollector) RecordHistogram(string, float64, map[string]string) {}

func TestObserver_RecordsNodeInvocationCounter(t *testing.T) {
	g := portgraph.New()
	vid, err := g.AddActor(&echoActor{id: "t:echo"}, nil)
	require.NoError(t, err)

	pid, err := g.InPort(vid, "in")
	require.NoError(t, err)

	state := wfstate.New(g)
	require.NoError(t, state.StoreParam(pid, "x", 1))

	e := env.New()
	e.NewExecution()

	collector := &recordingCollector{}
	obs := New(g, collector, "brute")

	require.NoError(t, eval.Brute(context.Background(), g, state, e, nil, eval.Options{Observer: obs}))
	require.Equal(t, float64(1), collector.counters["node_invocations_total"])
}

func TestObserver_NilMetricsIsSafe(t *testing.T) {
	g := portgraph.New()
	vid, err := g.AddActor(&echoActor{id: "t:echo"}, nil)
	require.NoError(t, err)
	pid, err := g.InPort(vid, "in")
	require.NoError(t, err)

	state := wfstate.New(g)
	require.NoError(t, state.StoreParam(pid, "x", 1))

	e := env.New()
	e.NewExecution()

	obs := New(g, nil, "brute")
	require.NoError(t, eval.Brute(context.Background(), g, state, e, nil, eval.Options{Observer: obs}))
}
