package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/portflow/internal/domain"
	"github.com/ahrav/portflow/internal/eval"
	"github.com/ahrav/portflow/internal/portgraph"
	"github.com/ahrav/portflow/internal/ports"
)

var _ eval.Observer = (*Observer)(nil)

// Observer implements eval.Observer, wrapping an evaluation walk in an
// OpenTelemetry span per node plus one span for the whole Eval call, and
// forwarding counts and latencies to a ports.MetricsCollector — the same
// PreCheck/PostCheck-around-a-span shape as the teacher's
// middleware.OTelBudgetObserver, applied to evaluation nodes instead of
// budget checks.
type Observer struct {
	graph     *portgraph.Graph
	metrics   ports.MetricsCollector
	tracer    trace.Tracer
	algorithm string

	mu        sync.Mutex
	evalSpan  trace.Span
	evalStart time.Time
	nodeSpans map[domain.VID]trace.Span
	nodeStart map[domain.VID]time.Time
}

// New returns an Observer that looks up actor ids on graph and reports
// through metrics (may be nil to disable metrics reporting). algorithm
// labels emitted eval-level metrics ("brute" or "lazy").
func New(graph *portgraph.Graph, metrics ports.MetricsCollector, algorithm string) *Observer {
	return &Observer{
		graph:     graph,
		metrics:   metrics,
		tracer:    otel.Tracer("portflow/eval"),
		algorithm: algorithm,
		nodeSpans: make(map[domain.VID]trace.Span),
		nodeStart: make(map[domain.VID]time.Time),
	}
}

func (o *Observer) BeforeEval() {
	// The Observer hooks receive no context (Brute/Lazy pass their ctx
	// only to each actor's Invoke), so these spans root from a background
	// context rather than the one given to Eval.
	_, span := o.tracer.Start(context.Background(), "portflow.Eval", trace.WithAttributes(
		attribute.String("portflow.algorithm", o.algorithm),
	))
	o.mu.Lock()
	o.evalSpan = span
	o.evalStart = time.Now()
	o.mu.Unlock()
}

func (o *Observer) AfterEval(err error) {
	o.mu.Lock()
	span := o.evalSpan
	elapsed := time.Since(o.evalStart)
	o.mu.Unlock()
	if span == nil {
		return
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()

	if o.metrics != nil {
		o.metrics.RecordLatency("eval", elapsed, map[string]string{"algorithm": o.algorithm})
	}
}

func (o *Observer) BeforeNode(vid domain.VID) {
	_, span := o.tracer.Start(context.Background(), "portflow.Node", trace.WithAttributes(
		attribute.String("portflow.actor", o.actorID(vid)),
	))
	o.mu.Lock()
	o.nodeSpans[vid] = span
	o.nodeStart[vid] = time.Now()
	o.mu.Unlock()
}

func (o *Observer) AfterNode(vid domain.VID, skipped bool, err error) {
	o.mu.Lock()
	span := o.nodeSpans[vid]
	start := o.nodeStart[vid]
	delete(o.nodeSpans, vid)
	delete(o.nodeStart, vid)
	o.mu.Unlock()
	if span == nil {
		return
	}

	actor := o.actorID(vid)
	status := "evaluated"
	switch {
	case err != nil:
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case skipped:
		status = "skipped"
	}
	span.SetAttributes(attribute.Bool("portflow.skipped", skipped))
	span.End()

	if o.metrics == nil {
		return
	}
	o.metrics.RecordCounter("node_invocations_total", 1, map[string]string{"actor": actor, "status": status})
	if !skipped {
		o.metrics.RecordLatency("node", time.Since(start), map[string]string{"actor": actor})
	}
}

func (o *Observer) actorID(vid domain.VID) string {
	a, err := o.graph.Actor(vid)
	if err != nil || a == nil {
		return "unknown"
	}
	return a.ID()
}
