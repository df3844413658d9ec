package eval

import "github.com/ahrav/portflow/internal/domain"

// Observer is an optional hook into the evaluation walk (§4.6 "Observer
// hook" expansion). Observers never influence control flow; they exist
// so Observability (component K) can attach metrics/tracing around
// Eval/Invoke without the core algorithm importing either library
// directly, mirroring the dependency-inversion role the teacher repo
// gives its own ports.MetricsCollector interface.
type Observer interface {
	// BeforeEval fires once, before the walk visits its first vertex.
	BeforeEval()
	// AfterEval fires once, after the walk completes (err is the Eval
	// result, nil on success).
	AfterEval(err error)
	// BeforeNode fires immediately before a vertex is considered for
	// evaluation (it may still end up skipped).
	BeforeNode(vid domain.VID)
	// AfterNode fires after a vertex has been considered: skipped is
	// true if the actor was not invoked (idempotent no-op or lazy
	// reuse); err is any failure from invoking it.
	AfterNode(vid domain.VID, skipped bool, err error)
}

// NopObserver implements Observer with no-ops; it is the default when no
// Observer is supplied.
type NopObserver struct{}

func (NopObserver) BeforeEval()                       {}
func (NopObserver) AfterEval(error)                   {}
func (NopObserver) BeforeNode(domain.VID)             {}
func (NopObserver) AfterNode(domain.VID, bool, error) {}

var _ Observer = NopObserver{}
