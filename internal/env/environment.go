// Package env implements the Evaluation Environment (§4, component F):
// the holder of the current execution id, minting fresh ones on advance.
package env

import "github.com/ahrav/portflow/internal/domain"

// Environment holds the execution id an evaluation is currently running
// under. Execution ids are minted by a dedicated domain.Allocator (§4.1)
// so they share the same totally-ordered int64 namespace the rest of the
// engine assumes for the `When(p) > LastEvaluation(vid)` comparison
// (§4.6).
type Environment struct {
	alloc   *domain.Allocator
	current domain.ExID
}

// New returns an Environment whose first execution id is 1.
func New() *Environment {
	e := &Environment{alloc: domain.NewAllocator()}
	id, _ := e.alloc.Take(nil)
	e.current = domain.ExID(id)
	return e
}

// CurrentExecution returns the execution id this Environment is
// currently running under.
func (e *Environment) CurrentExecution() domain.ExID { return e.current }

// NewExecution mints and adopts the next execution id, returning it.
func (e *Environment) NewExecution() domain.ExID {
	id, _ := e.alloc.Take(nil)
	e.current = domain.ExID(id)
	return e.current
}
