package domain

import "sync"

// VID identifies a vertex, EID an edge, PID a port, ExID an execution.
// All four are opaque integers minted by an Allocator; nothing in this
// module assigns meaning to their numeric value beyond ordering (ExID
// must be totally ordered so a lazy evaluation can compare "newer than").
type (
	VID  int64
	EID  int64
	PID  int64
	ExID int64
)

// Allocator hands out unique ids from a single namespace and lets the
// caller hand them back for reuse. It backs each of a PortGraph's
// independent vertex/edge/port id spaces as well as an Environment's
// execution id space — one Allocator per space, never shared across
// spaces, since a vertex id and a port id from different Allocators are
// not comparable.
//
// An Allocator is safe for concurrent use.
type Allocator struct {
	mu       sync.Mutex
	next     int64
	taken    map[int64]struct{}
	released []int64
}

// NewAllocator returns an empty Allocator whose first minted id is 1.
// Zero is reserved so that a zero-valued VID/EID/PID/ExID can serve as a
// recognizable "unset" sentinel in calling code.
func NewAllocator() *Allocator {
	return &Allocator{next: 1, taken: make(map[int64]struct{})}
}

// Take returns a fresh id, or the requested id if want is non-nil. It
// fails if the requested id is already outstanding. There is no ordering
// guarantee on ids minted without a request.
func (a *Allocator) Take(want *int64) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if want != nil {
		if _, ok := a.taken[*want]; ok {
			return 0, NewPortError(0, "id already outstanding")
		}
		a.taken[*want] = struct{}{}
		if *want >= a.next {
			a.next = *want + 1
		}
		return *want, nil
	}

	if n := len(a.released); n > 0 {
		id := a.released[n-1]
		a.released = a.released[:n-1]
		a.taken[id] = struct{}{}
		return id, nil
	}

	id := a.next
	a.next++
	a.taken[id] = struct{}{}
	return id, nil
}

// Release returns id to the pool so a future Take may reuse it. Releasing
// an id that was never taken is a silent no-op: callers only release ids
// they themselves minted, so there is nothing useful to report.
func (a *Allocator) Release(id int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.taken[id]; !ok {
		return
	}
	delete(a.taken, id)
	a.released = append(a.released, id)
}

// Reset discards every outstanding id and restarts minting from 1,
// matching PortGraph.Clear's "resets the allocator" contract.
func (a *Allocator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.next = 1
	a.taken = make(map[int64]struct{})
	a.released = nil
}
