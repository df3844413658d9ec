// Package wfstate implements the Workflow State (§4.5): per-port values
// and parameters, per-port parameter timestamps, and per-vertex
// last-evaluation stamps, bound at construction to a specific port
// graph's topology fingerprint.
package wfstate

import (
	"sort"
	"sync"

	"github.com/ahrav/portflow/internal/domain"
	"github.com/ahrav/portflow/internal/portgraph"
)

// PortPriority orders the sources feeding a multi-source input port
// (§5 ordering guarantee (c)). The default, DefaultPortPriority, sorts
// ascending by PID.
type PortPriority func(a, b domain.PID) bool

// DefaultPortPriority orders ascending by PID.
func DefaultPortPriority(a, b domain.PID) bool { return a < b }

// PortValue pairs an output port with its stored value, returned by
// Items.
type PortValue struct {
	PID   domain.PID
	Value any
}

// State is the Workflow State of §4.5, bound at construction to a
// specific *portgraph.Graph. It is safe for concurrent readers; callers
// must not mutate it concurrently with an in-flight evaluation (§5).
type State struct {
	mu sync.RWMutex

	graph       *portgraph.Graph
	fingerprint [32]byte

	portPriority PortPriority

	values   map[domain.PID]any
	params   map[domain.PID]any
	when     map[domain.PID]domain.ExID
	lastEval map[domain.VID]domain.ExID
	hasLast  map[domain.VID]struct{}
}

// New binds a fresh Workflow State to g, capturing its current topology
// fingerprint (I6). The default port priority is DefaultPortPriority;
// override with SetPortPriority.
func New(g *portgraph.Graph) *State {
	return &State{
		graph:        g,
		fingerprint:  g.Fingerprint(),
		portPriority: DefaultPortPriority,
		values:       make(map[domain.PID]any),
		params:       make(map[domain.PID]any),
		when:         make(map[domain.PID]domain.ExID),
		lastEval:     make(map[domain.VID]domain.ExID),
		hasLast:      make(map[domain.VID]struct{}),
	}
}

// SetPortPriority overrides the comparator used to order a multi-source
// input port's delivered slice (default: ascending PID).
func (s *State) SetPortPriority(p PortPriority) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.portPriority = p
}

// Store writes value on pid, which must be an output port (§4.5,
// *domain.MisuseError otherwise). No timestamp is recorded directly;
// output freshness is derived from LastEvaluation(owner(pid)) (§4.6).
func (s *State) Store(pid domain.PID, value any) error {
	dir, err := s.graph.PortDirection(pid)
	if err != nil {
		return err
	}
	if dir != domain.Out {
		return domain.NewMisuseError("Store called on an input port")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[pid] = value
	return nil
}

// StoreParam writes value as the caller-supplied parameter for pid,
// which must be an unconnected input port (§4.5, *domain.MisuseError
// otherwise), and records whenExID as the execution at which it was
// stored.
func (s *State) StoreParam(pid domain.PID, value any, whenExID domain.ExID) error {
	dir, err := s.graph.PortDirection(pid)
	if err != nil {
		return err
	}
	if dir != domain.In {
		return domain.NewMisuseError("StoreParam called on an output port")
	}
	edges, err := s.graph.ConnectedEdges(pid)
	if err != nil {
		return err
	}
	if len(edges) != 0 {
		return domain.NewMisuseError("StoreParam called on a connected input port")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params[pid] = value
	s.when[pid] = whenExID
	return nil
}

// Get resolves pid's current value (§4.5): the stored value for an
// output, the stored parameter for an unconnected input, the recursively
// resolved value of the single upstream source for a one-source input,
// or the ordered slice of upstream values (by the configured
// PortPriority) for a k≥2-source input.
func (s *State) Get(pid domain.PID) (any, error) {
	dir, err := s.graph.PortDirection(pid)
	if err != nil {
		return nil, err
	}
	if dir == domain.Out {
		s.mu.RLock()
		v, ok := s.values[pid]
		s.mu.RUnlock()
		if !ok {
			return nil, domain.NewEvaluationError("missing output value for port")
		}
		return v, nil
	}

	sources, err := s.upstreamSources(pid)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		s.mu.RLock()
		v, ok := s.params[pid]
		s.mu.RUnlock()
		if !ok {
			return nil, domain.NewEvaluationError("missing parameter for unconnected input port")
		}
		return v, nil
	}
	if len(sources) == 1 {
		return s.Get(sources[0])
	}

	out := make([]any, len(sources))
	for i, src := range sources {
		v, err := s.Get(src)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// upstreamSources returns pid's source ports ordered by the configured
// PortPriority.
func (s *State) upstreamSources(pid domain.PID) ([]domain.PID, error) {
	edges, err := s.graph.ConnectedEdges(pid)
	if err != nil {
		return nil, err
	}
	sources := make([]domain.PID, 0, len(edges))
	for _, eid := range edges {
		src, err := s.graph.SourcePort(eid)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	s.mu.RLock()
	prio := s.portPriority
	s.mu.RUnlock()
	sort.Slice(sources, func(i, j int) bool { return prio(sources[i], sources[j]) })
	return sources, nil
}

// When resolves pid's freshness timestamp (§4.5): the owning vertex's
// LastEvaluation for an output, the stored parameter timestamp for an
// unconnected input, or the minimum When over all incoming edges for a
// connected input — where any unset (⊥) upstream makes the whole result
// ⊥, never masked by a newer sibling (§9).
func (s *State) When(pid domain.PID) (domain.ExID, bool) {
	dir, err := s.graph.PortDirection(pid)
	if err != nil {
		return 0, false
	}
	if dir == domain.Out {
		vid, err := s.graph.PortVertex(pid)
		if err != nil {
			return 0, false
		}
		return s.LastEvaluation(vid)
	}

	sources, err := s.upstreamSources(pid)
	if err != nil {
		return 0, false
	}
	if len(sources) == 0 {
		s.mu.RLock()
		defer s.mu.RUnlock()
		exid, ok := s.when[pid]
		return exid, ok
	}

	var (
		min    domain.ExID
		minSet bool
	)
	for _, src := range sources {
		exid, ok := s.When(src)
		if !ok {
			return 0, false
		}
		if !minSet || exid < min {
			min = exid
			minSet = true
		}
	}
	return min, minSet
}

// LastEvaluation returns the execution in which vid most recently
// completed, or (0, false) if it has never been evaluated (⊥, I5).
func (s *State) LastEvaluation(vid domain.VID) (domain.ExID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.hasLast[vid]; !ok {
		return 0, false
	}
	return s.lastEval[vid], true
}

// SetLastEvaluation stamps vid as having completed in exid.
func (s *State) SetLastEvaluation(vid domain.VID, exid domain.ExID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastEval[vid] = exid
	s.hasLast[vid] = struct{}{}
}

// Items returns every stored output (PID, value) pair, sorted ascending
// by PID.
func (s *State) Items() []PortValue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PortValue, 0, len(s.values))
	for pid, v := range s.values {
		out = append(out, PortValue{PID: pid, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out
}

// IsReadyForEvaluation reports whether every unconnected input port in
// the bound graph has a stored parameter (§4.5, the Eval precondition of
// §4.6).
func (s *State) IsReadyForEvaluation() bool {
	for _, vid := range s.graph.Vertices() {
		ps, err := s.graph.Ports(vid)
		if err != nil {
			return false
		}
		for _, pid := range ps {
			dir, err := s.graph.PortDirection(pid)
			if err != nil || dir != domain.In {
				continue
			}
			edges, err := s.graph.ConnectedEdges(pid)
			if err != nil || len(edges) != 0 {
				continue
			}
			s.mu.RLock()
			_, has := s.params[pid]
			s.mu.RUnlock()
			if !has {
				return false
			}
		}
	}
	return true
}

// Clear empties values, params, and when, and resets every vertex's
// LastEvaluation to ⊥ (§4.5).
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[domain.PID]any)
	s.params = make(map[domain.PID]any)
	s.when = make(map[domain.PID]domain.ExID)
	s.lastEval = make(map[domain.VID]domain.ExID)
	s.hasLast = make(map[domain.VID]struct{})
}

// PortGraphStillValid recomputes the bound graph's topology fingerprint
// and reports whether it still matches the one captured at construction
// (I6). A false result means the graph was edited (a vertex/edge/port
// added or removed) since this State was created; entries keyed by
// surviving ids remain accessible, but ports added afterward have none.
func (s *State) PortGraphStillValid() bool {
	return s.graph.Fingerprint() == s.fingerprint
}
