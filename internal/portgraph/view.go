package portgraph

import (
	"sort"

	"github.com/ahrav/portflow/internal/domain"
	"github.com/ahrav/portflow/internal/ports"
)

// GraphView is the read-only query surface shared by Graph and SubGraph
// (§4.4), mirroring how the original's SubPortGraph duck-types the same
// method names as its PortGraph. The evaluation algorithms and
// GetUpstreamSubGraph take a *Graph, not a GraphView.
type GraphView interface {
	Vertices() []domain.VID
	InPort(vid domain.VID, localKey domain.LocalKey) (domain.PID, error)
	OutPort(vid domain.VID, localKey domain.LocalKey) (domain.PID, error)
	ConnectedEdges(pid domain.PID) ([]domain.EID, error)
	ConnectedPorts(pid domain.PID) ([]domain.PID, error)
	SourcePort(eid domain.EID) (domain.PID, error)
	TargetPort(eid domain.EID) (domain.PID, error)
	PortVertex(pid domain.PID) (domain.VID, error)
	PortDirection(pid domain.PID) (domain.Direction, error)
	Ports(vid domain.VID) ([]domain.PID, error)
	Actor(vid domain.VID) (ports.Actor, error)
	InNeighbors(vid domain.VID) ([]domain.VID, error)
	HasOutgoingEdges(vid domain.VID) (bool, error)
}

var (
	_ GraphView = (*Graph)(nil)
	_ GraphView = (*SubGraph)(nil)
)

// SubGraph is a read-only view of a Graph restricted to a subset S of
// vertex ids (§4.4). Queries against a vertex not in view, or a port
// whose owning vertex is not in view, fail with *domain.VertexError; an
// edge not in view fails with *domain.EdgeError; a port unknown to the
// parent fails with *domain.PortError.
// A SubGraph holds no mutation methods; it is a lens over its parent
// Graph, which must outlive it.
type SubGraph struct {
	parent *Graph
	set    map[domain.VID]struct{}
}

// NewSubGraph returns a view of g restricted to vertices.
func NewSubGraph(g *Graph, vertices []domain.VID) *SubGraph {
	set := make(map[domain.VID]struct{}, len(vertices))
	for _, v := range vertices {
		set[v] = struct{}{}
	}
	return &SubGraph{parent: g, set: set}
}

func (s *SubGraph) inView(vid domain.VID) bool {
	_, ok := s.set[vid]
	return ok
}

// Vertices returns the view's vertex ids, sorted ascending (a SubGraph
// has no insertion-order concept of its own).
func (s *SubGraph) Vertices() []domain.VID {
	out := make([]domain.VID, 0, len(s.set))
	for v := range s.set {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *SubGraph) requireVertex(vid domain.VID) error {
	if !s.inView(vid) {
		return domain.NewVertexError(vid, "not in subgraph view")
	}
	return nil
}

// requirePort resolves pid's owning vertex through the parent and checks
// the vertex is in view.
func (s *SubGraph) requirePort(pid domain.PID) error {
	vid, err := s.parent.PortVertex(pid)
	if err != nil {
		return err
	}
	return s.requireVertex(vid)
}

func (s *SubGraph) InPort(vid domain.VID, localKey domain.LocalKey) (domain.PID, error) {
	if err := s.requireVertex(vid); err != nil {
		return 0, err
	}
	return s.parent.InPort(vid, localKey)
}

func (s *SubGraph) OutPort(vid domain.VID, localKey domain.LocalKey) (domain.PID, error) {
	if err := s.requireVertex(vid); err != nil {
		return 0, err
	}
	return s.parent.OutPort(vid, localKey)
}

// edgeInView reports whether both endpoints of eid are in the view.
func (s *SubGraph) edgeInView(eid domain.EID) bool {
	src, err := s.parent.SourcePort(eid)
	if err != nil {
		return false
	}
	tgt, err := s.parent.TargetPort(eid)
	if err != nil {
		return false
	}
	sv, _ := s.parent.PortVertex(src)
	tv, _ := s.parent.PortVertex(tgt)
	return s.inView(sv) && s.inView(tv)
}

func (s *SubGraph) ConnectedEdges(pid domain.PID) ([]domain.EID, error) {
	if err := s.requirePort(pid); err != nil {
		return nil, err
	}
	all, err := s.parent.ConnectedEdges(pid)
	if err != nil {
		return nil, err
	}
	out := make([]domain.EID, 0, len(all))
	for _, eid := range all {
		if s.edgeInView(eid) {
			out = append(out, eid)
		}
	}
	return out, nil
}

func (s *SubGraph) ConnectedPorts(pid domain.PID) ([]domain.PID, error) {
	eids, err := s.ConnectedEdges(pid)
	if err != nil {
		return nil, err
	}
	dir, err := s.parent.PortDirection(pid)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PID, 0, len(eids))
	for _, eid := range eids {
		if dir == domain.In {
			src, _ := s.parent.SourcePort(eid)
			out = append(out, src)
		} else {
			tgt, _ := s.parent.TargetPort(eid)
			out = append(out, tgt)
		}
	}
	return out, nil
}

func (s *SubGraph) SourcePort(eid domain.EID) (domain.PID, error) {
	if !s.edgeInView(eid) {
		return 0, domain.NewEdgeError(eid, "not in subgraph view")
	}
	return s.parent.SourcePort(eid)
}

func (s *SubGraph) TargetPort(eid domain.EID) (domain.PID, error) {
	if !s.edgeInView(eid) {
		return 0, domain.NewEdgeError(eid, "not in subgraph view")
	}
	return s.parent.TargetPort(eid)
}

func (s *SubGraph) PortVertex(pid domain.PID) (domain.VID, error) {
	if err := s.requirePort(pid); err != nil {
		return 0, err
	}
	return s.parent.PortVertex(pid)
}

func (s *SubGraph) PortDirection(pid domain.PID) (domain.Direction, error) {
	if err := s.requirePort(pid); err != nil {
		return 0, err
	}
	return s.parent.PortDirection(pid)
}

func (s *SubGraph) Ports(vid domain.VID) ([]domain.PID, error) {
	if err := s.requireVertex(vid); err != nil {
		return nil, err
	}
	return s.parent.Ports(vid)
}

func (s *SubGraph) Actor(vid domain.VID) (ports.Actor, error) {
	if err := s.requireVertex(vid); err != nil {
		return nil, err
	}
	return s.parent.Actor(vid)
}

// InNeighbors returns vid's in-neighbors restricted to the view.
func (s *SubGraph) InNeighbors(vid domain.VID) ([]domain.VID, error) {
	if err := s.requireVertex(vid); err != nil {
		return nil, err
	}
	all, err := s.parent.InNeighbors(vid)
	if err != nil {
		return nil, err
	}
	out := make([]domain.VID, 0, len(all))
	for _, v := range all {
		if s.inView(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

// HasOutgoingEdges reports whether vid has an outgoing edge whose target
// is also in the view.
func (s *SubGraph) HasOutgoingEdges(vid domain.VID) (bool, error) {
	if err := s.requireVertex(vid); err != nil {
		return false, err
	}
	ps, err := s.parent.Ports(vid)
	if err != nil {
		return false, err
	}
	for _, pid := range ps {
		dir, _ := s.parent.PortDirection(pid)
		if dir != domain.Out {
			continue
		}
		eids, _ := s.parent.ConnectedEdges(pid)
		for _, eid := range eids {
			if s.edgeInView(eid) {
				return true, nil
			}
		}
	}
	return false, nil
}

// GetUpstreamSubGraph returns the view containing every vertex
// transitively upstream of rootPID: the owners of rootPID's source ports,
// then their in-neighbors recursively, excluding the vertex that owns
// rootPID itself (§4.4). rootPID must be an input port.
func GetUpstreamSubGraph(g *Graph, rootPID domain.PID) (*SubGraph, error) {
	dir, err := g.PortDirection(rootPID)
	if err != nil {
		return nil, err
	}
	if dir != domain.In {
		return nil, domain.NewPortError(rootPID, "upstream root must be an input port")
	}
	srcs, err := g.ConnectedPorts(rootPID)
	if err != nil {
		return nil, err
	}

	visited := make(map[domain.VID]struct{})
	var walk func(vid domain.VID) error
	walk = func(vid domain.VID) error {
		neighbors, err := g.InNeighbors(vid)
		if err != nil {
			return err
		}
		for _, n := range neighbors {
			if _, seen := visited[n]; seen {
				continue
			}
			visited[n] = struct{}{}
			if err := walk(n); err != nil {
				return err
			}
		}
		return nil
	}
	for _, src := range srcs {
		owner, err := g.PortVertex(src)
		if err != nil {
			return nil, err
		}
		if _, seen := visited[owner]; seen {
			continue
		}
		visited[owner] = struct{}{}
		if err := walk(owner); err != nil {
			return nil, err
		}
	}

	out := make([]domain.VID, 0, len(visited))
	for v := range visited {
		out = append(out, v)
	}
	return NewSubGraph(g, out), nil
}
