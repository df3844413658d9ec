package portgraph

import (
	"sort"
	"sync"

	"github.com/ahrav/portflow/internal/domain"
	"github.com/ahrav/portflow/internal/ports"
)

// vertex is the graph's internal record for a VID: the ports it owns,
// split by direction for the I3 consistency check, and the actor bound to
// it (nil until SetActor).
type vertex struct {
	id       domain.VID
	actor    ports.Actor
	inPorts  map[domain.LocalKey]domain.PID
	outPorts map[domain.LocalKey]domain.PID
}

// port is the graph's internal record for a PID.
type port struct {
	id        domain.PID
	vertex    domain.VID
	localKey  domain.LocalKey
	direction domain.Direction
	// edges attached to this port: for an In port, edges targeting it
	// (zero or more, per the multi-source Get/When semantics); for an
	// Out port, edges sourced from it.
	edges map[domain.EID]struct{}
}

// edge is the graph's internal record for an EID.
type edge struct {
	id     domain.EID
	source domain.PID
	target domain.PID
}

// Graph is the port graph (§4.3): a directed multigraph whose edges
// connect a specific output port to a specific input port on possibly
// different vertices. It owns three independent id spaces (vertices,
// edges, ports) and, through its propertyGraph field, an untyped
// attribute layer per vertex/edge. A Graph is safe for concurrent
// readers; callers must not mutate it concurrently with an in-flight
// evaluation (§5).
type Graph struct {
	mu sync.RWMutex

	vidAlloc *domain.Allocator
	eidAlloc *domain.Allocator
	pidAlloc *domain.Allocator

	props *propertyGraph

	vertices map[domain.VID]*vertex
	ports    map[domain.PID]*port
	edges    map[domain.EID]*edge

	// order preserves vertex insertion order, used to break leaf-priority
	// ties during evaluation seeding (§5 ordering guarantees).
	order []domain.VID
}

// New returns an empty port graph.
func New() *Graph {
	return &Graph{
		vidAlloc: domain.NewAllocator(),
		eidAlloc: domain.NewAllocator(),
		pidAlloc: domain.NewAllocator(),
		props:    newPropertyGraph(),
		vertices: make(map[domain.VID]*vertex),
		ports:    make(map[domain.PID]*port),
		edges:    make(map[domain.EID]*edge),
	}
}

// AddVertex creates an empty vertex with no actor. If want is non-nil the
// graph tries to use that exact id, failing with *domain.VertexError if
// it is already outstanding.
func (g *Graph) AddVertex(want *domain.VID) (domain.VID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var req *int64
	if want != nil {
		v := int64(*want)
		req = &v
	}
	id, err := g.vidAlloc.Take(req)
	if err != nil {
		vid := domain.VID(0)
		if want != nil {
			vid = *want
		}
		return 0, domain.NewVertexError(vid, "add_vertex")
	}
	vid := domain.VID(id)
	g.vertices[vid] = &vertex{
		id:       vid,
		inPorts:  make(map[domain.LocalKey]domain.PID),
		outPorts: make(map[domain.LocalKey]domain.PID),
	}
	g.order = append(g.order, vid)
	g.props.addVertex(id)
	return vid, nil
}

// RemoveVertex removes all of v's ports (cascading their edges) then the
// vertex itself.
func (g *Graph) RemoveVertex(vid domain.VID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.removeVertexLocked(vid)
}

func (g *Graph) removeVertexLocked(vid domain.VID) error {
	v, ok := g.vertices[vid]
	if !ok {
		return domain.NewVertexError(vid, "remove_vertex")
	}
	for _, pid := range append(localValues(v.inPorts), localValues(v.outPorts)...) {
		g.removePortLocked(pid)
	}
	delete(g.vertices, vid)
	g.vidAlloc.Release(int64(vid))
	g.props.removeVertex(int64(vid))
	for i, id := range g.order {
		if id == vid {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	return nil
}

func localValues(m map[domain.LocalKey]domain.PID) []domain.PID {
	out := make([]domain.PID, 0, len(m))
	for _, pid := range m {
		out = append(out, pid)
	}
	return out
}

// AddInPort creates an input port on vid named localKey. Fails if vid is
// unknown or localKey duplicates an existing input key for vid (I2).
func (g *Graph) AddInPort(vid domain.VID, localKey domain.LocalKey, want *domain.PID) (domain.PID, error) {
	return g.addPort(vid, localKey, domain.In, want)
}

// AddOutPort is the output-port symmetric of AddInPort.
func (g *Graph) AddOutPort(vid domain.VID, localKey domain.LocalKey, want *domain.PID) (domain.PID, error) {
	return g.addPort(vid, localKey, domain.Out, want)
}

func (g *Graph) addPort(vid domain.VID, localKey domain.LocalKey, dir domain.Direction, want *domain.PID) (domain.PID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	v, ok := g.vertices[vid]
	if !ok {
		return 0, domain.NewVertexError(vid, "add_port")
	}
	keys := v.inPorts
	if dir == domain.Out {
		keys = v.outPorts
	}
	if _, dup := keys[localKey]; dup {
		return 0, domain.NewPortError(0, "duplicate local port key")
	}

	var req *int64
	if want != nil {
		w := int64(*want)
		req = &w
	}
	id, err := g.pidAlloc.Take(req)
	if err != nil {
		return 0, domain.NewPortError(0, "port id already outstanding")
	}
	pid := domain.PID(id)
	g.ports[pid] = &port{
		id:        pid,
		vertex:    vid,
		localKey:  localKey,
		direction: dir,
		edges:     make(map[domain.EID]struct{}),
	}
	keys[localKey] = pid
	return pid, nil
}

// RemovePort removes attached edges, then the port.
func (g *Graph) RemovePort(pid domain.PID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.ports[pid]; !ok {
		return domain.NewPortError(pid, "unknown port")
	}
	g.removePortLocked(pid)
	return nil
}

func (g *Graph) removePortLocked(pid domain.PID) {
	p, ok := g.ports[pid]
	if !ok {
		return
	}
	for eid := range p.edges {
		g.removeEdgeLocked(eid)
	}
	v := g.vertices[p.vertex]
	if v != nil {
		keys := v.inPorts
		if p.direction == domain.Out {
			keys = v.outPorts
		}
		delete(keys, p.localKey)
	}
	delete(g.ports, pid)
	g.pidAlloc.Release(int64(pid))
}

// Connect wires an output port to an input port, minting (or reusing) an
// edge id. Fails with *domain.PortError if the direction of either
// endpoint is wrong, and with *domain.EdgeError if the connection would
// introduce a cycle (§3, §9 — this module's one behavior-changing
// decision relative to the original, which left cycles undetected).
func (g *Graph) Connect(src, tgt domain.PID, want *domain.EID) (domain.EID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	sp, ok := g.ports[src]
	if !ok || sp.direction != domain.Out {
		return 0, domain.NewPortError(src, "connect source must be an output port")
	}
	tp, ok := g.ports[tgt]
	if !ok || tp.direction != domain.In {
		return 0, domain.NewPortError(tgt, "connect target must be an input port")
	}

	if g.wouldCycleLocked(sp.vertex, tp.vertex) {
		return 0, domain.NewEdgeError(0, "connect would introduce a cycle")
	}

	var req *int64
	if want != nil {
		w := int64(*want)
		req = &w
	}
	id, err := g.eidAlloc.Take(req)
	if err != nil {
		return 0, domain.NewEdgeError(0, "edge id already outstanding")
	}
	eid := domain.EID(id)
	g.edges[eid] = &edge{id: eid, source: src, target: tgt}
	sp.edges[eid] = struct{}{}
	tp.edges[eid] = struct{}{}
	g.props.addEdge(int64(eid))
	return eid, nil
}

// wouldCycleLocked reports whether adding an edge tgtVertex <- srcVertex
// (i.e. data flowing srcVertex -> tgtVertex) would create a cycle: true
// iff tgtVertex can already reach srcVertex via existing edges. Bounded
// DFS over at most len(vertices) nodes.
func (g *Graph) wouldCycleLocked(srcVertex, tgtVertex domain.VID) bool {
	if srcVertex == tgtVertex {
		return true
	}
	visited := make(map[domain.VID]struct{})
	var stack []domain.VID
	stack = append(stack, tgtVertex)
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if v == srcVertex {
			return true
		}
		if _, seen := visited[v]; seen {
			continue
		}
		visited[v] = struct{}{}
		vert := g.vertices[v]
		if vert == nil {
			continue
		}
		for _, pid := range vert.outPorts {
			p := g.ports[pid]
			for eid := range p.edges {
				e := g.edges[eid]
				tp := g.ports[e.target]
				stack = append(stack, tp.vertex)
			}
		}
	}
	return false
}

func (g *Graph) removeEdgeLocked(eid domain.EID) {
	e, ok := g.edges[eid]
	if !ok {
		return
	}
	if sp, ok := g.ports[e.source]; ok {
		delete(sp.edges, eid)
	}
	if tp, ok := g.ports[e.target]; ok {
		delete(tp.edges, eid)
	}
	delete(g.edges, eid)
	g.eidAlloc.Release(int64(eid))
	g.props.removeEdge(int64(eid))
}

// InPort resolves a vertex-local input key to its global PID.
func (g *Graph) InPort(vid domain.VID, localKey domain.LocalKey) (domain.PID, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	v, ok := g.vertices[vid]
	if !ok {
		return 0, domain.NewVertexError(vid, "in_port")
	}
	pid, ok := v.inPorts[localKey]
	if !ok {
		return 0, domain.NewPortError(0, "unknown input local key")
	}
	return pid, nil
}

// OutPort is the output-port symmetric of InPort.
func (g *Graph) OutPort(vid domain.VID, localKey domain.LocalKey) (domain.PID, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	v, ok := g.vertices[vid]
	if !ok {
		return 0, domain.NewVertexError(vid, "out_port")
	}
	pid, ok := v.outPorts[localKey]
	if !ok {
		return 0, domain.NewPortError(0, "unknown output local key")
	}
	return pid, nil
}

// ConnectedEdges returns the edges attached to pid, respecting direction:
// for an input port, the edges targeting it; for an output port, the
// edges sourced from it.
func (g *Graph) ConnectedEdges(pid domain.PID) ([]domain.EID, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	p, ok := g.ports[pid]
	if !ok {
		return nil, domain.NewPortError(pid, "unknown port")
	}
	out := make([]domain.EID, 0, len(p.edges))
	for eid := range p.edges {
		out = append(out, eid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// ConnectedPorts returns the ports at the far end of pid's attached
// edges: source ports for an input port, target ports for an output one.
func (g *Graph) ConnectedPorts(pid domain.PID) ([]domain.PID, error) {
	eids, err := g.ConnectedEdges(pid)
	if err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	p := g.ports[pid]
	out := make([]domain.PID, 0, len(eids))
	for _, eid := range eids {
		e := g.edges[eid]
		if p.direction == domain.In {
			out = append(out, e.source)
		} else {
			out = append(out, e.target)
		}
	}
	return out, nil
}

// SourcePort returns the output port of eid.
func (g *Graph) SourcePort(eid domain.EID) (domain.PID, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.edges[eid]
	if !ok {
		return 0, domain.NewEdgeError(eid, "unknown edge")
	}
	return e.source, nil
}

// TargetPort returns the input port of eid.
func (g *Graph) TargetPort(eid domain.EID) (domain.PID, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.edges[eid]
	if !ok {
		return 0, domain.NewEdgeError(eid, "unknown edge")
	}
	return e.target, nil
}

// PortVertex returns the vertex that owns pid.
func (g *Graph) PortVertex(pid domain.PID) (domain.VID, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	p, ok := g.ports[pid]
	if !ok {
		return 0, domain.NewPortError(pid, "unknown port")
	}
	return p.vertex, nil
}

// PortDirection returns pid's direction.
func (g *Graph) PortDirection(pid domain.PID) (domain.Direction, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	p, ok := g.ports[pid]
	if !ok {
		return 0, domain.NewPortError(pid, "unknown port")
	}
	return p.direction, nil
}

// Ports returns every port owned by vid, inputs and outputs together,
// sorted by PID for determinism.
func (g *Graph) Ports(vid domain.VID) ([]domain.PID, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	v, ok := g.vertices[vid]
	if !ok {
		return nil, domain.NewVertexError(vid, "ports")
	}
	out := append(localValues(v.inPorts), localValues(v.outPorts)...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// SetActor binds actor to vid (nil clears it), enforcing I3: the
// vertex's existing input/output local keys must equal actor's declared
// keys as sets.
func (g *Graph) SetActor(vid domain.VID, actor ports.Actor) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.vertices[vid]
	if !ok {
		return domain.NewVertexError(vid, "set_actor")
	}
	if actor == nil {
		v.actor = nil
		return nil
	}
	if !sameKeySet(v.inPorts, actor.Inputs()) {
		return domain.NewPortError(0, "actor input keys do not match vertex input ports")
	}
	if !sameKeySet(v.outPorts, actor.Outputs()) {
		return domain.NewPortError(0, "actor output keys do not match vertex output ports")
	}
	v.actor = actor
	return nil
}

func sameKeySet(have map[domain.LocalKey]domain.PID, want []string) bool {
	if len(have) != len(want) {
		return false
	}
	for _, k := range want {
		if _, ok := have[k]; !ok {
			return false
		}
	}
	return true
}

// Actor returns the actor bound to vid, or nil if none.
func (g *Graph) Actor(vid domain.VID) (ports.Actor, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	v, ok := g.vertices[vid]
	if !ok {
		return nil, domain.NewVertexError(vid, "actor")
	}
	return v.actor, nil
}

// AddActor is the convenience constructor of §4.3: it creates a vertex
// (at want, if given), adds input ports in actor.Inputs() order and
// output ports in actor.Outputs() order, then binds the actor. Any
// failure rolls back the partially created vertex.
func (g *Graph) AddActor(actor ports.Actor, want *domain.VID) (domain.VID, error) {
	vid, err := g.AddVertex(want)
	if err != nil {
		return 0, err
	}
	for _, key := range actor.Inputs() {
		if _, err := g.AddInPort(vid, key, nil); err != nil {
			_ = g.RemoveVertex(vid)
			return 0, err
		}
	}
	for _, key := range actor.Outputs() {
		if _, err := g.AddOutPort(vid, key, nil); err != nil {
			_ = g.RemoveVertex(vid)
			return 0, err
		}
	}
	if err := g.SetActor(vid, actor); err != nil {
		_ = g.RemoveVertex(vid)
		return 0, err
	}
	return vid, nil
}

// Clear removes every vertex, edge, and port, and resets the id
// allocators to mint from 1 again.
func (g *Graph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.vertices = make(map[domain.VID]*vertex)
	g.ports = make(map[domain.PID]*port)
	g.edges = make(map[domain.EID]*edge)
	g.order = nil
	g.vidAlloc.Reset()
	g.eidAlloc.Reset()
	g.pidAlloc.Reset()
	g.props.clear()
}

// VertexAttr/SetVertexAttr/EdgeAttr/SetEdgeAttr expose the untyped
// attribute layer (component B, propgraph.go) at the port-graph level.
func (g *Graph) SetVertexAttr(vid domain.VID, key string, val any) {
	g.props.setVertexAttr(int64(vid), key, val)
}
func (g *Graph) VertexAttr(vid domain.VID, key string) (any, bool) {
	return g.props.vertexAttr(int64(vid), key)
}
func (g *Graph) SetEdgeAttr(eid domain.EID, key string, val any) {
	g.props.setEdgeAttr(int64(eid), key, val)
}
func (g *Graph) EdgeAttr(eid domain.EID, key string) (any, bool) {
	return g.props.edgeAttr(int64(eid), key)
}

// Vertices returns every vertex id, in insertion order.
func (g *Graph) Vertices() []domain.VID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]domain.VID, len(g.order))
	copy(out, g.order)
	return out
}

// Edges returns every edge id, sorted ascending.
func (g *Graph) Edges() []domain.EID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]domain.EID, 0, len(g.edges))
	for eid := range g.edges {
		out = append(out, eid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AllPorts returns every port id, sorted ascending.
func (g *Graph) AllPorts() []domain.PID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]domain.PID, 0, len(g.ports))
	for pid := range g.ports {
		out = append(out, pid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// InNeighbors returns the distinct vertices with an edge ending on one of
// vid's input ports.
func (g *Graph) InNeighbors(vid domain.VID) ([]domain.VID, error) {
	g.mu.RLock()
	v, ok := g.vertices[vid]
	if !ok {
		g.mu.RUnlock()
		return nil, domain.NewVertexError(vid, "in_neighbors")
	}
	seen := make(map[domain.VID]struct{})
	for _, pid := range v.inPorts {
		p := g.ports[pid]
		for eid := range p.edges {
			e := g.edges[eid]
			sp := g.ports[e.source]
			seen[sp.vertex] = struct{}{}
		}
	}
	g.mu.RUnlock()
	out := make([]domain.VID, 0, len(seen))
	for vid := range seen {
		out = append(out, vid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// HasOutgoingEdges reports whether any of vid's output ports has an
// attached edge; a vertex with none is a leaf (§4.6 seeding).
func (g *Graph) HasOutgoingEdges(vid domain.VID) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	v, ok := g.vertices[vid]
	if !ok {
		return false, domain.NewVertexError(vid, "has_outgoing_edges")
	}
	for _, pid := range v.outPorts {
		if len(g.ports[pid].edges) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// PortCounts returns the number of vertices, edges, and ports currently
// in the graph, used by the round-trip testable property (§8).
func (g *Graph) PortCounts() (vertices, edges, portsN int) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.vertices), len(g.edges), len(g.ports)
}
