package domain

// Edge connects an output port to an input port. Two edges between the
// same pair of vertices are distinguished by the exact port pair they
// connect, not by the vertex pair alone.
type Edge struct {
	ID     EID
	Source PID // must name an Out port
	Target PID // must name an In port
}
