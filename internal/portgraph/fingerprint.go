package portgraph

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"
)

// Fingerprint returns a deterministic digest of the graph's current
// topology: the sorted vertex, edge, and port id lists, hashed with
// sha256 (§3, §6). Two graphs with the same vertex/edge/port id sets
// produce the same fingerprint regardless of insertion order; value
// contents (actors, stored values) are never fingerprinted.
func (g *Graph) Fingerprint() [32]byte {
	vertices := g.Vertices()
	edges := g.Edges()
	portIDs := g.AllPorts()

	// Vertices() preserves insertion order; the fingerprint must be
	// order-independent, so sort a copy before hashing.
	sorted := make([]int64, len(vertices))
	for i, v := range vertices {
		sorted[i] = int64(v)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	h := sha256.New()
	writeInt64s(h, sorted)
	edgeIDs := make([]int64, len(edges))
	for i, e := range edges {
		edgeIDs[i] = int64(e)
	}
	writeInt64s(h, edgeIDs)
	pids := make([]int64, len(portIDs))
	for i, p := range portIDs {
		pids[i] = int64(p)
	}
	writeInt64s(h, pids)

	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// writeInt64s writes the list length before its elements, so that moving
// an id from the end of one list to the start of the next changes the
// digest.
func writeInt64s(h interface{ Write([]byte) (int, error) }, vals []int64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(len(vals)))
	_, _ = h.Write(buf[:])
	for _, v := range vals {
		binary.BigEndian.PutUint64(buf[:], uint64(v))
		_, _ = h.Write(buf[:])
	}
}
