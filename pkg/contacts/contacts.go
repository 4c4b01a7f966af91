// Package contacts computes inter-particle contact statistics over a
// labeled volume: the symmetric particle-adjacency relation, the
// per-particle contact counts derived from it, and the guard-volume
// filtering that removes field-of-view truncation bias from those
// statistics.
package contacts

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/stat"

	"ctparticles/pkg/volume"
)

// Record holds the contact analysis of one label volume: an
// undirected adjacency graph between particle ids and the set of
// particle ids present. A pair of particles counts as one contact
// regardless of how many shared-boundary voxels connect them. Records
// are derived data, recomputed per radius and never mutated after
// creation.
type Record struct {
	graph   *simple.UndirectedGraph
	present []int32
}

// Count scans the label volume under the given connectivity and
// records every unordered pair of distinct nonzero labels that share
// an adjacent voxel pair. The scan uses the positive half of the
// neighborhood so each voxel pair is inspected exactly once; the
// relation is symmetric by construction.
func Count(labels *volume.LabelVolume, conn volume.Connectivity) (*Record, error) {
	if !conn.Valid() {
		return nil, fmt.Errorf("unsupported connectivity %d (want 6, 18 or 26)", conn)
	}

	dim := labels.Dim
	offsets := conn.HalfOffsets()
	g := simple.NewUndirectedGraph()
	seen := make(map[int32]struct{})

	for z := 0; z < dim.Z; z++ {
		for y := 0; y < dim.Y; y++ {
			for x := 0; x < dim.X; x++ {
				a := labels.Data[dim.Index(z, y, x)]
				if a == 0 {
					continue
				}
				if _, ok := seen[a]; !ok {
					seen[a] = struct{}{}
					if g.Node(int64(a)) == nil {
						g.AddNode(simple.Node(a))
					}
				}
				for _, o := range offsets {
					nz, ny, nx := z+o.DZ, y+o.DY, x+o.DX
					if !dim.Contains(nz, ny, nx) {
						continue
					}
					b := labels.Data[dim.Index(nz, ny, nx)]
					if b == 0 || b == a {
						continue
					}
					if _, ok := seen[b]; !ok {
						seen[b] = struct{}{}
						if g.Node(int64(b)) == nil {
							g.AddNode(simple.Node(b))
						}
					}
					if !g.HasEdgeBetween(int64(a), int64(b)) {
						g.SetEdge(g.NewEdge(g.Node(int64(a)), g.Node(int64(b))))
					}
				}
			}
		}
	}

	present := make([]int32, 0, len(seen))
	for id := range seen {
		present = append(present, id)
	}
	sort.Slice(present, func(i, j int) bool { return present[i] < present[j] })

	return &Record{graph: g, present: present}, nil
}

// ParticleIDs returns the sorted ids of all particles present in the
// label volume, including isolated ones.
func (r *Record) ParticleIDs() []int32 {
	out := make([]int32, len(r.present))
	copy(out, r.present)
	return out
}

// ContactCount returns the number of distinct other particles
// touching the given particle. Particles with no foreign neighbors
// (isolated particles) report 0.
func (r *Record) ContactCount(id int32) int {
	if r.graph.Node(int64(id)) == nil {
		return 0
	}
	return r.graph.From(int64(id)).Len()
}

// Counts returns the contact count for every particle present in the
// volume, including zero counts for isolated particles.
func (r *Record) Counts() map[int32]int {
	counts := make(map[int32]int, len(r.present))
	for _, id := range r.present {
		counts[id] = r.ContactCount(id)
	}
	return counts
}

// Pairs returns the deduplicated unordered adjacency pairs, each with
// the smaller id first, sorted for deterministic iteration.
func (r *Record) Pairs() [][2]int32 {
	var pairs [][2]int32
	edges := r.graph.Edges()
	for edges.Next() {
		e := edges.Edge()
		a, b := int32(e.From().ID()), int32(e.To().ID())
		if a > b {
			a, b = b, a
		}
		pairs = append(pairs, [2]int32{a, b})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
	return pairs
}

// MeanOver returns the mean contact count over the given particle
// ids, typically the interior set after guard filtering. It returns 0
// when ids is empty.
func (r *Record) MeanOver(ids []int32) float64 {
	if len(ids) == 0 {
		return 0
	}
	vals := make([]float64, len(ids))
	for i, id := range ids {
		vals[i] = float64(r.ContactCount(id))
	}
	return stat.Mean(vals, nil)
}
