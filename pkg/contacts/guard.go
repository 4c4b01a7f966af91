package contacts

import (
	"math"
	"sort"

	"ctparticles/pkg/volume"
)

// GuardPolicy holds the tunable parameters of the guard-volume margin
// formula. The historical revisions of this analysis disagreed on the
// exact scale factor and floor, so all three knobs are explicit
// policy values rather than constants.
type GuardPolicy struct {
	// MarginMultiplier scales the largest particle's equivalent
	// radius into a margin width.
	MarginMultiplier float64

	// MinMarginVoxels is the absolute floor of the margin in voxels.
	MinMarginVoxels int

	// MaxMarginFraction caps the margin at this fraction of every
	// volume dimension, guaranteeing a non-degenerate interior
	// region even for small volumes. Must be below 0.5.
	MaxMarginFraction float64
}

// DefaultGuardPolicy returns the guard parameters used by the
// standard analysis: margin = max(r_eq x 0.3, 10 voxels), capped at
// 6% of each dimension.
func DefaultGuardPolicy() GuardPolicy {
	return GuardPolicy{
		MarginMultiplier:  0.3,
		MinMarginVoxels:   10,
		MaxMarginFraction: 0.06,
	}
}

// GuardMask describes the interior sub-region of a volume: all voxels
// at least Margin voxels away from every face. It is used only to
// classify particles for statistics, never to relabel them.
type GuardMask struct {
	Margin int
	Dim    volume.Dim
}

// Contains reports whether (z, y, x) lies strictly inside the
// interior region.
func (g GuardMask) Contains(z, y, x int) bool {
	return z >= g.Margin && z < g.Dim.Z-g.Margin &&
		y >= g.Margin && y < g.Dim.Y-g.Margin &&
		x >= g.Margin && x < g.Dim.X-g.Margin
}

// MaxEquivalentRadius returns the largest sphere-equivalent radius
// over all particles, r = (3V / 4pi)^(1/3) with V in voxels. It
// returns 0 when the volume has no particles.
func MaxEquivalentRadius(labels *volume.LabelVolume) float64 {
	volumes := make(map[int32]int)
	for _, id := range labels.Data {
		if id > 0 {
			volumes[id]++
		}
	}
	maxRadius := 0.0
	for _, v := range volumes {
		r := math.Cbrt(3.0 * float64(v) / (4.0 * math.Pi))
		if r > maxRadius {
			maxRadius = r
		}
	}
	return maxRadius
}

// ComputeGuardMargin derives the guard margin in voxels for a label
// volume under the given policy:
//
//	margin = max(ceil(r_eq_max x multiplier), floor)
//
// capped so the margin never exceeds MaxMarginFraction of any
// dimension, and never reaches half of any dimension.
func ComputeGuardMargin(labels *volume.LabelVolume, policy GuardPolicy) int {
	maxRadius := MaxEquivalentRadius(labels)
	margin := int(math.Ceil(maxRadius * policy.MarginMultiplier))
	if margin < policy.MinMarginVoxels {
		margin = policy.MinMarginVoxels
	}

	dim := labels.Dim
	maxAllowed := dims3Min(
		int(float64(dim.Z)*policy.MaxMarginFraction),
		int(float64(dim.Y)*policy.MaxMarginFraction),
		int(float64(dim.X)*policy.MaxMarginFraction),
	)
	// The interior region must never be empty.
	half := dims3Min((dim.Z-1)/2, (dim.Y-1)/2, (dim.X-1)/2)
	if maxAllowed > half {
		maxAllowed = half
	}
	if margin > maxAllowed {
		margin = maxAllowed
	}
	if margin < 0 {
		margin = 0
	}
	return margin
}

// FilterInterior partitions the particles of a label volume into
// interior ids (whose full voxel extent lies strictly within
// [margin, dim-margin) on all three axes) and boundary ids (touching
// the margin band). Both slices come back sorted.
func FilterInterior(labels *volume.LabelVolume, margin int) (interior, boundary []int32) {
	dim := labels.Dim
	mask := GuardMask{Margin: margin, Dim: dim}

	type extent struct {
		minZ, minY, minX int
		maxZ, maxY, maxX int
	}
	extents := make(map[int32]*extent)

	for z := 0; z < dim.Z; z++ {
		for y := 0; y < dim.Y; y++ {
			for x := 0; x < dim.X; x++ {
				id := labels.Data[dim.Index(z, y, x)]
				if id == 0 {
					continue
				}
				e, ok := extents[id]
				if !ok {
					extents[id] = &extent{z, y, x, z, y, x}
					continue
				}
				if z < e.minZ {
					e.minZ = z
				}
				if y < e.minY {
					e.minY = y
				}
				if x < e.minX {
					e.minX = x
				}
				if z > e.maxZ {
					e.maxZ = z
				}
				if y > e.maxY {
					e.maxY = y
				}
				if x > e.maxX {
					e.maxX = x
				}
			}
		}
	}

	for id, e := range extents {
		if mask.Contains(e.minZ, e.minY, e.minX) && mask.Contains(e.maxZ, e.maxY, e.maxX) {
			interior = append(interior, id)
		} else {
			boundary = append(boundary, id)
		}
	}
	sort.Slice(interior, func(i, j int) bool { return interior[i] < interior[j] })
	sort.Slice(boundary, func(i, j int) bool { return boundary[i] < boundary[j] })
	return interior, boundary
}

func dims3Min(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
