// Package metrics provides the statistical primitives used to judge a
// particle decomposition: per-label volume statistics, dominance
// indices over the particle size distribution, knee-point detection
// on the particle-count curve, and the Variation of Information
// distance between two labelings.
package metrics

import (
	"sort"

	"ctparticles/pkg/volume"
)

// ParticleVolumes returns the voxel volume of every particle in the
// label volume, keyed by particle id. Background is excluded.
func ParticleVolumes(labels *volume.LabelVolume) map[int32]int {
	volumes := make(map[int32]int)
	for _, id := range labels.Data {
		if id > 0 {
			volumes[id]++
		}
	}
	return volumes
}

// LargestParticleRatio returns the fraction of the total particle
// volume occupied by the single largest particle, along with the
// largest and total volumes in voxels. By convention the ratio is 0
// when the volume contains no particles.
func LargestParticleRatio(labels *volume.LabelVolume) (ratio float64, largest, total int) {
	for _, v := range ParticleVolumes(labels) {
		total += v
		if v > largest {
			largest = v
		}
	}
	if total == 0 {
		return 0, 0, 0
	}
	return float64(largest) / float64(total), largest, total
}

// sortedShares returns the particle volume shares sorted descending.
func sortedShares(labels *volume.LabelVolume) []float64 {
	volumes := ParticleVolumes(labels)
	if len(volumes) == 0 {
		return nil
	}
	total := 0
	vals := make([]int, 0, len(volumes))
	for _, v := range volumes {
		vals = append(vals, v)
		total += v
	}
	sort.Sort(sort.Reverse(sort.IntSlice(vals)))

	shares := make([]float64, len(vals))
	for i, v := range vals {
		shares[i] = float64(v) / float64(total)
	}
	return shares
}

// HHI returns the Herfindahl-Hirschman Index over particle volume
// shares: sum of squared shares, in (0,1]. It approaches 1 when a
// single particle dominates and 0 for many equal particles. An empty
// labeling yields 0.
func HHI(labels *volume.LabelVolume) float64 {
	sum := 0.0
	for _, s := range sortedShares(labels) {
		sum += s * s
	}
	return sum
}

// TopKShare returns the cumulative volume share of the k largest
// particles, in [0,1]. k is clamped to the particle count; an empty
// labeling yields 0.
func TopKShare(labels *volume.LabelVolume, k int) float64 {
	if k < 1 {
		return 0
	}
	shares := sortedShares(labels)
	if k > len(shares) {
		k = len(shares)
	}
	sum := 0.0
	for _, s := range shares[:k] {
		sum += s
	}
	return sum
}

// Gini returns the Gini coefficient of the particle volume
// distribution: 0 for equal sizes, approaching 1 for extreme
// inequality.
func Gini(labels *volume.LabelVolume) float64 {
	volumes := ParticleVolumes(labels)
	n := len(volumes)
	if n <= 1 {
		return 0
	}
	vals := make([]float64, 0, n)
	total := 0.0
	for _, v := range volumes {
		vals = append(vals, float64(v))
		total += float64(v)
	}
	if total == 0 {
		return 0
	}
	sort.Float64s(vals)

	// Brown (1994) cumulative-sum formulation.
	weighted := 0.0
	for i, v := range vals {
		weighted += float64(n-i) * v
	}
	g := (float64(n+1) - 2.0*weighted/total) / float64(n)
	if g < 0 {
		g = 0
	}
	if g > 1 {
		g = 1
	}
	return g
}
