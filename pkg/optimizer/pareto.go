package optimizer

import (
	"math"

	"ctparticles/pkg/metrics"
)

// selectPareto is the multi-objective fallback used when the
// constraint-based selector fails. Three objectives are minimized per
// radius:
//
//   - dominance (HHI over particle volume shares)
//   - distance to the knee point of the particle-count curve
//   - instability (mean Variation of Information against the
//     neighboring radii)
//
// Each objective is independently min-max normalized, the Pareto
// non-dominated set is extracted, and the candidate closest
// (Euclidean) to the ideal origin wins. Ties break toward the smaller
// radius, then the lower raw HHI, then the contact count closest to
// the policy target.
func selectPareto(results []Result, policy SelectionPolicy) (int, error) {
	n := len(results)
	if n == 0 {
		return 0, selectionErrorf("empty result sequence")
	}

	radii := make([]float64, n)
	counts := make([]float64, n)
	for i, r := range results {
		radii[i] = float64(r.Radius)
		counts[i] = float64(r.ParticleCount)
	}
	kneeIdx := metrics.KneeIndex(radii, counts)

	hhi := make([]float64, n)
	kneeDist := make([]float64, n)
	instability := make([]float64, n)
	for i, r := range results {
		hhi[i] = r.HHI
		if math.IsNaN(hhi[i]) {
			hhi[i] = 1.0
		}
		kneeDist[i] = math.Abs(float64(i - kneeIdx))

		// Mean VI to whichever neighbors exist; the stored VIToPrev
		// of radius i+1 is the VI between radii i and i+1.
		sum, cnt := 0.0, 0
		if r.HasVIToPrev && !math.IsNaN(r.VIToPrev) {
			sum += r.VIToPrev
			cnt++
		}
		if i+1 < n && results[i+1].HasVIToPrev && !math.IsNaN(results[i+1].VIToPrev) {
			sum += results[i+1].VIToPrev
			cnt++
		}
		if cnt > 0 {
			instability[i] = sum / float64(cnt)
		}
	}

	objs := make([][3]float64, n)
	hhiN := minMaxNormalize(hhi)
	kneeN := minMaxNormalize(kneeDist)
	instabN := minMaxNormalize(instability)
	for i := 0; i < n; i++ {
		objs[i] = [3]float64{hhiN[i], kneeN[i], instabN[i]}
	}

	dominates := func(a, b int) bool {
		le, lt := true, false
		for k := 0; k < 3; k++ {
			if objs[a][k] > objs[b][k] {
				le = false
				break
			}
			if objs[a][k] < objs[b][k] {
				lt = true
			}
		}
		return le && lt
	}

	var candidates []int
	for i := 0; i < n; i++ {
		dominated := false
		for j := 0; j < n; j++ {
			if j != i && dominates(j, i) {
				dominated = true
				break
			}
		}
		if !dominated {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		candidates = make([]int, n)
		for i := range candidates {
			candidates[i] = i
		}
	}

	distance := func(i int) float64 {
		o := objs[i]
		return math.Sqrt(o[0]*o[0] + o[1]*o[1] + o[2]*o[2])
	}

	best := candidates[0]
	for _, i := range candidates[1:] {
		di, db := distance(i), distance(best)
		switch {
		case di < db:
			best = i
		case di > db:
		case results[i].Radius < results[best].Radius:
			best = i
		case results[i].Radius > results[best].Radius:
		case hhi[i] < hhi[best]:
			best = i
		case hhi[i] > hhi[best]:
		case math.Abs(results[i].MeanContacts-policy.TargetContacts) <
			math.Abs(results[best].MeanContacts-policy.TargetContacts):
			best = i
		}
	}

	return results[best].Radius, nil
}

// minMaxNormalize scales values into [0,1]; a constant series maps to
// all zeros.
func minMaxNormalize(values []float64) []float64 {
	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	out := make([]float64, len(values))
	if max <= min {
		return out
	}
	for i, v := range values {
		out[i] = (v - min) / (max - min)
	}
	return out
}
