package optimizer

import (
	"math"
)

// selectByConstraints implements the constraint-based decision policy
// over the complete ordered result sequence. The states are ordinary
// conditional branches evaluated in priority order; the first match
// wins:
//
//	r*      smallest radius whose dominance ratio is <= tau
//	R_peak  maximum particle count among qualifying radii >= r*
//	A       R_peak with mean contacts inside the band  -> "peak_and_contacts"
//	B       first radius >= r* with contacts in band   -> "contacts_only"
//	C       R_peak regardless of contacts              -> "r_peak"
//	D       r* itself                                  -> "r_star"
//	E       maximum tested radius                      -> "max_r"
//
// Degenerate radii (zero particles) stay in the sequence but never
// qualify for r* or R_peak. Malformed metrics raise a SelectionError,
// which the optimizer converts into the Pareto fallback.
func selectByConstraints(results []Result, policy SelectionPolicy) (int, string, error) {
	if len(results) == 0 {
		return 0, "", selectionErrorf("empty result sequence")
	}
	for _, r := range results {
		if math.IsNaN(r.LargestParticleRatio) || math.IsInf(r.LargestParticleRatio, 0) ||
			math.IsNaN(r.MeanContacts) || math.IsInf(r.MeanContacts, 0) {
			return 0, "", selectionErrorf("malformed metrics at radius %d", r.Radius)
		}
	}

	counts := make([]float64, len(results))
	for i, r := range results {
		counts[i] = float64(r.ParticleCount)
	}
	if w := policy.SmoothingWindow; w > 1 {
		counts = movingAverage(counts, w)
	}

	cMin, cMax := policy.ContactRange[0], policy.ContactRange[1]
	inBand := func(r Result) bool {
		return r.MeanContacts >= cMin && r.MeanContacts <= cMax
	}

	// r*: smallest radius meeting the dominance constraint.
	starIdx := -1
	for i, r := range results {
		if r.ParticleCount > 0 && r.LargestParticleRatio <= policy.TauRatio {
			starIdx = i
			break
		}
	}

	if starIdx >= 0 {
		// R_peak: maximum (smoothed) particle count among radii >= r*
		// that still meet the ratio constraint; ties break toward the
		// smaller radius.
		peakIdx := -1
		for i := starIdx; i < len(results); i++ {
			r := results[i]
			if r.ParticleCount == 0 || r.LargestParticleRatio > policy.TauRatio {
				continue
			}
			if peakIdx < 0 || counts[i] > counts[peakIdx] {
				peakIdx = i
			}
		}

		// State A: peak radius with plausible coordination numbers.
		if peakIdx >= 0 && inBand(results[peakIdx]) {
			return results[peakIdx].Radius, ReasonPeakAndContacts, nil
		}

		// State B: first radius past r* whose contacts land in band.
		for i := starIdx; i < len(results); i++ {
			if results[i].ParticleCount > 0 && inBand(results[i]) {
				return results[i].Radius, ReasonContactsOnly, nil
			}
		}

		// State C: the peak, even with off-band contacts.
		if peakIdx >= 0 {
			return results[peakIdx].Radius, ReasonRPeak, nil
		}

		// State D: fall back to r* itself.
		return results[starIdx].Radius, ReasonRStar, nil
	}

	// State E: dominance never dropped below tau; report the largest
	// tested radius as the last resort.
	return results[len(results)-1].Radius, ReasonMaxR, nil
}

// movingAverage applies a centered moving average with the given odd
// window width, shrinking the window at the sequence edges. Even
// widths are widened by one.
func movingAverage(values []float64, window int) []float64 {
	if window%2 == 0 {
		window++
	}
	half := window / 2
	out := make([]float64, len(values))
	for i := range values {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi > len(values)-1 {
			hi = len(values) - 1
		}
		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}
