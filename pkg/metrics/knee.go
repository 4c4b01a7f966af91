package metrics

// KneeIndex locates the knee point of a curve using the kneedle
// heuristic: both axes are min-max normalized and the index with the
// maximum vertical distance above the diagonal is returned. With
// radius on x and particle count on y this marks the point where
// further erosion stops paying off.
//
// Curves with fewer than 3 points have no meaningful knee; index 0 is
// returned. Flat curves likewise return 0.
func KneeIndex(xs, ys []float64) int {
	n := len(xs)
	if n < 3 || len(ys) != n {
		return 0
	}

	xn := normalize(xs)
	yn := normalize(ys)
	if xn == nil || yn == nil {
		return 0
	}

	best := 0
	bestDiff := yn[0] - xn[0]
	for i := 1; i < n; i++ {
		if d := yn[i] - xn[i]; d > bestDiff {
			bestDiff = d
			best = i
		}
	}
	return best
}

// normalize min-max scales values into [0,1], or returns nil for a
// constant series.
func normalize(values []float64) []float64 {
	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max <= min {
		return nil
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v - min) / (max - min)
	}
	return out
}
