package optimizer

import (
	"math"
	"testing"
)

// TestSelectParetoPicksBalancedRadius verifies that a candidate
// dominating on all three objectives wins.
func TestSelectParetoPicksBalancedRadius(t *testing.T) {
	results := []Result{
		{Radius: 1, ParticleCount: 10, HHI: 0.9},
		{Radius: 2, ParticleCount: 100, HHI: 0.2, VIToPrev: 0.5, HasVIToPrev: true},
		{Radius: 3, ParticleCount: 90, HHI: 0.5, VIToPrev: 0.4, HasVIToPrev: true},
	}

	radius, err := selectPareto(results, DefaultSelectionPolicy())
	if err != nil {
		t.Fatalf("Pareto selection failed: %v", err)
	}
	// Radius 2 sits at the knee with the lowest dominance index.
	if radius != 2 {
		t.Errorf("Expected radius 2, got %d", radius)
	}
}

// TestSelectParetoPrefersSmallerRadius verifies the deterministic
// outcome on identical per-radius metrics.
func TestSelectParetoPrefersSmallerRadius(t *testing.T) {
	results := []Result{
		{Radius: 3, ParticleCount: 50, HHI: 0.3},
		{Radius: 5, ParticleCount: 50, HHI: 0.3},
	}

	radius, err := selectPareto(results, DefaultSelectionPolicy())
	if err != nil {
		t.Fatalf("Pareto selection failed: %v", err)
	}
	if radius != 3 {
		t.Errorf("Expected the smaller radius 3 on a tie, got %d", radius)
	}
}

// TestSelectParetoHandlesNaNHHI verifies that malformed dominance
// values degrade to the worst score instead of poisoning the
// normalization.
func TestSelectParetoHandlesNaNHHI(t *testing.T) {
	results := []Result{
		{Radius: 1, ParticleCount: 10, HHI: math.NaN()},
		{Radius: 2, ParticleCount: 50, HHI: 0.2},
		{Radius: 3, ParticleCount: 45, HHI: 0.4},
	}

	radius, err := selectPareto(results, DefaultSelectionPolicy())
	if err != nil {
		t.Fatalf("Pareto selection failed: %v", err)
	}
	if radius == 1 {
		t.Error("The NaN-HHI radius should not win")
	}
}

// TestSelectParetoEmpty verifies the empty-sequence error.
func TestSelectParetoEmpty(t *testing.T) {
	if _, err := selectPareto(nil, DefaultSelectionPolicy()); err == nil {
		t.Error("Empty result sequence should fail")
	}
}

// TestMinMaxNormalize verifies scaling and the constant-series
// convention.
func TestMinMaxNormalize(t *testing.T) {
	out := minMaxNormalize([]float64{2, 4, 6})
	want := []float64{0, 0.5, 1}
	for i, w := range want {
		if math.Abs(out[i]-w) > 1e-9 {
			t.Errorf("out[%d]: expected %v, got %v", i, w, out[i])
		}
	}

	flat := minMaxNormalize([]float64{3, 3, 3})
	for i, v := range flat {
		if v != 0 {
			t.Errorf("Constant series should normalize to zeros, got %v at %d", v, i)
		}
	}
}
