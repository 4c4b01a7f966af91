package optimizer

import (
	"errors"
	"math"
	"testing"
)

// mkResult builds a result record with the fields the selector reads.
func mkResult(radius, count int, ratio, contacts float64) Result {
	return Result{
		Radius:               radius,
		ParticleCount:        count,
		LargestParticleRatio: ratio,
		MeanContacts:         contacts,
	}
}

// TestSelectPeakAndContacts exercises the first-priority state: the
// particle-count peak past r* with plausible contacts.
func TestSelectPeakAndContacts(t *testing.T) {
	results := []Result{
		mkResult(1, 1, 0.50, 0),
		mkResult(2, 100, 0.02, 4),
		mkResult(3, 120, 0.02, 6),
		mkResult(4, 90, 0.02, 5),
	}

	radius, reason, err := selectByConstraints(results, DefaultSelectionPolicy())
	if err != nil {
		t.Fatalf("Selection failed: %v", err)
	}
	if radius != 3 {
		t.Errorf("Expected radius 3, got %d", radius)
	}
	if reason != ReasonPeakAndContacts {
		t.Errorf("Expected reason %q, got %q", ReasonPeakAndContacts, reason)
	}
}

// TestSelectContactsOnly exercises the second state: the peak has
// implausible contacts but another qualifying radius is in band.
func TestSelectContactsOnly(t *testing.T) {
	results := []Result{
		mkResult(1, 120, 0.02, 12),
		mkResult(2, 100, 0.02, 6),
	}

	radius, reason, err := selectByConstraints(results, DefaultSelectionPolicy())
	if err != nil {
		t.Fatalf("Selection failed: %v", err)
	}
	if radius != 2 {
		t.Errorf("Expected radius 2, got %d", radius)
	}
	if reason != ReasonContactsOnly {
		t.Errorf("Expected reason %q, got %q", ReasonContactsOnly, reason)
	}
}

// TestSelectRPeak exercises the third state: contacts are off band
// everywhere, so the peak wins on count alone.
func TestSelectRPeak(t *testing.T) {
	results := []Result{
		mkResult(1, 120, 0.02, 12),
		mkResult(2, 100, 0.02, 11),
	}

	radius, reason, err := selectByConstraints(results, DefaultSelectionPolicy())
	if err != nil {
		t.Fatalf("Selection failed: %v", err)
	}
	if radius != 1 {
		t.Errorf("Expected radius 1, got %d", radius)
	}
	if reason != ReasonRPeak {
		t.Errorf("Expected reason %q, got %q", ReasonRPeak, reason)
	}
}

// TestSelectMaxR exercises the last-resort state: dominance never
// drops below tau, so the largest tested radius is reported.
func TestSelectMaxR(t *testing.T) {
	results := []Result{
		mkResult(1, 1, 0.90, 0),
		mkResult(2, 2, 0.60, 1),
		mkResult(3, 3, 0.40, 2),
	}

	radius, reason, err := selectByConstraints(results, DefaultSelectionPolicy())
	if err != nil {
		t.Fatalf("Selection failed: %v", err)
	}
	if radius != 3 {
		t.Errorf("Expected radius 3, got %d", radius)
	}
	if reason != ReasonMaxR {
		t.Errorf("Expected reason %q, got %q", ReasonMaxR, reason)
	}
}

// TestSelectSkipsDegenerateRadii verifies that zero-particle records
// never qualify for r* or the peak.
func TestSelectSkipsDegenerateRadii(t *testing.T) {
	results := []Result{
		mkResult(1, 0, 0, 0), // fully eroded, ratio 0 must not fake r*
		mkResult(2, 50, 0.02, 6),
		mkResult(3, 0, 0, 0),
	}

	radius, reason, err := selectByConstraints(results, DefaultSelectionPolicy())
	if err != nil {
		t.Fatalf("Selection failed: %v", err)
	}
	if radius != 2 {
		t.Errorf("Expected radius 2, got %d", radius)
	}
	if reason != ReasonPeakAndContacts {
		t.Errorf("Expected reason %q, got %q", ReasonPeakAndContacts, reason)
	}
}

// TestSelectPeakTieBreak verifies that equal smoothed counts resolve
// toward the smaller radius.
func TestSelectPeakTieBreak(t *testing.T) {
	results := []Result{
		mkResult(1, 100, 0.02, 6),
		mkResult(2, 100, 0.02, 6),
	}

	radius, _, err := selectByConstraints(results, DefaultSelectionPolicy())
	if err != nil {
		t.Fatalf("Selection failed: %v", err)
	}
	if radius != 1 {
		t.Errorf("Expected the smaller radius 1 on a tie, got %d", radius)
	}
}

// TestSelectSmoothingChangesPeak verifies that the moving average
// applies to peak detection only.
func TestSelectSmoothingChangesPeak(t *testing.T) {
	results := []Result{
		mkResult(1, 10, 0.02, 6),
		mkResult(2, 30, 0.02, 6),
		mkResult(3, 12, 0.02, 6),
		mkResult(4, 28, 0.02, 6),
		mkResult(5, 26, 0.02, 6),
	}

	policy := DefaultSelectionPolicy()
	radius, _, err := selectByConstraints(results, policy)
	if err != nil {
		t.Fatalf("Selection failed: %v", err)
	}
	if radius != 2 {
		t.Errorf("Raw counts should peak at radius 2, got %d", radius)
	}

	policy.SmoothingWindow = 3
	radius, _, err = selectByConstraints(results, policy)
	if err != nil {
		t.Fatalf("Selection failed: %v", err)
	}
	if radius != 5 {
		t.Errorf("Smoothed counts should peak at radius 5, got %d", radius)
	}
}

// TestSelectMalformedMetrics verifies that NaN metrics raise a
// SelectionError instead of silently choosing a radius.
func TestSelectMalformedMetrics(t *testing.T) {
	results := []Result{
		mkResult(1, 10, math.NaN(), 6),
	}

	_, _, err := selectByConstraints(results, DefaultSelectionPolicy())
	var selErr *SelectionError
	if !errors.As(err, &selErr) {
		t.Fatalf("Expected a SelectionError, got %v", err)
	}
}

// TestSelectEmptyResults verifies the empty-sequence error.
func TestSelectEmptyResults(t *testing.T) {
	_, _, err := selectByConstraints(nil, DefaultSelectionPolicy())
	var selErr *SelectionError
	if !errors.As(err, &selErr) {
		t.Fatalf("Expected a SelectionError, got %v", err)
	}
}

// TestMovingAverage verifies the centered window with edge shrinking.
func TestMovingAverage(t *testing.T) {
	values := []float64{10, 30, 12, 28, 26}
	out := movingAverage(values, 3)

	want := []float64{20, 52.0 / 3.0, 70.0 / 3.0, 22, 27}
	for i, w := range want {
		if math.Abs(out[i]-w) > 1e-9 {
			t.Errorf("out[%d]: expected %v, got %v", i, w, out[i])
		}
	}

	// Even widths widen to the next odd window.
	even := movingAverage(values, 2)
	for i := range even {
		if math.Abs(even[i]-out[i]) > 1e-9 {
			t.Errorf("Window 2 should behave like window 3 at index %d", i)
		}
	}
}
