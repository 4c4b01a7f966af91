package optimizer

import (
	"context"
	"errors"
	"testing"

	"ctparticles/pkg/volume"
)

// twoParticleVolume builds two boxes joined by a thin neck: radius 0
// leaves them merged, radius 1 severs the neck.
func twoParticleVolume() *volume.Volume {
	vol := volume.New(volume.Dim{Z: 20, Y: 9, X: 9})
	box := func(z0, z1, y0, y1, x0, x1 int) {
		for z := z0; z <= z1; z++ {
			for y := y0; y <= y1; y++ {
				for x := x0; x <= x1; x++ {
					vol.Set(z, y, x, true)
				}
			}
		}
	}
	box(1, 6, 1, 7, 1, 7)
	box(10, 15, 1, 7, 1, 7)
	box(7, 9, 4, 4, 4, 4)
	return vol
}

// TestOptimizeSweep verifies the end-to-end sweep: per-radius records,
// their invariants, and a deterministic selection.
func TestOptimizeSweep(t *testing.T) {
	vol := twoParticleVolume()
	params := DefaultParams([]int{0, 1})

	summary, err := New(params).Optimize(context.Background(), vol)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}

	if len(summary.Results) != 2 {
		t.Fatalf("Expected 2 result records, got %d", len(summary.Results))
	}

	r0 := summary.ResultByRadius(0)
	if r0 == nil || r0.ParticleCount != 1 {
		t.Fatalf("Radius 0 should yield 1 merged particle, got %+v", r0)
	}
	if r0.LargestParticleRatio != 1.0 {
		t.Errorf("Single particle should have ratio 1.0, got %v", r0.LargestParticleRatio)
	}
	if r0.HasVIToPrev {
		t.Error("First radius has no predecessor for VI")
	}

	r1 := summary.ResultByRadius(1)
	if r1 == nil || r1.ParticleCount != 2 {
		t.Fatalf("Radius 1 should yield 2 particles, got %+v", r1)
	}
	if !r1.HasVIToPrev || r1.VIToPrev <= 0 {
		t.Errorf("Radius 1 should record a positive VI to radius 0, got %v", r1.VIToPrev)
	}

	// Interior and excluded counts always partition the total.
	for _, r := range summary.Results {
		if r.InteriorParticleCount+r.ExcludedParticleCount != r.ParticleCount {
			t.Errorf("Radius %d: interior %d + excluded %d != count %d",
				r.Radius, r.InteriorParticleCount, r.ExcludedParticleCount, r.ParticleCount)
		}
		if r.TotalVolume != vol.CountForeground() {
			t.Errorf("Radius %d: labeled volume %d != foreground %d",
				r.Radius, r.TotalVolume, vol.CountForeground())
		}
	}

	// Both ratios exceed tau, so the last-resort state reports the
	// largest tested radius.
	if summary.BestRadius != 1 {
		t.Errorf("Expected best radius 1, got %d", summary.BestRadius)
	}
	if summary.Method != MethodConstraint || summary.Reason != ReasonMaxR {
		t.Errorf("Expected constraint-based/max_r, got %s/%s", summary.Method, summary.Reason)
	}
	if summary.BestResult() == nil {
		t.Error("BestResult should resolve the selected radius")
	}
	if summary.BestLabels != nil {
		t.Error("BestLabels should stay nil unless requested")
	}
}

// TestOptimizeRetainBestLabels verifies the post-selection recompute
// of the winning labeling.
func TestOptimizeRetainBestLabels(t *testing.T) {
	vol := twoParticleVolume()
	params := DefaultParams([]int{0, 1})
	params.RetainBestLabels = true

	summary, err := New(params).Optimize(context.Background(), vol)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}

	if summary.BestLabels == nil {
		t.Fatal("BestLabels should be populated on request")
	}
	if int(summary.BestLabels.MaxLabel()) != summary.BestResult().ParticleCount {
		t.Errorf("Retained labeling has %d particles, summary says %d",
			summary.BestLabels.MaxLabel(), summary.BestResult().ParticleCount)
	}
}

// TestOptimizeProgress verifies monotone progress ending at 100%.
func TestOptimizeProgress(t *testing.T) {
	vol := twoParticleVolume()
	params := DefaultParams([]int{0, 1})

	var events []ProgressEvent
	opt := New(params)
	opt.SetObserver(ObserverFunc(func(ev ProgressEvent) {
		events = append(events, ev)
	}))

	if _, err := opt.Optimize(context.Background(), vol); err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}

	if len(events) != 3 {
		t.Fatalf("Expected 3 progress events (2 radii + completion), got %d", len(events))
	}
	prev := 0.0
	for i, ev := range events {
		if ev.PercentComplete < prev {
			t.Errorf("Progress regressed at event %d: %v after %v", i, ev.PercentComplete, prev)
		}
		prev = ev.PercentComplete
	}
	if events[len(events)-1].PercentComplete != 100.0 {
		t.Errorf("Final event should report 100%%, got %v", prev)
	}
	if events[0].PercentComplete > 95.0 {
		t.Errorf("Sweep events should stay within 95%%, got %v", events[0].PercentComplete)
	}
}

// TestOptimizeCancellation verifies that a cancelled context aborts
// the sweep with the context error and no summary.
func TestOptimizeCancellation(t *testing.T) {
	vol := twoParticleVolume()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := New(DefaultParams([]int{0, 1})).Optimize(ctx, vol)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if summary != nil {
		t.Error("Cancelled run should not produce a summary")
	}
}

// TestOptimizeInputValidation verifies fail-fast rejection of
// malformed inputs before any radius is processed.
func TestOptimizeInputValidation(t *testing.T) {
	good := twoParticleVolume()
	empty := volume.New(volume.Dim{Z: 4, Y: 4, X: 4})

	cases := []struct {
		name   string
		vol    *volume.Volume
		mutate func(*Params)
	}{
		{"nil volume", nil, func(p *Params) {}},
		{"empty volume", empty, func(p *Params) {}},
		{"no radii", good, func(p *Params) { p.Radii = nil }},
		{"negative radius", good, func(p *Params) { p.Radii = []int{-1, 2} }},
		{"descending radii", good, func(p *Params) { p.Radii = []int{3, 1} }},
		{"duplicate radii", good, func(p *Params) { p.Radii = []int{1, 1, 2} }},
		{"bad split connectivity", good, func(p *Params) { p.SplitConnectivity = 7 }},
		{"bad contact connectivity", good, func(p *Params) { p.ContactConnectivity = 0 }},
		{"inverted contact range", good, func(p *Params) { p.Selection.ContactRange = [2]float64{9, 5} }},
		{"negative smoothing window", good, func(p *Params) { p.Selection.SmoothingWindow = -1 }},
	}

	for _, c := range cases {
		params := DefaultParams([]int{0, 1})
		c.mutate(params)

		_, err := New(params).Optimize(context.Background(), c.vol)
		var inErr *InputError
		if !errors.As(err, &inErr) {
			t.Errorf("%s: expected an InputError, got %v", c.name, err)
		}
	}
}

// TestOptimizeDegenerateRadiusInSweep verifies that a radius eroding
// everything stays in the sequence as a zero-particle record.
func TestOptimizeDegenerateRadiusInSweep(t *testing.T) {
	vol := twoParticleVolume()
	params := DefaultParams([]int{0, 1, 8})
	// Loosen tau so the two-particle split qualifies as r*.
	params.Selection.TauRatio = 0.6

	summary, err := New(params).Optimize(context.Background(), vol)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}

	r8 := summary.ResultByRadius(8)
	if r8 == nil {
		t.Fatal("Degenerate radius should keep its record")
	}
	if r8.ParticleCount != 0 || r8.LargestParticleRatio != 0 || r8.TotalVolume != 0 {
		t.Errorf("Degenerate radius should report zeros, got %+v", r8)
	}
	// r* is radius 1; the degenerate record never qualifies for the
	// peak, so the real decomposition wins despite off-band contacts.
	if summary.BestRadius != 1 {
		t.Errorf("Expected best radius 1, got %d", summary.BestRadius)
	}
	if summary.Reason != ReasonRPeak {
		t.Errorf("Expected reason %q, got %q", ReasonRPeak, summary.Reason)
	}
}

// TestOptimizeSolidCube verifies the sweep on a single compact
// particle with no contact partners: the count and dominance never
// move, so selection lands on the last-resort state.
func TestOptimizeSolidCube(t *testing.T) {
	vol := volume.New(volume.Dim{Z: 24, Y: 24, X: 24})
	for z := 2; z < 22; z++ {
		for y := 2; y < 22; y++ {
			for x := 2; x < 22; x++ {
				vol.Set(z, y, x, true)
			}
		}
	}

	summary, err := New(DefaultParams([]int{1, 2, 3})).Optimize(context.Background(), vol)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}

	for _, r := range summary.Results {
		if r.ParticleCount != 1 {
			t.Errorf("Radius %d: expected 1 particle, got %d", r.Radius, r.ParticleCount)
		}
		if r.LargestParticleRatio != 1.0 {
			t.Errorf("Radius %d: expected ratio 1.0, got %v", r.Radius, r.LargestParticleRatio)
		}
		if r.MeanContacts != 0 {
			t.Errorf("Radius %d: expected 0 contacts, got %v", r.Radius, r.MeanContacts)
		}
	}
	if summary.BestRadius != 3 || summary.Reason != ReasonMaxR {
		t.Errorf("Expected max_r at radius 3, got %d/%s", summary.BestRadius, summary.Reason)
	}
}

// TestOptimizeDisjointGrid verifies the sweep on 8 equal well
// separated cubes: the count stays at 8 across radii and nothing
// registers contacts.
func TestOptimizeDisjointGrid(t *testing.T) {
	vol := volume.New(volume.Dim{Z: 17, Y: 17, X: 17})
	for _, oz := range []int{1, 11} {
		for _, oy := range []int{1, 11} {
			for _, ox := range []int{1, 11} {
				for z := oz; z < oz+5; z++ {
					for y := oy; y < oy+5; y++ {
						for x := ox; x < ox+5; x++ {
							vol.Set(z, y, x, true)
						}
					}
				}
			}
		}
	}

	summary, err := New(DefaultParams([]int{0, 1, 2})).Optimize(context.Background(), vol)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}

	for _, r := range summary.Results {
		if r.ParticleCount != 8 {
			t.Errorf("Radius %d: expected 8 particles, got %d", r.Radius, r.ParticleCount)
		}
		if r.LargestParticleRatio != 0.125 {
			t.Errorf("Radius %d: expected ratio 0.125, got %v", r.Radius, r.LargestParticleRatio)
		}
		if r.MeanContacts != 0 {
			t.Errorf("Radius %d: expected 0 contacts, got %v", r.Radius, r.MeanContacts)
		}
	}
	// 0.125 never clears the default tau, so max_r is the outcome.
	if summary.BestRadius != 2 || summary.Reason != ReasonMaxR {
		t.Errorf("Expected max_r at radius 2, got %d/%s", summary.BestRadius, summary.Reason)
	}
}

// TestChannelObserverDropsOldest verifies the non-blocking buffered
// observer keeps the freshest events.
func TestChannelObserverDropsOldest(t *testing.T) {
	obs := NewChannelObserver(2)
	for i := 1; i <= 5; i++ {
		obs.OnRadiusComplete(ProgressEvent{Radius: i})
	}
	obs.Close()

	var got []int
	for ev := range obs.Events() {
		got = append(got, ev.Radius)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 buffered events, got %d", len(got))
	}
	if got[len(got)-1] != 5 {
		t.Errorf("The newest event should survive, got %v", got)
	}
}
