// Package optimizer drives the particle splitter across a candidate
// set of erosion radii, computes per-radius statistics, and selects
// the radius that yields the most physically plausible particle
// decomposition. The per-radius Result records and the final Summary
// are the sole interface exposed to GUI, CLI and persistence
// collaborators.
package optimizer

import (
	"time"

	"ctparticles/pkg/volume"
)

// Result holds the statistics computed for a single tested radius.
// Results are created once per radius and immutable afterward.
//
// Invariants: LargestParticleRatio equals LargestParticleVolume /
// TotalVolume (0 when no particles survive), and
// InteriorParticleCount + ExcludedParticleCount equals ParticleCount.
type Result struct {
	// Radius is the erosion radius in voxels.
	Radius int

	// ParticleCount is the number of distinct particles after
	// splitting. 0 marks a degenerate radius that eroded the whole
	// foreground; such records stay in the sequence but are skipped
	// by the dominance-based selection states.
	ParticleCount int

	// LargestParticleRatio is the dominance ratio: the fraction of
	// total particle volume held by the single largest particle.
	LargestParticleRatio float64

	// MeanContacts is the mean contact count over interior particles
	// only (guard-volume filtered).
	MeanContacts float64

	// InteriorParticleCount and ExcludedParticleCount partition
	// ParticleCount into guard-interior and boundary-touching
	// particles. Only contact statistics honor this partition.
	InteriorParticleCount int
	ExcludedParticleCount int

	// TotalVolume and LargestParticleVolume are voxel volumes over
	// all particles.
	TotalVolume           int
	LargestParticleVolume int

	// GuardMargin is the guard band width in voxels used for the
	// interior/boundary partition at this radius.
	GuardMargin int

	// ProcessingTime is the wall time spent on this radius.
	ProcessingTime time.Duration

	// HHI is the Herfindahl-Hirschman dominance index over particle
	// volume shares, retained for the Pareto fallback.
	HHI float64

	// VIToPrev is the Variation of Information between this radius's
	// labeling and the previous one in the sweep. Valid only when
	// HasVIToPrev is set (the first radius has no predecessor).
	VIToPrev    float64
	HasVIToPrev bool
}

// Selection method identifiers recorded on the Summary.
const (
	MethodConstraint = "constraint-based"
	MethodPareto     = "pareto-fallback"
)

// Reason codes produced by the constraint-based selector, in priority
// order, plus the fallback marker.
const (
	ReasonPeakAndContacts = "peak_and_contacts"
	ReasonContactsOnly    = "contacts_only"
	ReasonRPeak           = "r_peak"
	ReasonRStar           = "r_star"
	ReasonMaxR            = "max_r"
	ReasonParetoFallback  = "pareto-fallback"
)

// Summary is the terminal artifact of an optimization run: the chosen
// radius, the complete ordered result sequence (insertion order is
// ascending radius), and how the choice was made.
type Summary struct {
	// BestRadius is the selected erosion radius.
	BestRadius int

	// Results holds one record per tested radius, ascending.
	Results []Result

	// Method is MethodConstraint or MethodPareto.
	Method string

	// Reason is the human-readable reason code for the selection.
	Reason string

	// TotalProcessingTime is the wall time of the whole sweep
	// including selection.
	TotalProcessingTime time.Duration

	// BestLabels is the label volume of the best radius, recomputed
	// after selection when requested via Params.RetainBestLabels.
	// Nil otherwise.
	BestLabels *volume.LabelVolume
}

// ResultByRadius returns the record for a specific radius, or nil if
// that radius was not tested.
func (s *Summary) ResultByRadius(radius int) *Result {
	for i := range s.Results {
		if s.Results[i].Radius == radius {
			return &s.Results[i]
		}
	}
	return nil
}

// BestResult returns the record of the selected radius.
func (s *Summary) BestResult() *Result {
	return s.ResultByRadius(s.BestRadius)
}
