package optimizer

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"ctparticles/pkg/contacts"
	"ctparticles/pkg/metrics"
	"ctparticles/pkg/split"
	"ctparticles/pkg/volume"
)

// SelectionPolicy holds the thresholds of the constraint-based radius
// selector and the tie-break target of the Pareto fallback.
type SelectionPolicy struct {
	// TauRatio is the maximum acceptable dominance ratio; the
	// smallest radius at or below it defines r*.
	TauRatio float64

	// ContactRange is the physically plausible [min, max] band for
	// the mean coordination number of interior particles.
	ContactRange [2]float64

	// SmoothingWindow is an optional odd window width for a centered
	// moving average over the particle-count curve before peak
	// detection. 0 disables smoothing. It never alters the recorded
	// per-radius metrics.
	SmoothingWindow int

	// TargetContacts is the reference coordination number used as the
	// final tie-break in the Pareto fallback.
	TargetContacts float64
}

// DefaultSelectionPolicy returns the standard policy: 3% dominance
// threshold and a 5-9 contact band.
func DefaultSelectionPolicy() SelectionPolicy {
	return SelectionPolicy{
		TauRatio:       0.03,
		ContactRange:   [2]float64{5, 9},
		TargetContacts: 6.0,
	}
}

// Params configures an optimization run. All fields are read-only for
// the duration of the run; there is no process-wide mutable state.
type Params struct {
	// Radii is the ascending candidate radius sequence. Radius 0 is
	// permitted (it leaves the foreground unsplit); negative radii
	// are rejected.
	Radii []int

	// SplitConnectivity governs seed labeling and watershed growth
	// inside the splitter.
	SplitConnectivity volume.Connectivity

	// ContactConnectivity governs the contact-counting neighborhood.
	// It is independent from SplitConnectivity.
	ContactConnectivity volume.Connectivity

	// Guard holds the guard-volume margin policy.
	Guard contacts.GuardPolicy

	// Selection holds the radius-selection policy.
	Selection SelectionPolicy

	// RetainBestLabels requests that the label volume of the selected
	// radius be recomputed after selection and attached to the
	// summary. Intermediate label volumes are always released once
	// their metrics are extracted.
	RetainBestLabels bool
}

// DefaultParams returns a run configuration with the standard
// connectivities (6 for splitting, 26 for contacts) and the default
// guard and selection policies.
func DefaultParams(radii []int) *Params {
	return &Params{
		Radii:               radii,
		SplitConnectivity:   volume.Conn6,
		ContactConnectivity: volume.Conn26,
		Guard:               contacts.DefaultGuardPolicy(),
		Selection:           DefaultSelectionPolicy(),
	}
}

// Optimizer runs the radius sweep. Create one per run with New.
type Optimizer struct {
	params   *Params
	log      zerolog.Logger
	observer Observer
}

// New creates an optimizer for the given parameters with logging and
// progress reporting disabled.
func New(params *Params) *Optimizer {
	return &Optimizer{
		params: params,
		log:    zerolog.Nop(),
	}
}

// SetLogger installs a structured logger for per-radius diagnostics.
func (o *Optimizer) SetLogger(log zerolog.Logger) {
	o.log = log
}

// SetObserver installs a progress observer. The observer is invoked
// synchronously after each radius; see Observer for the non-blocking
// contract.
func (o *Optimizer) SetObserver(obs Observer) {
	o.observer = obs
}

// Optimize runs the full sweep over the candidate radii and applies
// the selection policy to the complete result sequence.
//
// The sweep is sequential: each splitter invocation is CPU- and
// memory-heavy, and the selector needs the complete ordered sequence
// before it can run. Cancellation is checked between radius
// iterations; a cancelled run returns the context error and no
// summary. A failure while processing one radius aborts the whole
// sweep with that radius's context, because a gap in the sequence
// would corrupt the peak and r* logic.
func (o *Optimizer) Optimize(ctx context.Context, vol *volume.Volume) (*Summary, error) {
	if err := o.validate(vol); err != nil {
		return nil, err
	}

	start := time.Now()
	p := o.params
	splitter := split.NewSplitter(p.SplitConnectivity)
	splitter.Log = o.log

	results := make([]Result, 0, len(p.Radii))
	var prevLabels *volume.LabelVolume

	for i, radius := range p.Radii {
		if err := ctx.Err(); err != nil {
			o.log.Warn().Int("radius", radius).Msg("optimization cancelled")
			return nil, err
		}

		stepStart := time.Now()
		o.log.Info().
			Int("radius", radius).
			Int("step", i+1).
			Int("total", len(p.Radii)).
			Msg("processing radius")

		labels, err := splitter.Split(vol, radius)
		if err != nil {
			return nil, &RadiusError{Radius: radius, Err: err}
		}

		res, err := o.measure(labels, prevLabels, radius)
		if err != nil {
			return nil, &RadiusError{Radius: radius, Err: err}
		}
		res.ProcessingTime = time.Since(stepStart)
		results = append(results, res)

		o.log.Info().
			Int("radius", radius).
			Int("particles", res.ParticleCount).
			Float64("largest_ratio", res.LargestParticleRatio).
			Float64("mean_contacts", res.MeanContacts).
			Dur("elapsed", res.ProcessingTime).
			Msg("radius complete")

		o.emit(ProgressEvent{
			Radius:               radius,
			ParticleCount:        res.ParticleCount,
			MeanContacts:         res.MeanContacts,
			LargestParticleRatio: res.LargestParticleRatio,
			PercentComplete:      float64(i+1) / float64(len(p.Radii)) * 95.0,
		})

		// Only the previous labeling is kept alive, for the VI
		// stability signal; everything older is released.
		prevLabels = labels
	}

	best, reason, method, err := o.selectBest(results)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		BestRadius:          best,
		Results:             results,
		Method:              method,
		Reason:              reason,
		TotalProcessingTime: time.Since(start),
	}

	if p.RetainBestLabels {
		// Split is deterministic, so recomputing the winner is
		// equivalent to having retained it.
		labels, err := splitter.Split(vol, best)
		if err != nil {
			return nil, &RadiusError{Radius: best, Err: err}
		}
		summary.BestLabels = labels
	}

	if last := len(results) - 1; last >= 0 {
		o.emit(ProgressEvent{
			Radius:               results[last].Radius,
			ParticleCount:        results[last].ParticleCount,
			MeanContacts:         results[last].MeanContacts,
			LargestParticleRatio: results[last].LargestParticleRatio,
			PercentComplete:      100.0,
		})
	}

	o.log.Info().
		Int("best_radius", best).
		Str("method", method).
		Str("reason", reason).
		Dur("elapsed", summary.TotalProcessingTime).
		Msg("optimization complete")

	return summary, nil
}

// measure computes the per-radius statistics from a fresh label
// volume. The label volume is read-only here and may be released by
// the caller afterward.
func (o *Optimizer) measure(labels, prevLabels *volume.LabelVolume, radius int) (Result, error) {
	p := o.params

	particleCount := int(labels.MaxLabel())
	ratio, largest, total := metrics.LargestParticleRatio(labels)
	hhi := metrics.HHI(labels)

	margin := contacts.ComputeGuardMargin(labels, p.Guard)
	interior, boundary := contacts.FilterInterior(labels, margin)

	record, err := contacts.Count(labels, p.ContactConnectivity)
	if err != nil {
		return Result{}, err
	}
	meanContacts := record.MeanOver(interior)

	res := Result{
		Radius:                radius,
		ParticleCount:         particleCount,
		LargestParticleRatio:  ratio,
		MeanContacts:          meanContacts,
		InteriorParticleCount: len(interior),
		ExcludedParticleCount: len(boundary),
		TotalVolume:           total,
		LargestParticleVolume: largest,
		GuardMargin:           margin,
		HHI:                   hhi,
	}

	if prevLabels != nil {
		vi, err := metrics.VariationOfInformation(prevLabels, labels)
		if err != nil {
			return Result{}, err
		}
		res.VIToPrev = vi
		res.HasVIToPrev = true
	}

	return res, nil
}

// selectBest applies the two-stage selection: constraint-based first,
// Pareto fallback on any selector error. Only when both stages fail
// does the run fail, with both causes attached.
func (o *Optimizer) selectBest(results []Result) (best int, reason, method string, err error) {
	best, reason, cErr := selectByConstraints(results, o.params.Selection)
	if cErr == nil {
		return best, reason, MethodConstraint, nil
	}

	o.log.Warn().Err(cErr).Msg("constraint-based selection failed, using pareto fallback")

	best, fErr := selectPareto(results, o.params.Selection)
	if fErr != nil {
		return 0, "", "", &OptimizationError{ConstraintErr: cErr, FallbackErr: fErr}
	}
	return best, ReasonParetoFallback, MethodPareto, nil
}

func (o *Optimizer) emit(ev ProgressEvent) {
	if o.observer != nil {
		o.observer.OnRadiusComplete(ev)
	}
}

// validate fails fast on malformed inputs, before any radius is
// processed.
func (o *Optimizer) validate(vol *volume.Volume) error {
	p := o.params
	if vol == nil {
		return inputErrorf("volume is nil")
	}
	if err := vol.Validate(); err != nil {
		return inputErrorf("%v", err)
	}
	if vol.Empty() {
		return inputErrorf("volume has no foreground voxels")
	}
	if len(p.Radii) == 0 {
		return inputErrorf("radius candidate list is empty")
	}
	for _, r := range p.Radii {
		if r < 0 {
			return inputErrorf("radius candidates must be non-negative, got %d", r)
		}
	}
	if !sort.IntsAreSorted(p.Radii) {
		return inputErrorf("radius candidates must be in ascending order")
	}
	for i := 1; i < len(p.Radii); i++ {
		if p.Radii[i] == p.Radii[i-1] {
			return inputErrorf("duplicate radius candidate %d", p.Radii[i])
		}
	}
	if !p.SplitConnectivity.Valid() {
		return inputErrorf("split connectivity must be 6, 18 or 26, got %d", p.SplitConnectivity)
	}
	if !p.ContactConnectivity.Valid() {
		return inputErrorf("contact connectivity must be 6, 18 or 26, got %d", p.ContactConnectivity)
	}
	if p.Selection.ContactRange[0] > p.Selection.ContactRange[1] {
		return inputErrorf("contact range min %.2f exceeds max %.2f",
			p.Selection.ContactRange[0], p.Selection.ContactRange[1])
	}
	if p.Selection.SmoothingWindow < 0 {
		return inputErrorf("smoothing window must be non-negative, got %d", p.Selection.SmoothingWindow)
	}
	return nil
}
