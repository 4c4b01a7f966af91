package optimizer

import (
	"fmt"
)

// InputError reports invalid optimization inputs: an empty volume, a
// negative radius, an empty candidate list, or a malformed policy.
// Input validation runs before any radius is processed, so nothing is
// partially computed when it fires.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string {
	return "invalid optimization input: " + e.Msg
}

func inputErrorf(format string, args ...interface{}) error {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

// SelectionError reports a failure inside the constraint-based
// selector (empty result sequence, malformed metrics). It is caught
// by the optimizer and triggers the Pareto fallback; callers only see
// it wrapped inside an OptimizationError when the fallback fails too.
type SelectionError struct {
	Msg string
}

func (e *SelectionError) Error() string {
	return "radius selection failed: " + e.Msg
}

func selectionErrorf(format string, args ...interface{}) error {
	return &SelectionError{Msg: fmt.Sprintf(format, args...)}
}

// OptimizationError reports that both the constraint-based selector
// and the Pareto fallback failed. It carries both causes.
type OptimizationError struct {
	ConstraintErr error
	FallbackErr   error
}

func (e *OptimizationError) Error() string {
	return fmt.Sprintf("optimization failed: constraint selection: %v; pareto fallback: %v",
		e.ConstraintErr, e.FallbackErr)
}

// Unwrap exposes the fallback cause, the error that ultimately ended
// the run.
func (e *OptimizationError) Unwrap() error {
	return e.FallbackErr
}

// RadiusError reports that processing a specific radius failed. A gap
// in the radius sequence would corrupt the selection logic, so the
// whole sweep aborts with this context instead of skipping silently.
type RadiusError struct {
	Radius int
	Err    error
}

func (e *RadiusError) Error() string {
	return fmt.Sprintf("processing radius %d failed: %v", e.Radius, e.Err)
}

func (e *RadiusError) Unwrap() error {
	return e.Err
}
