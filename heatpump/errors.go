package heatpump

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameters is returned for non-physical run inputs
	// (negative displacement or speed, unknown refrigerant, bad bounds).
	ErrInvalidParameters = errors.New("heatpump: invalid parameters")

	// ErrCycleInfeasible marks a single operating point that cannot be resolved.
	ErrCycleInfeasible = errors.New("heatpump: cycle infeasible")

	// ErrInvalidEnvelope is returned for degenerate operating envelopes.
	ErrInvalidEnvelope = errors.New("heatpump: invalid envelope")

	// ErrUnderdeterminedFit is returned when fewer than degree+1 calibration
	// points are supplied to the curve fitter.
	ErrUnderdeterminedFit = errors.New("heatpump: underdetermined fit")

	// ErrStateOutOfRange is returned by an oracle for states outside its data.
	ErrStateOutOfRange = errors.New("heatpump: state out of range")

	// ErrUnsupportedQuery is returned by an oracle for input pairs it cannot resolve.
	ErrUnsupportedQuery = errors.New("heatpump: unsupported property query")

	// ErrUnsupportedFluid is returned by an oracle that has no data for a refrigerant.
	ErrUnsupportedFluid = errors.New("heatpump: unsupported fluid")
)

// CycleInfeasibleError carries the operating point that failed.
type CycleInfeasibleError struct {
	Point  OperatingPoint
	Reason string
	Err    error
}

func (e *CycleInfeasibleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cycle infeasible at %s: %s: %v", e.Point, e.Reason, e.Err)
	}
	return fmt.Sprintf("cycle infeasible at %s: %s", e.Point, e.Reason)
}

func (e *CycleInfeasibleError) Is(target error) bool {
	return target == ErrCycleInfeasible
}

func (e *CycleInfeasibleError) Unwrap() error {
	return e.Err
}

func infeasible(p OperatingPoint, reason string, err error) error {
	return &CycleInfeasibleError{Point: p, Reason: reason, Err: err}
}
