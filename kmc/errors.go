package kmc

import "errors"

// Sentinel error kinds returned by the simulation core. A non-finite
// time step draw and a match-list length overrun never surface as errors
// here — they are handled internally (a local redraw, a false match
// result) — so neither has a sentinel below.
var (
	// ErrInvalidConfiguration is returned when coordinates or types are
	// inconsistent at Configuration construction time. Fatal: callers
	// must abort before running any step.
	ErrInvalidConfiguration = errors.New("kmc: invalid configuration")

	// ErrRateCallbackFailed is returned when the external rate callback
	// signals an error. The current step is aborted without mutating
	// Configuration.
	ErrRateCallbackFailed = errors.New("kmc: rate callback failed")

	// ErrNoAvailableProcess is returned by LatticeModel.SingleStep when
	// every process's total rate is zero, so there is nothing left to
	// fire.
	ErrNoAvailableProcess = errors.New("kmc: no available process")
)
