// Package ratecb provides example implementations of the external
// per-site rate callback a CustomRate process consults, standing in for
// a user-supplied RateCalculator.backendRateCallback (matcher.cpp,
// updateSingleRate).
package ratecb

import (
	"math"

	"github.com/latticekmc/latticekmc/kmc"
)

// Constant returns a kmc.RateCallback that always reports rate,
// regardless of site. Useful as a baseline or in tests exercising the
// CustomRate code path without a real physical model.
func Constant(rate float64) kmc.RateCallback {
	return func(processNumber, siteIndex int, siteMatchList kmc.MatchList) (float64, error) {
		return rate, nil
	}
}

// ArrheniusParams configures an Arrhenius-law rate callback: rate =
// prefactor * exp(-activationEnergy(occupancy) / (kB * temperature)).
type ArrheniusParams struct {
	Prefactor   float64
	KB          float64
	Temperature float64

	// ActivationEnergy computes the activation energy for a given site
	// occupancy snapshot, e.g. as a function of neighboring type counts.
	ActivationEnergy func(siteMatchList kmc.MatchList) float64
}

// Arrhenius returns a kmc.RateCallback implementing a temperature- and
// local-environment-dependent rate, the shape of rate law that
// justifies a per-site custom-rate process instead of a single fixed
// rate constant.
func Arrhenius(p ArrheniusParams) kmc.RateCallback {
	return func(processNumber, siteIndex int, siteMatchList kmc.MatchList) (float64, error) {
		ea := p.ActivationEnergy(siteMatchList)
		rate := p.Prefactor * math.Exp(-ea/(p.KB*p.Temperature))
		return rate, nil
	}
}
