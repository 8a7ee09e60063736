package kmc

import (
	"math"

	"github.com/latticekmc/latticekmc/kmc/rng"
)

// SimulationTimer tracks elapsed simulation time, propagated by drawing
// exponentially-distributed waiting times from the system's total rate.
// Grounded on KMCLib's simulationtimer.h/cpp.
type SimulationTimer struct {
	simulationTime float64
}

// NewSimulationTimer returns a timer starting at t=0.
func NewSimulationTimer() *SimulationTimer {
	return &SimulationTimer{}
}

// SimulationTime returns the current simulation time.
func (t *SimulationTimer) SimulationTime() float64 {
	return t.simulationTime
}

// PropagateTime advances the clock by -ln(u)/totalRate for a fresh
// uniform draw u from source, redrawing if the result is non-finite
// (which only happens if u rounds to exactly 0).
func (t *SimulationTimer) PropagateTime(totalRate float64, source *rng.Source) {
	var dt float64
	for {
		u := source.Uniform01()
		dt = -math.Log(u) / totalRate
		if !math.IsInf(dt, 0) && !math.IsNaN(dt) {
			break
		}
	}
	t.simulationTime += dt
}
