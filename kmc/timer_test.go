package kmc

import (
	"math"
	"testing"

	"github.com/latticekmc/latticekmc/kmc/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulationTimer_StartsAtZero(t *testing.T) {
	timer := NewSimulationTimer()
	assert.Equal(t, 0.0, timer.SimulationTime())
}

// Each PropagateTime call advances the clock by a non-negative,
// finite amount, and repeated calls accumulate monotonically.
func TestSimulationTimer_PropagateTime_MonotonicAndFinite(t *testing.T) {
	timer := NewSimulationTimer()
	source := rng.NewSource()
	source.Seed(false, 1)

	prev := timer.SimulationTime()
	for i := 0; i < 100; i++ {
		timer.PropagateTime(2.5, source)
		cur := timer.SimulationTime()
		require.True(t, cur > prev, "simulation time must strictly increase on a positive rate")
		require.False(t, math.IsNaN(cur) || math.IsInf(cur, 0))
		prev = cur
	}
}

// The accumulated increments are exponential waiting times: over many
// draws at total rate R, the mean increment converges to 1/R and the
// per-draw values reproduce -ln(u)/R for the same draw sequence.
func TestSimulationTimer_PropagateTime_ExponentialWaitingTimes(t *testing.T) {
	const rate = 0.234
	const n = 100000

	timer := NewSimulationTimer()
	source := rng.NewSource()
	source.Seed(false, 1234)

	for i := 0; i < n; i++ {
		timer.PropagateTime(rate, source)
	}
	meanDt := timer.SimulationTime() / n
	assert.InDelta(t, 1.0/rate, meanDt, 0.05/rate, "mean waiting time converges to 1/R")

	// the same draw sequence reproduces the accumulated time exactly.
	replay := rng.NewSource()
	replay.Seed(false, 1234)
	total := 0.0
	for i := 0; i < n; i++ {
		total += -math.Log(replay.Uniform01()) / rate
	}
	assert.InDelta(t, total, timer.SimulationTime(), 1e-9)
}

func TestSimulationTimer_PropagateTime_HigherRateAdvancesLess(t *testing.T) {
	slow := NewSimulationTimer()
	fast := NewSimulationTimer()
	source := rng.NewSource()
	source.Seed(false, 42)

	// drive both timers with the same draw sequence by reseeding between
	// them so the comparison isolates the rate's effect.
	source.Seed(false, 42)
	slow.PropagateTime(1.0, source)
	source.Seed(false, 42)
	fast.PropagateTime(10.0, source)

	assert.Greater(t, slow.SimulationTime(), fast.SimulationTime())
}
