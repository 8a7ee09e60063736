package kmc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixedProcess(rate float64) *Process {
	return &Process{ProcessNumber: 0, Kind: FixedRate, RateConstant: rate}
}

func TestProcess_AddRemoveSite_SwapAndPop(t *testing.T) {
	p := newFixedProcess(2.0)
	p.AddSite(10, 0, 1) // rate ignored for FixedRate
	p.AddSite(20, 0, 3)
	p.AddSite(30, 0, 2)

	require.Equal(t, 3, p.NumSites())
	assert.InDelta(t, 2*(1+3+2), p.TotalRate(), 1e-12)

	p.RemoveSite(20)
	require.Equal(t, 2, p.NumSites())
	assert.False(t, p.IsListed(20))
	assert.True(t, p.IsListed(10))
	assert.True(t, p.IsListed(30))
	assert.InDelta(t, 2*(1+2), p.TotalRate(), 1e-12)
}

// A process's total rate equals the sum over its sites of rate_i*m_i,
// matching the last cumulative entry after UpdateRateTable.
func TestProcess_UpdateRateTable_TotalRateMatchesWeightedSum(t *testing.T) {
	p := newFixedProcess(1.5)
	p.AddSite(1, 0, 2)
	p.AddSite(2, 0, 3)
	p.AddSite(3, 0, 1)
	p.UpdateRateTable()

	want := 1.5*2 + 1.5*3 + 1.5*1
	assert.Equal(t, want, p.TotalRate())
	assert.Equal(t, want, p.incrementalRates[len(p.incrementalRates)-1])
}

// PickSite draws each site with frequency proportional to rate*m.
func TestProcess_PickSite_WeightedFrequency(t *testing.T) {
	p := newFixedProcess(1.0)
	p.AddSite(1, 0, 1) // weight 1
	p.AddSite(2, 0, 3) // weight 3
	p.UpdateRateTable()

	counts := map[int]int{}
	const n = 20000
	for i := 0; i < n; i++ {
		u := (float64(i) + 0.5) / float64(n) // deterministic stratified draws
		counts[p.PickSite(u)]++
	}

	frac1 := float64(counts[1]) / n
	frac2 := float64(counts[2]) / n
	assert.InDelta(t, 0.25, frac1, 0.02)
	assert.InDelta(t, 0.75, frac2, 0.02)
}

func TestProcess_CustomRate_SiteRateIndependentPerSite(t *testing.T) {
	p := &Process{ProcessNumber: 0, Kind: CustomRate, CacheRate: true}
	p.AddSite(1, 2.0, 1)
	p.AddSite(2, 5.0, 1)
	p.UpdateRateTable()

	assert.InDelta(t, 7.0, p.TotalRate(), 1e-12)

	p.SetSiteRate(1, 10.0)
	p.UpdateRateTable()
	assert.InDelta(t, 15.0, p.TotalRate(), 1e-12, "updating one site's rate must not disturb the other's")
}

func TestProcess_SetSiteRateAndMultiplicity_UpdatesBothAndTotalRate(t *testing.T) {
	p := newFixedProcess(2.0)
	p.AddSite(1, 0, 1)
	p.AddSite(2, 0, 4)
	p.UpdateRateTable()
	assert.InDelta(t, 2.0*(1+4), p.TotalRate(), 1e-12)

	p.SetSiteRateAndMultiplicity(1, 0, 3) // rate ignored for FixedRate, multiplicity 1 -> 3
	p.UpdateRateTable()
	assert.InDelta(t, 2.0*(3+4), p.TotalRate(), 1e-12, "multiplicity change on an already-listed site must be reflected in the total rate")
	assert.Equal(t, 2, p.NumSites(), "the site stays in place rather than being removed and re-added")
}

func TestProcess_EvalCustomRate_InvokesCallback(t *testing.T) {
	called := 0
	p := &Process{
		ProcessNumber: 3,
		Kind:          CustomRate,
		RateCallback: func(processNumber, siteIndex int, list MatchList) (float64, error) {
			called++
			return 4.2, nil
		},
	}
	rate, err := p.EvalCustomRate(7, nil)
	require.NoError(t, err)
	assert.Equal(t, 4.2, rate)
	assert.Equal(t, 1, called)
}

func TestProcess_EvalCustomRate_NoOpForFixedRate(t *testing.T) {
	p := newFixedProcess(3.0)
	rate, err := p.EvalCustomRate(0, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rate)
}

func TestRangeComponent(t *testing.T) {
	assert.Equal(t, 1, rangeComponent(0.9))
	assert.Equal(t, 1, rangeComponent(-0.9))
	assert.Equal(t, 2, rangeComponent(1.5))
	assert.Equal(t, 0, rangeComponent(0))
}
