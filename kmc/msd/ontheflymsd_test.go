package msd_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/latticekmc/latticekmc/kmc"
	"github.com/latticekmc/latticekmc/kmc/msd"
)

var msdTestTypes = map[string]int{"V": 1, "A": 2}

func buildMSDChain() (*kmc.Configuration, *kmc.LatticeMap) {
	lm := kmc.NewLatticeMap(1, [3]int{6, 1, 1}, [3]bool{true, true, true})
	coords := make([]kmc.Coordinate, 6)
	for i := range coords {
		coords[i] = kmc.NewCoordinate(float64(i), 0, 0)
	}
	elements := [][]string{{"V"}, {"A"}, {"V"}, {"A"}, {"V"}, {"A"}}
	c := kmc.NewConfiguration(coords, elements, msdTestTypes)
	c.InitMatchLists(lm, 1)
	return c, lm
}

func buildMSDHopProcess() *kmc.Process {
	coords := []kmc.Coordinate{
		kmc.NewCoordinate(0, 0, 0),
		kmc.NewCoordinate(-1, 0, 0),
		kmc.NewCoordinate(1, 0, 0),
	}
	before := kmc.NewConfiguration(coords, [][]string{{"V"}, {"A"}, {"A"}}, msdTestTypes)
	after := kmc.NewConfiguration(coords, [][]string{{"A"}, {"V"}, {"A"}}, msdTestTypes)
	return kmc.NewProcess(before, after, 1.0, []int{0},
		[]int{0, 1}, []kmc.Coordinate{kmc.NewCoordinate(-1, 0, 0), kmc.NewCoordinate(1, 0, 0)}, 0)
}

func identityBasis() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}

func TestOnTheFlyMSD_RegisterStep_BinsDisplacementForTrackedType(t *testing.T) {
	c, _ := buildMSDChain()
	observable := msd.NewOnTheFlyMSD(c, 2, 5, 5.0, 0.0, "A", identityBasis(), 1)

	p := buildMSDHopProcess()
	c.Apply(p, 2)

	observable.RegisterStep(3.0, c)

	counts := observable.HistogramBinCounts()
	require.Equal(t, 5, len(counts))
	assert.Equal(t, 1, counts[3], "a dt of 3.0 with bin width 1.0 lands in bin 3")

	hist := observable.HistogramBuffer()
	assert.InDelta(t, 1.0, hist[3].X, 1e-12, "a unit Cartesian displacement squares to 1 in x")
	assert.Equal(t, 0.0, hist[3].Y)
	assert.Equal(t, 0.0, hist[3].Z)

	assert.Equal(t, []int{1}, observable.TotalStepCounts(), "one sample landed one step back (index 0)")
	depthCounts := observable.HistoryStepBinCounts()
	require.Len(t, depthCounts, 1)
	assert.Equal(t, 1, depthCounts[0][3])
}

func TestOnTheFlyMSD_RegisterStep_IgnoresUntrackedType(t *testing.T) {
	c, _ := buildMSDChain()
	observable := msd.NewOnTheFlyMSD(c, 2, 5, 5.0, 0.0, "Z", identityBasis(), 1)

	p := buildMSDHopProcess()
	c.Apply(p, 2)
	observable.RegisterStep(3.0, c)

	for _, n := range observable.HistogramBinCounts() {
		assert.Equal(t, 0, n)
	}
}

func TestOnTheFlyMSD_Values_DelegatesToBlocker(t *testing.T) {
	c, _ := buildMSDChain()
	observable := msd.NewOnTheFlyMSD(c, 2, 2, 2.0, 0.0, "A", identityBasis(), 1)
	values := observable.Values()
	require.Len(t, values, 2)
	assert.Equal(t, kmc.NewCoordinate(-1, -1, -1), values[0].Std)
}
