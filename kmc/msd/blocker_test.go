package msd

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/latticekmc/latticekmc/kmc"
)

// With nbins=3, blocksize=1, registering two samples of (0.1,0.2,0.3) into
// bin 0 archives two identical single-sample blocks; querying with bin
// counts [3,2,5] and the given histogram totals reproduces the literal
// mean, block-standard-deviation, and standard-error values.
func TestBlocker_Values_BlockStatisticsFromSampleData(t *testing.T) {
	b := NewBlocker(3, 1)
	sample := kmc.NewCoordinate(0.1, 0.2, 0.3)
	b.RegisterStep(0, sample)
	b.RegisterStep(0, sample)

	binCounts := []int{3, 2, 5}
	histogram := []kmc.Coordinate{
		kmc.NewCoordinate(3.0, 4.5, 3.3),
		kmc.NewCoordinate(6.2, 8.5, 7.3),
		kmc.NewCoordinate(7.2, 6.5, 5.3),
	}

	values := b.Values(binCounts, histogram)

	assert.InDelta(t, 0.9, values[0].Std.X, 1e-9)
	assert.InDelta(t, 1.3, values[0].Std.Y, 1e-9)
	assert.InDelta(t, 0.8, values[0].Std.Z, 1e-9)

	wantErr := 0.9 / math.Sqrt(2)
	assert.InDelta(t, wantErr, values[0].StdErr.X, 1e-9)

	sentinel := kmc.NewCoordinate(-1, -1, -1)
	assert.Equal(t, sentinel, values[1].Std)
	assert.Equal(t, sentinel, values[1].StdErr)
	assert.Equal(t, sentinel, values[2].Std)
	assert.Equal(t, sentinel, values[2].StdErr)
}

func TestBlocker_RegisterStep_ArchivesOnlyAtBlocksize(t *testing.T) {
	b := NewBlocker(1, 3)
	b.RegisterStep(0, kmc.NewCoordinate(1, 0, 0))
	b.RegisterStep(0, kmc.NewCoordinate(1, 0, 0))
	assert.Empty(t, b.blocks[0], "a partial block must not be archived early")

	b.RegisterStep(0, kmc.NewCoordinate(1, 0, 0))
	assert.Len(t, b.blocks[0], 1)
	assert.Equal(t, kmc.NewCoordinate(3, 0, 0), b.blocks[0][0])
}

func TestBlocker_Values_SingleBlockReportsSentinel(t *testing.T) {
	b := NewBlocker(1, 1)
	b.RegisterStep(0, kmc.NewCoordinate(1, 1, 1))
	values := b.Values([]int{1}, []kmc.Coordinate{kmc.NewCoordinate(1, 1, 1)})
	assert.Equal(t, kmc.NewCoordinate(-1, -1, -1), values[0].Std)
}
