// Package msd implements the on-the-fly mean-squared-displacement
// observable: a per-atom coordinate history buffer feeding a
// time-lag histogram, with block-averaged error estimates.
package msd

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/latticekmc/latticekmc/kmc"
)

// Blocker accumulates block averages of histogram values per bin and
// derives a standard-error estimate from the variance across completed
// blocks, via the standard block-averaging method for correlated time
// series. Grounded on KMCLib's blocker.h/cpp.
type Blocker struct {
	blocksize int

	countsSinceLastBlock []int
	histogramBlock       []kmc.Coordinate
	blocks               [][]kmc.Coordinate
}

// NewBlocker returns a Blocker for nbins histogram bins, completing a
// block every blocksize registered samples.
func NewBlocker(nbins, blocksize int) *Blocker {
	return &Blocker{
		blocksize:            blocksize,
		countsSinceLastBlock: make([]int, nbins),
		histogramBlock:       make([]kmc.Coordinate, nbins),
		blocks:               make([][]kmc.Coordinate, nbins),
	}
}

// RegisterStep adds value to bin's running block sum; once blocksize
// samples have accumulated in a bin, that block's total is archived and
// the running sum for that bin resets to zero.
func (b *Blocker) RegisterStep(bin int, value kmc.Coordinate) {
	b.histogramBlock[bin] = b.histogramBlock[bin].Add(value)
	b.countsSinceLastBlock[bin]++

	if b.countsSinceLastBlock[bin] == b.blocksize {
		b.blocks[bin] = append(b.blocks[bin], b.histogramBlock[bin])
		b.countsSinceLastBlock[bin] = 0
		b.histogramBlock[bin] = kmc.Coordinate{}
	}
}

// Value holds the block-averaged standard deviation and the standard
// error of that estimate, per axis, for one histogram bin.
type Value struct {
	Std    kmc.Coordinate
	StdErr kmc.Coordinate
}

// Values computes, for every bin, the standard deviation of the
// block-averaged histogram values around the whole-run mean
// (histogramBuffer[i]/histogramBinCounts[i]) and the standard error of
// that deviation estimate. Bins with fewer than two completed blocks
// report Std == StdErr == (-1,-1,-1), matching the original's sentinel
// for "not enough data".
func (b *Blocker) Values(histogramBinCounts []int, histogramBuffer []kmc.Coordinate) []Value {
	out := make([]Value, len(histogramBinCounts))
	for i := range out {
		bincount := histogramBinCounts[i]
		if bincount == 0 {
			bincount = 1
		}
		runMean := histogramBuffer[i].Scale(1.0 / float64(bincount))

		blocks := b.blocks[i]
		nblocks := len(blocks)

		sentinel := kmc.NewCoordinate(-1, -1, -1)
		if nblocks <= 1 {
			out[i] = Value{Std: sentinel, StdErr: sentinel}
			continue
		}

		xs := make([]float64, nblocks)
		var std, stdErr kmc.Coordinate
		for axis := 0; axis < 3; axis++ {
			for j, blk := range blocks {
				xs[j] = blk.At(axis) / float64(b.blocksize)
			}
			c0 := stat.MomentAbout(2, xs, runMean.At(axis), nil)
			s := math.Sqrt(c0 / float64(nblocks-1))
			sErr := s / math.Sqrt(2*float64(nblocks)-2)
			std.SetAt(axis, s)
			stdErr.SetAt(axis, sErr)
		}
		out[i] = Value{Std: std, StdErr: stdErr}
	}
	return out
}
