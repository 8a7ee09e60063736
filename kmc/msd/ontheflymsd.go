package msd

import (
	"gonum.org/v1/gonum/mat"

	"github.com/latticekmc/latticekmc/kmc"
)

// historyPoint is one (coordinate, time) sample in an atom's move
// history, newest first.
type historyPoint struct {
	coord kmc.Coordinate
	time  float64
}

// OnTheFlyMSD accumulates a mean-squared-displacement histogram over
// simulation time, for one tracked element type, as a simulation runs —
// without needing to store the full trajectory. Grounded on KMCLib's
// ontheflymsd.h/cpp.
type OnTheFlyMSD struct {
	historyBuffer [][]historyPoint

	histogramBuffer    []kmc.Coordinate
	histogramBufferSqr []kmc.Coordinate
	histogramBinCounts []int

	historyStepsBinCounts [][]int
	historyStepCounts     []int

	trackType string
	tMax      float64
	binSize   float64

	historySteps int

	// abcToXYZ holds, as its three rows, the Cartesian images of the
	// lattice basis vectors a, b, c, used to transform a fractional
	// displacement into a Cartesian one.
	abcToXYZ *mat.Dense

	blocker *Blocker
}

// NewOnTheFlyMSD builds an observable tracking trackType, with nBins
// histogram bins spanning [0, tMax) of time-lag, seeded from every atom
// of that type's position at t0. abcToXYZ must be a 3x3 matrix whose rows
// are the Cartesian images of the a, b, c basis vectors.
func NewOnTheFlyMSD(config *kmc.Configuration, historySteps, nBins int, tMax, t0 float64, trackType string, abcToXYZ *mat.Dense, blockSize int) *OnTheFlyMSD {
	m := &OnTheFlyMSD{
		historyBuffer:         make([][]historyPoint, len(config.AtomID)),
		histogramBuffer:       make([]kmc.Coordinate, nBins),
		histogramBufferSqr:    make([]kmc.Coordinate, nBins),
		histogramBinCounts:    make([]int, nBins),
		historyStepsBinCounts: make([][]int, maxInt(historySteps-1, 0)),
		historyStepCounts:     make([]int, maxInt(historySteps-1, 0)),
		trackType:             trackType,
		tMax:                  tMax,
		binSize:               tMax / float64(nBins),
		historySteps:          historySteps,
		abcToXYZ:              abcToXYZ,
		blocker:               NewBlocker(nBins, blockSize),
	}
	for i := range m.historyStepsBinCounts {
		m.historyStepsBinCounts[i] = make([]int, nBins)
	}

	for id, coord := range config.AtomIDCoordinates {
		if config.AtomIDElements[id] == trackType {
			m.historyBuffer[id] = append(m.historyBuffer[id], historyPoint{coord: coord, time: t0})
		}
	}
	return m
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// RegisterStep records a fresh snapshot of every atom moved in the most
// recent configuration event, at the given simulation time, for atoms of
// the tracked type, and bins the resulting time-lag displacements.
func (m *OnTheFlyMSD) RegisterStep(time float64, config *kmc.Configuration) {
	for _, id := range config.MovedAtomIDs() {
		if config.AtomIDElements[id] != m.trackType {
			continue
		}

		hist := m.historyBuffer[id]
		if len(hist) < m.historySteps {
			hist = append(hist, historyPoint{})
		}
		for j := len(hist) - 1; j > 0; j-- {
			hist[j] = hist[j-1]
		}
		hist[0] = historyPoint{coord: config.AtomIDCoordinates[id], time: time}
		m.historyBuffer[id] = hist

		m.calculateAndBinMSD(hist)
	}
}

// calculateAndBinMSD folds one atom's history buffer into the shared
// histogram: for every older sample, compute the squared Cartesian
// displacement from the newest sample, bin it by elapsed time, and feed
// it to the blocker for error estimation.
func (m *OnTheFlyMSD) calculateAndBinMSD(history []historyPoint) {
	for i := 1; i < len(history); i++ {
		m.historyStepCounts[i-1]++

		dt := history[0].time - history[i].time
		bin := int(dt / m.binSize)
		if bin < 0 || bin >= len(m.histogramBuffer) {
			continue
		}

		diffABC := history[i].coord.Sub(history[0].coord)
		diff := m.transformToXYZ(diffABC)

		sqrDiff := diff.OuterProdDiag(diff)
		sqrDiffSqr := sqrDiff.OuterProdDiag(sqrDiff)

		m.histogramBuffer[bin] = m.histogramBuffer[bin].Add(sqrDiff)
		m.histogramBufferSqr[bin] = m.histogramBufferSqr[bin].Add(sqrDiffSqr)
		m.histogramBinCounts[bin]++
		m.historyStepsBinCounts[i-1][bin]++

		m.blocker.RegisterStep(bin, sqrDiff)
	}
}

// transformToXYZ applies the abc->xyz basis transform to a fractional
// displacement.
func (m *OnTheFlyMSD) transformToXYZ(diffABC kmc.Coordinate) kmc.Coordinate {
	v := mat.NewVecDense(3, []float64{diffABC.X, diffABC.Y, diffABC.Z})
	var out mat.VecDense
	out.MulVec(m.abcToXYZ, v)
	return kmc.NewCoordinate(out.AtVec(0), out.AtVec(1), out.AtVec(2))
}

// HistogramBuffer returns the accumulated squared-displacement sum per
// bin.
func (m *OnTheFlyMSD) HistogramBuffer() []kmc.Coordinate { return m.histogramBuffer }

// HistogramBinCounts returns the number of samples accumulated per bin.
func (m *OnTheFlyMSD) HistogramBinCounts() []int { return m.histogramBinCounts }

// HistoryStepBinCounts returns, for each history depth d (the number of
// steps back from the newest sample, d >= 1), the per-bin sample count at
// that depth: HistoryStepBinCounts()[d-1][bin]. Useful for diagnosing which
// history depths are contributing signal to which time-lag bins.
func (m *OnTheFlyMSD) HistoryStepBinCounts() [][]int { return m.historyStepsBinCounts }

// TotalStepCounts reports the total number of samples observed at each
// history depth (index d-1 for depth d), including samples whose time lag fell outside every
// histogram bin.
func (m *OnTheFlyMSD) TotalStepCounts() []int { return m.historyStepCounts }

// Values returns the block-averaged standard deviation and its standard
// error, per bin, via the underlying Blocker.
func (m *OnTheFlyMSD) Values() []Value {
	return m.blocker.Values(m.histogramBinCounts, m.histogramBuffer)
}
