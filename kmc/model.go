package kmc

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/latticekmc/latticekmc/kmc/rng"
)

// LatticeModel orchestrates one running simulation: a configuration, a
// lattice map, the full interaction set, a clock, and the matcher that
// keeps them consistent. Grounded on KMCLib's latticemodel.h/cpp.
type LatticeModel struct {
	Configuration *Configuration
	Timer         *SimulationTimer
	LatticeMap    *LatticeMap
	Interactions  *Interactions

	matcher *Matcher
	source  *rng.Source
}

// NewLatticeModel builds a LatticeModel and performs the initial
// matching pass: it builds every site's match list out to the widest
// process range, then matches every site in the configuration against
// every applicable process, populating each process's site list and
// rate table before any step is taken.
func NewLatticeModel(config *Configuration, timer *SimulationTimer, lm *LatticeMap, interactions *Interactions, source *rng.Source, workers int) (*LatticeModel, error) {
	m := &LatticeModel{
		Configuration: config,
		Timer:         timer,
		LatticeMap:    lm,
		Interactions:  interactions,
		matcher:       NewMatcher(workers),
		source:        source,
	}
	if err := m.calculateInitialMatching(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *LatticeModel) calculateInitialMatching() error {
	maxRange := m.Interactions.MaxRange()
	m.Configuration.InitMatchLists(m.LatticeMap, maxRange)

	indices := make([]int, len(m.Configuration.Types))
	for i := range indices {
		indices[i] = i
	}

	logrus.Debugf("kmc: initial matching over %d sites, %d processes, range %d",
		len(indices), len(m.Interactions.Processes), maxRange)

	return m.matcher.CalculateMatching(context.Background(), m.Interactions, m.Configuration, m.LatticeMap, indices, m.source)
}

// SingleStep performs one KMC event: it draws the next process weighted
// by total rate, draws a site of that process weighted by site rate and
// multiplicity, applies the process to the configuration, re-matches the
// affected sites and their neighborhoods, and advances the simulation
// clock by the Poisson waiting time implied by the (old) total rate.
//
// The clock is propagated against the rate that was in effect when the
// event was drawn, matching KMCLib's ordering: rate unchanged during
// selection, re-matched only after the event fires.
func (m *LatticeModel) SingleStep(ctx context.Context) error {
	totalRate := m.Interactions.TotalRate()

	process := m.Interactions.PickProcess(m.source.Uniform01())
	if process == nil {
		logrus.Warnf("kmc: no process available to fire, total rate is zero")
		return ErrNoAvailableProcess
	}

	siteIndex := process.PickSite(m.source.Uniform01())
	m.Configuration.Apply(process, siteIndex)

	affected := m.LatticeMap.SupersetNeighborIndices(process.AffectedIndices, m.Interactions.MaxRange())
	if err := m.matcher.CalculateMatching(ctx, m.Interactions, m.Configuration, m.LatticeMap, affected, m.source); err != nil {
		return err
	}

	m.Timer.PropagateTime(totalRate, m.source)

	logrus.Debugf("kmc: step t=%.6g process=%d site=%d affected=%d",
		m.Timer.SimulationTime(), process.ProcessNumber, siteIndex, len(affected))
	return nil
}

// Run performs steps single-step iterations, stopping early if ctx is
// canceled or a step returns an error (other than running out of
// available processes, which ends the run cleanly).
func (m *LatticeModel) Run(ctx context.Context, steps int, onStep func(step int, model *LatticeModel)) error {
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := m.SingleStep(ctx); err != nil {
			if err == ErrNoAvailableProcess {
				logrus.Infof("kmc: run stopped after %d steps, no process available", i)
				return nil
			}
			return err
		}
		if (i+1)%10000 == 0 {
			logrus.Debugf("kmc: particles per type after %d steps: %v", i+1, m.Configuration.ParticlesPerType())
		}
		if onStep != nil {
			onStep(i, m)
		}
	}
	return nil
}
