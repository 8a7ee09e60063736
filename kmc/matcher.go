package kmc

import (
	"context"
	"fmt"

	"github.com/latticekmc/latticekmc/kmc/parallel"
	"github.com/latticekmc/latticekmc/kmc/rng"
)

// candidate is one (site, process) pair worth testing for a match,
// produced by scanning each index's basis site against every process's
// declared basis sites.
type candidate struct {
	siteIndex  int
	processIdx int
}

type matchTask struct {
	candidate
	wasListed    bool
	nowMatches   bool
	multiplicity float64
}

// Matcher recalculates, for a set of lattice indices, which processes
// are now applicable at which sites, updating each Process's site list
// and rate table accordingly. Grounded on KMCLib's matcher.h/cpp, with
// the MPI task-distribution step replaced by the in-process worker split
// of package parallel.
type Matcher struct {
	Workers int
}

// NewMatcher returns a Matcher that fans candidate generation out across
// workers goroutines (workers <= 0 means single-threaded).
func NewMatcher(workers int) *Matcher {
	return &Matcher{Workers: workers}
}

// CalculateMatching updates the match state of every process against
// every index in indices: for each index whose basis site is relevant to
// at least one process, it refreshes that index's cached config match
// list once, then re-evaluates every relevant process at that site,
// adding newly-matching sites, removing no-longer-matching sites, and
// refreshing the rate of sites that still match. source is not used:
// matching is deterministic, and a CustomRate process's callback is not
// handed the source.
func (m *Matcher) CalculateMatching(ctx context.Context, interactions *Interactions, config *Configuration, lm *LatticeMap, indices []int, source *rng.Source) error {
	type perIndex struct {
		index      int
		candidates []int // process indices relevant to this site's basis
	}

	plan := make([]perIndex, len(indices))
	err := parallel.ForEachRange(ctx, len(indices), m.Workers, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			index := indices[i]
			basisSite := lm.BasisSiteFromIndex(index)
			plan[i] = perIndex{index: index, candidates: interactions.ProcessesForBasisSite(basisSite)}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, pi := range plan {
		if len(pi.candidates) == 0 {
			continue
		}
		config.UpdateMatchList(pi.index)
	}

	var tasks []matchTask
	for _, pi := range plan {
		siteList := config.ConfigMatchList(pi.index)
		for _, procIdx := range pi.candidates {
			p := interactions.Processes[procIdx]
			matches := WhateverMatch(p.MatchList, siteList)
			t := matchTask{
				candidate:  candidate{siteIndex: pi.index, processIdx: procIdx},
				wasListed:  p.IsListed(pi.index),
				nowMatches: matches,
			}
			if matches {
				t.multiplicity = Multiplicity(p.MatchList, siteList)
			}
			tasks = append(tasks, t)
		}
	}

	// Fixed order remove -> update -> add, so a site appearing in more
	// than one batched task is consistent under swap-with-last removal.
	var removes, updates, adds []matchTask
	for _, t := range tasks {
		switch {
		case t.wasListed && !t.nowMatches:
			removes = append(removes, t)
		case t.wasListed && t.nowMatches:
			updates = append(updates, t)
		case !t.wasListed && t.nowMatches:
			adds = append(adds, t)
		}
	}

	touched := make(map[int]bool)
	for _, t := range removes {
		p := interactions.Processes[t.processIdx]
		p.RemoveSite(t.siteIndex)
		touched[t.processIdx] = true
	}
	for _, t := range updates {
		p := interactions.Processes[t.processIdx]
		rate, err := m.siteRate(interactions, p, t.siteIndex, config.ConfigMatchList(t.siteIndex))
		if err != nil {
			return err
		}
		p.SetSiteRateAndMultiplicity(t.siteIndex, rate, t.multiplicity)
		touched[t.processIdx] = true
	}
	for _, t := range adds {
		p := interactions.Processes[t.processIdx]
		rate, err := m.siteRate(interactions, p, t.siteIndex, config.ConfigMatchList(t.siteIndex))
		if err != nil {
			return err
		}
		p.AddSite(t.siteIndex, rate, t.multiplicity)
		touched[t.processIdx] = true
	}

	for procIdx := range touched {
		interactions.Processes[procIdx].UpdateRateTable()
	}
	return nil
}

// siteRate resolves the rate to use for a CustomRate process at
// siteIndex: a RateTable hit is reused verbatim; otherwise the external
// callback is invoked and, if the process declares CacheRate, the result
// is stored under its fingerprint for future steps to reuse (scenario:
// an unchanged local configuration across consecutive
// CalculateMatching calls must invoke the callback at most once).
// FixedRate processes return (0, nil); the caller's AddSite/
// SetSiteRateAndMultiplicity ignores the value for those and uses
// RateConstant instead.
func (m *Matcher) siteRate(interactions *Interactions, p *Process, siteIndex int, siteMatchList MatchList) (float64, error) {
	if p.Kind != CustomRate {
		return 0, nil
	}
	if !interactions.UseCustomRates() {
		return 0, nil
	}

	var fingerprint uint64
	if p.CacheRate {
		fingerprint = CustomRateInputFingerprint(p.ProcessNumber, siteIndex, siteMatchList)
		if rate, ok := interactions.RateCache.Lookup(fingerprint); ok {
			return rate, nil
		}
	}

	rate, err := p.EvalCustomRate(siteIndex, siteMatchList)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRateCallbackFailed, err)
	}
	if !rateFinite(rate) {
		return 0, fmt.Errorf("%w: process %d site %d returned non-finite rate %v", ErrRateCallbackFailed, p.ProcessNumber, siteIndex, rate)
	}
	if p.CacheRate {
		interactions.RateCache.Store(fingerprint, rate)
	}
	return rate, nil
}

// IsMatch reports whether process's prototype match list is dominated by
// the live config match list built fresh for index against neighborhood.
func IsMatch(index int, neighborhood []int, p *Process, lm *LatticeMap, config *Configuration) bool {
	siteList := config.buildConfigMatchList(index, neighborhood, lm)
	return WhateverMatch(p.MatchList, siteList)
}
