package kmc

import "sort"

// Interactions owns the full set of possible processes and provides the
// weighted process-then-site selection used to pick the next event. Its
// semantics are used throughout matcher.cpp and latticemodel.cpp but it
// has no standalone header/source file in the original sources examined;
// reconstructed from those two callers' usage patterns.
type Interactions struct {
	Processes      []*Process
	useCustomRates bool
	RateCache      *RateCache
}

// NewInteractions builds an Interactions set from the given processes.
// useCustomRates controls whether CustomRate processes consult their
// RateCallback (and the shared RateCache) during matching, mirroring the
// original's useCustomRates() flag which is fixed for the lifetime of a
// run.
func NewInteractions(processes []*Process, useCustomRates bool) *Interactions {
	return &Interactions{
		Processes:      processes,
		useCustomRates: useCustomRates,
		RateCache:      NewRateCache(),
	}
}

// UseCustomRates reports whether this interaction set consults custom
// rate callbacks.
func (in *Interactions) UseCustomRates() bool { return in.useCustomRates }

// ProcessesForBasisSite returns the indices into Processes whose
// BasisSites includes basisSite.
func (in *Interactions) ProcessesForBasisSite(basisSite int) []int {
	var out []int
	for i, p := range in.Processes {
		for _, b := range p.BasisSites {
			if b == basisSite {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

// MaxRange returns the largest Range among every process, the number of
// lattice shells Configuration.InitMatchLists must build neighborhoods
// out to so every process's match list can be tested anywhere it applies.
func (in *Interactions) MaxRange() int {
	max := 1
	for _, p := range in.Processes {
		if p.Range > max {
			max = p.Range
		}
	}
	return max
}

// TotalRate returns the sum of every process's TotalRate.
func (in *Interactions) TotalRate() float64 {
	total := 0.0
	for _, p := range in.Processes {
		total += p.TotalRate()
	}
	return total
}

// PickProcess draws a uniform random value in [0, TotalRate) and returns
// the process whose cumulative rate interval contains it, by linear
// cumulative sum over the (typically small) process list — this list is
// orders of magnitude shorter than any single process's site list, so a
// binary search table is not worth maintaining here.
func (in *Interactions) PickProcess(draw01 float64) *Process {
	total := in.TotalRate()
	if total <= 0 {
		return nil
	}
	target := draw01 * total
	cum := 0.0
	for _, p := range in.Processes {
		if p.TotalRate() <= 0 {
			continue
		}
		cum += p.TotalRate()
		if cum >= target {
			return p
		}
	}
	if len(in.Processes) == 0 {
		return nil
	}
	return in.Processes[len(in.Processes)-1]
}

// SortedProcessNumbers returns every process's ProcessNumber in
// ascending order, convenient for deterministic logging and tests.
func (in *Interactions) SortedProcessNumbers() []int {
	nums := make([]int, len(in.Processes))
	for i, p := range in.Processes {
		nums[i] = p.ProcessNumber
	}
	sort.Ints(nums)
	return nums
}
