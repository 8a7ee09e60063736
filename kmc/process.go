package kmc

import (
	"math"
	"sort"
)

// Kind distinguishes a process whose rate is the single constant supplied
// at construction time from one whose rate is recomputed per site by an
// external callback, replacing a CustomRateProcess subclass with an enum
// on a single Process type.
type Kind int

const (
	// FixedRate processes use RateConstant for every site unconditionally.
	FixedRate Kind = iota

	// CustomRate processes ask an external RateCallback for the rate at
	// each site, multiplying the result by the site's multiplicity.
	CustomRate
)

// RateCallback computes the rate of a custom-rate process at one site,
// given the site's occupancy snapshot (its config match list) for the
// external model to inspect. Returning an error makes
// Matcher.CalculateMatching stop at that site and return
// ErrRateCallbackFailed.
type RateCallback func(processNumber, siteIndex int, siteMatchList MatchList) (float64, error)

// Process is a possible lattice event: a local before/after configuration
// pair expressed as a sorted match list with per-entry update deltas, the
// set of lattice sites currently eligible to fire it, and the data needed
// to pick one of those sites weighted by rate and multiplicity. Grounded
// on KMCLib's process.h/cpp and customrateprocess.h/cpp.
type Process struct {
	ProcessNumber int
	Kind          Kind

	// RateConstant is the process's intrinsic rate: the sole rate for a
	// FixedRate process. A CustomRate process does not use it; its
	// per-site rate is whatever RateCallback returns.
	RateConstant float64

	// BasisSites lists which basis sites within a primitive cell this
	// process is applicable to.
	BasisSites []int

	// Range is the number of lattice shells the process's match list
	// reaches; derived from the furthest prototype coordinate.
	Range int

	// Cutoff is the largest Euclidean distance among the process's
	// prototype coordinates.
	Cutoff float64

	// MatchList is the sorted prototype match list built from the
	// before/after configuration pair.
	MatchList MatchList

	// IDMoves holds pairs of match-list positions (from, to) between
	// which an atom identity is relocated without changing occupancy
	// counts, resolved at construction time from the move vectors.
	IDMoves [][2]int

	// AffectedIndices is scratch space rewritten by Configuration.Apply
	// on every firing: the lattice indices whose bucket changed.
	AffectedIndices []int

	RateCallback RateCallback

	// CacheRate reports whether a CustomRate process's per-site rates may
	// be memoized in the shared RateCache by fingerprint. FixedRate
	// processes never need the cache since their rate is the constant.
	CacheRate bool

	sites            []int
	siteRate         []float64
	siteMultiplicity []float64
	incrementalRates []float64
	totalRate        float64
}

// NewProcess builds a Process from a before/after configuration pair,
// following the same prototype-construction steps as the original: it
// derives update deltas per site by differencing the two configurations'
// type buckets, tracks the
// furthest coordinate to set Range and Cutoff, attaches move vectors to
// their origin entries, sorts the match list, and then resolves id-move
// pairs by locating, for each moved entry, the (also-moved) entry whose
// coordinate equals the mover's destination.
func NewProcess(before, after *Configuration, rate float64, basisSites []int, moveOrigins []int, moveVectors []Coordinate, processNumber int) *Process {
	p := &Process{
		ProcessNumber: processNumber,
		Kind:          FixedRate,
		RateConstant:  rate,
		BasisSites:    append([]int(nil), basisSites...),
		Range:         1,
	}
	return buildProcess(p, before, after, moveOrigins, moveVectors)
}

func buildProcess(p *Process, before, after *Configuration, moveOrigins []int, moveVectors []Coordinate) *Process {

	updateTypes := deriveUpdateTypes(before, after)

	origin := before.Coordinates[0]
	list := make(MatchList, len(before.Types))
	for i := range before.Types {
		coord := before.Coordinates[i]
		dist := coord.Distance(origin)
		if dist > p.Cutoff {
			p.Cutoff = dist
		}
		p.Range = maxInt(p.Range, rangeComponent(coord.X))
		p.Range = maxInt(p.Range, rangeComponent(coord.Y))
		p.Range = maxInt(p.Range, rangeComponent(coord.Z))

		list[i] = NewProcessMatchEntry(coord, before.Types[i], updateTypes[i])
	}

	for i, origIdx := range moveOrigins {
		list[origIdx].MoveVector = moveVectors[i]
		list[origIdx].HasMoveVector = true
	}

	SortMatchList(list)
	p.MatchList = list

	for i := range list {
		if !list[i].HasMoveVector {
			continue
		}
		destination := list[i].RelativeCoordinate.Add(list[i].MoveVector)
		for j := range list {
			if j == i || !list[j].HasMoveVector {
				continue
			}
			if list[j].RelativeCoordinate.AlmostEqual(destination) {
				p.IDMoves = append(p.IDMoves, [2]int{i, j})
				break
			}
		}
	}

	return p
}

// NewCustomRateProcess builds a CustomRate Process: its rate is computed
// per site by callback instead of held as a single constant. cacheRate
// controls whether the Matcher may memoize those per-site results in the
// shared RateCache by fingerprint, following a distinct CustomRateProcess
// subtype (customrateprocess.h/cpp) folded here into a Kind tag on the
// single Process type.
func NewCustomRateProcess(before, after *Configuration, basisSites []int, moveOrigins []int, moveVectors []Coordinate, processNumber int, callback RateCallback, cacheRate bool) *Process {
	p := &Process{
		ProcessNumber: processNumber,
		Kind:          CustomRate,
		BasisSites:    append([]int(nil), basisSites...),
		Range:         1,
		RateCallback:  callback,
		CacheRate:     cacheRate,
	}
	return buildProcess(p, before, after, moveOrigins, moveVectors)
}

// deriveUpdateTypes computes, per site, the signed bucket delta between
// before and after: t2 - t1, componentwise.
func deriveUpdateTypes(before, after *Configuration) []TypeBucket {
	out := make([]TypeBucket, len(before.Types))
	for i := range before.Types {
		out[i] = Delta(before.Types[i], after.Types[i])
	}
	return out
}

// rangeComponent mirrors the original's cmp_x/cmp_y/cmp_z derivation: the
// number of whole cells a fractional coordinate reaches, rounding a
// negative magnitude up by a near-one epsilon so a coordinate exactly on
// a cell boundary still counts that cell.
func rangeComponent(v float64) int {
	if v < 0 {
		v = -v
	}
	return int(v + 0.99999)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// siteRateFor returns the per-site rate to use when adding index: the
// process's fixed constant for a FixedRate process, or rate for a
// CustomRate process (the value the caller obtained from the callback or
// the shared RateCache).
func (p *Process) siteRateFor(rate float64) float64 {
	if p.Kind == FixedRate {
		return p.RateConstant
	}
	return rate
}

// AddSite registers index as an available site for this process, with
// the given per-site rate and multiplicity, and accumulates it into the
// total rate. For a FixedRate process rate is ignored in favor of
// RateConstant.
func (p *Process) AddSite(index int, rate, multiplicity float64) {
	r := p.siteRateFor(rate)
	p.sites = append(p.sites, index)
	p.siteRate = append(p.siteRate, r)
	p.siteMultiplicity = append(p.siteMultiplicity, multiplicity)
	p.totalRate += multiplicity * r
}

// SetSiteRate updates the per-site rate of an already-listed site,
// e.g. after a CustomRate callback returns a new value for a site whose
// match persists across a step. No-op if index is not currently listed.
func (p *Process) SetSiteRate(index int, rate float64) {
	for i, s := range p.sites {
		if s == index {
			r := p.siteRateFor(rate)
			p.totalRate += (r - p.siteRate[i]) * p.siteMultiplicity[i]
			p.siteRate[i] = r
			return
		}
	}
}

// SetSiteRateAndMultiplicity updates both the per-site rate and the
// multiplicity of an already-listed site, as a remove-then-add commit
// would but without disturbing the site's position in the swap-and-pop
// arrays. Used when a site keeps matching across a step but its
// occupancy count changed enough to shift the combinatorial multiplicity
// (e.g. a slot's observed count rising from 1 to 2). No-op if index is
// not currently listed.
func (p *Process) SetSiteRateAndMultiplicity(index int, rate, multiplicity float64) {
	for i, s := range p.sites {
		if s == index {
			r := p.siteRateFor(rate)
			p.totalRate -= p.siteRate[i] * p.siteMultiplicity[i]
			p.siteRate[i] = r
			p.siteMultiplicity[i] = multiplicity
			p.totalRate += r * multiplicity
			return
		}
	}
}

// RemoveSite removes index from the available sites by swap-and-pop,
// keeping sites, siteRate and siteMultiplicity index-synchronized.
func (p *Process) RemoveSite(index int) {
	pos := -1
	for i, s := range p.sites {
		if s == index {
			pos = i
			break
		}
	}
	if pos < 0 {
		return
	}
	last := len(p.sites) - 1
	p.sites[pos], p.sites[last] = p.sites[last], p.sites[pos]
	p.siteRate[pos], p.siteRate[last] = p.siteRate[last], p.siteRate[pos]
	p.siteMultiplicity[pos], p.siteMultiplicity[last] = p.siteMultiplicity[last], p.siteMultiplicity[pos]

	p.totalRate -= p.siteRate[last] * p.siteMultiplicity[last]
	p.sites = p.sites[:last]
	p.siteRate = p.siteRate[:last]
	p.siteMultiplicity = p.siteMultiplicity[:last]
}

// ClearSites removes every available site and resets the total rate.
func (p *Process) ClearSites() {
	p.sites = nil
	p.siteRate = nil
	p.siteMultiplicity = nil
	p.incrementalRates = nil
	p.totalRate = 0
}

// IsListed reports whether index is currently an available site.
func (p *Process) IsListed(index int) bool {
	for _, s := range p.sites {
		if s == index {
			return true
		}
	}
	return false
}

// NumSites returns the number of currently available sites.
func (p *Process) NumSites() int { return len(p.sites) }

// Sites returns the currently available sites.
func (p *Process) Sites() []int { return p.sites }

// TotalRate returns the sum, over every available site, of
// siteRate*multiplicity.
func (p *Process) TotalRate() float64 { return p.totalRate }

// UpdateRateTable rebuilds the incremental (cumulative) rate table used
// by PickSite, after sites/rates have changed.
func (p *Process) UpdateRateTable() {
	p.incrementalRates = make([]float64, len(p.siteMultiplicity))
	previous := 0.0
	for i, m := range p.siteMultiplicity {
		previous += p.siteRate[i] * m
		p.incrementalRates[i] = previous
	}
}

// PickSite draws a uniform random value in [0, TotalRate) and returns the
// available site whose cumulative rate interval contains it, via binary
// search over the incremental rate table built by UpdateRateTable.
func (p *Process) PickSite(draw01 float64) int {
	total := p.incrementalRates[len(p.incrementalRates)-1]
	target := draw01 * total
	i := sort.Search(len(p.incrementalRates), func(i int) bool {
		return p.incrementalRates[i] >= target
	})
	if i >= len(p.sites) {
		i = len(p.sites) - 1
	}
	return p.sites[i]
}

// EvalCustomRate invokes RateCallback for siteIndex and returns the
// per-site rate it reports. Unlike the original RefreshCustomRate this
// never mutates shared process state — callers (the Matcher, consulting
// the RateCache) are responsible for attaching the result to the right
// site via AddSite/SetSiteRate. A no-op returning (0, nil) for FixedRate
// processes, which have no callback to consult.
func (p *Process) EvalCustomRate(siteIndex int, siteMatchList MatchList) (float64, error) {
	if p.Kind != CustomRate || p.RateCallback == nil {
		return 0, nil
	}
	return p.RateCallback(p.ProcessNumber, siteIndex, siteMatchList)
}

// rateFinite reports whether a computed rate is usable (not NaN/Inf);
// used by callers validating a CustomRate callback's result before
// trusting it in the rate table.
func rateFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
