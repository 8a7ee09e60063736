package kmc

import "sort"

// Configuration holds the full lattice state: per-site occupancy buckets,
// element-name labels, per-atom identity tracking, and a cached match list
// per site used to test processes against. Grounded on KMCLib's
// configuration.h/cpp.
type Configuration struct {
	// Coordinates is the fractional lattice-site position of every index.
	Coordinates []Coordinate

	// Elements holds, per site, the element-name label of each particle
	// currently occupying that site (bucket-valued: len(Elements[i]) can
	// be more than one for multi-occupancy sites).
	Elements [][]string

	// Types holds, per site, the occupancy bucket derived from Elements.
	Types []TypeBucket

	// PossibleTypes maps element name to its integer type id.
	PossibleTypes map[string]int

	// TypeNames is the inverse mapping, type id to element name.
	TypeNames []string

	// AtomID holds, per site, the identity of the atom occupying it
	// (single-occupancy bookkeeping: only the first particle at a
	// multi-occupancy site is tracked by id, matching the original's
	// documented limitation).
	AtomID []int

	// AtomIDCoordinates holds the tracked fractional position of each atom
	// id, updated incrementally by move vectors as processes fire.
	AtomIDCoordinates []Coordinate

	// AtomIDElements holds the element label last associated with each
	// atom id.
	AtomIDElements []string

	matchLists []MatchList

	movedAtomIDs      []int
	recentMoveVectors []Coordinate
	numMoved          int

	latestEventProcess int
	latestEventSite    int
}

// NewConfiguration builds a Configuration from per-site coordinates and
// element labels, and a global element-name to type-id mapping.
func NewConfiguration(coordinates []Coordinate, elements [][]string, possibleTypes map[string]int) *Configuration {
	c := &Configuration{
		Coordinates:       append([]Coordinate(nil), coordinates...),
		Elements:          make([][]string, len(elements)),
		PossibleTypes:     possibleTypes,
		AtomID:            make([]int, len(coordinates)),
		AtomIDCoordinates: append([]Coordinate(nil), coordinates...),
		AtomIDElements:    make([]string, len(coordinates)),
		matchLists:        make([]MatchList, len(coordinates)),
	}

	maxType := 0
	for _, t := range possibleTypes {
		if t > maxType {
			maxType = t
		}
	}
	c.TypeNames = make([]string, maxType+1)
	for name, t := range possibleTypes {
		c.TypeNames[t] = name
	}

	c.Types = make([]TypeBucket, len(elements))
	for i, occupants := range elements {
		c.Elements[i] = append([]string(nil), occupants...)
		if len(occupants) > 0 {
			c.AtomIDElements[i] = occupants[0]
		}
		c.AtomID[i] = i

		bucket := NewTypeBucket(len(c.TypeNames))
		for _, name := range occupants {
			bucket[possibleTypes[name]]++
		}
		c.Types[i] = bucket
	}

	return c
}

// InitMatchLists computes and caches the match list for every site against
// its own neighborhood of the given range (in lattice shells), and sizes
// the scratch buffers used by Apply to the largest match list found.
func (c *Configuration) InitMatchLists(lm *LatticeMap, rng int) {
	maxSize := 0
	for i := range c.Types {
		neighborhood := lm.NeighborIndices(i, rng)
		c.matchLists[i] = c.buildConfigMatchList(i, neighborhood, lm)
		if len(c.matchLists[i]) > maxSize {
			maxSize = len(c.matchLists[i])
		}
	}
	c.movedAtomIDs = make([]int, maxSize)
	c.recentMoveVectors = make([]Coordinate, maxSize)
}

// buildConfigMatchList computes the match list for originIndex against the
// given set of neighboring indices, specializing the periodic-wrap path
// taken per axis to avoid branching inside the hot loop — all-periodic,
// two-axis periodic, or the fully general per-coordinate wrap.
func (c *Configuration) buildConfigMatchList(originIndex int, indices []int, lm *LatticeMap) MatchList {
	out := make(MatchList, len(indices))
	center := c.Coordinates[originIndex]
	pa, pb, pcx := lm.periodic[0], lm.periodic[1], lm.periodic[2]

	switch {
	case pa && pb && pcx:
		for n, idx := range indices {
			rel := c.Coordinates[idx].Sub(center)
			lm.Wrap(&rel)
			out[n] = NewConfigMatchEntry(rel, idx, c.Types[idx])
		}
	case pa && pb:
		for n, idx := range indices {
			rel := c.Coordinates[idx].Sub(center)
			c.wrapAxes(lm, &rel, 0, 1)
			out[n] = NewConfigMatchEntry(rel, idx, c.Types[idx])
		}
	default:
		for n, idx := range indices {
			rel := c.Coordinates[idx].Sub(center)
			lm.Wrap(&rel)
			out[n] = NewConfigMatchEntry(rel, idx, c.Types[idx])
		}
	}

	SortMatchList(out)
	return out
}

// wrapAxes wraps only the named axes of coord, leaving the rest untouched.
func (c *Configuration) wrapAxes(lm *LatticeMap, coord *Coordinate, axes ...int) {
	for _, d := range axes {
		if !lm.periodic[d] {
			continue
		}
		r := float64(lm.repetitions[d])
		half := r / 2.0
		v := coord.At(d)
		if v >= half {
			coord.SetAt(d, v-r)
		} else if v < -half {
			coord.SetAt(d, v+r)
		}
	}
}

// ConfigMatchList returns the cached match list for index, built by
// InitMatchLists and kept current by UpdateMatchList.
func (c *Configuration) ConfigMatchList(index int) MatchList {
	return c.matchLists[index]
}

// UpdateMatchList refreshes the occupancy snapshot (MatchTypes) of every
// entry in index's cached match list from the live Types table, without
// recomputing distances or recentering.
func (c *Configuration) UpdateMatchList(index int) {
	list := c.matchLists[index]
	for i := range list {
		list[i].MatchTypes = c.Types[list[i].SiteIndex]
	}
}

// MovedAtomIDs returns the atom ids moved by the most recent Apply call.
func (c *Configuration) MovedAtomIDs() []int {
	out := make([]int, c.numMoved)
	copy(out, c.movedAtomIDs)
	return out
}

// RecentMoveVectors returns the move vectors applied to MovedAtomIDs(),
// in the same order, by the most recent Apply call.
func (c *Configuration) RecentMoveVectors() []Coordinate {
	out := make([]Coordinate, c.numMoved)
	copy(out, c.recentMoveVectors)
	return out
}

// LatestEvent returns the process number and site index of the most
// recently applied process.
func (c *Configuration) LatestEvent() (processNumber, siteIndex int) {
	return c.latestEventProcess, c.latestEventSite
}

// Apply performs process at siteIndex: it walks the process's prototype
// match list and the site's cached config match list in lockstep,
// mutates every site whose prototype entry carries a non-zero,
// non-wildcard update delta, relabels elements from the updated bucket,
// tracks atom-id moves and their move vectors, and finally resolves any
// id-move pairs the process declares (atom identity swapping between two
// match-list positions without changing the occupancy counts).
func (c *Configuration) Apply(p *Process, siteIndex int) {
	c.latestEventProcess = p.ProcessNumber
	c.latestEventSite = siteIndex

	processList := p.MatchList
	siteList := c.matchLists[siteIndex]

	p.AffectedIndices = p.AffectedIndices[:0]
	c.numMoved = 0

	// Step 2: bucket mutation only. A position with no move vector whose
	// occupant changed in place still needs its atom-id's element label
	// refreshed; a position with a move vector defers its id bookkeeping
	// to the id-move pass below.
	for i, pe := range processList {
		if !pe.hasUpdate() {
			continue
		}
		index := siteList[i].SiteIndex
		c.Types[index].Add(pe.UpdateTypes)

		elementsAtIndex := make([]string, 0, len(c.Types[index]))
		for t, count := range c.Types[index] {
			for n := 0; n < count; n++ {
				elementsAtIndex = append(elementsAtIndex, c.TypeNames[t])
			}
		}
		c.Elements[index] = elementsAtIndex

		if !pe.HasMoveVector && len(elementsAtIndex) > 0 {
			c.AtomIDElements[c.AtomID[index]] = elementsAtIndex[0]
		}

		p.AffectedIndices = append(p.AffectedIndices, index)
	}

	// Step 3+4: id-move pairs relocate an atom identity from one
	// match-list position to another and advance its tracked coordinate
	// by the move vector attached to the origin position; moved_atom_ids
	// holds exactly these ids, not every bucket-mutated position.
	type idUpdate struct {
		id    int
		index int
		move  Coordinate
	}
	updates := make([]idUpdate, len(p.IDMoves))
	for i, mv := range p.IDMoves {
		fromIndex := siteList[mv[0]].SiteIndex
		toIndex := siteList[mv[1]].SiteIndex
		id := c.AtomID[fromIndex]
		move := processList[mv[0]].MoveVector
		c.AtomIDCoordinates[id] = c.AtomIDCoordinates[id].Add(move)
		updates[i] = idUpdate{id: id, index: toIndex, move: move}
	}
	for _, u := range updates {
		c.AtomID[u.index] = u.id
		if len(c.Elements[u.index]) > 0 {
			c.AtomIDElements[u.id] = c.Elements[u.index][0]
		}
		c.movedAtomIDs[c.numMoved] = u.id
		c.recentMoveVectors[c.numMoved] = u.move
		c.numMoved++
	}
}

// ParticlesPerType returns the total occupancy count of each type id,
// summed over every lattice site.
func (c *Configuration) ParticlesPerType() []int {
	totals := make([]int, len(c.PossibleTypes)+1)
	for _, bucket := range c.Types {
		for t, count := range bucket {
			if t < len(totals) {
				totals[t] += count
			}
		}
	}
	return totals
}

// SortedPossibleTypeNames returns the element names of PossibleTypes in a
// deterministic order, convenient for stable logging and test output.
func (c *Configuration) SortedPossibleTypeNames() []string {
	names := make([]string, 0, len(c.PossibleTypes))
	for name := range c.PossibleTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
