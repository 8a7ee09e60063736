package kmc

import (
	"math"
	"sort"
)

// matchDistanceEps is the tolerance used when sorting match list entries
// by distance.
const matchDistanceEps = 1.0e-5

// MatchListEntry is the single record shared by both match-list flavors:
// a process-prototype entry (SiteIndex unset, MatchTypes holding prototype
// counts with a possible wildcard, UpdateTypes holding a signed delta) and
// a configuration entry (SiteIndex set, MatchTypes the live occupancy
// snapshot, UpdateTypes unused). A single role-tagged struct replaces a
// ConfigBucketMatchListEntry / ProcessBucketMatchListEntry class split
// with one record and two usage modes.
type MatchListEntry struct {
	// RelativeCoordinate is the position of this entry relative to the
	// match list's origin site.
	RelativeCoordinate Coordinate

	// Distance is the Euclidean distance of RelativeCoordinate from the
	// origin; entry 0 of any config match list always has Distance == 0.
	Distance float64

	// SiteIndex is the absolute lattice index this entry refers to, for
	// config entries. It is unset (-1) for process prototype entries that
	// have not yet been bound to a configuration.
	SiteIndex int

	// MatchTypes holds, for a config entry, the live occupancy bucket at
	// this position; for a process entry, the prototype bucket (with
	// MatchTypes[0] > 0 meaning wildcard).
	MatchTypes TypeBucket

	// UpdateTypes holds the signed delta this process entry applies to the
	// site's bucket when the process fires. Unused (nil) on config
	// entries.
	UpdateTypes TypeBucket

	// HasMoveVector reports whether MoveVector carries a meaningful atom
	// displacement for this process entry.
	HasMoveVector bool

	// MoveVector is the coordinate displacement applied to the atom
	// identity that occupied this entry's position, if HasMoveVector.
	MoveVector Coordinate
}

// NewConfigMatchEntry builds a config-flavored entry.
func NewConfigMatchEntry(rel Coordinate, siteIndex int, occupancy TypeBucket) MatchListEntry {
	return MatchListEntry{
		RelativeCoordinate: rel,
		Distance:           rel.Norm(),
		SiteIndex:          siteIndex,
		MatchTypes:         occupancy,
	}
}

// NewProcessMatchEntry builds a process-flavored prototype entry.
func NewProcessMatchEntry(rel Coordinate, prototype, update TypeBucket) MatchListEntry {
	return MatchListEntry{
		RelativeCoordinate: rel,
		Distance:           rel.Norm(),
		SiteIndex:          -1,
		MatchTypes:         prototype,
		UpdateTypes:        update,
	}
}

// IsWildcard reports whether this entry's prototype matches any occupancy.
func (e MatchListEntry) IsWildcard() bool {
	return e.MatchTypes.IsWildcard()
}

// hasUpdate reports whether this process entry carries a non-zero,
// non-wildcard update delta — the condition under which Configuration.Apply
// mutates a site's bucket and records it as affected.
func (e MatchListEntry) hasUpdate() bool {
	if e.UpdateTypes == nil || e.MatchTypes.IsWildcard() {
		return false
	}
	return !e.UpdateTypes.IsZero()
}

// MatchList is a sorted sequence of MatchListEntry, ordered by distance
// (within matchDistanceEps) then lexicographically by RelativeCoordinate.
type MatchList []MatchListEntry

// SortMatchList sorts a match list in place. Sorting is idempotent:
// re-sorting an already sorted list is a no-op.
func SortMatchList(list MatchList) {
	sort.SliceStable(list, func(i, j int) bool {
		return matchListLess(list[i], list[j])
	})
}

func matchListLess(a, b MatchListEntry) bool {
	if math.Abs(a.Distance-b.Distance) < matchDistanceEps {
		return a.RelativeCoordinate.Less(b.RelativeCoordinate)
	}
	return a.Distance < b.Distance
}

// WhateverMatch is the dominance test: it walks the process prototype
// list and the config list in lockstep (the prototype must be no longer
// than the config list, else the result is false) and requires, at every
// position, that the prototype bucket dominates the config bucket at that
// position.
//
// The test is reflexive (a list matches itself), transitive along
// additions of non-negative counts to the observed buckets, and respects
// wildcards.
func WhateverMatch(prototype, observed MatchList) bool {
	if len(prototype) > len(observed) {
		return false
	}
	for i, p := range prototype {
		if !p.MatchTypes.Dominates(observed[i].MatchTypes) {
			return false
		}
	}
	return true
}

// Multiplicity returns the product, over every non-wildcard prototype
// slot position, of the binomial multiplicity of that position's observed
// bucket against the prototype bucket.
func Multiplicity(prototype, observed MatchList) float64 {
	mult := 1.0
	for i, p := range prototype {
		mult *= p.MatchTypes.Multiplicity(observed[i].MatchTypes)
	}
	return mult
}
