package kmc

import "sort"

// LatticeMap implements the fixed index<->cell bijection and the
// periodic neighbor enumeration, grounded on KMCLib's latticemap.h/cpp.
//
// Global index <-> cell index is idx = ((i*Rb + j)*Rc + k)*Basis + s,
// with s in [0, Basis) the basis offset.
type LatticeMap struct {
	basis       int
	repetitions [3]int
	periodic    [3]bool
}

// NewLatticeMap constructs a LatticeMap. repetitions and periodic must
// each have length 3 (a, b, c axes); indices outside the valid index
// range for subsequent queries are caller error and are not checked here.
func NewLatticeMap(basis int, repetitions [3]int, periodic [3]bool) *LatticeMap {
	return &LatticeMap{basis: basis, repetitions: repetitions, periodic: periodic}
}

// Basis returns the number of basis sites per primitive cell.
func (m *LatticeMap) Basis() int { return m.basis }

// Repetitions returns the (Ra, Rb, Rc) cell counts.
func (m *LatticeMap) Repetitions() [3]int { return m.repetitions }

// Periodic returns the (pa, pb, pc) periodicity flags.
func (m *LatticeMap) Periodic() [3]bool { return m.periodic }

// NumSites returns the total number of lattice sites, Basis * Ra * Rb * Rc.
func (m *LatticeMap) NumSites() int {
	return m.basis * m.repetitions[0] * m.repetitions[1] * m.repetitions[2]
}

// BasisSiteFromIndex returns the basis offset s of a global index.
func (m *LatticeMap) BasisSiteFromIndex(index int) int {
	return index % m.basis
}

// IndexToCell returns the (i, j, k) cell coordinates containing index.
func (m *LatticeMap) IndexToCell(index int) (i, j, k int) {
	cellLinear := index / m.basis
	factorI := m.repetitions[1] * m.repetitions[2]
	i = cellLinear / factorI
	rem := cellLinear - i*factorI
	j = rem / m.repetitions[2]
	k = rem - j*m.repetitions[2]
	return i, j, k
}

// CellToIndices returns the basis-many global indices belonging to cell
// (i, j, k), in basis order.
func (m *LatticeMap) CellToIndices(i, j, k int) []int {
	base := ((i*m.repetitions[1] + j) * m.repetitions[2] + k) * m.basis
	out := make([]int, m.basis)
	for s := 0; s < m.basis; s++ {
		out[s] = base + s
	}
	return out
}

// wrapCell folds a single cell coordinate along one axis: if periodic,
// wraps into [0, R); otherwise returns (-1, false) to signal out of bounds.
func wrapCell(v, r int, periodic bool) (int, bool) {
	if periodic {
		if v < 0 {
			v += r
		} else if v >= r {
			v -= r
		}
	}
	if v < 0 || v >= r {
		return -1, false
	}
	return v, true
}

// NeighborIndices returns, in cell-order, all global indices in the
// (2*shells+1)^3 cube of cells centered on the cell containing index,
// honoring periodicity per axis: axes are wrapped if periodic, and cells
// that fall outside a non-periodic axis are skipped entirely. On a
// periodic axis with repetitions <= 2*shells, several cube offsets wrap
// onto the same cell; each distinct cell is emitted exactly once, at its
// first position in cell-order, so the result size is always
// basis * (occupied cell count).
func (m *LatticeMap) NeighborIndices(index, shells int) []int {
	ci, cj, ck := m.IndexToCell(index)
	out := make([]int, 0, m.basis*(2*shells+1)*(2*shells+1)*(2*shells+1))
	seen := make(map[[3]int]struct{})

	for i := ci - shells; i <= ci+shells; i++ {
		ii, okI := wrapCell(i, m.repetitions[0], m.periodic[0])
		if !okI {
			continue
		}
		for j := cj - shells; j <= cj+shells; j++ {
			jj, okJ := wrapCell(j, m.repetitions[1], m.periodic[1])
			if !okJ {
				continue
			}
			for k := ck - shells; k <= ck+shells; k++ {
				kk, okK := wrapCell(k, m.repetitions[2], m.periodic[2])
				if !okK {
					continue
				}
				cell := [3]int{ii, jj, kk}
				if _, ok := seen[cell]; ok {
					continue
				}
				seen[cell] = struct{}{}
				out = append(out, m.CellToIndices(ii, jj, kk)...)
			}
		}
	}
	return out
}

// SupersetNeighborIndices returns the unique, sorted union of
// NeighborIndices(i, shells) over every i in indices.
func (m *LatticeMap) SupersetNeighborIndices(indices []int, shells int) []int {
	seen := make(map[int]struct{})
	out := make([]int, 0, len(indices)*m.basis)
	for _, idx := range indices {
		for _, n := range m.NeighborIndices(idx, shells) {
			if _, ok := seen[n]; !ok {
				seen[n] = struct{}{}
				out = append(out, n)
			}
		}
	}
	sort.Ints(out)
	return out
}

// Wrap folds a fractional coordinate by exactly one period per periodic
// axis: if c[d] >= Rd/2, subtract Rd; if c[d] < -Rd/2, add Rd. This is a
// single-period wrap only — a coordinate more than one period out of box
// stays out of box, preserved deliberately to match the original's
// behavior rather than generalized to a full modulo wrap.
func (m *LatticeMap) Wrap(c *Coordinate) {
	for d := 0; d < 3; d++ {
		if !m.periodic[d] {
			continue
		}
		r := float64(m.repetitions[d])
		half := r / 2.0
		v := c.At(d)
		if v >= half {
			c.SetAt(d, v-r)
		} else if v < -half {
			c.SetAt(d, v+r)
		}
	}
}

// IndexFromMoveInfo resolves the global index reached from index by a
// cell-delta (di, dj, dk) plus a basis offset, wrapping the cell delta per
// axis periodicity. Grounded on KMCLib's latticemap.cpp indexFromMoveInfo,
// an alternate path to expressing a process move target compared to a
// Cartesian-distance lookup.
func (m *LatticeMap) IndexFromMoveInfo(index, di, dj, dk, basis int) int {
	ci, cj, ck := m.IndexToCell(index)
	ci += di
	cj += dj
	ck += dk

	if m.periodic[0] {
		ci = ((ci % m.repetitions[0]) + m.repetitions[0]) % m.repetitions[0]
	}
	if m.periodic[1] {
		cj = ((cj % m.repetitions[1]) + m.repetitions[1]) % m.repetitions[1]
	}
	if m.periodic[2] {
		ck = ((ck % m.repetitions[2]) + m.repetitions[2]) % m.repetitions[2]
	}

	basisIndex := basis + m.BasisSiteFromIndex(index)
	return m.CellToIndices(ci, cj, ck)[basisIndex]
}
