// Package kmc implements the core lattice kinetic Monte Carlo engine:
// configuration state, process matching, rate-weighted event selection,
// and time propagation.
package kmc

import "math"

// Coordinate is an ordered triple of reals, used both for fractional
// lattice-basis positions and for Cartesian displacements.
type Coordinate struct {
	X, Y, Z float64
}

// NewCoordinate builds a Coordinate from its three components.
func NewCoordinate(x, y, z float64) Coordinate {
	return Coordinate{X: x, Y: y, Z: z}
}

// Add returns the componentwise sum.
func (c Coordinate) Add(other Coordinate) Coordinate {
	return Coordinate{c.X + other.X, c.Y + other.Y, c.Z + other.Z}
}

// Sub returns the componentwise difference.
func (c Coordinate) Sub(other Coordinate) Coordinate {
	return Coordinate{c.X - other.X, c.Y - other.Y, c.Z - other.Z}
}

// Scale returns the coordinate multiplied by a scalar.
func (c Coordinate) Scale(s float64) Coordinate {
	return Coordinate{c.X * s, c.Y * s, c.Z * s}
}

// Dot returns the scalar (inner) product with another coordinate.
func (c Coordinate) Dot(other Coordinate) float64 {
	return c.X*other.X + c.Y*other.Y + c.Z*other.Z
}

// OuterProdDiag returns the diagonal of the outer product of c with other,
// i.e. the componentwise product (c.X*other.X, c.Y*other.Y, c.Z*other.Z).
func (c Coordinate) OuterProdDiag(other Coordinate) Coordinate {
	return Coordinate{c.X * other.X, c.Y * other.Y, c.Z * other.Z}
}

// Norm returns the Euclidean norm.
func (c Coordinate) Norm() float64 {
	return math.Sqrt(c.X*c.X + c.Y*c.Y + c.Z*c.Z)
}

// Distance returns the Euclidean distance to another coordinate.
func (c Coordinate) Distance(other Coordinate) float64 {
	return c.Sub(other).Norm()
}

// At returns the component at index 0, 1 or 2 (x, y or z). Indices outside
// that range are caller error: a negative index reads x and any index
// above 2 reads z, matching the original KMCLib operator[] behavior of
// treating any index >= 2 as z.
func (c Coordinate) At(i int) float64 {
	switch {
	case i < 1:
		return c.X
	case i < 2:
		return c.Y
	default:
		return c.Z
	}
}

// SetAt sets the component at index 0, 1 or 2 in place.
func (c *Coordinate) SetAt(i int, v float64) {
	switch {
	case i < 1:
		c.X = v
	case i < 2:
		c.Y = v
	default:
		c.Z = v
	}
}

// Less implements the lexicographic order with X most significant, used to
// break distance ties when sorting match lists.
func (c Coordinate) Less(other Coordinate) bool {
	if c.X != other.X {
		return c.X < other.X
	}
	if c.Y != other.Y {
		return c.Y < other.Y
	}
	return c.Z < other.Z
}

// coordinateEps is the tolerance used when comparing coordinates for
// positional equality, e.g. when resolving a process's id-move endpoint.
const coordinateEps = 1.0e-6

// AlmostEqual reports whether c and other are within coordinateEps of each
// other in every component.
func (c Coordinate) AlmostEqual(other Coordinate) bool {
	return math.Abs(c.X-other.X) < coordinateEps &&
		math.Abs(c.Y-other.Y) < coordinateEps &&
		math.Abs(c.Z-other.Z) < coordinateEps
}
