package lattice

import "math"

// Q is the number of D2Q9 directions, the rest link included.
const Q = 9

// Dir is one lattice direction given as integer cell offsets.
type Dir struct {
	Ex, Ey int
}

// D2Q9 is the two-dimensional nine-velocity stencil in the index order used
// throughout this module: rest, then the four axis directions counterclockwise
// from +x, then the four diagonals counterclockwise from (+x,+y). Every array
// indexed by direction follows this order.
var D2Q9 = [Q]Dir{
	{0, 0},
	{1, 0}, {0, 1}, {-1, 0}, {0, -1},
	{1, 1}, {-1, 1}, {-1, -1}, {1, -1},
}

// Lengths holds the Euclidean length of each direction in lattice units:
// zero for the rest link, 1 for axis links, sqrt(2) for diagonals.
var Lengths = [Q]float64{
	0,
	1, 1, 1, 1,
	math.Sqrt2, math.Sqrt2, math.Sqrt2, math.Sqrt2,
}

// Opposite returns the index of the reversed direction. The rest link is its
// own opposite.
func Opposite(i int) int {
	switch {
	case i == 0:
		return 0
	case i < 5:
		return (i+1)%4 + 1
	default:
		return (i-3)%4 + 5
	}
}
