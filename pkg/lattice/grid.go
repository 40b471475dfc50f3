// Package lattice describes the uniform grids and velocity stencils used by
// 2D lattice-Boltzmann solvers. A Grid addresses cell centers in physical
// coordinates; the D2Q9 table fixes the direction indexing that every
// downstream array follows.
package lattice

import (
	"errors"
	"fmt"

	"github.com/ctessum/sparse"
)

// ErrInvalidGrid reports grid parameters that do not describe a usable lattice.
var ErrInvalidGrid = errors.New("lattice: invalid grid")

// Grid is a uniform Cartesian grid of cell centers with isotropic spacing.
// Cell (0,0) has its center at (X0, Y0) in physical space; cell (ix,iy) is
// at (X0+ix*Dx, Y0+iy*Dx). Arrays defined over the grid are row-major with
// shape (Ny, Nx).
type Grid struct {
	Nx, Ny int
	Dx     float64
	X0, Y0 float64
}

// New returns a grid with nx by ny cells spaced dx apart, with the center
// of cell (0,0) at (x0, y0). Cell counts and spacing must be positive.
func New(nx, ny int, dx, x0, y0 float64) (*Grid, error) {
	if nx <= 0 {
		return nil, fmt.Errorf("%w: nx must be positive, got %d", ErrInvalidGrid, nx)
	}
	if ny <= 0 {
		return nil, fmt.Errorf("%w: ny must be positive, got %d", ErrInvalidGrid, ny)
	}
	if dx <= 0 {
		return nil, fmt.Errorf("%w: dx must be positive, got %g", ErrInvalidGrid, dx)
	}
	return &Grid{Nx: nx, Ny: ny, Dx: dx, X0: x0, Y0: y0}, nil
}

// X returns the physical x coordinate of column ix.
func (g *Grid) X(ix int) float64 { return g.X0 + float64(ix)*g.Dx }

// Y returns the physical y coordinate of row iy.
func (g *Grid) Y(iy int) float64 { return g.Y0 + float64(iy)*g.Dx }

// InBounds reports whether (ix, iy) addresses a cell of the grid.
func (g *Grid) InBounds(ix, iy int) bool {
	return ix >= 0 && ix < g.Nx && iy >= 0 && iy < g.Ny
}

// Shape returns the row-major array shape (ny, nx) of fields on the grid.
func (g *Grid) Shape() (ny, nx int) { return g.Ny, g.Nx }

// Len returns the number of cells.
func (g *Grid) Len() int { return g.Nx * g.Ny }

// Coords materializes the cell center coordinates as two dense (Ny, Nx)
// arrays. x[j,i] and y[j,i] equal X(i) and Y(j) exactly.
func (g *Grid) Coords() (x, y *sparse.DenseArray) {
	x = sparse.ZerosDense(g.Ny, g.Nx)
	y = sparse.ZerosDense(g.Ny, g.Nx)
	for iy := 0; iy < g.Ny; iy++ {
		yc := g.Y(iy)
		for ix := 0; ix < g.Nx; ix++ {
			i := iy*g.Nx + ix
			x.Elements[i] = g.X(ix)
			y.Elements[i] = yc
		}
	}
	return x, y
}
