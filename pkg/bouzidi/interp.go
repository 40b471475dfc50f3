package bouzidi

import (
	"math"

	"github.com/ctessum/sparse"

	"github.com/lbkit/lbprep/pkg/lattice"
)

// interpPhi bilinearly interpolates the field at the physical point (x, y).
// The interpolable interior is bounded by the last row and column of cell
// centers; points outside it return NaN. A NaN at any stencil corner poisons
// the result even when its weight is zero, so probes next to undefined cells
// report undefined rather than a half-made value.
func interpPhi(g *lattice.Grid, phi *sparse.DenseArray, x, y float64) float64 {
	gx := (x - g.X0) / g.Dx
	gy := (y - g.Y0) / g.Dx
	ix := int(math.Floor(gx))
	iy := int(math.Floor(gy))
	if ix < 0 || ix >= g.Nx-1 || iy < 0 || iy >= g.Ny-1 {
		return math.NaN()
	}
	fx := gx - float64(ix)
	fy := gy - float64(iy)
	p00 := phi.Get(iy, ix)
	p10 := phi.Get(iy, ix+1)
	p01 := phi.Get(iy+1, ix)
	p11 := phi.Get(iy+1, ix+1)
	return p00*(1-fx)*(1-fy) + p10*fx*(1-fy) + p01*(1-fx)*fy + p11*fx*fy
}
