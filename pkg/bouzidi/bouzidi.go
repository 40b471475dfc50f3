// Package bouzidi computes the boundary link fractions used by interpolated
// bounce-back schemes. For every fluid cell and every non-rest D2Q9 direction
// whose neighbor is solid, it locates the wall crossing along the link and
// reports q = (distance from fluid node to wall) / (link length), in [0, 1].
// Links without a well-defined crossing stay NaN.
package bouzidi

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/ctessum/sparse"

	"github.com/lbkit/lbprep/pkg/lattice"
	"github.com/lbkit/lbprep/pkg/raster"
)

// ErrShapeMismatch reports field arrays whose dimensions disagree with the
// grid.
var ErrShapeMismatch = errors.New("bouzidi: array shape mismatch")

const (
	// DefaultTolerance bounds the bisection interval width (scaled by grid
	// spacing) and the snap distance for boundaries passing exactly through
	// a node.
	DefaultTolerance = 1e-6

	// DefaultMaxIter caps bisection halvings per link.
	DefaultMaxIter = 20
)

// Option adjusts the solver.
type Option func(*config)

type config struct {
	threshold    float64
	hasThreshold bool
	tol          float64
	maxIter      int
	workers      int
}

// WithThreshold fixes the boundary level set phi = t instead of inferring it
// from the data.
func WithThreshold(t float64) Option {
	return func(c *config) { c.threshold = t; c.hasThreshold = true }
}

// WithTolerance overrides DefaultTolerance.
func WithTolerance(tol float64) Option {
	return func(c *config) { c.tol = tol }
}

// WithMaxIter overrides DefaultMaxIter.
func WithMaxIter(n int) Option {
	return func(c *config) { c.maxIter = n }
}

// WithWorkers caps the number of goroutines solving rows. Values below one
// mean one worker per CPU.
func WithWorkers(n int) Option {
	return func(c *config) { c.workers = n }
}

// Compute returns the link fraction array of shape (Ny, Nx, 9), NaN wherever
// no fraction is defined: the rest direction, solid cells, fluid-to-fluid
// links, out-of-domain neighbors, and links whose crossing cannot be
// bracketed or probed. Fractions are stored at float32 precision.
//
// The wall is the level set phi = t. Without WithThreshold, t is inferred
// from the data: the largest finite phi over solid cells, or 0 when there are
// none. If that maximum is negative while every finite fluid phi is positive,
// the mask and field already agree in sign and t falls back to 0.
func Compute(g *lattice.Grid, phi *sparse.DenseArray, solid *raster.ByteField, opts ...Option) (*sparse.DenseArray, error) {
	cfg := config{tol: DefaultTolerance, maxIter: DefaultMaxIter}
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(phi.Shape) != 2 {
		return nil, fmt.Errorf("%w: phi must be 2-D, got %d dimensions", ErrShapeMismatch, len(phi.Shape))
	}
	if phi.Shape[0] != g.Ny || phi.Shape[1] != g.Nx {
		return nil, fmt.Errorf("%w: phi is %dx%d, grid is %dx%d",
			ErrShapeMismatch, phi.Shape[0], phi.Shape[1], g.Ny, g.Nx)
	}
	if solid.Nx != g.Nx || solid.Ny != g.Ny {
		return nil, fmt.Errorf("%w: solid is %dx%d, grid is %dx%d",
			ErrShapeMismatch, solid.Ny, solid.Nx, g.Ny, g.Nx)
	}

	threshold := cfg.threshold
	if !cfg.hasThreshold {
		threshold = inferThreshold(phi, solid)
	}

	q := sparse.ZerosDense(g.Ny, g.Nx, lattice.Q)
	for i := range q.Elements {
		q.Elements[i] = math.NaN()
	}

	workers := cfg.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > g.Ny {
		workers = g.Ny
	}
	rowsPer := (g.Ny + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * rowsPer
		hi := lo + rowsPer
		if hi > g.Ny {
			hi = g.Ny
		}
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for iy := lo; iy < hi; iy++ {
				solveRow(g, phi, solid, q, iy, threshold, cfg.tol, cfg.maxIter)
			}
		}(lo, hi)
	}
	wg.Wait()
	return q, nil
}

// solveRow fills the q entries of one grid row. Rows are independent, so
// workers never write overlapping elements.
func solveRow(g *lattice.Grid, phi *sparse.DenseArray, solid *raster.ByteField, q *sparse.DenseArray, iy int, threshold, tol float64, maxIter int) {
	yf := g.Y(iy)
	for ix := 0; ix < g.Nx; ix++ {
		if solid.At(ix, iy) != 0 {
			continue
		}
		base := (iy*g.Nx + ix) * lattice.Q
		phiF := phi.Get(iy, ix)
		xf := g.X(ix)

		for dir := 1; dir < lattice.Q; dir++ {
			e := lattice.D2Q9[dir]
			jx, jy := ix+e.Ex, iy+e.Ey
			if !g.InBounds(jx, jy) {
				continue
			}
			if solid.At(jx, jy) == 0 {
				continue
			}
			phiB := phi.Get(jy, jx)
			q.Elements[base+dir] = solveLink(g, phi, xf, yf, dir, phiF, phiB, threshold, tol, maxIter)
		}
	}
}

// solveLink finds the wall fraction along one fluid-to-solid link, or NaN
// when no crossing can be located.
func solveLink(g *lattice.Grid, phi *sparse.DenseArray, xf, yf float64, dir int, phiF, phiB, threshold, tol float64, maxIter int) float64 {
	adjF := phiF - threshold
	adjB := phiB - threshold
	length := lattice.Lengths[dir] * g.Dx

	// Degenerate brackets: the fluid node must sit strictly outside the wall
	// and the solid node strictly inside, except when either lies on the wall
	// within tol. NaN values fail every comparison here and fall through to
	// the bisection, where the poisoned interpolation abandons the link.
	if adjF <= 0 || adjB >= 0 || math.Abs(adjF) <= tol || math.Abs(adjB) <= tol {
		switch {
		case math.Abs(adjF) <= tol && adjB < 0:
			return 0
		case math.Abs(adjB) <= tol && adjF > 0:
			return 1
		}
		return math.NaN()
	}

	e := lattice.D2Q9[dir]
	invLen := 1 / lattice.Lengths[dir]
	s0, s1 := 0.0, length
	for it := 0; it < maxIter; it++ {
		sm := 0.5 * (s0 + s1)
		xm := xf + float64(e.Ex)*sm*invLen
		ym := yf + float64(e.Ey)*sm*invLen
		pm := interpPhi(g, phi, xm, ym)
		if math.IsNaN(pm) {
			return math.NaN()
		}
		if pm-threshold > 0 {
			s0 = sm
		} else {
			s1 = sm
		}
		if math.Abs(s1-s0) < tol*g.Dx {
			break
		}
	}
	return float64(float32(s1 / length))
}

// inferThreshold recovers the effective boundary level from the data. See
// the Compute doc comment for the rules.
func inferThreshold(phi *sparse.DenseArray, solid *raster.ByteField) float64 {
	solidMax := math.Inf(-1)
	fluidMin := math.Inf(1)
	haveSolid := false
	haveFluid := false
	for iy := 0; iy < solid.Ny; iy++ {
		for ix := 0; ix < solid.Nx; ix++ {
			v := phi.Get(iy, ix)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			if solid.At(ix, iy) != 0 {
				haveSolid = true
				if v > solidMax {
					solidMax = v
				}
			} else {
				haveFluid = true
				if v < fluidMin {
					fluidMin = v
				}
			}
		}
	}
	if !haveSolid {
		return 0
	}
	if solidMax < 0 && haveFluid && fluidMin > 0 {
		return 0
	}
	return solidMax
}
