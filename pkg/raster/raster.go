// Package raster turns continuous signed distance shapes into the discrete
// per-cell arrays solvers consume: the sampled distance field, the solid
// mask, and the cell type classification.
package raster

import (
	"math"
	"runtime"
	"sync"

	"github.com/ctessum/sparse"

	"github.com/lbkit/lbprep/pkg/lattice"
	"github.com/lbkit/lbprep/pkg/shapes"
)

// Option adjusts rasterization.
type Option func(*config)

type config struct {
	workers int
}

// WithWorkers caps the number of goroutines sampling rows. Values below one
// mean one worker per CPU.
func WithWorkers(n int) Option {
	return func(c *config) { c.workers = n }
}

// Rasterize samples the shape at every cell center and thresholds the result
// into a solid mask. Distance values are quantized to float32 before the
// threshold comparison so the in-memory field matches what persistence will
// round-trip. Cells with phi <= threshold are solid; a positive threshold
// thickens solids, a negative one thins them.
//
// The returned field has shape (Ny, Nx). Sampling runs in parallel over row
// chunks and is deterministic for any worker count.
func Rasterize(g *lattice.Grid, s shapes.Shape, threshold float64, opts ...Option) (*sparse.DenseArray, *ByteField) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	workers := cfg.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > g.Ny {
		workers = g.Ny
	}

	phi := sparse.ZerosDense(g.Ny, g.Nx)
	solid := NewByteField(g.Nx, g.Ny)

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
				yc := g.Y(iy)
				base := iy * g.Nx
				for ix := 0; ix < g.Nx; ix++ {
					v := float64(float32(s.SDF(g.X(ix), yc)))
					phi.Elements[base+ix] = v
					if v <= threshold {
						solid.Data[base+ix] = 1
					}
				}
			}
		}(lo, hi)
	}
	wg.Wait()
	return phi, solid
}

// FiniteValues returns the finite entries of a in iteration order, dropping
// NaN and infinities. Callers use it for range statistics over NaN-padded
// fields such as link fractions.
func FiniteValues(a *sparse.DenseArray) []float64 {
	vals := make([]float64, 0, len(a.Elements))
	for _, v := range a.Elements {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		vals = append(vals, v)
	}
	return vals
}
