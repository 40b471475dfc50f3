// Package viz renders preprocessing results to image files: mask and
// distance-field heatmaps, link-fraction histograms and per-direction
// panels. Plots are meant for inspecting geometry before a solver run.
package viz

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/ctessum/sparse"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/lbkit/lbprep/pkg/lattice"
	"github.com/lbkit/lbprep/pkg/raster"
)

// ErrShapeMismatch reports a field whose shape does not match the grid.
var ErrShapeMismatch = errors.New("viz: field shape does not match grid")

// fieldGrid adapts grid-aligned data to the plotter.GridXYZ interface.
type fieldGrid struct {
	g  *lattice.Grid
	at func(ix, iy int) float64
}

func (f fieldGrid) Dims() (int, int)   { return f.g.Nx, f.g.Ny }
func (f fieldGrid) Z(c, r int) float64 { return f.at(c, r) }
func (f fieldGrid) X(c int) float64    { return f.g.X(c) }
func (f fieldGrid) Y(r int) float64    { return f.g.Y(r) }

// solidPalette paints every contour level the same color.
type solidPalette struct{ c color.Color }

func (p solidPalette) Colors() []color.Color { return []color.Color{p.c} }

// grayRamp runs from white down to black.
type grayRamp struct{ n int }

func (g grayRamp) Colors() []color.Color {
	cs := make([]color.Color, g.n)
	for i := range cs {
		cs[i] = color.Gray{Y: uint8(255 - 255*i/(g.n-1))}
	}
	return cs
}

func newPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	return p
}

// PlotMask writes mask as a grayscale heatmap, zero codes white and the
// highest code black. It accepts both solid masks and cell-type fields.
func PlotMask(g *lattice.Grid, mask *raster.ByteField, path string) error {
	if mask == nil || mask.Nx != g.Nx || mask.Ny != g.Ny {
		return fmt.Errorf("%w: mask must be %dx%d", ErrShapeMismatch, g.Nx, g.Ny)
	}
	hi := uint8(1)
	for _, v := range mask.Data {
		if v > hi {
			hi = v
		}
	}
	hm := plotter.NewHeatMap(fieldGrid{
		g:  g,
		at: func(ix, iy int) float64 { return float64(mask.At(ix, iy)) },
	}, grayRamp{n: 64})
	hm.Min, hm.Max = 0, float64(hi)

	p := newPlot("mask")
	p.Add(hm)
	if err := p.Save(5*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("viz: mask plot: %w", err)
	}
	return nil
}

// PlotPhi writes the signed distance field as a diverging heatmap centered
// on zero, with the zero level set drawn as a contour.
func PlotPhi(g *lattice.Grid, phi *sparse.DenseArray, path string) error {
	if phi == nil || len(phi.Shape) != 2 || phi.Shape[0] != g.Ny || phi.Shape[1] != g.Nx {
		return fmt.Errorf("%w: phi must have shape (%d, %d)", ErrShapeMismatch, g.Ny, g.Nx)
	}
	m := 0.0
	for _, v := range phi.Elements {
		if a := math.Abs(v); a > m && !math.IsInf(a, 0) && !math.IsNaN(a) {
			m = a
		}
	}
	if m == 0 {
		m = 1
	}
	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(-m)
	cmap.SetMax(m)

	field := fieldGrid{g: g, at: func(ix, iy int) float64 { return phi.Get(iy, ix) }}
	hm := plotter.NewHeatMap(field, cmap.Palette(255))
	hm.Min, hm.Max = -m, m

	p := newPlot("phi")
	p.Add(hm)
	p.Add(plotter.NewContour(field, []float64{0}, solidPalette{c: color.Black}))
	if err := p.Save(5*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("viz: phi plot: %w", err)
	}
	return nil
}

// PlotQHist writes a histogram of the finite link fractions, 50 bins over
// [0, 1]. Input with no finite values yields an empty plot.
func PlotQHist(bouzidi *sparse.DenseArray, path string) error {
	if bouzidi == nil {
		return fmt.Errorf("%w: nil bouzidi field", ErrShapeMismatch)
	}
	var vals plotter.Values
	for _, v := range bouzidi.Elements {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			vals = append(vals, v)
		}
	}

	p := plot.New()
	p.Title.Text = "link fractions"
	p.X.Label.Text = "q"
	p.Y.Label.Text = "count"
	if len(vals) > 0 {
		h, err := plotter.NewHist(vals, 50)
		if err != nil {
			return fmt.Errorf("viz: q histogram: %w", err)
		}
		h.Bins = fixedBins(vals, 50)
		h.Width = 1
		p.Add(h)
	}
	p.X.Min, p.X.Max = 0, 1
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("viz: q histogram: %w", err)
	}
	return nil
}

// fixedBins counts values into n equal bins spanning [0, 1] so partial data
// does not stretch the bin edges.
func fixedBins(vals plotter.Values, n int) []plotter.HistogramBin {
	bins := make([]plotter.HistogramBin, n)
	for i := range bins {
		bins[i].Min = float64(i) / float64(n)
		bins[i].Max = float64(i+1) / float64(n)
	}
	for _, v := range vals {
		k := int(v * float64(n))
		if k < 0 {
			k = 0
		}
		if k >= n {
			k = n - 1
		}
		bins[k].Weight++
	}
	return bins
}

// PlotQDirs writes one heatmap per stencil direction to
// <prefix>_0.png through <prefix>_8.png. Cells without a defined fraction
// stay blank, so the rest direction comes out as an empty panel.
func PlotQDirs(g *lattice.Grid, bouzidi *sparse.DenseArray, prefix string) error {
	if bouzidi == nil || len(bouzidi.Shape) != 3 ||
		bouzidi.Shape[0] != g.Ny || bouzidi.Shape[1] != g.Nx || bouzidi.Shape[2] != lattice.Q {
		return fmt.Errorf("%w: bouzidi must have shape (%d, %d, %d)", ErrShapeMismatch, g.Ny, g.Nx, lattice.Q)
	}
	cmap := moreland.Kindlmann()
	cmap.SetMin(0)
	cmap.SetMax(1)
	pal := cmap.Palette(255)

	for dir := 0; dir < lattice.Q; dir++ {
		hm := plotter.NewHeatMap(fieldGrid{
			g:  g,
			at: func(ix, iy int) float64 { return bouzidi.Get(iy, ix, dir) },
		}, pal)
		hm.Min, hm.Max = 0, 1

		p := newPlot(fmt.Sprintf("q direction %d", dir))
		p.Add(hm)
		path := fmt.Sprintf("%s_%d.png", prefix, dir)
		if err := p.Save(5*vg.Inch, 5*vg.Inch, path); err != nil {
			return fmt.Errorf("viz: q direction %d: %w", dir, err)
		}
	}
	return nil
}

var _ plotter.GridXYZ = fieldGrid{}
var _ palette.Palette = solidPalette{}
var _ palette.Palette = grayRamp{}
