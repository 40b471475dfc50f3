package geomio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/ctessum/sparse"

	"github.com/lbkit/lbprep/pkg/lattice"
	"github.com/lbkit/lbprep/pkg/raster"
)

// ErrUnknownSelection reports a selection name WithSelection does not know.
var ErrUnknownSelection = errors.New("geomio: unknown selection")

// Selection names accepted by WithSelection. They filter rows by the
// default classification codes.
const (
	SelectAll      = "all"
	SelectFluid    = "fluid"
	SelectNearWall = "near_wall"
	SelectWall     = "wall"
)

type tableConfig struct {
	selection string
	header    bool
}

// TableOption adjusts table output.
type TableOption func(*tableConfig)

// WithSelection restricts output rows to cells of one class. The default
// is SelectAll.
func WithSelection(sel string) TableOption {
	return func(c *tableConfig) { c.selection = sel }
}

// WithHeader toggles the leading comment line. It is on by default.
func WithHeader(on bool) TableOption {
	return func(c *tableConfig) { c.header = on }
}

// WriteTable writes one row per selected cell: the cell center, its
// classification code and the eight link fractions in stencil order.
// Undefined fractions appear as -1. Rows scan y-major, x fastest.
func WriteTable(w io.Writer, g *lattice.Grid, cellTypes *raster.ByteField, bouzidi *sparse.DenseArray, opts ...TableOption) error {
	cfg := tableConfig{selection: SelectAll, header: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	var want uint8
	filtered := true
	switch cfg.selection {
	case SelectAll:
		filtered = false
	case SelectFluid:
		want = raster.Fluid
	case SelectNearWall:
		want = raster.NearWall
	case SelectWall:
		want = raster.Wall
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSelection, cfg.selection)
	}

	if cellTypes == nil || cellTypes.Nx != g.Nx || cellTypes.Ny != g.Ny {
		return fmt.Errorf("%w: cell types must be %dx%d", ErrBadBundle, g.Nx, g.Ny)
	}
	if bouzidi == nil || len(bouzidi.Shape) != 3 ||
		bouzidi.Shape[0] != g.Ny || bouzidi.Shape[1] != g.Nx || bouzidi.Shape[2] != lattice.Q {
		return fmt.Errorf("%w: bouzidi must have shape (%d, %d, %d)", ErrBadBundle, g.Ny, g.Nx, lattice.Q)
	}

	bw := bufio.NewWriter(w)
	if cfg.header {
		fmt.Fprintln(bw, "# x y type q1 q2 q3 q4 q5 q6 q7 q8")
	}
	for iy := 0; iy < g.Ny; iy++ {
		for ix := 0; ix < g.Nx; ix++ {
			code := cellTypes.At(ix, iy)
			if filtered && code != want {
				continue
			}
			fmt.Fprintf(bw, "%g %g %d", g.X(ix), g.Y(iy), code)
			for dir := 1; dir < lattice.Q; dir++ {
				q := bouzidi.Get(iy, ix, dir)
				if math.IsNaN(q) {
					q = -1
				}
				fmt.Fprintf(bw, " %g", q)
			}
			fmt.Fprintln(bw)
		}
	}
	return bw.Flush()
}

// SaveTable writes the table to a file.
func SaveTable(path string, g *lattice.Grid, cellTypes *raster.ByteField, bouzidi *sparse.DenseArray, opts ...TableOption) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("geomio: create %s: %w", path, err)
	}
	if err := WriteTable(fh, g, cellTypes, bouzidi, opts...); err != nil {
		fh.Close()
		return fmt.Errorf("geomio: write %s: %w", path, err)
	}
	return fh.Close()
}
