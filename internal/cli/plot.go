package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lbkit/lbprep/pkg/geomio"
	"github.com/lbkit/lbprep/pkg/viz"
)

// plotOpts holds the command-line flags for the plot command.
type plotOpts struct {
	dir string // output directory for images
}

// newPlotCmd creates the plot command, which renders the diagnostic image
// set for a saved bundle.
func newPlotCmd() *cobra.Command {
	opts := plotOpts{dir: "plots"}

	cmd := &cobra.Command{
		Use:   "plot <bundle.nc>",
		Short: "Render diagnostic images from a geometry bundle",
		Long: `Plot reads a saved bundle and renders the solid mask, the signed distance
field with its zero contour, and, when the bundle carries them, the cell
type map, the link fraction histogram, and one per-direction fraction map.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runPlot(c.Context(), &opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.dir, "dir", "d", opts.dir, "output directory for images")

	return cmd
}

// runPlot loads the bundle at path and renders its diagnostics.
func runPlot(ctx context.Context, opts *plotOpts, path string) error {
	logger := loggerFromContext(ctx)

	b, err := geomio.Load(path)
	if err != nil {
		return err
	}
	logger.Infof("Loaded %s: %dx%d grid", filepath.Base(path), b.Grid.Nx, b.Grid.Ny)
	return renderPlots(ctx, opts.dir, b)
}

// renderPlots writes the diagnostic image set for b into dir, creating the
// directory if needed. Optional bundle fields are skipped silently.
func renderPlots(ctx context.Context, dir string, b *geomio.Bundle) error {
	logger := loggerFromContext(ctx)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	prog := newProgress(logger)
	if err := viz.PlotMask(b.Grid, b.Solid, filepath.Join(dir, "mask.png")); err != nil {
		return err
	}
	if err := viz.PlotPhi(b.Grid, b.Phi, filepath.Join(dir, "phi.png")); err != nil {
		return err
	}
	n := 2
	if b.CellTypes != nil {
		if err := viz.PlotMask(b.Grid, b.CellTypes, filepath.Join(dir, "cell_types.png")); err != nil {
			return err
		}
		n++
	}
	if b.Bouzidi != nil {
		if err := viz.PlotQHist(b.Bouzidi, filepath.Join(dir, "q_hist.png")); err != nil {
			return err
		}
		if err := viz.PlotQDirs(b.Grid, b.Bouzidi, filepath.Join(dir, "q")); err != nil {
			return err
		}
		n += 10
	}
	prog.done(fmt.Sprintf("Rendered %d plots to %s", n, dir))
	return nil
}
