package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lbkit/lbprep/pkg/geomio"
)

// exportOpts holds the command-line flags for the export command.
type exportOpts struct {
	output    string // output file path (stdout if empty)
	selection string // cells to include
	noHeader  bool   // omit the column header line
}

// newExportCmd creates the export command, which dumps a saved bundle as a
// plain text table.
func newExportCmd() *cobra.Command {
	opts := exportOpts{selection: geomio.SelectNearWall}

	cmd := &cobra.Command{
		Use:   "export <bundle.nc>",
		Short: "Dump a geometry bundle as a whitespace-separated table",
		Long: `Export reads a saved bundle and writes one row per selected cell with its
coordinates, cell type, and the eight link fractions (-1 where no fraction
is defined). Solvers without NetCDF support consume this format.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runExport(c.Context(), &opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVarP(&opts.selection, "select", "s", opts.selection, "cells to include: all, fluid, near_wall, or wall")
	cmd.Flags().BoolVar(&opts.noHeader, "no-header", false, "omit the column header line")

	return cmd
}

// runExport loads the bundle at path and writes the table.
func runExport(ctx context.Context, opts *exportOpts, path string) error {
	logger := loggerFromContext(ctx)

	b, err := geomio.Load(path)
	if err != nil {
		return err
	}
	if b.CellTypes == nil || b.Bouzidi == nil {
		return fmt.Errorf("%s: bundle has no cell types or link fractions; rebuild it with lbprep build", filepath.Base(path))
	}

	topts := []geomio.TableOption{
		geomio.WithSelection(opts.selection),
		geomio.WithHeader(!opts.noHeader),
	}
	if opts.output == "" {
		return geomio.WriteTable(os.Stdout, b.Grid, b.CellTypes, b.Bouzidi, topts...)
	}
	if err := geomio.SaveTable(opts.output, b.Grid, b.CellTypes, b.Bouzidi, topts...); err != nil {
		return err
	}
	logger.Infof("Wrote table to %s", opts.output)
	return nil
}
