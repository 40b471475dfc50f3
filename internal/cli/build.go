package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/lbkit/lbprep/pkg/bouzidi"
	"github.com/lbkit/lbprep/pkg/engine"
	"github.com/lbkit/lbprep/pkg/geomio"
	"github.com/lbkit/lbprep/pkg/lattice"
	"github.com/lbkit/lbprep/pkg/raster"
	"github.com/lbkit/lbprep/pkg/scene"
	"github.com/lbkit/lbprep/pkg/shapes"
)

// buildOpts holds the command-line flags for the build command.
// Zero tol and maxIter mean solver defaults.
type buildOpts struct {
	output    string  // bundle path (input name with .nc if empty)
	threshold float64 // iso level separating solid from fluid
	tol       float64 // bisection tolerance
	maxIter   int     // bisection iteration cap
	workers   int     // goroutines for sampling and link solving
	table     string  // optional text table path
	selection string  // cell selection for the table
	plots     string  // optional diagnostics directory

	thresholdSet bool // --threshold given explicitly
	tolSet       bool // --tol given explicitly
	maxIterSet   bool // --max-iter given explicitly
}

// buildInput is a fully resolved case: the grid and shape to sample plus the
// solver parameters the source file declared.
type buildInput struct {
	grid      *lattice.Grid
	shape     shapes.Shape
	threshold float64
	tol       float64
	maxIter   int
}

// newBuildCmd creates the build command, which runs the whole pipeline on
// one scene or script and writes the resulting bundle.
func newBuildCmd() *cobra.Command {
	opts := buildOpts{selection: geomio.SelectNearWall}

	cmd := &cobra.Command{
		Use:   "build <scene.toml|script.lisp>",
		Short: "Build a geometry bundle from a scene or shape script",
		Long: `Build runs the full preprocessing pipeline: it loads a declarative TOML
scene or a Lisp shape script, samples the signed distance field at every
cell center, classifies cells, solves the Bouzidi link fractions, and
writes everything to a NetCDF bundle.

Flags override the corresponding scene or script settings.

Examples:
  lbprep build cylinder.toml
  lbprep build mixer.lisp -o mixer.nc --plots diag
  lbprep build cylinder.toml --txt cylinder.txt --select near_wall`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			opts.thresholdSet = c.Flags().Changed("threshold")
			opts.tolSet = c.Flags().Changed("tol")
			opts.maxIterSet = c.Flags().Changed("max-iter")
			return runBuild(c.Context(), &opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "bundle file (input name with .nc if empty)")
	cmd.Flags().Float64Var(&opts.threshold, "threshold", 0, "iso level separating solid from fluid")
	cmd.Flags().Float64Var(&opts.tol, "tol", 0, "link solver tolerance (0 means solver default)")
	cmd.Flags().IntVar(&opts.maxIter, "max-iter", 0, "link solver iteration cap (0 means solver default)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "worker goroutines (0 means one per CPU)")
	cmd.Flags().StringVar(&opts.table, "txt", "", "also write a text table to this path")
	cmd.Flags().StringVar(&opts.selection, "select", opts.selection, "cells to include in the table: all, fluid, near_wall, or wall")
	cmd.Flags().StringVar(&opts.plots, "plots", "", "also render diagnostic images into this directory")

	return cmd
}

// runBuild executes the pipeline for one input file.
func runBuild(ctx context.Context, opts *buildOpts, path string) error {
	logger := loggerFromContext(ctx)

	in, err := loadInput(path)
	if err != nil {
		return err
	}
	if opts.thresholdSet {
		in.threshold = opts.threshold
	}
	if opts.tolSet {
		in.tol = opts.tol
	}
	if opts.maxIterSet {
		in.maxIter = opts.maxIter
	}

	g := in.grid
	logger.Infof("Loaded %s: %dx%d grid, dx=%g", filepath.Base(path), g.Nx, g.Ny, g.Dx)
	logger.Debugf("Origin (%g, %g), threshold %g", g.X0, g.Y0, in.threshold)

	prog := newProgress(logger)
	phi, solid := raster.Rasterize(g, in.shape, in.threshold, raster.WithWorkers(opts.workers))
	types := raster.ClassifyCells(solid)
	prog.done(fmt.Sprintf("Rasterized %d cells: %d solid, %d near-wall",
		g.Len(), solid.Count(1), types.Count(raster.NearWall)))
	logger.Debugf("Distance field spans [%.4g, %.4g]",
		floats.Min(phi.Elements), floats.Max(phi.Elements))

	bopts := []bouzidi.Option{bouzidi.WithThreshold(in.threshold), bouzidi.WithWorkers(opts.workers)}
	if in.tol > 0 {
		bopts = append(bopts, bouzidi.WithTolerance(in.tol))
	}
	if in.maxIter > 0 {
		bopts = append(bopts, bouzidi.WithMaxIter(in.maxIter))
	}
	prog = newProgress(logger)
	q, err := bouzidi.Compute(g, phi, solid, bopts...)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Solved %d boundary links", len(raster.FiniteValues(q))))

	out := opts.output
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + ".nc"
	}
	b := &geomio.Bundle{
		Grid:      g,
		Phi:       phi,
		Solid:     solid,
		CellTypes: types,
		Bouzidi:   q,
		Meta: map[string]string{
			"generator": "lbprep " + versionString(),
			"source":    filepath.Base(path),
		},
	}
	if err := geomio.Save(out, b); err != nil {
		return err
	}
	logger.Infof("Wrote bundle to %s", out)

	if opts.table != "" {
		if err := geomio.SaveTable(opts.table, g, types, q, geomio.WithSelection(opts.selection)); err != nil {
			return err
		}
		logger.Infof("Wrote table to %s", opts.table)
	}
	if opts.plots != "" {
		if err := renderPlots(ctx, opts.plots, b); err != nil {
			return err
		}
	}
	return nil
}

// loadInput reads a case description from path. TOML files are declarative
// scenes; .lisp and .zy files are shape scripts evaluated by the engine.
func loadInput(path string) (*buildInput, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return loadScene(path)
	case ".lisp", ".zy":
		return loadScript(path)
	default:
		return nil, fmt.Errorf("unsupported input %q: expected a .toml scene or a .lisp/.zy script", path)
	}
}

// loadScene builds a case from a declarative scene file.
func loadScene(path string) (*buildInput, error) {
	s, err := scene.Load(path)
	if err != nil {
		return nil, err
	}
	g, shape, err := s.Build()
	if err != nil {
		return nil, err
	}
	return &buildInput{
		grid:      g,
		shape:     shape,
		threshold: s.Raster.Threshold,
		tol:       s.Bouzidi.Tol,
		maxIter:   s.Bouzidi.MaxIter,
	}, nil
}

// loadScript builds a case by evaluating a shape script. The script must
// declare both a grid and a solid; threshold defaults to zero.
func loadScript(path string) (*buildInput, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	res, err := engine.NewEngine().Evaluate(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if res.Grid == nil {
		return nil, fmt.Errorf("%s: script declares no grid", filepath.Base(path))
	}
	if res.Shape == nil {
		return nil, fmt.Errorf("%s: script declares no solid", filepath.Base(path))
	}
	in := &buildInput{grid: res.Grid, shape: res.Shape}
	if res.Threshold != nil {
		in.threshold = *res.Threshold
	}
	return in, nil
}
