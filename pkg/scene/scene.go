// Package scene loads declarative TOML descriptions of a preprocessing
// case: one grid, one shape tree and the solver parameters to run it with.
package scene

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/lbkit/lbprep/pkg/lattice"
	"github.com/lbkit/lbprep/pkg/shapes"
)

var (
	// ErrUnknownKind reports a shape kind the builder does not know.
	ErrUnknownKind = errors.New("scene: unknown shape kind")
	// ErrBadShape reports a shape entry with invalid parameters or children.
	ErrBadShape = errors.New("scene: bad shape")
)

// Scene is a decoded scene file.
type Scene struct {
	Grid    GridSpec    `toml:"grid"`
	Raster  RasterSpec  `toml:"raster"`
	Bouzidi BouzidiSpec `toml:"bouzidi"`
	Shape   ShapeSpec   `toml:"shape"`
}

// GridSpec mirrors the [grid] table. Origin defaults to (0, 0).
type GridSpec struct {
	Nx     int       `toml:"nx"`
	Ny     int       `toml:"ny"`
	Dx     float64   `toml:"dx"`
	Origin []float64 `toml:"origin"`
}

// RasterSpec mirrors the [raster] table.
type RasterSpec struct {
	Threshold float64 `toml:"threshold"`
}

// BouzidiSpec mirrors the [bouzidi] table. Zero fields mean solver
// defaults.
type BouzidiSpec struct {
	Tol     float64 `toml:"tol"`
	MaxIter int     `toml:"max_iter"`
}

// ShapeSpec is one node of the shape tree. Which fields matter depends on
// Kind; combinators nest their operands under Of.
type ShapeSpec struct {
	Kind   string      `toml:"kind"`
	Center []float64   `toml:"center"`
	R      float64     `toml:"r"`
	W      float64     `toml:"w"`
	H      float64     `toml:"h"`
	Rx     float64     `toml:"rx"`
	Ry     *float64    `toml:"ry"`
	A      float64     `toml:"a"`
	B      float64     `toml:"b"`
	C      float64     `toml:"c"`
	Theta  float64     `toml:"theta"`
	Pivot  []float64   `toml:"pivot"`
	Of     []ShapeSpec `toml:"of"`
}

// Load reads and parses a scene file.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	return Parse(data)
}

// Parse decodes a scene from TOML source.
func Parse(data []byte) (*Scene, error) {
	var s Scene
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	return &s, nil
}

// Build constructs the grid and shape tree the scene describes.
func (s *Scene) Build() (*lattice.Grid, shapes.Shape, error) {
	x0, y0, err := point(s.Grid.Origin, "grid.origin")
	if err != nil {
		return nil, nil, err
	}
	g, err := lattice.New(s.Grid.Nx, s.Grid.Ny, s.Grid.Dx, x0, y0)
	if err != nil {
		return nil, nil, fmt.Errorf("scene: [grid]: %w", err)
	}
	shape, err := buildShape(s.Shape, "shape")
	if err != nil {
		return nil, nil, err
	}
	return g, shape, nil
}

func buildShape(spec ShapeSpec, path string) (shapes.Shape, error) {
	cx, cy, err := point(spec.Center, path+".center")
	if err != nil {
		return nil, err
	}

	switch spec.Kind {
	case "circle":
		return primitive(path, spec, func() (shapes.Shape, error) {
			return shapes.Circle(cx, cy, spec.R)
		})
	case "rect":
		return primitive(path, spec, func() (shapes.Shape, error) {
			return shapes.Rect(cx, cy, spec.W, spec.H, spec.Theta)
		})
	case "rounded_rect":
		return primitive(path, spec, func() (shapes.Shape, error) {
			ry := -1.0
			if spec.Ry != nil {
				ry = *spec.Ry
			}
			return shapes.RoundedRect(cx, cy, spec.W, spec.H, spec.Rx, ry, spec.Theta)
		})
	case "ellipse":
		return primitive(path, spec, func() (shapes.Shape, error) {
			return shapes.Ellipse(cx, cy, spec.A, spec.B, spec.Theta)
		})
	case "cassini":
		return primitive(path, spec, func() (shapes.Shape, error) {
			return shapes.CassiniOval(cx, cy, spec.A, spec.C, spec.Theta)
		})

	case "union", "intersect", "difference":
		if len(spec.Of) != 2 {
			return nil, fmt.Errorf("%w: %s: %s takes exactly two children, got %d",
				ErrBadShape, path, spec.Kind, len(spec.Of))
		}
		a, err := buildShape(spec.Of[0], fmt.Sprintf("%s.of[0]", path))
		if err != nil {
			return nil, err
		}
		b, err := buildShape(spec.Of[1], fmt.Sprintf("%s.of[1]", path))
		if err != nil {
			return nil, err
		}
		switch spec.Kind {
		case "union":
			return shapes.Union(a, b), nil
		case "intersect":
			return shapes.Intersect(a, b), nil
		default:
			return shapes.Difference(a, b), nil
		}

	case "rotated":
		if len(spec.Of) != 1 {
			return nil, fmt.Errorf("%w: %s: rotated takes exactly one child, got %d",
				ErrBadShape, path, len(spec.Of))
		}
		child, err := buildShape(spec.Of[0], fmt.Sprintf("%s.of[0]", path))
		if err != nil {
			return nil, err
		}
		switch len(spec.Pivot) {
		case 0:
			return shapes.Rotated(child, spec.Theta), nil
		case 2:
			return shapes.RotatedAbout(child, spec.Theta, spec.Pivot[0], spec.Pivot[1]), nil
		default:
			return nil, fmt.Errorf("%w: %s.pivot: want two elements, got %d",
				ErrBadShape, path, len(spec.Pivot))
		}

	case "":
		return nil, fmt.Errorf("%w: %s: missing kind", ErrBadShape, path)
	default:
		return nil, fmt.Errorf("%w: %s: %q", ErrUnknownKind, path, spec.Kind)
	}
}

// primitive checks that a leaf node has no children and wraps constructor
// failures with the node path.
func primitive(path string, spec ShapeSpec, build func() (shapes.Shape, error)) (shapes.Shape, error) {
	if len(spec.Of) != 0 {
		return nil, fmt.Errorf("%w: %s: %s takes no children, got %d",
			ErrBadShape, path, spec.Kind, len(spec.Of))
	}
	s, err := build()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadShape, path, err)
	}
	return s, nil
}

// point reads an optional two-element coordinate, defaulting to the origin.
func point(v []float64, path string) (x, y float64, err error) {
	switch len(v) {
	case 0:
		return 0, 0, nil
	case 2:
		return v[0], v[1], nil
	default:
		return 0, 0, fmt.Errorf("%w: %s: want two elements, got %d", ErrBadShape, path, len(v))
	}
}
