package engine

import (
	"fmt"
	"math"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/lbkit/lbprep/pkg/lattice"
	"github.com/lbkit/lbprep/pkg/shapes"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms script source before it reaches zygomys:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal).
//     This avoids registering keyword symbols as globals, which would
//     collide with user variables of the same name.
//
//  2. Kebab-case to underscore: rounded-rect -> rounded_rect. zygomys
//     reads hyphens as subtraction, so hyphenated identifiers are
//     rewritten when the hyphen sits between identifier characters.
//
//  3. ; line comments become // comments, which is what zygomys expects.
//
// All three transformations respect string literal boundaries.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments (and ;; style) to //.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Rewrite kebab-case identifiers; a hyphen with identifier
		// characters on both sides is not a minus operator.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isLetter(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Custom Sexp types
// ---------------------------------------------------------------------------

// sexpShape carries a shape through the interpreter, printing as a
// readable summary.
type sexpShape struct {
	shape shapes.Shape
	desc  string
}

func (s *sexpShape) SexpString(ps *zygo.PrintState) string { return s.desc }
func (s *sexpShape) Type() *zygo.RegisteredType            { return nil }

// sexpGrid carries the declared grid.
type sexpGrid struct {
	grid *lattice.Grid
}

func (g *sexpGrid) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(grid %dx%d dx=%g)", g.grid.Nx, g.grid.Ny, g.grid.Dx)
}
func (g *sexpGrid) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks whether a Sexp is a preprocessed keyword string, returning
// the bare keyword name if so.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds a separated positional+keyword argument list. Keywords win
// over positionals naming the same parameter; positionals fill parameters
// in declaration order.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// lookup finds the argument for parameter name, by keyword first and then
// by positional index.
func (a kwArgs) lookup(i int, name string) (zygo.Sexp, bool) {
	if v, ok := a.kw[name]; ok {
		return v, true
	}
	if i >= 0 && i < len(a.positional) {
		return a.positional[i], true
	}
	return nil, false
}

// floatOr reads an optional numeric parameter.
func (a kwArgs) floatOr(i int, name string, def float64) (float64, error) {
	v, ok := a.lookup(i, name)
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

// floatReq reads a required numeric parameter.
func (a kwArgs) floatReq(i int, name string) (float64, error) {
	v, ok := a.lookup(i, name)
	if !ok {
		return 0, fmt.Errorf("missing %s", name)
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

// intReq reads a required integer parameter.
func (a kwArgs) intReq(i int, name string) (int, error) {
	v, ok := a.lookup(i, name)
	if !ok {
		return 0, fmt.Errorf("missing %s", name)
	}
	n, err := toInt(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp, accepting ints and floats.
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an int from a Sexp, accepting whole floats.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == math.Trunc(v.Val) {
			return int(v.Val), nil
		}
		return 0, fmt.Errorf("expected integer, got %g", v.Val)
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toShapeSexp extracts a shape value.
func toShapeSexp(s zygo.Sexp) (*sexpShape, error) {
	if w, ok := s.(*sexpShape); ok {
		return w, nil
	}
	return nil, fmt.Errorf("expected shape, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toPoint extracts a two-element numeric list or array.
func toPoint(s zygo.Sexp) (x, y float64, err error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return 0, 0, err
	}
	if len(items) != 2 {
		return 0, 0, fmt.Errorf("expected two-element point, got %d elements", len(items))
	}
	if x, err = toFloat64(items[0]); err != nil {
		return 0, 0, err
	}
	if y, err = toFloat64(items[1]); err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// evalState collects what a script declares as it runs.
type evalState struct {
	grid      *lattice.Grid
	shape     shapes.Shape
	threshold *float64
}

// registerBuiltins installs the geometry builtins into a zygomys
// environment. The builtins record their results on st during evaluation.
// Source must be preprocessed with preprocessSource first so that :keyword
// tokens arrive as recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, st *evalState) {

	// -----------------------------------------------------------------------
	// (grid :nx 120 :ny 80 :dx 0.5 :origin [-30.0 -20.0])
	// -----------------------------------------------------------------------
	env.AddFunction("grid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		nx, err := pa.intReq(0, "nx")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("grid: %w", err)
		}
		ny, err := pa.intReq(1, "ny")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("grid: %w", err)
		}
		dx, err := pa.floatReq(2, "dx")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("grid: %w", err)
		}
		x0, y0 := 0.0, 0.0
		if v, ok := pa.kw["origin"]; ok {
			if x0, y0, err = toPoint(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("grid: origin: %w", err)
			}
		}

		g, err := lattice.New(nx, ny, dx, x0, y0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("grid: %w", err)
		}
		st.grid = g
		return &sexpGrid{grid: g}, nil
	})

	// -----------------------------------------------------------------------
	// (circle :x 0 :y 0 :r 12)
	// -----------------------------------------------------------------------
	env.AddFunction("circle", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		x, err := pa.floatOr(0, "x", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("circle: %w", err)
		}
		y, err := pa.floatOr(1, "y", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("circle: %w", err)
		}
		r, err := pa.floatReq(2, "r")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("circle: %w", err)
		}

		s, err := shapes.Circle(x, y, r)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("circle: %w", err)
		}
		return &sexpShape{shape: s, desc: fmt.Sprintf("(circle r=%g at=(%g,%g))", r, x, y)}, nil
	})

	// -----------------------------------------------------------------------
	// (rect :x 6 :y 0 :w 14 :h 6 :theta 0.3)
	// -----------------------------------------------------------------------
	env.AddFunction("rect", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		x, err := pa.floatOr(0, "x", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rect: %w", err)
		}
		y, err := pa.floatOr(1, "y", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rect: %w", err)
		}
		w, err := pa.floatReq(2, "w")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rect: %w", err)
		}
		h, err := pa.floatReq(3, "h")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rect: %w", err)
		}
		theta, err := pa.floatOr(4, "theta", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rect: %w", err)
		}

		s, err := shapes.Rect(x, y, w, h, theta)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rect: %w", err)
		}
		return &sexpShape{shape: s, desc: fmt.Sprintf("(rect %gx%g at=(%g,%g))", w, h, x, y)}, nil
	})

	// -----------------------------------------------------------------------
	// (rounded-rect :x 0 :y 0 :w 14 :h 6 :rx 1.5 :ry 0.5 :theta 0)
	//
	// Registered as "rounded_rect"; the preprocessor rewrites the hyphen.
	// Omitting ry reuses rx.
	// -----------------------------------------------------------------------
	env.AddFunction("rounded_rect", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		x, err := pa.floatOr(0, "x", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rounded-rect: %w", err)
		}
		y, err := pa.floatOr(1, "y", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rounded-rect: %w", err)
		}
		w, err := pa.floatReq(2, "w")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rounded-rect: %w", err)
		}
		h, err := pa.floatReq(3, "h")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rounded-rect: %w", err)
		}
		rx, err := pa.floatReq(4, "rx")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rounded-rect: %w", err)
		}
		ry, err := pa.floatOr(5, "ry", -1)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rounded-rect: %w", err)
		}
		theta, err := pa.floatOr(6, "theta", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rounded-rect: %w", err)
		}

		s, err := shapes.RoundedRect(x, y, w, h, rx, ry, theta)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rounded-rect: %w", err)
		}
		return &sexpShape{shape: s, desc: fmt.Sprintf("(rounded-rect %gx%g rx=%g at=(%g,%g))", w, h, rx, x, y)}, nil
	})

	// -----------------------------------------------------------------------
	// (ellipse :x 0 :y 0 :a 5 :b 2 :theta 0.7)
	// -----------------------------------------------------------------------
	env.AddFunction("ellipse", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		x, err := pa.floatOr(0, "x", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ellipse: %w", err)
		}
		y, err := pa.floatOr(1, "y", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ellipse: %w", err)
		}
		a, err := pa.floatReq(2, "a")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ellipse: %w", err)
		}
		b, err := pa.floatReq(3, "b")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ellipse: %w", err)
		}
		theta, err := pa.floatOr(4, "theta", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ellipse: %w", err)
		}

		s, err := shapes.Ellipse(x, y, a, b, theta)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ellipse: %w", err)
		}
		return &sexpShape{shape: s, desc: fmt.Sprintf("(ellipse a=%g b=%g at=(%g,%g))", a, b, x, y)}, nil
	})

	// -----------------------------------------------------------------------
	// (cassini :x 0 :y 0 :a 2 :c 1 :theta 0)
	// -----------------------------------------------------------------------
	env.AddFunction("cassini", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		x, err := pa.floatOr(0, "x", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cassini: %w", err)
		}
		y, err := pa.floatOr(1, "y", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cassini: %w", err)
		}
		a, err := pa.floatReq(2, "a")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cassini: %w", err)
		}
		c, err := pa.floatReq(3, "c")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cassini: %w", err)
		}
		theta, err := pa.floatOr(4, "theta", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cassini: %w", err)
		}

		s, err := shapes.CassiniOval(x, y, a, c, theta)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cassini: %w", err)
		}
		return &sexpShape{shape: s, desc: fmt.Sprintf("(cassini a=%g c=%g at=(%g,%g))", a, c, x, y)}, nil
	})

	// -----------------------------------------------------------------------
	// (union s1 s2), (intersect s1 s2), (difference s1 s2)
	// -----------------------------------------------------------------------
	combinators := []struct {
		name    string
		combine func(a, b shapes.Shape) shapes.Shape
	}{
		{"union", shapes.Union},
		{"intersect", shapes.Intersect},
		{"difference", shapes.Difference},
	}
	for _, op := range combinators {
		env.AddFunction(op.name, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires exactly 2 shapes, got %d", op.name, len(args))
			}
			a, err := toShapeSexp(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: first argument: %w", op.name, err)
			}
			b, err := toShapeSexp(args[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: second argument: %w", op.name, err)
			}
			return &sexpShape{
				shape: op.combine(a.shape, b.shape),
				desc:  fmt.Sprintf("(%s %s %s)", op.name, a.desc, b.desc),
			}, nil
		})
	}

	// -----------------------------------------------------------------------
	// (rotate s :theta 0.5 :pivot [1 -1])
	//
	// Without a pivot the shape turns about its own center when it has
	// one, the origin otherwise.
	// -----------------------------------------------------------------------
	env.AddFunction("rotate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("rotate requires a shape as first argument")
		}
		child, err := toShapeSexp(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rotate: %w", err)
		}
		theta, err := pa.floatReq(1, "theta")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rotate: %w", err)
		}

		if v, ok := pa.kw["pivot"]; ok {
			px, py, err := toPoint(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("rotate: pivot: %w", err)
			}
			return &sexpShape{
				shape: shapes.RotatedAbout(child.shape, theta, px, py),
				desc:  fmt.Sprintf("(rotate %s theta=%g pivot=(%g,%g))", child.desc, theta, px, py),
			}, nil
		}
		return &sexpShape{
			shape: shapes.Rotated(child.shape, theta),
			desc:  fmt.Sprintf("(rotate %s theta=%g)", child.desc, theta),
		}, nil
	})

	// -----------------------------------------------------------------------
	// (threshold 0.5)
	// -----------------------------------------------------------------------
	env.AddFunction("threshold", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("threshold requires exactly 1 value, got %d", len(args))
		}
		v, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("threshold: %w", err)
		}
		st.threshold = &v
		return &zygo.SexpFloat{Val: v}, nil
	})

	// -----------------------------------------------------------------------
	// (solid s) marks the scene's final shape.
	// -----------------------------------------------------------------------
	env.AddFunction("solid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("solid requires exactly 1 shape, got %d", len(args))
		}
		w, err := toShapeSexp(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("solid: %w", err)
		}
		st.shape = w.shape
		return w, nil
	})
}
