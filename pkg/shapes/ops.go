package shapes

import "math"

// The boolean combinators use the standard min/max SDF composition. The
// result is a correct inside/outside classifier everywhere but only a true
// distance where the nearest child surface is the nearest composite surface.

type union struct{ a, b Shape }

// Union returns the shape covering the points of a and b.
func Union(a, b Shape) Shape { return &union{a: a, b: b} }

func (u *union) SDF(x, y float64) float64 {
	return math.Min(u.a.SDF(x, y), u.b.SDF(x, y))
}

type intersection struct{ a, b Shape }

// Intersect returns the shape covering the points common to a and b.
func Intersect(a, b Shape) Shape { return &intersection{a: a, b: b} }

func (n *intersection) SDF(x, y float64) float64 {
	return math.Max(n.a.SDF(x, y), n.b.SDF(x, y))
}

type difference struct{ a, b Shape }

// Difference returns the shape covering the points of a not in b.
func Difference(a, b Shape) Shape { return &difference{a: a, b: b} }

func (d *difference) SDF(x, y float64) float64 {
	return math.Max(d.a.SDF(x, y), -d.b.SDF(x, y))
}

type rotation struct {
	child  Shape
	theta  float64
	px, py float64

	cosT, sinT float64
}

// Rotated returns child rotated by theta radians counterclockwise about its
// own center when it has one, else about the origin. Boolean composites have
// no center of their own.
func Rotated(child Shape, theta float64) Shape {
	px, py := 0.0, 0.0
	if c, ok := child.(Centered); ok {
		px, py = c.Center()
	}
	return RotatedAbout(child, theta, px, py)
}

// RotatedAbout returns child rotated by theta radians counterclockwise about
// the pivot (px, py).
func RotatedAbout(child Shape, theta, px, py float64) Shape {
	return &rotation{
		child: child, theta: theta, px: px, py: py,
		cosT: math.Cos(-theta), sinT: math.Sin(-theta),
	}
}

func (r *rotation) SDF(x, y float64) float64 {
	dx := x - r.px
	dy := y - r.py
	xr := r.cosT*dx - r.sinT*dy + r.px
	yr := r.sinT*dx + r.cosT*dy + r.py
	return r.child.SDF(xr, yr)
}

func (r *rotation) Center() (x, y float64) { return r.px, r.py }
