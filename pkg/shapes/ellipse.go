package shapes

import (
	"fmt"
	"math"
)

type ellipse struct {
	cx, cy float64
	a, b   float64
	theta  float64

	cosT, sinT float64
}

// Ellipse returns an ellipse with semi-axes a (along local x) and b (along
// local y), centered at (cx, cy) and rotated by theta radians. The SDF is
// computed by Newton projection onto the implicit curve, so values near the
// boundary are accurate to projection tolerance rather than exact.
func Ellipse(cx, cy, a, b, theta float64) (Shape, error) {
	if a <= 0 {
		return nil, fmt.Errorf("%w: ellipse semi-axis a must be positive, got %g", ErrInvalidShape, a)
	}
	if b <= 0 {
		return nil, fmt.Errorf("%w: ellipse semi-axis b must be positive, got %g", ErrInvalidShape, b)
	}
	return &ellipse{
		cx: cx, cy: cy, a: a, b: b, theta: theta,
		cosT: math.Cos(-theta), sinT: math.Sin(-theta),
	}, nil
}

func (e *ellipse) SDF(x, y float64) float64 {
	dx := x - e.cx
	dy := y - e.cy
	xl := e.cosT*dx - e.sinT*dy
	yl := e.sinT*dx + e.cosT*dy

	f := func(px, py float64) float64 {
		return (px/e.a)*(px/e.a) + (py/e.b)*(py/e.b) - 1
	}
	grad := func(px, py float64) (float64, float64) {
		return 2 * px / (e.a * e.a), 2 * py / (e.b * e.b)
	}

	px, py := projectToCurve(xl, yl, f, grad)
	ddx := xl - px
	ddy := yl - py
	dist := math.Sqrt(ddx*ddx + ddy*ddy)

	var sign float64
	switch v := f(xl, yl); {
	case v > 0:
		sign = 1
	case v < 0:
		sign = -1
	}
	// Projection cannot leave the exact center; distance there is the short
	// semi-axis.
	if sign < 0 && dist == 0 {
		dist = math.Min(e.a, e.b)
	}
	return sign * dist
}

func (e *ellipse) Center() (x, y float64) { return e.cx, e.cy }
