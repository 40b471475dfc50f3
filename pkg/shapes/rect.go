package shapes

import (
	"fmt"
	"math"
)

type rect struct {
	cx, cy float64
	w, h   float64
	theta  float64

	// cos(-theta) and sin(-theta), precomputed so each SDF call pays for the
	// inverse rotation only when theta is nonzero.
	cosT, sinT float64
	rotated    bool
}

// Rect returns a w by h rectangle centered at (cx, cy), rotated by theta
// radians counterclockwise. The SDF is exact outside and takes the usual
// negative box interior value inside.
func Rect(cx, cy, w, h, theta float64) (Shape, error) {
	if w <= 0 {
		return nil, fmt.Errorf("%w: rectangle width must be positive, got %g", ErrInvalidShape, w)
	}
	if h <= 0 {
		return nil, fmt.Errorf("%w: rectangle height must be positive, got %g", ErrInvalidShape, h)
	}
	r := &rect{cx: cx, cy: cy, w: w, h: h, theta: theta}
	if theta != 0 {
		r.rotated = true
		r.cosT = math.Cos(-theta)
		r.sinT = math.Sin(-theta)
	}
	return r, nil
}

func (r *rect) SDF(x, y float64) float64 {
	dx := x - r.cx
	dy := y - r.cy
	if r.rotated {
		dx, dy = r.cosT*dx-r.sinT*dy, r.sinT*dx+r.cosT*dy
	}
	qx := math.Abs(dx) - r.w/2
	qy := math.Abs(dy) - r.h/2
	ox := math.Max(qx, 0)
	oy := math.Max(qy, 0)
	return math.Sqrt(ox*ox+oy*oy) + math.Min(math.Max(qx, qy), 0)
}

func (r *rect) Center() (x, y float64) { return r.cx, r.cy }
