package shapes

import (
	"fmt"
	"math"
)

type roundedRect struct {
	cx, cy float64
	w, h   float64
	rx, ry float64
	theta  float64

	// half extents of the straight core, radii already subtracted
	hw, hh float64

	cosT, sinT float64
	rotated    bool
}

// RoundedRect returns a w by h rectangle with elliptical corner radii rx, ry,
// centered at (cx, cy) and rotated by theta radians. Radii are capped at half
// the corresponding side length; pass ry < 0 to reuse rx for both axes.
func RoundedRect(cx, cy, w, h, rx, ry, theta float64) (Shape, error) {
	if w <= 0 {
		return nil, fmt.Errorf("%w: rounded rectangle width must be positive, got %g", ErrInvalidShape, w)
	}
	if h <= 0 {
		return nil, fmt.Errorf("%w: rounded rectangle height must be positive, got %g", ErrInvalidShape, h)
	}
	if rx < 0 {
		return nil, fmt.Errorf("%w: corner radius rx must be non-negative, got %g", ErrInvalidShape, rx)
	}
	if ry < 0 {
		ry = rx
	}
	rx = math.Min(rx, w/2)
	ry = math.Min(ry, h/2)
	r := &roundedRect{
		cx: cx, cy: cy, w: w, h: h,
		rx: rx, ry: ry, theta: theta,
		hw: math.Max(w/2-rx, 0),
		hh: math.Max(h/2-ry, 0),
	}
	if theta != 0 {
		r.rotated = true
		r.cosT = math.Cos(-theta)
		r.sinT = math.Sin(-theta)
	}
	return r, nil
}

func (r *roundedRect) SDF(x, y float64) float64 {
	dx := x - r.cx
	dy := y - r.cy
	if r.rotated {
		dx, dy = r.cosT*dx-r.sinT*dy, r.sinT*dx+r.cosT*dy
	}
	qx := math.Abs(dx) - r.hw - r.rx
	qy := math.Abs(dy) - r.hh - r.ry
	outside := math.Hypot(math.Max(qx, 0), math.Max(qy, 0))
	return outside + math.Min(math.Max(qx, qy), 0)
}

func (r *roundedRect) Center() (x, y float64) { return r.cx, r.cy }
