package shapes

import (
	"fmt"
	"math"
)

type circle struct {
	cx, cy float64
	r      float64
}

// Circle returns a circle of radius r centered at (cx, cy). Its SDF is the
// exact Euclidean distance to the circumference.
func Circle(cx, cy, r float64) (Shape, error) {
	if r <= 0 {
		return nil, fmt.Errorf("%w: circle radius must be positive, got %g", ErrInvalidShape, r)
	}
	return &circle{cx: cx, cy: cy, r: r}, nil
}

func (c *circle) SDF(x, y float64) float64 {
	dx := x - c.cx
	dy := y - c.cy
	return math.Sqrt(dx*dx+dy*dy) - c.r
}

func (c *circle) Center() (x, y float64) { return c.cx, c.cy }
