package shapes

import (
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// sdfxShape adapts a deadsy/sdfx 2D distance field to the Shape interface.
type sdfxShape struct {
	s sdf.SDF2
}

// FromSDF2 wraps an sdfx two-dimensional distance field as a Shape, opening
// the sdfx constructive catalogue (polygons, text, offsets) to the
// rasterizer. The bridge is one way: shapes built here carry no bounding box,
// so they cannot go back into sdfx.
func FromSDF2(s sdf.SDF2) Shape {
	return &sdfxShape{s: s}
}

func (w *sdfxShape) SDF(x, y float64) float64 {
	return w.s.Evaluate(v2.Vec{X: x, Y: y})
}
