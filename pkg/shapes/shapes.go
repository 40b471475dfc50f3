// Package shapes provides signed distance functions for 2D obstacle geometry.
// Primitives (circle, rectangle, rounded rectangle, ellipse, Cassini oval)
// and boolean combinators all implement the Shape interface; the rasterizer
// consumes them without knowing which is which.
//
// Sign convention: negative inside the solid, positive in the fluid, zero on
// the boundary.
package shapes

import "errors"

// ErrInvalidShape reports shape parameters that do not describe a usable
// geometry.
var ErrInvalidShape = errors.New("shapes: invalid shape")

// Shape is a 2D signed distance field. SDF returns the signed distance from
// (x, y) to the shape boundary. Circle distances are exact; box distances are
// exact outside and Chebyshev-style inside; ellipse and Cassini distances come
// from an iterative projection and are accurate to solver tolerance.
type Shape interface {
	SDF(x, y float64) float64
}

// Centered is implemented by shapes with a natural pivot point. Rotations
// default to it.
type Centered interface {
	Center() (x, y float64)
}

// Contains reports whether (x, y) is inside the shape or on its boundary.
func Contains(s Shape, x, y float64) bool {
	return s.SDF(x, y) <= 0
}
