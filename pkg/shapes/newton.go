package shapes

const (
	// projectIters is the fixed Newton iteration count used when projecting a
	// query point onto an implicit curve. Enough for grid-scale accuracy on
	// well-conditioned conics without an inner convergence test.
	projectIters = 25

	// gradEps regularizes the gradient norm so projection survives the zero
	// gradient at a field's critical points.
	gradEps = 1e-12
)

// projectToCurve walks (x, y) onto the zero level set of f by damped Newton
// steps along the gradient. It always runs the full iteration budget; callers
// handle the degenerate case where the start point never moves.
func projectToCurve(x, y float64, f func(x, y float64) float64, grad func(x, y float64) (gx, gy float64)) (px, py float64) {
	px, py = x, y
	for i := 0; i < projectIters; i++ {
		v := f(px, py)
		gx, gy := grad(px, py)
		denom := gx*gx + gy*gy + gradEps
		px -= v * gx / denom
		py -= v * gy / denom
	}
	return px, py
}
