package shapes

import (
	"errors"
	"math"
	"testing"
)

func TestCircleSDF(t *testing.T) {
	c, err := Circle(0, 0, 5)
	if err != nil {
		t.Fatalf("Circle() error = %v", err)
	}
	tests := []struct {
		name string
		x, y float64
		want float64
	}{
		{"center", 0, 0, -5},
		{"on surface east", 5, 0, 0},
		{"on surface diagonal", 3, 4, 0},
		{"outside", 8, 0, 3},
		{"inside", 0, 2, -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.SDF(tt.x, tt.y); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("SDF(%g, %g) = %g, want %g", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestCircleOffCenter(t *testing.T) {
	c, err := Circle(2, -1, 3)
	if err != nil {
		t.Fatalf("Circle() error = %v", err)
	}
	if got := c.SDF(2, -1); got != -3 {
		t.Errorf("SDF at center = %g, want -3", got)
	}
	if got := c.SDF(6, -1); math.Abs(got-1) > 1e-12 {
		t.Errorf("SDF(6, -1) = %g, want 1", got)
	}
}

// The gradient of a true distance field has unit magnitude away from the
// medial axis.
func TestCircleGradientMagnitude(t *testing.T) {
	c, _ := Circle(0, 0, 5)
	const h = 1e-6
	pts := [][2]float64{{3, 4}, {7, 1}, {-2, 6}, {1, -1}}
	for _, p := range pts {
		gx := (c.SDF(p[0]+h, p[1]) - c.SDF(p[0]-h, p[1])) / (2 * h)
		gy := (c.SDF(p[0], p[1]+h) - c.SDF(p[0], p[1]-h)) / (2 * h)
		mag := math.Sqrt(gx*gx + gy*gy)
		if math.Abs(mag-1) > 1e-5 {
			t.Errorf("gradient magnitude at (%g, %g) = %g, want 1", p[0], p[1], mag)
		}
	}
}

func TestRectSDF(t *testing.T) {
	r, err := Rect(0, 0, 4, 2, 0)
	if err != nil {
		t.Fatalf("Rect() error = %v", err)
	}
	tests := []struct {
		name string
		x, y float64
		want float64
	}{
		{"center", 0, 0, -1},
		{"east outside", 3, 0, 1},
		{"north outside", 0, 2, 1},
		{"on east edge", 2, 0, 0},
		{"corner", 3, 2, math.Sqrt2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.SDF(tt.x, tt.y); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("SDF(%g, %g) = %g, want %g", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestRectRotated(t *testing.T) {
	// Quarter turn swaps the long axis onto y.
	r, err := Rect(0, 0, 4, 2, math.Pi/2)
	if err != nil {
		t.Fatalf("Rect() error = %v", err)
	}
	if got := r.SDF(0, 1.9); math.Abs(got-(-0.1)) > 1e-12 {
		t.Errorf("SDF(0, 1.9) = %g, want -0.1", got)
	}
	if got := r.SDF(1.9, 0); got >= 0 {
		t.Errorf("SDF(1.9, 0) = %g, want negative", got)
	}
	if got := r.SDF(2.5, 0); got <= 0 {
		t.Errorf("SDF(2.5, 0) = %g, want positive", got)
	}
}

// Rotating the shape must match rotating the query the opposite way.
func TestRectRotationConsistency(t *testing.T) {
	const theta = 0.3
	rot, _ := Rect(0, 0, 4, 2, theta)
	flat, _ := Rect(0, 0, 4, 2, 0)
	cos := math.Cos(-theta)
	sin := math.Sin(-theta)
	pts := [][2]float64{{1, 1}, {-2, 0.5}, {3, -1}, {0.1, 2.2}}
	for _, p := range pts {
		xl := cos*p[0] - sin*p[1]
		yl := sin*p[0] + cos*p[1]
		got := rot.SDF(p[0], p[1])
		want := flat.SDF(xl, yl)
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("rotated SDF(%g, %g) = %g, want %g", p[0], p[1], got, want)
		}
	}
}

func TestRoundedRectZeroRadiusMatchesRect(t *testing.T) {
	rr, err := RoundedRect(0, 0, 4, 2, 0, 0, 0)
	if err != nil {
		t.Fatalf("RoundedRect() error = %v", err)
	}
	r, _ := Rect(0, 0, 4, 2, 0)
	pts := [][2]float64{{0, 0}, {3, 0}, {0, 2}, {3, 2}, {2, 0}, {-1.5, 0.5}}
	for _, p := range pts {
		got := rr.SDF(p[0], p[1])
		want := r.SDF(p[0], p[1])
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("SDF(%g, %g) = %g, want %g", p[0], p[1], got, want)
		}
	}
}

func TestRoundedRectRadiusCapping(t *testing.T) {
	// Radii larger than the half sides collapse the straight core.
	rr, err := RoundedRect(0, 0, 4, 2, 5, -1, 0)
	if err != nil {
		t.Fatalf("RoundedRect() error = %v", err)
	}
	if got := rr.SDF(0, 0); math.Abs(got-(-1)) > 1e-12 {
		t.Errorf("SDF(0, 0) = %g, want -1", got)
	}
	if got := rr.SDF(3, 0); math.Abs(got-1) > 1e-12 {
		t.Errorf("SDF(3, 0) = %g, want 1", got)
	}
}

func TestRoundedRectNegativeRyReusesRx(t *testing.T) {
	a, _ := RoundedRect(0, 0, 6, 4, 1, -1, 0)
	b, _ := RoundedRect(0, 0, 6, 4, 1, 1, 0)
	pts := [][2]float64{{0, 0}, {3.5, 0}, {0, 2.5}, {3, 2}, {-2, -1}}
	for _, p := range pts {
		if got, want := a.SDF(p[0], p[1]), b.SDF(p[0], p[1]); got != want {
			t.Errorf("SDF(%g, %g) = %g, want %g", p[0], p[1], got, want)
		}
	}
}

func TestContains(t *testing.T) {
	c, _ := Circle(0, 0, 5)
	tests := []struct {
		name string
		x, y float64
		want bool
	}{
		{"inside", 0, 0, true},
		{"on boundary", 5, 0, true},
		{"outside", 6, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Contains(c, tt.x, tt.y); got != tt.want {
				t.Errorf("Contains(%g, %g) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestShapeValidation(t *testing.T) {
	tests := []struct {
		name string
		make func() (Shape, error)
	}{
		{"circle zero radius", func() (Shape, error) { return Circle(0, 0, 0) }},
		{"circle negative radius", func() (Shape, error) { return Circle(0, 0, -2) }},
		{"rect zero width", func() (Shape, error) { return Rect(0, 0, 0, 2, 0) }},
		{"rect negative height", func() (Shape, error) { return Rect(0, 0, 4, -2, 0) }},
		{"rounded rect zero width", func() (Shape, error) { return RoundedRect(0, 0, 0, 2, 1, 1, 0) }},
		{"rounded rect negative rx", func() (Shape, error) { return RoundedRect(0, 0, 4, 2, -1, 1, 0) }},
		{"ellipse zero a", func() (Shape, error) { return Ellipse(0, 0, 0, 2, 0) }},
		{"ellipse negative b", func() (Shape, error) { return Ellipse(0, 0, 4, -2, 0) }},
		{"cassini zero a", func() (Shape, error) { return CassiniOval(0, 0, 0, 1, 0) }},
		{"cassini negative c", func() (Shape, error) { return CassiniOval(0, 0, 1, -1, 0) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := tt.make()
			if err == nil {
				t.Fatal("constructor error = nil, want error")
			}
			if !errors.Is(err, ErrInvalidShape) {
				t.Errorf("constructor error = %v, want ErrInvalidShape", err)
			}
			if s != nil {
				t.Errorf("constructor returned shape %v alongside error", s)
			}
		})
	}
}
