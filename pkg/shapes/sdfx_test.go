package shapes

import (
	"math"
	"testing"

	"github.com/deadsy/sdfx/sdf"
)

func TestFromSDF2Circle(t *testing.T) {
	s2d, err := sdf.Circle2D(5)
	if err != nil {
		t.Fatalf("sdf.Circle2D() error = %v", err)
	}
	bridged := FromSDF2(s2d)
	native, _ := Circle(0, 0, 5)
	pts := [][2]float64{{0, 0}, {5, 0}, {3, 4}, {8, 0}, {-1, -2}, {0, 6}}
	for _, p := range pts {
		got := bridged.SDF(p[0], p[1])
		want := native.SDF(p[0], p[1])
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("SDF(%g, %g) = %g, want %g", p[0], p[1], got, want)
		}
	}
}

func TestFromSDF2ComposesWithNativeOps(t *testing.T) {
	s2d, err := sdf.Circle2D(3)
	if err != nil {
		t.Fatalf("sdf.Circle2D() error = %v", err)
	}
	bridged := FromSDF2(s2d)
	box, _ := Rect(0, 0, 10, 1, 0)
	u := Union(bridged, box)
	if got := u.SDF(0, 0); got >= 0 {
		t.Errorf("SDF(0, 0) = %g, want negative", got)
	}
	if got := u.SDF(4.5, 0); got >= 0 {
		t.Errorf("SDF(4.5, 0) = %g, want negative (box arm)", got)
	}
	if got := u.SDF(0, 4); got <= 0 {
		t.Errorf("SDF(0, 4) = %g, want positive", got)
	}
}
