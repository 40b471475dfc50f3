package geomio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"

	"github.com/lbkit/lbprep/pkg/bouzidi"
	"github.com/lbkit/lbprep/pkg/lattice"
	"github.com/lbkit/lbprep/pkg/raster"
	"github.com/lbkit/lbprep/pkg/shapes"
)

func mustGrid(t *testing.T, nx, ny int, dx, x0, y0 float64) *lattice.Grid {
	t.Helper()
	g, err := lattice.New(nx, ny, dx, x0, y0)
	if err != nil {
		t.Fatalf("New(%d, %d, %g, %g, %g) failed: %v", nx, ny, dx, x0, y0, err)
	}
	return g
}

// pipelineBundle runs the real preprocessing chain on a small circle so the
// persisted arrays carry the same float32-quantized values and NaN holes a
// production bundle would.
func pipelineBundle(t *testing.T) *Bundle {
	t.Helper()
	g := mustGrid(t, 16, 12, 1, 0, 0)
	c, err := shapes.Circle(8, 6, 4)
	if err != nil {
		t.Fatalf("Circle() failed: %v", err)
	}
	phi, solid := raster.Rasterize(g, c, 0)
	types := raster.ClassifyCells(solid)
	q, err := bouzidi.Compute(g, phi, solid)
	if err != nil {
		t.Fatalf("Compute() failed: %v", err)
	}

	density := sparse.ZerosDense(g.Ny, g.Nx)
	for i := range density.Elements {
		density.Elements[i] = 0.5
	}
	// Extras keep float64 precision, so a value with no exact float32
	// representation must survive unchanged.
	weights := sparse.ZerosDense(3, 4)
	weights.Elements[0] = -2.25
	weights.Elements[2] = math.Pi
	weights.Elements[5] = 1.5
	weights.Elements[11] = math.NaN()

	return &Bundle{
		Grid:      g,
		Phi:       phi,
		Solid:     solid,
		CellTypes: types,
		Bouzidi:   q,
		Extra: map[string]*sparse.DenseArray{
			"density": density,
			"weights": weights,
		},
		Meta: map[string]string{
			"case":    "cylinder",
			"version": "0.3",
		},
	}
}

// sameElements compares float arrays treating NaN as equal to NaN.
func sameElements(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.IsNaN(a[i]) != math.IsNaN(b[i]) {
			return false
		}
		if !math.IsNaN(a[i]) && a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSaveLoadRoundTrip(t *testing.T) {
	b := pipelineBundle(t)
	// Force a code outside int8 range to check the byte reinterpretation.
	b.CellTypes.Set(0, 0, 255)

	path := filepath.Join(t.TempDir(), "geometry.nc")
	if err := Save(path, b); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if *got.Grid != *b.Grid {
		t.Errorf("Grid = %+v, want %+v", *got.Grid, *b.Grid)
	}
	if !sameElements(got.Phi.Elements, b.Phi.Elements) {
		t.Error("phi did not round-trip exactly")
	}
	if !sameElements(got.Bouzidi.Elements, b.Bouzidi.Elements) {
		t.Error("bouzidi did not round-trip exactly")
	}
	for i, v := range b.Solid.Data {
		if got.Solid.Data[i] != v {
			t.Fatalf("solid[%d] = %d, want %d", i, got.Solid.Data[i], v)
		}
	}
	for i, v := range b.CellTypes.Data {
		if got.CellTypes.Data[i] != v {
			t.Fatalf("cell_types[%d] = %d, want %d", i, got.CellTypes.Data[i], v)
		}
	}
	if got.CellTypes.At(0, 0) != 255 {
		t.Errorf("cell_types[0,0] = %d, want 255", got.CellTypes.At(0, 0))
	}

	if len(got.Extra) != 2 {
		t.Fatalf("len(Extra) = %d, want 2", len(got.Extra))
	}
	for name, want := range b.Extra {
		arr, ok := got.Extra[name]
		if !ok {
			t.Fatalf("extra %q missing after load", name)
		}
		if len(arr.Shape) != len(want.Shape) {
			t.Fatalf("extra %q shape %v, want %v", name, arr.Shape, want.Shape)
		}
		for k := range want.Shape {
			if arr.Shape[k] != want.Shape[k] {
				t.Fatalf("extra %q shape %v, want %v", name, arr.Shape, want.Shape)
			}
		}
		if !sameElements(arr.Elements, want.Elements) {
			t.Errorf("extra %q did not round-trip", name)
		}
	}

	if len(got.Meta) != 2 || got.Meta["case"] != "cylinder" || got.Meta["version"] != "0.3" {
		t.Errorf("Meta = %v, want %v", got.Meta, b.Meta)
	}
}

func TestSaveMinimalBundle(t *testing.T) {
	g := mustGrid(t, 4, 3, 0.5, -1, 2)
	phi := sparse.ZerosDense(g.Ny, g.Nx)
	for i := range phi.Elements {
		phi.Elements[i] = float64(float32(0.1 * float64(i)))
	}
	solid := raster.NewByteField(g.Nx, g.Ny)
	solid.Set(1, 1, 1)

	path := filepath.Join(t.TempDir(), "minimal.nc")
	if err := Save(path, &Bundle{Grid: g, Phi: phi, Solid: solid}); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got.CellTypes != nil || got.Bouzidi != nil {
		t.Error("optional variables materialized from a minimal file")
	}
	if got.Extra != nil || got.Meta != nil {
		t.Errorf("Extra = %v, Meta = %v, want both nil", got.Extra, got.Meta)
	}
	if !sameElements(got.Phi.Elements, phi.Elements) {
		t.Error("phi did not round-trip exactly")
	}
	if got.Solid.At(1, 1) != 1 || got.Solid.Count(1) != 1 {
		t.Error("solid mask did not round-trip")
	}
}

func TestSaveValidation(t *testing.T) {
	g := mustGrid(t, 4, 3, 1, 0, 0)
	phi := sparse.ZerosDense(g.Ny, g.Nx)
	solid := raster.NewByteField(g.Nx, g.Ny)

	tests := []struct {
		name   string
		bundle *Bundle
	}{
		{"nil grid", &Bundle{Phi: phi, Solid: solid}},
		{"nil phi", &Bundle{Grid: g, Solid: solid}},
		{"phi shape", &Bundle{Grid: g, Phi: sparse.ZerosDense(g.Nx, g.Ny), Solid: solid}},
		{"nil solid", &Bundle{Grid: g, Phi: phi}},
		{"solid shape", &Bundle{Grid: g, Phi: phi, Solid: raster.NewByteField(2, 2)}},
		{"bouzidi shape", &Bundle{Grid: g, Phi: phi, Solid: solid, Bouzidi: sparse.ZerosDense(g.Ny, g.Nx)}},
		{"reserved extra", &Bundle{Grid: g, Phi: phi, Solid: solid,
			Extra: map[string]*sparse.DenseArray{"phi": sparse.ZerosDense(2)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Save(filepath.Join(t.TempDir(), "bad.nc"), tt.bundle)
			if !errors.Is(err, ErrBadBundle) {
				t.Errorf("Save() error = %v, want ErrBadBundle", err)
			}
		})
	}
}

func TestLoadRejectsJunk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.nc")
	if err := os.WriteFile(path, []byte("not a netcdf file"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() accepted a non-NetCDF file")
	}
}

func TestLoadRejectsForeignNetCDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foreign.nc")
	fh, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	h := cdf.NewHeader([]string{"n"}, []int{3})
	h.AddVariable("junk", []string{"n"}, []float32{0})
	h.Define()
	f, err := cdf.Create(fh, h)
	if err != nil {
		t.Fatal(err)
	}
	end := f.Header.Lengths("junk")
	start := make([]int, len(end))
	w := f.Writer("junk", start, end)
	if _, err := w.Write([]float32{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if err := cdf.UpdateNumRecs(fh); err != nil {
		t.Fatal(err)
	}
	if err := fh.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); !errors.Is(err, ErrBadBundle) {
		t.Errorf("Load() error = %v, want ErrBadBundle", err)
	}
}
