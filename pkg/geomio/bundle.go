// Package geomio persists prepared geometry. A Bundle gathers everything a
// solver run consumes (grid, distance field, masks, link fractions, extra
// arrays, metadata) and round-trips through a single NetCDF classic file.
// The text exporter writes the same data as whitespace tables for solvers
// that ingest plain columns.
package geomio

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"

	"github.com/lbkit/lbprep/pkg/lattice"
	"github.com/lbkit/lbprep/pkg/raster"
)

// ErrBadBundle reports a bundle whose pieces disagree with each other or a
// file that does not hold one.
var ErrBadBundle = errors.New("geomio: bad bundle")

// bundleFormat marks files written by this package.
const bundleFormat = "lbprep-geometry-1"

// metaPrefix namespaces user metadata among the global attributes.
const metaPrefix = "meta_"

// Bundle is the full output of a preprocessing run. Phi has shape (Ny, Nx)
// and Bouzidi (Ny, Nx, 9); both are stored at float32 precision. CellTypes
// and Bouzidi may be nil. Extra holds additional float arrays of any shape
// under caller-chosen names, stored at full float64 precision; Meta holds
// free-form string metadata.
type Bundle struct {
	Grid      *lattice.Grid
	Phi       *sparse.DenseArray
	Solid     *raster.ByteField
	CellTypes *raster.ByteField
	Bouzidi   *sparse.DenseArray
	Extra     map[string]*sparse.DenseArray
	Meta      map[string]string
}

// Variable names claimed by the bundle layout itself.
var reservedVars = map[string]bool{
	"phi":        true,
	"solid":      true,
	"cell_types": true,
	"bouzidi":    true,
}

// Save writes the bundle to path as a NetCDF classic file. Float payloads
// round-trip exactly, NaN entries included; byte masks round-trip exactly
// for all 256 codes.
func Save(path string, b *Bundle) error {
	if err := validateBundle(b); err != nil {
		return err
	}
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("geomio: create %s: %w", path, err)
	}
	if err := writeBundle(fh, b); err != nil {
		fh.Close()
		return fmt.Errorf("geomio: write %s: %w", path, err)
	}
	return fh.Close()
}

func writeBundle(fh *os.File, b *Bundle) error {
	g := b.Grid

	dimNames := []string{"x", "y", "dir"}
	dimLens := []int{g.Nx, g.Ny, lattice.Q}
	extraNames := sortedKeys(b.Extra)
	extraDims := make(map[string][]string, len(extraNames))
	for _, name := range extraNames {
		shape := b.Extra[name].Shape
		switch {
		case len(shape) == 2 && shape[0] == g.Ny && shape[1] == g.Nx:
			extraDims[name] = []string{"y", "x"}
		case len(shape) == 3 && shape[0] == g.Ny && shape[1] == g.Nx && shape[2] == lattice.Q:
			extraDims[name] = []string{"y", "x", "dir"}
		default:
			dims := make([]string, len(shape))
			for k, n := range shape {
				dims[k] = fmt.Sprintf("%s_d%d", name, k)
				dimNames = append(dimNames, dims[k])
				dimLens = append(dimLens, n)
			}
			extraDims[name] = dims
		}
	}

	h := cdf.NewHeader(dimNames, dimLens)
	h.AddAttribute("", "format", bundleFormat)
	h.AddAttribute("", "nx", []int32{int32(g.Nx)})
	h.AddAttribute("", "ny", []int32{int32(g.Ny)})
	h.AddAttribute("", "dx", []float64{g.Dx})
	h.AddAttribute("", "x0", []float64{g.X0})
	h.AddAttribute("", "y0", []float64{g.Y0})

	metaKeys := sortedMetaKeys(b.Meta)
	if len(metaKeys) > 0 {
		h.AddAttribute("", "meta_keys", strings.Join(metaKeys, "\n"))
		for _, k := range metaKeys {
			h.AddAttribute("", metaPrefix+k, b.Meta[k])
		}
	}

	h.AddVariable("phi", []string{"y", "x"}, []float32{0})
	h.AddVariable("solid", []string{"y", "x"}, []uint8{0})
	if b.CellTypes != nil {
		h.AddVariable("cell_types", []string{"y", "x"}, []uint8{0})
	}
	if b.Bouzidi != nil {
		h.AddVariable("bouzidi", []string{"y", "x", "dir"}, []float32{0})
	}
	for _, name := range extraNames {
		h.AddVariable(name, extraDims[name], []float64{0})
	}
	h.Define()

	f, err := cdf.Create(fh, h)
	if err != nil {
		return err
	}
	if err := writeFloatVar(f, "phi", b.Phi.Elements); err != nil {
		return err
	}
	if err := writeByteVar(f, "solid", b.Solid.Data); err != nil {
		return err
	}
	if b.CellTypes != nil {
		if err := writeByteVar(f, "cell_types", b.CellTypes.Data); err != nil {
			return err
		}
	}
	if b.Bouzidi != nil {
		if err := writeFloatVar(f, "bouzidi", b.Bouzidi.Elements); err != nil {
			return err
		}
	}
	for _, name := range extraNames {
		if err := writeDoubleVar(f, name, b.Extra[name].Elements); err != nil {
			return err
		}
	}
	return cdf.UpdateNumRecs(fh)
}

// Load reads a bundle written by Save. Variables beyond the reserved layout
// come back in Extra.
func Load(path string) (*Bundle, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geomio: open %s: %w", path, err)
	}
	defer fh.Close()

	f, err := cdf.Open(fh)
	if err != nil {
		return nil, fmt.Errorf("geomio: open %s: %w", path, err)
	}
	if v, ok := f.Header.GetAttribute("", "format").(string); !ok || v != bundleFormat {
		return nil, fmt.Errorf("%w: %s is not an lbprep geometry file", ErrBadBundle, path)
	}

	nx, err := globalInt(f, "nx")
	if err != nil {
		return nil, err
	}
	ny, err := globalInt(f, "ny")
	if err != nil {
		return nil, err
	}
	dx, err := globalFloat(f, "dx")
	if err != nil {
		return nil, err
	}
	x0, err := globalFloat(f, "x0")
	if err != nil {
		return nil, err
	}
	y0, err := globalFloat(f, "y0")
	if err != nil {
		return nil, err
	}
	g, err := lattice.New(nx, ny, dx, x0, y0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadBundle, err)
	}

	b := &Bundle{Grid: g}
	vars := f.Header.Variables()
	for _, name := range []string{"phi", "solid"} {
		if !contains(vars, name) {
			return nil, fmt.Errorf("%w: missing %s variable", ErrBadBundle, name)
		}
	}

	if b.Phi, err = readFloatVar(f, "phi"); err != nil {
		return nil, err
	}
	if len(b.Phi.Shape) != 2 || b.Phi.Shape[0] != ny || b.Phi.Shape[1] != nx {
		return nil, fmt.Errorf("%w: phi shape %v does not match grid %dx%d", ErrBadBundle, b.Phi.Shape, ny, nx)
	}
	if b.Solid, err = readByteVar(f, "solid", nx, ny); err != nil {
		return nil, err
	}
	if contains(vars, "cell_types") {
		if b.CellTypes, err = readByteVar(f, "cell_types", nx, ny); err != nil {
			return nil, err
		}
	}
	if contains(vars, "bouzidi") {
		if b.Bouzidi, err = readFloatVar(f, "bouzidi"); err != nil {
			return nil, err
		}
	}

	for _, name := range vars {
		if reservedVars[name] {
			continue
		}
		arr, err := readDoubleVar(f, name)
		if err != nil {
			return nil, err
		}
		if b.Extra == nil {
			b.Extra = make(map[string]*sparse.DenseArray)
		}
		b.Extra[name] = arr
	}

	if keys, ok := f.Header.GetAttribute("", "meta_keys").(string); ok && keys != "" {
		b.Meta = make(map[string]string)
		for _, k := range strings.Split(keys, "\n") {
			if v, ok := f.Header.GetAttribute("", metaPrefix+k).(string); ok {
				b.Meta[k] = v
			}
		}
	}
	return b, nil
}

func validateBundle(b *Bundle) error {
	if b.Grid == nil {
		return fmt.Errorf("%w: nil grid", ErrBadBundle)
	}
	g := b.Grid
	if b.Phi == nil || len(b.Phi.Shape) != 2 || b.Phi.Shape[0] != g.Ny || b.Phi.Shape[1] != g.Nx {
		return fmt.Errorf("%w: phi must have shape (%d, %d)", ErrBadBundle, g.Ny, g.Nx)
	}
	if b.Solid == nil || b.Solid.Nx != g.Nx || b.Solid.Ny != g.Ny {
		return fmt.Errorf("%w: solid must be %dx%d", ErrBadBundle, g.Nx, g.Ny)
	}
	if b.CellTypes != nil && (b.CellTypes.Nx != g.Nx || b.CellTypes.Ny != g.Ny) {
		return fmt.Errorf("%w: cell types must be %dx%d", ErrBadBundle, g.Nx, g.Ny)
	}
	if b.Bouzidi != nil {
		s := b.Bouzidi.Shape
		if len(s) != 3 || s[0] != g.Ny || s[1] != g.Nx || s[2] != lattice.Q {
			return fmt.Errorf("%w: bouzidi must have shape (%d, %d, %d)", ErrBadBundle, g.Ny, g.Nx, lattice.Q)
		}
	}
	for name, arr := range b.Extra {
		if reservedVars[name] {
			return fmt.Errorf("%w: extra name %q is reserved", ErrBadBundle, name)
		}
		if arr == nil || len(arr.Shape) == 0 {
			return fmt.Errorf("%w: extra %q has no shape", ErrBadBundle, name)
		}
	}
	return nil
}

func writeFloatVar(f *cdf.File, name string, els []float64) error {
	data := make([]float32, len(els))
	for i, e := range els {
		data[i] = float32(e)
	}
	end := f.Header.Lengths(name)
	start := make([]int, len(end))
	w := f.Writer(name, start, end)
	_, err := w.Write(data)
	return err
}

func writeDoubleVar(f *cdf.File, name string, els []float64) error {
	end := f.Header.Lengths(name)
	start := make([]int, len(end))
	w := f.Writer(name, start, end)
	_, err := w.Write(els)
	return err
}

func writeByteVar(f *cdf.File, name string, data []uint8) error {
	signed := make([]uint8, len(data))
	for i, v := range data {
		signed[i] = uint8(v)
	}
	end := f.Header.Lengths(name)
	start := make([]int, len(end))
	w := f.Writer(name, start, end)
	_, err := w.Write(signed)
	return err
}

func readFloatVar(f *cdf.File, name string) (*sparse.DenseArray, error) {
	dims := f.Header.Lengths(name)
	arr := sparse.ZerosDense(dims...)
	tmp := make([]float32, len(arr.Elements))
	r := f.Reader(name, nil, nil)
	if _, err := r.Read(tmp); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrBadBundle, name, err)
	}
	for i, v := range tmp {
		arr.Elements[i] = float64(v)
	}
	return arr, nil
}

func readDoubleVar(f *cdf.File, name string) (*sparse.DenseArray, error) {
	dims := f.Header.Lengths(name)
	arr := sparse.ZerosDense(dims...)
	r := f.Reader(name, nil, nil)
	if _, err := r.Read(arr.Elements); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrBadBundle, name, err)
	}
	return arr, nil
}

func readByteVar(f *cdf.File, name string, nx, ny int) (*raster.ByteField, error) {
	dims := f.Header.Lengths(name)
	if len(dims) != 2 || dims[0] != ny || dims[1] != nx {
		return nil, fmt.Errorf("%w: %s shape %v does not match grid %dx%d", ErrBadBundle, name, dims, ny, nx)
	}
	tmp := make([]uint8, nx*ny)
	r := f.Reader(name, nil, nil)
	if _, err := r.Read(tmp); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrBadBundle, name, err)
	}
	field := raster.NewByteField(nx, ny)
	for i, v := range tmp {
		field.Data[i] = uint8(v)
	}
	return field, nil
}

func globalInt(f *cdf.File, name string) (int, error) {
	v, ok := f.Header.GetAttribute("", name).([]int32)
	if !ok || len(v) == 0 {
		return 0, fmt.Errorf("%w: missing %s attribute", ErrBadBundle, name)
	}
	return int(v[0]), nil
}

func globalFloat(f *cdf.File, name string) (float64, error) {
	v, ok := f.Header.GetAttribute("", name).([]float64)
	if !ok || len(v) == 0 {
		return 0, fmt.Errorf("%w: missing %s attribute", ErrBadBundle, name)
	}
	return v[0], nil
}

func sortedKeys(m map[string]*sparse.DenseArray) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedMetaKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
