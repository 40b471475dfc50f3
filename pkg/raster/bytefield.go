package raster

// ByteField is a dense row-major byte array over a grid. Solid masks hold
// 0 for fluid and 1 for solid; cell type fields hold arbitrary codes.
type ByteField struct {
	Nx, Ny int
	Data   []uint8
}

// NewByteField returns a zeroed nx by ny field.
func NewByteField(nx, ny int) *ByteField {
	return &ByteField{Nx: nx, Ny: ny, Data: make([]uint8, nx*ny)}
}

// At returns the value at column ix, row iy.
func (f *ByteField) At(ix, iy int) uint8 { return f.Data[iy*f.Nx+ix] }

// Set stores v at column ix, row iy.
func (f *ByteField) Set(ix, iy int, v uint8) { f.Data[iy*f.Nx+ix] = v }

// Fill sets every cell to v.
func (f *ByteField) Fill(v uint8) {
	for i := range f.Data {
		f.Data[i] = v
	}
}

// Count returns the number of cells holding v.
func (f *ByteField) Count(v uint8) int {
	n := 0
	for _, b := range f.Data {
		if b == v {
			n++
		}
	}
	return n
}
