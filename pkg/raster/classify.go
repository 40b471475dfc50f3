package raster

// Default cell type codes written by ClassifyCells.
const (
	Fluid    uint8 = 0
	NearWall uint8 = 1
	Wall     uint8 = 2
)

// ClassifyOption overrides a cell type code.
type ClassifyOption func(*classifyConfig)

type classifyConfig struct {
	fluid, nearWall, wall uint8
}

// WithFluidCode sets the code written to interior fluid cells.
func WithFluidCode(c uint8) ClassifyOption {
	return func(cfg *classifyConfig) { cfg.fluid = c }
}

// WithNearWallCode sets the code written to fluid cells touching a solid.
func WithNearWallCode(c uint8) ClassifyOption {
	return func(cfg *classifyConfig) { cfg.nearWall = c }
}

// WithWallCode sets the code written to solid cells.
func WithWallCode(c uint8) ClassifyOption {
	return func(cfg *classifyConfig) { cfg.wall = c }
}

// ClassifyCells labels every cell of the mask: solid cells get the wall code,
// fluid cells with at least one solid 8-neighbor the near-wall code, and the
// rest the fluid code. The neighborhood clips at domain edges; there is no
// wraparound.
func ClassifyCells(solid *ByteField, opts ...ClassifyOption) *ByteField {
	cfg := classifyConfig{fluid: Fluid, nearWall: NearWall, wall: Wall}
	for _, opt := range opts {
		opt(&cfg)
	}

	types := NewByteField(solid.Nx, solid.Ny)
	for iy := 0; iy < solid.Ny; iy++ {
		for ix := 0; ix < solid.Nx; ix++ {
			switch {
			case solid.At(ix, iy) != 0:
				types.Set(ix, iy, cfg.wall)
			case hasSolidNeighbor(solid, ix, iy):
				types.Set(ix, iy, cfg.nearWall)
			default:
				types.Set(ix, iy, cfg.fluid)
			}
		}
	}
	return types
}

func hasSolidNeighbor(solid *ByteField, ix, iy int) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := ix+dx, iy+dy
			if nx < 0 || nx >= solid.Nx || ny < 0 || ny >= solid.Ny {
				continue
			}
			if solid.At(nx, ny) != 0 {
				return true
			}
		}
	}
	return false
}
