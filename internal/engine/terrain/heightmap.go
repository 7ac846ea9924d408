package terrain

import (
	"github.com/Faultbox/midgard-terrain/pkg/grid"
)

// HeightField pairs a height grid with its extent.
// The grid must not be written while an engine is reading it.
type HeightField struct {
	Grid   *grid.Grid[uint8]
	Extent Extent
}

// NewHeightField validates that g matches the extent.
func NewHeightField(g *grid.Grid[uint8], extent Extent) (*HeightField, error) {
	if err := extent.Validate(); err != nil {
		return nil, err
	}
	if err := CheckGrid(extent, g, "height"); err != nil {
		return nil, err
	}
	return &HeightField{Grid: g, Extent: extent}, nil
}

// At returns the raw height sample at (x, y), edge-replicated.
func (h *HeightField) At(x, y int) uint8 {
	return h.Grid.Clamped(x, y)
}

// WorldHeight returns the height at (x, y) in world units.
func (h *HeightField) WorldHeight(x, y int) float32 {
	return float32(h.Grid.Clamped(x, y)) * h.Extent.StretchV
}

// Sample returns the bilinearly interpolated world height at a world position.
// Positions outside the field are clamped to its border.
func (h *HeightField) Sample(worldX, worldY float32) float32 {
	cellFX := worldX / h.Extent.StretchH
	cellFY := worldY / h.Extent.StretchH

	cellX := int(cellFX)
	cellY := int(cellFY)
	if cellFX < 0 {
		cellX = 0
	}
	if cellFY < 0 {
		cellY = 0
	}

	fracX := clampf(cellFX-float32(cellX), 0, 1)
	fracY := clampf(cellFY-float32(cellY), 0, 1)

	h00 := float32(h.Grid.Clamped(cellX, cellY))
	h10 := float32(h.Grid.Clamped(cellX+1, cellY))
	h01 := float32(h.Grid.Clamped(cellX, cellY+1))
	h11 := float32(h.Grid.Clamped(cellX+1, cellY+1))

	near := h00*(1-fracX) + h10*fracX
	far := h01*(1-fracX) + h11*fracX
	return (near*(1-fracY) + far*fracY) * h.Extent.StretchV
}

// Range returns the lowest and highest raw samples.
func (h *HeightField) Range() (lo, hi uint8) {
	data := h.Grid.Data()
	lo, hi = data[0], data[0]
	for _, v := range data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func clampf(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
