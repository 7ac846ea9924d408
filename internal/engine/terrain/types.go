// Package terrain provides height field access, terrain extents and editing brushes.
package terrain

import (
	"fmt"

	"github.com/Faultbox/midgard-terrain/pkg/grid"
)

// TextureScale is the ratio between height cells and texture cells.
const TextureScale = 3

// Extent describes a terrain's grid size and world scaling.
type Extent struct {
	Width    int     `yaml:"width"`     // Cells along X
	Height   int     `yaml:"height"`    // Cells along Y
	StretchH float32 `yaml:"stretch_h"` // World units per cell horizontally
	StretchV float32 `yaml:"stretch_v"` // World units per height step
}

// Validate checks that the extent can back a grid.
func (e Extent) Validate() error {
	if e.Width <= 0 || e.Height <= 0 {
		return fmt.Errorf("%w: extent %dx%d", grid.ErrDimensionMismatch, e.Width, e.Height)
	}
	if e.StretchH <= 0 || e.StretchV <= 0 {
		return fmt.Errorf("invalid stretch factors h=%g v=%g", e.StretchH, e.StretchV)
	}
	return nil
}

// Cells returns the number of cells covered.
func (e Extent) Cells() int {
	return e.Width * e.Height
}

// Matches reports whether g has the extent's dimensions.
func Matches[T any](e Extent, g *grid.Grid[T]) bool {
	return g != nil && g.Width() == e.Width && g.Height() == e.Height
}

// CheckGrid returns a dimension mismatch error unless g matches e.
func CheckGrid[T any](e Extent, g *grid.Grid[T], what string) error {
	if g == nil {
		return fmt.Errorf("%w: %s grid is nil", grid.ErrDimensionMismatch, what)
	}
	if !Matches(e, g) {
		return fmt.Errorf("%w: %s grid is %dx%d, extent is %dx%d",
			grid.ErrDimensionMismatch, what, g.Width(), g.Height(), e.Width, e.Height)
	}
	return nil
}

// TextureSize returns the dimensions of the texture index grid for e.
func (e Extent) TextureSize() (int, int) {
	return e.Width / TextureScale, e.Height / TextureScale
}

// CheckTextureGrid verifies a texture index grid against the height extent.
// The extent must be a multiple of TextureScale on both axes.
func CheckTextureGrid(e Extent, tex *grid.Grid[uint8]) error {
	if e.Width%TextureScale != 0 || e.Height%TextureScale != 0 {
		return fmt.Errorf("%w: extent %dx%d is not a multiple of %d",
			grid.ErrDimensionMismatch, e.Width, e.Height, TextureScale)
	}
	tw, th := e.TextureSize()
	if tex == nil || tex.Width() != tw || tex.Height() != th {
		return fmt.Errorf("%w: texture grid must be %dx%d", grid.ErrDimensionMismatch, tw, th)
	}
	return nil
}
