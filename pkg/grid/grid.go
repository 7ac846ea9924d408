// Package grid provides bounds-checked 2D storage and lossless raster codecs
// for terrain grids (height fields, occlusion intervals, texture indices).
package grid

import (
	"errors"
	"fmt"
)

// Grid errors.
var (
	ErrIndex             = errors.New("grid index out of range")
	ErrDimensionMismatch = errors.New("grid dimension mismatch")
	ErrPalette           = errors.New("color not in palette")
)

// Grid is a dense width x height matrix stored row-major.
type Grid[T any] struct {
	width  int
	height int
	cells  []T
}

// New allocates a zero-filled grid.
func New[T any](width, height int) (*Grid[T], error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensionMismatch, width, height)
	}
	return &Grid[T]{
		width:  width,
		height: height,
		cells:  make([]T, width*height),
	}, nil
}

// MustNew is like New but panics on invalid dimensions.
func MustNew[T any](width, height int) *Grid[T] {
	g, err := New[T](width, height)
	if err != nil {
		panic(err)
	}
	return g
}

// FromData wraps data without copying. Ownership of data moves to the grid.
func FromData[T any](width, height int, data []T) (*Grid[T], error) {
	if width <= 0 || height <= 0 || len(data) != width*height {
		return nil, fmt.Errorf("%w: %dx%d with %d cells", ErrDimensionMismatch, width, height, len(data))
	}
	return &Grid[T]{width: width, height: height, cells: data}, nil
}

// FromColumns copies a column-major [x][y] matrix into a new grid.
func FromColumns[T any](cols [][]T) (*Grid[T], error) {
	if len(cols) == 0 || len(cols[0]) == 0 {
		return nil, fmt.Errorf("%w: empty matrix", ErrDimensionMismatch)
	}
	g, err := New[T](len(cols), len(cols[0]))
	if err != nil {
		return nil, err
	}
	for x, col := range cols {
		if len(col) != g.height {
			return nil, fmt.Errorf("%w: column %d has %d cells, want %d", ErrDimensionMismatch, x, len(col), g.height)
		}
		for y, v := range col {
			g.cells[y*g.width+x] = v
		}
	}
	return g, nil
}

// Width returns the number of columns.
func (g *Grid[T]) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid[T]) Height() int { return g.height }

// Size returns width and height.
func (g *Grid[T]) Size() (int, int) { return g.width, g.height }

// Data returns the backing row-major slice.
func (g *Grid[T]) Data() []T { return g.cells }

// InBounds reports whether (x, y) addresses a cell.
func (g *Grid[T]) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.width && y < g.height
}

// Get returns the cell at (x, y).
func (g *Grid[T]) Get(x, y int) (T, error) {
	if !g.InBounds(x, y) {
		var zero T
		return zero, g.indexError(x, y)
	}
	return g.cells[y*g.width+x], nil
}

// Set stores v at (x, y).
func (g *Grid[T]) Set(x, y int, v T) error {
	if !g.InBounds(x, y) {
		return g.indexError(x, y)
	}
	g.cells[y*g.width+x] = v
	return nil
}

// Clamped reads the cell nearest to (x, y), replicating edge cells outward.
func (g *Grid[T]) Clamped(x, y int) T {
	x = clamp(x, 0, g.width-1)
	y = clamp(y, 0, g.height-1)
	return g.cells[y*g.width+x]
}

// Row returns the cells of row y. The slice aliases grid storage.
func (g *Grid[T]) Row(y int) []T {
	start := y * g.width
	return g.cells[start : start+g.width : start+g.width]
}

// Fill sets every cell to v.
func (g *Grid[T]) Fill(v T) {
	for i := range g.cells {
		g.cells[i] = v
	}
}

// Clone returns a deep copy.
func (g *Grid[T]) Clone() *Grid[T] {
	cells := make([]T, len(g.cells))
	copy(cells, g.cells)
	return &Grid[T]{width: g.width, height: g.height, cells: cells}
}

// SameSize reports whether both grids have identical dimensions.
func SameSize[A, B any](a *Grid[A], b *Grid[B]) bool {
	return a.width == b.width && a.height == b.height
}

// Equal reports whether two grids have the same size and cells.
func Equal[T comparable](a, b *Grid[T]) bool {
	if !SameSize(a, b) {
		return false
	}
	for i := range a.cells {
		if a.cells[i] != b.cells[i] {
			return false
		}
	}
	return true
}

func (g *Grid[T]) indexError(x, y int) error {
	return fmt.Errorf("%w: (%d,%d) outside %dx%d", ErrIndex, x, y, g.width, g.height)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
