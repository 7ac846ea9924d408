package terrain

import (
	"math"

	"github.com/Faultbox/midgard-terrain/pkg/grid"
)

// Brush scopes terrain edits. Coordinates are brush-local: the brush covers
// [0, Size) on both axes and cell centers sit at +0.5.
type Brush struct {
	Size     int  `yaml:"size"`
	IsCircle bool `yaml:"circle"`
}

// Contains reports whether the local cell (x, y) is inside the brush.
func (b Brush) Contains(x, y int) bool {
	if b.Size <= 0 {
		return false
	}
	if b.IsCircle {
		r := float64(b.Size) / 2
		dx := float64(x) + 0.5 - r
		dy := float64(y) + 0.5 - r
		return dx*dx+dy*dy < r*r
	}
	return x >= 0 && y >= 0 && x < b.Size && y < b.Size
}

// Factor returns the edit weight of local cell (x, y), from 1 at the
// center to 0 at the edge.
func (b Brush) Factor(x, y int) float64 {
	if b.Size <= 0 {
		return 0
	}
	half := float64(b.Size) / 2
	dx := float64(x) + 0.5 - half
	dy := float64(y) + 0.5 - half

	if b.IsCircle {
		d := math.Sqrt(dx*dx+dy*dy) / half
		if d >= 1 {
			return 0
		}
		return 0.5 + 0.5*math.Cos(math.Pi*d)
	}

	// Square: flat out to half of the half-size, then a cosine taper.
	t := math.Max(math.Abs(dx), math.Abs(dy)) / (half / 2)
	switch {
	case t <= 1:
		return 1
	case t >= 2:
		return 0
	default:
		return 0.5 + 0.5*math.Cos(math.Pi*(t-1))
	}
}

// Stamp raises heights under the brush by delta weighted by Factor. The
// brush's local origin sits at (originX, originY). Results are rounded and
// clamped to [0, 255]; cells outside g are skipped. It returns the number of
// cells whose value changed.
func (b Brush) Stamp(g *grid.Grid[uint8], originX, originY int, delta float64) int {
	changed := 0
	for y := 0; y < b.Size; y++ {
		for x := 0; x < b.Size; x++ {
			gx, gy := originX+x, originY+y
			if !g.InBounds(gx, gy) || !b.Contains(x, y) {
				continue
			}
			row := g.Row(gy)
			v := math.Round(float64(row[gx]) + delta*b.Factor(x, y))
			v = math.Min(math.Max(v, 0), 255)
			if uint8(v) != row[gx] {
				row[gx] = uint8(v)
				changed++
			}
		}
	}
	return changed
}
