// Package obstruction builds the boolean traversability grid handed to the
// pathfinder from terrain slope, water depth and static entity footprints.
package obstruction

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/pkg/grid"
)

// Grid marks blocked cells with true.
type Grid = grid.Grid[bool]

// slopeNeighbors are the offsets compared by the slope check. The set is
// asymmetric (NE and SW but not NW and SE) and must stay that way.
var slopeNeighbors = [6][2]int{
	{1, 0},
	{0, 1},
	{1, 1},
	{0, -1},
	{-1, -1},
	{-1, 0},
}

// WaterArea is an axis-aligned body of water in world units.
type WaterArea struct {
	Position         [2]float32 `yaml:"position"`
	Size             [2]float32 `yaml:"size"`
	Height           float32    `yaml:"height"`
	TraversableDepth float32    `yaml:"traversable_depth"`
}

// Footprint is an entity's collision shape in world units.
type Footprint interface {
	Collides(x, y float32) bool
}

// Bounded footprints limit the cells tested to their bounding box.
type Bounded interface {
	Bounds() (minX, minY, maxX, maxY float32)
}

// Entity is a world object that may block movement.
type Entity struct {
	Name        string
	HasMovement bool
	Footprint   Footprint
}

// Static reports whether the entity blocks the cells under it.
func (e Entity) Static() bool {
	return !e.HasMovement && e.Footprint != nil
}

// Params configures Build.
type Params struct {
	MaxSlope float32 // Largest traversable height step, world units
	Water    []WaterArea
	Entities []Entity
}

// Stats counts the cells each predicate marked. A cell can count for several.
type Stats struct {
	Slope   int
	Water   int
	Entity  int
	Blocked int
}

// Build evaluates all predicates over the height field.
func Build(heights *grid.Grid[uint8], extent terrain.Extent, params Params) (*Grid, Stats, error) {
	hf, err := terrain.NewHeightField(heights, extent)
	if err != nil {
		return nil, Stats{}, err
	}
	if params.MaxSlope < 0 {
		return nil, Stats{}, fmt.Errorf("negative max slope %g", params.MaxSlope)
	}

	out := grid.MustNew[bool](extent.Width, extent.Height)
	var stats Stats
	stats.Slope = markSlopes(out, hf, params.MaxSlope)
	for _, w := range params.Water {
		stats.Water += markWater(out, hf, w)
	}
	for _, e := range params.Entities {
		if e.Static() {
			stats.Entity += markFootprint(out, extent, e.Footprint)
		}
	}
	stats.Blocked = Count(out)

	logger.Named("obstruction").Debug("obstruction grid built",
		zap.Int("width", extent.Width),
		zap.Int("height", extent.Height),
		zap.Int("slope", stats.Slope),
		zap.Int("water", stats.Water),
		zap.Int("entity", stats.Entity),
		zap.Int("blocked", stats.Blocked))

	return out, stats, nil
}

func markSlopes(out *Grid, hf *terrain.HeightField, maxSlope float32) int {
	marked := 0
	for y := 0; y < out.Height(); y++ {
		row := out.Row(y)
		for x := range row {
			h := hf.WorldHeight(x, y)
			for _, d := range slopeNeighbors {
				diff := float32(math.Abs(float64(hf.WorldHeight(x+d[0], y+d[1]) - h)))
				if diff > maxSlope {
					row[x] = true
					marked++
					break
				}
			}
		}
	}
	return marked
}

func markWater(out *Grid, hf *terrain.HeightField, w WaterArea) int {
	x0, x1 := cellSpan(w.Position[0], w.Size[0], hf.Extent.StretchH, out.Width())
	y0, y1 := cellSpan(w.Position[1], w.Size[1], hf.Extent.StretchH, out.Height())
	limit := w.Height - w.TraversableDepth

	marked := 0
	for y := y0; y < y1; y++ {
		row := out.Row(y)
		for x := x0; x < x1; x++ {
			if hf.WorldHeight(x, y) < limit {
				row[x] = true
				marked++
			}
		}
	}
	return marked
}

func markFootprint(out *Grid, extent terrain.Extent, fp Footprint) int {
	x0, x1, y0, y1 := 0, out.Width(), 0, out.Height()
	if b, ok := fp.(Bounded); ok {
		minX, minY, maxX, maxY := b.Bounds()
		x0, x1 = cellSpan(minX, maxX-minX, extent.StretchH, out.Width())
		y0, y1 = cellSpan(minY, maxY-minY, extent.StretchH, out.Height())
	}

	marked := 0
	for y := y0; y < y1; y++ {
		row := out.Row(y)
		cy := (float32(y) + 0.5) * extent.StretchH
		for x := x0; x < x1; x++ {
			cx := (float32(x) + 0.5) * extent.StretchH
			if fp.Collides(cx, cy) {
				row[x] = true
				marked++
			}
		}
	}
	return marked
}

// cellSpan converts a world interval to a clipped half-open cell range.
func cellSpan(pos, size, stretch float32, limit int) (int, int) {
	lo := int(math.Floor(float64(pos / stretch)))
	hi := int(math.Ceil(float64((pos + size) / stretch)))
	return max(lo, 0), min(hi, limit)
}

// Count returns the number of blocked cells.
func Count(g *Grid) int {
	n := 0
	for _, blocked := range g.Data() {
		if blocked {
			n++
		}
	}
	return n
}

// Mask converts g to a grayscale image grid: 255 blocked, 0 open.
func Mask(g *Grid) *grid.Grid[uint8] {
	m := grid.MustNew[uint8](g.Width(), g.Height())
	for i, blocked := range g.Data() {
		if blocked {
			m.Data()[i] = 255
		}
	}
	return m
}

// FromMask treats any nonzero sample as blocked.
func FromMask(m *grid.Grid[uint8]) *Grid {
	g := grid.MustNew[bool](m.Width(), m.Height())
	for i, v := range m.Data() {
		g.Data()[i] = v != 0
	}
	return g
}
