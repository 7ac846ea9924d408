// Package formats converts terrain grids to and from game map file formats.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/Faultbox/midgard-terrain/pkg/grid"
)

// GAT format errors.
var (
	ErrInvalidGATMagic       = errors.New("invalid GAT magic: expected 'GRAT'")
	ErrUnsupportedGATVersion = errors.New("unsupported GAT version")
	ErrTruncatedGATData      = errors.New("truncated GAT data")
)

const (
	gatMagic      = "GRAT"
	gatHeaderSize = 14
	gatCellSize   = 20
	gatMaxSide    = 4096
)

// GATVersion represents the GAT file version.
type GATVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v GATVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// DefaultGATVersion is written by Bytes.
var DefaultGATVersion = GATVersion{Major: 1, Minor: 2}

// GATCellType represents the walkability type of a cell.
type GATCellType uint32

// Cell type constants.
const (
	GATWalkable      GATCellType = 0 // Normal walkable ground
	GATBlocked       GATCellType = 1 // Cannot walk through
	GATWater         GATCellType = 2 // Deep water
	GATWalkableWater GATCellType = 3 // Shallow water
	GATSnipeable     GATCellType = 4 // Cliff: shoot over, no walking
	GATBlockedSnipe  GATCellType = 5 // Blocked but can shoot over
)

// String returns a human-readable cell type name.
func (t GATCellType) String() string {
	switch t {
	case GATWalkable:
		return "Walkable"
	case GATBlocked:
		return "Blocked"
	case GATWater:
		return "Water"
	case GATWalkableWater:
		return "Walkable+Water"
	case GATSnipeable:
		return "Snipeable"
	case GATBlockedSnipe:
		return "Blocked+Snipe"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// IsWalkable returns true if the cell type allows walking.
func (t GATCellType) IsWalkable() bool {
	return t == GATWalkable || t == GATWalkableWater
}

// GATCell is one cell: four corner altitudes and a type.
// Altitudes grow downward, so higher ground is more negative.
type GATCell struct {
	// [0] = bottom-left, [1] = bottom-right, [2] = top-left, [3] = top-right
	Heights [4]float32
	Type    GATCellType
}

// AverageHeight returns the average altitude of all four corners.
func (c GATCell) AverageHeight() float32 {
	return (c.Heights[0] + c.Heights[1] + c.Heights[2] + c.Heights[3]) / 4.0
}

// GAT is a ground altitude table: a walkability grid with heights.
type GAT struct {
	Version GATVersion
	Width   uint32
	Height  uint32
	Cells   []GATCell
}

// BuildGAT combines a height grid and an obstruction grid. Height samples
// are scaled by stretchV and negated. blocked may be nil.
func BuildGAT(heights *grid.Grid[uint8], stretchV float32, blocked *grid.Grid[bool]) (*GAT, error) {
	if blocked != nil && !grid.SameSize(heights, blocked) {
		return nil, fmt.Errorf("%w: heights %dx%d, obstruction %dx%d", grid.ErrDimensionMismatch,
			heights.Width(), heights.Height(), blocked.Width(), blocked.Height())
	}
	if heights.Width() > gatMaxSide || heights.Height() > gatMaxSide {
		return nil, fmt.Errorf("%w: %dx%d exceeds GAT limits", grid.ErrDimensionMismatch, heights.Width(), heights.Height())
	}

	gat := &GAT{
		Version: DefaultGATVersion,
		Width:   uint32(heights.Width()),
		Height:  uint32(heights.Height()),
		Cells:   make([]GATCell, len(heights.Data())),
	}
	for i, h := range heights.Data() {
		alt := -float32(h) * stretchV
		cell := GATCell{Heights: [4]float32{alt, alt, alt, alt}, Type: GATWalkable}
		if blocked != nil && blocked.Data()[i] {
			cell.Type = GATBlocked
		}
		gat.Cells[i] = cell
	}
	return gat, nil
}

// GetCell returns the cell at the given coordinates, or nil if out of bounds.
func (g *GAT) GetCell(x, y int) *GATCell {
	if x < 0 || y < 0 || x >= int(g.Width) || y >= int(g.Height) {
		return nil
	}
	return &g.Cells[y*int(g.Width)+x]
}

// Blocked returns an obstruction grid: true where the cell is not walkable.
func (g *GAT) Blocked() *grid.Grid[bool] {
	out := grid.MustNew[bool](int(g.Width), int(g.Height))
	for i, cell := range g.Cells {
		out.Data()[i] = !cell.Type.IsWalkable()
	}
	return out
}

// HeightGrid converts average altitudes back to 8-bit samples, rounding and
// clamping to [0, 255].
func (g *GAT) HeightGrid(stretchV float32) (*grid.Grid[uint8], error) {
	if stretchV <= 0 {
		return nil, fmt.Errorf("invalid vertical stretch %g", stretchV)
	}
	out := grid.MustNew[uint8](int(g.Width), int(g.Height))
	for i, cell := range g.Cells {
		v := math.Round(float64(-cell.AverageHeight() / stretchV))
		out.Data()[i] = uint8(math.Min(math.Max(v, 0), 255))
	}
	return out, nil
}

// CountByType returns the count of cells for each type.
func (g *GAT) CountByType() map[GATCellType]int {
	counts := make(map[GATCellType]int)
	for _, cell := range g.Cells {
		counts[cell.Type]++
	}
	return counts
}

// WriteTo encodes the table in GAT format.
func (g *GAT) WriteTo(w io.Writer) (int64, error) {
	buf := bytes.NewBuffer(make([]byte, 0, gatHeaderSize+gatCellSize*len(g.Cells)))
	buf.WriteString(gatMagic)
	// Version is stored as [minor, major]
	buf.WriteByte(g.Version.Minor)
	buf.WriteByte(g.Version.Major)
	_ = binary.Write(buf, binary.LittleEndian, g.Width)
	_ = binary.Write(buf, binary.LittleEndian, g.Height)
	_ = binary.Write(buf, binary.LittleEndian, g.Cells)
	return buf.WriteTo(w)
}

// Bytes encodes the table in GAT format.
func (g *GAT) Bytes() []byte {
	var buf bytes.Buffer
	_, _ = g.WriteTo(&buf)
	return buf.Bytes()
}

// ParseGAT parses a GAT file from raw bytes.
func ParseGAT(data []byte) (*GAT, error) {
	if len(data) < gatHeaderSize {
		return nil, ErrTruncatedGATData
	}
	if string(data[0:4]) != gatMagic {
		return nil, ErrInvalidGATMagic
	}

	version := GATVersion{Major: data[5], Minor: data[4]}
	// Cell layout is identical for 1.x through 3.x.
	if version.Major < 1 || version.Major > 3 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGATVersion, version)
	}

	width := binary.LittleEndian.Uint32(data[6:10])
	height := binary.LittleEndian.Uint32(data[10:14])
	if width == 0 || height == 0 || width > gatMaxSide || height > gatMaxSide {
		return nil, fmt.Errorf("invalid GAT dimensions: %dx%d", width, height)
	}

	cellCount := int(width * height)
	body := data[gatHeaderSize:]
	if len(body) < cellCount*gatCellSize {
		return nil, fmt.Errorf("%w: %d cells need %d bytes, have %d",
			ErrTruncatedGATData, cellCount, cellCount*gatCellSize, len(body))
	}

	gat := &GAT{
		Version: version,
		Width:   width,
		Height:  height,
		Cells:   make([]GATCell, cellCount),
	}
	if err := binary.Read(bytes.NewReader(body), binary.LittleEndian, gat.Cells); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncatedGATData, err)
	}
	return gat, nil
}

// ParseGATFile parses a GAT file from disk.
func ParseGATFile(path string) (*GAT, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading GAT file: %w", err)
	}
	return ParseGAT(data)
}

// WriteGATFile writes g to path.
func WriteGATFile(path string, g *GAT) error {
	return os.WriteFile(path, g.Bytes(), 0644)
}
