package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Faultbox/midgard-terrain/pkg/grid"
)

// createTestGAT creates a minimal valid GAT file for testing.
func createTestGAT(width, height uint32, cellTypes []GATCellType) []byte {
	buf := new(bytes.Buffer)

	buf.WriteString("GRAT")
	buf.WriteByte(2) // minor
	buf.WriteByte(1) // major

	binary.Write(buf, binary.LittleEndian, width)
	binary.Write(buf, binary.LittleEndian, height)

	cellCount := int(width * height)
	for i := 0; i < cellCount; i++ {
		for j := 0; j < 4; j++ {
			binary.Write(buf, binary.LittleEndian, float32(-float32(i)))
		}
		cellType := GATWalkable
		if i < len(cellTypes) {
			cellType = cellTypes[i]
		}
		binary.Write(buf, binary.LittleEndian, uint32(cellType))
	}

	return buf.Bytes()
}

func TestParseGAT_ValidFile(t *testing.T) {
	gat, err := ParseGAT(createTestGAT(4, 3, nil))
	if err != nil {
		t.Fatalf("ParseGAT failed: %v", err)
	}
	if gat.Version != (GATVersion{Major: 1, Minor: 2}) {
		t.Errorf("expected version 1.2, got %s", gat.Version)
	}
	if gat.Width != 4 || gat.Height != 3 {
		t.Errorf("expected 4x3, got %dx%d", gat.Width, gat.Height)
	}
	if len(gat.Cells) != 12 {
		t.Errorf("expected 12 cells, got %d", len(gat.Cells))
	}
	if h := gat.GetCell(1, 2).AverageHeight(); h != -9 {
		t.Errorf("expected cell 9 altitude -9, got %f", h)
	}
}

func TestParseGAT_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"truncated header", []byte("GRAT"), ErrTruncatedGATData},
		{"bad magic", []byte("XXXX\x02\x01\x04\x00\x00\x00\x04\x00\x00\x00"), ErrInvalidGATMagic},
		{"bad version", []byte("GRAT\x00\x09\x01\x00\x00\x00\x01\x00\x00\x00"), ErrUnsupportedGATVersion},
		{"truncated cells", createTestGAT(4, 4, nil)[:40], ErrTruncatedGATData},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseGAT(tc.data)
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestGATCellType_IsWalkable(t *testing.T) {
	tests := []struct {
		cellType GATCellType
		expected bool
	}{
		{GATWalkable, true},
		{GATBlocked, false},
		{GATWater, false},
		{GATWalkableWater, true},
		{GATSnipeable, false},
		{GATBlockedSnipe, false},
	}

	for _, tc := range tests {
		if tc.cellType.IsWalkable() != tc.expected {
			t.Errorf("%v.IsWalkable() = %v, expected %v", tc.cellType, tc.cellType.IsWalkable(), tc.expected)
		}
	}
}

func TestGATCellType_String(t *testing.T) {
	if GATWalkableWater.String() != "Walkable+Water" {
		t.Errorf("unexpected name %q", GATWalkableWater.String())
	}
	if GATCellType(99).String() != "Unknown(99)" {
		t.Errorf("unexpected name %q", GATCellType(99).String())
	}
}

func TestGAT_GetCell(t *testing.T) {
	gat, _ := ParseGAT(createTestGAT(4, 4, nil))

	if gat.GetCell(2, 3) == nil {
		t.Error("GetCell(2, 3) returned nil for valid coordinates")
	}
	for _, c := range [][2]int{{-1, 0}, {0, -1}, {4, 0}, {0, 4}} {
		if gat.GetCell(c[0], c[1]) != nil {
			t.Errorf("GetCell(%d, %d) should return nil", c[0], c[1])
		}
	}
}

func TestBuildGAT_RoundTrip(t *testing.T) {
	heights, _ := grid.FromData(3, 2, []uint8{0, 10, 255, 7, 8, 9})
	blocked := grid.MustNew[bool](3, 2)
	_ = blocked.Set(1, 0, true)
	_ = blocked.Set(2, 1, true)

	gat, err := BuildGAT(heights, 2.5, blocked)
	if err != nil {
		t.Fatalf("BuildGAT failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "map.gat")
	if err := WriteGATFile(path, gat); err != nil {
		t.Fatalf("WriteGATFile failed: %v", err)
	}
	parsed, err := ParseGATFile(path)
	if err != nil {
		t.Fatalf("ParseGATFile failed: %v", err)
	}

	if parsed.Version != DefaultGATVersion {
		t.Errorf("expected version %s, got %s", DefaultGATVersion, parsed.Version)
	}
	if !grid.Equal(blocked, parsed.Blocked()) {
		t.Error("expected obstruction to survive the round trip")
	}
	gotHeights, err := parsed.HeightGrid(2.5)
	if err != nil {
		t.Fatalf("HeightGrid failed: %v", err)
	}
	if !grid.Equal(heights, gotHeights) {
		t.Errorf("expected heights to survive the round trip, got %v", gotHeights.Data())
	}

	counts := parsed.CountByType()
	if counts[GATBlocked] != 2 || counts[GATWalkable] != 4 {
		t.Errorf("unexpected type counts: %v", counts)
	}
	if alt := parsed.GetCell(2, 0).Heights[3]; alt != -637.5 {
		t.Errorf("expected altitude -637.5, got %f", alt)
	}
}

func TestBuildGAT_DimensionMismatch(t *testing.T) {
	heights := grid.MustNew[uint8](3, 2)
	blocked := grid.MustNew[bool](2, 3)
	if _, err := BuildGAT(heights, 1, blocked); !errors.Is(err, grid.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestHeightGrid_Clamps(t *testing.T) {
	gat := &GAT{
		Width:  2,
		Height: 1,
		Cells: []GATCell{
			{Heights: [4]float32{10, 10, 10, 10}},         // below ground
			{Heights: [4]float32{-900, -900, -900, -900}}, // above 255
		},
	}
	g, err := gat.HeightGrid(1)
	if err != nil {
		t.Fatalf("HeightGrid failed: %v", err)
	}
	if g.Data()[0] != 0 || g.Data()[1] != 255 {
		t.Errorf("expected clamped samples [0 255], got %v", g.Data())
	}
	if _, err := gat.HeightGrid(0); err == nil {
		t.Error("expected error for zero stretch")
	}
}
