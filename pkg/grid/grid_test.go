package grid

import (
	"errors"
	"testing"
)

func TestNew_InvalidDimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"zero width", 0, 4},
		{"zero height", 4, 0},
		{"negative", -1, 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New[uint8](tc.width, tc.height)
			if !errors.Is(err, ErrDimensionMismatch) {
				t.Errorf("expected ErrDimensionMismatch, got %v", err)
			}
		})
	}
}

func TestNew_ZeroFilled(t *testing.T) {
	g := MustNew[uint8](3, 2)
	for i, v := range g.Data() {
		if v != 0 {
			t.Errorf("cell %d: expected 0, got %d", i, v)
		}
	}
}

func TestGetSet(t *testing.T) {
	g := MustNew[uint8](4, 3)

	if err := g.Set(3, 2, 42); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	v, err := g.Get(3, 2)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v != 42 {
		t.Errorf("expected 42, got %d", v)
	}

	// Row-major layout
	if g.Data()[2*4+3] != 42 {
		t.Error("expected row-major storage")
	}
}

func TestGetSet_OutOfBounds(t *testing.T) {
	g := MustNew[uint8](4, 3)

	coords := [][2]int{{4, 0}, {0, 3}, {-1, 0}, {0, -1}, {10, 10}}
	for _, c := range coords {
		if _, err := g.Get(c[0], c[1]); !errors.Is(err, ErrIndex) {
			t.Errorf("Get(%d,%d): expected ErrIndex, got %v", c[0], c[1], err)
		}
		if err := g.Set(c[0], c[1], 1); !errors.Is(err, ErrIndex) {
			t.Errorf("Set(%d,%d): expected ErrIndex, got %v", c[0], c[1], err)
		}
	}
}

func TestClamped(t *testing.T) {
	g := MustNew[uint8](3, 3)
	for i := range g.Data() {
		g.Data()[i] = uint8(i)
	}

	tests := []struct {
		x, y int
		want uint8
	}{
		{-5, -5, 0},
		{1, 1, 4},
		{3, 0, 2},
		{0, 7, 6},
		{9, 9, 8},
	}

	for _, tc := range tests {
		if got := g.Clamped(tc.x, tc.y); got != tc.want {
			t.Errorf("Clamped(%d,%d) = %d, want %d", tc.x, tc.y, got, tc.want)
		}
	}
}

func TestFromData(t *testing.T) {
	data := []uint8{1, 2, 3, 4, 5, 6}
	g, err := FromData(3, 2, data)
	if err != nil {
		t.Fatalf("FromData failed: %v", err)
	}

	// No copy: writes through the grid are visible in data.
	_ = g.Set(0, 1, 99)
	if data[3] != 99 {
		t.Error("expected FromData to wrap the slice without copying")
	}

	if _, err := FromData(4, 2, data); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestFromColumns(t *testing.T) {
	cols := [][]uint8{
		{1, 2},
		{3, 4},
		{5, 6},
	}
	g, err := FromColumns(cols)
	if err != nil {
		t.Fatalf("FromColumns failed: %v", err)
	}
	if g.Width() != 3 || g.Height() != 2 {
		t.Fatalf("expected 3x2, got %dx%d", g.Width(), g.Height())
	}
	if v, _ := g.Get(2, 1); v != 6 {
		t.Errorf("expected (2,1)=6, got %d", v)
	}

	ragged := [][]uint8{{1, 2}, {3}}
	if _, err := FromColumns(ragged); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch for ragged matrix, got %v", err)
	}
}

func TestRowAliasesStorage(t *testing.T) {
	g := MustNew[uint8](4, 2)
	row := g.Row(1)
	row[2] = 7
	if v, _ := g.Get(2, 1); v != 7 {
		t.Errorf("expected row write to reach grid, got %d", v)
	}
	if len(row) != 4 || cap(row) != 4 {
		t.Errorf("expected row len/cap 4, got %d/%d", len(row), cap(row))
	}
}

func TestCloneAndEqual(t *testing.T) {
	g := MustNew[uint8](2, 2)
	g.Fill(5)
	c := g.Clone()
	if !Equal(g, c) {
		t.Fatal("expected clone to equal original")
	}
	_ = c.Set(0, 0, 1)
	if Equal(g, c) {
		t.Error("expected clone to be independent")
	}
	if Equal(g, MustNew[uint8](2, 3)) {
		t.Error("expected grids of different size to differ")
	}
}
