package lighting

import (
	"math"
	"testing"
)

func TestSunDirection(t *testing.T) {
	dir := SunDirection(90, 0)
	if math.Abs(dir[0]-1) > 1e-9 || math.Abs(dir[1]) > 1e-9 || math.Abs(dir[2]) > 1e-9 {
		t.Errorf("expected east unit vector, got %v", dir)
	}

	dir = SunDirection(0, 90)
	if math.Abs(dir[1]-1) > 1e-9 {
		t.Errorf("expected overhead vector, got %v", dir)
	}
}

func TestSweepAngle(t *testing.T) {
	tests := []struct {
		name     string
		lon, lat float64
		expected float64
	}{
		{"east horizon", 90, 0, 0},
		{"east 30", 90, 30, math.Pi / 6},
		{"overhead", 45, 90, math.Pi / 2},
		{"west 30", 270, 30, math.Pi - math.Pi/6},
		{"below horizon", 90, -10, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SweepAngle(tt.lon, tt.lat)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("SweepAngle(%g, %g) = %g, expected %g", tt.lon, tt.lat, got, tt.expected)
			}
		})
	}
}
