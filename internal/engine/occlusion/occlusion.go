// Package occlusion precomputes, for every terrain cell, the vertical angle
// interval in which an east-to-west light is not blocked by the cell's row.
package occlusion

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/task"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/pkg/grid"
)

// Reserved is written to the two unused channels of every interval.
const Reserved = 255

// Interval is one occlusion cell: (rise, set, 255, 255).
type Interval [4]uint8

// NewInterval packs rise and set bytes.
func NewInterval(rise, set uint8) Interval {
	return Interval{rise, set, Reserved, Reserved}
}

// Rise is the encoded minimum angle a rising light must clear.
func (c Interval) Rise() uint8 { return c[0] }

// Set is the encoded maximum angle a setting light may reach.
func (c Interval) Set() uint8 { return c[1] }

// Lit reports whether a light at sunAngle radians (0 = east horizon,
// π = west horizon) reaches the cell.
func (c Interval) Lit(sunAngle float64) bool {
	return sunAngle >= DecodeRise(c.Rise()) && sunAngle <= DecodeSet(c.Set())
}

// Codec stores interval grids as RGBA rasters: R=rise, G=set, B=A=255.
type Codec = grid.RGBACodec[Interval]

// CancelPolicy controls when row workers observe cancellation.
type CancelPolicy string

const (
	// CancelSingleWorker honors cancellation only when one worker runs.
	CancelSingleWorker CancelPolicy = "single-worker"
	// CancelAlways honors cancellation on every worker.
	CancelAlways CancelPolicy = "always"
)

// ParseCancelPolicy validates a policy name. Empty selects CancelSingleWorker.
func ParseCancelPolicy(s string) (CancelPolicy, error) {
	switch CancelPolicy(s) {
	case "", CancelSingleWorker:
		return CancelSingleWorker, nil
	case CancelAlways:
		return CancelAlways, nil
	default:
		return "", fmt.Errorf("unknown cancel policy %q", s)
	}
}

// Options tunes the engine.
type Options struct {
	Workers int          // <= 0 uses GOMAXPROCS
	Cancel  CancelPolicy // empty means CancelSingleWorker
}

// Map is the result of an occlusion run.
type Map struct {
	Intervals *grid.Grid[Interval]
	// Inclination is carried for consumers that re-sample the height field
	// per light direction. The sweep itself only measures east/west.
	Inclination float64
}

// Lit reports whether the cell at (x, y) sees a light at sunAngle.
// Out-of-range cells are never lit.
func (m *Map) Lit(x, y int, sunAngle float64) bool {
	c, err := m.Intervals.Get(x, y)
	if err != nil {
		return false
	}
	return c.Lit(sunAngle)
}

// LitMask evaluates Lit for every cell. A negative sunAngle lights nothing.
func (m *Map) LitMask(sunAngle float64) *grid.Grid[bool] {
	out := grid.MustNew[bool](m.Intervals.Width(), m.Intervals.Height())
	if sunAngle < 0 {
		return out
	}
	lit := out.Data()
	for i, c := range m.Intervals.Data() {
		lit[i] = c.Lit(sunAngle)
	}
	return out
}

// Compute prepares a pending task that builds the occlusion map of heights.
func Compute(heights *grid.Grid[uint8], extent terrain.Extent, inclination float64, opts Options) (*task.Task[*Map], error) {
	hf, err := terrain.NewHeightField(heights, extent)
	if err != nil {
		return nil, err
	}
	policy, err := ParseCancelPolicy(string(opts.Cancel))
	if err != nil {
		return nil, err
	}

	runner := rowRunner{
		rows:       extent.Height,
		width:      extent.Width,
		workers:    workerCount(opts.Workers, extent.Height),
		reportRows: true,
	}
	runner.checkCancel = runner.workers == 1 || policy == CancelAlways

	log := logger.Named("occlusion")
	log.Debug("occlusion task prepared",
		zap.Int("width", extent.Width),
		zap.Int("height", extent.Height),
		zap.Int("workers", runner.workers),
		zap.Bool("cancelable", runner.checkCancel),
		zap.Float64("inclination", inclination))

	rise := riseSweep(extent.StretchH, extent.StretchV)
	set := setSweep(extent.StretchH, extent.StretchV)

	return task.New("occlusion", int64(extent.Cells()), func(tok *task.Token, progress *task.Progress) (*Map, error) {
		out := grid.MustNew[Interval](extent.Width, extent.Height)
		err := runner.run(tok, progress, func(y int) {
			row := hf.Grid.Row(y)
			dst := out.Row(y)
			for x1 := range row {
				dst[x1] = NewInterval(
					rise.scan(row, x1, x1, len(row)),
					set.scan(row, x1, 0, x1),
				)
			}
		})
		if err != nil {
			return nil, err
		}
		return &Map{Intervals: out, Inclination: inclination}, nil
	}), nil
}
