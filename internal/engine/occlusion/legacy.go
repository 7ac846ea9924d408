package occlusion

import (
	"fmt"

	"github.com/Faultbox/midgard-terrain/internal/engine/task"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/pkg/grid"
)

// LightAngles holds the legacy rise/set maps, indexed [x][y] like the input.
type LightAngles struct {
	Rise [][]uint8
	Set  [][]uint8
}

// ComputeLegacy prepares a task that builds separate rise and set maps from
// a column-major height matrix. Unlike Compute it checks cancellation on
// every worker and reports progress only once the maps are finished.
func ComputeLegacy(heights [][]uint8, extent terrain.Extent, workers int) (*task.Task[LightAngles], error) {
	if err := extent.Validate(); err != nil {
		return nil, err
	}
	if len(heights) != extent.Width {
		return nil, fmt.Errorf("%w: height matrix has %d columns, extent is %d wide",
			grid.ErrDimensionMismatch, len(heights), extent.Width)
	}
	for x, col := range heights {
		if len(col) != extent.Height {
			return nil, fmt.Errorf("%w: column %d has %d cells, extent is %d tall",
				grid.ErrDimensionMismatch, x, len(col), extent.Height)
		}
	}

	runner := rowRunner{
		rows:        extent.Height,
		width:       extent.Width,
		workers:     workerCount(workers, extent.Height),
		checkCancel: true,
	}
	rise := riseSweep(extent.StretchH, extent.StretchV)
	set := setSweep(extent.StretchH, extent.StretchV)

	return task.New("light-angles", int64(extent.Cells()), func(tok *task.Token, progress *task.Progress) (LightAngles, error) {
		out := LightAngles{
			Rise: makeMatrix(extent.Width, extent.Height),
			Set:  makeMatrix(extent.Width, extent.Height),
		}
		err := runner.run(tok, progress, func(y int) {
			row := make([]uint8, extent.Width)
			for x := range row {
				row[x] = heights[x][y]
			}
			for x1 := range row {
				// East of x1 only; the self pair is skipped.
				out.Rise[x1][y] = rise.scan(row, x1, x1+1, len(row))
				out.Set[x1][y] = set.scan(row, x1, 0, x1)
			}
		})
		if err != nil {
			return LightAngles{}, err
		}
		progress.Add(int64(extent.Cells()))
		return out, nil
	}), nil
}

func makeMatrix(width, height int) [][]uint8 {
	backing := make([]uint8, width*height)
	m := make([][]uint8, width)
	for x := range m {
		m[x] = backing[x*height : (x+1)*height : (x+1)*height]
	}
	return m
}
