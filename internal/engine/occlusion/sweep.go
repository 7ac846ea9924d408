package occlusion

import (
	"fmt"
	"math"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/midgard-terrain/internal/engine/task"
)

const halfPi = math.Pi / 2

// encoder maps a vertical angle in radians to a byte.
type encoder func(angle float64) uint8

// reducer folds a new pair byte into the running value.
type reducer func(acc, v uint8) uint8

// PairAngle is the elevation angle from a cell of height from toward a cell
// of height to, dx cells away. Lower targets cast no shadow and count as
// flat. A zero distance yields 0.
func PairAngle(from, to uint8, dx int, stretchH, stretchV float32) float64 {
	if dx == 0 {
		return 0
	}
	dh := int(to) - int(from)
	if dh < 0 {
		dh = 0
	}
	return math.Atan2(float64(dh)*float64(stretchV), float64(dx)*float64(stretchH))
}

// EncodeRise maps [0, π/2] to [0, 255].
func EncodeRise(angle float64) uint8 {
	return toByte(angle / halfPi * 255)
}

// EncodeSet maps [π/2, π] to [0, 255].
func EncodeSet(angle float64) uint8 {
	angle = math.Min(math.Max(angle, halfPi), math.Pi)
	return toByte((angle/halfPi - 1) * 255)
}

// DecodeRise is the inverse of EncodeRise up to truncation.
func DecodeRise(b uint8) float64 {
	return float64(b) / 255 * halfPi
}

// DecodeSet is the inverse of EncodeSet up to truncation.
func DecodeSet(b uint8) float64 {
	return (float64(b)/255 + 1) * halfPi
}

func toByte(v float64) uint8 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

func maxByte(acc, v uint8) uint8 { return max(acc, v) }

func minByte(acc, v uint8) uint8 { return min(acc, v) }

// sweep is one direction of the row scan: an angle encoding, a combine
// rule and the neutral start value.
type sweep struct {
	stretchH float32
	stretchV float32
	encode   encoder
	combine  reducer
	neutral  uint8
}

func riseSweep(stretchH, stretchV float32) sweep {
	return sweep{stretchH: stretchH, stretchV: stretchV, encode: EncodeRise, combine: maxByte, neutral: 0}
}

func setSweep(stretchH, stretchV float32) sweep {
	return sweep{stretchH: stretchH, stretchV: stretchV, encode: EncodeSet, combine: minByte, neutral: 255}
}

// scan folds the pair bytes between x1 and every x2 in [from, to).
func (s sweep) scan(row []uint8, x1, from, to int) uint8 {
	acc := s.neutral
	h := row[x1]
	for x2 := from; x2 < to; x2++ {
		acc = s.combine(acc, s.encode(PairAngle(h, row[x2], x2-x1, s.stretchH, s.stretchV)))
	}
	return acc
}

// rowRunner hands rows to workers and tracks progress.
type rowRunner struct {
	rows        int
	width       int
	workers     int
	checkCancel bool
	reportRows  bool
}

func workerCount(requested, rows int) int {
	n := requested
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	if n > rows {
		n = rows
	}
	if n < 1 {
		n = 1
	}
	return n
}

// run calls fn for every row exactly once, unless canceled. Rows are claimed
// dynamically; each row is written only by the worker that claimed it.
func (r rowRunner) run(tok *task.Token, progress *task.Progress, fn func(y int)) error {
	var next atomic.Int64
	var g errgroup.Group

	for w := 0; w < r.workers; w++ {
		g.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					err = fmt.Errorf("row worker panic: %v", p)
				}
			}()
			for {
				if r.checkCancel && tok.Canceled() {
					return task.ErrCanceled
				}
				y := int(next.Add(1) - 1)
				if y >= r.rows {
					return nil
				}
				fn(y)
				if r.reportRows {
					progress.Add(int64(r.width))
				}
			}
		})
	}
	return g.Wait()
}
