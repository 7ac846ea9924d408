// terrashade computes occlusion and obstruction maps from terrain height rasters.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/config"
	"github.com/Faultbox/midgard-terrain/internal/engine/lighting"
	"github.com/Faultbox/midgard-terrain/internal/engine/obstruction"
	"github.com/Faultbox/midgard-terrain/internal/engine/occlusion"
	"github.com/Faultbox/midgard-terrain/internal/engine/task"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/game/world"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/pkg/formats"
	"github.com/Faultbox/midgard-terrain/pkg/grid"
)

func main() {
	config.ParseFlags()

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	command := args[0]
	args = args[1:]

	switch command {
	case "occlusion":
		err = cmdOcclusion(ctx, cfg, args)
	case "lightangles":
		err = cmdLightAngles(ctx, cfg, args)
	case "shade":
		err = cmdShade(cfg, args)
	case "obstruct":
		err = cmdObstruct(cfg, args)
	case "route":
		err = cmdRoute(cfg, args)
	case "sculpt":
		err = cmdSculpt(cfg, args)
	case "texture":
		err = cmdTexture(cfg, args)
	case "info":
		err = cmdInfo(cfg, args)
	case "config":
		err = cmdConfig(cfg, args)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Error(command+" failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`terrashade - terrain occlusion and obstruction tool

Usage:
  terrashade [flags] <command> [args]

Commands:
  occlusion <heights> <out>                 Packed rise/set occlusion map (RGBA)
  lightangles <heights> <rise> <set>        Separate rise and set maps (gray)
  shade <occlusion> <lon> <lat> <out>       Lit mask for a sun position (degrees)
  obstruct <heights> <out> [out.gat]        Obstruction mask, optional GAT export
  route <heights|map.gat> <x0> <y0> <x1> <y1>  Find a walkable path
  sculpt [-circle] <heights> <x> <y> <size> <delta> <out>  Raise or lower with a brush
  texture <textures> <heights>              Check a texture index raster
  info <heights|map.gat>                    Show terrain statistics
  config [path]                             Write the effective config (default: user config dir)

Flags:
  -config <path>          Config file (default ./terrashade.yaml)
  -workers <n>            Row workers, 0 = all CPUs
  -cancel-policy <name>   single-worker or always
  -stretch-h, -stretch-v  World scaling
  -max-slope <v>          Largest traversable height step
  -format <png|bmp>       Output container when <out> has no extension
  -debug, -log-file

Examples:
  terrashade occlusion prontera.png prontera_shade
  terrashade -max-slope 4 obstruct prontera.png blocked.png prontera.gat
  terrashade route prontera.gat 10 10 120 80`)
}

func cmdOcclusion(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: terrashade occlusion <heights> <out>")
	}

	heights, extent, err := loadHeights(cfg, args[0])
	if err != nil {
		return err
	}

	t, err := occlusion.Compute(heights, extent, cfg.Occlusion.Inclination, occlusion.Options{
		Workers: cfg.Occlusion.Workers,
		Cancel:  occlusion.CancelPolicy(cfg.Occlusion.CancelPolicy),
	})
	if err != nil {
		return err
	}

	m, err := runWithProgress(ctx, t)
	if err != nil {
		return err
	}

	out := outputPath(args[1], cfg.Output.Format)
	if err := grid.SaveFile(out, m.Intervals, occlusion.Codec{}); err != nil {
		return err
	}
	logger.Info("occlusion map written", zap.String("path", out))
	return nil
}

func cmdLightAngles(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 3 {
		return errors.New("usage: terrashade lightangles <heights> <rise> <set>")
	}

	heights, extent, err := loadHeights(cfg, args[0])
	if err != nil {
		return err
	}

	t, err := occlusion.ComputeLegacy(columns(heights), extent, cfg.Occlusion.Workers)
	if err != nil {
		return err
	}

	angles, err := runWithProgress(ctx, t)
	if err != nil {
		return err
	}

	outputs := []struct {
		path string
		data [][]uint8
	}{
		{outputPath(args[1], cfg.Output.Format), angles.Rise},
		{outputPath(args[2], cfg.Output.Format), angles.Set},
	}
	for _, o := range outputs {
		g, err := grid.FromColumns(o.data)
		if err != nil {
			return err
		}
		if err := grid.SaveFile(o.path, g, grid.GrayCodec[uint8]{}); err != nil {
			return err
		}
		logger.Info("light angle map written", zap.String("path", o.path))
	}
	return nil
}

func cmdShade(cfg *config.Config, args []string) error {
	if len(args) < 4 {
		return errors.New("usage: terrashade shade <occlusion> <longitude> <latitude> <out>")
	}

	lon, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid longitude %q: %w", args[1], err)
	}
	lat, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("invalid latitude %q: %w", args[2], err)
	}

	intervals, err := grid.LoadFile(args[0], occlusion.Codec{})
	if err != nil {
		return err
	}
	m := &occlusion.Map{Intervals: intervals, Inclination: cfg.Occlusion.Inclination}

	angle := lighting.SweepAngle(lon, lat)
	mask := m.LitMask(angle)
	lit := obstruction.Count(mask)

	out := outputPath(args[3], cfg.Output.Format)
	if err := grid.SaveFile(out, obstruction.Mask(mask), grid.GrayCodec[uint8]{}); err != nil {
		return err
	}
	fmt.Printf("Sun angle: %.3f rad, lit: %d of %d cells\n", angle, lit, len(mask.Data()))
	return nil
}

func cmdObstruct(cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: terrashade obstruct <heights> <out> [out.gat]")
	}

	heights, extent, err := loadHeights(cfg, args[0])
	if err != nil {
		return err
	}

	blocked, stats, err := buildObstruction(cfg, heights, extent)
	if err != nil {
		return err
	}

	out := outputPath(args[1], cfg.Output.Format)
	if err := grid.SaveFile(out, obstruction.Mask(blocked), grid.GrayCodec[uint8]{}); err != nil {
		return err
	}
	fmt.Printf("Blocked: %d of %d cells (slope %d, water %d, entities %d)\n",
		stats.Blocked, extent.Cells(), stats.Slope, stats.Water, stats.Entity)

	if len(args) > 2 {
		gat, err := formats.BuildGAT(heights, extent.StretchV, blocked)
		if err != nil {
			return err
		}
		if err := formats.WriteGATFile(args[2], gat); err != nil {
			return err
		}
		logger.Info("GAT written", zap.String("path", args[2]))
	}
	return nil
}

func cmdRoute(cfg *config.Config, args []string) error {
	if len(args) < 5 {
		return errors.New("usage: terrashade route <heights|map.gat> <x0> <y0> <x1> <y1>")
	}

	coords := make([]int, 4)
	for i, s := range args[1:5] {
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid coordinate %q: %w", s, err)
		}
		coords[i] = v
	}

	hf, blocked, err := loadTerrain(cfg, args[0])
	if err != nil {
		return err
	}

	pf := world.NewPathFinder(blocked)
	start := world.Point{X: coords[0], Y: coords[1]}
	goal := world.Point{X: coords[2], Y: coords[3]}
	path := pf.FindPath(start, goal)
	if path == nil {
		fmt.Printf("No path from %v to %v (%d cells reachable from start)\n", start, goal, pf.Reachable(start))
		return nil
	}

	// Heights are sampled halfway along each step to catch ridges between cells.
	sh := hf.Extent.StretchH
	var climb, prev float32
	fmt.Printf("Path: %d steps\n", len(path)-1)
	for i, p := range path {
		h := hf.WorldHeight(p.X, p.Y)
		if i > 0 {
			q := path[i-1]
			mid := hf.Sample(float32(p.X+q.X)*sh/2, float32(p.Y+q.Y)*sh/2)
			climb += max(mid-prev, 0) + max(h-mid, 0)
		}
		prev = h
		fmt.Printf("  %d,%d  h=%.1f\n", p.X, p.Y, h)
	}
	fmt.Printf("Climb: %.1f\n", climb)
	return nil
}

func cmdSculpt(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("sculpt", flag.ExitOnError)
	circle := fs.Bool("circle", false, "Use a circular brush")
	fs.Parse(args)

	if fs.NArg() < 6 {
		return errors.New("usage: terrashade sculpt [-circle] <heights> <x> <y> <size> <delta> <out>")
	}

	nums := make([]int, 3)
	for i, s := range fs.Args()[1:4] {
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", s, err)
		}
		nums[i] = v
	}
	delta, err := strconv.ParseFloat(fs.Arg(4), 64)
	if err != nil {
		return fmt.Errorf("invalid delta %q: %w", fs.Arg(4), err)
	}

	heights, _, err := loadHeights(cfg, fs.Arg(0))
	if err != nil {
		return err
	}

	brush := terrain.Brush{Size: nums[2], IsCircle: *circle}
	// Center the brush on (x, y).
	changed := brush.Stamp(heights, nums[0]-brush.Size/2, nums[1]-brush.Size/2, delta)

	out := outputPath(fs.Arg(5), cfg.Output.Format)
	if err := grid.SaveFile(out, heights, grid.GrayCodec[uint8]{}); err != nil {
		return err
	}
	fmt.Printf("Changed: %d cells\n", changed)
	return nil
}

func cmdTexture(cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: terrashade texture <textures> <heights>")
	}

	tex, err := grid.LoadFile(args[0], grid.NibbleCodec[uint8]{})
	if err != nil {
		return err
	}
	_, extent, err := loadHeights(cfg, args[1])
	if err != nil {
		return err
	}
	if err := terrain.CheckTextureGrid(extent, tex); err != nil {
		return err
	}

	used := make([]int, len(grid.TexturePalette))
	for _, v := range tex.Data() {
		used[v]++
	}
	fmt.Printf("Textures: %dx%d\n", tex.Width(), tex.Height())
	for i, n := range used {
		if n > 0 {
			fmt.Printf("  %-3d %d\n", i, n)
		}
	}
	return nil
}

func cmdInfo(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: terrashade info <heights|map.gat>")
	}

	if isGAT(args[0]) {
		gat, err := formats.ParseGATFile(args[0])
		if err != nil {
			return err
		}
		heights, err := gat.HeightGrid(cfg.Terrain.StretchV)
		if err != nil {
			return err
		}
		lo, hi := (&terrain.HeightField{Grid: heights}).Range()
		fmt.Printf("GAT:     %s (version %s)\n", args[0], gat.Version)
		fmt.Printf("Size:    %dx%d\n", gat.Width, gat.Height)
		fmt.Printf("Range:   %d..%d (stretch_v %g)\n", lo, hi, cfg.Terrain.StretchV)
		fmt.Println("Cells by type:")
		for typ, count := range gat.CountByType() {
			fmt.Printf("  %-15s %d\n", typ, count)
		}
		return nil
	}

	heights, extent, err := loadHeights(cfg, args[0])
	if err != nil {
		return err
	}
	hf, err := terrain.NewHeightField(heights, extent)
	if err != nil {
		return err
	}
	lo, hi := hf.Range()
	blocked, stats, err := buildObstruction(cfg, heights, extent)
	if err != nil {
		return err
	}

	fmt.Printf("Heights: %s\n", args[0])
	fmt.Printf("Size:    %dx%d\n", extent.Width, extent.Height)
	fmt.Printf("Range:   %d..%d (%.1f..%.1f world)\n", lo, hi,
		float32(lo)*extent.StretchV, float32(hi)*extent.StretchV)
	fmt.Printf("Blocked: %d (slope %d, water %d, entities %d)\n",
		stats.Blocked, stats.Slope, stats.Water, stats.Entity)
	if extent.Cells() > 0 {
		center := world.Point{X: extent.Width / 2, Y: extent.Height / 2}
		fmt.Printf("Reachable from center: %d\n", world.NewPathFinder(blocked).Reachable(center))
	}
	return nil
}

func cmdConfig(cfg *config.Config, args []string) error {
	if len(args) == 0 {
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Printf("Config written: %s\n", config.UserPath())
		return nil
	}

	if err := cfg.SaveTo(args[0]); err != nil {
		return err
	}
	fmt.Printf("Config written: %s\n", args[0])
	return nil
}

// loadHeights reads a gray height raster and pairs it with the configured scaling.
func loadHeights(cfg *config.Config, path string) (*grid.Grid[uint8], terrain.Extent, error) {
	heights, err := grid.LoadFile(path, grid.GrayCodec[uint8]{})
	if err != nil {
		return nil, terrain.Extent{}, err
	}
	extent := terrain.Extent{
		Width:    heights.Width(),
		Height:   heights.Height(),
		StretchH: cfg.Terrain.StretchH,
		StretchV: cfg.Terrain.StretchV,
	}
	return heights, extent, nil
}

func buildObstruction(cfg *config.Config, heights *grid.Grid[uint8], extent terrain.Extent) (*obstruction.Grid, obstruction.Stats, error) {
	return obstruction.Build(heights, extent, obstruction.Params{
		MaxSlope: cfg.Obstruction.MaxSlope,
		Water:    cfg.Obstruction.Water,
		Entities: cfg.Entities(),
	})
}

// loadTerrain reads heights and walkability from a GAT file, or reads a
// height raster and derives walkability from the configured obstruction.
func loadTerrain(cfg *config.Config, path string) (*terrain.HeightField, *obstruction.Grid, error) {
	if isGAT(path) {
		gat, err := formats.ParseGATFile(path)
		if err != nil {
			return nil, nil, err
		}
		heights, err := gat.HeightGrid(cfg.Terrain.StretchV)
		if err != nil {
			return nil, nil, err
		}
		hf, err := terrain.NewHeightField(heights, terrain.Extent{
			Width:    heights.Width(),
			Height:   heights.Height(),
			StretchH: cfg.Terrain.StretchH,
			StretchV: cfg.Terrain.StretchV,
		})
		if err != nil {
			return nil, nil, err
		}
		return hf, gat.Blocked(), nil
	}

	heights, extent, err := loadHeights(cfg, path)
	if err != nil {
		return nil, nil, err
	}
	hf, err := terrain.NewHeightField(heights, extent)
	if err != nil {
		return nil, nil, err
	}
	blocked, _, err := buildObstruction(cfg, heights, extent)
	return hf, blocked, err
}

// runWithProgress runs t, printing percentage to stderr until it finishes.
func runWithProgress[T any](ctx context.Context, t *task.Task[T]) (T, error) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if total := t.Total(); total > 0 {
					fmt.Fprintf(os.Stderr, "\r%s: %3d%%", t.Name(), t.Progress()*100/total)
				}
			}
		}
	}()

	start := time.Now()
	result, err := t.Run(ctx)
	close(done)
	fmt.Fprintf(os.Stderr, "\r%s: %s\n", t.Name(), t.State())

	logger.Debug("task done",
		zap.String("task", t.Name()),
		zap.Duration("elapsed", time.Since(start)))
	return result, err
}

// columns converts a row-major grid to an [x][y] matrix.
func columns(g *grid.Grid[uint8]) [][]uint8 {
	out := make([][]uint8, g.Width())
	for x := range out {
		out[x] = make([]uint8, g.Height())
		for y := range out[x] {
			out[x][y] = g.Clamped(x, y)
		}
	}
	return out
}

// outputPath appends the configured format when path has no extension.
func outputPath(path, format string) string {
	if filepath.Ext(path) != "" {
		return path
	}
	return path + "." + format
}

func isGAT(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".gat")
}
