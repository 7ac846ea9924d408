// Package config handles terrashade configuration loading and management.
package config

import (
	"fmt"

	"github.com/Faultbox/midgard-terrain/internal/engine/obstruction"
	"github.com/Faultbox/midgard-terrain/internal/engine/occlusion"
	"github.com/Faultbox/midgard-terrain/pkg/grid"
)

// Config holds all settings.
type Config struct {
	Terrain     TerrainConfig     `yaml:"terrain"`
	Occlusion   OcclusionConfig   `yaml:"occlusion"`
	Obstruction ObstructionConfig `yaml:"obstruction"`
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// TerrainConfig holds world scaling. Grid size comes from the height file.
type TerrainConfig struct {
	StretchH float32 `yaml:"stretch_h"`
	StretchV float32 `yaml:"stretch_v"`
}

// OcclusionConfig holds settings for both angle engines.
type OcclusionConfig struct {
	Workers      int     `yaml:"workers"`       // 0 = GOMAXPROCS
	CancelPolicy string  `yaml:"cancel_policy"` // single-worker | always
	Inclination  float64 `yaml:"inclination"`   // Light inclination, radians
}

// ObstructionConfig holds traversability settings.
type ObstructionConfig struct {
	MaxSlope float32                 `yaml:"max_slope"`
	Water    []obstruction.WaterArea `yaml:"water"`
	Entities []EntityConfig          `yaml:"entities"`
}

// EntityConfig describes a static or moving object with a footprint.
// Radius > 0 selects a circle centered at Position, otherwise a box.
type EntityConfig struct {
	Name        string     `yaml:"name"`
	HasMovement bool       `yaml:"movable"`
	Position    [2]float32 `yaml:"position"`
	Size        [2]float32 `yaml:"size"`
	Radius      float32    `yaml:"radius"`
}

// Entity converts the description to a builder entity.
func (e EntityConfig) Entity() obstruction.Entity {
	var fp obstruction.Footprint
	switch {
	case e.Radius > 0:
		fp = obstruction.CircleFootprint{X: e.Position[0], Y: e.Position[1], Radius: e.Radius}
	case e.Size[0] > 0 && e.Size[1] > 0:
		fp = obstruction.RectFootprint{
			MinX: e.Position[0],
			MinY: e.Position[1],
			MaxX: e.Position[0] + e.Size[0],
			MaxY: e.Position[1] + e.Size[1],
		}
	}
	return obstruction.Entity{Name: e.Name, HasMovement: e.HasMovement, Footprint: fp}
}

// OutputConfig holds raster output settings.
type OutputConfig struct {
	Format string `yaml:"format"` // png | bmp
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Terrain: TerrainConfig{
			StretchH: 1,
			StretchV: 1,
		},
		Occlusion: OcclusionConfig{
			Workers:      0,
			CancelPolicy: string(occlusion.CancelSingleWorker),
			Inclination:  0,
		},
		Obstruction: ObstructionConfig{
			MaxSlope: 8,
		},
		Output: OutputConfig{
			Format: string(grid.FormatPNG),
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks values that would make an engine fail later.
func (c *Config) Validate() error {
	if c.Terrain.StretchH <= 0 || c.Terrain.StretchV <= 0 {
		return fmt.Errorf("terrain stretch must be positive, got h=%g v=%g", c.Terrain.StretchH, c.Terrain.StretchV)
	}
	if c.Occlusion.Workers < 0 {
		return fmt.Errorf("occlusion workers must not be negative, got %d", c.Occlusion.Workers)
	}
	if _, err := occlusion.ParseCancelPolicy(c.Occlusion.CancelPolicy); err != nil {
		return err
	}
	if c.Obstruction.MaxSlope < 0 {
		return fmt.Errorf("max slope must not be negative, got %g", c.Obstruction.MaxSlope)
	}
	if _, err := grid.ParseFormat(c.Output.Format); err != nil {
		return err
	}
	return nil
}

// Entities converts every configured entity.
func (c *Config) Entities() []obstruction.Entity {
	out := make([]obstruction.Entity, 0, len(c.Obstruction.Entities))
	for _, e := range c.Obstruction.Entities {
		out = append(out, e.Entity())
	}
	return out
}
