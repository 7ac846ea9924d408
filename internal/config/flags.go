package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagLogFile  = flag.String("log-file", "", "Also write logs to this file")
	flagWorkers  = flag.Int("workers", -1, "Row workers for angle engines (0 = all CPUs)")
	flagCancel   = flag.String("cancel-policy", "", "When workers observe cancellation: single-worker or always")
	flagStretchH = flag.Float64("stretch-h", 0, "World units per cell")
	flagStretchV = flag.Float64("stretch-v", 0, "World units per height step")
	flagMaxSlope = flag.Float64("max-slope", -1, "Largest traversable height step")
	flagFormat   = flag.String("format", "", "Raster container for outputs: png or bmp")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag arguments.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagWorkers >= 0 {
		cfg.Occlusion.Workers = *flagWorkers
	}
	if *flagCancel != "" {
		cfg.Occlusion.CancelPolicy = *flagCancel
	}
	if *flagStretchH > 0 {
		cfg.Terrain.StretchH = float32(*flagStretchH)
	}
	if *flagStretchV > 0 {
		cfg.Terrain.StretchV = float32(*flagStretchV)
	}
	if *flagMaxSlope >= 0 {
		cfg.Obstruction.MaxSlope = float32(*flagMaxSlope)
	}
	if *flagFormat != "" {
		cfg.Output.Format = *flagFormat
	}
}
