package config

import "flag"

var (
	flagConfig    = flag.String("config", "", "Path to config file (.yaml or .toml)")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagSync      = flag.Bool("sync", false, "Skin on the main goroutine instead of workers")
	flagWorkers   = flag.Int("workers", 0, "Skinning worker goroutines")
	flagFrames    = flag.Int("frames", -1, "Frames to run (0 = until interrupted)")
	flagInstances = flag.Int("instances", 0, "Rigged mesh instances")
	flagLogFile   = flag.String("log-file", "", "Write logs to this file as well")
	flagSave      = flag.Bool("save-config", false, "Write the effective config to the user config directory and exit")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// SaveRequested reports whether --save-config was given.
func SaveRequested() bool {
	return *flagSave
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagSync {
		cfg.Skinning.UseThread = false
	}
	if *flagWorkers > 0 {
		cfg.Skinning.Workers = *flagWorkers
	}
	if *flagFrames >= 0 {
		cfg.Demo.Frames = *flagFrames
	}
	if *flagInstances > 0 {
		cfg.Demo.Instances = *flagInstances
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}
