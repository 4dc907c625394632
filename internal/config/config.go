// Package config handles skinning runtime configuration loading and management.
package config

// Config holds all runtime settings.
type Config struct {
	Skinning SkinningConfig `yaml:"skinning" toml:"skinning"`
	Demo     DemoConfig     `yaml:"demo" toml:"demo"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// SkinningConfig controls how skinning work is dispatched.
type SkinningConfig struct {
	UseThread bool `yaml:"use_thread" toml:"use_thread"` // Offload skinning to worker goroutines
	Workers   int  `yaml:"workers" toml:"workers"`       // Worker goroutines in the skinning queue
	QueueSize int  `yaml:"queue_size" toml:"queue_size"` // Jobs that may wait for a worker
}

// DemoConfig holds settings for the headless frame loop.
type DemoConfig struct {
	Frames      int  `yaml:"frames" toml:"frames"`             // 0 runs until interrupted
	TargetFPS   int  `yaml:"target_fps" toml:"target_fps"`     // 0 runs unthrottled
	Instances   int  `yaml:"instances" toml:"instances"`       // Rigged meshes sharing one skin
	Segments    int  `yaml:"segments" toml:"segments"`         // Bones in the demo chain
	WatchConfig bool `yaml:"watch_config" toml:"watch_config"` // Reload skinning settings on file change
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Skinning: SkinningConfig{
			UseThread: true,
			Workers:   2,
			QueueSize: 64,
		},
		Demo: DemoConfig{
			Frames:      600,
			TargetFPS:   60,
			Instances:   4,
			Segments:    3,
			WatchConfig: false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
