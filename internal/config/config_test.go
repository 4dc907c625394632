package config

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if !cfg.Skinning.UseThread {
		t.Error("expected use_thread to be true by default")
	}
	if cfg.Skinning.Workers != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.Skinning.Workers)
	}
	if cfg.Skinning.QueueSize != 64 {
		t.Errorf("expected queue size 64, got %d", cfg.Skinning.QueueSize)
	}

	if cfg.Demo.Frames != 600 {
		t.Errorf("expected 600 frames, got %d", cfg.Demo.Frames)
	}
	if cfg.Demo.TargetFPS != 60 {
		t.Errorf("expected target fps 60, got %d", cfg.Demo.TargetFPS)
	}
	if cfg.Demo.WatchConfig {
		t.Error("expected watch_config to be false by default")
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

const yamlContent = `
skinning:
  use_thread: false
  workers: 6
  queue_size: 8

demo:
  frames: 120
  target_fps: 30
  instances: 10
  segments: 5
  watch_config: true

logging:
  level: "debug"
  log_file: "rig.log"
`

const tomlContent = `
[skinning]
use_thread = false
workers = 6
queue_size = 8

[demo]
frames = 120
target_fps = 30
instances = 10
segments = 5
watch_config = true

[logging]
level = "debug"
log_file = "rig.log"
`

func TestLoadFromFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "yaml", file: "config.yaml", content: yamlContent},
		{name: "toml", file: "config.toml", content: tomlContent},
		{name: "toml upper ext", file: "config.TOML", content: tomlContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}

			cfg := Default()
			if err := loadFromFile(cfg, configPath); err != nil {
				t.Fatalf("failed to load config: %v", err)
			}

			if cfg.Skinning.UseThread {
				t.Error("expected use_thread to be false")
			}
			if cfg.Skinning.Workers != 6 {
				t.Errorf("expected 6 workers, got %d", cfg.Skinning.Workers)
			}
			if cfg.Skinning.QueueSize != 8 {
				t.Errorf("expected queue size 8, got %d", cfg.Skinning.QueueSize)
			}
			if cfg.Demo.Frames != 120 || cfg.Demo.TargetFPS != 30 {
				t.Errorf("expected 120 frames at 30 fps, got %d at %d", cfg.Demo.Frames, cfg.Demo.TargetFPS)
			}
			if cfg.Demo.Instances != 10 || cfg.Demo.Segments != 5 {
				t.Errorf("expected 10 instances of 5 segments, got %d of %d", cfg.Demo.Instances, cfg.Demo.Segments)
			}
			if !cfg.Demo.WatchConfig {
				t.Error("expected watch_config to be true")
			}
			if cfg.Logging.Level != "debug" {
				t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
			}
			if cfg.Logging.LogFile != "rig.log" {
				t.Errorf("expected log file 'rig.log', got %s", cfg.Logging.LogFile)
			}
		})
	}
}

func TestLoadFromFilePartialKeepsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("skinning:\n  workers: 3\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Skinning.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.Skinning.Workers)
	}
	if !cfg.Skinning.UseThread {
		t.Error("use_thread should keep its default when absent from the file")
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "yaml", file: "invalid.yaml", content: "skinning:\n  workers: not a number\n  invalid syntax here\n"},
		{name: "toml", file: "invalid.toml", content: "[skinning\nworkers = = 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}
			if err := loadFromFile(Default(), configPath); err == nil {
				t.Error("expected error loading invalid config, got nil")
			}
		})
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if err := loadFromFile(Default(), "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
	if _, err := LoadFile("/nonexistent/path/config.toml"); err == nil {
		t.Error("expected error from LoadFile on missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	tmpDir := t.TempDir()
	os.Chdir(tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "rig.toml"), []byte("[skinning]\nworkers = 1\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path != "./rig.toml" {
		t.Errorf("expected ./rig.toml, got %q", path)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "rig.yaml"), []byte("skinning:\n  workers: 1\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path != "./rig.yaml" {
		t.Errorf("yaml should win over toml, got %q", path)
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "sync flag",
			setup: func() { *flagSync = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Skinning.UseThread {
					t.Error("expected use_thread to be false with sync flag")
				}
			},
			teardown: func() { *flagSync = false },
		},
		{
			name:  "workers flag",
			setup: func() { *flagWorkers = 8 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Skinning.Workers != 8 {
					t.Errorf("expected 8 workers, got %d", cfg.Skinning.Workers)
				}
			},
			teardown: func() { *flagWorkers = 0 },
		},
		{
			name:  "zero frames flag",
			setup: func() { *flagFrames = 0 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Demo.Frames != 0 {
					t.Errorf("expected unbounded frames, got %d", cfg.Demo.Frames)
				}
			},
			teardown: func() { *flagFrames = -1 },
		},
		{
			name: "instances and log file flags",
			setup: func() {
				*flagInstances = 12
				*flagLogFile = "out.log"
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Demo.Instances != 12 {
					t.Errorf("expected 12 instances, got %d", cfg.Demo.Instances)
				}
				if cfg.Logging.LogFile != "out.log" {
					t.Errorf("expected log file out.log, got %s", cfg.Logging.LogFile)
				}
			},
			teardown: func() {
				*flagInstances = 0
				*flagLogFile = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "skinning:\n  workers: 3\n  queue_size: 5\n"
	if err := os.WriteFile(configPath, []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWorkers = 9
	defer func() {
		*flagConfig = ""
		*flagWorkers = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Workers from flag, queue size from file.
	if cfg.Skinning.Workers != 9 {
		t.Errorf("expected 9 workers from flag, got %d", cfg.Skinning.Workers)
	}
	if cfg.Skinning.QueueSize != 5 {
		t.Errorf("expected queue size 5 from file, got %d", cfg.Skinning.QueueSize)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"out.yaml", "out.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			cfg := Default()
			cfg.Skinning.UseThread = false
			cfg.Demo.Segments = 7

			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo: %v", err)
			}
			got, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile: %v", err)
			}
			if *got != *cfg {
				t.Errorf("round trip mismatch: got %+v, want %+v", got, cfg)
			}
		})
	}
}

func TestSaveToConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("config dir is only redirectable through XDG_CONFIG_HOME on linux")
	}
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	os.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.Skinning.Workers = 3
	path, err := cfg.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if found := findConfigFile(); found != path {
		t.Errorf("findConfigFile() = %q, want saved file %q", found, path)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got.Skinning.Workers != 3 {
		t.Errorf("Workers = %d after reload, want 3", got.Skinning.Workers)
	}
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rig.yaml")
	if err := os.WriteFile(path, []byte("skinning:\n  use_thread: true\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) { changes <- c })
	}()

	// Keep rewriting until the watcher reports, since it may not be
	// registered yet on the first write.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case c := <-changes:
			// A write may be observed after truncation but before the
			// new content lands, which parses as defaults.
			if c.Skinning.UseThread {
				continue
			}
			cancel()
			if err := <-done; err != nil {
				t.Errorf("Watch returned %v", err)
			}
			return
		case <-tick.C:
			_ = os.WriteFile(path, []byte("skinning:\n  use_thread: false\n"), 0644)
		case <-deadline:
			t.Fatal("timed out waiting for config reload")
		}
	}
}
