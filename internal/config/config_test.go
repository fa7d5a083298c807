package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Recorder.Host != "localhost" || cfg.Recorder.Port != 4455 {
		t.Errorf("Expected default recorder localhost:4455, got: %s:%d", cfg.Recorder.Host, cfg.Recorder.Port)
	}
	if cfg.Recorder.FPS != 30 {
		t.Errorf("Expected default fps 30, got: %d", cfg.Recorder.FPS)
	}
	if cfg.Recorder.OutputWidth != 1280 || cfg.Recorder.OutputHeight != 720 {
		t.Errorf("Expected default output 1280x720, got: %dx%d", cfg.Recorder.OutputWidth, cfg.Recorder.OutputHeight)
	}
	if cfg.Recorder.ConnectAttempts != 3 {
		t.Errorf("Expected 3 connect attempts, got: %d", cfg.Recorder.ConnectAttempts)
	}
	if cfg.Capture.QueueSize != 1024 {
		t.Errorf("Expected queue size 1024, got: %d", cfg.Capture.QueueSize)
	}
	if cfg.RecordingsDirectory == "" {
		t.Error("Expected a default recordings directory")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "ducktrack.yaml")
	content := `recordings_directory: ` + filepath.Join(dir, "sessions") + `
recorder:
  host: obs-host
  port: 4460
  password: hunter2
  fps: 60
capture:
  queue_size: 2048
  natural_scrolling: true
server:
  port: 9000
`
	if err := os.WriteFile(configFile, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(configFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Recorder.Host != "obs-host" || cfg.Recorder.Port != 4460 {
		t.Errorf("Expected obs-host:4460, got: %s:%d", cfg.Recorder.Host, cfg.Recorder.Port)
	}
	if cfg.Recorder.Password != "hunter2" {
		t.Errorf("Expected password from file, got: %q", cfg.Recorder.Password)
	}
	if cfg.Recorder.FPS != 60 {
		t.Errorf("Expected fps 60, got: %d", cfg.Recorder.FPS)
	}
	if !cfg.Capture.NaturalScrolling {
		t.Error("Expected natural_scrolling true")
	}
	if cfg.ServerAddr() != "127.0.0.1:9000" {
		t.Errorf("Expected 127.0.0.1:9000, got: %s", cfg.ServerAddr())
	}
	// File values merge over defaults.
	if cfg.Recorder.OutputWidth != 1280 {
		t.Errorf("Expected default output width preserved, got: %d", cfg.Recorder.OutputWidth)
	}
}

func TestValidationRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "empty recordings directory", mutate: func(c *Config) { c.RecordingsDirectory = "" }},
		{name: "bad recorder port", mutate: func(c *Config) { c.Recorder.Port = 70000 }},
		{name: "zero fps", mutate: func(c *Config) { c.Recorder.FPS = 0 }},
		{name: "negative output", mutate: func(c *Config) { c.Recorder.OutputWidth = -1 }},
		{name: "zero attempts", mutate: func(c *Config) { c.Recorder.ConnectAttempts = 0 }},
		{name: "zero queue", mutate: func(c *Config) { c.Capture.QueueSize = 0 }},
		{name: "bad server port", mutate: func(c *Config) { c.Server.Port = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation to fail")
			}
		})
	}
}

func TestSessionOptionsWiring(t *testing.T) {
	cfg := defaultConfig()
	cfg.RecordingsDirectory = t.TempDir()
	cfg.Capture.DrainSeconds = 0.25
	cfg.Capture.NaturalScrolling = true

	opts := cfg.SessionOptions()
	if opts.RecordingsDir != cfg.RecordingsDirectory {
		t.Errorf("Expected recordings dir %s, got: %s", cfg.RecordingsDirectory, opts.RecordingsDir)
	}
	if opts.Sink.DrainTimeout != 250*time.Millisecond {
		t.Errorf("Expected 250ms drain timeout, got: %v", opts.Sink.DrainTimeout)
	}
	if !opts.NaturalScrolling {
		t.Error("Expected natural scrolling carried into options")
	}
	if opts.ConnectRecorder == nil || opts.NewCollaborator == nil || opts.SelectBackend == nil {
		t.Error("Expected all factories wired")
	}
	if collaborator := opts.NewCollaborator(t.TempDir()); collaborator == nil {
		t.Error("Expected a collaborator instance")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	if got := expandPath("~/recordings"); got != filepath.Join(home, "recordings") {
		t.Errorf("Expected home expansion, got: %s", got)
	}
	if got := expandPath("/absolute/path"); got != "/absolute/path" {
		t.Errorf("Expected absolute path untouched, got: %s", got)
	}
}
