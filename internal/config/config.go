// Package config loads and validates the engine configuration from file,
// environment and defaults, and wires the production collaborators together.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/duckai/ducktrack/internal/capture"
	"github.com/duckai/ducktrack/internal/metadata"
	"github.com/duckai/ducktrack/internal/obs"
	"github.com/duckai/ducktrack/internal/session"
	"github.com/duckai/ducktrack/internal/sink"
)

// RecorderConfig holds the connection and output settings for the external
// screen recorder.
type RecorderConfig struct {
	Host            string  `mapstructure:"host" yaml:"host"`
	Port            int     `mapstructure:"port" yaml:"port"`
	Password        string  `mapstructure:"password" yaml:"password"`
	FPS             int     `mapstructure:"fps" yaml:"fps"`
	OutputWidth     int     `mapstructure:"output_width" yaml:"output_width"`
	OutputHeight    int     `mapstructure:"output_height" yaml:"output_height"`
	Profile         string  `mapstructure:"profile" yaml:"profile"`
	ConnectAttempts int     `mapstructure:"connect_attempts" yaml:"connect_attempts"`
	ConnectBackoff  float64 `mapstructure:"connect_backoff_seconds" yaml:"connect_backoff_seconds"`
	AutoLaunch      bool    `mapstructure:"auto_launch" yaml:"auto_launch"`
}

// CaptureConfig holds the input-capture settings.
type CaptureConfig struct {
	QueueSize        int     `mapstructure:"queue_size" yaml:"queue_size"`
	DrainSeconds     float64 `mapstructure:"drain_seconds" yaml:"drain_seconds"`
	NaturalScrolling bool    `mapstructure:"natural_scrolling" yaml:"natural_scrolling"`
}

// ServerConfig holds the local control API settings.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// Config is the resolved engine configuration.
type Config struct {
	RecordingsDirectory string         `mapstructure:"recordings_directory" yaml:"recordings_directory"`
	Recorder            RecorderConfig `mapstructure:"recorder" yaml:"recorder"`
	Capture             CaptureConfig  `mapstructure:"capture" yaml:"capture"`
	Server              ServerConfig   `mapstructure:"server" yaml:"server"`
}

func defaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		RecordingsDirectory: filepath.Join(home, "Documents", "DuckTrack"),
		Recorder: RecorderConfig{
			Host:            "localhost",
			Port:            4455,
			FPS:             30,
			OutputWidth:     1280,
			OutputHeight:    720,
			Profile:         "ducktrack",
			ConnectAttempts: 3,
			ConnectBackoff:  2,
		},
		Capture: CaptureConfig{
			QueueSize:    1024,
			DrainSeconds: 0.5,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 4457,
		},
	}
}

// Load reads the configuration. With an empty configFile, defaults plus
// DUCKTRACK_* environment overrides apply.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DUCKTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := defaultConfig()
	v.SetDefault("recordings_directory", defaults.RecordingsDirectory)
	v.SetDefault("recorder.host", defaults.Recorder.Host)
	v.SetDefault("recorder.port", defaults.Recorder.Port)
	v.SetDefault("recorder.fps", defaults.Recorder.FPS)
	v.SetDefault("recorder.output_width", defaults.Recorder.OutputWidth)
	v.SetDefault("recorder.output_height", defaults.Recorder.OutputHeight)
	v.SetDefault("recorder.profile", defaults.Recorder.Profile)
	v.SetDefault("recorder.connect_attempts", defaults.Recorder.ConnectAttempts)
	v.SetDefault("recorder.connect_backoff_seconds", defaults.Recorder.ConnectBackoff)
	v.SetDefault("capture.queue_size", defaults.Capture.QueueSize)
	v.SetDefault("capture.drain_seconds", defaults.Capture.DrainSeconds)
	v.SetDefault("server.host", defaults.Server.Host)
	v.SetDefault("server.port", defaults.Server.Port)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.RecordingsDirectory = expandPath(cfg.RecordingsDirectory)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	if c.RecordingsDirectory == "" {
		return fmt.Errorf("recordings_directory must be set")
	}
	if c.Recorder.Port <= 0 || c.Recorder.Port > 65535 {
		return fmt.Errorf("recorder.port must be in 1..65535, got: %d", c.Recorder.Port)
	}
	if c.Recorder.FPS <= 0 {
		return fmt.Errorf("recorder.fps must be > 0, got: %d", c.Recorder.FPS)
	}
	if c.Recorder.OutputWidth <= 0 || c.Recorder.OutputHeight <= 0 {
		return fmt.Errorf("recorder output resolution must be positive, got: %dx%d",
			c.Recorder.OutputWidth, c.Recorder.OutputHeight)
	}
	if c.Recorder.ConnectAttempts <= 0 {
		return fmt.Errorf("recorder.connect_attempts must be > 0, got: %d", c.Recorder.ConnectAttempts)
	}
	if c.Capture.QueueSize <= 0 {
		return fmt.Errorf("capture.queue_size must be > 0, got: %d", c.Capture.QueueSize)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got: %d", c.Server.Port)
	}
	return nil
}

// SessionOptions builds the production session wiring from the resolved
// configuration.
func (c *Config) SessionOptions() session.Options {
	recorderOpts := obs.Options{
		Host:            c.Recorder.Host,
		Port:            c.Recorder.Port,
		Password:        c.Recorder.Password,
		FPS:             c.Recorder.FPS,
		OutputWidth:     c.Recorder.OutputWidth,
		OutputHeight:    c.Recorder.OutputHeight,
		ProfileName:     c.Recorder.Profile,
		ConnectAttempts: c.Recorder.ConnectAttempts,
		ConnectBackoff:  time.Duration(c.Recorder.ConnectBackoff * float64(time.Second)),
	}
	naturalScrolling := c.Capture.NaturalScrolling

	return session.Options{
		RecordingsDir:    c.RecordingsDirectory,
		NaturalScrolling: naturalScrolling,
		Sink: sink.Options{
			QueueSize:    c.Capture.QueueSize,
			DrainTimeout: time.Duration(c.Capture.DrainSeconds * float64(time.Second)),
		},
		ConnectRecorder: func() (session.RecorderClient, error) {
			return obs.Connect(recorderOpts)
		},
		NewCollaborator: func(dir string) session.Collaborator {
			return metadata.New(dir, naturalScrolling)
		},
		SelectBackend: capture.Select,
		WatchVideo:    true,
	}
}

// ServerAddr returns the host:port the control API binds to.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
