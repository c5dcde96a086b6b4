// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/youterm/pkg/adapters/ffmpegsource"
	"github.com/user/youterm/pkg/adapters/ytdlp"
	"github.com/user/youterm/pkg/orchestrator"
	"github.com/user/youterm/pkg/ports"
	"github.com/user/youterm/pkg/stages/playback"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid value")

// Config represents the full configuration for youterm.
type Config struct {
	// Logging
	LogLevel string `yaml:"log_level"`

	// External tools
	FFmpegPath       string `yaml:"ffmpeg_path"`
	YtDlpPath        string `yaml:"ytdlp_path"`
	YtDlpInstall     bool   `yaml:"ytdlp_install"`
	FetchTimeoutSec  int    `yaml:"fetch_timeout_sec"`
	SocketTimeoutSec int    `yaml:"socket_timeout_sec"`

	// Output size
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	Scale       float64 `yaml:"scale"`
	FitTerminal bool    `yaml:"fit_terminal"`

	// Pipeline
	Workers         int  `yaml:"workers"`
	ChannelCapacity int  `yaml:"channel_capacity"`
	BatchSize       int  `yaml:"batch_size"`
	Ordered         bool `yaml:"ordered"`

	// Cache
	VerifyCache bool `yaml:"verify_cache"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		LogLevel: "info",

		YtDlpInstall:     true,
		FetchTimeoutSec:  300,
		SocketTimeoutSec: 8,

		Scale:       1.0,
		FitTerminal: true,

		Workers:         0,
		ChannelCapacity: playback.DefaultChannelCapacity,
		BatchSize:       playback.DefaultBatchSize,
		Ordered:         true,

		VerifyCache: true,
	}
}

// LoadFromFile loads configuration from a YAML file on top of Defaults.
// A missing file is not an error.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate reports the first out-of-range value.
func (c Config) Validate() error {
	switch {
	case c.Width < 0 || c.Height < 0:
		return fmt.Errorf("%w: size %dx%d must not be negative", ErrInvalid, c.Width, c.Height)
	case c.Scale != 0 && c.Scale < 1:
		return fmt.Errorf("%w: scale %.2f must be at least 1", ErrInvalid, c.Scale)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers %d must not be negative", ErrInvalid, c.Workers)
	case c.ChannelCapacity < 1:
		return fmt.Errorf("%w: channel_capacity %d must be at least 1", ErrInvalid, c.ChannelCapacity)
	case c.BatchSize < 1:
		return fmt.Errorf("%w: batch_size %d must be at least 1", ErrInvalid, c.BatchSize)
	case c.FetchTimeoutSec < 0 || c.SocketTimeoutSec < 0:
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalid)
	}
	return nil
}

// ApplyLogLevel overrides the log level when level is not empty.
func (c *Config) ApplyLogLevel(level string) {
	if level != "" {
		c.LogLevel = level
	}
}

// ApplySize overrides the output size with the non-zero values given.
func (c *Config) ApplySize(width, height int, scale float64) {
	if width != 0 {
		c.Width = width
	}
	if height != 0 {
		c.Height = height
	}
	if scale != 0 {
		c.Scale = scale
	}
}

// ApplyWorkers overrides the worker count when n is not zero.
func (c *Config) ApplyWorkers(n int) {
	if n != 0 {
		c.Workers = n
	}
}

// ApplyUnordered switches to arrival-order rendering when set.
func (c *Config) ApplyUnordered(unordered bool) {
	if unordered {
		c.Ordered = false
	}
}

// Level returns the parsed log level.
func (c Config) Level() ports.LogLevel {
	return ports.ParseLogLevel(c.LogLevel)
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig(requestID string, useCache bool) orchestrator.Config {
	return orchestrator.Config{
		RequestID: requestID,
		UseCache:  useCache,

		Width:  c.Width,
		Height: c.Height,
		Scale:  c.Scale,
	}
}

// PlaybackOptions returns the coordinator options.
func (c Config) PlaybackOptions() playback.Options {
	opts := playback.DefaultOptions()
	if c.Workers > 0 {
		opts.Workers = c.Workers
	}
	opts.ChannelCapacity = c.ChannelCapacity
	opts.BatchSize = c.BatchSize
	opts.Ordered = c.Ordered
	return opts
}

// DecoderOptions returns the ffmpeg decoder options. binDir is searched
// after PATH.
func (c Config) DecoderOptions(binDir string) ffmpegsource.Options {
	return ffmpegsource.Options{
		FFmpegPath: c.FFmpegPath,
		SearchDirs: []string{binDir},
	}
}

// FetcherOptions returns the yt-dlp fetcher options. binDir is searched
// after PATH, and receives yt-dlp when YtDlpInstall is set.
func (c Config) FetcherOptions(binDir string) ytdlp.Options {
	opts := ytdlp.Options{
		Path:          c.YtDlpPath,
		SearchDirs:    []string{binDir},
		SocketTimeout: time.Duration(c.SocketTimeoutSec) * time.Second,
		Timeout:       time.Duration(c.FetchTimeoutSec) * time.Second,
	}
	if c.YtDlpInstall {
		opts.InstallDir = binDir
	}
	return opts
}
