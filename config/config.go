// Package config loads the runtime configuration from YAML
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/vi-runtime/log"
)

// Config is the root document
type Config struct {
	TargetFPS int          `yaml:"target_fps"`
	Grid      GridConfig   `yaml:"grid"`
	Log       log.Config   `yaml:"log"`
	Scripts   ScriptConfig `yaml:"scripts"`
	Audio     AudioConfig  `yaml:"audio"`
}

// GridConfig sizes the play field in cells
type GridConfig struct {
	Size int `yaml:"size"`
}

// ScriptConfig controls the Lua bridge
type ScriptConfig struct {
	Root       string        `yaml:"root"`
	Watch      bool          `yaml:"watch"`
	Globals    []string      `yaml:"globals"`
	Banner     string        `yaml:"banner"`
	CallBudget time.Duration `yaml:"call_budget"`
}

// AudioConfig controls the beep backend
type AudioConfig struct {
	Enabled    bool    `yaml:"enabled"`
	SampleRate int     `yaml:"sample_rate"`
	Volume     float64 `yaml:"volume"`
	// Root resolves wav paths; tone: paths are synthesized
	Root   string `yaml:"root"`
	Pickup string `yaml:"pickup"`
	Die    string `yaml:"die"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		TargetFPS: 60,
		Grid:      GridConfig{Size: 20},
		Log: log.Config{
			Level:    "info",
			File:     "vi-runtime.log",
			Sampling: true,
		},
		Scripts: ScriptConfig{
			Root:       "scripts",
			Watch:      true,
			Globals:    []string{"hud.lua"},
			Banner:     "banner.lua",
			CallBudget: 50 * time.Millisecond,
		},
		Audio: AudioConfig{
			Enabled:    true,
			SampleRate: 44100,
			Volume:     0.5,
			Root:       "sounds",
			Pickup:     "tone:880:80ms",
			Die:        "tone:110:400ms",
		},
	}
}

// Load reads path over the defaults; an empty path or a missing file yields the defaults
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := Parse(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, rejecting unknown keys, then validates
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	return cfg.Validate()
}

// Validate checks ranges the runtime treats as preconditions
func (c *Config) Validate() error {
	if c.TargetFPS < 1 || c.TargetFPS > 1000 {
		return fmt.Errorf("%w: got %d", ErrInvalidTargetFPS, c.TargetFPS)
	}
	if c.Grid.Size < 4 || c.Grid.Size > 200 {
		return fmt.Errorf("%w: got %d", ErrInvalidGridSize, c.Grid.Size)
	}
	if c.Log.Level != "" {
		if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level)
		}
	}
	if c.Audio.Enabled && c.Audio.SampleRate <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidSampleRate, c.Audio.SampleRate)
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		return fmt.Errorf("%w: got %g", ErrInvalidVolume, c.Audio.Volume)
	}
	return nil
}
