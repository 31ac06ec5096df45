// Package config loads and validates the server's YAML configuration
// file: listen addresses, world generation, and per-client streaming
// limits.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full server configuration.
type Config struct {
	ReliableAddress   string       `yaml:"reliable_address"`
	UnreliableAddress string       `yaml:"unreliable_address"`
	MaxPlayers        int          `yaml:"max_players"`
	World             WorldConfig  `yaml:"world"`
	Streaming         StreamConfig `yaml:"streaming"`
	Logging           LogConfig    `yaml:"logging"`
}

// WorldConfig selects the world seed and persistence root.
type WorldConfig struct {
	Seed      int64  `yaml:"seed"`
	RegionDir string `yaml:"region_dir"`
}

// StreamConfig tunes the per-client chunk streamer.
type StreamConfig struct {
	ViewDistance        int32  `yaml:"view_distance"`
	BandwidthLimitBytes uint64 `yaml:"bandwidth_limit_bytes"`
}

// LogConfig controls log verbosity and format.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Pretty bool   `yaml:"pretty"` // human-readable console writer instead of JSON
}

// Default returns a Config with every field set to a usable default, so
// a server can run from an empty or partial YAML file.
func Default() Config {
	return Config{
		ReliableAddress:   ":7890",
		UnreliableAddress: ":7891",
		MaxPlayers:        20,
		World: WorldConfig{
			Seed:      0,
			RegionDir: "./world",
		},
		Streaming: StreamConfig{
			ViewDistance:        7,
			BandwidthLimitBytes: 1024 * 1024,
		},
		Logging: LogConfig{
			Level:  "info",
			Pretty: false,
		},
	}
}

// Load reads and validates a YAML config file at path, starting from
// Default() so any field the file omits keeps its default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects a configuration that would otherwise fail later in
// an unhelpful way.
func (c *Config) Validate() error {
	if c.ReliableAddress == "" {
		return fmt.Errorf("config: reliable_address must be set")
	}
	if c.UnreliableAddress == "" {
		return fmt.Errorf("config: unreliable_address must be set")
	}
	if c.MaxPlayers < 0 {
		return fmt.Errorf("config: max_players cannot be negative")
	}
	if c.World.RegionDir == "" {
		return fmt.Errorf("config: world.region_dir must be set")
	}
	if c.Streaming.ViewDistance <= 0 {
		return fmt.Errorf("config: streaming.view_distance must be positive")
	}
	if c.Streaming.BandwidthLimitBytes == 0 {
		return fmt.Errorf("config: streaming.bandwidth_limit_bytes must be positive")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	return nil
}
