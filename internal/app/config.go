// Package app assembles the sticker bot from the core plumbing and the
// domain services, and owns its configuration file format.
package app

import (
	"fmt"
	"os"
	"time"

	coreconfig "stickerforge/core/config"
	coredatabase "stickerforge/core/database"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// StickersConfig tunes the conversion limits.
type StickersConfig struct {
	// MaxFileSizeMB caps incoming media; the Bot API refuses downloads
	// over 50MB anyway.
	MaxFileSizeMB int `yaml:"max_file_size_mb" envconfig:"STICKERS_MAX_FILE_SIZE_MB"`
	// StateExpiryMinutes is the idle window before per-user state drops.
	StateExpiryMinutes int `yaml:"state_expiry_minutes" envconfig:"STICKERS_STATE_EXPIRY_MINUTES"`
	// FontPath points at a TTF used for captions and memes.
	FontPath string `yaml:"font_path" envconfig:"STICKERS_FONT_PATH"`
}

// Config is the full bot configuration: the shared transport config plus
// database and sticker sections.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Database coredatabase.Config `yaml:"database"`
	Stickers StickersConfig      `yaml:"stickers"`
}

// CoreConfig satisfies the runner's ConfigCarrier.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Core
}

// MaxFileSizeBytes returns the configured cap in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.Stickers.MaxFileSizeMB) << 20
}

// StateExpiry returns the configured idle window.
func (c *Config) StateExpiry() time.Duration {
	return time.Duration(c.Stickers.StateExpiryMinutes) * time.Minute
}

// Load reads the YAML file, applies environment overrides and validates.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	normalize(&cfg)
	return &cfg, nil
}

func normalize(cfg *Config) {
	if cfg.Stickers.MaxFileSizeMB <= 0 || cfg.Stickers.MaxFileSizeMB > 50 {
		cfg.Stickers.MaxFileSizeMB = 50
	}
	if cfg.Stickers.StateExpiryMinutes <= 0 {
		cfg.Stickers.StateExpiryMinutes = 60
	}
}
