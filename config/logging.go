package config

import (
	"fmt"

	"github.com/rs/zerolog"
)

// LoggingConfig defines the log level and optional file output with rotation.
type LoggingConfig struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string `json:"level"`
	// File mirrors logs into this path when set.
	File string `json:"file"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.File != "" && c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 50
	}
}

// Validate checks the level and rotation bounds.
func (c LoggingConfig) Validate() error {
	if _, err := zerolog.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("invalid level %s", c.Level)
	}
	if c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("rotation limits must not be negative")
	}
	return nil
}
