package config

import (
	"fmt"
)

// CatalogConfig defines where persisted runs are indexed.
type CatalogConfig struct {
	// Backend selects the store type: "jsonl" or "sqlite".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *CatalogConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		c.Path = "runs.jsonl"
	}
}

// Validate checks mandatory fields.
func (c CatalogConfig) Validate() error {
	if c.Backend != "jsonl" && c.Backend != "sqlite" {
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}
