package config

import "fmt"

// ArtifactsConfig locates persisted runs.
type ArtifactsConfig struct {
	OutputDir string `json:"output_dir"`
}

func (c *ArtifactsConfig) SetDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
}

func (c ArtifactsConfig) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	return nil
}
