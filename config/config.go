package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/forecastviz/core/metrics"
)

type Config struct {
	Plot      PlotConfig      `json:"plot"`
	Artifacts ArtifactsConfig `json:"artifacts"`
	Catalog   CatalogConfig   `json:"catalog"`
	Metrics   metrics.Config  `json:"metrics"`
	Logging   LoggingConfig   `json:"logging"`
	Sentry    SentryConfig    `json:"sentry"`
}

// Load reads path and applies K_ prefixed environment overrides, K_PLOT__SCALE
// setting plot.scale for instance. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			parser, err := parserFor(path)
			if err != nil {
				return nil, err
			}
			if err := k.Load(file.Provider(path), parser); err != nil {
				return nil, err
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	c.Plot.SetDefaults()
	c.Artifacts.SetDefaults()
	c.Catalog.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Plot.Validate(); err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	if err := c.Artifacts.Validate(); err != nil {
		return fmt.Errorf("artifacts: %w", err)
	}
	if err := c.Catalog.Validate(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Sentry.Validate(); err != nil {
		return fmt.Errorf("sentry: %w", err)
	}
	return nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
}
