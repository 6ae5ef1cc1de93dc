package config

import (
	"fmt"

	"github.com/kilianp07/forecastviz/core/forecast"
	"github.com/kilianp07/forecastviz/core/plot"
	"github.com/kilianp07/forecastviz/infra/charts"
)

// PlotConfig defines how forecast charts are rendered and exported.
type PlotConfig struct {
	// Scale names the fill color family: "plasma", "viridis" or "blues".
	Scale   string  `json:"scale"`
	Opacity float64 `json:"opacity"`
	// Step draws traces as horizontal-then-vertical steps. Defaults to true.
	Step *bool `json:"step"`
	// MedianPolicy is "required" or "bridge".
	MedianPolicy  string `json:"median_policy"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Format        string `json:"format"`
	RealizedColor string `json:"realized_color"`
}

// SetDefaults applies sane defaults.
func (c *PlotConfig) SetDefaults() {
	if c.Scale == "" {
		c.Scale = "plasma"
	}
	if c.Opacity == 0 {
		c.Opacity = 0.5
	}
	if c.Step == nil {
		step := true
		c.Step = &step
	}
	if c.MedianPolicy == "" {
		c.MedianPolicy = forecast.MedianRequired.String()
	}
	if c.Width <= 0 {
		c.Width = 1280
	}
	if c.Height <= 0 {
		c.Height = 640
	}
	if c.Format == "" {
		c.Format = string(charts.FormatPNG)
	}
	if c.RealizedColor == "" {
		c.RealizedColor = "#ff0000"
	}
}

// Validate checks the enumerated fields.
func (c PlotConfig) Validate() error {
	if c.Opacity < 0 || c.Opacity > 1 {
		return fmt.Errorf("opacity %v outside [0,1]", c.Opacity)
	}
	if _, err := c.Options(); err != nil {
		return err
	}
	if _, err := charts.ParseFormat(c.Format); err != nil {
		return err
	}
	return nil
}

// Options converts the section into renderer options.
func (c PlotConfig) Options() (plot.Options, error) {
	opts := plot.DefaultOptions()
	scale, err := plot.ParseScale(c.Scale)
	if err != nil {
		return opts, err
	}
	policy, err := forecast.ParseMedianPolicy(c.MedianPolicy)
	if err != nil {
		return opts, err
	}
	opts.Scale = scale
	opts.MedianPolicy = policy
	if c.Opacity > 0 {
		opts.Opacity = c.Opacity
	}
	if c.Step != nil {
		opts.Step = *c.Step
	}
	if c.RealizedColor != "" {
		col, err := plot.ParseHex(c.RealizedColor)
		if err != nil {
			return opts, fmt.Errorf("realized_color: %w", err)
		}
		opts.RealizedColor = col
	}
	return opts, nil
}
