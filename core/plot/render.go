package plot

import (
	"fmt"
	"strconv"

	"github.com/kilianp07/forecastviz/core/forecast"
)

const (
	defaultOpacity       = 0.5
	defaultRealizedWidth = 1.5
	defaultForecastWidth = 2
)

// Options configures a Renderer. Start from DefaultOptions.
type Options struct {
	Scale         ColorScale
	Opacity       float64
	Step          bool
	RealizedColor RGBA
	RealizedWidth float64
	ForecastWidth float64
	MedianPolicy  forecast.MedianPolicy
}

// DefaultOptions returns the plasma scale with stepped traces.
func DefaultOptions() Options {
	return Options{
		Scale:         ScalePlasma,
		Opacity:       defaultOpacity,
		Step:          true,
		RealizedColor: RGBA{R: 255, A: 1},
		RealizedWidth: defaultRealizedWidth,
		ForecastWidth: defaultForecastWidth,
		MedianPolicy:  forecast.MedianRequired,
	}
}

// Renderer turns forecast tables into figures. It holds no mutable state and
// builds a new Figure on every call.
type Renderer struct {
	opts Options
}

// NewRenderer fills unset numeric and color options with defaults.
func NewRenderer(opts Options) *Renderer {
	def := DefaultOptions()
	if len(opts.Scale) == 0 {
		opts.Scale = def.Scale
	}
	if opts.Opacity <= 0 || opts.Opacity > 1 {
		opts.Opacity = def.Opacity
	}
	if opts.RealizedColor == (RGBA{}) {
		opts.RealizedColor = def.RealizedColor
	}
	if opts.RealizedWidth <= 0 {
		opts.RealizedWidth = def.RealizedWidth
	}
	if opts.ForecastWidth <= 0 {
		opts.ForecastWidth = def.ForecastWidth
	}
	return &Renderer{opts: opts}
}

// Options returns the effective options.
func (r *Renderer) Options() Options { return r.opts }

// Title returns the chart title for a horizon in hours.
func Title(horizon float64) string {
	return fmt.Sprintf("Realized load and forecasted load (forecasting horizon: %s hours)",
		strconv.FormatFloat(horizon, 'f', -1, 64))
}

// Render draws the realized and forecast lines of t and shades every band
// derived from its quantile levels. Tables without quantiles yield the two
// base lines only.
func (r *Renderer) Render(t *forecast.Table, horizon float64) (*Figure, error) {
	if t == nil {
		return nil, fmt.Errorf("render: nil table")
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	shape := ShapeLinear
	if r.opts.Step {
		shape = ShapeStep
	}
	fig := &Figure{
		Title:  Title(horizon),
		XLabel: "Datetime (UTC)",
		YLabel: "Load (MW)",
	}
	fig.add(Trace{
		Name:       forecast.ColumnForecast,
		Kind:       TraceLine,
		X:          t.Index,
		Y:          t.Forecast,
		LineColor:  r.opts.Scale.Color(forecast.Median),
		LineWidth:  r.opts.ForecastWidth,
		Shape:      shape,
		ShowLegend: true,
		FillTo:     -1,
	})
	fig.add(Trace{
		Name:       forecast.ColumnRealized,
		Kind:       TraceLine,
		X:          t.Index,
		Y:          t.Realized,
		LineColor:  r.opts.RealizedColor,
		LineWidth:  r.opts.RealizedWidth,
		Shape:      shape,
		ShowLegend: true,
		FillTo:     -1,
	})

	for _, b := range forecast.PairBands(t.Levels(), r.opts.MedianPolicy) {
		r.shade(fig, t, b, shape)
	}
	return fig, nil
}

// shade adds the hidden outer boundary and the inner trace filling back to it.
func (r *Renderer) shade(fig *Figure, t *forecast.Table, b forecast.Band, shape Shape) {
	label := b.Label()
	outer := fig.add(Trace{
		Name:      label,
		Kind:      TraceLine,
		X:         t.Index,
		Y:         t.Quantiles[b.Outer],
		LineColor: Transparent,
		Shape:     shape,
		FillTo:    -1,
		Level:     b.Outer,
	})
	fig.add(Trace{
		Name:       label,
		Kind:       TraceFill,
		X:          t.Index,
		Y:          t.Quantiles[b.Inner],
		LineColor:  Transparent,
		FillColor:  r.FillColor(b.Outer),
		Shape:      shape,
		ShowLegend: true,
		FillTo:     outer,
		Level:      b.Inner,
	})
}

// FillColor is the band color for an outer level at the configured opacity.
func (r *Renderer) FillColor(outer forecast.Level) RGBA {
	return r.opts.Scale.Color(outer).WithAlpha(r.opts.Opacity)
}
