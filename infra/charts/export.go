// Package charts exports plot figures to PNG or SVG using go-chart.
package charts

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/kilianp07/forecastviz/core/forecast"
	"github.com/kilianp07/forecastviz/core/plot"
)

// Format selects the output encoding.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat accepts "png" or "svg", case-insensitive.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimPrefix(s, "."))) {
	case FormatPNG:
		return FormatPNG, nil
	case FormatSVG:
		return FormatSVG, nil
	default:
		return "", fmt.Errorf("unsupported chart format %q", s)
	}
}

// ErrTooFewPoints is returned for figures spanning fewer than two timestamps.
var ErrTooFewPoints = errors.New("figure needs at least two points")

const (
	defaultWidth  = 1280
	defaultHeight = 640
	timeLayout    = "2006-01-02 15:04"
	legendWidth   = 8
)

// Exporter renders figures with fixed dimensions.
type Exporter struct {
	Width  int
	Height int
}

// NewExporter returns an exporter, using 1280x640 for non-positive sizes.
func NewExporter(width, height int) *Exporter {
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	return &Exporter{Width: width, Height: height}
}

// Build converts fig into a go-chart Chart. Filled bands are drawn before the
// lines so the realized and forecast traces stay on top.
func (e *Exporter) Build(fig *plot.Figure) (chart.Chart, error) {
	if fig == nil {
		return chart.Chart{}, errors.New("nil figure")
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return chart.Chart{}, fmt.Errorf("load font: %w", err)
	}
	ch := chart.Chart{
		Title:      fig.Title,
		Width:      e.Width,
		Height:     e.Height,
		Font:       font,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:           fig.XLabel,
			ValueFormatter: chart.TimeValueFormatterWithFormat(timeLayout),
		},
		YAxis: chart.YAxis{Name: fig.YLabel},
	}

	var fills, lines, legend []chart.Series
	var stamps map[time.Time]struct{}
	for _, tr := range fig.Traces {
		if stamps == nil {
			stamps = make(map[time.Time]struct{}, len(tr.X))
		}
		for _, x := range tr.X {
			stamps[x] = struct{}{}
		}
		switch tr.Kind {
		case plot.TraceFill:
			if tr.FillTo < 0 || tr.FillTo >= len(fig.Traces) {
				return chart.Chart{}, fmt.Errorf("trace %q fills to missing trace %d", tr.Name, tr.FillTo)
			}
			s, ok := band(fig.Traces[tr.FillTo], tr)
			if !ok {
				continue
			}
			fills = append(fills, s)
			if tr.ShowLegend {
				legend = append(legend, s)
			}
		case plot.TraceLine:
			if tr.LineColor.A == 0 {
				// band boundaries are carried by their fill
				continue
			}
			s, ok := line(tr)
			if !ok {
				continue
			}
			lines = append(lines, s)
			if tr.ShowLegend {
				legend = append(legend, s)
			}
		}
	}
	if len(stamps) < 2 || len(lines)+len(fills) == 0 {
		return chart.Chart{}, ErrTooFewPoints
	}
	ch.Series = append(fills, lines...)

	legendChart := ch
	legendChart.Series = legend
	ch.Elements = []chart.Renderable{chart.Legend(&legendChart)}
	return ch, nil
}

// Export renders fig to w.
func (e *Exporter) Export(fig *plot.Figure, w io.Writer, f Format) error {
	ch, err := e.Build(fig)
	if err != nil {
		return err
	}
	provider := chart.PNG
	if f == FormatSVG {
		provider = chart.SVG
	}
	if err := ch.Render(provider, w); err != nil {
		return fmt.Errorf("render %s: %w", f, err)
	}
	return nil
}

// ExportFile renders fig to path, the format taken from the file extension.
func (e *Exporter) ExportFile(fig *plot.Figure, path string) error {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := e.Export(fig, out, f); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func line(tr plot.Trace) (chart.Series, bool) {
	var xs []time.Time
	var ys []float64
	for i, x := range tr.X {
		if i < len(tr.Y) && forecast.Valid(tr.Y[i]) {
			xs = append(xs, x)
			ys = append(ys, tr.Y[i])
		}
	}
	if len(xs) == 0 {
		return nil, false
	}
	if tr.Shape == plot.ShapeStep {
		xs, ys = StepPoints(xs, ys)
	}
	return chart.TimeSeries{
		Name:    tr.Name,
		XValues: xs,
		YValues: ys,
		Style: chart.Style{
			StrokeColor: color(tr.LineColor),
			StrokeWidth: tr.LineWidth,
		},
	}, true
}

func band(outer, inner plot.Trace) (chart.Series, bool) {
	var xs []time.Time
	var lo, hi []float64
	for i, x := range inner.X {
		if i >= len(inner.Y) || i >= len(outer.Y) {
			break
		}
		if !forecast.Valid(inner.Y[i]) || !forecast.Valid(outer.Y[i]) {
			continue
		}
		xs = append(xs, x)
		hi = append(hi, outer.Y[i])
		lo = append(lo, inner.Y[i])
	}
	if len(xs) == 0 {
		return nil, false
	}
	stepped := inner.Shape == plot.ShapeStep
	var sx []time.Time
	if stepped {
		sx, hi = StepPoints(xs, hi)
		_, lo = StepPoints(xs, lo)
	} else {
		sx = xs
	}
	fx := make([]float64, len(sx))
	for i, t := range sx {
		fx[i] = chart.TimeToFloat64(t)
	}
	fill := color(inner.FillColor)
	return bandSeries{
		name: inner.Name,
		style: chart.Style{
			FillColor:   fill,
			StrokeColor: fill,
			StrokeWidth: legendWidth,
		},
		xs:    fx,
		outer: hi,
		inner: lo,
	}, true
}

// StepPoints expands points into a horizontal-then-vertical step path: each
// value is held until the next timestamp.
func StepPoints(xs []time.Time, ys []float64) ([]time.Time, []float64) {
	n := len(xs)
	if n < 2 {
		return xs, ys
	}
	outX := make([]time.Time, 0, 2*n-1)
	outY := make([]float64, 0, 2*n-1)
	for i := 0; i < n-1; i++ {
		outX = append(outX, xs[i], xs[i+1])
		outY = append(outY, ys[i], ys[i])
	}
	outX = append(outX, xs[n-1])
	outY = append(outY, ys[n-1])
	return outX, outY
}

func color(c plot.RGBA) drawing.Color {
	a := math.Max(0, math.Min(1, c.A))
	return drawing.Color{R: c.R, G: c.G, B: c.B, A: uint8(math.Round(a * 255))}
}
