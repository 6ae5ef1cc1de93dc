package plot

import (
	"time"

	"github.com/kilianp07/forecastviz/core/forecast"
)

// TraceKind distinguishes plain lines from filled regions.
type TraceKind int

const (
	TraceLine TraceKind = iota
	TraceFill
)

func (k TraceKind) String() string {
	if k == TraceFill {
		return "fill"
	}
	return "line"
}

// Shape is the interpolation between consecutive points.
type Shape string

const (
	ShapeLinear Shape = "linear"
	// ShapeStep holds each value until the next point (horizontal then vertical).
	ShapeStep Shape = "hv"
)

// Trace is one drawable series of a Figure.
type Trace struct {
	Name       string
	Kind       TraceKind
	X          []time.Time
	Y          []float64
	LineColor  RGBA
	LineWidth  float64
	FillColor  RGBA
	Shape      Shape
	ShowLegend bool
	// FillTo is the index of the trace a fill closes against, -1 otherwise.
	FillTo int
	// Level is set for quantile boundaries; zero for base lines.
	Level forecast.Level
}

// Figure accumulates traces for a single chart.
type Figure struct {
	Title  string
	XLabel string
	YLabel string
	Traces []Trace
}

func (f *Figure) add(t Trace) int {
	f.Traces = append(f.Traces, t)
	return len(f.Traces) - 1
}

// Legend lists the names of legend-visible traces in order.
func (f *Figure) Legend() []string {
	var names []string
	for _, t := range f.Traces {
		if t.ShowLegend {
			names = append(names, t.Name)
		}
	}
	return names
}

// Fills returns the number of filled traces.
func (f *Figure) Fills() int {
	n := 0
	for _, t := range f.Traces {
		if t.Kind == TraceFill {
			n++
		}
	}
	return n
}
