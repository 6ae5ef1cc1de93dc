package charts

import (
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// bandSeries fills the closed polygon running along the outer bound and back
// along the inner bound.
type bandSeries struct {
	name  string
	style chart.Style
	xs    []float64
	outer []float64
	inner []float64
}

var (
	_ chart.Series         = bandSeries{}
	_ chart.ValuesProvider = bandSeries{}
)

func (b bandSeries) GetName() string           { return b.name }
func (b bandSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }
func (b bandSeries) GetStyle() chart.Style     { return b.style }
func (b bandSeries) Len() int                  { return 2 * len(b.xs) }
func (b bandSeries) GetValues(i int) (x, y float64) {
	n := len(b.xs)
	if i < n {
		return b.xs[i], b.outer[i]
	}
	j := 2*n - 1 - i
	return b.xs[j], b.inner[j]
}

func (b bandSeries) Validate() error {
	if len(b.xs) == 0 {
		return fmt.Errorf("band %q: no points", b.name)
	}
	if len(b.outer) != len(b.xs) || len(b.inner) != len(b.xs) {
		return fmt.Errorf("band %q: %d x values, %d outer, %d inner", b.name, len(b.xs), len(b.outer), len(b.inner))
	}
	return nil
}

func (b bandSeries) Render(r chart.Renderer, canvasBox chart.Box, xrange, yrange chart.Range, _ chart.Style) {
	n := b.Len()
	if n == 0 {
		return
	}
	r.SetFillColor(b.style.FillColor)
	r.SetStrokeColor(drawing.Color{})
	r.SetStrokeWidth(0)
	for i := 0; i < n; i++ {
		vx, vy := b.GetValues(i)
		x := canvasBox.Left + xrange.Translate(vx)
		y := canvasBox.Bottom - yrange.Translate(vy)
		if i == 0 {
			r.MoveTo(x, y)
			continue
		}
		r.LineTo(x, y)
	}
	r.Close()
	r.Fill()
}
