package plot

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/forecastviz/core/forecast"
)

func table(levels ...forecast.Level) *forecast.Table {
	start := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	n := 4
	t := &forecast.Table{Quantiles: make(map[forecast.Level]forecast.Series)}
	for i := 0; i < n; i++ {
		t.Index = append(t.Index, start.Add(time.Duration(i)*15*time.Minute))
		t.Realized = append(t.Realized, 100+float64(i))
		t.Forecast = append(t.Forecast, 101+float64(i))
	}
	for _, l := range levels {
		s := make(forecast.Series, n)
		for i := range s {
			s[i] = 100 + float64(l)/10 + float64(i)
		}
		t.Quantiles[l] = s
	}
	return t
}

func TestRender_Bands(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	fig, err := r.Render(table(10, 30, 50, 70, 90), 24)
	require.NoError(t, err)

	assert.Equal(t, "Realized load and forecasted load (forecasting horizon: 24 hours)", fig.Title)
	assert.Equal(t, "Load (MW)", fig.YLabel)
	assert.Equal(t, "Datetime (UTC)", fig.XLabel)
	// two base lines plus two traces per band
	require.Len(t, fig.Traces, 2+3*2)
	assert.Equal(t, 3, fig.Fills())
	assert.Equal(t, []string{"forecast", "realised",
		"10%-30% Percentile", "70%-90% Percentile", "30%-70% Percentile"}, fig.Legend())

	outer, fill := fig.Traces[2], fig.Traces[3]
	assert.Equal(t, TraceLine, outer.Kind)
	assert.False(t, outer.ShowLegend)
	assert.Equal(t, forecast.Level(10), outer.Level)
	assert.Equal(t, TraceFill, fill.Kind)
	assert.True(t, fill.ShowLegend)
	assert.Equal(t, 2, fill.FillTo)
	assert.Equal(t, forecast.Level(30), fill.Level)
	assert.Equal(t, 0.5, fill.FillColor.A)
	assert.Equal(t, ScalePlasma[ColorIndex(10)].WithAlpha(0.5), fill.FillColor)

	for _, tr := range fig.Traces {
		assert.Equal(t, ShapeStep, tr.Shape, tr.Name)
	}
}

func TestRender_BaseLinesOnly(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	for name, tbl := range map[string]*forecast.Table{
		"no quantiles": table(),
		"median only":  table(50),
		"single level": table(90),
		"no median":    table(25, 75),
	} {
		t.Run(name, func(t *testing.T) {
			fig, err := r.Render(tbl, 48)
			require.NoError(t, err)
			require.Len(t, fig.Traces, 2)
			assert.Equal(t, "forecast", fig.Traces[0].Name)
			assert.Equal(t, ScalePlasma[9], fig.Traces[0].LineColor)
			assert.Equal(t, 2.0, fig.Traces[0].LineWidth)
			assert.Equal(t, "realised", fig.Traces[1].Name)
			assert.Equal(t, RGBA{R: 255, A: 1}, fig.Traces[1].LineColor)
			assert.Equal(t, 1.5, fig.Traces[1].LineWidth)
		})
	}
}

func TestRender_BridgePolicy(t *testing.T) {
	opts := DefaultOptions()
	opts.MedianPolicy = forecast.MedianBridge
	fig, err := NewRenderer(opts).Render(table(25, 75), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"forecast", "realised", "25%-75% Percentile"}, fig.Legend())
}

func TestRender_Idempotent(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	tbl := table(5, 10, 30, 50, 70, 90, 95)
	a, err := r.Render(tbl, 24)
	require.NoError(t, err)
	b, err := r.Render(tbl, 24)
	require.NoError(t, err)
	require.Equal(t, len(a.Traces), len(b.Traces))
	for i := range a.Traces {
		assert.Equal(t, a.Traces[i].Name, b.Traces[i].Name)
		assert.Equal(t, a.Traces[i].Kind, b.Traces[i].Kind)
		assert.Equal(t, a.Traces[i].FillColor, b.Traces[i].FillColor)
		assert.Equal(t, a.Traces[i].LineColor, b.Traces[i].LineColor)
	}
	assert.NotSame(t, a, b)
}

func TestRender_Linear(t *testing.T) {
	opts := DefaultOptions()
	opts.Step = false
	fig, err := NewRenderer(opts).Render(table(10, 50, 90), 6)
	require.NoError(t, err)
	for _, tr := range fig.Traces {
		assert.Equal(t, ShapeLinear, tr.Shape)
	}
	assert.Equal(t, "Realized load and forecasted load (forecasting horizon: 6 hours)", fig.Title)
}

func TestRender_Malformed(t *testing.T) {
	tbl := table(10, 90)
	tbl.Quantiles[10] = tbl.Quantiles[10][:2]
	_, err := NewRenderer(DefaultOptions()).Render(tbl, 24)
	require.Error(t, err)
	assert.True(t, errors.Is(err, forecast.ErrLengthMismatch))

	_, err = NewRenderer(DefaultOptions()).Render(nil, 24)
	assert.Error(t, err)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Realized load and forecasted load (forecasting horizon: 0.25 hours)", Title(0.25))
}
