// Package evaluate scores a forecast table against its realized values.
package evaluate

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/forecastviz/core/forecast"
)

// ErrNoObservations is returned when no row has both a realized and a forecast value.
var ErrNoObservations = errors.New("no realized observations")

// BandCoverage is the share of realized values falling inside a band.
type BandCoverage struct {
	Band     forecast.Band
	Label    string
	Coverage float64
	// Nominal is the interval width implied by the levels, e.g. 0.2 for 10-30.
	Nominal float64
}

// Report holds the scores of one table.
type Report struct {
	Rows     int
	Observed int
	MAE      float64
	RMSE     float64
	Bias     float64
	Pinball  map[forecast.Level]float64
	Coverage []BandCoverage
}

// Evaluate computes point and quantile scores over rows with a realized value.
// Bands are derived with the same pairing the renderer uses.
func Evaluate(t *forecast.Table, policy forecast.MedianPolicy) (Report, error) {
	if err := t.Validate(); err != nil {
		return Report{}, fmt.Errorf("evaluate: %w", err)
	}
	rows := observed(t)
	if len(rows) == 0 {
		return Report{}, ErrNoObservations
	}
	y := pick(t.Realized, rows)
	yhat := pick(t.Forecast, rows)

	diff := make([]float64, len(y))
	floats.SubTo(diff, y, yhat)
	abs := make([]float64, len(diff))
	sq := make([]float64, len(diff))
	for i, d := range diff {
		abs[i] = math.Abs(d)
		sq[i] = d * d
	}
	rep := Report{
		Rows:     t.Len(),
		Observed: len(rows),
		MAE:      stat.Mean(abs, nil),
		RMSE:     math.Sqrt(stat.Mean(sq, nil)),
		Bias:     -stat.Mean(diff, nil),
		Pinball:  make(map[forecast.Level]float64, len(t.Quantiles)),
	}

	for _, l := range t.Levels() {
		rep.Pinball[l] = Pinball(y, pick(t.Quantiles[l], rows), float64(l)/100)
	}
	for _, b := range forecast.PairBands(t.Levels(), policy) {
		outer := pick(t.Quantiles[b.Outer], rows)
		inner := pick(t.Quantiles[b.Inner], rows)
		inside := 0
		for i, v := range y {
			lo, hi := math.Min(outer[i], inner[i]), math.Max(outer[i], inner[i])
			if v >= lo && v <= hi {
				inside++
			}
		}
		rep.Coverage = append(rep.Coverage, BandCoverage{
			Band:     b,
			Label:    b.Label(),
			Coverage: float64(inside) / float64(len(y)),
			Nominal:  math.Abs(float64(b.Outer-b.Inner)) / 100,
		})
	}
	return rep, nil
}

// Pinball returns the mean quantile loss of predictions q at level tau.
func Pinball(y, q []float64, tau float64) float64 {
	if len(y) == 0 {
		return math.NaN()
	}
	loss := make([]float64, len(y))
	for i := range y {
		d := y[i] - q[i]
		loss[i] = math.Max(tau*d, (tau-1)*d)
	}
	return stat.Mean(loss, nil)
}

// CoverageMap flattens band coverage by label.
func (r Report) CoverageMap() map[string]float64 {
	m := make(map[string]float64, len(r.Coverage))
	for _, c := range r.Coverage {
		m[c.Label] = c.Coverage
	}
	return m
}

// PinballMap converts levels to plain ints.
func (r Report) PinballMap() map[int]float64 {
	m := make(map[int]float64, len(r.Pinball))
	for l, v := range r.Pinball {
		m[int(l)] = v
	}
	return m
}

// observed lists the rows where realized, forecast and every quantile are set.
func observed(t *forecast.Table) []int {
	var rows []int
	for i := range t.Index {
		if !forecast.Valid(t.Realized[i]) || !forecast.Valid(t.Forecast[i]) {
			continue
		}
		ok := true
		for _, s := range t.Quantiles {
			if !forecast.Valid(s[i]) {
				ok = false
				break
			}
		}
		if ok {
			rows = append(rows, i)
		}
	}
	return rows
}

func pick(s forecast.Series, rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = s[r]
	}
	return out
}
