package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	coremetrics "github.com/kilianp07/forecastviz/core/metrics"
)

// PromSink records forecast events in Prometheus metrics. Runs are short-lived,
// so Flush pushes the gathered metrics to a Pushgateway when PushURL is set.
type PromSink struct {
	renders   *prometheus.CounterVec
	bands     prometheus.Gauge
	persisted *prometheus.CounterVec
	rows      prometheus.Gauge
	coverage  *prometheus.GaugeVec
	mae       *prometheus.GaugeVec

	gatherer prometheus.Gatherer
	pushURL  string
	job      string
}

// NewPromSink registers metrics on the default Prometheus registerer.
func NewPromSink(pushURL, job string) (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer, prometheus.DefaultGatherer, pushURL, job)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer, pushURL, job string) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	if job == "" {
		job = "forecastviz"
	}
	s := &PromSink{gatherer: g, pushURL: pushURL, job: job}
	var err error
	if s.renders, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forecastviz_renders_total",
		Help: "Total number of rendered forecast charts",
	}, []string{"format"})); err != nil {
		return nil, err
	}
	if s.bands, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "forecastviz_bands_rendered",
		Help: "Number of quantile bands shaded in the last chart",
	})); err != nil {
		return nil, err
	}
	if s.persisted, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forecastviz_artifacts_written_total",
		Help: "Total number of persisted forecast runs",
	}, []string{"model", "job_id"})); err != nil {
		return nil, err
	}
	if s.rows, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "forecastviz_forecast_rows",
		Help: "Rows in the last persisted forecast table",
	})); err != nil {
		return nil, err
	}
	if s.coverage, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "forecastviz_band_coverage",
		Help: "Share of realized values falling inside a quantile band",
	}, []string{"run", "band"})); err != nil {
		return nil, err
	}
	if s.mae, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "forecastviz_forecast_mae",
		Help: "Mean absolute error of the point forecast",
	}, []string{"run"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return c, err
		}
		existing, ok := are.ExistingCollector.(C)
		if !ok {
			return c, fmt.Errorf("collector registered with a different type: %w", err)
		}
		return existing, nil
	}
	return c, nil
}

// RecordRender increments the render counter and sets the band gauge.
func (s *PromSink) RecordRender(ev coremetrics.RenderEvent) error {
	s.renders.WithLabelValues(ev.Format).Inc()
	s.bands.Set(float64(ev.Bands))
	return nil
}

// RecordPersist counts a persisted run.
func (s *PromSink) RecordPersist(ev coremetrics.PersistEvent) error {
	s.persisted.WithLabelValues(ev.Model, strconv.Itoa(ev.JobID)).Inc()
	s.rows.Set(float64(ev.Rows))
	return nil
}

// RecordEvaluation sets the coverage and error gauges of a run.
func (s *PromSink) RecordEvaluation(ev coremetrics.EvaluationEvent) error {
	s.mae.WithLabelValues(ev.Run).Set(ev.MAE)
	for band, cov := range ev.Coverage {
		s.coverage.WithLabelValues(ev.Run, band).Set(cov)
	}
	return nil
}

// Flush pushes all gathered metrics to the Pushgateway. It is a no-op without PushURL.
func (s *PromSink) Flush() error {
	if s.pushURL == "" {
		return nil
	}
	if err := push.New(s.pushURL, s.job).Gatherer(s.gatherer).Push(); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
