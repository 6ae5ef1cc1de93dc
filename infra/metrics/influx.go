package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/forecastviz/core/metrics"
	"github.com/kilianp07/forecastviz/infra/logger"
)

// InfluxSink writes forecast events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRender writes one point per rendered chart.
func (s *InfluxSink) RecordRender(ev coremetrics.RenderEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("forecast_render").
		AddTag("format", ev.Format).
		AddTag("component", "renderer")
	if ev.Run != "" {
		p = p.AddTag("run", ev.Run)
	}
	p = p.AddField("horizon_hours", round3(ev.Horizon)).
		AddField("bands", ev.Bands).
		AddField("traces", ev.Traces).
		AddField("points", ev.Points).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordPersist writes a point for a persisted run.
func (s *InfluxSink) RecordPersist(ev coremetrics.PersistEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("forecast_persist").
		AddTag("run", ev.Run).
		AddTag("job_id", strconv.Itoa(ev.JobID)).
		AddTag("model", ev.Model).
		AddTag("component", "artifacts").
		AddField("rows", ev.Rows).
		AddField("files", ev.Files).
		AddField("bytes", ev.Bytes).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordEvaluation writes the point forecast scores and one point per band coverage.
func (s *InfluxSink) RecordEvaluation(ev coremetrics.EvaluationEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("forecast_evaluation").
		AddTag("run", ev.Run).
		AddTag("component", "evaluator").
		AddField("mae", round3(ev.MAE)).
		AddField("rmse", round3(ev.RMSE)).
		SetTime(ev.Time)
	if err := s.writeAPI.WritePoint(ctx, p); err != nil {
		return err
	}
	for band, cov := range ev.Coverage {
		bp := write.NewPointWithMeasurement("forecast_band_coverage").
			AddTag("run", ev.Run).
			AddTag("band", band).
			AddField("coverage", round3(cov)).
			SetTime(ev.Time)
		if err := s.writeAPI.WritePoint(ctx, bp); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
