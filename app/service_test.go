package app

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/forecastviz/config"
	"github.com/kilianp07/forecastviz/core/catalog"
	"github.com/kilianp07/forecastviz/core/factory"
	coremetrics "github.com/kilianp07/forecastviz/core/metrics"
	"github.com/kilianp07/forecastviz/infra/artifacts"
	"github.com/kilianp07/forecastviz/infra/logger"
	"github.com/kilianp07/forecastviz/pkg/export"
)

type recorder struct {
	mu       sync.Mutex
	renders  []coremetrics.RenderEvent
	persists []coremetrics.PersistEvent
	evals    []coremetrics.EvaluationEvent
}

func (r *recorder) RecordRender(ev coremetrics.RenderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renders = append(r.renders, ev)
	return nil
}

func (r *recorder) RecordPersist(ev coremetrics.PersistEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.persists = append(r.persists, ev)
	return nil
}

func (r *recorder) RecordEvaluation(ev coremetrics.EvaluationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evals = append(r.evals, ev)
	return nil
}

var rec = &recorder{}

func init() {
	_ = coremetrics.RegisterMetricsSink("app-test-recorder", func(map[string]any) (coremetrics.MetricsSink, error) {
		return rec, nil
	})
}

const forecastCSV = `datetime,realised,forecast,quantile_P10,quantile_P30,quantile_P50,quantile_P70,quantile_P90
2023-06-01 00:00:00+00:00,100,101,95,98,101,104,107
2023-06-01 00:15:00+00:00,102,102,96,99,102,105,108
2023-06-01 00:30:00+00:00,,103,97,100,103,106,109
2023-06-01 00:45:00+00:00,99,104,98,101,104,107,110
`

func write(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func newService(t *testing.T, dir string) *Service {
	t.Helper()
	cfg := &config.Config{}
	cfg.Artifacts.OutputDir = filepath.Join(dir, "output")
	cfg.Catalog.Path = filepath.Join(dir, "runs.jsonl")
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "app-test-recorder"}}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	svc, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestService_Plot(t *testing.T) {
	dir := t.TempDir()
	svc := newService(t, dir)
	input := write(t, dir, "forecast.csv", forecastCSV)

	out := filepath.Join(dir, "chart.svg")
	fig, err := svc.Plot(context.Background(), PlotRequest{Input: input, Horizon: 24, Out: out, Run: "plot-run"})
	require.NoError(t, err)
	assert.Equal(t, 3, fig.Fills())
	assert.Equal(t, []string{"forecast", "realised", "10%-30% Percentile", "70%-90% Percentile", "30%-70% Percentile"}, fig.Legend())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	var found bool
	for _, ev := range rec.renders {
		if ev.Run == "plot-run" {
			found = true
			assert.Equal(t, 3, ev.Bands)
			assert.Equal(t, 4, ev.Points)
			assert.Equal(t, "svg", ev.Format)
		}
	}
	assert.True(t, found, "render event not recorded")
}

func TestService_PersistAndRuns(t *testing.T) {
	dir := t.TempDir()
	svc := newService(t, dir)
	req := PersistRequest{
		Run:      "location_a_24h",
		Input:    write(t, dir, "forecast.csv", forecastCSV),
		Model:    write(t, dir, "model.json", `{"booster":"gbtree"}`),
		Job:      write(t, dir, "job.yaml", "id: 307\nname: Location A\nmodel: xgb\nquantiles: [0.1, 0.3, 0.5, 0.7, 0.9]\n"),
		Backtest: write(t, dir, "backtest.yaml", "n_folds: 3\ntraining_days: 90\n"),
	}
	run, err := svc.Persist(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "output", "location_a_24h"), run.Dir)

	tbl, err := artifacts.ReadForecastCSV(filepath.Join(run.Dir, artifacts.ForecastFile))
	require.NoError(t, err)
	assert.Equal(t, 4, tbl.Len())

	runs, err := svc.Runs(context.Background(), catalog.Query{JobID: 307})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "location_a_24h", runs[0].Name)
	assert.Equal(t, []int{10, 30, 50, 70, 90}, runs[0].Levels)
}

func TestService_PersistErrors(t *testing.T) {
	dir := t.TempDir()
	svc := newService(t, dir)
	input := write(t, dir, "forecast.csv", forecastCSV)
	model := write(t, dir, "model.json", `{}`)
	job := write(t, dir, "job.yaml", "id: 1\nname: a\nmodel: xgb\n")

	cases := map[string]PersistRequest{
		"missing input": {Run: "r", Input: filepath.Join(dir, "absent.csv"), Model: model, Job: job},
		"bad model":     {Run: "r", Input: input, Model: write(t, dir, "bad.json", "{"), Job: job},
		"bad job":       {Run: "r", Input: input, Model: model, Job: write(t, dir, "bad.yaml", "id: 1\n")},
		"bad backtest":  {Run: "r", Input: input, Model: model, Job: job, Backtest: write(t, dir, "bt.yaml", "- a\n- b\n")},
		"no run":        {Input: input, Model: model, Job: job},
	}
	for name, req := range cases {
		if _, err := svc.Persist(context.Background(), req); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestService_Evaluate(t *testing.T) {
	dir := t.TempDir()
	svc := newService(t, dir)
	input := write(t, dir, "forecast.csv", forecastCSV)

	rep, err := svc.Evaluate(context.Background(), input, "eval-run")
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Observed)
	// errors: -1, 0, -5
	assert.InDelta(t, 2.0, rep.MAE, 1e-9)
	require.Len(t, rep.Coverage, 3)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	var found bool
	for _, ev := range rec.evals {
		if ev.Run == "eval-run" {
			found = true
			assert.Len(t, ev.Coverage, 3)
			assert.Len(t, ev.Pinball, 5)
		}
	}
	assert.True(t, found, "evaluation event not recorded")
}

func TestService_PlotData(t *testing.T) {
	dir := t.TempDir()
	svc := newService(t, dir)
	input := write(t, dir, "forecast.csv", forecastCSV)
	dataPath := filepath.Join(dir, "rows.json")

	_, err := svc.Plot(context.Background(), PlotRequest{Input: input, Horizon: 24, Out: filepath.Join(dir, "chart.svg"), Data: dataPath})
	require.NoError(t, err)

	raw, err := os.ReadFile(dataPath)
	require.NoError(t, err)
	var rows []export.Record
	require.NoError(t, json.Unmarshal(raw, &rows))
	require.Len(t, rows, 4)
	assert.InDelta(t, 95.0, rows[0].Values["quantile_P10"], 1e-9)
	_, ok := rows[2].Values["realised"]
	assert.False(t, ok, "missing realised value should be omitted")
}

func TestService_CatalogOpenedOnDemand(t *testing.T) {
	dir := t.TempDir()
	svc := newService(t, dir)
	input := write(t, dir, "forecast.csv", forecastCSV)
	catalogPath := filepath.Join(dir, "runs.jsonl")

	_, err := svc.Plot(context.Background(), PlotRequest{Input: input, Horizon: 24, Out: filepath.Join(dir, "chart.svg")})
	require.NoError(t, err)
	_, err = svc.Evaluate(context.Background(), input, "")
	require.NoError(t, err)
	_, err = os.Stat(catalogPath)
	assert.True(t, errors.Is(err, fs.ErrNotExist), "catalog created by plot or evaluate: %v", err)

	_, err = svc.Runs(context.Background(), catalog.Query{})
	require.NoError(t, err)
	_, err = os.Stat(catalogPath)
	assert.NoError(t, err)
}

type fakeMonitor struct {
	recovered []any
	flushes   int
}

func (m *fakeMonitor) CaptureException(error, map[string]string) {}
func (m *fakeMonitor) Recover(v any)                               { m.recovered = append(m.recovered, v) }
func (m *fakeMonitor) Flush(time.Duration)                         { m.flushes++ }

func TestService_Recover(t *testing.T) {
	mon := &fakeMonitor{}
	svc := &Service{monitor: mon, log: logger.NopLogger{}}

	err := func() (err error) {
		defer svc.Recover(&err)
		panic("boom")
	}()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, []any{"boom"}, mon.recovered)
	assert.Equal(t, 1, mon.flushes)

	err = func() (err error) {
		defer svc.Recover(&err)
		return nil
	}()
	assert.NoError(t, err)
	assert.Len(t, mon.recovered, 1)
}

type closingSink struct {
	coremetrics.NopSink
	closed int
}

func (s *closingSink) Close() { s.closed++ }

var closing = &closingSink{}

func init() {
	_ = coremetrics.RegisterMetricsSink("app-test-closing", func(map[string]any) (coremetrics.MetricsSink, error) {
		return closing, nil
	})
}

func TestNew_ClosesSinkOnLogFileError(t *testing.T) {
	before := closing.closed
	dir := t.TempDir()
	blocker := write(t, dir, "blocker", "")

	cfg := &config.Config{}
	cfg.Artifacts.OutputDir = filepath.Join(dir, "output")
	cfg.Catalog.Path = filepath.Join(dir, "runs.jsonl")
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "app-test-closing"}}
	cfg.Logging.File = filepath.Join(blocker, "logs", "app.log")
	cfg.SetDefaults()

	_, err := New(cfg)
	require.Error(t, err)
	assert.Equal(t, before+1, closing.closed)
	_, err = os.Stat(cfg.Catalog.Path)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}
