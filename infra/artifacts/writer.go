// Package artifacts persists forecast runs to disk: the forecast table as a
// gzip compressed CSV, the model state and the run metadata.
package artifacts

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/forecastviz/core/catalog"
	"github.com/kilianp07/forecastviz/core/forecast"
	"github.com/kilianp07/forecastviz/core/logger"
	coremetrics "github.com/kilianp07/forecastviz/core/metrics"
	"github.com/kilianp07/forecastviz/core/model"
	infralogger "github.com/kilianp07/forecastviz/infra/logger"
	"github.com/kilianp07/forecastviz/pkg/export"
)

// File names written in every run directory.
const (
	ForecastFile = "forecast.csv"
	ModelFile    = "model.json"
	ConfigsFile  = "configs.yaml"
)

// ErrEmptyRunName is returned when Persist is called without a run name.
var ErrEmptyRunName = errors.New("run name is required")

// Run describes a persisted run directory.
type Run struct {
	ID    string
	Name  string
	Dir   string
	Files []string
	Bytes int64
}

// Writer writes run artifacts under a root output directory.
type Writer struct {
	root  string
	store catalog.Store
	sink  coremetrics.MetricsSink
	log   logger.Logger
	now   func() time.Time
}

// NewWriter returns a Writer rooted at outputDir. store, sink and log may be nil.
func NewWriter(outputDir string, store catalog.Store, sink coremetrics.MetricsSink, log logger.Logger) *Writer {
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	if log == nil {
		log = infralogger.NopLogger{}
	}
	return &Writer{root: outputDir, store: store, sink: sink, log: log, now: time.Now}
}

// Persist writes forecast.csv, model.json and configs.yaml into
// <outputDir>/<runName>. Existing files are overwritten. configs.yaml holds the
// job metadata merged with backtest, backtest keys taking precedence.
func (w *Writer) Persist(ctx context.Context, runName string, t *forecast.Table, m model.Model, job model.PredictionJob, backtest map[string]any) (Run, error) {
	if runName == "" {
		return Run{}, ErrEmptyRunName
	}
	if t == nil || m == nil {
		return Run{}, fmt.Errorf("persist %s: table and model are required", runName)
	}
	if err := t.Validate(); err != nil {
		return Run{}, fmt.Errorf("persist %s: %w", runName, err)
	}
	dir := filepath.Join(w.root, runName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Run{}, fmt.Errorf("create run dir: %w", err)
	}

	run := Run{ID: uuid.NewString(), Name: runName, Dir: dir}
	steps := []struct {
		name  string
		write func(io.Writer) error
	}{
		{ForecastFile, func(out io.Writer) error { return writeForecast(out, t) }},
		{ModelFile, m.SaveModel},
		{ConfigsFile, func(out io.Writer) error { return writeConfigs(out, job.Metadata(), backtest) }},
	}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return Run{}, err
		}
		n, err := writeFile(filepath.Join(dir, s.name), s.write)
		if err != nil {
			return Run{}, fmt.Errorf("write %s: %w", s.name, err)
		}
		run.Files = append(run.Files, s.name)
		run.Bytes += n
	}
	w.log.Infow("run persisted", map[string]any{"run": runName, "dir": dir, "rows": t.Len(), "bytes": run.Bytes})

	created := w.now()
	if w.store != nil {
		levels := make([]int, 0, len(t.Quantiles))
		for _, l := range t.Levels() {
			levels = append(levels, int(l))
		}
		rec := catalog.RunRecord{
			ID:        run.ID,
			Name:      runName,
			JobID:     job.ID,
			JobName:   job.Name,
			Model:     job.Model,
			Dir:       dir,
			Rows:      t.Len(),
			Levels:    levels,
			CreatedAt: created,
		}
		if err := w.store.Append(ctx, rec); err != nil {
			return run, fmt.Errorf("catalog run %s: %w", runName, err)
		}
	}
	if rec, ok := w.sink.(coremetrics.PersistRecorder); ok {
		ev := coremetrics.PersistEvent{
			Run:   runName,
			JobID: job.ID,
			Model: job.Model,
			Rows:  t.Len(),
			Files: len(run.Files),
			Bytes: run.Bytes,
			Dir:   dir,
			Time:  created,
		}
		if err := rec.RecordPersist(ev); err != nil {
			w.log.Warnf("record persist %s: %v", runName, err)
		}
	}
	return run, nil
}

// ReadForecastCSV reads a forecast.csv back, compressed or not.
func ReadForecastCSV(path string) (*forecast.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadForecast(f)
}

// ReadForecast decodes a forecast table, detecting gzip from its magic bytes.
func ReadForecast(r io.Reader) (*forecast.Table, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		defer func() { _ = zr.Close() }()
		return export.ReadCSV(zr)
	}
	return export.ReadCSV(br)
}

// Metadata merges the job metadata with backtest, backtest keys winning.
func Metadata(job, backtest map[string]any) map[string]any {
	out := make(map[string]any, len(job)+len(backtest))
	for k, v := range job {
		out[k] = v
	}
	for k, v := range backtest {
		out[k] = v
	}
	return out
}

func writeForecast(w io.Writer, t *forecast.Table) error {
	zw := gzip.NewWriter(w)
	if err := export.WriteCSV(zw, t); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}

func writeConfigs(w io.Writer, job, backtest map[string]any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Metadata(job, backtest)); err != nil {
		return err
	}
	return enc.Close()
}

// writeFile buffers the content so a failed write leaves no partial file behind.
func writeFile(path string, write func(io.Writer) error) (int64, error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return 0, err
	}
	return int64(buf.Len()), nil
}
