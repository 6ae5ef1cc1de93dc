package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/forecastviz/config"
	"github.com/kilianp07/forecastviz/core/catalog"
	"github.com/kilianp07/forecastviz/core/evaluate"
	"github.com/kilianp07/forecastviz/core/forecast"
	coremetrics "github.com/kilianp07/forecastviz/core/metrics"
	"github.com/kilianp07/forecastviz/core/model"
	coremon "github.com/kilianp07/forecastviz/core/monitoring"
	"github.com/kilianp07/forecastviz/core/plot"
	"github.com/kilianp07/forecastviz/infra/artifacts"
	"github.com/kilianp07/forecastviz/infra/charts"
	"github.com/kilianp07/forecastviz/infra/logger"
	_ "github.com/kilianp07/forecastviz/infra/metrics" // registers metrics sinks
	"github.com/kilianp07/forecastviz/infra/monitoring"
	"github.com/kilianp07/forecastviz/pkg/export"
)

// PlotRequest selects the table to chart and where to write the image.
type PlotRequest struct {
	Input   string
	Horizon float64
	// Out is the image path. Its extension picks the format when it has one.
	Out string
	// Run tags the emitted metrics. Defaults to the input path.
	Run string
	// Data, when set, receives the plotted rows as JSON.
	Data string
}

// PersistRequest names the files making up a run.
type PersistRequest struct {
	Run      string
	Input    string
	Model    string
	Job      string
	Backtest string
}

// Service wires rendering, persistence and the run catalog.
type Service struct {
	renderer *plot.Renderer
	exporter *charts.Exporter
	format   charts.Format
	outDir   string
	sink     coremetrics.MetricsSink
	monitor  coremon.Monitor
	policy   forecast.MedianPolicy
	log      logger.Logger
	logFile  io.Closer

	catalogBackend string
	catalogPath    string
	storeOnce      sync.Once
	store          catalog.Store
	storeErr       error
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	opts, err := cfg.Plot.Options()
	if err != nil {
		return nil, fmt.Errorf("plot options: %w", err)
	}
	format, err := charts.ParseFormat(cfg.Plot.Format)
	if err != nil {
		return nil, err
	}
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	var logFile io.Closer
	if cfg.Logging.File != "" {
		c, err := logger.SetFile(cfg.Logging.File, cfg.Logging.MaxSizeMB, cfg.Logging.MaxBackups, cfg.Logging.MaxAgeDays)
		if err != nil {
			closeSink(sink)
			return nil, fmt.Errorf("log file: %w", err)
		}
		logFile = c
	}
	return &Service{
		renderer: plot.NewRenderer(opts),
		exporter: charts.NewExporter(cfg.Plot.Width, cfg.Plot.Height),
		format:   format,
		outDir:   cfg.Artifacts.OutputDir,
		sink:     sink,
		monitor:  mon,
		policy:   opts.MedianPolicy,
		log:      logger.New("service"),
		logFile:  logFile,

		catalogBackend: cfg.Catalog.Backend,
		catalogPath:    cfg.Catalog.Path,
	}, nil
}

// openStore opens the run catalog on first use.
func (s *Service) openStore() (catalog.Store, error) {
	s.storeOnce.Do(func() {
		s.store, s.storeErr = catalog.New(s.catalogBackend, s.catalogPath)
		if s.storeErr != nil {
			s.storeErr = fmt.Errorf("catalog: %w", s.storeErr)
		}
	})
	return s.store, s.storeErr
}

func closeSink(sink coremetrics.MetricsSink) {
	if c, ok := sink.(interface{ Close() }); ok {
		c.Close()
	}
}

// Recover reports a panic raised by an operation and turns it into an error.
// It must be deferred directly.
func (s *Service) Recover(err *error) {
	r := recover()
	if r == nil {
		return
	}
	s.monitor.Recover(r)
	s.monitor.Flush(2 * time.Second)
	s.log.Errorf("panic: %v", r)
	if err != nil {
		*err = fmt.Errorf("panic: %v", r)
	}
}

// Plot renders the forecast table in req.Input and writes the chart to req.Out.
func (s *Service) Plot(ctx context.Context, req PlotRequest) (*plot.Figure, error) {
	fig, err := s.plot(ctx, req)
	if err != nil {
		s.monitor.CaptureException(err, map[string]string{"op": "plot", "input": req.Input})
	}
	return fig, err
}

func (s *Service) plot(ctx context.Context, req PlotRequest) (*plot.Figure, error) {
	t, err := artifacts.ReadForecastCSV(req.Input)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", req.Input, err)
	}
	fig, err := s.renderer.Render(t, req.Horizon)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	format := s.format
	if f, err := charts.ParseFormat(filepath.Ext(req.Out)); err == nil {
		format = f
	}
	out, err := os.Create(req.Out)
	if err != nil {
		return nil, err
	}
	if err := s.exporter.Export(fig, out, format); err != nil {
		_ = out.Close()
		return nil, err
	}
	if err := out.Close(); err != nil {
		return nil, err
	}
	if req.Data != "" {
		if err := writeData(req.Data, t); err != nil {
			return nil, err
		}
	}

	run := req.Run
	if run == "" {
		run = req.Input
	}
	ev := coremetrics.RenderEvent{
		Run:     run,
		Horizon: req.Horizon,
		Bands:   fig.Fills(),
		Traces:  len(fig.Traces),
		Points:  t.Len(),
		Format:  string(format),
		Time:    time.Now(),
	}
	if err := s.sink.RecordRender(ev); err != nil {
		s.log.Warnf("record render: %v", err)
	}
	s.log.Infow("chart written", map[string]any{"out": req.Out, "bands": ev.Bands, "format": ev.Format})
	return fig, nil
}

func writeData(path string, t *forecast.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteJSON(f, t); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Persist writes the run artifacts described by req.
func (s *Service) Persist(ctx context.Context, req PersistRequest) (artifacts.Run, error) {
	run, err := s.persist(ctx, req)
	if err != nil {
		s.monitor.CaptureException(err, map[string]string{"op": "persist", "run": req.Run})
	}
	return run, err
}

func (s *Service) persist(ctx context.Context, req PersistRequest) (artifacts.Run, error) {
	t, err := artifacts.ReadForecastCSV(req.Input)
	if err != nil {
		return artifacts.Run{}, fmt.Errorf("read %s: %w", req.Input, err)
	}
	data, err := os.ReadFile(req.Model)
	if err != nil {
		return artifacts.Run{}, err
	}
	m, err := model.NewRawModel(data)
	if err != nil {
		return artifacts.Run{}, fmt.Errorf("%s: %w", req.Model, err)
	}
	job, err := readJob(req.Job)
	if err != nil {
		return artifacts.Run{}, err
	}
	backtest, err := readBacktest(req.Backtest)
	if err != nil {
		return artifacts.Run{}, err
	}
	store, err := s.openStore()
	if err != nil {
		return artifacts.Run{}, err
	}
	w := artifacts.NewWriter(s.outDir, store, s.sink, logger.New("artifacts"))
	return w.Persist(ctx, req.Run, t, m, job, backtest)
}

// Evaluate scores the forecast table in input against its realized values.
func (s *Service) Evaluate(ctx context.Context, input, run string) (evaluate.Report, error) {
	t, err := artifacts.ReadForecastCSV(input)
	if err != nil {
		err = fmt.Errorf("read %s: %w", input, err)
		s.monitor.CaptureException(err, map[string]string{"op": "evaluate"})
		return evaluate.Report{}, err
	}
	rep, err := evaluate.Evaluate(t, s.policy)
	if err != nil {
		s.monitor.CaptureException(err, map[string]string{"op": "evaluate"})
		return evaluate.Report{}, err
	}
	if run == "" {
		run = input
	}
	if rec, ok := s.sink.(coremetrics.EvaluationRecorder); ok {
		ev := coremetrics.EvaluationEvent{
			Run:      run,
			MAE:      rep.MAE,
			RMSE:     rep.RMSE,
			Coverage: rep.CoverageMap(),
			Pinball:  rep.PinballMap(),
			Time:     time.Now(),
		}
		if err := rec.RecordEvaluation(ev); err != nil {
			s.log.Warnf("record evaluation: %v", err)
		}
	}
	return rep, ctx.Err()
}

// Runs lists catalogued runs matching q.
func (s *Service) Runs(ctx context.Context, q catalog.Query) ([]catalog.RunRecord, error) {
	store, err := s.openStore()
	if err != nil {
		return nil, err
	}
	return store.Query(ctx, q)
}

// Close flushes metrics and releases the catalog.
func (s *Service) Close() error {
	var err error
	if f, ok := s.sink.(coremetrics.Flusher); ok {
		if ferr := f.Flush(); ferr != nil {
			s.log.Errorf("flush metrics: %v", ferr)
			err = ferr
		}
	}
	closeSink(s.sink)
	if s.store != nil {
		if cerr := s.store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	s.monitor.Flush(2 * time.Second)
	if s.logFile != nil {
		if cerr := s.logFile.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func readJob(path string) (model.PredictionJob, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.PredictionJob{}, err
	}
	defer func() { _ = f.Close() }()
	return model.DecodeJob(f)
}

// readBacktest decodes an optional YAML mapping. An empty path yields nil.
func readBacktest(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode backtest %s: %w", path, err)
	}
	return out, nil
}
