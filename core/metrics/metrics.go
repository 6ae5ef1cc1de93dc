package metrics

import "time"

// RenderEvent describes one rendered chart.
type RenderEvent struct {
	Run     string
	Horizon float64
	Bands   int
	Traces  int
	Points  int
	Format  string
	Time    time.Time
}

// MetricsSink records forecast rendering and persistence for observability purposes.
type MetricsSink interface {
	RecordRender(ev RenderEvent) error
}

// PersistEvent captures a run written to disk.
type PersistEvent struct {
	Run   string
	JobID int
	Model string
	Rows  int
	Files int
	Bytes int64
	Dir   string
	Time  time.Time
}

// PersistRecorder records persisted runs.
type PersistRecorder interface {
	RecordPersist(ev PersistEvent) error
}

// EvaluationEvent holds the scores of a run against realized values.
type EvaluationEvent struct {
	Run  string
	MAE  float64
	RMSE float64
	// Coverage maps a band label to the share of realized values inside it.
	Coverage map[string]float64
	// Pinball maps a quantile level to its mean pinball loss.
	Pinball map[int]float64
	Time    time.Time
}

// EvaluationRecorder records evaluation reports.
type EvaluationRecorder interface {
	RecordEvaluation(ev EvaluationEvent) error
}

// Flusher is implemented by sinks that buffer or push on demand.
type Flusher interface {
	Flush() error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordRender(RenderEvent) error         { return nil }
func (NopSink) RecordPersist(PersistEvent) error       { return nil }
func (NopSink) RecordEvaluation(EvaluationEvent) error { return nil }
