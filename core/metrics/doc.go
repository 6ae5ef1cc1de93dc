// Package metrics defines the sinks recording chart renders, persisted runs and
// evaluation scores. Sinks implement MetricsSink and may opt into the
// PersistRecorder, EvaluationRecorder and Flusher interfaces. NewMetricsSink
// builds sinks from configuration and wraps several of them in a MultiSink.
package metrics
