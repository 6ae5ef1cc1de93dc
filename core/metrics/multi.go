package metrics

import "errors"

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRender forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordRender(ev RenderEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordRender(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordPersist forwards persist events to sinks that support them.
func (m *MultiSink) RecordPersist(ev PersistEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(PersistRecorder); ok {
			if err := rec.RecordPersist(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordEvaluation forwards evaluation reports to sinks that support them.
func (m *MultiSink) RecordEvaluation(ev EvaluationEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(EvaluationRecorder); ok {
			if err := rec.RecordEvaluation(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush flushes every sink that buffers, joining the errors.
func (m *MultiSink) Flush() error {
	var errs []error
	for _, s := range m.Sinks {
		if f, ok := s.(Flusher); ok {
			if err := f.Flush(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close releases sinks holding connections.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
