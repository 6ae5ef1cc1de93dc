package metrics

import (
	"errors"
	"testing"
)

type recordSink struct {
	renders  int
	persists int
	flushErr error
}

func (r *recordSink) RecordRender(RenderEvent) error {
	r.renders++
	return nil
}

func (r *recordSink) RecordPersist(PersistEvent) error {
	r.persists++
	return nil
}

func (r *recordSink) Flush() error { return r.flushErr }

// renderOnly implements no optional recorder.
type renderOnly struct{ renders int }

func (r *renderOnly) RecordRender(RenderEvent) error {
	r.renders++
	return nil
}

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &renderOnly{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordRender(RenderEvent{}); err != nil {
		t.Fatalf("record render: %v", err)
	}
	if err := m.RecordPersist(PersistEvent{}); err != nil {
		t.Fatalf("record persist: %v", err)
	}
	if err := m.RecordEvaluation(EvaluationEvent{}); err != nil {
		t.Fatalf("record evaluation: %v", err)
	}
	if s1.renders != 1 || s2.renders != 1 {
		t.Fatalf("renders not forwarded")
	}
	if s1.persists != 1 {
		t.Fatalf("persist not forwarded")
	}
}

func TestMultiSink_Flush(t *testing.T) {
	boom := errors.New("boom")
	m := NewMultiSink(&recordSink{}, &recordSink{flushErr: boom}, &renderOnly{})
	if err := m.Flush(); !errors.Is(err, boom) {
		t.Fatalf("expected flush error, got %v", err)
	}
}
