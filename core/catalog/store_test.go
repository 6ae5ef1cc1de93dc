package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func records() []RunRecord {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []RunRecord{
		{ID: "a", Name: "backtest-a", JobID: 307, Model: "xgb", Rows: 96, Levels: []int{10, 50, 90}, CreatedAt: base},
		{ID: "b", Name: "backtest-b", JobID: 307, Model: "lgb", Rows: 48, CreatedAt: base.Add(time.Hour)},
		{ID: "c", Name: "backtest-a", JobID: 313, Model: "xgb", Rows: 96, CreatedAt: base.Add(2 * time.Hour)},
	}
}

func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	// appended out of order on purpose
	recs := records()
	for _, i := range []int{2, 0, 1} {
		if err := s.Append(ctx, recs[i]); err != nil {
			t.Fatalf("append %s: %v", recs[i].ID, err)
		}
	}
	cases := []struct {
		name string
		q    Query
		want []string
	}{
		{"all", Query{}, []string{"a", "b", "c"}},
		{"by name", Query{Name: "backtest-a"}, []string{"a", "c"}},
		{"by job", Query{JobID: 307}, []string{"a", "b"}},
		{"window", Query{Start: recs[1].CreatedAt, End: recs[2].CreatedAt}, []string{"b", "c"}},
		{"none", Query{Name: "missing"}, nil},
	}
	for _, c := range cases {
		out, err := s.Query(ctx, c.q)
		if err != nil {
			t.Fatalf("%s: query: %v", c.name, err)
		}
		if len(out) != len(c.want) {
			t.Fatalf("%s: expected %d records, got %d", c.name, len(c.want), len(out))
		}
		for i, id := range c.want {
			if out[i].ID != id {
				t.Fatalf("%s: record %d is %s, want %s", c.name, i, out[i].ID, id)
			}
		}
	}
	out, _ := s.Query(ctx, Query{Name: "backtest-a", JobID: 307})
	if len(out) != 1 || len(out[0].Levels) != 3 || !out[0].CreatedAt.Equal(recs[0].CreatedAt) {
		t.Fatalf("record not restored: %+v", out)
	}
}

func TestJSONLStore(t *testing.T) {
	s, err := NewJSONLStore(filepath.Join(t.TempDir(), "runs.jsonl"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = s.Close() }()
	exercise(t, s)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore("file:catalog_test.db?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = s.Close() }()
	exercise(t, s)
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	for _, backend := range []string{"", "jsonl", "sqlite"} {
		s, err := New(backend, filepath.Join(dir, "runs-"+backend))
		if err != nil {
			t.Fatalf("%q: %v", backend, err)
		}
		_ = s.Close()
	}
	if _, err := New("redis", "x"); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
