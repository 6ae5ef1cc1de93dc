// Package catalog indexes persisted forecast runs so they can be listed and
// looked up after the fact.
package catalog

import (
	"context"
	"fmt"
	"time"
)

// RunRecord describes one persisted run.
type RunRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	JobID     int       `json:"job_id"`
	JobName   string    `json:"job_name"`
	Model     string    `json:"model"`
	Dir       string    `json:"dir"`
	Rows      int       `json:"rows"`
	Levels    []int     `json:"levels"`
	CreatedAt time.Time `json:"created_at"`
}

// Query defines filters for retrieving records. Zero values match everything.
type Query struct {
	Name  string
	JobID int
	Start time.Time
	End   time.Time
}

func (q Query) match(r RunRecord) bool {
	if q.Name != "" && r.Name != q.Name {
		return false
	}
	if q.JobID != 0 && r.JobID != q.JobID {
		return false
	}
	if !q.Start.IsZero() && r.CreatedAt.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.CreatedAt.After(q.End) {
		return false
	}
	return true
}

// Store persists RunRecords and supports querying.
type Store interface {
	Append(ctx context.Context, rec RunRecord) error
	Query(ctx context.Context, q Query) ([]RunRecord, error)
	Close() error
}

// New opens the store for backend "jsonl" or "sqlite" at path.
func New(backend, path string) (Store, error) {
	switch backend {
	case "", "jsonl":
		return NewJSONLStore(path)
	case "sqlite":
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown catalog backend %s", backend)
	}
}
