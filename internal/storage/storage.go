// Package storage persists audit runs: the SERP records fetched for a run
// and, once aggregation completes, the audit result. Records are stored in
// the same JSON shape the fetchers produce so any previously saved result
// file remains loadable.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/serplens/serplens/internal/audit"
	"github.com/serplens/serplens/internal/serp"
)

// ErrNotFound is returned when a run, its records, or its audit do not exist.
var ErrNotFound = errors.New("run not found")

// RunInfo summarizes one stored audit run.
type RunInfo struct {
	ID        string
	CreatedAt time.Time
	Queries   int
	HasAudit  bool
}

// Backend stores and retrieves audit runs. SaveRecords may be called several
// times for the same run (the pipeline checkpoints partial progress); the
// last call wins.
type Backend interface {
	SaveRecords(ctx context.Context, runID string, records []serp.Record) error
	LoadRecords(ctx context.Context, runID string) ([]serp.Record, error)
	SaveAudit(ctx context.Context, runID string, res *audit.Result) error
	LoadAudit(ctx context.Context, runID string) (*audit.Result, error)
	// ListRuns returns all known runs, most recent first.
	ListRuns(ctx context.Context) ([]RunInfo, error)
	Close() error
}
