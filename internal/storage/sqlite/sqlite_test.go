package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/serplens/serplens/internal/audit"
	"github.com/serplens/serplens/internal/serp"
	"github.com/serplens/serplens/internal/storage"
)

func newTestBackend(t *testing.T) storage.Backend {
	t.Helper()
	backend, err := New(filepath.Join(t.TempDir(), "serplens.db"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { backend.Close() })
	return backend
}

func TestSQLiteRoundTrip(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	records := []serp.Record{
		{
			Query:    "eventi torino oggi",
			Language: "it",
			Location: "Italy",
			OrganicResults: []serp.OrganicResult{
				{Position: 1, Title: "Eventi a Torino", Link: "https://example.it/eventi"},
				{Position: 2, Title: "Cosa fare oggi", Link: "https://altro.it/oggi"},
			},
		},
	}

	if err := backend.SaveRecords(ctx, "run-1", records); err != nil {
		t.Fatalf("SaveRecords failed: %v", err)
	}

	loaded, err := backend.LoadRecords(ctx, "run-1")
	if err != nil {
		t.Fatalf("LoadRecords failed: %v", err)
	}
	if len(loaded) != 1 || len(loaded[0].OrganicResults) != 2 {
		t.Fatalf("records not preserved: %+v", loaded)
	}
	if loaded[0].Query != "eventi torino oggi" {
		t.Errorf("query = %q", loaded[0].Query)
	}
}

func TestSQLiteUpsert(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	if err := backend.SaveRecords(ctx, "run-1", []serp.Record{{Query: "a"}}); err != nil {
		t.Fatalf("SaveRecords failed: %v", err)
	}
	if err := backend.SaveRecords(ctx, "run-1", []serp.Record{{Query: "a"}, {Query: "b"}}); err != nil {
		t.Fatalf("second SaveRecords failed: %v", err)
	}

	loaded, err := backend.LoadRecords(ctx, "run-1")
	if err != nil {
		t.Fatalf("LoadRecords failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Errorf("expected 2 records after upsert, got %d", len(loaded))
	}

	runs, err := backend.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected a single run, got %d", len(runs))
	}
	if runs[0].Queries != 2 {
		t.Errorf("query count = %d, want 2", runs[0].Queries)
	}
}

func TestSQLiteAudit(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	if _, err := backend.LoadAudit(ctx, "run-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("LoadAudit before save = %v, want ErrNotFound", err)
	}

	if err := backend.SaveRecords(ctx, "run-1", []serp.Record{{Query: "a"}}); err != nil {
		t.Fatalf("SaveRecords failed: %v", err)
	}

	// records saved but no audit yet
	if _, err := backend.LoadAudit(ctx, "run-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("LoadAudit without audit = %v, want ErrNotFound", err)
	}

	res := &audit.Result{}
	res.Metadata.TargetBrand = "VisitTorino"
	res.Metadata.TotalQueries = 1
	if err := backend.SaveAudit(ctx, "run-1", res); err != nil {
		t.Fatalf("SaveAudit failed: %v", err)
	}

	loaded, err := backend.LoadAudit(ctx, "run-1")
	if err != nil {
		t.Fatalf("LoadAudit failed: %v", err)
	}
	if loaded.Metadata.TargetBrand != "VisitTorino" {
		t.Errorf("target brand = %q", loaded.Metadata.TargetBrand)
	}

	runs, err := backend.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 || !runs[0].HasAudit {
		t.Errorf("run should report HasAudit: %+v", runs)
	}
}

func TestSQLiteNotFound(t *testing.T) {
	backend := newTestBackend(t)

	if _, err := backend.LoadRecords(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("LoadRecords error = %v, want ErrNotFound", err)
	}
}
