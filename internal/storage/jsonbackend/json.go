// Package jsonbackend stores audit runs as plain JSON files in a directory,
// mirroring the serp_results_<run>.json / audit_<run>.json layout earlier
// tooling produced, so those files round-trip unchanged.
package jsonbackend

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/serplens/serplens/internal/audit"
	"github.com/serplens/serplens/internal/serp"
	"github.com/serplens/serplens/internal/storage"
)

// ensure jsonBackend implements storage.Backend
var _ storage.Backend = (*jsonBackend)(nil)

const (
	recordsPrefix = "serp_results_"
	auditPrefix   = "audit_"
	suffix        = ".json"
)

type jsonBackend struct {
	mu  sync.Mutex
	dir string
}

// New creates a JSON-file-backed storage.Backend rooted at dir, creating the
// directory if needed.
func New(dir string) (storage.Backend, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating storage dir: %w", err)
	}
	return &jsonBackend{dir: dir}, nil
}

func (b *jsonBackend) recordsPath(runID string) string {
	return filepath.Join(b.dir, recordsPrefix+runID+suffix)
}

func (b *jsonBackend) auditPath(runID string) string {
	return filepath.Join(b.dir, auditPrefix+runID+suffix)
}

// writeJSON writes v atomically: temp file then rename, so a crashed
// checkpoint never leaves a truncated run file behind.
func (b *jsonBackend) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (b *jsonBackend) SaveRecords(ctx context.Context, runID string, records []serp.Record) error {
	if records == nil {
		records = []serp.Record{}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writeJSON(b.recordsPath(runID), records)
}

func (b *jsonBackend) LoadRecords(ctx context.Context, runID string) ([]serp.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := os.ReadFile(b.recordsPath(runID))
	if os.IsNotExist(err) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading records for run %s: %w", runID, err)
	}

	var records []serp.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding records for run %s: %w", runID, err)
	}
	return records, nil
}

func (b *jsonBackend) SaveAudit(ctx context.Context, runID string, res *audit.Result) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writeJSON(b.auditPath(runID), res)
}

func (b *jsonBackend) LoadAudit(ctx context.Context, runID string) (*audit.Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := os.ReadFile(b.auditPath(runID))
	if os.IsNotExist(err) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading audit for run %s: %w", runID, err)
	}

	var res audit.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decoding audit for run %s: %w", runID, err)
	}
	return &res, nil
}

func (b *jsonBackend) ListRuns(ctx context.Context) ([]storage.RunInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, fmt.Errorf("listing storage dir: %w", err)
	}

	var runs []storage.RunInfo
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, recordsPrefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		runID := strings.TrimSuffix(strings.TrimPrefix(name, recordsPrefix), suffix)
		if runID == "" {
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}

		// Count queries without materializing every record.
		count := 0
		if data, err := os.ReadFile(filepath.Join(b.dir, name)); err == nil {
			var raw []json.RawMessage
			if json.Unmarshal(data, &raw) == nil {
				count = len(raw)
			}
		}

		_, statErr := os.Stat(b.auditPath(runID))

		runs = append(runs, storage.RunInfo{
			ID:        runID,
			CreatedAt: info.ModTime(),
			Queries:   count,
			HasAudit:  statErr == nil,
		})
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	return runs, nil
}

func (b *jsonBackend) Close() error {
	return nil
}
