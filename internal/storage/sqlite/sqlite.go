// Package sqlite stores audit runs in a single-file SQLite database. Records
// and audits are kept as JSON text so the stored shape matches the wire
// contract exactly.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/serplens/serplens/internal/audit"
	"github.com/serplens/serplens/internal/serp"
	"github.com/serplens/serplens/internal/storage"
	_ "modernc.org/sqlite"
)

// ensure sqliteBackend implements storage.Backend
var _ storage.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS audit_runs (
	id TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL,
	query_count INTEGER NOT NULL,
	records TEXT NOT NULL,
	audit TEXT
);
`

// New creates a SQLite-backed storage.Backend.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) SaveRecords(ctx context.Context, runID string, records []serp.Record) error {
	if records == nil {
		records = []serp.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}

	query := `
	INSERT INTO audit_runs (id, created_at, query_count, records)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		query_count = excluded.query_count,
		records = excluded.records
	`

	_, err = b.db.ExecContext(ctx, query, runID, time.Now().UTC(), len(records), string(data))
	if err != nil {
		return fmt.Errorf("saving records for run %s: %w", runID, err)
	}
	return nil
}

func (b *sqliteBackend) LoadRecords(ctx context.Context, runID string) ([]serp.Record, error) {
	var data string
	err := b.db.QueryRowContext(ctx, `SELECT records FROM audit_runs WHERE id = ?`, runID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading records for run %s: %w", runID, err)
	}

	var records []serp.Record
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		return nil, fmt.Errorf("decoding records for run %s: %w", runID, err)
	}
	return records, nil
}

func (b *sqliteBackend) SaveAudit(ctx context.Context, runID string, res *audit.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encoding audit: %w", err)
	}

	query := `
	INSERT INTO audit_runs (id, created_at, query_count, records, audit)
	VALUES (?, ?, ?, '[]', ?)
	ON CONFLICT(id) DO UPDATE SET audit = excluded.audit
	`

	_, err = b.db.ExecContext(ctx, query, runID, time.Now().UTC(), res.Metadata.TotalQueries, string(data))
	if err != nil {
		return fmt.Errorf("saving audit for run %s: %w", runID, err)
	}
	return nil
}

func (b *sqliteBackend) LoadAudit(ctx context.Context, runID string) (*audit.Result, error) {
	var data sql.NullString
	err := b.db.QueryRowContext(ctx, `SELECT audit FROM audit_runs WHERE id = ?`, runID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading audit for run %s: %w", runID, err)
	}
	if !data.Valid {
		return nil, storage.ErrNotFound
	}

	var res audit.Result
	if err := json.Unmarshal([]byte(data.String), &res); err != nil {
		return nil, fmt.Errorf("decoding audit for run %s: %w", runID, err)
	}
	return &res, nil
}

func (b *sqliteBackend) ListRuns(ctx context.Context) ([]storage.RunInfo, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT id, created_at, query_count, audit IS NOT NULL FROM audit_runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []storage.RunInfo
	for rows.Next() {
		var r storage.RunInfo
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Queries, &r.HasAudit); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating run rows: %w", err)
	}
	return runs, nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}
