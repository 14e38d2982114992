// Package postgres stores audit runs in PostgreSQL. Records and audits live
// in JSONB columns so runs can be inspected with plain SQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serplens/serplens/internal/audit"
	"github.com/serplens/serplens/internal/serp"
	"github.com/serplens/serplens/internal/storage"
)

// ensure postgresBackend implements storage.Backend
var _ storage.Backend = (*postgresBackend)(nil)

type postgresBackend struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS audit_runs (
	id TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL,
	query_count INTEGER NOT NULL,
	records JSONB NOT NULL,
	audit JSONB
);
`

// New creates a Postgres-backed storage.Backend.
func New(ctx context.Context, dsn string) (storage.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &postgresBackend{pool: pool}, nil
}

func (b *postgresBackend) SaveRecords(ctx context.Context, runID string, records []serp.Record) error {
	if records == nil {
		records = []serp.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}

	query := `
	INSERT INTO audit_runs (id, created_at, query_count, records)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id) DO UPDATE SET
		query_count = EXCLUDED.query_count,
		records = EXCLUDED.records
	`

	_, err = b.pool.Exec(ctx, query, runID, time.Now().UTC(), len(records), data)
	if err != nil {
		return fmt.Errorf("saving records for run %s: %w", runID, err)
	}
	return nil
}

func (b *postgresBackend) LoadRecords(ctx context.Context, runID string) ([]serp.Record, error) {
	var data []byte
	err := b.pool.QueryRow(ctx, `SELECT records FROM audit_runs WHERE id = $1`, runID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading records for run %s: %w", runID, err)
	}

	var records []serp.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding records for run %s: %w", runID, err)
	}
	return records, nil
}

func (b *postgresBackend) SaveAudit(ctx context.Context, runID string, res *audit.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encoding audit: %w", err)
	}

	query := `
	INSERT INTO audit_runs (id, created_at, query_count, records, audit)
	VALUES ($1, $2, $3, '[]'::jsonb, $4)
	ON CONFLICT (id) DO UPDATE SET audit = EXCLUDED.audit
	`

	_, err = b.pool.Exec(ctx, query, runID, time.Now().UTC(), res.Metadata.TotalQueries, data)
	if err != nil {
		return fmt.Errorf("saving audit for run %s: %w", runID, err)
	}
	return nil
}

func (b *postgresBackend) LoadAudit(ctx context.Context, runID string) (*audit.Result, error) {
	var data []byte
	err := b.pool.QueryRow(ctx, `SELECT audit FROM audit_runs WHERE id = $1`, runID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading audit for run %s: %w", runID, err)
	}
	if data == nil {
		return nil, storage.ErrNotFound
	}

	var res audit.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decoding audit for run %s: %w", runID, err)
	}
	return &res, nil
}

func (b *postgresBackend) ListRuns(ctx context.Context) ([]storage.RunInfo, error) {
	rows, err := b.pool.Query(ctx,
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

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}
