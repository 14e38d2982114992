// Package pipeline orchestrates a full audit run: generate queries, fetch
// one SERP per query, aggregate the records, and persist both artifacts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/serplens/serplens/internal/audit"
	"github.com/serplens/serplens/internal/queries"
	"github.com/serplens/serplens/internal/serp"
	"github.com/serplens/serplens/internal/storage"
	"golang.org/x/sync/errgroup"
)

// checkpointEvery is the number of fetched records between checkpoint saves.
const checkpointEvery = 10

// Config configures a Pipeline.
type Config struct {
	// NumQueries is how many queries to generate for a fresh run.
	NumQueries int
	// Languages the generated queries are balanced across. Defaults to
	// queries.DefaultLanguages.
	Languages []string
	// Concurrency bounds parallel SERP fetches. Defaults to 1, which
	// preserves the provider's own pacing.
	Concurrency int
	Logger      *slog.Logger
}

// Pipeline runs the generate/fetch/audit/store sequence.
type Pipeline struct {
	producer queries.Producer
	provider serp.Provider
	auditor  *audit.Auditor
	backend  storage.Backend
	cfg      Config
	logger   *slog.Logger
}

// New wires a pipeline from its four stages.
func New(producer queries.Producer, provider serp.Provider, auditor *audit.Auditor, backend storage.Backend, cfg Config) *Pipeline {
	if cfg.NumQueries <= 0 {
		cfg.NumQueries = 100
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = queries.DefaultLanguages
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		producer: producer,
		provider: provider,
		auditor:  auditor,
		backend:  backend,
		cfg:      cfg,
		logger:   logger,
	}
}

// RunResult summarizes one pipeline execution.
type RunResult struct {
	RunID   string
	Records []serp.Record
	Audit   *audit.Result
	// Failed counts queries whose fetch errored and were skipped.
	Failed int
}

// Run executes a full audit: generate, fetch, aggregate, persist.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	runID := uuid.New().String()

	qs, err := p.producer.Generate(ctx, p.cfg.NumQueries, p.cfg.Languages)
	if err != nil {
		return nil, fmt.Errorf("generating queries: %w", err)
	}
	p.logger.Info("queries generated", "run_id", runID, "count", len(qs))

	records, failed, err := p.fetchAll(ctx, runID, qs)
	if err != nil {
		return nil, err
	}

	if err := p.backend.SaveRecords(ctx, runID, records); err != nil {
		return nil, fmt.Errorf("saving records: %w", err)
	}

	return p.audit(ctx, runID, records, failed)
}

// Analyze re-runs the aggregation over the records of an existing run and
// replaces its stored audit.
func (p *Pipeline) Analyze(ctx context.Context, runID string) (*RunResult, error) {
	if runID == "" {
		latest, err := p.latestRun(ctx)
		if err != nil {
			return nil, err
		}
		runID = latest
	}

	records, err := p.backend.LoadRecords(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("loading records for run %s: %w", runID, err)
	}

	return p.audit(ctx, runID, records, 0)
}

func (p *Pipeline) audit(ctx context.Context, runID string, records []serp.Record, failed int) (*RunResult, error) {
	res := p.auditor.Run(ctx, records)

	if err := p.backend.SaveAudit(ctx, runID, res); err != nil {
		return nil, fmt.Errorf("saving audit: %w", err)
	}

	p.logger.Info("audit complete",
		"run_id", runID,
		"queries", len(records),
		"failed_fetches", failed,
		"queries_with_brand", res.BrandVisibility.QueriesWithBrand,
	)

	return &RunResult{RunID: runID, Records: records, Audit: res, Failed: failed}, nil
}

// fetchAll fans the queries out to the provider. Failed queries are logged
// and skipped; a checkpoint of the collected records is written every
// checkpointEvery completed fetches so an interrupted run keeps its data.
func (p *Pipeline) fetchAll(ctx context.Context, runID string, qs []serp.QueryMetadata) ([]serp.Record, int, error) {
	var (
		mu      sync.Mutex
		records = make([]serp.Record, 0, len(qs))
		failed  int
		done    int
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	for _, q := range qs {
		q := q
		g.Go(func() error {
			record, err := p.provider.Fetch(ctx, q)

			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				mu.Lock()
				done++
				failed++
				mu.Unlock()
				p.logger.Warn("skipping query after fetch failure",
					"query", q.Query,
					"language", q.Language,
					"error", err.Error(),
				)
				return nil
			}

			// Snapshot under the lock, write the checkpoint after releasing
			// it so other fetches never wait on backend I/O.
			var snapshot []serp.Record
			mu.Lock()
			done++
			records = append(records, *record)
			if done%checkpointEvery == 0 {
				snapshot = make([]serp.Record, len(records))
				copy(snapshot, records)
			}
			progress := fmt.Sprintf("%d/%d", done, len(qs))
			mu.Unlock()

			p.logger.Debug("serp fetched",
				"query", q.Query,
				"progress", progress,
				"organic_results", len(record.OrganicResults),
			)

			if snapshot != nil {
				if err := p.backend.SaveRecords(ctx, runID, snapshot); err != nil {
					p.logger.Warn("checkpoint save failed", "run_id", runID, "error", err.Error())
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("fetching serps: %w", err)
	}
	return records, failed, nil
}

// latestRun returns the ID of the most recently created run.
func (p *Pipeline) latestRun(ctx context.Context) (string, error) {
	runs, err := p.backend.ListRuns(ctx)
	if err != nil {
		return "", fmt.Errorf("listing runs: %w", err)
	}
	if len(runs) == 0 {
		return "", storage.ErrNotFound
	}
	return runs[0].ID, nil
}
