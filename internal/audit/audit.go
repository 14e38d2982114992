// Package audit is the aggregation engine: it runs five deterministic
// analyzers plus an optional AI-insight stage over one immutable collection
// of SERP records and merges their outputs into a single Result. The engine
// has no fatal internal errors; for any well-typed input, however empty, it
// returns a structurally complete Result.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/serplens/serplens/internal/metrics"
	"github.com/serplens/serplens/internal/serp"
	"golang.org/x/sync/errgroup"
)

// DefaultInsightTimeout bounds the AI-insight stage so its latency cannot
// block the deterministic analyzers' results.
const DefaultInsightTimeout = 60 * time.Second

// Metadata describes an audit run.
type Metadata struct {
	Timestamp    time.Time `json:"timestamp"`
	TotalQueries int       `json:"total_queries"`
	TargetBrand  string    `json:"target_brand"`
}

// Result is the engine's sole output, serializable to the JSON contract the
// report renderer consumes.
type Result struct {
	Metadata           Metadata           `json:"metadata"`
	BrandVisibility    BrandVisibility    `json:"brand_visibility"`
	CompetitorAnalysis CompetitorAnalysis `json:"competitor_analysis"`
	GeoAnalysis        GeoAnalysis        `json:"geo_analysis"`
	ContentInsights    ContentInsights    `json:"content_insights"`
	SERPFeatures       SERPFeatures       `json:"serp_features"`
	AIInsights         json.RawMessage    `json:"ai_insights"`
}

// Config configures an Auditor.
type Config struct {
	// TargetBrand is the brand name reported in the audit metadata.
	TargetBrand string
	// BrandKeywords are the case-insensitive match strings for brand
	// detection. When empty they are derived from TargetBrand (lowercase
	// plus its no-space variant).
	BrandKeywords []string
	// Insight optionally generates free-text strategic recommendations from
	// a bounded sample of the input. Its failure never aborts the run.
	Insight InsightGenerator
	// InsightTimeout bounds the insight stage; zero means DefaultInsightTimeout.
	InsightTimeout time.Duration
	Logger         *slog.Logger
}

// Auditor aggregates SERP records into audit results.
type Auditor struct {
	cfg      Config
	keywords []string
	logger   *slog.Logger
}

// New creates an Auditor. Brand keywords are normalized to lowercase once at
// construction.
func New(cfg Config) *Auditor {
	if cfg.InsightTimeout <= 0 {
		cfg.InsightTimeout = DefaultInsightTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{
		cfg:      cfg,
		keywords: normalizeKeywords(cfg.TargetBrand, cfg.BrandKeywords),
		logger:   logger,
	}
}

// Run aggregates the given records into exactly one Result. The five
// analyzers share no mutable state, so they run concurrently over the same
// read-only slice; the insight stage runs alongside them under its own
// timeout and degrades to an error marker on failure.
func (a *Auditor) Run(ctx context.Context, records []serp.Record) *Result {
	a.logger.Info("starting audit", "queries", len(records), "brand", a.cfg.TargetBrand)

	res := &Result{
		Metadata: Metadata{
			Timestamp:    time.Now().UTC(),
			TotalQueries: len(records),
			TargetBrand:  a.cfg.TargetBrand,
		},
	}

	var g errgroup.Group

	g.Go(func() error {
		defer a.observeStage("brand_visibility", time.Now())
		res.BrandVisibility = analyzeBrandVisibility(records, a.keywords)
		return nil
	})
	g.Go(func() error {
		defer a.observeStage("competitor_analysis", time.Now())
		res.CompetitorAnalysis = analyzeCompetitors(records)
		return nil
	})
	g.Go(func() error {
		defer a.observeStage("geo_analysis", time.Now())
		res.GeoAnalysis = analyzeGeoDistribution(records)
		return nil
	})
	g.Go(func() error {
		defer a.observeStage("content_insights", time.Now())
		res.ContentInsights = analyzeContentInsights(records)
		return nil
	})
	g.Go(func() error {
		defer a.observeStage("serp_features", time.Now())
		res.SERPFeatures = analyzeSERPFeatures(records)
		return nil
	})
	g.Go(func() error {
		defer a.observeStage("ai_insights", time.Now())
		res.AIInsights = a.generateInsights(ctx, records)
		return nil
	})

	_ = g.Wait() // analyzers never fail; insight errors become markers

	a.logger.Info("audit complete",
		"queries_with_brand", res.BrandVisibility.QueriesWithBrand,
		"total_appearances", res.BrandVisibility.TotalAppearances,
		"unique_domains", res.CompetitorAnalysis.TotalUniqueDomains,
	)

	return res
}

// observeStage records one analyzer stage's duration.
func (a *Auditor) observeStage(stage string, start time.Time) {
	elapsed := time.Since(start)
	metrics.ObserveStage(stage, elapsed)
	a.logger.Debug("analyzer stage done", "stage", stage, "duration", elapsed)
}
