package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/serplens/serplens/internal/metrics"
	"github.com/serplens/serplens/internal/serp"
)

// Sampling bounds for the insight stage: the generator never sees the full
// dataset, only the first sampleQueries query strings and, for the first
// sampleRecords records, the titles of the top sampleTitles organic results.
const (
	sampleQueries = 10
	sampleRecords = 5
	sampleTitles  = 3
)

// SampleResult is one record's contribution to the insight sample.
type SampleResult struct {
	Query     string   `json:"query"`
	Language  string   `json:"language,omitempty"`
	TopTitles []string `json:"top_3_titles"`
}

// Sample is the bounded view of the input handed to the insight generator.
type Sample struct {
	TotalQueries     int            `json:"total_queries"`
	SampleQueries    []string       `json:"sample_queries"`
	SampleTopResults []SampleResult `json:"sample_top_results"`
}

// InsightGenerator produces free-text strategic recommendations from a
// bounded sample of the audit input. Implementations are fallible and
// non-deterministic; callers must treat any error as non-fatal.
type InsightGenerator interface {
	Generate(ctx context.Context, sample Sample, targetBrand string) (json.RawMessage, error)
}

// BuildSample extracts the bounded insight sample from the records.
func BuildSample(records []serp.Record) Sample {
	sample := Sample{
		TotalQueries:     len(records),
		SampleQueries:    []string{},
		SampleTopResults: []SampleResult{},
	}

	for i := 0; i < len(records) && i < sampleQueries; i++ {
		sample.SampleQueries = append(sample.SampleQueries, records[i].Query)
	}

	for i := 0; i < len(records) && i < sampleRecords; i++ {
		rec := records[i]
		sr := SampleResult{
			Query:     rec.Query,
			Language:  rec.Language,
			TopTitles: []string{},
		}
		for j := 0; j < len(rec.OrganicResults) && j < sampleTitles; j++ {
			sr.TopTitles = append(sr.TopTitles, rec.OrganicResults[j].Title)
		}
		sample.SampleTopResults = append(sample.SampleTopResults, sr)
	}

	return sample
}

// generateInsights runs the optional insight stage under its own timeout.
// Every failure path degrades to an {"error": ...} marker so the rest of the
// audit is never blocked or aborted by the external service.
func (a *Auditor) generateInsights(ctx context.Context, records []serp.Record) json.RawMessage {
	if a.cfg.Insight == nil {
		return insightError(fmt.Errorf("no insight generator configured"))
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.InsightTimeout)
	defer cancel()

	insights, err := a.cfg.Insight.Generate(ctx, BuildSample(records), a.cfg.TargetBrand)
	if err != nil {
		a.logger.Warn("insight generation failed", "err", err)
		metrics.InsightFailures.Inc()
		return insightError(err)
	}
	if len(insights) == 0 || !json.Valid(insights) {
		a.logger.Warn("insight generation returned invalid JSON")
		metrics.InsightFailures.Inc()
		return insightError(fmt.Errorf("generator returned invalid JSON"))
	}
	return insights
}

// insightError encodes a failure as the {"error": ...} marker the output
// contract requires.
func insightError(err error) json.RawMessage {
	marker, mErr := json.Marshal(map[string]string{"error": err.Error()})
	if mErr != nil {
		return json.RawMessage(`{"error": "insight generation failed"}`)
	}
	return marker
}
