package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/serplens/serplens/internal/audit"
)

func sampleAudit() *audit.Result {
	avg := 2.5
	return &audit.Result{
		Metadata: audit.Metadata{
			Timestamp:    time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
			TotalQueries: 12,
			TargetBrand:  "Turismo Torino",
		},
		BrandVisibility: audit.BrandVisibility{
			TotalAppearances:     4,
			QueriesWithBrand:     3,
			Top3Appearances:      2,
			Top10Appearances:     4,
			AveragePositionValue: &avg,
			URLsFound:            []audit.BrandURL{},
			ByLanguage:           map[string]int{"it": 3, "en": 1},
			ByIntent:             map[string]int{"informational": 4},
		},
		CompetitorAnalysis: audit.CompetitorAnalysis{
			TotalUniqueDomains: 9,
			TopCompetitors: []audit.Competitor{
				{Domain: "www.comune.torino.it", Appearances: 7, AveragePosition: 3.4, BestPosition: 1, WorstPosition: 9},
			},
		},
		GeoAnalysis: audit.GeoAnalysis{
			ByLanguage: map[string]int{"it": 8, "fr": 2, "en": 2},
			ByLocation: map[string]int{"Italy": 8, "France": 2, "United Kingdom": 2},
		},
		ContentInsights: audit.ContentInsights{
			RelatedSearchesAll: []string{"torino eventi oggi"},
			PeopleAlsoAskAll:   []string{},
			TopRelatedSearches: []audit.QueryCount{{Query: "torino eventi oggi", Count: 1}},
		},
		SERPFeatures: audit.SERPFeatures{
			KnowledgeGraphCount:  5,
			RelatedSearchesCount: 10,
			PeopleAlsoAskCount:   7,
			RichSnippetsCount:    3,
		},
		AIInsights: json.RawMessage(`{"strategic_recommendations":["Publish seasonal event pages"],"seo_opportunities":["Target French queries"]}`),
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleAudit()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"total_queries": 12`) {
		t.Errorf("expected JSON to contain total_queries: 12")
	}
	if !strings.Contains(out, `"target_brand": "Turismo Torino"`) {
		t.Errorf("expected JSON to contain the target brand")
	}

	// Round-trip check: the output must load back into the same structure.
	var back audit.Result
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("round-trip unmarshal: %v", err)
	}
	if back.Metadata.TotalQueries != 12 || back.BrandVisibility.TotalAppearances != 4 {
		t.Errorf("round-trip mismatch: %+v", back.Metadata)
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleAudit()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Queries with brand:  3/12") {
		t.Errorf("expected brand summary line, got:\n%s", out)
	}
	if !strings.Contains(out, "Average position:    2.5") {
		t.Errorf("expected average position line")
	}
	if !strings.Contains(out, "www.comune.torino.it — 7 appearances") {
		t.Errorf("expected competitor line")
	}
}

func TestWriteText_NullAveragePosition(t *testing.T) {
	res := sampleAudit()
	res.BrandVisibility.AveragePositionValue = nil

	var buf bytes.Buffer
	if err := WriteText(&buf, res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "Average position:    N/A") {
		t.Errorf("expected N/A for missing average position")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleAudit()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading CSV back: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header plus 1 row, got %d records", len(records))
	}
	if records[0][0] != "domain" || records[0][2] != "average_position" {
		t.Errorf("header row: %v", records[0])
	}
	want := []string{"www.comune.torino.it", "7", "3.4", "1", "9"}
	for i, cell := range want {
		if records[1][i] != cell {
			t.Errorf("row cell %d = %q, want %q", i, records[1][i], cell)
		}
	}
}

func TestWriteCSV_NoCompetitors(t *testing.T) {
	res := sampleAudit()
	res.CompetitorAnalysis.TopCompetitors = nil

	var buf bytes.Buffer
	if err := WriteCSV(&buf, res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading CSV back: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected header only, got %d records", len(records))
	}
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, sampleAudit()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "<title>SERP Audit — Turismo Torino</title>") {
		t.Errorf("expected HTML title")
	}
	if !strings.Contains(out, "www.comune.torino.it") {
		t.Errorf("expected competitor table row")
	}
	if !strings.Contains(out, "Publish seasonal event pages") {
		t.Errorf("expected AI recommendation section")
	}
	if !strings.Contains(out, "Target French queries") {
		t.Errorf("expected SEO opportunity section")
	}
}

func TestWriteHTML_InsightErrorMarker(t *testing.T) {
	res := sampleAudit()
	res.AIInsights = json.RawMessage(`{"error": "context deadline exceeded"}`)

	var buf bytes.Buffer
	if err := WriteHTML(&buf, res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "AI insights unavailable: context deadline exceeded") {
		t.Errorf("expected insight error notice")
	}
	if strings.Contains(out, "Strategic Recommendations") {
		t.Errorf("recommendation section should be absent on insight failure")
	}
}

func TestWriteHTML_EscapesContent(t *testing.T) {
	res := sampleAudit()
	res.CompetitorAnalysis.TopCompetitors[0].Domain = `<script>alert(1)</script>`

	var buf bytes.Buffer
	if err := WriteHTML(&buf, res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(buf.String(), "<script>alert(1)</script>") {
		t.Errorf("competitor domain was not escaped")
	}
}
