//go:build integration

package test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/serplens/serplens/internal/audit"
	"github.com/serplens/serplens/internal/openai"
	"github.com/serplens/serplens/internal/pipeline"
	"github.com/serplens/serplens/internal/queries"
	"github.com/serplens/serplens/internal/report"
	"github.com/serplens/serplens/internal/serp/serpapi"
	"github.com/serplens/serplens/internal/storage/jsonbackend"
)

// fakeOpenAI answers both the query-generation and the insight prompts.
func fakeOpenAI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding openai request: %v", err)
		}

		var content string
		if len(req.Messages) > 1 && strings.Contains(req.Messages[1].Content, "strategic analysis") {
			content = `{"visibility_assessment":"poor","seo_opportunities":["target event keywords"],"content_gaps":["no english pages"],"strategic_recommendations":["publish an events calendar"],"competitive_threats":["eventbrite dominates"]}`
		} else {
			content = `{"queries":[
				{"query":"eventi torino oggi","language":"it","location":"Torino","intent":"informational","topic":"cultural events"},
				{"query":"things to do in turin","language":"en","location":"Turin","intent":"informational","topic":"tourist attractions"},
				{"query":"que faire a turin ce weekend","language":"fr","location":"Turin","intent":"informational","topic":"cultural events"}
			]}`
		}

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// fakeSerpAPI serves a fixed result page for every query.
func fakeSerpAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		resp := map[string]any{
			"organic_results": []map[string]any{
				{"position": 1, "title": "VisitTorino - " + q, "link": "https://www.visittorino.it/eventi", "snippet": "Eventi a Torino."},
				{"position": 2, "title": "Eventbrite Torino", "link": "https://www.eventbrite.it/torino", "snippet": "Biglietti ed eventi."},
			},
			"related_searches": []map[string]any{
				{"query": q + " gratis"},
			},
			"related_questions": []map[string]any{
				{"question": "Cosa fare a Torino oggi?"},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestIntegration_FullAuditRun(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	llm, err := openai.New(openai.Config{APIKey: "test", BaseURL: fakeOpenAI(t).URL})
	if err != nil {
		t.Fatalf("openai client: %v", err)
	}

	provider, err := serpapi.New(serpapi.Config{
		APIKey:  "test",
		BaseURL: fakeSerpAPI(t).URL,
		Logger:  logger,
	})
	if err != nil {
		t.Fatalf("serpapi client: %v", err)
	}
	defer provider.Close()

	backend, err := jsonbackend.New(t.TempDir())
	if err != nil {
		t.Fatalf("backend: %v", err)
	}
	defer backend.Close()

	producer := queries.NewGenerator(llm, queries.GeneratorConfig{Logger: logger})
	auditor := audit.New(audit.Config{
		TargetBrand: "VisitTorino",
		Insight:     openai.NewInsightClient(llm),
		Logger:      logger,
	})

	p := pipeline.New(producer, provider, auditor, backend, pipeline.Config{
		NumQueries:  3,
		Concurrency: 2,
		Logger:      logger,
	})

	res, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("pipeline run failed: %v", err)
	}

	if len(res.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(res.Records))
	}
	if res.Audit.BrandVisibility.QueriesWithBrand != 3 {
		t.Errorf("queries with brand = %d, want 3", res.Audit.BrandVisibility.QueriesWithBrand)
	}
	if res.Audit.BrandVisibility.Top3Appearances != 3 {
		t.Errorf("top3 = %d, want 3", res.Audit.BrandVisibility.Top3Appearances)
	}
	if len(res.Audit.CompetitorAnalysis.TopCompetitors) == 0 {
		t.Error("expected competitors in the audit")
	}

	var insights map[string]any
	if err := json.Unmarshal(res.Audit.AIInsights, &insights); err != nil {
		t.Fatalf("ai insights not valid JSON: %v", err)
	}
	if insights["visibility_assessment"] != "poor" {
		t.Errorf("insights = %v", insights)
	}

	// stored audit renders through every report format
	stored, err := backend.LoadAudit(ctx, res.RunID)
	if err != nil {
		t.Fatalf("loading stored audit: %v", err)
	}

	var sb strings.Builder
	if err := report.WriteText(&sb, stored); err != nil {
		t.Fatalf("text report: %v", err)
	}
	if !strings.Contains(sb.String(), "VisitTorino") {
		t.Errorf("text report missing brand: %s", sb.String())
	}

	sb.Reset()
	if err := report.WriteHTML(&sb, stored); err != nil {
		t.Fatalf("html report: %v", err)
	}
	if !strings.Contains(sb.String(), "publish an events calendar") {
		t.Error("html report missing AI recommendation")
	}

	sb.Reset()
	if err := report.WriteJSON(&sb, stored); err != nil {
		t.Fatalf("json report: %v", err)
	}
}
