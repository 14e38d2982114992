package audit

import (
	"testing"

	"github.com/serplens/serplens/internal/serp"
)

func TestAnalyzeCompetitors(t *testing.T) {
	records := []serp.Record{
		{
			OrganicResults: []serp.OrganicResult{
				{Position: 1, Link: "https://www.comune.torino.it/eventi"},
				{Position: 2, Link: "https://turismotorino.org/"},
				{Position: 3, Link: "https://www.comune.torino.it/musei"},
			},
		},
		{
			OrganicResults: []serp.OrganicResult{
				{Position: 1, Link: "https://turismotorino.org/en"},
				{Position: 5, Link: "https://www.comune.torino.it/"},
			},
		},
	}

	ca := analyzeCompetitors(records)

	if ca.TotalUniqueDomains != 2 {
		t.Fatalf("total_unique_domains = %d, want 2", ca.TotalUniqueDomains)
	}
	if len(ca.TopCompetitors) != 2 {
		t.Fatalf("top_competitors length = %d, want 2", len(ca.TopCompetitors))
	}

	top := ca.TopCompetitors[0]
	if top.Domain != "www.comune.torino.it" {
		t.Errorf("top competitor = %q, want www.comune.torino.it", top.Domain)
	}
	if top.Appearances != 3 {
		t.Errorf("appearances = %d, want 3", top.Appearances)
	}
	if top.BestPosition != 1 || top.WorstPosition != 5 {
		t.Errorf("positions best=%d worst=%d, want 1/5", top.BestPosition, top.WorstPosition)
	}
	if top.AveragePosition != 3.0 {
		t.Errorf("average_position = %v, want 3.0", top.AveragePosition)
	}

	// Tally conservation: appearances sum to the count of linked results.
	sum := 0
	for _, c := range ca.TopCompetitors {
		sum += c.Appearances
	}
	if sum != 5 {
		t.Errorf("appearance sum = %d, want 5", sum)
	}
}

func TestAnalyzeCompetitors_NoNormalization(t *testing.T) {
	// www. and m. hosts are distinct domains, per the porting contract.
	records := []serp.Record{
		{
			OrganicResults: []serp.OrganicResult{
				{Position: 1, Link: "https://www.example.com/a"},
				{Position: 2, Link: "https://m.example.com/a"},
				{Position: 3, Link: "https://example.com/a"},
			},
		},
	}

	ca := analyzeCompetitors(records)
	if ca.TotalUniqueDomains != 3 {
		t.Errorf("total_unique_domains = %d, want 3", ca.TotalUniqueDomains)
	}
}

func TestAnalyzeCompetitors_SkipsUnusableLinks(t *testing.T) {
	records := []serp.Record{
		{
			OrganicResults: []serp.OrganicResult{
				{Position: 1, Link: ""},
				{Position: 2, Link: "::not a url::"},
				{Position: 3, Link: "/relative/path"},
				{Position: 4, Link: "https://ok.example.com/"},
			},
		},
		{}, // record with no organic results contributes nothing
	}

	ca := analyzeCompetitors(records)
	if ca.TotalUniqueDomains != 1 {
		t.Fatalf("total_unique_domains = %d, want 1", ca.TotalUniqueDomains)
	}
	if ca.TopCompetitors[0].Domain != "ok.example.com" {
		t.Errorf("domain = %q, want ok.example.com", ca.TopCompetitors[0].Domain)
	}
}

func TestAnalyzeCompetitors_SentinelAndCap(t *testing.T) {
	// A missing position defaults to the 999 sentinel and is included in the
	// per-domain stats.
	records := []serp.Record{
		{
			OrganicResults: []serp.OrganicResult{
				{Position: 2, Link: "https://a.example/x"},
				{Link: "https://a.example/y"},
			},
		},
	}

	ca := analyzeCompetitors(records)
	c := ca.TopCompetitors[0]
	if c.BestPosition != 2 {
		t.Errorf("best_position = %d, want 2", c.BestPosition)
	}
	if c.WorstPosition != serp.SentinelPosition {
		t.Errorf("worst_position = %d, want %d", c.WorstPosition, serp.SentinelPosition)
	}
	want := float64(2+serp.SentinelPosition) / 2
	if c.AveragePosition != want {
		t.Errorf("average_position = %v, want %v", c.AveragePosition, want)
	}

	// Cap at 20 domains, ranked by appearances descending.
	var many []serp.OrganicResult
	for i := 0; i < 25; i++ {
		link := "https://site" + string(rune('a'+i)) + ".example/"
		many = append(many, serp.OrganicResult{Position: i + 1, Link: link})
		if i < 5 {
			// First five domains appear twice so ranking is observable.
			many = append(many, serp.OrganicResult{Position: i + 1, Link: link})
		}
	}
	ca = analyzeCompetitors([]serp.Record{{OrganicResults: many}})

	if ca.TotalUniqueDomains != 25 {
		t.Errorf("total_unique_domains = %d, want 25", ca.TotalUniqueDomains)
	}
	if len(ca.TopCompetitors) != maxCompetitors {
		t.Errorf("top_competitors length = %d, want %d", len(ca.TopCompetitors), maxCompetitors)
	}
	for i := 0; i < 5; i++ {
		if ca.TopCompetitors[i].Appearances != 2 {
			t.Errorf("rank %d appearances = %d, want 2", i, ca.TopCompetitors[i].Appearances)
		}
	}
	for i := 1; i < len(ca.TopCompetitors); i++ {
		if ca.TopCompetitors[i].Appearances > ca.TopCompetitors[i-1].Appearances {
			t.Errorf("ranking not descending at %d", i)
		}
	}
}

func TestAnalyzeCompetitors_Empty(t *testing.T) {
	ca := analyzeCompetitors(nil)
	if ca.TotalUniqueDomains != 0 {
		t.Errorf("total_unique_domains = %d, want 0", ca.TotalUniqueDomains)
	}
	if len(ca.TopCompetitors) != 0 {
		t.Errorf("top_competitors length = %d, want 0", len(ca.TopCompetitors))
	}
}
