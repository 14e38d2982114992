package audit

import (
	"net/url"
	"sort"

	"github.com/serplens/serplens/internal/serp"
)

// maxCompetitors caps the ranking table.
const maxCompetitors = 20

// Competitor aggregates one domain's presence across all records.
type Competitor struct {
	Domain          string  `json:"domain"`
	Appearances     int     `json:"appearances"`
	AveragePosition float64 `json:"average_position"`
	BestPosition    int     `json:"best_position"`
	WorstPosition   int     `json:"worst_position"`
}

// CompetitorAnalysis ranks the domains observed in organic results.
type CompetitorAnalysis struct {
	TotalUniqueDomains int          `json:"total_unique_domains"`
	TopCompetitors     []Competitor `json:"top_competitors"`
}

type domainStats struct {
	count     int
	positions []int
}

// analyzeCompetitors tallies appearance counts and positions per domain. The
// domain is the URL host as parsed, with no www-stripping or case folding:
// www.example.com and m.example.com count separately. Results without a link
// or with an unparsable link are silently skipped. Ties in the ranking keep
// first-encountered order.
func analyzeCompetitors(records []serp.Record) CompetitorAnalysis {
	stats := make(map[string]*domainStats)
	var order []string // first-seen domain order, for stable tie-breaking

	for _, rec := range records {
		for _, r := range rec.OrganicResults {
			if r.Link == "" {
				continue
			}
			u, err := url.Parse(r.Link)
			if err != nil || u.Host == "" {
				continue
			}
			domain := u.Host

			s, ok := stats[domain]
			if !ok {
				s = &domainStats{}
				stats[domain] = s
				order = append(order, domain)
			}
			s.count++
			s.positions = append(s.positions, r.Rank())
		}
	}

	ranked := make([]string, len(order))
	copy(ranked, order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return stats[ranked[i]].count > stats[ranked[j]].count
	})
	if len(ranked) > maxCompetitors {
		ranked = ranked[:maxCompetitors]
	}

	top := make([]Competitor, 0, len(ranked))
	for _, domain := range ranked {
		s := stats[domain]

		sum, best, worst := 0, s.positions[0], s.positions[0]
		for _, p := range s.positions {
			sum += p
			if p < best {
				best = p
			}
			if p > worst {
				worst = p
			}
		}

		top = append(top, Competitor{
			Domain:          domain,
			Appearances:     s.count,
			AveragePosition: float64(sum) / float64(len(s.positions)),
			BestPosition:    best,
			WorstPosition:   worst,
		})
	}

	return CompetitorAnalysis{
		TotalUniqueDomains: len(stats),
		TopCompetitors:     top,
	}
}
