package audit

import (
	"strings"

	"github.com/serplens/serplens/internal/serp"
)

// BrandURL records where a brand match was found.
type BrandURL struct {
	URL      string `json:"url"`
	Query    string `json:"query"`
	Position int    `json:"position"`
}

// BrandVisibility summarizes how often and how prominently the target brand
// appears across the organic results of all records.
type BrandVisibility struct {
	TotalAppearances     int            `json:"total_appearances"`
	QueriesWithBrand     int            `json:"queries_with_brand"`
	Top3Appearances      int            `json:"top_3_appearances"`
	Top10Appearances     int            `json:"top_10_appearances"`
	AveragePositionValue *float64       `json:"average_position_value"`
	URLsFound            []BrandURL     `json:"urls_found"`
	ByLanguage           map[string]int `json:"by_language"`
	ByIntent             map[string]int `json:"by_intent"`
}

// normalizeKeywords lowercases the configured match strings, deriving them
// from the brand name (plus its no-space variant) when none were configured.
func normalizeKeywords(brand string, keywords []string) []string {
	if len(keywords) == 0 && brand != "" {
		lower := strings.ToLower(brand)
		keywords = []string{lower}
		if nospace := strings.ReplaceAll(lower, " ", ""); nospace != lower {
			keywords = append(keywords, nospace)
		}
	}
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

// matchesBrand reports whether any keyword occurs case-insensitively in the
// result's title, link, snippet, or displayed link. Missing fields are empty
// strings, never an error.
func matchesBrand(r serp.OrganicResult, keywords []string) bool {
	title := strings.ToLower(r.Title)
	link := strings.ToLower(r.Link)
	snippet := strings.ToLower(r.Snippet)
	displayed := strings.ToLower(r.DisplayedLink)

	for _, kw := range keywords {
		if strings.Contains(title, kw) || strings.Contains(link, kw) ||
			strings.Contains(snippet, kw) || strings.Contains(displayed, kw) {
			return true
		}
	}
	return false
}

// analyzeBrandVisibility scans every organic result of every record for brand
// matches. A record counts once toward QueriesWithBrand no matter how many of
// its results match; language/intent tallies increment once per matching
// result. The position mean covers matching results only, sentinel included,
// and is nil when there are no matches.
func analyzeBrandVisibility(records []serp.Record, keywords []string) BrandVisibility {
	vis := BrandVisibility{
		URLsFound:  []BrandURL{},
		ByLanguage: make(map[string]int),
		ByIntent:   make(map[string]int),
	}

	var positionSum int
	for _, rec := range records {
		language := rec.QueryMetadata.LanguageOrUnknown()
		intent := rec.QueryMetadata.IntentOrUnknown()

		foundInQuery := false
		for _, r := range rec.OrganicResults {
			if !matchesBrand(r, keywords) {
				continue
			}

			vis.TotalAppearances++
			foundInQuery = true

			pos := r.Rank()
			positionSum += pos
			if pos <= 3 {
				vis.Top3Appearances++
			}
			if pos <= 10 {
				vis.Top10Appearances++
			}

			if r.Link != "" {
				vis.URLsFound = append(vis.URLsFound, BrandURL{
					URL:      r.Link,
					Query:    rec.Query,
					Position: pos,
				})
			}

			vis.ByLanguage[language]++
			vis.ByIntent[intent]++
		}

		if foundInQuery {
			vis.QueriesWithBrand++
		}
	}

	if vis.TotalAppearances > 0 {
		avg := float64(positionSum) / float64(vis.TotalAppearances)
		vis.AveragePositionValue = &avg
	}

	return vis
}
