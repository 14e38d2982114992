package audit

import "github.com/serplens/serplens/internal/serp"

// SERPFeatures counts rich SERP treatments across all records. Four
// independent counters, no normalization: the first three count records, the
// last counts organic results.
type SERPFeatures struct {
	KnowledgeGraphCount  int `json:"knowledge_graph_count"`
	RelatedSearchesCount int `json:"related_searches_count"`
	PeopleAlsoAskCount   int `json:"people_also_ask_count"`
	RichSnippetsCount    int `json:"rich_snippets_count"`
}

func analyzeSERPFeatures(records []serp.Record) SERPFeatures {
	var f SERPFeatures

	for _, rec := range records {
		if !rec.KnowledgeGraph.IsEmpty() {
			f.KnowledgeGraphCount++
		}
		if len(rec.RelatedSearches) > 0 {
			f.RelatedSearchesCount++
		}
		if len(rec.PeopleAlsoAsk) > 0 {
			f.PeopleAlsoAskCount++
		}
		for _, r := range rec.OrganicResults {
			if r.HasRichSnippet() {
				f.RichSnippetsCount++
			}
		}
	}

	return f
}
