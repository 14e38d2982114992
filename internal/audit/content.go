package audit

import (
	"sort"

	"github.com/serplens/serplens/internal/serp"
)

// maxContentEntries caps the top related-search and top question tables.
const maxContentEntries = 20

// QueryCount is one related-search frequency entry.
type QueryCount struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// QuestionCount is one "people also ask" frequency entry.
type QuestionCount struct {
	Question string `json:"question"`
	Count    int    `json:"count"`
}

// ContentInsights aggregates related-search and "people also ask" strings
// across all records. The flat sequences retain duplicates, and an absent
// suggestion keeps its slot as the empty string so frequency counts stay
// comparable across runs. The top tables are only populated when the
// underlying sequence is non-empty.
type ContentInsights struct {
	RelatedSearchesAll []string        `json:"related_searches_all"`
	PeopleAlsoAskAll   []string        `json:"people_also_ask_all"`
	TopRelatedSearches []QueryCount    `json:"top_related_searches,omitempty"`
	TopQuestions       []QuestionCount `json:"top_questions,omitempty"`
}

// freqCounter counts string frequencies while remembering first-encountered
// order, so ranking ties break deterministically by encounter order rather
// than map iteration order.
type freqCounter struct {
	order  []string
	counts map[string]int
}

func newFreqCounter() *freqCounter {
	return &freqCounter{counts: make(map[string]int)}
}

func (c *freqCounter) add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// top returns up to n entries ordered by count descending, ties in
// first-encountered order. Empty-string slots are markers for absent values
// and are excluded from the ranking.
func (c *freqCounter) top(n int) []QueryCount {
	keys := make([]string, 0, len(c.order))
	for _, k := range c.order {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.SliceStable(keys, func(i, j int) bool {
		return c.counts[keys[i]] > c.counts[keys[j]]
	})
	if len(keys) > n {
		keys = keys[:n]
	}

	out := make([]QueryCount, 0, len(keys))
	for _, k := range keys {
		out = append(out, QueryCount{Query: k, Count: c.counts[k]})
	}
	return out
}

func analyzeContentInsights(records []serp.Record) ContentInsights {
	insights := ContentInsights{
		RelatedSearchesAll: []string{},
		PeopleAlsoAskAll:   []string{},
	}

	related := newFreqCounter()
	questions := newFreqCounter()

	for _, rec := range records {
		for _, rs := range rec.RelatedSearches {
			insights.RelatedSearchesAll = append(insights.RelatedSearchesAll, rs.Query)
			related.add(rs.Query)
		}
		for _, q := range rec.PeopleAlsoAsk {
			insights.PeopleAlsoAskAll = append(insights.PeopleAlsoAskAll, q.Question)
			questions.add(q.Question)
		}
	}

	if len(insights.RelatedSearchesAll) > 0 {
		insights.TopRelatedSearches = related.top(maxContentEntries)
	}
	if len(insights.PeopleAlsoAskAll) > 0 {
		for _, qc := range questions.top(maxContentEntries) {
			insights.TopQuestions = append(insights.TopQuestions, QuestionCount{
				Question: qc.Query,
				Count:    qc.Count,
			})
		}
	}

	return insights
}
