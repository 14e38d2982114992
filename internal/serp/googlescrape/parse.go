package googlescrape

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/serplens/serplens/internal/serp"
)

// parseResultPage extracts organic results and related searches from a
// Google result page. Selectors target the classic desktop layout; positions
// are assigned in document order since the page does not carry them.
func parseResultPage(body []byte, limit int) (*serp.Record, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	record := &serp.Record{
		OrganicResults:  []serp.OrganicResult{},
		RelatedSearches: []serp.RelatedSearch{},
		PeopleAlsoAsk:   []serp.Question{},
	}

	position := 0
	doc.Find("div.g").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		title := strings.TrimSpace(s.Find("h3").First().Text())
		if title == "" {
			return true
		}

		link, _ := s.Find("a[href]").First().Attr("href")
		if !strings.HasPrefix(link, "http") {
			return true
		}

		position++
		record.OrganicResults = append(record.OrganicResults, serp.OrganicResult{
			Position:      position,
			Title:         title,
			Link:          link,
			DisplayedLink: strings.TrimSpace(s.Find("cite").First().Text()),
			Snippet:       strings.TrimSpace(s.Find("div.VwiC3b").First().Text()),
		})
		return position < limit
	})

	// "Searches related to" links at the bottom of the page
	doc.Find("div#botstuff a[href^=\"/search\"], div#bres a[href^=\"/search\"]").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		href, _ := s.Attr("href")
		record.RelatedSearches = append(record.RelatedSearches, serp.RelatedSearch{
			Query: text,
			Link:  href,
		})
	})

	// People-also-ask questions render with the related-question attribute
	doc.Find("div[data-initq] div[role=\"heading\"], div.related-question-pair div[role=\"heading\"]").Each(func(_ int, s *goquery.Selection) {
		question := strings.TrimSpace(s.Text())
		if question == "" {
			return
		}
		record.PeopleAlsoAsk = append(record.PeopleAlsoAsk, serp.Question{Question: question})
	})

	return record, nil
}
