// Package serp defines the SERP record model shared by every stage of the
// audit: providers produce records, the audit engine consumes them, and the
// storage backends round-trip them. Field names follow the SerpAPI google
// engine response so previously stored result files stay loadable.
package serp

import (
	"context"
	"encoding/json"
)

// SentinelPosition marks an organic result whose rank was absent from the
// provider response.
const SentinelPosition = 999

// Unknown is the grouping bucket for records without language/location/intent.
const Unknown = "unknown"

// Intent values produced by the query generator.
const (
	IntentInformational = "informational"
	IntentNavigational  = "navigational"
	IntentTransactional = "transactional"
)

// QueryMetadata describes the generated query a record was fetched for.
type QueryMetadata struct {
	Query    string `json:"query"`
	Language string `json:"language,omitempty"`
	Location string `json:"location,omitempty"`
	Intent   string `json:"intent,omitempty"`
	Topic    string `json:"topic,omitempty"`
}

// LanguageOrUnknown returns the metadata language, or "unknown" when absent.
func (m QueryMetadata) LanguageOrUnknown() string {
	if m.Language == "" {
		return Unknown
	}
	return m.Language
}

// IntentOrUnknown returns the metadata intent, or "unknown" when absent.
func (m QueryMetadata) IntentOrUnknown() string {
	if m.Intent == "" {
		return Unknown
	}
	return m.Intent
}

// OrganicResult is a single unpaid search listing.
type OrganicResult struct {
	Position      int             `json:"position,omitempty"`
	Title         string          `json:"title,omitempty"`
	Link          string          `json:"link,omitempty"`
	DisplayedLink string          `json:"displayed_link,omitempty"`
	Snippet       string          `json:"snippet,omitempty"`
	RichSnippet   json.RawMessage `json:"rich_snippet,omitempty"`
	Sitelinks     json.RawMessage `json:"sitelinks,omitempty"`
}

// Rank returns the 1-based position, or SentinelPosition when the provider
// did not report one.
func (r OrganicResult) Rank() int {
	if r.Position >= 1 {
		return r.Position
	}
	return SentinelPosition
}

// HasRichSnippet reports whether the result carried any rich SERP treatment.
func (r OrganicResult) HasRichSnippet() bool {
	return len(r.RichSnippet) > 0 && string(r.RichSnippet) != "null" && string(r.RichSnippet) != "{}"
}

// RelatedSearch is one "searches related to" suggestion.
type RelatedSearch struct {
	Query string `json:"query"`
	Link  string `json:"link,omitempty"`
}

// Question is one "people also ask" entry.
type Question struct {
	Question string `json:"question"`
	Snippet  string `json:"snippet,omitempty"`
	Link     string `json:"link,omitempty"`
}

// KnowledgeGraph holds the structured panel a search engine may show for a
// well-known entity. Presence is itself a signal.
type KnowledgeGraph struct {
	Title       string `json:"title,omitempty"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source,omitempty"`
}

// IsEmpty reports whether the panel carries no data at all. An empty panel is
// not counted as a SERP feature.
func (k *KnowledgeGraph) IsEmpty() bool {
	return k == nil || (k.Title == "" && k.Type == "" && k.Description == "" && k.Source == "")
}

// Record is one fetched SERP for one query. Records are produced once by a
// Provider and treated as immutable input by the audit engine; missing
// optional fields are never an error and default via the accessor methods.
type Record struct {
	Query           string          `json:"query"`
	Language        string          `json:"language,omitempty"`
	Location        string          `json:"location,omitempty"`
	Timestamp       float64         `json:"timestamp,omitempty"`
	OrganicResults  []OrganicResult `json:"organic_results"`
	RelatedSearches []RelatedSearch `json:"related_searches"`
	PeopleAlsoAsk   []Question      `json:"people_also_ask"`
	KnowledgeGraph  *KnowledgeGraph `json:"knowledge_graph"`
	QueryMetadata   QueryMetadata   `json:"query_metadata"`
}

// LanguageOrUnknown returns the record language, or "unknown" when absent.
func (r Record) LanguageOrUnknown() string {
	if r.Language == "" {
		return Unknown
	}
	return r.Language
}

// LocationOrUnknown returns the record location, or "unknown" when absent.
func (r Record) LocationOrUnknown() string {
	if r.Location == "" {
		return Unknown
	}
	return r.Location
}

// Provider abstracts a search engine backend that returns one Record per
// query. Implementations may call an official API or scrape result pages;
// either way they own their retry and rate-limit behavior.
type Provider interface {
	Fetch(ctx context.Context, q QueryMetadata) (*Record, error)
}
