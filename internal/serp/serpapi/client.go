// Package serpapi fetches Google result pages through the SerpAPI google
// engine and maps the response into the shared record model.
package serpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/serplens/serplens/internal/metrics"
	"github.com/serplens/serplens/internal/serp"
	"github.com/serplens/serplens/pkg/httpclient"
	"github.com/serplens/serplens/pkg/ratelimit"
)

// ensure Client implements serp.Provider
var _ serp.Provider = (*Client)(nil)

const (
	defaultBaseURL    = "https://serpapi.com/search"
	defaultNumResults = 10
	defaultRetries    = 3
	providerName      = "serpapi"
)

// retryWait is the fixed pause between fetch attempts. A variable so tests
// can shorten it.
var retryWait = 2 * time.Second

// langConfig maps an audit language to the Google domain and locale
// parameters passed to the engine.
type langConfig struct {
	googleDomain string
	gl           string
	hl           string
	location     string
}

var langConfigs = map[string]langConfig{
	"it": {googleDomain: "google.it", gl: "it", hl: "it", location: "Italy"},
	"fr": {googleDomain: "google.fr", gl: "fr", hl: "fr", location: "France"},
	"en": {googleDomain: "google.co.uk", gl: "uk", hl: "en", location: "United Kingdom"},
}

// defaultLang is used when a query carries an unmapped language.
const defaultLang = "it"

// Config holds the settings for the SerpAPI client.
type Config struct {
	APIKey     string
	BaseURL    string
	NumResults int
	MaxRetries int
	Timeout    time.Duration
	// RequestsPerSecond throttles outbound calls. Zero disables throttling.
	RequestsPerSecond float64
	Logger            *slog.Logger
}

// Client calls the SerpAPI google engine.
type Client struct {
	apiKey     string
	baseURL    string
	numResults int
	maxRetries int
	httpClient *httpclient.Client
	limiter    *ratelimit.Limiter
	logger     *slog.Logger
}

// New creates a SerpAPI-backed serp.Provider.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("serpapi api key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	numResults := cfg.NumResults
	if numResults <= 0 {
		numResults = defaultNumResults
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultRetries
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	hc, err := httpclient.New(httpclient.Config{
		Timeout:        timeout,
		MaxRedirects:   3,
		DefaultHeaders: map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		return nil, fmt.Errorf("creating http client: %w", err)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		numResults: numResults,
		maxRetries: maxRetries,
		httpClient: hc,
		limiter:    ratelimit.NewLimiter(cfg.RequestsPerSecond, 0.2),
		logger:     logger,
	}, nil
}

// Close releases the client's rate limiter.
func (c *Client) Close() {
	c.limiter.Stop()
}

// apiResponse mirrors the subset of the SerpAPI google engine response the
// audit consumes.
type apiResponse struct {
	OrganicResults []struct {
		Position      int             `json:"position"`
		Title         string          `json:"title"`
		Link          string          `json:"link"`
		DisplayedLink string          `json:"displayed_link"`
		Snippet       string          `json:"snippet"`
		RichSnippet   json.RawMessage `json:"rich_snippet"`
		Sitelinks     json.RawMessage `json:"sitelinks"`
	} `json:"organic_results"`
	RelatedSearches []struct {
		Query string `json:"query"`
		Link  string `json:"link"`
	} `json:"related_searches"`
	RelatedQuestions []struct {
		Question string `json:"question"`
		Snippet  string `json:"snippet"`
		Link     string `json:"link"`
	} `json:"related_questions"`
	KnowledgeGraph *struct {
		Title       string `json:"title"`
		Type        string `json:"type"`
		Description string `json:"description"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"knowledge_graph"`
	Error string `json:"error"`
}

// Fetch retrieves one SERP, retrying transient failures with a fixed wait.
func (c *Client) Fetch(ctx context.Context, q serp.QueryMetadata) (*serp.Record, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	cfg, ok := langConfigs[q.Language]
	if !ok {
		cfg = langConfigs[defaultLang]
	}

	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		record, err := c.fetchOnce(ctx, q, cfg)
		if err == nil {
			metrics.RecordFetch(providerName, q.Language, time.Since(start), nil)
			return record, nil
		}
		lastErr = err

		if attempt < c.maxRetries {
			c.logger.Warn("serpapi fetch failed, retrying",
				slog.String("query", q.Query),
				slog.Int("attempt", attempt),
				slog.Int("max_retries", c.maxRetries),
				slog.String("error", err.Error()),
			)
			select {
			case <-time.After(retryWait):
			case <-ctx.Done():
				metrics.RecordFetch(providerName, q.Language, time.Since(start), ctx.Err())
				return nil, ctx.Err()
			}
		}
	}

	metrics.RecordFetch(providerName, q.Language, time.Since(start), lastErr)
	return nil, fmt.Errorf("fetching serp for %q after %d attempts: %w", q.Query, c.maxRetries, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, q serp.QueryMetadata, cfg langConfig) (*serp.Record, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", q.Query)
	params.Set("google_domain", cfg.googleDomain)
	params.Set("gl", cfg.gl)
	params.Set("hl", cfg.hl)
	params.Set("location", cfg.location)
	params.Set("num", strconv.Itoa(c.numResults))
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequest(http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.httpClient.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serpapi returned status %d", resp.StatusCode)
	}

	var api apiResponse
	if err := json.Unmarshal(resp.Body, &api); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if api.Error != "" {
		return nil, fmt.Errorf("serpapi error: %s", api.Error)
	}

	return c.buildRecord(q, cfg, &api), nil
}

func (c *Client) buildRecord(q serp.QueryMetadata, cfg langConfig, api *apiResponse) *serp.Record {
	record := &serp.Record{
		Query:           q.Query,
		Language:        q.Language,
		Location:        cfg.location,
		Timestamp:       float64(time.Now().UnixNano()) / float64(time.Second),
		OrganicResults:  []serp.OrganicResult{},
		RelatedSearches: []serp.RelatedSearch{},
		PeopleAlsoAsk:   []serp.Question{},
		QueryMetadata:   q,
	}

	for i, item := range api.OrganicResults {
		if i >= c.numResults {
			break
		}
		record.OrganicResults = append(record.OrganicResults, serp.OrganicResult{
			Position:      item.Position,
			Title:         item.Title,
			Link:          item.Link,
			DisplayedLink: item.DisplayedLink,
			Snippet:       item.Snippet,
			RichSnippet:   item.RichSnippet,
			Sitelinks:     item.Sitelinks,
		})
	}

	for _, item := range api.RelatedSearches {
		record.RelatedSearches = append(record.RelatedSearches, serp.RelatedSearch{
			Query: item.Query,
			Link:  item.Link,
		})
	}

	for _, item := range api.RelatedQuestions {
		record.PeopleAlsoAsk = append(record.PeopleAlsoAsk, serp.Question{
			Question: item.Question,
			Snippet:  item.Snippet,
			Link:     item.Link,
		})
	}

	if api.KnowledgeGraph != nil {
		record.KnowledgeGraph = &serp.KnowledgeGraph{
			Title:       api.KnowledgeGraph.Title,
			Type:        api.KnowledgeGraph.Type,
			Description: api.KnowledgeGraph.Description,
			Source:      api.KnowledgeGraph.Source.Name,
		}
	}

	return record
}
