package queries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/serplens/serplens/internal/openai"
	"github.com/serplens/serplens/internal/serp"
)

// ensure Generator implements Producer
var _ Producer = (*Generator)(nil)

const generatorSystemPrompt = "You are a tourism and SEO expert who generates realistic search queries."

// Generator produces simulated tourist queries with an LLM.
type Generator struct {
	client *openai.Client
	region string
	topics []string
	logger *slog.Logger
}

// GeneratorConfig holds the settings for a query Generator.
type GeneratorConfig struct {
	// Region is the destination the simulated tourists are searching for.
	Region string
	// Topics the queries are spread across. Defaults to DefaultTopics.
	Topics []string
	Logger *slog.Logger
}

// NewGenerator creates an LLM-backed query producer.
func NewGenerator(client *openai.Client, cfg GeneratorConfig) *Generator {
	region := cfg.Region
	if region == "" {
		region = "Turin and Piedmont"
	}
	topics := cfg.Topics
	if len(topics) == 0 {
		topics = DefaultTopics
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{client: client, region: region, topics: topics, logger: logger}
}

// Generate asks the model for n realistic queries balanced across languages.
func (g *Generator) Generate(ctx context.Context, n int, languages []string) ([]serp.QueryMetadata, error) {
	if n <= 0 {
		return []serp.QueryMetadata{}, nil
	}
	if len(languages) == 0 {
		languages = DefaultLanguages
	}

	prompt := g.buildPrompt(n, languages)

	// high temperature for query variety
	raw, err := g.client.ChatJSON(ctx, generatorSystemPrompt, prompt, 0.9)
	if err != nil {
		return nil, fmt.Errorf("generating queries: %w", err)
	}

	queries, err := extractQueries(raw)
	if err != nil {
		return nil, fmt.Errorf("extracting queries: %w", err)
	}

	g.logger.Info("generated search queries",
		slog.Int("requested", n),
		slog.Int("generated", len(queries)),
		slog.String("region", g.region),
	)

	return queries, nil
}

func (g *Generator) buildPrompt(n int, languages []string) string {
	now := time.Now()
	currentMonth := now.Format("January 2006")

	var b strings.Builder
	fmt.Fprintf(&b, "Today is %s.\n\n", currentMonth)
	fmt.Fprintf(&b, "Generate %d realistic search queries that tourists of different nationalities could type into Google when looking for events, attractions and activities in %s.\n\n", n, g.region)
	b.WriteString("IMPORTANT - temporal references:\n")
	fmt.Fprintf(&b, "- If you include dates or periods, only use %q, \"this weekend\", \"today\" or future months\n", currentMonth)
	b.WriteString("- Never use past years\n")
	b.WriteString("- Prefer queries without specific dates\n\n")
	b.WriteString("The queries must be:\n")
	b.WriteString("- Varied in phrasing, length and intent\n")
	b.WriteString("- Realistic, the way an actual tourist would search\n")
	fmt.Fprintf(&b, "- Balanced across these languages: %s\n", strings.Join(languages, ", "))
	fmt.Fprintf(&b, "- Spread across these topics: %s\n", strings.Join(g.topics, ", "))
	b.WriteString("- A mix of long-tail and short-tail variants\n")
	b.WriteString("- A mix of informational, navigational and transactional intent\n\n")
	b.WriteString("Return a JSON object with a \"queries\" array of objects with this structure:\n")
	b.WriteString(`{"query": "the exact search query", "language": "it|fr|en", "location": "the place searched for", "intent": "informational|navigational|transactional", "topic": "one of the topics"}`)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Generate exactly %d distinct queries.", n)
	return b.String()
}

// extractQueries pulls the query array out of the model's JSON object. The
// array key varies between responses, so "queries" and "results" are tried
// first and any array-valued key is accepted as a fallback.
func extractQueries(raw json.RawMessage) ([]serp.QueryMetadata, error) {
	var direct []serp.QueryMetadata
	if err := json.Unmarshal(raw, &direct); err == nil {
		return direct, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("decoding query payload: %w", err)
	}

	for _, key := range []string{"queries", "results"} {
		if arr, ok := wrapper[key]; ok {
			var queries []serp.QueryMetadata
			if err := json.Unmarshal(arr, &queries); err != nil {
				return nil, fmt.Errorf("decoding %q array: %w", key, err)
			}
			return queries, nil
		}
	}

	for _, value := range wrapper {
		var queries []serp.QueryMetadata
		if err := json.Unmarshal(value, &queries); err == nil {
			return queries, nil
		}
	}

	return nil, errors.New("no query array found in response")
}
