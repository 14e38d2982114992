package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/serplens/serplens/internal/audit"
)

// ensure InsightClient implements audit.InsightGenerator
var _ audit.InsightGenerator = (*InsightClient)(nil)

const insightSystemPrompt = "You are an SEO and digital marketing specialist focused on competitive analysis and search visibility audits."

const insightUserPromptFmt = `Analyze this sample of Google search result data collected for tourism-related queries.

Data:
%s

Target brand under analysis: %q

Provide a strategic analysis as a JSON object with:
1. "visibility_assessment": an assessment of the brand's visibility (absent/poor/fair/good/excellent)
2. "seo_opportunities": an array of 5-7 concrete, actionable SEO opportunities
3. "content_gaps": an array of 3-5 content gaps to fill
4. "strategic_recommendations": an array of 5-7 prioritized strategic recommendations
5. "competitive_threats": an array of 3-5 identified competitive threats

Respond with valid JSON only.`

// InsightClient produces AI-generated audit insights from a SERP sample.
type InsightClient struct {
	client *Client
}

// NewInsightClient wraps an OpenAI client as an insight generator.
func NewInsightClient(client *Client) *InsightClient {
	return &InsightClient{client: client}
}

// Generate asks the model for a strategic analysis of the sampled SERP data.
func (g *InsightClient) Generate(ctx context.Context, sample audit.Sample, targetBrand string) (json.RawMessage, error) {
	data, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding insight sample: %w", err)
	}

	prompt := fmt.Sprintf(insightUserPromptFmt, data, targetBrand)
	return g.client.ChatJSON(ctx, insightSystemPrompt, prompt, 0.7)
}
