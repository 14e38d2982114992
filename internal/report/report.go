// Package report renders an audit result for humans: indented JSON for
// machines and archives, a text summary for terminals, and a standalone HTML
// page for review with stakeholders.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strconv"
	texttemplate "text/template"

	"github.com/serplens/serplens/internal/audit"
)

// aiInsights is the renderer's tolerant view of the free-form ai_insights
// object. Unknown shapes simply leave sections empty.
type aiInsights struct {
	VisibilityAssessment     string   `json:"visibility_assessment"`
	SEOOpportunities         []string `json:"seo_opportunities"`
	ContentGaps              []string `json:"content_gaps"`
	StrategicRecommendations []string `json:"strategic_recommendations"`
	CompetitiveThreats       []string `json:"competitive_threats"`
	Error                    string   `json:"error"`
}

// view is the data handed to the text and HTML templates.
type view struct {
	*audit.Result
	AveragePosition string
	Insights        aiInsights
}

func newView(res *audit.Result) view {
	v := view{Result: res, AveragePosition: "N/A"}
	if res.BrandVisibility.AveragePositionValue != nil {
		v.AveragePosition = fmt.Sprintf("%.1f", *res.BrandVisibility.AveragePositionValue)
	}
	// Best effort: a marker or malformed object just leaves sections empty.
	_ = json.Unmarshal(res.AIInsights, &v.Insights)
	return v
}

// WriteJSON writes the audit to the provided writer as indented JSON.
func WriteJSON(w io.Writer, res *audit.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encoding audit JSON: %w", err)
	}
	return nil
}

// csvHeaders defines the competitor export column order.
var csvHeaders = []string{
	"domain",
	"appearances",
	"average_position",
	"best_position",
	"worst_position",
}

// WriteCSV writes the competitor ranking as a flat CSV table, one row per
// domain, for spreadsheet work. The nested parts of the audit do not
// flatten meaningfully and stay in the JSON export.
func WriteCSV(w io.Writer, res *audit.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeaders); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, c := range res.CompetitorAnalysis.TopCompetitors {
		row := []string{
			c.Domain,
			strconv.Itoa(c.Appearances),
			strconv.FormatFloat(c.AveragePosition, 'f', 1, 64),
			strconv.Itoa(c.BestPosition),
			strconv.Itoa(c.WorstPosition),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, res *audit.Result) error {
	const textTmpl = `SERP Audit Summary — {{.Metadata.TargetBrand}}
------------------------------------------
Generated:       {{.Metadata.Timestamp.Format "2006-01-02 15:04:05"}}
Queries:         {{.Metadata.TotalQueries}}

Brand Visibility
  Queries with brand:  {{.BrandVisibility.QueriesWithBrand}}/{{.Metadata.TotalQueries}}
  Total appearances:   {{.BrandVisibility.TotalAppearances}}
  Average position:    {{.AveragePosition}}
  Top 3 / Top 10:      {{.BrandVisibility.Top3Appearances}} / {{.BrandVisibility.Top10Appearances}}

Languages:
{{- range $lang, $count := .GeoAnalysis.ByLanguage}}
  {{$lang}}: {{$count}}
{{- else}}
  None
{{- end}}

Top Competitors ({{.CompetitorAnalysis.TotalUniqueDomains}} unique domains):
{{- range .CompetitorAnalysis.TopCompetitors}}
  {{.Domain}} — {{.Appearances}} appearances, avg pos {{printf "%.1f" .AveragePosition}}, best {{.BestPosition}}
{{- else}}
  None
{{- end}}

SERP Features:
  Knowledge graph:  {{.SERPFeatures.KnowledgeGraphCount}}
  Related searches: {{.SERPFeatures.RelatedSearchesCount}}
  People also ask:  {{.SERPFeatures.PeopleAlsoAskCount}}
  Rich snippets:    {{.SERPFeatures.RichSnippetsCount}}
{{- if .Insights.Error}}

AI insights unavailable: {{.Insights.Error}}
{{- end}}
`

	t, err := texttemplate.New("textReport").Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("parsing text template: %w", err)
	}

	if err := t.Execute(w, newView(res)); err != nil {
		return fmt.Errorf("rendering text report: %w", err)
	}

	return nil
}

// WriteHTML writes a standalone HTML report to the provided writer.
func WriteHTML(w io.Writer, res *audit.Result) error {
	const htmlTmpl = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>SERP Audit — {{.Metadata.TargetBrand}}</title>
<style>
  body { font-family: 'Segoe UI', sans-serif; max-width: 1200px; margin: 0 auto; padding: 20px; background: #f5f5f5; color: #333; }
  .header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 40px; border-radius: 10px; margin-bottom: 30px; }
  .header h1 { margin: 0; font-size: 2.5em; }
  .metadata { opacity: 0.9; margin-top: 10px; }
  .section { background: white; padding: 30px; margin-bottom: 20px; border-radius: 10px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
  .section h2 { color: #667eea; border-bottom: 3px solid #667eea; padding-bottom: 10px; margin-top: 0; }
  .metric { display: inline-block; background: #f8f9fa; padding: 20px 30px; margin: 10px 10px 10px 0; border-radius: 8px; border-left: 4px solid #667eea; }
  .metric-value { font-size: 2em; font-weight: bold; color: #667eea; }
  .metric-label { color: #666; font-size: 0.9em; margin-top: 5px; }
  table { width: 100%; border-collapse: collapse; margin-top: 20px; }
  th, td { padding: 12px; text-align: left; border-bottom: 1px solid #ddd; }
  th { background: #667eea; color: white; font-weight: 600; }
  tr:hover { background: #f8f9fa; }
  .recommendation { background: #e3f2fd; border-left: 4px solid #2196f3; padding: 15px; margin: 10px 0; border-radius: 5px; }
  .opportunity { background: #f3e5f5; border-left: 4px solid #9c27b0; padding: 15px; margin: 10px 0; border-radius: 5px; }
  .alert { background: #fff3cd; border-left: 4px solid #ffc107; padding: 15px; margin: 10px 0; border-radius: 5px; }
</style>
</head>
<body>
  <div class="header">
    <h1>SERP Brand Visibility Audit</h1>
    <div class="metadata">
      <strong>Target:</strong> {{.Metadata.TargetBrand}}<br>
      <strong>Date:</strong> {{.Metadata.Timestamp.Format "2006-01-02 15:04:05 MST"}}<br>
      <strong>Queries analyzed:</strong> {{.Metadata.TotalQueries}}
    </div>
  </div>

  <div class="section">
    <h2>Brand Visibility</h2>
    <div class="metric">
      <div class="metric-value">{{.BrandVisibility.QueriesWithBrand}}/{{.Metadata.TotalQueries}}</div>
      <div class="metric-label">Queries with brand</div>
    </div>
    <div class="metric">
      <div class="metric-value">{{.BrandVisibility.TotalAppearances}}</div>
      <div class="metric-label">Total appearances</div>
    </div>
    <div class="metric">
      <div class="metric-value">{{.AveragePosition}}</div>
      <div class="metric-label">Average position</div>
    </div>
    <div class="metric">
      <div class="metric-value">{{.BrandVisibility.Top3Appearances}}</div>
      <div class="metric-label">Top 3 positions</div>
    </div>
  </div>

  <div class="section">
    <h2>Language Distribution</h2>
    <table>
      <tr><th>Language</th><th>Queries</th></tr>
      {{- range $lang, $count := .GeoAnalysis.ByLanguage}}
      <tr><td>{{$lang}}</td><td>{{$count}}</td></tr>
      {{- else}}
      <tr><td colspan="2">None</td></tr>
      {{- end}}
    </table>
  </div>

  <div class="section">
    <h2>Top Competitors</h2>
    <p>{{.CompetitorAnalysis.TotalUniqueDomains}} unique domains observed.</p>
    <table>
      <tr><th>Domain</th><th>Appearances</th><th>Average Position</th><th>Best Position</th></tr>
      {{- range .CompetitorAnalysis.TopCompetitors}}
      <tr><td>{{.Domain}}</td><td>{{.Appearances}}</td><td>{{printf "%.1f" .AveragePosition}}</td><td>{{.BestPosition}}</td></tr>
      {{- else}}
      <tr><td colspan="4">None</td></tr>
      {{- end}}
    </table>
  </div>

  <div class="section">
    <h2>SERP Features</h2>
    <div class="metric">
      <div class="metric-value">{{.SERPFeatures.KnowledgeGraphCount}}</div>
      <div class="metric-label">Knowledge graph</div>
    </div>
    <div class="metric">
      <div class="metric-value">{{.SERPFeatures.RelatedSearchesCount}}</div>
      <div class="metric-label">Related searches</div>
    </div>
    <div class="metric">
      <div class="metric-value">{{.SERPFeatures.PeopleAlsoAskCount}}</div>
      <div class="metric-label">People also ask</div>
    </div>
    <div class="metric">
      <div class="metric-value">{{.SERPFeatures.RichSnippetsCount}}</div>
      <div class="metric-label">Rich snippets</div>
    </div>
  </div>

  {{- if .Insights.StrategicRecommendations}}
  <div class="section">
    <h2>Strategic Recommendations</h2>
    {{- range .Insights.StrategicRecommendations}}
    <div class="recommendation">{{.}}</div>
    {{- end}}
  </div>
  {{- end}}

  {{- if .Insights.SEOOpportunities}}
  <div class="section">
    <h2>SEO Opportunities</h2>
    {{- range .Insights.SEOOpportunities}}
    <div class="opportunity">{{.}}</div>
    {{- end}}
  </div>
  {{- end}}

  {{- if .Insights.CompetitiveThreats}}
  <div class="section">
    <h2>Competitive Threats</h2>
    {{- range .Insights.CompetitiveThreats}}
    <div class="alert">{{.}}</div>
    {{- end}}
  </div>
  {{- end}}

  {{- if .Insights.Error}}
  <div class="section">
    <h2>AI Insights</h2>
    <div class="alert">AI insights unavailable: {{.Insights.Error}}</div>
  </div>
  {{- end}}
</body>
</html>
`

	t, err := template.New("htmlReport").Parse(htmlTmpl)
	if err != nil {
		return fmt.Errorf("parsing HTML template: %w", err)
	}

	if err := t.Execute(w, newView(res)); err != nil {
		return fmt.Errorf("rendering HTML report: %w", err)
	}

	return nil
}
