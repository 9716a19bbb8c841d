package convert

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aluiziolira/go-scrape-to-json/models"
)

const (
	// inferSampleSize bounds how many pages the analysis prompt carries.
	inferSampleSize = 5
	// inferHeadingLimit bounds how many headings each sample contributes.
	inferHeadingLimit = 5
	// inferTextSample bounds the content excerpt per sample page, in runes.
	inferTextSample = 500
)

// Inferrer proposes a target schema by showing the generation backend a
// small sample of crawled pages.
type Inferrer struct {
	gen       Generator
	maxTokens int
	timeout   time.Duration
	metrics   *Metrics
}

// NewInferrer builds an inferrer around a generation backend.
func NewInferrer(gen Generator, maxTokens int, timeout time.Duration, metrics *Metrics) *Inferrer {
	return &Inferrer{gen: gen, maxTokens: maxTokens, timeout: timeout, metrics: metrics}
}

// Analyze proposes a schema for the crawled pages. It never fails the run:
// any backend or parse error degrades to the well-known empty analysis, so
// callers can distinguish "no proposal" by the empty schema map.
func (inf *Inferrer) Analyze(ctx context.Context, pages []*models.PageRecord) models.Analysis {
	slog.Info("analyzing data structure",
		slog.Int("pages", len(pages)),
		slog.String("provider", inf.gen.Name()),
	)

	prompt := buildAnalysisPrompt(pages)

	callCtx := ctx
	if inf.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, inf.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := inf.gen.Generate(callCtx, prompt, inf.maxTokens)
	inf.metrics.ObserveGenerate(time.Since(start))
	if err != nil {
		slog.Error("schema analysis failed", slog.Any("error", err))
		return models.EmptyAnalysis("Analysis failed")
	}

	analysis, err := parseAnalysis(reply)
	if err != nil {
		slog.Error("schema analysis reply was not valid JSON",
			slog.Any("error", err),
			slog.String("reply", truncateRunes(reply, inferTextSample)),
		)
		return models.EmptyAnalysis(fmt.Sprintf("Failed to parse analysis: %v", err))
	}

	slog.Info("schema analysis complete",
		slog.String("content_type", analysis.ContentType),
		slog.Int("entities", len(analysis.Entities)),
	)
	return analysis
}

// buildAnalysisPrompt renders the sample pages into the analysis request.
func buildAnalysisPrompt(pages []*models.PageRecord) string {
	sampleSize := min(inferSampleSize, len(pages))
	sample := pages[:sampleSize]

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following website data and determine the optimal JSON schema for storing it in a database.\n\n")
	fmt.Fprintf(&b, "The data comes from %d pages. Here are %d sample pages:\n\n", len(pages), sampleSize)

	for i, page := range sample {
		fmt.Fprintf(&b, "\n--- Page %d ---\n", i+1)
		fmt.Fprintf(&b, "URL: %s\n", page.URL)
		fmt.Fprintf(&b, "Title: %s\n", page.Title)
		fmt.Fprintf(&b, "Headings: %s\n", mustJSON(headingSample(page.Headings)))
		if len(page.Tables) > 0 {
			fmt.Fprintf(&b, "Has %d table(s)\n", len(page.Tables))
		}
		fmt.Fprintf(&b, "Content sample (first %d chars): %s...\n", inferTextSample, truncateRunes(page.TextContent, inferTextSample))
	}

	b.WriteString(`

Based on this data, provide:
1. A description of the content type and structure
2. Key entities and relationships
3. A recommended JSON schema with field names, types, and descriptions
4. Suggested database indexes for searchability

Format your response as a JSON object with these keys:
- content_type: string describing the type of content
- entities: array of entity types found
- schema: detailed JSON schema object
- indexes: array of suggested index fields
- notes: additional observations

Return ONLY the JSON object, no other text.
`)

	return b.String()
}

func parseAnalysis(reply string) (models.Analysis, error) {
	cleaned := StripFences(reply)

	var analysis models.Analysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		return models.Analysis{}, err
	}
	if analysis.Schema == nil {
		analysis.Schema = map[string]any{}
	}
	return analysis, nil
}

func headingSample(headings []models.Heading) []models.Heading {
	if len(headings) > inferHeadingLimit {
		return headings[:inferHeadingLimit]
	}
	return headings
}

// truncateRunes cuts s to at most n runes, never splitting a character.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func mustJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "null"
	}
	return string(data)
}
