// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/pdiddy/review-engine/internal/llm"
	"github.com/pdiddy/review-engine/pkg/types"
)

const analyzeMaxTokens = 2048

// resultKeys are the six top-level keys a well-formed analysis response
// must carry.
var resultKeys = []string{
	"cashFlowForecast",
	"anomalies",
	"procurementSuggestions",
	"kpis",
	"dataQuality",
	"summary",
}

// analyzePromptTmpl instructs the model to return the analysis as a single
// JSON object matching the AnalysisResult shape.
var analyzePromptTmpl = template.Must(template.New("analyze").Parse(`You are a financial analyst. Analyze the following business records and respond with a single JSON object containing exactly these keys:
- "cashFlowForecast": an object forecasting cash flow over the next 30/60/90 days
- "anomalies": an array of objects with "category", "description", and "severity" (low, medium, high)
- "procurementSuggestions": an array of short actionable strings
- "kpis": an object of named metrics computed from the records
- "dataQuality": an object with "score" (0.0-1.0) and "issues" (array of strings)
- "summary": a short free-text summary of the financial position

Do not include any text outside the JSON object.

Records (JSON, grouped by category):
{{.Records}}
`))

// Completer abstracts the completion client so tests can supply a mock.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// Analyzer runs one completion call per request. It applies no retry of its
// own: provider failures, including rate limits, surface directly so the
// HTTP adapter can map them to status codes.
type Analyzer struct {
	completer Completer
	model     string
}

// NewAnalyzer wires an analyzer. model is recorded for response metadata
// only; the completer decides what is actually sent upstream.
func NewAnalyzer(completer Completer, model string) *Analyzer {
	return &Analyzer{completer: completer, model: model}
}

// Model returns the model identifier used for metadata.
func (a *Analyzer) Model() string { return a.model }

// Analyze validates req, sends it to the completion provider in JSON mode,
// and parses the response into a typed AnalysisResult. A response missing
// any of the six mandatory keys is a *MalformedResponseError.
func (a *Analyzer) Analyze(ctx context.Context, req types.AnalysisRequest) (types.AnalysisResult, error) {
	if err := Validate(req); err != nil {
		return types.AnalysisResult{}, err
	}

	records, err := json.MarshalIndent(req.Records, "", "  ")
	if err != nil {
		return types.AnalysisResult{}, fmt.Errorf("marshaling records: %w", err)
	}

	prompt, err := renderPrompt(string(records))
	if err != nil {
		return types.AnalysisResult{}, fmt.Errorf("rendering analysis prompt: %w", err)
	}

	text, err := a.completer.Complete(ctx, llm.Request{
		Messages:       []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens:      analyzeMaxTokens,
		ResponseFormat: llm.ResponseFormatJSON,
	})
	if err != nil {
		return types.AnalysisResult{}, err
	}

	return parseResult([]byte(text))
}

// parseResult checks the response for the mandatory top-level keys before
// unmarshaling, so a structural mismatch surfaces as a typed failure rather
// than a zero-valued result.
func parseResult(data []byte) (types.AnalysisResult, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return types.AnalysisResult{}, &MalformedResponseError{Message: err.Error()}
	}

	var missing []string
	for _, key := range resultKeys {
		if _, ok := raw[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return types.AnalysisResult{}, &MalformedResponseError{Missing: missing}
	}

	var result types.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return types.AnalysisResult{}, &MalformedResponseError{Message: err.Error()}
	}
	return result, nil
}

func renderPrompt(records string) (string, error) {
	var buf bytes.Buffer
	if err := analyzePromptTmpl.Execute(&buf, struct{ Records string }{records}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
