// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Entry is a single financial record within a category.
type Entry struct {
	// Date is the record date in YYYY-MM-DD form.
	Date string `json:"date" yaml:"date"`

	// Description is a free-text line describing the record.
	Description string `json:"description" yaml:"description"`

	// Amount is the monetary amount as a decimal string (e.g. "1250.00").
	Amount string `json:"amount" yaml:"amount"`
}

// AnalysisRequest holds parsed financial records grouped by category.
// Requests must pass validation before entering the analysis pipeline.
type AnalysisRequest struct {
	// Records maps a category name (income, expenses, invoices,
	// purchase_orders) to its entries in input order.
	Records map[string][]Entry `json:"records" yaml:"records"`
}

// EntryCount returns the total number of entries across all categories.
func (r AnalysisRequest) EntryCount() int {
	n := 0
	for _, entries := range r.Records {
		n += len(entries)
	}
	return n
}

// Anomaly is a single irregularity flagged by the analysis model.
type Anomaly struct {
	Category    string `json:"category" yaml:"category"`
	Description string `json:"description" yaml:"description"`
	Severity    string `json:"severity" yaml:"severity"`
}

// DataQuality describes how complete and consistent the input records were.
type DataQuality struct {
	Score  float64  `json:"score" yaml:"score"`
	Issues []string `json:"issues" yaml:"issues"`
}

// AnalysisResult is the structured output of a financial analysis. The JSON
// field names are the contract with the completion model's JSON response
// mode; all six top-level keys must be present in a well-formed response.
type AnalysisResult struct {
	CashFlowForecast       map[string]any `json:"cashFlowForecast" yaml:"cashFlowForecast"`
	Anomalies              []Anomaly      `json:"anomalies" yaml:"anomalies"`
	ProcurementSuggestions []string       `json:"procurementSuggestions" yaml:"procurementSuggestions"`
	KPIs                   map[string]any `json:"kpis" yaml:"kpis"`
	DataQuality            DataQuality    `json:"dataQuality" yaml:"dataQuality"`
	Summary                string         `json:"summary" yaml:"summary"`
}
