// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analysis turns raw financial records into a structured analysis
// via a single JSON-mode completion call. Input parsing and validation are
// pure transformations; only Analyze touches the network.
package analysis

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/review-engine/pkg/types"
)

// Input formats accepted by ParseRecords.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// knownCategories is the set of record categories the analysis understands.
var knownCategories = map[string]bool{
	"income":          true,
	"expenses":        true,
	"invoices":        true,
	"purchase_orders": true,
}

// csvColumns is the required CSV header, in order.
var csvColumns = []string{"category", "date", "description", "amount"}

// ParseRecords parses raw bytes in the given format ("csv" or "json") into
// an AnalysisRequest. Entry order within each category follows input order.
func ParseRecords(data []byte, format string) (types.AnalysisRequest, error) {
	switch strings.ToLower(format) {
	case FormatJSON:
		return parseJSON(data)
	case FormatCSV:
		return parseCSV(data)
	default:
		return types.AnalysisRequest{}, &ParseError{
			Format:  format,
			Message: fmt.Sprintf("unsupported format %q (want csv or json)", format),
		}
	}
}

func parseJSON(data []byte) (types.AnalysisRequest, error) {
	var req types.AnalysisRequest
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return types.AnalysisRequest{}, &ParseError{Format: FormatJSON, Message: err.Error()}
	}
	if req.Records == nil {
		return types.AnalysisRequest{}, &ParseError{Format: FormatJSON, Message: `missing "records" object`}
	}
	return req, nil
}

func parseCSV(data []byte) (types.AnalysisRequest, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return types.AnalysisRequest{}, &ParseError{Format: FormatCSV, Message: "reading header: " + err.Error()}
	}
	if len(header) != len(csvColumns) {
		return types.AnalysisRequest{}, &ParseError{
			Format:  FormatCSV,
			Message: fmt.Sprintf("expected header %s, got %s", strings.Join(csvColumns, ","), strings.Join(header, ",")),
		}
	}
	for i, want := range csvColumns {
		if strings.ToLower(strings.TrimSpace(header[i])) != want {
			return types.AnalysisRequest{}, &ParseError{
				Format:  FormatCSV,
				Message: fmt.Sprintf("column %d: expected %q, got %q", i+1, want, header[i]),
			}
		}
	}

	req := types.AnalysisRequest{Records: make(map[string][]types.Entry)}
	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return types.AnalysisRequest{}, &ParseError{
				Format:  FormatCSV,
				Message: fmt.Sprintf("line %d: %v", line, err),
			}
		}
		category := strings.TrimSpace(row[0])
		req.Records[category] = append(req.Records[category], types.Entry{
			Date:        strings.TrimSpace(row[1]),
			Description: strings.TrimSpace(row[2]),
			Amount:      strings.TrimSpace(row[3]),
		})
	}
	return req, nil
}

// Validate checks the parsed request against the schema rules and returns a
// *ValidationError listing every violation, or nil when the request is clean.
func Validate(req types.AnalysisRequest) error {
	var violations []string

	if len(req.Records) == 0 {
		violations = append(violations, "records must contain at least one category")
	}

	categories := make([]string, 0, len(req.Records))
	for category := range req.Records {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		entries := req.Records[category]
		if !knownCategories[category] {
			violations = append(violations, fmt.Sprintf("unknown category %q", category))
		}
		if len(entries) == 0 {
			violations = append(violations, fmt.Sprintf("category %q has no entries", category))
		}
		for i, e := range entries {
			if e.Date == "" {
				violations = append(violations, fmt.Sprintf("%s[%d]: date is mandatory", category, i))
			}
			if e.Description == "" {
				violations = append(violations, fmt.Sprintf("%s[%d]: description is mandatory", category, i))
			}
			if e.Amount == "" {
				violations = append(violations, fmt.Sprintf("%s[%d]: amount is mandatory", category, i))
			} else if _, err := strconv.ParseFloat(e.Amount, 64); err != nil {
				violations = append(violations, fmt.Sprintf("%s[%d]: amount %q is not a number", category, i, e.Amount))
			}
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}
