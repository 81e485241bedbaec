// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package review orchestrates the report-synthesis pipeline: one topic
// search, per-document summaries, gap discovery, and a devil's-advocate
// pass, assembled into a single report. Stages run strictly in sequence to
// respect provider rate limits and because later stages consume earlier
// results; each call to Generate owns its own report accumulator, so
// independent runs may execute concurrently.
package review

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/review-engine/internal/stages"
	"github.com/pdiddy/review-engine/pkg/types"
)

const (
	// noAbstractPlaceholder substitutes for a summary when the provider
	// returned no abstract. No completion call is made in that case.
	noAbstractPlaceholder = "No abstract available."

	// summaryUnavailable substitutes for a summary when the completion
	// call for one document fails; the run continues.
	summaryUnavailable = "Summary unavailable."

	// opposingKeywordLimit caps the devil's-advocate keyword list.
	opposingKeywordLimit = 3
)

// Searcher is the subset of the search provider the synthesizer needs.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]types.Document, error)
}

// Synthesizer runs the review-generation algorithm.
type Synthesizer struct {
	searcher  Searcher
	completer stages.Completer
	warnings  io.Writer
}

// NewSynthesizer wires a synthesizer. Warning lines (skipped documents,
// failed devil's-advocate searches) go to w; pass io.Discard to silence them.
func NewSynthesizer(searcher Searcher, completer stages.Completer, w io.Writer) *Synthesizer {
	if w == nil {
		w = io.Discard
	}
	return &Synthesizer{searcher: searcher, completer: completer, warnings: w}
}

// Generate produces a complete review report for topic, or an error. There
// is no partial output: a fatal stage failure discards everything
// accumulated so far.
func (s *Synthesizer) Generate(ctx context.Context, topic string, limit int) (string, error) {
	// Stage 1: topic search. Failure here is fatal to the whole run.
	docs, err := s.searcher.Search(ctx, topic, limit)
	if err != nil {
		return "", fmt.Errorf("searching for %q: %w", topic, err)
	}

	var report strings.Builder
	fmt.Fprintf(&report, "# Literature Review: %s\n\n", topic)

	// Stage 2: per-document summaries, in provider ranking order. A failed
	// summarization is substituted, not fatal, to keep the report complete.
	abstracts := make([]string, 0, len(docs))
	for _, doc := range docs {
		abstracts = append(abstracts, doc.Abstract)

		summary := noAbstractPlaceholder
		if doc.Abstract != "" {
			summary, err = stages.Summarize(ctx, s.completer, doc.Abstract)
			if err != nil {
				fmt.Fprintf(s.warnings, "warning: summarizing %q: %v\n", doc.Title, err)
				summary = summaryUnavailable
			}
		}

		fmt.Fprintf(&report, "## %s\n", doc.Title)
		if len(doc.Authors) > 0 {
			fmt.Fprintf(&report, "Authors: %s\n", strings.Join(doc.AuthorNames(), ", "))
		}
		if doc.URL != "" {
			fmt.Fprintf(&report, "URL: %s\n", doc.URL)
		}
		fmt.Fprintf(&report, "\n%s\n\n", summary)
	}

	// Stage 3: gap discovery over every abstract, blanks included, so the
	// model sees one slot per paper.
	gaps, err := stages.FindGaps(ctx, s.completer, abstracts)
	if err != nil {
		return "", fmt.Errorf("finding research gaps: %w", err)
	}
	fmt.Fprintf(&report, "## Research Gaps\n\n%s\n\n", gaps)

	// Stage 4: devil's-advocate discovery. One search per keyword,
	// sequentially; keywords with no result (or a failed search) are skipped.
	keywords, err := stages.OpposingKeywords(ctx, s.completer, topic, opposingKeywordLimit)
	if err != nil {
		return "", fmt.Errorf("generating opposing keywords: %w", err)
	}

	fmt.Fprintf(&report, "## Opposing Viewpoints\n\n")
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		results, err := s.searcher.Search(ctx, kw, 1)
		if err != nil {
			fmt.Fprintf(s.warnings, "warning: opposing search for %q: %v\n", kw, err)
			continue
		}
		if len(results) == 0 {
			continue
		}
		doc := results[0]
		fmt.Fprintf(&report, "- %s (%s)\n", doc.Title, doc.URL)
	}

	return report.String(), nil
}
