// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stages implements the composable prompt operations of the
// synthesis pipeline. Each stage is one completion call with a fixed prompt
// template plus trimming of the returned text.
package stages

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/review-engine/internal/llm"
)

// Completer abstracts the completion client so tests can supply a mock.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// keywordSeparator splits the model's comma-separated keyword list.
var keywordSeparator = regexp.MustCompile(`,\s*`)

const (
	summarizeMaxTokens = 256
	answerMaxTokens    = 512
	gapsMaxTokens      = 512
	keywordsMaxTokens  = 64
)

// Summarize returns a three-sentence summary of one abstract.
func Summarize(ctx context.Context, c Completer, abstract string) (string, error) {
	prompt, err := renderTemplate(summarizePromptTmpl, struct{ Abstract string }{abstract})
	if err != nil {
		return "", fmt.Errorf("rendering summarize prompt: %w", err)
	}

	text, err := c.Complete(ctx, llm.Request{
		Messages:  []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens: summarizeMaxTokens,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// AnswerQuestion answers a question about a single abstract using a
// system-primed conversation.
func AnswerQuestion(ctx context.Context, c Completer, abstract, question string) (string, error) {
	prompt, err := renderTemplate(answerPromptTmpl, struct{ Abstract, Question string }{abstract, question})
	if err != nil {
		return "", fmt.Errorf("rendering answer prompt: %w", err)
	}

	text, err := c.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: answerSystemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens: answerMaxTokens,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// FindGaps identifies three open research gaps across the given abstracts.
// Empty abstracts are passed through unfiltered so each position still
// corresponds to a paper in the caller's list.
func FindGaps(ctx context.Context, c Completer, abstracts []string) (string, error) {
	joined := strings.Join(abstracts, "\n---\n")

	prompt, err := renderTemplate(gapsPromptTmpl, struct{ Abstracts string }{joined})
	if err != nil {
		return "", fmt.Errorf("rendering gaps prompt: %w", err)
	}

	text, err := c.Complete(ctx, llm.Request{
		Messages:  []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens: gapsMaxTokens,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// OpposingKeywords asks the model for devil's-advocate search keywords.
// The response is split on commas and truncated to limit; entries are not
// otherwise validated, so a malformed model response passes through as-is.
func OpposingKeywords(ctx context.Context, c Completer, topic string, limit int) ([]string, error) {
	prompt, err := renderTemplate(keywordsPromptTmpl, struct {
		Topic string
		Limit int
	}{topic, limit})
	if err != nil {
		return nil, fmt.Errorf("rendering keywords prompt: %w", err)
	}

	text, err := c.Complete(ctx, llm.Request{
		Messages:  []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens: keywordsMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	keywords := keywordSeparator.Split(strings.TrimSpace(text), -1)
	if len(keywords) > limit {
		keywords = keywords[:limit]
	}
	return keywords, nil
}
