// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm sends prompts to a chat-completions API and classifies
// provider failures. Complete never retries on its own; callers that want
// retry wrap their calls with Retry.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/review-engine/pkg/types"
)

const (
	defaultBaseURL   = "https://api.openai.com/v1"
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 1024
	defaultTimeout   = 120 * time.Second

	// ResponseFormatJSON forces the provider to return a valid JSON object.
	ResponseFormatJSON = "json_object"
)

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes one completion call.
type Request struct {
	Messages  []Message
	MaxTokens int

	// Temperature is sent only when > 0.
	Temperature float64

	// ResponseFormat is "" for free text or ResponseFormatJSON.
	ResponseFormat string
}

// AuthError is an authentication failure (HTTP 401/403). Never retried.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return "completion API authentication failed: " + e.Message }

// RateLimitError is an HTTP 429 from the provider. Callers may retry.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string { return "completion API rate limited: " + e.Message }

// ServerError is a transient upstream outage (HTTP >= 500). Callers may retry.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("completion API unavailable (HTTP %d): %s", e.StatusCode, e.Message)
}

// APIError is any other completion failure, wrapping the provider's message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("completion API error (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return "completion API error: " + e.Message
}

// Client talks to an OpenAI-style chat-completions API.
type Client struct {
	cfg    types.CompletionConfig
	client *http.Client
}

// NewClient builds a Client from cfg. The API key is mandatory; a missing
// key fails here, at composition time, rather than on the first request.
func NewClient(cfg types.CompletionConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("completion API key is not set")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.cfg.Model }

// MaxRetries returns the configured attempt cap for Retry, defaulting to 3.
func (c *Client) MaxRetries() int {
	if c.cfg.MaxRetries <= 0 {
		return defaultMaxAttempts
	}
	return c.cfg.MaxRetries
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens"`
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Complete sends one completion request and returns the generated text.
// Failures are classified: 401/403 -> *AuthError, 429 -> *RateLimitError,
// >= 500 -> *ServerError, everything else -> *APIError.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if len(req.Messages) == 0 {
		return "", &APIError{Message: "no messages in request"}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	body := chatRequest{
		Model:     c.cfg.Model,
		Messages:  req.Messages,
		MaxTokens: maxTokens,
	}
	if req.Temperature > 0 {
		body.Temperature = &req.Temperature
	}
	if req.ResponseFormat != "" {
		body.ResponseFormat = &responseFormat{Type: req.ResponseFormat}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if c.cfg.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return "", &APIError{Message: err.Error()}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", &APIError{Message: "reading response: " + err.Error()}
	}

	msg := strings.TrimSpace(string(respBody))
	switch {
	case httpResp.StatusCode == http.StatusUnauthorized || httpResp.StatusCode == http.StatusForbidden:
		return "", &AuthError{Message: msg}
	case httpResp.StatusCode == http.StatusTooManyRequests:
		return "", &RateLimitError{Message: msg}
	case httpResp.StatusCode >= 500:
		return "", &ServerError{StatusCode: httpResp.StatusCode, Message: msg}
	case httpResp.StatusCode != http.StatusOK:
		return "", &APIError{StatusCode: httpResp.StatusCode, Message: msg}
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", &APIError{Message: "parsing response: " + err.Error()}
	}
	if len(result.Choices) == 0 {
		return "", &APIError{Message: "no choices in response"}
	}
	content := result.Choices[0].Message.Content
	if content == "" {
		return "", &APIError{Message: "empty text content in response"}
	}
	return content, nil
}
