// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "review-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the paper search provider.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the search API base (e.g. "https://api.semanticscholar.org/graph/v1").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey is an optional key for higher rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRateLimitRetries caps how many times a rate-limited request is
	// retried before giving up (default 60).
	MaxRateLimitRetries int `json:"max_rate_limit_retries" yaml:"max_rate_limit_retries"`
}

// CompletionConfig holds settings for the chat-completion provider.
type CompletionConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the completions API base (e.g. "https://api.openai.com/v1").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey is the bearer token. Mandatory; constructors reject an empty key.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Model is the model identifier sent with each request.
	Model string `json:"model" yaml:"model"`

	// MaxRetries is the attempt cap for callers that opt into the
	// retry-with-backoff helper (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// LibraryConfig holds settings for the report archive.
type LibraryConfig struct {
	// Dir is the directory containing the archive database (default "library/").
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default maximum number of search results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// ServerConfig holds settings for the HTTP analysis service.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`

	// Verbose controls whether internal error messages are returned to
	// clients. Leave false in production.
	Verbose bool `json:"verbose" yaml:"verbose"`

	// MaxUploadBytes bounds multipart uploads to /analyze-file (default 10 MiB).
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes"`
}
