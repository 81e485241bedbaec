// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scholar queries the paper search API for candidate documents,
// paper details, and citations. Rate-limit (HTTP 429) responses are retried
// with a flat delay; every other failure surfaces immediately as a
// *SearchError.
package scholar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/review-engine/pkg/types"
)

// rateLimitDelay is the flat wait between rate-limited attempts. The search
// API recovers on its own schedule, so there is no exponential growth here.
// Tests override this to avoid real sleeps.
var rateLimitDelay = 5 * time.Second

const (
	defaultBaseURL             = "https://api.semanticscholar.org/graph/v1"
	defaultMaxRateLimitRetries = 60
	defaultTimeout             = 30 * time.Second

	paperFields = "title,abstract,authors,url,year,citationCount"
)

// SearchError is a non-retryable search provider failure. StatusCode is zero
// for transport-level errors.
type SearchError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *SearchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: search API returned HTTP %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Client talks to a Semantic-Scholar-style paper API.
type Client struct {
	cfg    types.SearchConfig
	client *http.Client
}

// NewClient builds a Client from cfg, filling in defaults for base URL,
// timeout, and the rate-limit retry cap.
func NewClient(cfg types.SearchConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRateLimitRetries <= 0 {
		cfg.MaxRateLimitRetries = defaultMaxRateLimitRetries
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Search queries the paper API and returns up to limit documents in the
// provider's relevance order.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]types.Document, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &SearchError{Op: "search", Message: "empty query"}
	}
	if limit < 1 {
		return nil, &SearchError{Op: "search", Message: fmt.Sprintf("limit must be >= 1, got %d", limit)}
	}

	params := url.Values{
		"query":  {query},
		"limit":  {fmt.Sprintf("%d", limit)},
		"fields": {paperFields},
	}

	var sr struct {
		Total  int            `json:"total"`
		Offset int            `json:"offset"`
		Data   []scholarPaper `json:"data"`
	}
	if err := c.getJSON(ctx, "search", "/paper/search?"+params.Encode(), &sr); err != nil {
		return nil, err
	}

	docs := make([]types.Document, 0, len(sr.Data))
	for _, p := range sr.Data {
		docs = append(docs, p.toDocument())
	}
	if len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// Details fetches full metadata for a single paper.
func (c *Client) Details(ctx context.Context, id string) (types.Document, error) {
	if id == "" {
		return types.Document{}, &SearchError{Op: "details", Message: "empty paper id"}
	}

	params := url.Values{"fields": {paperFields}}

	var p scholarPaper
	if err := c.getJSON(ctx, "details", "/paper/"+url.PathEscape(id)+"?"+params.Encode(), &p); err != nil {
		return types.Document{}, err
	}
	return p.toDocument(), nil
}

// Citations fetches up to limit papers that cite the given paper.
func (c *Client) Citations(ctx context.Context, id string, limit int) ([]types.Document, error) {
	if id == "" {
		return nil, &SearchError{Op: "citations", Message: "empty paper id"}
	}
	if limit < 1 {
		return nil, &SearchError{Op: "citations", Message: fmt.Sprintf("limit must be >= 1, got %d", limit)}
	}

	params := url.Values{
		"fields": {paperFields},
		"limit":  {fmt.Sprintf("%d", limit)},
	}

	var cr struct {
		Data []struct {
			CitingPaper scholarPaper `json:"citingPaper"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, "citations", "/paper/"+url.PathEscape(id)+"/citations?"+params.Encode(), &cr); err != nil {
		return nil, err
	}

	docs := make([]types.Document, 0, len(cr.Data))
	for _, entry := range cr.Data {
		docs = append(docs, entry.CitingPaper.toDocument())
	}
	if len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// getJSON issues a GET and decodes the JSON response into out. HTTP 429 is
// retried with a flat rateLimitDelay wait, up to the configured cap; the wait
// honors ctx cancellation. Any other non-200 status returns a *SearchError.
func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	reqURL := c.cfg.BaseURL + path

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return &SearchError{Op: op, Message: "creating request: " + err.Error()}
		}
		if c.cfg.UserAgent != "" {
			req.Header.Set("User-Agent", c.cfg.UserAgent)
		}
		if c.cfg.APIKey != "" {
			req.Header.Set("x-api-key", c.cfg.APIKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return &SearchError{Op: op, Message: err.Error()}
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			// Drain and close the body before waiting.
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			if attempt >= c.cfg.MaxRateLimitRetries {
				return &SearchError{
					Op:         op,
					StatusCode: http.StatusTooManyRequests,
					Message:    fmt.Sprintf("still rate limited after %d retries", c.cfg.MaxRateLimitRetries),
				}
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(rateLimitDelay):
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return &SearchError{
				Op:         op,
				StatusCode: resp.StatusCode,
				Message:    strings.TrimSpace(string(body)),
			}
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return &SearchError{Op: op, Message: "parsing response: " + err.Error()}
		}
		return nil
	}
}

// scholarPaper mirrors the search API's paper JSON shape.
type scholarPaper struct {
	PaperID       string          `json:"paperId"`
	Title         string          `json:"title"`
	Abstract      string          `json:"abstract"`
	URL           string          `json:"url"`
	Year          int             `json:"year"`
	CitationCount int             `json:"citationCount"`
	Authors       []scholarAuthor `json:"authors"`
}

type scholarAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

func (p scholarPaper) toDocument() types.Document {
	d := types.Document{
		ID:            p.PaperID,
		Title:         p.Title,
		Abstract:      p.Abstract,
		URL:           p.URL,
		Year:          p.Year,
		CitationCount: p.CitationCount,
	}
	for _, a := range p.Authors {
		d.Authors = append(d.Authors, types.Author{Name: a.Name})
	}
	return d
}
