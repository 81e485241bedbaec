// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scholar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/review-engine/pkg/types"
)

func init() {
	// Use a tiny flat delay so tests finish quickly.
	rateLimitDelay = 1 * time.Millisecond
}

func testClient(baseURL string) *Client {
	return NewClient(types.SearchConfig{
		HTTPConfig: types.HTTPConfig{UserAgent: "review-engine-test"},
		BaseURL:    baseURL,
	})
}

const searchBody = `{"total":2,"offset":0,"data":[
	{"paperId":"p1","title":"Graph Databases at Scale","abstract":"We study graphs.","url":"https://example.org/p1","year":2023,"citationCount":42,"authors":[{"authorId":"a1","name":"Ada Lovelace"},{"authorId":"a2","name":"Alan Turing"}]},
	{"paperId":"p2","title":"Property Graph Semantics","abstract":"","url":"https://example.org/p2","authors":[]}
]}`

func TestSearchRequestParams(t *testing.T) {
	var captured *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, searchBody)
	}))
	defer ts.Close()

	c := testClient(ts.URL)
	docs, err := c.Search(context.Background(), "graph databases", 2)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "/paper/search", captured.URL.Path)
	q := captured.URL.Query()
	assert.Equal(t, "graph databases", q.Get("query"))
	assert.Equal(t, "2", q.Get("limit"))
	for _, f := range []string{"title", "abstract", "authors", "url", "year", "citationCount"} {
		assert.Contains(t, q.Get("fields"), f)
	}

	assert.Equal(t, "p1", docs[0].ID)
	assert.Equal(t, []types.Author{{Name: "Ada Lovelace"}, {Name: "Alan Turing"}}, docs[0].Authors)
	assert.Equal(t, 42, docs[0].CitationCount)
	assert.Empty(t, docs[1].Abstract)
}

func TestSearchAPIKeyHeader(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
	}{
		{"with API key", "test-key-123"},
		{"without API key", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured *http.Request
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				captured = r
				fmt.Fprint(w, `{"total":0,"offset":0,"data":[]}`)
			}))
			defer ts.Close()

			c := NewClient(types.SearchConfig{BaseURL: ts.URL, APIKey: tt.apiKey})
			_, err := c.Search(context.Background(), "attention", 5)
			require.NoError(t, err)
			assert.Equal(t, tt.apiKey, captured.Header.Get("x-api-key"))
		})
	}
}

func TestSearchInvalidArguments(t *testing.T) {
	c := testClient("http://unused.invalid")

	_, err := c.Search(context.Background(), "  ", 5)
	assert.Error(t, err)

	_, err = c.Search(context.Background(), "graphs", 0)
	var se *SearchError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Message, "limit")
}

func TestSearchRateLimitedThenSuccess(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, searchBody)
	}))
	defer ts.Close()

	c := testClient(ts.URL)
	docs, err := c.Search(context.Background(), "graph databases", 2)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	// One rate-limited attempt, one flat-delay wait, one success.
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSearchRateLimitRetryCap(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	c := NewClient(types.SearchConfig{BaseURL: ts.URL, MaxRateLimitRetries: 3})
	_, err := c.Search(context.Background(), "graphs", 1)

	var se *SearchError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestSearchOtherErrorsNotRetried(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"bad request", http.StatusBadRequest},
		{"not found", http.StatusNotFound},
		{"server error", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				atomic.AddInt32(&calls, 1)
				http.Error(w, "upstream says no", tt.status)
			}))
			defer ts.Close()

			c := testClient(ts.URL)
			_, err := c.Search(context.Background(), "graphs", 1)

			var se *SearchError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Contains(t, se.Message, "upstream says no")
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "non-429 failures must not retry")
		})
	}
}

func TestSearchContextCancelledDuringWait(t *testing.T) {
	old := rateLimitDelay
	rateLimitDelay = 1 * time.Hour
	defer func() { rateLimitDelay = old }()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	c := testClient(ts.URL)
	_, err := c.Search(ctx, "graphs", 1)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestDetails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/paper/p1", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("fields"))
		fmt.Fprint(w, `{"paperId":"p1","title":"Graph Databases at Scale","abstract":"We study graphs.","url":"https://example.org/p1","year":2023,"citationCount":42,"authors":[{"authorId":"a1","name":"Ada Lovelace"}]}`)
	}))
	defer ts.Close()

	c := testClient(ts.URL)
	doc, err := c.Details(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Graph Databases at Scale", doc.Title)
	assert.Equal(t, 2023, doc.Year)
}

func TestCitations(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/paper/p1/citations", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `{"data":[
			{"citingPaper":{"paperId":"c1","title":"First Citer","url":"https://example.org/c1"}},
			{"citingPaper":{"paperId":"c2","title":"Second Citer","url":"https://example.org/c2"}}
		]}`)
	}))
	defer ts.Close()

	c := testClient(ts.URL)
	docs, err := c.Citations(context.Background(), "p1", 2)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "First Citer", docs[0].Title)
	assert.Equal(t, "c2", docs[1].ID)
}

func TestSearchTruncatesOverLimit(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, searchBody)
	}))
	defer ts.Close()

	c := testClient(ts.URL)
	docs, err := c.Search(context.Background(), "graphs", 1)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestSearchMalformedResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data": not-json`)
	}))
	defer ts.Close()

	c := testClient(ts.URL)
	_, err := c.Search(context.Background(), "graphs", 1)
	var se *SearchError
	require.ErrorAs(t, err, &se)
	assert.True(t, strings.Contains(se.Message, "parsing response"))
}
