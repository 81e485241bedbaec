// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/review-engine/internal/analysis"
	"github.com/pdiddy/review-engine/internal/llm"
	"github.com/pdiddy/review-engine/pkg/types"
)

// fakeAnalyzer counts calls and returns a canned result or error.
type fakeAnalyzer struct {
	calls  int
	result types.AnalysisResult
	err    error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req types.AnalysisRequest) (types.AnalysisResult, error) {
	f.calls++
	if f.err != nil {
		return types.AnalysisResult{}, f.err
	}
	return f.result, nil
}

func (f *fakeAnalyzer) Model() string { return "test-model" }

func newTestServer(fa *fakeAnalyzer, verbose bool) *Server {
	return New(fa, types.ServerConfig{Verbose: verbose}, io.Discard)
}

const validJSONBody = `{"data": "{\"records\":{\"income\":[{\"date\":\"2026-01-05\",\"description\":\"Invoice paid\",\"amount\":\"1250.00\"}]}}", "format": "json"}`

func postAnalyze(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeSuccess(t *testing.T) {
	fa := &fakeAnalyzer{result: types.AnalysisResult{Summary: "Looks healthy."}}
	rec := postAnalyze(t, newTestServer(fa, false), validJSONBody)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Looks healthy.", resp.Analysis.Summary)
	assert.Equal(t, "test-model", resp.Metadata.Model)
	assert.NotEmpty(t, resp.Metadata.RequestID)
	assert.Equal(t, 1, resp.Metadata.Entries)
	assert.Equal(t, 1, fa.calls)
}

func TestAnalyzeParseFailure(t *testing.T) {
	fa := &fakeAnalyzer{}
	rec := postAnalyze(t, newTestServer(fa, false), `{"data": "not json at all", "format": "json"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "parse_error", resp.Error)
	assert.Equal(t, 0, fa.calls, "parse failures never reach the pipeline")
}

func TestAnalyzeValidationFailure(t *testing.T) {
	fa := &fakeAnalyzer{err: &analysis.ValidationError{
		Violations: []string{"income[0]: date is mandatory", `unknown category "gambling"`},
	}}
	rec := postAnalyze(t, newTestServer(fa, false), validJSONBody)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation_failed", resp.Error)
	assert.Len(t, resp.Details, 2)
}

func TestAnalyzeProviderErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"rate limited", &llm.RateLimitError{Message: "slow down"}, http.StatusTooManyRequests, "rate_limited"},
		{"auth", &llm.AuthError{Message: "bad key"}, http.StatusUnauthorized, "unauthorized"},
		{"provider down", &llm.ServerError{StatusCode: 503, Message: "maintenance"}, http.StatusBadGateway, "provider_unavailable"},
		{"malformed completion", &analysis.MalformedResponseError{Missing: []string{"kpis"}}, http.StatusBadGateway, "malformed_completion"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fa := &fakeAnalyzer{err: tt.err}
			rec := postAnalyze(t, newTestServer(fa, false), validJSONBody)

			require.Equal(t, tt.wantStatus, rec.Code)
			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantError, resp.Error)
			assert.Equal(t, 1, fa.calls, "adapter must not retry on its own")
		})
	}
}

func TestErrorMessagesGenericInProduction(t *testing.T) {
	fa := &fakeAnalyzer{err: &llm.ServerError{StatusCode: 500, Message: "stack trace with secrets"}}

	rec := postAnalyze(t, newTestServer(fa, false), validJSONBody)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotContains(t, resp.Message, "stack trace with secrets")

	rec = postAnalyze(t, newTestServer(fa, true), validJSONBody)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message, "stack trace with secrets")
}

func TestAnalyzeRejectsNonJSONBody(t *testing.T) {
	rec := postAnalyze(t, newTestServer(&fakeAnalyzer{}, false), "this is not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeMethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/analyze", nil)
	rec := httptest.NewRecorder()
	newTestServer(&fakeAnalyzer{}, false).Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func multipartBody(t *testing.T, filename, contents, format string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(contents))
	require.NoError(t, err)
	if format != "" {
		require.NoError(t, mw.WriteField("format", format))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestAnalyzeFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("TMPDIR", tmpDir)

	fa := &fakeAnalyzer{result: types.AnalysisResult{Summary: "ok"}}
	csvData := "category,date,description,amount\nincome,2026-01-05,Invoice paid,1250.00\n"
	body, contentType := multipartBody(t, "records.csv", csvData, "")

	req := httptest.NewRequest(http.MethodPost, "/analyze-file", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	newTestServer(fa, false).Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "csv", resp.Metadata.Format, "format inferred from filename")

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp upload files are removed after success")
}

func TestAnalyzeFileTempRemovedOnFailure(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("TMPDIR", tmpDir)

	fa := &fakeAnalyzer{err: &llm.RateLimitError{Message: "slow down"}}
	csvData := "category,date,description,amount\nincome,2026-01-05,Invoice paid,1250.00\n"
	body, contentType := multipartBody(t, "records.csv", csvData, "csv")

	req := httptest.NewRequest(http.MethodPost, "/analyze-file", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	newTestServer(fa, false).Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp upload files are removed after failure too")
}

func TestAnalyzeFileMissingPart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/analyze-file", strings.NewReader("not multipart"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	rec := httptest.NewRecorder()
	newTestServer(&fakeAnalyzer{}, false).Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
