// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the financial-analysis pipeline over HTTP. It only
// marshals requests and responses; parsing, validation, and the completion
// call live in the analysis package. Failures map to status codes here and
// internal detail is withheld unless the server runs in verbose mode.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/review-engine/internal/analysis"
	"github.com/pdiddy/review-engine/internal/llm"
	"github.com/pdiddy/review-engine/pkg/types"
)

const defaultMaxUploadBytes = 10 << 20

// Analyzer is the analysis pipeline as the server consumes it.
type Analyzer interface {
	Analyze(ctx context.Context, req types.AnalysisRequest) (types.AnalysisResult, error)
	Model() string
}

// Server handles POST /analyze and POST /analyze-file.
type Server struct {
	analyzer Analyzer
	cfg      types.ServerConfig
	logw     io.Writer
}

// New wires a Server. Log lines go to w; pass io.Discard to silence them.
func New(analyzer Analyzer, cfg types.ServerConfig, w io.Writer) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if w == nil {
		w = io.Discard
	}
	return &Server{analyzer: analyzer, cfg: cfg, logw: w}
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("POST /analyze-file", s.handleAnalyzeFile)
	return mux
}

// ListenAndServe blocks serving requests on the configured address.
func (s *Server) ListenAndServe() error {
	fmt.Fprintf(s.logw, "listening on %s\n", s.cfg.Addr)
	return http.ListenAndServe(s.cfg.Addr, s.Handler())
}

// analyzeRequest is the POST /analyze body.
type analyzeRequest struct {
	Data   string `json:"data"`
	Format string `json:"format"`
}

// analyzeResponse is the success body for both endpoints.
type analyzeResponse struct {
	Success  bool                 `json:"success"`
	Analysis types.AnalysisResult `json:"analysis"`
	Metadata responseMetadata     `json:"metadata"`
}

type responseMetadata struct {
	RequestID  string `json:"request_id"`
	Model      string `json:"model"`
	Format     string `json:"format"`
	Entries    int    `json:"entries"`
	DurationMS int64  `json:"duration_ms"`
}

// errorResponse is the failure body: message for single-cause failures,
// details for validation violation lists.
type errorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Details []string `json:"details,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "bad_request",
			Message: "request body must be JSON with data and format fields",
		})
		return
	}
	s.analyze(w, r, []byte(body.Data), body.Format)
}

func (s *Server) handleAnalyzeFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "bad_request",
			Message: `multipart upload must carry a "file" part`,
		})
		return
	}
	defer file.Close()

	// Spool to a temp file; it is removed on every path out of here.
	tmp, err := os.CreateTemp("", "review-engine-upload-*")
	if err != nil {
		s.writeInternal(w, err)
		return
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		s.writeInternal(w, err)
		return
	}

	data, err := os.ReadFile(tmp.Name())
	if err != nil {
		s.writeInternal(w, err)
		return
	}

	format := r.FormValue("format")
	if format == "" {
		format = formatFromFilename(header.Filename)
	}
	s.analyze(w, r, data, format)
}

// analyze is the shared request path: parse, run the pipeline, map failures.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request, data []byte, format string) {
	requestID := uuid.NewString()
	start := time.Now()

	req, err := analysis.ParseRecords(data, format)
	if err != nil {
		s.writeError(w, requestID, err)
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), req)
	if err != nil {
		s.writeError(w, requestID, err)
		return
	}

	s.writeJSON(w, http.StatusOK, analyzeResponse{
		Success:  true,
		Analysis: result,
		Metadata: responseMetadata{
			RequestID:  requestID,
			Model:      s.analyzer.Model(),
			Format:     format,
			Entries:    req.EntryCount(),
			DurationMS: time.Since(start).Milliseconds(),
		},
	})
}

// writeError maps pipeline failures to status codes. Client errors keep
// their detail; provider and internal failures are genericized unless the
// server runs verbose.
func (s *Server) writeError(w http.ResponseWriter, requestID string, err error) {
	fmt.Fprintf(s.logw, "request %s failed: %v\n", requestID, err)

	var (
		parseErr     *analysis.ParseError
		validErr     *analysis.ValidationError
		malformedErr *analysis.MalformedResponseError
		authErr      *llm.AuthError
		rateErr      *llm.RateLimitError
		serverErr    *llm.ServerError
	)

	switch {
	case errors.As(err, &parseErr):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "parse_error", Message: parseErr.Error()})
	case errors.As(err, &validErr):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation_failed", Details: validErr.Violations})
	case errors.As(err, &authErr):
		s.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: s.message("completion provider rejected the configured credentials", err)})
	case errors.As(err, &rateErr):
		s.writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate_limited", Message: s.message("completion provider is rate limiting requests, try again later", err)})
	case errors.As(err, &serverErr):
		s.writeJSON(w, http.StatusBadGateway, errorResponse{Error: "provider_unavailable", Message: s.message("completion provider is unavailable", err)})
	case errors.As(err, &malformedErr):
		s.writeJSON(w, http.StatusBadGateway, errorResponse{Error: "malformed_completion", Message: s.message("completion provider returned an unusable response", err)})
	default:
		s.writeInternal(w, err)
	}
}

func (s *Server) writeInternal(w http.ResponseWriter, err error) {
	s.writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:   "internal_error",
		Message: s.message("internal error", err),
	})
}

// message returns the underlying error text in verbose mode and the generic
// text otherwise.
func (s *Server) message(generic string, err error) string {
	if s.cfg.Verbose {
		return err.Error()
	}
	return generic
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		fmt.Fprintf(s.logw, "writing response: %v\n", err)
	}
}

func formatFromFilename(name string) string {
	switch {
	case strings.HasSuffix(strings.ToLower(name), ".csv"):
		return analysis.FormatCSV
	case strings.HasSuffix(strings.ToLower(name), ".json"):
		return analysis.FormatJSON
	default:
		return ""
	}
}
