// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the research pipeline over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pdiddy/usecase-engine/internal/engine"
	"github.com/pdiddy/usecase-engine/internal/history"
	"github.com/pdiddy/usecase-engine/internal/pipeline"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

// Handler serves the /v1 API.
type Handler struct {
	engine *engine.Engine
}

// NewRouter builds the HTTP router. allowedOrigins configures CORS; an
// empty list allows any origin.
func NewRouter(e *engine.Engine, allowedOrigins []string) http.Handler {
	h := &Handler{engine: e}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Healthz)

	r.Route("/v1", func(v1 chi.Router) {
		v1.Get("/plan", h.Plan)
		v1.Post("/reports", h.CreateReport)
		v1.Get("/runs", h.ListRuns)
		v1.Get("/runs/{id}", h.GetRun)
	})

	return r
}

// ReportRequest is the body of POST /v1/reports.
type ReportRequest struct {
	EntityName string   `json:"entity_name"`
	Domain     string   `json:"domain"`
	Formats    []string `json:"formats,omitempty"`
}

// ReportResponse describes a finished run.
type ReportResponse struct {
	RunID       string                         `json:"run_id"`
	Summary     string                         `json:"summary"`
	FailedCalls int                            `json:"failed_calls"`
	Steps       map[string]pipeline.StepStatus `json:"steps"`
	Artifacts   []history.ArtifactRef          `json:"artifacts"`
	Manifest    string                         `json:"manifest,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	RunID string `json:"run_id,omitempty"`
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Plan returns the queries a request would issue, without calling providers.
func (h *Handler) Plan(w http.ResponseWriter, r *http.Request) {
	req := types.ResearchRequest{
		EntityName: r.URL.Query().Get("entity_name"),
		Domain:     r.URL.Query().Get("domain"),
	}
	queries, err := h.engine.Pipeline.Planner().PlanRequest(req)
	if err != nil {
		writeError(w, statusFor(err), err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"queries": queries})
}

// CreateReport runs the pipeline synchronously and returns the stored
// artifact locations.
func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var body ReportRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err), "")
		return
	}

	formats, err := parseFormats(body.Formats)
	if err != nil {
		writeError(w, http.StatusBadRequest, err, "")
		return
	}

	req := types.ResearchRequest{EntityName: body.EntityName, Domain: body.Domain}
	out, err := h.engine.Generate(r.Context(), req, formats...)
	if err != nil {
		runID := ""
		if out != nil {
			runID = out.Result.RunID
		}
		writeError(w, statusFor(err), err, runID)
		return
	}

	writeJSON(w, http.StatusCreated, ReportResponse{
		RunID:       out.Result.RunID,
		Summary:     out.Result.Summary(),
		FailedCalls: out.Result.FailedCalls,
		Steps:       out.Result.Steps,
		Artifacts:   out.Artifacts,
		Manifest:    out.Manifest,
	})
}

// ListRuns returns recent runs, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.engine.History == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("run history is disabled"), "")
		return
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", s), "")
			return
		}
		limit = n
	}
	runs, err := h.engine.History.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// GetRun returns one run with its result records.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.engine.History == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("run history is disabled"), "")
		return
	}
	run, err := h.engine.History.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, err, "")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err, "")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func parseFormats(names []string) ([]types.Format, error) {
	formats := make([]types.Format, 0, len(names))
	for _, n := range names {
		f, err := types.ParseFormat(strings.TrimSpace(n))
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, nil
}

// statusFor maps pipeline errors to HTTP status codes: bad input is the
// caller's fault, everything else is ours.
func statusFor(err error) int {
	var vErr *types.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error, runID string) {
	writeJSON(w, status, errorResponse{Error: err.Error(), RunID: runID})
}
