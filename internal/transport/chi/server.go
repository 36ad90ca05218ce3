// Package chi exposes the draftmill HTTP API: knowledge search, content
// workflows, and service status.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/draftmill-io/draftmill/internal/domain"
	"github.com/draftmill-io/draftmill/internal/domain/document"
	"github.com/draftmill-io/draftmill/internal/domain/search/request"
	"github.com/draftmill-io/draftmill/internal/domain/workflow/result"
	"github.com/draftmill-io/draftmill/internal/domain/workflow/state"
	"github.com/draftmill-io/draftmill/internal/metrics"
	healthuc "github.com/draftmill-io/draftmill/internal/usecase/health"
	workflowuc "github.com/draftmill-io/draftmill/internal/usecase/workflow"
)

// Retrieval is the knowledge search facade consumed by the server.
type Retrieval interface {
	Search(ctx context.Context, req request.Request) ([]document.Document, error)
	CacheSize() int
}

// Workflows is the content orchestration facade consumed by the server.
type Workflows interface {
	CreateContent(ctx context.Context, req workflowuc.Request) (result.Report, error)
	Status(workflowID string) (state.State, error)
	ActiveCount() int
}

// Health runs component health checks.
type Health interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// SearchDefaults are the fallback search parameters applied when a request
// leaves them unset. Zero values defer to the request package defaults.
type SearchDefaults struct {
	Threshold float64
	TTL       time.Duration
}

// Server is the draftmill HTTP API server.
type Server struct {
	retrieval     Retrieval
	workflows     Workflows
	health        Health
	tracker       *metrics.Tracker
	logger        *zap.Logger
	defaults      SearchDefaults
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(retrieval Retrieval, workflows Workflows, health Health, tracker *metrics.Tracker, logger *zap.Logger) *Server {
	s := &Server{
		retrieval: retrieval,
		workflows: workflows,
		health:    health,
		tracker:   tracker,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrWorkflowNotFound, http.StatusNotFound, codeWorkflowNotFound),
		sentinelHandler(domain.ErrMissingCollaborator, http.StatusServiceUnavailable, codeNotConfigured),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderError),
	}
	return s
}

// WithSearchDefaults sets service-level search fallbacks and returns the server.
func (s *Server) WithSearchDefaults(d SearchDefaults) *Server {
	s.defaults = d
	return s
}

// Routes returns the API route tree.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Route("/v1", func(r chi.Router) {
		r.Post("/search", s.SearchKnowledge)
		r.Post("/content", s.CreateContent)
		r.Get("/status", s.GetStatus)
		r.Get("/workflows/{workflowID}", s.GetWorkflow)
	})

	r.Get("/healthz", s.Healthz)
	r.Get("/readyz", s.Readyz)
	r.Get("/metrics", s.Metrics)

	return r
}

// SearchKnowledge handles POST /v1/search.
func (s *Server) SearchKnowledge(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	sreq, err := searchRequestFromJSON(req, s.defaults)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	docs, err := s.retrieval.Search(r.Context(), sreq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponseToJSON(docs))
}

// CreateContent handles POST /v1/content.
func (s *Server) CreateContent(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Topic == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Topic is required")
		return
	}

	report, err := s.workflows.CreateContent(r.Context(), workflowuc.Request{
		Topic:        req.Topic,
		Domain:       req.Domain,
		ContentType:  req.ContentType,
		Requirements: req.Requirements,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	// Failed workflows are well-formed reports, not transport errors.
	resp := reportToJSON(report)
	resp.Metrics = s.tracker.Snapshot()
	writeJSON(w, http.StatusOK, resp)
}

// GetStatus handles GET /v1/status.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		ActiveWorkflows: s.workflows.ActiveCount(),
		CacheSize:       s.retrieval.CacheSize(),
		Metrics:         s.tracker.Snapshot(),
	})
}

// GetWorkflow handles GET /v1/workflows/{workflowID}.
func (s *Server) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	workflowID := chi.URLParam(r, "workflowID")

	st, err := s.workflows.Status(workflowID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, workflowStatusResponse{
		WorkflowID: workflowID,
		State:      string(st),
	})
}

// Healthz handles GET /healthz (liveness).
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz handles GET /readyz (readiness, runs component checks).
func (s *Server) Readyz(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	checks := make(map[string]string, len(report.Checks))
	for name, res := range report.Checks {
		checks[name] = string(res)
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrRateLimited,
		domain.ErrWorkflowNotFound,
		domain.ErrMissingCollaborator,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}
