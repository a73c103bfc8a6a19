// Package chi exposes the HTTP API: part recommendations, the mechanics
// directory and operational endpoints.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mecanice/partsense/internal/domain"
	healthuc "github.com/mecanice/partsense/internal/usecase/health"
	mechanicuc "github.com/mecanice/partsense/internal/usecase/mechanic"
	recommenduc "github.com/mecanice/partsense/internal/usecase/recommend"
)

// Error codes returned in JSON error bodies.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeNotFound         = "not_found"
	codeDuplicatePhone   = "duplicate_phone"
	codeUnauthorized     = "unauthorized"
	codeUpstreamError    = "upstream_error"
	codeInternalError    = "internal_error"
)

// errorResponse is the JSON error body shape.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server hosts the HTTP handlers.
type Server struct {
	recommend     *recommenduc.Service
	mechanics     *mechanicuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	adminToken    string
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	recommend *recommenduc.Service,
	mechanics *mechanicuc.Service,
	health *healthuc.Service,
	adminToken string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		recommend:  recommend,
		mechanics:  mechanics,
		health:     health,
		adminToken: adminToken,
		logger:     logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrDuplicatePhone, http.StatusConflict, codeDuplicatePhone),
		sentinelHandler(domain.ErrEmbeddingProviderError,
			http.StatusBadGateway, codeUpstreamError),
		sentinelHandler(domain.ErrVectorStoreError, http.StatusBadGateway, codeUpstreamError),
		sentinelHandler(domain.ErrLLMProviderError, http.StatusBadGateway, codeUpstreamError),
		sentinelHandler(domain.ErrSchemaValidation, http.StatusBadGateway, codeUpstreamError),
	}
	return s
}

// Register mounts all routes on the router. The mechanics subtree is
// guarded by the admin token middleware.
func (s *Server) Register(r chi.Router) {
	r.Post("/parts/recommendations", s.PartsRecommendations)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/mechanics", func(r chi.Router) {
		r.Use(AdminAuthMiddleware(s.adminToken))
		r.Post("/", s.CreateMechanic)
		r.Get("/", s.ListMechanics)
		r.Get("/{id}", s.GetMechanic)
		r.Patch("/{id}", s.UpdateMechanic)
		r.Patch("/{id}/status", s.SetMechanicStatus)
	})
}

// PartsRecommendations handles POST /parts/recommendations.
func (s *Server) PartsRecommendations(w http.ResponseWriter, r *http.Request) {
	var req domain.RecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	resp, err := s.recommend.Recommend(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateMechanic handles POST /mechanics.
func (s *Server) CreateMechanic(w http.ResponseWriter, r *http.Request) {
	var m domain.Mechanic
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	created, err := s.mechanics.Create(r.Context(), &m)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// ListMechanics handles GET /mechanics.
func (s *Server) ListMechanics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "limit must be an integer")
			return
		}
		limit = n
	}
	offset := 0
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "offset must be an integer")
			return
		}
		offset = n
	}

	mechanics, err := s.mechanics.List(r.Context(), q.Get("status"), limit, offset)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if mechanics == nil {
		mechanics = []domain.Mechanic{}
	}

	writeJSON(w, http.StatusOK, mechanics)
}

// GetMechanic handles GET /mechanics/{id}.
func (s *Server) GetMechanic(w http.ResponseWriter, r *http.Request) {
	id, ok := s.mechanicID(w, r)
	if !ok {
		return
	}

	m, err := s.mechanics.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, m)
}

// UpdateMechanic handles PATCH /mechanics/{id}.
func (s *Server) UpdateMechanic(w http.ResponseWriter, r *http.Request) {
	id, ok := s.mechanicID(w, r)
	if !ok {
		return
	}

	var upd domain.MechanicUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	m, err := s.mechanics.Update(r.Context(), id, upd)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, m)
}

// SetMechanicStatus handles PATCH /mechanics/{id}/status.
func (s *Server) SetMechanicStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := s.mechanicID(w, r)
	if !ok {
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	m, err := s.mechanics.SetStatus(r.Context(), id, body.Status)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, m)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) mechanicID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "mechanic id must be an integer")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns an error message for the client without exposing internals.
// Upstream failures keep the full wrapped message: the caller needs the
// provider status and body to act on a 502.
func safeDomainMessage(err error) string {
	upstream := []error{
		domain.ErrEmbeddingProviderError,
		domain.ErrVectorStoreError,
		domain.ErrLLMProviderError,
		domain.ErrSchemaValidation,
	}
	for _, s := range upstream {
		if errors.Is(err, s) {
			return err.Error()
		}
	}

	sentinels := []error{
		domain.ErrInvalidInput,
		domain.ErrNotFound,
		domain.ErrDuplicatePhone,
		domain.ErrUnauthorized,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
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
