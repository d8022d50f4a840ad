// Package chi exposes the HTTP API: question answering, corpus search,
// ingestion triggers, and health.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/venueqa/venueqa/internal/domain"
	answeruc "github.com/venueqa/venueqa/internal/usecase/answer"
	healthuc "github.com/venueqa/venueqa/internal/usecase/health"
	ingestuc "github.com/venueqa/venueqa/internal/usecase/ingest"
	retrievaluc "github.com/venueqa/venueqa/internal/usecase/retrieval"
)

// Error codes returned to clients.
const (
	codeBadRequest        = "bad_request"
	codeUnauthorized      = "unauthorized"
	codeUnknownEntityType = "unknown_entity_type"
	codeIngestInFlight    = "ingest_in_flight"
	codeFetchFailed       = "fetch_failed"
	codeGenerationFailed  = "generation_failed"
	codeInternal          = "internal_error"
)

// errorResponse is the JSON error envelope for every non-2xx response.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Server routes HTTP requests to the use case services.
type Server struct {
	answers   *answeruc.Service
	retrieval *retrievaluc.Service
	ingest    *ingestuc.Service
	health    *healthuc.Service
	logger    *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	answers *answeruc.Service,
	retrieval *retrievaluc.Service,
	ingest *ingestuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	return &Server{
		answers:   answers,
		retrieval: retrieval,
		ingest:    ingest,
		health:    health,
		logger:    logger,
	}
}

// Register mounts all routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Post("/ask", s.handleAsk)
	r.Get("/search", s.handleSearch)
	r.Post("/ingest", s.handleIngest)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

type askRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Question is required")
		return
	}

	resp, err := s.answers.Ask(r.Context(), req.Question, req.TopK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

type searchResponse struct {
	Results []domain.SearchResult `json:"results"`
	Tier    retrievaluc.Tier      `json:"tier"`
}

type bothSearchResponse struct {
	Conferences []domain.SearchResult                  `json:"conferences"`
	Journals    []domain.SearchResult                  `json:"journals"`
	Tiers       map[domain.EntityType]retrievaluc.Tier `json:"tiers"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	topK := domain.ClampTopK(queryInt(r, "top_k"))

	entity := r.URL.Query().Get("type")
	if entity == "" || entity == "both" {
		both := s.retrieval.RetrieveBoth(r.Context(), query, topK)
		writeJSON(w, http.StatusOK, bothSearchResponse{
			Conferences: both.Conferences,
			Journals:    both.Journals,
			Tiers:       both.Tiers,
		})
		return
	}

	t := domain.EntityType(entity)
	results, tier, err := s.retrieval.Retrieve(r.Context(), t, query, topK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{Results: results, Tier: tier})
}

type ingestRequest struct {
	Entity string `json:"entity"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	// A client disconnect must not cancel a half-finished run; ingestion
	// outlives the triggering request, as it does on the boot and
	// scheduler paths.
	ctx := context.WithoutCancel(r.Context())

	if req.Entity == "" || req.Entity == "all" {
		reports, err := s.ingest.RunAll(ctx)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
		return
	}

	report, err := s.ingest.Run(ctx, domain.EntityType(req.Entity))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if report.InFlight {
		writeJSON(w, http.StatusConflict, errorResponse{
			Code:    codeIngestInFlight,
			Message: "an ingestion run for this entity is already active",
		})
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// sentinelStatus maps a domain sentinel to an HTTP status and error code.
type sentinelStatus struct {
	sentinel error
	status   int
	code     string
}

var sentinelStatuses = []sentinelStatus{
	{domain.ErrUnknownEntityType, http.StatusBadRequest, codeUnknownEntityType},
	{domain.ErrFetchFailed, http.StatusBadGateway, codeFetchFailed},
	{domain.ErrNoProviders, http.StatusBadGateway, codeGenerationFailed},
	{domain.ErrAllProvidersExhausted, http.StatusBadGateway, codeGenerationFailed},
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	for _, m := range sentinelStatuses {
		if errors.Is(err, m.sentinel) {
			writeError(w, m.status, m.code, m.sentinel.Error())
			return
		}
	}

	s.logger.Error("Unhandled domain error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
