package search

import (
	"encoding/json"
	"net/http"

	"github.com/shopsearch/shop-search/internal/llm"
	apperrors "github.com/shopsearch/shop-search/internal/pkg/errors"
	"github.com/shopsearch/shop-search/internal/pkg/security"
)

// Handler provides HTTP handlers for search operations.
type Handler struct {
	svc *Service
	llm llm.Service
}

// NewHandler creates a new search handler. llmSvc is used for the health
// report and may be nil.
func NewHandler(svc *Service, llmSvc llm.Service) *Handler {
	return &Handler{svc: svc, llm: llmSvc}
}

// RegisterRoutes attaches the API routes to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/search", h.HandleSearch)
	mux.HandleFunc("POST /api/feedback", h.HandleFeedback)
	mux.HandleFunc("GET /healthz", h.HandleHealth)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// HandleSearch handles POST /api/search.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, apperrors.InvalidRequestError("invalid request body"))
		return
	}

	if err := security.ValidateQuery(req.Query); err != nil {
		apperrors.WriteError(w, apperrors.InvalidQueryError(err.Error()))
		return
	}
	req.Query = security.SanitizeQuery(req.Query)

	resp, err := h.svc.Search(r.Context(), req)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleFeedback handles POST /api/feedback.
func (h *Handler) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	var fb Feedback
	if err := json.NewDecoder(r.Body).Decode(&fb); err != nil {
		apperrors.WriteError(w, apperrors.InvalidRequestError("invalid request body"))
		return
	}

	if fb.SessionID == "" {
		apperrors.WriteError(w, apperrors.ValidationError("session_id is required"))
		return
	}
	if fb.Rating < 1 || fb.Rating > 5 {
		apperrors.WriteError(w, apperrors.ValidationError("rating must be between 1 and 5"))
		return
	}

	if err := h.svc.SubmitFeedback(r.Context(), fb); err != nil {
		apperrors.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "received"})
}

// HealthResponse is the health report.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HandleHealth handles GET /healthz.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Checks: map[string]string{}}

	if h.llm != nil {
		status := h.llm.Health()
		if status.Healthy {
			resp.Checks["llm"] = "ok"
		} else {
			resp.Checks["llm"] = status.Error
			resp.Status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
