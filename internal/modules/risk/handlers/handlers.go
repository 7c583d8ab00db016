// Package handlers provides HTTP handlers for risk estimation operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/tailrisk/internal/domain"
	"github.com/aristath/tailrisk/internal/modules/risk"
)

// Handler handles risk estimation HTTP requests
type Handler struct {
	service *risk.Service
	log     zerolog.Logger
}

// NewHandler creates a new risk estimation handler
func NewHandler(service *risk.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "risk").Logger(),
	}
}

// HandleEstimateVaR handles POST /api/risk/var
func (h *Handler) HandleEstimateVaR(w http.ResponseWriter, r *http.Request) {
	var req risk.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.service.EstimateVaR(req)
	if res == nil {
		h.writeEstimate(w, nil, err)
		return
	}
	h.writeEstimate(w, res, err)
}

// HandleEstimateCVaR handles POST /api/risk/cvar
func (h *Handler) HandleEstimateCVaR(w http.ResponseWriter, r *http.Request) {
	var req risk.CVaRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.service.EstimateCVaR(req)
	if res == nil {
		h.writeEstimate(w, nil, err)
		return
	}
	h.writeEstimate(w, res, err)
}

// HandleEstimateEVaR handles POST /api/risk/evar
func (h *Handler) HandleEstimateEVaR(w http.ResponseWriter, r *http.Request) {
	var req risk.EVaRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.service.EstimateEVaR(req)
	if res == nil {
		h.writeEstimate(w, nil, err)
		return
	}
	h.writeEstimate(w, res, err)
}

// HandleGetEstimates handles GET /api/risk/estimates
func (h *Handler) HandleGetEstimates(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	estimates, err := h.service.Estimates(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list estimates")
		http.Error(w, "Failed to list estimates", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"estimates": estimates,
			"count":     len(estimates),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, http.StatusOK, response)
}

// writeEstimate maps service outcomes onto HTTP responses. Invalid input
// is a 400. Budget-class failures that still produced a best-effort
// result are a 200 with a warning attached; anything else is a 500.
func (h *Handler) writeEstimate(w http.ResponseWriter, result interface{}, err error) {
	metadata := map[string]interface{}{
		"timestamp": time.Now().Format(time.RFC3339),
	}

	if err != nil {
		var invalidParam *domain.InvalidParameterError
		var invalidBracket *domain.InvalidBracketError
		if errors.As(err, &invalidParam) || errors.As(err, &invalidBracket) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if result == nil {
			h.log.Error().Err(err).Msg("Estimate failed")
			http.Error(w, "Estimate failed", http.StatusInternalServerError)
			return
		}
		metadata["warning"] = err.Error()
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":     result,
		"metadata": metadata,
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
