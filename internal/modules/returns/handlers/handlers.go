// Package handlers provides HTTP handlers for periodic returns.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aristath/navreturns/internal/modules/funds"
	"github.com/aristath/navreturns/internal/modules/returns"
	"github.com/aristath/navreturns/internal/utils"
	"github.com/rs/zerolog"
)

// ReturnsService is the subset of returns.Service the handlers use
type ReturnsService interface {
	GetReturns(ctx context.Context, code string) (*returns.Returns, error)
	TopPerformers(ctx context.Context, q returns.TopQuery) ([]returns.TopPerformer, error)
	Policy() returns.PeriodPolicy
}

// Handler handles periodic returns HTTP requests
type Handler struct {
	service ReturnsService
	log     zerolog.Logger
}

// NewHandler creates a new periodic returns handler
func NewHandler(service ReturnsService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "returns").Logger(),
	}
}

// HandleGetPeriodicReturns handles GET /api/periodic_returns?code=
func (h *Handler) HandleGetPeriodicReturns(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		h.writeError(w, http.StatusBadRequest, "Missing 'code' param")
		return
	}

	result, err := h.service.GetReturns(r.Context(), code)
	if err != nil {
		if errors.Is(err, returns.ErrNoData) {
			h.writeError(w, http.StatusNotFound, "Invalid or no NAV data found")
			return
		}
		if errors.Is(err, returns.ErrStoreUnavailable) {
			h.log.Error().Err(err).Msg("Returns store unavailable")
			h.writeError(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
		h.log.Error().Err(err).Str("code", code).Msg("Failed to get periodic returns")
		h.writeError(w, http.StatusInternalServerError, "Failed to compute periodic returns")
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleGetTopPerformers handles GET /api/top_performers
func (h *Handler) HandleGetTopPerformers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	sortBy := strings.TrimSpace(query.Get("sort_by"))
	if sortBy == "" {
		sortBy = "1Y"
	}
	if !h.service.Policy().Has(sortBy) {
		h.writeError(w, http.StatusBadRequest, "Unknown 'sort_by' horizon")
		return
	}

	categories := utils.SplitList(query["category"]...)

	schemeType := strings.TrimSpace(query.Get("type"))
	if schemeType != "" {
		schemeType = funds.NormalizeType(schemeType)
	}

	performers, err := h.service.TopPerformers(r.Context(), returns.TopQuery{
		Type:       schemeType,
		Categories: categories,
		SortBy:     sortBy,
		Plan:       strings.TrimSpace(query.Get("plan")),
		Option:     strings.TrimSpace(query.Get("option")),
	})
	if err != nil {
		if errors.Is(err, returns.ErrStoreUnavailable) {
			h.log.Error().Err(err).Msg("Returns store unavailable")
			h.writeError(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
		h.log.Error().Err(err).Msg("Failed to get top performers")
		h.writeError(w, http.StatusInternalServerError, "Failed to get top performers")
		return
	}

	h.writeJSON(w, http.StatusOK, performers)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
