// Package handlers provides HTTP handlers for scheme catalogue operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/aristath/navreturns/internal/modules/funds"
	"github.com/aristath/navreturns/internal/utils"
	"github.com/rs/zerolog"
)

// Handler handles scheme catalogue HTTP requests
type Handler struct {
	repo *funds.Repository
	log  zerolog.Logger
}

// NewHandler creates a new scheme catalogue handler
func NewHandler(repo *funds.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "funds").Logger(),
	}
}

// HandleGetSchemes handles GET /api/schemes
func (h *Handler) HandleGetSchemes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := funds.Filter{
		Type:          typeParam(r),
		Query:         query.Get("q"),
		AMCs:          parseMultiParam(r, "amc"),
		Categories:    parseMultiParam(r, "category"),
		SubCategories: parseMultiParam(r, "subcategory"),
		Plans:         parseMultiParam(r, "plan"),
		Options:       parseMultiParam(r, "option"),
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	schemes, err := h.repo.Search(filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to search schemes")
		h.writeError(w, http.StatusInternalServerError, "Failed to search schemes")
		return
	}

	h.log.Debug().Int("count", len(schemes)).Str("type", filter.Type).Msg("Schemes listed")
	h.writeJSON(w, http.StatusOK, schemes)
}

// HandleGetStats handles GET /api/stats
func (h *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	schemeType := typeParam(r)
	plan := strings.TrimSpace(r.URL.Query().Get("plan"))
	option := strings.TrimSpace(r.URL.Query().Get("option"))

	// Unfiltered stats are served from the precomputed cache
	if plan == "" && option == "" {
		cached, err := h.repo.GetFilterCache(schemeType)
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to read filter cache")
		}
		if cached != nil {
			h.writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	stats, err := h.repo.Stats(schemeType, plan, option)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute stats")
		h.writeError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}

	if plan == "" && option == "" {
		if err := h.repo.StoreFilterCache(schemeType, stats); err != nil {
			h.log.Warn().Err(err).Msg("Failed to store filter cache")
		}
	}

	h.writeJSON(w, http.StatusOK, stats)
}

// HandleGetDependentFilters handles GET /api/dependent_filters
func (h *Handler) HandleGetDependentFilters(w http.ResponseWriter, r *http.Request) {
	filters, err := h.repo.DependentFilters(
		typeParam(r),
		parseMultiParam(r, "amc"),
		parseMultiParam(r, "category"),
	)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute dependent filters")
		h.writeError(w, http.StatusInternalServerError, "Failed to compute dependent filters")
		return
	}

	h.writeJSON(w, http.StatusOK, filters)
}

// typeParam reads the instrument type, defaulting to mutual funds
func typeParam(r *http.Request) string {
	return funds.NormalizeType(r.URL.Query().Get("type"))
}

// parseMultiParam accepts repeated and comma-separated values
func parseMultiParam(r *http.Request, name string) []string {
	return utils.SplitList(r.URL.Query()[name]...)
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
