package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers scheme catalogue routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/schemes", h.HandleGetSchemes)
	r.Get("/stats", h.HandleGetStats)
	r.Get("/dependent_filters", h.HandleGetDependentFilters)
}
