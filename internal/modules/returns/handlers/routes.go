package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers periodic returns routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/periodic_returns", h.HandleGetPeriodicReturns)
	r.Get("/top_performers", h.HandleGetTopPerformers)
}
