package server

import (
	"net/http"
)

// rootEndpoints lists the public API
var rootEndpoints = []string{
	"/api/stats",
	"/api/schemes",
	"/api/dependent_filters",
	"/api/periodic_returns?code=<scheme_code>",
	"/api/top_performers?sort_by=<horizon>",
}

// handleRoot reports that the service is up and lists the endpoints
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Mutual Fund & ETF Return Analyzer API is running",
		"endpoints": rootEndpoints,
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, data, s.log)
}
