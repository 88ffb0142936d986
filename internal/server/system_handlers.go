package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/navreturns/internal/database"
	"github.com/aristath/navreturns/internal/work"
)

// HealthChecker verifies the database
type HealthChecker interface {
	QuickCheck(ctx context.Context) error
	GetStats() (*database.Stats, error)
}

// Counter counts rows in a table
type Counter interface {
	Count() (int, error)
}

// RefreshTrigger starts a background refresh
type RefreshTrigger interface {
	Trigger() bool
	IsRunning() bool
}

// RunHistory returns the most recent batch run
type RunHistory interface {
	LatestRun() (*work.Summary, error)
}

// SystemHandlers serves health and job endpoints
type SystemHandlers struct {
	log     zerolog.Logger
	db      HealthChecker
	schemes Counter
	returns Counter
	refresh RefreshTrigger
	runs    RunHistory
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(
	log zerolog.Logger,
	db HealthChecker,
	schemes Counter,
	returns Counter,
	refresh RefreshTrigger,
	runs RunHistory,
) *SystemHandlers {
	return &SystemHandlers{
		log:     log.With().Str("handler", "system").Logger(),
		db:      db,
		schemes: schemes,
		returns: returns,
		refresh: refresh,
		runs:    runs,
	}
}

// HealthResponse is the /health payload
type HealthResponse struct {
	Status        string  `json:"status"`
	Service       string  `json:"service"`
	Database      string  `json:"database"`
	Schemes       int     `json:"schemes"`
	CachedReturns int     `json:"cached_returns"`
	DatabaseBytes int64   `json:"database_bytes"`
	Refreshing    bool    `json:"refreshing"`
	CPUPercent    float64 `json:"cpu_percent"`
	RAMPercent    float64 `json:"ram_percent"`
}

// HandleHealth handles GET /health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:     "healthy",
		Service:    "navreturns",
		Database:   "ok",
		Refreshing: h.refresh.IsRunning(),
	}
	status := http.StatusOK

	if err := h.db.QuickCheck(ctx); err != nil {
		h.log.Warn().Err(err).Msg("Database health check failed")
		resp.Status = "degraded"
		resp.Database = err.Error()
		status = http.StatusServiceUnavailable
	} else {
		if n, err := h.schemes.Count(); err == nil {
			resp.Schemes = n
		}
		if n, err := h.returns.Count(); err == nil {
			resp.CachedReturns = n
		}
		if stats, err := h.db.GetStats(); err == nil {
			resp.DatabaseBytes = stats.SizeBytes + stats.WALSizeBytes
		}
	}

	resp.CPUPercent, resp.RAMPercent = h.getSystemStats()
	writeJSON(w, status, resp, h.log)
}

// HandleTriggerRefresh triggers the batch refresh job immediately
// POST /api/jobs/refresh
func (h *SystemHandlers) HandleTriggerRefresh(w http.ResponseWriter, r *http.Request) {
	if !h.refresh.Trigger() {
		writeJSON(w, http.StatusConflict, map[string]string{
			"status":  "running",
			"message": "Refresh already running",
		}, h.log)
		return
	}

	h.log.Info().Msg("Refresh triggered via API")
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "started",
		"message": "Refresh started",
	}, h.log)
}

// HandleRefreshStatus reports the running state and the latest recorded run
// GET /api/jobs/refresh
func (h *SystemHandlers) HandleRefreshStatus(w http.ResponseWriter, r *http.Request) {
	latest, err := h.runs.LatestRun()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get latest run")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to get refresh status"}, h.log)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"running":  h.refresh.IsRunning(),
		"last_run": latest,
	}, h.log)
}

// getSystemStats calculates CPU and RAM usage percentages
// Uses a short interval (100ms) to avoid blocking the health check for long
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, log zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
