package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aristath/navreturns/internal/config"
	"github.com/aristath/navreturns/internal/di"
	testingpkg "github.com/aristath/navreturns/internal/testing"
	"github.com/aristath/navreturns/internal/work"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	entries := testingpkg.DailyNAVs(time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), 500, 10, 0.0002)
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/100001") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(testingpkg.MFAPIPayload("Alpha Large Cap Fund - Direct Growth", entries))
	}))
	t.Cleanup(provider.Close)

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "schemes.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(testingpkg.SchemesCSV), 0644))

	cfg := &config.Config{
		DataDir:        dir,
		Port:           5000,
		AllowedOrigins: config.DefaultAllowedOrigins,
		SchemesCSV:     csvPath,
		MFAPI: config.MFAPIConfig{
			BaseURL:       provider.URL + "/mf/",
			Timeout:       5 * time.Second,
			RatePerSecond: 100,
		},
		Returns: config.ReturnsConfig{
			DateLayout:      testingpkg.NAVLayout,
			SIPAmount:       10000,
			SIPDay:          1,
			LongHorizonMode: "xirr",
			MinObservations: 200,
			CacheTTL:        time.Hour,
		},
		Refresh: config.RefreshConfig{
			ChunkSize:      10,
			MaxAttempts:    1,
			InitialBackoff: time.Millisecond,
		},
	}

	container, err := di.Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	return New(Config{Log: zerolog.Nop(), Config: cfg, Container: container})
}

func serve(s *Server, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestServer_Root(t *testing.T) {
	s := newTestServer(t)

	w := serve(s, "GET", "/")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Message   string   `json:"message"`
		Endpoints []string `json:"endpoints"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Message, "is running")
	assert.Contains(t, body.Endpoints, "/api/periodic_returns?code=<scheme_code>")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t)

	w := serve(s, "GET", "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "ok", health.Database)
	assert.Equal(t, 5, health.Schemes)
	assert.Equal(t, 0, health.CachedReturns)
	assert.Greater(t, health.DatabaseBytes, int64(0))
	assert.False(t, health.Refreshing)
}

func TestServer_APIRoutes(t *testing.T) {
	s := newTestServer(t)

	w := serve(s, "GET", "/api/schemes?type=ETF")
	require.Equal(t, http.StatusOK, w.Code)
	var schemes []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &schemes))
	assert.Len(t, schemes, 2)

	w = serve(s, "GET", "/api/periodic_returns?code=100001")
	require.Equal(t, http.StatusOK, w.Code)
	var ret struct {
		SchemeName string                 `json:"scheme_name"`
		Results    map[string]interface{} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ret))
	assert.Equal(t, "Alpha Large Cap Fund - Direct Growth", ret.SchemeName)
	assert.NotNil(t, ret.Results["1Y"])
	assert.Nil(t, ret.Results["3Y"])

	w = serve(s, "GET", "/api/periodic_returns?code=100002")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(s, "GET", "/api/periodic_returns")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(s, "GET", "/api/top_performers?sort_by=1Y")
	require.Equal(t, http.StatusOK, w.Code)
	var top []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &top))
	require.Len(t, top, 1)
	assert.Equal(t, "100001", top[0]["scheme_code"])
}

func TestServer_CORS(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/stats", nil)
	req.Header.Set("Origin", "https://smartequityinvest.in")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "https://smartequityinvest.in", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/api/stats", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_RefreshJob(t *testing.T) {
	s := newTestServer(t)

	w := serve(s, "POST", "/api/jobs/refresh")
	require.Equal(t, http.StatusAccepted, w.Code)

	var status struct {
		Running bool          `json:"running"`
		LastRun *work.Summary `json:"last_run"`
	}
	require.Eventually(t, func() bool {
		w := serve(s, "GET", "/api/jobs/refresh")
		if w.Code != http.StatusOK || json.Unmarshal(w.Body.Bytes(), &status) != nil {
			return false
		}
		return status.LastRun != nil && status.LastRun.Status == work.StatusCompleted
	}, 10*time.Second, 20*time.Millisecond)

	assert.Equal(t, 5, status.LastRun.Processed)
	assert.Equal(t, 1, status.LastRun.Succeeded)
	assert.Equal(t, 4, status.LastRun.NoData)
}
