package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aristath/navreturns/internal/modules/funds"
	testingpkg "github.com/aristath/navreturns/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (chi.Router, *funds.Repository) {
	t.Helper()
	logger := zerolog.New(nil).Level(zerolog.Disabled)

	repo := funds.NewRepository(testingpkg.NewMemoryDB(t), logger)
	schemes, err := funds.ParseCSV(strings.NewReader(testingpkg.SchemesCSV))
	require.NoError(t, err)
	_, err = repo.UpsertSchemes(schemes)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Route("/api", NewHandler(repo, logger).RegisterRoutes)
	return r, repo
}

func TestHandleGetSchemes(t *testing.T) {
	router, _ := setupRouter(t)

	tests := []struct {
		name          string
		query         string
		expectedCodes []string
	}{
		{"default type", "", []string{"100001", "100002", "100003"}},
		{"etf", "?type=ETF", []string{"100004", "100005"}},
		{"comma separated amc", "?amc=beta,gamma", []string{"100003"}},
		{"repeated plan", "?plan=direct&plan=regular&category=equity", []string{"100001", "100002"}},
		{"search", "?q=LIQUID", []string{"100003"}},
		{"no match", "?q=nothing-here", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/schemes"+tt.query, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var schemes []funds.Scheme
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &schemes))
			codes := make([]string, 0, len(schemes))
			for _, s := range schemes {
				codes = append(codes, s.Code)
			}
			assert.Equal(t, tt.expectedCodes, codes)
		})
	}
}

func TestHandleGetSchemes_UsesDatasetFieldNames(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest("GET", "/api/schemes?q=liquid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var raw []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, "Beta Liquid Fund - Direct Growth", raw[0]["schemeName"])
	assert.Equal(t, "Mutual Fund", raw[0]["instrumentType"])
	assert.Equal(t, "Debt Scheme", raw[0]["schemeCategory"])
}

func TestHandleGetStats(t *testing.T) {
	router, repo := setupRouter(t)

	req := httptest.NewRequest("GET", "/api/stats?type=ETF", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var stats funds.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.ETFs)

	// The unfiltered request populated the cache
	cached, err := repo.GetFilterCache(funds.TypeETF)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, 2, cached.Total)

	req = httptest.NewRequest("GET", "/api/stats?plan=Regular", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, []string{"IDCW"}, stats.Options)
}

func TestHandleGetDependentFilters(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest("GET", "/api/dependent_filters?amc=alpha", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var filters funds.DependentFilters
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &filters))
	assert.Equal(t, []string{"Equity Scheme"}, filters.Categories)
	assert.Equal(t, []string{"Large Cap Fund"}, filters.SubCategories)
	assert.Equal(t, []string{"Growth", "IDCW"}, filters.Options)
}

func TestParseMultiParam(t *testing.T) {
	req := httptest.NewRequest("GET", "/?amc=a,%20b&amc=c&amc=&amc=,", nil)
	assert.Equal(t, []string{"a", "b", "c"}, parseMultiParam(req, "amc"))
	assert.Nil(t, parseMultiParam(req, "category"))
}
