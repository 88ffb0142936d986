package mfapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aristath/navreturns/internal/modules/returns"
	testingpkg "github.com/aristath/navreturns/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL, Timeout: 2 * time.Second}, zerolog.Nop())
}

func TestFetchHistory_Success(t *testing.T) {
	entries := testingpkg.DailyNAVs(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 3, 10, 0.01)

	var gotPath, gotAccept string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(testingpkg.MFAPIPayload("Alpha Large Cap Fund", entries))
	})

	history, err := client.FetchHistory(context.Background(), "100001")
	require.NoError(t, err)

	assert.Equal(t, "/100001", gotPath)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "100001", history.Code)
	assert.Equal(t, "Alpha Large Cap Fund", history.SchemeName)
	require.Len(t, history.Points, 3)
	// Provider order is newest first
	assert.Equal(t, "03-01-2024", history.Points[0].Date)
	assert.Equal(t, "01-01-2024", history.Points[2].Date)
	assert.Equal(t, "10.0000", history.Points[2].NAV)
}

func TestFetchHistory_NumericNAVAndMissingName(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"meta":{},"data":[{"date":"01-01-2024","nav":12.5},{"date":"02-01-2024","nav":null}]}`))
	})

	history, err := client.FetchHistory(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "Scheme 42", history.SchemeName)
	require.Len(t, history.Points, 2)
	assert.Equal(t, "12.5", history.Points[0].NAV)
	assert.Equal(t, "", history.Points[1].NAV)
}

func TestFetchHistory_ErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		notFound  bool
		transient bool
	}{
		{"not found", http.StatusNotFound, "", true, false},
		{"empty data", http.StatusOK, `{"meta":{"scheme_name":"X"},"data":[]}`, true, false},
		{"undecodable body", http.StatusOK, `<html>oops</html>`, true, false},
		{"bad request", http.StatusBadRequest, "", true, false},
		{"rate limited", http.StatusTooManyRequests, "", false, true},
		{"server error", http.StatusBadGateway, "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.FetchHistory(context.Background(), "1")
			require.Error(t, err)
			assert.Equal(t, tt.notFound, errors.Is(err, ErrNotFound))
			assert.Equal(t, tt.notFound, errors.Is(err, returns.ErrNoData))
			assert.Equal(t, tt.transient, IsTransient(err))
		})
	}
}

func TestFetchHistory_NetworkErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(Config{BaseURL: url, Timeout: time.Second}, zerolog.Nop())
	_, err := client.FetchHistory(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestFetchHistory_CancelledContextIsNotTransient(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchHistory(ctx, "1")
	require.Error(t, err)
	assert.False(t, IsTransient(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchHistory_EmptyCode(t *testing.T) {
	client := NewClient(Config{}, zerolog.Nop())
	_, err := client.FetchHistory(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchHistory_EscapesCode(t *testing.T) {
	var gotPath, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.FetchHistory(context.Background(), "../1?x=1#f")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "/../1?x=1#f", gotPath)
	assert.Empty(t, gotQuery)
}
