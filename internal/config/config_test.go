package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	t.Setenv("NAVRETURNS_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.DirExists(t, dir)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, DefaultAllowedOrigins, cfg.AllowedOrigins)
	assert.Equal(t, "https://api.mfapi.in/mf/", cfg.MFAPI.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.MFAPI.Timeout)
	assert.Equal(t, 2.0, cfg.MFAPI.RatePerSecond)
	assert.Equal(t, "02-01-2006", cfg.Returns.DateLayout)
	assert.Equal(t, 10000.0, cfg.Returns.SIPAmount)
	assert.Equal(t, 1, cfg.Returns.SIPDay)
	assert.Equal(t, "xirr", cfg.Returns.LongHorizonMode)
	assert.Equal(t, 200, cfg.Returns.MinObservations)
	assert.Equal(t, 24*time.Hour, cfg.Returns.CacheTTL)
	assert.Equal(t, "0 30 2 * * *", cfg.Refresh.Schedule)
	assert.Equal(t, 50, cfg.Refresh.ChunkSize)
	assert.Equal(t, 30*time.Second, cfg.Refresh.Cooldown)
	assert.Equal(t, 3, cfg.Refresh.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Refresh.InitialBackoff)
	assert.Equal(t, filepath.Join(dir, "navreturns.db"), cfg.DatabasePath())
	assert.Equal(t, filepath.Join(dir, "refresh.checkpoint"), cfg.CheckpointPath())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("NAVRETURNS_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "8080")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("MFAPI_TIMEOUT", "3s")
	t.Setenv("RETURNS_LONG_HORIZON_MODE", "CAGR")
	t.Setenv("SIP_DAY", "31")
	t.Setenv("REFRESH_SCHEDULE", "")
	t.Setenv("REFRESH_COOLDOWN", "0s")
	t.Setenv("REFRESH_CHUNK_SIZE", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.MFAPI.Timeout)
	assert.Equal(t, "cagr", cfg.Returns.LongHorizonMode)
	assert.Equal(t, 31, cfg.Returns.SIPDay)
	assert.Empty(t, cfg.Refresh.Schedule)
	assert.Equal(t, time.Duration(0), cfg.Refresh.Cooldown)
	assert.Equal(t, 50, cfg.Refresh.ChunkSize)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port out of range", "PORT", "70000"},
		{"unknown log level", "LOG_LEVEL", "verbose"},
		{"unknown horizon mode", "RETURNS_LONG_HORIZON_MODE", "irr"},
		{"sip day", "SIP_DAY", "32"},
		{"base url", "MFAPI_BASE_URL", "not a url"},
		{"attempts", "REFRESH_MAX_ATTEMPTS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NAVRETURNS_DATA_DIR", t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.ErrorContains(t, err, "invalid configuration")
		})
	}
}
