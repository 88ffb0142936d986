package di

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/navreturns/internal/config"
	"github.com/aristath/navreturns/internal/modules/funds"
	testingpkg "github.com/aristath/navreturns/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	tmpDir := t.TempDir()

	csvPath := filepath.Join(tmpDir, "schemes.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(testingpkg.SchemesCSV), 0644))

	return &config.Config{
		DataDir:    tmpDir,
		SchemesCSV: csvPath,
		MFAPI: config.MFAPIConfig{
			BaseURL:       "http://127.0.0.1:1/mf/",
			Timeout:       time.Second,
			RatePerSecond: 10,
		},
		Returns: config.ReturnsConfig{
			DateLayout:      "02-01-2006",
			SIPAmount:       10000,
			SIPDay:          1,
			LongHorizonMode: "xirr",
			MinObservations: 200,
			CacheTTL:        time.Hour,
		},
		Refresh: config.RefreshConfig{
			Schedule:       "0 30 2 * * *",
			ChunkSize:      10,
			MaxAttempts:    1,
			InitialBackoff: time.Millisecond,
		},
	}
}

func TestWire(t *testing.T) {
	cfg := testConfig(t)

	container, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, container)
	defer container.Close()

	assert.NotNil(t, container.DB)
	assert.NotNil(t, container.MFAPIClient)
	assert.NotNil(t, container.FundsRepo)
	assert.NotNil(t, container.ReturnsRepo)
	assert.NotNil(t, container.RunRepo)
	assert.NotNil(t, container.Calculator)
	assert.NotNil(t, container.ReturnsService)
	assert.NotNil(t, container.Refresher)
	assert.NotNil(t, container.RefreshJob)
	require.NotNil(t, container.Scheduler)
	assert.Equal(t, 1, container.Scheduler.Entries())
	assert.FileExists(t, cfg.DatabasePath())

	// Metadata was loaded from the dataset
	count, err := container.FundsRepo.Count()
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	stats, err := container.FundsRepo.GetFilterCache(funds.TypeETF)
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.Total)

	assert.Equal(t, []string{"1M", "3M", "6M", "1Y", "3Y", "5Y", "7Y", "10Y"}, container.ReturnsService.Policy().Labels())
}

func TestWire_ReopenKeepsCatalogue(t *testing.T) {
	cfg := testConfig(t)

	container, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, container.Close())

	// The dataset is only read while the catalogue is empty
	require.NoError(t, os.Remove(cfg.SchemesCSV))
	cfg.Refresh.Schedule = ""

	container, err = Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	count, err := container.FundsRepo.Count()
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.Equal(t, 0, container.Scheduler.Entries())
}

func TestWire_Errors(t *testing.T) {
	t.Run("invalid schedule", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Refresh.Schedule = "every night"

		_, err := Wire(cfg, zerolog.Nop())
		assert.ErrorContains(t, err, "failed to register jobs")
	})

	t.Run("invalid horizon mode", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Returns.LongHorizonMode = "irr"

		_, err := Wire(cfg, zerolog.Nop())
		assert.ErrorContains(t, err, "failed to initialize services")
	})

	t.Run("missing dataset is not fatal", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.SchemesCSV = filepath.Join(cfg.DataDir, "missing.csv")

		container, err := Wire(cfg, zerolog.Nop())
		require.NoError(t, err)
		defer container.Close()

		count, err := container.FundsRepo.Count()
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}

func TestLoadMetadata_Force(t *testing.T) {
	cfg := testConfig(t)
	container, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	n, err := LoadMetadata(container, cfg.SchemesCSV, false, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = LoadMetadata(container, cfg.SchemesCSV, true, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}
