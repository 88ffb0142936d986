// Package di provides dependency injection for service implementations.
package di

import (
	"errors"
	"fmt"
	"os"

	"github.com/aristath/navreturns/internal/clients/mfapi"
	"github.com/aristath/navreturns/internal/config"
	"github.com/aristath/navreturns/internal/modules/funds"
	"github.com/aristath/navreturns/internal/modules/returns"
	"github.com/aristath/navreturns/internal/work"
	"github.com/rs/zerolog"
)

// InitializeServices creates the provider client, the engine and the services built on them
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	container.MFAPIClient = mfapi.NewClient(mfapi.Config{
		BaseURL:       cfg.MFAPI.BaseURL,
		Timeout:       cfg.MFAPI.Timeout,
		RatePerSecond: cfg.MFAPI.RatePerSecond,
	}, log)

	policy, err := returns.PolicyForMode(cfg.Returns.LongHorizonMode, cfg.Returns.MinObservations)
	if err != nil {
		return fmt.Errorf("invalid returns policy: %w", err)
	}

	container.Calculator = returns.NewCalculator(returns.CalculatorConfig{
		Plan: returns.SIPPlan{
			Amount: cfg.Returns.SIPAmount,
			Day:    cfg.Returns.SIPDay,
		},
		DateLayout: cfg.Returns.DateLayout,
		Policy:     policy,
	}, log)

	container.ReturnsService = returns.NewService(
		container.ReturnsRepo,
		container.FundsRepo,
		container.MFAPIClient,
		container.Calculator,
		container.DB,
		cfg.Returns.CacheTTL,
		log,
	)

	container.Refresher = work.NewRefresher(
		work.Config{
			ChunkSize:      cfg.Refresh.ChunkSize,
			Cooldown:       cfg.Refresh.Cooldown,
			MaxAttempts:    cfg.Refresh.MaxAttempts,
			InitialBackoff: cfg.Refresh.InitialBackoff,
			CheckpointPath: cfg.CheckpointPath(),
		},
		container.FundsRepo,
		container.MFAPIClient,
		container.ReturnsService,
		mfapi.IsTransient,
		container.RunRepo,
		log,
	)

	log.Info().
		Str("long_horizon_mode", cfg.Returns.LongHorizonMode).
		Strs("horizons", policy.Labels()).
		Msg("Services initialized")
	return nil
}

// LoadMetadata loads the scheme dataset at path into the catalogue and rebuilds the
// filter cache. Unless force is set, nothing is loaded when the catalogue is populated.
// A missing file is reported with os.ErrNotExist.
func LoadMetadata(container *Container, path string, force bool, log zerolog.Logger) (int, error) {
	if !force {
		count, err := container.FundsRepo.Count()
		if err != nil {
			return 0, err
		}
		if count > 0 {
			log.Debug().Int("schemes", count).Msg("Scheme catalogue already loaded")
			return 0, nil
		}
	}

	schemes, err := funds.LoadCSV(path)
	if err != nil {
		return 0, err
	}

	n, err := container.FundsRepo.UpsertSchemes(schemes)
	if err != nil {
		return 0, err
	}
	if err := container.FundsRepo.RebuildFilterCache(); err != nil {
		return n, fmt.Errorf("failed to rebuild filter cache: %w", err)
	}

	log.Info().Int("schemes", n).Str("path", path).Msg("Scheme metadata loaded")
	return n, nil
}

func loadInitialMetadata(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if cfg.SchemesCSV == "" {
		return nil
	}
	_, err := LoadMetadata(container, cfg.SchemesCSV, false, log)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("path", cfg.SchemesCSV).Msg("Scheme dataset not found, catalogue is empty")
		return nil
	}
	return err
}
