// Package di provides dependency injection wiring and initialization.
package di

import (
	"fmt"

	"github.com/aristath/navreturns/internal/config"
	"github.com/rs/zerolog"
)

// Wire initializes all dependencies and returns a fully configured container
// This is the main entry point for dependency injection
// Order of operations:
// 1. Initialize database
// 2. Initialize repositories
// 3. Initialize services
// 4. Load scheme metadata when the catalogue is empty
// 5. Register jobs
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	// Step 1: Initialize database
	container, err := InitializeDatabases(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize databases: %w", err)
	}

	// Step 2: Initialize repositories
	if err := InitializeRepositories(container, log); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	// Step 3: Initialize services
	if err := InitializeServices(container, cfg, log); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Step 4: Load metadata
	if err := loadInitialMetadata(container, cfg, log); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to load scheme metadata: %w", err)
	}

	// Step 5: Register jobs
	if err := RegisterJobs(container, cfg, log); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	log.Info().Msg("Dependency injection wiring completed")
	return container, nil
}
