// Package di provides dependency injection for database connections.
package di

import (
	"fmt"

	"github.com/aristath/navreturns/internal/config"
	"github.com/aristath/navreturns/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens the cache database and applies the schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// navreturns.db - everything in it can be rebuilt from the provider and the CSV
	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileCache,
		Name:    "navreturns",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize navreturns database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate navreturns database: %w", err)
	}
	container.DB = db

	log.Info().Str("path", db.Path()).Msg("Database initialized")
	return container, nil
}
