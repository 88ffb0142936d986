// Package di provides dependency injection for repository implementations.
package di

import (
	"fmt"

	"github.com/aristath/navreturns/internal/modules/funds"
	"github.com/aristath/navreturns/internal/modules/returns"
	"github.com/aristath/navreturns/internal/work"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates all repositories and stores them in the container
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	conn := container.DB.Conn()
	container.FundsRepo = funds.NewRepository(conn, log)
	container.ReturnsRepo = returns.NewRepository(conn, log)
	container.RunRepo = work.NewRunRepository(conn, log)

	log.Info().Msg("Repositories initialized")
	return nil
}
