/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is the single source of truth for all service instances and is
 * passed to the server and the batch CLI for access to services.
 */
package di

import (
	"context"

	"github.com/aristath/navreturns/internal/clients/mfapi"
	"github.com/aristath/navreturns/internal/database"
	"github.com/aristath/navreturns/internal/modules/funds"
	"github.com/aristath/navreturns/internal/modules/returns"
	"github.com/aristath/navreturns/internal/scheduler"
	"github.com/aristath/navreturns/internal/work"
)

/**
 * Container holds all dependencies for the application.
 *
 * Architecture:
 * - Database: one SQLite cache database (metadata, computed returns, filter cache, batch runs)
 * - Clients: the NAV history provider
 * - Repositories: data access layer
 * - Services: returns calculator and cache-aside returns service
 * - Jobs: batch refresher, the refresh job and its cron scheduler
 */
type Container struct {
	// Database
	DB *database.DB

	// Clients
	MFAPIClient *mfapi.Client

	// Repositories
	FundsRepo   *funds.Repository
	ReturnsRepo *returns.Repository
	RunRepo     *work.RunRepository

	// Services
	Calculator     *returns.Calculator
	ReturnsService *returns.Service

	// Jobs
	Refresher  *work.Refresher
	RefreshJob *scheduler.RefreshJob
	Scheduler  *scheduler.Scheduler

	// Cancels background runs started by the refresh job
	cancel context.CancelFunc
}

// Close cancels background runs, stops the scheduler and closes the database
func (c *Container) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
