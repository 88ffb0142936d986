// Package di provides dependency injection for job registration.
package di

import (
	"context"
	"fmt"

	"github.com/aristath/navreturns/internal/config"
	"github.com/aristath/navreturns/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs creates the refresh job and schedules it. The scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	container.cancel = cancel

	container.RefreshJob = scheduler.NewRefreshJob(ctx, container.Refresher, log)
	container.Scheduler = scheduler.New(log)

	if cfg.Refresh.Schedule == "" {
		log.Info().Msg("Nightly refresh disabled")
		return nil
	}
	if err := container.Scheduler.AddJob(cfg.Refresh.Schedule, container.RefreshJob); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", container.RefreshJob.Name(), err)
	}
	return nil
}
