package scheduler

import (
	"context"
	"errors"

	"github.com/aristath/navreturns/internal/work"
	"github.com/rs/zerolog"
)

// RefreshJobName identifies the batch refresh job
const RefreshJobName = "refresh_returns"

// BatchRunner runs the batch refresh
type BatchRunner interface {
	Run(ctx context.Context, opts work.RunOptions) (*work.Summary, error)
	IsRunning() bool
}

// RefreshJob recomputes cached returns for the whole catalogue, resuming an
// interrupted run from its checkpoint
type RefreshJob struct {
	ctx    context.Context
	runner BatchRunner
	log    zerolog.Logger
}

// NewRefreshJob creates the refresh job. Runs stop when ctx is cancelled.
func NewRefreshJob(ctx context.Context, runner BatchRunner, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		ctx:    ctx,
		runner: runner,
		log:    log.With().Str("job", RefreshJobName).Logger(),
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return RefreshJobName
}

// Run executes one batch run. A run already in progress is not an error.
func (j *RefreshJob) Run() error {
	summary, err := j.runner.Run(j.ctx, work.RunOptions{Resume: true})
	if errors.Is(err, work.ErrAlreadyRunning) {
		j.log.Info().Msg("Refresh already running, skipping")
		return nil
	}
	if err != nil {
		return err
	}

	j.log.Info().
		Str("run_id", summary.RunID).
		Int("succeeded", summary.Succeeded).
		Int("failed", len(summary.Failed)).
		Msg("Refresh finished")
	return nil
}

// Trigger starts a run in the background. It reports false when one is already running.
func (j *RefreshJob) Trigger() bool {
	if j.runner.IsRunning() {
		return false
	}
	go func() {
		if err := j.Run(); err != nil {
			j.log.Error().Err(err).Msg("Triggered refresh failed")
		}
	}()
	return true
}

// IsRunning reports whether a batch run is in progress
func (j *RefreshJob) IsRunning() bool {
	return j.runner.IsRunning()
}
