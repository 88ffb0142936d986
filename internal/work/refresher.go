package work

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aristath/navreturns/internal/modules/returns"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Refresher recomputes cached returns for the whole catalogue
type Refresher struct {
	cfg         Config
	codes       CodeSource
	fetcher     HistoryFetcher
	refresher   ReturnsRefresher
	retryable   RetryClassifier
	checkpoints *CheckpointStore
	runs        *RunRepository // optional
	running     atomic.Bool
	now         func() time.Time
	log         zerolog.Logger
}

// NewRefresher creates a batch refresher. runs may be nil; a nil retryable retries nothing.
func NewRefresher(
	cfg Config,
	codes CodeSource,
	fetcher HistoryFetcher,
	refresher ReturnsRefresher,
	retryable RetryClassifier,
	runs *RunRepository,
	log zerolog.Logger,
) *Refresher {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Cooldown < 0 {
		cfg.Cooldown = 0
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}
	if retryable == nil {
		retryable = func(error) bool { return false }
	}

	return &Refresher{
		cfg:         cfg,
		codes:       codes,
		fetcher:     fetcher,
		refresher:   refresher,
		retryable:   retryable,
		checkpoints: NewCheckpointStore(cfg.CheckpointPath),
		runs:        runs,
		now:         time.Now,
		log:         log.With().Str("component", "refresher").Logger(),
	}
}

// IsRunning reports whether a run is in progress
func (r *Refresher) IsRunning() bool {
	return r.running.Load()
}

// Run processes the catalogue from opts.Offset (or the checkpoint when resuming).
//
// Per-item failures never abort the run. When ctx is cancelled the run stops before the
// next item, the checkpoint is kept, and the partial summary is returned with ctx.Err().
func (r *Refresher) Run(ctx context.Context, opts RunOptions) (*Summary, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	defer r.running.Store(false)

	summary := &Summary{
		RunID:     uuid.NewString(),
		Status:    StatusRunning,
		StartedAt: r.now().UTC().Truncate(time.Second),
		Failed:    []Failure{},
	}

	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	summary.StartOffset = offset
	if opts.Resume {
		cp, err := r.checkpoints.Load()
		if err != nil {
			r.log.Warn().Err(err).Msg("Ignoring unreadable checkpoint")
		} else if cp != nil {
			offset = cp.Offset
			summary.RunID = cp.RunID
			summary.StartOffset = offset
			r.carryOver(summary)
			r.log.Info().
				Str("run_id", cp.RunID).
				Int("offset", cp.Offset).
				Int("processed", summary.Processed).
				Msg("Resuming from checkpoint")
		}
	}
	summary.NextOffset = offset

	total, err := r.codes.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count schemes: %w", err)
	}
	end := total
	if opts.Limit > 0 && offset+opts.Limit < end {
		end = offset + opts.Limit
	}
	summary.Total = summary.Processed
	if end > offset {
		summary.Total += end - offset
	}

	r.record(summary)
	r.log.Info().
		Str("run_id", summary.RunID).
		Int("offset", offset).
		Int("items", summary.Total).
		Msg("Refresh run started")

	cursor := offset
	for cursor < end {
		chunk, err := r.codes.Codes(min(r.cfg.ChunkSize, end-cursor), cursor)
		if err != nil {
			return r.stop(summary, cursor, fmt.Errorf("failed to list schemes at %d: %w", cursor, err))
		}
		if len(chunk) == 0 {
			break
		}

		for _, code := range chunk {
			if ctx.Err() != nil {
				return r.stop(summary, cursor, ctx.Err())
			}

			if interrupted := r.processItem(ctx, code, summary); interrupted {
				// The interrupted item is retried on resume
				return r.stop(summary, cursor, ctx.Err())
			}

			cursor++
			summary.NextOffset = cursor
			if err := r.checkpoints.Save(Checkpoint{RunID: summary.RunID, Offset: cursor, UpdatedAt: r.now()}); err != nil {
				r.log.Warn().Err(err).Msg("Failed to save checkpoint")
			}
		}

		r.log.Info().
			Str("run_id", summary.RunID).
			Int("processed", summary.Processed).
			Int("remaining", end-cursor).
			Msg("Chunk done")

		if cursor < end && r.cfg.Cooldown > 0 {
			select {
			case <-ctx.Done():
				return r.stop(summary, cursor, ctx.Err())
			case <-time.After(r.cfg.Cooldown):
			}
		}
	}

	summary.Status = StatusCompleted
	summary.NextOffset = cursor
	summary.FinishedAt = r.now().UTC().Truncate(time.Second)
	if err := r.checkpoints.Clear(); err != nil {
		r.log.Warn().Err(err).Msg("Failed to clear checkpoint")
	}
	r.record(summary)

	r.log.Info().
		Str("run_id", summary.RunID).
		Int("processed", summary.Processed).
		Int("succeeded", summary.Succeeded).
		Int("no_data", summary.NoData).
		Int("failed", len(summary.Failed)).
		Dur("duration", summary.Duration()).
		Msg("Refresh run completed")

	return summary, nil
}

// carryOver seeds a resumed run with the outcomes recorded before it was interrupted
func (r *Refresher) carryOver(summary *Summary) {
	if r.runs == nil {
		return
	}
	prior, err := r.runs.Get(summary.RunID)
	if err != nil {
		r.log.Warn().Err(err).Str("run_id", summary.RunID).Msg("Failed to load interrupted run")
		return
	}
	if prior == nil {
		return
	}

	summary.StartedAt = prior.StartedAt
	summary.StartOffset = prior.StartOffset
	summary.Processed = prior.Processed
	summary.Succeeded = prior.Succeeded
	summary.NoData = prior.NoData
	summary.Failed = append(summary.Failed, prior.Failed...)
}

// processItem fetches and refreshes one scheme, classifying the outcome into summary.
// It reports true when the item was cut short by cancellation and left uncounted.
func (r *Refresher) processItem(ctx context.Context, code string, summary *Summary) bool {
	history, err := r.fetch(ctx, code)
	if err == nil {
		_, err = r.refresher.Refresh(ctx, history)
	}
	if err != nil && ctx.Err() != nil {
		return true
	}

	summary.Processed++
	switch {
	case err == nil:
		summary.Succeeded++
	case errors.Is(err, returns.ErrNoData):
		summary.NoData++
		r.log.Debug().Str("code", code).Msg("No NAV data, skipping")
	default:
		summary.Failed = append(summary.Failed, Failure{Code: code, Error: err.Error()})
		r.log.Warn().Err(err).Str("code", code).Msg("Failed to refresh scheme")
	}
	return false
}

// fetch retries transient failures with exponential backoff, MaxAttempts in total
func (r *Refresher) fetch(ctx context.Context, code string) (*returns.History, error) {
	var history *returns.History
	operation := func() error {
		h, err := r.fetcher.FetchHistory(ctx, code)
		if err != nil {
			if r.retryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		history = h
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.cfg.InitialBackoff
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxElapsedTime = 0

	notify := func(err error, wait time.Duration) {
		r.log.Debug().Err(err).Str("code", code).Dur("wait", wait).Msg("Retrying NAV fetch")
	}

	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(r.cfg.MaxAttempts-1)), ctx)
	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		return nil, err
	}
	return history, nil
}

func (r *Refresher) stop(summary *Summary, cursor int, cause error) (*Summary, error) {
	summary.Status = StatusFailed
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		summary.Status = StatusCancelled
	}
	summary.NextOffset = cursor
	summary.FinishedAt = r.now().UTC().Truncate(time.Second)
	r.record(summary)

	r.log.Warn().
		Err(cause).
		Str("run_id", summary.RunID).
		Int("next_offset", cursor).
		Msg("Refresh run stopped")
	return summary, cause
}

func (r *Refresher) record(summary *Summary) {
	if r.runs == nil {
		return
	}
	if err := r.runs.Record(summary); err != nil {
		r.log.Warn().Err(err).Str("run_id", summary.RunID).Msg("Failed to record run")
	}
}

// LatestRun returns the most recently recorded run, or nil
func (r *Refresher) LatestRun() (*Summary, error) {
	if r.runs == nil {
		return nil, nil
	}
	return r.runs.Latest()
}
