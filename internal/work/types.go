package work

import (
	"context"
	"errors"
	"time"

	"github.com/aristath/navreturns/internal/modules/returns"
)

// Defaults applied to unset Config fields
const (
	DefaultChunkSize      = 50
	DefaultCooldown       = 30 * time.Second
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = 2 * time.Second
)

// Run statuses
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusFailed    = "failed"
)

// ErrAlreadyRunning is returned when a run is requested while another is in progress
var ErrAlreadyRunning = errors.New("refresh already running")

// Config holds batch parameters
type Config struct {
	ChunkSize      int
	Cooldown       time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	CheckpointPath string // Empty disables checkpointing
}

// RunOptions selects the slice of the catalogue a run covers
type RunOptions struct {
	Offset int
	Limit  int  // 0 means through the end of the catalogue
	Resume bool // Start from the checkpoint when one exists
}

// CodeSource lists scheme codes in a stable order
type CodeSource interface {
	Codes(limit, offset int) ([]string, error)
	Count() (int, error)
}

// HistoryFetcher fetches raw NAV history for a scheme
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, code string) (*returns.History, error)
}

// ReturnsRefresher computes and stores returns for a fetched history
type ReturnsRefresher interface {
	Refresh(ctx context.Context, history *returns.History) (*returns.Returns, error)
}

// RetryClassifier reports whether a fetch error is worth retrying
type RetryClassifier func(err error) bool

// Failure is one item that could not be refreshed
type Failure struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// Summary reports the outcome of a run
type Summary struct {
	RunID       string    `json:"run_id"`
	Status      string    `json:"status"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	StartOffset int       `json:"start_offset"`
	NextOffset  int       `json:"next_offset"`
	Total       int       `json:"total"`
	Processed   int       `json:"processed"`
	Succeeded   int       `json:"succeeded"`
	NoData      int       `json:"no_data"`
	Failed      []Failure `json:"failed"`
}

// Duration returns how long the run took
func (s *Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
