package work

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// RunRepository records batch runs in refresh_runs
type RunRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sql.DB, log zerolog.Logger) *RunRepository {
	return &RunRepository{
		db:  db,
		log: log.With().Str("repo", "refresh_runs").Logger(),
	}
}

// Record inserts or updates the row for a run
func (r *RunRepository) Record(s *Summary) error {
	summary, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	var finishedAt sql.NullInt64
	if !s.FinishedAt.IsZero() {
		finishedAt = sql.NullInt64{Int64: s.FinishedAt.Unix(), Valid: true}
	}

	_, err = r.db.Exec(`
		INSERT INTO refresh_runs (run_id, status, started_at, finished_at, start_offset, next_offset,
			processed, succeeded, no_data, failed, summary_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			status = excluded.status,
			finished_at = excluded.finished_at,
			next_offset = excluded.next_offset,
			processed = excluded.processed,
			succeeded = excluded.succeeded,
			no_data = excluded.no_data,
			failed = excluded.failed,
			summary_json = excluded.summary_json
	`, s.RunID, s.Status, s.StartedAt.Unix(), finishedAt, s.StartOffset, s.NextOffset,
		s.Processed, s.Succeeded, s.NoData, len(s.Failed), string(summary))
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", s.RunID, err)
	}
	return nil
}

// Latest returns the most recently started run, or nil if none exists
func (r *RunRepository) Latest() (*Summary, error) {
	row := r.db.QueryRow(`
		SELECT summary_json FROM refresh_runs ORDER BY started_at DESC, rowid DESC LIMIT 1
	`)
	s, err := scanSummary(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return s, nil
}

// Get returns the run with the given ID, or nil if it was never recorded
func (r *RunRepository) Get(runID string) (*Summary, error) {
	row := r.db.QueryRow(`SELECT summary_json FROM refresh_runs WHERE run_id = ?`, runID)
	s, err := scanSummary(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	return s, nil
}

func scanSummary(row *sql.Row) (*Summary, error) {
	var data string
	err := row.Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var s Summary
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("corrupt run summary: %w", err)
	}
	s.StartedAt = s.StartedAt.UTC()
	if !s.FinishedAt.IsZero() {
		s.FinishedAt = s.FinishedAt.UTC()
	}
	if s.Failed == nil {
		s.Failed = []Failure{}
	}
	return &s, nil
}
