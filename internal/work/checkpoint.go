package work

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Checkpoint is the persisted position of an unfinished run
type Checkpoint struct {
	RunID     string    `msgpack:"run_id"`
	Offset    int       `msgpack:"offset"`
	UpdatedAt time.Time `msgpack:"updated_at"`
}

// CheckpointStore persists a Checkpoint to a single file
type CheckpointStore struct {
	path string
}

// NewCheckpointStore creates a store at path. An empty path disables persistence.
func NewCheckpointStore(path string) *CheckpointStore {
	return &CheckpointStore{path: path}
}

// Load returns the stored checkpoint, or nil if there is none
func (s *CheckpointStore) Load() (*Checkpoint, error) {
	if s.path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := msgpack.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("corrupt checkpoint %s: %w", s.path, err)
	}
	return &cp, nil
}

// Save writes the checkpoint atomically (temp file + rename)
func (s *CheckpointStore) Save(cp Checkpoint) error {
	if s.path == "" {
		return nil
	}

	data, err := msgpack.Marshal(&cp)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace checkpoint: %w", err)
	}
	return nil
}

// Clear removes the checkpoint
func (s *CheckpointStore) Clear() error {
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove checkpoint: %w", err)
	}
	return nil
}
