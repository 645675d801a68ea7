// Package memory provides in-memory implementations of the state ports.
// Used by tests and dry runs; nothing survives process exit.
package memory

import (
	"context"
	"sync"

	"github.com/lakeway-labs/tablesync-cli/internal/core/domain"
	"github.com/lakeway-labs/tablesync-cli/internal/core/ports/driven"
)

// Ensure CheckpointStore implements the interface.
var _ driven.CheckpointStore = (*CheckpointStore)(nil)

// CheckpointStore is an in-memory implementation of driven.CheckpointStore.
type CheckpointStore struct {
	mu sync.RWMutex
	cp domain.Checkpoint
}

// NewCheckpointStore creates a new in-memory checkpoint store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{}
}

// Load retrieves the checkpoint. Returns the zero checkpoint before the
// first save.
func (s *CheckpointStore) Load(_ context.Context) (domain.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cp, nil
}

// Save stores or overwrites the checkpoint.
func (s *CheckpointStore) Save(_ context.Context, cp domain.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cp = cp
	return nil
}
