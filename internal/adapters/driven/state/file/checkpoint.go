// Package file provides JSON-file-backed state stores. The checkpoint lives
// in a single small file written atomically, and failures accumulate in a
// JSON array next to it. Suitable for single-process runs; use the sqlite
// backend when concurrent writers are possible.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lakeway-labs/tablesync-cli/internal/core/domain"
	"github.com/lakeway-labs/tablesync-cli/internal/core/ports/driven"
	"github.com/lakeway-labs/tablesync-cli/internal/logger"
)

// Ensure CheckpointStore implements the interface.
var _ driven.CheckpointStore = (*CheckpointStore)(nil)

// CheckpointStore persists the sync checkpoint as a JSON file.
type CheckpointStore struct {
	path string
}

// NewCheckpointStore creates a checkpoint store at the given path.
func NewCheckpointStore(path string) (*CheckpointStore, error) {
	if path == "" {
		return nil, fmt.Errorf("file: checkpoint path is required")
	}
	return &CheckpointStore{path: path}, nil
}

// Load reads the checkpoint. A missing or corrupt file yields the zero
// checkpoint so a run can always start from the beginning.
func (s *CheckpointStore) Load(_ context.Context) (domain.Checkpoint, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Checkpoint{}, nil
		}
		return domain.Checkpoint{}, fmt.Errorf("read checkpoint %s: %w", s.path, err)
	}

	var cp domain.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		logger.Warn("Checkpoint file %s is corrupt, starting from scratch: %v", s.path, err)
		return domain.Checkpoint{}, nil
	}
	return cp, nil
}

// Save writes the checkpoint atomically via a temp file and rename, so a
// crash mid-write never leaves a truncated checkpoint behind.
func (s *CheckpointStore) Save(_ context.Context, cp domain.Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".checkpoint-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp checkpoint: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace checkpoint %s: %w", s.path, err)
	}
	return nil
}
