package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/lakeway-labs/tablesync-cli/internal/core/domain"
	"github.com/lakeway-labs/tablesync-cli/internal/core/ports/driven"
)

// Ensure FailureLog implements the interface.
var _ driven.FailureLog = (*FailureLog)(nil)

// FailureLog appends failure entries to a JSON array file.
type FailureLog struct {
	mu   sync.Mutex
	path string
}

// NewFailureLog creates a failure log at the given path.
func NewFailureLog(path string) (*FailureLog, error) {
	if path == "" {
		return nil, fmt.Errorf("file: failure log path is required")
	}
	return &FailureLog{path: path}, nil
}

// Append adds a failure entry to the log file.
func (l *FailureLog) Append(_ context.Context, f domain.Failure) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	failures, err := l.read()
	if err != nil {
		return err
	}
	failures = append(failures, f)

	data, err := json.MarshalIndent(failures, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal failures: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("write failure log %s: %w", l.path, err)
	}
	return nil
}

// List returns all recorded failures, oldest first.
func (l *FailureLog) List(_ context.Context) ([]domain.Failure, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read()
}

func (l *FailureLog) read() ([]domain.Failure, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read failure log %s: %w", l.path, err)
	}

	var failures []domain.Failure
	if err := json.Unmarshal(data, &failures); err != nil {
		return nil, fmt.Errorf("decode failure log %s: %w", l.path, err)
	}
	return failures, nil
}
