package memory

import (
	"context"
	"sync"

	"github.com/lakeway-labs/tablesync-cli/internal/core/domain"
	"github.com/lakeway-labs/tablesync-cli/internal/core/ports/driven"
)

// Ensure FailureLog implements the interface.
var _ driven.FailureLog = (*FailureLog)(nil)

// FailureLog is an in-memory implementation of driven.FailureLog.
type FailureLog struct {
	mu      sync.RWMutex
	entries []domain.Failure
}

// NewFailureLog creates a new in-memory failure log.
func NewFailureLog() *FailureLog {
	return &FailureLog{}
}

// Append records one failure entry.
func (l *FailureLog) Append(_ context.Context, f domain.Failure) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, f)
	return nil
}

// List returns all recorded failures in append order.
func (l *FailureLog) List(_ context.Context) ([]domain.Failure, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Failure, len(l.entries))
	copy(out, l.entries)
	return out, nil
}
