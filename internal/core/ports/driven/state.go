package driven

import (
	"context"

	"github.com/lakeway-labs/tablesync-cli/internal/core/domain"
)

// CheckpointStore persists sync progress.
type CheckpointStore interface {
	// Load retrieves the checkpoint. Missing or corrupt state is not
	// fatal: implementations return the zero checkpoint with a nil error,
	// degrading to a full-restart posture. A non-nil error indicates an
	// I/O failure; the caller also restarts from zero in that case.
	Load(ctx context.Context) (domain.Checkpoint, error)

	// Save stores or overwrites the checkpoint. The overwrite must be
	// atomic enough that a half-written state reads back as corrupt, not
	// half-applied. Single-writer process assumption: no locking.
	Save(ctx context.Context, cp domain.Checkpoint) error
}

// FailureLog is the append-only record of per-item failures.
type FailureLog interface {
	// Append records one failure entry.
	Append(ctx context.Context, f domain.Failure) error

	// List returns all recorded failures in append order.
	List(ctx context.Context) ([]domain.Failure, error)
}
