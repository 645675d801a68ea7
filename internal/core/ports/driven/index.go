package driven

import (
	"context"

	"github.com/lakeway-labs/tablesync-cli/internal/core/domain"
)

// SearchIndex is the destination index: multi-get reconciliation plus
// bulk upsert with independent per-item outcomes.
type SearchIndex interface {
	// ExistingIDs returns the subset of ids that the index reports as
	// found. Callers must treat a non-nil error as "assume nothing
	// exists": re-indexing already-indexed documents is preferred over
	// skipping unindexed ones.
	ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error)

	// BulkIndex writes all documents in a single bulk upsert call.
	// Per-item failures are returned in the slice and do not roll back
	// other items; a non-nil error is a batch-level transport failure and
	// means nothing in the batch was written.
	BulkIndex(ctx context.Context, docs []domain.Document) ([]BulkItemFailure, error)
}

// BulkItemFailure is one failed item of a bulk write.
type BulkItemFailure struct {
	// ID is the document id, or a positional placeholder (item-N) when
	// the id cannot be resolved from the error response.
	ID string

	// Reason is the failure reason reported by the index.
	Reason string
}
