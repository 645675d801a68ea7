package driven

import (
	"context"

	"github.com/lakeway-labs/tablesync-cli/internal/core/domain"
)

// SourceTable reads paginated records from the upstream table and writes
// computed embeddings back to it.
type SourceTable interface {
	// FetchPage fetches one page of records with the fixed field
	// projection (domain.FieldProjection). An empty slice with a nil error
	// means the upstream has no data for this page; a non-nil error means
	// the request failed. The orchestrator treats both as a skipped page,
	// with the error only adding a failure-log entry.
	FetchPage(ctx context.Context, page int) ([]domain.Record, error)

	// WriteEmbedding persists a computed vector back to the upstream row,
	// as a partial update keyed by record id.
	WriteEmbedding(ctx context.Context, recordID int, vec []float32) error
}
