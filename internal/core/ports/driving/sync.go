// Package driving provides interfaces for entry points (primary/inbound
// ports) into the sync core.
package driving

import (
	"context"
	"time"
)

// SyncRunner drives one checkpointed synchronisation run over the source
// table's pages.
type SyncRunner interface {
	// Run resumes from the persisted checkpoint and processes pages
	// sequentially up to the statically computed total. Per-item and
	// per-page errors are swallowed and recorded in the failure log; only
	// errors outside those guarded regions (e.g. context cancellation)
	// propagate.
	Run(ctx context.Context) (*SyncReport, error)
}

// SyncReport summarises one sync run.
type SyncReport struct {
	// RunID identifies this invocation; failure-log entries carry it.
	RunID string

	// StartPage is the first page processed (checkpoint page + 1).
	StartPage int

	// TotalPages is the statically computed terminal page count.
	TotalPages int

	// PagesProcessed counts pages that completed and advanced the checkpoint.
	PagesProcessed int

	// PagesEmpty counts pages skipped because the fetch returned nothing.
	PagesEmpty int

	// RecordsFetched is the total records returned across all pages.
	RecordsFetched int

	// RecordsExisting counts records skipped because the index already
	// holds their document.
	RecordsExisting int

	// RecordsIndexed counts documents accepted by the bulk writes.
	RecordsIndexed int

	// RecordsEmbedded counts records enriched with a fresh embedding.
	RecordsEmbedded int

	// FailureCount is the number of failure-log entries recorded.
	FailureCount int

	// Duration is the wall-clock time of the run.
	Duration time.Duration
}
