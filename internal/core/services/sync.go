package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lakeway-labs/tablesync-cli/internal/core/domain"
	"github.com/lakeway-labs/tablesync-cli/internal/core/ports/driven"
	"github.com/lakeway-labs/tablesync-cli/internal/core/ports/driving"
	"github.com/lakeway-labs/tablesync-cli/internal/logger"
)

// Ensure SyncService implements the interface.
var _ driving.SyncRunner = (*SyncService)(nil)

// SyncConfig holds the pagination parameters of a run.
type SyncConfig struct {
	// PageSize is the fixed number of records per source page.
	PageSize int

	// ExpectedTotalRecords fixes the terminal page count:
	// ceil(ExpectedTotalRecords / PageSize). The loop does not discover
	// true end-of-data dynamically; an empty page is skipped, not treated
	// as terminal.
	ExpectedTotalRecords int
}

// TotalPages returns the statically computed page count.
func (c SyncConfig) TotalPages() int {
	if c.PageSize <= 0 {
		return 0
	}
	return (c.ExpectedTotalRecords + c.PageSize - 1) / c.PageSize
}

// SyncService drives the checkpointed pagination loop: fetch a page,
// reconcile against the index, enrich new records, map and bulk-write
// them, then advance the checkpoint. Pages are processed strictly one at a
// time in increasing order.
type SyncService struct {
	source      driven.SourceTable
	index       driven.SearchIndex
	enricher    *Enricher
	checkpoints driven.CheckpointStore
	failures    driven.FailureLog
	cfg         SyncConfig
}

// NewSyncService creates a sync service. enricher may be nil, in which
// case records lacking a stored embedding are indexed with an empty vector.
func NewSyncService(
	source driven.SourceTable,
	index driven.SearchIndex,
	enricher *Enricher,
	checkpoints driven.CheckpointStore,
	failures driven.FailureLog,
	cfg SyncConfig,
) *SyncService {
	return &SyncService{
		source:      source,
		index:       index,
		enricher:    enricher,
		checkpoints: checkpoints,
		failures:    failures,
		cfg:         cfg,
	}
}

// Run resumes from the persisted checkpoint and processes pages until the
// statically computed total. Per-page and per-record failures are recorded
// in the failure log and never abort the run; only context cancellation
// propagates.
func (s *SyncService) Run(ctx context.Context) (*driving.SyncReport, error) {
	start := time.Now()

	cp, err := s.checkpoints.Load(ctx)
	if err != nil {
		// Read failure degrades to a full restart.
		logger.Warn("checkpoint load failed, restarting from zero: %v", err)
		cp = domain.Checkpoint{}
	}

	report := &driving.SyncReport{
		RunID:      uuid.NewString(),
		StartPage:  cp.LastProcessedPage + 1,
		TotalPages: s.cfg.TotalPages(),
	}
	logger.Info("sync run %s: resuming at page %d of %d (checkpoint record %d)",
		report.RunID, report.StartPage, report.TotalPages, cp.LastProcessedRecordID)

	for page := report.StartPage; page <= report.TotalPages; page++ {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(start)
			return report, err
		}
		s.processPage(ctx, page, report)
	}

	report.Duration = time.Since(start)
	logger.Info("sync run %s complete: %d pages, %d records fetched, %d indexed, %d embedded, %d failures in %s",
		report.RunID, report.PagesProcessed, report.RecordsFetched,
		report.RecordsIndexed, report.RecordsEmbedded, report.FailureCount,
		report.Duration.Round(time.Millisecond))
	return report, nil
}

func (s *SyncService) processPage(ctx context.Context, page int, report *driving.SyncReport) {
	logger.Section(fmt.Sprintf("page %d/%d", page, report.TotalPages))

	records, err := s.source.FetchPage(ctx, page)
	if err != nil {
		// Treated like an empty page: skipped without checkpoint advance,
		// so it is neither confirmed done nor retried later.
		logger.Error("page %d: fetch failed: %v", page, err)
		s.recordFailure(ctx, report, pageMarker(page), err)
		report.PagesEmpty++
		return
	}
	if len(records) == 0 {
		logger.Warn("page %d: no records returned, skipping", page)
		report.PagesEmpty++
		return
	}

	logger.Info("page %d: fetched %d records", page, len(records))
	report.RecordsFetched += len(records)

	ids := make([]string, 0, len(records))
	maxID := 0
	for _, rec := range records {
		ids = append(ids, rec.StringID())
		if rec.ID > maxID {
			maxID = rec.ID
		}
	}

	existing, err := s.index.ExistingIDs(ctx, ids)
	if err != nil {
		// Degrade to "assume nothing exists": the bulk write is
		// upsert-by-id, so re-indexing beats skipping unindexed records.
		logger.Warn("page %d: existence check failed, re-indexing whole page: %v", page, err)
		s.recordFailure(ctx, report, pageMarker(page), fmt.Errorf("existence check: %w", err))
		existing = map[string]struct{}{}
	}

	fresh := make([]domain.Record, 0, len(records))
	seen := make(map[int]struct{}, len(records))
	pageExisting := 0
	for _, rec := range records {
		if _, dup := seen[rec.ID]; dup {
			continue
		}
		seen[rec.ID] = struct{}{}
		if _, ok := existing[rec.StringID()]; ok {
			pageExisting++
			continue
		}
		fresh = append(fresh, rec)
	}
	report.RecordsExisting += pageExisting
	logger.Info("page %d: %d new, %d already indexed", page, len(fresh), pageExisting)

	for i := range fresh {
		s.prepareRecord(ctx, &fresh[i], report)
	}

	if len(fresh) > 0 {
		s.writeDocuments(ctx, page, fresh, report)
	}

	cp := domain.Checkpoint{
		LastProcessedPage:     page,
		LastProcessedRecordID: maxID,
		Timestamp:             time.Now().UTC(),
	}
	if err := s.checkpoints.Save(ctx, cp); err != nil {
		// Not fatal, but the next restart will re-process this page.
		logger.Error("page %d: checkpoint save failed: %v", page, err)
	} else {
		logger.Debug("page %d: checkpoint advanced to record %d", page, maxID)
	}
	report.PagesProcessed++
}

// prepareRecord decodes a stored embedding and enriches the record when no
// usable vector is present. All failures leave the record with an empty
// embedding and let it proceed to the bulk write.
func (s *SyncService) prepareRecord(ctx context.Context, rec *domain.Record, report *driving.SyncReport) {
	if err := rec.DecodeEmbedding(); err != nil {
		logger.Warn("record %d: %v, indexing with empty embedding", rec.ID, err)
		s.recordFailure(ctx, report, rec.StringID(), err)
	}

	if s.enricher == nil || rec.HasEmbedding() {
		return
	}

	enriched, err := s.enricher.Enrich(ctx, rec)
	if err != nil {
		logger.Warn("record %d: %v", rec.ID, err)
		s.recordFailure(ctx, report, rec.StringID(), err)
		return
	}
	if enriched {
		report.RecordsEmbedded++
	}
}

// writeDocuments maps the new records and bulk-writes them. Per-item
// failures are logged individually; a batch-level transport failure loses
// the whole batch but still does not stop the loop.
func (s *SyncService) writeDocuments(ctx context.Context, page int, records []domain.Record, report *driving.SyncReport) {
	docs := make([]domain.Document, len(records))
	for i, rec := range records {
		docs[i] = domain.MapRecord(rec)
	}

	itemFailures, err := s.index.BulkIndex(ctx, docs)
	if err != nil {
		logger.Error("page %d: bulk write failed, batch lost: %v", page, err)
		s.recordFailure(ctx, report, pageMarker(page), fmt.Errorf("bulk write: %w", err))
		return
	}

	for _, f := range itemFailures {
		logger.Warn("document %s: index rejected: %s", f.ID, f.Reason)
		s.recordFailure(ctx, report, f.ID, fmt.Errorf("index rejected: %s", f.Reason))
	}
	report.RecordsIndexed += len(docs) - len(itemFailures)
	logger.Info("page %d: bulk-wrote %d documents (%d rejected)", page, len(docs)-len(itemFailures), len(itemFailures))
}

func (s *SyncService) recordFailure(ctx context.Context, report *driving.SyncReport, id string, err error) {
	report.FailureCount++
	entry := domain.Failure{
		ID:    id,
		Error: err.Error(),
		Time:  time.Now().UTC(),
		RunID: report.RunID,
	}
	if appendErr := s.failures.Append(ctx, entry); appendErr != nil {
		logger.Warn("failure log append for %s failed: %v", id, appendErr)
	}
}

func pageMarker(page int) string {
	return fmt.Sprintf("page-%d", page)
}
