package domain

import "time"

// Checkpoint is the durable marker of sync progress. It is owned
// exclusively by the sync loop: read once at startup, persisted after every
// successfully completed page. On restart processing resumes at
// LastProcessedPage + 1; earlier pages are never re-fetched.
type Checkpoint struct {
	LastProcessedPage     int       `json:"lastProcessedPage"`
	LastProcessedRecordID int       `json:"lastProcessedRecordId"`
	Timestamp             time.Time `json:"timestamp"`
}

// IsZero reports whether the checkpoint carries no progress, i.e. a full
// restart posture.
func (c Checkpoint) IsZero() bool {
	return c.LastProcessedPage == 0 && c.LastProcessedRecordID == 0
}

// Failure is one append-only entry of the failure log. Entries are purely
// diagnostic: never mutated, never pruned.
type Failure struct {
	// ID identifies the failed item: a record id, a document id, a
	// positional placeholder (item-N) or a page marker (page-N).
	ID string `json:"id"`

	// Error is the failure reason.
	Error string `json:"error"`

	// Time is when the failure was recorded.
	Time time.Time `json:"time"`

	// RunID groups failures by sync invocation.
	RunID string `json:"runId,omitempty"`
}
