// Package sqlite provides a SQLite-backed state store holding the sync
// checkpoint and the failure log. It survives concurrent readers (WAL mode)
// and keeps the full failure history queryable with ordinary SQL.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/lakeway-labs/tablesync-cli/internal/adapters/driven/state/sqlite/migrations"
	"github.com/lakeway-labs/tablesync-cli/internal/core/domain"
	"github.com/lakeway-labs/tablesync-cli/internal/core/ports/driven"
)

// Store is a SQLite-based state store that provides access to the
// checkpoint and failure log interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.tablesync/data/state.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".tablesync", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "state.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// CheckpointStore returns a CheckpointStore interface backed by this store.
func (s *Store) CheckpointStore() driven.CheckpointStore {
	return &checkpointStore{store: s}
}

// FailureLog returns a FailureLog interface backed by this store.
func (s *Store) FailureLog() driven.FailureLog {
	return &failureLog{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Checkpoint Store ====================

// checkpointStore implements driven.CheckpointStore.
type checkpointStore struct {
	store *Store
}

var _ driven.CheckpointStore = (*checkpointStore)(nil)

// Load reads the checkpoint row. A missing row yields the zero checkpoint.
func (s *checkpointStore) Load(ctx context.Context) (domain.Checkpoint, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT last_processed_page, last_processed_record_id, updated_at
		FROM checkpoint WHERE id = 1
	`)

	var cp domain.Checkpoint
	var updatedAt sql.NullTime
	if err := row.Scan(&cp.LastProcessedPage, &cp.LastProcessedRecordID, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Checkpoint{}, nil
		}
		return domain.Checkpoint{}, fmt.Errorf("scanning checkpoint: %w", err)
	}

	if updatedAt.Valid {
		cp.Timestamp = updatedAt.Time
	}
	return cp, nil
}

// Save upserts the single checkpoint row.
func (s *checkpointStore) Save(ctx context.Context, cp domain.Checkpoint) error {
	ts := cp.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO checkpoint (id, last_processed_page, last_processed_record_id, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_processed_page = excluded.last_processed_page,
			last_processed_record_id = excluded.last_processed_record_id,
			updated_at = excluded.updated_at
	`, cp.LastProcessedPage, cp.LastProcessedRecordID, ts)

	if err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}
	return nil
}

// ==================== Failure Log ====================

// failureLog implements driven.FailureLog.
type failureLog struct {
	store *Store
}

var _ driven.FailureLog = (*failureLog)(nil)

// Append records a failure entry.
func (l *failureLog) Append(ctx context.Context, f domain.Failure) error {
	ts := f.Time
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := l.store.db.ExecContext(ctx, `
		INSERT INTO failures (record_id, error, run_id, occurred_at)
		VALUES (?, ?, ?, ?)
	`, f.ID, f.Error, f.RunID, ts)

	if err != nil {
		return fmt.Errorf("appending failure: %w", err)
	}
	return nil
}

// List returns all recorded failures, oldest first.
func (l *failureLog) List(ctx context.Context) ([]domain.Failure, error) {
	rows, err := l.store.db.QueryContext(ctx, `
		SELECT record_id, error, run_id, occurred_at
		FROM failures ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("querying failures: %w", err)
	}
	defer rows.Close()

	var failures []domain.Failure //nolint:prealloc // size unknown from query
	for rows.Next() {
		var f domain.Failure
		var occurredAt sql.NullTime
		if err := rows.Scan(&f.ID, &f.Error, &f.RunID, &occurredAt); err != nil {
			return nil, fmt.Errorf("scanning failure: %w", err)
		}
		if occurredAt.Valid {
			f.Time = occurredAt.Time
		}
		failures = append(failures, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating failures: %w", err)
	}

	return failures, nil
}
