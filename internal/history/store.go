// Package history persists per-run summaries to an embedded SQLite
// database so operators can audit what previous holdctl runs did.
package history

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // Pure Go SQLite driver, registers as "sqlite".

	"github.com/AndrewH15/BulkLitigationHoldManager/internal/holdrun"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is the run-history ledger. Intended for a single process at a
// time; holdctl never runs more than one coordinator against the same
// database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// RunRecord is one persisted run summary.
type RunRecord struct {
	RunID         string
	Preview       bool
	StartedAt     time.Time
	Elapsed       string
	TotalEligible int
	AlreadyOnHold int
	NewlyEnabled  int
	Failed        int
	NoMailbox     int
	TotalErrors   int64
	HaltedEarly   bool
}

// Open opens (or creates) the history database at path and applies
// pending migrations. Use ":memory:" for tests.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open sqlite: %w", err)
	}

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode = WAL"); err != nil {
		db.Close()

		return nil, fmt.Errorf("history: enabling WAL: %w", err)
	}

	if err := runMigrations(context.Background(), db, logger); err != nil {
		db.Close()

		return nil, err
	}

	return &Store{db: db, logger: logger}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun persists one run summary.
func (s *Store) RecordRun(ctx context.Context, summary holdrun.Summary) error {
	const query = `INSERT INTO runs
		(run_id, preview, started_at, elapsed, total_eligible, already_on_hold,
		 newly_enabled, failed, no_mailbox, total_errors, halted_early)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		summary.RunID,
		summary.Preview,
		summary.StartedAt.UTC().Format(time.RFC3339),
		summary.Elapsed,
		summary.TotalEligible,
		summary.AlreadyOnHold,
		summary.NewlyEnabled,
		summary.Failed,
		summary.NoMailbox,
		summary.TotalErrors,
		summary.HaltedEarly,
	)
	if err != nil {
		return fmt.Errorf("history: recording run %s: %w", summary.RunID, err)
	}

	s.logger.Debug("run recorded", slog.String("run_id", summary.RunID))

	return nil
}

// ListRuns returns up to limit runs, most recent first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	const query = `SELECT run_id, preview, started_at, elapsed, total_eligible,
		already_on_hold, newly_enabled, failed, no_mailbox, total_errors, halted_early
		FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("history: listing runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord

	for rows.Next() {
		var (
			rec       RunRecord
			startedAt string
		)

		err := rows.Scan(
			&rec.RunID, &rec.Preview, &startedAt, &rec.Elapsed,
			&rec.TotalEligible, &rec.AlreadyOnHold, &rec.NewlyEnabled,
			&rec.Failed, &rec.NoMailbox, &rec.TotalErrors, &rec.HaltedEarly,
		)
		if err != nil {
			return nil, fmt.Errorf("history: scanning run row: %w", err)
		}

		if ts, err := time.Parse(time.RFC3339, startedAt); err == nil {
			rec.StartedAt = ts
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterating runs: %w", err)
	}

	return records, nil
}

// runMigrations applies all pending schema migrations. Uses the goose v3
// Provider API (no global state, context-aware).
func runMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	subFS, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("history: creating migration sub-filesystem: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, subFS)
	if err != nil {
		return fmt.Errorf("history: creating migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("history: running migrations: %w", err)
	}

	for _, r := range results {
		logger.Debug("applied migration",
			slog.String("source", r.Source.Path),
			slog.Int64("duration_ms", r.Duration.Milliseconds()),
		)
	}

	return nil
}
