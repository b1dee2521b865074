/*
Package sqlite provides a SQLite-backed review.RunStore.

PURPOSE:
  Keeps the history of review runs for single-node deployments so results
  can be listed, fetched and exported after the upload that produced them.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on the runs table
  - No DELETE statements on the runs table
  - A second SaveRun with the same ID fails with register.ErrDuplicateRun

KEY TABLES:
  review_runs: one row per run; listing columns plus the full result as JSON

INDEXES:
  - idx_review_runs_created_at: newest-first listing (hot path)

WAL MODE:
  File databases are opened with WAL so listing does not block a save.
  ":memory:" databases are pinned to one connection; every connection
  would otherwise see its own empty database.

USAGE:
  store, err := sqlite.New("./data/review.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - review/store.go: interface definition
  - review/store/memory.go: in-memory implementation for testing
  - store/postgres/postgres.go: shared deployments
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/warp/register-review/estimate"
	"github.com/warp/register-review/register"
	"github.com/warp/register-review/review"
)

// timeLayout is fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements review.RunStore using SQLite.
type Store struct {
	db *sql.DB
}

var _ review.RunStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
	if dbPath == ":memory:" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Review runs (append-only)
	CREATE TABLE IF NOT EXISTS review_runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		created_at TEXT NOT NULL,
		base_date TEXT NOT NULL,
		day_count TEXT NOT NULL,
		policy TEXT NOT NULL,
		errors INTEGER NOT NULL,
		warnings INTEGER NOT NULL,
		rows_count INTEGER NOT NULL,
		high_deviation INTEGER NOT NULL,
		result_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_review_runs_created_at
		ON review_runs(created_at DESC, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveRun persists a run. Append-only.
func (s *Store) SaveRun(ctx context.Context, run *review.StoredRun) error {
	resultJSON, err := json.Marshal(run.Result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	sum := run.Summary()

	query := `
		INSERT INTO review_runs
		(id, source, created_at, base_date, day_count, policy,
		 errors, warnings, rows_count, high_deviation, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		run.ID.String(),
		run.Source,
		run.CreatedAt.UTC().Format(timeLayout),
		sum.BaseDate.String(),
		string(sum.DayCount),
		string(sum.Policy),
		sum.Errors,
		sum.Warnings,
		sum.Rows,
		sum.HighDeviation,
		string(resultJSON),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return register.ErrDuplicateRun
		}
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun loads a run with its full result.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*review.StoredRun, error) {
	var (
		run        review.StoredRun
		rawID      string
		createdAt  string
		resultJSON string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, source, created_at, result_json FROM review_runs WHERE id = ?",
		id.String(),
	).Scan(&rawID, &run.Source, &createdAt, &resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, register.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}

	if run.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("corrupt run id %q: %w", rawID, err)
	}
	run.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	run.Result = &review.Result{}
	if err := json.Unmarshal([]byte(resultJSON), run.Result); err != nil {
		return nil, fmt.Errorf("failed to decode result of run %s: %w", rawID, err)
	}
	return &run, nil
}

// ListRuns returns up to limit run summaries, newest first. limit <= 0
// returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]review.RunSummary, error) {
	query := `
		SELECT id, source, created_at, base_date, day_count, policy,
		       errors, warnings, rows_count, high_deviation
		FROM review_runs
		ORDER BY created_at DESC, id
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	out := []review.RunSummary{}
	for rows.Next() {
		var (
			sum                 review.RunSummary
			rawID, createdAt    string
			baseDate            string
			dayCount, policyStr string
		)
		if err := rows.Scan(&rawID, &sum.Source, &createdAt, &baseDate, &dayCount, &policyStr,
			&sum.Errors, &sum.Warnings, &sum.Rows, &sum.HighDeviation); err != nil {
			return nil, err
		}
		if sum.ID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("corrupt run id %q: %w", rawID, err)
		}
		sum.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		sum.BaseDate, _ = register.ParseDate(baseDate)
		sum.DayCount = estimate.DayCount(dayCount)
		sum.Policy = estimate.PolicyKind(policyStr)
		out = append(out, sum)
	}
	return out, rows.Err()
}

func isUniqueConstraintError(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
