/*
Package postgres provides a PostgreSQL-backed review.RunStore.

PURPOSE:
  Shared run history for deployments with more than one server. Same
  contract as store/sqlite: append-only, newest-first listing, the full
  result kept as JSONB.

POOL:
  The store depends on PgxPoolIface, satisfied by *pgxpool.Pool and by
  test doubles.

SEE ALSO:
  - review/store.go: interface definition
  - store/sqlite/sqlite.go: single-node implementation
*/
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warp/register-review/estimate"
	"github.com/warp/register-review/register"
	"github.com/warp/register-review/review"
)

const uniqueViolation = "23505"

type PgxPoolIface interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PoolConfig tunes the connection pool.
type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

type Store struct {
	pool PgxPoolIface
}

var _ review.RunStore = (*Store)(nil)

func New(pool PgxPoolIface) *Store {
	return &Store{pool: pool}
}

// Open connects, pings and migrates. The caller closes the returned pool.
func Open(ctx context.Context, dsn string, cfg PoolConfig) (*Store, *pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}

	s := New(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return s, pool, nil
}

// Migrate creates the schema if missing.
func (s *Store) Migrate(ctx context.Context) error {
	query := `
CREATE TABLE IF NOT EXISTS review_runs (
	id             uuid PRIMARY KEY,
	source         text        NOT NULL,
	created_at     timestamptz NOT NULL,
	base_date      date,
	day_count      text        NOT NULL,
	policy         text        NOT NULL,
	errors         integer     NOT NULL,
	warnings       integer     NOT NULL,
	rows_count     integer     NOT NULL,
	high_deviation integer     NOT NULL,
	result         jsonb       NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_review_runs_created_at ON review_runs (created_at DESC, id);
`
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Ping checks the database answers a trivial query.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	if err := s.pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

func (s *Store) SaveRun(ctx context.Context, run *review.StoredRun) error {
	result, err := json.Marshal(run.Result)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}
	sum := run.Summary()

	var baseDate *time.Time
	if !sum.BaseDate.IsZero() {
		baseDate = &sum.BaseDate.Time
	}

	query := `
INSERT INTO review_runs
	(id, source, created_at, base_date, day_count, policy, errors, warnings, rows_count, high_deviation, result)
VALUES
	($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb);
`
	_, err = s.pool.Exec(ctx, query,
		run.ID, run.Source, run.CreatedAt, baseDate, string(sum.DayCount), string(sum.Policy),
		sum.Errors, sum.Warnings, sum.Rows, sum.HighDeviation, string(result),
	)
	if err != nil {
		var pgerr *pgconn.PgError
		if errors.As(err, &pgerr) && pgerr.Code == uniqueViolation {
			return register.ErrDuplicateRun
		}
		return fmt.Errorf("pool.Exec: %w", err)
	}
	return nil
}

func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*review.StoredRun, error) {
	query := `
SELECT id, source, created_at, result
FROM review_runs
WHERE id = $1::uuid
`
	var (
		run    review.StoredRun
		result []byte
	)
	err := s.pool.QueryRow(ctx, query, id).Scan(&run.ID, &run.Source, &run.CreatedAt, &result)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, register.ErrRunNotFound
		}
		return nil, fmt.Errorf("row.Scan: %w", err)
	}

	run.Result = &review.Result{}
	if err := json.Unmarshal(result, run.Result); err != nil {
		return nil, fmt.Errorf("json.Unmarshal: %w", err)
	}
	return &run, nil
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]review.RunSummary, error) {
	query := `
SELECT id, source, created_at, base_date, day_count, policy, errors, warnings, rows_count, high_deviation
FROM review_runs
ORDER BY created_at DESC, id
LIMIT $1
`
	var lim *int
	if limit > 0 {
		lim = &limit
	}
	rows, err := s.pool.Query(ctx, query, lim)
	if err != nil {
		return nil, fmt.Errorf("pool.Query: %w", err)
	}
	defer rows.Close()

	out := []review.RunSummary{}
	for rows.Next() {
		var (
			sum      review.RunSummary
			baseDate *time.Time
			dayCount string
			policy   string
		)
		err = rows.Scan(&sum.ID, &sum.Source, &sum.CreatedAt, &baseDate, &dayCount, &policy,
			&sum.Errors, &sum.Warnings, &sum.Rows, &sum.HighDeviation)
		if err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		if baseDate != nil {
			sum.BaseDate = register.DateOf(*baseDate)
		}
		sum.DayCount = estimate.DayCount(dayCount)
		sum.Policy = estimate.PolicyKind(policy)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}
	return out, nil
}
