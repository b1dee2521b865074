package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/register-review/estimate"
	"github.com/warp/register-review/normalize"
	"github.com/warp/register-review/register"
	"github.com/warp/register-review/review"
	"github.com/warp/register-review/store/postgres"
)

// fakePool fails every call with the configured errors.
type fakePool struct {
	execErr  error
	scanErr  error
	queryErr error
	lastSQL  string
	lastArgs []any
}

func (p *fakePool) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	p.lastSQL, p.lastArgs = sql, args
	return nil, p.queryErr
}

func (p *fakePool) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	p.lastSQL, p.lastArgs = sql, args
	return fakeRow{err: p.scanErr}
}

func (p *fakePool) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	p.lastSQL, p.lastArgs = sql, args
	return pgconn.NewCommandTag("INSERT 0 1"), p.execErr
}

type fakeRow struct{ err error }

func (r fakeRow) Scan(...any) error { return r.err }

func sampleResult(t *testing.T) *review.Result {
	t.Helper()
	active := register.NewRegister("재직자 명부", register.RoleActive,
		normalize.Record(register.RoleActive, map[register.Field]any{
			register.FieldEmployeeID:          "1001",
			register.FieldBirthDate:           "19800101",
			register.FieldHireDate:            "20200101",
			register.FieldBaseSalary:          "3,000,000",
			register.FieldEmployeeType:        "1",
			register.FieldCurrentYearEstimate: "14,000,000",
			register.FieldNextYearEstimate:    "15,000,000",
		}, normalize.WithRow(4)),
	)
	res, err := review.Run(register.Batch{Active: active}, review.Config{
		BaseDate: register.NewDate(2025, 1, 1),
		DayCount: estimate.DayCountMonthRoundDown,
	})
	require.NoError(t, err)
	return res
}

func TestSaveRun_UniqueViolationIsDuplicate(t *testing.T) {
	// GIVEN: a pool reporting a unique violation
	pool := &fakePool{execErr: &pgconn.PgError{Code: "23505"}}
	s := postgres.New(pool)

	// WHEN: a run is saved
	err := s.SaveRun(context.Background(), review.NewStoredRun("book.xlsx", sampleResult(t)))

	// THEN: the store reports a duplicate
	assert.ErrorIs(t, err, register.ErrDuplicateRun)
	require.Len(t, pool.lastArgs, 11)
	assert.Equal(t, "month_round_down", pool.lastArgs[4])
}

func TestSaveRun_OtherErrorsAreWrapped(t *testing.T) {
	boom := errors.New("connection reset")
	s := postgres.New(&fakePool{execErr: boom})

	err := s.SaveRun(context.Background(), review.NewStoredRun("book.xlsx", sampleResult(t)))
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, register.ErrDuplicateRun)
}

func TestGetRun_NoRowsIsNotFound(t *testing.T) {
	s := postgres.New(&fakePool{scanErr: pgx.ErrNoRows})

	_, err := s.GetRun(context.Background(), uuid.New())
	assert.ErrorIs(t, err, register.ErrRunNotFound)
	assert.True(t, register.IsNotFound(err))
}

func TestListRuns_QueryError(t *testing.T) {
	boom := errors.New("down")
	pool := &fakePool{queryErr: boom}
	s := postgres.New(pool)

	_, err := s.ListRuns(context.Background(), 0)
	assert.ErrorIs(t, err, boom)
	require.Len(t, pool.lastArgs, 1)
	assert.Nil(t, pool.lastArgs[0], "no limit binds NULL")
}

func TestPing(t *testing.T) {
	ctx := context.Background()

	ok := &fakePool{}
	require.NoError(t, postgres.New(ok).Ping(ctx))
	assert.Equal(t, "SELECT 1", ok.lastSQL)

	down := &fakePool{scanErr: errors.New("connection refused")}
	assert.ErrorContains(t, postgres.New(down).Ping(ctx), "connection refused")
}

// TestStore_Postgres runs against a live database when
// REVIEW_TEST_POSTGRES_DSN is set.
func TestStore_Postgres(t *testing.T) {
	dsn := os.Getenv("REVIEW_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("REVIEW_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	s, pool, err := postgres.Open(ctx, dsn, postgres.PoolConfig{MaxConns: 2})
	require.NoError(t, err)
	defer pool.Close()

	res := sampleResult(t)
	run := review.NewStoredRun("book.xlsx", res)
	run.CreatedAt = time.Now().UTC().Add(time.Hour)
	require.NoError(t, s.SaveRun(ctx, run))
	assert.ErrorIs(t, s.SaveRun(ctx, run), register.ErrDuplicateRun)

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, res.Totals, got.Result.Totals)

	list, err := s.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, run.ID, list[0].ID)
	assert.Equal(t, register.NewDate(2025, 1, 1), list[0].BaseDate)
}
