package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/register-review/register"
	"github.com/warp/register-review/review"
	"github.com/warp/register-review/review/store"
)

func runAt(source string, at time.Time) *review.StoredRun {
	return &review.StoredRun{ID: uuid.New(), Source: source, CreatedAt: at}
}

func TestMemory_SaveGetAppendOnly(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	// GIVEN: a saved run
	run := runAt("a.xlsx", time.Now())
	require.NoError(t, m.SaveRun(ctx, run))

	// WHEN: loading it and saving it again
	got, err := m.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Same(t, run, got)

	// THEN: the second save is rejected and unknown IDs are not found
	assert.ErrorIs(t, m.SaveRun(ctx, run), register.ErrDuplicateRun)
	_, err = m.GetRun(ctx, uuid.New())
	assert.True(t, register.IsNotFound(err))
}

func TestMemory_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, src := range []string{"first", "second", "third"} {
		require.NoError(t, m.SaveRun(ctx, runAt(src, base.Add(time.Duration(i)*time.Hour))))
	}

	all, err := m.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"third", "second", "first"}, []string{all[0].Source, all[1].Source, all[2].Source})

	limited, err := m.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
	assert.Equal(t, "third", limited[0].Source)
}

func TestMemory_ConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.SaveRun(ctx, runAt("x", time.Now())))
		}()
	}
	wg.Wait()

	runs, err := m.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 20)
}
