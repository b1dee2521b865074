// Package store provides in-process RunStore implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/warp/register-review/register"
	"github.com/warp/register-review/review"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]*review.StoredRun
}

func NewMemory() *Memory {
	return &Memory{runs: make(map[uuid.UUID]*review.StoredRun)}
}

// SaveRun adds a run. Append-only.
func (m *Memory) SaveRun(_ context.Context, run *review.StoredRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.runs[run.ID]; exists {
		return register.ErrDuplicateRun
	}
	m.runs[run.ID] = run
	return nil
}

func (m *Memory) GetRun(_ context.Context, id uuid.UUID) (*review.StoredRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, register.ErrRunNotFound
	}
	return run, nil
}

// ListRuns returns summaries newest first. limit <= 0 returns all.
func (m *Memory) ListRuns(_ context.Context, limit int) ([]review.RunSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]review.RunSummary, 0, len(m.runs))
	for _, run := range m.runs {
		out = append(out, run.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
