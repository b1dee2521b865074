/*
store.go - Persistence and notification interfaces for review runs

PURPOSE:
  The engine itself keeps nothing. Outer surfaces (HTTP server) record each
  run so it can be listed, fetched and exported later, and announce it to
  downstream consumers.

APPEND-ONLY CONTRACT:
  A stored run is immutable:
  - SaveRun(): single write, rejected if the ID exists
  - NO update or delete

IMPLEMENTATIONS:
  - review/store/memory.go: in-memory for tests and dev
  - store/sqlite/sqlite.go: single-node deployments
  - store/postgres/postgres.go: shared deployments
  - notify/kafka.go: Notifier publishing to Kafka

SEE ALSO:
  - api/handlers.go: saves, lists and exports runs
*/
package review

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/warp/register-review/estimate"
	"github.com/warp/register-review/register"
)

// StoredRun is a review result with its provenance.
type StoredRun struct {
	ID        uuid.UUID `json:"id"`
	Source    string    `json:"source"` // uploaded file name or "json"
	CreatedAt time.Time `json:"created_at"`
	Result    *Result   `json:"result"`
}

// NewStoredRun stamps a result with a fresh ID and the current time.
func NewStoredRun(source string, res *Result) *StoredRun {
	return &StoredRun{ID: uuid.New(), Source: source, CreatedAt: time.Now().UTC(), Result: res}
}

// RunSummary is the listing view of a stored run.
type RunSummary struct {
	ID            uuid.UUID           `json:"id"`
	Source        string              `json:"source"`
	CreatedAt     time.Time           `json:"created_at"`
	BaseDate      register.Date       `json:"base_date"`
	DayCount      estimate.DayCount   `json:"day_count"`
	Policy        estimate.PolicyKind `json:"policy"`
	Errors        int                 `json:"errors"`
	Warnings      int                 `json:"warnings"`
	Rows          int                 `json:"rows"`
	HighDeviation int                 `json:"high_deviation"`
}

// Summary builds the listing view.
func (r *StoredRun) Summary() RunSummary {
	s := RunSummary{ID: r.ID, Source: r.Source, CreatedAt: r.CreatedAt}
	if r.Result != nil {
		s.BaseDate = r.Result.BaseDate
		s.DayCount = r.Result.DayCount
		s.Policy = r.Result.Policy
		s.Errors = r.Result.Totals.Errors
		s.Warnings = r.Result.Totals.Warnings
		s.Rows = r.Result.Summary.TotalCount
		s.HighDeviation = r.Result.Summary.HighDeviationCount
	}
	return s
}

// RunStore persists review runs. Append-only.
type RunStore interface {
	// SaveRun persists a run. Returns register.ErrDuplicateRun if the ID exists.
	SaveRun(ctx context.Context, run *StoredRun) error

	// GetRun loads a run. Returns register.ErrRunNotFound if missing.
	GetRun(ctx context.Context, id uuid.UUID) (*StoredRun, error)

	// ListRuns returns up to limit runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
}

// Notifier announces completed runs.
type Notifier interface {
	ReviewCompleted(ctx context.Context, run *StoredRun) error
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) ReviewCompleted(context.Context, *StoredRun) error { return nil }
