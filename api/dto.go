/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  The JSON contract of the HTTP surface. Results are served as the engine
  produces them (review.Result carries its own JSON tags); these types wrap
  them with run metadata and describe the JSON review request.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

SEE ALSO:
  - handlers.go: Uses these types
  - factory/policy.go: ConfigJSON type
*/
package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/warp/register-review/factory"
	"github.com/warp/register-review/ingest"
	"github.com/warp/register-review/register"
	"github.com/warp/register-review/review"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ReviewRequest is the application/json form of POST /api/reviews.
// Config fields override the server defaults.
type ReviewRequest struct {
	Source    string                `json:"source,omitempty"`
	Config    *factory.ConfigJSON   `json:"config,omitempty"`
	Registers []RegisterRequest     `json:"registers"`
	Summary   *register.PlanSummary `json:"summary,omitempty"`
}

// RegisterRequest is one register as raw rows keyed by canonical field.
// Values are normalized exactly like workbook cells.
type RegisterRequest struct {
	Name string                   `json:"name"`
	Role register.Role            `json:"role"`
	Rows []map[register.Field]any `json:"rows"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ReviewDTO is a stored run with its full result.
type ReviewDTO struct {
	ID        uuid.UUID      `json:"id"`
	Source    string         `json:"source"`
	CreatedAt time.Time      `json:"created_at"`
	Workbook  *WorkbookDTO   `json:"workbook,omitempty"`
	Result    *review.Result `json:"result"`
}

// WorkbookDTO reports how an uploaded workbook was read.
type WorkbookDTO struct {
	Sheets  []ingest.SheetInfo `json:"sheets"`
	Skipped []string           `json:"skipped"`
	Errors  []SheetErrorDTO    `json:"errors"`
}

type SheetErrorDTO struct {
	Sheet string `json:"sheet"`
	Error string `json:"error"`
}

type ReviewListResponse struct {
	Reviews []review.RunSummary `json:"reviews"`
}

type HealthResponse struct {
	Status  string              `json:"status"`
	Store   string              `json:"store"`
	Uploads UploadLimiterStatus `json:"uploads"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toReviewDTO(run *review.StoredRun, wb *ingest.Workbook) ReviewDTO {
	dto := ReviewDTO{ID: run.ID, Source: run.Source, CreatedAt: run.CreatedAt, Result: run.Result}
	if wb != nil {
		w := &WorkbookDTO{Sheets: wb.Sheets, Skipped: wb.Skipped, Errors: []SheetErrorDTO{}}
		if w.Sheets == nil {
			w.Sheets = []ingest.SheetInfo{}
		}
		if w.Skipped == nil {
			w.Skipped = []string{}
		}
		for _, e := range wb.Errors {
			w.Errors = append(w.Errors, SheetErrorDTO{Sheet: e.Sheet, Error: e.Err.Error()})
		}
		dto.Workbook = w
	}
	return dto
}
