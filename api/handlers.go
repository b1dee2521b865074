/*
handlers.go - HTTP API handlers for the register review engine

PURPOSE:
  Exposes the review engine via REST API. Handles HTTP request/response,
  workbook upload, JSON serialization, and delegates to the engine and the
  run store.

ENDPOINTS:
  GET    /api/healthz               Liveness, store reachability, upload slots
  GET    /api/presets               Named review configurations
  GET    /api/categories            Registered finding categories

  Reviews:
    POST   /api/reviews             Run a review (multipart xlsx or JSON)
    GET    /api/reviews             List stored runs, newest first
    GET    /api/reviews/{id}        Stored run with its full result
    GET    /api/reviews/{id}/export Stored run as an .xlsx report

REQUEST FLOW (POST /api/reviews):
  1. Take an upload slot (429 when none frees up in time)
  2. Decode registers: multipart "file" through ingest, or JSON rows
     through normalize
  3. Resolve configuration: server defaults, then the request's "config"
     document, then the "base_date" form field
  4. review.Run
  5. Store the run, announce it, respond 201

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: bad configuration, unreadable workbook, malformed JSON
  - 404: unknown run
  - 413: upload over the size limit
  - 415: unsupported content type
  - 422: workbook without any register sheet
  - 429: no upload slot
  - 500: store or export failures

SECURITY NOTE:
  No authentication or authorization. Deploy behind a gateway that provides
  it.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - limiter.go: upload slots
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/register-review/export"
	"github.com/warp/register-review/factory"
	"github.com/warp/register-review/ingest"
	"github.com/warp/register-review/logging"
	"github.com/warp/register-review/normalize"
	"github.com/warp/register-review/register"
	"github.com/warp/register-review/review"
)

// DefaultMaxUploadSize bounds a multipart request body.
const DefaultMaxUploadSize int64 = 32 << 20

// DefaultListLimit is the page size of GET /api/reviews.
const DefaultListLimit = 50

// Pinger is implemented by stores that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// HandlerConfig carries the optional dependencies of Handler.
type HandlerConfig struct {
	Notifier      review.Notifier
	Defaults      factory.ConfigJSON
	Limiter       *UploadLimiter
	MaxUploadSize int64
	ListLimit     int
	StoreName     string
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    review.RunStore
	Notifier review.Notifier
	Configs  *factory.ConfigFactory
	Limiter  *UploadLimiter

	defaults      factory.ConfigJSON
	maxUploadSize int64
	listLimit     int
	storeName     string
}

// NewHandler creates a handler over store.
func NewHandler(store review.RunStore, cfg HandlerConfig) *Handler {
	h := &Handler{
		Store:         store,
		Notifier:      cfg.Notifier,
		Configs:       factory.NewConfigFactory(),
		Limiter:       cfg.Limiter,
		defaults:      cfg.Defaults,
		maxUploadSize: cfg.MaxUploadSize,
		listLimit:     cfg.ListLimit,
		storeName:     cfg.StoreName,
	}
	if h.Notifier == nil {
		h.Notifier = review.NopNotifier{}
	}
	if h.Limiter == nil {
		h.Limiter = NewUploadLimiter(0, 0)
	}
	if h.maxUploadSize <= 0 {
		h.maxUploadSize = DefaultMaxUploadSize
	}
	if h.listLimit <= 0 {
		h.listLimit = DefaultListLimit
	}
	return h
}

// =============================================================================
// METADATA HANDLERS
// =============================================================================

// Health reports liveness, store reachability and upload slots.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Store: h.storeName, Uploads: h.Limiter.Status()}
	if p, ok := h.Store.(Pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			logging.FromContext(r.Context()).Error("store ping failed", zap.Error(err))
			resp.Status = "degraded"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListPresets returns the named review configurations.
func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, factory.Presets())
}

// ListCategories returns every registered finding category.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, register.ListCategories())
}

// =============================================================================
// REVIEW HANDLERS
// =============================================================================

// CreateReview runs the engine on an uploaded workbook or a JSON batch.
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if err := h.Limiter.Acquire(ctx); err != nil {
		if errors.Is(err, ErrTooManyUploads) {
			w.Header().Set("Retry-After", "5")
			writeError(w, http.StatusTooManyRequests, "Too many concurrent reviews", err)
			return
		}
		writeError(w, http.StatusServiceUnavailable, "Request cancelled", err)
		return
	}
	defer h.Limiter.Release()

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var (
		in     *reviewInput
		status int
		err    error
	)
	switch mediaType {
	case "multipart/form-data":
		in, status, err = h.readUpload(w, r)
	case "application/json":
		in, status, err = h.readJSON(r)
	default:
		writeError(w, http.StatusUnsupportedMediaType, "Expected multipart/form-data or application/json", nil)
		return
	}
	if err != nil {
		writeError(w, status, "Invalid review request", err)
		return
	}

	cfg, err := h.Configs.FromJSON(in.config)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid review configuration", err)
		return
	}

	res, err := review.Run(in.batch, cfg)
	if err != nil {
		if register.IsClientError(err) {
			writeError(w, http.StatusBadRequest, "Review rejected", err)
			return
		}
		logger.Error("review failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Review failed", err)
		return
	}

	run := review.NewStoredRun(in.source, res)
	if err := h.Store.SaveRun(ctx, run); err != nil {
		logger.Error("failed to store review", zap.Error(err), zap.String("run_id", run.ID.String()))
		writeError(w, http.StatusInternalServerError, "Failed to store review", err)
		return
	}
	if err := h.Notifier.ReviewCompleted(ctx, run); err != nil {
		logger.Warn("review notification failed", zap.Error(err), zap.String("run_id", run.ID.String()))
	}

	logger.Info("review completed",
		zap.String("run_id", run.ID.String()),
		zap.String("source", run.Source),
		zap.Int("errors", res.Totals.Errors),
		zap.Int("warnings", res.Totals.Warnings),
		zap.Int("rows", res.Summary.TotalCount),
	)
	writeJSON(w, http.StatusCreated, toReviewDTO(run, in.workbook))
}

// ListReviews returns stored run summaries, newest first.
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	limit := h.listLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", err)
			return
		}
		limit = n
	}

	runs, err := h.Store.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list reviews", err)
		return
	}
	writeJSON(w, http.StatusOK, ReviewListResponse{Reviews: runs})
}

// GetReview returns one stored run.
func (h *Handler) GetReview(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toReviewDTO(run, nil))
}

// ExportReview streams a stored run as an .xlsx report.
func (h *Handler) ExportReview(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	err := export.Write(&buf, run.Result, export.Options{Source: run.Source, GeneratedAt: run.CreatedAt})
	if err != nil {
		logging.FromContext(r.Context()).Error("export failed", zap.Error(err), zap.String("run_id", run.ID.String()))
		writeError(w, http.StatusInternalServerError, "Failed to export review", err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="review-%s.xlsx"`, run.ID))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) loadRun(w http.ResponseWriter, r *http.Request) (*review.StoredRun, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid review ID", err)
		return nil, false
	}
	run, err := h.Store.GetRun(r.Context(), id)
	if err != nil {
		if register.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Review not found", nil)
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to load review", err)
		return nil, false
	}
	return run, true
}

// =============================================================================
// REQUEST DECODING
// =============================================================================

type reviewInput struct {
	source   string
	batch    register.Batch
	config   factory.ConfigJSON
	workbook *ingest.Workbook
}

// readUpload handles multipart form fields "file", "config" and "base_date".
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (*reviewInput, int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, err
		}
		return nil, http.StatusBadRequest, err
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("form field file: %w", err)
	}
	defer file.Close()

	wb, err := ingest.Read(file)
	if err != nil {
		if errors.Is(err, ingest.ErrNoSheets) {
			return nil, http.StatusUnprocessableEntity, err
		}
		return nil, http.StatusBadRequest, err
	}

	doc := h.defaults
	if s := r.FormValue("config"); strings.TrimSpace(s) != "" {
		override, err := factory.Decode([]byte(s))
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		doc = factory.Merge(doc, override)
	}
	if s := r.FormValue("base_date"); s != "" {
		doc.BaseDate = s
	}

	return &reviewInput{source: header.Filename, batch: wb.Batch, config: doc, workbook: wb}, 0, nil
}

// readJSON handles the application/json body.
func (h *Handler) readJSON(r *http.Request) (*reviewInput, int, error) {
	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("decode body: %w", err)
	}

	batch, err := buildBatch(req)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	doc := h.defaults
	if req.Config != nil {
		doc = factory.Merge(doc, *req.Config)
	}
	source := req.Source
	if source == "" {
		source = "json"
	}
	return &reviewInput{source: source, batch: batch, config: doc}, 0, nil
}

func buildBatch(req ReviewRequest) (register.Batch, error) {
	batch := register.Batch{Summary: req.Summary}
	for _, rr := range req.Registers {
		if batch.Register(rr.Role) != nil {
			return batch, fmt.Errorf("%w: more than one %s register", register.ErrRegisterShape, rr.Role)
		}
		records := make([]register.Employee, 0, len(rr.Rows))
		for i, row := range rr.Rows {
			records = append(records, normalize.Record(rr.Role, row, normalize.WithRow(i+1)))
		}
		if err := batch.SetRegister(register.NewRegister(rr.Name, rr.Role, records...)); err != nil {
			return batch, err
		}
	}
	return batch, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
