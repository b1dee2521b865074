package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/register-review/api"
	"github.com/warp/register-review/export"
	"github.com/warp/register-review/factory"
	"github.com/warp/register-review/register"
	"github.com/warp/register-review/review"
	memstore "github.com/warp/register-review/review/store"
)

// =============================================================================
// FIXTURES
// =============================================================================

type recordingNotifier struct {
	mu   sync.Mutex
	runs []uuid.UUID
}

func (n *recordingNotifier) ReviewCompleted(_ context.Context, run *review.StoredRun) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.runs = append(n.runs, run.ID)
	return nil
}

type testServer struct {
	router   http.Handler
	store    *memstore.Memory
	notifier *recordingNotifier
	limiter  *api.UploadLimiter
}

func newServer(t *testing.T, defaults factory.ConfigJSON) *testServer {
	t.Helper()
	ts := &testServer{
		store:    memstore.NewMemory(),
		notifier: &recordingNotifier{},
		limiter:  api.NewUploadLimiter(1, 20*time.Millisecond),
	}
	h := api.NewHandler(ts.store, api.HandlerConfig{
		Notifier:  ts.notifier,
		Defaults:  defaults,
		Limiter:   ts.limiter,
		StoreName: "memory",
	})
	ts.router = api.NewRouter(h, api.RouterOptions{})
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func activeWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "재직자 명부"))
	rows := [][]any{
		{"사원번호", "생년월일", "입사일자", "기준급여", "당년도 퇴직급여추계액"},
		{"1001", "19800101", "20200101", 3000000, 15000000},
		{"1002", "19850505", "20150101", 2000000, 20000000},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("재직자 명부", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func uploadRequest(t *testing.T, filename string, body []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/reviews", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/reviews", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func sampleJSONReview() api.ReviewRequest {
	return api.ReviewRequest{
		Config: &factory.ConfigJSON{BaseDate: "2024-12-31"},
		Registers: []api.RegisterRequest{{
			Name: "active",
			Role: register.RoleActive,
			Rows: []map[register.Field]any{{
				register.FieldEmployeeID:          "1001",
				register.FieldBirthDate:           "19800101",
				register.FieldHireDate:            "20200101",
				register.FieldBaseSalary:          "3,000,000",
				register.FieldEmployeeType:        "1",
				register.FieldCurrentYearEstimate: "15,000,000",
			}},
		}},
	}
}

// =============================================================================
// TESTS
// =============================================================================

func TestCreateReview_Upload(t *testing.T) {
	// GIVEN: a server whose defaults come from a preset
	defaults, _ := factory.LookupPreset("statutory_flat")
	ts := newServer(t, defaults)

	// WHEN: a workbook is uploaded with a base date
	rec := ts.do(uploadRequest(t, "book.xlsx", activeWorkbook(t), map[string]string{"base_date": "2024-12-31"}))

	// THEN: the run is created, stored and announced
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	dto := decode[api.ReviewDTO](t, rec)
	assert.Equal(t, "book.xlsx", dto.Source)
	require.NotNil(t, dto.Workbook)
	require.Len(t, dto.Workbook.Sheets, 1)
	assert.Equal(t, "재직자 명부", dto.Workbook.Sheets[0].Name)
	assert.Empty(t, dto.Workbook.Errors)

	require.NotNil(t, dto.Result)
	assert.Equal(t, register.NewDate(2024, 12, 31), dto.Result.BaseDate)
	assert.Len(t, dto.Result.Reconciliation, 2)
	assert.False(t, dto.Result.ActiveMissing)

	stored, err := ts.store.GetRun(context.Background(), dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "book.xlsx", stored.Source)
	assert.Equal(t, []uuid.UUID{dto.ID}, ts.notifier.runs)
}

func TestCreateReview_UploadConfigOverride(t *testing.T) {
	ts := newServer(t, factory.ConfigJSON{BaseDate: "2024-12-31"})

	rec := ts.do(uploadRequest(t, "book.xlsx", activeWorkbook(t), map[string]string{
		"config": "day_count: month_round_down\n",
	}))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	dto := decode[api.ReviewDTO](t, rec)
	assert.Equal(t, "month_round_down", string(dto.Result.DayCount))
	assert.Equal(t, register.NewDate(2024, 12, 31), dto.Result.BaseDate)
}

func TestCreateReview_JSON(t *testing.T) {
	ts := newServer(t, factory.ConfigJSON{})

	rec := ts.do(jsonRequest(t, sampleJSONReview()))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	dto := decode[api.ReviewDTO](t, rec)
	assert.Equal(t, "json", dto.Source)
	assert.Nil(t, dto.Workbook)
	require.Len(t, dto.Result.Reconciliation, 1)
	assert.Equal(t, "1001", dto.Result.Reconciliation[0].EmployeeID)
	assert.Equal(t, 1, dto.Result.Reconciliation[0].SourceRow)
}

func TestCreateReview_Errors(t *testing.T) {
	noBaseDate := sampleJSONReview()
	noBaseDate.Config = nil

	badRole := sampleJSONReview()
	badRole.Registers[0].Role = "pensioners"

	twice := sampleJSONReview()
	twice.Registers = append(twice.Registers, twice.Registers[0])

	badPolicy := sampleJSONReview()
	badPolicy.Config.Policy = &factory.PolicyJSON{Type: "lottery"}

	tests := []struct {
		name string
		req  func(t *testing.T) *http.Request
		want int
	}{
		{"missing base date", func(t *testing.T) *http.Request { return jsonRequest(t, noBaseDate) }, http.StatusBadRequest},
		{"unknown role", func(t *testing.T) *http.Request { return jsonRequest(t, badRole) }, http.StatusBadRequest},
		{"duplicate role", func(t *testing.T) *http.Request { return jsonRequest(t, twice) }, http.StatusBadRequest},
		{"unknown policy", func(t *testing.T) *http.Request { return jsonRequest(t, badPolicy) }, http.StatusBadRequest},
		{"malformed json", func(t *testing.T) *http.Request {
			req := httptest.NewRequest(http.MethodPost, "/api/reviews", strings.NewReader("{"))
			req.Header.Set("Content-Type", "application/json")
			return req
		}, http.StatusBadRequest},
		{"unsupported media type", func(t *testing.T) *http.Request {
			req := httptest.NewRequest(http.MethodPost, "/api/reviews", strings.NewReader("a,b"))
			req.Header.Set("Content-Type", "text/csv")
			return req
		}, http.StatusUnsupportedMediaType},
		{"not a workbook", func(t *testing.T) *http.Request {
			return uploadRequest(t, "book.xlsx", []byte("plain text"), nil)
		}, http.StatusBadRequest},
		{"no register sheet", func(t *testing.T) *http.Request {
			f := excelize.NewFile()
			defer f.Close()
			buf, err := f.WriteToBuffer()
			require.NoError(t, err)
			return uploadRequest(t, "empty.xlsx", buf.Bytes(), nil)
		}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newServer(t, factory.ConfigJSON{})
			rec := ts.do(tt.req(t))
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			body := decode[api.ErrorResponse](t, rec)
			assert.NotEmpty(t, body.Error)
			assert.Empty(t, ts.notifier.runs)
		})
	}
}

func TestCreateReview_TooManyUploads(t *testing.T) {
	// GIVEN: the only upload slot is taken
	ts := newServer(t, factory.ConfigJSON{})
	require.True(t, ts.limiter.TryAcquire())
	defer ts.limiter.Release()

	// WHEN: another review arrives
	rec := ts.do(jsonRequest(t, sampleJSONReview()))

	// THEN: it is turned away
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
}

func TestListGetAndExport(t *testing.T) {
	ts := newServer(t, factory.ConfigJSON{})
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		rec := ts.do(jsonRequest(t, sampleJSONReview()))
		require.Equal(t, http.StatusCreated, rec.Code)
		ids = append(ids, decode[api.ReviewDTO](t, rec).ID)
	}

	// List, limited
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/reviews?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[api.ReviewListResponse](t, rec)
	assert.Len(t, list.Reviews, 2)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/reviews?limit=zero", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Get
	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/reviews/"+ids[0].String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[api.ReviewDTO](t, rec)
	assert.Equal(t, ids[0], got.ID)
	assert.Len(t, got.Result.Reconciliation, 1)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/reviews/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/reviews/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Export
	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/reviews/"+ids[1].String()+"/export", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ids[1].String())
	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), export.SheetReconciliation)
}

func TestMetadataEndpoints(t *testing.T) {
	ts := newServer(t, factory.ConfigJSON{})

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[api.HealthResponse](t, rec)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "memory", health.Store)
	assert.Equal(t, 1, health.Uploads.MaxConcurrent)
	assert.Equal(t, 1, health.Uploads.Available)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/presets", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	presets := decode[[]factory.Preset](t, rec)
	assert.Len(t, presets, len(factory.Presets()))

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	cats := decode[[]register.Category](t, rec)
	assert.Equal(t, register.ListCategories(), cats)
	assert.NotEmpty(t, cats)
}
