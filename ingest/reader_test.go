package ingest_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/register-review/ingest"
	"github.com/warp/register-review/register"
)

// =============================================================================
// WORKBOOK BUILDERS
// =============================================================================

type sheetRows struct {
	name string
	rows [][]any
}

func buildWorkbook(t *testing.T, sheets []sheetRows, cells map[string]map[string]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", s.name))
		} else {
			_, err := f.NewSheet(s.name)
			require.NoError(t, err)
		}
		for r, row := range s.rows {
			if row == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(s.name, cell, &row))
		}
	}
	for sheet, values := range cells {
		for cell, v := range values {
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

const summarySheet = "2. 퇴직급여 기초자료"

func fullWorkbook(t *testing.T) *bytes.Buffer {
	return buildWorkbook(t, []sheetRows{
		{name: "재직자 명부", rows: [][]any{
			{"2024년 퇴직급여 재직자 명부"},
			nil,
			{"사원번호", "생년월일", "성별(1:남자, 2:여자)", "입사일자", "기준급여", "당년도 퇴직급여추계액", "참고사항"},
			{"1001", 19800101, 1, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 3000000, 14000000, "note"},
			nil,
			{1002, "850505", 2, "2015-01-01", "2,000,000", "20,000,000"},
			{nil, nil, nil, nil, nil, 34000000},
		}},
		{name: "퇴직자 및 DC전환자 명부", rows: [][]any{
			{"사원번호", "입사일자", "퇴직일 또는 DC전환일", "사유(1: 퇴직, 2: DC전환)"},
			{"1003", "20050101", "20240630", 1},
		}},
		{name: "추가 명부(장기근속)", rows: [][]any{
			{"사원번호", "입사일자", "사유", "사유발생일", "사유발생일 시점 발생금액"},
			{7, "20100101", 5, "20200101", "1,000"},
		}},
		{name: "(2-1) 명부 작성방법", rows: [][]any{{"작성 안내"}}},
		{name: "기타장기 재직자 명부", rows: [][]any{{"사원번호", "생년월일", "입사일자"}}},
		{name: summarySheet},
	}, map[string]map[string]any{
		summarySheet: {
			"I29": 4, "I33": 1, "I39": 36000000,
			"F103": 60, "F104": "YES", "F109": "DB", "I112": "연봉제",
			"E113": 2025, "F113": 0.035,
			"E114": 2026, "F114": "4%",
			"D121": "국공채",
		},
	})
}

// =============================================================================
// TESTS
// =============================================================================

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name string
		want ingest.SheetKind
	}{
		{"재직자 명부", ingest.KindActive},
		{"1. 재직자명부", ingest.KindActive},
		{"퇴직자 및 DC전환자 명부", ingest.KindRetired},
		{"추가 명부(장기근속)", ingest.KindSupplementary},
		{"2. 퇴직급여 기초자료", ingest.KindPlanSummary},
		{"기타장기 재직자 명부", ingest.KindUnknown},
		{"(2-1) 명부 작성방법", ingest.KindUnknown},
		{"재직자 명부 (시스템)", ingest.KindUnknown},
		{"Active Employees", ingest.KindActive},
		{"Plan Summary", ingest.KindPlanSummary},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ingest.DetectKind(tt.name), tt.name)
	}
}

func TestFieldForHeader(t *testing.T) {
	tests := []struct {
		header string
		want   register.Field
	}{
		{"사원번호", register.FieldEmployeeID},
		{" 입사 일자 ", register.FieldHireDate},
		{"성별(1:남자, 2:여자)", register.FieldGender},
		{"사유(1: 퇴직, 2: DC전환)", register.FieldReasonCode},
		{"사유발생일", register.FieldReasonOccurrenceDate},
		{"사유발생일 시점 발생금액", register.FieldReasonOccurrenceAmount},
		{"퇴직일 또는 DC전환일", register.FieldTerminationDate},
		{"휴직기간/연", register.FieldLeaveDeductionYears},
		{"employee_id", register.FieldEmployeeID},
		{"Applicable Multiplier", register.FieldApplicableMultiplier},
	}
	for _, tt := range tests {
		got, ok := ingest.FieldForHeader(tt.header)
		assert.True(t, ok, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}

	_, ok := ingest.FieldForHeader("참고사항")
	assert.False(t, ok)
}

func TestRead_FullWorkbook(t *testing.T) {
	// GIVEN: a workbook with banner rows, legends in headers, a totals row,
	// system sheets and a fixed-form summary
	buf := fullWorkbook(t)

	// WHEN: read
	wb, err := ingest.Read(buf)
	require.NoError(t, err)

	// THEN: every register is found and nothing failed
	assert.Empty(t, wb.Errors)
	assert.NoError(t, wb.Err())
	assert.Equal(t, []string{"(2-1) 명부 작성방법", "기타장기 재직자 명부"}, wb.Skipped)
	require.NoError(t, wb.Batch.CheckShape())

	// AND: the active register starts below the banner
	active := wb.Batch.Active
	require.NotNil(t, active)
	assert.Equal(t, "재직자 명부", active.Name)
	require.Len(t, active.Records, 3, "blank rows are dropped, the totals row is kept without an ID")

	first := active.Records[0]
	assert.Equal(t, "1001", first.ID)
	assert.Equal(t, 4, first.Row)
	assert.Equal(t, register.NewDate(1980, 1, 1), first.BirthDate)
	assert.Equal(t, register.NewDate(2020, 1, 1), first.HireDate, "date serials are converted")
	assert.Equal(t, register.GenderMale, first.Gender)
	assert.Equal(t, "3000000", first.BaseSalary.Decimal.String())
	assert.Equal(t, "14000000", first.CurrentYearEstimate.Decimal.String())

	second := active.Records[1]
	assert.Equal(t, "1002", second.ID)
	assert.Equal(t, 6, second.Row)
	assert.Equal(t, register.NewDate(1985, 5, 5), second.BirthDate)
	assert.Equal(t, register.NewDate(2015, 1, 1), second.HireDate)
	assert.Equal(t, "2000000", second.BaseSalary.Decimal.String())

	assert.False(t, active.Records[2].HasID())

	// AND: sheet info reports the header and unmapped columns
	require.Len(t, wb.Sheets, 4)
	info := wb.Sheets[0]
	assert.Equal(t, 3, info.HeaderRow)
	assert.Equal(t, 3, info.Rows)
	assert.Equal(t, 2, info.Records)
	assert.Equal(t, []string{"참고사항"}, info.Unmapped)
	assert.Equal(t, "성별(1:남자, 2:여자)", info.Columns[register.FieldGender])

	// AND: retired and supplementary registers
	retired := wb.Batch.Retired
	require.NotNil(t, retired)
	require.Len(t, retired.Records, 1)
	assert.Equal(t, register.NewDate(2024, 6, 30), retired.Records[0].TerminationDate)
	assert.Equal(t, register.RetiredReasonRetirement, retired.Records[0].Reason)

	supp := wb.Batch.Supplementary
	require.NotNil(t, supp)
	require.Len(t, supp.Records, 1)
	assert.Equal(t, "0007", supp.Records[0].ID)
	assert.Equal(t, register.SupplementaryLongTerm, supp.Records[0].Reason)
	assert.Equal(t, register.NewDate(2020, 1, 1), supp.Records[0].ReasonOccurrenceDate)
	assert.Equal(t, "1000", supp.Records[0].ReasonOccurrenceAmount.Decimal.String())

	// AND: the plan summary cells
	sum := wb.Batch.Summary
	require.NotNil(t, sum)
	assert.Equal(t, summarySheet, sum.Name)
	require.NotNil(t, sum.ActiveHeadcount)
	assert.Equal(t, 4, *sum.ActiveHeadcount)
	require.NotNil(t, sum.RetiredHeadcount)
	assert.Equal(t, 1, *sum.RetiredHeadcount)
	assert.Equal(t, "36000000", sum.EstimateTotal.Decimal.String())
	require.NotNil(t, sum.RetirementAge)
	assert.Equal(t, 60, *sum.RetirementAge)
	require.NotNil(t, sum.WagePeak)
	assert.True(t, *sum.WagePeak)
	assert.Equal(t, "DB", sum.PlanKind)
	assert.Equal(t, "연봉제", sum.PayScheme)
	assert.Equal(t, "국공채", sum.DiscountRateBasis)
	require.Len(t, sum.WageGrowthRates, 2)
	assert.Equal(t, "2025", sum.WageGrowthRates[0].Year)
	assert.Equal(t, "3.5", sum.WageGrowthRates[0].Rate.String())
	assert.Equal(t, "4", sum.WageGrowthRates[1].Rate.String())
}

func TestRead_SheetErrorsDoNotStopOtherSheets(t *testing.T) {
	// GIVEN: an active sheet without a recognizable header, a usable
	// retired sheet and a second retired sheet
	buf := buildWorkbook(t, []sheetRows{
		{name: "재직자 명부", rows: [][]any{{"이름", "부서"}, {"홍길동", "인사"}}},
		{name: "퇴직자 명부", rows: [][]any{{"사원번호", "입사일자", "퇴직일", "사유"}, {"1", "20000101", "20200101", 1}}},
		{name: "DC전환자 명부", rows: [][]any{{"사원번호", "입사일자", "DC전환일", "사유"}}},
	}, nil)

	// WHEN: read
	wb, err := ingest.Read(buf)
	require.NoError(t, err)

	// THEN: the broken sheets are reported, the good one is loaded
	require.Len(t, wb.Errors, 2)
	assert.Equal(t, "재직자 명부", wb.Errors[0].Sheet)
	assert.ErrorIs(t, wb.Errors[0], ingest.ErrHeaderNotFound)
	assert.Equal(t, "DC전환자 명부", wb.Errors[1].Sheet)
	assert.ErrorIs(t, wb.Err(), ingest.ErrDuplicateSheet)
	assert.Contains(t, wb.Errors[0].Error(), `sheet "재직자 명부"`)

	assert.Nil(t, wb.Batch.Active)
	require.NotNil(t, wb.Batch.Retired)
	assert.Len(t, wb.Batch.Retired.Records, 1)
}

func TestRead_HeaderWithoutIDColumn(t *testing.T) {
	buf := buildWorkbook(t, []sheetRows{
		{name: "재직자 명부", rows: [][]any{{"생년월일", "입사일자", "성별"}, {"19800101", "20200101", 1}}},
	}, nil)

	wb, err := ingest.Read(buf)
	assert.ErrorIs(t, err, ingest.ErrNoSheets)
	require.Len(t, wb.Errors, 1)
	assert.ErrorIs(t, wb.Errors[0], ingest.ErrNoIDColumn)
}

func TestRead_NoUsableSheets(t *testing.T) {
	buf := buildWorkbook(t, []sheetRows{{name: "Notes", rows: [][]any{{"hello"}}}}, nil)

	wb, err := ingest.Read(buf)
	require.Error(t, err)
	assert.ErrorIs(t, err, ingest.ErrNoSheets)
	assert.Equal(t, []string{"Notes"}, wb.Skipped)
}

func TestRead_NotAWorkbook(t *testing.T) {
	_, err := ingest.Read(strings.NewReader("plain text"))
	assert.Error(t, err)
}

func TestRead_HeaderScanLimit(t *testing.T) {
	rows := make([][]any, 0, 12)
	for i := 0; i < 10; i++ {
		rows = append(rows, []any{"banner"})
	}
	rows = append(rows, []any{"사원번호", "생년월일", "입사일자"}, []any{"1", "19800101", "20200101"})
	sheets := []sheetRows{{name: "재직자 명부", rows: rows}}

	_, err := ingest.Read(buildWorkbook(t, sheets, nil), ingest.WithHeaderScanRows(5))
	assert.ErrorIs(t, err, ingest.ErrNoSheets)

	wb, err := ingest.Read(buildWorkbook(t, sheets, nil))
	require.NoError(t, err)
	assert.Equal(t, 11, wb.Sheets[0].HeaderRow)
}
