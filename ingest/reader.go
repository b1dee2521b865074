/*
Package ingest reads register workbooks into a register.Batch.

PURPOSE:
  Registers arrive as .xlsx workbooks laid out for people: banner rows above
  the header, legends inside header text, system and instruction sheets next
  to the data. This package finds the data and hands the engine canonical
  records; the engine never sees a spreadsheet.

FLOW (per sheet):
  1. Classify the sheet by name (sheets.go); unknown sheets are skipped
  2. Plan summary: read fixed cells (summary.go)
  3. Registers: find the header row, map columns to fields (columns.go)
  4. Normalize each non-blank row with normalize.Record

ERRORS:
  A broken sheet becomes a SheetError and the other sheets still load.
  Read fails only when the workbook cannot be opened or no sheet is usable.

SEE ALSO:
  - normalize/record.go: cell value normalization
  - export/report.go: the reverse direction, results to a workbook
*/
package ingest

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/warp/register-review/normalize"
	"github.com/warp/register-review/register"
)

var (
	ErrNoSheets        = errors.New("no register or plan summary sheet found")
	ErrHeaderNotFound  = errors.New("header row not found")
	ErrNoIDColumn      = errors.New("no employee ID column")
	ErrDuplicateSheet  = errors.New("another sheet already supplies this register")
	ErrUnreadableSheet = errors.New("sheet could not be read")
)

// SheetError is a problem confined to one sheet.
type SheetError struct {
	Sheet string `json:"sheet"`
	Err   error  `json:"-"`
}

func (e *SheetError) Error() string {
	return fmt.Sprintf("sheet %q: %v", e.Sheet, e.Err)
}

func (e *SheetError) Unwrap() error { return e.Err }

// SheetInfo describes a loaded sheet.
type SheetInfo struct {
	Name      string                    `json:"name"`
	Kind      SheetKind                 `json:"kind"`
	HeaderRow int                       `json:"header_row,omitempty"` // 1-based
	Rows      int                       `json:"rows"`
	Records   int                       `json:"records"` // rows with an employee ID
	Columns   map[register.Field]string `json:"columns,omitempty"`
	Unmapped  []string                  `json:"unmapped,omitempty"`
}

// Workbook is everything read from one file.
type Workbook struct {
	Batch   register.Batch
	Sheets  []SheetInfo
	Skipped []string
	Errors  []*SheetError
}

// Err joins the sheet errors, nil when there are none.
func (w *Workbook) Err() error {
	errs := make([]error, len(w.Errors))
	for i, e := range w.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

type options struct {
	headerScanRows int
}

// Option customizes reading.
type Option func(*options)

// WithHeaderScanRows bounds the header search (0 scans the whole sheet).
func WithHeaderScanRows(n int) Option {
	return func(o *options) { o.headerScanRows = n }
}

// Read loads a workbook from r.
func Read(r io.Reader, opts ...Option) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return ReadWorkbook(f, opts...)
}

// ReadFile loads a workbook from disk.
func ReadFile(path string, opts ...Option) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()
	return ReadWorkbook(f, opts...)
}

// ReadWorkbook loads an already opened workbook. The first sheet of each
// kind wins; later ones are reported as ErrDuplicateSheet.
func ReadWorkbook(f *excelize.File, opts ...Option) (*Workbook, error) {
	o := options{headerScanRows: DefaultHeaderScanRows}
	for _, opt := range opts {
		opt(&o)
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	wb := &Workbook{}
	fail := func(sheet string, err error) {
		wb.Errors = append(wb.Errors, &SheetError{Sheet: sheet, Err: err})
	}

	for _, name := range f.GetSheetList() {
		kind := DetectKind(name)
		switch kind {
		case KindUnknown:
			wb.Skipped = append(wb.Skipped, name)

		case KindPlanSummary:
			if wb.Batch.Summary != nil {
				fail(name, ErrDuplicateSheet)
				continue
			}
			p, err := readPlanSummary(f, name)
			if err != nil {
				fail(name, fmt.Errorf("%w: %w", ErrUnreadableSheet, err))
				continue
			}
			wb.Batch.Summary = p
			wb.Sheets = append(wb.Sheets, SheetInfo{Name: name, Kind: kind})

		default:
			if wb.Batch.Register(kind.Role()) != nil {
				fail(name, ErrDuplicateSheet)
				continue
			}
			reg, info, err := readRegister(f, name, kind.Role(), o, date1904)
			if err != nil {
				fail(name, err)
				continue
			}
			if err := wb.Batch.SetRegister(reg); err != nil {
				fail(name, err)
				continue
			}
			wb.Sheets = append(wb.Sheets, info)
		}
	}

	if len(wb.Sheets) == 0 {
		return wb, fmt.Errorf("%w (sheets: %s)", ErrNoSheets, strings.Join(f.GetSheetList(), ", "))
	}
	return wb, nil
}

func readRegister(f *excelize.File, sheet string, role register.Role, o options, date1904 bool) (*register.Register, SheetInfo, error) {
	info := SheetInfo{Name: sheet, Kind: SheetKind(role)}

	rows, err := f.GetRows(sheet, rawValue)
	if err != nil {
		return nil, info, fmt.Errorf("%w: %w", ErrUnreadableSheet, err)
	}
	hdr := findHeader(rows, role, o.headerScanRows)
	if hdr < 0 {
		return nil, info, ErrHeaderNotFound
	}
	cm := mapColumns(rows[hdr])
	if _, ok := cm.headers[register.FieldEmployeeID]; !ok {
		return nil, info, ErrNoIDColumn
	}
	info.HeaderRow = hdr + 1
	info.Columns = cm.headers
	info.Unmapped = cm.unmapped

	reg := register.NewRegister(sheet, role)
	for i := hdr + 1; i < len(rows); i++ {
		raw := make(map[register.Field]any, len(cm.byColumn))
		for col, field := range cm.byColumn {
			if col >= len(rows[i]) {
				continue
			}
			if v := strings.TrimSpace(rows[i][col]); v != "" {
				raw[field] = cellValue(field, v, date1904)
			}
		}
		if len(raw) == 0 {
			continue
		}
		rec := normalize.Record(role, raw, normalize.WithRow(i+1))
		reg.Records = append(reg.Records, rec)
		info.Rows++
		if rec.HasID() {
			info.Records++
		}
	}
	return reg, info, nil
}

var dateFields = func() map[register.Field]bool {
	m := make(map[register.Field]bool, len(register.DateFields))
	for _, f := range register.DateFields {
		m[f] = true
	}
	return m
}()

// maxSerialDigits separates Excel date serials (up to 99999, year 2173)
// from YYMMDD and YYYYMMDD numbers.
const maxSerialDigits = 5

// cellValue converts date cells stored as Excel serials into times. Every
// other value stays as text for normalize.
func cellValue(field register.Field, v string, date1904 bool) any {
	if !dateFields[field] {
		return v
	}
	whole, _, _ := strings.Cut(v, ".")
	if whole == "" || len(whole) > maxSerialDigits || strings.HasPrefix(whole, "0") {
		return v
	}
	serial, err := strconv.ParseFloat(v, 64)
	if err != nil || serial <= 0 {
		return v
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return v
	}
	return t
}
