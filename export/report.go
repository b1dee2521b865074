/*
Package export renders a review.Result as an .xlsx report.

SHEETS:
  Summary         run parameters, per-sheet statistics, reconciliation
                  summary, summary lines
  Findings - <S>  one per source sheet with findings; errors red, warnings
                  amber
  Deviations      top deviations, then the high / mid / match bands
  Reconciliation  every reconciliation row

SEE ALSO:
  - ingest/reader.go: the reverse direction
  - api/handlers.go: GET /api/reviews/{id}/export
*/
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/warp/register-review/estimate"
	"github.com/warp/register-review/register"
	"github.com/warp/register-review/review"
)

const (
	SheetSummary        = "Summary"
	SheetDeviations     = "Deviations"
	SheetReconciliation = "Reconciliation"
	findingsPrefix      = "Findings - "

	// TopDeviations is how many rows the deviation report ranks first.
	TopDeviations = 5

	maxSheetName = 31
)

// Options describe the run being exported.
type Options struct {
	Source      string
	GeneratedAt time.Time
}

// ContentType is the MIME type of the report.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Write renders res into w.
func Write(w io.Writer, res *review.Result, opts Options) error {
	f, err := Workbook(res, opts)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Workbook renders res into a new workbook. The caller closes it.
func Workbook(res *review.Result, opts Options) (*excelize.File, error) {
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}
	f := excelize.NewFile()
	r := &renderer{f: f, res: res, opts: opts, names: make(map[string]bool)}
	if err := r.render(); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

type styles struct {
	title, header, errorRow, warnRow, money, rate, years int
}

type renderer struct {
	f     *excelize.File
	res   *review.Result
	opts  Options
	st    styles
	names map[string]bool
}

func (r *renderer) render() error {
	if err := r.f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	for _, n := range []string{SheetSummary, SheetDeviations, SheetReconciliation} {
		r.names[n] = true
	}
	if err := r.newStyles(); err != nil {
		return fmt.Errorf("styles: %w", err)
	}

	steps := []func() error{r.summary, r.findings, r.deviations, r.reconciliation}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	r.f.SetActiveSheet(0)
	return nil
}

func (r *renderer) newStyles() error {
	var err error
	mk := func(s *excelize.Style) int {
		if err != nil {
			return 0
		}
		var id int
		id, err = r.f.NewStyle(s)
		return id
	}
	fill := func(color string) excelize.Fill {
		return excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
	}
	r.st = styles{
		title:    mk(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}),
		header:   mk(&excelize.Style{Font: &excelize.Font{Bold: true}, Fill: fill("#DDEBF7")}),
		errorRow: mk(&excelize.Style{Fill: fill("#F8CBAD")}),
		warnRow:  mk(&excelize.Style{Fill: fill("#FFE699")}),
		money:    mk(&excelize.Style{NumFmt: 3}), // #,##0
		rate:     mk(&excelize.Style{NumFmt: 4}), // #,##0.00
		years:    mk(&excelize.Style{CustomNumFmt: strPtr("0.0000")}),
	}
	return err
}

func strPtr(s string) *string { return &s }

// =============================================================================
// SHEET WRITERS
// =============================================================================

func (r *renderer) summary() error {
	s := SheetSummary
	res := r.res
	w := &sheetWriter{f: r.f, sheet: s, row: 1}

	w.put(r.st.title, "Register review report")
	w.skip()
	w.put(0, "Source", r.opts.Source)
	w.put(0, "Generated at", r.opts.GeneratedAt.Format(time.DateTime))
	w.put(0, "Base date", res.BaseDate.String())
	w.put(0, "Day count", string(res.DayCount))
	w.put(0, "Policy", string(res.Policy))
	w.skip()

	w.put(r.st.header, "Sheet", "Records", "Valid", "Invalid", "Errors", "Warnings")
	for _, st := range res.Sheets {
		w.put(0, st.Sheet, st.Total, st.Valid, st.Invalid, st.Errors, st.Warnings)
	}
	t := res.Totals
	w.put(r.st.header, "Total", t.Records, t.Valid, t.Invalid, t.Errors, t.Warnings)
	w.skip()

	sum := res.Summary
	w.put(r.st.header, "Reconciliation", "")
	if res.ActiveMissing {
		w.put(0, "Active register", "missing")
	}
	w.put(0, "Rows", sum.TotalCount)
	w.put(0, "Deviation >= 5%", sum.HighDeviationCount)
	w.put(0, "Match rate %", sum.MatchRatePct.InexactFloat64())
	w.put(0, "Not comparable", sum.NonComparableCount)
	for _, b := range estimate.Bands {
		w.put(0, "Band "+string(b), sum.BandCounts[b])
	}

	if len(res.SummaryLines) > 0 {
		w.skip()
		w.put(r.st.header, "Findings summary")
		for _, line := range res.SummaryLines {
			w.put(0, line)
		}
	}
	if w.err != nil {
		return w.err
	}
	return r.f.SetColWidth(s, "A", "A", 40)
}

func (r *renderer) findings() error {
	for _, sf := range r.res.Grouped {
		name := r.sheetName(findingsPrefix + sf.Sheet)
		if _, err := r.f.NewSheet(name); err != nil {
			return fmt.Errorf("sheet %q: %w", name, err)
		}
		w := &sheetWriter{f: r.f, sheet: name, row: 1}
		w.put(r.st.header, "Category", "Label", "Severity", "Employee ID", "Row", "Field", "Detail")
		for _, c := range sf.Categories {
			style := r.st.warnRow
			if c.Severity == register.SeverityError {
				style = r.st.errorRow
			}
			for _, it := range c.Items {
				w.put(style, c.Category, c.Label, string(c.Severity), it.EmployeeID, blankZero(it.Row), string(it.Field), it.Detail)
			}
		}
		if w.err != nil {
			return w.err
		}
		if err := r.f.SetColWidth(name, "G", "G", 80); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) deviations() error {
	s := SheetDeviations
	if _, err := r.f.NewSheet(s); err != nil {
		return err
	}
	w := &sheetWriter{f: r.f, sheet: s, row: 1}
	header := []any{"Employee ID", "Computed", "Reported", "Error %"}
	line := func(row estimate.Row) {
		w.put(0, row.EmployeeID, row.ComputedEstimate.InexactFloat64(), row.ReportedEstimate.InexactFloat64(), rateCell(row))
		w.styleRange(2, 3, r.st.money)
		w.styleRange(4, 4, r.st.rate)
	}

	top := comparableRows(r.res.Reconciliation)
	sort.SliceStable(top, func(i, j int) bool { return top[i].ErrorRatePct.GreaterThan(top[j].ErrorRatePct) })
	if len(top) > TopDeviations {
		top = top[:TopDeviations]
	}
	w.put(r.st.title, fmt.Sprintf("Top %d deviations", TopDeviations))
	w.put(r.st.header, header...)
	for _, row := range top {
		line(row)
	}

	labels := map[estimate.Band]string{
		estimate.BandHigh:  "Error rate >= 10%",
		estimate.BandMid:   "Error rate 5% to < 10%",
		estimate.BandMatch: "Error rate < 5%",
	}
	for _, b := range estimate.Bands {
		rows := r.res.BandGroups[b]
		w.skip()
		w.put(r.st.title, fmt.Sprintf("%s (%d)", labels[b], len(rows)))
		w.put(r.st.header, header...)
		for _, row := range rows {
			line(row)
		}
	}
	if w.err != nil {
		return w.err
	}
	return r.f.SetColWidth(s, "A", "D", 18)
}

func (r *renderer) reconciliation() error {
	s := SheetReconciliation
	if _, err := r.f.NewSheet(s); err != nil {
		return err
	}
	w := &sheetWriter{f: r.f, sheet: s, row: 1}
	w.put(r.st.header, "Employee ID", "Row", "Service years", "Leave years", "Base salary",
		"Multiplier", "Computed", "Reported", "Error %", "Comparable", "Band")
	for _, row := range r.res.Reconciliation {
		w.put(0,
			row.EmployeeID, blankZero(row.SourceRow),
			row.ComputedServiceYears.InexactFloat64(), row.LeaveDeductionYears.InexactFloat64(),
			row.BaseSalary.InexactFloat64(), row.AppliedMultiplier.InexactFloat64(),
			row.ComputedEstimate.InexactFloat64(), row.ReportedEstimate.InexactFloat64(),
			rateCell(row), row.Comparable, string(row.Band),
		)
		w.styleRange(3, 4, r.st.years)
		w.styleRange(5, 5, r.st.money)
		w.styleRange(7, 8, r.st.money)
		w.styleRange(9, 9, r.st.rate)
	}
	if w.err != nil {
		return w.err
	}
	return r.f.SetColWidth(s, "A", "K", 14)
}

// =============================================================================
// HELPERS
// =============================================================================

// sheetWriter appends rows and keeps the first error.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
	err   error
}

func (w *sheetWriter) put(style int, values ...any) {
	if w.err != nil {
		return
	}
	start, _ := excelize.CoordinatesToCellName(1, w.row)
	if err := w.f.SetSheetRow(w.sheet, start, &values); err != nil {
		w.err = fmt.Errorf("sheet %q row %d: %w", w.sheet, w.row, err)
		return
	}
	if style != 0 && len(values) > 0 {
		end, _ := excelize.CoordinatesToCellName(len(values), w.row)
		if err := w.f.SetCellStyle(w.sheet, start, end, style); err != nil {
			w.err = err
			return
		}
	}
	w.row++
}

// styleRange styles columns [from, to] of the row just written.
func (w *sheetWriter) styleRange(from, to, style int) {
	if w.err != nil || style == 0 {
		return
	}
	start, _ := excelize.CoordinatesToCellName(from, w.row-1)
	end, _ := excelize.CoordinatesToCellName(to, w.row-1)
	w.err = w.f.SetCellStyle(w.sheet, start, end, style)
}

func (w *sheetWriter) skip() { w.row++ }

// sheetName makes a valid, unique sheet name.
func (r *renderer) sheetName(name string) string {
	name = strings.Map(func(c rune) rune {
		if strings.ContainsRune(`:\/?*[]`, c) {
			return '_'
		}
		return c
	}, name)
	base := truncateRunes(name, maxSheetName)
	candidate := base
	for n := 2; r.names[candidate]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = truncateRunes(base, maxSheetName-len(suffix)) + suffix
	}
	r.names[candidate] = true
	return candidate
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func comparableRows(rows []estimate.Row) []estimate.Row {
	out := make([]estimate.Row, 0, len(rows))
	for _, row := range rows {
		if row.Comparable {
			out = append(out, row)
		}
	}
	return out
}

func rateCell(row estimate.Row) any {
	if !row.Comparable {
		return "-"
	}
	return row.ErrorRatePct.InexactFloat64()
}

func blankZero(n int) any {
	if n == 0 {
		return ""
	}
	return n
}
