package review

import (
	"fmt"
	"strings"

	"github.com/warp/register-review/estimate"
	"github.com/warp/register-review/register"
	"github.com/warp/register-review/validate"
)

// =============================================================================
// GROUPED FINDINGS - sheet -> category -> items, in encounter order
// =============================================================================

// Item is one finding inside its sheet and category group.
type Item struct {
	EmployeeID string         `json:"employee_id,omitempty"`
	Row        int            `json:"row,omitempty"`
	Field      register.Field `json:"field,omitempty"`
	Detail     string         `json:"detail"`
}

type CategoryFindings struct {
	Category string            `json:"category"`
	Label    string            `json:"label"`
	Severity register.Severity `json:"severity"`
	Items    []Item            `json:"items"`
}

type SheetFindings struct {
	Sheet      string             `json:"sheet"`
	Categories []CategoryFindings `json:"categories"`
}

// Count returns the number of findings in the sheet.
func (s SheetFindings) Count() int {
	n := 0
	for _, c := range s.Categories {
		n += len(c.Items)
	}
	return n
}

// Group arranges findings by sheet, then category. Sheets and categories
// appear in order of their first finding; items keep encounter order.
func Group(findings []register.Finding) []SheetFindings {
	var sheets []SheetFindings
	sheetIdx := make(map[string]int)
	catIdx := make(map[string]map[string]int)

	for _, f := range findings {
		si, ok := sheetIdx[f.Sheet]
		if !ok {
			si = len(sheets)
			sheetIdx[f.Sheet] = si
			catIdx[f.Sheet] = make(map[string]int)
			sheets = append(sheets, SheetFindings{Sheet: f.Sheet})
		}
		ci, ok := catIdx[f.Sheet][f.Category]
		if !ok {
			ci = len(sheets[si].Categories)
			catIdx[f.Sheet][f.Category] = ci
			label := f.Category
			if c, found := register.LookupCategory(f.Category); found {
				label = c.Label
			}
			sheets[si].Categories = append(sheets[si].Categories, CategoryFindings{
				Category: f.Category, Label: label, Severity: f.Severity,
			})
		}
		cat := &sheets[si].Categories[ci]
		cat.Items = append(cat.Items, Item{EmployeeID: f.EmployeeID, Row: f.Row, Field: f.Field, Detail: f.Detail})
	}
	return sheets
}

// GroupedMap renders grouped findings as sheet -> category -> items.
func GroupedMap(grouped []SheetFindings) map[string]map[string][]Item {
	out := make(map[string]map[string][]Item, len(grouped))
	for _, s := range grouped {
		cats := make(map[string][]Item, len(s.Categories))
		for _, c := range s.Categories {
			cats[c.Category] = c.Items
		}
		out[s.Sheet] = cats
	}
	return out
}

// =============================================================================
// TOTALS AND SUMMARY LINES
// =============================================================================

// Totals adds up the per-sheet statistics.
type Totals struct {
	Records  int `json:"records"`
	Valid    int `json:"valid"`
	Invalid  int `json:"invalid"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

// maxSummaryDetails is how many distinct details a summary line lists.
const maxSummaryDetails = 3

// Aggregate combines validator output and reconciliation rows.
func Aggregate(v *validate.Result, rows []estimate.Row) *Result {
	if rows == nil {
		rows = []estimate.Row{}
	}
	res := &Result{
		Findings:       v.Findings,
		Grouped:        Group(v.Findings),
		Sheets:         v.Sheets,
		Reconciliation: rows,
		Summary:        estimate.Summarize(rows),
		BandGroups:     estimate.GroupByBand(rows),
	}
	for _, s := range v.Sheets {
		res.Totals.Records += s.Total
		res.Totals.Valid += s.Valid
		res.Totals.Invalid += s.Invalid
	}
	for _, f := range v.Findings {
		if f.IsError() {
			res.Totals.Errors++
		} else {
			res.Totals.Warnings++
		}
	}
	res.SummaryLines = SummaryLines(res.Grouped)
	return res
}

// SummaryLines writes one line per sheet with findings: counts, then up to
// three distinct details (errors first), then how many were left out.
func SummaryLines(grouped []SheetFindings) []string {
	lines := make([]string, 0, len(grouped))
	for _, s := range grouped {
		var errs, warns int
		var errDetails, warnDetails []string
		seen := make(map[string]struct{})
		for _, c := range s.Categories {
			for _, it := range c.Items {
				if c.Severity == register.SeverityError {
					errs++
				} else {
					warns++
				}
				if _, dup := seen[it.Detail]; dup {
					continue
				}
				seen[it.Detail] = struct{}{}
				if c.Severity == register.SeverityError {
					errDetails = append(errDetails, it.Detail)
				} else {
					warnDetails = append(warnDetails, it.Detail)
				}
			}
		}

		details := append(errDetails, warnDetails...)
		line := fmt.Sprintf("%s: %s, %s", s.Sheet, plural(errs, "error"), plural(warns, "warning"))
		if len(details) > 0 {
			shown := details
			if len(shown) > maxSummaryDetails {
				shown = shown[:maxSummaryDetails]
			}
			line += " - " + strings.Join(shown, "; ")
			if rest := len(details) - len(shown); rest > 0 {
				line += fmt.Sprintf(" (and %d more)", rest)
			}
		}
		lines = append(lines, line)
	}
	return lines
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
