package ingest

import (
	"strings"
	"unicode"

	"github.com/warp/register-review/register"
)

// SheetKind is what a workbook sheet holds.
type SheetKind string

const (
	KindActive        SheetKind = SheetKind(register.RoleActive)
	KindRetired       SheetKind = SheetKind(register.RoleRetired)
	KindSupplementary SheetKind = SheetKind(register.RoleSupplementary)
	KindPlanSummary   SheetKind = SheetKind(register.RolePlanSummary)
	KindUnknown       SheetKind = ""
)

// Role returns the register role of a tabular sheet kind.
func (k SheetKind) Role() register.Role { return register.Role(k) }

// skippedSheetWords mark system, source-copy and instruction sheets.
var skippedSheetWords = []string{"시스템", "input", "원본", "작성방법", "instruction", "readme"}

type sheetRule struct {
	kind SheetKind
	all  []string // every word must appear
}

// sheetRules are tried in order; the first match wins. The long-service
// "기타장기" sheet is not one of the three registers and matches nothing.
var sheetRules = []sheetRule{
	{KindPlanSummary, []string{"기초자료", "퇴직급여"}},
	{KindPlanSummary, []string{"plan", "summary"}},
	{KindUnknown, []string{"기타장기"}},
	{KindRetired, []string{"퇴직자"}},
	{KindRetired, []string{"dc전환"}},
	{KindRetired, []string{"retired"}},
	{KindSupplementary, []string{"추가", "명부"}},
	{KindSupplementary, []string{"supplementary"}},
	{KindActive, []string{"재직자"}},
	{KindActive, []string{"active"}},
}

// DetectKind classifies a sheet by its name. Whitespace, punctuation and
// case are ignored.
func DetectKind(sheetName string) SheetKind {
	name := squash(sheetName)
	for _, w := range skippedSheetWords {
		if strings.Contains(name, w) {
			return KindUnknown
		}
	}
	for _, rule := range sheetRules {
		if containsAll(name, rule.all) {
			return rule.kind
		}
	}
	return KindUnknown
}

func containsAll(s string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(s, w) {
			return false
		}
	}
	return true
}

// squash lowercases s and drops everything but letters and digits.
func squash(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
