package ingest

import (
	"strings"

	"github.com/warp/register-review/register"
)

// =============================================================================
// HEADER DETECTION
// =============================================================================

// headerKeywords identify the real header row under any banner text. A row
// holding at least minHeaderKeywords of its role's keywords is the header.
var headerKeywords = map[register.Role][]string{
	register.RoleActive:        {"사원번호", "생년월일", "입사일자", "성별", "employee_id", "birth_date", "hire_date"},
	register.RoleRetired:       {"사원번호", "입사일자", "퇴직일", "dc전환", "사유", "employee_id", "hire_date", "termination"},
	register.RoleSupplementary: {"사원번호", "사유발생일", "발생금액", "직무그룹", "employee_id", "hire_date", "reason"},
}

const minHeaderKeywords = 2

// DefaultHeaderScanRows bounds how far down a sheet the header is looked for.
const DefaultHeaderScanRows = 30

// findHeader returns the 0-based index of the header row, or -1.
func findHeader(rows [][]string, role register.Role, limit int) int {
	keywords := headerKeywords[role]
	for i, row := range rows {
		if limit > 0 && i >= limit {
			break
		}
		joined := squash(strings.Join(row, " "))
		matches := 0
		for _, kw := range keywords {
			if strings.Contains(joined, squash(kw)) {
				matches++
			}
		}
		if matches >= minHeaderKeywords {
			return i
		}
	}
	return -1
}

// =============================================================================
// COLUMN ALIASES
// =============================================================================

// columnAliases maps header text to canonical fields. The canonical field
// name itself is always accepted too.
var columnAliases = map[register.Field][]string{
	register.FieldEmployeeID:             {"사원번호", "직원번호", "employee_no", "employee id"},
	register.FieldBirthDate:              {"생년월일", "생일", "birth date"},
	register.FieldGender:                 {"성별"},
	register.FieldHireDate:               {"입사일자", "입사일", "hire date"},
	register.FieldBaseSalary:             {"기준급여", "급여", "base salary"},
	register.FieldCurrentYearEstimate:    {"당년도퇴직급여추계액", "당년도추계액"},
	register.FieldNextYearEstimate:       {"차년도퇴직급여추계액", "차년도추계액"},
	register.FieldEmployeeType:           {"종업원구분", "중업원구분", "직원구분"},
	register.FieldInterimSettlementDate:  {"중간정산기준일", "중간정산일"},
	register.FieldInterimSettlementAmt:   {"중간정산액", "중간정산금액"},
	register.FieldPlanType:               {"제도구분"},
	register.FieldApplicableMultiplier:   {"적용배수", "배수"},
	register.FieldTerminationDate:        {"퇴직일또는dc전환일", "퇴직일", "dc전환일"},
	register.FieldTerminationAmount:      {"퇴직금또는dc전환금", "퇴직금", "dc전환금"},
	register.FieldReasonCode:             {"사유", "퇴직사유"},
	register.FieldReasonOccurrenceDate:   {"사유발생일"},
	register.FieldReasonOccurrenceAmount: {"사유발생일시점발생금액", "발생금액"},
	register.FieldLeaveDeductionYears:    {"휴직기간연", "휴직차감연", "휴직차감"},
	register.FieldLeaveDeductionDays:     {"휴직기간등차감", "휴직일수"},
}

var aliasIndex = buildAliasIndex()

func buildAliasIndex() map[string]register.Field {
	idx := make(map[string]register.Field)
	for field, aliases := range columnAliases {
		idx[squash(string(field))] = field
		for _, a := range aliases {
			idx[squash(a)] = field
		}
	}
	return idx
}

// FieldForHeader maps one header cell to a canonical field. A parenthesised
// legend such as "성별(1:남자, 2:여자)" is ignored when the full text does
// not match.
func FieldForHeader(header string) (register.Field, bool) {
	if f, ok := aliasIndex[squash(header)]; ok {
		return f, true
	}
	if i := strings.IndexAny(header, "(（"); i > 0 {
		if f, ok := aliasIndex[squash(header[:i])]; ok {
			return f, true
		}
	}
	return "", false
}

// columnMap is the resolved header: column index -> field. The first column
// carrying a field wins; later duplicates are reported as unmapped.
type columnMap struct {
	byColumn map[int]register.Field
	headers  map[register.Field]string
	unmapped []string
}

func mapColumns(header []string) columnMap {
	cm := columnMap{byColumn: make(map[int]register.Field), headers: make(map[register.Field]string)}
	for col, text := range header {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		f, ok := FieldForHeader(text)
		if !ok {
			cm.unmapped = append(cm.unmapped, text)
			continue
		}
		if _, taken := cm.headers[f]; taken {
			cm.unmapped = append(cm.unmapped, text)
			continue
		}
		cm.byColumn[col] = f
		cm.headers[f] = text
	}
	return cm
}
