package validate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/warp/register-review/register"
)

// =============================================================================
// TIER B - One register at a time
// =============================================================================

// duplicateIDs reports each ID that occurs more than once, once, in order of
// first occurrence. The returned set holds the duplicated IDs.
func duplicateIDs(reg *register.Register, records []register.Employee) ([]register.Finding, map[string]struct{}) {
	occurrences := make(map[string][]int, len(records))
	var order []string
	for i, rec := range records {
		if _, seen := occurrences[rec.ID]; !seen {
			order = append(order, rec.ID)
		}
		occurrences[rec.ID] = append(occurrences[rec.ID], i)
	}

	var findings []register.Finding
	dups := make(map[string]struct{})
	for _, id := range order {
		idx := occurrences[id]
		if len(idx) < 2 {
			continue
		}
		dups[id] = struct{}{}
		first := records[idx[0]]
		detail := fmt.Sprintf("employee ID %s appears %d times", id, len(idx))
		if rows := sourceRows(records, idx); rows != "" {
			detail += " (rows " + rows + ")"
		}
		findings = append(findings, register.NewFinding(reg.Sheet(), CategoryDuplicateID, &first, register.FieldEmployeeID, detail))
	}
	return findings, dups
}

func sourceRows(records []register.Employee, idx []int) string {
	rows := make([]string, 0, len(idx))
	for _, i := range idx {
		if records[i].Row == 0 {
			return ""
		}
		rows = append(rows, strconv.Itoa(records[i].Row))
	}
	return strings.Join(rows, ", ")
}
