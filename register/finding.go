/*
finding.go - Findings and the finding-category registry

PURPOSE:
  A Finding is one detected data defect: which sheet, which rule category,
  which employee (if any), and a human-readable detail. Categories are
  registered once with their severity so that every finding of a category
  carries the same severity and label.

HOW IT WORKS:
  1. The validator package registers its categories on init()
  2. Rules build findings through NewFinding(sheet, categoryID, ...)
  3. Reports and exports look up labels through LookupCategory

USAGE:
  // In validate/categories.go
  func init() {
      register.RegisterCategory(register.Category{
          ID: "low_salary", Severity: register.SeverityWarning, Label: "Low salary",
      })
  }

SEE ALSO:
  - validate/categories.go: category definitions
  - review/aggregate.go: grouping findings by sheet and category
*/
package register

import (
	"fmt"
	"sort"
	"sync"
)

// =============================================================================
// SEVERITY
// =============================================================================

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// =============================================================================
// CATEGORY REGISTRY
// =============================================================================

// Category describes one kind of finding.
type Category struct {
	ID       string   `json:"id"`
	Severity Severity `json:"severity"`
	Label    string   `json:"label"`
	Tier     string   `json:"tier"` // "record", "register", "cross_register"
}

var (
	categoryRegistry = make(map[string]Category)
	registryMu       sync.RWMutex
)

// RegisterCategory adds a category to the global registry.
// Call this from package init() functions.
func RegisterCategory(c Category) {
	registryMu.Lock()
	defer registryMu.Unlock()
	categoryRegistry[c.ID] = c
}

// LookupCategory finds a registered category by ID.
func LookupCategory(id string) (Category, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := categoryRegistry[id]
	return c, ok
}

// MustLookupCategory finds a registered category or panics.
// Use in rule code where the category is a compile-time constant.
func MustLookupCategory(id string) Category {
	c, ok := LookupCategory(id)
	if !ok {
		panic(fmt.Sprintf("%v: %s", ErrUnknownCategory, id))
	}
	return c
}

// ListCategories returns all registered categories sorted by ID.
func ListCategories() []Category {
	registryMu.RLock()
	defer registryMu.RUnlock()
	result := make([]Category, 0, len(categoryRegistry))
	for _, c := range categoryRegistry {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// =============================================================================
// FINDING
// =============================================================================

// Finding is one detected defect. EmployeeID is empty for aggregate
// findings; Row is 0 when the source row is unknown.
type Finding struct {
	Sheet      string   `json:"sheet"`
	Category   string   `json:"category"`
	EmployeeID string   `json:"employee_id,omitempty"`
	Row        int      `json:"row,omitempty"`
	Field      Field    `json:"field,omitempty"`
	Detail     string   `json:"detail"`
	Severity   Severity `json:"severity"`
}

// NewFinding builds a finding with the severity registered for its category.
func NewFinding(sheet, category string, rec *Employee, field Field, detail string) Finding {
	f := Finding{
		Sheet:    sheet,
		Category: category,
		Field:    field,
		Detail:   detail,
		Severity: MustLookupCategory(category).Severity,
	}
	if rec != nil {
		f.EmployeeID = rec.ID
		f.Row = rec.Row
	}
	return f
}

// IsError reports whether the finding has error severity.
func (f Finding) IsError() bool { return f.Severity == SeverityError }
