/*
types.go - Canonical record model shared by every review component

PURPOSE:
  Defines the normalized shape of a retirement-benefit register row, the
  registers that hold them, and the plan summary sheet. Everything upstream
  (workbook ingestion, JSON input) produces these types; everything
  downstream (validation, estimation, reporting) consumes them.

KEY CONCEPTS:
  - Employee: one normalized row. Absent values are zero values:
    zero Date, invalid NullDecimal, Unknown enum codes, empty ID.
  - Register: an ordered list of Employees for one Role.
  - PlanSummary: the single summary sheet with reported totals.
  - Batch: the role -> register mapping handed to the engine.

ENUM CODES:
  Numeric codes match the ones written in source registers so that a
  normalized value can be traced back to the cell it came from.

SEE ALSO:
  - date.go: Date type
  - finding.go: Finding, Severity, category registry
  - normalize/: raw cell -> canonical value
*/
package register

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ROLE - Which register a record belongs to
// =============================================================================

type Role string

const (
	RoleActive        Role = "active"
	RoleRetired       Role = "retired"
	RoleSupplementary Role = "supplementary"
	RolePlanSummary   Role = "plan_summary"
)

// Roles lists the record-bearing roles in processing order.
var Roles = []Role{RoleActive, RoleRetired, RoleSupplementary}

func (r Role) Valid() bool {
	switch r {
	case RoleActive, RoleRetired, RoleSupplementary, RolePlanSummary:
		return true
	}
	return false
}

// =============================================================================
// FIELD - Canonical field names (also used in findings)
// =============================================================================

type Field string

const (
	FieldEmployeeID             Field = "employee_id"
	FieldBirthDate              Field = "birth_date"
	FieldHireDate               Field = "hire_date"
	FieldInterimSettlementDate  Field = "interim_settlement_date"
	FieldTerminationDate        Field = "termination_or_conversion_date"
	FieldGender                 Field = "gender"
	FieldEmployeeType           Field = "employee_type"
	FieldPlanType               Field = "plan_type"
	FieldBaseSalary             Field = "base_salary"
	FieldCurrentYearEstimate    Field = "current_year_estimate"
	FieldNextYearEstimate       Field = "next_year_estimate"
	FieldInterimSettlementAmt   Field = "interim_settlement_amount"
	FieldApplicableMultiplier   Field = "applicable_multiplier"
	FieldTerminationAmount      Field = "termination_amount"
	FieldReasonCode             Field = "reason_code"
	FieldReasonOccurrenceDate   Field = "reason_occurrence_date"
	FieldReasonOccurrenceAmount Field = "reason_occurrence_amount"
	FieldLeaveDeductionYears    Field = "leave_deduction_years"
	FieldLeaveDeductionDays     Field = "leave_deduction_days"
)

// DateFields are the fields normalized as dates.
var DateFields = []Field{
	FieldBirthDate, FieldHireDate, FieldInterimSettlementDate,
	FieldTerminationDate, FieldReasonOccurrenceDate,
}

// =============================================================================
// ENUMERATIONS
// =============================================================================

type Gender int

const (
	GenderUnknown Gender = 0
	GenderMale    Gender = 1
	GenderFemale  Gender = 2
)

func (g Gender) String() string {
	switch g {
	case GenderMale:
		return "male"
	case GenderFemale:
		return "female"
	}
	return ""
}

// EmployeeType codes skip 2; registers use 1/3/4.
type EmployeeType int

const (
	EmployeeTypeUnknown   EmployeeType = 0
	EmployeeTypeStaff     EmployeeType = 1
	EmployeeTypeExecutive EmployeeType = 3
	EmployeeTypeContract  EmployeeType = 4
)

func (t EmployeeType) String() string {
	switch t {
	case EmployeeTypeStaff:
		return "staff"
	case EmployeeTypeExecutive:
		return "executive"
	case EmployeeTypeContract:
		return "contract"
	}
	return ""
}

type PlanType int

const (
	PlanTypeUnknown PlanType = 0
	PlanType1       PlanType = 1
	PlanType2       PlanType = 2
	PlanType3       PlanType = 3
)

// ReasonCode is role dependent: see the Retired* and Supplementary* values.
type ReasonCode int

const ReasonUnknown ReasonCode = 0

const (
	RetiredReasonRetirement   ReasonCode = 1
	RetiredReasonDCConversion ReasonCode = 2
)

const (
	SupplementaryTransferIn  ReasonCode = 1
	SupplementaryTransferOut ReasonCode = 2
	SupplementaryPreMerger   ReasonCode = 3
	SupplementaryPostMerger  ReasonCode = 4
	SupplementaryLongTerm    ReasonCode = 5
)

// ReasonDomain returns the admissible reason codes for a role.
func ReasonDomain(role Role) []ReasonCode {
	switch role {
	case RoleRetired:
		return []ReasonCode{RetiredReasonRetirement, RetiredReasonDCConversion}
	case RoleSupplementary:
		return []ReasonCode{
			SupplementaryTransferIn, SupplementaryTransferOut,
			SupplementaryPreMerger, SupplementaryPostMerger, SupplementaryLongTerm,
		}
	}
	return nil
}

// =============================================================================
// EMPLOYEE - One canonical register row
// =============================================================================

type Employee struct {
	ID  string `json:"employee_id"`
	Row int    `json:"row,omitempty"` // 1-based source row, 0 when unknown

	BirthDate             Date `json:"birth_date"`
	HireDate              Date `json:"hire_date"`
	InterimSettlementDate Date `json:"interim_settlement_date"`
	TerminationDate       Date `json:"termination_or_conversion_date"`

	Gender       Gender       `json:"gender,omitempty"`
	EmployeeType EmployeeType `json:"employee_type,omitempty"`
	PlanType     PlanType     `json:"plan_type,omitempty"`
	Reason       ReasonCode   `json:"reason_code,omitempty"`

	BaseSalary              decimal.NullDecimal `json:"base_salary"`
	CurrentYearEstimate     decimal.NullDecimal `json:"current_year_estimate"`
	NextYearEstimate        decimal.NullDecimal `json:"next_year_estimate"`
	InterimSettlementAmount decimal.NullDecimal `json:"interim_settlement_amount"`
	ApplicableMultiplier    decimal.NullDecimal `json:"applicable_multiplier"`
	TerminationAmount       decimal.NullDecimal `json:"termination_amount"`

	ReasonOccurrenceDate   Date                `json:"reason_occurrence_date"`
	ReasonOccurrenceAmount decimal.NullDecimal `json:"reason_occurrence_amount"`

	LeaveDeductionYears decimal.NullDecimal `json:"leave_deduction_years"`
	LeaveDeductionDays  decimal.NullDecimal `json:"leave_deduction_days"`

	// RawDates keeps the pre-normalization text of date cells.
	RawDates map[Field]string `json:"raw_dates,omitempty"`
}

// HasID reports whether the record counts toward register totals.
func (e Employee) HasID() bool { return e.ID != "" }

// Date returns the date stored under a date field.
func (e Employee) Date(f Field) Date {
	switch f {
	case FieldBirthDate:
		return e.BirthDate
	case FieldHireDate:
		return e.HireDate
	case FieldInterimSettlementDate:
		return e.InterimSettlementDate
	case FieldTerminationDate:
		return e.TerminationDate
	case FieldReasonOccurrenceDate:
		return e.ReasonOccurrenceDate
	}
	return Date{}
}

// Amount returns the decimal stored under a numeric field.
func (e Employee) Amount(f Field) decimal.NullDecimal {
	switch f {
	case FieldBaseSalary:
		return e.BaseSalary
	case FieldCurrentYearEstimate:
		return e.CurrentYearEstimate
	case FieldNextYearEstimate:
		return e.NextYearEstimate
	case FieldInterimSettlementAmt:
		return e.InterimSettlementAmount
	case FieldApplicableMultiplier:
		return e.ApplicableMultiplier
	case FieldTerminationAmount:
		return e.TerminationAmount
	case FieldReasonOccurrenceAmount:
		return e.ReasonOccurrenceAmount
	case FieldLeaveDeductionYears:
		return e.LeaveDeductionYears
	case FieldLeaveDeductionDays:
		return e.LeaveDeductionDays
	}
	return decimal.NullDecimal{}
}

// Present reports whether a field holds a value.
func (e Employee) Present(f Field) bool {
	switch f {
	case FieldEmployeeID:
		return e.ID != ""
	case FieldGender:
		return e.Gender != GenderUnknown
	case FieldEmployeeType:
		return e.EmployeeType != EmployeeTypeUnknown
	case FieldPlanType:
		return e.PlanType != PlanTypeUnknown
	case FieldReasonCode:
		return e.Reason != ReasonUnknown
	}
	for _, df := range DateFields {
		if df == f {
			return !e.Date(f).IsZero()
		}
	}
	return e.Amount(f).Valid
}

// =============================================================================
// REGISTER
// =============================================================================

// Register is an ordered sequence of records for one role. Name is the
// source sheet name and labels every finding raised against it.
type Register struct {
	Name    string     `json:"name"`
	Role    Role       `json:"role"`
	Records []Employee `json:"records"`
}

func NewRegister(name string, role Role, records ...Employee) *Register {
	return &Register{Name: name, Role: role, Records: records}
}

// Sheet returns the label used for findings.
func (r *Register) Sheet() string {
	if r.Name != "" {
		return r.Name
	}
	return string(r.Role)
}

// IDs returns the employee IDs of records that have one, in register order.
func (r *Register) IDs() []string {
	if r == nil {
		return nil
	}
	ids := make([]string, 0, len(r.Records))
	for _, rec := range r.Records {
		if rec.HasID() {
			ids = append(ids, rec.ID)
		}
	}
	return ids
}

// IDSet returns the distinct employee IDs of the register.
func (r *Register) IDSet() map[string]struct{} {
	set := make(map[string]struct{})
	for _, id := range r.IDs() {
		set[id] = struct{}{}
	}
	return set
}

// =============================================================================
// PLAN SUMMARY
// =============================================================================

// WageGrowth is one row of the plan's wage-growth assumption table.
type WageGrowth struct {
	Year string          `json:"year"`
	Rate decimal.Decimal `json:"rate"`
}

// PlanSummary carries the reported totals and plan assumptions from the
// summary sheet. Nil counts and invalid decimals mean "not reported".
type PlanSummary struct {
	Name string `json:"name,omitempty"` // source sheet name

	ActiveHeadcount  *int                `json:"active_headcount,omitempty"`
	RetiredHeadcount *int                `json:"retired_headcount,omitempty"`
	EstimateTotal    decimal.NullDecimal `json:"estimate_total"`

	RetirementAge     *int         `json:"retirement_age,omitempty"`
	WagePeak          *bool        `json:"wage_peak,omitempty"`
	PlanKind          string       `json:"plan_kind,omitempty"`
	PayScheme         string       `json:"pay_scheme,omitempty"`
	WageGrowthRates   []WageGrowth `json:"wage_growth_rates,omitempty"`
	DiscountRateBasis string       `json:"discount_rate_basis,omitempty"`
}

// Sheet returns the label used for findings.
func (p *PlanSummary) Sheet() string {
	if p.Name != "" {
		return p.Name
	}
	return string(RolePlanSummary)
}

// =============================================================================
// BATCH - Role -> register mapping handed to the engine
// =============================================================================

type Batch struct {
	Active        *Register    `json:"active,omitempty"`
	Retired       *Register    `json:"retired,omitempty"`
	Supplementary *Register    `json:"supplementary,omitempty"`
	Summary       *PlanSummary `json:"summary,omitempty"`
}

// Register returns the register for a role, nil when absent.
func (b Batch) Register(role Role) *Register {
	switch role {
	case RoleActive:
		return b.Active
	case RoleRetired:
		return b.Retired
	case RoleSupplementary:
		return b.Supplementary
	}
	return nil
}

// Registers returns the present registers in processing order.
func (b Batch) Registers() []*Register {
	var out []*Register
	for _, role := range Roles {
		if r := b.Register(role); r != nil {
			out = append(out, r)
		}
	}
	return out
}

// CheckShape verifies every register sits under its own role.
func (b Batch) CheckShape() error {
	for _, role := range Roles {
		r := b.Register(role)
		if r == nil {
			continue
		}
		if r.Role != role {
			return fmt.Errorf("%w: register %q has role %q, placed under %q",
				ErrRegisterShape, r.Sheet(), r.Role, role)
		}
	}
	return nil
}

// SetRegister places r under its own role.
func (b *Batch) SetRegister(r *Register) error {
	switch r.Role {
	case RoleActive:
		b.Active = r
	case RoleRetired:
		b.Retired = r
	case RoleSupplementary:
		b.Supplementary = r
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRole, r.Role)
	}
	return nil
}
