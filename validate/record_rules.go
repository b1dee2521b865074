package validate

import (
	"fmt"

	"github.com/warp/register-review/normalize"
	"github.com/warp/register-review/register"
)

// =============================================================================
// TIER A - One record at a time
// =============================================================================

var requiredFields = map[register.Role][]register.Field{
	register.RoleActive: {
		register.FieldBirthDate, register.FieldHireDate,
		register.FieldBaseSalary, register.FieldEmployeeType,
	},
	register.RoleRetired: {
		register.FieldHireDate, register.FieldTerminationDate, register.FieldReasonCode,
	},
	register.RoleSupplementary: {
		register.FieldHireDate, register.FieldReasonCode,
	},
}

var nonNegativeFields = []register.Field{
	register.FieldCurrentYearEstimate,
	register.FieldNextYearEstimate,
	register.FieldInterimSettlementAmt,
}

// recordChecker accumulates the findings of one record.
type recordChecker struct {
	sheet    string
	rec      *register.Employee
	findings []register.Finding
}

func (c *recordChecker) add(category string, field register.Field, format string, args ...any) {
	c.findings = append(c.findings, register.NewFinding(c.sheet, category, c.rec, field, fmt.Sprintf(format, args...)))
}

func (v *Validator) checkRecord(reg *register.Register, rec *register.Employee) []register.Finding {
	c := &recordChecker{sheet: reg.Sheet(), rec: rec}

	c.required(requiredFields[reg.Role])
	c.rawDates()

	switch reg.Role {
	case register.RoleActive:
		c.nonNegative()
		v.conditionalEstimates(c)
		v.dateOrder(c)
		v.lowSalary(c)
		v.interimAmount(c)
	case register.RoleRetired:
		c.termination()
	}
	return c.findings
}

// required emits one finding per missing field. The employee ID itself is
// never reported: records without one are not validated at all.
func (c *recordChecker) required(fields []register.Field) {
	for _, f := range fields {
		if !c.rec.Present(f) {
			c.add(CategoryRequiredField, f, "%s is required", f)
		}
	}
}

func (c *recordChecker) nonNegative() {
	for _, f := range nonNegativeFields {
		if v := c.rec.Amount(f); v.Valid && v.Decimal.IsNegative() {
			c.add(CategoryNegativeValue, f, "%s must not be negative (%s)", f, v.Decimal)
		}
	}
}

// rawDates checks the raw text of date cells: month/day decoded from the
// last four digits must be in range, and non-blank text must parse.
func (c *recordChecker) rawDates() {
	for _, f := range register.DateFields {
		raw, ok := c.rec.RawDates[f]
		if !ok || raw == "" {
			continue
		}
		if normalize.MonthDayOutOfRange(raw) {
			c.add(CategoryInvalidDate, f, "%s %q has month or day out of range", f, raw)
			continue
		}
		if c.rec.Date(f).IsZero() {
			c.add(CategoryInvalidDate, f, "%s %q is not a recognizable date", f, raw)
		}
	}
}

// conditionalEstimates requires both estimates for executive and contract
// employees.
func (v *Validator) conditionalEstimates(c *recordChecker) {
	if c.rec.EmployeeType == register.EmployeeTypeUnknown || int(c.rec.EmployeeType) <= v.cfg.StaffTypeThreshold {
		return
	}
	for _, f := range []register.Field{register.FieldCurrentYearEstimate, register.FieldNextYearEstimate} {
		if amt := c.rec.Amount(f); !amt.Valid || amt.Decimal.IsZero() {
			c.add(CategoryConditionalField, f, "%s is required for %s employees", f, c.rec.EmployeeType)
		}
	}
}

func (v *Validator) dateOrder(c *recordChecker) {
	rec := c.rec
	birth, hire, interim := rec.BirthDate, rec.HireDate, rec.InterimSettlementDate

	if !birth.IsZero() && !hire.IsZero() {
		if hire.Before(birth) {
			c.add(CategoryHireBeforeBirth, register.FieldHireDate, "hire date %s precedes birth date %s", hire, birth)
		}
		if age := v.cfg.ageAtHire(birth, hire); age < v.cfg.HireAgeMin || age > v.cfg.HireAgeMax {
			c.add(CategoryHireAge, register.FieldHireDate, "age at hire %d outside [%d, %d]", age, v.cfg.HireAgeMin, v.cfg.HireAgeMax)
		}
	}

	if !interim.IsZero() && !hire.IsZero() && !interim.After(hire) {
		c.add(CategoryInterimBeforeHire, register.FieldInterimSettlementDate, "interim settlement date %s is not after hire date %s", interim, hire)
	}

	base := v.cfg.BaseDate
	if base.IsZero() {
		return
	}
	if !hire.IsZero() && !base.After(hire) {
		c.add(CategoryBaseDate, register.FieldHireDate, "hire date %s is not before base date %s", hire, base)
	}
	if !interim.IsZero() && !base.After(interim) {
		c.add(CategoryBaseDate, register.FieldInterimSettlementDate, "interim settlement date %s is not before base date %s", interim, base)
	}
}

func (v *Validator) lowSalary(c *recordChecker) {
	salary := c.rec.BaseSalary
	if salary.Valid && salary.Decimal.LessThan(v.cfg.MinimumSalary.Decimal) {
		c.add(CategoryLowSalary, register.FieldBaseSalary, "base salary %s is below %s", salary.Decimal, v.cfg.MinimumSalary.Decimal)
	}
}

// interimAmount requires a settlement amount when the settlement happened in
// the valuation year.
func (v *Validator) interimAmount(c *recordChecker) {
	interim, base := c.rec.InterimSettlementDate, v.cfg.BaseDate
	if interim.IsZero() || base.IsZero() || interim.Year() != base.Year() {
		return
	}
	if amt := c.rec.InterimSettlementAmount; !amt.Valid || amt.Decimal.IsZero() {
		c.add(CategoryInterimAmountMissing, register.FieldInterimSettlementAmt,
			"interim settlement in %d requires interim_settlement_amount", interim.Year())
	}
}

func (c *recordChecker) termination() {
	rec := c.rec
	if !rec.TerminationDate.IsZero() && !rec.HireDate.IsZero() && rec.TerminationDate.Before(rec.HireDate) {
		c.add(CategoryTerminationOrder, register.FieldTerminationDate,
			"termination date %s precedes hire date %s", rec.TerminationDate, rec.HireDate)
	}
	if amt := rec.TerminationAmount; amt.Valid && amt.Decimal.IsNegative() {
		c.add(CategoryNegativeTermination, register.FieldTerminationAmount, "termination amount must not be negative (%s)", amt.Decimal)
	}
}
