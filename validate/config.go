package validate

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/register-review/register"
)

// AgeMethod selects how age at hire is measured.
type AgeMethod string

const (
	// AgeCalendarYear subtracts birth year from hire year.
	AgeCalendarYear AgeMethod = "calendar_year"
	// AgeExact counts completed years, accounting for month and day.
	AgeExact AgeMethod = "exact"
)

// Defaults applied by Config.withDefaults.
var (
	DefaultMinimumSalary      = decimal.NewFromInt(1_700_000)
	DefaultAggregateTolerance = decimal.NewFromInt(1)
)

const (
	DefaultStaffTypeThreshold = 2
	DefaultHireAgeMin         = 17
	DefaultHireAgeMax         = 70
)

// Config holds the validator's knobs. Zero values take the defaults above.
type Config struct {
	// BaseDate is the valuation date. Zero skips the base-date rules.
	BaseDate register.Date

	// MinimumSalary is the statutory floor for the low-salary warning.
	MinimumSalary decimal.NullDecimal

	// StaffTypeThreshold: employee type codes above it must report both
	// current and next year estimates.
	StaffTypeThreshold int

	HireAgeMin int
	HireAgeMax int
	AgeMethod  AgeMethod

	// AggregateTolerance is the allowed absolute gap between a reported and
	// a derived sum on the plan summary. Counts must match exactly.
	AggregateTolerance decimal.NullDecimal

	// Workers bounds per-record parallelism; <= 0 means GOMAXPROCS.
	Workers int
}

func (c Config) withDefaults() Config {
	if !c.MinimumSalary.Valid {
		c.MinimumSalary = decimal.NewNullDecimal(DefaultMinimumSalary)
	}
	if c.StaffTypeThreshold == 0 {
		c.StaffTypeThreshold = DefaultStaffTypeThreshold
	}
	if c.HireAgeMin == 0 {
		c.HireAgeMin = DefaultHireAgeMin
	}
	if c.HireAgeMax == 0 {
		c.HireAgeMax = DefaultHireAgeMax
	}
	if c.AgeMethod == "" {
		c.AgeMethod = AgeCalendarYear
	}
	if !c.AggregateTolerance.Valid {
		c.AggregateTolerance = decimal.NewNullDecimal(DefaultAggregateTolerance)
	}
	return c
}

// Validate reports configuration problems after defaults are applied.
func (c Config) Validate() error {
	c = c.withDefaults()
	if c.HireAgeMin > c.HireAgeMax {
		return register.NewConfigError("hire_age", fmt.Sprintf("%d-%d", c.HireAgeMin, c.HireAgeMax), "minimum above maximum")
	}
	switch c.AgeMethod {
	case AgeCalendarYear, AgeExact:
	default:
		return register.NewConfigError("age_method", c.AgeMethod, "expected calendar_year or exact")
	}
	if c.MinimumSalary.Decimal.IsNegative() {
		return register.NewConfigError("minimum_salary", c.MinimumSalary.Decimal, "must not be negative")
	}
	if c.AggregateTolerance.Decimal.IsNegative() {
		return register.NewConfigError("aggregate_tolerance", c.AggregateTolerance.Decimal, "must not be negative")
	}
	return nil
}

// ageAtHire measures the employee's age on the hire date.
func (c Config) ageAtHire(birth, hire register.Date) int {
	age := hire.Year() - birth.Year()
	if c.AgeMethod == AgeExact {
		if hire.Month() < birth.Month() || (hire.Month() == birth.Month() && hire.Day() < birth.Day()) {
			age--
		}
	}
	return age
}
