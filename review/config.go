package review

import (
	"github.com/shopspring/decimal"

	"github.com/warp/register-review/estimate"
	"github.com/warp/register-review/register"
	"github.com/warp/register-review/validate"
)

// Config is the complete configuration of one review run: the valuation
// date, how service is measured, the multiplier policy and the validator
// thresholds. Zero values take the component defaults.
type Config struct {
	BaseDate register.Date
	DayCount estimate.DayCount
	Policy   estimate.MultiplierPolicy

	PercentCutoff      decimal.NullDecimal
	MinimumSalary      decimal.NullDecimal
	StaffTypeThreshold int
	HireAgeMin         int
	HireAgeMax         int
	AgeMethod          validate.AgeMethod
	AggregateTolerance decimal.NullDecimal

	Workers int
}

// PolicyKind reports the configured policy, flat when unset.
func (c Config) PolicyKind() estimate.PolicyKind {
	if c.Policy == nil {
		return estimate.PolicyFlat
	}
	return c.Policy.Kind()
}

func (c Config) validatorConfig() validate.Config {
	return validate.Config{
		BaseDate:           c.BaseDate,
		MinimumSalary:      c.MinimumSalary,
		StaffTypeThreshold: c.StaffTypeThreshold,
		HireAgeMin:         c.HireAgeMin,
		HireAgeMax:         c.HireAgeMax,
		AgeMethod:          c.AgeMethod,
		AggregateTolerance: c.AggregateTolerance,
		Workers:            c.Workers,
	}
}

func (c Config) estimatorConfig() estimate.Config {
	return estimate.Config{
		BaseDate:      c.BaseDate,
		DayCount:      c.DayCount,
		Policy:        c.Policy,
		PercentCutoff: c.PercentCutoff,
		Workers:       c.Workers,
	}
}
