/*
estimator.go - Independent recomputation of the current-year estimate

PURPOSE:
  For every Active record, recompute the retirement-benefit estimate from
  first principles and compare it with the estimate the register reports.

ALGORITHM (per record):
  1. start   = interim settlement date, else hire date
  2. service = ServiceYears(start, base date, day-count method)
  3. mult    = policy.Select(NormalizeMultiplier(record multiplier), service)
  4. leave   = leave years if > 0, else leave days / 365 if > 0, else 0
  5. rate    = max(0, service - leave)
  6. computed = base salary x rate x mult
  7. error % = |computed - reported| / |reported| x 100
               reported == 0 -> 0 and the row is not comparable

  Output is rounded: service 4 dp, computed 0 dp, error rate 2 dp,
  leave 4 dp. The error rate is taken before rounding the estimate.

CONCURRENCY:
  Records are independent. Estimate fans out over register.Each and writes
  each row into its own slot, so row order is record order.

SEE ALSO:
  - daycount.go, policy.go: building blocks
  - summary.go: bands and summary statistics
*/
package estimate

import (
	"github.com/shopspring/decimal"

	"github.com/warp/register-review/register"
)

// Config controls the estimator.
type Config struct {
	BaseDate register.Date
	DayCount DayCount
	Policy   MultiplierPolicy

	// PercentCutoff: record multipliers >= cutoff are divided by 100.
	// Invalid (unset) means DefaultPercentCutoff; a valid zero disables it.
	PercentCutoff decimal.NullDecimal

	// Workers bounds parallelism; <= 0 means GOMAXPROCS.
	Workers int
}

// Validate reports configuration problems.
func (c Config) Validate() error {
	if c.BaseDate.IsZero() {
		return register.NewConfigError("base_date", nil, "required")
	}
	if _, err := ParseDayCount(string(c.DayCount)); err != nil {
		return err
	}
	if c.PercentCutoff.Valid && c.PercentCutoff.Decimal.IsNegative() {
		return register.NewConfigError("percent_cutoff", c.PercentCutoff.Decimal, "must not be negative")
	}
	return nil
}

func (c Config) cutoff() decimal.Decimal {
	if !c.PercentCutoff.Valid {
		return DefaultPercentCutoff
	}
	return c.PercentCutoff.Decimal
}

// Row is one reconciliation line.
type Row struct {
	EmployeeID           string          `json:"employee_id"`
	SourceRow            int             `json:"row,omitempty"`
	ComputedServiceYears decimal.Decimal `json:"computed_service_years"`
	ComputedEstimate     decimal.Decimal `json:"computed_estimate"`
	ReportedEstimate     decimal.Decimal `json:"reported_estimate"`
	ErrorRatePct         decimal.Decimal `json:"error_rate_pct"`
	BaseSalary           decimal.Decimal `json:"base_salary"`
	AppliedMultiplier    decimal.Decimal `json:"applied_multiplier"`
	LeaveDeductionYears  decimal.Decimal `json:"leave_deduction_years"`
	Comparable           bool            `json:"comparable"`
	Band                 Band            `json:"band"`
}

type Estimator struct {
	cfg Config
}

// New validates cfg and builds an Estimator. A nil policy means flat.
func New(cfg Config) (*Estimator, error) {
	if cfg.Policy == nil {
		cfg.Policy = FlatPolicy{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Estimator{cfg: cfg}, nil
}

// Config returns the effective configuration.
func (e *Estimator) Config() Config { return e.cfg }

// Estimate produces one row per record that has an employee ID, in record
// order. A nil register yields no rows.
func (e *Estimator) Estimate(r *register.Register) []Row {
	if r == nil {
		return nil
	}

	var records []register.Employee
	for _, rec := range r.Records {
		if rec.HasID() {
			records = append(records, rec)
		}
	}

	rows := make([]Row, len(records))
	register.Each(len(records), e.cfg.Workers, func(i int) {
		rows[i] = e.Row(records[i])
	})
	return rows
}

// Row computes the reconciliation line for a single record.
func (e *Estimator) Row(rec register.Employee) Row {
	// DayCount is validated in New, so the error is unreachable here.
	service, _ := ServiceYears(ServiceStart(rec), e.cfg.BaseDate, e.cfg.DayCount)

	mult := e.cfg.Policy.Select(NormalizeMultiplier(rec.ApplicableMultiplier, e.cfg.cutoff()), service)
	leave := LeaveYears(rec)

	rate := service.Sub(leave)
	if rate.IsNegative() {
		rate = decimal.Zero
	}

	salary := valueOrZero(rec.BaseSalary)
	computed := salary.Mul(rate).Mul(mult)
	reported := valueOrZero(rec.CurrentYearEstimate)

	errorRate, comparable := ErrorRate(computed, reported)
	errorRate = errorRate.Round(2)

	return Row{
		EmployeeID:           rec.ID,
		SourceRow:            rec.Row,
		ComputedServiceYears: service.Round(4),
		ComputedEstimate:     computed.Round(0),
		ReportedEstimate:     reported,
		ErrorRatePct:         errorRate,
		BaseSalary:           salary,
		AppliedMultiplier:    mult,
		LeaveDeductionYears:  leave.Round(4),
		Comparable:           comparable,
		Band:                 Classify(errorRate),
	}
}

// LeaveYears converts the record's leave deduction into years.
func LeaveYears(rec register.Employee) decimal.Decimal {
	if rec.LeaveDeductionYears.Valid && rec.LeaveDeductionYears.Decimal.IsPositive() {
		return rec.LeaveDeductionYears.Decimal
	}
	if rec.LeaveDeductionDays.Valid && rec.LeaveDeductionDays.Decimal.IsPositive() {
		return rec.LeaveDeductionDays.Decimal.Div(daysPerYear)
	}
	return decimal.Zero
}

// ErrorRate returns |computed - reported| / |reported| x 100. When reported
// is zero the rate is 0 and comparable is false.
func ErrorRate(computed, reported decimal.Decimal) (rate decimal.Decimal, comparable bool) {
	if reported.IsZero() {
		return decimal.Zero, false
	}
	return computed.Sub(reported).Abs().Div(reported.Abs()).Mul(hundred), true
}

func valueOrZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}
