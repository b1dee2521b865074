package normalize

import (
	"github.com/warp/register-review/register"
)

type recordOptions struct {
	row      int
	idWidth  int
	widthSet bool
}

// RecordOption customizes Record.
type RecordOption func(*recordOptions)

// WithRow records the 1-based source row.
func WithRow(row int) RecordOption {
	return func(o *recordOptions) { o.row = row }
}

// WithIDWidth overrides the ID zero-pad width (0 disables padding).
func WithIDWidth(n int) RecordOption {
	return func(o *recordOptions) { o.idWidth, o.widthSet = n, true }
}

// Record normalizes one mapped row. Keys of raw are canonical field names;
// unknown keys are ignored. Supplementary IDs are zero-padded to
// SupplementaryIDWidth unless WithIDWidth says otherwise.
func Record(role register.Role, raw map[register.Field]any, opts ...RecordOption) register.Employee {
	var o recordOptions
	for _, opt := range opts {
		opt(&o)
	}
	if !o.widthSet && role == register.RoleSupplementary {
		o.idWidth = SupplementaryIDWidth
	}

	rec := register.Employee{
		ID:  EmployeeID(raw[register.FieldEmployeeID], WithMinWidth(o.idWidth)),
		Row: o.row,

		BirthDate:             Date(raw[register.FieldBirthDate]),
		HireDate:              Date(raw[register.FieldHireDate]),
		InterimSettlementDate: Date(raw[register.FieldInterimSettlementDate]),
		TerminationDate:       Date(raw[register.FieldTerminationDate]),

		Gender:       Gender(raw[register.FieldGender]),
		EmployeeType: EmployeeType(raw[register.FieldEmployeeType]),
		PlanType:     PlanType(raw[register.FieldPlanType]),
		Reason:       Reason(role, raw[register.FieldReasonCode]),

		BaseSalary:              Decimal(raw[register.FieldBaseSalary]),
		CurrentYearEstimate:     Decimal(raw[register.FieldCurrentYearEstimate]),
		NextYearEstimate:        Decimal(raw[register.FieldNextYearEstimate]),
		InterimSettlementAmount: Decimal(raw[register.FieldInterimSettlementAmt]),
		ApplicableMultiplier:    Decimal(raw[register.FieldApplicableMultiplier]),
		TerminationAmount:       Decimal(raw[register.FieldTerminationAmount]),

		ReasonOccurrenceDate:   Date(raw[register.FieldReasonOccurrenceDate]),
		ReasonOccurrenceAmount: Decimal(raw[register.FieldReasonOccurrenceAmount]),

		LeaveDeductionYears: Decimal(raw[register.FieldLeaveDeductionYears]),
		LeaveDeductionDays:  Decimal(raw[register.FieldLeaveDeductionDays]),
	}

	for _, f := range register.DateFields {
		if s, ok := Text(raw[f]); ok {
			if rec.RawDates == nil {
				rec.RawDates = make(map[register.Field]string)
			}
			rec.RawDates[f] = s
		}
	}
	return rec
}
