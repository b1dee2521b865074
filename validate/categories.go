package validate

import "github.com/warp/register-review/register"

// Finding category IDs.
const (
	CategoryRequiredField        = "required_field_missing"
	CategoryNegativeValue        = "negative_value"
	CategoryConditionalField     = "conditional_field_missing"
	CategoryHireBeforeBirth      = "hire_before_birth"
	CategoryHireAge              = "hire_age_out_of_range"
	CategoryInterimBeforeHire    = "interim_before_hire"
	CategoryBaseDate             = "base_date_contradiction"
	CategoryInvalidDate          = "invalid_date"
	CategoryLowSalary            = "low_salary"
	CategoryInterimAmountMissing = "interim_amount_missing"
	CategoryTerminationOrder     = "termination_before_hire"
	CategoryNegativeTermination  = "negative_termination_amount"
	CategoryDuplicateID          = "duplicate_employee_id"
	CategoryCrossDuplicate       = "cross_register_duplicate"
	CategorySupplementaryActive  = "supplementary_not_in_active"
	CategoryTransferOutRetired   = "transfer_out_in_retired"
	CategoryAggregateMismatch    = "aggregate_mismatch"
)

const (
	tierRecord        = "record"
	tierRegister      = "register"
	tierCrossRegister = "cross_register"
)

var categories = []register.Category{
	{ID: CategoryRequiredField, Severity: register.SeverityError, Label: "Required field missing", Tier: tierRecord},
	{ID: CategoryNegativeValue, Severity: register.SeverityError, Label: "Negative amount", Tier: tierRecord},
	{ID: CategoryConditionalField, Severity: register.SeverityError, Label: "Estimate missing for executive/contract employee", Tier: tierRecord},
	{ID: CategoryHireBeforeBirth, Severity: register.SeverityError, Label: "Hire date before birth date", Tier: tierRecord},
	{ID: CategoryHireAge, Severity: register.SeverityError, Label: "Age at hire out of range", Tier: tierRecord},
	{ID: CategoryInterimBeforeHire, Severity: register.SeverityWarning, Label: "Interim settlement not after hire (needs confirmation)", Tier: tierRecord},
	{ID: CategoryBaseDate, Severity: register.SeverityError, Label: "Logical contradiction with base date", Tier: tierRecord},
	{ID: CategoryInvalidDate, Severity: register.SeverityError, Label: "Malformed date", Tier: tierRecord},
	{ID: CategoryLowSalary, Severity: register.SeverityWarning, Label: "Salary below statutory floor", Tier: tierRecord},
	{ID: CategoryInterimAmountMissing, Severity: register.SeverityError, Label: "Interim settlement amount missing", Tier: tierRecord},
	{ID: CategoryTerminationOrder, Severity: register.SeverityError, Label: "Termination before hire", Tier: tierRecord},
	{ID: CategoryNegativeTermination, Severity: register.SeverityError, Label: "Negative termination amount", Tier: tierRecord},
	{ID: CategoryDuplicateID, Severity: register.SeverityError, Label: "Duplicate employee ID", Tier: tierRegister},
	{ID: CategoryCrossDuplicate, Severity: register.SeverityError, Label: "Cross-register duplicate", Tier: tierCrossRegister},
	{ID: CategorySupplementaryActive, Severity: register.SeverityError, Label: "Supplementary record not in active register", Tier: tierCrossRegister},
	{ID: CategoryTransferOutRetired, Severity: register.SeverityError, Label: "Transferred-out employee in retired register", Tier: tierCrossRegister},
	{ID: CategoryAggregateMismatch, Severity: register.SeverityError, Label: "Aggregate mismatch", Tier: tierCrossRegister},
}

func init() {
	for _, c := range categories {
		register.RegisterCategory(c)
	}
}
