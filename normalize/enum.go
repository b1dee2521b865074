package normalize

import "github.com/warp/register-review/register"

// Gender maps {1, 2} onto the gender enum.
func Gender(v any) register.Gender {
	switch n, _ := Int(v); register.Gender(n) {
	case register.GenderMale, register.GenderFemale:
		return register.Gender(n)
	}
	return register.GenderUnknown
}

// EmployeeType maps {1, 3, 4} onto the employee-type enum.
func EmployeeType(v any) register.EmployeeType {
	switch n, _ := Int(v); register.EmployeeType(n) {
	case register.EmployeeTypeStaff, register.EmployeeTypeExecutive, register.EmployeeTypeContract:
		return register.EmployeeType(n)
	}
	return register.EmployeeTypeUnknown
}

// PlanType maps {1, 2, 3} onto the plan-type enum.
func PlanType(v any) register.PlanType {
	switch n, _ := Int(v); register.PlanType(n) {
	case register.PlanType1, register.PlanType2, register.PlanType3:
		return register.PlanType(n)
	}
	return register.PlanTypeUnknown
}

// Reason maps a code onto the reason domain of the given role.
// Active records carry no reason.
func Reason(role register.Role, v any) register.ReasonCode {
	n, ok := Int(v)
	if !ok {
		return register.ReasonUnknown
	}
	for _, code := range register.ReasonDomain(role) {
		if code == register.ReasonCode(n) {
			return code
		}
	}
	return register.ReasonUnknown
}
