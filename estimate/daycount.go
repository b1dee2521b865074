package estimate

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/register-review/register"
)

// =============================================================================
// DAY-COUNT METHOD - How elapsed service is turned into years
// =============================================================================

type DayCount string

const (
	// DayCountActual counts calendar days inclusive of both ends: (days+1)/365.
	DayCountActual DayCount = "actual"

	// DayCountMonthRoundUp counts whole months and rounds any leftover
	// days up to one more month: months/12.
	DayCountMonthRoundUp DayCount = "month_round_up"

	// DayCountMonthRoundDown counts whole months and drops leftover days.
	DayCountMonthRoundDown DayCount = "month_round_down"
)

var (
	daysPerYear   = decimal.NewFromInt(365)
	monthsPerYear = decimal.NewFromInt(12)
)

// DayCounts lists the supported methods.
var DayCounts = []DayCount{DayCountActual, DayCountMonthRoundUp, DayCountMonthRoundDown}

// ParseDayCount validates a method name.
func ParseDayCount(s string) (DayCount, error) {
	for _, dc := range DayCounts {
		if string(dc) == s {
			return dc, nil
		}
	}
	return "", &register.ConfigError{Field: "day_count", Value: s, Reason: "expected actual, month_round_up or month_round_down", Err: register.ErrUnknownDayCount}
}

// ServiceYears measures service from start to base. Service is zero when
// start is absent or falls after base.
func ServiceYears(start, base register.Date, method DayCount) (decimal.Decimal, error) {
	if start.IsZero() || base.IsZero() || start.After(base) {
		return decimal.Zero, nil
	}

	switch method {
	case DayCountActual:
		days := start.DaysUntil(base) + 1
		return decimal.NewFromInt(int64(days)).Div(daysPerYear), nil

	case DayCountMonthRoundUp:
		months, rest := register.MonthsBetween(start, base)
		if rest > 0 {
			months++
		}
		return decimal.NewFromInt(int64(months)).Div(monthsPerYear), nil

	case DayCountMonthRoundDown:
		months, _ := register.MonthsBetween(start, base)
		return decimal.NewFromInt(int64(months)).Div(monthsPerYear), nil
	}
	return decimal.Zero, fmt.Errorf("%w: %q", register.ErrUnknownDayCount, method)
}

// ServiceStart is the interim settlement date when present, otherwise the
// hire date.
func ServiceStart(rec register.Employee) register.Date {
	if !rec.InterimSettlementDate.IsZero() {
		return rec.InterimSettlementDate
	}
	return rec.HireDate
}
