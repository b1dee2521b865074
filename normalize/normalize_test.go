package normalize_test

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/register-review/normalize"
	"github.com/warp/register-review/register"
)

func TestEmployeeID(t *testing.T) {
	tests := []struct {
		name string
		in   any
		opts []normalize.IDOption
		want string
	}{
		{"plain", "A-17", nil, "A-17"},
		{"whitespace", "  1234 ", nil, "1234"},
		{"float artifact text", "2120.0", nil, "2120"},
		{"float artifact many zeros", "2120.000", nil, "2120"},
		{"double suffix kept", "12.0.0", nil, "12.0.0"},
		{"suffix without digits kept", ".0.0", nil, ".0.0"},
		{"inner space kept", "7.0 .0", nil, "7.0 .0"},
		{"non-numeric suffix kept", "A-7.0", nil, "A-7.0"},
		{"fraction kept", "12.5", nil, "12.5"},
		{"float value", 2120.0, nil, "2120"},
		{"int value", 77, nil, "77"},
		{"nan text", "nan", nil, ""},
		{"None text", "None", nil, ""},
		{"NaN float", math.NaN(), nil, ""},
		{"nil", nil, nil, ""},
		{"padded", "12", []normalize.IDOption{normalize.WithMinWidth(4)}, "0012"},
		{"padded float", 7.0, []normalize.IDOption{normalize.WithMinWidth(4)}, "0007"},
		{"wider than pad", "123456", []normalize.IDOption{normalize.WithMinWidth(4)}, "123456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalize.EmployeeID(tt.in, tt.opts...)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, normalize.EmployeeID(got, tt.opts...), "must be idempotent")
		})
	}
}

func TestDate_Formats(t *testing.T) {
	want := register.NewDate(2020, time.January, 15)

	tests := []struct {
		name string
		in   any
		want register.Date
	}{
		{"8-digit text", "20200115", want},
		{"8-digit float text", "20200115.0", want},
		{"8-digit int", 20200115, want},
		{"8-digit float", 20200115.0, want},
		{"6-digit below pivot", "200115", want},
		{"6-digit above pivot", "850315", register.NewDate(1985, time.March, 15)},
		{"6-digit at pivot", "500101", register.NewDate(1950, time.January, 1)},
		{"6-digit just below pivot", "491231", register.NewDate(2049, time.December, 31)},
		{"dashed", "2020-01-15", want},
		{"dotted", "2020.01.15", want},
		{"slashed", "2020/01/15", want},
		{"timestamp text", "2020-01-15 00:00:00", want},
		{"native time", time.Date(2020, 1, 15, 13, 45, 0, 0, time.UTC), want},
		{"register date", want, want},
		{"impossible day", "20230230", register.Date{}},
		{"month 13", "20231301", register.Date{}},
		{"7 digits", "2020011", register.Date{}},
		{"garbage", "soon", register.Date{}},
		{"blank", "nan", register.Date{}},
		{"nil", nil, register.Date{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.Date(tt.in))
		})
	}
}

func TestDate_EightDigitRoundTrip(t *testing.T) {
	// Every valid calendar date from 1930 through 2070 survives
	// normalize -> Compact unchanged.
	for d := register.NewDate(1930, 1, 1); d.Year() <= 2070; d = d.AddDays(1) {
		text := d.Compact()
		got := normalize.Date(text)
		require.False(t, got.IsZero(), text)
		require.Equal(t, text, got.Compact())
	}
}

func TestMonthDayOutOfRange(t *testing.T) {
	assert.True(t, normalize.MonthDayOutOfRange("20231301"))
	assert.True(t, normalize.MonthDayOutOfRange("20230132"))
	assert.True(t, normalize.MonthDayOutOfRange("851340"))
	assert.False(t, normalize.MonthDayOutOfRange("20230230"), "Feb 30 passes the coarse range check")
	assert.False(t, normalize.MonthDayOutOfRange("20231231.0"))
	assert.False(t, normalize.MonthDayOutOfRange("12"))
}

func TestDecimal(t *testing.T) {
	tests := []struct {
		name  string
		in    any
		want  string
		valid bool
	}{
		{"thousands", "3,000,000", "3000000", true},
		{"currency", "₩1,500", "1500", true},
		{"won suffix", "2,000원", "2000", true},
		{"lone hyphen", "-", "", false},
		{"double hyphen", "--", "", false},
		{"stray hyphen inside", "12-500", "12500", true},
		{"leading sign kept", "-500", "-500", true},
		{"accounting negative", "(1,200)", "-1200", true},
		{"decimal text", "1.25", "1.25", true},
		{"float", 2.5, "2.5", true},
		{"int", 42, "42", true},
		{"nan text", "NaN", "", false},
		{"nan float", math.NaN(), "", false},
		{"words", "n/a", "", false},
		{"nil", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalize.Decimal(tt.in)
			require.Equal(t, tt.valid, got.Valid)
			if tt.valid {
				assert.True(t, decimal.RequireFromString(tt.want).Equal(got.Decimal), "got %s", got.Decimal)
			}
		})
	}
}

func TestEnums(t *testing.T) {
	assert.Equal(t, register.GenderFemale, normalize.Gender("2"))
	assert.Equal(t, register.GenderMale, normalize.Gender(1.0))
	assert.Equal(t, register.GenderUnknown, normalize.Gender("3"))

	assert.Equal(t, register.EmployeeTypeExecutive, normalize.EmployeeType("3.0"))
	assert.Equal(t, register.EmployeeTypeContract, normalize.EmployeeType(4))
	assert.Equal(t, register.EmployeeTypeUnknown, normalize.EmployeeType("2"), "code 2 is outside the domain")

	assert.Equal(t, register.PlanType3, normalize.PlanType("3"))
	assert.Equal(t, register.PlanTypeUnknown, normalize.PlanType("1.5"))

	assert.Equal(t, register.RetiredReasonDCConversion, normalize.Reason(register.RoleRetired, "2"))
	assert.Equal(t, register.ReasonUnknown, normalize.Reason(register.RoleRetired, "5"))
	assert.Equal(t, register.SupplementaryLongTerm, normalize.Reason(register.RoleSupplementary, 5))
	assert.Equal(t, register.ReasonUnknown, normalize.Reason(register.RoleActive, 1))
}

func TestRecord(t *testing.T) {
	// GIVEN: a supplementary row with mixed encodings
	raw := map[register.Field]any{
		register.FieldEmployeeID:   12.0,
		register.FieldHireDate:     "150301",
		register.FieldBirthDate:    "bad",
		register.FieldReasonCode:   "1",
		register.FieldBaseSalary:   "2,500,000",
		register.FieldEmployeeType: "nan",
	}

	// WHEN: it is normalized
	rec := normalize.Record(register.RoleSupplementary, raw, normalize.WithRow(7))

	// THEN: values are canonical and raw date text is retained
	assert.Equal(t, "0012", rec.ID)
	assert.Equal(t, 7, rec.Row)
	assert.Equal(t, "2015-03-01", rec.HireDate.String())
	assert.True(t, rec.BirthDate.IsZero())
	assert.Equal(t, register.SupplementaryTransferIn, rec.Reason)
	assert.True(t, rec.BaseSalary.Valid)
	assert.Equal(t, register.EmployeeTypeUnknown, rec.EmployeeType)
	assert.Equal(t, map[register.Field]string{
		register.FieldHireDate:  "150301",
		register.FieldBirthDate: "bad",
	}, rec.RawDates)

	active := normalize.Record(register.RoleActive, map[register.Field]any{register.FieldEmployeeID: "12"})
	assert.Equal(t, "12", active.ID, "active IDs are not padded")

	unpadded := normalize.Record(register.RoleSupplementary, raw, normalize.WithIDWidth(0))
	assert.Equal(t, "12", unpadded.ID)
}
