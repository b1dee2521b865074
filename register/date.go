package register

import (
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// DATE - Civil calendar date (register columns carry no time of day)
// =============================================================================

// Date is a calendar date at UTC midnight. The zero value means "absent".
type Date struct {
	Time time.Time
}

// NewDate builds a date. Out-of-range components normalize the way
// time.Date does; callers that need strict parsing validate first.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time value to its calendar date.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func Today() Date { return DateOf(time.Now()) }

// Comparison
func (d Date) IsZero() bool              { return d.Time.IsZero() }
func (d Date) Before(other Date) bool    { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool     { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool     { return d.Time.Equal(other.Time) }
func (d Date) AfterOrEqual(o Date) bool  { return !d.Before(o) }
func (d Date) BeforeOrEqual(o Date) bool { return !d.After(o) }

// Components
func (d Date) Year() int         { return d.Time.Year() }
func (d Date) Month() time.Month { return d.Time.Month() }
func (d Date) Day() int          { return d.Time.Day() }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format(time.DateOnly)
}

// Compact renders the 8-digit YYYYMMDD form used by source registers.
func (d Date) Compact() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format("20060102")
}

// DaysUntil returns the signed number of days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

// AddDays shifts the date by n days.
func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }

// AddMonths shifts by n calendar months, clamping the day to the end of
// the target month (Jan 31 + 1 month = Feb 28/29).
func (d Date) AddMonths(n int) Date {
	y, m := d.Year(), int(d.Month())-1+n
	y += m / 12
	m %= 12
	if m < 0 {
		m += 12
		y--
	}
	day := d.Day()
	if last := daysIn(y, time.Month(m+1)); day > last {
		day = last
	}
	return NewDate(y, time.Month(m+1), day)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthsBetween returns the whole calendar months from `from` to `to` and the
// days left over after them. Months are counted first, with month-end
// clamping, then the residual days. Returns (0, 0) when to precedes from.
func MonthsBetween(from, to Date) (months, residualDays int) {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return 0, 0
	}
	months = (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	anchor := from.AddMonths(months)
	for months > 0 && anchor.After(to) {
		months--
		anchor = from.AddMonths(months)
	}
	return months, anchor.DaysUntil(to)
}

// =============================================================================
// JSON - "YYYY-MM-DD" or null
// =============================================================================

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
