package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/warp/register-review/register"
)

// TwoDigitYearPivot splits 6-digit YYMMDD dates: YY below the pivot is
// 20YY, at or above it is 19YY.
const TwoDigitYearPivot = 50

// separatedLayouts are the punctuated forms spreadsheet tools emit.
var separatedLayouts = []string{
	"2006-01-02", "2006.01.02", "2006/01/02",
	"2006-01-02 15:04:05", "2006-01-02T15:04:05",
	"2006. 1. 2", "2006.1.2", "2006-1-2", "2006/1/2",
}

// Date converts a raw cell into a calendar date. Accepted forms:
//   - native time.Time / register.Date values
//   - 8-digit YYYYMMDD (number or text, optional trailing ".0")
//   - 6-digit YYMMDD with the TwoDigitYearPivot century rule
//   - punctuated YYYY-MM-DD, YYYY.MM.DD, YYYY/MM/DD
//
// Anything else, including impossible calendar dates, is absent.
func Date(v any) register.Date {
	switch x := v.(type) {
	case nil:
		return register.Date{}
	case register.Date:
		return x
	case *register.Date:
		if x == nil {
			return register.Date{}
		}
		return *x
	case time.Time:
		return register.DateOf(x)
	case *time.Time:
		if x == nil {
			return register.Date{}
		}
		return register.DateOf(*x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) || x != math.Trunc(x) || x < 0 {
			return register.Date{}
		}
		return parseDateText(strconv.FormatFloat(x, 'f', 0, 64))
	}

	s, ok := Text(v)
	if !ok {
		return register.Date{}
	}
	return parseDateText(s)
}

func parseDateText(s string) register.Date {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".0")

	if allDigits(s) {
		switch len(s) {
		case 8:
			y, _ := strconv.Atoi(s[0:4])
			m, _ := strconv.Atoi(s[4:6])
			d, _ := strconv.Atoi(s[6:8])
			return civil(y, m, d)
		case 6:
			yy, _ := strconv.Atoi(s[0:2])
			m, _ := strconv.Atoi(s[2:4])
			d, _ := strconv.Atoi(s[4:6])
			if yy < TwoDigitYearPivot {
				return civil(2000+yy, m, d)
			}
			return civil(1900+yy, m, d)
		}
		return register.Date{}
	}

	for _, layout := range separatedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return register.DateOf(t)
		}
	}
	return register.Date{}
}

// civil builds a date only if y-m-d names a real calendar day.
func civil(y, m, d int) register.Date {
	if y < 1 || m < 1 || m > 12 || d < 1 {
		return register.Date{}
	}
	if d > time.Date(y, time.Month(m)+1, 0, 0, 0, 0, 0, time.UTC).Day() {
		return register.Date{}
	}
	return register.NewDate(y, time.Month(m), d)
}

// MonthDayOutOfRange reads the last four digits of a raw date text as MMDD
// and reports whether month > 12 or day > 31. Texts with fewer than four
// digits are not judged.
func MonthDayOutOfRange(raw string) bool {
	digits := DigitsOnly(strings.TrimSuffix(strings.TrimSpace(raw), ".0"))
	if len(digits) < 4 {
		return false
	}
	tail := digits[len(digits)-4:]
	month, _ := strconv.Atoi(tail[:2])
	day, _ := strconv.Atoi(tail[2:])
	return month > 12 || day > 31
}
