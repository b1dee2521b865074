// Package normalize converts raw register cells into canonical values.
//
// Source registers are hand-maintained spreadsheets, so the same value shows
// up in many encodings:
//   - IDs read back as floats ("2120.0") or with stray whitespace
//   - dates as 8-digit or 6-digit numbers, strings, or native time values
//   - amounts with thousands separators, currency marks, placeholder hyphens
//   - placeholder text for blanks ("nan", "None", "NaN")
//
// Every function here is total: malformed input becomes the absent value
// (empty string, zero Date, invalid NullDecimal, Unknown enum) and is left
// for the validator to report.
package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// blankTokens are cell texts that mean "no value".
var blankTokens = map[string]struct{}{
	"":     {},
	"nan":  {},
	"NaN":  {},
	"NAN":  {},
	"None": {},
	"none": {},
	"null": {},
	"NULL": {},
	"NaT":  {},
}

// IsBlank reports whether a cell text is a blank placeholder.
func IsBlank(s string) bool {
	_, ok := blankTokens[strings.TrimSpace(s)]
	return ok
}

// Text renders a raw cell as trimmed text. The boolean is false for nil,
// blanks and values with no text form (NaN floats, zero times).
func Text(v any) (string, bool) {
	var s string
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		s = x
	case *string:
		if x == nil {
			return "", false
		}
		s = *x
	case int:
		s = strconv.Itoa(x)
	case int32:
		s = strconv.FormatInt(int64(x), 10)
	case int64:
		s = strconv.FormatInt(x, 10)
	case float32:
		return Text(float64(x))
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return "", false
		}
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case decimal.Decimal:
		s = x.String()
	case decimal.NullDecimal:
		if !x.Valid {
			return "", false
		}
		s = x.Decimal.String()
	case time.Time:
		if x.IsZero() {
			return "", false
		}
		s = x.Format("20060102")
	case interface{ String() string }:
		s = x.String()
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	if IsBlank(s) {
		return "", false
	}
	return s, true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// DigitsOnly drops every non-digit byte.
func DigitsOnly(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
