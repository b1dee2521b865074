package normalize

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// numericRegex validates a number after cleanup.
var numericRegex = regexp.MustCompile(`^(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// currencyMarks are stripped before parsing.
var currencyMarks = strings.NewReplacer(
	",", "", " ", "", "\u00a0", "",
	"$", "", "₩", "", "￦", "", "€", "", "£", "", "원", "",
)

// Decimal converts a raw cell into a decimal. Thousands separators,
// currency marks and stray hyphens (a lone "-" placeholder, or hyphens
// anywhere but the leading sign) are dropped. Accounting parentheses
// "(123)" and a leading "-" followed by a digit mean negative.
func Decimal(v any) decimal.NullDecimal {
	switch x := v.(type) {
	case nil:
		return decimal.NullDecimal{}
	case decimal.Decimal:
		return decimal.NewNullDecimal(x)
	case decimal.NullDecimal:
		return x
	case int:
		return decimal.NewNullDecimal(decimal.NewFromInt(int64(x)))
	case int64:
		return decimal.NewNullDecimal(decimal.NewFromInt(x))
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(decimal.NewFromFloat(x))
	}

	s, ok := Text(v)
	if !ok {
		return decimal.NullDecimal{}
	}
	return parseNumber(s)
}

func parseNumber(s string) decimal.NullDecimal {
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = currencyMarks.Replace(s)
	s = strings.TrimPrefix(s, "+")
	if len(s) > 1 && s[0] == '-' && (isDigit(s[1]) || s[1] == '.') {
		negative = !negative
		s = s[1:]
	}
	s = strings.ReplaceAll(s, "-", "")
	if s == "" || !numericRegex.MatchString(s) {
		return decimal.NullDecimal{}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	if negative {
		d = d.Neg()
	}
	return decimal.NewNullDecimal(d)
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// Int converts a raw cell into an integer; fractional values are absent.
func Int(v any) (int, bool) {
	d := Decimal(v)
	if !d.Valid || !d.Decimal.Equal(d.Decimal.Truncate(0)) {
		return 0, false
	}
	return int(d.Decimal.IntPart()), true
}
