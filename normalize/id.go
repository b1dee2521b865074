package normalize

import (
	"regexp"
	"strings"
)

// SupplementaryIDWidth is the zero-pad width applied to supplementary IDs.
const SupplementaryIDWidth = 4

type idOptions struct {
	minWidth int
}

// IDOption customizes EmployeeID.
type IDOption func(*idOptions)

// WithMinWidth left-pads the ID with zeros up to n characters.
func WithMinWidth(n int) IDOption {
	return func(o *idOptions) { o.minWidth = n }
}

// floatIDRegex matches a whole-number ID that went through a float cell.
var floatIDRegex = regexp.MustCompile(`^(\d+)\.0+$`)

// EmployeeID canonicalizes an employee identifier: trims whitespace, cuts
// "123.0" float artifacts to "123" and optionally zero-pads. Other text is
// kept as is. Returns "" when the cell is blank. EmployeeID(EmployeeID(x)) == EmployeeID(x).
func EmployeeID(v any, opts ...IDOption) string {
	var o idOptions
	for _, opt := range opts {
		opt(&o)
	}

	s, ok := Text(v)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	if IsBlank(s) {
		return ""
	}
	if m := floatIDRegex.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	if o.minWidth > 0 && len(s) < o.minWidth {
		s = strings.Repeat("0", o.minWidth-len(s)) + s
	}
	return s
}
