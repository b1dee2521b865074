package ingest

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/warp/register-review/normalize"
	"github.com/warp/register-review/register"
)

// Plan-summary sheets are fixed forms; values sit at known cells.
const (
	cellActiveHeadcount  = "I29"
	cellRetiredHeadcount = "I33"
	cellEstimateTotal    = "I39"
	cellRetirementAge    = "F103"
	cellWagePeak         = "F104"
	cellPlanKind         = "F109"
	cellPayScheme        = "I112"
	cellDiscountBasis    = "D121"

	wageGrowthFirstRow = 113
	wageGrowthLastRow  = 118
	wageGrowthYearCol  = "E"
	wageGrowthRateCol  = "F"
)

var rawValue = excelize.Options{RawCellValue: true}

// readPlanSummary extracts the reported totals and plan assumptions.
func readPlanSummary(f *excelize.File, sheet string) (*register.PlanSummary, error) {
	get := func(cell string) (string, error) {
		v, err := f.GetCellValue(sheet, cell, rawValue)
		if err != nil {
			return "", fmt.Errorf("cell %s: %w", cell, err)
		}
		return strings.TrimSpace(v), nil
	}

	cells := make(map[string]string)
	for _, cell := range []string{
		cellActiveHeadcount, cellRetiredHeadcount, cellEstimateTotal, cellRetirementAge,
		cellWagePeak, cellPlanKind, cellPayScheme, cellDiscountBasis,
	} {
		v, err := get(cell)
		if err != nil {
			return nil, err
		}
		cells[cell] = v
	}

	p := &register.PlanSummary{
		Name:              sheet,
		ActiveHeadcount:   intPtr(cells[cellActiveHeadcount]),
		RetiredHeadcount:  intPtr(cells[cellRetiredHeadcount]),
		EstimateTotal:     normalize.Decimal(cells[cellEstimateTotal]),
		RetirementAge:     intPtr(cells[cellRetirementAge]),
		WagePeak:          yesNo(cells[cellWagePeak]),
		PlanKind:          cells[cellPlanKind],
		PayScheme:         cells[cellPayScheme],
		DiscountRateBasis: cells[cellDiscountBasis],
	}

	for row := wageGrowthFirstRow; row <= wageGrowthLastRow; row++ {
		year, err := get(fmt.Sprintf("%s%d", wageGrowthYearCol, row))
		if err != nil {
			return nil, err
		}
		rate, err := get(fmt.Sprintf("%s%d", wageGrowthRateCol, row))
		if err != nil {
			return nil, err
		}
		if year == "" && rate == "" {
			continue
		}
		p.WageGrowthRates = append(p.WageGrowthRates, register.WageGrowth{Year: year, Rate: percent(rate)})
	}
	return p, nil
}

func intPtr(s string) *int {
	n, ok := normalize.Int(s)
	if !ok {
		return nil
	}
	return &n
}

var (
	yesWords = map[string]bool{"yes": true, "y": true, "o": true, "예": true, "유": true, "true": true, "1": true}
	noWords  = map[string]bool{"no": true, "n": true, "x": true, "아니오": true, "무": true, "false": true, "0": true}
)

func yesNo(s string) *bool {
	key := strings.ToLower(strings.TrimSpace(s))
	switch {
	case yesWords[key]:
		v := true
		return &v
	case noWords[key]:
		v := false
		return &v
	}
	return nil
}

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// percent reads a wage growth rate. Cells store fractions (0.035) or
// percent figures (3.5, "3.5%"); both come back as percent.
func percent(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	marked := strings.HasSuffix(s, "%")
	d := normalize.Decimal(strings.TrimSuffix(s, "%"))
	if !d.Valid {
		return decimal.Zero
	}
	if !marked && d.Decimal.Abs().LessThan(one) {
		return d.Decimal.Mul(hundred)
	}
	return d.Decimal
}
