package validate

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/register-review/normalize"
	"github.com/warp/register-review/register"
)

// =============================================================================
// TIER C - Across registers
// =============================================================================

// firstByID returns distinct IDs in first-occurrence order with their first
// record.
func firstByID(reg *register.Register) ([]string, map[string]*register.Employee) {
	first := make(map[string]*register.Employee)
	var order []string
	for i := range reg.Records {
		rec := &reg.Records[i]
		if !rec.HasID() {
			continue
		}
		if _, ok := first[rec.ID]; !ok {
			first[rec.ID] = rec
			order = append(order, rec.ID)
		}
	}
	return order, first
}

// crossRegisterDuplicates flags every ID present in both the active and the
// retired register once against each sheet.
func crossRegisterDuplicates(b register.Batch) []register.Finding {
	if b.Active == nil || b.Retired == nil {
		return nil
	}
	activeOrder, activeFirst := firstByID(b.Active)
	retiredOrder, retiredFirst := firstByID(b.Retired)

	var findings []register.Finding
	for _, id := range activeOrder {
		if _, ok := retiredFirst[id]; ok {
			findings = append(findings, register.NewFinding(b.Active.Sheet(), CategoryCrossDuplicate, activeFirst[id], register.FieldEmployeeID,
				fmt.Sprintf("employee ID %s also appears in %s", id, b.Retired.Sheet())))
		}
	}
	for _, id := range retiredOrder {
		if _, ok := activeFirst[id]; ok {
			findings = append(findings, register.NewFinding(b.Retired.Sheet(), CategoryCrossDuplicate, retiredFirst[id], register.FieldEmployeeID,
				fmt.Sprintf("employee ID %s also appears in %s", id, b.Active.Sheet())))
		}
	}
	return findings
}

// paddedIDSet indexes a register by IDs padded to the supplementary width so
// that "12" and "0012" meet.
func paddedIDSet(reg *register.Register) map[string]struct{} {
	if reg == nil {
		return nil
	}
	set := make(map[string]struct{})
	for _, id := range reg.IDs() {
		set[normalize.EmployeeID(id, normalize.WithMinWidth(normalize.SupplementaryIDWidth))] = struct{}{}
	}
	return set
}

// supplementaryReasons checks supplementary reason codes against the other
// registers. Checks against an absent register are skipped.
func supplementaryReasons(b register.Batch) []register.Finding {
	if b.Supplementary == nil {
		return nil
	}
	active, retired := paddedIDSet(b.Active), paddedIDSet(b.Retired)

	var findings []register.Finding
	for i := range b.Supplementary.Records {
		rec := &b.Supplementary.Records[i]
		if !rec.HasID() {
			continue
		}
		key := normalize.EmployeeID(rec.ID, normalize.WithMinWidth(normalize.SupplementaryIDWidth))

		switch rec.Reason {
		case register.SupplementaryTransferIn, register.SupplementaryLongTerm:
			if active == nil {
				continue
			}
			if _, ok := active[key]; !ok {
				findings = append(findings, register.NewFinding(b.Supplementary.Sheet(), CategorySupplementaryActive, rec, register.FieldReasonCode,
					fmt.Sprintf("reason %d requires employee ID %s in %s", rec.Reason, rec.ID, b.Active.Sheet())))
			}
		case register.SupplementaryTransferOut:
			if retired == nil {
				continue
			}
			if _, ok := retired[key]; ok {
				findings = append(findings, register.NewFinding(b.Supplementary.Sheet(), CategoryTransferOutRetired, rec, register.FieldReasonCode,
					fmt.Sprintf("transferred-out employee ID %s must not appear in %s", rec.ID, b.Retired.Sheet())))
			}
		}
	}
	return findings
}

// planSummary compares the reported summary figures with figures derived
// from the registers. Counts must match exactly, sums within tolerance.
func (v *Validator) planSummary(b register.Batch) []register.Finding {
	s := b.Summary
	if s == nil {
		return nil
	}
	sheet := s.Sheet()
	var findings []register.Finding
	mismatch := func(field register.Field, detail string) {
		findings = append(findings, register.NewFinding(sheet, CategoryAggregateMismatch, nil, field, detail))
	}

	if b.Active != nil && s.ActiveHeadcount != nil {
		if derived := len(b.Active.IDs()); derived != *s.ActiveHeadcount {
			mismatch("active_headcount", fmt.Sprintf("reported active headcount %d, %s has %d", *s.ActiveHeadcount, b.Active.Sheet(), derived))
		}
	}
	if b.Retired != nil && s.RetiredHeadcount != nil {
		if derived := len(b.Retired.IDs()); derived != *s.RetiredHeadcount {
			mismatch("retired_headcount", fmt.Sprintf("reported retired headcount %d, %s has %d", *s.RetiredHeadcount, b.Retired.Sheet(), derived))
		}
	}
	if b.Active != nil && s.EstimateTotal.Valid {
		derived := decimal.Zero
		for _, rec := range b.Active.Records {
			if rec.HasID() && rec.CurrentYearEstimate.Valid {
				derived = derived.Add(rec.CurrentYearEstimate.Decimal)
			}
		}
		if derived.Sub(s.EstimateTotal.Decimal).Abs().GreaterThan(v.cfg.AggregateTolerance.Decimal) {
			mismatch("estimate_total", fmt.Sprintf("reported estimate total %s, %s sums to %s",
				s.EstimateTotal.Decimal.StringFixed(0), b.Active.Sheet(), derived.StringFixed(0)))
		}
	}
	return findings
}
