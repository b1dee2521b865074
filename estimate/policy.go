/*
policy.go - Multiplier policies for the benefit estimate

PURPOSE:
  The estimate is salary x service years x multiplier. The multiplier comes
  from the record (applicable_multiplier) and, under a progressive plan,
  from a tenure threshold table.

POLICIES:
  FlatPolicy:
    - The record multiplier as normalized (absent -> 1.0)

  ProgressivePolicy:
    - A record multiplier other than 1.0 wins (it was set deliberately)
    - Otherwise the entry with the greatest MinTenureYears <= service years
    - No qualifying entry -> 1.0

  Example table:
    {MinTenureYears: 0,  Multiplier: 1.0}
    {MinTenureYears: 5,  Multiplier: 1.2}
    {MinTenureYears: 10, Multiplier: 1.5}
    7 years -> 1.2, 10 years -> 1.5, 4.999 years -> 1.0

PERCENT HEURISTIC:
  Registers sometimes write 150 meaning 1.5. A record multiplier whose magnitude
  reaches PercentCutoff (default 10) is divided by 100. The cutoff is configurable and
  the heuristic can be disabled.

SEE ALSO:
  - estimator.go: applies the policy per record
  - factory/policy.go: builds policies from JSON/YAML
*/
package estimate

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/register-review/register"
)

// =============================================================================
// POLICY INTERFACE
// =============================================================================

type PolicyKind string

const (
	PolicyFlat        PolicyKind = "flat"
	PolicyProgressive PolicyKind = "progressive"
)

// MultiplierPolicy picks the multiplier for one record.
type MultiplierPolicy interface {
	Kind() PolicyKind

	// Select returns the multiplier given the record's normalized multiplier
	// and its service years.
	Select(recordMultiplier, serviceYears decimal.Decimal) decimal.Decimal
}

var one = decimal.NewFromInt(1)

// DefaultPercentCutoff is the record multiplier at or above which the value
// is read as a percentage.
var DefaultPercentCutoff = decimal.NewFromInt(10)

var hundred = decimal.NewFromInt(100)

// NormalizeMultiplier maps an absent or zero multiplier to 1.0 and reads
// values with |value| >= cutoff as percentages. A zero cutoff disables the percentage
// reading.
func NormalizeMultiplier(raw decimal.NullDecimal, cutoff decimal.Decimal) decimal.Decimal {
	if !raw.Valid || raw.Decimal.IsZero() {
		return one
	}
	if cutoff.IsPositive() && raw.Decimal.Abs().GreaterThanOrEqual(cutoff) {
		return raw.Decimal.Div(hundred)
	}
	return raw.Decimal
}

// =============================================================================
// FLAT POLICY
// =============================================================================

type FlatPolicy struct{}

func (FlatPolicy) Kind() PolicyKind { return PolicyFlat }

func (FlatPolicy) Select(recordMultiplier, _ decimal.Decimal) decimal.Decimal {
	return recordMultiplier
}

// =============================================================================
// PROGRESSIVE POLICY
// =============================================================================

// Threshold is one row of a progressive multiplier table.
type Threshold struct {
	MinTenureYears decimal.Decimal `json:"min_tenure_years"`
	Multiplier     decimal.Decimal `json:"multiplier"`
}

type ProgressivePolicy struct {
	Thresholds []Threshold
}

// NewProgressivePolicy validates and sorts the table by MinTenureYears.
func NewProgressivePolicy(thresholds []Threshold) (*ProgressivePolicy, error) {
	if len(thresholds) == 0 {
		return nil, register.NewConfigError("thresholds", nil, "progressive policy needs at least one threshold")
	}
	sorted := make([]Threshold, len(thresholds))
	copy(sorted, thresholds)
	for i, th := range sorted {
		if th.MinTenureYears.IsNegative() {
			return nil, register.NewConfigError(fmt.Sprintf("thresholds[%d].min_tenure_years", i), th.MinTenureYears, "must not be negative")
		}
		if !th.Multiplier.IsPositive() {
			return nil, register.NewConfigError(fmt.Sprintf("thresholds[%d].multiplier", i), th.Multiplier, "must be positive")
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinTenureYears.LessThan(sorted[j].MinTenureYears)
	})
	return &ProgressivePolicy{Thresholds: sorted}, nil
}

func (p *ProgressivePolicy) Kind() PolicyKind { return PolicyProgressive }

func (p *ProgressivePolicy) Select(recordMultiplier, serviceYears decimal.Decimal) decimal.Decimal {
	if !recordMultiplier.Equal(one) {
		return recordMultiplier
	}
	return p.Lookup(serviceYears)
}

// Lookup returns the multiplier of the greatest threshold <= serviceYears.
// Equal thresholds resolve to the higher multiplier.
func (p *ProgressivePolicy) Lookup(serviceYears decimal.Decimal) decimal.Decimal {
	var best *Threshold
	for i := range p.Thresholds {
		th := &p.Thresholds[i]
		if th.MinTenureYears.GreaterThan(serviceYears) {
			continue
		}
		if best == nil ||
			th.MinTenureYears.GreaterThan(best.MinTenureYears) ||
			(th.MinTenureYears.Equal(best.MinTenureYears) && th.Multiplier.GreaterThan(best.Multiplier)) {
			best = th
		}
	}
	if best == nil {
		return one
	}
	return best.Multiplier
}
