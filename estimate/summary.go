package estimate

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// DEVIATION BANDS
// =============================================================================

type Band string

const (
	BandMatch Band = "match" // error rate < 5%
	BandMid   Band = "mid"   // 5% <= error rate < 10%
	BandHigh  Band = "high"  // error rate >= 10%
)

// Bands lists bands from worst to best, the order reports use.
var Bands = []Band{BandHigh, BandMid, BandMatch}

var (
	midThreshold  = decimal.NewFromInt(5)
	highThreshold = decimal.NewFromInt(10)
)

// Classify places an error rate in its band.
func Classify(errorRatePct decimal.Decimal) Band {
	switch {
	case errorRatePct.GreaterThanOrEqual(highThreshold):
		return BandHigh
	case errorRatePct.GreaterThanOrEqual(midThreshold):
		return BandMid
	}
	return BandMatch
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summary aggregates a reconciliation.
type Summary struct {
	TotalCount         int             `json:"total_count"`
	HighDeviationCount int             `json:"high_deviation_count"` // error rate >= 5%
	MatchRatePct       decimal.Decimal `json:"match_rate_pct"`
	NonComparableCount int             `json:"non_comparable_count"`
	BandCounts         map[Band]int    `json:"band_counts"`
}

// Summarize counts rows by band. HighDeviationCount includes both the mid
// and high bands. MatchRatePct is 0 for an empty reconciliation.
func Summarize(rows []Row) Summary {
	s := Summary{
		TotalCount:   len(rows),
		MatchRatePct: decimal.Zero,
		BandCounts:   map[Band]int{BandHigh: 0, BandMid: 0, BandMatch: 0},
	}
	for _, r := range rows {
		s.BandCounts[r.Band]++
		if r.ErrorRatePct.GreaterThanOrEqual(midThreshold) {
			s.HighDeviationCount++
		}
		if !r.Comparable {
			s.NonComparableCount++
		}
	}
	if s.TotalCount > 0 {
		matched := decimal.NewFromInt(int64(s.TotalCount - s.HighDeviationCount))
		s.MatchRatePct = matched.Div(decimal.NewFromInt(int64(s.TotalCount))).Mul(hundred).Round(2)
	}
	return s
}

// GroupByBand splits rows by band, keeping row order within each band.
func GroupByBand(rows []Row) map[Band][]Row {
	out := make(map[Band][]Row, len(Bands))
	for _, r := range rows {
		out[r.Band] = append(out[r.Band], r)
	}
	return out
}
