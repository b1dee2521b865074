/*
Package factory provides JSON/YAML to Go review configuration conversion.

PURPOSE:
  Converts review configuration documents into review.Config, including the
  multiplier policy. Actuaries can change the valuation date, day-count
  method or progressive table without code changes.

WHY A DOCUMENT?
  - Non-developers can adjust thresholds
  - The same document drives the CLI, the HTTP API and stored runs
  - Version control for valuation assumptions

SCHEMA (YAML shown; JSON with the same keys is accepted):
  base_date: "2024-12-31"
  day_count: month_round_up        # actual | month_round_up | month_round_down
  policy:
    type: progressive              # flat | progressive
    thresholds:
      - {min_tenure_years: 0,  multiplier: 1.0}
      - {min_tenure_years: 5,  multiplier: 1.2}
      - {min_tenure_years: 10, multiplier: 1.5}
  percent_cutoff: 10               # record multipliers >= cutoff are percentages; 0 disables
  minimum_salary: 1700000
  staff_type_threshold: 2
  hire_age: {min: 17, max: 70}
  age_method: calendar_year        # calendar_year | exact
  aggregate_tolerance: 1
  workers: 0

USAGE:
  f := factory.NewConfigFactory()
  cfg, err := f.ParseConfig(data)

  // From a preset, then override the base date
  doc, _ := factory.LookupPreset("executive_progressive")
  doc.BaseDate = "2024-12-31"
  cfg, err := f.FromJSON(doc)

SEE ALSO:
  - presets.go: named configurations
  - review/config.go: target type
  - estimate/policy.go: policy implementations
*/
package factory

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/register-review/estimate"
	"github.com/warp/register-review/register"
	"github.com/warp/register-review/review"
	"github.com/warp/register-review/validate"
)

// =============================================================================
// SCHEMA TYPES
// =============================================================================

// ConfigJSON is the document form of review.Config.
type ConfigJSON struct {
	BaseDate           string       `json:"base_date,omitempty" yaml:"base_date,omitempty"`
	DayCount           string       `json:"day_count,omitempty" yaml:"day_count,omitempty"`
	Policy             *PolicyJSON  `json:"policy,omitempty" yaml:"policy,omitempty"`
	PercentCutoff      *float64     `json:"percent_cutoff,omitempty" yaml:"percent_cutoff,omitempty"`
	MinimumSalary      *float64     `json:"minimum_salary,omitempty" yaml:"minimum_salary,omitempty"`
	StaffTypeThreshold int          `json:"staff_type_threshold,omitempty" yaml:"staff_type_threshold,omitempty"`
	HireAge            *HireAgeJSON `json:"hire_age,omitempty" yaml:"hire_age,omitempty"`
	AgeMethod          string       `json:"age_method,omitempty" yaml:"age_method,omitempty"`
	AggregateTolerance *float64     `json:"aggregate_tolerance,omitempty" yaml:"aggregate_tolerance,omitempty"`
	Workers            int          `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// PolicyJSON selects the multiplier policy.
type PolicyJSON struct {
	Type       string          `json:"type" yaml:"type"` // flat, progressive
	Thresholds []ThresholdJSON `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
}

// ThresholdJSON is one progressive table row.
type ThresholdJSON struct {
	MinTenureYears float64 `json:"min_tenure_years" yaml:"min_tenure_years"`
	Multiplier     float64 `json:"multiplier" yaml:"multiplier"`
}

// HireAgeJSON bounds the age at hire.
type HireAgeJSON struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// =============================================================================
// CONFIG FACTORY
// =============================================================================

// ConfigFactory converts documents to review configuration.
type ConfigFactory struct{}

// NewConfigFactory creates a new config factory.
func NewConfigFactory() *ConfigFactory {
	return &ConfigFactory{}
}

// Decode parses a JSON or YAML document without converting it.
func Decode(data []byte) (ConfigJSON, error) {
	var doc ConfigJSON
	if strings.TrimSpace(string(data)) == "" {
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, &register.ConfigError{Field: "document", Reason: err.Error()}
	}
	return doc, nil
}

// ParseConfig parses a JSON or YAML document into review.Config.
func (f *ConfigFactory) ParseConfig(data []byte) (review.Config, error) {
	doc, err := Decode(data)
	if err != nil {
		return review.Config{}, err
	}
	return f.FromJSON(doc)
}

// FromJSON converts the document form to review.Config. Missing fields take
// the component defaults; day_count defaults to actual.
func (f *ConfigFactory) FromJSON(doc ConfigJSON) (review.Config, error) {
	var cfg review.Config

	if doc.BaseDate != "" {
		d, err := register.ParseDate(doc.BaseDate)
		if err != nil {
			return cfg, register.NewConfigError("base_date", doc.BaseDate, "expected YYYY-MM-DD")
		}
		cfg.BaseDate = d
	}

	dayCount := doc.DayCount
	if dayCount == "" {
		dayCount = string(estimate.DayCountActual)
	}
	dc, err := estimate.ParseDayCount(dayCount)
	if err != nil {
		return cfg, err
	}
	cfg.DayCount = dc

	policy, err := parsePolicy(doc.Policy)
	if err != nil {
		return cfg, err
	}
	cfg.Policy = policy

	cfg.PercentCutoff = nullDecimal(doc.PercentCutoff)
	cfg.MinimumSalary = nullDecimal(doc.MinimumSalary)
	cfg.AggregateTolerance = nullDecimal(doc.AggregateTolerance)
	cfg.StaffTypeThreshold = doc.StaffTypeThreshold
	if doc.HireAge != nil {
		cfg.HireAgeMin, cfg.HireAgeMax = doc.HireAge.Min, doc.HireAge.Max
	}
	cfg.AgeMethod = validate.AgeMethod(doc.AgeMethod)
	cfg.Workers = doc.Workers
	return cfg, nil
}

func parsePolicy(pj *PolicyJSON) (estimate.MultiplierPolicy, error) {
	if pj == nil || pj.Type == "" || pj.Type == string(estimate.PolicyFlat) {
		return estimate.FlatPolicy{}, nil
	}
	if pj.Type != string(estimate.PolicyProgressive) {
		return nil, &register.ConfigError{Field: "policy.type", Value: pj.Type, Reason: "expected flat or progressive", Err: register.ErrUnknownPolicy}
	}

	thresholds := make([]estimate.Threshold, 0, len(pj.Thresholds))
	for _, tj := range pj.Thresholds {
		thresholds = append(thresholds, estimate.Threshold{
			MinTenureYears: decimal.NewFromFloat(tj.MinTenureYears),
			Multiplier:     decimal.NewFromFloat(tj.Multiplier),
		})
	}
	policy, err := estimate.NewProgressivePolicy(thresholds)
	if err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}
	return policy, nil
}

func nullDecimal(v *float64) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*v))
}

// ToJSON renders a review.Config back into document form.
func ToJSON(cfg review.Config) ConfigJSON {
	doc := ConfigJSON{
		BaseDate:           cfg.BaseDate.String(),
		DayCount:           string(cfg.DayCount),
		PercentCutoff:      floatPtr(cfg.PercentCutoff),
		MinimumSalary:      floatPtr(cfg.MinimumSalary),
		StaffTypeThreshold: cfg.StaffTypeThreshold,
		AgeMethod:          string(cfg.AgeMethod),
		AggregateTolerance: floatPtr(cfg.AggregateTolerance),
		Workers:            cfg.Workers,
	}
	if cfg.HireAgeMin != 0 || cfg.HireAgeMax != 0 {
		doc.HireAge = &HireAgeJSON{Min: cfg.HireAgeMin, Max: cfg.HireAgeMax}
	}
	switch p := cfg.Policy.(type) {
	case *estimate.ProgressivePolicy:
		pj := &PolicyJSON{Type: string(estimate.PolicyProgressive)}
		for _, th := range p.Thresholds {
			pj.Thresholds = append(pj.Thresholds, ThresholdJSON{
				MinTenureYears: th.MinTenureYears.InexactFloat64(),
				Multiplier:     th.Multiplier.InexactFloat64(),
			})
		}
		doc.Policy = pj
	default:
		doc.Policy = &PolicyJSON{Type: string(estimate.PolicyFlat)}
	}
	return doc
}

func floatPtr(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}

// Merge overlays the fields set in override onto base.
func Merge(base, override ConfigJSON) ConfigJSON {
	out := base
	if override.BaseDate != "" {
		out.BaseDate = override.BaseDate
	}
	if override.DayCount != "" {
		out.DayCount = override.DayCount
	}
	if override.Policy != nil {
		out.Policy = override.Policy
	}
	if override.PercentCutoff != nil {
		out.PercentCutoff = override.PercentCutoff
	}
	if override.MinimumSalary != nil {
		out.MinimumSalary = override.MinimumSalary
	}
	if override.StaffTypeThreshold != 0 {
		out.StaffTypeThreshold = override.StaffTypeThreshold
	}
	if override.HireAge != nil {
		out.HireAge = override.HireAge
	}
	if override.AgeMethod != "" {
		out.AgeMethod = override.AgeMethod
	}
	if override.AggregateTolerance != nil {
		out.AggregateTolerance = override.AggregateTolerance
	}
	if override.Workers != 0 {
		out.Workers = override.Workers
	}
	return out
}
