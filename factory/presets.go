package factory

import (
	"sort"

	"github.com/warp/register-review/estimate"
)

// =============================================================================
// PRESETS - Named starting configurations
// =============================================================================

// Preset is a named configuration without a base date.
type Preset struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Config      ConfigJSON `json:"config"`
}

var presets = map[string]Preset{
	"statutory_flat": {
		Name:        "statutory_flat",
		Description: "Statutory severance: calendar-day service, record multiplier",
		Config: ConfigJSON{
			DayCount: string(estimate.DayCountActual),
			Policy:   &PolicyJSON{Type: string(estimate.PolicyFlat)},
		},
	},
	"monthly_flat": {
		Name:        "monthly_flat",
		Description: "Whole-month service rounded up, record multiplier",
		Config: ConfigJSON{
			DayCount: string(estimate.DayCountMonthRoundUp),
			Policy:   &PolicyJSON{Type: string(estimate.PolicyFlat)},
		},
	},
	"executive_progressive": {
		Name:        "executive_progressive",
		Description: "Whole-month service rounded up, 1.2x from 5 years, 1.5x from 10 years",
		Config: ConfigJSON{
			DayCount: string(estimate.DayCountMonthRoundUp),
			Policy: &PolicyJSON{
				Type: string(estimate.PolicyProgressive),
				Thresholds: []ThresholdJSON{
					{MinTenureYears: 0, Multiplier: 1.0},
					{MinTenureYears: 5, Multiplier: 1.2},
					{MinTenureYears: 10, Multiplier: 1.5},
				},
			},
		},
	},
}

// LookupPreset returns a copy of the named preset document.
func LookupPreset(name string) (ConfigJSON, bool) {
	p, ok := presets[name]
	if !ok {
		return ConfigJSON{}, false
	}
	doc := p.Config
	if p.Config.Policy != nil {
		pol := *p.Config.Policy
		pol.Thresholds = append([]ThresholdJSON(nil), pol.Thresholds...)
		doc.Policy = &pol
	}
	return doc, true
}

// Presets lists all presets sorted by name.
func Presets() []Preset {
	out := make([]Preset, 0, len(presets))
	for _, p := range presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
