package config

import "github.com/warp/register-review/factory"

// Document returns the preset document with the configured overrides
// applied. An empty preset starts from an empty document.
func (c ReviewConfig) Document() factory.ConfigJSON {
	var doc factory.ConfigJSON
	if c.Preset != "" {
		doc, _ = factory.LookupPreset(c.Preset)
	}
	if c.DayCount != "" {
		doc.DayCount = c.DayCount
	}
	if c.MinimumSalary > 0 {
		m := c.MinimumSalary
		doc.MinimumSalary = &m
	}
	if c.Workers > 0 {
		doc.Workers = c.Workers
	}
	return doc
}
