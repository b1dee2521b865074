/*
validator.go - Rule Validator for retirement-benefit registers

PURPOSE:
  Applies the review rules to a Batch and returns every defect as a Finding.
  Data defects never fail validation; only a batch with a register under the
  wrong role is rejected.

RULE TIERS:
  Tier A (record_rules.go):
    One record at a time: required fields, signs, date order, age at hire,
    raw date sanity, salary floor, interim settlement amount.

  Tier B (register_rules.go):
    One register at a time: duplicate employee IDs.

  Tier C (cross_rules.go):
    Across registers: active/retired overlap, supplementary reason codes,
    plan summary totals.

ORDERING:
  Findings come out Tier A (active, retired, supplementary; record order),
  then Tier B per register, then Tier C. Tier A fans out across records but
  each record writes to its own slot, so the order never depends on
  scheduling.

RECORDS WITHOUT AN ID:
  Skipped by every tier and excluded from every count. They cannot be
  attributed to anyone.

SEE ALSO:
  - categories.go: category IDs and severities
  - review/run.go: calls Validate alongside the estimator
*/
package validate

import (
	"github.com/warp/register-review/register"
)

// SheetStats counts the records of one register. The plan summary gets an
// entry with finding counts only.
type SheetStats struct {
	Sheet    string        `json:"sheet"`
	Role     register.Role `json:"role"`
	Total    int           `json:"total"`   // records with an employee ID
	Valid    int           `json:"valid"`   // Total - Invalid
	Invalid  int           `json:"invalid"` // records with a record-level error or a duplicated ID
	Errors   int           `json:"errors"`
	Warnings int           `json:"warnings"`
}

// Result is the validator output.
type Result struct {
	Findings []register.Finding `json:"findings"`
	Sheets   []SheetStats       `json:"sheets"`
}

type Validator struct {
	cfg Config
}

// New builds a Validator with defaults applied.
func New(cfg Config) (*Validator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Validator{cfg: cfg.withDefaults()}, nil
}

// Config returns the effective configuration.
func (v *Validator) Config() Config { return v.cfg }

// Validate runs every tier over the batch.
func (v *Validator) Validate(b register.Batch) (*Result, error) {
	if err := b.CheckShape(); err != nil {
		return nil, err
	}

	res := &Result{Findings: []register.Finding{}}
	type registerState struct {
		reg        *register.Register
		records    []register.Employee
		recordErrs []bool
	}
	var states []registerState

	// Tier A
	for _, reg := range b.Registers() {
		records := withIDs(reg)
		perRecord := make([][]register.Finding, len(records))
		register.Each(len(records), v.cfg.Workers, func(i int) {
			perRecord[i] = v.checkRecord(reg, &records[i])
		})

		st := registerState{reg: reg, records: records, recordErrs: make([]bool, len(records))}
		for i, fs := range perRecord {
			for _, f := range fs {
				if f.IsError() {
					st.recordErrs[i] = true
				}
			}
			res.Findings = append(res.Findings, fs...)
		}
		states = append(states, st)
	}

	// Tier B
	for _, st := range states {
		dupFindings, dupIDs := duplicateIDs(st.reg, st.records)
		res.Findings = append(res.Findings, dupFindings...)
		for i, rec := range st.records {
			if _, ok := dupIDs[rec.ID]; ok {
				st.recordErrs[i] = true
			}
		}
	}

	// Tier C
	res.Findings = append(res.Findings, crossRegisterDuplicates(b)...)
	res.Findings = append(res.Findings, supplementaryReasons(b)...)
	res.Findings = append(res.Findings, v.planSummary(b)...)

	for _, st := range states {
		stats := SheetStats{Sheet: st.reg.Sheet(), Role: st.reg.Role, Total: len(st.records)}
		for _, bad := range st.recordErrs {
			if bad {
				stats.Invalid++
			}
		}
		stats.Valid = stats.Total - stats.Invalid
		stats.countFindings(res.Findings)
		res.Sheets = append(res.Sheets, stats)
	}
	if b.Summary != nil {
		stats := SheetStats{Sheet: b.Summary.Sheet(), Role: register.RolePlanSummary}
		stats.countFindings(res.Findings)
		res.Sheets = append(res.Sheets, stats)
	}
	return res, nil
}

func (s *SheetStats) countFindings(findings []register.Finding) {
	for _, f := range findings {
		if f.Sheet != s.Sheet {
			continue
		}
		if f.IsError() {
			s.Errors++
		} else {
			s.Warnings++
		}
	}
}

// withIDs returns the records that have an employee ID, in order.
func withIDs(reg *register.Register) []register.Employee {
	out := make([]register.Employee, 0, len(reg.Records))
	for _, rec := range reg.Records {
		if rec.HasID() {
			out = append(out, rec)
		}
	}
	return out
}
