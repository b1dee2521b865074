/*
run.go - Entry point of the review engine

PURPOSE:
  Run is a pure function of (registers, configuration): it validates the
  batch, recomputes the active register's estimates and aggregates both
  into one Result. It performs no I/O.

FLOW:
  1. Build the validator and estimator (configuration errors stop here)
  2. Check the batch shape
  3. Validate and estimate concurrently (they share nothing)
  4. Aggregate: group findings, summarize the reconciliation

ERRORS:
  Only configuration problems and shape violations. Every data defect is a
  Finding in the Result.

SEE ALSO:
  - aggregate.go: grouping and summary lines
  - validate/validator.go, estimate/estimator.go: the two halves
*/
package review

import (
	"golang.org/x/sync/errgroup"

	"github.com/warp/register-review/estimate"
	"github.com/warp/register-review/register"
	"github.com/warp/register-review/validate"
)

// Result is everything one review produces.
type Result struct {
	BaseDate register.Date       `json:"base_date"`
	DayCount estimate.DayCount   `json:"day_count"`
	Policy   estimate.PolicyKind `json:"policy"`

	Findings []register.Finding    `json:"findings"`
	Grouped  []SheetFindings       `json:"grouped"`
	Sheets   []validate.SheetStats `json:"sheets"`
	Totals   Totals                `json:"totals"`

	Reconciliation []estimate.Row                    `json:"reconciliation"`
	Summary        estimate.Summary                 `json:"summary"`
	BandGroups     map[estimate.Band][]estimate.Row `json:"band_groups"`

	SummaryLines []string `json:"summary_lines"`

	// ActiveMissing is set when the batch has no active register. The
	// reconciliation is then empty.
	ActiveMissing bool `json:"active_missing"`
}

// Run reviews one batch.
func Run(b register.Batch, cfg Config) (*Result, error) {
	v, err := validate.New(cfg.validatorConfig())
	if err != nil {
		return nil, err
	}
	e, err := estimate.New(cfg.estimatorConfig())
	if err != nil {
		return nil, err
	}
	if err := b.CheckShape(); err != nil {
		return nil, err
	}

	var (
		validation *validate.Result
		rows       []estimate.Row
		g          errgroup.Group
	)
	g.Go(func() error {
		var err error
		validation, err = v.Validate(b)
		return err
	})
	g.Go(func() error {
		rows = e.Estimate(b.Active)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := Aggregate(validation, rows)
	res.BaseDate = cfg.BaseDate
	res.DayCount = e.Config().DayCount
	res.Policy = e.Config().Policy.Kind()
	res.ActiveMissing = b.Active == nil
	return res, nil
}
