// Package main provides the command line entry point for register reviews.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/register-review/estimate"
	"github.com/warp/register-review/export"
	"github.com/warp/register-review/factory"
	"github.com/warp/register-review/ingest"
	"github.com/warp/register-review/logging"
	"github.com/warp/register-review/register"
	"github.com/warp/register-review/review"
)

type runFlags struct {
	configPath  string
	baseDate    string
	method      string
	preset      string
	outPath     string
	pretty      bool
	logLevel    string
	failOnError bool
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "review",
		Short:         "Review retirement benefit registers",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(stdout)
	root.AddCommand(newRunCmd(), newPresetsCmd(), newCategoriesCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run [input.xlsx]",
		Short: "Validate a register workbook and reconcile its estimates",
		Long: `run reads the register sheets of a workbook, validates every record,
recomputes the active employees' estimates and prints the result as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReview(cmd, args[0], f)
		},
	}
	cmd.Flags().StringVar(&f.configPath, "config", "", "Review configuration document (YAML or JSON)")
	cmd.Flags().StringVar(&f.baseDate, "base-date", "", "Valuation date YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&f.method, "method", "", "Day count: actual, month_round_up or month_round_down")
	cmd.Flags().StringVar(&f.preset, "preset", "statutory_flat", "Starting preset")
	cmd.Flags().StringVarP(&f.outPath, "out", "o", "", "Also write an .xlsx report to this path")
	cmd.Flags().BoolVar(&f.pretty, "pretty", false, "Pretty-print JSON output")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	cmd.Flags().BoolVar(&f.failOnError, "fail-on-error", false, "Exit non-zero when any error finding is reported")
	return cmd
}

func newPresetsCmd() *cobra.Command {
	var pretty bool
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List the named review configurations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeJSON(cmd.OutOrStdout(), factory.Presets(), pretty)
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	return cmd
}

func newCategoriesCmd() *cobra.Command {
	var pretty bool
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List the finding categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeJSON(cmd.OutOrStdout(), register.ListCategories(), pretty)
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	return cmd
}

// output is the JSON printed by run.
type output struct {
	Source   string          `json:"source"`
	Workbook workbookSummary `json:"workbook"`
	Result   *review.Result  `json:"result"`
}

type workbookSummary struct {
	Sheets  []ingest.SheetInfo `json:"sheets"`
	Skipped []string           `json:"skipped,omitempty"`
	Errors  []string           `json:"errors,omitempty"`
}

func runReview(cmd *cobra.Command, inputPath string, f runFlags) error {
	logger, err := logging.New(f.logLevel, "console")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", inputPath)
	}

	doc, err := buildConfig(f)
	if err != nil {
		return err
	}
	cfg, err := factory.NewConfigFactory().FromJSON(doc)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	wb, err := ingest.ReadFile(inputPath)
	if wb != nil {
		for _, se := range wb.Errors {
			logger.Warn("sheet not loaded", zap.String("sheet", se.Sheet), zap.Error(se.Err))
		}
		for _, name := range wb.Skipped {
			logger.Debug("sheet skipped", zap.String("sheet", name))
		}
	}
	if err != nil {
		return fmt.Errorf("read workbook: %w", err)
	}

	res, err := review.Run(wb.Batch, cfg)
	if err != nil {
		return fmt.Errorf("review failed: %w", err)
	}
	logger.Info("review complete",
		zap.String("source", inputPath),
		zap.Int("records", res.Totals.Records),
		zap.Int("errors", res.Totals.Errors),
		zap.Int("warnings", res.Totals.Warnings))

	if f.outPath != "" {
		if err := writeReport(f.outPath, inputPath, res); err != nil {
			return err
		}
	}

	out := output{
		Source: inputPath,
		Workbook: workbookSummary{
			Sheets:  wb.Sheets,
			Skipped: wb.Skipped,
		},
		Result: res,
	}
	for _, se := range wb.Errors {
		out.Workbook.Errors = append(out.Workbook.Errors, se.Error())
	}
	if err := writeJSON(cmd.OutOrStdout(), out, f.pretty); err != nil {
		return err
	}

	if f.failOnError && res.Totals.Errors > 0 {
		return fmt.Errorf("%d error finding(s)", res.Totals.Errors)
	}
	return nil
}

// buildConfig layers the preset, the config file and the flags.
func buildConfig(f runFlags) (factory.ConfigJSON, error) {
	doc, ok := factory.LookupPreset(f.preset)
	if !ok {
		names := make([]string, 0)
		for _, p := range factory.Presets() {
			names = append(names, p.Name)
		}
		return doc, fmt.Errorf("unknown preset %q (available: %s)", f.preset, strings.Join(names, ", "))
	}

	if f.configPath != "" {
		data, err := os.ReadFile(f.configPath)
		if err != nil {
			return doc, fmt.Errorf("read config: %w", err)
		}
		fileDoc, err := factory.Decode(data)
		if err != nil {
			return doc, fmt.Errorf("parse config %s: %w", f.configPath, err)
		}
		doc = factory.Merge(doc, fileDoc)
	}

	if f.method != "" {
		dc, err := estimate.ParseDayCount(f.method)
		if err != nil {
			return doc, err
		}
		doc.DayCount = string(dc)
	}
	if f.baseDate != "" {
		doc.BaseDate = f.baseDate
	}
	if doc.BaseDate == "" {
		doc.BaseDate = register.Today().String()
	}
	return doc, nil
}

func writeReport(path, source string, res *review.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := export.Write(file, res, export.Options{Source: source, GeneratedAt: time.Now()}); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	return nil
}
