// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sam-fredrickson/keycompare/internal/setup"
	"github.com/sam-fredrickson/keycompare/report"
)

var version = "dev"

// errNotPassed signals a comparison that ran but found differences.
var errNotPassed = errors.New("comparison did not pass")

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command line and returns the process exit status.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errNotPassed) {
			_, _ = fmt.Fprintln(stderr, err)
		}
		return 1
	}
	return 0
}

type flags struct {
	profile        string
	records        string
	keys           []string
	byIndex        bool
	risk           bool
	duplicateNames string
	disambiguator  string
	parseNumbers   bool
	lenient        bool
	ignoreCase     bool
	ignoreMissing  bool
	tolerance      string
	parallel       int
	format         string
	out            string
	includeRecords bool
	noColor        bool
	debug          bool
}

// runToFile runs the comparison into out and closes it. A failed close is reported
// so a truncated report never exits successfully.
func runToFile(ctx context.Context, cfg Config, out io.WriteCloser, logger *zap.Logger) (passed bool, err error) {
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close report: %w", closeErr)
		}
	}()
	return Run(ctx, cfg, out, logger)
}

func newRootCommand() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "keycompare [flags] EXPECTED ACTUAL",
		Short: "Compare two collections of records matched by business key",
		Long: `Compares two documents (XML, JSON, YAML, TOML) record by record.
Records are matched by business key, flattened into path/value pairs and diffed.
Keys present on one side only are reported as missing or additional, and keys
occurring more than once on a side are reported as incomparable.

Exits with status 1 when the comparison does not pass.`,
		Example: `  # compare XML pricing requests keyed by their key attribute, with risk flattening
  keycompare --records requests/request --key key --risk expected.xml actual.xml

  # compare JSON arrays keyed by two fields and write a JSON report
  keycompare --key book --key id --format json --out report.json expected.json actual.json`,
		Version:       version,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(f.debug)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			cfg, err := f.config(cmd, args)
			if err != nil {
				return err
			}

			cfg.Color = !f.noColor && !color.NoColor && f.out == ""
			var passed bool
			if f.out != "" {
				file, createErr := os.Create(f.out)
				if createErr != nil {
					return createErr
				}
				passed, err = runToFile(cmd.Context(), cfg, file, logger)
			} else {
				passed, err = Run(cmd.Context(), cfg, cmd.OutOrStdout(), logger)
			}
			if err != nil {
				return err
			}
			if !passed {
				return errNotPassed
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.profile, "profile", "", "comparison profile file (YAML, JSON or TOML); flags override it")
	fs.StringVar(&f.records, "records", "", `slash-separated path selecting the records, "*" matches any name`)
	fs.StringSliceVarP(&f.keys, "key", "k", nil, `key field, as "name" or "alias=name" (repeatable, default "`+setup.DefaultKey+`")`)
	fs.BoolVar(&f.byIndex, "by-index", false, "match records by position instead of by key")
	fs.BoolVar(&f.risk, "risk", false, "flatten risks containers into one path per risk measure")
	fs.StringVar(&f.duplicateNames, "duplicate-names", "error", "repeated sibling names [error, index, attribute]")
	fs.StringVar(&f.disambiguator, "disambiguator", "", "child naming repeated siblings with --duplicate-names=attribute")
	fs.BoolVar(&f.parseNumbers, "parse-numbers", false, "compare numeric-looking text as numbers")
	fs.BoolVar(&f.lenient, "lenient", false, "skip nodes that cannot be flattened and report uncomparable values as differences")
	fs.BoolVar(&f.ignoreCase, "ignore-case", false, "compare strings case-insensitively")
	fs.BoolVar(&f.ignoreMissing, "ignore-missing", false, "ignore paths present in only one of two matched records")
	fs.StringVar(&f.tolerance, "tolerance", "", "largest absolute numeric difference still considered equal")
	fs.IntVar(&f.parallel, "parallel", 0, "records processed concurrently (0 or 1 is sequential)")
	fs.StringVarP(&f.format, "format", "f", "text", "report format [text, json, yaml, xml]")
	fs.StringVarP(&f.out, "out", "o", "", "report file path (defaults to stdout)")
	fs.BoolVar(&f.includeRecords, "with-records", false, "include source records in the report")
	fs.BoolVar(&f.noColor, "no-color", false, "disable colored text output")
	fs.BoolVar(&f.debug, "debug", false, "enable debug logging")

	return cmd
}

// config builds the run configuration: the profile if one is given, overridden by
// every flag set explicitly on the command line.
func (f *flags) config(cmd *cobra.Command, args []string) (Config, error) {
	cfg := Config{Expected: args[0], Actual: args[1]}
	if f.profile != "" {
		p, err := loadProfile(f.profile)
		if err != nil {
			return cfg, err
		}
		if err := p.apply(&cfg); err != nil {
			return cfg, err
		}
	}

	set := func(name string) bool {
		return f.profile == "" || cmd.Flags().Changed(name)
	}
	if set("records") {
		cfg.Records = f.records
	}
	if set("key") {
		cfg.Keys = f.keys
	}
	if set("by-index") {
		cfg.ByIndex = f.byIndex
	}
	if set("risk") {
		cfg.Risk = f.risk
	}
	if set("duplicate-names") {
		mode, err := setup.ParseDuplicateNames(f.duplicateNames)
		if err != nil {
			return cfg, err
		}
		cfg.DuplicateNames = mode
	}
	if set("disambiguator") {
		cfg.Disambiguator = f.disambiguator
	}
	if set("parse-numbers") {
		cfg.ParseNumbers = f.parseNumbers
	}
	if set("lenient") {
		cfg.Lenient = f.lenient
	}
	if set("ignore-case") {
		cfg.IgnoreCase = f.ignoreCase
	}
	if set("ignore-missing") {
		cfg.IgnoreMissing = f.ignoreMissing
	}
	if set("tolerance") {
		tolerance, err := setup.ParseTolerance(f.tolerance)
		if err != nil {
			return cfg, err
		}
		cfg.Tolerance = tolerance
	}
	if set("parallel") {
		cfg.Parallel = f.parallel
	}
	if set("format") {
		format, err := report.ParseFormat(f.format)
		if err != nil {
			return cfg, err
		}
		cfg.Format = format
	}
	if set("with-records") {
		cfg.IncludeRecords = f.includeRecords
	}
	return cfg, nil
}
