// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/sam-fredrickson/keycompare"
	"github.com/sam-fredrickson/keycompare/internal/setup"
	"github.com/sam-fredrickson/keycompare/report"
)

// Config is everything one comparison run needs.
type Config struct {
	Expected string
	Actual   string

	setup.Settings

	Format         report.Format
	IncludeRecords bool
	Color          bool
}

// Run compares the configured files and writes the report to out.
// It returns whether the comparison passed.
func Run(ctx context.Context, cfg Config, out io.Writer, logger *zap.Logger) (bool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Expected == "" || cfg.Actual == "" {
		return false, fmt.Errorf("two files are required")
	}

	setComparer, err := cfg.SetComparer(logger)
	if err != nil {
		return false, err
	}

	expected, err := loadRecords(cfg.Settings, cfg.Expected)
	if err != nil {
		return false, err
	}
	actual, err := loadRecords(cfg.Settings, cfg.Actual)
	if err != nil {
		return false, err
	}
	logger.Debug("loaded records",
		zap.String("expected", cfg.Expected), zap.Int("expectedRecords", len(expected)),
		zap.String("actual", cfg.Actual), zap.Int("actualRecords", len(actual)))

	if err := ctx.Err(); err != nil {
		return false, err
	}

	result, err := setComparer.Compare(cfg.KeyFunc(), expected, actual)
	if err != nil {
		return false, fmt.Errorf("comparison of %s and %s failed: %w", cfg.Expected, cfg.Actual, err)
	}

	doc := report.Build(result, report.Options{IncludeRecords: cfg.IncludeRecords})
	if err := report.Write(out, doc, cfg.Format, cfg.Color); err != nil {
		return false, fmt.Errorf("failed to write output: %w", err)
	}
	return result.Passed(), nil
}

func loadRecords(s setup.Settings, file string) ([]keycompare.Node, error) {
	contents, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	records, err := s.Load(file, contents)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	return records, nil
}
