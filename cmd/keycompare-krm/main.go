// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

func main() {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeCaller = nil
	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, "keycompare-krm:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Simple KRM function: read ResourceList from stdin, write to stdout
	if err := Run(os.Stdin, os.Stdout, logger); err != nil {
		logger.Error("keycompare-krm failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}
