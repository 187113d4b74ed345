// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"

	"github.com/sam-fredrickson/keycompare/internal/setup"
	"github.com/sam-fredrickson/keycompare/report"
)

// Profile is a reusable comparison setup stored as YAML, JSON or TOML.
// Flags given on the command line take precedence over it.
type Profile struct {
	Records        string              `yaml:"records" json:"records" toml:"records"`
	Keys           []string            `yaml:"keys" json:"keys" toml:"keys"`
	ByIndex        bool                `yaml:"byIndex" json:"byIndex" toml:"byIndex"`
	Risk           bool                `yaml:"risk" json:"risk" toml:"risk"`
	RiskKinds      map[string][]string `yaml:"riskKinds" json:"riskKinds" toml:"riskKinds"`
	DuplicateNames string              `yaml:"duplicateNames" json:"duplicateNames" toml:"duplicateNames"`
	Disambiguator  string              `yaml:"disambiguator" json:"disambiguator" toml:"disambiguator"`
	ParseNumbers   bool                `yaml:"parseNumbers" json:"parseNumbers" toml:"parseNumbers"`
	Lenient        bool                `yaml:"lenient" json:"lenient" toml:"lenient"`
	IgnoreCase     bool                `yaml:"ignoreCase" json:"ignoreCase" toml:"ignoreCase"`
	IgnoreMissing  bool                `yaml:"ignoreMissing" json:"ignoreMissing" toml:"ignoreMissing"`
	Tolerance      string              `yaml:"tolerance" json:"tolerance" toml:"tolerance"`
	Parallel       int                 `yaml:"parallel" json:"parallel" toml:"parallel"`
	Format         string              `yaml:"format" json:"format" toml:"format"`
	IncludeRecords bool                `yaml:"includeRecords" json:"includeRecords" toml:"includeRecords"`
}

// loadProfile reads a profile, choosing the decoder by file extension.
func loadProfile(file string) (Profile, error) {
	var p Profile

	contents, err := os.ReadFile(file)
	if err != nil {
		return p, err
	}

	extension := strings.ToLower(filepath.Ext(file))
	var unmarshal func([]byte, any) error
	switch extension {
	case ".yaml", ".yml":
		unmarshal = yaml.Unmarshal
	case ".json":
		unmarshal = json.Unmarshal
	case ".toml":
		unmarshal = toml.Unmarshal
	}
	if unmarshal == nil {
		return p, fmt.Errorf("unsupported profile format: %s", extension)
	}

	if err := unmarshal(contents, &p); err != nil {
		return p, fmt.Errorf("failed to read profile %s: %w", file, err)
	}
	return p, nil
}

// apply copies the profile's settings into cfg.
func (p Profile) apply(cfg *Config) error {
	cfg.Records = p.Records
	cfg.Keys = p.Keys
	cfg.ByIndex = p.ByIndex
	cfg.Risk = p.Risk
	cfg.RiskKinds = p.RiskKinds
	cfg.Disambiguator = p.Disambiguator
	cfg.ParseNumbers = p.ParseNumbers
	cfg.Lenient = p.Lenient
	cfg.IgnoreCase = p.IgnoreCase
	cfg.IgnoreMissing = p.IgnoreMissing
	cfg.Parallel = p.Parallel
	cfg.IncludeRecords = p.IncludeRecords

	mode, err := setup.ParseDuplicateNames(p.DuplicateNames)
	if err != nil {
		return err
	}
	cfg.DuplicateNames = mode

	tolerance, err := setup.ParseTolerance(p.Tolerance)
	if err != nil {
		return err
	}
	cfg.Tolerance = tolerance

	format, err := report.ParseFormat(p.Format)
	if err != nil {
		return err
	}
	cfg.Format = format
	return nil
}
