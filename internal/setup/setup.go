// SPDX-License-Identifier: Apache-2.0

// Package setup turns comparison settings into a configured [keycompare.SetComparer]
// and reads record collections from XML, JSON, YAML and TOML documents.
package setup

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sam-fredrickson/keycompare"
	"github.com/sam-fredrickson/keycompare/jsonnode"
	"github.com/sam-fredrickson/keycompare/risk"
	"github.com/sam-fredrickson/keycompare/xmlnode"
)

// DefaultKey is the key field used when none is configured.
const DefaultKey = "key"

// Settings describe how two record collections are selected, keyed and compared.
// The zero value compares the top-level records of each document by their "key" field.
type Settings struct {
	// Records selects the records below each document node. Empty selects the child
	// elements of the root element for XML and the top-level items otherwise.
	Records string
	// Keys are the key fields, each "name" or "alias=name". Defaults to [DefaultKey].
	Keys []string
	// ByIndex keys records by position instead of by field.
	ByIndex bool

	// Risk registers the risk flattening plugin ahead of the structural one.
	Risk bool
	// RiskKinds overrides [risk.DefaultKinds].
	RiskKinds map[string][]string

	DuplicateNames keycompare.DuplicateNameMode
	Disambiguator  string
	ParseNumbers   bool

	// Lenient skips unflattenable nodes and reports unclaimed value pairs as differences.
	Lenient       bool
	IgnoreCase    bool
	IgnoreMissing bool
	Tolerance     decimal.Decimal
	Parallel      int
}

// SetComparer builds the flattening and comparison registries for s.
func (s Settings) SetComparer(logger *zap.Logger) (*keycompare.SetComparer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var flatteners []keycompare.FlattenPlugin
	if s.Risk {
		kinds := s.RiskKinds
		if len(kinds) == 0 {
			kinds = risk.DefaultKinds
		}
		p, err := risk.NewPlugin(kinds)
		if err != nil {
			return nil, err
		}
		flatteners = append(flatteners, p)
	}
	flatteners = append(flatteners, keycompare.StructurePlugin{
		DuplicateNames: s.DuplicateNames,
		Disambiguator:  s.Disambiguator,
		ParseNumbers:   s.ParseNumbers,
	})

	flattenOpts := keycompare.FlattenOptions{Logger: logger}
	compareOpts := keycompare.CompareOptions{Logger: logger}
	if s.Lenient {
		flattenOpts.Unflattenable = keycompare.UnflattenableSkip
		compareOpts.NoComparer = keycompare.NoComparerDifference
	}
	if s.IgnoreMissing {
		compareOpts.MismatchedPaths = keycompare.MismatchedPathIgnore
	}

	f, err := keycompare.NewFlattener(flattenOpts, flatteners...)
	if err != nil {
		return nil, err
	}
	c, err := keycompare.NewComparer(compareOpts,
		keycompare.StringPlugin{IgnoreCase: s.IgnoreCase},
		keycompare.DecimalPlugin{Tolerance: s.Tolerance},
		keycompare.FloatPlugin{Tolerance: s.Tolerance.InexactFloat64()},
		keycompare.BoolPlugin{},
		keycompare.NullPlugin{},
	)
	if err != nil {
		return nil, err
	}
	return keycompare.NewSetComparer(f, c, keycompare.SetOptions{
		Parallelism: s.Parallel,
		Logger:      logger,
	})
}

// KeyFunc returns the business key function for s.
func (s Settings) KeyFunc() keycompare.KeyFunc {
	if s.ByIndex {
		return keycompare.KeyByIndex
	}
	keys := s.Keys
	if len(keys) == 0 {
		keys = []string{DefaultKey}
	}
	return keycompare.KeyByFields(keys...)
}

// Load parses a document, choosing the parser by the extension of name, and selects
// its records.
func (s Settings) Load(name string, data []byte) ([]keycompare.Node, error) {
	doc, isXML, err := ParseDocument(name, data)
	if err != nil {
		return nil, err
	}
	if doc.Kind() != keycompare.KindContainer {
		return nil, fmt.Errorf("%w: document is a scalar", keycompare.ErrMalformedInput)
	}
	if !isXML {
		return keycompare.Select(doc, s.Records), nil
	}

	selector := s.Records
	if selector == "" {
		selector = "*/*"
	}
	var records []keycompare.Node
	for _, n := range keycompare.Select(doc, selector) {
		if n.Tag() == keycompare.TagAttribute || n.Tag() == xmlnode.TagText {
			continue
		}
		records = append(records, n)
	}
	return records, nil
}

// ParseDocument parses data by the extension of name: .xml, .json, .yaml/.yml or .toml.
// It reports whether the document is XML.
func ParseDocument(name string, data []byte) (keycompare.Node, bool, error) {
	extension := strings.ToLower(filepath.Ext(name))
	switch extension {
	case ".xml":
		doc, err := xmlnode.ParseBytes(data)
		return doc, true, err
	case ".json":
		doc, err := jsonnode.Parse(data)
		return doc, false, err
	case ".yaml", ".yml":
		var v any
		if err := yaml.UnmarshalWithOptions(data, &v, yaml.UseOrderedMap()); err != nil {
			return nil, false, fmt.Errorf("%w: %w", keycompare.ErrParse, err)
		}
		doc, err := keycompare.FromValue("", v)
		return doc, false, err
	case ".toml":
		var v map[string]any
		if err := toml.Unmarshal(data, &v); err != nil {
			return nil, false, fmt.Errorf("%w: %w", keycompare.ErrParse, err)
		}
		doc, err := keycompare.FromValue("", v)
		return doc, false, err
	}
	return nil, false, fmt.Errorf("unsupported file format: %s", extension)
}

// ParseDuplicateNames parses a duplicate name mode: error (or empty), index or attribute.
func ParseDuplicateNames(value string) (keycompare.DuplicateNameMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "error":
		return keycompare.DuplicateNamesError, nil
	case "index":
		return keycompare.DuplicateNamesIndex, nil
	case "attribute":
		return keycompare.DuplicateNamesAttribute, nil
	}
	return keycompare.DuplicateNamesError, fmt.Errorf("duplicate names mode %q is invalid", value)
}

// ParseTolerance parses a non-negative decimal tolerance. Empty is zero.
func ParseTolerance(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("tolerance %q is invalid: %w", value, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("tolerance %q is negative", value)
	}
	return d, nil
}
