// SPDX-License-Identifier: Apache-2.0

// Package risk flattens "risks" containers of pricing results into one flat key per risk atom.
//
// In the source documents a single risk measure is written as one element whose
// attributes identify it, e.g.
//
//	<risks>
//	  <value ccy="GBP" value="12.5"/>
//	  <fxvega ccyPair="EURGBP" expiry="1M" ccy="GBP" value="0.03"/>
//	</risks>
//
// Compared attribute by attribute, reordering or adding one measure shifts every other
// one. [Plugin] instead emits value-GBP and fxvega-EURGBP-1M-GBP, so each atom is
// compared as a unit regardless of where it appears.
package risk

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sam-fredrickson/keycompare"
)

const (
	// ContainerName is the node name the plugin claims.
	ContainerName = "risks"
	// ValueField is the attribute holding a measure's value.
	ValueField = "value"
	// Missing replaces any absent dimension in a flat key.
	Missing = "missing"
	// Unknown is the value of a measure without a value attribute.
	Unknown = "unknown"
)

// DefaultKinds are the measure kinds and the dimensions identifying each, in key order.
var DefaultKinds = map[string][]string{
	"value":   {"ccy"},
	"fxdelta": {"ccy"},
	"fxvega":  {"ccyPair", "expiry", "ccy"},
}

// UnknownKindError is returned for a measure whose kind has no template.
// Unknown kinds are always fatal.
type UnknownKindError struct {
	// Prefix is the flat key prefix of the risks container.
	Prefix string
	// Kind is the unrecognised element name.
	Kind string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unable to flatten risk node %q under %q", e.Kind, e.Prefix)
}

func (e *UnknownKindError) Is(target error) bool {
	return target == keycompare.ErrMalformedInput
}

// Plugin is a [keycompare.FlattenPlugin] for risks containers.
// Register it ahead of the generic [keycompare.StructurePlugin].
//
// The zero value uses [DefaultKinds].
type Plugin struct {
	// Kinds maps a lower-case measure kind to the dimensions composing its key.
	Kinds map[string][]string
}

// NewPlugin creates a [Plugin] for the given kinds. Kind names are lower-cased.
// Returns an error if a kind or dimension name is empty.
func NewPlugin(kinds map[string][]string) (*Plugin, error) {
	out := make(map[string][]string, len(kinds))
	for kind, dims := range kinds {
		if strings.TrimSpace(kind) == "" {
			return nil, fmt.Errorf("%w: empty risk kind", keycompare.ErrInvalidOptions)
		}
		if slices.Contains(dims, "") {
			return nil, fmt.Errorf("%w: empty dimension for risk kind %q", keycompare.ErrInvalidOptions, kind)
		}
		out[strings.ToLower(kind)] = slices.Clone(dims)
	}
	return &Plugin{Kinds: out}, nil
}

// CanHandle claims nodes named risks wherever they appear.
func (p Plugin) CanHandle(_ string, n keycompare.Node) bool {
	return n.Name() == ContainerName
}

// Flatten emits one entry per measure child of n. An empty risks node, such as
// <risks/>, holds no measures and emits nothing; any other scalar is malformed.
func (p Plugin) Flatten(f *keycompare.Flattener, prefix string, n keycompare.Node) ([]keycompare.Entry, error) {
	if n.Kind() == keycompare.KindScalar {
		v := n.Value()
		if v.Type() == keycompare.TypeNull || (v.Type() == keycompare.TypeString && v.Text() == "") {
			return nil, nil
		}
		return nil, &keycompare.MalformedInputError{
			Prefix:  prefix,
			Name:    n.Name(),
			Message: fmt.Sprintf("risks must hold measures, got %s %q", v.Type(), v.Text()),
		}
	}

	kinds := p.Kinds
	if kinds == nil {
		kinds = DefaultKinds
	}

	var entries []keycompare.Entry
	for _, measure := range n.Children() {
		if measure.Tag() == keycompare.TagAttribute {
			continue
		}

		kind := strings.ToLower(measure.Name())
		dims, ok := kinds[kind]
		if !ok {
			return nil, &UnknownKindError{Prefix: prefix, Kind: measure.Name()}
		}

		parts := make([]string, 0, len(dims)+1)
		parts = append(parts, kind)
		for _, dim := range dims {
			v, ok := keycompare.Attr(measure, dim)
			if !ok {
				v = Missing
			}
			parts = append(parts, v)
		}

		entries = append(entries, keycompare.Entry{
			Key:   f.Join(prefix, strings.Join(parts, "-")),
			Value: measureValue(measure),
		})
	}
	return entries, nil
}

// measureValue parses the value attribute as an exact number when it looks like one.
func measureValue(measure keycompare.Node) keycompare.Value {
	raw, ok := keycompare.Attr(measure, ValueField)
	if !ok {
		return keycompare.String(Unknown)
	}
	if raw == "" {
		return keycompare.String(raw)
	}
	v, err := keycompare.ParseNumber(raw)
	if err != nil {
		return keycompare.String(raw)
	}
	return v
}
