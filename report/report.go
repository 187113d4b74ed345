// SPDX-License-Identifier: Apache-2.0

// Package report renders a [keycompare.Result] for people and tools.
//
// [Build] turns a result into a [Document], a plain data model with string-rendered
// keys and values, which can then be written as a text summary, JSON, YAML or XML.
package report

import (
	"math"
	"strconv"
	"strings"

	"github.com/sam-fredrickson/keycompare"
)

// Options controls what [Build] puts in a [Document].
type Options struct {
	// IncludeRecords attaches the source records to every keyed entry.
	IncludeRecords bool
}

// KeyField is one rendered business key part.
type KeyField struct {
	Name  string `json:"name" yaml:"name" xml:"name,attr"`
	Value string `json:"value" yaml:"value" xml:"value,attr"`
}

// Item is a key present on one side only.
type Item struct {
	Key    []KeyField `json:"key" yaml:"key"`
	Record any        `json:"record,omitempty" yaml:"record,omitempty"`

	node keycompare.Node
}

// Group is a key duplicated on at least one side.
type Group struct {
	Key           []KeyField `json:"key" yaml:"key"`
	ExpectedCount int        `json:"expectedCount" yaml:"expectedCount"`
	ActualCount   int        `json:"actualCount" yaml:"actualCount"`
	Expected      []any      `json:"expected,omitempty" yaml:"expected,omitempty"`
	Actual        []any      `json:"actual,omitempty" yaml:"actual,omitempty"`

	expected []keycompare.Node
	actual   []keycompare.Node
}

// Change is one differing path of a matched pair. Expected or Actual is nil when
// the path is absent on that side; Delta is set when the comparer reported one.
type Change struct {
	Path     string  `json:"path" yaml:"path"`
	Expected *string `json:"expected,omitempty" yaml:"expected,omitempty"`
	Actual   *string `json:"actual,omitempty" yaml:"actual,omitempty"`
	Delta    *string `json:"delta,omitempty" yaml:"delta,omitempty"`
}

// Entry is a key whose records differ.
type Entry struct {
	Key      []KeyField `json:"key" yaml:"key"`
	Changes  []Change   `json:"changes" yaml:"changes"`
	Expected any        `json:"expected,omitempty" yaml:"expected,omitempty"`
	Actual   any        `json:"actual,omitempty" yaml:"actual,omitempty"`

	expected keycompare.Node
	actual   keycompare.Node
}

// Document is the rendered form of a comparison.
type Document struct {
	Passed       bool               `json:"passed" yaml:"passed"`
	Summary      keycompare.Summary `json:"summary" yaml:"summary"`
	Additional   []Item             `json:"additional,omitempty" yaml:"additional,omitempty"`
	Missing      []Item             `json:"missing,omitempty" yaml:"missing,omitempty"`
	Incomparable []Group            `json:"incomparable,omitempty" yaml:"incomparable,omitempty"`
	Differences  []Entry            `json:"differences,omitempty" yaml:"differences,omitempty"`
}

// Build renders r. Buckets keep the result's order; matching keys are only counted.
func Build(r *keycompare.Result, opts Options) *Document {
	doc := &Document{
		Passed:  r.Passed(),
		Summary: r.Summary(),
	}

	for _, k := range r.Additional {
		doc.Additional = append(doc.Additional, item(k, opts))
	}
	for _, k := range r.Missing {
		doc.Missing = append(doc.Missing, item(k, opts))
	}

	for _, inc := range r.Incomparable {
		g := Group{
			Key:           KeyFields(inc.Key),
			ExpectedCount: len(inc.Expected),
			ActualCount:   len(inc.Actual),
		}
		if opts.IncludeRecords {
			g.expected, g.actual = inc.Expected, inc.Actual
			for _, n := range inc.Expected {
				g.Expected = append(g.Expected, Record(n))
			}
			for _, n := range inc.Actual {
				g.Actual = append(g.Actual, Record(n))
			}
		}
		doc.Incomparable = append(doc.Incomparable, g)
	}

	for _, m := range r.Differences {
		e := Entry{Key: KeyFields(m.Key)}
		for _, d := range m.Differences {
			e.Changes = append(e.Changes, Change{
				Path:     d.Path,
				Expected: text(d.Expected),
				Actual:   text(d.Actual),
				Delta:    text(d.Payload),
			})
		}
		if opts.IncludeRecords {
			e.expected, e.actual = m.Expected, m.Actual
			e.Expected, e.Actual = Record(m.Expected), Record(m.Actual)
		}
		doc.Differences = append(doc.Differences, e)
	}
	return doc
}

func item(k keycompare.Keyed, opts Options) Item {
	it := Item{Key: KeyFields(k.Key)}
	if opts.IncludeRecords {
		it.node = k.Record
		it.Record = Record(k.Record)
	}
	return it
}

// KeyFields renders the parts of a business key in order.
func KeyFields(k keycompare.BusinessKey) []KeyField {
	fields := make([]KeyField, len(k))
	for i, p := range k {
		fields[i] = KeyField{Name: p.Name, Value: p.Value.String()}
	}
	return fields
}

func text(v keycompare.Value) *string {
	if v.IsAbsent() {
		return nil
	}
	s := v.Text()
	return &s
}

// Record renders a node tree as plain data: containers become map[string]any, or
// []any when all children are unnamed, and scalars become string, int64, float64,
// bool or nil. Decimals are rendered as their exact text.
//
// Attribute children are prefixed with "@". Repeated sibling names collect their
// values into a []any.
func Record(n keycompare.Node) any {
	if n == nil {
		return nil
	}
	if n.Kind() == keycompare.KindScalar {
		return scalar(n.Value())
	}

	children := n.Children()
	if len(children) == 0 {
		if strings.HasSuffix(n.Tag(), "array") {
			return []any{}
		}
		return map[string]any{}
	}
	if unnamed(children) {
		list := make([]any, len(children))
		for i, ch := range children {
			list[i] = Record(ch)
		}
		return list
	}

	obj := make(map[string]any, len(children))
	repeated := make(map[string]bool)
	for i, ch := range children {
		name := ch.Name()
		switch {
		case name == "":
			name = strconv.Itoa(i)
		case ch.Tag() == keycompare.TagAttribute:
			name = "@" + name
		}

		v := Record(ch)
		existing, ok := obj[name]
		switch {
		case !ok:
			obj[name] = v
		case repeated[name]:
			obj[name] = append(existing.([]any), v)
		default:
			obj[name] = []any{existing, v}
			repeated[name] = true
		}
	}
	return obj
}

func unnamed(children []keycompare.Node) bool {
	for _, ch := range children {
		if ch.Name() != "" {
			return false
		}
	}
	return true
}

func scalar(v keycompare.Value) any {
	switch v.Type() {
	case keycompare.TypeString:
		return v.Text()
	case keycompare.TypeInt:
		return v.AsInt()
	case keycompare.TypeDecimal:
		return v.String()
	case keycompare.TypeFloat:
		f := v.AsFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return v.String()
		}
		return f
	case keycompare.TypeBool:
		return v.AsBool()
	default:
		return nil
	}
}
