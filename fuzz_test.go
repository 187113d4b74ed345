// SPDX-License-Identifier: Apache-2.0

package keycompare_test

import (
	"testing"

	"github.com/goccy/go-yaml"

	"github.com/sam-fredrickson/keycompare"
)

// FuzzCompareYAML compares arbitrary YAML documents against themselves and each other.
// A document always matches itself, and the comparison never panics.
func FuzzCompareYAML(f *testing.F) {
	f.Add([]byte(`[{key: a, v: 1}]`), []byte(`[{key: a, v: 2}]`))
	f.Add([]byte(`[{key: a}, {key: a}]`), []byte(`[{key: b}]`))
	f.Add([]byte(`[{key: a, legs: [{ccy: EUR}, {ccy: USD}]}]`), []byte(`[{key: a, legs: []}]`))
	f.Add([]byte(`[{key: 1, v: 1.50}]`), []byte(`[{key: 1, v: 1.5}]`))
	f.Add([]byte(`[{v: null}]`), []byte(``))
	f.Add([]byte(`a: 1`), []byte(`[1, 2, 3]`))

	f.Fuzz(func(t *testing.T, expectedDoc, actualDoc []byte) {
		expected, ok := fuzzRecords(expectedDoc)
		if !ok {
			t.Skip()
		}
		actual, ok := fuzzRecords(actualDoc)
		if !ok {
			t.Skip()
		}

		flattener, err := keycompare.NewFlattener(keycompare.FlattenOptions{}, keycompare.StructurePlugin{})
		if err != nil {
			t.Fatal(err)
		}
		comparer, err := keycompare.NewComparer(keycompare.CompareOptions{},
			append(keycompare.DefaultPlugins(), keycompare.TypeMismatchPlugin{})...)
		if err != nil {
			t.Fatal(err)
		}
		s, err := keycompare.NewSetComparer(flattener, comparer, keycompare.SetOptions{})
		if err != nil {
			t.Fatal(err)
		}
		key := keycompare.KeyByFields("key")

		self, err := s.Compare(key, expected, expected)
		if err != nil {
			// records that cannot be keyed or flattened fail the same way every time
			return
		}
		if len(self.Differences) != 0 || len(self.Missing) != 0 || len(self.Additional) != 0 {
			t.Fatalf("document does not match itself: %+v", self.Summary())
		}

		result, err := s.Compare(key, expected, actual)
		if err != nil {
			return
		}
		sum := result.Summary()
		if sum.Matching+sum.Differences+sum.Missing+sum.Incomparable < len(uniqueKeys(t, key, expected)) {
			t.Fatalf("expected keys lost: %+v", sum)
		}
	})
}

func fuzzRecords(doc []byte) ([]keycompare.Node, bool) {
	var v any
	if err := yaml.UnmarshalWithOptions(doc, &v, yaml.UseOrderedMap()); err != nil {
		return nil, false
	}
	n, err := keycompare.FromValue("", v)
	if err != nil || n.Kind() != keycompare.KindContainer {
		return nil, false
	}
	return n.Children(), true
}

func uniqueKeys(t *testing.T, key keycompare.KeyFunc, records []keycompare.Node) map[string]bool {
	t.Helper()
	keys := make(map[string]bool)
	for i, n := range records {
		k, err := key(i, n)
		if err != nil {
			t.Fatal(err)
		}
		keys[k.Canonical()] = true
	}
	return keys
}
