// SPDX-License-Identifier: Apache-2.0

package keycompare_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/sam-fredrickson/keycompare"
)

// testNode is a minimal Node used to build trees the value adapter cannot express,
// such as repeated sibling names.
type testNode struct {
	kind     keycompare.Kind
	name     string
	tag      string
	value    keycompare.Value
	children []keycompare.Node
}

func (n *testNode) Kind() keycompare.Kind       { return n.kind }
func (n *testNode) Name() string                { return n.name }
func (n *testNode) Tag() string                 { return n.tag }
func (n *testNode) Value() keycompare.Value     { return n.value }
func (n *testNode) Children() []keycompare.Node { return n.children }

func leaf(name string, v keycompare.Value) keycompare.Node {
	return &testNode{kind: keycompare.KindScalar, name: name, tag: "test.scalar", value: v}
}

func text(name, s string) keycompare.Node {
	return leaf(name, keycompare.String(s))
}

func attr(name, s string) keycompare.Node {
	return &testNode{kind: keycompare.KindScalar, name: name, tag: keycompare.TagAttribute, value: keycompare.String(s)}
}

func elem(name string, children ...keycompare.Node) keycompare.Node {
	return &testNode{kind: keycompare.KindContainer, name: name, tag: "test.element", children: children}
}

func dec(s string) keycompare.Value {
	return keycompare.Decimal(decimal.RequireFromString(s))
}

// valueComparer makes go-cmp compare Values by strict equality.
var valueComparer = cmp.Comparer(func(a, b keycompare.Value) bool { return a.Equal(b) })

// nodeComparer compares nodes by identity.
var nodeComparer = cmp.Comparer(func(a, b keycompare.Node) bool { return a == b })

// record builds an object record from alternating names and values.
func record(t testing.TB, pairs ...any) keycompare.Node {
	t.Helper()
	if len(pairs)%2 != 0 {
		t.Fatalf("odd number of record arguments: %v", pairs)
	}
	children := make([]keycompare.Node, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		n, err := keycompare.FromValue(pairs[i].(string), pairs[i+1])
		if err != nil {
			t.Fatal(err)
		}
		children = append(children, n)
	}
	return elem("", children...)
}

func mustFlattener(t testing.TB, opts keycompare.FlattenOptions, plugins ...keycompare.FlattenPlugin) *keycompare.Flattener {
	t.Helper()
	f, err := keycompare.NewFlattener(opts, plugins...)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func mustSetComparer(t testing.TB, opts keycompare.SetOptions) *keycompare.SetComparer {
	t.Helper()
	f := mustFlattener(t, keycompare.FlattenOptions{}, keycompare.StructurePlugin{})
	s, err := keycompare.NewSetComparer(f, keycompare.DefaultComparer(), opts)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// keyStrings renders the keys of a result bucket for comparison.
func keyStrings[T any](items []T, key func(T) keycompare.BusinessKey) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = key(it).String()
	}
	return out
}
