// SPDX-License-Identifier: Apache-2.0

package keycompare

import (
	"fmt"
	"slices"
	"strings"
)

// KeyPart is one named component of a [BusinessKey].
type KeyPart struct {
	Name  string
	Value Value
}

// BusinessKey identifies a logical record across the expected and actual collections.
//
// Parts keep the order the key function produced for display, but two keys are
// equal when they hold the same name → value mapping regardless of order.
type BusinessKey []KeyPart

// Get returns the value of the named part.
func (k BusinessKey) Get(name string) (Value, bool) {
	for _, p := range k {
		if p.Name == name {
			return p.Value, true
		}
	}
	return Value{}, false
}

// Equal reports whether two keys hold the same mapping.
func (k BusinessKey) Equal(o BusinessKey) bool {
	return k.Canonical() == o.Canonical()
}

// Canonical returns an order-independent, type-qualified encoding of the key.
// Keys are grouped by this string.
func (k BusinessKey) Canonical() string {
	parts := make([]string, len(k))
	for i, p := range k {
		parts[i] = fmt.Sprintf("%q=%q", p.Name, p.Value.canonical())
	}
	slices.Sort(parts)
	return strings.Join(parts, ",")
}

func (k BusinessKey) String() string {
	if len(k) == 0 {
		return "{}"
	}
	parts := make([]string, len(k))
	for i, p := range k {
		parts[i] = p.Name + "=" + p.Value.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// KeyFunc derives the business key of the record at index. It must not have side effects.
type KeyFunc func(index int, n Node) (BusinessKey, error)

// KeyByFields returns a [KeyFunc] reading named scalar children of each record:
// attributes of XML elements, members of JSON objects.
//
// A field is either "name", or "alias=name" to store the value of child name under the
// key part alias. Fields a record does not have are left out of its key, so records
// missing every field share the empty key (and therefore end up incomparable when
// there is more than one of them).
func KeyByFields(fields ...string) KeyFunc {
	type field struct{ alias, name string }
	parsed := make([]field, 0, len(fields))
	for _, f := range fields {
		alias, name, ok := strings.Cut(f, "=")
		if !ok {
			name = alias
		}
		parsed = append(parsed, field{alias: strings.TrimSpace(alias), name: strings.TrimSpace(name)})
	}

	return func(_ int, n Node) (BusinessKey, error) {
		key := make(BusinessKey, 0, len(parsed))
		for _, f := range parsed {
			ch, ok := Child(n, f.name)
			if !ok {
				continue
			}
			if ch.Kind() != KindScalar {
				return nil, &MalformedInputError{
					Name:    n.Name(),
					Message: fmt.Sprintf("key field %q is not a scalar", f.name),
				}
			}
			key = append(key, KeyPart{Name: f.alias, Value: ch.Value()})
		}
		return key, nil
	}
}

// KeyByIndex uses each record's position as its key. Useful when both collections are
// known to be in the same order.
func KeyByIndex(index int, _ Node) (BusinessKey, error) {
	return BusinessKey{{Name: "index", Value: Int(int64(index))}}, nil
}
