// SPDX-License-Identifier: Apache-2.0

package keycompare

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// TagKind identifies which compare struct tag directive had an error.
type TagKind int

const (
	// UnknownTag indicates an unknown or unsupported compare tag directive.
	UnknownTag TagKind = iota
	// KeyTag indicates an error with compare:"key" directive.
	KeyTag
	// NameTag indicates an error with compare:"name=..." directive.
	NameTag
)

func (k TagKind) String() string {
	switch k {
	case UnknownTag:
		return "unknown"
	case KeyTag:
		return "key"
	case NameTag:
		return "name"
	default:
		return fmt.Sprintf("TagKind(%d)", k)
	}
}

// InvalidTagError is returned when a compare struct tag contains an invalid directive or value.
type InvalidTagError struct {
	// Kind indicates which compare tag directive had the error.
	Kind TagKind
	// FieldName is the struct field name where the error occurred.
	FieldName string
	// Value is the invalid value.
	Value string
	// Message provides details about what went wrong.
	Message string
}

func (e *InvalidTagError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("field %s: invalid %s tag: %s (value: %q)",
			e.FieldName, e.Kind.String(), e.Message, e.Value)
	}
	return fmt.Sprintf("field %s: invalid %s tag: %s",
		e.FieldName, e.Kind.String(), e.Message)
}

func (e *InvalidTagError) Is(target error) bool {
	return target == ErrInvalidTag
}

// TypedComparer compares slices of a struct type, keyed by fields tagged compare:"key".
//
// It embeds a [SetComparer] and inherits its registries. Records are adapted with
// [FromValue], so field names in flat keys follow the struct's serialization tags.
//
// Struct tag format:
//   - compare:"key" - marks a field as part of the composite business key
//   - compare:"name=x" - overrides the field name used in flat keys and business keys
//   - compare:"-" - leaves the field out of flattening
//
// Directives can be combined: compare:"key,name=id"
//
// Example:
//
//	type Trade struct {
//		Book string          `json:"book" compare:"key"`
//		ID   string          `json:"id" compare:"key"`
//		PV   decimal.Decimal `json:"pv"`
//	}
//
//	tc, _ := NewTypedComparer[Trade](setComparer)
//	result, _ := tc.Compare(expectedTrades, actualTrades)
type TypedComparer[T any] struct {
	*SetComparer
	keys []string
}

// NewTypedComparer creates a [TypedComparer] with key fields taken from T's struct tags.
//
// Returns an error if T is not a struct (or pointer to one), has invalid compare tags,
// or has no key fields.
func NewTypedComparer[T any](s *SetComparer) (*TypedComparer[T], error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil set comparer", ErrInvalidOptions)
	}
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct type", ErrInvalidTag, t)
	}

	meta, err := structMetadata(t)
	if err != nil {
		return nil, err
	}
	if len(meta.keys) == 0 {
		return nil, fmt.Errorf("%w: %s has no compare:\"key\" fields", ErrInvalidTag, t)
	}
	return &TypedComparer[T]{SetComparer: s, keys: meta.keys}, nil
}

// Keys returns the serialized names of the key fields, in declaration order.
func (c *TypedComparer[T]) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Compare adapts both slices with [FromValue] and compares them by the tagged key fields.
func (c *TypedComparer[T]) Compare(expected, actual []T) (*Result, error) {
	expNodes, err := typedNodes(Expected, expected)
	if err != nil {
		return nil, err
	}
	actNodes, err := typedNodes(Actual, actual)
	if err != nil {
		return nil, err
	}
	return c.SetComparer.Compare(KeyByFields(c.keys...), expNodes, actNodes)
}

func typedNodes[T any](side Side, items []T) ([]Node, error) {
	out := make([]Node, len(items))
	for i, item := range items {
		n, err := FromValue("", item)
		if err != nil {
			return nil, &RecordError{Side: side, Index: i, Err: err}
		}
		out[i] = n
	}
	return out, nil
}

// structField describes one flattened struct field.
type structField struct {
	index int
	name  string
	key   bool
}

// structMeta is the compare metadata of a struct type.
type structMeta struct {
	fields []structField
	keys   []string
}

var metadataCache sync.Map // reflect.Type → *structMeta

// structMetadata builds, and caches, the metadata of struct type t from its tags.
func structMetadata(t reflect.Type) (*structMeta, error) {
	if cached, ok := metadataCache.Load(t); ok {
		return cached.(*structMeta), nil
	}

	meta := &structMeta{}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get("compare")
		if tag == "-" {
			continue
		}
		f := structField{index: i, name: fieldName(field)}
		if tag != "" {
			if err := parseCompareTag(tag, field, &f); err != nil {
				return nil, err
			}
		}
		if f.key {
			meta.keys = append(meta.keys, f.name)
		}
		meta.fields = append(meta.fields, f)
	}

	metadataCache.Store(t, meta)
	return meta, nil
}

// fieldName extracts the serialized field name from struct tags.
// Priority: yaml > json > toml > struct field name. compare:"name=..." is applied later.
func fieldName(field reflect.StructField) string {
	for _, tagName := range []string{"yaml", "json", "toml"} {
		if tag := field.Tag.Get(tagName); tag != "" && tag != "-" {
			// Handle "name,omitempty,inline" format - take first part
			if idx := strings.Index(tag, ","); idx != -1 {
				if tag[:idx] != "" {
					return tag[:idx]
				}
				continue
			}
			return tag
		}
	}
	return field.Name
}

// parseCompareTag parses the compare struct tag into f.
func parseCompareTag(tag string, field reflect.StructField, f *structField) error {
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)

		switch {
		case part == "":
			continue
		case part == "key":
			if !field.Type.Comparable() || isContainerKind(field.Type.Kind()) {
				return &InvalidTagError{
					Kind:      KeyTag,
					FieldName: field.Name,
					Message:   fmt.Sprintf("key field must be a scalar type, got %s", field.Type.String()),
				}
			}
			f.key = true
		case strings.HasPrefix(part, "name="):
			name := strings.TrimPrefix(part, "name=")
			if name == "" {
				return &InvalidTagError{
					Kind:      NameTag,
					FieldName: field.Name,
					Value:     part,
					Message:   "field name cannot be empty",
				}
			}
			f.name = name
		default:
			return &InvalidTagError{
				Kind:      UnknownTag,
				FieldName: field.Name,
				Value:     part,
				Message:   "unknown compare tag directive",
			}
		}
	}
	return nil
}

func isContainerKind(k reflect.Kind) bool {
	switch k {
	case reflect.Struct, reflect.Array, reflect.Map, reflect.Slice, reflect.Pointer, reflect.Interface:
		return true
	}
	return false
}
