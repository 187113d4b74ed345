// SPDX-License-Identifier: Apache-2.0

package keycompare

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/shopspring/decimal"
)

// Tags given to nodes built by [FromValue].
const (
	TagValueObject = "value.object"
	TagValueArray  = "value.array"
	TagValueStruct = "value.struct"
	TagValueScalar = "value.scalar"
)

// valueNode is an eagerly built node over decoded Go data.
type valueNode struct {
	name     string
	tag      string
	kind     Kind
	value    Value
	children []Node
}

func (n *valueNode) Kind() Kind       { return n.kind }
func (n *valueNode) Name() string     { return n.name }
func (n *valueNode) Tag() string      { return n.tag }
func (n *valueNode) Value() Value     { return n.value }
func (n *valueNode) Children() []Node { return n.children }

// FromValue adapts decoded Go data into a [Node] tree named name.
//
// It understands what YAML, JSON and TOML decoders produce (map[string]any,
// map[any]any, []any, goccy/go-yaml's ordered yaml.MapSlice, json.Number, time.Time)
// as well as structs, pointers, typed maps and slices. Struct field names come from
// compare, yaml, json and toml tags in that order; fields tagged compare:"-" are
// skipped. Map members are sorted by key; yaml.MapSlice keeps document order.
//
// Returns an [InvalidTagError] if a struct carries an invalid compare tag.
func FromValue(name string, v any) (Node, error) {
	switch x := v.(type) {
	case nil:
		return scalarNode(name, Null()), nil
	case Node:
		return x, nil
	case Value:
		return scalarNode(name, x), nil
	case string:
		return scalarNode(name, String(x)), nil
	case bool:
		return scalarNode(name, Bool(x)), nil
	case int:
		return scalarNode(name, Int(int64(x))), nil
	case int64:
		return scalarNode(name, Int(x)), nil
	case uint64:
		return scalarNode(name, uintValue(x)), nil
	case float64:
		return scalarNode(name, Float(x)), nil
	case json.Number:
		return scalarNode(name, ParseScalar(x.String())), nil
	case decimal.Decimal:
		return scalarNode(name, Decimal(x)), nil
	case time.Time:
		return scalarNode(name, String(x.Format(time.RFC3339Nano))), nil
	case []byte:
		return scalarNode(name, String(string(x))), nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		n := containerNode(name, TagValueObject, len(keys))
		for _, k := range keys {
			ch, err := FromValue(k, x[k])
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, ch)
		}
		return n, nil
	case map[any]any:
		keys := make([]string, 0, len(x))
		byName := make(map[string]any, len(x))
		for k, val := range x {
			s := fmt.Sprint(k)
			keys = append(keys, s)
			byName[s] = val
		}
		slices.Sort(keys)
		n := containerNode(name, TagValueObject, len(keys))
		for _, k := range keys {
			ch, err := FromValue(k, byName[k])
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, ch)
		}
		return n, nil
	case yaml.MapSlice:
		n := containerNode(name, TagValueObject, len(x))
		for _, item := range x {
			ch, err := FromValue(fmt.Sprint(item.Key), item.Value)
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, ch)
		}
		return n, nil
	case []any:
		n := containerNode(name, TagValueArray, len(x))
		for _, item := range x {
			ch, err := FromValue("", item)
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, ch)
		}
		return n, nil
	}
	return fromReflect(name, reflect.ValueOf(v))
}

func fromReflect(name string, rv reflect.Value) (Node, error) {
	switch rv.Kind() {
	case reflect.Invalid:
		return scalarNode(name, Null()), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return scalarNode(name, Null()), nil
		}
		return FromValue(name, rv.Elem().Interface())
	case reflect.String:
		return scalarNode(name, String(rv.String())), nil
	case reflect.Bool:
		return scalarNode(name, Bool(rv.Bool())), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return scalarNode(name, Int(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return scalarNode(name, uintValue(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return scalarNode(name, Float(rv.Float())), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return scalarNode(name, Null()), nil
		}
		n := containerNode(name, TagValueArray, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			ch, err := FromValue("", rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, ch)
		}
		return n, nil
	case reflect.Map:
		if rv.IsNil() {
			return scalarNode(name, Null()), nil
		}
		keys := make([]string, 0, rv.Len())
		byName := make(map[string]reflect.Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			s := fmt.Sprint(iter.Key().Interface())
			keys = append(keys, s)
			byName[s] = iter.Value()
		}
		slices.Sort(keys)
		n := containerNode(name, TagValueObject, len(keys))
		for _, k := range keys {
			ch, err := FromValue(k, byName[k].Interface())
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, ch)
		}
		return n, nil
	case reflect.Struct:
		meta, err := structMetadata(rv.Type())
		if err != nil {
			return nil, err
		}
		n := containerNode(name, TagValueStruct, len(meta.fields))
		for _, f := range meta.fields {
			ch, err := FromValue(f.name, rv.Field(f.index).Interface())
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, ch)
		}
		return n, nil
	}

	if s, ok := rv.Interface().(fmt.Stringer); ok {
		return scalarNode(name, String(s.String())), nil
	}
	return scalarNode(name, String(fmt.Sprint(rv.Interface()))), nil
}

func scalarNode(name string, v Value) *valueNode {
	return &valueNode{name: name, tag: TagValueScalar, kind: KindScalar, value: v}
}

func containerNode(name, tag string, size int) *valueNode {
	return &valueNode{name: name, tag: tag, kind: KindContainer, children: make([]Node, 0, size)}
}

func uintValue(u uint64) Value {
	if u <= 1<<63-1 {
		return Int(int64(u))
	}
	return Decimal(decimal.RequireFromString(strconv.FormatUint(u, 10)))
}
