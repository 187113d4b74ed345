// SPDX-License-Identifier: Apache-2.0

// Package jsonnode exposes JSON documents as [keycompare.Node] trees backed by gjson.
//
// The root node is the document's top-level value, with an empty name. Object members
// keep document order, including repeated member names. Array items are unnamed.
// Numbers keep their literal text: integers become [keycompare.Int] and anything else
// [keycompare.Decimal], so no precision is lost to binary floats.
//
// Children are materialized on first access.
package jsonnode

import (
	"fmt"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/sam-fredrickson/keycompare"
)

// Node tags.
const (
	TagObject = "json.object"
	TagArray  = "json.array"
	TagString = "json.string"
	TagNumber = "json.number"
	TagBool   = "json.bool"
	TagNull   = "json.null"
)

type node struct {
	name string
	res  gjson.Result

	once     sync.Once
	children []keycompare.Node
}

func newNode(name string, res gjson.Result) *node {
	return &node{name: name, res: res}
}

func (n *node) Name() string { return n.name }

func (n *node) Kind() keycompare.Kind {
	if n.res.IsObject() || n.res.IsArray() {
		return keycompare.KindContainer
	}
	return keycompare.KindScalar
}

func (n *node) Tag() string {
	switch {
	case n.res.IsObject():
		return TagObject
	case n.res.IsArray():
		return TagArray
	}
	switch n.res.Type {
	case gjson.String:
		return TagString
	case gjson.Number:
		return TagNumber
	case gjson.True, gjson.False:
		return TagBool
	default:
		return TagNull
	}
}

func (n *node) Value() keycompare.Value {
	switch n.res.Type {
	case gjson.String:
		return keycompare.String(n.res.Str)
	case gjson.Number:
		if v, err := keycompare.ParseNumber(n.res.Raw); err == nil {
			return v
		}
		return keycompare.Float(n.res.Num)
	case gjson.True:
		return keycompare.Bool(true)
	case gjson.False:
		return keycompare.Bool(false)
	case gjson.Null:
		return keycompare.Null()
	default:
		return keycompare.Absent()
	}
}

func (n *node) Children() []keycompare.Node {
	if n.Kind() != keycompare.KindContainer {
		return nil
	}
	n.once.Do(func() {
		isArray := n.res.IsArray()
		n.children = []keycompare.Node{}
		n.res.ForEach(func(key, value gjson.Result) bool {
			name := key.String()
			if isArray {
				name = ""
			}
			n.children = append(n.children, newNode(name, value))
			return true
		})
	})
	return n.children
}

func (n *node) String() string {
	return fmt.Sprintf("%s(%s)", n.Tag(), n.name)
}

// Parse validates data and returns its top-level value as a node.
// Invalid JSON returns an error wrapping [keycompare.ErrParse].
func Parse(data []byte) (keycompare.Node, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", keycompare.ErrParse)
	}
	return newNode("", gjson.ParseBytes(data)), nil
}

// ParseString is [Parse] for a string document.
func ParseString(data string) (keycompare.Node, error) {
	if !gjson.Valid(data) {
		return nil, fmt.Errorf("%w: invalid JSON", keycompare.ErrParse)
	}
	return newNode("", gjson.Parse(data)), nil
}
