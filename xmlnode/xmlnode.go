// SPDX-License-Identifier: Apache-2.0

// Package xmlnode parses XML documents into [keycompare.Node] trees.
//
// The document node (tag [TagDocument]) has the root element as its only child.
// An element with attributes or child elements becomes a container whose children
// are its attributes (tag [keycompare.TagAttribute]) in document order, then its
// child elements, then its non-blank text as a [TextName] scalar. An element with
// neither becomes a string scalar holding its trimmed text.
//
// Namespace prefixes are dropped from element and attribute names, and namespace
// declarations are not reported as attributes.
package xmlnode

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sam-fredrickson/keycompare"
)

// Node tags.
const (
	TagDocument = "xml.document"
	TagElement  = "xml.element"
	TagText     = "xml.text"
)

// TextName is the name given to the text content of a container element.
const TextName = "#text"

type node struct {
	name     string
	tag      string
	kind     keycompare.Kind
	value    keycompare.Value
	children []keycompare.Node
}

func (n *node) Kind() keycompare.Kind       { return n.kind }
func (n *node) Name() string                { return n.name }
func (n *node) Tag() string                 { return n.tag }
func (n *node) Value() keycompare.Value     { return n.value }
func (n *node) Children() []keycompare.Node { return n.children }
func (n *node) String() string              { return fmt.Sprintf("<%s>", n.name) }

// element accumulates one open element while its content is read.
type element struct {
	name     string
	attrs    []keycompare.Node
	children []keycompare.Node
	text     strings.Builder
}

func (e *element) build() keycompare.Node {
	text := strings.TrimSpace(e.text.String())
	if len(e.attrs) == 0 && len(e.children) == 0 {
		return &node{
			name:  e.name,
			tag:   TagElement,
			kind:  keycompare.KindScalar,
			value: keycompare.String(text),
		}
	}

	children := make([]keycompare.Node, 0, len(e.attrs)+len(e.children)+1)
	children = append(children, e.attrs...)
	children = append(children, e.children...)
	if text != "" {
		children = append(children, &node{
			name:  TextName,
			tag:   TagText,
			kind:  keycompare.KindScalar,
			value: keycompare.String(text),
		})
	}
	return &node{
		name:     e.name,
		tag:      TagElement,
		kind:     keycompare.KindContainer,
		children: children,
	}
}

// Parse reads one XML document from r.
// Errors wrap [keycompare.ErrParse].
func Parse(r io.Reader) (keycompare.Node, error) {
	dec := xml.NewDecoder(r)

	var stack []*element
	var root keycompare.Node
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", keycompare.ErrParse, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 && root != nil {
				return nil, fmt.Errorf("%w: multiple root elements (%s after %s)",
					keycompare.ErrParse, t.Name.Local, root.Name())
			}
			e := &element{name: t.Name.Local}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
					continue
				}
				e.attrs = append(e.attrs, &node{
					name:  a.Name.Local,
					tag:   keycompare.TagAttribute,
					kind:  keycompare.KindScalar,
					value: keycompare.String(a.Value),
				})
			}
			stack = append(stack, e)
		case xml.EndElement:
			e := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			built := e.build()
			if len(stack) == 0 {
				root = built
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, built)
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%w: no root element", keycompare.ErrParse)
	}
	return &node{
		tag:      TagDocument,
		kind:     keycompare.KindContainer,
		children: []keycompare.Node{root},
	}, nil
}

// ParseBytes parses an in-memory XML document.
func ParseBytes(data []byte) (keycompare.Node, error) {
	return Parse(bytes.NewReader(data))
}
