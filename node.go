// SPDX-License-Identifier: Apache-2.0

package keycompare

import (
	"fmt"
	"strings"
)

// Kind is the structural variant of a [Node].
type Kind int

const (
	// KindScalar is a leaf carrying a [Value].
	KindScalar Kind = iota
	// KindContainer is a node with ordered children.
	KindContainer
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindContainer:
		return "container"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// TagAttribute is the tag adapters give to attribute-like scalar children (e.g. XML attributes).
const TagAttribute = "attribute"

// Node is a read-only handle to one node of a parsed document.
//
// Nodes are owned by the parser that produced them. The comparison engine never
// mutates them and retains references to record nodes for reporting.
type Node interface {
	// Kind tells whether the node is a scalar or a container.
	Kind() Kind
	// Name is the element name or object key. Positional children (array items) have an empty name.
	Name() string
	// Tag is the adapter's declared kind for the node, e.g. "xml.element" or "json.array".
	Tag() string
	// Value is the payload of a scalar node. Containers return [Absent].
	Value() Value
	// Children are the ordered children of a container. Scalars return nil.
	Children() []Node
}

// Child returns the first child of n with the given name.
func Child(n Node, name string) (Node, bool) {
	for _, ch := range n.Children() {
		if ch.Name() == name {
			return ch, true
		}
	}
	return nil, false
}

// Attr returns the text of the first scalar child of n with the given name.
// For XML elements this is the attribute value; for objects, the member's rendered value.
func Attr(n Node, name string) (string, bool) {
	ch, ok := Child(n, name)
	if !ok || ch.Kind() != KindScalar {
		return "", false
	}
	return ch.Value().Text(), true
}

// Select walks a slash-separated path of child names starting below root.
//
// Each segment selects the matching children of every node selected so far; "*"
// matches any child. An empty path selects root's children, which is how the items
// of a top-level array are selected.
//
// Example: for an XML document node, Select(doc, "requests/request") returns every
// request element below the requests root element.
func Select(root Node, path string) []Node {
	path = strings.Trim(path, "/")
	if path == "" {
		return root.Children()
	}

	current := []Node{root}
	for _, segment := range strings.Split(path, "/") {
		var next []Node
		for _, n := range current {
			for _, ch := range n.Children() {
				if segment == "*" || ch.Name() == segment {
					next = append(next, ch)
				}
			}
		}
		current = next
	}
	return current
}
