// SPDX-License-Identifier: Apache-2.0

package keycompare

import (
	"fmt"
	"strconv"
)

// DuplicateNameMode specifies how [StructurePlugin] names repeated sibling nodes.
type DuplicateNameMode int

const (
	// DuplicateNamesError returns a [DuplicateNameError] for repeated sibling names (default behavior).
	DuplicateNamesError DuplicateNameMode = iota
	// DuplicateNamesIndex suffixes each repeated name with its occurrence: name[0], name[1], ...
	DuplicateNamesIndex
	// DuplicateNamesAttribute suffixes each repeated name with the value of the
	// [StructurePlugin.Disambiguator] child, e.g. leg[USD]. Siblings missing it fall back to their occurrence.
	DuplicateNamesAttribute
)

func (m DuplicateNameMode) String() string {
	switch m {
	case DuplicateNamesError:
		return "DuplicateNamesError"
	case DuplicateNamesIndex:
		return "DuplicateNamesIndex"
	case DuplicateNamesAttribute:
		return "DuplicateNamesAttribute"
	default:
		return fmt.Sprintf("DuplicateNameMode(%d)", m)
	}
}

// StructurePlugin is the generic fallback plugin. It claims every node, emits one
// entry per scalar and walks containers, joining child names onto the prefix.
// Positional children (array items) are named by their index.
//
// It knows nothing about any document vocabulary; register domain plugins before it.
type StructurePlugin struct {
	// DuplicateNames specifies how repeated sibling names are disambiguated.
	DuplicateNames DuplicateNameMode

	// Disambiguator names the child whose value disambiguates repeated siblings
	// when DuplicateNames is [DuplicateNamesAttribute].
	Disambiguator string

	// ParseNumbers converts numeric-looking string scalars into ints and decimals.
	// Useful for XML, where every scalar is text.
	ParseNumbers bool
}

// CanHandle always returns true.
func (p StructurePlugin) CanHandle(string, Node) bool { return true }

// Flatten implements [FlattenPlugin].
func (p StructurePlugin) Flatten(f *Flattener, prefix string, n Node) ([]Entry, error) {
	if n.Kind() == KindScalar {
		v := n.Value()
		if p.ParseNumbers && v.Type() == TypeString {
			v = ParseScalar(v.Text())
		}
		return []Entry{{Key: prefix, Value: v}}, nil
	}

	children := n.Children()
	segments, err := p.segments(prefix, children)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for i, ch := range children {
		childEntries, err := f.Flatten(f.Join(prefix, segments[i]), ch)
		if err != nil {
			return nil, err
		}
		entries = append(entries, childEntries...)
	}
	return entries, nil
}

// segments computes the key segment of every child.
func (p StructurePlugin) segments(prefix string, children []Node) ([]string, error) {
	positions := make(map[string][]int, len(children))
	var order []string
	for i, ch := range children {
		name := ch.Name()
		if name == "" {
			continue
		}
		if _, seen := positions[name]; !seen {
			order = append(order, name)
		}
		positions[name] = append(positions[name], i)
	}

	segments := make([]string, len(children))
	for i, ch := range children {
		if ch.Name() == "" {
			segments[i] = strconv.Itoa(i)
		} else {
			segments[i] = ch.Name()
		}
	}

	for _, name := range order {
		idxs := positions[name]
		if len(idxs) < 2 {
			continue
		}
		switch p.DuplicateNames {
		case DuplicateNamesIndex:
			for occurrence, i := range idxs {
				segments[i] = name + "[" + strconv.Itoa(occurrence) + "]"
			}
		case DuplicateNamesAttribute:
			for occurrence, i := range idxs {
				if v, ok := Attr(children[i], p.Disambiguator); ok && p.Disambiguator != "" {
					segments[i] = name + "[" + v + "]"
				} else {
					segments[i] = name + "[" + strconv.Itoa(occurrence) + "]"
				}
			}
		default:
			return nil, &DuplicateNameError{
				Prefix:    prefix,
				Name:      name,
				Positions: idxs,
			}
		}
	}
	return segments, nil
}
