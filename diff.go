// SPDX-License-Identifier: Apache-2.0

package keycompare

import "slices"

// Difference is one path whose values are not equal, or that is present on one side only.
// The missing side of a one-sided path is [Absent].
type Difference struct {
	Path     string
	Expected Value
	Actual   Value
	// Payload is optional comparer detail such as the numeric delta. [Absent] when unused.
	Payload Value
}

// Outcome is the result of diffing one matched pair of records.
// The source records are kept whether or not they differ.
type Outcome struct {
	Expected    Node
	Actual      Node
	Differences []Difference
}

// Equal reports whether no differences were found.
func (o Outcome) Equal() bool {
	return len(o.Differences) == 0
}

// Diff compares two flattened records over the union of their keys.
// Differences are ordered by path.
func (c *Comparer) Diff(expectedFlat, actualFlat Flat, expected, actual Node) (Outcome, error) {
	out := Outcome{Expected: expected, Actual: actual}

	paths := make([]string, 0, len(expectedFlat)+len(actualFlat))
	for k := range expectedFlat {
		paths = append(paths, k)
	}
	for k := range actualFlat {
		if _, ok := expectedFlat[k]; !ok {
			paths = append(paths, k)
		}
	}
	slices.Sort(paths)

	for _, path := range paths {
		// missing map entries are the zero Value, which is Absent
		d, differs, err := c.CompareValues(path, expectedFlat[path], actualFlat[path])
		if err != nil {
			return Outcome{}, err
		}
		if differs {
			out.Differences = append(out.Differences, d)
		}
	}
	return out, nil
}
