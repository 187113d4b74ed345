// SPDX-License-Identifier: Apache-2.0

package keycompare

// Match is a key whose expected and actual records compared equal.
type Match struct {
	Key      BusinessKey
	Expected Node
	Actual   Node
}

// Mismatch is a key whose expected and actual records differ.
type Mismatch struct {
	Key BusinessKey
	Outcome
}

// Keyed is a key present on one side only, with its record.
type Keyed struct {
	Key    BusinessKey
	Record Node
}

// Incomparable is a key that occurs more than once on at least one side.
// Every record carrying the key, from both sides, is kept.
type Incomparable struct {
	Key      BusinessKey
	Expected []Node
	Actual   []Node
}

// Result is the outcome of comparing two collections.
//
// Every business key observed on either side appears in exactly one of Matching,
// Differences, Missing, Additional or Incomparable. Within each bucket keys are in
// first-seen order: expected order first, then actual-only keys in actual order.
type Result struct {
	// Matching are keys present once on each side whose records are equal.
	Matching []Match
	// Differences are keys present once on each side whose records differ.
	Differences []Mismatch
	// Missing are keys present once in expected only.
	Missing []Keyed
	// Additional are keys present once in actual only.
	Additional []Keyed
	// Incomparable are keys duplicated on at least one side.
	Incomparable []Incomparable
}

// Summary counts the keys in each bucket of a [Result].
type Summary struct {
	Matching     int `json:"matching" yaml:"matching" xml:"matching,attr"`
	Differences  int `json:"differences" yaml:"differences" xml:"differences,attr"`
	Additional   int `json:"additionalKeys" yaml:"additionalKeys" xml:"additionalKeys,attr"`
	Missing      int `json:"missingKeys" yaml:"missingKeys" xml:"missingKeys,attr"`
	Incomparable int `json:"incomparable" yaml:"incomparable" xml:"incomparable,attr"`
}

// Total is the number of distinct business keys.
func (s Summary) Total() int {
	return s.Matching + s.Differences + s.Additional + s.Missing + s.Incomparable
}

// Summary returns the bucket counts.
func (r *Result) Summary() Summary {
	return Summary{
		Matching:     len(r.Matching),
		Differences:  len(r.Differences),
		Additional:   len(r.Additional),
		Missing:      len(r.Missing),
		Incomparable: len(r.Incomparable),
	}
}

// Passed reports whether the collections are equivalent: every key matched.
func (r *Result) Passed() bool {
	return len(r.Differences) == 0 &&
		len(r.Missing) == 0 &&
		len(r.Additional) == 0 &&
		len(r.Incomparable) == 0
}
