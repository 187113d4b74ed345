// SPDX-License-Identifier: Apache-2.0

// Package keycompare compares two collections of tree-shaped records independent of their order.
//
// Records are flattened into dotted path → scalar mappings by a pluggable [Flattener], matched
// across the two collections by a caller-derived [BusinessKey], and matched pairs are diffed
// path-by-path using pluggable, type-aware [ComparePlugin]s. The outcome is a [Result] that
// classifies every key as matching, different, missing, additional or incomparable.
//
// The package works on [Node] trees; parsers for XML and JSON live in the xmlnode and jsonnode
// packages, and any decoded Go value (YAML, TOML, structs) can be adapted with [FromValue].
package keycompare

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for simple error checking with [errors.Is].
// For detailed error information, use [errors.As] with the typed errors below.
var (
	// ErrUnflattenable indicates no flattening plugin claimed a node.
	ErrUnflattenable = errors.New("unflattenable node")
	// ErrNoComparer indicates no comparison plugin claimed a pair of values.
	ErrNoComparer = errors.New("no comparer for values")
	// ErrDuplicateFlatKey indicates a record flattened to the same key twice.
	ErrDuplicateFlatKey = errors.New("duplicate flat key")
	// ErrDuplicateName indicates repeated sibling names the structural plugin refuses to disambiguate.
	ErrDuplicateName = errors.New("duplicate element name")
	// ErrMalformedInput indicates a node does not have the shape a plugin requires.
	ErrMalformedInput = errors.New("malformed input")
	// ErrInvalidOptions indicates invalid options or plugin lists were provided.
	ErrInvalidOptions = errors.New("invalid options")
	// ErrInvalidTag indicates a compare struct tag could not be interpreted.
	ErrInvalidTag = errors.New("invalid compare tag")
	// ErrParse indicates a document could not be parsed into a node tree.
	ErrParse = errors.New("parse error")
)

// UnflattenablePolicy specifies what happens when no plugin claims a node.
type UnflattenablePolicy int

const (
	// UnflattenableFail aborts flattening with an [UnflattenableNodeError] (default behavior).
	UnflattenableFail UnflattenablePolicy = iota
	// UnflattenableSkip logs a warning and produces no entries for the node.
	UnflattenableSkip
)

func (p UnflattenablePolicy) String() string {
	switch p {
	case UnflattenableFail:
		return "UnflattenableFail"
	case UnflattenableSkip:
		return "UnflattenableSkip"
	default:
		return fmt.Sprintf("UnflattenablePolicy(%d)", p)
	}
}

// NoComparerPolicy specifies what happens when no plugin claims a pair of values.
type NoComparerPolicy int

const (
	// NoComparerFail aborts the comparison with a [NoComparerError] (default behavior).
	NoComparerFail NoComparerPolicy = iota
	// NoComparerDifference reports the pair as a difference and logs a warning.
	NoComparerDifference
)

func (p NoComparerPolicy) String() string {
	switch p {
	case NoComparerFail:
		return "NoComparerFail"
	case NoComparerDifference:
		return "NoComparerDifference"
	default:
		return fmt.Sprintf("NoComparerPolicy(%d)", p)
	}
}

// MismatchedPathPolicy specifies how paths present on only one side are treated.
type MismatchedPathPolicy int

const (
	// MismatchedPathReport reports the path as a difference against [Absent] (default behavior).
	MismatchedPathReport MismatchedPathPolicy = iota
	// MismatchedPathIgnore only compares paths present on both sides.
	MismatchedPathIgnore
)

func (p MismatchedPathPolicy) String() string {
	switch p {
	case MismatchedPathReport:
		return "MismatchedPathReport"
	case MismatchedPathIgnore:
		return "MismatchedPathIgnore"
	default:
		return fmt.Sprintf("MismatchedPathPolicy(%d)", p)
	}
}

// Side identifies which input collection a record came from.
type Side int

const (
	// Expected is the reference collection.
	Expected Side = iota
	// Actual is the collection under test.
	Actual
)

func (s Side) String() string {
	switch s {
	case Expected:
		return "expected"
	case Actual:
		return "actual"
	default:
		return fmt.Sprintf("Side(%d)", s)
	}
}

// UnflattenableNodeError is returned when no plugin claims a node
// and [UnflattenablePolicy] is set to [UnflattenableFail].
type UnflattenableNodeError struct {
	// Prefix is the flat key prefix the node was being flattened under.
	Prefix string
	// Name is the node's name.
	Name string
	// Tag is the node's declared kind tag.
	Tag string
}

func (e *UnflattenableNodeError) Error() string {
	return fmt.Sprintf("no flattening plugin for node %q (tag %s) at %s", e.Name, e.Tag, displayPath(e.Prefix))
}

func (e *UnflattenableNodeError) Is(target error) bool {
	return target == ErrUnflattenable
}

// NoComparerError is returned when no plugin claims a pair of values
// and [NoComparerPolicy] is set to [NoComparerFail].
type NoComparerError struct {
	// Path is the flat key of the values.
	Path string
	// Expected is the expected value.
	Expected Value
	// Actual is the actual value.
	Actual Value
}

func (e *NoComparerError) Error() string {
	return fmt.Sprintf("no comparer for %s and %s at %s", e.Expected.Type(), e.Actual.Type(), displayPath(e.Path))
}

func (e *NoComparerError) Is(target error) bool {
	return target == ErrNoComparer
}

// DuplicateFlatKeyError is returned when flattening one record emits the same key twice.
// This indicates a flattening plugin that does not produce unique keys.
type DuplicateFlatKeyError struct {
	// Key is the repeated flat key.
	Key string
}

func (e *DuplicateFlatKeyError) Error() string {
	return fmt.Sprintf("flat key %s emitted more than once", displayPath(e.Key))
}

func (e *DuplicateFlatKeyError) Is(target error) bool {
	return target == ErrDuplicateFlatKey
}

// DuplicateNameError is returned by [StructurePlugin] when sibling nodes share a name
// and [DuplicateNameMode] is set to [DuplicateNamesError].
type DuplicateNameError struct {
	// Prefix is the flat key of the parent node.
	Prefix string
	// Name is the repeated child name.
	Name string
	// Positions are the child indices where the name occurred.
	Positions []int
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate element name %q at %s at positions %v", e.Name, displayPath(e.Prefix), e.Positions)
}

func (e *DuplicateNameError) Is(target error) bool {
	return target == ErrDuplicateName
}

// MalformedInputError is returned by plugins when a node does not have the expected shape.
type MalformedInputError struct {
	// Prefix is the flat key prefix of the node.
	Prefix string
	// Name is the node's name.
	Name string
	// Message describes what is wrong.
	Message string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed node %q at %s: %s", e.Name, displayPath(e.Prefix), e.Message)
}

func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

// RecordError wraps a failure to key or flatten one input record.
type RecordError struct {
	// Side tells which collection the record belongs to.
	Side Side
	// Index is the record's position in its collection.
	Index int
	// Err is the underlying error.
	Err error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s record %d: %v", e.Side, e.Index, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

func displayPath(p string) string {
	if strings.TrimSpace(p) == "" {
		return "(root)"
	}
	return p
}
