// SPDX-License-Identifier: Apache-2.0

package keycompare

import (
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// StringPlugin compares two strings.
type StringPlugin struct {
	// IgnoreCase compares with full Unicode case folding, so "Straße" equals "STRASSE".
	IgnoreCase bool
}

func (StringPlugin) CanHandle(expected, actual Value) bool {
	return expected.Type() == TypeString && actual.Type() == TypeString
}

func (p StringPlugin) Compare(expected, actual Value) ValueComparison {
	if p.IgnoreCase {
		// a Caser is stateful and diffs may run concurrently
		fold := cases.Fold()
		return ValueComparison{Equal: fold.String(expected.Text()) == fold.String(actual.Text())}
	}
	return ValueComparison{Equal: expected.Text() == actual.Text()}
}

// DecimalPlugin compares ints and decimals as arbitrary-precision decimals, so textually
// different but numerically equal values (1.50 and 1.5) are equal and no binary rounding
// is involved. The payload of a difference is actual minus expected.
type DecimalPlugin struct {
	// Tolerance is the largest absolute delta still considered equal. Zero means exact.
	Tolerance decimal.Decimal
}

func (DecimalPlugin) CanHandle(expected, actual Value) bool {
	return isExact(expected) && isExact(actual)
}

func (p DecimalPlugin) Compare(expected, actual Value) ValueComparison {
	delta := actual.AsDecimal().Sub(expected.AsDecimal())
	if delta.Abs().LessThanOrEqual(p.Tolerance.Abs()) {
		return ValueComparison{Equal: true}
	}
	return ValueComparison{Payload: Decimal(delta)}
}

func isExact(v Value) bool {
	return v.Type() == TypeInt || v.Type() == TypeDecimal
}

// FloatPlugin compares pairs where at least one side is a float and the other is numeric.
// The payload of a difference is actual minus expected.
type FloatPlugin struct {
	// Tolerance is the largest absolute delta still considered equal. Zero means exact.
	Tolerance float64
}

func (FloatPlugin) CanHandle(expected, actual Value) bool {
	if !expected.IsNumeric() || !actual.IsNumeric() {
		return false
	}
	return expected.Type() == TypeFloat || actual.Type() == TypeFloat
}

func (p FloatPlugin) Compare(expected, actual Value) ValueComparison {
	e, a := expected.AsFloat(), actual.AsFloat()
	if math.IsNaN(e) && math.IsNaN(a) {
		return ValueComparison{Equal: true}
	}
	delta := a - e
	if e == a || math.Abs(delta) <= math.Abs(p.Tolerance) {
		return ValueComparison{Equal: true}
	}
	return ValueComparison{Payload: Float(delta)}
}

// BoolPlugin compares two booleans.
type BoolPlugin struct{}

func (BoolPlugin) CanHandle(expected, actual Value) bool {
	return expected.Type() == TypeBool && actual.Type() == TypeBool
}

func (BoolPlugin) Compare(expected, actual Value) ValueComparison {
	return ValueComparison{Equal: expected.AsBool() == actual.AsBool()}
}

// NullPlugin treats two nulls as equal.
type NullPlugin struct{}

func (NullPlugin) CanHandle(expected, actual Value) bool {
	return expected.Type() == TypeNull && actual.Type() == TypeNull
}

func (NullPlugin) Compare(Value, Value) ValueComparison {
	return ValueComparison{Equal: true}
}

// TypeMismatchPlugin reports any pair of differently typed values as a difference.
// It is not part of [DefaultPlugins]; register it last to turn type changes into
// differences instead of [NoComparerError]s.
type TypeMismatchPlugin struct{}

func (TypeMismatchPlugin) CanHandle(expected, actual Value) bool {
	return expected.Type() != actual.Type()
}

func (TypeMismatchPlugin) Compare(Value, Value) ValueComparison {
	return ValueComparison{}
}
