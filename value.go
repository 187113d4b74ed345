// SPDX-License-Identifier: Apache-2.0

package keycompare

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Type is the semantic type of a flattened [Value].
type Type int

const (
	// TypeAbsent marks a path that is not present on one side of a comparison.
	TypeAbsent Type = iota
	// TypeNull is an explicit null or unknown value.
	TypeNull
	// TypeString is a text value.
	TypeString
	// TypeInt is a signed 64-bit integer.
	TypeInt
	// TypeDecimal is an arbitrary-precision decimal.
	TypeDecimal
	// TypeFloat is a binary floating point number.
	TypeFloat
	// TypeBool is a boolean.
	TypeBool
)

func (t Type) String() string {
	switch t {
	case TypeAbsent:
		return "absent"
	case TypeNull:
		return "null"
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeDecimal:
		return "decimal"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	default:
		return fmt.Sprintf("Type(%d)", t)
	}
}

// Value is a scalar produced by flattening. It is never a container.
//
// The zero value is [Absent].
type Value struct {
	typ Type
	s   string
	i   int64
	d   decimal.Decimal
	f   float64
	b   bool
}

// Absent returns the marker for a path missing from one side.
func Absent() Value { return Value{} }

// Null returns a typed null value.
func Null() Value { return Value{typ: TypeNull} }

// String returns a text value.
func String(s string) Value { return Value{typ: TypeString, s: s} }

// Int returns an integer value.
func Int(i int64) Value { return Value{typ: TypeInt, i: i} }

// Decimal returns an arbitrary-precision decimal value.
func Decimal(d decimal.Decimal) Value { return Value{typ: TypeDecimal, d: d} }

// Float returns a floating point value.
func Float(f float64) Value { return Value{typ: TypeFloat, f: f} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{typ: TypeBool, b: b} }

// ParseNumber parses text as an [Int] when it is an integer literal and as a [Decimal] otherwise.
// The text is never converted through a binary float.
func ParseNumber(text string) (Value, error) {
	text = strings.TrimSpace(text)
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return Int(i), nil
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return Value{}, fmt.Errorf("not a number: %q", text)
	}
	return Decimal(d), nil
}

// ParseScalar parses numeric-looking text with [ParseNumber] and keeps anything else as a [String].
func ParseScalar(text string) Value {
	if text == "" {
		return String(text)
	}
	if v, err := ParseNumber(text); err == nil {
		return v
	}
	return String(text)
}

// Type returns the value's semantic type.
func (v Value) Type() Type { return v.typ }

// IsAbsent reports whether v is the [Absent] marker.
func (v Value) IsAbsent() bool { return v.typ == TypeAbsent }

// IsNumeric reports whether v is an int, decimal or float.
func (v Value) IsNumeric() bool {
	return v.typ == TypeInt || v.typ == TypeDecimal || v.typ == TypeFloat
}

// Text returns the payload of a string value, or the rendered form of any other value.
func (v Value) Text() string {
	if v.typ == TypeString {
		return v.s
	}
	return v.String()
}

// AsInt returns the integer payload. Only meaningful for [TypeInt].
func (v Value) AsInt() int64 { return v.i }

// AsBool returns the boolean payload. Only meaningful for [TypeBool].
func (v Value) AsBool() bool { return v.b }

// AsDecimal returns the value as a decimal. Ints convert exactly; floats convert
// through their shortest decimal representation.
func (v Value) AsDecimal() decimal.Decimal {
	switch v.typ {
	case TypeInt:
		return decimal.NewFromInt(v.i)
	case TypeDecimal:
		return v.d
	case TypeFloat:
		return decimal.NewFromFloat(v.f)
	default:
		return decimal.Zero
	}
}

// AsFloat returns the value as a float64.
func (v Value) AsFloat() float64 {
	switch v.typ {
	case TypeInt:
		return float64(v.i)
	case TypeDecimal:
		return v.d.InexactFloat64()
	case TypeFloat:
		return v.f
	default:
		return math.NaN()
	}
}

// Equal reports whether two values have the same type and payload.
// It is strict: Int(1) and Decimal(1) are not Equal. Use a [Comparer] for semantic equality.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case TypeString:
		return v.s == o.s
	case TypeInt:
		return v.i == o.i
	case TypeDecimal:
		return v.d.Equal(o.d)
	case TypeFloat:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case TypeBool:
		return v.b == o.b
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.typ {
	case TypeAbsent:
		return "<absent>"
	case TypeNull:
		return "null"
	case TypeString:
		return v.s
	case TypeInt:
		return strconv.FormatInt(v.i, 10)
	case TypeDecimal:
		return v.d.String()
	case TypeFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case TypeBool:
		return strconv.FormatBool(v.b)
	default:
		return fmt.Sprintf("Value(%d)", v.typ)
	}
}

// GoString renders the value with its type, for test failures and debugging.
func (v Value) GoString() string {
	switch v.typ {
	case TypeAbsent, TypeNull:
		return v.typ.String()
	case TypeString:
		return fmt.Sprintf("string(%q)", v.s)
	default:
		return fmt.Sprintf("%s(%s)", v.typ, v)
	}
}

// canonical renders a type-qualified form used to group business keys.
func (v Value) canonical() string {
	return strconv.Itoa(int(v.typ)) + ":" + v.String()
}
