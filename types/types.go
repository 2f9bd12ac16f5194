// Package types holds the Vext static type universe and its
// compatibility/promotion rules.
package types

import "strconv"

// Tag is one of the fixed type-name strings the language defines.
type Tag = string

const (
	Int     Tag = "int"
	Float   Tag = "float"
	Bool    Tag = "bool"
	String  Tag = "string"
	Auto    Tag = "auto"
	Void    Tag = "void"
	Numeral Tag = "numeral" // internal: accepts int or float, built-ins only
	Error   Tag = "error"   // propagating type-error token
)

// IsNumeric reports whether t is int or float.
func IsNumeric(t Tag) bool {
	return t == Int || t == Float
}

// Compatible reports whether a value of type `source` may be used
// where `target` is expected:
//
//   - identical types are always compatible
//   - auto accepts (and is accepted by) anything
//   - numeral accepts int or float
//   - float accepts int (widening)
//   - error propagates as compatible with anything, to avoid
//     cascading diagnostics once one has already been reported
//
// This applies the stricter rule for string targets: a `string`
// target only accepts a `string` source (the source never coerces
// non-strings into a string target implicitly — only `+`
// concatenation does that, explicitly).
func Compatible(source, target Tag) bool {
	if source == target {
		return true
	}
	if source == Error || target == Error {
		return true
	}
	if target == Auto || source == Auto {
		return true
	}
	if target == Numeral {
		return source == Int || source == Float
	}
	if target == Float && source == Int {
		return true
	}
	return false
}

// Promote returns the result type of a numeric binary op (*, /, -, %,
// **) given two numeric operand types: float if either operand is
// float, otherwise int.
func Promote(a, b Tag) Tag {
	if a == Float || b == Float {
		return Float
	}
	return Int
}

// CanonicalBoolString is the textual form a Bool takes when coerced by
// string concatenation: "true"/"false".
func CanonicalBoolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// CanonicalNumberString is the textual form a Number takes when
// coerced by string concatenation: Go's shortest round-trip
// formatting already omits a trailing ".0" for integer-valued
// doubles, which is the compact form the conformance tests expect.
func CanonicalNumberString(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
