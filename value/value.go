// Package value implements VextValue, the single runtime
// representation the bytecode emitter embeds into LOAD_CONST
// instructions and the VM pushes on its operand stack.
//
// The teacher (informatter-nilan) has no equivalent: its VM operates
// directly on `any` and its compiler embeds raw Go literals (int64,
// float64, bool, string) into the constants pool. Vext instead wraps
// every runtime scalar in one discriminated-union struct so the VM's
// dispatch loop, the native built-in contract, and the final-state
// report (engine.RunResult) all share one vocabulary.
package value

import (
	"fmt"

	"vext/types"
)

// Kind tags which field of a Value is populated.
type Kind int

const (
	Number Kind = iota
	Bool
	String
	Null
)

// Value is VextValue: a tagged union over Number(float64), Bool,
// String, and Null. int vs float is a static-only distinction — both
// are stored as Number.
type Value struct {
	Kind Kind
	Num  float64
	B    bool
	Str  string
}

func NewNumber(n float64) Value { return Value{Kind: Number, Num: n} }
func NewBool(b bool) Value      { return Value{Kind: Bool, B: b} }
func NewString(s string) Value  { return Value{Kind: String, Str: s} }
func NewNull() Value            { return Value{Kind: Null} }

func (v Value) IsNull() bool { return v.Kind == Null }

// String renders v's canonical textual form, used by string
// concatenation in the VM's ADD opcode (builtins' print renders the
// same forms through its own textOf): bools
// render as "true"/"false" and numbers render without a trailing
// ".0".
func (v Value) String() string {
	switch v.Kind {
	case Number:
		return types.CanonicalNumberString(v.Num)
	case Bool:
		return types.CanonicalBoolString(v.B)
	case String:
		return v.Str
	default:
		return "null"
	}
}

// GoValue unwraps v to the plain Go scalar a native built-in
// receives: native overloads receive arguments as plain scalars,
// unwrapped from VextValue.
func (v Value) GoValue() any {
	switch v.Kind {
	case Number:
		return v.Num
	case Bool:
		return v.B
	case String:
		return v.Str
	default:
		return nil
	}
}

// FromGoValue wraps a plain Go scalar returned by a native built-in
// back into a Value. Panics on an unsupported type, since that only
// happens if a built-in's implementation is wired incorrectly.
func FromGoValue(v any) Value {
	switch t := v.(type) {
	case float64:
		return NewNumber(t)
	case int:
		return NewNumber(float64(t))
	case bool:
		return NewBool(t)
	case string:
		return NewString(t)
	case nil:
		return NewNull()
	default:
		panic(fmt.Sprintf("value: unsupported native return type %T", v))
	}
}
