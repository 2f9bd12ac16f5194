package sema

import (
	"math"

	"vext/ast"
	"vext/types"
)

// asNumber extracts a literal's numeric value regardless of whether it
// was tokenized as an int or a float; VextValue itself has no separate
// integer representation, so folding always computes in float64.
func asNumber(lit ast.Literal) (float64, bool) {
	switch v := lit.Value.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

func asBool(lit ast.Literal) (bool, bool) {
	v, ok := lit.Value.(bool)
	return v, ok
}

func asString(lit ast.Literal) (string, bool) {
	v, ok := lit.Value.(string)
	return v, ok
}

func numberLiteral(pos ast.Pos, kind ast.LiteralKind, value float64) ast.Literal {
	return ast.Literal{Pos: pos, Kind: kind, Value: value}
}

func boolLiteral(pos ast.Pos, value bool) ast.Literal {
	return ast.Literal{Pos: pos, Kind: ast.LitBool, Value: value}
}

func stringLiteral(pos ast.Pos, value string) ast.Literal {
	return ast.Literal{Pos: pos, Kind: ast.LitString, Value: value}
}

// literalStringForm renders any literal's canonical text form, used by
// constant-folded string concatenation's "+" rule.
func literalStringForm(lit ast.Literal) (string, bool) {
	switch lit.Kind {
	case ast.LitString:
		s, _ := asString(lit)
		return s, true
	case ast.LitBool:
		b, _ := asBool(lit)
		return types.CanonicalBoolString(b), true
	case ast.LitInt, ast.LitFloat:
		n, _ := asNumber(lit)
		return types.CanonicalNumberString(n), true
	default:
		return "", false
	}
}

// foldUnary evaluates a Unary node whose operand already folded down to
// a Literal. ok is false when the operand isn't foldable or the
// operator doesn't apply.
func foldUnary(u ast.Unary, operand ast.Literal) (ast.Literal, bool) {
	switch u.Op {
	case ast.OpNeg:
		n, ok := asNumber(operand)
		if !ok {
			return ast.Literal{}, false
		}
		return numberLiteral(u.Pos, operand.Kind, -n), true
	case ast.OpNot:
		b, ok := asBool(operand)
		if !ok {
			return ast.Literal{}, false
		}
		return boolLiteral(u.Pos, !b), true
	default:
		// Pre-increment/decrement mutate a variable; never foldable.
		return ast.Literal{}, false
	}
}

// foldBinaryResult is what foldBinary reports back to the analyzer:
// the folded literal (if any), whether a fold happened, and whether
// folding hit a division-by-zero that must be reported instead of
// suppressed.
type foldBinaryResult struct {
	lit        ast.Literal
	ok         bool
	divByZero  bool
}

// foldBinary evaluates a Binary node whose operands already folded
// down to Literals.
func foldBinary(b ast.Binary, left, right ast.Literal) foldBinaryResult {
	switch b.Op {
	case ast.OpAdd:
		if left.Kind == ast.LitString || right.Kind == ast.LitString {
			ls, ok1 := literalStringForm(left)
			rs, ok2 := literalStringForm(right)
			if ok1 && ok2 {
				return foldBinaryResult{lit: stringLiteral(b.Pos, ls+rs), ok: true}
			}
			return foldBinaryResult{}
		}
		ln, ok1 := asNumber(left)
		rn, ok2 := asNumber(right)
		if ok1 && ok2 {
			kind := ast.LitInt
			if left.Kind == ast.LitFloat || right.Kind == ast.LitFloat {
				kind = ast.LitFloat
			}
			return foldBinaryResult{lit: numberLiteral(b.Pos, kind, ln+rn), ok: true}
		}
		return foldBinaryResult{}
	case ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod, ast.OpPow:
		ln, ok1 := asNumber(left)
		rn, ok2 := asNumber(right)
		if !ok1 || !ok2 {
			return foldBinaryResult{}
		}
		if (b.Op == ast.OpDiv || b.Op == ast.OpMod) && rn == 0 {
			return foldBinaryResult{divByZero: true}
		}
		kind := ast.LitInt
		if left.Kind == ast.LitFloat || right.Kind == ast.LitFloat {
			kind = ast.LitFloat
		}
		var result float64
		switch b.Op {
		case ast.OpSub:
			result = ln - rn
		case ast.OpMul:
			result = ln * rn
		case ast.OpDiv:
			result = ln / rn
		case ast.OpMod:
			result = math.Mod(ln, rn)
		case ast.OpPow:
			result = math.Pow(ln, rn)
		}
		return foldBinaryResult{lit: numberLiteral(b.Pos, kind, result), ok: true}
	case ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpGt, ast.OpLte, ast.OpGte:
		return foldComparison(b, left, right)
	case ast.OpAnd:
		lb, ok := asBool(left)
		if !ok {
			return foldBinaryResult{}
		}
		if !lb {
			// Short circuit: right is never evaluated.
			return foldBinaryResult{lit: boolLiteral(b.Pos, false), ok: true}
		}
		rb, ok := asBool(right)
		if !ok {
			return foldBinaryResult{}
		}
		return foldBinaryResult{lit: boolLiteral(b.Pos, rb), ok: true}
	case ast.OpOr:
		lb, ok := asBool(left)
		if !ok {
			return foldBinaryResult{}
		}
		if lb {
			return foldBinaryResult{lit: boolLiteral(b.Pos, true), ok: true}
		}
		rb, ok := asBool(right)
		if !ok {
			return foldBinaryResult{}
		}
		return foldBinaryResult{lit: boolLiteral(b.Pos, rb), ok: true}
	default:
		return foldBinaryResult{}
	}
}

func foldComparison(b ast.Binary, left, right ast.Literal) foldBinaryResult {
	if ln, ok1 := asNumber(left); ok1 {
		if rn, ok2 := asNumber(right); ok2 {
			return foldBinaryResult{lit: boolLiteral(b.Pos, compareNumbers(b.Op, ln, rn)), ok: true}
		}
	}
	if lb, ok1 := asBool(left); ok1 {
		if rb, ok2 := asBool(right); ok2 && (b.Op == ast.OpEq || b.Op == ast.OpNeq) {
			eq := lb == rb
			if b.Op == ast.OpNeq {
				eq = !eq
			}
			return foldBinaryResult{lit: boolLiteral(b.Pos, eq), ok: true}
		}
	}
	if ls, ok1 := asString(left); ok1 {
		if rs, ok2 := asString(right); ok2 {
			return foldBinaryResult{lit: boolLiteral(b.Pos, compareStrings(b.Op, ls, rs)), ok: true}
		}
	}
	return foldBinaryResult{}
}

func compareNumbers(op ast.BinaryOp, a, b float64) bool {
	switch op {
	case ast.OpEq:
		return a == b
	case ast.OpNeq:
		return a != b
	case ast.OpLt:
		return a < b
	case ast.OpGt:
		return a > b
	case ast.OpLte:
		return a <= b
	case ast.OpGte:
		return a >= b
	default:
		return false
	}
}

func compareStrings(op ast.BinaryOp, a, b string) bool {
	switch op {
	case ast.OpEq:
		return a == b
	case ast.OpNeq:
		return a != b
	case ast.OpLt:
		return a < b
	case ast.OpGt:
		return a > b
	case ast.OpLte:
		return a <= b
	case ast.OpGte:
		return a >= b
	default:
		return false
	}
}
