// Package sema implements Vext's three-phase semantic analyzer:
// function discovery, top-level statement analysis, and
// function-body analysis. It performs slot assignment, overload
// resolution, type checking, definite-assignment analysis,
// reachability/return-path analysis, constant folding, and semantic
// token emission, and returns a new, folded AST rather than mutating
// the one it was given (no two nodes share a child).
//
// The teacher repo has no static analysis pass at all — nilan type
// checks while interpreting (interpreter/interpreter.go). This package
// has no direct teacher analogue; its shape (phase-by-phase walk over
// the tagged-sum AST, a diag.Sink threaded explicitly, a scope.Stack
// for name resolution) is built from the ast/diag/scope/types
// primitives already grounded on the teacher.
package sema

import (
	"fmt"

	"vext/ast"
	"vext/diag"
	"vext/scope"
	"vext/types"
)

// Result is everything the bytecode emitter needs from a successful
// (or partially successful) semantic pass.
type Result struct {
	Stmts     []ast.Stmt
	Slots     *scope.SlotTable
	Functions *FunctionTable
	Tokens    []SemToken
}

// Analyzer carries the state threaded through all three phases.
type Analyzer struct {
	sink   *diag.Sink
	scopes *scope.Stack
	slots  *scope.SlotTable
	funcs  *FunctionTable
	tokens []SemToken

	inFunction        bool
	currentFuncName   string
	currentReturnType types.Tag
}

// Analyze runs the full semantic pass over a parsed top-level
// statement list. natives registers the built-in function signatures
// at engine construction time, before Phase A begins.
func Analyze(stmts []ast.Stmt, natives []Signature) (*Result, *diag.Sink) {
	a := &Analyzer{
		sink:   diag.NewSink(),
		scopes: scope.NewStack(),
		slots:  &scope.SlotTable{},
		funcs:  NewFunctionTable(),
	}
	for _, sig := range natives {
		a.funcs.RegisterNative(sig)
	}

	// Phase A: function discovery.
	funcEntryAt := make(map[int]*Entry)
	for i, s := range stmts {
		if fn, ok := s.(ast.FuncDef); ok {
			if e := a.discoverFunction(fn); e != nil {
				funcEntryAt[i] = e
			}
		}
	}

	// Phase B: top-level statement analysis, in source order, in the
	// global scope. Function definitions are skipped here (already
	// handled by phase A) and patched in below once phase C folds them.
	topOut := make([]ast.Stmt, len(stmts))
	assigned := scope.Assigned{}
	exited := false
	for i, s := range stmts {
		if _, isFn := s.(ast.FuncDef); isFn {
			topOut[i] = s
			continue
		}
		if exited {
			a.warnAt(s.Position(), "unreachable code")
		}
		var stmtExits bool
		topOut[i], assigned, stmtExits = a.analyzeStmt(s, assigned)
		if stmtExits {
			exited = true
		}
	}

	// Phase C: function-body analysis, in discovery order.
	for _, entry := range a.funcs.UserOrder {
		a.analyzeFunctionBody(entry)
	}

	for i := range stmts {
		if entry, ok := funcEntryAt[i]; ok {
			topOut[i] = *entry.Decl
		}
	}

	return &Result{Stmts: topOut, Slots: a.slots, Functions: a.funcs, Tokens: a.tokens}, a.sink
}

func validReturnType(t types.Tag) bool {
	switch t {
	case types.Int, types.Float, types.Bool, types.String, types.Auto, types.Void:
		return true
	default:
		return false
	}
}

func validParamType(t types.Tag) bool {
	return validReturnType(t) || t == types.Numeral
}

// discoverFunction is Phase A for a single FuncDef.
func (a *Analyzer) discoverFunction(fn ast.FuncDef) *Entry {
	if !validReturnType(fn.ReturnType) {
		a.errorAt(fn.Pos, "unknown return type %q for function %q", fn.ReturnType, fn.Name)
	}
	paramTypes := make([]types.Tag, len(fn.Params))
	seen := make(map[string]bool, len(fn.Params))
	for i, p := range fn.Params {
		if !validParamType(p.DeclaredType) {
			a.errorAt(fn.Pos, "unknown parameter type %q in function %q", p.DeclaredType, fn.Name)
			paramTypes[i] = types.Error
		} else {
			paramTypes[i] = p.DeclaredType
		}
		if seen[p.Name] {
			a.errorAt(fn.Pos, "duplicate parameter name %q in function %q", p.Name, fn.Name)
		}
		seen[p.Name] = true
	}
	if a.funcs.HasExactUserSignature(fn.Name, paramTypes) {
		a.errorAt(fn.Pos, "function %q redeclared with an identical parameter signature", fn.Name)
		return nil
	}
	sig := Signature{Name: fn.Name, Params: paramTypes, ReturnType: fn.ReturnType}
	fnCopy := fn
	return a.funcs.RegisterUser(sig, &fnCopy)
}

// analyzeFunctionBody is Phase C for a single discovered function.
func (a *Analyzer) analyzeFunctionBody(entry *Entry) {
	fn := entry.Decl
	a.scopes.Push()
	assigned := scope.Assigned{}
	newParams := make([]ast.Parameter, len(fn.Params))
	for i, p := range fn.Params {
		slot := a.slots.Alloc(p.Name)
		ptype := entry.Sig.Params[i]
		a.scopes.Current().Declare(scope.VarInfo{Name: p.Name, Type: ptype, Slot: slot})
		assigned.Set(slot)
		newParams[i] = ast.Parameter{DeclaredType: p.DeclaredType, Name: p.Name, SlotIndex: slot, Initializer: p.Initializer}
	}

	prevInFunc, prevName, prevRet := a.inFunction, a.currentFuncName, a.currentReturnType
	a.inFunction, a.currentFuncName, a.currentReturnType = true, fn.Name, entry.Sig.ReturnType
	bodyOut, _, exits := a.analyzeBlock(fn.Body, assigned)
	a.inFunction, a.currentFuncName, a.currentReturnType = prevInFunc, prevName, prevRet

	a.scopes.Pop()

	if entry.Sig.ReturnType != types.Void && !exits {
		a.errorAt(fn.Pos, "function %q does not return a value on all control-flow paths", fn.Name)
	}
	fn.Params = newParams
	fn.Body = bodyOut
}

// analyzeBlock analyzes a statement list, threading the
// definite-assignment bitset and reporting unreachable code after any
// statement that always exits.
func (a *Analyzer) analyzeBlock(stmts []ast.Stmt, assigned scope.Assigned) ([]ast.Stmt, scope.Assigned, bool) {
	out := make([]ast.Stmt, len(stmts))
	exited := false
	for i, s := range stmts {
		if exited {
			a.warnAt(s.Position(), "unreachable code")
		}
		var stmtExits bool
		out[i], assigned, stmtExits = a.analyzeStmt(s, assigned)
		if stmtExits {
			exited = true
		}
	}
	return out, assigned, exited
}

func (a *Analyzer) analyzeStmt(s ast.Stmt, assigned scope.Assigned) (ast.Stmt, scope.Assigned, bool) {
	switch st := s.(type) {
	case ast.VarDecl:
		return a.analyzeVarDecl(st, assigned)
	case ast.Assign:
		return a.analyzeAssign(st, assigned)
	case ast.Increment:
		return a.analyzeIncrement(st, assigned)
	case ast.ExprStmt:
		return a.analyzeExprStmt(st, assigned)
	case ast.If:
		return a.analyzeIf(st, assigned)
	case ast.While:
		return a.analyzeWhile(st, assigned)
	case ast.For:
		return a.analyzeFor(st, assigned)
	case ast.Return:
		return a.analyzeReturn(st, assigned)
	case ast.Block:
		body, newAssigned, exits := a.analyzeBlock(st.Stmts, assigned)
		return ast.Block{Pos: st.Pos, Stmts: body}, newAssigned, exits
	case ast.FuncDef:
		return st, assigned, false
	default:
		return s, assigned, false
	}
}

func (a *Analyzer) analyzeVarDecl(v ast.VarDecl, assigned scope.Assigned) (ast.Stmt, scope.Assigned, bool) {
	assigned = assigned.Clone()
	slot := a.slots.Alloc(v.Name)

	declaredType := v.DeclaredType
	var initOut ast.Expr
	var initType types.Tag = types.Auto
	if v.Initializer != nil {
		initOut, initType = a.analyzeExpr(v.Initializer, assigned)
	}

	if declaredType == types.Auto {
		switch {
		case v.Initializer == nil:
			a.errorAt(v.Pos, "variable %q declared 'auto' must have an initializer", v.Name)
			declaredType = types.Error
		case initType == types.Error:
			declaredType = types.Error
		default:
			declaredType = initType
		}
	} else if v.Initializer != nil && !types.Compatible(initType, declaredType) {
		a.errorAt(v.Pos, "cannot assign %s to %s variable %q", initType, declaredType, v.Name)
	}

	a.scopes.Current().Declare(scope.VarInfo{Name: v.Name, Type: declaredType, Slot: slot})
	if v.Initializer != nil {
		assigned.Set(slot)
	}
	a.emitToken(v.Pos, CategoryVariable, ModifierDeclaration)

	return ast.VarDecl{Pos: v.Pos, DeclaredType: declaredType, Name: v.Name, SlotIndex: slot, Initializer: initOut}, assigned, false
}

func (a *Analyzer) analyzeAssign(asg ast.Assign, assigned scope.Assigned) (ast.Stmt, scope.Assigned, bool) {
	assigned = assigned.Clone()
	valueOut, valueType := a.analyzeExpr(asg.Value, assigned)

	vi, ok := a.scopes.Lookup(asg.Name)
	if !ok {
		a.errorAt(asg.Pos, "use of undeclared variable %q", asg.Name)
		return ast.Assign{Pos: asg.Pos, Name: asg.Name, SlotIndex: -1, Op: asg.Op, Value: valueOut}, assigned, false
	}

	if asg.Op == ast.AssignSet {
		if !types.Compatible(valueType, vi.Type) {
			a.errorAt(asg.Pos, "cannot assign %s to %s variable %q", valueType, vi.Type, asg.Name)
		}
	} else {
		if (!types.IsNumeric(vi.Type) && vi.Type != types.Error) || (!types.IsNumeric(valueType) && valueType != types.Error) {
			a.errorAt(asg.Pos, "compound assignment requires numeric operands, got %s and %s", vi.Type, valueType)
		} else {
			promoted := types.Promote(vi.Type, valueType)
			if !types.Compatible(promoted, vi.Type) {
				a.errorAt(asg.Pos, "cannot assign %s to %s variable %q", promoted, vi.Type, asg.Name)
			}
		}
	}

	assigned.Set(vi.Slot)
	a.emitToken(asg.Pos, CategoryVariable)
	return ast.Assign{Pos: asg.Pos, Name: asg.Name, SlotIndex: vi.Slot, Op: asg.Op, Value: valueOut}, assigned, false
}

func (a *Analyzer) analyzeIncrement(inc ast.Increment, assigned scope.Assigned) (ast.Stmt, scope.Assigned, bool) {
	assigned = assigned.Clone()
	vi, ok := a.scopes.Lookup(inc.Name)
	if !ok {
		a.errorAt(inc.Pos, "use of undeclared variable %q", inc.Name)
		return inc, assigned, false
	}
	if !types.IsNumeric(vi.Type) && vi.Type != types.Error {
		a.errorAt(inc.Pos, "'++'/'--' requires a numeric variable, got %s", vi.Type)
	}
	assigned.Set(vi.Slot)
	a.emitToken(inc.Pos, CategoryVariable)
	return ast.Increment{Pos: inc.Pos, Name: inc.Name, SlotIndex: vi.Slot, IsIncrement: inc.IsIncrement}, assigned, false
}

func (a *Analyzer) analyzeExprStmt(es ast.ExprStmt, assigned scope.Assigned) (ast.Stmt, scope.Assigned, bool) {
	exprOut, _ := a.analyzeExpr(es.Expr, assigned)
	return ast.ExprStmt{Pos: es.Pos, Expr: exprOut}, assigned, false
}

func (a *Analyzer) analyzeIf(ifs ast.If, assigned scope.Assigned) (ast.Stmt, scope.Assigned, bool) {
	condOut, condType := a.analyzeExpr(ifs.Cond, assigned)
	if condType != types.Bool && condType != types.Error {
		a.errorAt(ifs.Cond.Position(), "if condition must be bool, got %s", condType)
	}

	a.scopes.Push()
	bodyOut, bodyAssigned, bodyExits := a.analyzeBlock(ifs.Body, assigned.Clone())
	a.scopes.Pop()

	var elseOut []ast.Stmt
	elseAssigned := assigned
	elseExits := false
	if ifs.ElseBody != nil {
		a.scopes.Push()
		elseOut, elseAssigned, elseExits = a.analyzeBlock(ifs.ElseBody, assigned.Clone())
		a.scopes.Pop()
	}

	postAssigned := scope.Intersect(bodyAssigned, elseAssigned)
	exits := ifs.ElseBody != nil && bodyExits && elseExits
	return ast.If{Pos: ifs.Pos, Cond: condOut, Body: bodyOut, ElseBody: elseOut}, postAssigned, exits
}

func (a *Analyzer) analyzeWhile(w ast.While, assigned scope.Assigned) (ast.Stmt, scope.Assigned, bool) {
	condOut, condType := a.analyzeExpr(w.Cond, assigned)
	if condType != types.Bool && condType != types.Error {
		a.errorAt(w.Cond.Position(), "while condition must be bool, got %s", condType)
	}

	a.scopes.Push()
	bodyOut, bodyAssigned, bodyExits := a.analyzeBlock(w.Body, assigned.Clone())
	a.scopes.Pop()

	postAssigned := scope.Union(assigned, bodyAssigned)
	exits := bodyExits && isLiteralTrue(condOut)
	return ast.While{Pos: w.Pos, Cond: condOut, Body: bodyOut}, postAssigned, exits
}

func (a *Analyzer) analyzeFor(f ast.For, assigned scope.Assigned) (ast.Stmt, scope.Assigned, bool) {
	a.scopes.Push()

	initAssigned := assigned.Clone()
	var initOut ast.Stmt
	if f.Init != nil {
		initOut, initAssigned, _ = a.analyzeForInit(f.Init, initAssigned)
	}

	condIsTrueOrAbsent := true
	var condOut ast.Expr
	if f.Cond != nil {
		var condType types.Tag
		condOut, condType = a.analyzeExpr(f.Cond, initAssigned)
		if condType != types.Bool && condType != types.Error {
			a.errorAt(f.Cond.Position(), "for condition must be bool, got %s", condType)
		}
		condIsTrueOrAbsent = isLiteralTrue(condOut)
	}

	bodyOut, bodyAssigned, bodyExits := a.analyzeBlock(f.Body, initAssigned.Clone())

	var incOut ast.Stmt
	incAssigned := bodyAssigned
	if f.Increment != nil {
		incOut, incAssigned, _ = a.analyzeForIncrement(f.Increment, incAssigned)
	}

	a.scopes.Pop()

	postAssigned := scope.Union(assigned, incAssigned)
	exits := bodyExits && condIsTrueOrAbsent
	return ast.For{Pos: f.Pos, Init: initOut, Cond: condOut, Increment: incOut, Body: bodyOut}, postAssigned, exits
}

// analyzeForInit handles the VarDecl-or-numeric-expression shape of a
// for-loop initializer.
func (a *Analyzer) analyzeForInit(s ast.Stmt, assigned scope.Assigned) (ast.Stmt, scope.Assigned, bool) {
	switch st := s.(type) {
	case ast.VarDecl:
		return a.analyzeVarDecl(st, assigned)
	case ast.ExprStmt:
		exprOut, t := a.analyzeExpr(st.Expr, assigned)
		if !types.IsNumeric(t) && t != types.Error {
			a.errorAt(st.Pos, "for-loop initializer must be numeric, got %s", t)
		}
		return ast.ExprStmt{Pos: st.Pos, Expr: exprOut}, assigned, false
	default:
		return s, assigned, false
	}
}

// analyzeForIncrement handles the Increment-or-numeric-expression shape
// of a for-loop increment clause.
func (a *Analyzer) analyzeForIncrement(s ast.Stmt, assigned scope.Assigned) (ast.Stmt, scope.Assigned, bool) {
	switch st := s.(type) {
	case ast.Increment:
		return a.analyzeIncrement(st, assigned)
	case ast.ExprStmt:
		exprOut, t := a.analyzeExpr(st.Expr, assigned)
		if !types.IsNumeric(t) && t != types.Error {
			a.errorAt(st.Pos, "for-loop increment must be numeric, got %s", t)
		}
		return ast.ExprStmt{Pos: st.Pos, Expr: exprOut}, assigned, false
	default:
		return s, assigned, false
	}
}

func (a *Analyzer) analyzeReturn(r ast.Return, assigned scope.Assigned) (ast.Stmt, scope.Assigned, bool) {
	var exprOut ast.Expr
	var exprType types.Tag = types.Void
	if r.Expr != nil {
		exprOut, exprType = a.analyzeExpr(r.Expr, assigned)
	}
	if a.inFunction {
		switch {
		case a.currentReturnType == types.Void && r.Expr != nil:
			a.errorAt(r.Pos, "function %q is void and cannot return a value", a.currentFuncName)
		case a.currentReturnType != types.Void && r.Expr == nil:
			a.errorAt(r.Pos, "function %q must return a value of type %s", a.currentFuncName, a.currentReturnType)
		case a.currentReturnType != types.Void && r.Expr != nil && !types.Compatible(exprType, a.currentReturnType):
			a.errorAt(r.Pos, "cannot return %s from function %q declared to return %s", exprType, a.currentFuncName, a.currentReturnType)
		}
	}
	return ast.Return{Pos: r.Pos, Expr: exprOut}, assigned, true
}

// --- expressions ---

func (a *Analyzer) analyzeExpr(e ast.Expr, assigned scope.Assigned) (ast.Expr, types.Tag) {
	if e == nil {
		return nil, types.Void
	}
	switch ex := e.(type) {
	case ast.Literal:
		return a.analyzeLiteral(ex)
	case ast.Variable:
		return a.analyzeVariable(ex, assigned)
	case ast.Unary:
		return a.analyzeUnary(ex, assigned)
	case ast.Binary:
		return a.analyzeBinary(ex, assigned)
	case ast.FunctionCall:
		return a.analyzeCall(ex, assigned)
	case ast.ModuleAccess:
		return a.analyzeModuleAccess(ex, assigned)
	default:
		return e, types.Error
	}
}

func (a *Analyzer) analyzeLiteral(l ast.Literal) (ast.Expr, types.Tag) {
	switch l.Kind {
	case ast.LitInt:
		a.emitToken(l.Pos, CategoryNumber)
		return l, types.Int
	case ast.LitFloat:
		a.emitToken(l.Pos, CategoryNumber)
		return l, types.Float
	case ast.LitBool:
		a.emitToken(l.Pos, CategoryBoolean)
		return l, types.Bool
	case ast.LitString:
		a.emitToken(l.Pos, CategoryString)
		return l, types.String
	default: // LitNull
		return l, types.Error
	}
}

func (a *Analyzer) analyzeVariable(v ast.Variable, assigned scope.Assigned) (ast.Expr, types.Tag) {
	vi, ok := a.scopes.Lookup(v.Name)
	if !ok {
		a.errorAt(v.Pos, "use of undeclared variable %q", v.Name)
		return ast.Variable{Pos: v.Pos, Name: v.Name, SlotIndex: -1}, types.Error
	}
	if !assigned.Has(vi.Slot) {
		a.warnAt(v.Pos, "variable %q may be used before being assigned", v.Name)
	}
	a.emitToken(v.Pos, CategoryVariable)
	return ast.Variable{Pos: v.Pos, Name: v.Name, SlotIndex: vi.Slot}, vi.Type
}

func (a *Analyzer) analyzeUnary(u ast.Unary, assigned scope.Assigned) (ast.Expr, types.Tag) {
	operandOut, operandType := a.analyzeExpr(u.Operand, assigned)

	var resultType types.Tag
	switch u.Op {
	case ast.OpNeg, ast.OpPreIncr, ast.OpPreDecr:
		switch {
		case operandType == types.Error:
			resultType = types.Error
		case !types.IsNumeric(operandType):
			a.errorAt(u.Pos, "unary operator requires a numeric operand, got %s", operandType)
			resultType = types.Error
		default:
			resultType = operandType
		}
	case ast.OpNot:
		switch {
		case operandType == types.Error:
			resultType = types.Error
		case operandType != types.Bool:
			a.errorAt(u.Pos, "unary '!' requires a bool operand, got %s", operandType)
			resultType = types.Error
		default:
			resultType = types.Bool
		}
	}

	newUnary := ast.Unary{Pos: u.Pos, Op: u.Op, Operand: operandOut}
	if lit, ok := operandOut.(ast.Literal); ok {
		if folded, ok2 := foldUnary(newUnary, lit); ok2 {
			return folded, resultType
		}
	}
	return newUnary, resultType
}

func (a *Analyzer) analyzeBinary(b ast.Binary, assigned scope.Assigned) (ast.Expr, types.Tag) {
	if b.Op == ast.OpAnd || b.Op == ast.OpOr {
		return a.analyzeShortCircuit(b, assigned)
	}

	leftOut, leftType := a.analyzeExpr(b.Left, assigned)
	rightOut, rightType := a.analyzeExpr(b.Right, assigned)
	resultType := a.typeOfBinary(b.Op, b.Pos, leftType, rightType)

	newBin := ast.Binary{Pos: b.Pos, Left: leftOut, Op: b.Op, Right: rightOut}
	if ll, ok := leftOut.(ast.Literal); ok {
		if rl, ok2 := rightOut.(ast.Literal); ok2 {
			fr := foldBinary(newBin, ll, rl)
			if fr.divByZero {
				a.errorAt(b.Pos, "division by zero")
				return newBin, types.Error
			}
			if fr.ok {
				return fr.lit, resultType
			}
		}
	}
	return newBin, resultType
}

// analyzeShortCircuit implements && and ||'s lazy evaluation at
// analysis time, not just at runtime: once the left operand folds to
// the short-circuiting literal, the right operand is not analyzed at
// all, so a fold-time error inside it (e.g. division by a literal
// zero) is never reported.
func (a *Analyzer) analyzeShortCircuit(b ast.Binary, assigned scope.Assigned) (ast.Expr, types.Tag) {
	leftOut, leftType := a.analyzeExpr(b.Left, assigned)
	if leftType != types.Bool && leftType != types.Error {
		a.errorAt(b.Left.Position(), "'%s' requires a bool left operand, got %s", binaryOpSymbol(b.Op), leftType)
	}

	if ll, ok := leftOut.(ast.Literal); ok && ll.Kind == ast.LitBool {
		lb, _ := ll.Value.(bool)
		if b.Op == ast.OpAnd && !lb {
			return boolLiteral(b.Pos, false), types.Bool
		}
		if b.Op == ast.OpOr && lb {
			return boolLiteral(b.Pos, true), types.Bool
		}
	}

	rightOut, rightType := a.analyzeExpr(b.Right, assigned)
	if rightType != types.Bool && rightType != types.Error {
		a.errorAt(b.Right.Position(), "'%s' requires a bool right operand, got %s", binaryOpSymbol(b.Op), rightType)
	}

	newBin := ast.Binary{Pos: b.Pos, Left: leftOut, Op: b.Op, Right: rightOut}
	if ll, ok := leftOut.(ast.Literal); ok {
		if rl, ok2 := rightOut.(ast.Literal); ok2 {
			if fr := foldBinary(newBin, ll, rl); fr.ok {
				return fr.lit, types.Bool
			}
		}
	}
	return newBin, types.Bool
}

func (a *Analyzer) typeOfBinary(op ast.BinaryOp, pos ast.Pos, lt, rt types.Tag) types.Tag {
	if lt == types.Error || rt == types.Error {
		return types.Error
	}
	switch op {
	case ast.OpAdd:
		if lt == types.String || rt == types.String {
			return types.String
		}
		if types.IsNumeric(lt) && types.IsNumeric(rt) {
			return types.Promote(lt, rt)
		}
		a.errorAt(pos, "operator '+' cannot be applied to %s and %s", lt, rt)
		return types.Error
	case ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod, ast.OpPow:
		if types.IsNumeric(lt) && types.IsNumeric(rt) {
			return types.Promote(lt, rt)
		}
		a.errorAt(pos, "operator '%s' requires numeric operands, got %s and %s", binaryOpSymbol(op), lt, rt)
		return types.Error
	case ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpGt, ast.OpLte, ast.OpGte:
		if !types.Compatible(lt, rt) && !types.Compatible(rt, lt) {
			a.errorAt(pos, "cannot compare %s and %s", lt, rt)
			return types.Error
		}
		return types.Bool
	default:
		return types.Error
	}
}

func (a *Analyzer) analyzeCall(c ast.FunctionCall, assigned scope.Assigned) (ast.Expr, types.Tag) {
	argOuts := make([]ast.Expr, len(c.Args))
	argTypes := make([]types.Tag, len(c.Args))
	for i, arg := range c.Args {
		argOuts[i], argTypes[i] = a.analyzeExpr(arg, assigned)
	}
	entry, ok := a.funcs.Resolve(c.Name, argTypes)
	if !ok {
		a.errorAt(c.Pos, "no matching overload for call to %q", c.Name)
		return ast.FunctionCall{Pos: c.Pos, Name: c.Name, Args: argOuts, ReturnType: types.Error}, types.Error
	}
	a.emitToken(c.Pos, CategoryFunction, ModifierCall)
	return ast.FunctionCall{Pos: c.Pos, Name: c.Name, Args: argOuts, ReturnType: entry.Sig.ReturnType}, entry.Sig.ReturnType
}

func (a *Analyzer) analyzeModuleAccess(m ast.ModuleAccess, assigned scope.Assigned) (ast.Expr, types.Tag) {
	argOuts := make([]ast.Expr, len(m.Args))
	argTypes := make([]types.Tag, len(m.Args))
	for i, arg := range m.Args {
		argOuts[i], argTypes[i] = a.analyzeExpr(arg, assigned)
	}
	entry, ok := a.funcs.ResolveModule(m.ModuleName, m.FunctionName, argTypes)
	if !ok {
		a.errorAt(m.Pos, "no matching overload for %s.%s", m.ModuleName, m.FunctionName)
		return ast.ModuleAccess{Pos: m.Pos, ModuleName: m.ModuleName, FunctionName: m.FunctionName, Args: argOuts, ReturnType: types.Error}, types.Error
	}
	a.emitToken(m.Pos, CategoryFunction, ModifierCall, ModifierStatic)
	return ast.ModuleAccess{Pos: m.Pos, ModuleName: m.ModuleName, FunctionName: m.FunctionName, Args: argOuts, ReturnType: entry.Sig.ReturnType}, entry.Sig.ReturnType
}

func isLiteralTrue(e ast.Expr) bool {
	lit, ok := e.(ast.Literal)
	if !ok || lit.Kind != ast.LitBool {
		return false
	}
	b, _ := lit.Value.(bool)
	return b
}

func binaryOpSymbol(op ast.BinaryOp) string {
	switch op {
	case ast.OpAdd:
		return "+"
	case ast.OpSub:
		return "-"
	case ast.OpMul:
		return "*"
	case ast.OpDiv:
		return "/"
	case ast.OpMod:
		return "%"
	case ast.OpPow:
		return "**"
	case ast.OpEq:
		return "=="
	case ast.OpNeq:
		return "!="
	case ast.OpLt:
		return "<"
	case ast.OpGt:
		return ">"
	case ast.OpLte:
		return "<="
	case ast.OpGte:
		return ">="
	case ast.OpAnd:
		return "&&"
	case ast.OpOr:
		return "||"
	default:
		return "?"
	}
}

func (a *Analyzer) errorAt(pos ast.Pos, format string, args ...any) {
	a.sink.Add(diag.Error, fmt.Sprintf(format, args...), diag.Pos{Line: pos.Line, Col: pos.StartCol}, diag.Pos{Line: pos.Line, Col: pos.EndCol + 1})
}

func (a *Analyzer) warnAt(pos ast.Pos, format string, args ...any) {
	a.sink.Add(diag.Warning, fmt.Sprintf(format, args...), diag.Pos{Line: pos.Line, Col: pos.StartCol}, diag.Pos{Line: pos.Line, Col: pos.EndCol + 1})
}
