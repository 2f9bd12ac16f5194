// Package bytecode lowers a folded, slot-assigned AST (sema.Result)
// into a flat Instruction vector the VM executes.
//
// Grounded on informatter-nilan/compiler/compiler.go's ASTCompiler: a
// type-switch-driven (originally Visit*-driven) emitter that walks
// statements in source order and recursively compiles expressions
// left-then-right before emitting the operator's opcode. Vext adds
// everything the teacher's ASTCompiler panics on as "not yet
// supported" (if/while/for, short-circuit &&/||, functions, calls),
// and replaces the teacher's name-constant-pool global model with
// direct slot indices (sema already resolved every
// Variable/Assign/Increment to a slot).
package bytecode

import (
	"vext/ast"
	"vext/sema"
	"vext/value"
)

type emitter struct {
	prog []Instruction
}

// Emit lowers a successful semantic-analysis result into a Program.
// Bytecode generation only ever runs when the compilation phase has
// zero Error-severity diagnostics — callers are expected to check
// that before calling Emit.
func Emit(result *sema.Result) *Program {
	e := &emitter{}
	for _, s := range result.Stmts {
		e.emitStmt(s)
	}
	return &Program{Instructions: e.prog, SlotNames: result.Slots.Names()}
}

func (e *emitter) append(instr Instruction) int {
	e.prog = append(e.prog, instr)
	return len(e.prog) - 1
}

func (e *emitter) here() int { return len(e.prog) }

func (e *emitter) patchTo(idx int, target int) {
	e.prog[idx].Target = target
}

func posOf(p ast.Pos) (line, col int) { return p.Line, p.StartCol }

func (e *emitter) emitStmt(s ast.Stmt) {
	switch st := s.(type) {
	case ast.VarDecl:
		e.emitVarDecl(st)
	case ast.Assign:
		e.emitAssign(st)
	case ast.Increment:
		e.emitIncrement(st)
	case ast.ExprStmt:
		e.emitExprStmt(st)
	case ast.If:
		e.emitIf(st)
	case ast.While:
		e.emitWhile(st)
	case ast.For:
		e.emitFor(st)
	case ast.Return:
		e.emitReturn(st)
	case ast.FuncDef:
		e.emitFuncDef(st)
	case ast.Block:
		for _, inner := range st.Stmts {
			e.emitStmt(inner)
		}
	}
}

func (e *emitter) emitVarDecl(v ast.VarDecl) {
	if v.Initializer == nil {
		return
	}
	line, col := posOf(v.Pos)
	e.emitExpr(v.Initializer)
	e.append(Instruction{Op: StoreVar, Slot: v.SlotIndex, Line: line, Col: col})
}

var compoundOp = map[ast.AssignOp]Opcode{
	ast.AssignAdd: Add,
	ast.AssignSub: Sub,
	ast.AssignMul: Mul,
	ast.AssignDiv: Div,
}

func (e *emitter) emitAssign(a ast.Assign) {
	line, col := posOf(a.Pos)
	if a.Op == ast.AssignSet {
		e.emitExpr(a.Value)
		e.append(Instruction{Op: StoreVar, Slot: a.SlotIndex, Line: line, Col: col})
		return
	}
	e.append(Instruction{Op: LoadVar, Slot: a.SlotIndex, Line: line, Col: col})
	e.emitExpr(a.Value)
	e.append(Instruction{Op: compoundOp[a.Op], Line: line, Col: col})
	e.append(Instruction{Op: StoreVar, Slot: a.SlotIndex, Line: line, Col: col})
}

func (e *emitter) emitIncrement(inc ast.Increment) {
	line, col := posOf(inc.Pos)
	op := IncVar
	if !inc.IsIncrement {
		op = DecVar
	}
	e.append(Instruction{Op: op, Slot: inc.SlotIndex, Line: line, Col: col})
}

func (e *emitter) emitExprStmt(es ast.ExprStmt) {
	switch es.Expr.(type) {
	case ast.FunctionCall, ast.ModuleAccess:
		// A call used as a statement discards its result via CALL_VOID.
		e.emitCall(es.Expr, true)
	default:
		// Any other expression (possible in a for-loop init or increment
		// clause) leaves one value on the stack, which is popped.
		line, col := posOf(es.Pos)
		e.emitExpr(es.Expr)
		e.append(Instruction{Op: Pop, Line: line, Col: col})
	}
}

func (e *emitter) emitIf(ifs ast.If) {
	line, col := posOf(ifs.Pos)
	e.emitExpr(ifs.Cond)
	elseJump := e.append(Instruction{Op: JmpIfFalse, Line: line, Col: col})
	for _, s := range ifs.Body {
		e.emitStmt(s)
	}
	if ifs.ElseBody != nil {
		endJump := e.append(Instruction{Op: Jmp, Line: line, Col: col})
		e.patchTo(elseJump, e.here())
		for _, s := range ifs.ElseBody {
			e.emitStmt(s)
		}
		e.patchTo(endJump, e.here())
	} else {
		e.patchTo(elseJump, e.here())
	}
}

// fastLoopCompare recognizes the `Variable <cmp> Literal` condition
// shape that the While/For lowering rule specializes into a single
// JMP_IF_VAR_OP_CONST instead of a generic compare+branch.
func fastLoopCompare(cond ast.Expr) (slot int, cmp CompareOp, limit float64, ok bool) {
	b, isBin := cond.(ast.Binary)
	if !isBin {
		return 0, 0, 0, false
	}
	v, isVar := b.Left.(ast.Variable)
	if !isVar {
		return 0, 0, 0, false
	}
	lit, isLit := b.Right.(ast.Literal)
	if !isLit {
		return 0, 0, 0, false
	}
	var n float64
	switch x := lit.Value.(type) {
	case int64:
		n = float64(x)
	case float64:
		n = x
	default:
		return 0, 0, 0, false
	}
	switch b.Op {
	case ast.OpLt:
		return v.SlotIndex, CmpLt, n, true
	case ast.OpLte:
		return v.SlotIndex, CmpLte, n, true
	case ast.OpGt:
		return v.SlotIndex, CmpGt, n, true
	case ast.OpGte:
		return v.SlotIndex, CmpGte, n, true
	default:
		return 0, 0, 0, false
	}
}

// emitLoopCondition emits the condition check common to while/for,
// returning the index of the exit-jump instruction to patch once the
// loop's end position is known.
func (e *emitter) emitLoopCondition(cond ast.Expr, pos ast.Pos) int {
	line, col := posOf(pos)
	if slot, cmp, limit, ok := fastLoopCompare(cond); ok {
		return e.append(Instruction{Op: JmpIfVarOpConst, Slot: slot, CmpOp: cmp, Limit: limit, Line: line, Col: col})
	}
	e.emitExpr(cond)
	return e.append(Instruction{Op: JmpIfFalse, Line: line, Col: col})
}

func (e *emitter) emitWhile(w ast.While) {
	loopStart := e.here()
	exitJump := e.emitLoopCondition(w.Cond, w.Pos)
	for _, s := range w.Body {
		e.emitStmt(s)
	}
	line, col := posOf(w.Pos)
	e.append(Instruction{Op: Jmp, Target: loopStart, Line: line, Col: col})
	e.patchTo(exitJump, e.here())
}

func (e *emitter) emitFor(f ast.For) {
	if f.Init != nil {
		e.emitStmt(f.Init)
	}
	loopStart := e.here()
	var exitJump int
	hasCond := f.Cond != nil
	if hasCond {
		exitJump = e.emitLoopCondition(f.Cond, f.Pos)
	}
	for _, s := range f.Body {
		e.emitStmt(s)
	}
	if f.Increment != nil {
		e.emitStmt(f.Increment)
	}
	line, col := posOf(f.Pos)
	e.append(Instruction{Op: Jmp, Target: loopStart, Line: line, Col: col})
	if hasCond {
		e.patchTo(exitJump, e.here())
	}
}

func (e *emitter) emitReturn(r ast.Return) {
	line, col := posOf(r.Pos)
	if r.Expr != nil {
		e.emitExpr(r.Expr)
	} else {
		e.append(Instruction{Op: LoadConst, Const: value.NewNull(), Line: line, Col: col})
	}
	e.append(Instruction{Op: Ret, Line: line, Col: col})
}

func (e *emitter) emitFuncDef(fn ast.FuncDef) {
	line, col := posOf(fn.Pos)
	inner := &emitter{}
	// Parameters arrive on the stack left-to-right but are popped
	// right-to-left by the callee, so the preamble stores them in
	// reverse.
	for i := len(fn.Params) - 1; i >= 0; i-- {
		inner.append(Instruction{Op: StoreVar, Slot: fn.Params[i].SlotIndex, Line: line, Col: col})
	}
	for _, s := range fn.Body {
		inner.emitStmt(s)
	}
	if len(inner.prog) == 0 || inner.prog[len(inner.prog)-1].Op != Ret {
		inner.append(Instruction{Op: LoadConst, Const: value.NewNull(), Line: line, Col: col})
		inner.append(Instruction{Op: Ret, Line: line, Col: col})
	}

	paramSlots := make([]int, len(fn.Params))
	for i, p := range fn.Params {
		paramSlots[i] = p.SlotIndex
	}
	uf := &UserFunction{
		Name:       fn.Name,
		ParamSlots: paramSlots,
		Body:       inner.prog,
		LocalCount: len(paramSlots) + countDeclaredSlots(fn.Body),
	}
	e.append(Instruction{Op: DefFunc, Name: fn.Name, ArgCount: len(fn.Params), Func: uf, Line: line, Col: col})
}

// countDeclaredSlots recursively counts VarDecl nodes in a statement
// list, for the UserFunction.LocalCount metadata field.
func countDeclaredSlots(stmts []ast.Stmt) int {
	n := 0
	for _, s := range stmts {
		switch st := s.(type) {
		case ast.VarDecl:
			n++
		case ast.Block:
			n += countDeclaredSlots(st.Stmts)
		case ast.If:
			n += countDeclaredSlots(st.Body)
			n += countDeclaredSlots(st.ElseBody)
		case ast.While:
			n += countDeclaredSlots(st.Body)
		case ast.For:
			if st.Init != nil {
				n += countDeclaredSlots([]ast.Stmt{st.Init})
			}
			n += countDeclaredSlots(st.Body)
		}
	}
	return n
}

func (e *emitter) emitExpr(expr ast.Expr) {
	switch ex := expr.(type) {
	case ast.Literal:
		e.emitLiteral(ex)
	case ast.Variable:
		line, col := posOf(ex.Pos)
		e.append(Instruction{Op: LoadVar, Slot: ex.SlotIndex, Line: line, Col: col})
	case ast.Unary:
		e.emitUnary(ex)
	case ast.Binary:
		e.emitBinary(ex)
	case ast.FunctionCall:
		e.emitCall(ex, false)
	case ast.ModuleAccess:
		e.emitCall(ex, false)
	}
}

func (e *emitter) emitLiteral(l ast.Literal) {
	line, col := posOf(l.Pos)
	var v value.Value
	switch l.Kind {
	case ast.LitInt, ast.LitFloat:
		// Constant folding always computes in float64 regardless of the
		// static Int/Float tag (sema/fold.go), so Value may already be
		// float64 even for a LitInt-tagged literal; handle both.
		switch n := l.Value.(type) {
		case int64:
			v = value.NewNumber(float64(n))
		case float64:
			v = value.NewNumber(n)
		}
	case ast.LitBool:
		v = value.NewBool(l.Value.(bool))
	case ast.LitString:
		v = value.NewString(l.Value.(string))
	default:
		v = value.NewNull()
	}
	e.append(Instruction{Op: LoadConst, Const: v, Line: line, Col: col})
}

func (e *emitter) emitUnary(u ast.Unary) {
	line, col := posOf(u.Pos)
	switch u.Op {
	case ast.OpNeg:
		e.emitExpr(u.Operand)
		e.append(Instruction{Op: LoadConst, Const: value.NewNumber(-1), Line: line, Col: col})
		e.append(Instruction{Op: Mul, Line: line, Col: col})
	case ast.OpNot:
		e.emitExpr(u.Operand)
		e.append(Instruction{Op: Not, Line: line, Col: col})
	case ast.OpPreIncr, ast.OpPreDecr:
		v := u.Operand.(ast.Variable)
		op := IncVar
		if u.Op == ast.OpPreDecr {
			op = DecVar
		}
		e.append(Instruction{Op: op, Slot: v.SlotIndex, Line: line, Col: col})
		e.append(Instruction{Op: LoadVar, Slot: v.SlotIndex, Line: line, Col: col})
	}
}

var binaryOpcode = map[ast.BinaryOp]Opcode{
	ast.OpAdd: Add,
	ast.OpSub: Sub,
	ast.OpMul: Mul,
	ast.OpDiv: Div,
	ast.OpMod: Mod,
	ast.OpPow: Pow,
	ast.OpEq:  Eq,
	ast.OpNeq: Neq,
	ast.OpLt:  Lt,
	ast.OpLte: Lte,
	ast.OpGt:  Gt,
	ast.OpGte: Gte,
}

func (e *emitter) emitBinary(b ast.Binary) {
	if b.Op == ast.OpAnd {
		e.emitAnd(b)
		return
	}
	if b.Op == ast.OpOr {
		e.emitOr(b)
		return
	}
	line, col := posOf(b.Pos)
	e.emitExpr(b.Left)
	e.emitExpr(b.Right)
	e.append(Instruction{Op: binaryOpcode[b.Op], Line: line, Col: col})
}

// emitAnd lowers `&&`: left; JMP_IF_FALSE to a patch point; right; JMP
// to end; patch point loads `false`; end.
func (e *emitter) emitAnd(b ast.Binary) {
	line, col := posOf(b.Pos)
	e.emitExpr(b.Left)
	falseJump := e.append(Instruction{Op: JmpIfFalse, Line: line, Col: col})
	e.emitExpr(b.Right)
	endJump := e.append(Instruction{Op: Jmp, Line: line, Col: col})
	e.patchTo(falseJump, e.here())
	e.append(Instruction{Op: LoadConst, Const: value.NewBool(false), Line: line, Col: col})
	e.patchTo(endJump, e.here())
}

// emitOr lowers `||`, the dual of emitAnd using JMP_IF_TRUE and `true`.
func (e *emitter) emitOr(b ast.Binary) {
	line, col := posOf(b.Pos)
	e.emitExpr(b.Left)
	trueJump := e.append(Instruction{Op: JmpIfTrue, Line: line, Col: col})
	e.emitExpr(b.Right)
	endJump := e.append(Instruction{Op: Jmp, Line: line, Col: col})
	e.patchTo(trueJump, e.here())
	e.append(Instruction{Op: LoadConst, Const: value.NewBool(true), Line: line, Col: col})
	e.patchTo(endJump, e.here())
}

// emitCall lowers a FunctionCall or ModuleAccess. void selects
// CALL_VOID (result discarded unconditionally) over CALL (result
// pushed).
func (e *emitter) emitCall(expr ast.Expr, void bool) {
	var name string
	var args []ast.Expr
	var line, col int
	switch c := expr.(type) {
	case ast.FunctionCall:
		name, args = c.Name, c.Args
		line, col = posOf(c.Pos)
	case ast.ModuleAccess:
		name, args = c.ModuleName+"."+c.FunctionName, c.Args
		line, col = posOf(c.Pos)
	default:
		return
	}
	for _, a := range args {
		e.emitExpr(a)
	}
	op := Call
	if void {
		op = CallVoid
	}
	e.append(Instruction{Op: op, Name: name, ArgCount: len(args), Line: line, Col: col})
}
