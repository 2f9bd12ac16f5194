package sema

import (
	"testing"

	"vext/ast"
	"vext/diag"
	"vext/lexer"
	"vext/parser"
	"vext/types"
)

// defaultNatives mirrors the minimal free-function surface the engine
// façade registers; sema tests don't need Math.* wired in unless a
// scenario calls it.
func defaultNatives() []Signature {
	return []Signature{
		{Name: "print", Params: []types.Tag{types.Auto}, ReturnType: types.Void},
		{Name: "len", Params: []types.Tag{types.String}, ReturnType: types.Int},
		{Name: "Math.sqrt", Params: []types.Tag{types.Numeral}, ReturnType: types.Float},
	}
}

func analyzeSource(t *testing.T, src string) (*Result, *diag.Sink) {
	t.Helper()
	toks, lexSink := lexer.Tokenize(src)
	if lexSink.HasErrors() {
		t.Fatalf("lexer errors: %v", lexSink.All())
	}
	stmts, parseSink := parser.Parse(toks)
	if parseSink.HasErrors() {
		t.Fatalf("parser errors: %v", parseSink.All())
	}
	return Analyze(stmts, defaultNatives())
}

func findVarDecl(t *testing.T, stmts []ast.Stmt, name string) ast.VarDecl {
	t.Helper()
	for _, s := range stmts {
		if v, ok := s.(ast.VarDecl); ok && v.Name == name {
			return v
		}
	}
	t.Fatalf("no VarDecl named %q found", name)
	return ast.VarDecl{}
}

func TestArithmeticAndStringConcat(t *testing.T) {
	result, sink := analyzeSource(t, `int a = 2; int b = 3; string s = "sum=" + (a + b);`)
	if sink.HasErrors() {
		t.Fatalf("unexpected errors: %v", sink.All())
	}
	s := findVarDecl(t, result.Stmts, "s")
	if s.DeclaredType != types.String {
		t.Fatalf("s declared type = %s, want string", s.DeclaredType)
	}
	if result.Slots.Count() != 3 {
		t.Fatalf("slot count = %d, want 3", result.Slots.Count())
	}
}

func TestIfElseConstantConditionFolds(t *testing.T) {
	result, sink := analyzeSource(t, `int x = 0; if (10 > 3) { x = 1; } else { x = 2; }`)
	if sink.HasErrors() {
		t.Fatalf("unexpected errors: %v", sink.All())
	}
	ifStmt, ok := result.Stmts[1].(ast.If)
	if !ok {
		t.Fatalf("expected If, got %T", result.Stmts[1])
	}
	cond, ok := ifStmt.Cond.(ast.Literal)
	if !ok || cond.Kind != ast.LitBool {
		t.Fatalf("expected condition to fold to a bool literal, got %+v", ifStmt.Cond)
	}
	if b, _ := cond.Value.(bool); !b {
		t.Errorf("10 > 3 should fold to true")
	}
}

func TestForLoopSlotsAndTypes(t *testing.T) {
	result, sink := analyzeSource(t, `int n = 0; for (int i = 0; i < 5; i++) { n += i; }`)
	if sink.HasErrors() {
		t.Fatalf("unexpected errors: %v", sink.All())
	}
	if result.Slots.Count() != 2 {
		t.Fatalf("slot count = %d, want 2 (n, i)", result.Slots.Count())
	}
}

func TestOverloadResolutionAndCall(t *testing.T) {
	result, sink := analyzeSource(t, `int sq(int n) { return n * n; } int r = sq(4);`)
	if sink.HasErrors() {
		t.Fatalf("unexpected errors: %v", sink.All())
	}
	if len(result.Functions.UserOrder) != 1 || result.Functions.UserOrder[0].Sig.Name != "sq" {
		t.Fatalf("expected exactly one discovered function named sq")
	}
	r := findVarDecl(t, result.Stmts, "r")
	call, ok := r.Initializer.(ast.FunctionCall)
	if !ok || call.ReturnType != types.Int {
		t.Fatalf("expected sq(4) to resolve to int, got %+v", r.Initializer)
	}
}

func TestShortCircuitSuppressesDivisionByZero(t *testing.T) {
	result, sink := analyzeSource(t, `bool z = (1 < 2) || (1 / 0 == 0);`)
	if sink.HasErrors() {
		t.Fatalf("expected no diagnostics (short-circuit must suppress the division-by-zero fold), got %v", sink.All())
	}
	z := findVarDecl(t, result.Stmts, "z")
	lit, ok := z.Initializer.(ast.Literal)
	if !ok || lit.Kind != ast.LitBool {
		t.Fatalf("expected z's initializer to fold to a bool literal, got %+v", z.Initializer)
	}
	if b, _ := lit.Value.(bool); !b {
		t.Errorf("expected z to fold to true")
	}
}

func TestMissingReturnOnSomePathIsError(t *testing.T) {
	_, sink := analyzeSource(t, `int f(int x) { if (x > 0) { return x; } }`)
	if !sink.HasErrors() {
		t.Fatalf("expected an error diagnostic for a missing return path")
	}
}

func TestUseOfUndeclaredVariableIsError(t *testing.T) {
	_, sink := analyzeSource(t, `int a = b;`)
	if !sink.HasErrors() {
		t.Fatalf("expected an error for use of undeclared variable 'b'")
	}
}

func TestMayBeUnassignedWarning(t *testing.T) {
	_, sink := analyzeSource(t, `int a; int b = a;`)
	if sink.HasErrors() {
		t.Fatalf("unexpected errors: %v", sink.All())
	}
	if sink.Count() == 0 {
		t.Fatalf("expected a may-be-unassigned warning")
	}
}

func TestUnreachableCodeAfterReturn(t *testing.T) {
	_, sink := analyzeSource(t, `int f() { return 1; int x = 2; }`)
	if sink.HasErrors() {
		t.Fatalf("unreachable code is a warning, not an error; got %v", sink.All())
	}
	if sink.Count() == 0 {
		t.Fatalf("expected an unreachable-code warning")
	}
}

func TestDuplicateFunctionSignatureIsError(t *testing.T) {
	_, sink := analyzeSource(t, `int f(int x) { return x; } int f(int y) { return y; }`)
	if !sink.HasErrors() {
		t.Fatalf("expected an error for a duplicate function signature")
	}
}
