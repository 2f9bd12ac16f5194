package parser

import (
	"testing"

	"vext/ast"
	"vext/lexer"
)

func parseSource(t *testing.T, src string) ([]ast.Stmt, int) {
	t.Helper()
	toks, lexSink := lexer.Tokenize(src)
	if lexSink.HasErrors() {
		t.Fatalf("lexer errors: %v", lexSink.All())
	}
	stmts, sink := Parse(toks)
	return stmts, sink.Count()
}

func TestVarDecl(t *testing.T) {
	stmts, errCount := parseSource(t, `int a = 2;`)
	if errCount != 0 {
		t.Fatalf("unexpected errors: %d", errCount)
	}
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
	decl, ok := stmts[0].(ast.VarDecl)
	if !ok {
		t.Fatalf("expected VarDecl, got %T", stmts[0])
	}
	if decl.Name != "a" || decl.DeclaredType != "int" {
		t.Errorf("decl = %+v", decl)
	}
}

func TestFunctionDefinition(t *testing.T) {
	stmts, errCount := parseSource(t, `int sq(int n) { return n * n; } int r = sq(4);`)
	if errCount != 0 {
		t.Fatalf("unexpected errors: %d", errCount)
	}
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmts))
	}
	fn, ok := stmts[0].(ast.FuncDef)
	if !ok {
		t.Fatalf("expected FuncDef, got %T", stmts[0])
	}
	if fn.Name != "sq" || len(fn.Params) != 1 {
		t.Errorf("fn = %+v", fn)
	}
}

func TestIfElse(t *testing.T) {
	stmts, errCount := parseSource(t, `int x = 0; if (10 > 3) { x = 1; } else { x = 2; }`)
	if errCount != 0 {
		t.Fatalf("unexpected errors: %d", errCount)
	}
	ifStmt, ok := stmts[1].(ast.If)
	if !ok {
		t.Fatalf("expected If, got %T", stmts[1])
	}
	if len(ifStmt.Body) != 1 || len(ifStmt.ElseBody) != 1 {
		t.Errorf("if = %+v", ifStmt)
	}
}

func TestForLoop(t *testing.T) {
	stmts, errCount := parseSource(t, `int n = 0; for (int i = 0; i < 5; i++) { n += i; }`)
	if errCount != 0 {
		t.Fatalf("unexpected errors: %d", errCount)
	}
	forStmt, ok := stmts[1].(ast.For)
	if !ok {
		t.Fatalf("expected For, got %T", stmts[1])
	}
	if _, ok := forStmt.Init.(ast.VarDecl); !ok {
		t.Errorf("for-init = %T, want VarDecl", forStmt.Init)
	}
	if _, ok := forStmt.Increment.(ast.Increment); !ok {
		t.Errorf("for-increment = %T, want Increment", forStmt.Increment)
	}
}

func TestOperatorPrecedence(t *testing.T) {
	stmts, errCount := parseSource(t, `bool z = (1 < 2) || (1 / 0 == 0);`)
	if errCount != 0 {
		t.Fatalf("unexpected errors: %d", errCount)
	}
	decl := stmts[0].(ast.VarDecl)
	bin, ok := decl.Initializer.(ast.Binary)
	if !ok || bin.Op != ast.OpOr {
		t.Errorf("expected top-level ||, got %+v", decl.Initializer)
	}
}

func TestBareNonCallExpressionIsError(t *testing.T) {
	_, errCount := parseSource(t, `1 + 2;`)
	if errCount == 0 {
		t.Fatalf("expected a diagnostic for a non-call expression statement")
	}
}

func TestMissingReturnOnSomePathStillParses(t *testing.T) {
	// This is a semantic error, not a syntax error; the parser must
	// accept it cleanly so the semantic pass can flag it later.
	stmts, errCount := parseSource(t, `int f(int x) { if (x > 0) { return x; } }`)
	if errCount != 0 {
		t.Fatalf("unexpected parse errors: %d", errCount)
	}
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
}

func TestAssignmentInsideExpressionIsError(t *testing.T) {
	_, errCount := parseSource(t, `int a = 1; int b = (a = 2);`)
	if errCount == 0 {
		t.Fatalf("expected a diagnostic for '=' inside an expression")
	}
}

func TestModuleAccessCall(t *testing.T) {
	stmts, errCount := parseSource(t, `float r = Math.sqrt(4);`)
	if errCount != 0 {
		t.Fatalf("unexpected errors: %d", errCount)
	}
	decl := stmts[0].(ast.VarDecl)
	access, ok := decl.Initializer.(ast.ModuleAccess)
	if !ok || access.ModuleName != "Math" || access.FunctionName != "sqrt" {
		t.Errorf("expected Math.sqrt access, got %+v", decl.Initializer)
	}
}

func TestMalformedInputDoesNotHang(t *testing.T) {
	_, errCount := parseSource(t, `int a = ; ; ; { { { `)
	if errCount == 0 {
		t.Fatalf("expected diagnostics for malformed input")
	}
}
