package vm

import (
	"testing"

	"vext/builtins"
	"vext/bytecode"
	"vext/lexer"
	"vext/parser"
	"vext/sema"
	"vext/value"
)

// compileAndRun drives the full pipeline (lex -> parse -> sema ->
// emit -> run) the way engine.Compile/Run will, so the VM is tested
// against real emitted programs rather than hand-built instruction
// slices, matching spec.md §8's end-to-end scenarios directly.
func compileAndRun(t *testing.T, src string) (*Result, []string) {
	t.Helper()
	toks, lexSink := lexer.Tokenize(src)
	if lexSink.HasErrors() {
		t.Fatalf("lexer errors: %v", lexSink.All())
	}
	stmts, parseSink := parser.Parse(toks)
	if parseSink.HasErrors() {
		t.Fatalf("parser errors: %v", parseSink.All())
	}
	natives := builtins.NewRegistry()
	result, semaSink := sema.Analyze(stmts, natives.Signatures())
	var msgs []string
	for _, d := range semaSink.All() {
		msgs = append(msgs, d.String())
	}
	if semaSink.HasErrors() {
		return nil, msgs
	}
	prog := bytecode.Emit(result)
	m := New(natives)
	runResult, err := m.Run(prog)
	if err != nil {
		t.Fatalf("vm run error: %v", err)
	}
	return runResult, msgs
}

func slotOf(t *testing.T, r *Result, prog *bytecode.Program, name string) int {
	t.Helper()
	for i, n := range prog.SlotNames {
		if n == name {
			return i
		}
	}
	t.Fatalf("no slot named %q", name)
	return -1
}

// TestArithmeticAndStrings is spec.md §8 scenario 1.
func TestArithmeticAndStrings(t *testing.T) {
	src := `int a = 2; int b = 3; string s = "sum=" + (a + b);`
	toks, _ := lexer.Tokenize(src)
	stmts, _ := parser.Parse(toks)
	natives := builtins.NewRegistry()
	analyzed, sink := sema.Analyze(stmts, natives.Signatures())
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.All())
	}
	prog := bytecode.Emit(analyzed)
	m := New(natives)
	res, err := m.Run(prog)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	a := res.Slots[slotOf(t, res, prog, "a")]
	b := res.Slots[slotOf(t, res, prog, "b")]
	s := res.Slots[slotOf(t, res, prog, "s")]
	if a.Num != 2 || b.Num != 3 {
		t.Errorf("a=%v b=%v, want 2 and 3", a, b)
	}
	if s.Str != "sum=5" {
		t.Errorf("s = %q, want %q", s.Str, "sum=5")
	}
}

// TestControlFlowAndConditionals is spec.md §8 scenario 2.
func TestControlFlowAndConditionals(t *testing.T) {
	src := `int x = 0; if (10 > 3) { x = 1; } else { x = 2; }`
	toks, _ := lexer.Tokenize(src)
	stmts, _ := parser.Parse(toks)
	natives := builtins.NewRegistry()
	analyzed, sink := sema.Analyze(stmts, natives.Signatures())
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.All())
	}
	prog := bytecode.Emit(analyzed)
	m := New(natives)
	res, err := m.Run(prog)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	x := res.Slots[slotOf(t, res, prog, "x")]
	if x.Num != 1 {
		t.Errorf("x = %v, want 1", x.Num)
	}
}

// TestLoopSpecialization is spec.md §8 scenario 3: the emitted stream
// must contain a JMP_IF_VAR_OP_CONST loop header.
func TestLoopSpecialization(t *testing.T) {
	src := `int n = 0; for (int i = 0; i < 5; i++) { n += i; }`
	toks, _ := lexer.Tokenize(src)
	stmts, _ := parser.Parse(toks)
	natives := builtins.NewRegistry()
	analyzed, sink := sema.Analyze(stmts, natives.Signatures())
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.All())
	}
	prog := bytecode.Emit(analyzed)

	found := false
	for _, instr := range prog.Instructions {
		if instr.Op == bytecode.JmpIfVarOpConst {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("expected a JMP_IF_VAR_OP_CONST in the emitted loop header")
	}

	m := New(natives)
	res, err := m.Run(prog)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	n := res.Slots[slotOf(t, res, prog, "n")]
	i := res.Slots[slotOf(t, res, prog, "i")]
	if n.Num != 10 {
		t.Errorf("n = %v, want 10", n.Num)
	}
	if i.Num != 5 {
		t.Errorf("i = %v, want 5", i.Num)
	}
}

// TestFunctionCall is spec.md §8 scenario 4.
func TestFunctionCall(t *testing.T) {
	src := `int sq(int n) { return n * n; } int r = sq(4);`
	toks, _ := lexer.Tokenize(src)
	stmts, _ := parser.Parse(toks)
	natives := builtins.NewRegistry()
	analyzed, sink := sema.Analyze(stmts, natives.Signatures())
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.All())
	}
	if len(analyzed.Functions.UserOrder) != 1 || analyzed.Functions.UserOrder[0].Sig.Name != "sq" {
		t.Fatalf("expected exactly one discovered function named sq, got %+v", analyzed.Functions.UserOrder)
	}
	prog := bytecode.Emit(analyzed)
	m := New(natives)
	res, err := m.Run(prog)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	r := res.Slots[slotOf(t, res, prog, "r")]
	if r.Num != 16 {
		t.Errorf("r = %v, want 16", r.Num)
	}
}

// TestShortCircuitFolding is spec.md §8 scenario 5: the right operand
// of || must never be evaluated (and hence never fold-time-error on
// division by zero) once the left side folds to true.
func TestShortCircuitFolding(t *testing.T) {
	src := `bool z = (1 < 2) || (1 / 0 == 0);`
	toks, _ := lexer.Tokenize(src)
	stmts, _ := parser.Parse(toks)
	natives := builtins.NewRegistry()
	analyzed, sink := sema.Analyze(stmts, natives.Signatures())
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.All())
	}
	prog := bytecode.Emit(analyzed)
	m := New(natives)
	res, err := m.Run(prog)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	z := res.Slots[slotOf(t, res, prog, "z")]
	if z.Kind != value.Bool || !z.B {
		t.Errorf("z = %+v, want Bool(true)", z)
	}
}

func TestPrintCapturesStdout(t *testing.T) {
	res, msgs := compileAndRun(t, `print("hello");`)
	if res == nil {
		t.Fatalf("unexpected diagnostics: %v", msgs)
	}
	if res.Stdout != "hello\n" {
		t.Errorf("stdout = %q, want %q", res.Stdout, "hello\n")
	}
}

func TestRuntimeDivisionByZeroErrors(t *testing.T) {
	toks, _ := lexer.Tokenize(`int a = 1; int b = 0; int c = a / b;`)
	stmts, _ := parser.Parse(toks)
	natives := builtins.NewRegistry()
	analyzed, sink := sema.Analyze(stmts, natives.Signatures())
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.All())
	}
	prog := bytecode.Emit(analyzed)
	m := New(natives)
	if _, err := m.Run(prog); err == nil {
		t.Errorf("expected a runtime division-by-zero error")
	}
}
