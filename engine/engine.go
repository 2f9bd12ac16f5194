// Package engine implements spec.md §6's language-agnostic façade: it
// drives the lexer, parser, semantic pass, bytecode emitter, and VM in
// sequence and returns structured CompilationResult/RunResult values,
// exactly the "Engine façade (~7%)" stage spec.md §2 describes.
//
// Grounded on informatter-nilan/cmd_run.go's drive-the-pipeline
// sequence (lexer.CreateLexer -> .Scan() -> parser.Make -> .Parse() ->
// interpreter.Make() -> .Interpret()), lifted out of the teacher's
// main/cmd_run.go into a reusable library type the way a "stable"
// external API requires, since the teacher wires its pipeline directly
// in main rather than exposing one.
package engine

import (
	"time"

	"vext/ast"
	"vext/builtins"
	"vext/bytecode"
	"vext/diag"
	"vext/lexer"
	"vext/parser"
	"vext/sema"
	"vext/token"
	"vext/value"
	"vext/vm"
)

// DiscoveredFunction summarizes one function sema's Phase A found, for
// editor/tooling consumption (spec.md §6's "a list of discovered
// functions").
type DiscoveredFunction struct {
	Name       string
	ParamTypes []string
	ReturnType string
}

// CompilationResult is spec.md §6's Compile output.
type CompilationResult struct {
	Instructions  []bytecode.Instruction
	Diagnostics   []diag.Diagnostic
	SlotToName    []string
	SemanticTokens []sema.SemToken
	Tokens        []token.Token
	AST           []ast.Stmt
	Functions     []DiscoveredFunction

	TokenCount int
	NodeCount  int

	LexMs  float64
	ParseMs float64
	SemaMs float64
	EmitMs float64

	// program is carried internally so Run doesn't need the caller to
	// pass Instructions back in a reassembled Program; exported via
	// Instructions/SlotToName above for everyone else.
	program *bytecode.Program
}

// RunResult is spec.md §6's Run output.
type RunResult struct {
	ElapsedMs        float64
	FinalVariableState []value.Value
	CapturedStdout   string
}

// Engine owns the native function registry built once at construction
// (spec.md §3: "built-ins registered at engine construction") and
// drives Compile/Run. An Engine must not be used re-entrantly from two
// goroutines at once (spec.md §5).
type Engine struct {
	natives *builtins.Registry
}

// New builds an Engine with the mandatory built-in surface registered.
func New() *Engine {
	return &Engine{natives: builtins.NewRegistry()}
}

// Compile runs the lex -> parse -> sema pipeline and, if semantic
// analysis reported zero Error-severity diagnostics, also emits
// bytecode (spec.md §7's recovery policy: "bytecode generation...
// run[s] only when the compilation phase has zero Error-severity
// diagnostics"). Each call gets a fresh diagnostic sink per spec.md §5.
func (e *Engine) Compile(source string) *CompilationResult {
	lexStart := time.Now()
	tokens, lexSink := lexer.Tokenize(source)
	lexMs := elapsedMs(lexStart)

	parseStart := time.Now()
	stmts, parseSink := parser.Parse(tokens)
	parseMs := elapsedMs(parseStart)

	semaStart := time.Now()
	result, semaSink := sema.Analyze(stmts, e.natives.Signatures())
	semaMs := elapsedMs(semaStart)

	diags := make([]diag.Diagnostic, 0, lexSink.Count()+parseSink.Count()+semaSink.Count())
	diags = append(diags, lexSink.All()...)
	diags = append(diags, parseSink.All()...)
	diags = append(diags, semaSink.All()...)

	cr := &CompilationResult{
		Diagnostics:    diags,
		SlotToName:     result.Slots.Names(),
		SemanticTokens: result.Tokens,
		Tokens:         tokens,
		AST:            result.Stmts,
		Functions:      discoveredFunctions(result),
		TokenCount:     len(tokens),
		NodeCount:      countNodes(result.Stmts),
		LexMs:          lexMs,
		ParseMs:        parseMs,
		SemaMs:         semaMs,
	}

	hasErrors := lexSink.HasErrors() || parseSink.HasErrors() || semaSink.HasErrors()
	if hasErrors {
		return cr
	}

	emitStart := time.Now()
	prog := bytecode.Emit(result)
	cr.EmitMs = elapsedMs(emitStart)
	cr.Instructions = prog.Instructions
	cr.program = prog
	return cr
}

// Run executes a CompilationResult's emitted program on a fresh VM,
// per spec.md §5 ("the captured stdout buffer... is reset per run").
// Runtime errors (spec.md §7) are caught here and surfaced as a single
// Error-severity diagnostic at line/col 0 rather than propagated.
func (e *Engine) Run(cr *CompilationResult) (*RunResult, *diag.Diagnostic) {
	if cr.program == nil {
		return &RunResult{}, nil
	}
	start := time.Now()
	machine := vm.New(e.natives)
	result, err := machine.Run(cr.program)
	elapsed := elapsedMs(start)
	if err != nil {
		d := diag.Diagnostic{
			Severity: diag.Error,
			Message:  err.Error(),
			Start:    diag.Pos{Line: 0, Col: 0},
			End:      diag.Pos{Line: 0, Col: 0},
		}
		return &RunResult{ElapsedMs: elapsed}, &d
	}
	return &RunResult{
		ElapsedMs:          elapsed,
		FinalVariableState: result.Slots,
		CapturedStdout:     result.Stdout,
	}, nil
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}

func discoveredFunctions(result *sema.Result) []DiscoveredFunction {
	out := make([]DiscoveredFunction, 0, len(result.Functions.UserOrder))
	for _, entry := range result.Functions.UserOrder {
		params := make([]string, len(entry.Sig.Params))
		copy(params, entry.Sig.Params)
		out = append(out, DiscoveredFunction{
			Name:       entry.Sig.Name,
			ParamTypes: params,
			ReturnType: entry.Sig.ReturnType,
		})
	}
	return out
}

// countNodes recursively counts AST nodes for CompilationResult's
// NodeCount (spec.md §6).
func countNodes(stmts []ast.Stmt) int {
	n := 0
	for _, s := range stmts {
		n++
		switch st := s.(type) {
		case ast.VarDecl:
			if st.Initializer != nil {
				n += countExprNodes(st.Initializer)
			}
		case ast.Assign:
			n += countExprNodes(st.Value)
		case ast.ExprStmt:
			n += countExprNodes(st.Expr)
		case ast.If:
			n += countExprNodes(st.Cond)
			n += countNodes(st.Body)
			n += countNodes(st.ElseBody)
		case ast.While:
			n += countExprNodes(st.Cond)
			n += countNodes(st.Body)
		case ast.For:
			if st.Init != nil {
				n += countNodes([]ast.Stmt{st.Init})
			}
			if st.Cond != nil {
				n += countExprNodes(st.Cond)
			}
			if st.Increment != nil {
				n += countNodes([]ast.Stmt{st.Increment})
			}
			n += countNodes(st.Body)
		case ast.Return:
			if st.Expr != nil {
				n += countExprNodes(st.Expr)
			}
		case ast.FuncDef:
			n += countNodes(st.Body)
		case ast.Block:
			n += countNodes(st.Stmts)
		}
	}
	return n
}

func countExprNodes(e ast.Expr) int {
	if e == nil {
		return 0
	}
	n := 1
	switch ex := e.(type) {
	case ast.Unary:
		n += countExprNodes(ex.Operand)
	case ast.Binary:
		n += countExprNodes(ex.Left)
		n += countExprNodes(ex.Right)
	case ast.FunctionCall:
		for _, a := range ex.Args {
			n += countExprNodes(a)
		}
	case ast.ModuleAccess:
		for _, a := range ex.Args {
			n += countExprNodes(a)
		}
	}
	return n
}
