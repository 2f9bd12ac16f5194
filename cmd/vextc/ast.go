package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"vext/ast"
	"vext/engine"
)

// astCmd prints the parsed (and, on success, semantically folded)
// statement tree for a source file as an indented outline. The teacher
// (cmd_repl_compiled.go's -dumpAST flag) serializes the AST to a JSON
// file via parser.PrintToFile; Vext's ast package has no JSON tags of
// its own (it is a tagged-sum interface, not a struct meant for
// encoding/json), so this prints the same information as a readable
// tree instead.
type astCmd struct{}

func (*astCmd) Name() string     { return "ast" }
func (*astCmd) Synopsis() string { return "Print the parsed syntax tree for a Vext source file" }
func (*astCmd) Usage() string {
	return `ast <file>:
  Print the parsed syntax tree for a Vext source file.
`
}
func (*astCmd) SetFlags(*flag.FlagSet) {}

func (*astCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 file not provided\n")
		return subcommands.ExitUsageError
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	eng := engine.New()
	cr := eng.Compile(string(data))
	for _, s := range cr.AST {
		printStmt(os.Stdout, s, 0)
	}
	for _, d := range cr.Diagnostics {
		fmt.Fprintln(os.Stderr, d.String())
	}
	return subcommands.ExitSuccess
}

func indent(w *os.File, depth int) {
	fmt.Fprint(w, strings.Repeat("  ", depth))
}

func printStmt(w *os.File, s ast.Stmt, depth int) {
	indent(w, depth)
	switch st := s.(type) {
	case ast.VarDecl:
		fmt.Fprintf(w, "VarDecl %s %s slot=%d\n", st.DeclaredType, st.Name, st.SlotIndex)
		if st.Initializer != nil {
			printExpr(w, st.Initializer, depth+1)
		}
	case ast.Assign:
		fmt.Fprintf(w, "Assign %s slot=%d op=%d\n", st.Name, st.SlotIndex, st.Op)
		printExpr(w, st.Value, depth+1)
	case ast.Increment:
		fmt.Fprintf(w, "Increment %s slot=%d inc=%v\n", st.Name, st.SlotIndex, st.IsIncrement)
	case ast.ExprStmt:
		fmt.Fprintln(w, "ExprStmt")
		printExpr(w, st.Expr, depth+1)
	case ast.If:
		fmt.Fprintln(w, "If")
		printExpr(w, st.Cond, depth+1)
		for _, b := range st.Body {
			printStmt(w, b, depth+1)
		}
		if st.ElseBody != nil {
			indent(w, depth)
			fmt.Fprintln(w, "Else")
			for _, b := range st.ElseBody {
				printStmt(w, b, depth+1)
			}
		}
	case ast.While:
		fmt.Fprintln(w, "While")
		printExpr(w, st.Cond, depth+1)
		for _, b := range st.Body {
			printStmt(w, b, depth+1)
		}
	case ast.For:
		fmt.Fprintln(w, "For")
		if st.Init != nil {
			printStmt(w, st.Init, depth+1)
		}
		if st.Cond != nil {
			printExpr(w, st.Cond, depth+1)
		}
		if st.Increment != nil {
			printStmt(w, st.Increment, depth+1)
		}
		for _, b := range st.Body {
			printStmt(w, b, depth+1)
		}
	case ast.Return:
		fmt.Fprintln(w, "Return")
		if st.Expr != nil {
			printExpr(w, st.Expr, depth+1)
		}
	case ast.FuncDef:
		fmt.Fprintf(w, "FuncDef %s %s(", st.ReturnType, st.Name)
		for i, p := range st.Params {
			if i > 0 {
				fmt.Fprint(w, ", ")
			}
			fmt.Fprintf(w, "%s %s slot=%d", p.DeclaredType, p.Name, p.SlotIndex)
		}
		fmt.Fprintln(w, ")")
		for _, b := range st.Body {
			printStmt(w, b, depth+1)
		}
	case ast.Block:
		fmt.Fprintln(w, "Block")
		for _, b := range st.Stmts {
			printStmt(w, b, depth+1)
		}
	default:
		fmt.Fprintf(w, "%T\n", st)
	}
}

func printExpr(w *os.File, e ast.Expr, depth int) {
	indent(w, depth)
	switch ex := e.(type) {
	case ast.Literal:
		fmt.Fprintf(w, "Literal %v\n", ex.Value)
	case ast.Variable:
		fmt.Fprintf(w, "Variable %s slot=%d\n", ex.Name, ex.SlotIndex)
	case ast.Unary:
		fmt.Fprintf(w, "Unary op=%d\n", ex.Op)
		printExpr(w, ex.Operand, depth+1)
	case ast.Binary:
		fmt.Fprintf(w, "Binary op=%d\n", ex.Op)
		printExpr(w, ex.Left, depth+1)
		printExpr(w, ex.Right, depth+1)
	case ast.FunctionCall:
		fmt.Fprintf(w, "Call %s -> %s\n", ex.Name, ex.ReturnType)
		for _, a := range ex.Args {
			printExpr(w, a, depth+1)
		}
	case ast.ModuleAccess:
		fmt.Fprintf(w, "ModuleAccess %s.%s -> %s\n", ex.ModuleName, ex.FunctionName, ex.ReturnType)
		for _, a := range ex.Args {
			printExpr(w, a, depth+1)
		}
	default:
		fmt.Fprintf(w, "%T\n", ex)
	}
}
