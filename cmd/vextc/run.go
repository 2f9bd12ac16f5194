package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"vext/diag"
	"vext/engine"
)

// runCmd mirrors informatter-nilan/cmd_run.go's runCmd: read a file,
// drive the pipeline, report errors. Where the teacher calls the
// tree-walking interpreter directly, run compiles through
// engine.Engine (lex -> parse -> sema -> emit) and executes the
// resulting bytecode on the VM.
type runCmd struct {
	printStdout bool
	verbose     bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Compile and execute a Vext source file" }
func (*runCmd) Usage() string {
	return `run <file>:
  Compile and execute a Vext source file.
`
}

func (r *runCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.printStdout, "echo", true, "print the program's captured stdout")
	f.BoolVar(&r.verbose, "verbose", false, "print per-phase compile timings to stderr")
}

func (r *runCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	if r.verbose {
		fmt.Fprintf(os.Stderr, "lex=%.3fms parse=%.3fms sema=%.3fms emit=%.3fms\n",
			cr.LexMs, cr.ParseMs, cr.SemaMs, cr.EmitMs)
	}
	if hasErrors(cr.Diagnostics) {
		printDiagnostics(os.Stderr, cr.Diagnostics)
		return subcommands.ExitFailure
	}

	rr, runErr := eng.Run(cr)
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "💥 %s\n", runErr.Message)
		return subcommands.ExitFailure
	}
	if r.printStdout {
		fmt.Fprint(os.Stdout, rr.CapturedStdout)
	}
	return subcommands.ExitSuccess
}

func hasErrors(ds []diag.Diagnostic) bool {
	for _, d := range ds {
		if d.Severity == diag.Error {
			return true
		}
	}
	return false
}

func printDiagnostics(w *os.File, ds []diag.Diagnostic) {
	for _, d := range ds {
		fmt.Fprintf(w, "%s\n", d.String())
	}
}
