package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"vext/lexer"
)

// tokensCmd dumps the lexer's token stream for a source file, the
// batch-mode "tokens[]" surface spec.md §6 describes the editor
// sidecar consuming; exposed here as a standalone verb since that
// sidecar itself is out of scope.
type tokensCmd struct{}

func (*tokensCmd) Name() string     { return "tokens" }
func (*tokensCmd) Synopsis() string { return "Print the token stream for a Vext source file" }
func (*tokensCmd) Usage() string {
	return `tokens <file>:
  Print the token stream for a Vext source file.
`
}
func (*tokensCmd) SetFlags(*flag.FlagSet) {}

func (*tokensCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	toks, sink := lexer.Tokenize(string(data))
	for _, t := range toks {
		fmt.Printf("%-12s %-20q line=%d col=%d-%d\n", t.Type, t.Lexeme, t.Line, t.StartCol, t.EndColumn)
	}
	for _, d := range sink.All() {
		fmt.Fprintln(os.Stderr, d.String())
	}
	return subcommands.ExitSuccess
}
