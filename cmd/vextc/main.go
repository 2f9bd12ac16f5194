// Command vextc is Vext's CLI front end: a google/subcommands dispatcher
// over run/repl/tokens/ast/disasm, grounded directly on
// informatter-nilan's main.go + cmd_run.go/cmd_repl.go/cmd_repl_compiled.go/
// cmd_emit_bytecode.go, which wire the same two third-party dependencies
// (github.com/google/subcommands, github.com/chzyer/readline) one verb at a
// time in top-level files under package main. Vext consolidates those five
// near-duplicate entry points into one subcommand set driven by
// engine.Engine rather than re-running the teacher's lexer/parser/compiler
// pipeline by hand in every command.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&runCmd{}, "")
	subcommands.Register(&replCmd{}, "")
	subcommands.Register(&tokensCmd{}, "")
	subcommands.Register(&astCmd{}, "")
	subcommands.Register(&disasmCmd{}, "")

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}
