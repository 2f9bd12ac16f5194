package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"vext/bytecode"
	"vext/engine"
)

// disasmCmd prints the emitted instruction vector in a
// disassembly-style listing, one line per instruction with its
// resolved jump targets. Grounded on informatter-nilan/
// cmd_emit_bytecode.go's emit subcommand (the -diassemble flag on
// ASTCompiler.DiassembleBytecode), adapted from the teacher's
// byte-packed encoding to Vext's struct-slice Instruction model.
type disasmCmd struct{}

func (*disasmCmd) Name() string     { return "disasm" }
func (*disasmCmd) Synopsis() string { return "Print the emitted bytecode for a Vext source file" }
func (*disasmCmd) Usage() string {
	return `disasm <file>:
  Print the emitted bytecode for a Vext source file.
`
}
func (*disasmCmd) SetFlags(*flag.FlagSet) {}

func (*disasmCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	if hasErrors(cr.Diagnostics) {
		printDiagnostics(os.Stderr, cr.Diagnostics)
		return subcommands.ExitFailure
	}

	for i, instr := range cr.Instructions {
		fmt.Printf("%04d  %s\n", i, disasmOne(instr))
	}
	return subcommands.ExitSuccess
}

func disasmOne(instr bytecode.Instruction) string {
	switch instr.Op {
	case bytecode.LoadConst:
		return fmt.Sprintf("%-20s %v", instr.Op, instr.Const)
	case bytecode.LoadVar, bytecode.StoreVar, bytecode.IncVar, bytecode.DecVar:
		return fmt.Sprintf("%-20s slot=%d", instr.Op, instr.Slot)
	case bytecode.Jmp, bytecode.JmpIfFalse, bytecode.JmpIfTrue:
		return fmt.Sprintf("%-20s -> %d", instr.Op, instr.Target)
	case bytecode.JmpIfVarOpConst:
		return fmt.Sprintf("%-20s slot=%d op=%d limit=%v -> %d", instr.Op, instr.Slot, instr.CmpOp, instr.Limit, instr.Target)
	case bytecode.Call, bytecode.CallVoid:
		return fmt.Sprintf("%-20s %s/%d", instr.Op, instr.Name, instr.ArgCount)
	case bytecode.DefFunc:
		name := ""
		body := 0
		if instr.Func != nil {
			name = instr.Func.Name
			body = len(instr.Func.Body)
		}
		return fmt.Sprintf("%-20s %s (%d instrs)", instr.Op, name, body)
	default:
		return fmt.Sprintf("%-20s", instr.Op)
	}
}
