package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"vext/diag"
	"vext/engine"
	"vext/lexer"
	"vext/token"
)

// replCmd is grounded on informatter-nilan/cmd_repl_compiled.go's
// line-buffering REPL loop: accumulate lines until braces balance and
// the last token doesn't leave an expression dangling
// (isInputReady/lastNonEOF there, reimplemented here against vext's
// token package), then run the buffered source through the engine and
// reset the buffer. The teacher reads lines with bufio.Scanner; Vext
// instead wires the teacher's go.mod readline dependency for history
// and line editing, since nothing else in the pipeline has a use for
// it.
type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive Vext session" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive Vext session.
`
}
func (*replCmd) SetFlags(*flag.FlagSet) {}

func (*replCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Println("Vext REPL - type 'exit' to quit")

	rl, err := readline.New(">>> ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 %s\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	eng := engine.New()
	var buffer strings.Builder

	for {
		if buffer.Len() > 0 {
			rl.SetPrompt("... ")
		} else {
			rl.SetPrompt(">>> ")
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			buffer.Reset()
			continue
		}
		if err == io.EOF {
			return subcommands.ExitSuccess
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "💥 %s\n", err)
			return subcommands.ExitFailure
		}

		if strings.TrimSpace(line) == "exit" && buffer.Len() == 0 {
			return subcommands.ExitSuccess
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
		source := buffer.String()

		tokens, _ := lexer.Tokenize(source)
		if !isInputReady(tokens) {
			continue
		}

		cr := eng.Compile(source)
		if hasErrors(cr.Diagnostics) {
			if allDiagnosticsAtEOF(cr.Diagnostics, tokens) {
				continue
			}
			printDiagnostics(os.Stdout, cr.Diagnostics)
			buffer.Reset()
			continue
		}

		rr, runErr := eng.Run(cr)
		if runErr != nil {
			fmt.Fprintf(os.Stdout, "💥 %s\n", runErr.Message)
			buffer.Reset()
			continue
		}
		fmt.Fprint(os.Stdout, rr.CapturedStdout)
		buffer.Reset()
	}
}

// isInputReady reports whether the buffered source looks complete
// enough to compile: braces balanced and the last non-EOF token isn't
// one that obviously expects a continuation. Grounded on
// cmd_repl_compiled.go's isInputReady.
func isInputReady(tokens []token.Token) bool {
	braceBalance := 0
	for _, tok := range tokens {
		switch tok.Type {
		case token.LBRACE:
			braceBalance++
		case token.RBRACE:
			braceBalance--
		}
	}
	if braceBalance > 0 {
		return false
	}

	last := lastNonEOF(tokens)
	if last == nil {
		return true
	}

	switch last.Type {
	case token.ASSIGN, token.PLUS, token.MINUS, token.STAR, token.SLASH,
		token.PERCENT, token.STARSTAR, token.BANG,
		token.EQ, token.NEQ, token.LT, token.LTE, token.GT, token.GTE,
		token.AND_AND, token.OR_OR,
		token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.STAR_ASSIGN, token.SLASH_ASSIGN,
		token.COMMA, token.LPAREN, token.LBRACE,
		token.KW_IF, token.KW_ELSE, token.KW_WHILE, token.KW_FOR, token.KW_RETURN:
		return false
	}
	return true
}

func lastNonEOF(tokens []token.Token) *token.Token {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].Type != token.EOF {
			return &tokens[i]
		}
	}
	return nil
}

// allDiagnosticsAtEOF reports whether every Error-severity diagnostic is
// anchored at the EOF token's position, meaning the user likely hasn't finished
// typing yet rather than written something invalid.
func allDiagnosticsAtEOF(ds []diag.Diagnostic, tokens []token.Token) bool {
	if len(tokens) == 0 || len(ds) == 0 {
		return false
	}
	eof := tokens[len(tokens)-1]
	for _, d := range ds {
		if d.Severity != diag.Error {
			continue
		}
		if d.Start.Line != eof.Line || d.Start.Col != eof.StartCol {
			return false
		}
	}
	return true
}
