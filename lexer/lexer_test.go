package lexer

import (
	"testing"

	"vext/token"
)

func typesOf(toks []token.Token) []token.Type {
	out := make([]token.Type, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func assertTypes(t *testing.T, got []token.Type, want []token.Type) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("token count = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestOperators(t *testing.T) {
	toks, sink := Tokenize("== != <= >= += -= *= /= && || ++ -- ** < > = + - * / %")
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.All())
	}
	want := []token.Type{
		token.EQ, token.NEQ, token.LTE, token.GTE,
		token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.STAR_ASSIGN, token.SLASH_ASSIGN,
		token.AND_AND, token.OR_OR, token.PLUS_PLUS, token.MINUS_MINUS, token.STARSTAR,
		token.LT, token.GT, token.ASSIGN, token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.EOF,
	}
	assertTypes(t, typesOf(toks), want)
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	toks, sink := Tokenize("int x = foo; auto bar; void f(float y) {}")
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.All())
	}
	want := []token.Type{
		token.KW_INT, token.IDENTIFIER, token.ASSIGN, token.IDENTIFIER, token.SEMICOLON,
		token.KW_AUTO, token.IDENTIFIER, token.SEMICOLON,
		token.KW_VOID, token.IDENTIFIER, token.LPAREN, token.KW_FLOAT, token.IDENTIFIER, token.RPAREN,
		token.LBRACE, token.RBRACE, token.EOF,
	}
	assertTypes(t, typesOf(toks), want)
}

func TestNumericLiterals(t *testing.T) {
	toks, sink := Tokenize("42 3.14 foo.bar")
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.All())
	}
	want := []token.Type{token.INT, token.FLOAT, token.IDENTIFIER, token.DOT, token.IDENTIFIER, token.EOF}
	assertTypes(t, typesOf(toks), want)

	if toks[0].Literal.(int64) != 42 {
		t.Errorf("int literal = %v, want 42", toks[0].Literal)
	}
	if toks[1].Literal.(float64) != 3.14 {
		t.Errorf("float literal = %v, want 3.14", toks[1].Literal)
	}
}

func TestStringEscapes(t *testing.T) {
	toks, sink := Tokenize(`"hello\nworld" 'it\'s'`)
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.All())
	}
	if toks[0].Literal.(string) != "hello\nworld" {
		t.Errorf("string literal = %q", toks[0].Literal)
	}
	if toks[1].Literal.(string) != "it's" {
		t.Errorf("string literal = %q", toks[1].Literal)
	}
}

func TestInvalidEscapeRecovers(t *testing.T) {
	toks, sink := Tokenize(`"bad\qescape"`)
	if !sink.HasErrors() {
		t.Fatalf("expected an invalid-escape diagnostic")
	}
	if toks[0].Literal.(string) != "badqescape" {
		t.Errorf("string literal = %q, want literal 'q' recovery", toks[0].Literal)
	}
}

func TestUnterminatedString(t *testing.T) {
	toks, sink := Tokenize(`"never closed`)
	if !sink.HasErrors() {
		t.Fatalf("expected unterminated-string diagnostic")
	}
	if toks[0].Type != token.STRING {
		t.Errorf("expected partial STRING token to still be emitted, got %s", toks[0].Type)
	}
}

func TestUnknownTokenRecovers(t *testing.T) {
	toks, sink := Tokenize("int x = 1 @ 2;")
	if !sink.HasErrors() {
		t.Fatalf("expected an unexpected-character diagnostic")
	}
	var sawUnknown bool
	for _, tok := range toks {
		if tok.Type == token.UNKNOWN {
			sawUnknown = true
		}
	}
	if !sawUnknown {
		t.Errorf("expected an UNKNOWN token, got %v", typesOf(toks))
	}
	// lexing must still reach EOF after the bad character
	if toks[len(toks)-1].Type != token.EOF {
		t.Errorf("expected lexing to continue to EOF")
	}
}

func TestLineColumnTracking(t *testing.T) {
	toks, _ := Tokenize("int a;\nint b;")
	// first 'int' on line 1
	if toks[0].Line != 1 {
		t.Errorf("line = %d, want 1", toks[0].Line)
	}
	// second 'int' is after the newline, on line 2
	var secondInt token.Token
	count := 0
	for _, tok := range toks {
		if tok.Type == token.KW_INT {
			count++
			if count == 2 {
				secondInt = tok
			}
		}
	}
	if secondInt.Line != 2 {
		t.Errorf("second 'int' line = %d, want 2", secondInt.Line)
	}
}

func TestCommentsAreSkipped(t *testing.T) {
	toks, sink := Tokenize("int x = 1; // this is a comment\nint y = 2;")
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.All())
	}
	for _, tok := range toks {
		if tok.Lexeme == "this" {
			t.Fatalf("comment text leaked into tokens: %v", typesOf(toks))
		}
	}
}
