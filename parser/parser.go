// Package parser implements Vext's recursive-descent statement parser
// and Pratt-style expression parser.
//
// The overall shape — a token slice plus a position cursor, with
// peek/previous/advance/isMatch helpers — follows
// informatter-nilan/parser/parser.go directly. Two things are new
// relative to the teacher: operator precedence climbing for the full
// eight-level table (the teacher only has a fixed recursive-descent
// cascade for +,-,*,/), and panic-mode error recovery that
// synchronizes on statement boundaries instead of returning the first
// error.
package parser

import (
	"fmt"

	"vext/ast"
	"vext/diag"
	"vext/token"
)

// precedence levels, lowest to highest.
const (
	precNone = iota
	precOr
	precAnd
	precEquality
	precComparison
	precTerm
	precFactor
	precPower
)

var binaryPrecedence = map[token.Type]int{
	token.OR_OR:    precOr,
	token.AND_AND:  precAnd,
	token.EQ:       precEquality,
	token.NEQ:      precEquality,
	token.LT:       precComparison,
	token.GT:       precComparison,
	token.LTE:      precComparison,
	token.GTE:      precComparison,
	token.PLUS:     precTerm,
	token.MINUS:    precTerm,
	token.STAR:     precFactor,
	token.SLASH:    precFactor,
	token.PERCENT:  precFactor,
	token.STARSTAR: precPower,
}

var typeKeywords = map[token.Type]string{
	token.KW_INT:    "int",
	token.KW_FLOAT:  "float",
	token.KW_BOOL:   "bool",
	token.KW_STRING: "string",
	token.KW_AUTO:   "auto",
	token.KW_VOID:   "void",
}

const maxParseIterations = 1_000_000 // backstop so malformed input can never hang the parser

// Parser holds the token stream and current cursor.
type Parser struct {
	tokens []token.Token
	cur    int
	sink   *diag.Sink
}

// Parse is the package entry point: tokens in, a statement list and
// diagnostics out. Parsing never aborts early; on error it
// synchronizes to the next statement boundary and continues.
func Parse(tokens []token.Token) ([]ast.Stmt, *diag.Sink) {
	p := &Parser{tokens: tokens, sink: diag.NewSink()}
	var stmts []ast.Stmt
	iterations := 0
	for !p.atEnd() && iterations < maxParseIterations {
		iterations++
		stmt, err := p.declaration(true)
		if err != nil {
			p.reportAndSynchronize(err)
			continue
		}
		stmts = append(stmts, stmt)
	}
	return stmts, p.sink
}

// --- token stream helpers ---

func (p *Parser) peek() token.Token {
	return p.tokens[p.cur]
}

// peekAt returns the token `n` positions ahead of the cursor, clamped
// to the final (EOF) token.
func (p *Parser) peekAt(n int) token.Token {
	idx := p.cur + n
	if idx >= len(p.tokens) {
		idx = len(p.tokens) - 1
	}
	return p.tokens[idx]
}

func (p *Parser) previous() token.Token {
	if p.cur == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.cur-1]
}

func (p *Parser) atEnd() bool {
	return p.peek().Type == token.EOF
}

func (p *Parser) advance() token.Token {
	if !p.atEnd() {
		p.cur++
	}
	return p.previous()
}

func (p *Parser) check(tt token.Type) bool {
	return !p.atEnd() && p.peek().Type == tt
}

func (p *Parser) match(types ...token.Type) bool {
	for _, tt := range types {
		if p.check(tt) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(tt token.Type, message string) (token.Token, error) {
	if p.check(tt) {
		return p.advance(), nil
	}
	return token.Token{}, p.errorAt(p.peek(), message)
}

func (p *Parser) errorAt(tok token.Token, message string) error {
	return &syntaxError{line: tok.Line, col: tok.StartCol, message: message}
}

// syntaxError is Vext's parser error type, mirroring the teacher's
// parser.SyntaxError{Line, Column, Message}.
type syntaxError struct {
	line, col int
	message   string
}

func (e *syntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d: %s", e.line, e.col, e.message)
}

// reportAndSynchronize records a parse error and skips tokens until a
// likely statement boundary: just past a ';', or before a '}', an
// if/while/for/return keyword, a type keyword, or EOF.
func (p *Parser) reportAndSynchronize(err error) {
	se, ok := err.(*syntaxError)
	pos := diag.Pos{}
	if ok {
		pos = diag.Pos{Line: se.line, Col: se.col}
	}
	p.sink.AddAt(diag.Error, err.Error(), pos)

	iterations := 0
	for !p.atEnd() && iterations < maxParseIterations {
		iterations++
		if p.previous().Type == token.SEMICOLON {
			return
		}
		switch p.peek().Type {
		case token.RBRACE, token.KW_IF, token.KW_WHILE, token.KW_FOR, token.KW_RETURN,
			token.KW_INT, token.KW_FLOAT, token.KW_BOOL, token.KW_STRING, token.KW_AUTO, token.KW_VOID:
			return
		}
		p.advance()
	}
}

func (p *Parser) pos(tok token.Token) ast.Pos {
	return ast.Pos{Line: tok.Line, StartCol: tok.StartCol, EndCol: tok.EndColumn}
}

// dummyLiteral is the parser's best-effort recovery node: a well-typed
// `0` so downstream passes still see a complete tree shape.
func dummyLiteral(tok token.Token) ast.Expr {
	return ast.Literal{Pos: ast.Pos{Line: tok.Line, StartCol: tok.StartCol, EndCol: tok.EndColumn}, Kind: ast.LitInt, Value: int64(0)}
}

// --- declarations / statements ---

// declaration dispatches between a function definition, a variable
// declaration, and an ordinary statement, using a two-token lookahead:
// `<type> <name> (` signals a function, `<type> <name>` followed by
// anything else is a variable declaration.
func (p *Parser) declaration(topLevel bool) (ast.Stmt, error) {
	if typeName, ok := typeKeywords[p.peek().Type]; ok {
		if p.peekAt(1).Type == token.IDENTIFIER && p.peekAt(2).Type == token.LPAREN {
			return p.funcDef(topLevel, typeName)
		}
		return p.varDecl(typeName)
	}
	return p.statement()
}

func (p *Parser) funcDef(topLevel bool, returnType string) (ast.Stmt, error) {
	start := p.peek()
	p.advance() // consume type keyword
	nameTok, err := p.consume(token.IDENTIFIER, "expected function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LPAREN, "expected '(' after function name"); err != nil {
		return nil, err
	}
	var params []ast.Parameter
	if !p.check(token.RPAREN) {
		for {
			typeName, ok := typeKeywords[p.peek().Type]
			if !ok {
				return nil, p.errorAt(p.peek(), "expected parameter type")
			}
			p.advance()
			paramName, err := p.consume(token.IDENTIFIER, "expected parameter name")
			if err != nil {
				return nil, err
			}
			params = append(params, ast.Parameter{DeclaredType: typeName, Name: paramName.Lexeme, SlotIndex: -1})
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	if _, err := p.consume(token.RPAREN, "expected ')' after parameters"); err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LBRACE, "expected '{' to begin function body"); err != nil {
		return nil, err
	}
	body, err := p.blockBody()
	if err != nil {
		return nil, err
	}
	fn := ast.FuncDef{
		Pos:        p.pos(start),
		ReturnType: returnType,
		Name:       nameTok.Lexeme,
		Params:     params,
		Body:       body,
	}
	if !topLevel {
		return nil, p.errorAt(start, "function definitions are only allowed at the top level")
	}
	return fn, nil
}

func (p *Parser) varDecl(typeName string) (ast.Stmt, error) {
	start := p.peek()
	p.advance() // consume type keyword
	nameTok, err := p.consume(token.IDENTIFIER, "expected variable name")
	if err != nil {
		return nil, err
	}
	var initializer ast.Expr
	if p.match(token.ASSIGN) {
		initializer, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(token.SEMICOLON, "expected ';' after variable declaration"); err != nil {
		return nil, err
	}
	return ast.VarDecl{
		Pos:          p.pos(start),
		DeclaredType: typeName,
		Name:         nameTok.Lexeme,
		SlotIndex:    -1,
		Initializer:  initializer,
	}, nil
}

// statement parses one non-declaration statement.
func (p *Parser) statement() (ast.Stmt, error) {
	switch {
	case p.check(token.KW_IF):
		return p.ifStmt()
	case p.check(token.KW_WHILE):
		return p.whileStmt()
	case p.check(token.KW_FOR):
		return p.forStmt()
	case p.check(token.KW_RETURN):
		return p.returnStmt()
	case p.check(token.LBRACE):
		return p.blockStmt()
	case p.check(token.IDENTIFIER):
		return p.identifierLedStatement()
	default:
		return p.exprStatement()
	}
}

// identifierLedStatement disambiguates an assignment, a postfix
// increment/decrement, and an expression-statement, all of which may
// begin with an identifier.
func (p *Parser) identifierLedStatement() (ast.Stmt, error) {
	start := p.peek()
	switch p.peekAt(1).Type {
	case token.ASSIGN, token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.STAR_ASSIGN, token.SLASH_ASSIGN:
		return p.assignStmt()
	case token.PLUS_PLUS, token.MINUS_MINUS:
		p.advance()
		opTok := p.advance()
		if _, err := p.consume(token.SEMICOLON, "expected ';' after increment"); err != nil {
			return nil, err
		}
		return ast.Increment{
			Pos:         p.pos(start),
			Name:        start.Lexeme,
			SlotIndex:   -1,
			IsIncrement: opTok.Type == token.PLUS_PLUS,
		}, nil
	default:
		return p.exprStatement()
	}
}

var assignOps = map[token.Type]ast.AssignOp{
	token.ASSIGN:       ast.AssignSet,
	token.PLUS_ASSIGN:  ast.AssignAdd,
	token.MINUS_ASSIGN: ast.AssignSub,
	token.STAR_ASSIGN:  ast.AssignMul,
	token.SLASH_ASSIGN: ast.AssignDiv,
}

func (p *Parser) assignStmt() (ast.Stmt, error) {
	nameTok := p.advance()
	opTok := p.advance()
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.SEMICOLON, "expected ';' after assignment"); err != nil {
		return nil, err
	}
	return ast.Assign{
		Pos:       p.pos(nameTok),
		Name:      nameTok.Lexeme,
		SlotIndex: -1,
		Op:        assignOps[opTok.Type],
		Value:     value,
	}, nil
}

func (p *Parser) exprStatement() (ast.Stmt, error) {
	start := p.peek()
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.SEMICOLON, "expected ';' after expression"); err != nil {
		return nil, err
	}
	if _, ok := expr.(ast.FunctionCall); !ok {
		if _, ok := expr.(ast.ModuleAccess); !ok {
			p.sink.AddAt(diag.Error, "only function-call expressions may appear as bare statements", diag.Pos{Line: start.Line, Col: start.StartCol})
		}
	}
	return ast.ExprStmt{Pos: p.pos(start), Expr: expr}, nil
}

func (p *Parser) blockStmt() (ast.Stmt, error) {
	start := p.peek()
	p.advance() // consume '{'
	stmts, err := p.blockBody()
	if err != nil {
		return nil, err
	}
	return ast.Block{Pos: p.pos(start), Stmts: stmts}, nil
}

// blockBody parses statements until the matching '}', which it consumes.
func (p *Parser) blockBody() ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	iterations := 0
	for !p.check(token.RBRACE) && !p.atEnd() && iterations < maxParseIterations {
		iterations++
		stmt, err := p.declaration(false)
		if err != nil {
			p.reportAndSynchronize(err)
			continue
		}
		stmts = append(stmts, stmt)
	}
	if _, err := p.consume(token.RBRACE, "expected '}' to close block"); err != nil {
		return nil, err
	}
	return stmts, nil
}

// bodyOf parses either a braced block or a single statement: if and
// the loop constructs accept either a braced block or a single
// statement body.
func (p *Parser) bodyOf() ([]ast.Stmt, error) {
	if p.check(token.LBRACE) {
		p.advance()
		return p.blockBody()
	}
	stmt, err := p.statement()
	if err != nil {
		return nil, err
	}
	return []ast.Stmt{stmt}, nil
}

func (p *Parser) ifStmt() (ast.Stmt, error) {
	start := p.advance() // consume 'if'
	if _, err := p.consume(token.LPAREN, "expected '(' after 'if'"); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RPAREN, "expected ')' after condition"); err != nil {
		return nil, err
	}
	body, err := p.bodyOf()
	if err != nil {
		return nil, err
	}
	var elseBody []ast.Stmt
	if p.match(token.KW_ELSE) {
		elseBody, err = p.bodyOf()
		if err != nil {
			return nil, err
		}
	}
	return ast.If{Pos: p.pos(start), Cond: cond, Body: body, ElseBody: elseBody}, nil
}

func (p *Parser) whileStmt() (ast.Stmt, error) {
	start := p.advance() // consume 'while'
	if _, err := p.consume(token.LPAREN, "expected '(' after 'while'"); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RPAREN, "expected ')' after condition"); err != nil {
		return nil, err
	}
	body, err := p.bodyOf()
	if err != nil {
		return nil, err
	}
	return ast.While{Pos: p.pos(start), Cond: cond, Body: body}, nil
}

func (p *Parser) forStmt() (ast.Stmt, error) {
	start := p.advance() // consume 'for'
	if _, err := p.consume(token.LPAREN, "expected '(' after 'for'"); err != nil {
		return nil, err
	}

	var init ast.Stmt
	if !p.check(token.SEMICOLON) {
		var err error
		if typeName, ok := typeKeywords[p.peek().Type]; ok {
			init, err = p.varDecl(typeName)
			if err != nil {
				return nil, err
			}
		} else {
			exprStart := p.peek()
			expr, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.consume(token.SEMICOLON, "expected ';' after for-initializer"); err != nil {
				return nil, err
			}
			init = ast.ExprStmt{Pos: p.pos(exprStart), Expr: expr}
		}
	} else {
		p.advance() // consume empty initializer ';'
	}

	var cond ast.Expr
	if !p.check(token.SEMICOLON) {
		var err error
		cond, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(token.SEMICOLON, "expected ';' after for-condition"); err != nil {
		return nil, err
	}

	var increment ast.Stmt
	if !p.check(token.RPAREN) {
		incStart := p.peek()
		if p.check(token.IDENTIFIER) && (p.peekAt(1).Type == token.PLUS_PLUS || p.peekAt(1).Type == token.MINUS_MINUS) {
			nameTok := p.advance()
			opTok := p.advance()
			increment = ast.Increment{Pos: p.pos(incStart), Name: nameTok.Lexeme, SlotIndex: -1, IsIncrement: opTok.Type == token.PLUS_PLUS}
		} else {
			expr, err := p.expression()
			if err != nil {
				return nil, err
			}
			increment = ast.ExprStmt{Pos: p.pos(incStart), Expr: expr}
		}
	}
	if _, err := p.consume(token.RPAREN, "expected ')' after for-clauses"); err != nil {
		return nil, err
	}
	body, err := p.bodyOf()
	if err != nil {
		return nil, err
	}
	return ast.For{Pos: p.pos(start), Init: init, Cond: cond, Increment: increment, Body: body}, nil
}

func (p *Parser) returnStmt() (ast.Stmt, error) {
	start := p.advance() // consume 'return'
	var expr ast.Expr
	if !p.check(token.SEMICOLON) {
		var err error
		expr, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(token.SEMICOLON, "expected ';' after return"); err != nil {
		return nil, err
	}
	return ast.Return{Pos: p.pos(start), Expr: expr}, nil
}

// --- expressions (Pratt / precedence climbing) ---

func (p *Parser) expression() (ast.Expr, error) {
	return p.precedence(precOr)
}

// precedence parses a left-associative binary expression chain at or
// above the given minimum precedence level.
// Encountering '=' mid-expression is reported (it is only valid as a
// statement-level assignment) and the token is consumed to guarantee
// forward progress.
func (p *Parser) precedence(min int) (ast.Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		if p.check(token.ASSIGN) {
			tok := p.peek()
			p.advance()
			p.sink.AddAt(diag.Error, "'=' is not valid inside an expression", diag.Pos{Line: tok.Line, Col: tok.StartCol})
			continue
		}
		opTok := p.peek()
		prec, ok := binaryPrecedence[opTok.Type]
		if !ok || prec < min {
			break
		}
		op, _ := ast.BinaryOpFromToken(opTok.Type)
		p.advance()
		right, err := p.precedence(prec + 1)
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Pos: left.Position(), Left: left, Op: op, Right: right}
	}
	return left, nil
}

// unary parses prefix -, ! and ++/-- (only meaningful on an
// identifier), binding tighter than any binary operator.
func (p *Parser) unary() (ast.Expr, error) {
	switch {
	case p.check(token.MINUS):
		tok := p.advance()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return ast.Unary{Pos: p.pos(tok), Op: ast.OpNeg, Operand: operand}, nil
	case p.check(token.BANG):
		tok := p.advance()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return ast.Unary{Pos: p.pos(tok), Op: ast.OpNot, Operand: operand}, nil
	default:
		return p.postfix()
	}
}

// postfix parses a primary expression followed by an optional ++/--,
// which only applies to an identifier primary.
func (p *Parser) postfix() (ast.Expr, error) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}
	if p.check(token.PLUS_PLUS) || p.check(token.MINUS_MINUS) {
		if v, ok := expr.(ast.Variable); ok {
			opTok := p.advance()
			op := ast.OpPreIncr
			if opTok.Type == token.MINUS_MINUS {
				op = ast.OpPreDecr
			}
			return ast.Unary{Pos: v.Pos, Op: op, Operand: v}, nil
		}
	}
	return expr, nil
}

func (p *Parser) primary() (ast.Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case token.BOOLEAN:
		p.advance()
		return ast.Literal{Pos: p.pos(tok), Kind: ast.LitBool, Value: tok.Literal}, nil
	case token.INT:
		p.advance()
		return ast.Literal{Pos: p.pos(tok), Kind: ast.LitInt, Value: tok.Literal}, nil
	case token.FLOAT:
		p.advance()
		return ast.Literal{Pos: p.pos(tok), Kind: ast.LitFloat, Value: tok.Literal}, nil
	case token.STRING:
		p.advance()
		return ast.Literal{Pos: p.pos(tok), Kind: ast.LitString, Value: tok.Literal}, nil
	case token.LPAREN:
		p.advance()
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.RPAREN, "expected ')' to close grouped expression"); err != nil {
			return nil, err
		}
		return expr, nil
	case token.IDENTIFIER:
		return p.identifierExpr()
	default:
		p.advance()
		p.sink.AddAt(diag.Error, "expected an expression", diag.Pos{Line: tok.Line, Col: tok.StartCol})
		return dummyLiteral(tok), nil
	}
}

// identifierExpr parses a variable reference, a call `name(...)`, or a
// module access `Module.name(...)`.
func (p *Parser) identifierExpr() (ast.Expr, error) {
	nameTok := p.advance()
	if p.check(token.DOT) && p.peekAt(1).Type == token.IDENTIFIER && p.peekAt(2).Type == token.LPAREN {
		p.advance() // '.'
		fnTok := p.advance()
		args, err := p.argumentList()
		if err != nil {
			return nil, err
		}
		return ast.ModuleAccess{Pos: p.pos(nameTok), ModuleName: nameTok.Lexeme, FunctionName: fnTok.Lexeme, Args: args}, nil
	}
	if p.check(token.LPAREN) {
		args, err := p.argumentList()
		if err != nil {
			return nil, err
		}
		return ast.FunctionCall{Pos: p.pos(nameTok), Name: nameTok.Lexeme, Args: args}, nil
	}
	return ast.Variable{Pos: p.pos(nameTok), Name: nameTok.Lexeme, SlotIndex: -1}, nil
}

func (p *Parser) argumentList() ([]ast.Expr, error) {
	if _, err := p.consume(token.LPAREN, "expected '('"); err != nil {
		return nil, err
	}
	var args []ast.Expr
	if !p.check(token.RPAREN) {
		for {
			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	if _, err := p.consume(token.RPAREN, "expected ')' after arguments"); err != nil {
		return nil, err
	}
	return args, nil
}
