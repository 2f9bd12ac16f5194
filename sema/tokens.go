package sema

import "vext/ast"

// Category is the highlighting class of a SemToken.
type Category string

const (
	CategoryType     Category = "type"
	CategoryFunction Category = "function"
	CategoryVariable Category = "variable"
	CategoryKeyword  Category = "keyword"
	CategoryOperator Category = "operator"
	CategoryNumber   Category = "number"
	CategoryString   Category = "string"
	CategoryBoolean  Category = "boolean"
	CategoryComment  Category = "comment"
)

// Modifier tags a SemToken with additional editor-facing context.
type Modifier string

const (
	ModifierDeclaration Modifier = "declaration"
	ModifierParameter   Modifier = "parameter"
	ModifierControl     Modifier = "control"
	ModifierCall        Modifier = "call"
	ModifierReadonly    Modifier = "readonly"
	ModifierStatic      Modifier = "static"
)

// SemToken is a single semantic-highlighting record consumed by an
// editor integration; Vext only produces these, it never interprets
// them.
type SemToken struct {
	Pos       ast.Pos
	Category  Category
	Modifiers []Modifier
}

func (a *Analyzer) emitToken(pos ast.Pos, cat Category, mods ...Modifier) {
	a.tokens = append(a.tokens, SemToken{Pos: pos, Category: cat, Modifiers: mods})
}
