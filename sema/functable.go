package sema

import (
	"vext/ast"
	"vext/types"
)

// Signature identifies one overload: a name plus its parameter types
// and declared return type.
type Signature struct {
	Name       string
	Params     []types.Tag
	ReturnType types.Tag
	Native     bool
}

// sameParams reports whether two parameter-type sequences are
// identical, the basis for "duplicate function signature" detection
// during function discovery.
func sameParams(a, b []types.Tag) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Entry is one registered overload: its signature and, for user
// functions, the declaration it was discovered from (nil for natives,
// whose implementation lives in the builtins package).
type Entry struct {
	Sig  Signature
	Decl *ast.FuncDef
}

// FunctionTable holds every registered overload, user and native,
// keyed by plain name (free functions) or "Module.Function" (module
// access calls): native function dispatch resolves a name to a list
// of overloads.
type FunctionTable struct {
	overloads map[string][]*Entry
	// UserOrder lists user functions in discovery order, the order
	// Phase C analyzes bodies in and DEF_FUNC is later emitted in.
	UserOrder []*Entry
}

// NewFunctionTable returns an empty table.
func NewFunctionTable() *FunctionTable {
	return &FunctionTable{overloads: make(map[string][]*Entry)}
}

// RegisterNative adds a built-in overload. Called once per engine
// construction before any compile.
func (t *FunctionTable) RegisterNative(sig Signature) {
	sig.Native = true
	t.overloads[sig.Name] = append(t.overloads[sig.Name], &Entry{Sig: sig})
}

// HasExactUserSignature reports whether a user function with this
// exact name+parameter-type sequence was already discovered, the
// duplicate-signature check in Phase A.
func (t *FunctionTable) HasExactUserSignature(name string, params []types.Tag) bool {
	for _, e := range t.overloads[name] {
		if !e.Sig.Native && sameParams(e.Sig.Params, params) {
			return true
		}
	}
	return false
}

// RegisterUser adds a newly discovered user function and returns its
// Entry, which Phase C fills in further as analysis of the body
// proceeds.
func (t *FunctionTable) RegisterUser(sig Signature, decl *ast.FuncDef) *Entry {
	sig.Native = false
	e := &Entry{Sig: sig, Decl: decl}
	t.overloads[sig.Name] = append(t.overloads[sig.Name], e)
	t.UserOrder = append(t.UserOrder, e)
	return e
}

func pairwiseCompatible(params, args []types.Tag) bool {
	if len(params) != len(args) {
		return false
	}
	for i := range params {
		if !types.Compatible(args[i], params[i]) {
			return false
		}
	}
	return true
}

// Resolve picks the best-matching overload for a free-function call,
// per the GLOSSARY's "Overload" rule: user functions are tried first,
// in discovery order; built-ins are only considered when no user
// overload shares the call's arity at all.
func (t *FunctionTable) Resolve(name string, argTypes []types.Tag) (*Entry, bool) {
	entries := t.overloads[name]
	anyArityMatch := false
	for _, e := range entries {
		if e.Sig.Native {
			continue
		}
		if len(e.Sig.Params) == len(argTypes) {
			anyArityMatch = true
			if pairwiseCompatible(e.Sig.Params, argTypes) {
				return e, true
			}
		}
	}
	if anyArityMatch {
		return nil, false
	}
	for _, e := range entries {
		if !e.Sig.Native {
			continue
		}
		if pairwiseCompatible(e.Sig.Params, argTypes) {
			return e, true
		}
	}
	return nil, false
}

// ResolveModule picks the best-matching overload for a `Module.Func`
// call; only natives are ever registered under a dotted key.
func (t *FunctionTable) ResolveModule(module, function string, argTypes []types.Tag) (*Entry, bool) {
	entries := t.overloads[module+"."+function]
	for _, e := range entries {
		if pairwiseCompatible(e.Sig.Params, argTypes) {
			return e, true
		}
	}
	return nil, false
}
