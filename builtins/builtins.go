// Package builtins implements spec.md §6's mandatory native function
// surface: the free functions print/len/__v_gettype/__v_tostring and
// the Math module, plus the registry the VM consults at CALL time.
//
// Grounded on informatter-nilan/interpreter/interpreter.go's direct use
// of Go's math/strconv for numeric coercion and truthiness, and on
// spec.md's Design Notes §9 native-function-table shape ({name, arity,
// types, invoke closure}, a name mapping to a list of overloads). The
// teacher has no module namespace or Math library at all — Vext's Math
// module is new code grounded directly on spec.md §6's table rather
// than on a teacher counterpart.
package builtins

import (
	"fmt"
	"math"
	"math/rand"

	"vext/sema"
	"vext/types"
)

// Context is the side channel a native implementation needs beyond its
// arguments: spec.md §4.5's "captures print-like output into a
// buffer". The vm package implements this without builtins importing
// vm, avoiding an import cycle between the two.
type Context interface {
	WriteStdout(s string)
}

// Func is one registered overload: its static signature (shared with
// sema.Signature so the same arity/type list is used for type-checking
// and runtime dispatch) plus the Go closure that runs it.
type Func struct {
	Name    string
	Params  []types.Tag
	Return  types.Tag
	Void    bool
	Invoke  func(ctx Context, args []any) (any, error)
}

// Registry holds every native overload, keyed by arity within a name
// (spec.md: "native overloads received as plain scalars"). No two
// built-ins registered here share both a name and an arity, so arity
// alone disambiguates at runtime; the richer type-based overload
// resolution already ran during sema and is not repeated here.
type Registry struct {
	byArity map[string]map[int]*Func
}

// NewRegistry builds the mandatory built-in surface spec.md §6 names.
func NewRegistry() *Registry {
	r := &Registry{byArity: make(map[string]map[int]*Func)}
	r.register(&Func{
		Name: "print", Params: []types.Tag{types.Auto}, Return: types.Void, Void: true,
		Invoke: func(ctx Context, args []any) (any, error) {
			ctx.WriteStdout(textOf(args[0]) + "\n")
			return nil, nil
		},
	})
	r.register(&Func{
		Name: "len", Params: []types.Tag{types.String}, Return: types.Int,
		Invoke: func(_ Context, args []any) (any, error) {
			s, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("len: argument is not a string")
			}
			return float64(len(s)), nil
		},
	})
	r.register(&Func{
		Name: "__v_gettype", Params: []types.Tag{types.Auto}, Return: types.String,
		Invoke: func(_ Context, args []any) (any, error) {
			return goTypeName(args[0]), nil
		},
	})
	r.register(&Func{
		Name: "__v_tostring", Params: []types.Tag{types.Auto}, Return: types.String,
		Invoke: func(_ Context, args []any) (any, error) {
			return textOf(args[0]), nil
		},
	})
	r.registerMath()
	return r
}

func (r *Registry) register(f *Func) {
	byArity, ok := r.byArity[f.Name]
	if !ok {
		byArity = make(map[int]*Func)
		r.byArity[f.Name] = byArity
	}
	byArity[len(f.Params)] = f
}

// Resolve looks up a free-function native overload by name and arity.
func (r *Registry) Resolve(name string, argc int) (*Func, bool) {
	byArity, ok := r.byArity[name]
	if !ok {
		return nil, false
	}
	f, ok := byArity[argc]
	return f, ok
}

// ResolveModule looks up a `Module.Function` native overload, keyed
// the same way sema.FunctionTable registers it: "Module.Function".
func (r *Registry) ResolveModule(module, function string, argc int) (*Func, bool) {
	return r.Resolve(module+"."+function, argc)
}

// Signatures returns every registered overload as a sema.Signature,
// the form sema.Analyze's natives parameter expects (spec.md §3:
// "built-ins registered at engine construction").
func (r *Registry) Signatures() []sema.Signature {
	var sigs []sema.Signature
	for name, byArity := range r.byArity {
		for _, f := range byArity {
			sigs = append(sigs, sema.Signature{Name: name, Params: f.Params, ReturnType: f.Return})
		}
	}
	return sigs
}

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected a numeric argument, got %T", v)
	}
}

func (r *Registry) registerMath() {
	unary := func(name string, fn func(float64) float64) {
		r.register(&Func{
			Name: "Math." + name, Params: []types.Tag{types.Numeral}, Return: types.Float,
			Invoke: func(_ Context, args []any) (any, error) {
				x, err := asFloat(args[0])
				if err != nil {
					return nil, err
				}
				return fn(x), nil
			},
		})
	}
	unary("sqrt", math.Sqrt)
	unary("sin", math.Sin)
	unary("cos", math.Cos)
	unary("tan", math.Tan)
	unary("log", math.Log)
	unary("exp", math.Exp)
	unary("abs", math.Abs)
	unary("round", math.Round)
	unary("floor", math.Floor)
	unary("ceil", math.Ceil)

	binary := func(name string, fn func(a, b float64) float64) {
		r.register(&Func{
			Name: "Math." + name, Params: []types.Tag{types.Numeral, types.Numeral}, Return: types.Float,
			Invoke: func(_ Context, args []any) (any, error) {
				a, err := asFloat(args[0])
				if err != nil {
					return nil, err
				}
				b, err := asFloat(args[1])
				if err != nil {
					return nil, err
				}
				return fn(a, b), nil
			},
		})
	}
	binary("pow", math.Pow)
	binary("min", math.Min)
	binary("max", math.Max)

	r.register(&Func{
		Name: "Math.random", Params: nil, Return: types.Float,
		Invoke: func(_ Context, args []any) (any, error) {
			return rand.Float64(), nil
		},
	})
	r.register(&Func{
		Name: "Math.random", Params: []types.Tag{types.Numeral, types.Numeral}, Return: types.Float,
		Invoke: func(_ Context, args []any) (any, error) {
			lo, err := asFloat(args[0])
			if err != nil {
				return nil, err
			}
			hi, err := asFloat(args[1])
			if err != nil {
				return nil, err
			}
			return lo + rand.Float64()*(hi-lo), nil
		},
	})
}

// textOf renders a plain Go scalar the way value.Value.String() would,
// so print/__v_tostring agree with VM-level ADD string coercion on the
// canonical forms spec.md §9 pins (true/false, no trailing .0).
func textOf(v any) string {
	switch x := v.(type) {
	case float64:
		return types.CanonicalNumberString(x)
	case bool:
		return types.CanonicalBoolString(x)
	case string:
		return x
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%v", x)
	}
}

func goTypeName(v any) string {
	switch v.(type) {
	case float64:
		return "number"
	case bool:
		return "bool"
	case string:
		return "string"
	case nil:
		return "null"
	default:
		return "unknown"
	}
}
