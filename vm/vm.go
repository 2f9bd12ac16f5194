// Package vm implements Vext's stack-based virtual machine (spec.md
// §4.5): it executes a bytecode.Program on an explicit operand stack
// and a growable variable slot array, dispatching CALL/CALL_VOID to
// either a native built-in or a user function compiled via DEF_FUNC.
//
// Grounded on informatter-nilan/vm/vm.go's fetch-decode-dispatch loop
// shape (a switch over opcode, ip advanced per instruction, an
// explicit Stack type) and vm/stack.go's Push/Pop/Peek idiom, both
// extended far beyond the teacher's two-opcode (OP_CONSTANT/OP_END)
// placeholder to the full opcode set bytecode.Opcode defines, plus the
// jump/call/slot-array machinery spec.md §4.5 requires that the
// teacher's VM never had.
package vm

import (
	"fmt"
	"math"
	"strings"

	"vext/builtins"
	"vext/bytecode"
	"vext/value"
)

const slotsInitialCapacity = 64

// Result is the raw outcome of running a Program: the final slot
// contents and whatever `print` wrote. The engine façade wraps this
// with timing information to build spec.md §6's RunResult.
type Result struct {
	Slots  []value.Value
	Stdout string
}

// Machine is spec.md §4.5's VM state: stack, slot array, function
// table (native + user), and a captured stdout buffer. A Machine is
// not safe for concurrent or re-entrant use (spec.md §5): each Run
// call resets every field before executing.
type Machine struct {
	stack     *Stack
	slots     []value.Value
	functions map[string]*bytecode.UserFunction
	natives   *builtins.Registry
	stdout    strings.Builder
}

// New returns a Machine wired to the given native function registry.
func New(natives *builtins.Registry) *Machine {
	return &Machine{natives: natives}
}

// WriteStdout implements builtins.Context, letting native functions
// like `print` append to the VM's captured output buffer.
func (m *Machine) WriteStdout(s string) {
	m.stdout.WriteString(s)
}

// Run executes prog's top-level instruction stream to completion,
// resetting all machine state first (spec.md §5: "the captured stdout
// buffer... is reset per run").
func (m *Machine) Run(prog *bytecode.Program) (*Result, error) {
	m.stack = newStack()
	m.slots = make([]value.Value, slotsInitialCapacity)
	m.functions = make(map[string]*bytecode.UserFunction)
	m.stdout.Reset()

	if _, _, err := m.exec(prog.Instructions); err != nil {
		return nil, err
	}
	return &Result{Slots: append([]value.Value(nil), m.slots...), Stdout: m.stdout.String()}, nil
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

func (m *Machine) ensureSlot(i int) {
	if i < len(m.slots) {
		return
	}
	size := nextPow2(i + 1)
	if size < slotsInitialCapacity {
		size = slotsInitialCapacity
	}
	grown := make([]value.Value, size)
	copy(grown, m.slots)
	m.slots = grown
}

// loadVar reads a slot; a slot never written to (possible for a
// variable sema only warned about, never hard-errored, per spec.md
// §4.3's "may be unassigned" warning) reads as Null rather than
// panicking out of bounds.
func (m *Machine) loadVar(slot int) value.Value {
	if slot < 0 || slot >= len(m.slots) {
		return value.NewNull()
	}
	return m.slots[slot]
}

func (m *Machine) storeVar(slot int, v value.Value) {
	m.ensureSlot(slot)
	m.slots[slot] = v
}

func rtErr(instr bytecode.Instruction, format string, args ...any) error {
	return RuntimeError{Message: fmt.Sprintf(format, args...), Line: instr.Line, Col: instr.Col}
}

func (m *Machine) pop(instr bytecode.Instruction) (value.Value, error) {
	v, ok := m.stack.Pop()
	if !ok {
		return value.Value{}, rtErr(instr, "operand stack underflow")
	}
	return v, nil
}

// exec runs one flat instruction slice (the top-level program, or a
// single user function body) on the Machine's shared stack and slot
// array, returning the value a RET instruction popped, or
// (Null, false, nil) if the slice runs off its end without one.
func (m *Machine) exec(instrs []bytecode.Instruction) (value.Value, bool, error) {
	ip := 0
	for ip < len(instrs) {
		instr := instrs[ip]
		switch instr.Op {
		case bytecode.LoadConst:
			m.stack.Push(instr.Const)

		case bytecode.LoadVar:
			m.stack.Push(m.loadVar(instr.Slot))

		case bytecode.StoreVar:
			v, err := m.pop(instr)
			if err != nil {
				return value.Value{}, false, err
			}
			m.storeVar(instr.Slot, v)

		case bytecode.Add:
			right, left, err := m.popPair(instr)
			if err != nil {
				return value.Value{}, false, err
			}
			result, err := addValues(left, right, instr)
			if err != nil {
				return value.Value{}, false, err
			}
			m.stack.Push(result)

		case bytecode.Sub, bytecode.Mul, bytecode.Div, bytecode.Pow, bytecode.Mod:
			right, left, err := m.popPair(instr)
			if err != nil {
				return value.Value{}, false, err
			}
			if left.Kind != value.Number || right.Kind != value.Number {
				return value.Value{}, false, rtErr(instr, "arithmetic operand is not a number")
			}
			result, err := arith(instr.Op, left.Num, right.Num, instr)
			if err != nil {
				return value.Value{}, false, err
			}
			m.stack.Push(value.NewNumber(result))

		case bytecode.Eq, bytecode.Neq:
			right, left, err := m.popPair(instr)
			if err != nil {
				return value.Value{}, false, err
			}
			eq, err := equalValues(left, right, instr)
			if err != nil {
				return value.Value{}, false, err
			}
			if instr.Op == bytecode.Neq {
				eq = !eq
			}
			m.stack.Push(value.NewBool(eq))

		case bytecode.Lt, bytecode.Lte, bytecode.Gt, bytecode.Gte:
			right, left, err := m.popPair(instr)
			if err != nil {
				return value.Value{}, false, err
			}
			result, err := compareValues(instr.Op, left, right, instr)
			if err != nil {
				return value.Value{}, false, err
			}
			m.stack.Push(value.NewBool(result))

		case bytecode.Not:
			v, err := m.pop(instr)
			if err != nil {
				return value.Value{}, false, err
			}
			if v.Kind != value.Bool {
				return value.Value{}, false, rtErr(instr, "NOT operand is not a bool")
			}
			m.stack.Push(value.NewBool(!v.B))

		case bytecode.Jmp:
			ip = instr.Target
			continue

		case bytecode.JmpIfFalse:
			cond, err := m.popBool(instr)
			if err != nil {
				return value.Value{}, false, err
			}
			if !cond {
				ip = instr.Target
				continue
			}

		case bytecode.JmpIfTrue:
			cond, err := m.popBool(instr)
			if err != nil {
				return value.Value{}, false, err
			}
			if cond {
				ip = instr.Target
				continue
			}

		case bytecode.JmpIfVarOpConst:
			v := m.loadVar(instr.Slot)
			n := v.Num
			if !cmpSatisfied(n, instr.CmpOp, instr.Limit) {
				ip = instr.Target
				continue
			}

		case bytecode.Pop:
			if _, err := m.pop(instr); err != nil {
				return value.Value{}, false, err
			}

		case bytecode.IncVar, bytecode.DecVar:
			v := m.loadVar(instr.Slot)
			if v.Kind != value.Number {
				return value.Value{}, false, rtErr(instr, "increment/decrement target is not a number")
			}
			delta := 1.0
			if instr.Op == bytecode.DecVar {
				delta = -1.0
			}
			m.storeVar(instr.Slot, value.NewNumber(v.Num+delta))

		case bytecode.Call, bytecode.CallVoid:
			if err := m.call(instr); err != nil {
				return value.Value{}, false, err
			}

		case bytecode.Ret:
			v, err := m.pop(instr)
			if err != nil {
				return value.Value{}, false, err
			}
			return v, true, nil

		case bytecode.DefFunc:
			m.functions[instr.Name] = instr.Func

		default:
			return value.Value{}, false, rtErr(instr, "unknown opcode %v", instr.Op)
		}
		ip++
	}
	return value.NewNull(), false, nil
}

// popPair pops right-then-left, the order spec.md §4.5 mandates for
// every arithmetic/comparison opcode ("pop right then left").
func (m *Machine) popPair(instr bytecode.Instruction) (right, left value.Value, err error) {
	right, err = m.pop(instr)
	if err != nil {
		return
	}
	left, err = m.pop(instr)
	return
}

func (m *Machine) popBool(instr bytecode.Instruction) (bool, error) {
	v, err := m.pop(instr)
	if err != nil {
		return false, err
	}
	if v.Kind != value.Bool {
		return false, rtErr(instr, "condition is not a bool")
	}
	return v.B, nil
}

// addValues implements spec.md §4.5's ADD semantics: string
// concatenation (via each operand's canonical textual form) whenever
// either side is a String, otherwise numeric addition.
func addValues(left, right value.Value, instr bytecode.Instruction) (value.Value, error) {
	if left.Kind == value.String || right.Kind == value.String {
		return value.NewString(left.String() + right.String()), nil
	}
	if left.Kind == value.Number && right.Kind == value.Number {
		return value.NewNumber(left.Num + right.Num), nil
	}
	return value.Value{}, rtErr(instr, "cannot add operands of mismatched types")
}

func arith(op bytecode.Opcode, a, b float64, instr bytecode.Instruction) (float64, error) {
	switch op {
	case bytecode.Sub:
		return a - b, nil
	case bytecode.Mul:
		return a * b, nil
	case bytecode.Div:
		if b == 0 {
			return 0, rtErr(instr, "division by zero")
		}
		return a / b, nil
	case bytecode.Mod:
		if b == 0 {
			return 0, rtErr(instr, "division by zero")
		}
		return math.Mod(a, b), nil
	case bytecode.Pow:
		return math.Pow(a, b), nil
	default:
		return 0, rtErr(instr, "unsupported arithmetic opcode %v", op)
	}
}

func equalValues(left, right value.Value, instr bytecode.Instruction) (bool, error) {
	if left.Kind != right.Kind {
		return false, rtErr(instr, "cannot compare operands of mismatched types")
	}
	switch left.Kind {
	case value.Number:
		return left.Num == right.Num, nil
	case value.Bool:
		return left.B == right.B, nil
	case value.String:
		return left.Str == right.Str, nil
	default:
		return true, nil
	}
}

func compareValues(op bytecode.Opcode, left, right value.Value, instr bytecode.Instruction) (bool, error) {
	if left.Kind == value.Number && right.Kind == value.Number {
		return numericCompare(op, left.Num, right.Num), nil
	}
	if left.Kind == value.String && right.Kind == value.String {
		return numericCompare(op, stringOrder(left.Str, right.Str), 0), nil
	}
	return false, rtErr(instr, "cannot compare operands of mismatched types")
}

func stringOrder(a, b string) float64 {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func numericCompare(op bytecode.Opcode, a, b float64) bool {
	switch op {
	case bytecode.Lt:
		return a < b
	case bytecode.Lte:
		return a <= b
	case bytecode.Gt:
		return a > b
	case bytecode.Gte:
		return a >= b
	default:
		return false
	}
}

// cmpSatisfied evaluates the comparison embedded in a
// JMP_IF_VAR_OP_CONST instruction (spec.md §4.4's fast-loop
// specialization): the instruction branches when it is NOT satisfied.
func cmpSatisfied(n float64, op bytecode.CompareOp, limit float64) bool {
	switch op {
	case bytecode.CmpLt:
		return n < limit
	case bytecode.CmpLte:
		return n <= limit
	case bytecode.CmpGt:
		return n > limit
	case bytecode.CmpGte:
		return n >= limit
	default:
		return false
	}
}

// call dispatches a CALL/CALL_VOID instruction: a dotted name resolves
// to a Math.* native, a bare name checks user functions first (spec.md
// GLOSSARY's Overload rule already enforced this at compile time; the
// VM only needs the table a DEF_FUNC populated) and falls back to a
// free native built-in.
func (m *Machine) call(instr bytecode.Instruction) error {
	void := instr.Op == bytecode.CallVoid
	if module, fn, ok := splitModule(instr.Name); ok {
		native, found := m.natives.ResolveModule(module, fn, instr.ArgCount)
		if !found {
			return rtErr(instr, "unknown module function %q", instr.Name)
		}
		return m.invokeNative(native, instr, void)
	}
	if uf, ok := m.functions[instr.Name]; ok {
		ret, err := m.callUser(uf)
		if err != nil {
			return err
		}
		if !void {
			m.stack.Push(ret)
		}
		return nil
	}
	native, found := m.natives.Resolve(instr.Name, instr.ArgCount)
	if !found {
		return rtErr(instr, "unknown function %q", instr.Name)
	}
	return m.invokeNative(native, instr, void)
}

func splitModule(name string) (module, fn string, ok bool) {
	i := strings.IndexByte(name, '.')
	if i < 0 {
		return "", "", false
	}
	return name[:i], name[i+1:], true
}

func (m *Machine) invokeNative(native *builtins.Func, instr bytecode.Instruction, void bool) error {
	args := m.popArgs(instr.ArgCount)
	result, err := native.Invoke(m, args)
	if err != nil {
		return rtErr(instr, "%s", err)
	}
	if !void && !native.Void {
		m.stack.Push(value.FromGoValue(result))
	}
	return nil
}

// popArgs pops argCount values off the stack (last-pushed first, per
// spec.md §4.4's left-to-right push order) and returns them in
// left-to-right call order, unwrapped to plain Go scalars for the
// native built-in contract (spec.md §4.5).
func (m *Machine) popArgs(argCount int) []any {
	args := make([]any, argCount)
	for i := argCount - 1; i >= 0; i-- {
		v, _ := m.stack.Pop()
		args[i] = v.GoValue()
	}
	return args
}

// callUser implements spec.md §4.5's "snapshot all variables, run,
// restore" user-call semantics: each activation gets its own view of
// every slot (so locals never leak into the caller), while reads
// during the call still see whatever the caller's globals held at
// call time. Arguments are not popped here — they remain on the
// shared stack for the callee's own STORE_VAR preamble to consume.
func (m *Machine) callUser(uf *bytecode.UserFunction) (value.Value, error) {
	snapshot := append([]value.Value(nil), m.slots...)
	ret, didReturn, err := m.exec(uf.Body)
	m.slots = snapshot
	if err != nil {
		return value.Value{}, err
	}
	if !didReturn {
		return value.NewNull(), nil
	}
	return ret, nil
}
