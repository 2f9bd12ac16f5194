package bytecode

// Opcode enumerates every instruction the VM understands. Grounded on
// the shape of informatter-nilan/compiler/code.go's
// Opcode/OpCodeDefinition idea (a byte-sized enum with a
// human-readable Name), but Vext does not pack operands into a byte
// stream: Instruction is a struct {opcode, argument, sourceLine,
// sourceCol}, so each Opcode here pairs with typed fields on
// Instruction instead of a width-prefixed binary encoding.
type Opcode int

const (
	LoadConst Opcode = iota
	LoadVar
	StoreVar
	Add
	Sub
	Mul
	Div
	Pow
	Mod
	Eq
	Neq
	Lt
	Lte
	Gt
	Gte
	Not
	Jmp
	JmpIfFalse
	JmpIfTrue
	JmpIfVarOpConst
	Pop
	IncVar
	DecVar
	Call
	CallVoid
	Ret
	DefFunc
)

var opcodeNames = map[Opcode]string{
	LoadConst:       "LOAD_CONST",
	LoadVar:         "LOAD_VAR",
	StoreVar:        "STORE_VAR",
	Add:             "ADD",
	Sub:             "SUB",
	Mul:             "MUL",
	Div:             "DIV",
	Pow:             "POW",
	Mod:             "MOD",
	Eq:              "EQ",
	Neq:             "NEQ",
	Lt:              "LT",
	Lte:             "LTE",
	Gt:              "GT",
	Gte:             "GTE",
	Not:             "NOT",
	Jmp:             "JMP",
	JmpIfFalse:      "JMP_IF_FALSE",
	JmpIfTrue:       "JMP_IF_TRUE",
	JmpIfVarOpConst: "JMP_IF_VAR_OP_CONST",
	Pop:             "POP",
	IncVar:          "INC_VAR",
	DecVar:          "DEC_VAR",
	Call:            "CALL",
	CallVoid:        "CALL_VOID",
	Ret:             "RET",
	DefFunc:         "DEF_FUNC",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "UNKNOWN_OPCODE"
}

// CompareOp is the comparison embedded in a JMP_IF_VAR_OP_CONST
// instruction's fast-loop specialization (spec.md §4.4's While
// lowering rule).
type CompareOp int

const (
	CmpLt CompareOp = iota
	CmpLte
	CmpGt
	CmpGte
)
