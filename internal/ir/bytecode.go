package ir

// OpCode is the closed stack-VM instruction enum. It lives in
// package ir (rather than internal/bytecode) because Function.Instructions
// is itself part of the IR data model; the
// internal/bytecode package imports ir and supplies the compiler that
// produces Instruction sequences and the VM that executes them.
type OpCode uint8

const (
	// Stack
	OpPushInt OpCode = iota
	OpPushFloat
	OpPushString
	OpPushBool
	OpPop
	OpDup

	// Arithmetic
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg

	// Comparison
	OpEq
	OpNe
	OpLt
	OpGt
	OpLe
	OpGe

	// Logical
	OpAnd
	OpOr
	OpNot

	// String
	OpConcat

	// State
	OpGetState
	OpSetState
	OpGetLocal
	OpSetLocal

	// Control
	OpJump
	OpJumpIfFalse
	OpCall
	OpReturn

	// Host
	OpCallHost
	OpGetProp
	OpSetProp

	// System
	OpHalt
)

func (op OpCode) String() string {
	names := [...]string{
		"PushInt", "PushFloat", "PushString", "PushBool", "Pop", "Dup",
		"Add", "Sub", "Mul", "Div", "Mod", "Neg",
		"Eq", "Ne", "Lt", "Gt", "Le", "Ge",
		"And", "Or", "Not",
		"Concat",
		"GetState", "SetState", "GetLocal", "SetLocal",
		"Jump", "JumpIfFalse", "Call", "Return",
		"CallHost", "GetProp", "SetProp",
		"Halt",
	}
	if int(op) < len(names) {
		return names[op]
	}
	return "Unknown"
}

// Instruction is one bytecode instruction. Which operand field is
// meaningful depends on Op's declared arity; unused fields are
// zero. This mirrors a packed-operand instruction format familiar from
// bytecode VMs with 32-bit opcode+operand words, without committing to a
// single fixed-width encoding ahead of the binary writer's own choice.
type Instruction struct {
	Op OpCode

	Int    int64   // PushInt
	Float  float64 // PushFloat
	Str    uint32  // PushString: string-table index
	Bool   bool    // PushBool

	ID     uint32 // GetState/SetState: state_id; Call: fn_id; CallHost: host_fn_id; GetLocal/SetLocal: local id
	Prop   uint32 // GetProp/SetProp: prop index
	Target uint32 // GetProp/SetProp: component_id; CallHost: argument count for this call site

	Offset int // Jump/JumpIfFalse: instruction offset to jump to
}

// Function is `{function_id, name, language_tag, param_indices, code_index,
// instructions}`. When LanguageTag is non-empty, Instructions
// is empty and CodeIndex points at the literal host-language source instead,
// for languages other than the embedded bytecode.
type Function struct {
	FunctionID   uint32
	Name         uint32
	LanguageTag  uint32 // string-table index; index of "" (the interned empty string) means the embedded bytecode language
	ParamIndices []uint16
	CodeIndex    uint32 // valid only when LanguageTag names a non-embedded language
	Instructions []Instruction
}
