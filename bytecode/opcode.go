package bytecode

import "fmt"

// Opcode is a single 1-byte instruction identifier.
type Opcode byte

// Opcodes bearing a constant-pool index are emitted in contiguous triples:
// the base opcode is the 8-bit form, base+1 is 16-bit, base+2 is 24-bit.
// The emitter picks the width from the index magnitude alone, with no
// per-opcode table.
const (
	OpNop Opcode = iota

	OpConstant8
	OpConstant16
	OpConstant24

	OpNdfGlobal8
	OpNdfGlobal16
	OpNdfGlobal24

	OpDefGlobal8
	OpDefGlobal16
	OpDefGlobal24

	OpGetGlobal8
	OpGetGlobal16
	OpGetGlobal24

	OpSetGlobal8
	OpSetGlobal16
	OpSetGlobal24

	OpNil
	OpTrue
	OpFalse

	OpEqual
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual

	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNegate
	OpNot

	// Jump opcodes resolve the and/or short-circuit open question (see
	// SPEC_FULL.md). Both take a 16-bit unsigned operand: a forward byte
	// offset from the instruction immediately following the operand.
	OpJump
	OpJumpIfFalse

	OpPrint
	OpPop
	OpReturn
)

var opcodeNames = map[Opcode]string{
	OpNop:          "NOP",
	OpConstant8:    "CONSTANT_8",
	OpConstant16:   "CONSTANT_16",
	OpConstant24:   "CONSTANT_24",
	OpNdfGlobal8:   "NDF_GLOBAL_8",
	OpNdfGlobal16:  "NDF_GLOBAL_16",
	OpNdfGlobal24:  "NDF_GLOBAL_24",
	OpDefGlobal8:   "DEF_GLOBAL_8",
	OpDefGlobal16:  "DEF_GLOBAL_16",
	OpDefGlobal24:  "DEF_GLOBAL_24",
	OpGetGlobal8:   "GET_GLOBAL_8",
	OpGetGlobal16:  "GET_GLOBAL_16",
	OpGetGlobal24:  "GET_GLOBAL_24",
	OpSetGlobal8:   "SET_GLOBAL_8",
	OpSetGlobal16:  "SET_GLOBAL_16",
	OpSetGlobal24:  "SET_GLOBAL_24",
	OpNil:          "NIL",
	OpTrue:         "TRUE",
	OpFalse:        "FALSE",
	OpEqual:        "EQUAL",
	OpNotEqual:     "NOT_EQUAL",
	OpLess:         "LESS",
	OpLessEqual:    "LESS_EQUAL",
	OpGreater:      "GREATER",
	OpGreaterEqual: "GREATER_EQUAL",
	OpAdd:          "ADD",
	OpSubtract:     "SUBTRACT",
	OpMultiply:     "MULTIPLY",
	OpDivide:       "DIVIDE",
	OpNegate:       "NEGATE",
	OpNot:          "NOT",
	OpJump:         "JUMP",
	OpJumpIfFalse:  "JUMP_IF_FALSE",
	OpPrint:        "PRINT",
	OpPop:          "POP",
	OpReturn:       "RETURN",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", byte(op))
}

// init asserts the opcode-family layout invariant the variable-width
// encoding in chunk.go relies on: each of these families must be three
// consecutive opcode values in 8/16/24-bit order. A corpus-shaped enum
// edit that breaks this silently would otherwise corrupt every multi-byte
// constant reference at runtime instead of failing at process start.
func init() {
	families := [][3]Opcode{
		{OpConstant8, OpConstant16, OpConstant24},
		{OpNdfGlobal8, OpNdfGlobal16, OpNdfGlobal24},
		{OpDefGlobal8, OpDefGlobal16, OpDefGlobal24},
		{OpGetGlobal8, OpGetGlobal16, OpGetGlobal24},
		{OpSetGlobal8, OpSetGlobal16, OpSetGlobal24},
	}
	for _, f := range families {
		if f[1] != f[0]+1 || f[2] != f[0]+2 {
			panic(fmt.Sprintf("bytecode: opcode family starting at %s is not contiguous", f[0]))
		}
	}
}

// constantFamilyWidth returns the operand width in bytes (1, 2 or 3) of
// op, a member of the family whose 8-bit form is base. It panics if op
// is not one of base's three members.
func constantFamilyWidth(op, base Opcode) int {
	switch op - base {
	case 0:
		return 1
	case 1:
		return 2
	case 2:
		return 3
	default:
		panic("bytecode: opcode not part of expected family")
	}
}
