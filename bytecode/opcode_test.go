package bytecode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loxvm/bytecode"
)

func TestOperandWidthAcrossFamily(t *testing.T) {
	cases := []struct {
		op, base bytecode.Opcode
		want     int
	}{
		{bytecode.OpConstant8, bytecode.OpConstant8, 1},
		{bytecode.OpConstant16, bytecode.OpConstant8, 2},
		{bytecode.OpConstant24, bytecode.OpConstant8, 3},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, bytecode.OperandWidth(c.op, c.base))
	}
}

func TestOpcodeStringNamesEveryDefinedOpcode(t *testing.T) {
	ops := []bytecode.Opcode{
		bytecode.OpNop, bytecode.OpConstant8, bytecode.OpConstant16, bytecode.OpConstant24,
		bytecode.OpNdfGlobal8, bytecode.OpNdfGlobal16, bytecode.OpNdfGlobal24,
		bytecode.OpDefGlobal8, bytecode.OpDefGlobal16, bytecode.OpDefGlobal24,
		bytecode.OpGetGlobal8, bytecode.OpGetGlobal16, bytecode.OpGetGlobal24,
		bytecode.OpSetGlobal8, bytecode.OpSetGlobal16, bytecode.OpSetGlobal24,
		bytecode.OpNil, bytecode.OpTrue, bytecode.OpFalse,
		bytecode.OpEqual, bytecode.OpNotEqual, bytecode.OpLess, bytecode.OpLessEqual,
		bytecode.OpGreater, bytecode.OpGreaterEqual,
		bytecode.OpAdd, bytecode.OpSubtract, bytecode.OpMultiply, bytecode.OpDivide,
		bytecode.OpNegate, bytecode.OpNot, bytecode.OpJump, bytecode.OpJumpIfFalse,
		bytecode.OpPrint, bytecode.OpPop, bytecode.OpReturn,
	}
	for _, op := range ops {
		require.NotContains(t, op.String(), "UNKNOWN")
	}
}

func TestOpcodeStringUnknownValue(t *testing.T) {
	assert.Contains(t, bytecode.Opcode(255).String(), "UNKNOWN")
}
