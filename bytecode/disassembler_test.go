package bytecode_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loxvm/bytecode"
)

func TestDisassembleRendersOffsetLineMnemonicOperand(t *testing.T) {
	c := bytecode.NewChunk()
	idx, err := c.AddConstant(bytecode.NewNumber(42))
	require.NoError(t, err)
	require.NoError(t, c.WriteConstantOp(bytecode.OpConstant8, idx, 3))
	c.WriteOp(bytecode.OpReturn, 3)

	out := bytecode.Disassemble(c, "chunk")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	require.Len(t, lines, 3) // header + 2 instructions
	assert.Contains(t, lines[1], "0000")
	assert.Contains(t, lines[1], "CONSTANT_8")
	assert.Contains(t, lines[1], "'42'")
	assert.Contains(t, lines[2], "   | ") // same line as previous instruction
	assert.Contains(t, lines[2], "RETURN")
}

func TestDisassembleJumpShowsTarget(t *testing.T) {
	c := bytecode.NewChunk()
	c.WriteOp(bytecode.OpJumpIfFalse, 1)
	c.WriteByte(0x02, 1)
	c.WriteByte(0x00, 1)
	c.WriteOp(bytecode.OpPop, 1)
	c.WriteOp(bytecode.OpPop, 1)
	c.WriteOp(bytecode.OpReturn, 1)

	out := bytecode.Disassemble(c, "chunk")
	assert.Contains(t, out, "-> 5")
}

func TestDisassembleIsPureFunctionOfChunkContents(t *testing.T) {
	c := bytecode.NewChunk()
	c.WriteOp(bytecode.OpNil, 1)
	c.WriteOp(bytecode.OpReturn, 1)

	first := bytecode.Disassemble(c, "x")
	second := bytecode.Disassemble(c, "x")
	assert.Equal(t, first, second)
}
