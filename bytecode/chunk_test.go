package bytecode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loxvm/bytecode"
)

// TestChunkLineTableRoundTrip rebuilds the classic clox example — three
// bytes on line 1, two bytes on line 2 — and checks GetLine recovers the
// exact per-byte line for every offset, not just the run boundaries.
func TestChunkLineTableRoundTrip(t *testing.T) {
	c := bytecode.NewChunk()
	for i := 0; i < 3; i++ {
		c.WriteByte(0x00, 1)
	}
	for i := 0; i < 2; i++ {
		c.WriteByte(0x00, 2)
	}

	want := []int{1, 1, 1, 2, 2}
	for offset, line := range want {
		assert.Equal(t, line, c.GetLine(offset), "offset %d", offset)
	}
}

// TestChunkLineTableInterleavedRuns exercises runs that repeat a line
// number after switching away from it — a regression case for the
// "is the trailing step itself bare" branch in recordLine.
func TestChunkLineTableInterleavedRuns(t *testing.T) {
	c := bytecode.NewChunk()
	lines := []int{1, 1, 2, 2, 2, 1, 3}
	for _, l := range lines {
		c.WriteByte(0x00, l)
	}
	for offset, want := range lines {
		assert.Equal(t, want, c.GetLine(offset), "offset %d", offset)
	}
}

func TestChunkLineTableSingleByte(t *testing.T) {
	c := bytecode.NewChunk()
	c.WriteByte(0x00, 7)
	assert.Equal(t, 7, c.GetLine(0))
}

func TestChunkWriteConstantOpSelectsWidth(t *testing.T) {
	c := bytecode.NewChunk()

	idx, err := c.AddConstant(bytecode.NewNumber(1))
	require.NoError(t, err)
	require.NoError(t, c.WriteConstantOp(bytecode.OpConstant8, idx, 1))
	assert.Equal(t, bytecode.OpConstant8, bytecode.Opcode(c.Code[0]))
	assert.Equal(t, 2, len(c.Code))

	// Force a 16-bit-width constant by padding the pool past 256 entries.
	c2 := bytecode.NewChunk()
	var last int
	for i := 0; i < 300; i++ {
		var err error
		last, err = c2.AddConstant(bytecode.NewNumber(float64(i)))
		require.NoError(t, err)
	}
	require.NoError(t, c2.WriteConstantOp(bytecode.OpConstant8, last, 1))
	assert.Equal(t, bytecode.OpConstant16, bytecode.Opcode(c2.Code[0]))
	assert.Equal(t, last, c2.ReadUint16(1))
}

func TestChunkAddConstantEnforcesLimit(t *testing.T) {
	c := bytecode.NewChunk()
	c.Constants = make([]bytecode.Value, bytecode.MaxConstants)
	_, err := c.AddConstant(bytecode.NewNumber(1))
	assert.ErrorIs(t, err, bytecode.ErrConstantLimit)
}

func TestChunkPatchUint16(t *testing.T) {
	c := bytecode.NewChunk()
	offset := 0
	c.WriteOp(bytecode.OpJump, 1)
	c.WriteByte(0xff, 1)
	c.WriteByte(0xff, 1)
	c.PatchUint16(offset+1, 42)
	assert.Equal(t, 42, c.ReadUint16(offset+1))
}

func TestChunkDisassembleIsDeterministic(t *testing.T) {
	c := bytecode.NewChunk()
	idx, err := c.AddConstant(bytecode.NewString("hi"))
	require.NoError(t, err)
	require.NoError(t, c.WriteConstantOp(bytecode.OpConstant8, idx, 1))
	c.WriteOp(bytecode.OpReturn, 1)

	a := bytecode.Disassemble(c, "test")
	b := bytecode.Disassemble(c, "test")
	assert.Equal(t, a, b)
}
