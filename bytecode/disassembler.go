package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders every instruction in the chunk as human-readable
// text, one line per instruction. Output is a pure function of the
// chunk's byte contents.
func Disassemble(c *Chunk, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	offset := 0
	prevLine := -1
	for offset < len(c.Code) {
		line, next := disassembleInstruction(&b, c, offset, prevLine)
		prevLine = line
		offset = next
	}
	return b.String()
}

// DisassembleInstruction renders the single instruction at offset and
// returns its text plus the offset of the following instruction.
func DisassembleInstruction(c *Chunk, offset int) (string, int) {
	var b strings.Builder
	_, next := disassembleInstruction(&b, c, offset, -1)
	return b.String(), next
}

func disassembleInstruction(b *strings.Builder, c *Chunk, offset int, prevLine int) (line int, next int) {
	inst, next := c.Decode(offset)
	fmt.Fprintf(b, "%04d ", offset)
	if offset > 0 && inst.Line == prevLine {
		fmt.Fprint(b, "   | ")
	} else {
		fmt.Fprintf(b, "%4d ", inst.Line)
	}

	switch {
	case isFamily(inst.Op, OpConstant8):
		writeConstantInstruction(b, c, inst, OpConstant8)
	case isFamily(inst.Op, OpNdfGlobal8):
		writeConstantInstruction(b, c, inst, OpNdfGlobal8)
	case isFamily(inst.Op, OpDefGlobal8):
		writeConstantInstruction(b, c, inst, OpDefGlobal8)
	case isFamily(inst.Op, OpGetGlobal8):
		writeConstantInstruction(b, c, inst, OpGetGlobal8)
	case isFamily(inst.Op, OpSetGlobal8):
		writeConstantInstruction(b, c, inst, OpSetGlobal8)
	case inst.Op == OpJump || inst.Op == OpJumpIfFalse:
		writeJumpInstruction(b, c, inst)
	default:
		fmt.Fprintf(b, "%s\n", inst.Op)
	}

	return inst.Line, next
}

func writeConstantInstruction(b *strings.Builder, c *Chunk, inst Instruction, base Opcode) {
	width := constantFamilyWidth(inst.Op, base)
	var idx int
	switch width {
	case 1:
		idx = c.ReadUint8(inst.Offset + 1)
	case 2:
		idx = c.ReadUint16(inst.Offset + 1)
	case 3:
		idx = c.ReadUint24(inst.Offset + 1)
	}
	fmt.Fprintf(b, "%-16s %4d '", inst.Op, idx)
	if idx >= 0 && idx < len(c.Constants) {
		fmt.Fprint(b, c.Constants[idx].GoString())
	}
	fmt.Fprint(b, "'\n")
}

func writeJumpInstruction(b *strings.Builder, c *Chunk, inst Instruction) {
	rel := c.ReadUint16(inst.Offset + 1)
	target := inst.Offset + 3 + rel
	fmt.Fprintf(b, "%-16s %4d -> %d\n", inst.Op, inst.Offset, target)
}
