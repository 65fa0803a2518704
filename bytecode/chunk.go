package bytecode

import (
	"encoding/binary"
	"fmt"
)

// MaxConstants is the constant pool's capacity: indices are encoded in at
// most 3 bytes.
const MaxConstants = 1 << 24

// ErrConstantLimit is returned when a chunk's constant pool is full.
var ErrConstantLimit = fmt.Errorf("bytecode: constant pool exceeds %d entries", MaxConstants)

// Chunk is the compiled unit of Lox code: a dense instruction stream, an
// append-only constant pool, and a run-length-encoded line table. It is
// produced entirely by a single Compiler session and then handed
// read-only to the VM.
type Chunk struct {
	Code      []byte
	Constants []Value

	// lines is the run-length line table described in SPEC_FULL.md / the
	// upstream spec: a flat sequence of steps, each either a bare line
	// number (one byte consumed) or a (negative run length, line number)
	// pair (run-length bytes consumed).
	lines []int
}

// NewChunk returns an empty chunk.
func NewChunk() *Chunk {
	return &Chunk{
		Code:      make([]byte, 0, 256),
		Constants: make([]Value, 0, 16),
	}
}

// WriteByte appends one byte to the code stream and records its source
// line in the line table.
func (c *Chunk) WriteByte(b byte, line int) {
	c.Code = append(c.Code, b)
	c.recordLine(line, 1)
}

// WriteOp appends an opcode byte.
func (c *Chunk) WriteOp(op Opcode, line int) {
	c.WriteByte(byte(op), line)
}

// recordLine implements the run-length encoding scheme: appending r
// consecutive bytes all belonging to line L either starts a new step,
// extends the trailing bare step into an encoded run, or extends an
// already-encoded trailing run.
func (c *Chunk) recordLine(line, count int) {
	n := len(c.lines)
	if n == 0 || c.lines[n-1] != line {
		if count > 1 {
			c.lines = append(c.lines, -count, line)
		} else {
			c.lines = append(c.lines, line)
		}
		return
	}
	// The trailing step's line already matches. If that step is bare (no
	// preceding encoding, or it's the table's very first entry), turn it
	// into an encoded run; otherwise extend the existing run.
	if n == 1 || c.lines[n-2] >= 0 {
		c.lines[n-1] = -(count + 1)
		c.lines = append(c.lines, line)
		return
	}
	c.lines[n-2] -= count
}

// GetLine returns the source line owning the instruction byte at offset.
func (c *Chunk) GetLine(offset int) int {
	remaining := offset
	i := 0
	for i < len(c.lines) {
		if c.lines[i] < 0 {
			run := -c.lines[i]
			line := c.lines[i+1]
			if remaining < run {
				return line
			}
			remaining -= run
			i += 2
			continue
		}
		if remaining < 1 {
			return c.lines[i]
		}
		remaining--
		i++
	}
	return 0
}

// AddConstant appends v to the constant pool and returns its index.
// Indices are stable and contiguous; duplicate constants are not
// deduplicated.
func (c *Chunk) AddConstant(v Value) (int, error) {
	if len(c.Constants) >= MaxConstants {
		return 0, ErrConstantLimit
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1, nil
}

// WriteConstantOp appends the constant-referencing instruction for family
// (whose [base, base+1, base+2] members are the 8/16/24-bit forms) with
// operand idx, selecting the narrowest width that fits idx, and records
// line for every byte appended.
func (c *Chunk) WriteConstantOp(base Opcode, idx int, line int) error {
	switch {
	case idx < 0:
		return fmt.Errorf("bytecode: negative constant index %d", idx)
	case idx < 1<<8:
		c.WriteOp(base, line)
		c.WriteByte(byte(idx), line)
	case idx < 1<<16:
		c.WriteOp(base+1, line)
		var buf [2]byte
		binary.LittleEndian.PutUint16(buf[:], uint16(idx))
		c.WriteByte(buf[0], line)
		c.WriteByte(buf[1], line)
	case idx < 1<<24:
		c.WriteOp(base+2, line)
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], uint32(idx))
		c.WriteByte(buf[0], line)
		c.WriteByte(buf[1], line)
		c.WriteByte(buf[2], line)
	default:
		return ErrConstantLimit
	}
	return nil
}

// PatchUint16 overwrites the 2-byte little-endian operand at offset. Used
// to back-patch forward jump targets once the jump distance is known.
func (c *Chunk) PatchUint16(offset int, value uint16) {
	binary.LittleEndian.PutUint16(c.Code[offset:offset+2], value)
}

// ReadUint8 reads a 1-byte operand at offset.
func (c *Chunk) ReadUint8(offset int) int { return int(c.Code[offset]) }

// ReadUint16 reads a 2-byte little-endian operand at offset.
func (c *Chunk) ReadUint16(offset int) int {
	return int(binary.LittleEndian.Uint16(c.Code[offset : offset+2]))
}

// ReadUint24 reads a 3-byte little-endian operand at offset.
func (c *Chunk) ReadUint24(offset int) int {
	var buf [4]byte
	copy(buf[:3], c.Code[offset:offset+3])
	return int(binary.LittleEndian.Uint32(buf[:]))
}

// OperandWidth returns how many index bytes follow an 8/16/24-bit family
// member, given its 8-bit base.
func OperandWidth(op, base Opcode) int { return constantFamilyWidth(op, base) }

// Instruction describes one decoded step while enumerating a chunk: its
// opcode, the byte offset it starts at, and the source line it belongs
// to. Operand bytes are pulled on demand by the consumer (disassembler or
// VM) via the Read* methods above.
type Instruction struct {
	Op     Opcode
	Offset int
	Line   int
}

// Decode reads the instruction at offset and returns it along with the
// offset of the instruction that follows it. This is the forward
// enumerator consumers (the Disassembler, and the VM's trace mode) step
// through one instruction at a time.
func (c *Chunk) Decode(offset int) (Instruction, int) {
	op := Opcode(c.Code[offset])
	inst := Instruction{Op: op, Offset: offset, Line: c.GetLine(offset)}
	return inst, offset + InstructionSize(c, offset)
}

// InstructionSize returns the total byte length (opcode + operand) of the
// instruction starting at offset.
func InstructionSize(c *Chunk, offset int) int {
	op := Opcode(c.Code[offset])
	switch {
	case isFamily(op, OpConstant8):
		return 1 + constantFamilyWidth(op, OpConstant8)
	case isFamily(op, OpNdfGlobal8):
		return 1 + constantFamilyWidth(op, OpNdfGlobal8)
	case isFamily(op, OpDefGlobal8):
		return 1 + constantFamilyWidth(op, OpDefGlobal8)
	case isFamily(op, OpGetGlobal8):
		return 1 + constantFamilyWidth(op, OpGetGlobal8)
	case isFamily(op, OpSetGlobal8):
		return 1 + constantFamilyWidth(op, OpSetGlobal8)
	case op == OpJump, op == OpJumpIfFalse:
		return 3
	default:
		return 1
	}
}

// isFamily reports whether op is one of base's three width variants.
func isFamily(op, base Opcode) bool {
	return op == base || op == base+1 || op == base+2
}
