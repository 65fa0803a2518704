// Package vm implements the stack-based interpreter that executes a
// compiled bytecode.Chunk: fetch-decode-dispatch over the instruction
// stream, a bounded value stack, and a global-name table.
package vm

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"loxvm/bytecode"
)

// DefaultStackMax matches the teacher's pre-allocated stack bound, scaled
// down from its 65536-slot call-frame design since this core has no
// function calls to budget for.
const DefaultStackMax = 16384

// VM is a single-threaded bytecode interpreter. It is reusable across
// Run calls; globals persist between them, matching a REPL's session
// semantics.
type VM struct {
	stack    []bytecode.Value
	stackMax int
	globals  map[string]bytecode.Value

	chunk *bytecode.Chunk
	ip    int

	logger *logrus.Logger
	trace  bool
	stdout io.Writer
}

// Option configures a VM at construction time.
type Option func(*VM)

func WithLogger(l *logrus.Logger) Option { return func(vm *VM) { vm.logger = l } }
func WithTrace(enabled bool) Option      { return func(vm *VM) { vm.trace = enabled } }
func WithStackMax(n int) Option          { return func(vm *VM) { vm.stackMax = n } }
func WithStdout(w io.Writer) Option      { return func(vm *VM) { vm.stdout = w } }

// New returns a VM with an empty globals table.
func New(opts ...Option) *VM {
	vm := &VM{
		globals:  make(map[string]bytecode.Value),
		stackMax: DefaultStackMax,
		logger:   logrus.StandardLogger(),
		stdout:   os.Stdout,
	}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Global returns the current value of a global, for tests and tooling.
func (vm *VM) Global(name string) (bytecode.Value, bool) {
	v, ok := vm.globals[name]
	return v, ok
}

// Run executes chunk to completion: until OP_RETURN (success), until a
// runtime error (stack unwound, error returned), or — only in the event
// of an implementation bug, never for any compiler-produced chunk —
// until the code stream is exhausted without a RETURN.
func (vm *VM) Run(chunk *bytecode.Chunk) error {
	vm.chunk = chunk
	vm.ip = 0
	vm.stack = vm.stack[:0]

	for vm.ip < len(chunk.Code) {
		instrOffset := vm.ip
		op := bytecode.Opcode(chunk.Code[vm.ip])
		vm.ip++

		if vm.trace {
			vm.traceBefore(instrOffset)
		}

		switch {
		case inFamily(op, bytecode.OpConstant8):
			idx := vm.readIndex(op, bytecode.OpConstant8)
			if err := vm.push(chunk.Constants[idx]); err != nil {
				return vm.fail(err, instrOffset)
			}

		case inFamily(op, bytecode.OpNdfGlobal8):
			idx := vm.readIndex(op, bytecode.OpNdfGlobal8)
			vm.globals[chunk.Constants[idx].AsString()] = bytecode.Nil

		case inFamily(op, bytecode.OpDefGlobal8):
			idx := vm.readIndex(op, bytecode.OpDefGlobal8)
			v, err := vm.pop()
			if err != nil {
				return vm.fail(err, instrOffset)
			}
			vm.globals[chunk.Constants[idx].AsString()] = v

		case inFamily(op, bytecode.OpGetGlobal8):
			idx := vm.readIndex(op, bytecode.OpGetGlobal8)
			name := chunk.Constants[idx].AsString()
			v, ok := vm.globals[name]
			if !ok {
				return vm.fail(fmt.Errorf("undefined variable '%s'", name), instrOffset)
			}
			if err := vm.push(v); err != nil {
				return vm.fail(err, instrOffset)
			}

		case inFamily(op, bytecode.OpSetGlobal8):
			idx := vm.readIndex(op, bytecode.OpSetGlobal8)
			name := chunk.Constants[idx].AsString()
			if _, ok := vm.globals[name]; !ok {
				return vm.fail(fmt.Errorf("undefined variable '%s'", name), instrOffset)
			}
			v, err := vm.peek(0)
			if err != nil {
				return vm.fail(err, instrOffset)
			}
			vm.globals[name] = v

		case op == bytecode.OpNil:
			if err := vm.push(bytecode.Nil); err != nil {
				return vm.fail(err, instrOffset)
			}
		case op == bytecode.OpTrue:
			if err := vm.push(bytecode.True); err != nil {
				return vm.fail(err, instrOffset)
			}
		case op == bytecode.OpFalse:
			if err := vm.push(bytecode.False); err != nil {
				return vm.fail(err, instrOffset)
			}

		case op == bytecode.OpEqual:
			if err := vm.binaryAny(instrOffset, func(a, b bytecode.Value) bytecode.Value {
				return bytecode.NewBool(a.Equals(b))
			}); err != nil {
				return err
			}
		case op == bytecode.OpNotEqual:
			if err := vm.binaryAny(instrOffset, func(a, b bytecode.Value) bytecode.Value {
				return bytecode.NewBool(!a.Equals(b))
			}); err != nil {
				return err
			}

		case op == bytecode.OpLess:
			if err := vm.compare(instrOffset, func(a, b float64) bool { return a < b }); err != nil {
				return err
			}
		case op == bytecode.OpLessEqual:
			if err := vm.compare(instrOffset, func(a, b float64) bool { return a <= b }); err != nil {
				return err
			}
		case op == bytecode.OpGreater:
			if err := vm.compare(instrOffset, func(a, b float64) bool { return a > b }); err != nil {
				return err
			}
		case op == bytecode.OpGreaterEqual:
			if err := vm.compare(instrOffset, func(a, b float64) bool { return a >= b }); err != nil {
				return err
			}

		case op == bytecode.OpAdd:
			if err := vm.add(instrOffset); err != nil {
				return err
			}
		case op == bytecode.OpSubtract:
			if err := vm.arithmetic(instrOffset, func(a, b float64) float64 { return a - b }); err != nil {
				return err
			}
		case op == bytecode.OpMultiply:
			if err := vm.arithmetic(instrOffset, func(a, b float64) float64 { return a * b }); err != nil {
				return err
			}
		case op == bytecode.OpDivide:
			if err := vm.arithmetic(instrOffset, func(a, b float64) float64 { return a / b }); err != nil {
				return err
			}

		case op == bytecode.OpNegate:
			v, err := vm.pop()
			if err != nil {
				return vm.fail(err, instrOffset)
			}
			if !v.IsNumber() {
				return vm.fail(fmt.Errorf("operand must be a number"), instrOffset)
			}
			if err := vm.push(bytecode.NewNumber(-v.AsNumber())); err != nil {
				return vm.fail(err, instrOffset)
			}

		case op == bytecode.OpNot:
			v, err := vm.pop()
			if err != nil {
				return vm.fail(err, instrOffset)
			}
			if err := vm.push(bytecode.NewBool(!v.IsTruthy())); err != nil {
				return vm.fail(err, instrOffset)
			}

		case op == bytecode.OpJump:
			offset := vm.readUint16()
			vm.ip += offset

		case op == bytecode.OpJumpIfFalse:
			offset := vm.readUint16()
			v, err := vm.peek(0)
			if err != nil {
				return vm.fail(err, instrOffset)
			}
			if !v.IsTruthy() {
				vm.ip += offset
			}

		case op == bytecode.OpPrint:
			v, err := vm.pop()
			if err != nil {
				return vm.fail(err, instrOffset)
			}
			fmt.Fprintln(vm.stdout, v.String())

		case op == bytecode.OpPop:
			if _, err := vm.pop(); err != nil {
				return vm.fail(err, instrOffset)
			}

		case op == bytecode.OpNop:
			// no-op

		case op == bytecode.OpReturn:
			return nil

		default:
			return vm.fail(fmt.Errorf("unknown opcode %s", op), instrOffset)
		}
	}

	// Every chunk the compiler emits ends with OP_RETURN; falling off the
	// end of the code stream means the VM was handed something the
	// compiler never produced.
	return fmt.Errorf("vm: ran off the end of chunk without a RETURN instruction")
}

// ---------------------------------------------------------------------
// Operand decoding
// ---------------------------------------------------------------------

func inFamily(op, base bytecode.Opcode) bool {
	return op == base || op == base+1 || op == base+2
}

func (vm *VM) readIndex(op, base bytecode.Opcode) int {
	width := bytecode.OperandWidth(op, base)
	var idx int
	switch width {
	case 1:
		idx = vm.chunk.ReadUint8(vm.ip)
	case 2:
		idx = vm.chunk.ReadUint16(vm.ip)
	case 3:
		idx = vm.chunk.ReadUint24(vm.ip)
	}
	vm.ip += width
	return idx
}

func (vm *VM) readUint16() int {
	v := vm.chunk.ReadUint16(vm.ip)
	vm.ip += 2
	return v
}

// ---------------------------------------------------------------------
// Stack
// ---------------------------------------------------------------------

func (vm *VM) push(v bytecode.Value) error {
	if len(vm.stack) >= vm.stackMax {
		return fmt.Errorf("stack overflow")
	}
	vm.stack = append(vm.stack, v)
	return nil
}

func (vm *VM) pop() (bytecode.Value, error) {
	n := len(vm.stack)
	if n == 0 {
		return bytecode.Nil, fmt.Errorf("stack underflow")
	}
	v := vm.stack[n-1]
	vm.stack = vm.stack[:n-1]
	return v, nil
}

func (vm *VM) peek(distance int) (bytecode.Value, error) {
	idx := len(vm.stack) - 1 - distance
	if idx < 0 {
		return bytecode.Nil, fmt.Errorf("stack underflow")
	}
	return vm.stack[idx], nil
}

// ---------------------------------------------------------------------
// Binary operators
// ---------------------------------------------------------------------

func (vm *VM) arithmetic(instrOffset int, op func(a, b float64) float64) error {
	b, err := vm.pop()
	if err != nil {
		return vm.fail(err, instrOffset)
	}
	a, err := vm.pop()
	if err != nil {
		return vm.fail(err, instrOffset)
	}
	if !a.IsNumber() || !b.IsNumber() {
		return vm.fail(fmt.Errorf("operands must be numbers"), instrOffset)
	}
	return vm.pushOrFail(bytecode.NewNumber(op(a.AsNumber(), b.AsNumber())), instrOffset)
}

func (vm *VM) compare(instrOffset int, op func(a, b float64) bool) error {
	b, err := vm.pop()
	if err != nil {
		return vm.fail(err, instrOffset)
	}
	a, err := vm.pop()
	if err != nil {
		return vm.fail(err, instrOffset)
	}
	if !a.IsNumber() || !b.IsNumber() {
		return vm.fail(fmt.Errorf("operands must be numbers"), instrOffset)
	}
	return vm.pushOrFail(bytecode.NewBool(op(a.AsNumber(), b.AsNumber())), instrOffset)
}

func (vm *VM) binaryAny(instrOffset int, op func(a, b bytecode.Value) bytecode.Value) error {
	b, err := vm.pop()
	if err != nil {
		return vm.fail(err, instrOffset)
	}
	a, err := vm.pop()
	if err != nil {
		return vm.fail(err, instrOffset)
	}
	return vm.pushOrFail(op(a, b), instrOffset)
}

// add implements OP_ADD's polymorphism: numeric addition for two numbers,
// concatenation for two strings, a type-mismatch error otherwise.
func (vm *VM) add(instrOffset int) error {
	b, err := vm.pop()
	if err != nil {
		return vm.fail(err, instrOffset)
	}
	a, err := vm.pop()
	if err != nil {
		return vm.fail(err, instrOffset)
	}
	switch {
	case a.IsNumber() && b.IsNumber():
		return vm.pushOrFail(bytecode.NewNumber(a.AsNumber()+b.AsNumber()), instrOffset)
	case a.IsString() && b.IsString():
		return vm.pushOrFail(bytecode.NewString(a.AsString()+b.AsString()), instrOffset)
	default:
		return vm.fail(fmt.Errorf("operands must be two numbers or two strings"), instrOffset)
	}
}

func (vm *VM) pushOrFail(v bytecode.Value, instrOffset int) error {
	if err := vm.push(v); err != nil {
		return vm.fail(err, instrOffset)
	}
	return nil
}

// ---------------------------------------------------------------------
// Errors and tracing
// ---------------------------------------------------------------------

func (vm *VM) fail(err error, instrOffset int) error {
	line := vm.chunk.GetLine(instrOffset)
	rerr := runtimeErrorf(line, "%s", err.Error())
	vm.logger.WithField("line", line).Error(rerr.Error())
	return rerr
}

func (vm *VM) traceBefore(offset int) {
	var sb strings.Builder
	sb.WriteString("stack: ")
	for _, v := range vm.stack {
		fmt.Fprintf(&sb, "[ %s ]", v.String())
	}
	text, _ := bytecode.DisassembleInstruction(vm.chunk, offset)
	vm.logger.Debug(sb.String() + " " + strings.TrimRight(text, "\n"))
}
