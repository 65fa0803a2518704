// Package bytecode implements the compiled representation Lox source is
// reduced to: tagged runtime values, the instruction/constant/line chunk
// they are addressed from, and a disassembler over that chunk.
package bytecode

import (
	"math"
	"strconv"

	"github.com/josharian/intern"
)

// Kind tags the variant a Value holds.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindString
)

// Value is a tagged union over Lox's runtime values. Only one of num,
// boolean, or str is meaningful, selected by kind.
type Value struct {
	kind    Kind
	num     float64
	boolean bool
	str     string
}

// Nil is the single canonical nil value.
var Nil = Value{kind: KindNil}

// True and False are the canonical boolean values.
var (
	True  = Value{kind: KindBool, boolean: true}
	False = Value{kind: KindBool, boolean: false}
)

// NewNumber constructs a Number value.
func NewNumber(f float64) Value { return Value{kind: KindNumber, num: f} }

// NewBool constructs a Bool value.
func NewBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// NewString constructs a String value, interning its backing bytes so
// identical constants across the chunk's constant pool share one owner.
func NewString(s string) Value {
	return Value{kind: KindString, str: intern.GetByString(s).String()}
}

func (v Value) Kind() Kind       { return v.kind }
func (v Value) IsNil() bool      { return v.kind == KindNil }
func (v Value) IsBool() bool     { return v.kind == KindBool }
func (v Value) IsNumber() bool   { return v.kind == KindNumber }
func (v Value) IsString() bool   { return v.kind == KindString }

// AsBool panics if v is not a Bool. Tag mismatches are implementation bugs,
// never surfaced Lox errors — callers must check Kind/IsBool first.
func (v Value) AsBool() bool {
	if v.kind != KindBool {
		panic("bytecode: AsBool on non-bool value")
	}
	return v.boolean
}

// AsNumber panics if v is not a Number.
func (v Value) AsNumber() float64 {
	if v.kind != KindNumber {
		panic("bytecode: AsNumber on non-number value")
	}
	return v.num
}

// AsString panics if v is not a String.
func (v Value) AsString() string {
	if v.kind != KindString {
		panic("bytecode: AsString on non-string value")
	}
	return v.str
}

// IsTruthy implements Lox truthiness: nil and false are falsy, everything
// else — including 0 and the empty string — is truthy.
func (v Value) IsTruthy() bool {
	switch v.kind {
	case KindNil:
		return false
	case KindBool:
		return v.boolean
	default:
		return true
	}
}

// Equals implements Lox value equality. Different variants are never
// equal. Numbers follow IEEE-754 equality, so NaN is not equal to itself.
func (v Value) Equals(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindBool:
		return v.boolean == other.boolean
	case KindNumber:
		return v.num == other.num
	case KindString:
		return v.str == other.str
	default:
		return false
	}
}

// String renders the value the way Lox's print statement does.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.boolean {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.num)
	case KindString:
		return v.str
	default:
		return "<invalid value>"
	}
}

// GoString renders the value as a debug/quoted form, used by the
// disassembler to render constants.
func (v Value) GoString() string {
	if v.kind == KindString {
		return strconv.Quote(v.str)
	}
	return v.String()
}

// formatNumber renders a float64 without decimals when it round-trips
// through an integer exactly, and in a general form that round-trips the
// double otherwise.
func formatNumber(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	if f == math.Trunc(f) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
