package bytecode_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"loxvm/bytecode"
)

func TestValueTruthiness(t *testing.T) {
	assert.False(t, bytecode.Nil.IsTruthy())
	assert.False(t, bytecode.False.IsTruthy())
	assert.True(t, bytecode.True.IsTruthy())
	assert.True(t, bytecode.NewNumber(0).IsTruthy())
	assert.True(t, bytecode.NewString("").IsTruthy())
}

func TestValueEqualsAcrossKinds(t *testing.T) {
	assert.False(t, bytecode.Nil.Equals(bytecode.False))
	assert.False(t, bytecode.NewNumber(0).Equals(bytecode.NewString("0")))
	assert.True(t, bytecode.NewString("a").Equals(bytecode.NewString("a")))
	assert.True(t, bytecode.NewNumber(1.5).Equals(bytecode.NewNumber(1.5)))
}

func TestValueNaNNotEqualToItself(t *testing.T) {
	nan := bytecode.NewNumber(math.NaN())
	assert.False(t, nan.Equals(nan))
}

func TestValueStringFormatting(t *testing.T) {
	cases := []struct {
		v    bytecode.Value
		want string
	}{
		{bytecode.Nil, "nil"},
		{bytecode.True, "true"},
		{bytecode.False, "false"},
		{bytecode.NewNumber(3), "3"},
		{bytecode.NewNumber(3.5), "3.5"},
		{bytecode.NewNumber(math.NaN()), "NaN"},
		{bytecode.NewNumber(math.Inf(1)), "Infinity"},
		{bytecode.NewNumber(math.Inf(-1)), "-Infinity"},
		{bytecode.NewString("hi"), "hi"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.v.String())
	}
}

func TestValueAccessorsPanicOnWrongKind(t *testing.T) {
	assert.Panics(t, func() { bytecode.Nil.AsNumber() })
	assert.Panics(t, func() { bytecode.NewNumber(1).AsString() })
	assert.Panics(t, func() { bytecode.NewString("x").AsBool() })
}

func TestValueGoStringQuotesStrings(t *testing.T) {
	assert.Equal(t, `"hi"`, bytecode.NewString("hi").GoString())
	assert.Equal(t, "3", bytecode.NewNumber(3).GoString())
}
