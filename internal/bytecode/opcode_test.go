package bytecode

import (
	"bytes"
	"testing"

	"github.com/mosclang/mosc/internal/value"
	"github.com/stretchr/testify/assert"
)

func TestOpcodeNamesStable(t *testing.T) {
	assert.Equal(t, "CONSTANT", Constant.String())
	assert.Equal(t, "CALL_0", Call0.String())
	assert.Equal(t, "SUPER_16", Super16.String())
	assert.Equal(t, "RETURN", Return.String())
}

func TestCallFixedArity(t *testing.T) {
	arity, ok := IsCallFixed(Call3)
	assert.True(t, ok)
	assert.Equal(t, 3, arity)

	_, ok = IsCallFixed(Return)
	assert.False(t, ok)
}

func TestConstantInterning(t *testing.T) {
	c := &Chunk{}
	i1 := c.AddConstant(value.NumVal(42))
	i2 := c.AddConstant(value.NumVal(42))
	i3 := c.AddConstant(value.NumVal(43))
	assert.Equal(t, i1, i2, "equal constants intern to the same index")
	assert.NotEqual(t, i1, i3)
}

func TestDisassembleDoesNotPanic(t *testing.T) {
	c := &Chunk{}
	idx := c.AddConstant(value.NumVal(1))
	c.Emit(Constant, idx, 0, 1)
	c.Emit(Return, 0, 0, 1)

	var buf bytes.Buffer
	Disassemble(&buf, "main", c)
	assert.Contains(t, buf.String(), "CONSTANT")
	assert.Contains(t, buf.String(), "RETURN")
}
