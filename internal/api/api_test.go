package api_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosclang/mosc/internal/api"
	"github.com/mosclang/mosc/internal/vm"
)

const counterSource = `
kulu Counter {
    nin value

    dilan(start) {
        ale.value = start
    }

    add(n) {
        ale.value = ale.value + n
        segin ale.value
    }
}

nin counter = Counter.dilan(10)
`

func TestInterpretAndCallHandle(t *testing.T) {
	var out strings.Builder
	machine := api.New(api.Config{
		WriteFn: func(_ *vm.VM, text string) { out.WriteString(text) },
	})

	require.NoError(t, machine.Interpret("main", counterSource))
	require.True(t, machine.HasModule("main"))
	require.True(t, machine.HasVariable("main", "counter"))
	require.False(t, machine.HasVariable("main", "nonexistent"))

	require.True(t, machine.GetVariable("main", "counter", 0))

	handle := machine.MakeCallHandle("add(_)")
	machine.EnsureSlots(2)
	machine.SetNum(1, 5)
	require.NoError(t, machine.Call(handle))
	assert.Equal(t, 15.0, machine.GetNum(0))
}

func TestHandlePinning(t *testing.T) {
	machine := api.New(api.Config{})
	machine.EnsureSlots(2)
	machine.SetString(0, "pinned")

	h := machine.MakeHandle(0)
	machine.SetNull(0)
	machine.SetSlotFromHandle(1, h)
	assert.Equal(t, "pinned", machine.GetString(1))
	machine.ReleaseHandle(h)
}

func TestListAndMapSlots(t *testing.T) {
	machine := api.New(api.Config{})
	machine.EnsureSlots(4)

	machine.NewList(0)
	machine.SetNum(1, 42)
	machine.ListInsert(0, 0, 1)
	assert.Equal(t, 1, machine.ListCount(0))
	machine.ListGet(0, 0, 2)
	assert.Equal(t, 42.0, machine.GetNum(2))

	machine.NewMap(3)
	machine.SetString(1, "key")
	machine.SetNum(2, 7)
	machine.MapSet(3, 1, 2)
	assert.True(t, machine.MapContainsKey(3, 1))
	assert.True(t, machine.MapRemove(3, 1))
	assert.False(t, machine.MapContainsKey(3, 1))
}

func TestAbortFiber(t *testing.T) {
	machine := api.New(api.Config{})
	fiber := machine.Machine.Arena.NewFiber(machine.Machine.Core.FiberClass)
	machine.EnsureSlots(1)
	machine.SetString(0, "boom")

	ok := machine.AbortFiber(fiber, 0)
	assert.False(t, ok)
	assert.True(t, fiber.Completed)
}

func TestCompileErrorSurfaces(t *testing.T) {
	machine := api.New(api.Config{})
	err := machine.Interpret("broken", "kulu {\n")
	assert.Error(t, err)
}
