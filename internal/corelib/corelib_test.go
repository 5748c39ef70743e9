package corelib_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosclang/mosc/internal/compiler"
	"github.com/mosclang/mosc/internal/corelib"
	"github.com/mosclang/mosc/internal/value"
	"github.com/mosclang/mosc/internal/vm"
)

// eval interprets source as a throwaway module and returns whatever
// System.print/write wrote to it, exercising Bootstrap/InjectCoreNames
// and the primitive bindings the way a real script would reach them,
// rather than calling the Go bind closures directly.
func eval(t *testing.T, source string) string {
	t.Helper()
	arena := value.NewArena()
	world := compiler.NewWorld(arena)
	var out strings.Builder

	vmachine := vm.New(arena, vm.Config{
		WriteFn:    func(_ *vm.VM, text string) { out.WriteString(text) },
		InitModule: corelib.InjectCoreNames,
	})
	vmachine.Syms = world.Syms
	corelib.Bootstrap(vmachine)

	mod := value.NewModule("main")
	corelib.InjectCoreNames(vmachine, mod)

	fn, errs := compiler.CompileModule(world, mod, "main", source)
	require.Empty(t, errs)

	closure := vmachine.Arena.NewClosure(fn, vmachine.Core.FnClass)
	fiber := vmachine.NewFiberForClosure(closure)
	_, rerr := vmachine.Interpret(fiber)
	require.Nil(t, rerr)

	return out.String()
}

func TestNumPrimitives(t *testing.T) {
	assert.Equal(t, "8\n", eval(t, "System.print(2.pow(3))"))
	assert.Equal(t, "3\n", eval(t, "System.print(2.max(3))"))
	assert.Equal(t, "tien\n", eval(t, "System.print(4.isInteger())"))
}

func TestStringPrimitives(t *testing.T) {
	assert.Equal(t, "5\n", eval(t, `System.print("hello".count())`))
	assert.Equal(t, "HELLO\n", eval(t, `System.print("hello".toUpper())`))
	assert.Equal(t, "tien\n", eval(t, `System.print("hello".startsWith("he"))`))
	assert.Equal(t, "l\n", eval(t, `System.print("hello"[2])`))
}

func TestListPrimitives(t *testing.T) {
	assert.Equal(t, "3\n", eval(t, "System.print([1, 2, 3].count())"))
	assert.Equal(t, "tien\n", eval(t, "System.print([1, 2, 3].contains(2))"))
	assert.Equal(t, "20\n", eval(t, `
nin list = [1, 2, 3]
list.add(20)
System.print(list[3])
`))
}

func TestMapPrimitives(t *testing.T) {
	assert.Equal(t, "tien\n", eval(t, `
nin m = Map.new()
m["a"] = 1
System.print(m.containsKey("a"))
`))
	assert.Equal(t, "1\n", eval(t, `
nin m = Map.new()
m["a"] = 1
System.print(m["a"])
`))
}

func TestRangePrimitives(t *testing.T) {
	assert.Equal(t, "15\n", eval(t, `
nin total = 0
seginka i kono 1..5 niin {
    total = total + i
}
System.print(total)
`))
}

func TestFnPrimitives(t *testing.T) {
	assert.Equal(t, "2\n", eval(t, `
nin f = tii(a, b) {
    segin a + b
}
System.print(f.arity())
`))
}

func TestSystemWriteAndPrint(t *testing.T) {
	assert.Equal(t, "no newline", eval(t, `System.write("no newline")`))
	assert.Equal(t, "\n", eval(t, `System.print()`))
}
