package vm_test

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

// newMachine bootstraps a fresh VM plus its compiler World, the same
// two-step sequence cmd/mosc and internal/api both perform.
func newMachine(t *testing.T, write func(string)) (*vm.VM, *compiler.World) {
	t.Helper()
	arena := value.NewArena()
	world := compiler.NewWorld(arena)

	vmachine := vm.New(arena, vm.Config{
		WriteFn:    func(_ *vm.VM, text string) { write(text) },
		InitModule: corelib.InjectCoreNames,
	})
	vmachine.Syms = world.Syms
	corelib.Bootstrap(vmachine)
	return vmachine, world
}

func interpret(t *testing.T, vmachine *vm.VM, world *compiler.World, mod *value.Module, name, source string) *value.Value {
	t.Helper()
	fn, errs := compiler.CompileModule(world, mod, name, source)
	require.Empty(t, errs)

	closure := vmachine.Arena.NewClosure(fn, vmachine.Core.FnClass)
	fiber := vmachine.NewFiberForClosure(closure)
	result, rerr := vmachine.Interpret(fiber)
	require.Nil(t, rerr)
	return &result
}

func TestFiberCallAndYieldRoundTrip(t *testing.T) {
	var out strings.Builder
	vmachine, world := newMachine(t, func(s string) { out.WriteString(s) })
	mod := value.NewModule("main")
	corelib.InjectCoreNames(vmachine, mod)

	interpret(t, vmachine, world, mod, "main", `
nin producer = Djuru.new(tii(start) {
    nin n = start
    foo n < 3 {
        Djuru.yield(n)
        n = n + 1
    }
    segin "done"
})

System.print(producer.call())
System.print(producer.call())
System.print(producer.call())
System.print(producer.call())
`)

	assert.Equal(t, "0\n1\n2\ndone\n", out.String())
}

func TestUnhandledRuntimeErrorIsReported(t *testing.T) {
	var out strings.Builder
	vmachine, world := newMachine(t, func(s string) { out.WriteString(s) })
	mod := value.NewModule("main")
	corelib.InjectCoreNames(vmachine, mod)

	fn, errs := compiler.CompileModule(world, mod, "main", `Djuru.abort("boom")`)
	require.Empty(t, errs)

	closure := vmachine.Arena.NewClosure(fn, vmachine.Core.FnClass)
	fiber := vmachine.NewFiberForClosure(closure)
	_, rerr := vmachine.Interpret(fiber)
	require.NotNil(t, rerr)
	assert.Contains(t, rerr.Error(), "boom")
}

func TestGarbageCollectionReclaimsUnreachableLists(t *testing.T) {
	vmachine, world := newMachine(t, func(string) {})
	mod := value.NewModule("main")
	corelib.InjectCoreNames(vmachine, mod)

	interpret(t, vmachine, world, mod, "main", `
nin i = 0
foo i < 2000 {
    nin throwaway = [1, 2, 3, i]
    i = i + 1
}
`)

	before := vmachine.Arena.ObjectCount
	vmachine.CollectGarbage()
	after := vmachine.Arena.ObjectCount
	assert.LessOrEqual(t, after, before)
}

func TestPinKeepsValueAliveAcrossCollection(t *testing.T) {
	vmachine, world := newMachine(t, func(string) {})
	mod := value.NewModule("main")
	corelib.InjectCoreNames(vmachine, mod)

	interpret(t, vmachine, world, mod, "main", `nin pinned = ["pinned", "value"]`)
	slot, ok := mod.Resolve("pinned")
	require.True(t, ok)
	result := &mod.Slots[slot]
	vmachine.Pin(*result)

	for i := 0; i < 5; i++ {
		vmachine.CollectGarbage()
	}

	list := result.AsObj().Body().(*value.List)
	assert.Equal(t, 2, len(list.Items))
	vmachine.Unpin(*result)
}
