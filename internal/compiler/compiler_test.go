package compiler_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosclang/mosc/internal/compiler"
	"github.com/mosclang/mosc/internal/corelib"
	"github.com/mosclang/mosc/internal/moserr"
	"github.com/mosclang/mosc/internal/value"
	"github.com/mosclang/mosc/internal/vm"
)

// run compiles and interprets source as a single module, returning
// whatever System.write/print produced plus any compile errors. It
// builds a fresh VM and compiler World each call so tests don't leak
// module-level declarations into each other.
func run(t *testing.T, source string) (string, []*moserr.CompileError) {
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
	if len(errs) > 0 {
		return "", errs
	}

	closure := vmachine.Arena.NewClosure(fn, vmachine.Core.FnClass)
	fiber := vmachine.NewFiberForClosure(closure)
	_, rerr := vmachine.Interpret(fiber)
	require.Nil(t, rerr, "unexpected runtime error: %v", rerr)

	return out.String(), nil
}

func TestCompileModuleArithmeticAndPrint(t *testing.T) {
	out, errs := run(t, `System.print(1 + 2 * 3)`)
	assert.Empty(t, errs)
	assert.Equal(t, "7\n", out)
}

func TestCompileModuleClassFieldsAndMethods(t *testing.T) {
	out, _ := run(t, `
kulu Point {
    nin x
    nin y

    dilan(x, y) {
        ale.x = x
        ale.y = y
    }

    add(other) {
        segin Point.dilan(ale.x + other.x, ale.y + other.y)
    }

    toString() {
        segin ale.x.toString() + "," + ale.y.toString()
    }
}

nin a = Point.dilan(1, 2)
nin b = Point.dilan(3, 4)
System.print(a.add(b).toString())
`)
	assert.Equal(t, "4,6\n", out)
}

func TestCompileModuleInheritanceAndSuper(t *testing.T) {
	out, _ := run(t, `
kulu Animal {
    speak() {
        segin "..."
    }
}

kulu Dog ye Animal {
    speak() {
        segin faa.speak() + " woof"
    }
}

System.print(Dog.dilan().speak())
`)
	assert.Equal(t, "... woof\n", out)
}

func TestForLoopOverList(t *testing.T) {
	out, _ := run(t, `
nin total = 0
seginka item kono [1, 2, 3, 4] niin {
    total = total + item
}
System.print(total)
`)
	assert.Equal(t, "10\n", out)
}

func TestWhileLoopAndBreak(t *testing.T) {
	out, _ := run(t, `
nin i = 0
foo i < 10 {
    i = i + 1
    nii i == 3 niin {
        atike
    }
}
System.print(i)
`)
	assert.Equal(t, "3\n", out)
}

func TestIfElseChain(t *testing.T) {
	out, _ := run(t, `
nin n = 5
nii n < 0 niin {
    System.print("neg")
} note nii n == 0 niin {
    System.print("zero")
} note {
    System.print("pos")
}
`)
	assert.Equal(t, "pos\n", out)
}

func TestCompileErrorReturnsDiagnostics(t *testing.T) {
	_, errs := run(t, "kulu {\n")
	assert.NotEmpty(t, errs)
}
