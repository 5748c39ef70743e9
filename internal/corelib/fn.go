package corelib

import (
	"fmt"

	"github.com/mosclang/mosc/internal/compiler"
	"github.com/mosclang/mosc/internal/value"
	"github.com/mosclang/mosc/internal/vm"
)

// maxCallArity matches the fixed CALL0..CALL16 opcode family; the
// compiler's emitCallSym falls back to the generic CALL opcode only for
// larger argument lists.
const maxCallArity = 16

// bindFn binds Fn.call(...) for every arity the compiler can emit. A
// Fn's "call" methods dispatch straight into the receiver closure
// itself (MethodFunctionCall, internal/vm/call.go's dispatch), so no
// Go primitive body is needed for them.
func bindFn(vmachine *vm.VM, fn *value.Class) {
	for arity := 0; arity <= maxCallArity; arity++ {
		fn.BindMethod(sig(vmachine, compiler.CallSignature("call", arity)), value.Method{
			Kind:          value.MethodFunctionCall,
			DefiningClass: fn,
		})
	}

	bind(vmachine, fn, compiler.CallSignature("arity", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		closure := args[0].AsObj().Body().(*value.Closure)
		return numResult(float64(closure.Fn.Arity))
	})
	bind(vmachine, fn, compiler.CallSignature("toString", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		closure := args[0].AsObj().Body().(*value.Closure)
		name := closure.Fn.Name
		if name == "" {
			name = "anonymous"
		}
		return vmachine.NewStringValue(fmt.Sprintf("fn %s", name)), true
	})
}
