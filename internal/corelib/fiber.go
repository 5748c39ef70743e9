package corelib

import (
	"github.com/mosclang/mosc/internal/compiler"
	"github.com/mosclang/mosc/internal/value"
	"github.com/mosclang/mosc/internal/vm"
)

// bindFiber binds the cooperative scheduler operations (§4.5) onto
// Djuru, the source-facing name for the fiber class (GLOSSARY). The
// actual mechanics live in internal/vm/scheduler.go, which can reach
// vm.Fiber/pushFrame/vm.abort directly; these closures just adapt that
// signature to the Primitive contract and pick the receiver/running
// fiber apart.
func bindFiber(vmachine *vm.VM, djuru *value.Class) {
	asFiber := func(v value.Value) *value.Fiber { return v.AsObj().Body().(*value.Fiber) }

	bind(vmachine, djuru, compiler.CallSignature("call", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return vmachine.FiberCall(f, asFiber(args[0]), value.Value{}, false)
	})
	bind(vmachine, djuru, compiler.CallSignature("call", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return vmachine.FiberCall(f, asFiber(args[0]), args[1], true)
	})
	bind(vmachine, djuru, compiler.CallSignature("try", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return vmachine.FiberTry(f, asFiber(args[0]), value.Value{}, false)
	})
	bind(vmachine, djuru, compiler.CallSignature("try", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return vmachine.FiberTry(f, asFiber(args[0]), args[1], true)
	})
	bind(vmachine, djuru, compiler.CallSignature("transfer", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return vmachine.FiberTransfer(f, asFiber(args[0]), value.Value{}, false)
	})
	bind(vmachine, djuru, compiler.CallSignature("transfer", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return vmachine.FiberTransfer(f, asFiber(args[0]), args[1], true)
	})
	bind(vmachine, djuru, compiler.CallSignature("transferError", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return vmachine.FiberTransferError(asFiber(args[0]), args[1])
	})
	bind(vmachine, djuru, compiler.CallSignature("isDone", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return boolResult(asFiber(args[0]).Completed)
	})
	bind(vmachine, djuru, compiler.CallSignature("error", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return asFiber(args[0]).Error, true
	})

	bindStatic(vmachine, djuru, compiler.CallSignature("current", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return value.ObjVal(&f.Obj), true
	})
	bindStatic(vmachine, djuru, compiler.CallSignature("yield", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return vmachine.FiberYield(f, value.NullVal(), false)
	})
	bindStatic(vmachine, djuru, compiler.CallSignature("yield", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return vmachine.FiberYield(f, args[1], true)
	})
	bindStatic(vmachine, djuru, compiler.CallSignature("suspend", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return vmachine.FiberSuspend(f)
	})
	bindStatic(vmachine, djuru, compiler.CallSignature("abort", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return vmachine.FiberAbort(f, args[1])
	})
	bindStatic(vmachine, djuru, compiler.CallSignature("new", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		if !args[1].IsObj() || args[1].AsObj().Type != value.ObjClosure {
			return typeError(vmachine, f, "Djuru.new expects a function.")
		}
		closure := args[1].AsObj().Body().(*value.Closure)
		nf := vmachine.NewFiberForClosure(closure)
		nf.State = value.FiberOther
		return value.ObjVal(&nf.Obj), true
	})
}
