package corelib

import (
	"time"

	"github.com/mosclang/mosc/internal/compiler"
	"github.com/mosclang/mosc/internal/value"
	"github.com/mosclang/mosc/internal/vm"
)

// bindSystem binds the host-facing System class: output and the clock/
// gc hooks a script can reach for without an explicit import (§4.7,
// §6's embedding write_fn hook).
func bindSystem(vmachine *vm.VM, system *value.Class) {
	write := func(f *value.Fiber, text string) {
		if vmachine.Config.WriteFn != nil {
			vmachine.Config.WriteFn(vmachine, text)
		}
	}

	bindStatic(vmachine, system, compiler.CallSignature("write", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		write(f, value.String(args[1]))
		return args[1], true
	})
	bindStatic(vmachine, system, compiler.CallSignature("print", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		write(f, "\n")
		return value.NullVal(), true
	})
	bindStatic(vmachine, system, compiler.CallSignature("print", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		write(f, value.String(args[1])+"\n")
		return args[1], true
	})
	bindStatic(vmachine, system, compiler.CallSignature("clock", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return numResult(float64(time.Now().UnixNano()) / 1e9)
	})
	bindStatic(vmachine, system, compiler.CallSignature("gc", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		vmachine.CollectGarbage()
		return value.NullVal(), true
	})
}
