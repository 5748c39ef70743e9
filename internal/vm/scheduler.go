package vm

import "github.com/mosclang/mosc/internal/value"

// The cooperative fiber-scheduler operations (§4.5) are not opcodes:
// `call`/`try`/`transfer`/`transferError`/`yield`/`suspend`/`abort` are
// ordinary methods on the Fiber class, bound by internal/corelib as
// value.MethodPrimitive entries that call straight through to these
// functions. Keeping them here (rather than in corelib) lets them
// reach straight into vm.Fiber/pushFrame/vm.abort without an import
// cycle, since corelib already depends on vm.

// FiberCall resumes target (which must not already be running) with
// startValue sitting where its `call`/`ake` block expects its argument,
// making the running fiber its caller. Used for both the zero-arg and
// one-arg forms of Fiber.call.
func (vm *VM) FiberCall(running, target *value.Fiber, startValue value.Value, hasValue bool) (value.Value, bool) {
	if target.Completed {
		return value.Value{}, vm.abort(running, vm.newStringValue("cannot call a finished fiber."))
	}
	if target.Caller != nil {
		return value.Value{}, vm.abort(running, vm.newStringValue("fiber has already been called."))
	}
	target.Caller = running
	target.State = value.FiberOther
	if hasValue && len(target.Stack) > 0 {
		target.Stack[len(target.Stack)-1] = startValue
	}
	vm.Fiber = target
	return value.Value{}, false
}

// FiberTry is FiberCall, but marks target so that if it errors the
// error value is delivered back to the caller as try's result instead
// of propagating as an abort.
func (vm *VM) FiberTry(running, target *value.Fiber, startValue value.Value, hasValue bool) (value.Value, bool) {
	if target.Completed {
		return value.Value{}, vm.abort(running, vm.newStringValue("cannot try a finished fiber."))
	}
	if target.Caller != nil {
		return value.Value{}, vm.abort(running, vm.newStringValue("fiber has already been called."))
	}
	target.Caller = running
	target.State = value.FiberTry
	if hasValue && len(target.Stack) > 0 {
		target.Stack[len(target.Stack)-1] = startValue
	}
	vm.Fiber = target
	return value.Value{}, false
}

// FiberTransfer switches execution to target directly, severing
// running's caller chain (unlike call, the original fiber is not
// resumed when target eventually returns).
func (vm *VM) FiberTransfer(running, target *value.Fiber, startValue value.Value, hasValue bool) (value.Value, bool) {
	if target.Completed {
		return value.Value{}, vm.abort(running, vm.newStringValue("cannot transfer to a finished fiber."))
	}
	if hasValue && len(target.Stack) > 0 {
		target.Stack[len(target.Stack)-1] = startValue
	}
	vm.Fiber = target
	return value.Value{}, false
}

// FiberTransferError switches to target the same way FiberTransfer
// does, but delivers errVal as an abort on target rather than a normal
// resume value.
func (vm *VM) FiberTransferError(target *value.Fiber, errVal value.Value) (value.Value, bool) {
	vm.abort(target, errVal)
	return value.Value{}, false
}

// FiberYield suspends running and resumes its caller (if any) with
// yieldValue as the result of the caller's `call`. Returns ok=false so
// the interpreter reloads hot state from vm.Fiber.
func (vm *VM) FiberYield(running *value.Fiber, yieldValue value.Value, hasValue bool) (value.Value, bool) {
	caller := running.Caller
	running.Caller = nil
	if caller == nil {
		// A fiber yielding with no caller simply suspends; it can
		// still be resumed later via transfer.
		vm.Fiber = nil
		return value.Value{}, false
	}
	caller.Push(yieldValue)
	_ = hasValue
	vm.Fiber = caller
	return value.Value{}, false
}

// FiberSuspend parks running with no caller at all; only an explicit
// transfer can resume it.
func (vm *VM) FiberSuspend(running *value.Fiber) (value.Value, bool) {
	running.Caller = nil
	vm.Fiber = nil
	return value.Value{}, false
}

// FiberAbort raises errVal on running, per `afili`'s desugaring to
// Djuru.abort(_). A null errVal raises nothing.
func (vm *VM) FiberAbort(running *value.Fiber, errVal value.Value) (value.Value, bool) {
	if errVal.IsNull() {
		return value.NullVal(), true
	}
	vm.abort(running, errVal)
	return value.Value{}, false
}
