package vm

import (
	"fmt"

	"github.com/mosclang/mosc/internal/value"
)

func stringText(v value.Value) string {
	return v.AsObj().Body().(*value.StringObj).Text
}

// newStringValue wraps a host-built Go string as a language String, for
// error messages the interpreter itself raises.
func (vm *VM) newStringValue(s string) value.Value {
	so := vm.Arena.NewString(s, vm.Core.StringClass)
	return value.ObjVal(&so.Obj)
}

// NewStringValue is the exported form of newStringValue, for
// internal/corelib's primitives to build String results and errors.
func (vm *VM) NewStringValue(s string) value.Value { return vm.newStringValue(s) }

// StringText is the exported form of stringText, for internal/corelib
// to read a String argument's Go text.
func StringText(v value.Value) string { return stringText(v) }

// Abort is the exported entry point for a bound primitive
// (internal/corelib) to raise a runtime error on fiber.
func (vm *VM) Abort(fiber *value.Fiber, errVal value.Value) bool { return vm.abort(fiber, errVal) }

func (vm *VM) doesNotUnderstandError(receiverClass *value.Class, symbol int) value.Value {
	name := "?"
	if vm.Syms != nil {
		name = vm.Syms.Name(symbol)
	}
	return vm.newStringValue(fmt.Sprintf("%s does not implement '%s'.", receiverClass.Name, name))
}

// abort unwinds fiber's entire frame stack (closing any open upvalues
// along the way), records errVal, and either hands the error to the
// fiber that called this one (§4.5's try/transfer semantics) or leaves
// it for the top-level caller of Interpret to report. It always
// returns false, matching the Primitive reload-hot-state contract.
func (vm *VM) abort(fiber *value.Fiber, errVal value.Value) bool {
	if len(fiber.Frames) > 0 {
		closeUpvalues(fiber, fiber.Frames[0].StackStart)
	}
	fiber.Frames = nil
	fiber.Stack = fiber.Stack[:0]
	fiber.Error = errVal
	fiber.Completed = true

	caller := fiber.Caller
	fiber.Caller = nil
	if caller == nil {
		vm.Fiber = fiber
		return false
	}
	if fiber.State == value.FiberTry {
		caller.Push(errVal)
		vm.Fiber = caller
		return false
	}
	return vm.abort(caller, errVal)
}

// call dispatches a method send: symbol identifies the selector, arity
// counts the arguments (the receiver sits just below them on the
// stack). Returns false when the fiber's hot state (frames/stack) was
// mutated out from under the caller and must be reloaded.
func (vm *VM) call(fiber *value.Fiber, symbol, arity int) bool {
	base := len(fiber.Stack) - arity - 1
	receiver := fiber.Stack[base]
	class := vm.ClassOf(receiver)
	method, found := class.Lookup(symbol)
	if !found {
		return vm.abort(fiber, vm.doesNotUnderstandError(class, symbol))
	}
	return vm.dispatch(fiber, method, base, arity)
}

// superCall mirrors call, but begins the method lookup one class above
// frame.DefiningClass rather than at the receiver's own class (§4.2's
// SUPER_x opcodes).
func (vm *VM) superCall(fiber *value.Fiber, frame *value.CallFrame, symbol, arity int) bool {
	base := len(fiber.Stack) - arity - 1
	defining := frame.DefiningClass
	if defining == nil || defining.Super == nil {
		return vm.abort(fiber, vm.newStringValue("no superclass to dispatch to."))
	}
	method, found := defining.Super.Lookup(symbol)
	if !found {
		return vm.abort(fiber, vm.doesNotUnderstandError(defining.Super, symbol))
	}
	return vm.dispatch(fiber, method, base, arity)
}

func (vm *VM) dispatch(fiber *value.Fiber, method value.Method, base, arity int) bool {
	switch method.Kind {
	case value.MethodPrimitive:
		result, ok := method.Primitive(fiber, fiber.Stack[base:])
		if !ok {
			return false
		}
		fiber.Stack = fiber.Stack[:base]
		fiber.Push(result)
		return true

	case value.MethodExtern:
		result, ok := method.Extern(fiber, fiber.Stack[base:])
		if !ok {
			return false
		}
		fiber.Stack = fiber.Stack[:base]
		fiber.Push(result)
		return true

	case value.MethodFunctionCall:
		// The receiver is itself a Closure (Fn's bound "call" methods
		// dispatch straight through to it).
		closure := fiber.Stack[base].AsObj().Body().(*value.Closure)
		if closure.Fn.Arity >= 0 && closure.Fn.Arity != arity {
			return vm.abort(fiber, vm.newStringValue("wrong number of arguments."))
		}
		pushFrame(fiber, closure, base)
		return true

	case value.MethodBlock:
		if method.Closure.Fn.Arity >= 0 && method.Closure.Fn.Arity != arity {
			return vm.abort(fiber, vm.newStringValue("wrong number of arguments."))
		}
		pushFrame(fiber, method.Closure, base)
		fiber.Frames[len(fiber.Frames)-1].DefiningClass = method.DefiningClass
		return true

	default:
		return vm.abort(fiber, vm.newStringValue("method has no executable body."))
	}
}
