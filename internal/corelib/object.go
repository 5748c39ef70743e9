package corelib

import (
	"github.com/mosclang/mosc/internal/compiler"
	"github.com/mosclang/mosc/internal/value"
	"github.com/mosclang/mosc/internal/vm"
)

// bindObject installs the methods every value answers to regardless of
// class, since every class chain eventually reaches Object (§4.7).
func bindObject(vmachine *vm.VM, object *value.Class) {
	bind(vmachine, object, compiler.CallSignature("==", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return boolResult(value.Equal(args[0], args[1]))
	})
	bind(vmachine, object, compiler.CallSignature("!=", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return boolResult(!value.Equal(args[0], args[1]))
	})
	bind(vmachine, object, compiler.CallSignature("!", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return boolResult(false)
	})
	bind(vmachine, object, compiler.CallSignature("is", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		other := args[1]
		if !other.IsObj() || other.AsObj().Type != value.ObjClass {
			return typeError(vmachine, f, "right operand of 'ye' must be a class.")
		}
		target := other.AsObj().Body().(*value.Class)
		return boolResult(vmachine.ClassOf(args[0]).IsSubclassOf(target))
	})
	bind(vmachine, object, compiler.CallSignature("toString", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return vmachine.NewStringValue(value.String(args[0])), true
	})
}

// bindClassClass installs the methods that make a class object itself
// introspectable (`SomeClass.name`, `SomeClass.supertype`). Every
// class's own metaclass inherits from Class, so binding these here
// makes them reachable from every class value, including core ones.
func bindClassClass(vmachine *vm.VM, classClass *value.Class) {
	asClass := func(v value.Value) *value.Class { return v.AsObj().Body().(*value.Class) }

	bind(vmachine, classClass, compiler.CallSignature("name", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return vmachine.NewStringValue(asClass(args[0]).Name), true
	})
	bind(vmachine, classClass, compiler.CallSignature("toString", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return vmachine.NewStringValue(asClass(args[0]).Name), true
	})
	bind(vmachine, classClass, compiler.CallSignature("supertype", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		super := asClass(args[0]).Super
		if super == nil {
			return value.NullVal(), true
		}
		return value.ObjVal(&super.Obj), true
	})
}

func bindBool(vmachine *vm.VM, boolClass *value.Class) {
	bind(vmachine, boolClass, compiler.CallSignature("toString", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return vmachine.NewStringValue(value.String(args[0])), true
	})
	bind(vmachine, boolClass, compiler.CallSignature("!", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return boolResult(!args[0].AsBool())
	})
}

func bindNull(vmachine *vm.VM, nullClass *value.Class) {
	bind(vmachine, nullClass, compiler.CallSignature("toString", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return vmachine.NewStringValue("gansan"), true
	})
	bind(vmachine, nullClass, compiler.CallSignature("!", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return boolResult(true)
	})
}
