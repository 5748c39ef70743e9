// Package corelib builds the bootstrap class hierarchy and binds every
// built-in primitive method a freshly constructed VM needs before it
// can run a single line of source: Object, Class, Bool, Null, Num,
// String, List, Map, Range, Fn, Djuru (the fiber class), and System.
package corelib

import (
	"github.com/mosclang/mosc/internal/compiler"
	"github.com/mosclang/mosc/internal/value"
	"github.com/mosclang/mosc/internal/vm"
)

// Bootstrap wires vmachine.Core with the full built-in class graph and
// binds every primitive method onto it. It must run exactly once,
// before any module is compiled against vmachine, since the compiler's
// forward-reference resolution and every CALL opcode assume the method
// symbol table already carries the core signatures.
//
// The two-stage cycle below is the one SPEC_FULL §4.7 names literally:
// Object has no superclass; Class is a subclass of Object; an
// Object-metaclass is created and wired so Object.class is
// Object-metaclass, Object-metaclass.class is Class, and Class.class
// is Class itself.
func Bootstrap(vmachine *vm.VM) {
	if vmachine.Syms == nil {
		vmachine.Syms = compiler.NewMethodSymbols()
	}
	arena := vmachine.Arena

	object := arena.NewClass("Object", nil)
	object.NumFields = 0

	classClass := arena.NewClass("Class", object)
	classClass.NumFields = 0

	objectMetaclass := arena.NewClass("Object metaclass", classClass)
	objectMetaclass.NumFields = 0

	object.Metaclass = objectMetaclass
	objectMetaclass.Metaclass = classClass
	classClass.Metaclass = classClass

	vmachine.Core.ObjectClass = object
	vmachine.Core.ClassClass = classClass

	bindObject(vmachine, object)
	bindClassClass(vmachine, classClass)

	numClass := newCoreClass(vmachine, "Num", object)
	boolClass := newCoreClass(vmachine, "Bool", object)
	nullClass := newCoreClass(vmachine, "Null", object)
	stringClass := newCoreClass(vmachine, "String", object)
	listClass := newCoreClass(vmachine, "List", object)
	mapClass := newCoreClass(vmachine, "Map", object)
	rangeClass := newCoreClass(vmachine, "Range", object)
	fnClass := newCoreClass(vmachine, "Fn", object)
	djuruClass := newCoreClass(vmachine, "Djuru", object)
	systemClass := newCoreClass(vmachine, "System", object)

	vmachine.Core.NumClass = numClass
	vmachine.Core.BoolClass = boolClass
	vmachine.Core.NullClass = nullClass
	vmachine.Core.StringClass = stringClass
	vmachine.Core.ListClass = listClass
	vmachine.Core.MapClass = mapClass
	vmachine.Core.RangeClass = rangeClass
	vmachine.Core.FnClass = fnClass
	vmachine.Core.FiberClass = djuruClass
	vmachine.Core.SystemClass = systemClass

	bindBool(vmachine, boolClass)
	bindNull(vmachine, nullClass)
	bindNum(vmachine, numClass)
	bindString(vmachine, stringClass)
	bindList(vmachine, listClass)
	bindMap(vmachine, mapClass)
	bindRange(vmachine, rangeClass)
	bindFn(vmachine, fnClass)
	bindFiber(vmachine, djuruClass)
	bindSystem(vmachine, systemClass)
}

// newCoreClass allocates a built-in class plus its own metaclass
// (inheriting from Class), matching the per-class half of the §4.7
// bootstrap that execClass also performs for user classes at runtime.
func newCoreClass(vmachine *vm.VM, name string, super *value.Class) *value.Class {
	cls := vmachine.Arena.NewClass(name, super)
	cls.NumFields = 0
	meta := vmachine.Arena.NewClass(name+" metaclass", vmachine.Core.ClassClass)
	cls.Metaclass = meta
	return cls
}

// sig interns signature in vmachine's global method-symbol table.
func sig(vmachine *vm.VM, signature string) int {
	return vmachine.Syms.Symbol(signature)
}

// bind installs a primitive under signature on cls's instance method
// table.
func bind(vmachine *vm.VM, cls *value.Class, signature string, fn value.Primitive) {
	cls.BindMethod(sig(vmachine, signature), value.Method{
		Kind:          value.MethodPrimitive,
		Primitive:     fn,
		DefiningClass: cls,
	})
}

// bindStatic installs a primitive under signature on cls's metaclass,
// i.e. as a method callable on the class object itself.
func bindStatic(vmachine *vm.VM, cls *value.Class, signature string, fn value.Primitive) {
	bind(vmachine, cls.Metaclass, signature, fn)
}

func boolResult(b bool) (value.Value, bool) { return value.BoolVal(b), true }

func numResult(n float64) (value.Value, bool) { return value.NumVal(n), true }

func typeError(vmachine *vm.VM, f *value.Fiber, message string) (value.Value, bool) {
	return value.Value{}, vmachine.Abort(f, vmachine.NewStringValue(message))
}

// InjectCoreNames pre-declares every bootstrap class as a module-level
// variable of mod, so a freshly compiled module can reference Num,
// String, Djuru, and the rest without importing anything (§4.7's core
// classes are ambient, not an importable module).
func InjectCoreNames(vmachine *vm.VM, mod *value.Module) {
	classes := []*value.Class{
		vmachine.Core.ObjectClass, vmachine.Core.ClassClass, vmachine.Core.NumClass,
		vmachine.Core.BoolClass, vmachine.Core.NullClass, vmachine.Core.StringClass,
		vmachine.Core.ListClass, vmachine.Core.MapClass, vmachine.Core.RangeClass,
		vmachine.Core.FnClass, vmachine.Core.FiberClass, vmachine.Core.SystemClass,
	}
	for _, cls := range classes {
		if cls == nil {
			continue
		}
		mod.Declare(cls.Name, value.ObjVal(&cls.Obj))
	}
}
