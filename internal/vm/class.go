package vm

import (
	"fmt"

	"github.com/mosclang/mosc/internal/bytecode"
	"github.com/mosclang/mosc/internal/compiler"
	"github.com/mosclang/mosc/internal/value"
)

// classBuild tracks the class whose body is being bound between its
// CLASS_/EXTERN_CLASS and END_CLASS opcodes: the superclass field
// count isn't known until CLASS_ actually runs (the superclass
// expression is arbitrary, not always a compile-time literal), so the
// shift of this class's own field-opcode indices happens here, at
// END_CLASS, rather than as a separate compiler pass.
type classBuild struct {
	class      *value.Class
	fieldShift int
	ownMethods []*value.Function
}

func (vm *VM) execClass(fiber *value.Fiber, chunk *bytecode.Chunk, instr bytecode.Instruction, isExtern bool) {
	superVal := fiber.Pop()
	name := stringText(chunk.Constants[instr.A])

	var super *value.Class
	if superVal.IsNull() {
		super = vm.Core.ObjectClass
	} else {
		super = superVal.AsObj().Body().(*value.Class)
	}

	ownFieldCount := instr.B
	cls := vm.Arena.NewClass(name, super)
	cls.IsForeign = isExtern

	fieldShift := 0
	if isExtern {
		cls.NumFields = -1
	} else {
		if super.NumFields > 0 {
			fieldShift = super.NumFields
		}
		cls.NumFields = fieldShift + ownFieldCount
	}

	metaSuper := vm.Core.ClassClass
	if super.Metaclass != nil {
		metaSuper = super.Metaclass
	}
	cls.Metaclass = vm.Arena.NewClass(name+" metaclass", metaSuper)
	if vm.Core.ClassClass != nil {
		cls.Metaclass.Obj.Class = vm.Core.ClassClass
	}

	if isExtern && vm.Config.BindExternClass != nil {
		moduleName := ""
		if len(fiber.Frames) > 0 {
			moduleName = fiber.Frames[len(fiber.Frames)-1].Closure.Fn.Module.Name
		}
		ctor, final := vm.Config.BindExternClass(vm, moduleName, name)
		cls.ExternNew = ctor
		cls.ExternFinal = final
	}

	vm.classStack = append(vm.classStack, classBuild{class: cls, fieldShift: fieldShift})
	fiber.Push(value.ObjVal(&cls.Obj))
}

func (vm *VM) execMethod(fiber *value.Fiber, chunk *bytecode.Chunk, instr bytecode.Instruction) {
	symbol := instr.A
	fn := chunk.Constants[instr.B].AsObj().Body().(*value.Function)

	top := &vm.classStack[len(vm.classStack)-1]
	target := top.class
	if instr.Op == bytecode.MethodStatic {
		target = top.class.Metaclass
	}

	closure := vm.Arena.NewClosure(fn, vm.Core.FnClass)
	target.BindMethod(symbol, value.Method{
		Kind:          value.MethodBlock,
		Closure:       closure,
		DefiningClass: top.class,
	})
	top.ownMethods = append(top.ownMethods, fn)
}

func (vm *VM) execEndClass(fiber *value.Fiber) {
	top := vm.classStack[len(vm.classStack)-1]
	vm.classStack = vm.classStack[:len(vm.classStack)-1]

	if top.fieldShift > 0 {
		for _, fn := range top.ownMethods {
			shiftFieldOps(fn, top.fieldShift)
		}
	}
	fiber.Pop() // the class value is already bound to its variable
}

// shiftFieldOps rewrites a just-compiled method's own-class field
// indices (declared 0-based, per the class body's own declaration
// order) up by shift so they land past the inherited fields a runtime
// superclass turned out to own.
func shiftFieldOps(fn *value.Function, shift int) {
	chunk := chunkOf(fn)
	for i := range chunk.Instructions {
		switch chunk.Instructions[i].Op {
		case bytecode.LoadFieldThis, bytecode.StoreFieldThis, bytecode.LoadField, bytecode.StoreField:
			chunk.Instructions[i].A += shift
		}
	}
}

func (vm *VM) execConstruct(fiber *value.Fiber, instr bytecode.Instruction) bool {
	arity := instr.B
	base := len(fiber.Stack) - arity - 1
	cls := fiber.Stack[base].AsObj().Body().(*value.Class)
	inst := vm.Arena.NewInstance(cls)
	fiber.Stack[base] = value.ObjVal(&inst.Obj)
	if arity == 0 {
		// A class with no zero-argument constructor still constructs.
		if _, found := cls.Lookup(instr.A); !found {
			return true
		}
	}
	return vm.call(fiber, instr.A, arity)
}

func (vm *VM) execExternConstruct(fiber *value.Fiber, instr bytecode.Instruction) bool {
	arity := instr.B
	base := len(fiber.Stack) - arity - 1
	cls := fiber.Stack[base].AsObj().Body().(*value.Class)
	ext := vm.Arena.NewExtern(cls, 0)
	fiber.Stack[base] = value.ObjVal(&ext.Obj)
	if cls.ExternNew != nil {
		if _, ok := cls.ExternNew(fiber, fiber.Stack[base:base+arity+1]); !ok {
			return false
		}
	}
	return vm.call(fiber, instr.A, arity)
}

func (vm *VM) execImportModule(fiber *value.Fiber, chunk *bytecode.Chunk, instr bytecode.Instruction) bool {
	path := stringText(chunk.Constants[instr.A])
	if mod, ok := vm.Modules[path]; ok {
		vm.lastImportedModule = mod
		return true
	}
	if vm.Config.LoadModule == nil {
		return vm.abort(fiber, vm.newStringValue(fmt.Sprintf("module '%s' could not be found.", path)))
	}
	source, ok := vm.Config.LoadModule(vm, path)
	if !ok {
		return vm.abort(fiber, vm.newStringValue(fmt.Sprintf("module '%s' could not be found.", path)))
	}

	mod := value.NewModule(path)
	vm.Modules[path] = mod
	vm.lastImportedModule = mod
	if vm.Config.InitModule != nil {
		vm.Config.InitModule(vm, mod)
	}

	world := &compiler.World{Syms: vm.Syms, Arena: vm.Arena}
	fn, errs := compiler.CompileModule(world, mod, path, source)
	if len(errs) > 0 {
		return vm.abort(fiber, vm.newStringValue(fmt.Sprintf("module '%s' failed to compile: %s", path, errs[0].Error())))
	}

	closure := vm.Arena.NewClosure(fn, vm.Core.FnClass)
	base := len(fiber.Stack)
	fiber.Push(value.NullVal())
	pushFrame(fiber, closure, base)
	return true
}

func (vm *VM) execImportVariable(fiber *value.Fiber, chunk *bytecode.Chunk, instr bytecode.Instruction) bool {
	name := stringText(chunk.Constants[instr.A])
	mod := vm.lastImportedModule
	if mod == nil {
		return vm.abort(fiber, vm.newStringValue("no module is being imported."))
	}
	idx, ok := mod.Resolve(name)
	if !ok {
		return vm.abort(fiber, vm.newStringValue(fmt.Sprintf("module '%s' has no variable '%s'.", mod.Name, name)))
	}
	fiber.Push(mod.Slots[idx])
	return true
}
