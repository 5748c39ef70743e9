package vm

import (
	"fmt"

	"github.com/mosclang/mosc/internal/bytecode"
	"github.com/mosclang/mosc/internal/compiler"
	"github.com/mosclang/mosc/internal/moserr"
	"github.com/mosclang/mosc/internal/value"
)

// Config bundles every host-provided hook the interpreter calls out
// to: module resolution/loading, foreign binding, output, and error
// reporting (§4.6/§6, the embedding API's VM configuration struct).
type Config struct {
	WriteFn          func(vm *VM, text string)
	ErrorHandler     func(vm *VM, kind moserr.Result, module string, line int, message string)
	ResolveModule    func(vm *VM, importer, name string) (string, bool)
	LoadModule       func(vm *VM, name string) (string, bool)
	BindExternMethod func(vm *VM, module, className, signature string, isStatic bool) value.Primitive
	BindExternClass  func(vm *VM, module, className string) (value.Primitive, func(payload []byte))
	// InitModule runs once on every Module the VM creates for an
	// import, before it is compiled; a host that creates the entry
	// module calls the same hook on it itself. The core-library
	// package's InjectCoreNames is the expected hook: vm itself cannot
	// import internal/corelib without an import cycle, since corelib
	// binds primitives by calling back into vm.
	InitModule func(vm *VM, mod *value.Module)
}

// Core holds the bootstrap classes every value's method dispatch
// needs, installed once by the core-library package at startup
// (§4.7, §4.8's built-in classes).
type Core struct {
	ObjectClass    *value.Class
	ClassClass     *value.Class
	NumClass       *value.Class
	BoolClass      *value.Class
	NullClass      *value.Class
	StringClass    *value.Class
	ListClass      *value.Class
	MapClass       *value.Class
	RangeClass     *value.Class
	FnClass        *value.Class
	FiberClass     *value.Class
	SystemClass    *value.Class
}

// VM is one interpreter instance: one object arena, one set of
// bootstrap classes, the loaded-module table, and the currently
// running fiber (§4.4, §4.5).
type VM struct {
	Arena    *value.Arena
	Core     Core
	Modules  map[string]*value.Module
	Config   Config
	Fiber    *value.Fiber
	Syms     *compiler.MethodSymbols
	UserData any

	// Pinned ref-counts heap objects an embedding host is holding onto
	// via internal/api's Handle (§6's make_handle/release_handle), so
	// markRoots keeps them alive even though nothing on any fiber's
	// stack currently references them.
	Pinned map[*value.Obj]int

	classStack         []classBuild
	lastImportedModule *value.Module
}

func New(arena *value.Arena, cfg Config) *VM {
	return &VM{Arena: arena, Modules: map[string]*value.Module{}, Config: cfg, Pinned: map[*value.Obj]int{}}
}

// Pin increments v's pin count, keeping it alive across collections
// even when unreachable from any root. Non-heap values (Num/Bool/
// Null/Undefined) are a no-op.
func (vm *VM) Pin(v value.Value) {
	if v.IsObj() {
		vm.Pinned[v.AsObj()]++
	}
}

// Unpin decrements v's pin count, dropping it from the root set once
// it reaches zero.
func (vm *VM) Unpin(v value.Value) {
	if !v.IsObj() {
		return
	}
	obj := v.AsObj()
	if n := vm.Pinned[obj]; n <= 1 {
		delete(vm.Pinned, obj)
	} else {
		vm.Pinned[obj] = n - 1
	}
}

// Send dispatches a method call outside of any currently running
// fiber's own bytecode loop: fiber's stack must already hold the
// receiver at the call base followed by arity arguments (the
// embedding API's call(handle) operation, §6). Returns false if the
// dispatch aborted fiber synchronously; the caller should still follow
// up with Interpret to drain a pushed user-defined method body or
// collect the abort's error.
func (vm *VM) Send(fiber *value.Fiber, symbol, arity int) bool {
	return vm.call(fiber, symbol, arity)
}

// ClassOf returns the class whose method table governs v's dispatch;
// every Value has exactly one.
func (vm *VM) ClassOf(v value.Value) *value.Class {
	if v.IsNum() {
		return vm.Core.NumClass
	}
	if v.IsBool() {
		return vm.Core.BoolClass
	}
	if v.IsNull() {
		return vm.Core.NullClass
	}
	if v.IsUndefined() {
		return vm.Core.ObjectClass
	}
	obj := v.AsObj()
	if obj.Class != nil {
		return obj.Class
	}
	switch obj.Type {
	case value.ObjString:
		return vm.Core.StringClass
	case value.ObjList:
		return vm.Core.ListClass
	case value.ObjMap:
		return vm.Core.MapClass
	case value.ObjRange:
		return vm.Core.RangeClass
	case value.ObjClosure, value.ObjFunction:
		return vm.Core.FnClass
	case value.ObjFiber:
		return vm.Core.FiberClass
	case value.ObjClass:
		cls := obj.Body().(*value.Class)
		if cls.Metaclass != nil {
			return cls.Metaclass
		}
		return vm.Core.ClassClass
	}
	return vm.Core.ObjectClass
}

// NewFiberForClosure creates a fresh, unstarted fiber around closure,
// ready for Interpret (§4.5).
func (vm *VM) NewFiberForClosure(closure *value.Closure) *value.Fiber {
	f := vm.Arena.NewFiber(vm.Core.FiberClass)
	f.State = value.FiberRoot
	pushFrame(f, closure, 0)
	f.Stack[0] = value.NullVal()
	return f
}

// Interpret drives fiber to completion (or a first-chance error),
// returning the script's result value.
func (vm *VM) Interpret(fiber *value.Fiber) (value.Value, *moserr.RuntimeError) {
	vm.Fiber = fiber
	result, err := vm.run(fiber)
	return result, err
}

func (vm *VM) run(fiber *value.Fiber) (value.Value, *moserr.RuntimeError) {
	vm.Fiber = fiber
interpLoop:
	for {
		if fiber == nil {
			// No current fiber (suspended): halt successfully.
			return value.NullVal(), nil
		}
		if len(fiber.Frames) == 0 {
			if !fiber.Error.IsUndefined() && !fiber.Error.IsNull() {
				return value.NullVal(), vm.errorFor(fiber)
			}
			if len(fiber.Stack) == 0 {
				return value.NullVal(), nil
			}
			return fiber.Pop(), nil
		}
		vm.collectIfDue()

		frame := &fiber.Frames[len(fiber.Frames)-1]
		chunk := chunkOf(frame.Closure.Fn)
		instr := chunk.Instructions[frame.IP]
		frame.IP++

		switch instr.Op {
		case bytecode.Constant:
			fiber.Push(chunk.Constants[instr.A])
		case bytecode.Null:
			fiber.Push(value.NullVal())
		case bytecode.True:
			fiber.Push(value.TrueVal())
		case bytecode.False:
			fiber.Push(value.FalseVal())
		case bytecode.Void:
			fiber.Push(value.UndefinedVal())

		case bytecode.LoadLocal0, bytecode.LoadLocal1, bytecode.LoadLocal2, bytecode.LoadLocal3,
			bytecode.LoadLocal4, bytecode.LoadLocal5, bytecode.LoadLocal6, bytecode.LoadLocal7, bytecode.LoadLocal8:
			slot := int(instr.Op - bytecode.LoadLocal0)
			fiber.Push(fiber.Stack[frame.StackStart+slot])
		case bytecode.LoadLocal:
			fiber.Push(fiber.Stack[frame.StackStart+instr.A])
		case bytecode.StoreLocal:
			fiber.Stack[frame.StackStart+instr.A] = fiber.Top()

		case bytecode.LoadUpvalue:
			fiber.Push(frame.Closure.Upvalues[instr.A].Value())
		case bytecode.StoreUpvalue:
			frame.Closure.Upvalues[instr.A].Set(fiber.Top())
		case bytecode.CloseUpvalue:
			closeUpvalues(fiber, len(fiber.Stack)-1)
			fiber.Pop()

		case bytecode.Field:
			// compile-time marker only.

		case bytecode.LoadFieldThis:
			inst := fiber.Stack[frame.StackStart].AsObj().Body().(*value.Instance)
			fiber.Push(inst.Fields[instr.A])
		case bytecode.StoreFieldThis:
			inst := fiber.Stack[frame.StackStart].AsObj().Body().(*value.Instance)
			inst.Fields[instr.A] = fiber.Top()
		case bytecode.LoadField:
			recv := fiber.Pop()
			inst := recv.AsObj().Body().(*value.Instance)
			fiber.Push(inst.Fields[instr.A])
		case bytecode.StoreField:
			val := fiber.Pop()
			recv := fiber.Pop()
			inst := recv.AsObj().Body().(*value.Instance)
			inst.Fields[instr.A] = val
			fiber.Push(val)

		case bytecode.LoadModuleVar:
			fiber.Push(frame.Closure.Fn.Module.Slots[instr.A])
		case bytecode.StoreModuleVar:
			frame.Closure.Fn.Module.Slots[instr.A] = fiber.Top()

		case bytecode.Jump:
			frame.IP = instr.A
		case bytecode.JumpIfFalse:
			if fiber.Top().IsFalsey() {
				frame.IP = instr.A
			}
		case bytecode.Loop:
			frame.IP = instr.A
		case bytecode.And:
			if fiber.Top().IsFalsey() {
				frame.IP = instr.A
			} else {
				fiber.Pop()
			}
		case bytecode.Or:
			if fiber.Top().IsFalsey() {
				fiber.Pop()
			} else {
				frame.IP = instr.A
			}
		case bytecode.End:
			// rewritten to Jump before the interpreter ever sees it.
			panic("unreachable: END opcode survived to execution")

		case bytecode.Return:
			result := fiber.Pop()
			closeUpvalues(fiber, frame.StackStart)
			fiber.Stack = fiber.Stack[:frame.StackStart]
			fiber.Frames = fiber.Frames[:len(fiber.Frames)-1]
			if len(fiber.Frames) == 0 {
				fiber.Completed = true
				if caller := fiber.Caller; caller != nil {
					fiber.Caller = nil
					caller.Push(result)
					vm.Fiber = caller
					fiber = caller
					continue interpLoop
				}
				return result, nil
			}
			fiber.Push(result)

		case bytecode.Pop:
			fiber.Pop()
		case bytecode.Dup:
			fiber.Push(fiber.Top())
		case bytecode.PushThis:
			fiber.Push(fiber.Stack[frame.StackStart])

		case bytecode.Closure:
			fnVal := chunk.Constants[instr.A]
			fn := fnVal.AsObj().Body().(*value.Function)
			closure := vm.Arena.NewClosure(fn, vm.Core.FnClass)
			for i := range closure.Upvalues {
				desc := chunk.Instructions[frame.IP]
				frame.IP++
				if desc.A == 1 {
					closure.Upvalues[i] = captureUpvalue(vm.Arena, fiber, frame.StackStart+desc.B)
				} else {
					closure.Upvalues[i] = frame.Closure.Upvalues[desc.B]
				}
			}
			fiber.Push(value.ObjVal(&closure.Obj))

		case bytecode.MakeList:
			n := instr.A
			items := make([]value.Value, n)
			copy(items, fiber.Stack[len(fiber.Stack)-n:])
			fiber.Stack = fiber.Stack[:len(fiber.Stack)-n]
			list := vm.Arena.NewList(vm.Core.ListClass)
			list.Items = items
			fiber.Push(value.ObjVal(&list.Obj))

		case bytecode.MakeMap:
			n := instr.A
			m := vm.Arena.NewMapObj(vm.Core.MapClass)
			base := len(fiber.Stack) - 2*n
			for i := 0; i < n; i++ {
				k := fiber.Stack[base+2*i]
				v := fiber.Stack[base+2*i+1]
				m.Set(k, v)
			}
			fiber.Stack = fiber.Stack[:base]
			fiber.Push(value.ObjVal(&m.Obj))

		case bytecode.MakeRange:
			to := fiber.Pop()
			from := fiber.Pop()
			r := vm.Arena.NewRange(from.AsNum(), to.AsNum(), instr.A == 1, vm.Core.RangeClass)
			fiber.Push(value.ObjVal(&r.Obj))

		case bytecode.Class_, bytecode.ExternClass:
			vm.execClass(fiber, chunk, instr, instr.Op == bytecode.ExternClass)
		case bytecode.MethodInstance, bytecode.MethodStatic:
			vm.execMethod(fiber, chunk, instr)
		case bytecode.EndClass:
			vm.execEndClass(fiber)
		case bytecode.Construct:
			if !vm.execConstruct(fiber, instr) {
				fiber = vm.Fiber
				continue interpLoop
			}
		case bytecode.ExternConstruct:
			if !vm.execExternConstruct(fiber, instr) {
				fiber = vm.Fiber
				continue interpLoop
			}

		case bytecode.ImportModule:
			if !vm.execImportModule(fiber, chunk, instr) {
				fiber = vm.Fiber
				continue interpLoop
			}
		case bytecode.ImportVariable:
			if !vm.execImportVariable(fiber, chunk, instr) {
				fiber = vm.Fiber
				continue interpLoop
			}
		case bytecode.EndModule:
			// Per-declaration bookkeeping only; nothing is pushed or
			// popped here (each IMPORT_VARIABLE already consumed its
			// own STORE/POP pair).

		default:
			if arity, ok := bytecode.IsCallFixed(instr.Op); ok {
				if !vm.call(fiber, instr.A, arity) {
					fiber = vm.Fiber
					continue interpLoop
				}
				continue
			}
			if instr.Op == bytecode.Call {
				if !vm.call(fiber, instr.A, instr.B) {
					fiber = vm.Fiber
					continue interpLoop
				}
				continue
			}
			if arity, ok := bytecode.IsSuperFixed(instr.Op); ok {
				if !vm.superCall(fiber, frame, instr.A, arity) {
					fiber = vm.Fiber
					continue interpLoop
				}
				continue
			}
			if instr.Op == bytecode.Super {
				if !vm.superCall(fiber, frame, instr.A, instr.B) {
					fiber = vm.Fiber
					continue interpLoop
				}
				continue
			}
			panic(fmt.Sprintf("unhandled opcode %s", instr.Op))
		}
	}
}

func (vm *VM) errorFor(fiber *value.Fiber) *moserr.RuntimeError {
	return &moserr.RuntimeError{Value: fiber.Error}
}
