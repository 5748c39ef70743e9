// Package api implements the host-facing embedding surface SPEC_FULL
// §6 describes: a numbered slot window for exchanging values across
// the Go/interpreter boundary, reusable call handles bound to a
// method signature, and pinned handles that survive collection for as
// long as a host holds them. internal/vm and internal/corelib are
// usable directly by a Go embedder too (cmd/mosc does exactly that),
// but this package is the stable, slot-indexed surface a
// C-ABI-shaped or scripting-style host would drive instead.
package api

import (
	"github.com/mosclang/mosc/internal/compiler"
	"github.com/mosclang/mosc/internal/corelib"
	"github.com/mosclang/mosc/internal/moserr"
	"github.com/mosclang/mosc/internal/value"
	"github.com/mosclang/mosc/internal/vm"
)

// VM wraps one interpreter instance plus its current slot window.
// Slots are positional scratch space for one foreign call or host
// request; EnsureSlots grows the window, everything else indexes into
// it. Slot 0 conventionally holds the call receiver/return value.
type VM struct {
	Machine *vm.VM
	World   *compiler.World

	slots []value.Value
}

// Config mirrors vm.Config (§6's new VM(config)): the host supplies
// the same hooks, applied to a freshly bootstrapped VM.
type Config struct {
	WriteFn          func(m *vm.VM, text string)
	ErrorHandler     func(m *vm.VM, kind moserr.Result, module string, line int, message string)
	ResolveModule    func(m *vm.VM, importer, name string) (string, bool)
	LoadModule       func(m *vm.VM, name string) (string, bool)
	BindExternMethod func(m *vm.VM, module, className, signature string, isStatic bool) value.Primitive
	BindExternClass  func(m *vm.VM, module, className string) (value.Primitive, func(payload []byte))
}

// New builds a fresh VM with the core library already bootstrapped,
// ready to interpret (§6's new VM(config)).
func New(cfg Config) *VM {
	arena := value.NewArena()
	world := compiler.NewWorld(arena)

	machine := vm.New(arena, vm.Config{
		WriteFn:          cfg.WriteFn,
		ErrorHandler:     cfg.ErrorHandler,
		ResolveModule:    cfg.ResolveModule,
		LoadModule:       cfg.LoadModule,
		BindExternMethod: cfg.BindExternMethod,
		BindExternClass:  cfg.BindExternClass,
		InitModule:       corelib.InjectCoreNames,
	})
	machine.Syms = world.Syms
	corelib.Bootstrap(machine)

	return &VM{Machine: machine, World: world}
}

// HasModule reports whether name has already been loaded (§6's
// has_module).
func (v *VM) HasModule(name string) bool {
	_, ok := v.Machine.Modules[name]
	return ok
}

// GetVariable reads module.name into slot, reporting whether both the
// module and the variable exist (§6's get_variable/has_variable).
func (v *VM) GetVariable(module, name string, slot int) bool {
	mod, ok := v.Machine.Modules[module]
	if !ok {
		return false
	}
	idx, ok := mod.Resolve(name)
	if !ok {
		return false
	}
	v.SetSlot(slot, mod.Slots[idx])
	return true
}

// HasVariable reports whether module declares name.
func (v *VM) HasVariable(module, name string) bool {
	mod, ok := v.Machine.Modules[module]
	if !ok {
		return false
	}
	_, ok = mod.Resolve(name)
	return ok
}

// Interpret compiles and runs source as moduleName's top-level
// script, leaving the result in slot 0. It is the slot-API mirror of
// vm.Interpret, for a host that otherwise only touches the VM through
// this package.
func (v *VM) Interpret(moduleName, source string) error {
	mod, ok := v.Machine.Modules[moduleName]
	if !ok {
		mod = value.NewModule(moduleName)
		v.Machine.Modules[moduleName] = mod
		corelib.InjectCoreNames(v.Machine, mod)
	}

	fn, errs := compiler.CompileModule(v.World, mod, moduleName, source)
	if len(errs) > 0 {
		return errs[0]
	}

	closure := v.Machine.Arena.NewClosure(fn, v.Machine.Core.FnClass)
	fiber := v.Machine.NewFiberForClosure(closure)
	result, rerr := v.Machine.Interpret(fiber)
	if rerr != nil {
		return rerr
	}
	v.EnsureSlots(1)
	v.slots[0] = result
	return nil
}

// AbortFiber raises a runtime error whose value is in slot (§6's
// abort_fiber), against fiber. Meant to be called from within a bound
// extern method's Go body, which already has the running fiber.
func (v *VM) AbortFiber(fiber *value.Fiber, slot int) bool {
	return v.Machine.Abort(fiber, v.Slot(slot))
}
