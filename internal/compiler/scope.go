package compiler

import (
	"github.com/mosclang/mosc/internal/bytecode"
	"github.com/mosclang/mosc/internal/value"
)

// beginScope/endScope bracket a lexical block. Locals that survive to
// endScope at a deeper depth than the enclosing one are popped (or
// closed into upvalues, if captured) in reverse declaration order.
func (c *Compiler) beginScope() { c.scopeDepth++ }

func (c *Compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		last := c.locals[len(c.locals)-1]
		if last.isCaptured {
			c.emit(bytecode.CloseUpvalue, 0, 0)
		} else {
			c.emit(bytecode.Pop, 0, 0)
		}
		c.locals = c.locals[:len(c.locals)-1]
	}
}

func (c *Compiler) addLocal(name string) int {
	if len(c.locals) >= MaxLocals {
		c.errorAt(c.lex.Prev, "a function may not declare more than %d local variables", MaxLocals)
		return 0
	}
	c.locals = append(c.locals, localVar{name: name, depth: c.scopeDepth})
	return len(c.locals) - 1
}

// declareVariable binds name in the current scope: as a local if we
// are nested, or as a module-level variable at the top level.
func (c *Compiler) declareVariable(name string, line int) (local int, isModule bool, moduleSlot int) {
	if c.scopeDepth > 0 {
		for i := len(c.locals) - 1; i >= 0; i-- {
			if c.locals[i].depth < c.scopeDepth {
				break
			}
			if c.locals[i].name == name {
				c.errorAt(c.lex.Prev, "variable '%s' is already declared in this scope", name)
				return i, false, 0
			}
		}
		return c.addLocal(name), false, 0
	}
	idx, existed := c.module.Resolve(name)
	if !existed {
		idx = c.module.Declare(name, value.NullVal())
	} else if c.module.Slots[idx].IsNum() {
		c.module.Slots[idx] = value.NullVal()
	}
	return 0, true, idx
}

// resolveModuleForward resolves name at module scope, implicitly
// forward-declaring it (with the use site's line number as a
// placeholder, per original_source's resolveModule) if it is not yet
// known. This is what lets a script call a function defined later in
// the same module.
func (c *Compiler) resolveModuleForward(name string, line int) int {
	if idx, ok := c.module.Resolve(name); ok {
		return idx
	}
	return c.module.Declare(name, value.NumVal(float64(line)))
}

type resolvedKind int

const (
	resolvedNone resolvedKind = iota
	resolvedLocal
	resolvedUpvalue
	resolvedModule
)

func (c *Compiler) resolveLocal(name string) (int, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name {
			return i, true
		}
	}
	return 0, false
}

// resolveUpvalue recursively walks enclosing compiler frames, adding
// an upvalue entry at each level it needs to pass through, and
// de-duplicating repeated captures of the same slot (§4.2/§9).
func (c *Compiler) resolveUpvalue(name string) (int, bool) {
	if c.enclosing == nil {
		return 0, false
	}
	if idx, ok := c.enclosing.resolveLocal(name); ok {
		c.enclosing.locals[idx].isCaptured = true
		return c.addUpvalue(true, idx), true
	}
	if idx, ok := c.enclosing.resolveUpvalue(name); ok {
		return c.addUpvalue(false, idx), true
	}
	return 0, false
}

func (c *Compiler) addUpvalue(isLocal bool, index int) int {
	for i, u := range c.upvalues {
		if u.isLocal == isLocal && u.index == index {
			return i
		}
	}
	if len(c.upvalues) >= MaxUpvalues {
		c.errorAt(c.lex.Prev, "a function may not close over more than %d variables", MaxUpvalues)
		return 0
	}
	c.upvalues = append(c.upvalues, upvalRef{isLocal: isLocal, index: index})
	return len(c.upvalues) - 1
}

// resolveName looks up an identifier in locals, enclosing upvalues,
// then the module, in that order (§4.2's three-tier scope lookup).
func (c *Compiler) resolveName(name string, line int) (resolvedKind, int) {
	if idx, ok := c.resolveLocal(name); ok {
		return resolvedLocal, idx
	}
	if idx, ok := c.resolveUpvalue(name); ok {
		return resolvedUpvalue, idx
	}
	return resolvedModule, c.resolveModuleForward(name, line)
}

// emitLoadLocal chooses the fast zero-operand opcode for the first
// nine slots, matching LoadLocal0..8 in the opcode table.
func (c *Compiler) emitLoadLocal(slot int) {
	if slot <= 8 {
		c.emit(bytecode.LoadLocal0+bytecode.Opcode(slot), 0, 0)
		return
	}
	c.emit(bytecode.LoadLocal, slot, 0)
}

func (c *Compiler) emitVariable(name string, line int) {
	kind, idx := c.resolveName(name, line)
	switch kind {
	case resolvedLocal:
		c.emitLoadLocal(idx)
	case resolvedUpvalue:
		c.emit(bytecode.LoadUpvalue, idx, 0)
	case resolvedModule:
		c.emit(bytecode.LoadModuleVar, idx, 0)
	}
}

// emitStoreVariable emits the store half of an assignment, leaving the
// assigned value on the stack (the opcode table's store forms do not
// pop; statement context pops explicitly).
func (c *Compiler) emitStoreVariable(name string, line int) bool {
	kind, idx := c.resolveName(name, line)
	switch kind {
	case resolvedLocal:
		c.emit(bytecode.StoreLocal, idx, 0)
		return true
	case resolvedUpvalue:
		c.emit(bytecode.StoreUpvalue, idx, 0)
		return true
	case resolvedModule:
		c.emit(bytecode.StoreModuleVar, idx, 0)
		return true
	}
	return false
}

// childCompiler creates a nested frame for a function/method body.
func (c *Compiler) childCompiler(ft funcType, name string) *Compiler {
	child := &Compiler{
		world:      c.world,
		enclosing:  c,
		lex:        c.lex,
		module:     c.module,
		moduleName: c.moduleName,
		funcType:   ft,
		chunk:      &bytecode.Chunk{},
		class:      c.class,
	}
	child.fn = c.world.Arena.NewFunction(name, nil)
	// Slot 0 is reserved for the receiver (`ale`/this) in methods, or
	// simply unused in plain functions.
	recvName := ""
	if ft == typeMethod || ft == typeInitializer {
		recvName = "this"
	}
	child.locals = append(child.locals, localVar{name: recvName, depth: 0})
	return child
}

// finishFunction closes off a nested compiler frame, returning the
// compiled Function plus its own upvalue spec for the parent's
// CLOSURE instruction to consume.
func (c *Compiler) finishFunction() (*value.Function, []upvalRef) {
	if c.funcType == typeInitializer {
		c.emit(bytecode.LoadLocal0, 0, 0) // a constructor yields its instance
	} else {
		c.emit(bytecode.Null, 0, 0)
	}
	c.emit(bytecode.Return, 0, 0)
	c.fn.Code = c.chunk
	c.fn.MaxSlots = c.estimateMaxSlots()
	c.fn.UpvalueSpec = make([]value.UpvalueSpec, len(c.upvalues))
	for i, u := range c.upvalues {
		c.fn.UpvalueSpec[i] = value.UpvalueSpec{IsLocal: u.isLocal, Index: u.index}
	}
	c.fn.Module = c.module
	c.errors = append(c.errors, c.enclosing.errors...)
	c.enclosing.errors = c.errors
	return c.fn, c.upvalues
}

// emitClosure wires fn (already compiled by a child frame) into the
// enclosing chunk's constant pool and emits CLOSURE with its upvalue
// descriptor pairs packed into paired instructions (IsLocal carried in
// A, index in B) since Instruction only has two operand fields.
func (c *Compiler) emitClosure(fn *value.Function, upvalues []upvalRef) {
	idx := c.constant(value.ObjVal(&fn.Obj))
	c.emit(bytecode.Closure, idx, len(upvalues))
	for _, u := range upvalues {
		isLocal := 0
		if u.isLocal {
			isLocal = 1
		}
		c.emit(bytecode.Closure, isLocal, u.index)
	}
}
