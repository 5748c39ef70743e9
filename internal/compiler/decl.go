package compiler

import (
	"github.com/mosclang/mosc/internal/bytecode"
	"github.com/mosclang/mosc/internal/lexer"
	"github.com/mosclang/mosc/internal/value"
)

// declaration compiles one top-level-or-block item: a `nin`/`tii`/
// `kulu`/`nani` declaration, or a fallthrough statement.
func (c *Compiler) declaration() {
	switch {
	case c.check(lexer.KwVar):
		c.varDeclaration()
	case c.check(lexer.KwClass):
		c.classDeclaration(false)
	case c.check(lexer.KwForeign):
		c.lex.Advance()
		c.expect(lexer.KwClass, "expected 'kulu' after 'dunan'")
		c.classDeclaration(true)
	case c.check(lexer.KwFn) && c.checkNext(lexer.Ident):
		c.namedFnDeclaration()
	case c.check(lexer.KwImport):
		c.importDeclaration()
	default:
		c.statement()
	}
}

func (c *Compiler) varDeclaration() {
	line := c.line()
	c.lex.Advance() // nin
	nameTok := c.expect(lexer.Ident, "expected variable name after 'nin'")
	if c.match(lexer.Assign) {
		c.expression()
	} else {
		c.emit(bytecode.Null, 0, 0)
	}
	local, isModule, slot := c.declareVariable(nameTok.Literal, line)
	if isModule {
		c.emit(bytecode.StoreModuleVar, slot, 0)
		c.emit(bytecode.Pop, 0, 0)
	} else {
		// The pushed value stays on the stack; endScope pops it.
		c.emit(bytecode.StoreLocal, local, 0)
	}
	c.statementEnd()
}

// namedFnDeclaration compiles `tii name(params) { body }` sugar for
// `nin name = tii (params) { body }`.
func (c *Compiler) namedFnDeclaration() {
	line := c.line()
	c.lex.Advance() // tii
	nameTok := c.expect(lexer.Ident, "expected function name after 'tii'")
	fn, upvalues := c.compileFunctionBody(typeFunction, nameTok.Literal)
	c.emitClosure(fn, upvalues)
	_, isModule, slot := c.declareVariable(nameTok.Literal, line)
	if isModule {
		c.emit(bytecode.StoreModuleVar, slot, 0)
		c.emit(bytecode.Pop, 0, 0)
	} else {
		c.emit(bytecode.StoreLocal, len(c.locals)-1, 0)
	}
}

// importDeclaration compiles `nani "module" [inafo name] [kabo sym1, sym2]`
// sugar; §4.6/§4.8's module resolution is a host-provided callback, so
// the compiler only needs to record which names it imports.
func (c *Compiler) importDeclaration() {
	c.lex.Advance() // nani
	pathTok := c.expect(lexer.String, "expected a module path string after 'nani'")
	pathIdx := c.constant(c.stringConstant(pathTok.Literal))
	c.emit(bytecode.ImportModule, pathIdx, 0)

	if c.match(lexer.KwAs) {
		nameTok := c.expect(lexer.Ident, "expected a binding name after 'inafo'")
		_, isModule, slot := c.declareVariable(nameTok.Literal, nameTok.Line)
		nameIdx := c.constant(c.stringConstant(nameTok.Literal))
		c.emit(bytecode.ImportVariable, nameIdx, 0)
		if isModule {
			c.emit(bytecode.StoreModuleVar, slot, 0)
			c.emit(bytecode.Pop, 0, 0)
		} else {
			c.emit(bytecode.StoreLocal, len(c.locals)-1, 0)
		}
	}
	if c.match(lexer.KwFrom) {
		for {
			nameTok := c.expect(lexer.Ident, "expected an imported name")
			nameIdx := c.constant(c.stringConstant(nameTok.Literal))
			c.emit(bytecode.ImportVariable, nameIdx, 0)
			_, isModule, slot := c.declareVariable(nameTok.Literal, nameTok.Line)
			if isModule {
				c.emit(bytecode.StoreModuleVar, slot, 0)
				c.emit(bytecode.Pop, 0, 0)
			} else {
				c.emit(bytecode.StoreLocal, len(c.locals)-1, 0)
			}
			if !c.match(lexer.Comma) {
				break
			}
		}
	}
	c.emit(bytecode.EndModule, 0, 0)
	c.statementEnd()
}

// statement compiles one control-flow or expression statement.
func (c *Compiler) statement() {
	switch {
	case c.check(lexer.KwIf):
		c.ifStatement()
	case c.check(lexer.KwWhile):
		c.whileStatement()
	case c.check(lexer.KwFor):
		c.forStatement()
	case c.check(lexer.KwWhen):
		c.whenStatement()
	case c.check(lexer.KwReturn):
		c.returnStatement()
	case c.check(lexer.KwBreak):
		c.breakStatement()
	case c.check(lexer.KwContinue):
		c.continueStatement()
	case c.check(lexer.KwThrow):
		c.throwStatement()
	case c.check(lexer.LBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

// block compiles `{ declaration* }`, consuming both braces. The
// caller is responsible for begin/endScope.
func (c *Compiler) block() {
	c.expect(lexer.LBrace, "expected '{'")
	c.skipNewlines()
	for !c.check(lexer.RBrace) && !c.check(lexer.EOF) {
		c.declaration()
		c.skipNewlines()
	}
	c.expect(lexer.RBrace, "expected '}' to close block")
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.emit(bytecode.Pop, 0, 0)
	c.statementEnd()
}

// ifStatement compiles `nii cond [niin] { then } [note { else }]`. The
// `niin` connector after the condition is optional sugar, mirroring
// how the for-loop header also accepts it before the body.
func (c *Compiler) ifStatement() {
	c.lex.Advance() // nii
	c.expression()
	c.match(lexer.KwThen)
	thenJump := c.emitJump(bytecode.JumpIfFalse)
	c.emit(bytecode.Pop, 0, 0)
	c.beginScope()
	c.block()
	c.endScope()

	if c.match(lexer.KwElse) {
		elseJump := c.emitJump(bytecode.Jump)
		c.patchJump(thenJump)
		c.emit(bytecode.Pop, 0, 0)
		if c.check(lexer.KwIf) {
			c.ifStatement()
		} else {
			c.beginScope()
			c.block()
			c.endScope()
		}
		c.patchJump(elseJump)
	} else {
		c.patchJump(thenJump)
		c.emit(bytecode.Pop, 0, 0)
	}
}

func (c *Compiler) whileStatement() {
	c.lex.Advance() // foo
	loop := &loopCtx{enclosing: c.loop, start: len(c.chunk.Instructions), scopeDepth: c.scopeDepth}
	c.loop = loop

	c.expression()
	exitJump := c.emitJump(bytecode.JumpIfFalse)
	c.emit(bytecode.Pop, 0, 0)
	c.beginScope()
	c.block()
	c.endScope()
	c.emitLoop(loop.start)

	c.patchJump(exitJump)
	c.emit(bytecode.Pop, 0, 0)
	for _, p := range loop.breakPatches {
		c.chunk.Instructions[p].Op = bytecode.Jump
		c.patchJump(p)
	}
	c.loop = loop.enclosing
}

// forStatement compiles `seginka name kono iterable [kay|kaj] niin { body }`,
// desugaring to the iterate()/iteratorValue() protocol over a hidden
// sequence local and iterator local, per §4.2's for-loop lowering.
func (c *Compiler) forStatement() {
	c.lex.Advance() // seginka
	c.beginScope()
	varTok := c.expect(lexer.Ident, "expected loop variable name after 'seginka'")
	c.expect(lexer.KwIn, "expected 'kono' after loop variable")

	c.expression()
	seqSlot := c.addLocal(" seq")
	c.emit(bytecode.StoreLocal, seqSlot, 0)

	c.emit(bytecode.Null, 0, 0)
	iterSlot := c.addLocal(" iter")
	c.emit(bytecode.StoreLocal, iterSlot, 0)

	descending := false
	if c.match(lexer.KwDown) {
		descending = true
	} else {
		c.match(lexer.KwUp)
	}
	c.match(lexer.KwThen)

	loop := &loopCtx{enclosing: c.loop, start: len(c.chunk.Instructions), scopeDepth: c.scopeDepth}
	c.loop = loop

	c.emitLoadLocal(seqSlot)
	c.emitLoadLocal(iterSlot)
	step := 1.0
	if descending {
		step = -1.0
	}
	c.emit(bytecode.Constant, c.constant(value.NumVal(step)), 0)
	iterateSym := c.world.Syms.Symbol(CallSignature("iterate", 2))
	c.emitCallSym(iterateSym, 2)
	c.emit(bytecode.StoreLocal, iterSlot, 0)
	exitJump := c.emitJump(bytecode.JumpIfFalse)
	c.emit(bytecode.Pop, 0, 0)

	c.beginScope()
	c.emitLoadLocal(seqSlot)
	c.emitLoadLocal(iterSlot)
	iterValueSym := c.world.Syms.Symbol(CallSignature("iteratorValue", 1))
	c.emitCallSym(iterValueSym, 1)
	itemSlot := c.addLocal(varTok.Literal)
	c.emit(bytecode.StoreLocal, itemSlot, 0)
	c.block()
	c.endScope()

	c.emitLoop(loop.start)
	c.patchJump(exitJump)
	c.emit(bytecode.Pop, 0, 0)
	for _, p := range loop.breakPatches {
		c.chunk.Instructions[p].Op = bytecode.Jump
		c.patchJump(p)
	}
	c.loop = loop.enclosing
	c.endScope()
}

// emitCallSym emits a fixed-arity Call opcode for symbol when arity
// fits the Call0..16 fast path, else the generic Call form.
func (c *Compiler) emitCallSym(symbol, arity int) {
	if arity <= 16 {
		c.emit(bytecode.Call0+bytecode.Opcode(arity), symbol, 0)
		return
	}
	c.emit(bytecode.Call, symbol, arity)
}

// emitSuperSym emits a super-send. Resolution starts one class above
// wherever the *currently executing method* was defined (its
// CallFrame.DefiningClass, set at dispatch time from the Method that
// was looked up) rather than from any compile-time-known class, since
// a superclass expression is general and is not always a compile-time
// constant (§4.2, §9).
func (c *Compiler) emitSuperSym(symbol, arity int) {
	if arity <= 16 {
		c.emit(bytecode.Super0+bytecode.Opcode(arity), symbol, 0)
		return
	}
	c.emit(bytecode.Super, symbol, arity)
}

// whenStatement compiles `tumamin expr { case niin { ... } ... note { ... } }`
// as sugar over a chain of equality-guarded if/else blocks.
func (c *Compiler) whenStatement() {
	c.lex.Advance() // tumamin
	c.expression()
	c.beginScope()
	subjectSlot := c.addLocal(" when")
	c.emit(bytecode.StoreLocal, subjectSlot, 0)
	c.expect(lexer.LBrace, "expected '{' to start a 'tumamin' body")
	c.skipNewlines()

	var endJumps []int
	for !c.check(lexer.RBrace) && !c.check(lexer.EOF) {
		if c.match(lexer.KwElse) {
			c.match(lexer.KwThen)
			c.beginScope()
			c.block()
			c.endScope()
			c.skipNewlines()
			continue
		}
		c.emitLoadLocal(subjectSlot)
		c.expression()
		eqSym := c.world.Syms.Symbol(CallSignature("==", 1))
		c.emitCallSym(eqSym, 1)
		c.match(lexer.KwThen)
		skip := c.emitJump(bytecode.JumpIfFalse)
		c.emit(bytecode.Pop, 0, 0)
		c.beginScope()
		c.block()
		c.endScope()
		endJumps = append(endJumps, c.emitJump(bytecode.Jump))
		c.patchJump(skip)
		c.emit(bytecode.Pop, 0, 0)
		c.skipNewlines()
	}
	c.expect(lexer.RBrace, "expected '}' to close 'tumamin'")
	for _, j := range endJumps {
		c.patchJump(j)
	}
	c.endScope()
}

func (c *Compiler) returnStatement() {
	c.lex.Advance() // segin
	if c.funcType == typeScript {
		c.errorAt(c.lex.Prev, "cannot return from top-level code")
	}
	if c.check(lexer.Newline) || c.check(lexer.Semicolon) || c.check(lexer.RBrace) {
		if c.funcType == typeInitializer {
			c.emit(bytecode.LoadLocal0, 0, 0)
		} else {
			c.emit(bytecode.Null, 0, 0)
		}
	} else {
		c.match(lexer.KwThen)
		if c.funcType == typeInitializer {
			c.errorAt(c.lex.Cur, "a constructor cannot return a value")
		}
		c.expression()
	}
	c.emit(bytecode.Return, 0, 0)
	c.statementEnd()
}

func (c *Compiler) breakStatement() {
	line := c.line()
	c.lex.Advance() // atike
	if c.loop == nil {
		c.errorAt(c.lex.Prev, "cannot use 'atike' outside of a loop")
		c.statementEnd()
		return
	}
	for i := len(c.locals) - 1; i >= 0 && c.locals[i].depth > c.loop.scopeDepth; i-- {
		if c.locals[i].isCaptured {
			c.emit(bytecode.CloseUpvalue, 0, 0)
		} else {
			c.emit(bytecode.Pop, 0, 0)
		}
	}
	idx := c.emit(bytecode.End, 0, 0)
	c.chunk.Instructions[idx].Line = line
	c.loop.breakPatches = append(c.loop.breakPatches, idx)
	c.statementEnd()
}

func (c *Compiler) continueStatement() {
	c.lex.Advance() // ipan
	if c.loop == nil {
		c.errorAt(c.lex.Prev, "cannot use 'ipan' outside of a loop")
		c.statementEnd()
		return
	}
	for i := len(c.locals) - 1; i >= 0 && c.locals[i].depth > c.loop.scopeDepth; i-- {
		if c.locals[i].isCaptured {
			c.emit(bytecode.CloseUpvalue, 0, 0)
		} else {
			c.emit(bytecode.Pop, 0, 0)
		}
	}
	c.emitLoop(c.loop.start)
	c.statementEnd()
}

// throwStatement compiles `afili expr`. There is no dedicated THROW
// opcode in the instruction set (§4.3); raising an error is just a
// call to the core library's Djuru.abort(_), which the interpreter
// implements by unwinding the caller chain (§4.4/§4.7).
func (c *Compiler) throwStatement() {
	c.lex.Advance() // afili
	line := c.line()
	c.emitVariable("Djuru", line)
	c.expression()
	abortSym := c.world.Syms.Symbol(CallSignature("abort", 1))
	c.emit(bytecode.Call1, abortSym, 0)
	c.emit(bytecode.Pop, 0, 0)
	c.statementEnd()
}
