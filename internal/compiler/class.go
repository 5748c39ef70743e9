package compiler

import (
	"strings"

	"github.com/mosclang/mosc/internal/bytecode"
	"github.com/mosclang/mosc/internal/lexer"
	"github.com/mosclang/mosc/internal/value"
)

// classDeclaration compiles `kulu Name [ye Super] { body }` (or, with
// isForeign, a `dunan kulu` whose body may only declare methods bound
// to a host-provided Extern payload, §4.7).
func (c *Compiler) classDeclaration(isForeign bool) {
	c.lex.Advance() // kulu
	nameTok := c.expect(lexer.Ident, "expected a class name after 'kulu'")
	className := nameTok.Literal

	if c.match(lexer.KwIs) {
		superTok := c.expect(lexer.Ident, "expected a superclass name after 'ye'")
		c.emitVariable(superTok.Literal, superTok.Line)
	} else {
		c.emit(bytecode.Null, 0, 0)
	}

	nameIdx := c.constant(c.stringConstant(className))
	classOp := bytecode.Class_
	if isForeign {
		classOp = bytecode.ExternClass
	}
	classInstr := c.emit(classOp, nameIdx, 0)

	_, isModule, slot := c.declareVariable(className, nameTok.Line)
	if isModule {
		c.emit(bytecode.StoreModuleVar, slot, 0)
	} else {
		c.emit(bytecode.StoreLocal, len(c.locals)-1, 0)
	}

	info := &classInfo{name: className, fieldIndex: map[string]int{}, isForeign: isForeign}
	prevClass := c.class
	c.class = info

	c.expect(lexer.LBrace, "expected '{' to start a class body")
	c.skipNewlines()
	for !c.check(lexer.RBrace) && !c.check(lexer.EOF) {
		c.classMember()
		c.skipNewlines()
	}
	c.expect(lexer.RBrace, "expected '}' to close a class body")

	c.chunk.Instructions[classInstr].B = len(info.fieldIndex)
	for _, m := range info.methods {
		fnIdx := c.constant(value.ObjVal(&m.fn.Obj))
		if m.static {
			c.emit(bytecode.MethodStatic, m.symbol, fnIdx)
		} else {
			c.emit(bytecode.MethodInstance, m.symbol, fnIdx)
		}
	}
	c.emit(bytecode.EndClass, 0, 0)

	c.class = prevClass
}

// classMember compiles one field declaration, constructor, or method
// inside a class body.
func (c *Compiler) classMember() {
	if c.check(lexer.KwVar) {
		c.fieldDeclaration()
		return
	}
	static := c.match(lexer.KwStatic)

	if !static && c.check(lexer.KwInit) {
		c.lex.Advance()
		c.expect(lexer.LParen, "expected '(' after 'dilan'")
		child := c.childCompiler(typeInitializer, "init")
		child.currentMethodBaseName = ""
		arity := child.paramList(lexer.RParen)
		child.beginScope()
		child.block()
		child.endScope()
		fn, upvalues := child.finishFunction()
		fn.Arity = arity
		_ = upvalues // constructors never close over anything meaningful beyond module scope captured via upvalues; still supported structurally
		sym := c.world.Syms.Symbol(InitSignature("", arity))
		c.class.methods = append(c.class.methods, pendingMethod{symbol: sym, fn: fn, static: false})
		return
	}

	name, arity, sym, child := c.methodSignatureAndBody(static)
	fn, _ := child.finishFunction()
	fn.Arity = arity
	_ = name
	c.class.methods = append(c.class.methods, pendingMethod{symbol: sym, fn: fn, static: static})
}

// fieldDeclaration compiles `nin name` at class scope, assigning the
// field a dense own-class index and, unless name starts with '_',
// emitting an automatic getter/setter pair per §4.2.
func (c *Compiler) fieldDeclaration() {
	c.lex.Advance() // nin
	if c.class.isForeign {
		c.errorAt(c.lex.Cur, "a 'dunan' class cannot declare fields")
	}
	tok := c.expect(lexer.Ident, "expected a field name after 'nin'")
	if len(c.class.fieldIndex) >= MaxFields {
		c.errorAt(tok, "a class may not declare more than %d fields", MaxFields)
	}
	idx := len(c.class.fieldIndex)
	c.class.fieldIndex[tok.Literal] = idx
	if !strings.HasPrefix(tok.Literal, "_") {
		getSym := c.world.Syms.Symbol(CallSignature(tok.Literal, 0))
		c.class.methods = append(c.class.methods, pendingMethod{symbol: getSym, fn: c.buildFieldGetter(tok.Literal, idx)})
		setSym := c.world.Syms.Symbol(SetterSignature(tok.Literal))
		c.class.methods = append(c.class.methods, pendingMethod{symbol: setSym, fn: c.buildFieldSetter(tok.Literal, idx)})
	}
	c.statementEnd()
}

func (c *Compiler) buildFieldGetter(name string, fieldIdx int) *value.Function {
	fn := c.world.Arena.NewFunction(name, nil)
	ch := &bytecode.Chunk{}
	ch.Emit(bytecode.LoadFieldThis, fieldIdx, 0, 0)
	ch.Emit(bytecode.Return, 0, 0, 0)
	fn.Code = ch
	fn.Arity = 0
	fn.MaxSlots = 2
	fn.Module = c.module
	return fn
}

func (c *Compiler) buildFieldSetter(name string, fieldIdx int) *value.Function {
	fn := c.world.Arena.NewFunction(name+"=", nil)
	ch := &bytecode.Chunk{}
	ch.Emit(bytecode.LoadLocal1, 0, 0, 0)
	ch.Emit(bytecode.StoreFieldThis, fieldIdx, 0, 0)
	ch.Emit(bytecode.Return, 0, 0, 0)
	fn.Code = ch
	fn.Arity = 1
	fn.MaxSlots = 2
	fn.Module = c.module
	return fn
}

// methodSignatureAndBody parses a method's selector (plain name,
// setter, subscript, or operator) and its parameter list, then
// compiles the body in a fresh child compiler, returning the
// resolved name/arity/symbol and the still-open child (the caller
// finishes it so constructors and regular methods share one path).
func (c *Compiler) methodSignatureAndBody(static bool) (name string, arity int, sym int, child *Compiler) {
	var selector string
	var isSetter, isSubscript bool

	switch {
	case c.check(lexer.LBracket):
		c.lex.Advance()
		isSubscript = true
	case isOperatorToken(c.lex.Cur.Type):
		selector = operatorLexeme(c.lex.Cur.Type)
		c.lex.Advance()
	default:
		tok := c.expect(lexer.Ident, "expected a method name")
		selector = tok.Literal
	}

	child = c.childCompiler(typeMethod, selector)
	child.currentMethodBaseName = selector

	switch {
	case isSubscript:
		arity = child.paramList(lexer.RBracket)
		if c.match(lexer.Assign) {
			isSetter = true
			child.expect(lexer.LParen, "expected '(' for a subscript setter value parameter")
			valTok := child.expect(lexer.Ident, "expected the setter's value parameter name")
			child.addLocal(valTok.Literal)
			child.expect(lexer.RParen, "expected ')' after subscript setter parameter")
			arity++
		}
	case c.check(lexer.Assign):
		c.lex.Advance()
		isSetter = true
		child.expect(lexer.LParen, "expected '(' after '=' in a setter")
		valTok := child.expect(lexer.Ident, "expected the setter's value parameter name")
		child.addLocal(valTok.Literal)
		child.expect(lexer.RParen, "expected ')' after setter parameter")
		arity = 1
	case c.check(lexer.LParen):
		c.lex.Advance()
		arity = child.paramList(lexer.RParen)
	default:
		arity = 0
	}

	child.beginScope()
	child.block()
	child.endScope()

	switch {
	case isSubscript && isSetter:
		sym = c.world.Syms.Symbol(SubscriptSetSignature(arity - 1))
		name = "[]="
	case isSubscript:
		sym = c.world.Syms.Symbol(SubscriptGetSignature(arity))
		name = "[]"
	case isSetter:
		sym = c.world.Syms.Symbol(SetterSignature(selector))
		name = selector + "="
	default:
		sym = c.world.Syms.Symbol(CallSignature(selector, arity))
		name = selector
	}
	return name, arity, sym, child
}

// paramList compiles `(a, b, c)` up to and including closing,
// declaring each as a local of the current (method/function) frame.
func (c *Compiler) paramList(closing lexer.TokenType) int {
	arity := 0
	if !c.check(closing) {
		for {
			tok := c.expect(lexer.Ident, "expected a parameter name")
			if arity >= MaxParameters {
				c.errorAt(tok, "a method may not declare more than %d parameters", MaxParameters)
			} else {
				c.addLocal(tok.Literal)
			}
			arity++
			if !c.match(lexer.Comma) {
				break
			}
		}
	}
	c.expect(closing, "expected closing token after parameter list")
	return arity
}

// compileFunctionBody compiles a `tii (params) { body }` literal (or
// named declaration) in a fresh child frame.
func (c *Compiler) compileFunctionBody(ft funcType, name string) (*value.Function, []upvalRef) {
	c.expect(lexer.LParen, "expected '(' after 'tii'")
	child := c.childCompiler(ft, name)
	arity := child.paramList(lexer.RParen)
	child.beginScope()
	child.block()
	child.endScope()
	fn, upvalues := child.finishFunction()
	fn.Arity = arity
	return fn, upvalues
}

func isOperatorToken(t lexer.TokenType) bool {
	switch t {
	case lexer.Plus, lexer.Minus, lexer.Star, lexer.Slash, lexer.Percent,
		lexer.Amp, lexer.Pipe, lexer.Caret, lexer.Tilde, lexer.Shl, lexer.Shr,
		lexer.Eq, lexer.NotEq, lexer.Lt, lexer.LtEq, lexer.Gt, lexer.GtEq, lexer.Bang:
		return true
	}
	return false
}

func operatorLexeme(t lexer.TokenType) string { return binaryOpNameOrUnary(t) }

func binaryOpNameOrUnary(t lexer.TokenType) string {
	switch t {
	case lexer.Bang:
		return "!"
	case lexer.Tilde:
		return "~"
	}
	return binaryOpName(t)
}

// compileSuperCall compiles `faa.name(args)` / `faa.name` after the
// receiver (`this`) has already been pushed by superExpr.
func (c *Compiler) compileSuperCall() {
	tok := c.expect(lexer.Ident, "expected a method name after 'faa.'")
	if c.check(lexer.LParen) {
		c.lex.Advance()
		_, arity := c.argumentList(lexer.RParen)
		sym := c.world.Syms.Symbol(CallSignature(tok.Literal, arity))
		c.emitSuperSym(sym, arity)
		return
	}
	sym := c.world.Syms.Symbol(CallSignature(tok.Literal, 0))
	c.emitSuperSym(sym, 0)
}
