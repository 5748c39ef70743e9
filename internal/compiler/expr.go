package compiler

import (
	"github.com/mosclang/mosc/internal/bytecode"
	"github.com/mosclang/mosc/internal/lexer"
	"github.com/mosclang/mosc/internal/value"
)

// precedence mirrors the teacher's pkg/parser precedence table,
// widened with the operator-method rows the specification's grammar
// adds (bitwise, range, is).
type precedence int

const (
	precNone precedence = iota
	precAssignment
	precConditional // ?:
	precLogicOr
	precLogicAnd
	precEquality
	precIs // ye
	precComparison
	precBitOr
	precBitXor
	precBitAnd
	precBitShift
	precRange // ..  ...
	precTerm
	precFactor
	precUnary
	precCall
	precPrimary
)

type parseRule struct {
	prefix     func(c *Compiler, canAssign bool)
	infix      func(c *Compiler, canAssign bool)
	precedence precedence
}

var rules map[lexer.TokenType]parseRule

func init() {
	rules = map[lexer.TokenType]parseRule{
		lexer.LParen:    {prefix: grouping, infix: call, precedence: precCall},
		lexer.LBracket:  {prefix: listLiteral, infix: subscript, precedence: precCall},
		lexer.LBrace:    {prefix: mapOrBlockLiteral},
		lexer.Dot:       {infix: dotCall, precedence: precCall},
		lexer.DotDot:    {infix: rangeOp, precedence: precRange},
		lexer.DotDotDot: {infix: rangeOp, precedence: precRange},

		lexer.Minus:  {prefix: unary, infix: binary, precedence: precTerm},
		lexer.Plus:   {prefix: unary, infix: binary, precedence: precTerm},
		lexer.Star:   {infix: binary, precedence: precFactor},
		lexer.Slash:  {infix: binary, precedence: precFactor},
		lexer.Percent: {infix: binary, precedence: precFactor},

		lexer.Amp:   {infix: binary, precedence: precBitAnd},
		lexer.Pipe:  {infix: binary, precedence: precBitOr},
		lexer.Caret: {infix: binary, precedence: precBitXor},
		lexer.Shl:   {infix: binary, precedence: precBitShift},
		lexer.Shr:   {infix: binary, precedence: precBitShift},
		lexer.Tilde: {prefix: unary},
		lexer.Bang:  {prefix: unary},

		lexer.Eq:    {infix: binary, precedence: precEquality},
		lexer.NotEq: {infix: binary, precedence: precEquality},
		lexer.Lt:    {infix: binary, precedence: precComparison},
		lexer.LtEq:  {infix: binary, precedence: precComparison},
		lexer.Gt:    {infix: binary, precedence: precComparison},
		lexer.GtEq:  {infix: binary, precedence: precComparison},

		lexer.AndAnd: {infix: logicAnd, precedence: precLogicAnd},
		lexer.OrOr:   {infix: logicOr, precedence: precLogicOr},
		lexer.KwIs:   {infix: isOp, precedence: precIs},
		lexer.Question: {infix: conditional, precedence: precConditional},

		lexer.Ident:     {prefix: variable},
		lexer.Number:    {prefix: number},
		lexer.String:    {prefix: stringLit},
		lexer.RawString: {prefix: rawStringLit},
		lexer.InterpStart: {prefix: interpolatedString},
		lexer.KwTrue:    {prefix: literalTrue},
		lexer.KwFalse:   {prefix: literalFalse},
		lexer.KwNull:    {prefix: literalNull},
		lexer.KwVoid:    {prefix: literalVoid},
		lexer.KwThis:    {prefix: thisExpr},
		lexer.KwSuper:   {prefix: superExpr},
		lexer.KwFn:      {prefix: fnLiteral},
	}
}

func (c *Compiler) getRule(t lexer.TokenType) parseRule { return rules[t] }

// expression parses with precAssignment as the floor, which is the
// entry point for every expression context.
func (c *Compiler) expression() { c.parsePrecedence(precAssignment) }

func (c *Compiler) parsePrecedence(prec precedence) {
	tok := c.lex.Cur
	rule := c.getRule(tok.Type)
	if rule.prefix == nil {
		c.errorAt(tok, "expected an expression")
		c.lex.Advance()
		return
	}
	c.lex.Advance()
	canAssign := prec <= precAssignment
	rule.prefix(c, canAssign)

	for prec <= c.getRule(c.lex.Cur.Type).precedence {
		infixTok := c.lex.Cur
		infixRule := c.getRule(infixTok.Type)
		if infixRule.infix == nil {
			break
		}
		c.lex.Advance()
		infixRule.infix(c, canAssign)
	}

	if canAssign && c.check(lexer.Assign) {
		c.errorAt(c.lex.Cur, "invalid assignment target")
	}
}

// --- literals ---------------------------------------------------------------

func number(c *Compiler, _ bool) {
	n, err := lexer.ParseNumber(c.lex.Prev.Literal)
	if err != nil {
		c.errorAt(c.lex.Prev, "invalid number literal '%s'", c.lex.Prev.Literal)
	}
	c.emit(bytecode.Constant, c.constant(value.NumVal(n)), 0)
}

func (c *Compiler) stringConstant(s string) value.Value {
	return value.ObjVal(&c.world.Arena.NewString(s, nil).Obj)
}

func stringLit(c *Compiler, _ bool) {
	c.emit(bytecode.Constant, c.constant(c.stringConstant(c.lex.Prev.Literal)), 0)
}

func rawStringLit(c *Compiler, _ bool) {
	c.emit(bytecode.Constant, c.constant(c.stringConstant(c.lex.Prev.Literal)), 0)
}

// interpolatedString compiles the InterpStart/InterpMid.../InterpEnd
// token sequence the lexer produces for `"a ${b} c ${d} e"` into a
// chain of string concatenation sends (`+(_)`). Every InterpStart/
// InterpMid fragment carries prefix text followed by an embedded
// expression; a `$ident` fragment embeds that identifier directly in
// its Literal (sentinel "\x00IDENT:") instead of as separate tokens,
// since the lexer never emits a matching '}' for that shorthand.
// InterpEnd carries only trailing text and ends the chain.
func interpolatedString(c *Compiler, _ bool) {
	const sentinel = "\x00IDENT:"
	plusSym := c.world.Syms.Symbol(CallSignature("+", 1))

	c.emit(bytecode.Constant, c.constant(c.stringConstant("")), 0)
	frag := c.lex.Prev
	for {
		prefix, ident := frag.Literal, ""
		if i := indexOf(frag.Literal, sentinel); i >= 0 {
			prefix, ident = frag.Literal[:i], frag.Literal[i+len(sentinel):]
		}
		c.emit(bytecode.Constant, c.constant(c.stringConstant(prefix)), 0)
		c.emit(bytecode.Call1, plusSym, 0)

		if frag.Type == lexer.InterpEnd {
			break
		}
		if ident != "" {
			c.emitVariable(ident, frag.Line)
		} else {
			c.expression()
		}
		c.emit(bytecode.Call1, plusSym, 0)

		frag = c.lex.Cur
		c.lex.Advance()
	}
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func literalTrue(c *Compiler, _ bool)  { c.emit(bytecode.True, 0, 0) }
func literalFalse(c *Compiler, _ bool) { c.emit(bytecode.False, 0, 0) }
func literalNull(c *Compiler, _ bool)  { c.emit(bytecode.Null, 0, 0) }
func literalVoid(c *Compiler, _ bool)  { c.emit(bytecode.Void, 0, 0) }

func thisExpr(c *Compiler, _ bool) {
	if c.class == nil {
		c.errorAt(c.lex.Prev, "cannot use 'ale' outside of a method")
	}
	c.emit(bytecode.PushThis, 0, 0)
}

func superExpr(c *Compiler, _ bool) {
	if c.class == nil {
		c.errorAt(c.lex.Prev, "cannot use 'faa' outside of a method")
		return
	}
	// `faa` pushes `this`; a following `(args)` compiles here as a
	// super call with the enclosing method's name, and `.name(args)`
	// compiles through compileSuperCall.
	c.emit(bytecode.PushThis, 0, 0)
	if c.check(lexer.LParen) {
		c.lex.Advance()
		args, arity := c.argumentList(lexer.RParen)
		_ = args
		c.emitSuperSym(c.world.Syms.Symbol(CallSignature(c.currentMethodBaseName, arity)), arity)
		return
	}
	if c.match(lexer.Dot) {
		c.compileSuperCall()
	}
}

func variable(c *Compiler, canAssign bool) {
	name := c.lex.Prev.Literal
	line := c.lex.Prev.Line

	if canAssign && c.check(lexer.Assign) {
		c.lex.Advance()
		c.expression()
		c.emitStoreVariable(name, line)
		return
	}
	c.emitVariable(name, line)
}

func grouping(c *Compiler, _ bool) {
	c.skipNewlines()
	c.expression()
	c.skipNewlines()
	c.expect(lexer.RParen, "expected ')' after expression")
}

func fnLiteral(c *Compiler, _ bool) {
	fn, upvalues := c.compileFunctionBody(typeFunction, "")
	c.emitClosure(fn, upvalues)
}

// --- operators ---------------------------------------------------------------

func unary(c *Compiler, _ bool) {
	opTok := c.lex.Prev
	c.parsePrecedence(precUnary)
	var sym int
	switch opTok.Type {
	case lexer.Minus:
		sym = c.world.Syms.Symbol(CallSignature("-", 0))
	case lexer.Plus:
		sym = c.world.Syms.Symbol(CallSignature("+", 0))
	case lexer.Bang:
		sym = c.world.Syms.Symbol(CallSignature("!", 0))
	case lexer.Tilde:
		sym = c.world.Syms.Symbol(CallSignature("~", 0))
	}
	c.emitCallSym(sym, 0)
}

func binary(c *Compiler, _ bool) {
	opTok := c.lex.Prev
	rule := c.getRule(opTok.Type)
	c.parsePrecedence(rule.precedence + 1)
	name := binaryOpName(opTok.Type)
	sym := c.world.Syms.Symbol(CallSignature(name, 1))
	c.emitCallSym(sym, 1)
}

func binaryOpName(t lexer.TokenType) string {
	switch t {
	case lexer.Plus:
		return "+"
	case lexer.Minus:
		return "-"
	case lexer.Star:
		return "*"
	case lexer.Slash:
		return "/"
	case lexer.Percent:
		return "%"
	case lexer.Amp:
		return "&"
	case lexer.Pipe:
		return "|"
	case lexer.Caret:
		return "^"
	case lexer.Shl:
		return "<<"
	case lexer.Shr:
		return ">>"
	case lexer.Eq:
		return "=="
	case lexer.NotEq:
		return "!="
	case lexer.Lt:
		return "<"
	case lexer.LtEq:
		return "<="
	case lexer.Gt:
		return ">"
	case lexer.GtEq:
		return ">="
	}
	return "?"
}

func logicAnd(c *Compiler, _ bool) {
	jump := c.emitJump(bytecode.And)
	c.parsePrecedence(precLogicAnd)
	c.patchJump(jump)
}

func logicOr(c *Compiler, _ bool) {
	jump := c.emitJump(bytecode.Or)
	c.parsePrecedence(precLogicOr)
	c.patchJump(jump)
}

func isOp(c *Compiler, _ bool) {
	c.parsePrecedence(precIs + 1)
	sym := c.world.Syms.Symbol(CallSignature("is", 1))
	c.emitCallSym(sym, 1)
}

func conditional(c *Compiler, _ bool) {
	thenJump := c.emitJump(bytecode.JumpIfFalse)
	c.emit(bytecode.Pop, 0, 0)
	c.parsePrecedence(precConditional)
	elseJump := c.emitJump(bytecode.Jump)
	c.patchJump(thenJump)
	c.emit(bytecode.Pop, 0, 0)
	c.expect(lexer.Colon, "expected ':' in conditional expression")
	c.parsePrecedence(precConditional)
	c.patchJump(elseJump)
}

func rangeOp(c *Compiler, _ bool) {
	inclusive := c.lex.Prev.Type == lexer.DotDot
	c.parsePrecedence(precRange + 1)
	if inclusive {
		c.emit(bytecode.MakeRange, 1, 0)
	} else {
		c.emit(bytecode.MakeRange, 0, 0)
	}
}

// --- calls / subscript / field access ---------------------------------------

// argumentList compiles a comma-separated list of expressions up to
// (and consuming) the closing token, returning the count compiled.
func (c *Compiler) argumentList(closing lexer.TokenType) (placeholder, arity int) {
	c.skipNewlines()
	if c.check(closing) {
		c.lex.Advance()
		return 0, 0
	}
	for {
		c.skipNewlines()
		c.expression()
		arity++
		c.skipNewlines()
		if !c.match(lexer.Comma) {
			break
		}
	}
	c.skipNewlines()
	c.expect(closing, "expected closing token after arguments")
	return 0, arity
}

// call compiles a bare `(args)` applied to a preceding value (used
// only for a parenthesized call expression like a stored closure
// invoked via its "call" selector sugar).
func call(c *Compiler, _ bool) {
	_, arity := c.argumentList(lexer.RParen)
	sym := c.world.Syms.Symbol(CallSignature("call", arity))
	c.emitCallSym(sym, arity)
}

// dotCall compiles `.name`, `.name(args)`, `.name = value`, operator
// sends, and `.dilan(args)` (construct syntax) message sends.
func dotCall(c *Compiler, canAssign bool) {
	if c.check(lexer.KwInit) {
		nameTok := c.lex.Cur
		c.lex.Advance()
		c.expect(lexer.LParen, "expected '(' after 'dilan'")
		_, arity := c.argumentList(lexer.RParen)
		sym := c.world.Syms.Symbol(InitSignature("", arity))
		_ = nameTok
		c.emit(bytecode.Construct, sym, arity)
		return
	}
	nameTok := c.expect(lexer.Ident, "expected a method name after '.'")
	name := nameTok.Literal

	if canAssign && c.check(lexer.Assign) {
		c.lex.Advance()
		c.expression()
		sym := c.world.Syms.Symbol(SetterSignature(name))
		c.emitCallSym(sym, 1)
		return
	}
	if c.check(lexer.LParen) {
		c.lex.Advance()
		_, arity := c.argumentList(lexer.RParen)
		sym := c.world.Syms.Symbol(CallSignature(name, arity))
		c.emitCallSym(sym, arity)
		return
	}
	sym := c.world.Syms.Symbol(CallSignature(name, 0))
	c.emitCallSym(sym, 0)
}

func subscript(c *Compiler, canAssign bool) {
	_, arity := c.argumentList(lexer.RBracket)
	if canAssign && c.check(lexer.Assign) {
		c.lex.Advance()
		c.expression()
		sym := c.world.Syms.Symbol(SubscriptSetSignature(arity))
		c.emitCallSym(sym, arity+1)
		return
	}
	sym := c.world.Syms.Symbol(SubscriptGetSignature(arity))
	c.emitCallSym(sym, arity)
}

func listLiteral(c *Compiler, _ bool) {
	c.skipNewlines()
	count := 0
	for !c.check(lexer.RBracket) {
		c.expression()
		count++
		c.skipNewlines()
		if !c.match(lexer.Comma) {
			break
		}
		c.skipNewlines()
	}
	c.expect(lexer.RBracket, "expected ']' to close a list literal")
	c.emit(bytecode.MakeList, count, 0)
}

// mapOrBlockLiteral compiles a `{}` primary expression: an empty or
// populated map literal `{key: value, ...}`.
func mapOrBlockLiteral(c *Compiler, _ bool) {
	c.skipNewlines()
	count := 0
	for !c.check(lexer.RBrace) {
		c.expression()
		c.expect(lexer.Colon, "expected ':' between map key and value")
		c.skipNewlines()
		c.expression()
		count++
		c.skipNewlines()
		if !c.match(lexer.Comma) {
			break
		}
		c.skipNewlines()
	}
	c.expect(lexer.RBrace, "expected '}' to close a map literal")
	c.emit(bytecode.MakeMap, count, 0)
}
