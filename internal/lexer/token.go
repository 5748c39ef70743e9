// Package lexer turns UTF-8 source text into a stream of tokens for
// the compiler's three-token lookahead window (SPEC_FULL §4.1).
//
// This generalizes the teacher's pkg/lexer/lexer.go — same New/
// readChar/peekChar/skipWhitespace idiom — from its byte-oriented
// single-char design to the full surface the specification requires:
// UTF-8 identifiers, hex/binary/octal numbers, escapes, raw and
// interpolated strings, and nested block comments.
package lexer

// TokenType classifies a lexeme.
type TokenType int

const (
	EOF TokenType = iota
	Error

	Ident
	Number
	String
	RawString
	InterpStart // "...$  or "...${  fragment, more interpolation follows
	InterpMid   // }...$ or }...${ fragment between interpolated expressions
	InterpEnd   // }..." final fragment, closes the string

	Newline

	// Punctuation / operators
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Comma
	Dot
	DotDot
	DotDotDot
	Colon
	Semicolon
	Plus
	Minus
	Star
	Slash
	Percent
	Amp
	Pipe
	Caret
	Tilde
	Shl
	Shr
	Assign
	Eq
	NotEq
	Lt
	LtEq
	Gt
	GtEq
	AndAnd
	OrOr
	Bang
	Question

	// Keywords
	KwVar
	KwFn
	KwClass
	KwIs
	KwInit
	KwStatic
	KwFor
	KwIn
	KwUp
	KwDown
	KwThen
	KwWhile
	KwIf
	KwElse
	KwWhen
	KwReturn
	KwBreak
	KwContinue
	KwThrow
	KwCatch
	KwBecause
	KwImport
	KwFrom
	KwAs
	KwForeign
	KwThis
	KwSuper
	KwDo
	KwNull
	KwVoid
	KwTrue
	KwFalse
)

// Token is one lexeme plus its source location.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	// NestDepth is reserved for the interpolation-brace nesting depth;
	// the lexer does not set it, so it is always zero. The depth limit
	// (MaxInterpolationNesting) is enforced inside the lexer itself.
	NestDepth int
}

var keywords = map[string]TokenType{
	"nin":     KwVar,
	"tii":     KwFn,
	"kulu":    KwClass,
	"ye":      KwIs,
	"dilan":   KwInit,
	"dialen":  KwStatic,
	"seginka": KwFor,
	"kono":    KwIn,
	"kay":     KwUp,
	"kaj":     KwDown,
	"niin":    KwThen,
	"foo":     KwWhile,
	"nii":     KwIf,
	"note":    KwElse,
	"tumamin": KwWhen,
	"segin":   KwReturn,
	"atike":   KwBreak,
	"ipan":    KwContinue,
	"afili":   KwThrow,
	"namason": KwCatch,
	"bawo":    KwBecause,
	"nani":    KwImport,
	"kabo":    KwFrom,
	"inafo":   KwAs,
	"dunan":   KwForeign,
	"ale":     KwThis,
	"faa":     KwSuper,
	"ake":     KwDo,
	"gansan":  KwNull,
	"foyi":    KwVoid,
	"tien":    KwTrue,
	"galon":   KwFalse,
}

// LookupIdent classifies word as a keyword token type, or Ident if it
// is not one of the reserved words above.
func LookupIdent(word string) TokenType {
	if t, ok := keywords[word]; ok {
		return t
	}
	return Ident
}
