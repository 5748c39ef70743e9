package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectTypes(src string) []TokenType {
	l := New("test", src)
	var out []TokenType
	for l.Cur.Type != EOF {
		out = append(out, l.Cur.Type)
		l.Advance()
	}
	return out
}

func TestKeywordsAndIdents(t *testing.T) {
	types := collectTypes("nin x tii foo")
	assert.Equal(t, []TokenType{KwVar, Ident, KwFn, KwWhile}, types)
}

func TestNumberLiterals(t *testing.T) {
	l := New("test", "0x1F 0b101 0o17 3.14 2e3")
	var lits []string
	for l.Cur.Type != EOF {
		if l.Cur.Type == Number {
			lits = append(lits, l.Cur.Literal)
		}
		l.Advance()
	}
	require.Len(t, lits, 5)
	n, err := ParseNumber(lits[0])
	require.NoError(t, err)
	assert.Equal(t, float64(31), n)

	n, err = ParseNumber(lits[1])
	require.NoError(t, err)
	assert.Equal(t, float64(5), n)

	n, err = ParseNumber(lits[2])
	require.NoError(t, err)
	assert.Equal(t, float64(15), n)
}

func TestStringEscapes(t *testing.T) {
	l := New("test", `"line1\nline2\x41"`)
	require.Equal(t, String, l.Cur.Type)
	assert.Equal(t, "line1\nline2A", l.Cur.Literal)
}

func TestRawString(t *testing.T) {
	l := New("test", "\"\"\"\n  hello\n  world\n\"\"\"")
	require.Equal(t, RawString, l.Cur.Type)
	assert.Equal(t, "  hello\n  world", l.Cur.Literal)
}

func TestNestedBlockComments(t *testing.T) {
	l := New("test", "/* outer /* inner */ still outer */ nin")
	assert.Equal(t, KwVar, l.Cur.Type)
}

func TestThreeTokenWindow(t *testing.T) {
	l := New("test", "nin x tii")
	assert.Equal(t, KwVar, l.Cur.Type)
	assert.Equal(t, Ident, l.Next.Type)
	l.Advance()
	assert.Equal(t, KwVar, l.Prev.Type)
	assert.Equal(t, Ident, l.Cur.Type)
	assert.Equal(t, KwFn, l.Next.Type)
}

func TestSimpleInterpolation(t *testing.T) {
	l := New("test", `"hello ${name}!"`)
	require.Equal(t, InterpStart, l.Cur.Type)
	assert.Equal(t, "hello ", l.Cur.Literal)
	l.Advance()
	require.Equal(t, Ident, l.Cur.Type)
	assert.Equal(t, "name", l.Cur.Literal)
	l.Advance()
	require.Equal(t, InterpEnd, l.Cur.Type)
	assert.Equal(t, "!", l.Cur.Literal)
}
