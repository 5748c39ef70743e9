package compiler

import "github.com/dolthub/swiss"

// MethodSymbols is the VM-global, append-only table mapping a method
// signature string (e.g. "foo(_,_)", "=(_)", "[_]", "init foo(_)") to
// a small integer used as the index into every class's method table
// (§4.2, §4.7). It is shared by every Compiler instance compiling
// against the same VM, and by the interpreter and core-library
// bootstrap when they bind primitives.
type MethodSymbols struct {
	index *swiss.Map[string, int]
	names []string
}

// NewMethodSymbols creates an empty, VM-global symbol table.
func NewMethodSymbols() *MethodSymbols {
	return &MethodSymbols{index: swiss.NewMap[string, int](64)}
}

// Symbol interns signature, returning its (possibly newly assigned)
// index. This table only grows; it is never compacted.
func (s *MethodSymbols) Symbol(signature string) int {
	if idx, ok := s.index.Get(signature); ok {
		return idx
	}
	idx := len(s.names)
	s.index.Put(signature, idx)
	s.names = append(s.names, signature)
	return idx
}

// Lookup returns the index of signature without creating one.
func (s *MethodSymbols) Lookup(signature string) (int, bool) {
	return s.index.Get(signature)
}

// Name returns the signature string a symbol was interned from,
// for disassembly/error messages.
func (s *MethodSymbols) Name(symbol int) string {
	if symbol >= 0 && symbol < len(s.names) {
		return s.names[symbol]
	}
	return "?"
}
