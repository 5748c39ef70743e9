package bytecode

import "github.com/mosclang/mosc/internal/value"

// Instruction is one decoded bytecode instruction. The teacher's
// format (pkg/bytecode/bytecode.go) used a single Opcode+Operand int
// pair; this generalizes that to two operand fields, which is enough
// for every opcode in §4.3's table without resorting to a raw
// variable-length byte stream (a struct-of-instructions array is the
// teacher's idiom and keeps the disassembler and interpreter simple).
//
// Field meaning by opcode:
//   - Constant/LoadModuleVar/StoreModuleVar/Closure: A = constant/symbol index
//   - LoadLocal/StoreLocal/LoadField/StoreField/LoadFieldThis/StoreFieldThis: A = slot/field index
//   - LoadUpvalue/StoreUpvalue: A = upvalue index
//   - Call0..16/Super0..16: A = method symbol (B unused)
//   - Call/Super (generic): A = method symbol, B = argument count
//   - Jump/JumpIfFalse/Loop/And/Or: A = target instruction index
//   - MethodInstance/MethodStatic: A = method symbol, B = function constant index
//   - Class_/ExternClass: A = name constant index, B = declared field count
//   - Construct/ExternConstruct: A = init method symbol, B = argument count
type Instruction struct {
	Op   Opcode
	A    int
	B    int
	Line int
}

// Chunk is a complete compiled function body: its instructions and its
// constant pool (§4.2, §4.3). It corresponds to the teacher's
// Bytecode type, generalized to hold value.Value constants (which may
// themselves be nested *value.Function objects for closures) instead
// of bare interface{}.
type Chunk struct {
	Instructions []Instruction
	Constants    []value.Value
	MaxSlots     int
}

// AddConstant interns v by value-equality (constants are per-function,
// capped at 65536 entries per §4.2) and returns its index.
func (c *Chunk) AddConstant(v value.Value) int {
	for i, existing := range c.Constants {
		if value.Equal(existing, v) {
			return i
		}
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// Emit appends an instruction and returns its index (useful for
// back-patching jump targets).
func (c *Chunk) Emit(op Opcode, a, b, line int) int {
	c.Instructions = append(c.Instructions, Instruction{Op: op, A: a, B: b, Line: line})
	return len(c.Instructions) - 1
}

// PatchTarget rewrites the jump target of the instruction at idx. Used
// once the real destination (end of an if/loop/break) is known.
func (c *Chunk) PatchTarget(idx, target int) {
	c.Instructions[idx].A = target
}
