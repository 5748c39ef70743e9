package bytecode

import (
	"fmt"
	"io"

	"github.com/mosclang/mosc/internal/value"
)

// Disassemble writes a human-readable listing of chunk to w, one line
// per instruction. This adapts the teacher's
// pkg/vm/debugger.go:formatInstructionOperand/listInstructions into a
// standalone, VM-independent tool that cmd/mosc's `disasm` subcommand
// exercises directly, instead of only being reachable from inside a
// paused interactive debugger.
func Disassemble(w io.Writer, name string, chunk *Chunk) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for i, inst := range chunk.Instructions {
		fmt.Fprintf(w, "%4d  line %-4d %-18s", i, inst.Line, inst.Op)
		switch inst.Op {
		case Constant, LoadModuleVar, StoreModuleVar, Closure:
			fmt.Fprintf(w, " %d", inst.A)
			if inst.A < len(chunk.Constants) {
				fmt.Fprintf(w, " (%s)", value.String(chunk.Constants[inst.A]))
			}
		case Call, Super:
			fmt.Fprintf(w, " symbol=%d argc=%d", inst.A, inst.B)
		case MethodInstance, MethodStatic:
			fmt.Fprintf(w, " symbol=%d fn=%d", inst.A, inst.B)
		default:
			if arity, ok := IsCallFixed(inst.Op); ok {
				fmt.Fprintf(w, " symbol=%d argc=%d", inst.A, arity)
			} else if arity, ok := IsSuperFixed(inst.Op); ok {
				fmt.Fprintf(w, " symbol=%d argc=%d", inst.A, arity)
			} else if inst.A != 0 || inst.B != 0 {
				fmt.Fprintf(w, " %d %d", inst.A, inst.B)
			}
		}
		fmt.Fprintln(w)
	}
	for i, k := range chunk.Constants {
		if k.IsObj() && k.AsObj().Type == value.ObjFunction {
			fn := k.AsObj().Body().(*value.Function)
			if sub, ok := fn.Code.(*Chunk); ok {
				fmt.Fprintf(w, "-- nested function constants[%d] (%s) --\n", i, fn.Name)
				Disassemble(w, fn.Name, sub)
			}
		}
	}
}
