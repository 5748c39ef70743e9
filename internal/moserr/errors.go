// Package moserr generalizes the teacher's pkg/vm/errors.go into the
// full error taxonomy SPEC_FULL §7 requires: compile errors accumulated
// during parsing, and runtime errors that carry both a raised Value and
// a stack trace instead of only a formatted string.
package moserr

import (
	"fmt"

	"github.com/mosclang/mosc/internal/value"
)

// Result mirrors an embedding host's view of how an interpretation
// attempt ended (§6, §7).
type Result byte

const (
	ResultSuccess Result = iota
	ResultCompileError
	ResultRuntimeError
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultCompileError:
		return "compile error"
	case ResultRuntimeError:
		return "runtime error"
	default:
		return "unknown result"
	}
}

// CompileError is one diagnostic produced by the lexer/parser/compiler.
// Unlike a runtime error, it never aborts compilation outright except
// for the function currently being compiled (§4.1: "a single error
// poisons the resulting function").
type CompileError struct {
	Module  string
	Line    int
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Module, e.Line, e.Message)
}

// Frame is one entry of a runtime error's stack trace, innermost
// first, matching the teacher's StackFrame shape.
type Frame struct {
	Module   string
	Name     string
	Line     int
	IsNative bool
}

func (f Frame) String() string {
	if f.IsNative {
		return fmt.Sprintf("%s (native)", f.Name)
	}
	return fmt.Sprintf("%s.%s line %d", f.Module, f.Name, f.Line)
}

// RuntimeError is the error a fiber carries once aborted (§4.5, §7).
// It implements the error interface so it composes with errors.Is/As
// and embedding-boundary wrapping, while still carrying the original
// raised Value (which may be any object, not only a string).
type RuntimeError struct {
	Value  value.Value
	Frames []Frame
}

func New(v value.Value) *RuntimeError {
	return &RuntimeError{Value: v}
}

func (e *RuntimeError) Error() string {
	return value.String(e.Value)
}

// WithFrame appends a stack frame, innermost-first, matching how the
// interpreter unwinds a fiber's call-frame stack on abort.
func (e *RuntimeError) WithFrame(f Frame) *RuntimeError {
	e.Frames = append(e.Frames, f)
	return e
}
