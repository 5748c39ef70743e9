// Package vm implements the tight-loop bytecode interpreter, the
// cooperative fiber scheduler, and the tri-color mark-sweep garbage
// collector (SPEC_FULL §4.4, §4.5, §4.6).
//
// This generalizes the teacher's pkg/vm/vm.go call-frame and stack
// idioms from its small hand-rolled primitive table to the full
// closure/class/fiber object model value.Fiber/value.Closure
// describe, following original_source/src/vm/VM.c for call-frame
// rebasing and upvalue-closing semantics where spec.md is silent.
package vm

import (
	"github.com/mosclang/mosc/internal/bytecode"
	"github.com/mosclang/mosc/internal/value"
)

// pushFrame starts executing closure on fiber with its arguments
// already sitting on top of the stack (receiver included at index 0
// of the new frame's window).
func pushFrame(fiber *value.Fiber, closure *value.Closure, stackStart int) {
	fiber.Frames = append(fiber.Frames, value.CallFrame{
		Closure:    closure,
		StackStart: stackStart,
	})
	needed := stackStart + closure.Fn.MaxSlots
	for len(fiber.Stack) < needed {
		fiber.Stack = append(fiber.Stack, value.NullVal())
	}
}

// captureUpvalue finds or creates the open upvalue pointing at slot,
// splicing a new node into the fiber's descending-stack-address
// ordered open-upvalue list (§4.4/§9) so two closures that capture the
// same local share one Upvalue object.
func captureUpvalue(arena *value.Arena, fiber *value.Fiber, slot int) *value.Upvalue {
	var prev *value.Upvalue
	cur := fiber.OpenUpvals
	for cur != nil && cur.SlotIndex > slot {
		prev = cur
		cur = cur.NextOpen
	}
	if cur != nil && cur.SlotIndex == slot {
		return cur
	}
	created := arena.NewUpvalue(fiber, slot, nil)
	created.NextOpen = cur
	if prev == nil {
		fiber.OpenUpvals = created
	} else {
		prev.NextOpen = created
	}
	return created
}

// closeUpvalues closes every open upvalue at or above fromSlot,
// copying the live stack value into the Upvalue so it survives the
// frame/scope popping that follows.
func closeUpvalues(fiber *value.Fiber, fromSlot int) {
	for fiber.OpenUpvals != nil && fiber.OpenUpvals.SlotIndex >= fromSlot {
		uv := fiber.OpenUpvals
		uv.Closed = fiber.Stack[uv.SlotIndex]
		uv.IsClosed = true
		fiber.OpenUpvals = uv.NextOpen
		uv.NextOpen = nil
	}
}

func chunkOf(fn *value.Function) *bytecode.Chunk {
	return fn.Code.(*bytecode.Chunk)
}
