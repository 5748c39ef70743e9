package api

import (
	"strings"

	"github.com/mosclang/mosc/internal/value"
)

// Handle pins a value against garbage collection for as long as a
// host holds onto it (§6's make_handle/release_handle). Release must
// be called exactly once; a Handle used after Release is a bug on the
// host's part, same as the spec's C-facing contract.
type Handle struct {
	val   value.Value
	pins  *VM
	freed bool
}

// MakeHandle pins the value in slot and returns a Handle for it.
func (v *VM) MakeHandle(slot int) *Handle {
	val := v.slots[slot]
	v.Machine.Pin(val)
	return &Handle{val: val, pins: v}
}

// ReleaseHandle unpins h. A released handle must not be used again.
func (v *VM) ReleaseHandle(h *Handle) {
	if h.freed {
		return
	}
	h.pins.Machine.Unpin(h.val)
	h.freed = true
}

// SetSlotFromHandle writes h's pinned value into slot, for passing a
// previously captured value back into a new call.
func (v *VM) SetSlotFromHandle(slot int, h *Handle) {
	v.slots[slot] = h.val
}

// CallHandle is a reusable binding to a method signature (§6's
// make_call_handle), interned once against the VM's method-symbol
// table and invoked many times without re-resolving the signature
// string to a symbol on every call.
type CallHandle struct {
	symbol int
	arity  int
}

// MakeCallHandle interns signature (e.g. "foo(_,_)") against the VM's
// method-symbol table.
func (v *VM) MakeCallHandle(signature string) *CallHandle {
	return &CallHandle{symbol: v.World.Syms.Symbol(signature), arity: signatureArity(signature)}
}

// Call invokes handle with the receiver in slot 0 and arguments in
// slots 1..arity; the result is left in slot 0 afterward (§6's
// call(handle)).
func (v *VM) Call(handle *CallHandle) error {
	v.EnsureSlots(handle.arity + 1)

	fiber := v.Machine.Arena.NewFiber(v.Machine.Core.FiberClass)
	fiber.Stack = append(fiber.Stack, v.slots[:handle.arity+1]...)

	v.Machine.Send(fiber, handle.symbol, handle.arity)
	result, rerr := v.Machine.Interpret(fiber)
	if rerr != nil {
		return rerr
	}
	v.slots[0] = result
	return nil
}

// signatureArity counts the placeholder arguments a method signature
// carries: one per "_" outside of the leading name/operator, which is
// how CallSignature/SetterSignature/SubscriptGetSignature/
// SubscriptSetSignature (internal/compiler) all render arity.
func signatureArity(signature string) int {
	i := strings.IndexAny(signature, "([")
	if i < 0 {
		return 0
	}
	return strings.Count(signature[i:], "_")
}
