package corelib

import (
	"strings"

	"github.com/mosclang/mosc/internal/compiler"
	"github.com/mosclang/mosc/internal/value"
	"github.com/mosclang/mosc/internal/vm"
)

func bindString(vmachine *vm.VM, str *value.Class) {
	text := func(v value.Value) string { return vm.StringText(v) }

	// "+" is the method string interpolation compiles to (§4.1): the
	// receiver is always the accumulated String, but the argument may
	// be any value, so non-String operands are stringified with the
	// same rendering toString() falls back to.
	bind(vmachine, str, compiler.CallSignature("+", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		other := args[1]
		var rhs string
		if other.IsObj() && other.AsObj().Type == value.ObjString {
			rhs = text(other)
		} else {
			rhs = value.String(other)
		}
		return vmachine.NewStringValue(text(args[0]) + rhs), true
	})

	bind(vmachine, str, compiler.CallSignature("toString", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return args[0], true
	})

	bind(vmachine, str, compiler.CallSignature("count", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return numResult(float64(len([]rune(text(args[0])))))
	})
	bind(vmachine, str, compiler.CallSignature("bytesCount", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return numResult(float64(len(text(args[0]))))
	})

	bind(vmachine, str, compiler.SubscriptGetSignature(1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		if !args[1].IsNum() {
			return typeError(vmachine, f, "subscript must be a Num.")
		}
		runes := []rune(text(args[0]))
		idx := int(args[1].AsNum())
		if idx < 0 {
			idx += len(runes)
		}
		if idx < 0 || idx >= len(runes) {
			return typeError(vmachine, f, "string index out of bounds.")
		}
		return vmachine.NewStringValue(string(runes[idx])), true
	})

	bind(vmachine, str, compiler.CallSignature("contains", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return boolResult(strings.Contains(text(args[0]), text(args[1])))
	})
	bind(vmachine, str, compiler.CallSignature("startsWith", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return boolResult(strings.HasPrefix(text(args[0]), text(args[1])))
	})
	bind(vmachine, str, compiler.CallSignature("endsWith", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return boolResult(strings.HasSuffix(text(args[0]), text(args[1])))
	})
	bind(vmachine, str, compiler.CallSignature("indexOf", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return numResult(float64(strings.Index(text(args[0]), text(args[1]))))
	})
	bind(vmachine, str, compiler.CallSignature("trim", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return vmachine.NewStringValue(strings.TrimSpace(text(args[0]))), true
	})
	bind(vmachine, str, compiler.CallSignature("toUpper", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return vmachine.NewStringValue(strings.ToUpper(text(args[0]))), true
	})
	bind(vmachine, str, compiler.CallSignature("toLower", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return vmachine.NewStringValue(strings.ToLower(text(args[0]))), true
	})
	bind(vmachine, str, compiler.CallSignature("split", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		parts := strings.Split(text(args[0]), text(args[1]))
		list := vmachine.Arena.NewList(vmachine.Core.ListClass)
		list.Items = make([]value.Value, len(parts))
		for i, p := range parts {
			list.Items[i] = vmachine.NewStringValue(p)
		}
		return value.ObjVal(&list.Obj), true
	})
	bind(vmachine, str, compiler.CallSignature("replace", 2), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return vmachine.NewStringValue(strings.ReplaceAll(text(args[0]), text(args[1]), text(args[2]))), true
	})

	bind(vmachine, str, compiler.CallSignature("iterate", 2), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		runes := []rune(text(args[0]))
		step := 1
		if args[2].IsNum() && args[2].AsNum() < 0 {
			step = -1
		}
		var idx int
		if args[1].IsNull() {
			if step > 0 {
				idx = 0
			} else {
				idx = len(runes) - 1
			}
		} else {
			idx = int(args[1].AsNum()) + step
		}
		if idx < 0 || idx >= len(runes) {
			return boolResult(false)
		}
		return numResult(float64(idx))
	})
	bind(vmachine, str, compiler.CallSignature("iteratorValue", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		runes := []rune(text(args[0]))
		idx := int(args[1].AsNum())
		if idx < 0 || idx >= len(runes) {
			return typeError(vmachine, f, "iterator value out of bounds.")
		}
		return vmachine.NewStringValue(string(runes[idx])), true
	})
}
