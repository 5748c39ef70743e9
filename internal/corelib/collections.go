package corelib

import (
	"github.com/mosclang/mosc/internal/compiler"
	"github.com/mosclang/mosc/internal/value"
	"github.com/mosclang/mosc/internal/vm"
)

func bindList(vmachine *vm.VM, listClass *value.Class) {
	asList := func(v value.Value) *value.List { return v.AsObj().Body().(*value.List) }

	bind(vmachine, listClass, compiler.CallSignature("count", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return numResult(float64(len(asList(args[0]).Items)))
	})
	bind(vmachine, listClass, compiler.CallSignature("add", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		l := asList(args[0])
		l.Items = append(l.Items, args[1])
		return args[1], true
	})
	bind(vmachine, listClass, compiler.CallSignature("insert", 2), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		l := asList(args[0])
		if !args[1].IsNum() {
			return typeError(vmachine, f, "index must be a Num.")
		}
		idx := int(args[1].AsNum())
		if idx < 0 {
			idx += len(l.Items) + 1
		}
		if idx < 0 || idx > len(l.Items) {
			return typeError(vmachine, f, "list index out of bounds.")
		}
		l.Items = append(l.Items, value.NullVal())
		copy(l.Items[idx+1:], l.Items[idx:])
		l.Items[idx] = args[2]
		return args[2], true
	})
	bind(vmachine, listClass, compiler.CallSignature("removeAt", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		l := asList(args[0])
		if !args[1].IsNum() {
			return typeError(vmachine, f, "index must be a Num.")
		}
		idx := int(args[1].AsNum())
		if idx < 0 {
			idx += len(l.Items)
		}
		if idx < 0 || idx >= len(l.Items) {
			return typeError(vmachine, f, "list index out of bounds.")
		}
		removed := l.Items[idx]
		l.Items = append(l.Items[:idx], l.Items[idx+1:]...)
		return removed, true
	})
	bind(vmachine, listClass, compiler.CallSignature("clear", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		asList(args[0]).Items = nil
		return value.NullVal(), true
	})
	bind(vmachine, listClass, compiler.CallSignature("contains", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		for _, it := range asList(args[0]).Items {
			if value.Equal(it, args[1]) {
				return boolResult(true)
			}
		}
		return boolResult(false)
	})

	indexFor := func(f *value.Fiber, l *value.List, raw value.Value) (int, bool) {
		if !raw.IsNum() {
			typeError(vmachine, f, "index must be a Num.")
			return 0, false
		}
		idx := int(raw.AsNum())
		if idx < 0 {
			idx += len(l.Items)
		}
		if idx < 0 || idx >= len(l.Items) {
			typeError(vmachine, f, "list index out of bounds.")
			return 0, false
		}
		return idx, true
	}

	bind(vmachine, listClass, compiler.SubscriptGetSignature(1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		l := asList(args[0])
		idx, ok := indexFor(f, l, args[1])
		if !ok {
			return value.Value{}, false
		}
		return l.Items[idx], true
	})
	bind(vmachine, listClass, compiler.SubscriptSetSignature(1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		l := asList(args[0])
		idx, ok := indexFor(f, l, args[1])
		if !ok {
			return value.Value{}, false
		}
		l.Items[idx] = args[2]
		return args[2], true
	})

	bind(vmachine, listClass, compiler.CallSignature("iterate", 2), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		l := asList(args[0])
		step := 1
		if args[2].IsNum() && args[2].AsNum() < 0 {
			step = -1
		}
		var idx int
		if args[1].IsNull() {
			if step > 0 {
				idx = 0
			} else {
				idx = len(l.Items) - 1
			}
		} else {
			idx = int(args[1].AsNum()) + step
		}
		if idx < 0 || idx >= len(l.Items) {
			return boolResult(false)
		}
		return numResult(float64(idx))
	})
	bind(vmachine, listClass, compiler.CallSignature("iteratorValue", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		l := asList(args[0])
		idx := int(args[1].AsNum())
		if idx < 0 || idx >= len(l.Items) {
			return typeError(vmachine, f, "iterator value out of bounds.")
		}
		return l.Items[idx], true
	})

	bind(vmachine, listClass, compiler.CallSignature("toString", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return vmachine.NewStringValue(value.String(args[0])), true
	})

	bindStatic(vmachine, listClass, compiler.CallSignature("new", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		l := vmachine.Arena.NewList(vmachine.Core.ListClass)
		return value.ObjVal(&l.Obj), true
	})
}

func bindMap(vmachine *vm.VM, mapClass *value.Class) {
	asMap := func(v value.Value) *value.Map { return v.AsObj().Body().(*value.Map) }

	bind(vmachine, mapClass, compiler.CallSignature("count", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return numResult(float64(asMap(args[0]).Count()))
	})
	bind(vmachine, mapClass, compiler.SubscriptGetSignature(1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		if !value.Hashable(args[1]) {
			return typeError(vmachine, f, "map key must be hashable.")
		}
		v, ok := asMap(args[0]).Get(args[1])
		if !ok {
			return value.NullVal(), true
		}
		return v, true
	})
	bind(vmachine, mapClass, compiler.SubscriptSetSignature(1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		if !value.Hashable(args[1]) {
			return typeError(vmachine, f, "map key must be hashable.")
		}
		asMap(args[0]).Set(args[1], args[2])
		return args[2], true
	})
	bind(vmachine, mapClass, compiler.CallSignature("containsKey", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		_, ok := asMap(args[0]).Get(args[1])
		return boolResult(ok)
	})
	bind(vmachine, mapClass, compiler.CallSignature("remove", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		v, ok := asMap(args[0]).Remove(args[1])
		if !ok {
			return value.NullVal(), true
		}
		return v, true
	})
	bind(vmachine, mapClass, compiler.CallSignature("clear", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		asMap(args[0]).Clear()
		return value.NullVal(), true
	})
	bind(vmachine, mapClass, compiler.CallSignature("keys", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		m := asMap(args[0])
		list := vmachine.Arena.NewList(vmachine.Core.ListClass)
		iter := value.UndefinedVal()
		for {
			next, ok := m.Iterate(iter)
			if !ok {
				break
			}
			iter = next
			k, _ := m.IteratorValue(iter)
			list.Items = append(list.Items, k)
		}
		return value.ObjVal(&list.Obj), true
	})
	bind(vmachine, mapClass, compiler.CallSignature("values", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		m := asMap(args[0])
		list := vmachine.Arena.NewList(vmachine.Core.ListClass)
		iter := value.UndefinedVal()
		for {
			next, ok := m.Iterate(iter)
			if !ok {
				break
			}
			iter = next
			_, v := m.IteratorValue(iter)
			list.Items = append(list.Items, v)
		}
		return value.ObjVal(&list.Obj), true
	})

	bind(vmachine, mapClass, compiler.CallSignature("iterate", 2), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		m := asMap(args[0])
		iter := args[1]
		if iter.IsNull() {
			iter = value.UndefinedVal()
		}
		next, ok := m.Iterate(iter)
		if !ok {
			return boolResult(false)
		}
		return next, true
	})
	bind(vmachine, mapClass, compiler.CallSignature("iteratorValue", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		k, _ := asMap(args[0]).IteratorValue(args[1])
		return k, true
	})

	bind(vmachine, mapClass, compiler.CallSignature("toString", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return vmachine.NewStringValue(value.String(args[0])), true
	})

	bindStatic(vmachine, mapClass, compiler.CallSignature("new", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		m := vmachine.Arena.NewMapObj(vmachine.Core.MapClass)
		return value.ObjVal(&m.Obj), true
	})
}

func bindRange(vmachine *vm.VM, rangeClass *value.Class) {
	asRange := func(v value.Value) *value.Range { return v.AsObj().Body().(*value.Range) }

	bind(vmachine, rangeClass, compiler.CallSignature("from", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return numResult(asRange(args[0]).From)
	})
	bind(vmachine, rangeClass, compiler.CallSignature("to", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return numResult(asRange(args[0]).To)
	})
	bind(vmachine, rangeClass, compiler.CallSignature("isInclusive", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return boolResult(asRange(args[0]).Inclusive)
	})
	bind(vmachine, rangeClass, compiler.CallSignature("min", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		r := asRange(args[0])
		if r.From < r.To {
			return numResult(r.From)
		}
		return numResult(r.To)
	})
	bind(vmachine, rangeClass, compiler.CallSignature("max", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		r := asRange(args[0])
		if r.From > r.To {
			return numResult(r.From)
		}
		return numResult(r.To)
	})
	bind(vmachine, rangeClass, compiler.CallSignature("contains", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		if !args[1].IsNum() {
			return boolResult(false)
		}
		r := asRange(args[0])
		n := args[1].AsNum()
		lo, hi := r.From, r.To
		if lo > hi {
			lo, hi = hi, lo
		}
		if r.Inclusive {
			return boolResult(n >= lo && n <= hi)
		}
		if r.From <= r.To {
			return boolResult(n >= lo && n < hi)
		}
		return boolResult(n > lo && n <= hi)
	})
	bind(vmachine, rangeClass, compiler.CallSignature("toString", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return vmachine.NewStringValue(value.String(args[0])), true
	})

	bind(vmachine, rangeClass, compiler.CallSignature("iterate", 2), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		r := asRange(args[0])
		step := 1.0
		if args[2].IsNum() {
			step = args[2].AsNum()
		}
		if r.From > r.To {
			step = -step
		}
		var cur float64
		if args[1].IsNull() {
			cur = r.From
		} else {
			cur = args[1].AsNum() + step
		}
		if step >= 0 {
			limit := r.To
			if r.Inclusive {
				if cur > limit {
					return boolResult(false)
				}
			} else if cur >= limit {
				return boolResult(false)
			}
		} else {
			limit := r.To
			if r.Inclusive {
				if cur < limit {
					return boolResult(false)
				}
			} else if cur <= limit {
				return boolResult(false)
			}
		}
		return numResult(cur)
	})
	bind(vmachine, rangeClass, compiler.CallSignature("iteratorValue", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return args[1], true
	})
}
