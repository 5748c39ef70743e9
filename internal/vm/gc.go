package vm

import "github.com/mosclang/mosc/internal/value"

// CollectGarbage runs one tri-color mark-sweep pass over vm.Arena
// (§4.6): every live root is marked dark and queued, the gray worklist
// is drained by blackening each object (marking what it references in
// turn), then the arena's intrusive allocation list is swept, freeing
// anything left white. The growth heuristic then reschedules the next
// collection.
func (vm *VM) CollectGarbage() {
	gray := vm.markRoots()
	for len(gray) > 0 {
		o := gray[len(gray)-1]
		gray = gray[:len(gray)-1]
		gray = vm.blacken(o, gray)
	}
	vm.sweep()

	next := vm.Arena.BytesAllocated + vm.Arena.BytesAllocated*int64(vm.Arena.HeapGrowthPct)/100
	if next < vm.Arena.MinHeapSize {
		next = vm.Arena.MinHeapSize
	}
	vm.Arena.NextGC = next
}

// collectIfDue triggers a collection once allocation has outgrown the
// heuristic's threshold; callers that allocate in a loop (MakeList,
// string concatenation, …) should call this between allocations.
func (vm *VM) collectIfDue() {
	if vm.Arena.BytesAllocated >= vm.Arena.NextGC {
		vm.CollectGarbage()
	}
}

func mark(o *value.Obj, gray []*value.Obj) []*value.Obj {
	if o == nil || o.Dark {
		return gray
	}
	o.Dark = true
	return append(gray, o)
}

func markValue(v value.Value, gray []*value.Obj) []*value.Obj {
	if v.IsObj() {
		return mark(v.AsObj(), gray)
	}
	return gray
}

func markClass(c *value.Class, gray []*value.Obj) []*value.Obj {
	if c == nil {
		return gray
	}
	return mark(&c.Obj, gray)
}

func (vm *VM) markRoots() []*value.Obj {
	var gray []*value.Obj

	gray = markClass(vm.Core.ObjectClass, gray)
	gray = markClass(vm.Core.ClassClass, gray)
	gray = markClass(vm.Core.NumClass, gray)
	gray = markClass(vm.Core.BoolClass, gray)
	gray = markClass(vm.Core.NullClass, gray)
	gray = markClass(vm.Core.StringClass, gray)
	gray = markClass(vm.Core.ListClass, gray)
	gray = markClass(vm.Core.MapClass, gray)
	gray = markClass(vm.Core.RangeClass, gray)
	gray = markClass(vm.Core.FnClass, gray)
	gray = markClass(vm.Core.FiberClass, gray)
	gray = markClass(vm.Core.SystemClass, gray)

	for _, mod := range vm.Modules {
		gray = mark(&mod.Obj, gray)
		for _, slot := range mod.Slots {
			gray = markValue(slot, gray)
		}
	}

	for _, cb := range vm.classStack {
		gray = markClass(cb.class, gray)
	}

	for obj := range vm.Pinned {
		gray = mark(obj, gray)
	}

	for f := vm.Fiber; f != nil; f = f.Caller {
		gray = vm.markFiber(f, gray)
	}

	return gray
}

func (vm *VM) markFiber(f *value.Fiber, gray []*value.Obj) []*value.Obj {
	gray = mark(&f.Obj, gray)
	for _, v := range f.Stack {
		gray = markValue(v, gray)
	}
	for _, fr := range f.Frames {
		if fr.Closure != nil {
			gray = mark(&fr.Closure.Obj, gray)
		}
		gray = markClass(fr.DefiningClass, gray)
	}
	for uv := f.OpenUpvals; uv != nil; uv = uv.NextOpen {
		gray = mark(&uv.Obj, gray)
	}
	gray = markValue(f.Error, gray)
	return gray
}

// blacken marks everything o directly references, per its concrete
// object type (§4.6's object graph).
func (vm *VM) blacken(o *value.Obj, gray []*value.Obj) []*value.Obj {
	gray = markClass(o.Class, gray)

	switch o.Type {
	case value.ObjClass:
		cls := o.Body().(*value.Class)
		gray = markClass(cls.Super, gray)
		gray = markClass(cls.Metaclass, gray)
		for _, m := range cls.Methods {
			if m.Closure != nil {
				gray = mark(&m.Closure.Obj, gray)
			}
			gray = markClass(m.DefiningClass, gray)
		}
	case value.ObjClosure:
		cl := o.Body().(*value.Closure)
		if cl.Fn != nil {
			gray = mark(&cl.Fn.Obj, gray)
		}
		for _, uv := range cl.Upvalues {
			if uv != nil {
				gray = mark(&uv.Obj, gray)
			}
		}
	case value.ObjFunction:
		fn := o.Body().(*value.Function)
		if fn.Module != nil {
			gray = mark(&fn.Module.Obj, gray)
		}
		gray = append(gray, markFunctionConstants(fn)...)
	case value.ObjUpvalue:
		uv := o.Body().(*value.Upvalue)
		gray = markValue(uv.Value(), gray)
	case value.ObjInstance:
		inst := o.Body().(*value.Instance)
		for _, v := range inst.Fields {
			gray = markValue(v, gray)
		}
	case value.ObjList:
		l := o.Body().(*value.List)
		for _, v := range l.Items {
			gray = markValue(v, gray)
		}
	case value.ObjMap:
		m := o.Body().(*value.Map)
		gray = markMapEntries(m, gray)
	case value.ObjFiber:
		f := o.Body().(*value.Fiber)
		gray = vm.markFiber(f, gray)
	case value.ObjModule:
		mod := o.Body().(*value.Module)
		for _, v := range mod.Slots {
			gray = markValue(v, gray)
		}
	}
	return gray
}

func markMapEntries(m *value.Map, gray []*value.Obj) []*value.Obj {
	iter := value.UndefinedVal()
	for {
		next, ok := m.Iterate(iter)
		if !ok {
			return gray
		}
		iter = next
		k, v := m.IteratorValue(iter)
		gray = markValue(k, gray)
		gray = markValue(v, gray)
	}
}

func markFunctionConstants(fn *value.Function) []*value.Obj {
	chunk := chunkOf(fn)
	var gray []*value.Obj
	for _, c := range chunk.Constants {
		if c.IsObj() {
			o := c.AsObj()
			if !o.Dark {
				o.Dark = true
				gray = append(gray, o)
			}
		}
	}
	return gray
}

// sweep frees every object that survived markRoots+blacken with its
// Dark bit still clear, splicing the arena's intrusive list down to
// just the live set and resetting everyone's Dark bit for next time.
func (vm *VM) sweep() {
	var head, tail *value.Obj
	for o := vm.Arena.Head(); o != nil; {
		next := o.Next
		if o.Dark {
			o.Dark = false
			o.Next = nil
			if tail == nil {
				head = o
			} else {
				tail.Next = o
			}
			tail = o
		} else {
			vm.finalize(o)
			vm.Arena.BytesAllocated -= o.Size
			vm.Arena.ObjectCount--
		}
		o = next
	}
	vm.Arena.SetHead(head)
}

func (vm *VM) finalize(o *value.Obj) {
	if o.Type != value.ObjExtern || o.Class == nil || o.Class.ExternFinal == nil {
		return
	}
	ext := o.Body().(*value.Extern)
	o.Class.ExternFinal(ext.Payload)
}
