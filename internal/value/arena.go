package value

import "github.com/google/uuid"

// Arena owns every heap object allocated by one VM: the single
// intrusive allocation list the collector sweeps (§4.6), plus the
// byte-accounting fields the growth heuristic reads.
type Arena struct {
	head           *Obj
	ObjectCount    int
	BytesAllocated int64
	NextGC         int64
	MinHeapSize    int64
	HeapGrowthPct  int
}

// NewArena builds an Arena with the heap policy defaults from §6.
func NewArena() *Arena {
	const (
		defaultInitial = 10 << 20
		defaultMin     = 1 << 20
		defaultGrowth  = 50
	)
	return &Arena{
		NextGC:        defaultInitial,
		MinHeapSize:   defaultMin,
		HeapGrowthPct: defaultGrowth,
	}
}

// Head returns the first object in the intrusive allocation list, for
// the collector's sweep.
func (a *Arena) Head() *Obj { return a.head }

// SetHead replaces the head (used by the collector's sweep to splice
// out freed objects).
func (a *Arena) SetHead(o *Obj) { a.head = o }

// register links a freshly built object into the arena and accounts
// for its approximate size.
func (a *Arena) register(o *Obj, size int64) {
	o.Next = a.head
	o.Size = size
	a.head = o
	a.ObjectCount++
	a.BytesAllocated += size
}

// NewString interns nothing (the teacher has no intern table either);
// it simply wraps a Go string, computing the cached FNV-1a hash once.
func (a *Arena) NewString(s string, class *Class) *StringObj {
	so := &StringObj{Text: s, Hash: FNV1a(s)}
	so.Obj = Obj{Type: ObjString, Class: class}
	so.Obj.SetBody(so)
	a.register(&so.Obj, int64(len(s))+32)
	return so
}

func (a *Arena) NewClass(name string, super *Class) *Class {
	c := &Class{Name: name, Super: super}
	c.Obj = Obj{Type: ObjClass}
	c.Obj.SetBody(c)
	a.register(&c.Obj, 128)
	return c
}

func (a *Arena) NewInstance(class *Class) *Instance {
	inst := &Instance{Fields: make([]Value, max(class.NumFields, 0))}
	for i := range inst.Fields {
		inst.Fields[i] = NullVal()
	}
	inst.Obj = Obj{Type: ObjInstance, Class: class}
	inst.Obj.SetBody(inst)
	a.register(&inst.Obj, int64(len(inst.Fields))*8+32)
	return inst
}

func (a *Arena) NewExtern(class *Class, payloadSize int) *Extern {
	e := &Extern{Payload: make([]byte, payloadSize)}
	e.Obj = Obj{Type: ObjExtern, Class: class}
	e.Obj.SetBody(e)
	a.register(&e.Obj, int64(payloadSize)+32)
	return e
}

func (a *Arena) NewClosure(fn *Function, class *Class) *Closure {
	cl := &Closure{Fn: fn, Upvalues: make([]*Upvalue, len(fn.UpvalueSpec))}
	cl.Obj = Obj{Type: ObjClosure, Class: class}
	cl.Obj.SetBody(cl)
	a.register(&cl.Obj, int64(len(cl.Upvalues))*8+32)
	return cl
}

func (a *Arena) NewFunction(name string, class *Class) *Function {
	fn := &Function{Name: name}
	fn.Obj = Obj{Type: ObjFunction, Class: class}
	fn.Obj.SetBody(fn)
	a.register(&fn.Obj, 64)
	return fn
}

func (a *Arena) NewUpvalue(fiber *Fiber, slot int, class *Class) *Upvalue {
	uv := &Upvalue{Fiber: fiber, SlotIndex: slot}
	uv.Obj = Obj{Type: ObjUpvalue, Class: class}
	uv.Obj.SetBody(uv)
	a.register(&uv.Obj, 32)
	return uv
}

func (a *Arena) NewList(class *Class) *List {
	l := &List{}
	l.Obj = Obj{Type: ObjList, Class: class}
	l.Obj.SetBody(l)
	a.register(&l.Obj, 32)
	return l
}

func (a *Arena) NewMapObj(class *Class) *Map {
	m := NewMap()
	m.Obj = Obj{Type: ObjMap, Class: class}
	m.Obj.SetBody(m)
	a.register(&m.Obj, 32)
	return m
}

func (a *Arena) NewRange(from, to float64, inclusive bool, class *Class) *Range {
	r := &Range{From: from, To: to, Inclusive: inclusive}
	r.Obj = Obj{Type: ObjRange, Class: class}
	r.Obj.SetBody(r)
	a.register(&r.Obj, 32)
	return r
}

func (a *Arena) NewModuleObj(name string, class *Class) *Module {
	m := NewModule(name)
	m.Obj = Obj{Type: ObjModule, Class: class}
	m.Obj.SetBody(m)
	a.register(&m.Obj, 64)
	return m
}

func (a *Arena) NewFiber(class *Class) *Fiber {
	f := &Fiber{Error: NullVal(), DebugName: uuid.NewString()}
	f.Obj = Obj{Type: ObjFiber, Class: class}
	f.Obj.SetBody(f)
	a.register(&f.Obj, 256)
	return f
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
