// Package value implements the runtime value representation and the
// heap object model shared by the compiler, the interpreter, and the
// embedding API.
//
// Values and objects live in the same package because they are mutually
// recursive: a Closure's constant pool holds Values that may themselves
// be object references, and every object carries Values in its own
// fields (an Instance's fields, a List's elements, a Map's entries).
// Splitting them into separate packages would force an import cycle, so
// following the common shape for this kind of interpreter, both halves
// live here.
package value

import "github.com/dolthub/swiss"

// ObjType tags the concrete kind of a heap object.
type ObjType byte

const (
	ObjString ObjType = iota
	ObjClass
	ObjClosure
	ObjFunction
	ObjUpvalue
	ObjInstance
	ObjExtern
	ObjList
	ObjMap
	ObjRange
	ObjModule
	ObjFiber
)

func (t ObjType) String() string {
	switch t {
	case ObjString:
		return "String"
	case ObjClass:
		return "Class"
	case ObjClosure:
		return "Closure"
	case ObjFunction:
		return "Function"
	case ObjUpvalue:
		return "Upvalue"
	case ObjInstance:
		return "Instance"
	case ObjExtern:
		return "Extern"
	case ObjList:
		return "List"
	case ObjMap:
		return "Map"
	case ObjRange:
		return "Range"
	case ObjModule:
		return "Module"
	case ObjFiber:
		return "Fiber"
	default:
		return "Unknown"
	}
}

// Obj is the common header every heap object embeds. It carries the
// GC's mark bit and the intrusive next-pointer into the heap's single
// allocation list (§4.6), plus the object's class and type tag.
type Obj struct {
	Type  ObjType
	Dark  bool
	Class *Class
	Next  *Obj  // intrusive link in the arena's allocation list
	Size  int64 // approximate bytes charged against the arena's heap accounting

	body any // one of *StringObj, *Class, *Closure, ... below
}

// Body returns the concrete payload struct for this object. Callers
// type-assert against o.Type to know which concrete type to expect.
func (o *Obj) Body() any { return o.body }

// SetBody attaches the concrete payload struct. Called once, by the
// constructor that allocates the object into an Arena.
func (o *Obj) SetBody(b any) { o.body = b }

// StringObj is the payload for ObjString. Strings are immutable; Go's
// string type already gives us length-prefixed, byte-exact, immutable
// storage, so there is no separate byte buffer to manage.
type StringObj struct {
	Obj  Obj
	Text string
	Hash uint32 // cached FNV-1a, computed once at construction
}

// MethodKind distinguishes how a method table entry is invoked.
type MethodKind byte

const (
	MethodNone MethodKind = iota
	MethodPrimitive
	MethodFunctionCall
	MethodExtern
	MethodBlock
)

// Primitive is a host-implemented method. It receives the fiber's
// argument stack slice (receiver at index 0) and returns the resulting
// value plus whether the call succeeded. A false return means the fiber
// has already been mutated (error set, or a fiber transfer happened)
// and the interpreter must reload its frame-local hot state.
type Primitive func(f *Fiber, args []Value) (Value, bool)

// Method is one entry in a Class's method table, indexed by the
// VM-global method symbol (§4.2, §4.7).
type Method struct {
	Kind      MethodKind
	Primitive Primitive
	Closure   *Closure // MethodBlock
	Extern    Primitive
	// DefiningClass is the class whose body declared this method
	// (as opposed to the receiver's own, possibly more derived,
	// class). A `faa`(super) send resolves against
	// DefiningClass.Super, not the receiver's class, so an inherited
	// method's own super calls stay anchored to where it was written.
	DefiningClass *Class
}

// Class is the runtime class object: name, superclass, field count,
// a method table indexed by global method symbol, and (for foreign
// classes) the field count is -1.
type Class struct {
	Obj          Obj
	Name         string
	Super        *Class
	NumFields    int // -1 for a foreign/extern class
	Methods      []Method
	Metaclass    *Class
	IsForeign    bool
	ExternNew    Primitive // constructor for Extern instances, if foreign
	ExternFinal  func(payload []byte)
}

// EnsureMethodSlot grows the method table so symbol is a valid index.
func (c *Class) EnsureMethodSlot(symbol int) {
	for len(c.Methods) <= symbol {
		c.Methods = append(c.Methods, Method{Kind: MethodNone})
	}
}

// BindMethod installs m at symbol, growing the table as needed.
func (c *Class) BindMethod(symbol int, m Method) {
	c.EnsureMethodSlot(symbol)
	c.Methods[symbol] = m
}

// Lookup walks from c up the superclass chain, returning the first
// class that implements symbol and the method itself. ok is false if
// no class in the chain implements it (the "none" sentinel case).
func (c *Class) Lookup(symbol int) (Method, bool) {
	for cur := c; cur != nil; cur = cur.Super {
		if symbol < len(cur.Methods) && cur.Methods[symbol].Kind != MethodNone {
			return cur.Methods[symbol], true
		}
	}
	return Method{}, false
}

// IsSubclassOf implements the `ye` (is) operator: walk the superclass
// chain looking for target.
func (c *Class) IsSubclassOf(target *Class) bool {
	for cur := c; cur != nil; cur = cur.Super {
		if cur == target {
			return true
		}
	}
	return false
}

// UpvalueSpec describes one upvalue captured by a Closure, as emitted
// by the CLOSURE opcode's operand pairs (§4.4).
type UpvalueSpec struct {
	IsLocal bool
	Index   int
}

// Function is a compiled function body: constants, bytecode, and the
// metadata the interpreter needs to set up a call frame.
//
// Bytecode is declared as `any` here (rather than importing the
// bytecode package) to avoid value <-> bytecode import cycle; the vm
// and compiler packages both import bytecode and value and do the
// concrete type assertion to *bytecode.Chunk.
type Function struct {
	Obj         Obj
	Name        string
	Arity       int
	UpvalueSpec []UpvalueSpec
	MaxSlots    int
	Module      *Module
	Code        any // *bytecode.Chunk
	DebugName   string
}

// Upvalue is either open (Slot points into a live fiber stack) or
// closed (Closed holds the owned value once the slot has been popped).
type Upvalue struct {
	Obj       Obj
	Fiber     *Fiber // owning fiber, while open
	SlotIndex int    // index into Fiber.Stack, while open
	Closed    Value
	IsClosed  bool
	NextOpen  *Upvalue // intrusive link in the fiber's open-upvalue list
}

// Value reads through to the live stack slot if open, else the closed
// copy.
func (u *Upvalue) Value() Value {
	if u.IsClosed {
		return u.Closed
	}
	return u.Fiber.Stack[u.SlotIndex]
}

// Set writes through to the live stack slot if open, else the closed
// copy.
func (u *Upvalue) Set(v Value) {
	if u.IsClosed {
		u.Closed = v
		return
	}
	u.Fiber.Stack[u.SlotIndex] = v
}

// Closure pairs a Function with the concrete upvalues it captured.
type Closure struct {
	Obj      Obj
	Fn       *Function
	Upvalues []*Upvalue
}

// Instance is a user object: a class pointer plus inline field values.
type Instance struct {
	Obj    Obj
	Fields []Value
}

// Extern is an instance of a foreign class: the payload is host-owned
// bytes instead of Values.
type Extern struct {
	Obj     Obj
	Payload []byte
	UserTag any // host-defined, opaque to the VM
}

// List is the dense buffer backing the built-in List class.
type List struct {
	Obj   Obj
	Items []Value
}

// mapEntry is one slot in Map's open-addressed table. A tombstone is
// (Undefined key, true occupied-deleted marker); an empty slot is
// (Undefined key, Used=false).
type mapEntry struct {
	Key       Value
	Val       Value
	Used      bool
	Tombstone bool
}

// Map is the open-addressed hash table backing the built-in Map class,
// per §4.8: linear probing, load factor <= 0.9, grow factor 2, minimum
// capacity 16.
type Map struct {
	Obj     Obj
	entries []mapEntry
	count   int // live entries, excludes tombstones
}

// Range is an immutable [from, to] or [from, to) pair of doubles.
type Range struct {
	Obj       Obj
	From      float64
	To        float64
	Inclusive bool
}

// Module is a named, ordered variable table. Name -> slot index is a
// swiss-table index (see SPEC_FULL §11 / DESIGN.md); Slots holds the
// parallel value buffer.
type Module struct {
	Obj   Obj
	Name  string
	names *swiss.Map[string, int]
	order []string
	Slots []Value
}

// NewModule creates an empty named module.
func NewModule(name string) *Module {
	return &Module{Name: name, names: swiss.NewMap[string, int](8)}
}

// Declare inserts name with an initial placeholder value (used for
// forward references: the placeholder is typically a line number
// encoded as a Num, per §4.2/§9) if it is not already present, and
// returns its slot index.
func (m *Module) Declare(name string, placeholder Value) int {
	if idx, ok := m.names.Get(name); ok {
		return idx
	}
	idx := len(m.Slots)
	m.names.Put(name, idx)
	m.order = append(m.order, name)
	m.Slots = append(m.Slots, placeholder)
	return idx
}

// Resolve returns the slot index for name, if declared.
func (m *Module) Resolve(name string) (int, bool) {
	return m.names.Get(name)
}

// Names returns variable names in declaration order.
func (m *Module) Names() []string { return m.order }

// FiberState is the cooperative scheduler's state tag (§4.5).
type FiberState byte

const (
	FiberRoot FiberState = iota
	FiberTry
	FiberOther
)

// CallFrame is one entry in a Fiber's call-frame stack.
type CallFrame struct {
	Closure    *Closure
	IP         int
	StackStart int // base index into the owning Fiber's Stack
	// DefiningClass is non-nil for a method-body frame, copied from
	// the Method that was dispatched to reach it; SUPER_x opcodes
	// read it to find where to resume lookup (§4.2/§4.7).
	DefiningClass *Class
}

// Fiber is the unit of suspendable execution: a growable value stack,
// a parallel growable frame stack, an open-upvalue list, an error
// value, a state tag, and the caller chain pointer (§4.5).
type Fiber struct {
	Obj         Obj
	Stack       []Value
	Frames      []CallFrame
	OpenUpvals  *Upvalue // head of descending-address list
	Error       Value
	State       FiberState
	Caller      *Fiber
	Completed   bool
	DebugName   string // optional, for trace/debug output (uuid-tagged)
}

// Push appends v to the top of the stack.
func (f *Fiber) Push(v Value) {
	f.Stack = append(f.Stack, v)
}

// Pop removes and returns the top of the stack.
func (f *Fiber) Pop() Value {
	n := len(f.Stack) - 1
	v := f.Stack[n]
	f.Stack = f.Stack[:n]
	return v
}

// Top returns the top of the stack without removing it.
func (f *Fiber) Top() Value {
	return f.Stack[len(f.Stack)-1]
}

// PeekAt returns the value `distance` below the top (0 = top).
func (f *Fiber) PeekAt(distance int) Value {
	return f.Stack[len(f.Stack)-1-distance]
}
