package ankoku

import "fmt"

type ObjType uint8

const (
	ObjTypeString ObjType = iota
	ObjTypeFunction
	ObjTypeNative
	ObjTypeClosure
	ObjTypeUpvalue
	ObjTypeClass
	ObjTypeInstance
	ObjTypeBoundMethod
)

func (t ObjType) String() string {
	return [...]string{
		"string",
		"function",
		"native",
		"closure",
		"upvalue",
		"class",
		"instance",
		"bound method",
	}[t]
}

// Obj is implemented by every heap object. All objects are allocated
// through the VM so the collector can see them.
type Obj interface {
	Type() ObjType
	String() string
	header() *objHeader
}

type objHeader struct {
	marked bool
	freed  bool
	size   int
	next   Obj
}

func (h *objHeader) header() *objHeader { return h }

// Freed reports whether the collector has swept the object.
func (h *objHeader) Freed() bool { return h.freed }

type ObjString struct {
	objHeader
	Chars string
	Hash  uint32
}

func (s *ObjString) Type() ObjType  { return ObjTypeString }
func (s *ObjString) String() string { return s.Chars }

type ObjFunction struct {
	objHeader
	Name         *ObjString
	Arity        int
	UpvalueCount int
	Chunk        Chunk
}

func (f *ObjFunction) Type() ObjType { return ObjTypeFunction }
func (f *ObjFunction) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

// displayName is the name used in stack traces.
func (f *ObjFunction) displayName() string {
	if f.Name == nil {
		return "script"
	}
	return f.Name.Chars + "()"
}

// NativeFn is the signature of host functions callable from scripts. args
// aliases the VM stack and must not be retained after the call returns.
type NativeFn func(vm *VM, args []Value) (Value, error)

type ObjNative struct {
	objHeader
	Name  string
	Arity int // -1 accepts any number of arguments
	Fn    NativeFn
	Doc   *Docstring
	// Captured holds host-side values the native closes over; the collector
	// traces them.
	Captured []Value
}

func (n *ObjNative) Type() ObjType  { return ObjTypeNative }
func (n *ObjNative) String() string { return fmt.Sprintf("<native fn %s>", n.Name) }

type ObjClosure struct {
	objHeader
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func (c *ObjClosure) Type() ObjType  { return ObjTypeClosure }
func (c *ObjClosure) String() string { return c.Function.String() }

// ObjUpvalue is open while slot indexes a live stack slot and closed once
// slot is -1, after which closed owns the value.
type ObjUpvalue struct {
	objHeader
	slot   int
	closed Value
	next   *ObjUpvalue
}

func (u *ObjUpvalue) Type() ObjType  { return ObjTypeUpvalue }
func (u *ObjUpvalue) String() string { return "upvalue" }
func (u *ObjUpvalue) IsOpen() bool   { return u.slot >= 0 }

type ObjClass struct {
	objHeader
	Name       *ObjString
	Methods    Table
	Superclass *ObjClass
}

func (c *ObjClass) Type() ObjType  { return ObjTypeClass }
func (c *ObjClass) String() string { return c.Name.Chars }

// FindMethod looks name up on the class and then along its superclass chain.
func (c *ObjClass) FindMethod(name *ObjString) (*ObjClosure, bool) {
	for k := c; k != nil; k = k.Superclass {
		if v, ok := k.Methods.Get(name); ok {
			return v.AsClosure(), true
		}
	}
	return nil, false
}

type ObjInstance struct {
	objHeader
	Class  *ObjClass
	Fields Table
}

func (i *ObjInstance) Type() ObjType  { return ObjTypeInstance }
func (i *ObjInstance) String() string { return i.Class.Name.Chars + " instance" }

type ObjBoundMethod struct {
	objHeader
	Receiver Value
	Method   *ObjClosure
}

func (b *ObjBoundMethod) Type() ObjType  { return ObjTypeBoundMethod }
func (b *ObjBoundMethod) String() string { return b.Method.String() }

// Approximate footprints used for collection accounting.
const (
	sizeString      = 40
	sizeFunction    = 96
	sizeNative      = 80
	sizeClosure     = 48
	sizeUpvalue     = 56
	sizeClass       = 72
	sizeInstance    = 56
	sizeBoundMethod = 56
	sizeValue       = 32
	sizePointer     = 8
)
