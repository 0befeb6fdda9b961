package ankoku

import "hash/fnv"

func hashString(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// track accounts for a freshly built object, possibly collects, and then
// links the object into the heap list. The object is kept alive across the
// collection it may trigger.
func (vm *VM) track(o Obj, size int) {
	h := o.header()
	h.size = size
	vm.bytesAllocated += size
	if vm.config.GC.Stress || vm.bytesAllocated > vm.nextGC {
		vm.pending = o
		vm.collectGarbage()
		vm.pending = nil
		h.marked = false
	}
	h.next = vm.objects
	vm.objects = o
	vm.objectCount++
}

// CopyString returns the interned string with the given contents, creating
// it if needed.
func (vm *VM) CopyString(chars string) *ObjString {
	hash := hashString(chars)
	if interned := vm.strings.FindString(chars, hash); interned != nil {
		return interned
	}
	s := &ObjString{Chars: chars, Hash: hash}
	vm.track(s, sizeString+len(chars))
	vm.strings.Set(s, NullVal())
	return s
}

func (vm *VM) newFunction() *ObjFunction {
	fn := &ObjFunction{}
	vm.track(fn, sizeFunction)
	return fn
}

func (vm *VM) newNative(name string, arity int, fn NativeFn, doc *Docstring, captured []Value) *ObjNative {
	n := &ObjNative{Name: name, Arity: arity, Fn: fn, Doc: doc, Captured: captured}
	vm.track(n, sizeNative+len(captured)*sizeValue)
	return n
}

func (vm *VM) newClosure(fn *ObjFunction) *ObjClosure {
	c := &ObjClosure{
		Function: fn,
		Upvalues: make([]*ObjUpvalue, fn.UpvalueCount),
	}
	vm.track(c, sizeClosure+fn.UpvalueCount*sizePointer)
	return c
}

func (vm *VM) newUpvalue(slot int) *ObjUpvalue {
	u := &ObjUpvalue{slot: slot}
	vm.track(u, sizeUpvalue)
	return u
}

func (vm *VM) newClass(name *ObjString) *ObjClass {
	c := &ObjClass{Name: name}
	vm.track(c, sizeClass)
	return c
}

func (vm *VM) newInstance(class *ObjClass) *ObjInstance {
	i := &ObjInstance{Class: class}
	vm.track(i, sizeInstance)
	return i
}

func (vm *VM) newBoundMethod(receiver Value, method *ObjClosure) *ObjBoundMethod {
	b := &ObjBoundMethod{Receiver: receiver, Method: method}
	vm.track(b, sizeBoundMethod)
	return b
}
