package ankoku

import "github.com/tliron/commonlog"

// GCStats is a snapshot of collector state.
type GCStats struct {
	Collections    int
	BytesAllocated int
	NextGC         int
	Objects        int
	BytesFreed     int
}

func (vm *VM) GCStats() GCStats {
	return GCStats{
		Collections:    vm.collections,
		BytesAllocated: vm.bytesAllocated,
		NextGC:         vm.nextGC,
		Objects:        vm.objectCount,
		BytesFreed:     vm.bytesFreed,
	}
}

// CollectGarbage runs a full collection immediately.
func (vm *VM) CollectGarbage() {
	vm.collectGarbage()
}

func (vm *VM) collectGarbage() {
	before := vm.bytesAllocated
	debug := gcLog.AllowLevel(commonlog.Debug)
	if debug {
		gcLog.Debugf("-- gc begin (vm %s, %d bytes)", vm.id, before)
	}

	vm.markRoots()
	vm.traceReferences()
	vm.strings.removeWhite()
	vm.sweep()

	next := int(float64(vm.bytesAllocated) * vm.config.GC.GrowFactor)
	if next < vm.config.GC.MinHeap {
		next = vm.config.GC.MinHeap
	}
	vm.nextGC = next
	vm.collections++
	vm.bytesFreed += before - vm.bytesAllocated

	if debug {
		gcLog.Debugf("-- gc end: collected %d bytes (from %d to %d) next at %d",
			before-vm.bytesAllocated, before, vm.bytesAllocated, vm.nextGC)
	}
}

func (vm *VM) markRoots() {
	for i := 0; i < vm.stackTop; i++ {
		vm.markValue(vm.stack[i])
	}
	for i := 0; i < vm.frameCount; i++ {
		vm.markObject(vm.frames[i].closure)
	}
	for up := vm.openUpvalues; up != nil; up = up.next {
		vm.markObject(up)
	}
	vm.markTable(&vm.globals)
	for fn := range vm.pinned {
		vm.markObject(fn)
	}
	if vm.compiler != nil {
		vm.compiler.markRoots()
	}
	if vm.initString != nil {
		vm.markObject(vm.initString)
	}
	if vm.objectClass != nil {
		vm.markObject(vm.objectClass)
	}
	if vm.pending != nil {
		vm.markObject(vm.pending)
	}
}

// markObject greys o. Callers must not pass a typed nil.
func (vm *VM) markObject(o Obj) {
	h := o.header()
	if h.marked {
		return
	}
	if gcLog.AllowLevel(commonlog.Debug) {
		gcLog.Debugf("mark %s %s", o.Type(), o)
	}
	h.marked = true
	vm.grayStack = append(vm.grayStack, o)
}

func (vm *VM) markValue(v Value) {
	if v.IsObj() {
		vm.markObject(v.obj)
	}
}

func (vm *VM) markTable(t *Table) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.key != nil {
			vm.markObject(e.key)
		}
		vm.markValue(e.value)
	}
}

func (vm *VM) traceReferences() {
	for len(vm.grayStack) > 0 {
		n := len(vm.grayStack) - 1
		o := vm.grayStack[n]
		vm.grayStack[n] = nil
		vm.grayStack = vm.grayStack[:n]
		vm.blacken(o)
	}
}

func (vm *VM) blacken(o Obj) {
	switch o := o.(type) {
	case *ObjString:
	case *ObjNative:
		for _, v := range o.Captured {
			vm.markValue(v)
		}
	case *ObjUpvalue:
		vm.markValue(o.closed)
	case *ObjFunction:
		if o.Name != nil {
			vm.markObject(o.Name)
		}
		for _, v := range o.Chunk.Constants {
			vm.markValue(v)
		}
	case *ObjClosure:
		vm.markObject(o.Function)
		for _, up := range o.Upvalues {
			if up != nil {
				vm.markObject(up)
			}
		}
	case *ObjClass:
		vm.markObject(o.Name)
		vm.markTable(&o.Methods)
		if o.Superclass != nil {
			vm.markObject(o.Superclass)
		}
	case *ObjInstance:
		vm.markObject(o.Class)
		vm.markTable(&o.Fields)
	case *ObjBoundMethod:
		vm.markValue(o.Receiver)
		vm.markObject(o.Method)
	}
}

func (vm *VM) sweep() {
	var prev Obj
	o := vm.objects
	for o != nil {
		h := o.header()
		if h.marked {
			h.marked = false
			prev = o
			o = h.next
			continue
		}
		unreached := o
		o = h.next
		if prev == nil {
			vm.objects = o
		} else {
			prev.header().next = o
		}
		vm.free(unreached)
	}
}

func (vm *VM) free(o Obj) {
	h := o.header()
	if gcLog.AllowLevel(commonlog.Debug) {
		gcLog.Debugf("free %s %s", o.Type(), o)
	}
	vm.bytesAllocated -= h.size
	vm.objectCount--
	h.freed = true
	h.next = nil
}

// freeObjects releases the whole heap, used when a VM is closed.
func (vm *VM) freeObjects() {
	for o := vm.objects; o != nil; {
		next := o.header().next
		vm.free(o)
		o = next
	}
	vm.objects = nil
	vm.grayStack = nil
}
