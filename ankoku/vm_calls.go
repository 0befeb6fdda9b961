package ankoku

import "errors"

func (vm *VM) callValue(callee Value, argCount int) error {
	if callee.IsObj() {
		switch o := callee.obj.(type) {
		case *ObjBoundMethod:
			vm.stack[vm.stackTop-argCount-1] = o.Receiver
			return vm.call(o.Method, argCount)
		case *ObjClass:
			vm.stack[vm.stackTop-argCount-1] = ObjVal(vm.newInstance(o))
			if initializer, ok := o.FindMethod(vm.initString); ok {
				return vm.call(initializer, argCount)
			}
			if argCount != 0 {
				return vm.runtimeError("Expected 0 arguments but got %d.", argCount)
			}
			return nil
		case *ObjClosure:
			return vm.call(o, argCount)
		case *ObjNative:
			return vm.callNative(o, argCount)
		}
	}
	return vm.runtimeError("Can only call functions and classes.")
}

func (vm *VM) call(closure *ObjClosure, argCount int) error {
	if argCount != closure.Function.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
	}
	if vm.frameCount == len(vm.frames) {
		return vm.runtimeError("Stack overflow.")
	}
	frame := &vm.frames[vm.frameCount]
	vm.frameCount++
	frame.closure = closure
	frame.ip = 0
	frame.slots = vm.stackTop - argCount - 1
	return nil
}

func (vm *VM) callNative(native *ObjNative, argCount int) error {
	if native.Arity >= 0 && argCount != native.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", native.Arity, argCount)
	}
	args := vm.stack[vm.stackTop-argCount : vm.stackTop]
	result, err := native.Fn(vm, args)
	if err != nil {
		var rt *RuntimeError
		if errors.As(err, &rt) {
			return rt
		}
		return vm.runtimeError("%s", err.Error())
	}
	vm.stackTop -= argCount + 1
	vm.push(result)
	return nil
}

func (vm *VM) invoke(name *ObjString, argCount int) error {
	receiver := vm.peek(argCount)
	if !receiver.IsInstance() {
		return vm.runtimeError("Only instances have methods.")
	}
	instance := receiver.AsInstance()
	// A field holding a callable shadows a method of the same name.
	if field, ok := instance.Fields.Get(name); ok {
		vm.stack[vm.stackTop-argCount-1] = field
		return vm.callValue(field, argCount)
	}
	return vm.invokeFromClass(instance.Class, name, argCount)
}

func (vm *VM) invokeFromClass(class *ObjClass, name *ObjString, argCount int) error {
	method, ok := class.FindMethod(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	return vm.call(method, argCount)
}

// bindMethod replaces the receiver on top of the stack with a bound method.
func (vm *VM) bindMethod(class *ObjClass, name *ObjString) error {
	method, ok := class.FindMethod(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	bound := vm.newBoundMethod(vm.peek(0), method)
	vm.pop()
	vm.push(ObjVal(bound))
	return nil
}

// captureUpvalue returns the open upvalue for a stack slot, creating one if
// needed. The open list is kept sorted by slot, highest first.
func (vm *VM) captureUpvalue(slot int) *ObjUpvalue {
	var prev *ObjUpvalue
	up := vm.openUpvalues
	for up != nil && up.slot > slot {
		prev = up
		up = up.next
	}
	if up != nil && up.slot == slot {
		return up
	}

	created := vm.newUpvalue(slot)
	created.next = up
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.next = created
	}
	return created
}

// closeUpvalues moves every open upvalue at or above last off the stack.
func (vm *VM) closeUpvalues(last int) {
	for vm.openUpvalues != nil && vm.openUpvalues.slot >= last {
		up := vm.openUpvalues
		up.closed = vm.stack[up.slot]
		up.slot = -1
		vm.openUpvalues = up.next
		up.next = nil
	}
}

func (vm *VM) upvalueGet(up *ObjUpvalue) Value {
	if up.slot >= 0 {
		return vm.stack[up.slot]
	}
	return up.closed
}

func (vm *VM) upvalueSet(up *ObjUpvalue, v Value) {
	if up.slot >= 0 {
		vm.stack[up.slot] = v
		return
	}
	up.closed = v
}

// Call invokes a script or native callable from host code, typically from
// inside a native function, and returns its result. A runtime error unwinds
// only the frames Call pushed, so a native may recover from it and carry on.
func (vm *VM) Call(callee Value, args ...Value) (result Value, err error) {
	base, top := vm.frameCount, vm.stackTop
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(stackOverflow); !ok {
				panic(r)
			}
			result, err = NullVal(), vm.runtimeError("Stack overflow.")
		}
		if err != nil {
			vm.unwind(base, top)
		}
	}()

	vm.push(callee)
	for _, a := range args {
		vm.push(a)
	}
	if err := vm.callValue(callee, len(args)); err != nil {
		return NullVal(), err
	}
	if vm.frameCount == base {
		// Natives and field-less class construction complete immediately.
		return vm.pop(), nil
	}
	return vm.run(base)
}
