package ankoku

import "fmt"

func (f *CallFrame) readByte() byte {
	b := f.closure.Function.Chunk.Code[f.ip]
	f.ip++
	return b
}

func (f *CallFrame) readShort() int {
	code := f.closure.Function.Chunk.Code
	v := int(code[f.ip])<<8 | int(code[f.ip+1])
	f.ip += 2
	return v
}

func (f *CallFrame) readConstant() Value {
	return f.closure.Function.Chunk.Constants[f.readShort()]
}

func (f *CallFrame) readString() *ObjString {
	return f.readConstant().AsString()
}

// run executes until the frame count drops back to base.
func (vm *VM) run(base int) (result Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(stackOverflow); !ok {
				panic(r)
			}
			result, err = NullVal(), vm.runtimeError("Stack overflow.")
		}
	}()

	frame := &vm.frames[vm.frameCount-1]
	trace := vm.config.Debug.TraceExecution

	for {
		if trace {
			vm.traceInstruction(frame)
		}

		switch op := OpCode(frame.readByte()); op {
		case OpConstant:
			vm.push(frame.readConstant())
		case OpNull:
			vm.push(NullVal())
		case OpTrue:
			vm.push(BoolVal(true))
		case OpFalse:
			vm.push(BoolVal(false))
		case OpPop:
			vm.pop()

		case OpGetLocal:
			slot := int(frame.readByte())
			vm.push(vm.stack[frame.slots+slot])
		case OpSetLocal:
			slot := int(frame.readByte())
			vm.stack[frame.slots+slot] = vm.peek(0)

		case OpGetGlobal:
			name := frame.readString()
			value, ok := vm.globals.Get(name)
			if !ok {
				return NullVal(), vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.push(value)
		case OpDefineGlobal:
			name := frame.readString()
			vm.globals.Set(name, vm.peek(0))
			vm.pop()
		case OpSetGlobal:
			name := frame.readString()
			if vm.globals.Set(name, vm.peek(0)) {
				vm.globals.Delete(name)
				return NullVal(), vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}

		case OpGetUpvalue:
			slot := frame.readByte()
			vm.push(vm.upvalueGet(frame.closure.Upvalues[slot]))
		case OpSetUpvalue:
			slot := frame.readByte()
			vm.upvalueSet(frame.closure.Upvalues[slot], vm.peek(0))

		case OpGetProperty:
			if !vm.peek(0).IsInstance() {
				return NullVal(), vm.runtimeError("Only instances have properties.")
			}
			instance := vm.peek(0).AsInstance()
			name := frame.readString()
			if value, ok := instance.Fields.Get(name); ok {
				vm.pop()
				vm.push(value)
				break
			}
			if err := vm.bindMethod(instance.Class, name); err != nil {
				return NullVal(), err
			}
		case OpSetProperty:
			if !vm.peek(1).IsInstance() {
				return NullVal(), vm.runtimeError("Only instances have fields.")
			}
			instance := vm.peek(1).AsInstance()
			instance.Fields.Set(frame.readString(), vm.peek(0))
			value := vm.pop()
			vm.pop()
			vm.push(value)
		case OpNewObject:
			vm.push(ObjVal(vm.newInstance(vm.objectClass)))
		case OpInitField:
			instance := vm.peek(1).AsInstance()
			instance.Fields.Set(frame.readString(), vm.peek(0))
			vm.pop()
		case OpGetSuper:
			name := frame.readString()
			superclass := vm.pop().AsClass()
			if err := vm.bindMethod(superclass, name); err != nil {
				return NullVal(), err
			}

		case OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(BoolVal(ValuesEqual(a, b)))
		case OpGreater, OpGreaterEqual, OpLess, OpLessEqual,
			OpSubtract, OpMultiply, OpDivide, OpBitAnd, OpBitOr:
			if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
				return NullVal(), vm.runtimeError("Operands must be numbers.")
			}
			b := vm.pop().num
			a := vm.pop().num
			vm.push(numericOp(op, a, b))
		case OpAdd:
			switch {
			case vm.peek(0).IsString() && vm.peek(1).IsString():
				vm.concatenate()
			case vm.peek(0).IsNumber() && vm.peek(1).IsNumber():
				b := vm.pop().num
				a := vm.pop().num
				vm.push(NumberVal(a + b))
			default:
				return NullVal(), vm.runtimeError("Operands must be two numbers or two strings.")
			}
		case OpNot:
			vm.push(BoolVal(vm.pop().IsFalsey()))
		case OpNegate:
			if !vm.peek(0).IsNumber() {
				return NullVal(), vm.runtimeError("Operand must be a number.")
			}
			vm.push(NumberVal(-vm.pop().num))

		case OpPrint:
			fmt.Fprintln(vm.Stdout, vm.pop().String())

		case OpJump:
			offset := frame.readShort()
			frame.ip += offset
		case OpJumpIfFalse:
			offset := frame.readShort()
			if vm.peek(0).IsFalsey() {
				frame.ip += offset
			}
		case OpLoop:
			offset := frame.readShort()
			frame.ip -= offset

		case OpCall:
			argCount := int(frame.readByte())
			if err := vm.callValue(vm.peek(argCount), argCount); err != nil {
				return NullVal(), err
			}
			frame = &vm.frames[vm.frameCount-1]
		case OpInvoke:
			method := frame.readString()
			argCount := int(frame.readByte())
			if err := vm.invoke(method, argCount); err != nil {
				return NullVal(), err
			}
			frame = &vm.frames[vm.frameCount-1]
		case OpSuperInvoke:
			method := frame.readString()
			argCount := int(frame.readByte())
			superclass := vm.pop().AsClass()
			if err := vm.invokeFromClass(superclass, method, argCount); err != nil {
				return NullVal(), err
			}
			frame = &vm.frames[vm.frameCount-1]

		case OpClosure:
			fn := frame.readConstant().AsFunction()
			closure := vm.newClosure(fn)
			vm.push(ObjVal(closure))
			for i := range closure.Upvalues {
				isLocal := frame.readByte()
				index := int(frame.readByte())
				if isLocal == 1 {
					closure.Upvalues[i] = vm.captureUpvalue(frame.slots + index)
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}
		case OpCloseUpvalue:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()

		case OpReturn:
			result := vm.pop()
			vm.closeUpvalues(frame.slots)
			vm.frameCount--
			vm.stackTop = frame.slots
			if vm.frameCount == base {
				return result, nil
			}
			vm.push(result)
			frame = &vm.frames[vm.frameCount-1]

		case OpClass:
			vm.push(ObjVal(vm.newClass(frame.readString())))
		case OpInherit:
			superclass := vm.peek(1)
			if !superclass.IsClass() {
				return NullVal(), vm.runtimeError("Superclass must be a class.")
			}
			subclass := vm.peek(0).AsClass()
			if subclass == superclass.AsClass() {
				return NullVal(), vm.runtimeError("A class can't inherit from itself.")
			}
			subclass.Superclass = superclass.AsClass()
			vm.pop()
		case OpMethod:
			vm.defineMethod(frame.readString())

		default:
			return NullVal(), vm.runtimeError("Unknown opcode %d.", op)
		}
	}
}

func numericOp(op OpCode, a, b float64) Value {
	switch op {
	case OpGreater:
		return BoolVal(a > b)
	case OpGreaterEqual:
		return BoolVal(a >= b)
	case OpLess:
		return BoolVal(a < b)
	case OpLessEqual:
		return BoolVal(a <= b)
	case OpSubtract:
		return NumberVal(a - b)
	case OpMultiply:
		return NumberVal(a * b)
	case OpDivide:
		return NumberVal(a / b)
	case OpBitAnd:
		return NumberVal(float64(int64(a) & int64(b)))
	case OpBitOr:
		return NumberVal(float64(int64(a) | int64(b)))
	}
	panic(fmt.Sprintf("numericOp: unexpected %s", op))
}

// concatenate joins the two strings on top of the stack. Both operands stay
// on the stack until the result is interned.
func (vm *VM) concatenate() {
	b := vm.peek(0).AsString()
	a := vm.peek(1).AsString()
	result := vm.CopyString(a.Chars + b.Chars)
	vm.pop()
	vm.pop()
	vm.push(ObjVal(result))
}

func (vm *VM) defineMethod(name *ObjString) {
	method := vm.peek(0)
	class := vm.peek(1).AsClass()
	class.Methods.Set(name, method)
	vm.pop()
}
