package ankoku

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// BuiltinFunctions are plain Go functions adapted through reflection.
var BuiltinFunctions = map[string]any{
	"clock": nativeClock,
	"str":   nativeStr,
	"len":   nativeLen,
	"num":   nativeNum,
	"sqrt":  math.Sqrt,
	"floor": math.Floor,
	"abs":   math.Abs,
}

// BuiltinNatives need direct access to values and the VM.
var BuiltinNatives = map[string]struct {
	Arity int
	Fn    NativeFn
}{
	"type":        {1, nativeType},
	"hasField":    {2, nativeHasField},
	"getField":    {2, nativeGetField},
	"setField":    {3, nativeSetField},
	"deleteField": {2, nativeDeleteField},
	"gc":          {0, nativeGC},
}

var processStart = time.Now()

// LoadBuiltins defines the standard natives as globals.
func (vm *VM) LoadBuiltins() error {
	for name, fn := range BuiltinFunctions {
		if err := vm.RegisterGoFunction(name, fn, BuiltinDocs[name]); err != nil {
			return err
		}
	}
	for name, b := range BuiltinNatives {
		vm.RegisterNative(name, b.Arity, b.Fn, BuiltinDocs[name])
	}
	return nil
}

func nativeClock() float64 {
	return time.Since(processStart).Seconds()
}

func nativeStr(v Value) string {
	return v.String()
}

func nativeLen(s string) int {
	return len(s)
}

func nativeNum(v Value) (float64, error) {
	switch {
	case v.IsNumber():
		return v.num, nil
	case v.IsBool():
		if v.AsBool() {
			return 1, nil
		}
		return 0, nil
	case v.IsString():
		s := strings.TrimSpace(v.AsString().Chars)
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("could not convert string '%s' to number", s)
		}
		return n, nil
	}
	return 0, fmt.Errorf("cannot convert %s to number", v.TypeName())
}

func nativeType(vm *VM, args []Value) (Value, error) {
	return ObjVal(vm.CopyString(args[0].TypeName())), nil
}

func fieldArgs(fn string, args []Value) (*ObjInstance, *ObjString, error) {
	if !args[0].IsInstance() {
		return nil, nil, fmt.Errorf("%s() expects an instance, got %s", fn, args[0].TypeName())
	}
	if !args[1].IsString() {
		return nil, nil, fmt.Errorf("%s() expects a string field name, got %s", fn, args[1].TypeName())
	}
	return args[0].AsInstance(), args[1].AsString(), nil
}

func nativeHasField(vm *VM, args []Value) (Value, error) {
	instance, name, err := fieldArgs("hasField", args)
	if err != nil {
		return NullVal(), err
	}
	_, ok := instance.Fields.Get(name)
	return BoolVal(ok), nil
}

func nativeGetField(vm *VM, args []Value) (Value, error) {
	instance, name, err := fieldArgs("getField", args)
	if err != nil {
		return NullVal(), err
	}
	if v, ok := instance.Fields.Get(name); ok {
		return v, nil
	}
	return NullVal(), fmt.Errorf("Undefined property '%s'.", name.Chars)
}

func nativeSetField(vm *VM, args []Value) (Value, error) {
	instance, name, err := fieldArgs("setField", args)
	if err != nil {
		return NullVal(), err
	}
	instance.Fields.Set(name, args[2])
	return args[2], nil
}

func nativeDeleteField(vm *VM, args []Value) (Value, error) {
	instance, name, err := fieldArgs("deleteField", args)
	if err != nil {
		return NullVal(), err
	}
	return BoolVal(instance.Fields.Delete(name)), nil
}

// nativeGC forces a collection and returns the number of bytes it freed.
func nativeGC(vm *VM, args []Value) (Value, error) {
	before := vm.bytesAllocated
	vm.collectGarbage()
	return NumberVal(float64(before - vm.bytesAllocated)), nil
}
