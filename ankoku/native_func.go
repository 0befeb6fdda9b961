package ankoku

import (
	"fmt"
	"reflect"
)

var (
	vmType    = reflect.TypeOf((*VM)(nil))
	valueType = reflect.TypeOf(Value{})
	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

// FunctionMetadata describes a Go function adapted by NewGoNative.
type FunctionMetadata struct {
	Name         string
	Args         []reflect.Type
	IsVariadic   bool
	WantsVM      bool
	ReturnsError bool
	fnValue      reflect.Value
}

// RegisterGoFunction exposes an ordinary Go function as a global native.
// Parameters may be float64, float32, int kinds, bool, string or Value, and
// a leading *VM parameter receives the calling VM. The function may return
// nothing, one such value, or one value and an error.
func (vm *VM) RegisterGoFunction(name string, fn any, doc *Docstring) error {
	native, arity, err := NewGoNative(name, fn)
	if err != nil {
		return err
	}
	vm.RegisterNative(name, arity, native, doc)
	return nil
}

// NewGoNative wraps fn in a NativeFn using reflection. The returned arity
// is -1 for variadic functions.
func NewGoNative(name string, fn any) (NativeFn, int, error) {
	fnValue := reflect.ValueOf(fn)
	if fnValue.Kind() != reflect.Func {
		return nil, 0, fmt.Errorf("not a function: %T", fn)
	}
	fnType := fnValue.Type()

	meta := &FunctionMetadata{
		Name:       name,
		IsVariadic: fnType.IsVariadic(),
		fnValue:    fnValue,
	}
	argOffset := 0
	if fnType.NumIn() > 0 && fnType.In(0) == vmType {
		meta.WantsVM = true
		argOffset = 1
	}
	for i := argOffset; i < fnType.NumIn(); i++ {
		meta.Args = append(meta.Args, fnType.In(i))
	}

	switch fnType.NumOut() {
	case 0, 1:
		if fnType.NumOut() == 1 && fnType.Out(0) == errorType {
			return nil, 0, fmt.Errorf("%s: a lone error result is not supported", name)
		}
	case 2:
		if fnType.Out(1) != errorType {
			return nil, 0, fmt.Errorf("%s: second result must be error", name)
		}
		meta.ReturnsError = true
	default:
		return nil, 0, fmt.Errorf("%s: too many results", name)
	}

	converters := make([]argConverter, len(meta.Args))
	for i, t := range meta.Args {
		if meta.IsVariadic && i == len(meta.Args)-1 {
			t = t.Elem()
		}
		conv, err := newArgConverter(t)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: parameter %d: %w", name, i+1, err)
		}
		converters[i] = conv
	}

	arity := len(meta.Args)
	if meta.IsVariadic {
		arity = -1
	}
	return createCallFunc(meta, converters), arity, nil
}

type argConverter func(Value) (reflect.Value, error)

func createCallFunc(meta *FunctionMetadata, converters []argConverter) NativeFn {
	fixed := len(meta.Args)
	if meta.IsVariadic {
		fixed--
	}

	return func(vm *VM, args []Value) (Value, error) {
		if meta.IsVariadic && len(args) < fixed {
			return NullVal(), fmt.Errorf("Expected at least %d arguments but got %d.", fixed, len(args))
		}

		in := make([]reflect.Value, 0, len(args)+1)
		if meta.WantsVM {
			in = append(in, reflect.ValueOf(vm))
		}
		for i, arg := range args {
			conv := converters[len(converters)-1]
			if i < fixed {
				conv = converters[i]
			}
			v, err := conv(arg)
			if err != nil {
				return NullVal(), fmt.Errorf("%s() argument %d: %v", meta.Name, i+1, err)
			}
			in = append(in, v)
		}

		results := meta.fnValue.Call(in)
		if meta.ReturnsError && !results[1].IsNil() {
			return NullVal(), results[1].Interface().(error)
		}
		if len(results) == 0 {
			return NullVal(), nil
		}
		return vm.goToValue(results[0])
	}
}

func newArgConverter(t reflect.Type) (argConverter, error) {
	if t == valueType {
		return func(v Value) (reflect.Value, error) {
			return reflect.ValueOf(v), nil
		}, nil
	}

	switch t.Kind() {
	case reflect.String:
		return func(v Value) (reflect.Value, error) {
			if !v.IsString() {
				return reflect.Value{}, fmt.Errorf("expected string, got %s", v.TypeName())
			}
			return reflect.ValueOf(v.AsString().Chars).Convert(t), nil
		}, nil
	case reflect.Float64, reflect.Float32:
		return func(v Value) (reflect.Value, error) {
			if !v.IsNumber() {
				return reflect.Value{}, fmt.Errorf("expected number, got %s", v.TypeName())
			}
			return reflect.ValueOf(v.num).Convert(t), nil
		}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(v Value) (reflect.Value, error) {
			if !v.IsNumber() || v.num != float64(int64(v.num)) {
				return reflect.Value{}, fmt.Errorf("expected integer, got %s", v)
			}
			return reflect.ValueOf(int64(v.num)).Convert(t), nil
		}, nil
	case reflect.Bool:
		return func(v Value) (reflect.Value, error) {
			if !v.IsBool() {
				return reflect.Value{}, fmt.Errorf("expected bool, got %s", v.TypeName())
			}
			return reflect.ValueOf(v.AsBool()), nil
		}, nil
	case reflect.Ptr:
		return func(v Value) (reflect.Value, error) {
			if v.IsObj() {
				rv := reflect.ValueOf(v.obj)
				if rv.Type().AssignableTo(t) {
					return rv, nil
				}
			}
			return reflect.Value{}, fmt.Errorf("expected %s, got %s", t.Elem().Name(), v.TypeName())
		}, nil
	}
	return nil, fmt.Errorf("unsupported parameter type %s", t)
}

func (vm *VM) goToValue(rv reflect.Value) (Value, error) {
	if !rv.IsValid() {
		return NullVal(), nil
	}
	if rv.Type() == valueType {
		return rv.Interface().(Value), nil
	}
	switch rv.Kind() {
	case reflect.String:
		return ObjVal(vm.CopyString(rv.String())), nil
	case reflect.Float32, reflect.Float64:
		return NumberVal(rv.Float()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NumberVal(float64(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return NumberVal(float64(rv.Uint())), nil
	case reflect.Bool:
		return BoolVal(rv.Bool()), nil
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return NullVal(), nil
		}
		if o, ok := rv.Interface().(Obj); ok {
			return ObjVal(o), nil
		}
	}
	return NullVal(), fmt.Errorf("unsupported result type %s", rv.Type())
}
