package ankoku

import (
	"math"
	"strconv"
)

type ValueType uint8

const (
	ValNull ValueType = iota
	ValBool
	ValNumber
	ValObj
)

// Value is the tagged union every stack slot, constant, global and field
// holds. Booleans are stored in num as 0 or 1.
type Value struct {
	typ ValueType
	num float64
	obj Obj
}

func NullVal() Value { return Value{} }

func BoolVal(b bool) Value {
	if b {
		return Value{typ: ValBool, num: 1}
	}
	return Value{typ: ValBool}
}

func NumberVal(n float64) Value { return Value{typ: ValNumber, num: n} }

func ObjVal(o Obj) Value { return Value{typ: ValObj, obj: o} }

func (v Value) Type() ValueType { return v.typ }
func (v Value) IsNull() bool    { return v.typ == ValNull }
func (v Value) IsBool() bool    { return v.typ == ValBool }
func (v Value) IsNumber() bool  { return v.typ == ValNumber }
func (v Value) IsObj() bool     { return v.typ == ValObj }
func (v Value) AsBool() bool    { return v.num != 0 }
func (v Value) AsNumber() float64 {
	return v.num
}
func (v Value) AsObj() Obj { return v.obj }

func (v Value) isObjType(t ObjType) bool {
	return v.typ == ValObj && v.obj.Type() == t
}

func (v Value) IsString() bool   { return v.isObjType(ObjTypeString) }
func (v Value) IsInstance() bool { return v.isObjType(ObjTypeInstance) }
func (v Value) IsClass() bool    { return v.isObjType(ObjTypeClass) }

func (v Value) AsString() *ObjString     { return v.obj.(*ObjString) }
func (v Value) AsInstance() *ObjInstance { return v.obj.(*ObjInstance) }
func (v Value) AsClass() *ObjClass       { return v.obj.(*ObjClass) }
func (v Value) AsClosure() *ObjClosure   { return v.obj.(*ObjClosure) }
func (v Value) AsFunction() *ObjFunction { return v.obj.(*ObjFunction) }

// IsFalsey reports whether v counts as false in a condition. Only null and
// false do.
func (v Value) IsFalsey() bool {
	return v.typ == ValNull || (v.typ == ValBool && v.num == 0)
}

// TypeName is the user-facing name of the value's type.
func (v Value) TypeName() string {
	switch v.typ {
	case ValNull:
		return "null"
	case ValBool:
		return "bool"
	case ValNumber:
		return "number"
	default:
		return v.obj.Type().String()
	}
}

func (v Value) String() string {
	switch v.typ {
	case ValNull:
		return "null"
	case ValBool:
		return strconv.FormatBool(v.AsBool())
	case ValNumber:
		return formatNumber(v.num)
	default:
		return v.obj.String()
	}
}

func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "nan"
	case math.IsInf(n, 1):
		return "inf"
	case math.IsInf(n, -1):
		return "-inf"
	case n == math.Trunc(n) && math.Abs(n) < 1e15:
		if n == 0 && math.Signbit(n) {
			return "-0"
		}
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// ValuesEqual implements the language's == operator. Objects compare by
// identity, which is also content equality for strings since they are
// interned.
func ValuesEqual(a, b Value) bool {
	if a.typ != b.typ {
		return false
	}
	switch a.typ {
	case ValNull:
		return true
	case ValBool, ValNumber:
		return a.num == b.num
	default:
		return a.obj == b.obj
	}
}
