package ankoku

import "fmt"

// OpCode is a single bytecode instruction. Operand widths are listed next to
// each opcode; multi-byte operands are big-endian.
type OpCode byte

const (
	OpConstant OpCode = iota // u16 constant index
	OpNull
	OpTrue
	OpFalse
	OpPop
	OpGetLocal     // u8 slot
	OpSetLocal     // u8 slot
	OpGetGlobal    // u16 name constant
	OpDefineGlobal // u16 name constant
	OpSetGlobal    // u16 name constant
	OpGetUpvalue   // u8 index
	OpSetUpvalue   // u8 index
	OpGetProperty  // u16 name constant
	OpSetProperty  // u16 name constant
	OpGetSuper     // u16 name constant
	OpEqual
	OpGreater
	OpGreaterEqual
	OpLess
	OpLessEqual
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpBitAnd
	OpBitOr
	OpNot
	OpNegate
	OpPrint
	OpJump        // u16 forward offset
	OpJumpIfFalse // u16 forward offset
	OpLoop        // u16 backward offset
	OpCall        // u8 argument count
	OpInvoke      // u16 name constant, u8 argument count
	OpSuperInvoke // u16 name constant, u8 argument count
	OpClosure     // u16 function constant, then (u8 isLocal, u8 index) per upvalue
	OpCloseUpvalue
	OpReturn
	OpClass // u16 name constant
	OpInherit
	OpMethod // u16 name constant
	OpNewObject
	OpInitField // u16 name constant
)

var opNames = [...]string{
	OpConstant:     "OP_CONSTANT",
	OpNull:         "OP_NULL",
	OpTrue:         "OP_TRUE",
	OpFalse:        "OP_FALSE",
	OpPop:          "OP_POP",
	OpGetLocal:     "OP_GET_LOCAL",
	OpSetLocal:     "OP_SET_LOCAL",
	OpGetGlobal:    "OP_GET_GLOBAL",
	OpDefineGlobal: "OP_DEFINE_GLOBAL",
	OpSetGlobal:    "OP_SET_GLOBAL",
	OpGetUpvalue:   "OP_GET_UPVALUE",
	OpSetUpvalue:   "OP_SET_UPVALUE",
	OpGetProperty:  "OP_GET_PROPERTY",
	OpSetProperty:  "OP_SET_PROPERTY",
	OpGetSuper:     "OP_GET_SUPER",
	OpEqual:        "OP_EQUAL",
	OpGreater:      "OP_GREATER",
	OpGreaterEqual: "OP_GREATER_EQUAL",
	OpLess:         "OP_LESS",
	OpLessEqual:    "OP_LESS_EQUAL",
	OpAdd:          "OP_ADD",
	OpSubtract:     "OP_SUBTRACT",
	OpMultiply:     "OP_MULTIPLY",
	OpDivide:       "OP_DIVIDE",
	OpBitAnd:       "OP_BIT_AND",
	OpBitOr:        "OP_BIT_OR",
	OpNot:          "OP_NOT",
	OpNegate:       "OP_NEGATE",
	OpPrint:        "OP_PRINT",
	OpJump:         "OP_JUMP",
	OpJumpIfFalse:  "OP_JUMP_IF_FALSE",
	OpLoop:         "OP_LOOP",
	OpCall:         "OP_CALL",
	OpInvoke:       "OP_INVOKE",
	OpSuperInvoke:  "OP_SUPER_INVOKE",
	OpClosure:      "OP_CLOSURE",
	OpCloseUpvalue: "OP_CLOSE_UPVALUE",
	OpReturn:       "OP_RETURN",
	OpClass:        "OP_CLASS",
	OpInherit:      "OP_INHERIT",
	OpMethod:       "OP_METHOD",
	OpNewObject:    "OP_NEW_OBJECT",
	OpInitField:    "OP_INIT_FIELD",
}

func (o OpCode) String() string {
	if int(o) < len(opNames) && opNames[o] != "" {
		return opNames[o]
	}
	return fmt.Sprintf("OP_UNKNOWN_%d", o)
}
