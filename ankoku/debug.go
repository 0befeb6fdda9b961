package ankoku

import (
	"fmt"
	"strings"
)

// Disassemble renders every instruction of the chunk under a header.
func (c *Chunk) Disassemble(name string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		offset = c.DisassembleInstruction(&sb, offset)
	}
	return sb.String()
}

// DisassembleInstruction writes one instruction and returns the offset of
// the next.
func (c *Chunk) DisassembleInstruction(sb *strings.Builder, offset int) int {
	fmt.Fprintf(sb, "%04d ", offset)
	line := c.Line(offset)
	if offset > 0 && line == c.Line(offset-1) {
		sb.WriteString("   | ")
	} else {
		fmt.Fprintf(sb, "%4d ", line)
	}

	op := OpCode(c.Code[offset])
	switch op {
	case OpConstant, OpGetGlobal, OpDefineGlobal, OpSetGlobal,
		OpGetProperty, OpSetProperty, OpGetSuper, OpClass, OpMethod, OpInitField:
		return c.constantInstruction(sb, op, offset)
	case OpGetLocal, OpSetLocal, OpGetUpvalue, OpSetUpvalue, OpCall:
		return c.byteInstruction(sb, op, offset)
	case OpJump, OpJumpIfFalse:
		return c.jumpInstruction(sb, op, 1, offset)
	case OpLoop:
		return c.jumpInstruction(sb, op, -1, offset)
	case OpInvoke, OpSuperInvoke:
		return c.invokeInstruction(sb, op, offset)
	case OpClosure:
		return c.closureInstruction(sb, offset)
	default:
		if int(op) >= len(opNames) {
			fmt.Fprintf(sb, "Unknown opcode %d\n", op)
			return offset + 1
		}
		fmt.Fprintf(sb, "%s\n", op)
		return offset + 1
	}
}

func (c *Chunk) readShort(offset int) int {
	return int(c.Code[offset])<<8 | int(c.Code[offset+1])
}

func (c *Chunk) constantInstruction(sb *strings.Builder, op OpCode, offset int) int {
	idx := c.readShort(offset + 1)
	fmt.Fprintf(sb, "%-16s %4d '%s'\n", op, idx, c.Constants[idx])
	return offset + 3
}

func (c *Chunk) byteInstruction(sb *strings.Builder, op OpCode, offset int) int {
	fmt.Fprintf(sb, "%-16s %4d\n", op, c.Code[offset+1])
	return offset + 2
}

func (c *Chunk) jumpInstruction(sb *strings.Builder, op OpCode, sign, offset int) int {
	jump := c.readShort(offset + 1)
	fmt.Fprintf(sb, "%-16s %4d -> %d\n", op, offset, offset+3+sign*jump)
	return offset + 3
}

func (c *Chunk) invokeInstruction(sb *strings.Builder, op OpCode, offset int) int {
	idx := c.readShort(offset + 1)
	argCount := c.Code[offset+3]
	fmt.Fprintf(sb, "%-16s (%d args) %4d '%s'\n", op, argCount, idx, c.Constants[idx])
	return offset + 4
}

func (c *Chunk) closureInstruction(sb *strings.Builder, offset int) int {
	idx := c.readShort(offset + 1)
	offset += 3
	fmt.Fprintf(sb, "%-16s %4d %s\n", OpClosure, idx, c.Constants[idx])

	fn := c.Constants[idx].AsFunction()
	for i := 0; i < fn.UpvalueCount; i++ {
		kind := "upvalue"
		if c.Code[offset] == 1 {
			kind = "local"
		}
		fmt.Fprintf(sb, "%04d      |                     %s %d\n", offset, kind, c.Code[offset+1])
		offset += 2
	}
	return offset
}

// DisassembleProgram renders the script and, recursively, every function
// nested in its constants.
func DisassembleProgram(p *Program) string {
	var sb strings.Builder
	seen := map[*ObjFunction]bool{}
	var walk func(fn *ObjFunction)
	walk = func(fn *ObjFunction) {
		if seen[fn] {
			return
		}
		seen[fn] = true
		name := "<script>"
		if fn.Name != nil {
			name = fn.Name.Chars
		}
		sb.WriteString(fn.Chunk.Disassemble(name))
		for _, v := range fn.Chunk.Constants {
			if v.isObjType(ObjTypeFunction) {
				sb.WriteString("\n")
				walk(v.AsFunction())
			}
		}
	}
	walk(p.Function)
	return sb.String()
}
