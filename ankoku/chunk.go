package ankoku

import (
	"math"
	"sort"
)

// MaxConstants is the number of constants a single chunk can address.
const MaxConstants = math.MaxUint16 + 1

// LineStart records that the instructions from Offset onwards came from
// Line, up to the next LineStart.
type LineStart struct {
	Offset int
	Line   int
}

// Chunk is the compiled body of one function.
type Chunk struct {
	Code      []byte
	Constants []Value
	lines     []LineStart

	// Constant indexes used while the chunk is being written.
	numberConsts map[uint64]int
	stringConsts map[*ObjString]int
}

// Write appends a byte and extends the line table only when line differs
// from the previous instruction's.
func (c *Chunk) Write(b byte, line int) {
	if n := len(c.lines); n == 0 || c.lines[n-1].Line != line {
		c.lines = append(c.lines, LineStart{Offset: len(c.Code), Line: line})
	}
	c.Code = append(c.Code, b)
}

// AddConstant returns the index of v in the constant pool, reusing an
// existing slot for numbers with the same bits and for identical strings.
func (c *Chunk) AddConstant(v Value) int {
	switch {
	case v.typ == ValNumber:
		bits := math.Float64bits(v.num)
		if i, ok := c.numberConsts[bits]; ok {
			return i
		}
		if c.numberConsts == nil {
			c.numberConsts = make(map[uint64]int)
		}
		c.numberConsts[bits] = len(c.Constants)
	case v.IsString():
		s := v.AsString()
		if i, ok := c.stringConsts[s]; ok {
			return i
		}
		if c.stringConsts == nil {
			c.stringConsts = make(map[*ObjString]int)
		}
		c.stringConsts[s] = len(c.Constants)
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// sealConstants drops the lookup indexes once nothing more will be added.
func (c *Chunk) sealConstants() {
	c.numberConsts = nil
	c.stringConsts = nil
}

// Line returns the source line of the instruction byte at offset.
func (c *Chunk) Line(offset int) int {
	i := sort.Search(len(c.lines), func(i int) bool {
		return c.lines[i].Offset > offset
	})
	if i == 0 {
		return 0
	}
	return c.lines[i-1].Line
}

// LineTable exposes the run-length encoded line table.
func (c *Chunk) LineTable() []LineStart {
	return c.lines
}
