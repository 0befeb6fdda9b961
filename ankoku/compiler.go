package ankoku

import (
	"math"

	"github.com/tliron/commonlog"
)

const (
	maxLocals   = math.MaxUint8 + 1
	maxUpvalues = math.MaxUint8 + 1
	maxArgs     = math.MaxUint8
)

type FunctionType int

const (
	typeFunction FunctionType = iota
	typeInitializer
	typeMethod
	typeScript
)

// Program is a compiled top-level script, ready for Execute.
type Program struct {
	Function *ObjFunction
}

type local struct {
	name       string
	depth      int // -1 while the initializer is being compiled
	isCaptured bool
}

type upvalueRef struct {
	index   uint8
	isLocal bool
}

// funcCompiler holds the state of one function body being compiled. They
// chain outwards through enclosing for upvalue resolution.
type funcCompiler struct {
	enclosing  *funcCompiler
	function   *ObjFunction
	kind       FunctionType
	locals     []local
	upvalues   []upvalueRef
	scopeDepth int
}

type classCompiler struct {
	enclosing     *classCompiler
	hasSuperclass bool
}

// Compiler is a single-pass Pratt compiler from source text to bytecode.
type Compiler struct {
	vm        *VM
	lexer     *Lexer
	current   Token
	previous  Token
	hadError  bool
	panicMode bool
	errors    CompileErrors

	fc *funcCompiler
	cc *classCompiler
}

func newCompiler(vm *VM, source string) *Compiler {
	return &Compiler{
		vm:    vm,
		lexer: NewLexer(source),
	}
}

// Compile compiles source into a Program owned by vm. On failure it returns
// CompileErrors holding every diagnostic found.
func Compile(vm *VM, source string) (*Program, error) {
	return vm.Compile(source)
}

func (c *Compiler) compile() (*ObjFunction, error) {
	c.beginFunction(typeScript)
	c.advance()
	for !c.match(TokenEOF) {
		c.declaration()
	}
	fn, _ := c.endFunction()
	if c.hadError {
		if compilerLog.AllowLevel(commonlog.Info) {
			compilerLog.Infof("compilation failed with %d error(s)", len(c.errors))
		}
		return nil, c.errors
	}
	return fn, nil
}

// markRoots keeps every function still under construction alive.
func (c *Compiler) markRoots() {
	for fc := c.fc; fc != nil; fc = fc.enclosing {
		if fc.function != nil {
			c.vm.markObject(fc.function)
		}
	}
}

func (c *Compiler) currentChunk() *Chunk {
	return &c.fc.function.Chunk
}

// Token stream

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.lexer.Next()
		if c.current.Type != TokenError {
			return
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) consume(kind TokenType, msg string) {
	if c.current.Type == kind {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *Compiler) check(kind TokenType) bool {
	return c.current.Type == kind
}

func (c *Compiler) match(kind TokenType) bool {
	if !c.check(kind) {
		return false
	}
	c.advance()
	return true
}

// Errors

func (c *Compiler) errorAtCurrent(msg string) {
	c.errorAt(c.current, msg)
}

func (c *Compiler) error(msg string) {
	c.errorAt(c.previous, msg)
}

func (c *Compiler) errorAt(tok Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	where := ""
	switch tok.Type {
	case TokenEOF:
		where = " at end"
	case TokenError:
	default:
		where = " at '" + tok.Lexeme + "'"
	}
	c.errors = append(c.errors, &CompileError{
		Code:    compileCode(msg),
		Line:    tok.Line,
		Column:  tok.Col,
		Length:  tok.Length,
		Where:   where,
		Message: msg,
	})
}

// synchronize skips tokens until a likely statement boundary so one mistake
// does not cascade into many.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Type != TokenEOF {
		if c.previous.Type == TokenSemicolon {
			return
		}
		switch c.current.Type {
		case TokenClass, TokenFn, TokenVar, TokenFor, TokenIf, TokenWhile, TokenPrint, TokenReturn:
			return
		}
		c.advance()
	}
}

// Emission

func (c *Compiler) emitByte(b byte) {
	c.currentChunk().Write(b, c.previous.Line)
}

func (c *Compiler) emitBytes(bs ...byte) {
	for _, b := range bs {
		c.emitByte(b)
	}
}

func (c *Compiler) emitOp(op OpCode) {
	c.emitByte(byte(op))
}

func (c *Compiler) emitShort(v uint16) {
	c.emitBytes(byte(v>>8), byte(v))
}

func (c *Compiler) emitOpShort(op OpCode, v uint16) {
	c.emitOp(op)
	c.emitShort(v)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(OpLoop)
	offset := len(c.currentChunk().Code) - loopStart + 2
	if offset > math.MaxUint16 {
		c.error("Loop body too large.")
	}
	c.emitShort(uint16(offset))
}

func (c *Compiler) emitJump(op OpCode) int {
	c.emitOp(op)
	c.emitBytes(0xff, 0xff)
	return len(c.currentChunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	code := c.currentChunk().Code
	jump := len(code) - offset - 2
	if jump > math.MaxUint16 {
		c.error("Too much code to jump over.")
	}
	code[offset] = byte(jump >> 8)
	code[offset+1] = byte(jump)
}

func (c *Compiler) emitReturn() {
	if c.fc.kind == typeInitializer {
		c.emitBytes(byte(OpGetLocal), 0)
	} else {
		c.emitOp(OpNull)
	}
	c.emitOp(OpReturn)
}

func (c *Compiler) makeConstant(v Value) uint16 {
	idx := c.currentChunk().AddConstant(v)
	if idx >= MaxConstants {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return uint16(idx)
}

func (c *Compiler) emitConstant(v Value) {
	c.emitOpShort(OpConstant, c.makeConstant(v))
}

func (c *Compiler) identifierConstant(name Token) uint16 {
	return c.makeConstant(ObjVal(c.vm.CopyString(name.Lexeme)))
}

// Functions and scopes

func (c *Compiler) beginFunction(kind FunctionType) {
	fc := &funcCompiler{
		enclosing: c.fc,
		kind:      kind,
		locals:    make([]local, 0, maxLocals),
	}
	fc.function = c.vm.newFunction()
	c.fc = fc
	if kind != typeScript {
		fc.function.Name = c.vm.CopyString(c.previous.Lexeme)
	}

	// Slot zero holds the callee, or the receiver inside methods.
	slotZero := local{depth: 0}
	if kind == typeMethod || kind == typeInitializer {
		slotZero.name = "this"
	}
	fc.locals = append(fc.locals, slotZero)
}

func (c *Compiler) endFunction() (*ObjFunction, []upvalueRef) {
	c.emitReturn()
	fc := c.fc
	fn := fc.function
	fn.Chunk.sealConstants()
	if c.vm.config.Debug.PrintCode && !c.hadError {
		name := "<script>"
		if fn.Name != nil {
			name = fn.Name.Chars
		}
		c.vm.traceWrite(fn.Chunk.Disassemble(name))
	}
	c.fc = fc.enclosing
	return fn, fc.upvalues
}

func (c *Compiler) beginScope() {
	c.fc.scopeDepth++
}

func (c *Compiler) endScope() {
	fc := c.fc
	fc.scopeDepth--
	for len(fc.locals) > 0 && fc.locals[len(fc.locals)-1].depth > fc.scopeDepth {
		if fc.locals[len(fc.locals)-1].isCaptured {
			c.emitOp(OpCloseUpvalue)
		} else {
			c.emitOp(OpPop)
		}
		fc.locals = fc.locals[:len(fc.locals)-1]
	}
}

// Variables

func (c *Compiler) addLocal(name string) {
	if len(c.fc.locals) == maxLocals {
		c.error("Too many local variables in function.")
		return
	}
	c.fc.locals = append(c.fc.locals, local{name: name, depth: -1})
}

func (c *Compiler) declareVariable() {
	fc := c.fc
	if fc.scopeDepth == 0 {
		return
	}
	name := c.previous.Lexeme
	for i := len(fc.locals) - 1; i >= 0; i-- {
		l := &fc.locals[i]
		if l.depth != -1 && l.depth < fc.scopeDepth {
			break
		}
		if l.name == name {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) parseVariable(msg string) uint16 {
	c.consume(TokenIdentifier, msg)
	c.declareVariable()
	if c.fc.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.previous)
}

func (c *Compiler) markInitialized() {
	fc := c.fc
	if fc.scopeDepth == 0 {
		return
	}
	fc.locals[len(fc.locals)-1].depth = fc.scopeDepth
}

func (c *Compiler) defineVariable(global uint16) {
	if c.fc.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpShort(OpDefineGlobal, global)
}

// resolveLocal finds the innermost initialized local called name. A local
// whose initializer is still being compiled is skipped, so
// `var a = a + 1;` in an inner scope reads the outer a.
func resolveLocal(fc *funcCompiler, name string) int {
	for i := len(fc.locals) - 1; i >= 0; i-- {
		l := &fc.locals[i]
		if l.name == name && l.depth != -1 {
			return i
		}
	}
	return -1
}

func (c *Compiler) resolveUpvalue(fc *funcCompiler, name string) int {
	if fc.enclosing == nil {
		return -1
	}
	if slot := resolveLocal(fc.enclosing, name); slot != -1 {
		fc.enclosing.locals[slot].isCaptured = true
		return c.addUpvalue(fc, uint8(slot), true)
	}
	if index := c.resolveUpvalue(fc.enclosing, name); index != -1 {
		return c.addUpvalue(fc, uint8(index), false)
	}
	return -1
}

func (c *Compiler) addUpvalue(fc *funcCompiler, index uint8, isLocal bool) int {
	for i, up := range fc.upvalues {
		if up.index == index && up.isLocal == isLocal {
			return i
		}
	}
	if len(fc.upvalues) == maxUpvalues {
		c.error("Too many closure variables in function.")
		return 0
	}
	fc.upvalues = append(fc.upvalues, upvalueRef{index: index, isLocal: isLocal})
	fc.function.UpvalueCount = len(fc.upvalues)
	return len(fc.upvalues) - 1
}

func (c *Compiler) namedVariable(name Token, canAssign bool) {
	var getOp, setOp OpCode
	var arg int
	wide := false
	if arg = resolveLocal(c.fc, name.Lexeme); arg != -1 {
		getOp, setOp = OpGetLocal, OpSetLocal
	} else if arg = c.resolveUpvalue(c.fc, name.Lexeme); arg != -1 {
		getOp, setOp = OpGetUpvalue, OpSetUpvalue
	} else {
		arg = int(c.identifierConstant(name))
		getOp, setOp = OpGetGlobal, OpSetGlobal
		wide = true
	}

	op := getOp
	if canAssign && c.match(TokenEqual) {
		c.expression()
		op = setOp
	}
	if wide {
		c.emitOpShort(op, uint16(arg))
	} else {
		c.emitBytes(byte(op), byte(arg))
	}
}

func syntheticToken(text string) Token {
	return Token{Type: TokenIdentifier, Lexeme: text}
}
