package ankoku

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

type CallFrame struct {
	closure *ObjClosure
	ip      int
	slots   int // stack index of the callee, slot zero of the frame
}

// VM executes compiled programs. A VM is not safe for concurrent use;
// Lock and Unlock let hosts serialize access when they share one.
type VM struct {
	mu     sync.Mutex
	id     string
	config Config

	Stdout   io.Writer
	TraceOut io.Writer

	stack      []Value
	stackTop   int
	frames     []CallFrame
	frameCount int

	globals      Table
	strings      Table
	initString   *ObjString
	objectClass  *ObjClass
	openUpvalues *ObjUpvalue

	objects        Obj
	objectCount    int
	bytesAllocated int
	bytesFreed     int
	nextGC         int
	collections    int
	grayStack      []Obj
	compiler       *Compiler
	pinned         map[*ObjFunction]struct{}
	pending        Obj
}

var ErrNilProgram = errors.New("ankoku: nil program")

// stackOverflow is panicked by push when the value stack is full and
// recovered by run.
type stackOverflow struct{}

func NewVM(opts ...Option) *VM {
	vm := &VM{
		id:       uuid.NewString(),
		config:   DefaultConfig(),
		Stdout:   os.Stdout,
		TraceOut: os.Stderr,
		pinned:   make(map[*ObjFunction]struct{}),
	}
	for _, opt := range opts {
		opt(vm)
	}
	vm.stack = make([]Value, vm.config.VM.StackMax)
	vm.frames = make([]CallFrame, vm.config.VM.MaxFrames)
	vm.nextGC = vm.config.GC.MinHeap
	vm.initString = vm.CopyString("init")
	vm.objectClass = vm.newClass(vm.CopyString("object"))

	if vmLog.AllowLevel(commonlog.Debug) {
		vmLog.Debugf("vm %s created (stack %d, frames %d, stress gc %t)",
			vm.id, vm.config.VM.StackMax, vm.config.VM.MaxFrames, vm.config.GC.Stress)
	}
	return vm
}

// ID uniquely identifies the VM in log output.
func (vm *VM) ID() string { return vm.id }

func (vm *VM) Config() Config { return vm.config }

func (vm *VM) Lock()   { vm.mu.Lock() }
func (vm *VM) Unlock() { vm.mu.Unlock() }

// Close releases every object the VM owns. The VM must not be used again.
func (vm *VM) Close() {
	vm.resetStack()
	vm.globals = Table{}
	vm.strings = Table{}
	vm.pinned = map[*ObjFunction]struct{}{}
	vm.initString = nil
	vm.objectClass = nil
	vm.freeObjects()
	if vmLog.AllowLevel(commonlog.Debug) {
		vmLog.Debugf("vm %s closed", vm.id)
	}
}

// Compile compiles source. The returned program stays reachable until it
// is passed to Release.
func (vm *VM) Compile(source string) (*Program, error) {
	c := newCompiler(vm, source)
	vm.compiler = c
	fn, err := c.compile()
	vm.compiler = nil
	if err != nil {
		return nil, err
	}
	vm.pinned[fn] = struct{}{}
	return &Program{Function: fn}, nil
}

// Release lets the collector reclaim p once nothing else refers to it.
func (vm *VM) Release(p *Program) {
	if p != nil {
		delete(vm.pinned, p.Function)
	}
}

// Execute runs p to completion and returns the value of a top-level return
// statement, or null. After a runtime error the stack is unwound and the
// VM may be reused; globals defined before the error are kept.
func Execute(vm *VM, p *Program) (Value, error) {
	return vm.Execute(p)
}

func (vm *VM) Execute(p *Program) (Value, error) {
	if p == nil || p.Function == nil {
		return NullVal(), ErrNilProgram
	}
	vm.resetStack()
	vm.push(ObjVal(p.Function))
	closure := vm.newClosure(p.Function)
	vm.pop()
	vm.push(ObjVal(closure))
	if err := vm.call(closure, 0); err != nil {
		vm.unwind(0, 0)
		return NullVal(), err
	}
	result, err := vm.run(0)
	if err != nil {
		vm.unwind(0, 0)
	}
	return result, err
}

// Interpret compiles and runs source in one step.
func (vm *VM) Interpret(source string) (Value, error) {
	p, err := vm.Compile(source)
	if err != nil {
		return NullVal(), err
	}
	defer vm.Release(p)
	return vm.Execute(p)
}

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

func (vm *VM) push(v Value) {
	if vm.stackTop == len(vm.stack) {
		panic(stackOverflow{})
	}
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) Value {
	return vm.stack[vm.stackTop-1-distance]
}

// runtimeError builds an error with a trace of the active frames, innermost
// first. It leaves the stack alone: the entry point that started the
// failing run unwinds it.
func (vm *VM) runtimeError(format string, args ...any) *RuntimeError {
	msg := fmt.Sprintf(format, args...)
	err := &RuntimeError{Code: runtimeCode(msg), Message: msg}
	for i := vm.frameCount - 1; i >= 0; i-- {
		frame := &vm.frames[i]
		fn := frame.closure.Function
		err.Trace = append(err.Trace, TraceFrame{
			Function: fn.displayName(),
			Line:     fn.Chunk.Line(frame.ip - 1),
		})
	}
	if vmLog.AllowLevel(commonlog.Info) {
		vmLog.Infof("vm %s: runtime error: %s", vm.id, err.Message)
	}
	return err
}

// unwind drops every frame above frameCount and every value above stackTop,
// closing upvalues that still point into the discarded region.
func (vm *VM) unwind(frameCount, stackTop int) {
	vm.closeUpvalues(stackTop)
	vm.frameCount = frameCount
	vm.stackTop = stackTop
}

func (vm *VM) traceWrite(s string) {
	if vm.TraceOut != nil {
		io.WriteString(vm.TraceOut, s)
	}
}

func (vm *VM) traceInstruction(frame *CallFrame) {
	var sb strings.Builder
	sb.WriteString("          ")
	for i := 0; i < vm.stackTop; i++ {
		fmt.Fprintf(&sb, "[ %s ]", vm.stack[i])
	}
	sb.WriteString("\n")
	frame.closure.Function.Chunk.DisassembleInstruction(&sb, frame.ip)
	vm.traceWrite(sb.String())
}

// RegisterNative exposes fn to scripts as a global. arity -1 accepts any
// number of arguments. captured values are kept alive with the native.
func RegisterNative(vm *VM, name string, arity int, fn NativeFn, captured ...Value) *ObjNative {
	return vm.RegisterNative(name, arity, fn, nil, captured...)
}

func (vm *VM) RegisterNative(name string, arity int, fn NativeFn, doc *Docstring, captured ...Value) *ObjNative {
	base := vm.stackTop
	vm.push(ObjVal(vm.CopyString(name)))
	native := vm.newNative(name, arity, fn, doc, captured)
	vm.push(ObjVal(native))
	vm.globals.Set(vm.stack[base].AsString(), vm.stack[base+1])
	vm.stackTop = base
	return native
}

// GetGlobal reads a global variable.
func (vm *VM) GetGlobal(name string) (Value, bool) {
	return vm.globals.Get(vm.CopyString(name))
}

// SetGlobal defines or overwrites a global variable.
func (vm *VM) SetGlobal(name string, v Value) {
	base := vm.stackTop
	vm.push(v)
	vm.globals.Set(vm.CopyString(name), v)
	vm.stackTop = base
}

// GlobalNames lists the names of all defined globals.
func (vm *VM) GlobalNames() []string {
	names := make([]string, 0, vm.globals.Len())
	vm.globals.Each(func(key *ObjString, _ Value) {
		names = append(names, key.Chars)
	})
	return names
}

// NewString returns an interned string value.
func (vm *VM) NewString(s string) Value {
	return ObjVal(vm.CopyString(s))
}
