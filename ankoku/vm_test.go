package ankoku

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func newTestVM(t *testing.T, opts ...Option) (*VM, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	vm := NewVM(append([]Option{WithStdout(&out)}, opts...)...)
	if err := vm.LoadBuiltins(); err != nil {
		t.Fatalf("load builtins: %v", err)
	}
	return vm, &out
}

func run(t *testing.T, src string, opts ...Option) string {
	t.Helper()
	vm, out := newTestVM(t, opts...)
	if _, err := vm.Interpret(src); err != nil {
		t.Fatalf("interpret: %v\noutput so far:\n%s", err, out.String())
	}
	return out.String()
}

func runtimeErr(t *testing.T, src string) *RuntimeError {
	t.Helper()
	vm, _ := newTestVM(t)
	_, err := vm.Interpret(src)
	var rt *RuntimeError
	if !errors.As(err, &rt) {
		t.Fatalf("expected runtime error, got %v", err)
	}
	return rt
}

func TestVMPrograms(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"arithmetic", `print 1 + 2 * 3; print (1 + 2) * 3; print 10 / 4; print -2 - 3;`, "7\n9\n2.5\n-5\n"},
		{"comparison", `print 1 < 2; print 2 <= 1; print 3 >= 3; print 1 != 1; print !null;`, "true\nfalse\ntrue\nfalse\ntrue\n"},
		{"bitwise", `print 6 & 3; print 6 | 3;`, "2\n7\n"},
		{"concat", `var a = "foo"; print a + "bar";`, "foobar\n"},
		{"logical", `print null or "x"; print false and 1; print 1 and 2;`, "x\nfalse\n2\n"},
		{"shadowing", `var a = 1; { var a = a + 1; print a; } print a;`, "2\n1\n"},
		{"local shadowing", `{ var a = 10; { var a = a * 2; print a; } print a; }`, "20\n10\n"},
		{"while", `var i = 0; var s = 0; while (i < 5) { s = s + i; i = i + 1; } print s;`, "10\n"},
		{"for", `var s = 0; for (var i = 1; i <= 4; i = i + 1) s = s + i; print s;`, "10\n"},
		{"if else", `if (1 > 2) print "a"; else print "b"; if (true) print "c";`, "b\nc\n"},
		{"values", "print null; print true; print 3.5; print 1000000000000000000000; print 0.1;", "null\ntrue\n3.5\n1e+21\n0.1\n"},
		{"functions", `fn add(a, b) { return a + b; } print add(2, 3); print add;`, "5\n<fn add>\n"},
		{"implicit null return", `fn f() {} print f();`, "null\n"},
		{"recursion", `fn fib(n) { if (n < 2) return n; return fib(n - 2) + fib(n - 1); } print fib(15);`, "610\n"},
		{
			"counter closure",
			`fn makeCounter() {
			   var i = 0;
			   fn count() { i = i + 1; return i; }
			   return count;
			 }
			 var c = makeCounter();
			 print c(); print c();`,
			"1\n2\n",
		},
		{
			"shared upvalue",
			`fn pair() {
			   var x = 0;
			   fn inc() { x = x + 1; }
			   fn get() { return x; }
			   inc(); inc();
			   return get;
			 }
			 print pair()();`,
			"2\n",
		},
		{
			"per-iteration loop variable",
			`var a; var b;
			 for (var i = 0; i < 2; i = i + 1) {
			   fn f() { return i; }
			   if (i == 0) a = f; else b = f;
			 }
			 print a(); print b();`,
			"0\n1\n",
		},
		{
			"loop body writes loop variable",
			`for (var i = 0; i < 10; i = i + 1) { if (i == 1) i = 7; print i; }`,
			"0\n7\n8\n9\n",
		},
		{
			"closure after scope ends",
			`var get;
			 { var local = "captured"; fn g() { return local; } get = g; }
			 print get();`,
			"captured\n",
		},
		{
			"classes",
			`class Point {
			   init(x, y) { this.x = x; this.y = y; }
			   sum() { return this.x + this.y; }
			 }
			 var p = Point(1, 2);
			 print p.sum(); print p; print Point;
			 p.x = 10; print p.sum();`,
			"3\nPoint instance\nPoint\n12\n",
		},
		{
			"inheritance",
			`class A { init(n) { this.n = n; } greet() { return "A" + str(this.n); } }
			 class B < A { init(n) { super.init(n); } greet() { return "B" + super.greet(); } }
			 print B(1).greet();
			 var m = B(2).greet; print m();`,
			"BA1\nBA2\n",
		},
		{
			"inherited method lookup",
			`class A { hello() { return "hello"; } }
			 class B < A {}
			 class C < B {}
			 print C().hello();`,
			"hello\n",
		},
		{
			"super get",
			`class A { m() { return "A.m"; } }
			 class B < A { m() { var f = super.m; return f(); } }
			 print B().m();`,
			"A.m\n",
		},
		{
			"field shadows method",
			`class C { f() { return "method"; } }
			 fn hi() { return "field"; }
			 var c = C(); print c.f(); c.f = hi; print c.f();`,
			"method\nfield\n",
		},
		{
			"initializer returns this",
			`class P { init() { this.x = 1; return; } } var p = P(); print p.init().x;`,
			"1\n",
		},
		{
			"this in closure",
			`class T { init() { this.v = "tv"; } get() { fn inner() { return this.v; } return inner; } }
			 print T().get()();`,
			"tv\n",
		},
		{"natives", `print type(1); print type("s"); print type(clock); print len("abcd"); print sqrt(16);`, "number\nstring\nnative\n4\n4\n"},
		{
			"reflective fields",
			`class O {} var o = O();
			 setField(o, "k", 5); print hasField(o, "k"); print getField(o, "k");
			 print deleteField(o, "k"); print hasField(o, "k");`,
			"true\n5\ntrue\nfalse\n",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := run(t, tc.src); got != tc.want {
				t.Fatalf("output mismatch\nwant:\n%s\ngot:\n%s", tc.want, got)
			}
		})
	}
}

func TestVMObjectLiterals(t *testing.T) {
	src := `fn id(x) { return x; }
var p = { x = 1, y = 2 + 3, };
print p.x + p.y;
p.z = "late";
print p.z;
print {};
var nested = { inner = { v = "deep" }, f = id };
print nested.inner.v;
print nested.f(4);
print hasField({ k = null }, "k");
{ var block = 1; print block; }`
	want := "6\nlate\nobject instance\ndeep\n4\ntrue\n1\n"
	if got := run(t, src, WithStressGC(true)); got != want {
		t.Fatalf("expected:\n%s\ngot:\n%s", want, got)
	}
}

func TestVMTopLevelReturn(t *testing.T) {
	vm, _ := newTestVM(t)
	v, err := vm.Interpret("var x = 40; return x + 2;")
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}
	if !v.IsNumber() || v.AsNumber() != 42 {
		t.Fatalf("expected 42, got %s", v)
	}

	v, err = vm.Interpret("print 1;")
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}
	if !v.IsNull() {
		t.Fatalf("expected null, got %s", v)
	}
}

func TestVMRuntimeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"negate string", `print -"a";`, "Operand must be a number."},
		{"add mixed", `print "a" + 1;`, "Operands must be two numbers or two strings."},
		{"compare mixed", `print 1 < "a";`, "Operands must be numbers."},
		{"undefined get", `print nope;`, "Undefined variable 'nope'."},
		{"undefined set", `nope = 1;`, "Undefined variable 'nope'."},
		{"arity", `fn f(a) {} f();`, "Expected 1 arguments but got 0."},
		{"class arity", `class A {} A(1);`, "Expected 0 arguments but got 1."},
		{"init arity", `class A { init(a, b) {} } A(1);`, "Expected 2 arguments but got 1."},
		{"not callable", `var a = 1; a();`, "Can only call functions and classes."},
		{"property on number", `var a = 1; print a.b;`, "Only instances have properties."},
		{"field on number", `var a = 1; a.b = 2;`, "Only instances have fields."},
		{"method on number", `var a = 1; a.b();`, "Only instances have methods."},
		{"undefined property", `class A {} print A().x;`, "Undefined property 'x'."},
		{"undefined method", `class A {} A().x();`, "Undefined property 'x'."},
		{"bad superclass", `var NotClass = 1; class B < NotClass {}`, "Superclass must be a class."},
		{"stack overflow", `fn f() { f(); } f();`, "Stack overflow."},
		{"native arity", `clock(1);`, "Expected 0 arguments but got 1."},
		{"native error", `num("abc");`, "could not convert string 'abc' to number"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rt := runtimeErr(t, tc.src)
			if rt.Message != tc.msg {
				t.Fatalf("expected %q, got %q", tc.msg, rt.Message)
			}
		})
	}
}

func TestVMStackTrace(t *testing.T) {
	src := `fn a() { b(); }
fn b() { c(); }
fn c() { c("too", "many"); }
a();`
	rt := runtimeErr(t, src)
	want := []TraceFrame{
		{"c()", 3},
		{"b()", 2},
		{"a()", 1},
		{"script", 4},
	}
	if len(rt.Trace) != len(want) {
		t.Fatalf("expected %d frames, got %v", len(want), rt.Trace)
	}
	for i := range want {
		if rt.Trace[i] != want[i] {
			t.Fatalf("frame %d: expected %v, got %v", i, want[i], rt.Trace[i])
		}
	}
	if !strings.Contains(rt.Error(), "[line 3] in c()") {
		t.Fatalf("unexpected rendering: %s", rt.Error())
	}
}

func TestVMReusableAfterError(t *testing.T) {
	vm, out := newTestVM(t)
	if _, err := vm.Interpret(`var g = "kept"; print -"x";`); !IsRuntimeError(err) {
		t.Fatalf("expected runtime error, got %v", err)
	}
	if _, err := vm.Interpret(`print g;`); err != nil {
		t.Fatalf("interpret after error: %v", err)
	}
	if got := out.String(); got != "kept\n" {
		t.Fatalf("expected kept, got %q", got)
	}
}

func TestVMUndefinedAssignDoesNotDefine(t *testing.T) {
	vm, _ := newTestVM(t)
	if _, err := vm.Interpret(`ghost = 1;`); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := vm.GetGlobal("ghost"); ok {
		t.Fatal("failed assignment must not create a global")
	}
}

func TestVMMaxFrames(t *testing.T) {
	vm, _ := newTestVM(t, WithMaxFrames(8))
	src := `fn depth(n) { if (n == 0) return 0; return depth(n - 1); }`
	if _, err := vm.Interpret(src + " depth(6);"); err != nil {
		t.Fatalf("depth 6 should fit in 8 frames: %v", err)
	}
	_, err := vm.Interpret(src + " depth(7);")
	var rt *RuntimeError
	if !errors.As(err, &rt) || rt.Message != "Stack overflow." {
		t.Fatalf("expected stack overflow, got %v", err)
	}
}

func TestVMCompileThenExecute(t *testing.T) {
	vm, out := newTestVM(t)
	p, err := Compile(vm, `print "twice";`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := Execute(vm, p); err != nil {
			t.Fatalf("execute %d: %v", i, err)
		}
	}
	vm.Release(p)
	if got := out.String(); got != "twice\ntwice\n" {
		t.Fatalf("unexpected output %q", got)
	}
	if _, err := vm.Execute(nil); !errors.Is(err, ErrNilProgram) {
		t.Fatalf("expected ErrNilProgram, got %v", err)
	}
}

func TestVMRegisterNative(t *testing.T) {
	vm, out := newTestVM(t)
	RegisterNative(vm, "double", 1, func(vm *VM, args []Value) (Value, error) {
		if !args[0].IsNumber() {
			return NullVal(), errors.New("double() expects a number")
		}
		return NumberVal(args[0].AsNumber() * 2), nil
	})
	if _, err := vm.Interpret(`print double(21);`); err != nil {
		t.Fatalf("interpret: %v", err)
	}
	if out.String() != "42\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
	_, err := vm.Interpret(`double("x");`)
	var rt *RuntimeError
	if !errors.As(err, &rt) || rt.Message != "double() expects a number" {
		t.Fatalf("expected native error, got %v", err)
	}
	if rt.GetLine() != 1 {
		t.Fatalf("expected line 1, got %d", rt.GetLine())
	}
}

func TestVMCallFromNative(t *testing.T) {
	vm, out := newTestVM(t)
	RegisterNative(vm, "apply", 2, func(vm *VM, args []Value) (Value, error) {
		return vm.Call(args[0], args[1])
	})
	src := `fn sq(x) { return x * x; }
class Box { init(v) { this.v = v; } }
print apply(sq, 7);
print apply(Box, 3).v;
print apply(str, 5) + "!";`
	if _, err := vm.Interpret(src); err != nil {
		t.Fatalf("interpret: %v", err)
	}
	if got := out.String(); got != "49\n3\n5!\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestVMCallRecoversFromNestedError(t *testing.T) {
	vm, out := newTestVM(t)
	RegisterNative(vm, "try", 1, func(vm *VM, args []Value) (Value, error) {
		v, err := vm.Call(args[0])
		var rt *RuntimeError
		if errors.As(err, &rt) {
			return vm.NewString("caught: " + rt.Message), nil
		}
		return v, err
	})
	src := `var keep;
fn bad() { return 1 + "x"; }
fn risky() {
  var local = "boxed";
  fn get() { return local; }
  keep = get;
  return -local;
}
fn g() { var before = "intact"; var r = try(bad); print r; print before; return 7; }
print g();
print try(risky);
print keep();
print try(g);`
	if _, err := vm.Interpret(src); err != nil {
		t.Fatalf("interpret: %v", err)
	}
	want := "caught: Operands must be two numbers or two strings.\nintact\n7\n" +
		"caught: Operand must be a number.\nboxed\n" +
		"caught: Operands must be two numbers or two strings.\nintact\n7\n"
	if got := out.String(); got != want {
		t.Fatalf("expected:\n%s\ngot:\n%s", want, got)
	}
	if vm.stackTop != 0 || vm.frameCount != 0 || vm.openUpvalues != nil {
		t.Fatalf("stack not unwound: top %d, frames %d", vm.stackTop, vm.frameCount)
	}
}

func TestVMNativeWrappedErrorKeepsTrace(t *testing.T) {
	vm, out := newTestVM(t)
	RegisterNative(vm, "wrap", 1, func(vm *VM, args []Value) (Value, error) {
		v, err := vm.Call(args[0])
		if err != nil {
			return NullVal(), fmt.Errorf("wrap: %w", err)
		}
		return v, nil
	})
	src := `fn inner() { return -"x"; }
fn outer() { return wrap(inner); }
outer();`
	_, err := vm.Interpret(src)
	var rt *RuntimeError
	if !errors.As(err, &rt) || rt.Message != "Operand must be a number." {
		t.Fatalf("expected inner runtime error, got %v", err)
	}
	if len(rt.Trace) != 3 || rt.Trace[0].Function != "inner()" || rt.Trace[1].Function != "outer()" {
		t.Fatalf("unexpected trace %v", rt.Trace)
	}
	if rt.Code != CodeOperandType {
		t.Fatalf("expected %s, got %s", CodeOperandType, rt.Code)
	}
	if _, err := vm.Interpret(`print "after";`); err != nil {
		t.Fatalf("interpret after error: %v", err)
	}
	if out.String() != "after\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestVMValueStackOverflow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VM.StackMax = 256
	cfg.VM.MaxFrames = 1000
	vm, out := newTestVM(t, WithConfig(cfg))
	_, err := vm.Interpret(`fn f(n) { return f(n + 1); } f(0);`)
	var rt *RuntimeError
	if !errors.As(err, &rt) || rt.Message != "Stack overflow." {
		t.Fatalf("expected stack overflow, got %v", err)
	}
	if rt.Code != CodeStackOverflow {
		t.Fatalf("expected %s, got %s", CodeStackOverflow, rt.Code)
	}
	if len(rt.Trace) >= 1000 {
		t.Fatalf("frame limit reached before the value stack filled (%d frames)", len(rt.Trace))
	}
	if _, err := vm.Interpret(`print 1;`); err != nil {
		t.Fatalf("interpret after overflow: %v", err)
	}
	if out.String() != "1\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestVMGlobalsFromHost(t *testing.T) {
	vm, out := newTestVM(t)
	vm.SetGlobal("greeting", vm.NewString("hi"))
	if _, err := vm.Interpret(`print greeting; var answer = 42;`); err != nil {
		t.Fatalf("interpret: %v", err)
	}
	if out.String() != "hi\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
	v, ok := vm.GetGlobal("answer")
	if !ok || v.AsNumber() != 42 {
		t.Fatalf("expected answer=42, got %s (%t)", v, ok)
	}
	found := false
	for _, name := range vm.GlobalNames() {
		if name == "answer" {
			found = true
		}
	}
	if !found {
		t.Fatal("answer missing from GlobalNames")
	}
}

func TestVMTraceExecution(t *testing.T) {
	var trace bytes.Buffer
	cfg := DefaultConfig()
	cfg.Debug.TraceExecution = true
	cfg.Debug.PrintCode = true
	run(t, `print 1 + 2;`, WithConfig(cfg), WithTraceOutput(&trace))
	got := trace.String()
	for _, want := range []string{"== <script> ==", "OP_ADD", "[ 1 ][ 2 ]"} {
		if !strings.Contains(got, want) {
			t.Fatalf("trace missing %q:\n%s", want, got)
		}
	}
}
