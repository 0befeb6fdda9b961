package ankoku

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestRegisterGoFunction(t *testing.T) {
	vm, out := newTestVM(t)

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(vm.RegisterGoFunction("repeat", strings.Repeat, nil))
	must(vm.RegisterGoFunction("sum", func(xs ...float64) float64 {
		total := 0.0
		for _, x := range xs {
			total += x
		}
		return total
	}, nil))
	must(vm.RegisterGoFunction("half", func(n int) (int, error) {
		if n%2 != 0 {
			return 0, fmt.Errorf("%d is odd", n)
		}
		return n / 2, nil
	}, nil))
	must(vm.RegisterGoFunction("both", func(a, b bool) bool { return a && b }, nil))
	must(vm.RegisterGoFunction("vmid", func(vm *VM) string { return vm.ID() }, nil))
	must(vm.RegisterGoFunction("className", func(i *ObjInstance) string { return i.Class.Name.Chars }, nil))
	must(vm.RegisterGoFunction("noop", func() {}, nil))

	src := `print repeat("ab", 3);
print sum(); print sum(1, 2, 3.5);
print half(10);
print both(true, false);
print vmid() == vmid();
class Widget {} print className(Widget());
print noop();`
	if _, err := vm.Interpret(src); err != nil {
		t.Fatalf("interpret: %v", err)
	}
	want := "ababab\n0\n6.5\n5\nfalse\ntrue\nWidget\nnull\n"
	if out.String() != want {
		t.Fatalf("expected:\n%s\ngot:\n%s", want, out.String())
	}
}

func TestGoFunctionArgumentErrors(t *testing.T) {
	vm, _ := newTestVM(t)
	if err := vm.RegisterGoFunction("half", func(n int) int { return n / 2 }, nil); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		src  string
		want string
	}{
		{`half("x");`, "half() argument 1: expected integer, got x"},
		{`half(1.5);`, "half() argument 1: expected integer, got 1.5"},
		{`half();`, "Expected 1 arguments but got 0."},
		{`sqrt(null);`, "sqrt() argument 1: expected number, got null"},
	}
	for _, tc := range tests {
		_, err := vm.Interpret(tc.src)
		var rt *RuntimeError
		if !errors.As(err, &rt) || rt.Message != tc.want {
			t.Fatalf("%s: expected %q, got %v", tc.src, tc.want, err)
		}
	}
}

func TestNewGoNativeRejectsBadSignatures(t *testing.T) {
	bad := map[string]any{
		"not a func":     42,
		"lone error":     func() error { return nil },
		"second not err": func() (int, int) { return 0, 0 },
		"three results":  func() (int, int, error) { return 0, 0, nil },
		"map param":      func(map[string]int) {},
	}
	for name, fn := range bad {
		if _, _, err := NewGoNative(name, fn); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestBuiltinDocsCoverNatives(t *testing.T) {
	for name := range BuiltinFunctions {
		if BuiltinDocs[name] == nil {
			t.Fatalf("missing docs for %s", name)
		}
	}
	for name := range BuiltinNatives {
		if BuiltinDocs[name] == nil {
			t.Fatalf("missing docs for %s", name)
		}
	}
	if got := BuiltinDocs["setField"].Signature("setField"); got != "setField(instance, name, value)" {
		t.Fatalf("unexpected signature %q", got)
	}
}
