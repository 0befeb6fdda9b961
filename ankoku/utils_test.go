package ankoku

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestScanDeclarations(t *testing.T) {
	src := `var count = 0;
fn add(a, b) { var inner = a; return a + b; }
class Point < Base {
  init(x, y) { this.x = x; helper(y); }
  norm() { return 1; }
}
print add(1, 2);`
	got := ScanDeclarations(src)
	want := []Declaration{
		{Kind: "var", Name: "count", Line: 1},
		{Kind: "fn", Name: "add", Params: []string{"a", "b"}, Line: 2},
		{Kind: "class", Name: "Point", Line: 3},
		{Kind: "method", Name: "init", Class: "Point", Params: []string{"x", "y"}, Line: 4},
		{Kind: "method", Name: "norm", Class: "Point", Line: 5},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected\n%+v\ngot\n%+v", want, got)
	}
}

func TestScanDeclarationsToleratesErrors(t *testing.T) {
	got := ScanDeclarations("fn broken( { var x = ;\nclass")
	if len(got) != 1 || got[0].Name != "broken" {
		t.Fatalf("unexpected declarations %+v", got)
	}
}

func TestDisassembleAndShow(t *testing.T) {
	var out bytes.Buffer
	vm := NewVM(WithStdout(&out))
	if err := DisassembleAndShow(vm, "fn f() { return 1; } print f();"); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"== <script> ==", "== f ==", "OP_CALL", "OP_PRINT"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("missing %q in\n%s", want, out.String())
		}
	}
}

func TestRunScriptReturnsTypedErrors(t *testing.T) {
	vm := NewVM(WithStdout(&bytes.Buffer{}))
	if err := RunScript(vm, "bad.ank", "print ;"); !IsCompileError(err) {
		t.Fatalf("expected compile error, got %v", err)
	}
	if err := RunScript(vm, "bad.ank", "print -true;"); !IsRuntimeError(err) {
		t.Fatalf("expected runtime error, got %v", err)
	}
}
