package main

import (
	"strings"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

func TestDiagnosticsFor(t *testing.T) {
	src := "var a = 1;\nprint a +;\nvar = 3;\n"
	diags := diagnosticsFor(src)
	if len(diags) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d: %+v", len(diags), diags)
	}
	first := diags[0]
	if first.Range.Start.Line != 1 || first.Range.End.Character != protocol.UInteger(len("print a +;")) {
		t.Fatalf("unexpected range %+v", first.Range)
	}
	if first.Message != "Error at ';': Expect expression." {
		t.Fatalf("unexpected message %q", first.Message)
	}
	if first.Code == nil || first.Code.Value != "AK2001" {
		t.Fatalf("unexpected code %+v", first.Code)
	}
	if diags[1].Range.Start.Line != 2 {
		t.Fatalf("second diagnostic on line %d", diags[1].Range.Start.Line)
	}
	if len(diagnosticsFor("print 1;")) != 0 {
		t.Fatal("clean source produced diagnostics")
	}
}

func TestLineRangeClampsPastEnd(t *testing.T) {
	r := lineRange([]string{"abc", "de"}, 9)
	if r.Start.Line != 1 || r.End.Character != 2 {
		t.Fatalf("unexpected range %+v", r)
	}
}

func TestCompletionItems(t *testing.T) {
	items := completionItems("var total = 0;\nfn add(a, b) { return a + b; }\nclass Box {}\n")
	kinds := map[string]protocol.CompletionItemKind{}
	for _, item := range items {
		if _, dup := kinds[item.Label]; dup {
			t.Fatalf("duplicate completion %s", item.Label)
		}
		kinds[item.Label] = *item.Kind
	}
	want := map[string]protocol.CompletionItemKind{
		"clock": protocol.CompletionItemKindFunction,
		"while": protocol.CompletionItemKindKeyword,
		"total": protocol.CompletionItemKindVariable,
		"add":   protocol.CompletionItemKindFunction,
		"Box":   protocol.CompletionItemKindClass,
	}
	for label, kind := range want {
		if kinds[label] != kind {
			t.Fatalf("%s: expected kind %d, got %d", label, kind, kinds[label])
		}
	}
}

func TestHover(t *testing.T) {
	src := "fn area(w, h) { return w * h; }\nprint sqrt(area(2, 8));\n"
	h := hoverAt(src, protocol.Position{Line: 1, Character: 8})
	if h == nil || !strings.Contains(h.Contents.(protocol.MarkupContent).Value, "sqrt(") {
		t.Fatalf("expected sqrt docs, got %+v", h)
	}
	h = hoverAt(src, protocol.Position{Line: 1, Character: 12})
	if h == nil || !strings.Contains(h.Contents.(protocol.MarkupContent).Value, "fn area(w, h)") {
		t.Fatalf("expected area signature, got %+v", h)
	}
	if hoverAt(src, protocol.Position{Line: 1, Character: 5}) != nil {
		t.Fatal("expected no hover for a keyword")
	}
	if got := wordAt(src, protocol.Position{Line: 0, Character: 4}); got != "area" {
		t.Fatalf("wordAt = %q", got)
	}
}
