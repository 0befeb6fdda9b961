package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuiltinPages(t *testing.T) {
	pages := builtinPages()
	if len(pages) != 2 || !pages[0].IsHome || pages[1].File != "globals.html" {
		t.Fatalf("unexpected pages %+v", pages)
	}
	var found bool
	for _, item := range pages[1].Category.Items {
		if item.Name == "setField" {
			found = true
			if len(item.Params) != 3 || !strings.Contains(string(item.Signature), `<span class="fn">setField</span>`) {
				t.Fatalf("unexpected setField item %+v", item)
			}
		}
	}
	if !found {
		t.Fatal("setField not documented")
	}
}

func TestScriptPages(t *testing.T) {
	src := `fn zeta(a) {}
fn alpha() {}
class Shape { area() { return 0; } scale(by) {} }`
	pages := scriptPages("shapes.ank", src)
	if len(pages) != 2 {
		t.Fatalf("expected index and one class page, got %d", len(pages))
	}
	fns := pages[0].Category.Items
	if len(fns) != 2 || fns[0].Name != "alpha" || fns[1].Name != "zeta" {
		t.Fatalf("functions not sorted: %+v", fns)
	}
	class := pages[1]
	if class.File != "class_shape.html" || len(class.Category.Items) != 2 {
		t.Fatalf("unexpected class page %+v", class)
	}
	if !strings.Contains(string(class.Category.Items[1].Signature), `<span class="type">Shape</span>`) {
		t.Fatalf("method signature missing class: %s", class.Category.Items[1].Signature)
	}
}

func TestWriteSite(t *testing.T) {
	dir := t.TempDir()
	if err := writeSite(dir, scriptPages("empty.ank", "")); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "const searchIndex = [];") {
		t.Fatalf("search index not rendered:\n%s", data)
	}
}
