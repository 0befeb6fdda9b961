package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ankokuvm/ankoku"

	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("ankoku.doc")

type SearchItem struct {
	Label  string `json:"l"`
	Parent string `json:"p"`
	Type   string `json:"t"`
	Link   string `json:"u"`
	Desc   string `json:"d"`
}

type SiteMeta struct {
	Title           string
	GeneratedAt     string
	Nav             []NavGroup
	SearchIndexJSON template.JS
}

type NavGroup struct {
	Title string
	Items []NavItem
}

type NavItem struct {
	Label    string
	Link     string
	IsActive bool
}

// PageData is one rendered HTML file.
type PageData struct {
	Meta     SiteMeta
	Title    string
	File     string
	IsHome   bool
	Category Category
	Sections []Category
}

type Category struct {
	Name        string
	Description string
	Type        string
	Items       []DocItem
}

type DocItem struct {
	ID          string
	Name        string
	Signature   template.HTML
	Summary     string
	Description string
	Params      []ankoku.ParamDoc
	Returns     string
}

func main() {
	outputDir := flag.String("o", "docs", "Output directory")
	verbose := flag.Int("v", 0, "log verbosity")
	flag.Parse()
	commonlog.Configure(*verbose, nil)

	var pages []PageData
	if flag.NArg() == 0 {
		pages = builtinPages()
	} else {
		source, err := os.ReadFile(flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading file: %s\n", err)
			os.Exit(74)
		}
		pages = scriptPages(filepath.Base(flag.Arg(0)), string(source))
	}

	if err := writeSite(*outputDir, pages); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func writeSite(dir string, pages []PageData) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	t, err := template.New("ankoku").Parse(htmlTemplate)
	if err != nil {
		return err
	}
	for _, p := range pages {
		path := filepath.Join(dir, p.File)
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		err = render(t, f, p)
		f.Close()
		if err != nil {
			return fmt.Errorf("rendering %s: %w", path, err)
		}
		fmt.Printf("Generated: %s\n", path)
	}
	return nil
}

func render(t *template.Template, w io.Writer, p PageData) error {
	p.Meta = setActiveNav(p.Meta, p.Title)
	return t.Execute(w, p)
}

// builtinPages documents every native the VM registers by default.
func builtinPages() []PageData {
	meta := SiteMeta{
		Title:       "Ankoku Builtins",
		GeneratedAt: time.Now().Format("Jan 02, 2006"),
	}
	names := ankoku.BuiltinNames()
	cat := Category{Name: "Global Functions", Type: "global", Description: "Natives available in every script."}
	var search []SearchItem
	for _, name := range names {
		item := docItem(name, ankoku.BuiltinDocs[name])
		cat.Items = append(cat.Items, item)
		search = append(search, SearchItem{Label: name, Type: "func", Link: "globals.html#" + item.ID, Desc: item.Summary})
	}
	meta.Nav = []NavGroup{{Title: "Core", Items: []NavItem{{Label: cat.Name, Link: "globals.html"}}}}
	meta.SearchIndexJSON = searchIndex(search)

	keywords := Category{Name: "Keywords", Type: "keyword", Description: strings.Join(ankoku.GetAllKeywords(), " ")}
	home := PageData{Meta: meta, Title: "Home", File: "index.html", IsHome: true, Sections: []Category{cat, keywords}}
	globals := PageData{Meta: meta, Title: cat.Name, File: "globals.html", Category: cat}
	return []PageData{home, globals}
}

// scriptPages documents the functions and classes declared in a script.
func scriptPages(name, source string) []PageData {
	meta := SiteMeta{
		Title:       "Script Docs",
		GeneratedAt: time.Now().Format("Jan 02, 2006"),
	}
	functions := Category{Name: name, Type: "script", Description: "Functions declared in " + name + "."}
	classes := map[string]*Category{}
	var classOrder []string
	var search []SearchItem

	for _, decl := range ankoku.ScanDeclarations(source) {
		switch decl.Kind {
		case "fn":
			item := declItem(decl)
			functions.Items = append(functions.Items, item)
			search = append(search, SearchItem{Label: decl.Name, Parent: name, Type: "func", Link: "index.html#" + item.ID})
		case "class":
			classes[decl.Name] = &Category{Name: decl.Name, Type: "class", Description: fmt.Sprintf("Declared on line %d.", decl.Line)}
			classOrder = append(classOrder, decl.Name)
			search = append(search, SearchItem{Label: decl.Name, Parent: name, Type: "class", Link: classFile(decl.Name)})
		case "method":
			cls, ok := classes[decl.Class]
			if !ok {
				continue
			}
			item := declItem(decl)
			cls.Items = append(cls.Items, item)
			search = append(search, SearchItem{Label: decl.Name, Parent: decl.Class, Type: "method", Link: classFile(decl.Class) + "#" + item.ID})
		}
	}
	sort.Slice(functions.Items, func(i, j int) bool { return functions.Items[i].Name < functions.Items[j].Name })
	sort.Strings(classOrder)

	var navClasses []NavItem
	for _, c := range classOrder {
		navClasses = append(navClasses, NavItem{Label: c, Link: classFile(c)})
	}
	meta.Nav = []NavGroup{{Title: "Scripts", Items: []NavItem{{Label: name, Link: "index.html"}}}}
	if len(navClasses) > 0 {
		meta.Nav = append(meta.Nav, NavGroup{Title: "Classes", Items: navClasses})
	}
	meta.SearchIndexJSON = searchIndex(search)
	log.Infof("%s: %d functions, %d classes", name, len(functions.Items), len(classOrder))

	pages := []PageData{{Meta: meta, Title: name, File: "index.html", Category: functions}}
	for _, c := range classOrder {
		pages = append(pages, PageData{Meta: meta, Title: c, File: classFile(c), Category: *classes[c]})
	}
	return pages
}

func classFile(name string) string {
	return "class_" + slugify(name) + ".html"
}

func searchIndex(items []SearchItem) template.JS {
	if items == nil {
		items = []SearchItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		log.Errorf("encoding search index: %s", err)
		return "[]"
	}
	return template.JS(data)
}

func setActiveNav(meta SiteMeta, currentTitle string) SiteMeta {
	nav := make([]NavGroup, len(meta.Nav))
	for i, g := range meta.Nav {
		group := NavGroup{Title: g.Title, Items: make([]NavItem, len(g.Items))}
		for j, item := range g.Items {
			item.IsActive = item.Label == currentTitle
			group.Items[j] = item
		}
		nav[i] = group
	}
	meta.Nav = nav
	return meta
}

func docItem(name string, doc *ankoku.Docstring) DocItem {
	item := DocItem{Name: name, ID: slugify(name)}
	var params []string
	if doc != nil {
		item.Description = doc.Description
		item.Summary = extractSummary(doc.Description)
		item.Params = doc.Params
		item.Returns = doc.Returns
		for _, p := range doc.Params {
			params = append(params, p.Name)
		}
	}
	item.Signature = buildSignature("", name, params)
	return item
}

func declItem(decl ankoku.Declaration) DocItem {
	item := DocItem{
		Name:        decl.Name,
		ID:          slugify(decl.Name),
		Description: fmt.Sprintf("Declared on line %d.", decl.Line),
		Signature:   buildSignature(decl.Class, decl.Name, decl.Params),
	}
	for _, p := range decl.Params {
		item.Params = append(item.Params, ankoku.ParamDoc{Name: p})
	}
	return item
}

func extractSummary(desc string) string {
	if idx := strings.Index(desc, "."); idx != -1 {
		return desc[:idx+1]
	}
	return desc
}

func buildSignature(class, name string, params []string) template.HTML {
	var sb strings.Builder
	sb.WriteString(`<span class="kwd">fn</span> `)
	if class != "" {
		fmt.Fprintf(&sb, `<span class="type">%s</span>.`, template.HTMLEscapeString(class))
	}
	fmt.Fprintf(&sb, `<span class="fn">%s</span><span class="punct">(</span>`, template.HTMLEscapeString(name))
	for i, p := range params {
		if i > 0 {
			sb.WriteString(`<span class="punct">, </span>`)
		}
		fmt.Fprintf(&sb, `<span class="arg">%s</span>`, template.HTMLEscapeString(p))
	}
	sb.WriteString(`<span class="punct">)</span>`)
	return template.HTML(sb.String())
}

func slugify(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "-"))
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{if .Title}}{{.Title}} - {{end}}{{.Meta.Title}}</title>
    <style>
        :root {
            --bg-main: #101214; --bg-side: #17191c; --bg-card: #1d2024; --border: #30343a;
            --text: #e8e8e8; --text-sec: #9aa0a8; --accent: #d9822b;
            --s-kwd: #c678dd; --s-fn: #61afef; --s-type: #e5c07b; --s-arg: #d19a66; --s-punct: #abb2bf;
        }
        body { margin: 0; font-family: sans-serif; background: var(--bg-main); color: var(--text); display: flex; min-height: 100vh; }
        a { color: inherit; text-decoration: none; }
        aside { width: 260px; background: var(--bg-side); border-right: 1px solid var(--border); padding: 20px 0; }
        aside h1 { font-size: 1.1rem; margin: 0 20px 15px; }
        #search { margin: 0 20px 10px; width: calc(100% - 40px); background: var(--bg-card); color: var(--text); border: 1px solid var(--border); padding: 6px 8px; }
        #results div { padding: 4px 20px; font-size: 0.85rem; color: var(--text-sec); }
        .nav-header { font-size: 0.75rem; text-transform: uppercase; color: var(--text-sec); margin: 20px 20px 6px; }
        .nav-item { display: block; padding: 5px 20px; color: var(--text-sec); border-left: 2px solid transparent; }
        .nav-item.active { color: #fff; border-left-color: var(--accent); }
        main { flex: 1; padding: 40px 60px; max-width: 900px; }
        .doc-card { background: var(--bg-card); border: 1px solid var(--border); border-radius: 6px; margin-bottom: 24px; }
        .card-head { padding: 10px 16px; border-bottom: 1px solid var(--border); font-family: monospace; }
        .card-body { padding: 16px; color: var(--text-sec); }
        .lbl { display: block; font-size: 0.75rem; text-transform: uppercase; margin: 12px 0 6px; }
        .p-name { font-family: monospace; color: var(--s-arg); padding-right: 16px; }
        .kwd { color: var(--s-kwd); } .fn { color: var(--s-fn); } .type { color: var(--s-type); }
        .arg { color: var(--s-arg); } .punct { color: var(--s-punct); }
    </style>
</head>
<body>
    <aside>
        <h1><a href="index.html">{{.Meta.Title}}</a></h1>
        <input type="text" id="search" placeholder="Search...">
        <div id="results"></div>
        {{range .Meta.Nav}}
            <div class="nav-header">{{.Title}}</div>
            {{range .Items}}<a href="{{.Link}}" class="nav-item {{if .IsActive}}active{{end}}">{{.Label}}</a>{{end}}
        {{end}}
    </aside>
    <main>
        {{if .IsHome}}
            <h1>{{.Meta.Title}}</h1>
            <p>Generated on {{.Meta.GeneratedAt}}</p>
            {{range .Sections}}
                <h2>{{.Name}}</h2>
                <p>{{.Description}}</p>
                <ul>{{range .Items}}<li><a href="globals.html#{{.ID}}">{{.Name}}</a> {{.Summary}}</li>{{end}}</ul>
            {{end}}
        {{else}}
            <h1>{{.Category.Name}}</h1>
            {{if .Category.Description}}<p>{{.Category.Description}}</p>{{end}}
            {{range .Category.Items}}
            <div id="{{.ID}}" class="doc-card">
                <div class="card-head">{{.Signature}}</div>
                <div class="card-body">
                    <div>{{.Description}}</div>
                    {{if .Params}}
                        <span class="lbl">Parameters</span>
                        <table>{{range .Params}}<tr><td class="p-name">{{.Name}}</td><td>{{.Description}}</td></tr>{{end}}</table>
                    {{end}}
                    {{if .Returns}}<span class="lbl">Returns</span><div>{{.Returns}}</div>{{end}}
                </div>
            </div>
            {{end}}
        {{end}}
    </main>
    <script>
        const searchIndex = {{.Meta.SearchIndexJSON}};
        const input = document.getElementById('search');
        const results = document.getElementById('results');
        input.addEventListener('input', () => {
            const term = input.value.toLowerCase().trim();
            results.innerHTML = '';
            if (!term) return;
            searchIndex.filter(i => i.l.toLowerCase().includes(term)).slice(0, 10).forEach(i => {
                const div = document.createElement('div');
                const a = document.createElement('a');
                a.href = i.u;
                a.textContent = i.p ? i.l + ' in ' + i.p : i.l;
                div.appendChild(a);
                results.appendChild(div);
            });
        });
    </script>
</body>
</html>`
