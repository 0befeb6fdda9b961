package main

import (
	"fmt"
	"strings"

	"ankokuvm/ankoku"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

const diagnosticSource = "ankoku-ls"

// diagnosticsFor compiles content and reports one diagnostic per compile
// error, spanning the offending line.
func diagnosticsFor(content string) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}
	severity := protocol.DiagnosticSeverityError
	source := diagnosticSource
	lines := strings.Split(content, "\n")

	for _, err := range ankoku.Diagnostics(content) {
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    lineRange(lines, err.Line),
			Severity: &severity,
			Code:     &protocol.IntegerOrString{Value: err.Code.String()},
			Source:   &source,
			Message:  "Error" + err.Where + ": " + err.Message,
		})
	}
	return diagnostics
}

// lineRange covers a whole 1-based source line, clamped to the document.
func lineRange(lines []string, line int) protocol.Range {
	idx := line - 1
	if idx >= len(lines) {
		idx = len(lines) - 1
	}
	if idx < 0 {
		idx = 0
	}
	width := 0
	if idx < len(lines) {
		width = len(strings.TrimRight(lines[idx], "\r"))
	}
	return protocol.Range{
		Start: protocol.Position{Line: protocol.UInteger(idx), Character: 0},
		End:   protocol.Position{Line: protocol.UInteger(idx), Character: protocol.UInteger(width)},
	}
}

func completionItems(content string) []protocol.CompletionItem {
	items := []protocol.CompletionItem{}
	seen := make(map[string]bool)
	add := func(item protocol.CompletionItem) {
		if seen[item.Label] {
			return
		}
		seen[item.Label] = true
		items = append(items, item)
	}

	kindFunc := protocol.CompletionItemKindFunction
	for _, name := range ankoku.BuiltinNames() {
		doc := ankoku.BuiltinDocs[name]
		detail := doc.Signature(name)
		add(protocol.CompletionItem{
			Label:  name,
			Kind:   &kindFunc,
			Detail: &detail,
			Documentation: protocol.MarkupContent{
				Kind:  protocol.MarkupKindMarkdown,
				Value: doc.String(),
			},
		})
	}

	kindKeyword := protocol.CompletionItemKindKeyword
	detailKeyword := "keyword"
	for _, keyword := range ankoku.GetAllKeywords() {
		add(protocol.CompletionItem{Label: keyword, Kind: &kindKeyword, Detail: &detailKeyword})
	}

	for _, decl := range ankoku.ScanDeclarations(content) {
		if decl.Kind == "method" {
			continue
		}
		kind := protocol.CompletionItemKindVariable
		switch decl.Kind {
		case "fn":
			kind = protocol.CompletionItemKindFunction
		case "class":
			kind = protocol.CompletionItemKindClass
		}
		detail := declarationSignature(decl)
		add(protocol.CompletionItem{Label: decl.Name, Kind: &kind, Detail: &detail})
	}
	return items
}

func declarationSignature(decl ankoku.Declaration) string {
	switch decl.Kind {
	case "fn":
		return fmt.Sprintf("fn %s(%s)", decl.Name, strings.Join(decl.Params, ", "))
	case "method":
		return fmt.Sprintf("%s.%s(%s)", decl.Class, decl.Name, strings.Join(decl.Params, ", "))
	default:
		return decl.Kind + " " + decl.Name
	}
}

// wordAt returns the identifier under pos, if any.
func wordAt(content string, pos protocol.Position) string {
	lines := strings.Split(content, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		return ""
	}
	isIdent := func(c byte) bool {
		return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
	}
	start, end := col, col
	for start > 0 && isIdent(line[start-1]) {
		start--
	}
	for end < len(line) && isIdent(line[end]) {
		end++
	}
	return line[start:end]
}

func hoverAt(content string, pos protocol.Position) *protocol.Hover {
	word := wordAt(content, pos)
	if word == "" {
		return nil
	}
	var text string
	if doc, ok := ankoku.BuiltinDocs[word]; ok {
		text = fmt.Sprintf("```ankoku\n%s\n```\n%s", doc.Signature(word), doc.String())
	} else {
		for _, decl := range ankoku.ScanDeclarations(content) {
			if decl.Name == word && decl.Kind != "method" {
				text = fmt.Sprintf("```ankoku\n%s\n```\ndeclared on line %d", declarationSignature(decl), decl.Line)
				break
			}
		}
	}
	if text == "" {
		return nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: text},
	}
}
