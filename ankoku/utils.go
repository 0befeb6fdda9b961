package ankoku

import (
	"fmt"

	"github.com/tliron/commonlog"
)

// RunScript compiles and executes code. Compile and runtime errors are
// returned as is so callers can render them against the source.
func RunScript(vm *VM, fileName string, code string) error {
	if vmLog.AllowLevel(commonlog.Debug) {
		vmLog.Debugf("vm %s: running %s", vm.id, fileName)
	}
	_, err := vm.Interpret(code)
	return err
}

// DisassembleAndShow compiles code and prints the bytecode of every
// function without running it.
func DisassembleAndShow(vm *VM, code string) error {
	p, err := vm.Compile(code)
	if err != nil {
		return err
	}
	defer vm.Release(p)
	fmt.Fprint(vm.Stdout, DisassembleProgram(p))
	return nil
}

// Diagnostics compiles source on a scratch VM and returns every compile
// error without executing anything.
func Diagnostics(source string) CompileErrors {
	vm := NewVM()
	defer vm.Close()
	_, err := vm.Compile(source)
	if errs, ok := err.(CompileErrors); ok {
		return errs
	}
	return nil
}

// Declaration is a top-level or class-level name found by ScanDeclarations.
type Declaration struct {
	Kind   string // "var", "fn", "class" or "method"
	Name   string
	Class  string // enclosing class for methods
	Params []string
	Line   int
}

// ScanDeclarations walks the token stream of source and reports global
// variables, functions, classes and their methods. It never compiles, so
// it also works on sources with errors.
func ScanDeclarations(source string) []Declaration {
	toks := NewLexer(source).Tokenize()
	var decls []Declaration
	depth := 0
	class, classDepth := "", -1

	params := func(i int) []string {
		var out []string
		if i >= len(toks) || toks[i].Type != TokenLeftParen {
			return out
		}
		for i++; i < len(toks) && toks[i].Type != TokenRightParen && toks[i].Type != TokenEOF; i++ {
			if toks[i].Type == TokenIdentifier {
				out = append(out, toks[i].Lexeme)
			}
		}
		return out
	}

	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		next := func() (Token, bool) {
			if i+1 < len(toks) && toks[i+1].Type == TokenIdentifier {
				return toks[i+1], true
			}
			return Token{}, false
		}
		switch tok.Type {
		case TokenLeftBrace:
			depth++
		case TokenRightBrace:
			depth--
			if depth == classDepth {
				class, classDepth = "", -1
			}
		case TokenVar:
			if name, ok := next(); ok && depth == 0 {
				decls = append(decls, Declaration{Kind: "var", Name: name.Lexeme, Line: name.Line})
			}
		case TokenFn:
			if name, ok := next(); ok && depth == 0 {
				decls = append(decls, Declaration{Kind: "fn", Name: name.Lexeme, Params: params(i + 2), Line: name.Line})
			}
		case TokenClass:
			if name, ok := next(); ok && depth == 0 {
				decls = append(decls, Declaration{Kind: "class", Name: name.Lexeme, Line: name.Line})
				class, classDepth = name.Lexeme, depth
			}
		case TokenIdentifier:
			if class != "" && depth == classDepth+1 && i+1 < len(toks) && toks[i+1].Type == TokenLeftParen &&
				(i == 0 || toks[i-1].Type == TokenLeftBrace || toks[i-1].Type == TokenRightBrace) {
				decls = append(decls, Declaration{Kind: "method", Name: tok.Lexeme, Class: class, Params: params(i + 1), Line: tok.Line})
			}
		}
	}
	return decls
}
