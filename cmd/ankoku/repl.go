package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"ankokuvm/ankoku"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
)

const (
	prompt         = "> "
	continuePrompt = "... "
	historyFile    = ".ankoku_history"
)

type lineReader interface {
	Prompt(p string) (string, error)
	AppendHistory(item string)
	Close() error
}

// plainReader serves piped input, where line editing makes no sense.
type plainReader struct {
	scanner *bufio.Scanner
}

func (r *plainReader) Prompt(string) (string, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *plainReader) AppendHistory(string) {}
func (r *plainReader) Close() error         { return nil }

type linerReader struct {
	*liner.State
	history string
}

func newLinerReader() *linerReader {
	l := liner.NewLiner()
	l.SetCtrlCAborts(true)
	l.SetCompleter(completeWord)
	r := &linerReader{State: l}
	if home, err := os.UserHomeDir(); err == nil {
		r.history = filepath.Join(home, historyFile)
		if f, err := os.Open(r.history); err == nil {
			if _, err := l.ReadHistory(f); err != nil {
				log.Warningf("reading history: %s", err)
			}
			f.Close()
		}
	}
	return r
}

func (r *linerReader) Close() error {
	if r.history != "" {
		if f, err := os.Create(r.history); err == nil {
			if _, err := r.WriteHistory(f); err != nil {
				log.Warningf("writing history: %s", err)
			}
			f.Close()
		}
	}
	return r.State.Close()
}

func completeWord(line string) []string {
	start := strings.LastIndexFunc(line, func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	}) + 1
	word := line[start:]
	if word == "" {
		return nil
	}
	var out []string
	for _, names := range [][]string{ankoku.GetAllKeywords(), ankoku.BuiltinNames()} {
		for _, name := range names {
			if strings.HasPrefix(name, word) {
				out = append(out, line[:start]+name)
			}
		}
	}
	return out
}

func newLineReader(stdin io.Reader) lineReader {
	if f, ok := stdin.(*os.File); ok && f == os.Stdin && isatty.IsTerminal(f.Fd()) {
		return newLinerReader()
	}
	return &plainReader{scanner: bufio.NewScanner(stdin)}
}

// repl reads one statement group at a time and runs it against the same
// VM, so globals persist between entries. Errors are reported and the loop
// continues.
func repl(vm *ankoku.VM, stdin io.Reader, stdout, stderr io.Writer) int {
	reader := newLineReader(stdin)
	defer reader.Close()

	var pending strings.Builder
	for {
		p := prompt
		if pending.Len() > 0 {
			p = continuePrompt
		}
		line, err := reader.Prompt(p)
		if errors.Is(err, liner.ErrPromptAborted) {
			pending.Reset()
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				fmt.Fprintf(stderr, "reading input: %s\n", err)
				return exitIO
			}
			fmt.Fprintln(stdout)
			return 0
		}

		pending.WriteString(line)
		pending.WriteString("\n")
		source := pending.String()
		if openBraces(source) > 0 {
			continue
		}
		pending.Reset()
		if strings.TrimSpace(source) == "" {
			continue
		}
		reader.AppendHistory(strings.TrimRight(source, "\n"))

		result, err := vm.Interpret(source)
		if err != nil {
			reportError(err, source, stderr)
			continue
		}
		if !result.IsNull() {
			fmt.Fprintln(stdout, result.String())
		}
	}
}

// openBraces counts unclosed braces outside strings and comments.
func openBraces(source string) int {
	depth := 0
	for _, tok := range ankoku.NewLexer(source).Tokenize() {
		switch tok.Type {
		case ankoku.TokenLeftBrace:
			depth++
		case ankoku.TokenRightBrace:
			depth--
		}
	}
	return depth
}
