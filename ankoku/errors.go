package ankoku

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorType int

const (
	ErrorCompile ErrorType = iota
	ErrorRuntime
)

func (t ErrorType) String() string {
	return []string{
		"CompileError",
		"RuntimeError",
	}[t]
}

// Error is implemented by every error the VM reports about a script.
type Error interface {
	error
	Kind() ErrorType
	GetLine() int
	ShowSource(source string) string
}

// ErrorCode identifies a class of error; it is shown as AKnnnn. 1xxx are
// lexical, 2xxx syntax, 3xxx resolution, 4xxx limit and 5xxx runtime errors.
type ErrorCode int

const (
	CodeUnexpectedCharacter ErrorCode = 1001
	CodeUnterminatedString  ErrorCode = 1002
	CodeInvalidNumber       ErrorCode = 1003

	CodeExpectedExpression   ErrorCode = 2001
	CodeSyntax               ErrorCode = 2002
	CodeUnclosedParentheses  ErrorCode = 2003
	CodeExpectedSemicolon    ErrorCode = 2004
	CodeObjectKey            ErrorCode = 2005
	CodeUnclosedObject       ErrorCode = 2006
	CodeExpectedVariableName ErrorCode = 2007
	CodeObjectExpectEqual    ErrorCode = 2008
	CodeInvalidAssignment    ErrorCode = 2009
	CodeUnclosedBlock        ErrorCode = 2010

	CodeDuplicateVariable ErrorCode = 3001
	CodeThisOutsideClass  ErrorCode = 3002
	CodeSuperOutsideClass ErrorCode = 3003
	CodeSuperNoSuperclass ErrorCode = 3004
	CodeInheritSelf       ErrorCode = 3005
	CodeInitializerReturn ErrorCode = 3006

	CodeTooManyConstants ErrorCode = 4001
	CodeTooManyLocals    ErrorCode = 4002
	CodeTooManyUpvalues  ErrorCode = 4003
	CodeTooManyArguments ErrorCode = 4004
	CodeTooManyParams    ErrorCode = 4005
	CodeJumpTooLarge     ErrorCode = 4006
	CodeLoopTooLarge     ErrorCode = 4007

	CodeRuntime           ErrorCode = 5000
	CodeUndefinedVariable ErrorCode = 5001
	CodeUndefinedProperty ErrorCode = 5002
	CodeOperandType       ErrorCode = 5003
	CodeArity             ErrorCode = 5004
	CodeStackOverflow     ErrorCode = 5005
	CodeNotCallable       ErrorCode = 5006
	CodeNotInstance       ErrorCode = 5007
	CodeBadSuperclass     ErrorCode = 5008
)

func (c ErrorCode) String() string { return fmt.Sprintf("AK%04d", int(c)) }

var compileCodes = map[string]ErrorCode{
	"Unexpected character.":   CodeUnexpectedCharacter,
	"Unterminated string.":    CodeUnterminatedString,
	"Invalid number literal.": CodeInvalidNumber,

	"Expect expression.":                     CodeExpectedExpression,
	"Expect ')' after expression.":           CodeUnclosedParentheses,
	"Expect ')' after arguments.":            CodeUnclosedParentheses,
	"Expect ')' after parameters.":           CodeUnclosedParentheses,
	"Expect ')' after condition.":            CodeUnclosedParentheses,
	"Expect ')' after for clauses.":          CodeUnclosedParentheses,
	"Expect ';' after variable declaration.": CodeExpectedSemicolon,
	"Expect ';' after expression.":           CodeExpectedSemicolon,
	"Expect ';' after value.":                CodeExpectedSemicolon,
	"Expect ';' after return value.":         CodeExpectedSemicolon,
	"Expect ';' after loop condition.":       CodeExpectedSemicolon,
	"Expect field name in object literal.":   CodeObjectKey,
	"Expect '}' after object literal.":       CodeUnclosedObject,
	"Expect variable name.":                  CodeExpectedVariableName,
	"Expect '=' after field name.":           CodeObjectExpectEqual,
	"Invalid assignment target.":             CodeInvalidAssignment,
	"Expect '}' after block.":                CodeUnclosedBlock,
	"Expect '}' after class body.":           CodeUnclosedBlock,

	"Already a variable with this name in this scope.": CodeDuplicateVariable,
	"Can't use 'this' outside of a class.":             CodeThisOutsideClass,
	"Can't use 'super' outside of a class.":            CodeSuperOutsideClass,
	"Can't use 'super' in a class with no superclass.": CodeSuperNoSuperclass,
	"A class can't inherit from itself.":               CodeInheritSelf,
	"Can't return a value from an initializer.":        CodeInitializerReturn,

	"Too many constants in one chunk.":        CodeTooManyConstants,
	"Too many local variables in function.":   CodeTooManyLocals,
	"Too many closure variables in function.": CodeTooManyUpvalues,
	"Can't have more than 255 arguments.":     CodeTooManyArguments,
	"Can't have more than 255 parameters.":    CodeTooManyParams,
	"Too much code to jump over.":             CodeJumpTooLarge,
	"Loop body too large.":                    CodeLoopTooLarge,
}

// compileCode classifies a compiler message. Anything unlisted is a
// generic syntax error.
func compileCode(msg string) ErrorCode {
	if code, ok := compileCodes[msg]; ok {
		return code
	}
	return CodeSyntax
}

var runtimeCodes = []struct {
	prefix string
	code   ErrorCode
}{
	{"Undefined variable", CodeUndefinedVariable},
	{"Undefined property", CodeUndefinedProperty},
	{"Operand", CodeOperandType},
	{"Expected ", CodeArity},
	{"Stack overflow.", CodeStackOverflow},
	{"Can only call", CodeNotCallable},
	{"Only instances", CodeNotInstance},
	{"Superclass must be a class.", CodeBadSuperclass},
	{"A class can't inherit from itself.", CodeBadSuperclass},
}

func runtimeCode(msg string) ErrorCode {
	for _, rc := range runtimeCodes {
		if strings.HasPrefix(msg, rc.prefix) {
			return rc.code
		}
	}
	return CodeRuntime
}

// CompileError is a single diagnostic. Where is " at end", " at 'lexeme'"
// or empty for lexer errors. Column and Length locate the offending token
// on its line.
type CompileError struct {
	Code    ErrorCode
	Line    int
	Column  int
	Length  int
	Where   string
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("[line %d] Error%s: %s", e.Line, e.Where, e.Message)
}

func (e *CompileError) Kind() ErrorType { return ErrorCompile }
func (e *CompileError) GetLine() int    { return e.Line }

func (e *CompileError) ShowSource(source string) string {
	return showLine(e.Code, e.Error(), source, e.Line, e.Column, e.Length)
}

// CompileErrors is every diagnostic of one compilation, in source order.
type CompileErrors []*CompileError

func (errs CompileErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

func (errs CompileErrors) Kind() ErrorType { return ErrorCompile }

func (errs CompileErrors) GetLine() int {
	if len(errs) == 0 {
		return 0
	}
	return errs[0].Line
}

func (errs CompileErrors) ShowSource(source string) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.ShowSource(source)
	}
	return strings.Join(parts, "\n")
}

// TraceFrame is one entry of a runtime stack trace, innermost first.
type TraceFrame struct {
	Function string
	Line     int
}

type RuntimeError struct {
	Code    ErrorCode
	Message string
	Trace   []TraceFrame
}

func (e *RuntimeError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	for _, f := range e.Trace {
		fmt.Fprintf(&sb, "\n[line %d] in %s", f.Line, f.Function)
	}
	return sb.String()
}

func (e *RuntimeError) Kind() ErrorType { return ErrorRuntime }

func (e *RuntimeError) GetLine() int {
	if len(e.Trace) == 0 {
		return 0
	}
	return e.Trace[0].Line
}

func (e *RuntimeError) ShowSource(source string) string {
	return showLine(e.Code, e.Error(), source, e.GetLine(), 0, 0)
}

// showLine renders a coded header followed by the source line in a gutter
// sized to the line number. A positive col adds a caret line beneath it.
func showLine(code ErrorCode, msg, source string, line, col, length int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "error %s: %s", code, msg)
	lines := strings.Split(source, "\n")
	if line <= 0 || line > len(lines) {
		return sb.String()
	}
	text := strings.TrimRight(lines[line-1], "\r")
	width := max(len(fmt.Sprint(line)), 2)
	blank := strings.Repeat(" ", width+1) + " |"
	fmt.Fprintf(&sb, "\n%s\n %*d | %s", blank, width, line, text)
	if col > 0 {
		col = min(col, len(text)+1)
		length = max(min(length, len(text)+1-col), 1)
		fmt.Fprintf(&sb, "\n%s %s%s", blank, strings.Repeat(" ", col-1), strings.Repeat("^", length))
	}
	return sb.String()
}

// IsCompileError reports whether err came from the compiler.
func IsCompileError(err error) bool {
	var list CompileErrors
	var single *CompileError
	return errors.As(err, &list) || errors.As(err, &single)
}

// IsRuntimeError reports whether err was raised while executing bytecode.
func IsRuntimeError(err error) bool {
	var rt *RuntimeError
	return errors.As(err, &rt)
}
