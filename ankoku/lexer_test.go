package ankoku

import "testing"

func TestLexerTokens(t *testing.T) {
	src := `class Foo < Bar {
  init() { this.x = 1.5; }  // comment
}
var s = "two
lines"; a != b == c <= d >= e & f | g;`

	want := []struct {
		kind   TokenType
		lexeme string
		line   int
	}{
		{TokenClass, "class", 1},
		{TokenIdentifier, "Foo", 1},
		{TokenLess, "<", 1},
		{TokenIdentifier, "Bar", 1},
		{TokenLeftBrace, "{", 1},
		{TokenIdentifier, "init", 2},
		{TokenLeftParen, "(", 2},
		{TokenRightParen, ")", 2},
		{TokenLeftBrace, "{", 2},
		{TokenThis, "this", 2},
		{TokenDot, ".", 2},
		{TokenIdentifier, "x", 2},
		{TokenEqual, "=", 2},
		{TokenNumber, "1.5", 2},
		{TokenSemicolon, ";", 2},
		{TokenRightBrace, "}", 2},
		{TokenRightBrace, "}", 3},
		{TokenVar, "var", 4},
		{TokenIdentifier, "s", 4},
		{TokenEqual, "=", 4},
		{TokenString, "\"two\nlines\"", 4},
		{TokenSemicolon, ";", 5},
		{TokenIdentifier, "a", 5},
		{TokenBangEqual, "!=", 5},
		{TokenIdentifier, "b", 5},
		{TokenEqualEqual, "==", 5},
		{TokenIdentifier, "c", 5},
		{TokenLessEqual, "<=", 5},
		{TokenIdentifier, "d", 5},
		{TokenGreaterEqual, ">=", 5},
		{TokenIdentifier, "e", 5},
		{TokenAmpersand, "&", 5},
		{TokenIdentifier, "f", 5},
		{TokenPipe, "|", 5},
		{TokenIdentifier, "g", 5},
		{TokenSemicolon, ";", 5},
		{TokenEOF, "", 5},
	}

	tokens := NewLexer(src).Tokenize()
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(tokens), tokens)
	}
	for i, w := range want {
		tok := tokens[i]
		if tok.Type != w.kind || tok.Lexeme != w.lexeme || tok.Line != w.line {
			t.Fatalf("token %d: expected %s %q line %d, got %s", i, w.kind, w.lexeme, w.line, tok)
		}
	}
}

func TestLexerKeywords(t *testing.T) {
	for _, kw := range GetAllKeywords() {
		tok := NewLexer(kw).Next()
		if tok.Type == TokenIdentifier {
			t.Fatalf("keyword %q lexed as identifier", kw)
		}
	}
	for _, ident := range []string{"classy", "fnord", "_while", "nulls", "or2"} {
		tok := NewLexer(ident).Next()
		if tok.Type != TokenIdentifier {
			t.Fatalf("%q should be an identifier, got %s", ident, tok.Type)
		}
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		src  string
		msg  string
		line int
	}{
		{"\"open", "Unterminated string.", 1},
		{"\n\n\"multi\nline", "Unterminated string.", 3},
		{"@", "Unexpected character.", 1},
		{"9lives", "Invalid number literal.", 1},
	}
	for _, tc := range tests {
		tok := NewLexer(tc.src).Next()
		if tok.Type != TokenError || tok.Lexeme != tc.msg || tok.Line != tc.line {
			t.Fatalf("%q: expected error %q on line %d, got %s", tc.src, tc.msg, tc.line, tok)
		}
	}
}

func TestLexerNumberDot(t *testing.T) {
	tokens := NewLexer("1.foo 2.").Tokenize()
	kinds := []TokenType{TokenNumber, TokenDot, TokenIdentifier, TokenNumber, TokenDot, TokenEOF}
	if len(tokens) != len(kinds) {
		t.Fatalf("unexpected tokens %v", tokens)
	}
	for i, k := range kinds {
		if tokens[i].Type != k {
			t.Fatalf("token %d: expected %s, got %s", i, k, tokens[i])
		}
	}
}

func TestLexerReset(t *testing.T) {
	l := NewLexer("a\nb")
	first := l.Tokenize()
	l.Reset()
	second := l.Tokenize()
	if len(first) != len(second) || second[1].Line != 2 {
		t.Fatalf("reset did not rewind: %v vs %v", first, second)
	}
}

func TestLexerColumns(t *testing.T) {
	src := "var x = 1;\n  print \"a\nb\" + y;"
	want := []struct {
		lexeme   string
		line     int
		col, len int
	}{
		{"var", 1, 1, 3},
		{"x", 1, 5, 1},
		{"=", 1, 7, 1},
		{"1", 1, 9, 1},
		{";", 1, 10, 1},
		{"print", 2, 3, 5},
		{"\"a\nb\"", 2, 9, 5},
		{"+", 3, 4, 1},
		{"y", 3, 6, 1},
		{";", 3, 7, 1},
	}
	lex := NewLexer(src)
	for _, w := range want {
		tok := lex.Next()
		if tok.Lexeme != w.lexeme || tok.Line != w.line || tok.Col != w.col || tok.Length != w.len {
			t.Fatalf("expected %q at %d:%d+%d, got %q at %d:%d+%d",
				w.lexeme, w.line, w.col, w.len, tok.Lexeme, tok.Line, tok.Col, tok.Length)
		}
	}
}
