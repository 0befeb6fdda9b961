package ankoku

// Lexer produces tokens on demand. It never fails: malformed input comes
// back as TokenError tokens so the compiler can report and recover.
type Lexer struct {
	source    string
	start     int
	currIdx   int
	line      int
	lineStart int // offset of the first byte of the current line
	col       int
}

func NewLexer(source string) *Lexer {
	return &Lexer{
		source: source,
		line:   1,
	}
}

// Reset rewinds the lexer to the beginning of its source.
func (l *Lexer) Reset() {
	l.start = 0
	l.currIdx = 0
	l.line = 1
	l.lineStart = 0
	l.col = 0
}

// Tokenize drains the lexer, returning every token up to and including EOF.
func (l *Lexer) Tokenize() []Token {
	tokens := []Token{}
	for {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens
		}
	}
}

func (l *Lexer) Next() Token {
	l.skipWhitespace()
	l.start = l.currIdx
	l.col = l.start - l.lineStart + 1

	if l.isAtEnd() {
		return l.makeToken(TokenEOF)
	}

	c := l.advance()
	if isAlpha(c) {
		return l.identifier()
	}
	if isDigit(c) {
		return l.number()
	}

	switch c {
	case '(':
		return l.makeToken(TokenLeftParen)
	case ')':
		return l.makeToken(TokenRightParen)
	case '{':
		return l.makeToken(TokenLeftBrace)
	case '}':
		return l.makeToken(TokenRightBrace)
	case ';':
		return l.makeToken(TokenSemicolon)
	case ',':
		return l.makeToken(TokenComma)
	case '.':
		return l.makeToken(TokenDot)
	case '-':
		return l.makeToken(TokenMinus)
	case '+':
		return l.makeToken(TokenPlus)
	case '/':
		return l.makeToken(TokenSlash)
	case '*':
		return l.makeToken(TokenStar)
	case '&':
		return l.makeToken(TokenAmpersand)
	case '|':
		return l.makeToken(TokenPipe)
	case '!':
		return l.makeToken(l.pick('=', TokenBangEqual, TokenBang))
	case '=':
		return l.makeToken(l.pick('=', TokenEqualEqual, TokenEqual))
	case '<':
		return l.makeToken(l.pick('=', TokenLessEqual, TokenLess))
	case '>':
		return l.makeToken(l.pick('=', TokenGreaterEqual, TokenGreater))
	case '"':
		return l.string()
	}

	return l.errorToken("Unexpected character.")
}

func (l *Lexer) isAtEnd() bool {
	return l.currIdx >= len(l.source)
}

func (l *Lexer) advance() byte {
	c := l.source[l.currIdx]
	l.currIdx++
	return c
}

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.currIdx]
}

func (l *Lexer) peekNext() byte {
	if l.currIdx+1 >= len(l.source) {
		return 0
	}
	return l.source[l.currIdx+1]
}

// pick consumes expected if present and returns the matching token type.
func (l *Lexer) pick(expected byte, matched, otherwise TokenType) TokenType {
	if l.isAtEnd() || l.source[l.currIdx] != expected {
		return otherwise
	}
	l.currIdx++
	return matched
}

func (l *Lexer) makeToken(kind TokenType) Token {
	return Token{
		Type:   kind,
		Lexeme: l.source[l.start:l.currIdx],
		Line:   l.line,
		Col:    l.col,
		Length: l.currIdx - l.start,
	}
}

func (l *Lexer) errorToken(msg string) Token {
	return Token{
		Type:   TokenError,
		Lexeme: msg,
		Line:   l.line,
		Col:    l.col,
		Length: max(l.currIdx-l.start, 1),
	}
}

func (l *Lexer) skipWhitespace() {
	for {
		switch l.peek() {
		case ' ', '\r', '\t':
			l.advance()
		case '\n':
			l.line++
			l.advance()
			l.lineStart = l.currIdx
		case '/':
			if l.peekNext() != '/' {
				return
			}
			for l.peek() != '\n' && !l.isAtEnd() {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *Lexer) string() Token {
	startLine := l.line
	for l.peek() != '"' && !l.isAtEnd() {
		if l.peek() == '\n' {
			l.line++
			l.advance()
			l.lineStart = l.currIdx
			continue
		}
		l.advance()
	}

	if l.isAtEnd() {
		tok := l.errorToken("Unterminated string.")
		tok.Line = startLine
		return tok
	}

	l.advance()
	tok := l.makeToken(TokenString)
	tok.Line = startLine
	return tok
}

func (l *Lexer) number() Token {
	for isDigit(l.peek()) {
		l.advance()
	}

	if l.peek() == '.' && isDigit(l.peekNext()) {
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}

	if isAlpha(l.peek()) {
		for isAlpha(l.peek()) || isDigit(l.peek()) {
			l.advance()
		}
		return l.errorToken("Invalid number literal.")
	}

	return l.makeToken(TokenNumber)
}

func (l *Lexer) identifier() Token {
	for isAlpha(l.peek()) || isDigit(l.peek()) {
		l.advance()
	}
	if kind, ok := keywords[l.source[l.start:l.currIdx]]; ok {
		return l.makeToken(kind)
	}
	return l.makeToken(TokenIdentifier)
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
