package ankoku

import (
	"fmt"
	"sort"
)

type TokenType int

const (
	// Single-character tokens.
	TokenLeftParen TokenType = iota
	TokenRightParen
	TokenLeftBrace
	TokenRightBrace
	TokenComma
	TokenDot
	TokenMinus
	TokenPlus
	TokenSemicolon
	TokenSlash
	TokenStar
	TokenAmpersand
	TokenPipe
	// One or two character tokens.
	TokenBang
	TokenBangEqual
	TokenEqual
	TokenEqualEqual
	TokenGreater
	TokenGreaterEqual
	TokenLess
	TokenLessEqual
	// Literals.
	TokenIdentifier
	TokenString
	TokenNumber
	// Keywords.
	TokenAnd
	TokenClass
	TokenElse
	TokenFalse
	TokenFor
	TokenFn
	TokenIf
	TokenNull
	TokenOr
	TokenPrint
	TokenReturn
	TokenSuper
	TokenThis
	TokenTrue
	TokenVar
	TokenWhile

	TokenError
	TokenEOF
)

var tokenNames = [...]string{
	TokenLeftParen:    "TokenLeftParen",
	TokenRightParen:   "TokenRightParen",
	TokenLeftBrace:    "TokenLeftBrace",
	TokenRightBrace:   "TokenRightBrace",
	TokenComma:        "TokenComma",
	TokenDot:          "TokenDot",
	TokenMinus:        "TokenMinus",
	TokenPlus:         "TokenPlus",
	TokenSemicolon:    "TokenSemicolon",
	TokenSlash:        "TokenSlash",
	TokenStar:         "TokenStar",
	TokenAmpersand:    "TokenAmpersand",
	TokenPipe:         "TokenPipe",
	TokenBang:         "TokenBang",
	TokenBangEqual:    "TokenBangEqual",
	TokenEqual:        "TokenEqual",
	TokenEqualEqual:   "TokenEqualEqual",
	TokenGreater:      "TokenGreater",
	TokenGreaterEqual: "TokenGreaterEqual",
	TokenLess:         "TokenLess",
	TokenLessEqual:    "TokenLessEqual",
	TokenIdentifier:   "TokenIdentifier",
	TokenString:       "TokenString",
	TokenNumber:       "TokenNumber",
	TokenAnd:          "TokenAnd",
	TokenClass:        "TokenClass",
	TokenElse:         "TokenElse",
	TokenFalse:        "TokenFalse",
	TokenFor:          "TokenFor",
	TokenFn:           "TokenFn",
	TokenIf:           "TokenIf",
	TokenNull:         "TokenNull",
	TokenOr:           "TokenOr",
	TokenPrint:        "TokenPrint",
	TokenReturn:       "TokenReturn",
	TokenSuper:        "TokenSuper",
	TokenThis:         "TokenThis",
	TokenTrue:         "TokenTrue",
	TokenVar:          "TokenVar",
	TokenWhile:        "TokenWhile",
	TokenError:        "TokenError",
	TokenEOF:          "TokenEOF",
}

func (t TokenType) String() string {
	if t >= 0 && int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenUnknown_%d", int(t))
}

var keywords = map[string]TokenType{
	"and":    TokenAnd,
	"class":  TokenClass,
	"else":   TokenElse,
	"false":  TokenFalse,
	"for":    TokenFor,
	"fn":     TokenFn,
	"if":     TokenIf,
	"null":   TokenNull,
	"or":     TokenOr,
	"print":  TokenPrint,
	"return": TokenReturn,
	"super":  TokenSuper,
	"this":   TokenThis,
	"true":   TokenTrue,
	"var":    TokenVar,
	"while":  TokenWhile,
}

func IsKeyword(s string) bool {
	_, ok := keywords[s]
	return ok
}

// GetAllKeywords returns the reserved words in sorted order.
func GetAllKeywords() []string {
	out := make([]string, 0, len(keywords))
	for k := range keywords {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Token is one lexeme. For TokenError the lexeme holds the error message.
// Token is one lexeme. Col is the 1-based byte column of its first
// character and Length its width in the source, used for carets.
type Token struct {
	Type   TokenType
	Lexeme string
	Line   int
	Col    int
	Length int
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q (line %d)", t.Type, t.Lexeme, t.Line)
}
