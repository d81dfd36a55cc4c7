package main

import "fmt"

// TokenKind is the type of token (identifier, operator, literal, etc.).
type TokenKind string

// Definition of token kinds
const (
	// Special tokens
	ILLEGAL TokenKind = "ILLEGAL"
	EOF     TokenKind = "EOF"

	// Identifiers + literals
	IDENT  TokenKind = "IDENT"  // main, foo, _bar
	INT    TokenKind = "INT"    // 12345
	STRING TokenKind = "STRING" // "hello"

	// Arithmetic
	PLUS     TokenKind = "+"
	MINUS    TokenKind = "-"
	ASTERISK TokenKind = "*"
	SLASH    TokenKind = "/"

	// Comparison
	LT     TokenKind = "<"
	GT     TokenKind = ">"
	LE     TokenKind = "<="
	GE     TokenKind = ">="
	EQ     TokenKind = "=="
	NOT_EQ TokenKind = "!="

	// Logical
	AND TokenKind = "&&"
	OR  TokenKind = "||"

	ASSIGN TokenKind = "="

	// Delimiters
	LPAREN    TokenKind = "("
	RPAREN    TokenKind = ")"
	LBRACE    TokenKind = "{"
	RBRACE    TokenKind = "}"
	LBRACKET  TokenKind = "["
	RBRACKET  TokenKind = "]"
	COLON     TokenKind = ":"
	COMMA     TokenKind = ","
	DOT       TokenKind = "."
	SEMICOLON TokenKind = ";"

	// Keywords
	FUNC   TokenKind = "FUNC"
	VAR    TokenKind = "VAR"
	CONST  TokenKind = "CONST"
	RETURN TokenKind = "RETURN"
	IF     TokenKind = "IF"
	ELSE   TokenKind = "ELSE"
)

var keywords = map[string]TokenKind{
	"func":   FUNC,
	"var":    VAR,
	"const":  CONST,
	"return": RETURN,
	"if":     IF,
	"else":   ELSE,
}

var singleChar = map[byte]TokenKind{
	'+': PLUS,
	'-': MINUS,
	'*': ASTERISK,
	'/': SLASH,
	'<': LT,
	'>': GT,
	'=': ASSIGN,
	'(': LPAREN,
	')': RPAREN,
	'{': LBRACE,
	'}': RBRACE,
	'[': LBRACKET,
	']': RBRACKET,
	':': COLON,
	',': COMMA,
	'.': DOT,
	';': SEMICOLON,
}

// doubleChar maps the first character of a two-character operator to the
// second character and the resulting kind.
var doubleChar = map[byte]struct {
	second byte
	kind   TokenKind
}{
	'<': {'=', LE},
	'>': {'=', GE},
	'=': {'=', EQ},
	'!': {'=', NOT_EQ},
	'&': {'&', AND},
	'|': {'|', OR},
}

// LookupIdent reclassifies an identifier as a keyword if it is one.
func LookupIdent(ident string) TokenKind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	return IDENT
}

// Token is a classified lexical unit with its source text. Line and Col
// point at the first character and are 1-based.
type Token struct {
	Kind TokenKind
	Text string
	Line int
	Col  int
}

// Pos is a 1-based line and column in the source. The zero Pos means the
// position is unknown.
type Pos struct {
	Line int
	Col  int
}

func (t Token) Pos() Pos { return Pos{Line: t.Line, Col: t.Col} }

func (t Token) String() string {
	switch t.Kind {
	case IDENT, INT, STRING, ILLEGAL:
		return fmt.Sprintf("%s %q", t.Kind, t.Text)
	case EOF:
		return "EOF"
	}
	return fmt.Sprintf("'%s'", t.Text)
}
