package main

// Lexer turns source text into tokens. cur is the character being looked at
// and next is the one after it; both read as 0 past the end of the input so
// the scanning loops never index out of range.
type Lexer struct {
	input []byte
	pos   int // index of cur
	cur   byte
	next  byte
	line  int
	col   int
}

// NewLexer creates a lexer positioned at the first character of src.
func NewLexer(src string) *Lexer {
	l := &Lexer{
		input: []byte(src),
		line:  1,
		col:   1,
	}
	l.cur = l.at(0)
	l.next = l.at(1)
	return l
}

func (l *Lexer) at(i int) byte {
	if i >= len(l.input) {
		return 0
	}
	return l.input[i]
}

func (l *Lexer) advance() {
	if l.cur == 0 {
		return
	}
	if l.cur == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.pos++
	l.cur = l.next
	l.next = l.at(l.pos + 1)
}

func (l *Lexer) skipWhitespace() {
	for {
		switch {
		case l.cur == ' ' || l.cur == '\t' || l.cur == '\n' || l.cur == '\r':
			l.advance()
		case l.cur == '/' && l.next == '/':
			for l.cur != '\n' && l.cur != 0 {
				l.advance()
			}
		default:
			return
		}
	}
}

// NextToken scans the next token. Once the input is exhausted every call
// returns EOF.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	tok := Token{Line: l.line, Col: l.col}
	c := l.cur

	if c == 0 {
		tok.Kind = EOF
		return tok
	}

	if d, ok := doubleChar[c]; ok && l.next == d.second {
		tok.Kind = d.kind
		tok.Text = string([]byte{c, l.next})
		l.advance()
		l.advance()
		return tok
	}

	if kind, ok := singleChar[c]; ok {
		tok.Kind = kind
		tok.Text = string(c)
		l.advance()
		return tok
	}

	switch {
	case isDigit(c):
		tok.Kind = INT
		tok.Text = l.readNumber()
	case c == '"':
		tok.Kind = STRING
		tok.Text = l.readString()
	case isLetter(c):
		tok.Text = l.readIdentifier()
		tok.Kind = LookupIdent(tok.Text)
	default:
		tok.Kind = ILLEGAL
		tok.Text = string(c)
		l.advance()
	}
	return tok
}

// Tokenize scans the whole input. The returned slice always ends with
// exactly one EOF token.
func (l *Lexer) Tokenize() []Token {
	var toks []Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks
		}
	}
}

func (l *Lexer) readNumber() string {
	start := l.pos
	for isDigit(l.cur) {
		l.advance()
	}
	return string(l.input[start:l.pos])
}

// readString consumes a string literal including both quotes and returns the
// raw bytes between them. An unterminated string runs to the end of input.
func (l *Lexer) readString() string {
	l.advance() // opening "
	start := l.pos
	for l.cur != '"' && l.cur != 0 {
		l.advance()
	}
	lit := string(l.input[start:l.pos])
	l.advance() // closing "
	return lit
}

func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.cur) || isDigit(l.cur) {
		l.advance()
	}
	return string(l.input[start:l.pos])
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || c == '_'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
