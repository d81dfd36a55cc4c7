package sexy

import (
	"fmt"
	"strings"
)

// NodeType represents the type of a Node
type NodeType int

const (
	NodeSymbol NodeType = iota
	NodeString
	NodeInteger
	NodeList
)

// Node is one datum of an S-expression.
type Node struct {
	Type  NodeType
	Text  string  // NodeSymbol, NodeString, NodeInteger
	Items []*Node // NodeList
}

func (n *Node) String() string {
	switch n.Type {
	case NodeSymbol, NodeInteger:
		return n.Text
	case NodeString:
		escaped := strings.ReplaceAll(n.Text, `\`, `\\`)
		escaped = strings.ReplaceAll(escaped, `"`, `\"`)
		return `"` + escaped + `"`
	case NodeList:
		parts := make([]string, len(n.Items))
		for i, item := range n.Items {
			parts[i] = item.String()
		}
		return "(" + strings.Join(parts, " ") + ")"
	}
	return fmt.Sprintf("UNKNOWN_NODE_TYPE_%d", n.Type)
}

func NewSymbol(name string) *Node {
	return &Node{Type: NodeSymbol, Text: name}
}

func NewString(value string) *Node {
	return &Node{Type: NodeString, Text: value}
}

func NewInteger(text string) *Node {
	return &Node{Type: NodeInteger, Text: text}
}

func NewList(items []*Node) *Node {
	return &Node{Type: NodeList, Items: items}
}

// IsAtom checks if the node is an atomic value
func (n *Node) IsAtom() bool {
	return n.Type != NodeList
}

// Match reports whether actual has the shape described by pattern. Besides
// exact equality, patterns allow two shorthands:
//
//   - the symbol _ matches any datum
//   - a bare integer N matches (integer N)
func Match(pattern, actual *Node) bool {
	if pattern.Type == NodeSymbol && pattern.Text == "_" {
		return true
	}
	if pattern.Type == NodeInteger && actual.Type == NodeList {
		return len(actual.Items) == 2 &&
			actual.Items[0].Type == NodeSymbol && actual.Items[0].Text == "integer" &&
			actual.Items[1].Type == NodeInteger && actual.Items[1].Text == pattern.Text
	}
	if pattern.Type != actual.Type {
		return false
	}
	if pattern.Type != NodeList {
		return pattern.Text == actual.Text
	}
	if len(pattern.Items) != len(actual.Items) {
		return false
	}
	for i := range pattern.Items {
		if !Match(pattern.Items[i], actual.Items[i]) {
			return false
		}
	}
	return true
}

// Parse reads exactly one datum from input. Comments run from ';' to the end
// of the line.
func Parse(input string) (*Node, error) {
	r := &reader{input: input}
	n, err := r.datum()
	if err != nil {
		return nil, err
	}
	r.skipSpace()
	if r.pos < len(r.input) {
		return nil, fmt.Errorf("expected EOF but got %q at offset %d", r.input[r.pos], r.pos)
	}
	return n, nil
}

type reader struct {
	input string
	pos   int
}

func (r *reader) peek() byte {
	if r.pos >= len(r.input) {
		return 0
	}
	return r.input[r.pos]
}

func (r *reader) skipSpace() {
	for r.pos < len(r.input) {
		switch c := r.input[r.pos]; {
		case c == ';':
			for r.pos < len(r.input) && r.input[r.pos] != '\n' {
				r.pos++
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			r.pos++
		default:
			return
		}
	}
}

func (r *reader) datum() (*Node, error) {
	r.skipSpace()
	c := r.peek()
	switch {
	case c == 0:
		return nil, fmt.Errorf("unexpected EOF")
	case c == '(':
		return r.list()
	case c == ')':
		return nil, fmt.Errorf("unexpected ')' at offset %d", r.pos)
	case c == '"':
		return r.str()
	case isDigit(c) || ((c == '-' || c == '+') && isDigit(r.at(r.pos+1))):
		start := r.pos
		r.pos++
		for isDigit(r.peek()) {
			r.pos++
		}
		return NewInteger(r.input[start:r.pos]), nil
	case isSymbolChar(c):
		start := r.pos
		for isSymbolChar(r.peek()) {
			r.pos++
		}
		return NewSymbol(r.input[start:r.pos]), nil
	}
	return nil, fmt.Errorf("unexpected character %q at offset %d", c, r.pos)
}

func (r *reader) at(i int) byte {
	if i >= len(r.input) {
		return 0
	}
	return r.input[i]
}

func (r *reader) list() (*Node, error) {
	r.pos++ // (
	items := []*Node{}
	for {
		r.skipSpace()
		switch r.peek() {
		case 0:
			return nil, fmt.Errorf("expected ')' but got EOF")
		case ')':
			r.pos++
			return NewList(items), nil
		}
		item, err := r.datum()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
}

func (r *reader) str() (*Node, error) {
	r.pos++ // opening quote
	var sb strings.Builder
	for {
		c := r.peek()
		switch c {
		case 0:
			return nil, fmt.Errorf("unterminated string")
		case '"':
			r.pos++
			return NewString(sb.String()), nil
		case '\\':
			r.pos++
			switch esc := r.peek(); esc {
			case '"', '\\':
				sb.WriteByte(esc)
			default:
				return nil, fmt.Errorf("invalid escape sequence: \\%c", esc)
			}
		default:
			sb.WriteByte(c)
		}
		r.pos++
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isSymbolChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', isDigit(c):
		return true
	}
	return strings.IndexByte("-_+*/<>=!&|@.?", c) >= 0
}
