package main

import (
	"testing"

	"github.com/nalgeon/be"
)

func parseExpr(t *testing.T, src string) (*Store, ExpRef) {
	t.Helper()
	p := NewParser(NewLexer(src))
	ref, err := p.ParseExpression()
	be.Err(t, err, nil)
	return p.Store(), ref
}

func TestParseExpressionSExpr(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"42", "(integer 42)"},
		{"x", `(ident "x")`},
		{`"hi"`, `(string "hi")`},
		{"1 + 2 * 3", `(binary "+" (integer 1) (binary "*" (integer 2) (integer 3)))`},
		{"1 * 2 + 3", `(binary "+" (binary "*" (integer 1) (integer 2)) (integer 3))`},
		{"10 - 3 - 2", `(binary "-" (binary "-" (integer 10) (integer 3)) (integer 2))`},
		{"-1 - -2", `(binary "-" (unary "-" (integer 1)) (unary "-" (integer 2)))`},
		{"+x", `(ident "x")`},
		{"(((7)))", "(integer 7)"},
		{"a = b + 1", `(assign (ident "a") (binary "+" (ident "b") (integer 1)))`},
		{"f()", `(call (ident "f"))`},
		{"f(a, b + 1)", `(call (ident "f") (ident "a") (binary "+" (ident "b") (integer 1)))`},
		{"a == b && c != d || e", `(binary "||" (binary "&&" (binary "==" (ident "a") (ident "b")) (binary "!=" (ident "c") (ident "d"))) (ident "e"))`},
		{"x;", `(ident "x")`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			store, ref := parseExpr(t, tt.input)
			be.Equal(t, ExprSExpr(store, ref), tt.want)
		})
	}
}

func TestParseCallNode(t *testing.T) {
	store, ref := parseExpr(t, "add(1, 2)")

	call := store.Get(ref)
	be.Equal(t, call.Kind, ExprCall)
	be.Equal(t, store.Get(call.Callee).Name, "add")
	be.Equal(t, len(call.Args), 2)
	be.Equal(t, store.Get(call.Args[0]).Int, int64(1))
	be.Equal(t, store.Get(call.Args[1]).Int, int64(2))
}

func TestParseExpressionNodeOrder(t *testing.T) {
	// Children are allocated before their parents.
	store, ref := parseExpr(t, "1 + 2")
	be.Equal(t, store.Len(), 3)
	be.Equal(t, ref.index, uint32(2))

	nodes := store.Nodes()
	be.Equal(t, nodes[0].Int, int64(1))
	be.Equal(t, nodes[1].Int, int64(2))
	be.Equal(t, nodes[2].Op, PLUS)
}

func TestParseExpressionPositions(t *testing.T) {
	store, ref := parseExpr(t, "a +\n  f(-1)")

	sum := store.Get(ref)
	be.Equal(t, sum.Pos, Pos{Line: 1, Col: 3})
	be.Equal(t, store.Get(sum.Left).Pos, Pos{Line: 1, Col: 1})

	call := store.Get(sum.Right)
	be.Equal(t, call.Pos, Pos{Line: 2, Col: 3})
	be.Equal(t, store.Get(call.Args[0]).Pos, Pos{Line: 2, Col: 5})
}

func TestParseMaxInt(t *testing.T) {
	store, ref := parseExpr(t, "9223372036854775807")
	be.Equal(t, store.Get(ref).Int, int64(9223372036854775807))
}

func TestParseExpressionErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "line 1:1: syntax error: expected expression but got EOF"},
		{"1 +", "syntax error: expected expression but got EOF"},
		{"(1", "syntax error: expected ')' but got EOF"},
		{"1 = 2", "syntax error: cannot assign to non-identifier"},
		{"f(1 2)", "syntax error: expected ',' or ')' but got INT \"2\""},
		{"f(1,,2)", "syntax error: expected list element or ')' but got ','"},
		{"9223372036854775808", "syntax error: integer literal 9223372036854775808 out of range"},
		{")", "syntax error: expected expression but got ')'"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := NewParser(NewLexer(tt.input)).ParseExpression()
			be.True(t, err != nil)
			be.True(t, IsKind(err, SyntaxError))
			be.True(t, len(err.Error()) >= len(tt.want))
			be.Equal(t, err.Error()[len(err.Error())-len(tt.want):], tt.want)
		})
	}
}
