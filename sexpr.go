package main

import (
	"strconv"
	"strings"
)

// ExprSExpr renders the expression ref as an S-expression, e.g.
// (binary "+" (integer 1) (integer 2)).
func ExprSExpr(store *Store, ref ExpRef) string {
	var sb strings.Builder
	writeExpr(&sb, store, ref)
	return sb.String()
}

// SExpr renders one statement. Expression statements render as the bare
// expression.
func SExpr(store *Store, stmt Stmt) string {
	var sb strings.Builder
	writeStmt(&sb, store, stmt)
	return sb.String()
}

// SExpr renders the whole program as (program stmt...).
func (p *Program) SExpr() string {
	var sb strings.Builder
	sb.WriteString("(program")
	for _, stmt := range p.Stmts {
		sb.WriteByte(' ')
		writeStmt(&sb, p.Store, stmt)
	}
	sb.WriteByte(')')
	return sb.String()
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func writeIdent(sb *strings.Builder, name string) {
	sb.WriteString("(ident ")
	sb.WriteString(quote(name))
	sb.WriteByte(')')
}

func writeExpr(sb *strings.Builder, store *Store, ref ExpRef) {
	e := store.Get(ref)
	switch e.Kind {
	case ExprIdent:
		writeIdent(sb, e.Name)
	case ExprString:
		sb.WriteString("(string " + quote(e.Str) + ")")
	case ExprInteger:
		sb.WriteString("(integer " + strconv.FormatInt(e.Int, 10) + ")")
	case ExprInfix:
		sb.WriteString("(binary " + quote(string(e.Op)) + " ")
		writeExpr(sb, store, e.Left)
		sb.WriteByte(' ')
		writeExpr(sb, store, e.Right)
		sb.WriteByte(')')
	case ExprPrefix:
		sb.WriteString("(unary " + quote(string(e.Op)) + " ")
		writeExpr(sb, store, e.Right)
		sb.WriteByte(')')
	case ExprAssign:
		sb.WriteString("(assign ")
		writeExpr(sb, store, e.Left)
		sb.WriteByte(' ')
		writeExpr(sb, store, e.Right)
		sb.WriteByte(')')
	case ExprCall:
		sb.WriteString("(call ")
		writeExpr(sb, store, e.Callee)
		for _, arg := range e.Args {
			sb.WriteByte(' ')
			writeExpr(sb, store, arg)
		}
		sb.WriteByte(')')
	}
}

func writeBlock(sb *strings.Builder, store *Store, stmts []Stmt) {
	sb.WriteString("(block")
	for _, s := range stmts {
		sb.WriteByte(' ')
		writeStmt(sb, store, s)
	}
	sb.WriteByte(')')
}

func writeStmt(sb *strings.Builder, store *Store, stmt Stmt) {
	switch stmt.Kind {
	case StmtExpr:
		writeExpr(sb, store, stmt.Expr)

	case StmtReturn:
		sb.WriteString("(return ")
		writeExpr(sb, store, stmt.Value)
		sb.WriteByte(')')

	case StmtVar:
		if stmt.Const {
			sb.WriteString("(const ")
		} else {
			sb.WriteString("(var ")
		}
		writeIdent(sb, stmt.Name)
		sb.WriteByte(' ')
		writeIdent(sb, stmt.Type)
		if stmt.Init.Valid() {
			sb.WriteByte(' ')
			writeExpr(sb, store, stmt.Init)
		}
		sb.WriteByte(')')

	case StmtIf:
		sb.WriteString("(if ")
		writeExpr(sb, store, stmt.Cond)
		sb.WriteByte(' ')
		writeBlock(sb, store, stmt.Then)
		if stmt.HasElse {
			sb.WriteByte(' ')
			writeBlock(sb, store, stmt.Else)
		}
		sb.WriteByte(')')

	case StmtFunc:
		sb.WriteString("(func ")
		writeIdent(sb, stmt.Name)
		sb.WriteString(" (params")
		for _, p := range stmt.Params {
			sb.WriteString(" (param ")
			writeIdent(sb, p.Name)
			sb.WriteByte(' ')
			writeIdent(sb, p.Type)
			sb.WriteByte(')')
		}
		sb.WriteByte(')')
		if stmt.ReturnType != "" {
			sb.WriteByte(' ')
			writeIdent(sb, stmt.ReturnType)
		}
		sb.WriteByte(' ')
		writeBlock(sb, store, stmt.Body)
		sb.WriteByte(')')
	}
}
