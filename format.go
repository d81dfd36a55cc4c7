package main

import (
	"strconv"
	"strings"
)

// Format renders prog as source text. Every operator application is
// parenthesized, so parsing the output gives back a tree of the same shape.
func Format(prog *Program) string {
	f := formatter{store: prog.Store}
	for i, stmt := range prog.Stmts {
		if i > 0 && (stmt.Kind == StmtFunc || prog.Stmts[i-1].Kind == StmtFunc) {
			f.sb.WriteByte('\n')
		}
		f.stmt(stmt)
	}
	return f.sb.String()
}

type formatter struct {
	sb     strings.Builder
	store  *Store
	indent int
}

func (f *formatter) line(s string) {
	f.sb.WriteString(strings.Repeat("\t", f.indent))
	f.sb.WriteString(s)
	f.sb.WriteByte('\n')
}

func (f *formatter) stmt(stmt Stmt) {
	switch stmt.Kind {
	case StmtExpr:
		f.line(f.topExpr(stmt.Expr) + ";")

	case StmtReturn:
		f.line("return " + f.topExpr(stmt.Value) + ";")

	case StmtVar:
		keyword := "var"
		if stmt.Const {
			keyword = "const"
		}
		s := keyword + " " + stmt.Name + ": " + stmt.Type
		if stmt.Init.Valid() {
			s += " = " + f.expr(stmt.Init)
		}
		f.line(s + ";")

	case StmtIf:
		f.ifChain(stmt, "")

	case StmtFunc:
		params := make([]string, len(stmt.Params))
		for i, p := range stmt.Params {
			params[i] = p.Name + ": " + p.Type
		}
		head := "func " + stmt.Name + "(" + strings.Join(params, ", ") + ")"
		if stmt.ReturnType != "" {
			head += ": " + stmt.ReturnType
		}
		f.line(head + " {")
		f.block(stmt.Body)
		f.line("}")
	}
}

// ifChain prints an if statement, folding an else block holding only an if
// statement into "else if".
func (f *formatter) ifChain(stmt Stmt, prefix string) {
	f.line(prefix + "if " + f.expr(stmt.Cond) + " {")
	f.block(stmt.Then)
	if !stmt.HasElse {
		f.line("}")
		return
	}
	if len(stmt.Else) == 1 && stmt.Else[0].Kind == StmtIf {
		f.ifChain(stmt.Else[0], "} else ")
		return
	}
	f.line("} else {")
	f.block(stmt.Else)
	f.line("}")
}

func (f *formatter) block(stmts []Stmt) {
	f.indent++
	for _, s := range stmts {
		f.stmt(s)
	}
	f.indent--
}

// topExpr renders an expression in statement position, where an assignment
// needs no parentheses.
func (f *formatter) topExpr(ref ExpRef) string {
	e := f.store.Get(ref)
	if e.Kind == ExprAssign {
		return f.expr(e.Left) + " = " + f.expr(e.Right)
	}
	return f.expr(ref)
}

func (f *formatter) expr(ref ExpRef) string {
	e := f.store.Get(ref)
	switch e.Kind {
	case ExprIdent:
		return e.Name
	case ExprInteger:
		return strconv.FormatInt(e.Int, 10)
	case ExprString:
		return `"` + e.Str + `"`
	case ExprPrefix:
		return "(" + string(e.Op) + f.expr(e.Right) + ")"
	case ExprInfix:
		return "(" + f.expr(e.Left) + " " + string(e.Op) + " " + f.expr(e.Right) + ")"
	case ExprAssign:
		return "(" + f.expr(e.Left) + " = " + f.expr(e.Right) + ")"
	case ExprCall:
		args := make([]string, len(e.Args))
		for i, arg := range e.Args {
			args[i] = f.topExpr(arg)
		}
		return f.expr(e.Callee) + "(" + strings.Join(args, ", ") + ")"
	}
	return ""
}
