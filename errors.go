package main

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a CompileError.
type ErrorKind string

const (
	LexError          ErrorKind = "lex error"
	SyntaxError       ErrorKind = "syntax error"
	SemanticError     ErrorKind = "semantic error"
	UndefinedVariable ErrorKind = "undefined variable"
)

// CompileError is the only error the compiler reports. Line and Col are zero
// when the error has no source position.
type CompileError struct {
	Kind ErrorKind
	Line int
	Col  int
	Msg  string
}

func (e *CompileError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("line %d:%d: %s: %s", e.Line, e.Col, e.Kind, e.Msg)
}

func newError(kind ErrorKind, format string, args ...any) *CompileError {
	return &CompileError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func errorAt(pos Pos, kind ErrorKind, format string, args ...any) *CompileError {
	return &CompileError{
		Kind: kind,
		Line: pos.Line,
		Col:  pos.Col,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// withPos returns a copy of err located at pos, unless err already carries a
// position.
func withPos(err error, pos Pos) *CompileError {
	ce := *err.(*CompileError)
	if ce.Line == 0 {
		ce.Line, ce.Col = pos.Line, pos.Col
	}
	return &ce
}

// IsKind reports whether err is a CompileError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ce *CompileError
	return errors.As(err, &ce) && ce.Kind == kind
}

// bailout aborts the current pass. The exported entry points recover it with
// catch; anything else that panics is not ours and keeps unwinding.
func bailout(err *CompileError) {
	panic(err)
}

func catch(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if ce, ok := r.(*CompileError); ok {
		*errp = ce
		return
	}
	panic(r)
}
