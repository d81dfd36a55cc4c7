package main

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestNewSymbolTable(t *testing.T) {
	st := NewSymbolTable()
	be.Equal(t, st.Depth(), 1)
	be.Equal(t, st.CurOffset(), uint64(0))
	be.Equal(t, st.FrameSize(), uint64(0))
}

func TestDeclareVariable(t *testing.T) {
	st := NewSymbolTable()

	err := st.Declare("x", Symbol{DeclaredType: "int", StackOffset: 8})
	be.Err(t, err, nil)
	be.Equal(t, st.CurOffset(), uint64(8))

	sym, err := st.Lookup("x")
	be.Err(t, err, nil)
	be.Equal(t, sym, Symbol{DeclaredType: "int", StackOffset: 8})
}

func TestDeclareVariableDuplicate(t *testing.T) {
	st := NewSymbolTable()
	be.Err(t, st.Declare("x", Symbol{StackOffset: 8}), nil)

	err := st.Declare("x", Symbol{StackOffset: 16})
	be.True(t, IsKind(err, SemanticError))
	be.Equal(t, err.Error(), "semantic error: variable 'x' already declared")

	// The first binding is kept.
	sym, _ := st.Lookup("x")
	be.Equal(t, sym.StackOffset, uint64(8))
}

func TestLookupUndefined(t *testing.T) {
	st := NewSymbolTable()
	_, err := st.Lookup("nope")
	be.True(t, IsKind(err, UndefinedVariable))
	be.Equal(t, err.Error(), "undefined variable: 'nope'")
}

func TestCurOffsetIsMaximum(t *testing.T) {
	st := NewSymbolTable()
	be.Err(t, st.Declare("b", Symbol{StackOffset: 16}), nil)
	be.Err(t, st.Declare("a", Symbol{StackOffset: 8}), nil)
	be.Equal(t, st.CurOffset(), uint64(16))
}

func TestFunctionScopeStartsAtZero(t *testing.T) {
	st := NewSymbolTable()
	be.Err(t, st.Declare("g", Symbol{StackOffset: 8}), nil)

	st.EnterScope()
	be.Equal(t, st.Depth(), 2)
	be.Equal(t, st.CurOffset(), uint64(0))

	// Outer names are still visible.
	_, err := st.Lookup("g")
	be.Err(t, err, nil)

	be.Err(t, st.ExitScope(), nil)
	be.Equal(t, st.CurOffset(), uint64(8))
}

func TestShadowing(t *testing.T) {
	st := NewSymbolTable()
	st.EnterScope()
	be.Err(t, st.Declare("x", Symbol{DeclaredType: "int", StackOffset: 8}), nil)

	st.EnterBlock()
	be.Err(t, st.Declare("x", Symbol{DeclaredType: "string", StackOffset: 16}), nil)
	sym, err := st.Lookup("x")
	be.Err(t, err, nil)
	be.Equal(t, sym.DeclaredType, "string")
	be.Equal(t, sym.StackOffset, uint64(16))

	be.Err(t, st.ExitScope(), nil)
	sym, err = st.Lookup("x")
	be.Err(t, err, nil)
	be.Equal(t, sym.DeclaredType, "int")
}

func TestBlockOffsets(t *testing.T) {
	st := NewSymbolTable()
	st.EnterScope()
	be.Err(t, st.Declare("a", Symbol{StackOffset: 8}), nil)

	st.EnterBlock()
	// Block slots continue after the parent's.
	be.Equal(t, st.CurOffset(), uint64(8))
	be.Err(t, st.Declare("b", Symbol{StackOffset: 16}), nil)
	be.Err(t, st.Declare("c", Symbol{StackOffset: 24}), nil)
	be.Err(t, st.ExitScope(), nil)

	// The block's slots are free again but still part of the frame.
	be.Equal(t, st.CurOffset(), uint64(8))
	be.Equal(t, st.FrameSize(), uint64(24))

	_, err := st.Lookup("b")
	be.True(t, IsKind(err, UndefinedVariable))

	st.EnterBlock()
	be.Err(t, st.Declare("d", Symbol{StackOffset: 16}), nil)
	be.Err(t, st.ExitScope(), nil)
	be.Equal(t, st.FrameSize(), uint64(24))
}

func TestNestedBlocks(t *testing.T) {
	st := NewSymbolTable()
	st.EnterScope()
	st.EnterBlock()
	be.Err(t, st.Declare("a", Symbol{StackOffset: 8}), nil)
	st.EnterBlock()
	be.Equal(t, st.CurOffset(), uint64(8))
	be.Err(t, st.Declare("b", Symbol{StackOffset: 16}), nil)
	be.Err(t, st.ExitScope(), nil)
	be.Err(t, st.ExitScope(), nil)

	be.Equal(t, st.CurOffset(), uint64(0))
	be.Equal(t, st.FrameSize(), uint64(16))
}

func TestExitRootScope(t *testing.T) {
	st := NewSymbolTable()
	err := st.ExitScope()
	be.True(t, IsKind(err, SemanticError))
	be.Equal(t, err.Error(), "semantic error: scope stack underflow")
	be.Equal(t, st.Depth(), 1)
}
