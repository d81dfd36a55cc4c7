package main

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
)

// ExpRef identifies one expression node inside the Store that created it.
// The zero value refers to nothing.
type ExpRef struct {
	store uint64
	index uint32
}

// Valid reports whether r refers to a node.
func (r ExpRef) Valid() bool { return r.store != 0 }

// MarshalJSON renders the handle as the node's position in its store's node
// sequence, or null for the zero handle.
func (r ExpRef) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(r.index)
}

// ExprKind represents different types of expression nodes
type ExprKind string

const (
	ExprInfix   ExprKind = "infix"
	ExprPrefix  ExprKind = "prefix"
	ExprAssign  ExprKind = "assign"
	ExprCall    ExprKind = "call"
	ExprInteger ExprKind = "integer"
	ExprString  ExprKind = "string"
	ExprIdent   ExprKind = "ident"
)

// Expr is one arena node. Which fields are meaningful depends on Kind.
type Expr struct {
	Kind ExprKind
	Pos  Pos
	// ExprInfix, ExprPrefix:
	Op TokenKind
	// ExprInfix, ExprAssign (Left only for those two), ExprPrefix (Right):
	Left  ExpRef
	Right ExpRef
	// ExprCall:
	Callee ExpRef
	Args   []ExpRef
	// ExprInteger:
	Int int64
	// ExprString:
	Str string
	// ExprIdent:
	Name string
	// Type is the tag of the var, const or parameter declaration the name
	// resolves to when the parser saw it, and "" otherwise (function names,
	// undeclared names).
	Type string
}

func (e Expr) MarshalJSON() ([]byte, error) {
	m := map[string]any{"kind": e.Kind}
	switch e.Kind {
	case ExprInfix:
		m["left"], m["op"], m["right"] = e.Left, e.Op, e.Right
	case ExprPrefix:
		m["op"], m["right"] = e.Op, e.Right
	case ExprAssign:
		m["left"], m["right"] = e.Left, e.Right
	case ExprCall:
		args := e.Args
		if args == nil {
			args = []ExpRef{}
		}
		m["callee"], m["args"] = e.Callee, args
	case ExprInteger:
		m["value"] = e.Int
	case ExprString:
		m["value"] = e.Str
	case ExprIdent:
		m["name"], m["type"] = e.Name, e.Type
	}
	return json.Marshal(m)
}

// storeIDs is 64 bits wide so it never wraps back to the zero id, which
// marks the zero ExpRef.
var storeIDs atomic.Uint64

// Store is the append-only arena holding every expression of one parse.
type Store struct {
	id    uint64
	nodes []Expr
}

func NewStore() *Store {
	return &Store{id: storeIDs.Add(1)}
}

// Add appends a node and returns its handle.
func (s *Store) Add(e Expr) ExpRef {
	s.nodes = append(s.nodes, e)
	return ExpRef{store: s.id, index: uint32(len(s.nodes) - 1)}
}

// Get returns the node r refers to. Handles from another store are a
// programming error and panic.
func (s *Store) Get(r ExpRef) Expr {
	if r.store != s.id {
		panic(fmt.Sprintf("ExpRef from store %d used with store %d", r.store, s.id))
	}
	return s.nodes[r.index]
}

// Len returns the number of nodes in the store.
func (s *Store) Len() int { return len(s.nodes) }

// Nodes returns a copy of the node sequence in allocation order.
func (s *Store) Nodes() []Expr {
	return append([]Expr(nil), s.nodes...)
}

func (s *Store) MarshalJSON() ([]byte, error) {
	nodes := s.nodes
	if nodes == nil {
		nodes = []Expr{}
	}
	return json.Marshal(nodes)
}

// StmtKind represents different types of statements
type StmtKind string

const (
	StmtIf     StmtKind = "if"
	StmtFunc   StmtKind = "func"
	StmtVar    StmtKind = "var"
	StmtReturn StmtKind = "return"
	StmtExpr   StmtKind = "expr"
)

// Param is one typed function parameter.
type Param struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Stmt is a statement node. Statements own their children directly; only
// expressions live in the Store.
type Stmt struct {
	Kind StmtKind
	Pos  Pos
	// StmtIf:
	Cond    ExpRef
	Then    []Stmt
	Else    []Stmt
	HasElse bool
	// StmtFunc, StmtVar:
	Name string
	// StmtFunc:
	Params     []Param
	ReturnType string // "" when the function declares none
	Body       []Stmt
	// StmtVar:
	Type  string
	Init  ExpRef // zero when there is no initializer
	Const bool
	// StmtReturn:
	Value ExpRef
	// StmtExpr:
	Expr ExpRef
}

func (s Stmt) MarshalJSON() ([]byte, error) {
	m := map[string]any{"kind": s.Kind}
	switch s.Kind {
	case StmtIf:
		m["cond"], m["then"] = s.Cond, nonNil(s.Then)
		if s.HasElse {
			m["else"] = nonNil(s.Else)
		} else {
			m["else"] = nil
		}
	case StmtFunc:
		params := s.Params
		if params == nil {
			params = []Param{}
		}
		m["name"], m["params"], m["body"] = s.Name, params, nonNil(s.Body)
		if s.ReturnType != "" {
			m["return_type"] = s.ReturnType
		} else {
			m["return_type"] = nil
		}
	case StmtVar:
		m["name"], m["type"], m["init"], m["const"] = s.Name, s.Type, s.Init, s.Const
	case StmtReturn:
		m["value"] = s.Value
	case StmtExpr:
		m["expr"] = s.Expr
	}
	return json.Marshal(m)
}

func nonNil(stmts []Stmt) []Stmt {
	if stmts == nil {
		return []Stmt{}
	}
	return stmts
}

// Program is the parser's output: the top-level statements together with the
// store their expression handles point into.
type Program struct {
	Stmts []Stmt
	Store *Store
}
