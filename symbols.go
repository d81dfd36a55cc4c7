package main

// Symbol is what the compiler knows about a declared variable: its type tag
// and the distance below the frame base where its value lives.
type Symbol struct {
	DeclaredType string
	StackOffset  uint64
	Const        bool
}

type scope struct {
	symbols map[string]Symbol
	// curOffset is the largest offset declared in this scope, or inherited
	// from the parent for block scopes. New slots go right after it.
	curOffset uint64
	// peak is the largest offset used by this scope or any block nested in
	// it, which is what the stack frame has to cover.
	peak  uint64
	frame bool
}

// SymbolTable is a stack of scopes. The bottom entry is the root scope and is
// never popped.
type SymbolTable struct {
	scopes []*scope
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		scopes: []*scope{{symbols: map[string]Symbol{}, frame: true}},
	}
}

func (t *SymbolTable) top() *scope {
	return t.scopes[len(t.scopes)-1]
}

// EnterScope pushes a function scope. Its offsets start again from the new
// frame base.
func (t *SymbolTable) EnterScope() {
	t.scopes = append(t.scopes, &scope{symbols: map[string]Symbol{}, frame: true})
}

// EnterBlock pushes a scope for a nested block. It shares the enclosing
// function's frame, so its slots start after the parent's.
func (t *SymbolTable) EnterBlock() {
	parent := t.top()
	t.scopes = append(t.scopes, &scope{
		symbols:   map[string]Symbol{},
		curOffset: parent.curOffset,
		peak:      parent.curOffset,
	})
}

// ExitScope pops the current scope and returns to its parent. A block's
// slots stay counted in the enclosing frame's size but not in its
// curOffset, so later declarations may reuse them.
func (t *SymbolTable) ExitScope() error {
	if len(t.scopes) == 1 {
		return newError(SemanticError, "scope stack underflow")
	}
	s := t.top()
	t.scopes = t.scopes[:len(t.scopes)-1]
	if !s.frame {
		parent := t.top()
		parent.peak = max(parent.peak, s.peak)
	}
	return nil
}

// Declare binds name in the current scope.
func (t *SymbolTable) Declare(name string, sym Symbol) error {
	s := t.top()
	if _, ok := s.symbols[name]; ok {
		return newError(SemanticError, "variable '%s' already declared", name)
	}
	s.symbols[name] = sym
	s.curOffset = max(s.curOffset, sym.StackOffset)
	s.peak = max(s.peak, sym.StackOffset)
	return nil
}

// Lookup finds the nearest binding of name, searching outward from the
// current scope.
func (t *SymbolTable) Lookup(name string) (Symbol, error) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if sym, ok := t.scopes[i].symbols[name]; ok {
			return sym, nil
		}
	}
	return Symbol{}, newError(UndefinedVariable, "'%s'", name)
}

// CurOffset returns the offset of the last slot in use by the current scope.
func (t *SymbolTable) CurOffset() uint64 {
	return t.top().curOffset
}

// FrameSize returns the number of bytes of locals the current function
// needs, counting blocks that have already been exited.
func (t *SymbolTable) FrameSize() uint64 {
	return t.top().peak
}

// Depth returns the number of scopes on the stack, including the root.
func (t *SymbolTable) Depth() int {
	return len(t.scopes)
}
