package main

import (
	"fmt"
	"math"
	"strconv"
)

const (
	entryFunction = "main"
	slotSize      = 8
	minFrameSize  = 16
	// Arguments start above the saved rbp and the return address.
	firstArgOffset = 16
)

type funcSig struct {
	params     []Param
	returnType string
	minArgs    int
	maxArgs    int
}

// Compiler walks a parsed program and emits x86-64 assembly for a simple
// stack machine: every expression leaves exactly one value on the native
// stack, and operators pop their operands into rax and rbx.
//
// A Compiler compiles its program once; use a new one for every run.
type Compiler struct {
	prog  *Program
	store *Store
	table *SymbolTable
	funcs map[string]funcSig

	text   []Instruction
	data   []Instruction
	header []Instruction

	strCount   int
	labelCount int

	// depth is the number of values the generated code has pushed on the
	// operand stack at this point of the current function.
	depth  int
	inFunc bool
}

func NewCompiler(prog *Program) *Compiler {
	return &Compiler{
		prog:  prog,
		store: prog.Store,
		table: NewSymbolTable(),
		funcs: map[string]funcSig{},
	}
}

// Compile runs the whole pipeline on src and returns the assembly listing.
func Compile(src string) (string, error) {
	prog, err := NewParser(NewLexer(src)).ParseProgram()
	if err != nil {
		return "", err
	}
	return CompileProgram(prog)
}

// CompileProgram compiles an already parsed program.
func CompileProgram(prog *Program) (string, error) {
	asm, err := NewCompiler(prog).Compile()
	if err != nil {
		return "", err
	}
	return asm.String(), nil
}

// Compile generates code for every top-level statement. Only function
// declarations may appear at the top level.
func (c *Compiler) Compile() (asm *Assembly, err error) {
	defer catch(&err)

	c.emitPrint()
	for _, stmt := range c.prog.Stmts {
		if stmt.Kind != StmtFunc {
			bailout(errorAt(stmt.Pos, SemanticError, "%s statement outside of a function", stmt.Kind))
		}
		c.compileStmt(stmt)
	}

	return &Assembly{
		Data:   c.data,
		Header: c.header,
		Text:   c.text,
	}, nil
}

func (c *Compiler) emit(op Opcode, operands ...string) int {
	c.text = append(c.text, Instruction{Op: op, Operands: operands})
	return len(c.text) - 1
}

func (c *Compiler) label(name string) {
	c.emit(OpLabel, name)
}

func (c *Compiler) directive(op Opcode, operand string) {
	c.header = append(c.header, Instruction{Op: op, Operands: []string{operand}})
}

func (c *Compiler) push(operand string) {
	c.emit(OpPush, operand)
	c.depth++
}

func (c *Compiler) pop(reg Register) {
	if c.depth == 0 {
		bailout(newError(SemanticError, "internal error: operand stack underflow"))
	}
	c.emit(OpPop, string(reg))
	c.depth--
}

func (c *Compiler) newLabel() int {
	n := c.labelCount
	c.labelCount++
	return n
}

func (c *Compiler) lookup(name string, pos Pos) Symbol {
	sym, err := c.table.Lookup(name)
	if err != nil {
		bailout(withPos(err, pos))
	}
	return sym
}

func (c *Compiler) declare(name string, sym Symbol, pos Pos) {
	if err := c.table.Declare(name, sym); err != nil {
		bailout(withPos(err, pos))
	}
}

func (c *Compiler) prologue() {
	c.emit(OpPush, string(RBP))
	c.emit(OpMov, string(RBP), string(RSP))
}

func (c *Compiler) teardown() {
	c.emit(OpMov, string(RSP), string(RBP))
	c.emit(OpPop, string(RBP))
	c.emit(OpRet)
}

// emitPrint registers the built-in print and emits its body. print takes the
// format string and up to five values, moves them from the stack into the
// System V argument registers and calls printf.
func (c *Compiler) emitPrint() {
	c.funcs["print"] = funcSig{
		params:  []Param{{Name: "format", Type: "string"}},
		minArgs: 1,
		maxArgs: len(argRegisters),
	}
	c.directive(OpExtern, "printf")

	c.label("print")
	c.prologue()
	for i, reg := range argRegisters {
		c.emit(OpMov, string(reg), qword(int64(firstArgOffset+slotSize*i)))
	}
	c.emit(OpXor, string(RAX), string(RAX)) // no vector registers
	c.emit(OpAnd, string(RSP), "-16")
	c.emit(OpCall, "printf wrt ..plt")
	c.teardown()
}

func (c *Compiler) compileStmt(stmt Stmt) {
	switch stmt.Kind {
	case StmtFunc:
		c.compileFunc(stmt)
	case StmtVar:
		c.compileVar(stmt)
	case StmtIf:
		c.compileIf(stmt)
	case StmtReturn:
		c.compileExpr(stmt.Value)
		c.pop(RAX)
		c.teardown()
	case StmtExpr:
		c.compileExprStmt(stmt.Expr)
	default:
		panic(fmt.Sprintf("unknown statement kind %q", stmt.Kind))
	}

	if c.depth != 0 {
		bailout(newError(SemanticError, "internal error: %d values left on the operand stack", c.depth))
	}
}

func (c *Compiler) compileBlock(stmts []Stmt) {
	c.table.EnterBlock()
	for _, stmt := range stmts {
		c.compileStmt(stmt)
	}
	if err := c.table.ExitScope(); err != nil {
		bailout(err.(*CompileError))
	}
}

func (c *Compiler) compileFunc(stmt Stmt) {
	if c.inFunc {
		bailout(errorAt(stmt.Pos, SemanticError, "function '%s' declared inside another function", stmt.Name))
	}
	if _, ok := c.funcs[stmt.Name]; ok {
		bailout(errorAt(stmt.Pos, SemanticError, "function '%s' already declared", stmt.Name))
	}
	c.funcs[stmt.Name] = funcSig{
		params:     stmt.Params,
		returnType: stmt.ReturnType,
		minArgs:    len(stmt.Params),
		maxArgs:    len(stmt.Params),
	}

	entry := stmt.Name == entryFunction
	if entry {
		c.directive(OpGlobal, stmt.Name)
	}

	c.inFunc = true
	c.label(stmt.Name)
	c.prologue()
	// The frame size is not known until the body has been compiled.
	reserve := c.emit(OpSub, string(RSP), "0")

	c.table.EnterScope()
	for i, param := range stmt.Params {
		offset := c.table.CurOffset() + slotSize
		c.declare(param.Name, Symbol{DeclaredType: param.Type, StackOffset: offset}, stmt.Pos)
		c.emit(OpMov, string(RAX), qword(int64(firstArgOffset+slotSize*i)))
		c.emit(OpMov, qword(-int64(offset)), string(RAX))
	}

	for _, s := range stmt.Body {
		c.compileStmt(s)
	}

	frame := max(c.table.FrameSize(), minFrameSize)
	c.text[reserve] = Instruction{
		Op:       OpSub,
		Operands: []string{string(RSP), strconv.FormatUint(frame, 10)},
	}
	if err := c.table.ExitScope(); err != nil {
		bailout(err.(*CompileError))
	}
	c.inFunc = false

	switch {
	case entry:
		c.emit(OpXor, string(RAX), string(RAX))
		c.teardown()
	case !endsInReturn(stmt.Body):
		c.emit(OpMov, string(RAX), "0")
		c.teardown()
	}
}

func endsInReturn(body []Stmt) bool {
	return len(body) > 0 && body[len(body)-1].Kind == StmtReturn
}

func (c *Compiler) compileVar(stmt Stmt) {
	offset := c.table.CurOffset() + slotSize
	c.declare(stmt.Name, Symbol{
		DeclaredType: stmt.Type,
		StackOffset:  offset,
		Const:        stmt.Const,
	}, stmt.Pos)

	if stmt.Init.Valid() {
		c.compileExpr(stmt.Init)
		c.pop(RAX)
		c.emit(OpMov, qword(-int64(offset)), string(RAX))
	}
}

func (c *Compiler) compileIf(stmt Stmt) {
	n := c.newLabel()
	elseLabel := fmt.Sprintf("else@%d", n)
	endLabel := fmt.Sprintf("end@%d", n)

	c.compileExpr(stmt.Cond)
	c.pop(RAX)
	c.emit(OpCmp, string(RAX), "0")
	c.emit(OpJe, elseLabel)

	c.compileBlock(stmt.Then)
	c.emit(OpJmp, endLabel)

	c.label(elseLabel)
	if stmt.HasElse {
		c.compileBlock(stmt.Else)
	}
	c.label(endLabel)
}

// compileExprStmt evaluates an expression for its side effects. Assignments
// store directly; any other value is dropped from the operand stack.
func (c *Compiler) compileExprStmt(ref ExpRef) {
	e := c.store.Get(ref)
	if e.Kind == ExprAssign {
		c.compileAssign(e)
		return
	}
	c.compileExpr(ref)
	c.emit(OpAdd, string(RSP), strconv.Itoa(slotSize))
	c.depth--
}

func (c *Compiler) compileAssign(e Expr) {
	c.compileExpr(e.Right)
	c.pop(RAX)

	target := c.store.Get(e.Left)
	if target.Kind != ExprIdent {
		bailout(errorAt(e.Pos, SemanticError, "cannot assign to non-identifier"))
	}
	sym := c.lookup(target.Name, target.Pos)
	if sym.Const {
		bailout(errorAt(target.Pos, SemanticError, "cannot assign to constant '%s'", target.Name))
	}
	c.emit(OpMov, qword(-int64(sym.StackOffset)), string(RAX))
}

// compileExpr emits code that pushes the value of ref.
func (c *Compiler) compileExpr(ref ExpRef) {
	e := c.store.Get(ref)

	switch e.Kind {
	case ExprInteger:
		if e.Int >= math.MinInt32 && e.Int <= math.MaxInt32 {
			c.push(strconv.FormatInt(e.Int, 10))
		} else {
			c.emit(OpMov, string(RAX), strconv.FormatInt(e.Int, 10))
			c.push(string(RAX))
		}

	case ExprString:
		label := fmt.Sprintf("str@%d", c.strCount)
		c.strCount++
		c.data = append(c.data, Instruction{Op: OpData, Operands: []string{label, nasmString(e.Str)}})
		c.emit(OpLea, string(RAX), "[rel "+label+"]")
		c.push(string(RAX))

	case ExprIdent:
		sym := c.lookup(e.Name, e.Pos)
		c.emit(OpMov, string(RAX), qword(-int64(sym.StackOffset)))
		c.push(string(RAX))

	case ExprAssign:
		bailout(errorAt(e.Pos, SemanticError, "assignment cannot be used as a value"))

	case ExprPrefix:
		c.compileExpr(e.Right)
		if e.Op != MINUS {
			bailout(errorAt(e.Pos, SemanticError, "unsupported prefix operator %s", e.Op))
		}
		c.pop(RAX)
		c.emit(OpNeg, string(RAX))
		c.push(string(RAX))

	case ExprInfix:
		if e.Op == AND || e.Op == OR {
			c.compileLogical(e)
		} else {
			c.compileInfix(e)
		}

	case ExprCall:
		c.compileCall(e)

	default:
		panic(fmt.Sprintf("unknown expression kind %q", e.Kind))
	}
}

var setOps = map[TokenKind]Opcode{
	LT:     OpSetl,
	GT:     OpSetg,
	LE:     OpSetle,
	GE:     OpSetge,
	EQ:     OpSete,
	NOT_EQ: OpSetne,
}

func (c *Compiler) compileInfix(e Expr) {
	c.compileExpr(e.Left)
	c.compileExpr(e.Right)
	c.pop(RBX)
	c.pop(RAX)

	switch e.Op {
	case PLUS:
		c.emit(OpAdd, string(RAX), string(RBX))
	case MINUS:
		c.emit(OpSub, string(RAX), string(RBX))
	case ASTERISK:
		c.emit(OpImul, string(RAX), string(RBX))
	case SLASH:
		c.emit(OpCqo)
		c.emit(OpIdiv, string(RBX))
	default:
		set, ok := setOps[e.Op]
		if !ok {
			bailout(errorAt(e.Pos, SemanticError, "unsupported operator %s", e.Op))
		}
		c.emit(OpCmp, string(RAX), string(RBX))
		c.emit(set, string(AL))
		c.emit(OpMovzx, string(RAX), string(AL))
	}
	c.push(string(RAX))
}

// compileLogical short-circuits && and ||. Both paths end with exactly one
// 0 or 1 pushed.
func (c *Compiler) compileLogical(e Expr) {
	n := c.newLabel()
	jump, short, result := OpJe, fmt.Sprintf("false@%d", n), "1"
	if e.Op == OR {
		jump, short, result = OpJne, fmt.Sprintf("true@%d", n), "0"
	}
	done := fmt.Sprintf("done@%d", n)

	for _, side := range []ExpRef{e.Left, e.Right} {
		c.compileExpr(side)
		c.pop(RAX)
		c.emit(OpCmp, string(RAX), "0")
		c.emit(jump, short)
	}
	c.push(result)
	c.emit(OpJmp, done)

	c.label(short)
	c.depth-- // the push above is on the other path
	if result == "1" {
		c.push("0")
	} else {
		c.push("1")
	}
	c.label(done)
}

// compileCall pushes the arguments right to left so the first one ends up
// nearest the callee's frame, calls, drops the arguments and pushes rax.
func (c *Compiler) compileCall(e Expr) {
	callee := c.store.Get(e.Callee)
	if callee.Kind != ExprIdent {
		bailout(errorAt(e.Pos, SemanticError, "callee is not a function name"))
	}
	sig, ok := c.funcs[callee.Name]
	if !ok {
		bailout(errorAt(e.Pos, SemanticError, "call to undeclared function '%s'", callee.Name))
	}

	n := len(e.Args)
	if n < sig.minArgs || n > sig.maxArgs {
		if sig.minArgs == sig.maxArgs {
			bailout(errorAt(e.Pos, SemanticError, "function '%s' expects %d arguments, got %d", callee.Name, sig.minArgs, n))
		}
		bailout(errorAt(e.Pos, SemanticError, "function '%s' expects %d to %d arguments, got %d", callee.Name, sig.minArgs, sig.maxArgs, n))
	}

	for i := n - 1; i >= 0; i-- {
		c.compileExpr(e.Args[i])
	}
	c.emit(OpCall, callee.Name)
	if n > 0 {
		c.emit(OpAdd, string(RSP), strconv.Itoa(slotSize*n))
	}
	c.depth -= n
	c.push(string(RAX))
}
