package main

import "strconv"

// Prio is an operator binding strength. The order of the constants is the
// precedence ladder.
type Prio int

const (
	PrioNone Prio = iota
	PrioAssign
	PrioOr
	PrioAnd
	PrioEqual
	PrioCompare
	PrioAdd
	PrioMult
	PrioPrefix
	PrioCall
)

// infixPrio returns how strongly kind binds as an infix operator. PrioNone
// means it is not one and ends the expression.
func infixPrio(kind TokenKind) Prio {
	switch kind {
	case PLUS, MINUS:
		return PrioAdd
	case ASTERISK, SLASH:
		return PrioMult
	case LPAREN:
		return PrioCall
	case ASSIGN:
		return PrioAssign
	case AND:
		return PrioAnd
	case OR:
		return PrioOr
	case LT, GT, LE, GE:
		return PrioCompare
	case EQ, NOT_EQ:
		return PrioEqual
	default:
		return PrioNone
	}
}

// Parser is a recursive-descent parser with a two token window. All
// expressions it builds go into one Store.
type Parser struct {
	lexer *Lexer
	cur   Token
	next  Token
	store *Store

	// decls maps the names declared so far to their type tags, innermost
	// scope last. It only annotates identifiers; resolution errors are the
	// compiler's job.
	decls []map[string]string
}

func NewParser(l *Lexer) *Parser {
	p := &Parser{
		lexer: l,
		store: NewStore(),
		decls: []map[string]string{{}},
	}
	p.cur = l.NextToken()
	p.next = l.NextToken()
	return p
}

// Store returns the arena the parser allocates expressions in.
func (p *Parser) Store() *Store { return p.store }

// ParseProgram parses statements until the end of input.
func (p *Parser) ParseProgram() (prog *Program, err error) {
	defer catch(&err)

	var stmts []Stmt
	for p.cur.Kind != EOF {
		stmts = append(stmts, p.parseStmt())
	}
	return &Program{Stmts: stmts, Store: p.store}, nil
}

// ParseStatement parses exactly one statement.
func (p *Parser) ParseStatement() (stmt Stmt, err error) {
	defer catch(&err)
	return p.parseStmt(), nil
}

// ParseExpression parses one expression and requires it to be followed by
// the end of input or a semicolon.
func (p *Parser) ParseExpression() (ref ExpRef, err error) {
	defer catch(&err)
	ref = p.parse(PrioNone)
	if p.cur.Kind != EOF && p.cur.Kind != SEMICOLON {
		p.unexpected("end of expression")
	}
	return ref, nil
}

func (p *Parser) shift() {
	p.cur = p.next
	p.next = p.lexer.NextToken()
}

func (p *Parser) unexpected(want string) {
	bailout(errorAt(p.cur.Pos(), SyntaxError, "expected %s but got %s", want, p.cur))
}

// expect consumes the current token if it has the given kind and fails
// otherwise.
func (p *Parser) expect(kind TokenKind) Token {
	if p.cur.Kind != kind {
		p.unexpected(describe(kind))
	}
	tok := p.cur
	p.shift()
	return tok
}

func (p *Parser) openScope() {
	p.decls = append(p.decls, map[string]string{})
}

func (p *Parser) closeScope() {
	p.decls = p.decls[:len(p.decls)-1]
}

func (p *Parser) declare(name, typ string) {
	p.decls[len(p.decls)-1][name] = typ
}

func (p *Parser) declaredType(name string) string {
	for i := len(p.decls) - 1; i >= 0; i-- {
		if typ, ok := p.decls[i][name]; ok {
			return typ
		}
	}
	return ""
}

func describe(kind TokenKind) string {
	switch kind {
	case IDENT:
		return "identifier"
	case INT:
		return "integer"
	case STRING:
		return "string"
	case EOF:
		return "end of input"
	}
	for word, k := range keywords {
		if k == kind {
			return "'" + word + "'"
		}
	}
	return "'" + string(kind) + "'"
}

func (p *Parser) parseStmt() Stmt {
	switch p.cur.Kind {
	case VAR, CONST:
		return p.parseVar()
	case IF:
		return p.parseIf()
	case RETURN:
		pos := p.cur.Pos()
		p.shift()
		value := p.parse(PrioNone)
		p.expect(SEMICOLON)
		return Stmt{Kind: StmtReturn, Pos: pos, Value: value}
	case FUNC:
		return p.parseFunc()
	default:
		pos := p.cur.Pos()
		expr := p.parse(PrioNone)
		p.expect(SEMICOLON)
		return Stmt{Kind: StmtExpr, Pos: pos, Expr: expr}
	}
}

// parseVar handles both var and const declarations:
//
//	var NAME : TYPE [= expr] ;
//	const NAME : TYPE = expr ;
func (p *Parser) parseVar() Stmt {
	isConst := p.cur.Kind == CONST
	pos := p.cur.Pos()
	p.shift()

	name := p.expect(IDENT)
	p.expect(COLON)
	typ := p.expect(IDENT)

	stmt := Stmt{
		Kind:  StmtVar,
		Pos:   pos,
		Name:  name.Text,
		Type:  typ.Text,
		Const: isConst,
	}
	// The slot exists before the initializer runs, so the initializer
	// already sees the new name.
	p.declare(name.Text, typ.Text)

	if p.cur.Kind == ASSIGN {
		p.shift()
		stmt.Init = p.parse(PrioAssign)
	} else if isConst {
		p.unexpected("'=' (const needs an initializer)")
	}

	p.expect(SEMICOLON)
	return stmt
}

func (p *Parser) parseIf() Stmt {
	stmt := Stmt{Kind: StmtIf, Pos: p.cur.Pos()}
	p.shift() // if

	stmt.Cond = p.parse(PrioNone)
	stmt.Then = p.parseBlock()

	if p.cur.Kind == ELSE {
		stmt.HasElse = true
		if p.next.Kind == IF {
			p.shift()
			stmt.Else = []Stmt{p.parseIf()}
		} else {
			p.shift()
			stmt.Else = p.parseBlock()
		}
	}
	return stmt
}

func (p *Parser) parseBlock() []Stmt {
	p.expect(LBRACE)
	p.openScope()
	defer p.closeScope()

	stmts := []Stmt{}
	for p.cur.Kind != RBRACE {
		if p.cur.Kind == EOF {
			p.unexpected("'}'")
		}
		stmts = append(stmts, p.parseStmt())
	}
	p.shift() // }
	return stmts
}

// parseFunc parses
//
//	func NAME ( params ) [: TYPE] { body }
func (p *Parser) parseFunc() Stmt {
	pos := p.cur.Pos()
	p.shift() // func

	name := p.expect(IDENT)
	stmt := Stmt{
		Kind:   StmtFunc,
		Pos:    pos,
		Name:   name.Text,
		Params: []Param{},
	}

	p.openScope()
	defer p.closeScope()

	p.parseList(func() {
		pname := p.expect(IDENT)
		p.expect(COLON)
		ptype := p.expect(IDENT)
		stmt.Params = append(stmt.Params, Param{Name: pname.Text, Type: ptype.Text})
		p.declare(pname.Text, ptype.Text)
	})

	if p.cur.Kind == COLON {
		p.shift()
		stmt.ReturnType = p.expect(IDENT).Text
	}

	stmt.Body = p.parseBlock()
	return stmt
}

// parseList consumes a parenthesized, comma separated list, calling elem for
// each element. A trailing comma is allowed.
func (p *Parser) parseList(elem func()) {
	p.expect(LPAREN)
	for p.cur.Kind != RPAREN {
		switch p.cur.Kind {
		case COMMA, RPAREN, RBRACE, SEMICOLON, EOF:
			p.unexpected("list element or ')'")
		}
		elem()
		if p.cur.Kind == COMMA {
			p.shift()
		} else if p.cur.Kind != RPAREN {
			p.unexpected("',' or ')'")
		}
	}
	p.shift() // )
}

// parse implements precedence climbing. Operators that bind strictly tighter
// than min are folded into the left operand, which makes every binary
// operator left associative.
func (p *Parser) parse(min Prio) ExpRef {
	left := p.parsePrimary()

	for p.cur.Kind != SEMICOLON {
		prio := infixPrio(p.cur.Kind)
		if prio <= min {
			break
		}
		left = p.parseInfix(left, prio)
	}
	return left
}

func (p *Parser) parseInfix(left ExpRef, prio Prio) ExpRef {
	op := p.cur

	switch op.Kind {
	case LPAREN:
		return p.parseCall(left)

	case ASSIGN:
		if p.store.Get(left).Kind != ExprIdent {
			bailout(errorAt(op.Pos(), SyntaxError, "cannot assign to non-identifier"))
		}
		p.shift()
		right := p.parse(prio)
		return p.store.Add(Expr{Kind: ExprAssign, Pos: op.Pos(), Left: left, Right: right})
	}

	p.shift()
	right := p.parse(prio)
	return p.store.Add(Expr{
		Kind:  ExprInfix,
		Pos:   op.Pos(),
		Op:    op.Kind,
		Left:  left,
		Right: right,
	})
}

func (p *Parser) parseCall(callee ExpRef) ExpRef {
	args := []ExpRef{}
	p.parseList(func() {
		args = append(args, p.parse(PrioNone))
	})
	return p.store.Add(Expr{Kind: ExprCall, Pos: p.store.Get(callee).Pos, Callee: callee, Args: args})
}

func (p *Parser) parsePrimary() ExpRef {
	tok := p.cur

	switch tok.Kind {
	case MINUS:
		p.shift()
		right := p.parse(PrioPrefix)
		return p.store.Add(Expr{Kind: ExprPrefix, Pos: tok.Pos(), Op: MINUS, Right: right})

	case PLUS:
		p.shift()
		return p.parse(PrioPrefix)

	case INT:
		n, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			bailout(errorAt(tok.Pos(), SyntaxError, "integer literal %s out of range", tok.Text))
		}
		p.shift()
		return p.store.Add(Expr{Kind: ExprInteger, Pos: tok.Pos(), Int: n})

	case STRING:
		p.shift()
		return p.store.Add(Expr{Kind: ExprString, Pos: tok.Pos(), Str: tok.Text})

	case IDENT:
		p.shift()
		return p.store.Add(Expr{
			Kind: ExprIdent,
			Pos:  tok.Pos(),
			Name: tok.Text,
			Type: p.declaredType(tok.Text),
		})

	case LPAREN:
		p.shift()
		expr := p.parse(PrioNone)
		p.expect(RPAREN)
		return expr
	}

	p.unexpected("expression")
	return ExpRef{}
}
