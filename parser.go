package minilux

import (
	"fmt"
)

// Parser consumes the token stream and produces the program tree.
// Hand-written recursive descent; one function per precedence level.
// Newlines and ";" terminate statements, and either is optional before
// a closing "}". Comment tokens are trivia and are filtered before
// parsing starts.
type Parser struct {
	tokens []Token
	pos    int
}

// ----- errors -----

type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("PARSE ERROR at %d:%d: %s", e.Line, e.Col, e.Msg)
}

func (p *Parser) errAt(tok Token, format string, args ...interface{}) error {
	return &ParseError{Line: tok.Line, Col: tok.Col, Msg: fmt.Sprintf(format, args...)}
}

// ----- token cursor -----

func (p *Parser) cur() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() Token {
	t := p.cur()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return t
}

func (p *Parser) check(tt TokenType) bool { return p.cur().Type == tt }

func (p *Parser) accept(tt TokenType) bool {
	if p.check(tt) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(tt TokenType, what string) (Token, error) {
	if p.check(tt) {
		return p.advance(), nil
	}
	t := p.cur()
	return Token{}, p.errAt(t, "expected %s, found %q", what, describeToken(t))
}

func describeToken(t Token) string {
	switch t.Type {
	case EOF:
		return "end of input"
	case NEWLINE:
		return "end of line"
	default:
		return t.Lexeme
	}
}

func (p *Parser) skipNewlines() {
	for p.check(NEWLINE) {
		p.advance()
	}
}

// endOfStatement enforces a statement terminator: an optional ";",
// then a newline, end of input, or a closing brace (left for the block
// parser to consume).
func (p *Parser) endOfStatement() error {
	if p.accept(SEMI) {
		// The next statement may follow on the same line.
		return nil
	}
	switch p.cur().Type {
	case NEWLINE, EOF, RBRACE:
		return nil
	}
	return p.errAt(p.cur(), "expected end of statement, found %q", describeToken(p.cur()))
}

// ----- entry points -----

// ParseProgram lexes and parses a whole source file into its top-level
// statement list. Lex and parse errors are fatal.
func ParseProgram(src string) ([]Stmt, error) {
	toks, err := NewLexer(src).Scan()
	if err != nil {
		return nil, err
	}
	code := make([]Token, 0, len(toks))
	for _, t := range toks {
		if t.Type == COMMENT {
			continue
		}
		code = append(code, t)
	}
	p := &Parser{tokens: code}
	return p.parseProgram()
}

func (p *Parser) parseProgram() ([]Stmt, error) {
	var stmts []Stmt
	p.skipNewlines()
	for !p.check(EOF) {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
		p.skipNewlines()
	}
	return stmts, nil
}

// ----- statements -----

func (p *Parser) parseStatement() (Stmt, error) {
	switch p.cur().Type {
	case IF:
		return p.parseIf()
	case WHILE:
		return p.parseWhile()
	case FUNC:
		return p.parseFuncDef()
	case RETURN:
		return p.parseReturn()
	case INCLUDE:
		return p.parseInclude()
	case INC:
		return p.parseIncDec(false)
	case DEC:
		return p.parseIncDec(true)
	case PUSH:
		return p.parsePush()
	case POP:
		return p.parsePopShift(false)
	case SHIFT:
		return p.parsePopShift(true)
	case UNSHIFT:
		return p.parseUnshift()
	case VARIABLE:
		return p.parseAssignment()
	case IDENT:
		switch p.cur().Lexeme {
		case "sockopen":
			return p.parseSockOpen()
		case "sockwrite":
			return p.parseSockWrite()
		case "sockread":
			return p.parseSockRead()
		case "sockclose":
			return p.parseSockClose()
		}
		return p.parseCallStatement()
	}
	return nil, p.errAt(p.cur(), "unexpected %q at start of statement", describeToken(p.cur()))
}

func (p *Parser) parseCondBlock(kw string) (Expr, []Stmt, error) {
	if _, err := p.expect(LPAREN, fmt.Sprintf("'(' after %q", kw)); err != nil {
		return nil, nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, nil, err
	}
	if _, err := p.expect(RPAREN, "')' after condition"); err != nil {
		return nil, nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, nil, err
	}
	return cond, body, nil
}

func (p *Parser) parseIf() (Stmt, error) {
	p.advance() // "if"
	cond, then, err := p.parseCondBlock("if")
	if err != nil {
		return nil, err
	}
	st := &IfStmt{Cond: cond, Then: then}

	p.skipNewlines()
	for p.check(ELSEIF) {
		p.advance()
		c, b, err := p.parseCondBlock("elseif")
		if err != nil {
			return nil, err
		}
		st.Elseifs = append(st.Elseifs, ElseifClause{Cond: c, Body: b})
		p.skipNewlines()
	}
	if p.check(ELSE) {
		p.advance()
		b, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		st.Else = b
	}
	return st, nil
}

func (p *Parser) parseWhile() (Stmt, error) {
	p.advance() // "while"
	cond, body, err := p.parseCondBlock("while")
	if err != nil {
		return nil, err
	}
	return &WhileStmt{Cond: cond, Body: body}, nil
}

func (p *Parser) parseBlock() ([]Stmt, error) {
	if _, err := p.expect(LBRACE, "'{'"); err != nil {
		return nil, err
	}
	stmts := []Stmt{}
	p.skipNewlines()
	for !p.check(RBRACE) {
		if p.check(EOF) {
			return nil, p.errAt(p.cur(), "expected '}' before end of input")
		}
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
		p.skipNewlines()
	}
	p.advance() // "}"
	return stmts, nil
}

func (p *Parser) parseFuncDef() (Stmt, error) {
	p.advance() // "func" / "function"
	name, err := p.expect(IDENT, "function name")
	if err != nil {
		return nil, err
	}
	// Tolerate an empty parameter list; there is no parameter binding.
	if p.accept(LPAREN) {
		if _, err := p.expect(RPAREN, "')' (functions take no parameters)"); err != nil {
			return nil, err
		}
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &FuncDefStmt{Name: name.Lexeme, Body: body}, nil
}

func (p *Parser) parseReturn() (Stmt, error) {
	tok := p.advance() // "return"
	st := &ReturnStmt{Line: tok.Line}
	switch p.cur().Type {
	case SEMI, NEWLINE, EOF, RBRACE:
	default:
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		st.Value = v
	}
	if err := p.endOfStatement(); err != nil {
		return nil, err
	}
	return st, nil
}

func (p *Parser) parseInclude() (Stmt, error) {
	tok := p.advance() // "include"
	path := p.cur()
	if path.Type != STRING && path.Type != RAWSTRING {
		return nil, p.errAt(path, "include expects a string literal path")
	}
	p.advance()
	if err := p.endOfStatement(); err != nil {
		return nil, err
	}
	return &IncludeStmt{Path: path.Literal.(string), Line: tok.Line}, nil
}

func (p *Parser) parseIncDec(dec bool) (Stmt, error) {
	kw := p.advance() // "inc" / "dec"
	name, err := p.expect(VARIABLE, "variable after '"+kw.Lexeme+"'")
	if err != nil {
		return nil, err
	}
	// Only "inc ... +" and "dec ... -" pair up; the opposite operator is
	// rejected with a hint.
	if dec {
		if p.check(PLUS) {
			return nil, p.errAt(p.cur(), "dec pairs with '-'; use inc to add")
		}
		if _, err := p.expect(MINUS, "'-' after variable"); err != nil {
			return nil, err
		}
	} else {
		if p.check(MINUS) {
			return nil, p.errAt(p.cur(), "inc pairs with '+'; use dec to subtract")
		}
		if _, err := p.expect(PLUS, "'+' after variable"); err != nil {
			return nil, err
		}
	}
	v, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.endOfStatement(); err != nil {
		return nil, err
	}
	return &IncDecStmt{Name: name.Lexeme, Value: v, Dec: dec, Line: kw.Line}, nil
}

func (p *Parser) parsePush() (Stmt, error) {
	kw := p.advance() // "push"
	name, err := p.expect(VARIABLE, "array variable after 'push'")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "',' after array variable"); err != nil {
		return nil, err
	}
	v, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.endOfStatement(); err != nil {
		return nil, err
	}
	return &PushStmt{Array: name.Lexeme, Value: v, Line: kw.Line}, nil
}

func (p *Parser) parseUnshift() (Stmt, error) {
	kw := p.advance() // "unshift"
	name, err := p.expect(VARIABLE, "array variable after 'unshift'")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "',' after array variable"); err != nil {
		return nil, err
	}
	v, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.endOfStatement(); err != nil {
		return nil, err
	}
	return &UnshiftStmt{Array: name.Lexeme, Value: v, Line: kw.Line}, nil
}

func (p *Parser) parsePopShift(shift bool) (Stmt, error) {
	kw := p.advance() // "pop" / "shift"
	name, err := p.expect(VARIABLE, "array variable after '"+kw.Lexeme+"'")
	if err != nil {
		return nil, err
	}
	if err := p.endOfStatement(); err != nil {
		return nil, err
	}
	if shift {
		return &ShiftStmt{Array: name.Lexeme, Line: kw.Line}, nil
	}
	return &PopStmt{Array: name.Lexeme, Line: kw.Line}, nil
}

func (p *Parser) parseAssignment() (Stmt, error) {
	name := p.advance() // variable
	if p.accept(LBRACKET) {
		idx, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RBRACKET, "']' after index"); err != nil {
			return nil, err
		}
		if _, err := p.expect(ASSIGN, "'=' after indexed variable"); err != nil {
			return nil, err
		}
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.endOfStatement(); err != nil {
			return nil, err
		}
		return &IndexAssignStmt{Name: name.Lexeme, Index: idx, Value: v, Line: name.Line}, nil
	}
	if _, err := p.expect(ASSIGN, "'=' after variable"); err != nil {
		return nil, err
	}
	v, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.endOfStatement(); err != nil {
		return nil, err
	}
	return &AssignStmt{Name: name.Lexeme, Value: v, Line: name.Line}, nil
}

func (p *Parser) parseCallStatement() (Stmt, error) {
	name := p.advance() // identifier
	st := &CallStmt{Name: name.Lexeme, Line: name.Line}
	if p.accept(LPAREN) {
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		st.Args = args
	}
	if err := p.endOfStatement(); err != nil {
		return nil, err
	}
	return st, nil
}

// parseArgs parses a comma-separated expression list up to the closing
// ")". The opening "(" has been consumed.
func (p *Parser) parseArgs() ([]Expr, error) {
	var args []Expr
	if p.accept(RPAREN) {
		return args, nil
	}
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if p.accept(COMMA) {
			continue
		}
		if _, err := p.expect(RPAREN, "')' after arguments"); err != nil {
			return nil, err
		}
		return args, nil
	}
}

// ----- socket statements -----

func (p *Parser) sockHeader(kw string) (Token, Token, error) {
	open := p.advance() // the identifier itself
	if _, err := p.expect(LPAREN, "'(' after '"+kw+"'"); err != nil {
		return Token{}, Token{}, err
	}
	name := p.cur()
	if name.Type != STRING && name.Type != RAWSTRING {
		return Token{}, Token{}, p.errAt(name, "%s expects a string socket name", kw)
	}
	p.advance()
	return open, name, nil
}

func (p *Parser) parseSockOpen() (Stmt, error) {
	open, name, err := p.sockHeader("sockopen")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "',' after socket name"); err != nil {
		return nil, err
	}
	host, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "',' after host"); err != nil {
		return nil, err
	}
	port, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')' after port"); err != nil {
		return nil, err
	}
	if err := p.endOfStatement(); err != nil {
		return nil, err
	}
	return &SockOpenStmt{Name: name.Literal.(string), Host: host, Port: port, Line: open.Line}, nil
}

func (p *Parser) parseSockWrite() (Stmt, error) {
	open, name, err := p.sockHeader("sockwrite")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "',' after socket name"); err != nil {
		return nil, err
	}
	data, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')' after data"); err != nil {
		return nil, err
	}
	if err := p.endOfStatement(); err != nil {
		return nil, err
	}
	return &SockWriteStmt{Name: name.Literal.(string), Data: data, Line: open.Line}, nil
}

func (p *Parser) parseSockRead() (Stmt, error) {
	open, name, err := p.sockHeader("sockread")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "',' after socket name"); err != nil {
		return nil, err
	}
	v, err := p.expect(VARIABLE, "variable to read into")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')' after variable"); err != nil {
		return nil, err
	}
	if err := p.endOfStatement(); err != nil {
		return nil, err
	}
	return &SockReadStmt{Name: name.Literal.(string), Var: v.Lexeme, Line: open.Line}, nil
}

func (p *Parser) parseSockClose() (Stmt, error) {
	open, name, err := p.sockHeader("sockclose")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')' after socket name"); err != nil {
		return nil, err
	}
	if err := p.endOfStatement(); err != nil {
		return nil, err
	}
	return &SockCloseStmt{Name: name.Literal.(string), Line: open.Line}, nil
}

// ----- expressions -----

func (p *Parser) parseExpr() (Expr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.check(OR) {
		op := p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: OR, Left: left, Right: right, Line: op.Line}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.check(AND) {
		op := p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: AND, Left: left, Right: right, Line: op.Line}
	}
	return left, nil
}

func (p *Parser) parseEquality() (Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.check(EQ) || p.check(NEQ) {
		op := p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op.Type, Left: left, Right: right, Line: op.Line}
	}
	return left, nil
}

func (p *Parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.check(LESS) || p.check(LESS_EQ) || p.check(GREATER) || p.check(GREATER_EQ) {
		op := p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op.Type, Left: left, Right: right, Line: op.Line}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.check(PLUS) || p.check(MINUS) {
		op := p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op.Type, Left: left, Right: right, Line: op.Line}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.check(STAR) || p.check(SLASH) || p.check(PERCENT) {
		op := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op.Type, Left: left, Right: right, Line: op.Line}
	}
	return left, nil
}

func (p *Parser) parseUnary() (Expr, error) {
	switch p.cur().Type {
	case BANG:
		p.advance()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: BANG, Operand: e}, nil
	case MINUS:
		p.advance()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: MINUS, Operand: e}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.check(LBRACKET) {
		open := p.advance()
		idx, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RBRACKET, "']' after index"); err != nil {
			return nil, err
		}
		e = &IndexExpr{Target: e, Index: idx, Line: open.Line}
	}
	return e, nil
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.cur()
	switch tok.Type {
	case INT:
		p.advance()
		return &IntLit{Value: tok.Literal.(int64)}, nil
	case STRING:
		p.advance()
		return &StrLit{Value: tok.Literal.(string), Interp: true}, nil
	case RAWSTRING:
		p.advance()
		return &StrLit{Value: tok.Literal.(string)}, nil
	case VARIABLE:
		p.advance()
		return &VarExpr{Name: tok.Lexeme, Line: tok.Line}, nil
	case IDENT:
		p.advance()
		call := &CallExpr{Name: tok.Lexeme, Line: tok.Line}
		if p.accept(LPAREN) {
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			call.Args = args
		}
		return call, nil
	case LPAREN:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN, "')'"); err != nil {
			return nil, err
		}
		return e, nil
	case LBRACKET:
		p.advance()
		lit := &ArrayLit{}
		if p.accept(RBRACKET) {
			return lit, nil
		}
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			lit.Elems = append(lit.Elems, e)
			if p.accept(COMMA) {
				continue
			}
			if _, err := p.expect(RBRACKET, "']' after array elements"); err != nil {
				return nil, err
			}
			return lit, nil
		}
	}
	return nil, p.errAt(tok, "unexpected %q in expression", describeToken(tok))
}
