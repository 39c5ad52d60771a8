// Package parser builds an AST from a token stream using recursive
// descent for declarations and statements and a Pratt (top-down
// operator precedence) parser for expressions. Errors are accumulated
// rather than raised; on any error the parser resyncs to the next
// statement/declaration boundary and keeps going, so one bad line
// never hides the rest of the file's diagnostics.
package parser

import (
	"strconv"

	"github.com/ajalt/eece6083-compiler/internal/ast"
	"github.com/ajalt/eece6083-compiler/internal/diagnostics"
	"github.com/ajalt/eece6083-compiler/internal/pipeline"
	"github.com/ajalt/eece6083-compiler/internal/token"
)

// Parser holds the state of one parse.
type Parser struct {
	stream pipeline.TokenStream
	cur    token.Token
	next   token.Token
	errs   diagnostics.Bag

	prefixParseFns map[token.Kind]prefixParseFn
	infixParseFns  map[token.Kind]infixParseFn
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// New returns a Parser primed with the first two tokens of stream.
func New(stream pipeline.TokenStream) *Parser {
	p := &Parser{stream: stream}
	p.registerExpressionFns()
	p.advance()
	p.advance()
	return p
}

// Process implements pipeline.Processor: it parses ctx's token stream
// into ctx.Program and records any diagnostics.
func (p *Parser) Process(ctx *pipeline.Context) *pipeline.Context {
	prog := p.ParseProgram()
	ctx.Program = prog
	for _, d := range p.errs.Items() {
		ctx.Diagnostics.Add(d)
	}
	return ctx
}

// ParseProgram parses one complete `program ... end program` unit.
func (p *Parser) ParseProgram() *ast.Program {
	tok := p.cur
	p.expect(token.PROGRAM)
	name := p.parseNameIdent()
	p.expect(token.IS)
	decls := p.parseDecls()
	p.expect(token.BEGIN)
	body := p.parseStmts()
	p.expect(token.END)
	p.expect(token.PROGRAM)
	return &ast.Program{Tok: tok, Name: name, Decls: decls, Body: body}
}

func (p *Parser) advance() {
	p.cur = p.next
	p.next = p.stream.Next()
}

func (p *Parser) errorf(tok token.Token, code diagnostics.Code, args ...interface{}) {
	p.errs.Add(diagnostics.New(diagnostics.PhaseParser, code, tok, args...))
}

// expect consumes cur if it matches k, else records a diagnostic and
// leaves cur in place so the caller's resync point can take over.
func (p *Parser) expect(k token.Kind) token.Token {
	tok := p.cur
	if p.cur.Kind != k {
		p.errorf(tok, diagnostics.ErrUnexpectedToken, k, p.cur.Kind)
		return tok
	}
	p.advance()
	return tok
}

// resync advances past tokens until a semicolon (consumed) or EOF, the
// follow-set boundary for both decls and stmts.
func (p *Parser) resync() {
	for p.cur.Kind != token.SEMICOLON && !p.cur.IsEOF() {
		p.advance()
	}
	if p.cur.Kind == token.SEMICOLON {
		p.advance()
	}
}

func (p *Parser) parseNameIdent() *ast.Name {
	tok := p.cur
	if p.cur.Kind != token.IDENTIFIER {
		p.errorf(tok, diagnostics.ErrUnexpectedToken, token.IDENTIFIER, p.cur.Kind)
		return &ast.Name{Tok: tok, Value: ""}
	}
	p.advance()
	return &ast.Name{Tok: tok, Value: tok.Lexeme}
}

// --- decls ---

func (p *Parser) declStarts() bool {
	return p.cur.Kind == token.GLOBAL || token.TypeKeywords[p.cur.Kind] || p.cur.Kind == token.PROCEDURE
}

func (p *Parser) parseDecls() []ast.Declaration {
	var decls []ast.Declaration
	for p.declStarts() {
		before := len(p.errs.Items())
		d := p.parseDecl()
		p.expect(token.SEMICOLON)
		if len(p.errs.Items()) > before {
			p.resync()
			continue
		}
		decls = append(decls, d)
	}
	return decls
}

func (p *Parser) parseDecl() ast.Declaration {
	isGlobal := false
	if p.cur.Kind == token.GLOBAL {
		isGlobal = true
		p.advance()
	}
	if p.cur.Kind == token.PROCEDURE {
		return p.parseProcDecl(isGlobal)
	}
	return p.parseVarDecl(isGlobal)
}

func (p *Parser) parseVarDecl(isGlobal bool) *ast.VarDecl {
	tok := p.cur
	typeKind := p.cur.Kind
	if !token.TypeKeywords[typeKind] {
		p.errorf(tok, diagnostics.ErrUnexpectedToken, "a type keyword", typeKind)
	}
	p.advance()
	name := p.parseNameIdent()

	var arrayLength *int
	if p.cur.Kind == token.LBRACKET {
		p.advance()
		if p.cur.Kind == token.NUMBER {
			n, err := strconv.Atoi(p.cur.Lexeme)
			if err != nil || n <= 0 {
				p.errorf(p.cur, diagnostics.ErrBadNumber, p.cur.Lexeme)
			} else {
				arrayLength = &n
			}
			p.advance()
		} else {
			p.errorf(p.cur, diagnostics.ErrUnexpectedToken, token.NUMBER, p.cur.Kind)
		}
		p.expect(token.RBRACKET)
	}
	return &ast.VarDecl{Tok: tok, IsGlobal: isGlobal, Type: typeKind, Name: name, ArrayLength: arrayLength}
}

func (p *Parser) parseProcDecl(isGlobal bool) *ast.ProcDecl {
	tok := p.cur
	p.advance() // 'procedure'
	name := p.parseNameIdent()
	p.expect(token.LPAREN)

	var params []*ast.Param
	if p.cur.Kind != token.RPAREN {
		params = append(params, p.parseParam())
		for p.cur.Kind == token.COMMA {
			p.advance()
			params = append(params, p.parseParam())
		}
	}
	p.expect(token.RPAREN)

	decls := p.parseDecls()
	p.expect(token.BEGIN)
	body := p.parseStmts()
	p.expect(token.END)
	p.expect(token.PROCEDURE)
	return &ast.ProcDecl{Tok: tok, IsGlobal: isGlobal, Name: name, Params: params, Decls: decls, Body: body}
}

func (p *Parser) parseParam() *ast.Param {
	tok := p.cur
	vd := p.parseVarDecl(false)
	dir := ast.DirIn
	switch p.cur.Kind {
	case token.IN:
		p.advance()
	case token.OUT:
		dir = ast.DirOut
		p.advance()
	default:
		p.errorf(p.cur, diagnostics.ErrUnexpectedToken, "'in' or 'out'", p.cur.Kind)
	}
	return &ast.Param{Tok: tok, VarDecl: vd, Direction: dir}
}

// --- stmts ---

func (p *Parser) stmtStarts() bool {
	switch p.cur.Kind {
	case token.IDENTIFIER, token.IF, token.FOR, token.RETURN:
		return true
	}
	return false
}

func (p *Parser) parseStmts() []ast.Statement {
	var stmts []ast.Statement
	for p.stmtStarts() {
		before := len(p.errs.Items())
		s := p.parseStmt()
		p.expect(token.SEMICOLON)
		if len(p.errs.Items()) > before {
			p.resync()
			continue
		}
		if s != nil {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

func (p *Parser) parseStmt() ast.Statement {
	switch p.cur.Kind {
	case token.IDENTIFIER:
		return p.parseAssignOrCall()
	case token.IF:
		return p.parseIf()
	case token.FOR:
		return p.parseFor()
	case token.RETURN:
		tok := p.cur
		p.advance()
		return &ast.Return{Tok: tok}
	default:
		p.errorf(p.cur, diagnostics.ErrUnexpectedToken, "a statement", p.cur.Kind)
		return nil
	}
}

func (p *Parser) parseAssignOrCall() ast.Statement {
	nameTok := p.cur
	name := &ast.Name{Tok: nameTok, Value: nameTok.Lexeme}
	p.advance()

	if p.cur.Kind == token.LPAREN {
		return p.parseCallTail(name)
	}

	var target ast.Expression = name
	if p.cur.Kind == token.LBRACKET {
		target = p.parseSubscript(name)
	}
	tok := p.cur
	p.expect(token.ASSIGN)
	value := p.parseExpression(precNone)
	return &ast.Assign{Tok: tok, Target: target, Value: value}
}

func (p *Parser) parseCallTail(name *ast.Name) *ast.Call {
	tok := p.cur // '('
	p.advance()
	var args []ast.Expression
	if p.cur.Kind != token.RPAREN {
		args = append(args, p.parseExpression(precNone))
		for p.cur.Kind == token.COMMA {
			p.advance()
			args = append(args, p.parseExpression(precNone))
		}
	}
	p.expect(token.RPAREN)
	return &ast.Call{Tok: tok, FuncName: name, Args: args}
}

func (p *Parser) parseIf() *ast.If {
	tok := p.cur
	p.advance()
	p.expect(token.LPAREN)
	test := p.parseExpression(precNone)
	p.expect(token.RPAREN)
	p.expect(token.THEN)
	body := p.parseStmts()
	if len(body) == 0 {
		p.errorf(tok, diagnostics.ErrUnexpectedToken, "at least one statement in 'then'", p.cur.Kind)
	}
	var orelse []ast.Statement
	if p.cur.Kind == token.ELSE {
		p.advance()
		orelse = p.parseStmts()
		if len(orelse) == 0 {
			p.errorf(tok, diagnostics.ErrUnexpectedToken, "at least one statement in 'else'", p.cur.Kind)
		}
	}
	p.expect(token.END)
	p.expect(token.IF)
	return &ast.If{Tok: tok, Test: test, Body: body, Orelse: orelse}
}

func (p *Parser) parseFor() *ast.For {
	tok := p.cur
	p.advance()
	p.expect(token.LPAREN)

	var assign *ast.Assign
	if p.cur.Kind == token.IDENTIFIER {
		if a, ok := p.parseAssignOrCall().(*ast.Assign); ok {
			assign = a
		} else {
			p.errorf(tok, diagnostics.ErrUnexpectedToken, "an assignment", p.cur.Kind)
		}
	} else {
		p.errorf(p.cur, diagnostics.ErrUnexpectedToken, token.IDENTIFIER, p.cur.Kind)
	}
	p.expect(token.SEMICOLON)
	test := p.parseExpression(precNone)
	p.expect(token.RPAREN)
	body := p.parseStmts()
	p.expect(token.END)
	p.expect(token.FOR)
	return &ast.For{Tok: tok, Assignment: assign, Test: test, Body: body}
}

// Errors reports the diagnostics accumulated across the whole parse.
func (p *Parser) Errors() *diagnostics.Bag { return &p.errs }
