package parser

import (
	"github.com/ajalt/eece6083-compiler/internal/ast"
	"github.com/ajalt/eece6083-compiler/internal/diagnostics"
	"github.com/ajalt/eece6083-compiler/internal/token"
)

// Precedence levels, low to high, per §4.2.
const (
	precNone        = 0
	precOrAnd       = 1
	precAddSub      = 2
	precCompare     = 3
	precMulDiv      = 4
	precGroupSubscr = 5
	precUnaryMinus  = 7
)

var infixPrecedences = map[token.Kind]int{
	token.OR:       precOrAnd,
	token.AND:      precOrAnd,
	token.PLUS:     precAddSub,
	token.MINUS:    precAddSub,
	token.LT:       precCompare,
	token.LTE:      precCompare,
	token.GT:       precCompare,
	token.GTE:      precCompare,
	token.EQ:       precCompare,
	token.NOT_EQ:   precCompare,
	token.STAR:     precMulDiv,
	token.SLASH:    precMulDiv,
	token.LBRACKET: precGroupSubscr,
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := infixPrecedences[p.cur.Kind]; ok {
		return prec
	}
	return precNone
}

// registerExpressionFns wires up the prefix/infix tables, following
// the registerPrefix/registerInfix convention: each token kind that
// can start or continue an expression gets one parse function.
func (p *Parser) registerExpressionFns() {
	p.prefixParseFns = map[token.Kind]prefixParseFn{
		token.NUMBER:     p.parseNumberLiteral,
		token.STRING:     p.parseStringLiteral,
		token.TRUE:       p.parseBooleanLiteral,
		token.FALSE:      p.parseBooleanLiteral,
		token.IDENTIFIER: p.parseNameLiteral,
		token.NOT:        p.parseNotExpression,
		token.MINUS:      p.parseUnaryMinus,
		token.LPAREN:     p.parseGroupedExpression,
	}
	p.infixParseFns = map[token.Kind]infixParseFn{
		token.OR:       p.parseBinaryOp,
		token.AND:      p.parseBinaryOp,
		token.PLUS:     p.parseBinaryOp,
		token.MINUS:    p.parseBinaryOp,
		token.LT:       p.parseBinaryOp,
		token.LTE:      p.parseBinaryOp,
		token.GT:       p.parseBinaryOp,
		token.GTE:      p.parseBinaryOp,
		token.EQ:       p.parseBinaryOp,
		token.NOT_EQ:   p.parseBinaryOp,
		token.STAR:     p.parseBinaryOp,
		token.SLASH:    p.parseBinaryOp,
		token.LBRACKET: p.parseSubscriptTail,
	}
}

// parseExpression is the Pratt core loop: read a prefix term, then
// keep folding in infix operators whose precedence exceeds minPrec.
func (p *Parser) parseExpression(minPrec int) ast.Expression {
	prefix, ok := p.prefixParseFns[p.cur.Kind]
	if !ok {
		p.errorf(p.cur, diagnostics.ErrUnexpectedToken, "an expression", p.cur.Kind)
		tok := p.cur
		p.advance()
		return &ast.Num{Tok: tok, Lexeme: "0"}
	}
	left := prefix()

	for p.peekPrecedence() > minPrec {
		infix, ok := p.infixParseFns[p.cur.Kind]
		if !ok {
			break
		}
		left = infix(left)
	}
	return left
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	tok := p.cur
	p.advance()
	return &ast.Num{Tok: tok, Lexeme: tok.Lexeme}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	tok := p.cur
	p.advance()
	return &ast.Str{Tok: tok, Lexeme: tok.Lexeme}
}

func (p *Parser) parseBooleanLiteral() ast.Expression {
	tok := p.cur
	p.advance()
	return &ast.Bool{Tok: tok, Value: tok.Kind == token.TRUE}
}

func (p *Parser) parseNameLiteral() ast.Expression {
	tok := p.cur
	p.advance()
	return &ast.Name{Tok: tok, Value: tok.Lexeme}
}

func (p *Parser) parseNotExpression() ast.Expression {
	tok := p.cur
	p.advance()
	operand := p.parseExpression(precOrAnd)
	return &ast.UnaryOp{Tok: tok, Op: token.NOT, Operand: operand}
}

func (p *Parser) parseUnaryMinus() ast.Expression {
	tok := p.cur
	p.advance()
	operand := p.parseExpression(precUnaryMinus)
	return &ast.UnaryOp{Tok: tok, Op: token.MINUS, Operand: operand}
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.advance() // '('
	inner := p.parseExpression(precNone)
	p.expect(token.RPAREN)
	return inner
}

func (p *Parser) parseBinaryOp(left ast.Expression) ast.Expression {
	tok := p.cur
	prec := p.peekPrecedence()
	p.advance()
	right := p.parseExpression(prec)
	return &ast.BinaryOp{Tok: tok, Op: tok.Kind, Left: left, Right: right}
}

// parseSubscript is shared by the Pratt infix slot and by the
// assignment-target path in parser.go, both with cur positioned at '['.
// The assignment path always passes a *ast.Name; from the Pratt slot
// left can be any expression, and a non-Name one is reported as
// ErrBadSubscript.
func (p *Parser) parseSubscript(left ast.Expression) ast.Expression {
	tok := p.cur // '['
	name, ok := left.(*ast.Name)
	if !ok {
		p.errorf(tok, diagnostics.ErrBadSubscript)
	}
	p.advance()
	index := p.parseExpression(precNone)
	p.expect(token.RBRACKET)
	if !ok {
		return left
	}
	return &ast.Subscript{Tok: tok, Name: name, Index: index}
}

func (p *Parser) parseSubscriptTail(left ast.Expression) ast.Expression {
	return p.parseSubscript(left)
}
