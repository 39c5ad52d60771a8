package optimizer

import (
	"fmt"

	"github.com/ajalt/eece6083-compiler/internal/ast"
	"github.com/ajalt/eece6083-compiler/internal/symbols"
)

// propagator is Level 2's constant-propagation half. It tracks the
// last known literal value of every variable, keyed by the Symbol the
// checker resolved it to, not by name, so two different procedures'
// same-named locals never collide.
//
// Assignments inside an if/for body don't get recorded, only
// invalidated: the branch might not run, or might run more than once,
// so the value afterward isn't known statically. A call's out
// arguments are invalidated unconditionally, since the callee may
// assign them regardless of where the call sits.
type propagator struct {
	resolved map[*ast.Name]*symbols.Symbol
	values   map[*symbols.Symbol]ast.Expression // nil value = known non-constant
	branch   int

	changed      bool
	uninitWarned bool
	Warning      string // first uninitialized-read warning, if any
}

func newPropagator(resolved map[*ast.Name]*symbols.Symbol) *propagator {
	return &propagator{resolved: resolved, values: make(map[*symbols.Symbol]ast.Expression)}
}

func (p *propagator) symbolFor(n *ast.Name) *symbols.Symbol {
	if n == nil {
		return nil
	}
	return p.resolved[n]
}

func isLiteral(e ast.Expression) bool {
	switch e.(type) {
	case *ast.Num, *ast.Str:
		return true
	}
	return false
}

// run applies propagation once across the whole program, mutating the
// tree in place, and reports whether anything changed.
func (p *propagator) run(prog *ast.Program) bool {
	p.visitDeclsBody(prog.Decls)
	prog.Body = p.visitStmts(prog.Body)
	return p.changed
}

func (p *propagator) visitDeclsBody(decls []ast.Declaration) {
	for _, d := range decls {
		if pd, ok := d.(*ast.ProcDecl); ok {
			p.visitDeclsBody(pd.Decls)
			pd.Body = p.visitStmts(pd.Body)
		}
	}
}

func (p *propagator) visitStmts(stmts []ast.Statement) []ast.Statement {
	for _, s := range stmts {
		p.visitStmt(s)
	}
	return stmts
}

func (p *propagator) visitStmt(s ast.Statement) {
	switch n := s.(type) {
	case *ast.Assign:
		p.visitAssign(n)
	case *ast.If:
		test, c := p.resolveExpr(n.Test)
		n.Test = test
		if c {
			p.changed = true
		}
		p.branch++
		p.visitStmts(n.Body)
		p.visitStmts(n.Orelse)
		p.branch--
	case *ast.For:
		if n.Assignment != nil {
			p.visitAssign(n.Assignment)
		}
		p.branch++
		test, c := p.resolveExpr(n.Test)
		n.Test = test
		if c {
			p.changed = true
		}
		p.visitStmts(n.Body)
		p.branch--
	case *ast.Call:
		if _, c := p.visitCallExpr(n); c {
			p.changed = true
		}
	}
}

func (p *propagator) visitAssign(a *ast.Assign) {
	val, c := p.resolveExpr(a.Value)
	a.Value = val
	if c {
		p.changed = true
	}

	switch target := a.Target.(type) {
	case *ast.Name:
		sym := p.symbolFor(target)
		if sym == nil {
			return
		}
		switch {
		case p.branch > 0:
			p.values[sym] = nil
		case isLiteral(a.Value):
			p.values[sym] = a.Value
		default:
			p.values[sym] = nil
		}
	case *ast.Subscript:
		idx, c2 := p.resolveExpr(target.Index)
		target.Index = idx
		if c2 {
			p.changed = true
		}
	}
}

// resolveExpr substitutes known-constant Name reads and folds any
// BinaryOp/UnaryOp that becomes literal as a result, bottom-up just
// like Level 1.
func (p *propagator) resolveExpr(e ast.Expression) (ast.Expression, bool) {
	switch n := e.(type) {
	case *ast.Name:
		sym := p.symbolFor(n)
		if sym == nil {
			return n, false
		}
		val, ok := p.values[sym]
		if !ok {
			if !p.uninitWarned {
				p.uninitWarned = true
				p.Warning = fmt.Sprintf("'%s' is read before any assignment reaches it", sym.Name)
			}
			return n, false
		}
		if val == nil {
			return n, false
		}
		return cloneLiteralNode(val, n), true
	case *ast.BinaryOp:
		left, lc := p.resolveExpr(n.Left)
		right, rc := p.resolveExpr(n.Right)
		n.Left, n.Right = left, right
		changed := lc || rc
		if folded, ok := foldBinary(n); ok {
			return folded, true
		}
		return n, changed
	case *ast.UnaryOp:
		operand, c := p.resolveExpr(n.Operand)
		n.Operand = operand
		if folded, ok := foldUnary(n); ok {
			return folded, true
		}
		return n, c
	case *ast.Subscript:
		idx, c := p.resolveExpr(n.Index)
		n.Index = idx
		return n, c
	case *ast.Call:
		return p.visitCallExpr(n)
	default:
		return e, false
	}
}

// cloneLiteralNode builds a fresh literal node carrying use's token, so
// diagnostics that later point at it still point at the use site, not
// the original assignment.
func cloneLiteralNode(val ast.Expression, use *ast.Name) ast.Expression {
	switch v := val.(type) {
	case *ast.Num:
		return &ast.Num{Tok: use.Tok, Lexeme: v.Lexeme, NodeType: v.NodeType}
	case *ast.Str:
		return &ast.Str{Tok: use.Tok, Lexeme: v.Lexeme, NodeType: v.NodeType}
	}
	return val
}

// visitCallExpr resolves each argument, except an out-direction one:
// that position is written by reference by the callee, so it must
// never be constant-substituted (which would silently drop the
// write-back) and its variable is invalidated directly instead of
// being read through resolveExpr.
func (p *propagator) visitCallExpr(call *ast.Call) (ast.Expression, bool) {
	changed := false
	var params []*ast.Param
	if procSym := p.symbolFor(call.FuncName); procSym != nil && procSym.ProcDecl != nil {
		params = procSym.ProcDecl.Params
	}
	for i, a := range call.Args {
		if i < len(params) && params[i].Direction == ast.DirOut {
			if name, ok := a.(*ast.Name); ok {
				if argSym := p.symbolFor(name); argSym != nil {
					p.values[argSym] = nil
				}
			}
			continue
		}
		v, c := p.resolveExpr(a)
		call.Args[i] = v
		if c {
			changed = true
		}
	}
	return call, changed
}
