// Package optimizer implements the two-level AST optimizer: Level 1
// constant folding, and Level 2 constant propagation plus dead-code
// elimination, the latter two run together to a fixed point.
package optimizer

import (
	"strconv"
	"strings"

	"github.com/ajalt/eece6083-compiler/internal/ast"
	"github.com/ajalt/eece6083-compiler/internal/token"
	"github.com/ajalt/eece6083-compiler/internal/typesystem"
)

// constVal is a folded numeric value, carrying whether it is float or
// int so arithmetic stays exact for ints and only goes through
// float64 when either operand already is one.
type constVal struct {
	isFloat bool
	i       int64
	f       float64
}

func (v constVal) asFloat() float64 {
	if v.isFloat {
		return v.f
	}
	return float64(v.i)
}

// truncate32 masks v down to the generated target's 32-bit int width,
// matching the ancestor's bitwise and/or/not semantics (§8 scenario 3:
// not 4294967280 folds to 15, not -4294967281).
func truncate32(v int64) int64 {
	return v & 0xFFFFFFFF
}

// literalOf reports the constant value of e if e is already a Num or
// Bool literal, else ok is false. Bool literals fold as the integers
// 1/0, matching the language's C-like bitwise and/or/not.
func literalOf(e ast.Expression) (constVal, bool) {
	switch n := e.(type) {
	case *ast.Num:
		if strings.Contains(n.Lexeme, ".") {
			f, err := strconv.ParseFloat(n.Lexeme, 64)
			if err != nil {
				return constVal{}, false
			}
			return constVal{isFloat: true, f: f}, true
		}
		i, err := strconv.ParseInt(n.Lexeme, 10, 64)
		if err != nil {
			return constVal{}, false
		}
		return constVal{i: i}, true
	case *ast.Bool:
		if n.Value {
			return constVal{i: 1}, true
		}
		return constVal{i: 0}, true
	}
	return constVal{}, false
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func numNode(tok token.Token, v constVal) *ast.Num {
	if v.isFloat {
		return &ast.Num{Tok: tok, Lexeme: formatFloat(v.f), NodeType: typesystem.Float}
	}
	return &ast.Num{Tok: tok, Lexeme: strconv.FormatInt(v.i, 10), NodeType: typesystem.Int}
}

func boolAsNum(tok token.Token, b bool) *ast.Num {
	if b {
		return &ast.Num{Tok: tok, Lexeme: "1", NodeType: typesystem.Int}
	}
	return &ast.Num{Tok: tok, Lexeme: "0", NodeType: typesystem.Int}
}

// foldBinary folds n if both operands are literals, reporting the
// replacement Num. Division by zero is deliberately left unfolded;
// the trap is a runtime concern, not a compile-time one.
func foldBinary(n *ast.BinaryOp) (ast.Expression, bool) {
	lv, lok := literalOf(n.Left)
	rv, rok := literalOf(n.Right)
	if !lok || !rok {
		return nil, false
	}
	switch n.Op {
	case token.PLUS:
		return arith(n.Tok, lv, rv, func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b }), true
	case token.MINUS:
		return arith(n.Tok, lv, rv, func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b }), true
	case token.STAR:
		return arith(n.Tok, lv, rv, func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b }), true
	case token.SLASH:
		if !lv.isFloat && !rv.isFloat && rv.i == 0 {
			return nil, false
		}
		if (lv.isFloat || rv.isFloat) && rv.asFloat() == 0 {
			return nil, false
		}
		return arith(n.Tok, lv, rv, func(a, b int64) int64 { return a / b }, func(a, b float64) float64 { return a / b }), true
	case token.LT, token.LTE, token.GT, token.GTE, token.EQ, token.NOT_EQ:
		return boolAsNum(n.Tok, compare(n.Op, lv, rv)), true
	case token.AND:
		return numNode(n.Tok, constVal{i: truncate32(lv.i & rv.i)}), true
	case token.OR:
		return numNode(n.Tok, constVal{i: truncate32(lv.i | rv.i)}), true
	}
	return nil, false
}

func arith(tok token.Token, a, b constVal, iop func(int64, int64) int64, fop func(float64, float64) float64) *ast.Num {
	if a.isFloat || b.isFloat {
		return numNode(tok, constVal{isFloat: true, f: fop(a.asFloat(), b.asFloat())})
	}
	return numNode(tok, constVal{i: iop(a.i, b.i)})
}

func compare(op token.Kind, a, b constVal) bool {
	if a.isFloat || b.isFloat {
		af, bf := a.asFloat(), b.asFloat()
		switch op {
		case token.LT:
			return af < bf
		case token.LTE:
			return af <= bf
		case token.GT:
			return af > bf
		case token.GTE:
			return af >= bf
		case token.EQ:
			return af == bf
		case token.NOT_EQ:
			return af != bf
		}
		return false
	}
	switch op {
	case token.LT:
		return a.i < b.i
	case token.LTE:
		return a.i <= b.i
	case token.GT:
		return a.i > b.i
	case token.GTE:
		return a.i >= b.i
	case token.EQ:
		return a.i == b.i
	case token.NOT_EQ:
		return a.i != b.i
	}
	return false
}

// foldUnary folds a unary op over a literal operand. `not` folds as
// bitwise complement over an int-typed operand and boolean negation
// over a bool-typed one, mirroring the code generator's lowering of
// the same operator.
func foldUnary(n *ast.UnaryOp) (ast.Expression, bool) {
	v, ok := literalOf(n.Operand)
	if !ok {
		return nil, false
	}
	switch n.Op {
	case token.MINUS:
		if v.isFloat {
			return numNode(n.Tok, constVal{isFloat: true, f: -v.f}), true
		}
		return numNode(n.Tok, constVal{i: -v.i}), true
	case token.NOT:
		switch n.NodeType {
		case typesystem.Bool:
			return boolAsNum(n.Tok, v.i == 0), true
		case typesystem.Int:
			return numNode(n.Tok, constVal{i: truncate32(^v.i)}), true
		}
	}
	return nil, false
}

// foldExpr folds e bottom-up: children are folded first so a parent
// whose operands only become literal after folding still collapses.
func foldExpr(e ast.Expression) (ast.Expression, bool) {
	switch n := e.(type) {
	case *ast.BinaryOp:
		left, lc := foldExpr(n.Left)
		right, rc := foldExpr(n.Right)
		n.Left, n.Right = left, right
		changed := lc || rc
		if folded, ok := foldBinary(n); ok {
			return folded, true
		}
		return n, changed
	case *ast.UnaryOp:
		operand, c := foldExpr(n.Operand)
		n.Operand = operand
		if folded, ok := foldUnary(n); ok {
			return folded, true
		}
		return n, c
	case *ast.Subscript:
		idx, c := foldExpr(n.Index)
		n.Index = idx
		return n, c
	case *ast.Call:
		changed := false
		for i, a := range n.Args {
			f, c := foldExpr(a)
			n.Args[i] = f
			changed = changed || c
		}
		return n, changed
	default:
		return e, false
	}
}

func foldStmts(stmts []ast.Statement) bool {
	changed := false
	for _, s := range stmts {
		if foldStmt(s) {
			changed = true
		}
	}
	return changed
}

func foldStmt(s ast.Statement) bool {
	switch n := s.(type) {
	case *ast.Assign:
		v, c := foldExpr(n.Value)
		n.Value = v
		if t, ok := n.Target.(*ast.Subscript); ok {
			idx, c2 := foldExpr(t.Index)
			t.Index = idx
			c = c || c2
		}
		return c
	case *ast.If:
		t, c := foldExpr(n.Test)
		n.Test = t
		c = foldStmts(n.Body) || c
		c = foldStmts(n.Orelse) || c
		return c
	case *ast.For:
		c := false
		if n.Assignment != nil {
			c = foldStmt(n.Assignment) || c
		}
		t, c2 := foldExpr(n.Test)
		n.Test = t
		c = c || c2
		c = foldStmts(n.Body) || c
		return c
	case *ast.Call:
		_, c := foldExpr(n)
		return c
	}
	return false
}

func foldDecls(decls []ast.Declaration) bool {
	changed := false
	for _, d := range decls {
		if pd, ok := d.(*ast.ProcDecl); ok {
			if foldDecls(pd.Decls) {
				changed = true
			}
			if foldStmts(pd.Body) {
				changed = true
			}
		}
	}
	return changed
}

// FoldConstants is Level 1: a single pass that folds every BinaryOp or
// UnaryOp whose operands are already literals into a single Num. It
// reports whether it changed anything; the Level 2 driver runs it once
// up front and does not consult the result.
func FoldConstants(prog *ast.Program) bool {
	changed := foldDecls(prog.Decls)
	if foldStmts(prog.Body) {
		changed = true
	}
	return changed
}
