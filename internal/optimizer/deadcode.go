package optimizer

import (
	"github.com/ajalt/eece6083-compiler/internal/ast"
	"github.com/ajalt/eece6083-compiler/internal/symbols"
)

// varUse tracks one variable's liveness while the eliminator walks a
// statement list back to front. referenced resets to false every time
// an assignment "consumes" the pending read (the assignment becomes
// the new nearest definition); everReferenced is sticky and decides
// whether the declaration survives at all.
type varUse struct {
	referenced     bool
	everReferenced bool
}

// eliminator is Level 2's dead-code half: a backward (last statement
// to first) def-use walk per statement list, removing assignments
// whose target is never read again, unreachable code after a
// return in the same statement list, branches whose test folded to a literal, and
// declarations nothing in their own scope ever reads or calls.
type eliminator struct {
	resolved map[*ast.Name]*symbols.Symbol
	uses     map[*symbols.Symbol]*varUse
	procUsed map[*ast.ProcDecl]bool

	changed bool
}

func newEliminator(resolved map[*ast.Name]*symbols.Symbol) *eliminator {
	return &eliminator{
		resolved: resolved,
		uses:     make(map[*symbols.Symbol]*varUse),
		procUsed: make(map[*ast.ProcDecl]bool),
	}
}

func (e *eliminator) use(n *ast.Name) *varUse {
	sym := e.resolved[n]
	if sym == nil {
		return &varUse{} // unresolved name: scratch space, never consulted again
	}
	u, ok := e.uses[sym]
	if !ok {
		u = &varUse{}
		e.uses[sym] = u
	}
	return u
}

func (e *eliminator) lookupUse(n *ast.Name) (*varUse, bool) {
	sym := e.resolved[n]
	if sym == nil {
		return nil, false
	}
	u, ok := e.uses[sym]
	return u, ok
}

func (e *eliminator) markName(n *ast.Name) {
	if n == nil {
		return
	}
	u := e.use(n)
	u.referenced = true
	u.everReferenced = true
}

func (e *eliminator) markExprRefs(expr ast.Expression) {
	switch n := expr.(type) {
	case *ast.Name:
		e.markName(n)
	case *ast.BinaryOp:
		e.markExprRefs(n.Left)
		e.markExprRefs(n.Right)
	case *ast.UnaryOp:
		e.markExprRefs(n.Operand)
	case *ast.Subscript:
		e.markName(n.Name)
		e.markExprRefs(n.Index)
	case *ast.Call:
		e.processCallRefs(n)
	}
}

// run applies one backward pass over the whole program, mutating the
// tree in place, and reports whether anything changed. Procedure
// bodies are processed before the top-level body so every call site
// has been visited (and procUsed/var liveness fully populated) before
// any declaration list is filtered.
func (e *eliminator) run(prog *ast.Program) bool {
	for _, d := range prog.Decls {
		if pd, ok := d.(*ast.ProcDecl); ok {
			e.processProc(pd)
		}
	}
	prog.Body = e.processStmts(prog.Body)
	prog.Decls = e.filterDecls(prog.Decls)
	return e.changed
}

func (e *eliminator) processProc(pd *ast.ProcDecl) {
	for _, d := range pd.Decls {
		if nested, ok := d.(*ast.ProcDecl); ok {
			e.processProc(nested)
		}
	}
	pd.Body = e.processStmts(pd.Body)
	pd.Decls = e.filterDecls(pd.Decls)
}

func (e *eliminator) filterDecls(decls []ast.Declaration) []ast.Declaration {
	var out []ast.Declaration
	for _, d := range decls {
		switch n := d.(type) {
		case *ast.VarDecl:
			if n.Name != nil {
				if u, ok := e.lookupUse(n.Name); ok && u.everReferenced {
					out = append(out, n)
					continue
				}
			}
			e.changed = true
		case *ast.ProcDecl:
			if e.procUsed[n] {
				out = append(out, n)
			} else {
				e.changed = true
			}
		default:
			out = append(out, d)
		}
	}
	return out
}

// processStmts walks stmts back to front, dropping/replacing entries,
// then returns the surviving statements back in forward order.
func (e *eliminator) processStmts(stmts []ast.Statement) []ast.Statement {
	out := make([]ast.Statement, 0, len(stmts))
	for i := len(stmts) - 1; i >= 0; i-- {
		s := stmts[i]
		if _, ok := s.(*ast.Return); ok {
			if len(out) > 0 {
				e.changed = true
			}
			out = out[:0]
			out = append(out, s)
			continue
		}
		kept := e.processStmt(s)
		for j := len(kept) - 1; j >= 0; j-- {
			out = append(out, kept[j])
		}
	}
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}

func (e *eliminator) processStmt(s ast.Statement) []ast.Statement {
	switch n := s.(type) {
	case *ast.Assign:
		return e.processAssign(n)
	case *ast.Call:
		e.processCallRefs(n)
		return []ast.Statement{n}
	case *ast.If:
		return e.processIf(n)
	case *ast.For:
		return e.processFor(n)
	case *ast.Return:
		return []ast.Statement{n}
	}
	return []ast.Statement{s}
}

func (e *eliminator) processAssign(n *ast.Assign) []ast.Statement {
	if target, ok := n.Target.(*ast.Name); ok {
		u := e.use(target)
		if !u.referenced {
			e.changed = true
			return nil
		}
		u.referenced = false
		e.markExprRefs(n.Value)
		return []ast.Statement{n}
	}
	if sub, ok := n.Target.(*ast.Subscript); ok {
		e.markName(sub.Name)
		e.markExprRefs(sub.Index)
		e.markExprRefs(n.Value)
	}
	return []ast.Statement{n}
}

func isNumLiteral(e ast.Expression, lexeme string) bool {
	n, ok := e.(*ast.Num)
	return ok && n.Lexeme == lexeme
}

func (e *eliminator) processIf(n *ast.If) []ast.Statement {
	n.Body = e.processStmts(n.Body)
	n.Orelse = e.processStmts(n.Orelse)

	if isNumLiteral(n.Test, "1") {
		e.changed = true
		return n.Body
	}
	if isNumLiteral(n.Test, "0") {
		e.changed = true
		return n.Orelse
	}
	if len(n.Body) == 0 && len(n.Orelse) == 0 {
		e.changed = true
		return nil
	}
	e.markExprRefs(n.Test)
	return []ast.Statement{n}
}

func (e *eliminator) processFor(n *ast.For) []ast.Statement {
	n.Body = e.processStmts(n.Body)

	if isNumLiteral(n.Test, "0") {
		e.changed = true
		return nil
	}
	e.markExprRefs(n.Test)

	// The loop's own init assignment always survives with the loop: a
	// for-loop's counter is live by construction (the test and usually
	// the body read it), and dropping it would desync the grammar's
	// "for requires both an assignment and a test" shape.
	if n.Assignment != nil {
		if target, ok := n.Assignment.Target.(*ast.Name); ok {
			e.use(target).referenced = true
			e.use(target).everReferenced = true
		} else if sub, ok := n.Assignment.Target.(*ast.Subscript); ok {
			e.markName(sub.Name)
			e.markExprRefs(sub.Index)
		}
		e.markExprRefs(n.Assignment.Value)
	}
	return []ast.Statement{n}
}

func (e *eliminator) processCallRefs(call *ast.Call) {
	if call.FuncName != nil {
		e.markName(call.FuncName)
	}
	sym := e.resolved[call.FuncName]
	if sym != nil && sym.ProcDecl != nil {
		e.procUsed[sym.ProcDecl] = true
		n := len(call.Args)
		if len(sym.ProcDecl.Params) < n {
			n = len(sym.ProcDecl.Params)
		}
		for i := 0; i < n; i++ {
			arg := call.Args[i]
			name, ok := arg.(*ast.Name)
			if !ok {
				e.markExprRefs(arg)
				continue
			}
			if sym.ProcDecl.Params[i].Direction == ast.DirOut {
				u := e.use(name)
				u.everReferenced = true
			} else {
				e.markName(name)
			}
		}
		for i := n; i < len(call.Args); i++ {
			e.markExprRefs(call.Args[i])
		}
		return
	}
	for _, a := range call.Args {
		e.markExprRefs(a)
	}
}
