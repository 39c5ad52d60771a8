package ast

// Visitor is implemented by anything that walks an AST via the
// Accept/Visit double dispatch every node variant supports. Walker and
// Mutator are the two visitors this package provides; callers rarely
// need to implement Visitor directly.
type Visitor interface {
	VisitProgram(n *Program)
	VisitVarDecl(n *VarDecl)
	VisitParam(n *Param)
	VisitProcDecl(n *ProcDecl)
	VisitAssign(n *Assign)
	VisitIf(n *If)
	VisitFor(n *For)
	VisitCall(n *Call)
	VisitReturn(n *Return)
	VisitBinaryOp(n *BinaryOp)
	VisitUnaryOp(n *UnaryOp)
	VisitNum(n *Num)
	VisitStr(n *Str)
	VisitBool(n *Bool)
	VisitName(n *Name)
	VisitSubscript(n *Subscript)
}

// Walker is a read-only Visitor that recurses into every child of every
// node it visits. Fn, if set, is called once per node in pre-order;
// returning false skips that node's children. A zero Walker (Fn == nil)
// simply visits every node in the tree and does nothing else, which is
// the common case of embedding it for free default traversal.
type Walker struct {
	Fn func(n Node) bool
}

// Walk visits root and every descendant in pre-order, calling fn on each.
func Walk(root Node, fn func(n Node) bool) {
	root.Accept(&Walker{Fn: fn})
}

func (w *Walker) enter(n Node) bool {
	if w.Fn == nil {
		return true
	}
	return w.Fn(n)
}

func (w *Walker) VisitProgram(n *Program) {
	if !w.enter(n) {
		return
	}
	if n.Name != nil {
		n.Name.Accept(w)
	}
	for _, d := range n.Decls {
		d.Accept(w)
	}
	for _, s := range n.Body {
		s.Accept(w)
	}
}

func (w *Walker) VisitVarDecl(n *VarDecl) {
	if !w.enter(n) {
		return
	}
	if n.Name != nil {
		n.Name.Accept(w)
	}
}

func (w *Walker) VisitParam(n *Param) {
	if !w.enter(n) {
		return
	}
	if n.VarDecl != nil {
		n.VarDecl.Accept(w)
	}
}

func (w *Walker) VisitProcDecl(n *ProcDecl) {
	if !w.enter(n) {
		return
	}
	if n.Name != nil {
		n.Name.Accept(w)
	}
	for _, p := range n.Params {
		p.Accept(w)
	}
	for _, d := range n.Decls {
		d.Accept(w)
	}
	for _, s := range n.Body {
		s.Accept(w)
	}
}

func (w *Walker) VisitAssign(n *Assign) {
	if !w.enter(n) {
		return
	}
	if n.Target != nil {
		n.Target.Accept(w)
	}
	if n.Value != nil {
		n.Value.Accept(w)
	}
}

func (w *Walker) VisitIf(n *If) {
	if !w.enter(n) {
		return
	}
	if n.Test != nil {
		n.Test.Accept(w)
	}
	for _, s := range n.Body {
		s.Accept(w)
	}
	for _, s := range n.Orelse {
		s.Accept(w)
	}
}

func (w *Walker) VisitFor(n *For) {
	if !w.enter(n) {
		return
	}
	if n.Assignment != nil {
		n.Assignment.Accept(w)
	}
	if n.Test != nil {
		n.Test.Accept(w)
	}
	for _, s := range n.Body {
		s.Accept(w)
	}
}

func (w *Walker) VisitCall(n *Call) {
	if !w.enter(n) {
		return
	}
	if n.FuncName != nil {
		n.FuncName.Accept(w)
	}
	for _, a := range n.Args {
		a.Accept(w)
	}
}

func (w *Walker) VisitReturn(n *Return) {
	w.enter(n)
}

func (w *Walker) VisitBinaryOp(n *BinaryOp) {
	if !w.enter(n) {
		return
	}
	if n.Left != nil {
		n.Left.Accept(w)
	}
	if n.Right != nil {
		n.Right.Accept(w)
	}
}

func (w *Walker) VisitUnaryOp(n *UnaryOp) {
	if !w.enter(n) {
		return
	}
	if n.Operand != nil {
		n.Operand.Accept(w)
	}
}

func (w *Walker) VisitNum(n *Num) { w.enter(n) }

func (w *Walker) VisitStr(n *Str) { w.enter(n) }

func (w *Walker) VisitBool(n *Bool) { w.enter(n) }

func (w *Walker) VisitName(n *Name) { w.enter(n) }

func (w *Walker) VisitSubscript(n *Subscript) {
	if !w.enter(n) {
		return
	}
	if n.Name != nil {
		n.Name.Accept(w)
	}
	if n.Index != nil {
		n.Index.Accept(w)
	}
}

// mutationKind distinguishes the four outcomes a Mutator's Edit
// callback may choose for the node it was given.
type mutationKind int

const (
	mutKeep mutationKind = iota
	mutReplace
	mutSplice
	mutDrop
)

// MutationResult is the sum-typed result an Edit callback returns for
// each node the Mutator visits. Splice only has an effect at statement-
// or declaration-list positions; used at a single-node field (an
// expression operand, a test, a target) it behaves like Drop, since
// there is nowhere to put the extra nodes.
type MutationResult struct {
	kind    mutationKind
	replace Node
	splice  []Node
}

// Keep leaves the visited node unchanged (but still descends into its
// children).
func Keep() MutationResult { return MutationResult{kind: mutKeep} }

// Replace substitutes n for the visited node. n's own children are not
// walked; Edit is responsible for building a fully-formed replacement.
func Replace(n Node) MutationResult { return MutationResult{kind: mutReplace, replace: n} }

// Splice replaces the visited node with zero or more nodes at the same
// list position. Only meaningful when the visited node occupies a
// Statement or Declaration list slot.
func Splice(ns []Node) MutationResult { return MutationResult{kind: mutSplice, splice: ns} }

// Drop removes the visited node entirely.
func Drop() MutationResult { return MutationResult{kind: mutDrop} }

// Mutator rewrites an AST in place, guided by Edit. Edit is called for
// every node the Mutator reaches, in pre-order, before that node's
// (possibly now-stale) children would otherwise be walked; a Keep
// result continues the walk into the original node's children, while
// Replace/Splice/Drop short-circuit it. A Mutator with Edit == nil is a
// no-op traversal, same as a zero Walker.
type Mutator struct {
	Edit func(n Node) MutationResult
}

// Mutate rewrites root in place and returns its possibly-replaced self;
// root is dropped only if Edit returns Drop (or Splice, which has no
// list slot to fill at the root) for it, in which case Mutate returns
// nil.
func Mutate(root Node, edit func(n Node) MutationResult) Node {
	m := &Mutator{Edit: edit}
	return m.mutateNode(root)
}

func (m *Mutator) mutateNode(n Node) Node {
	if n == nil {
		return nil
	}
	if m.Edit == nil {
		n.Accept(m)
		return n
	}
	switch res := m.Edit(n); res.kind {
	case mutReplace:
		return res.replace
	case mutDrop, mutSplice:
		return nil
	default: // mutKeep
		n.Accept(m)
		return n
	}
}

func (m *Mutator) mutateExpr(e Expression) Expression {
	if e == nil {
		return nil
	}
	if n := m.mutateNode(e); n != nil {
		if expr, ok := n.(Expression); ok {
			return expr
		}
	}
	return nil
}

func (m *Mutator) mutateName(n *Name) *Name {
	if n == nil {
		return nil
	}
	if e := m.mutateExpr(n); e != nil {
		if name, ok := e.(*Name); ok {
			return name
		}
	}
	return nil
}

func (m *Mutator) mutateStatement(s Statement) []Statement {
	if s == nil {
		return nil
	}
	if m.Edit == nil {
		s.Accept(m)
		return []Statement{s}
	}
	switch res := m.Edit(s); res.kind {
	case mutDrop:
		return nil
	case mutReplace:
		if stmt, ok := res.replace.(Statement); ok {
			return []Statement{stmt}
		}
		return nil
	case mutSplice:
		return filterStatements(res.splice)
	default: // mutKeep
		s.Accept(m)
		return []Statement{s}
	}
}

func (m *Mutator) mutateStatements(stmts []Statement) []Statement {
	out := make([]Statement, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, m.mutateStatement(s)...)
	}
	return out
}

func (m *Mutator) mutateDeclaration(d Declaration) []Declaration {
	if d == nil {
		return nil
	}
	if m.Edit == nil {
		d.Accept(m)
		return []Declaration{d}
	}
	switch res := m.Edit(d); res.kind {
	case mutDrop:
		return nil
	case mutReplace:
		if decl, ok := res.replace.(Declaration); ok {
			return []Declaration{decl}
		}
		return nil
	case mutSplice:
		return filterDeclarations(res.splice)
	default: // mutKeep
		d.Accept(m)
		return []Declaration{d}
	}
}

func (m *Mutator) mutateDeclarations(decls []Declaration) []Declaration {
	out := make([]Declaration, 0, len(decls))
	for _, d := range decls {
		out = append(out, m.mutateDeclaration(d)...)
	}
	return out
}

func filterStatements(ns []Node) []Statement {
	out := make([]Statement, 0, len(ns))
	for _, n := range ns {
		if s, ok := n.(Statement); ok {
			out = append(out, s)
		}
	}
	return out
}

func filterDeclarations(ns []Node) []Declaration {
	out := make([]Declaration, 0, len(ns))
	for _, n := range ns {
		if d, ok := n.(Declaration); ok {
			out = append(out, d)
		}
	}
	return out
}

func (m *Mutator) VisitProgram(n *Program) {
	n.Name = m.mutateName(n.Name)
	n.Decls = m.mutateDeclarations(n.Decls)
	n.Body = m.mutateStatements(n.Body)
}

func (m *Mutator) VisitVarDecl(n *VarDecl) {
	n.Name = m.mutateName(n.Name)
}

func (m *Mutator) VisitParam(n *Param) {
	if n.VarDecl != nil {
		if vd := m.mutateNode(n.VarDecl); vd != nil {
			n.VarDecl, _ = vd.(*VarDecl)
		} else {
			n.VarDecl = nil
		}
	}
}

func (m *Mutator) VisitProcDecl(n *ProcDecl) {
	n.Name = m.mutateName(n.Name)
	params := make([]*Param, 0, len(n.Params))
	for _, p := range n.Params {
		if rn := m.mutateNode(p); rn != nil {
			if np, ok := rn.(*Param); ok {
				params = append(params, np)
			}
		}
	}
	n.Params = params
	n.Decls = m.mutateDeclarations(n.Decls)
	n.Body = m.mutateStatements(n.Body)
}

func (m *Mutator) VisitAssign(n *Assign) {
	n.Target = m.mutateExpr(n.Target)
	n.Value = m.mutateExpr(n.Value)
}

func (m *Mutator) VisitIf(n *If) {
	n.Test = m.mutateExpr(n.Test)
	n.Body = m.mutateStatements(n.Body)
	n.Orelse = m.mutateStatements(n.Orelse)
}

func (m *Mutator) VisitFor(n *For) {
	if n.Assignment != nil {
		if rn := m.mutateNode(n.Assignment); rn != nil {
			n.Assignment, _ = rn.(*Assign)
		} else {
			n.Assignment = nil
		}
	}
	n.Test = m.mutateExpr(n.Test)
	n.Body = m.mutateStatements(n.Body)
}

func (m *Mutator) VisitCall(n *Call) {
	n.FuncName = m.mutateName(n.FuncName)
	args := make([]Expression, 0, len(n.Args))
	for _, a := range n.Args {
		if e := m.mutateExpr(a); e != nil {
			args = append(args, e)
		}
	}
	n.Args = args
}

func (m *Mutator) VisitReturn(n *Return) {}

func (m *Mutator) VisitBinaryOp(n *BinaryOp) {
	n.Left = m.mutateExpr(n.Left)
	n.Right = m.mutateExpr(n.Right)
}

func (m *Mutator) VisitUnaryOp(n *UnaryOp) {
	n.Operand = m.mutateExpr(n.Operand)
}

func (m *Mutator) VisitNum(n *Num) {}

func (m *Mutator) VisitStr(n *Str) {}

func (m *Mutator) VisitBool(n *Bool) {}

func (m *Mutator) VisitName(n *Name) {}

func (m *Mutator) VisitSubscript(n *Subscript) {
	n.Name = m.mutateName(n.Name)
	n.Index = m.mutateExpr(n.Index)
}
