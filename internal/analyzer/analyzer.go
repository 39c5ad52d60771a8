// Package analyzer is the type checker: it resolves every name
// reference to its declaration, infers and attaches a type to every
// expression, and enforces the language's type and scoping rules. It
// never aborts on the first error: it keeps checking and reports
// everything it finds, per §4.4.
package analyzer

import (
	"github.com/ajalt/eece6083-compiler/internal/ast"
	"github.com/ajalt/eece6083-compiler/internal/diagnostics"
	"github.com/ajalt/eece6083-compiler/internal/pipeline"
	"github.com/ajalt/eece6083-compiler/internal/symbols"
	"github.com/ajalt/eece6083-compiler/internal/token"
	"github.com/ajalt/eece6083-compiler/internal/typesystem"
)

// Checker walks a parsed Program, building a fresh symbols.Table as it
// goes and annotating every expression node's NodeType.
type Checker struct {
	table    *symbols.Table
	errs     diagnostics.Bag
	resolved map[*ast.Name]*symbols.Symbol
}

// New returns a Checker. Its Table is only populated once Process (or
// Check) runs.
func New() *Checker { return &Checker{} }

// Process implements pipeline.Processor.
func (c *Checker) Process(ctx *pipeline.Context) *pipeline.Context {
	c.table = symbols.NewTable()
	c.resolved = make(map[*ast.Name]*symbols.Symbol)
	c.checkProgram(ctx.Program)
	ctx.Symbols = c.table
	ctx.Resolutions = c.resolved
	for _, d := range c.errs.Items() {
		ctx.Diagnostics.Add(d)
	}
	return ctx
}

// Check runs the checker standalone, outside a Pipeline, returning the
// built symbol table and the accumulated diagnostics. Running Check
// twice on the same *ast.Program produces the same annotations each
// time, since every run builds its own fresh table and recomputes
// every NodeType from the literal/declaration data, never from a
// previous run's state.
func Check(prog *ast.Program) (*symbols.Table, *diagnostics.Bag) {
	c := New()
	c.table = symbols.NewTable()
	c.resolved = make(map[*ast.Name]*symbols.Symbol)
	c.checkProgram(prog)
	return c.table, &c.errs
}

// resolve records that name refers to sym, so that later pipeline
// phases (which run after the checker's scope stack has been popped
// back down to nothing) can still answer "what does this Name mean".
func (c *Checker) resolve(name *ast.Name, sym *symbols.Symbol) {
	if name == nil || sym == nil {
		return
	}
	c.resolved[name] = sym
}

func (c *Checker) errorf(tok token.Token, code diagnostics.Code, args ...interface{}) {
	c.errs.Add(diagnostics.New(diagnostics.PhaseChecker, code, tok, args...))
}

func varType(vd *ast.VarDecl) typesystem.Type {
	if vd == nil {
		return typesystem.Unknown
	}
	switch vd.Type {
	case token.INT_TY:
		return typesystem.Int
	case token.FLOAT_TY:
		return typesystem.Float
	case token.BOOL_TY:
		return typesystem.Bool
	case token.STRING_TY:
		return typesystem.String
	}
	return typesystem.Unknown
}

// --- program / declarations ---

func (c *Checker) checkProgram(prog *ast.Program) {
	if prog == nil {
		return
	}
	c.declareAll(prog.Decls, true)
	c.checkDecls(prog.Decls, true)
	c.checkStmts(prog.Body)
}

// declareAll binds every decl's name into the current scope before any
// of their bodies are checked, so sibling procedures can call one
// another regardless of declaration order.
func (c *Checker) declareAll(decls []ast.Declaration, topLevel bool) {
	for _, d := range decls {
		switch n := d.(type) {
		case *ast.VarDecl:
			c.declareVar(n, topLevel)
		case *ast.ProcDecl:
			c.declareProc(n, topLevel)
		}
	}
}

func (c *Checker) declareVar(vd *ast.VarDecl, topLevel bool) {
	if vd.IsGlobal && !topLevel {
		c.errorf(vd.Tok, diagnostics.ErrGlobalAtInner)
	}
	if vd.Name == nil {
		return
	}
	if c.table.DefinedInCurrentScope(vd.Name.Value) {
		c.errorf(vd.Name.Tok, diagnostics.ErrRedefinition, vd.Name.Value)
		return
	}
	sym := &symbols.Symbol{Name: vd.Name.Value, Kind: symbols.VarSymbol, IsGlobal: topLevel, VarDecl: vd}
	c.table.Define(vd.Name.Value, sym)
	c.resolve(vd.Name, sym)
}

func (c *Checker) declareProc(pd *ast.ProcDecl, topLevel bool) {
	if pd.IsGlobal && !topLevel {
		c.errorf(pd.Tok, diagnostics.ErrGlobalAtInner)
	}
	if pd.Name == nil {
		return
	}
	if c.table.DefinedInCurrentScope(pd.Name.Value) {
		c.errorf(pd.Name.Tok, diagnostics.ErrRedefinition, pd.Name.Value)
		return
	}
	sym := &symbols.Symbol{Name: pd.Name.Value, Kind: symbols.ProcSymbol, IsGlobal: topLevel, ProcDecl: pd}
	c.table.Define(pd.Name.Value, sym)
	c.resolve(pd.Name, sym)
}

func (c *Checker) checkDecls(decls []ast.Declaration, topLevel bool) {
	for _, d := range decls {
		if pd, ok := d.(*ast.ProcDecl); ok {
			c.checkProcDecl(pd)
		}
	}
	_ = topLevel
}

func (c *Checker) checkProcDecl(pd *ast.ProcDecl) {
	c.table.PushScope()
	defer c.table.PopScope()

	if pd.Name != nil {
		c.table.Define(pd.Name.Value, &symbols.Symbol{Name: pd.Name.Value, Kind: symbols.ProcSymbol, ProcDecl: pd})
	}
	for _, param := range pd.Params {
		if param.VarDecl == nil || param.VarDecl.Name == nil {
			continue
		}
		name := param.VarDecl.Name.Value
		if c.table.DefinedInCurrentScope(name) {
			c.errorf(param.VarDecl.Tok, diagnostics.ErrRedefinition, name)
			continue
		}
		sym := &symbols.Symbol{Name: name, Kind: symbols.VarSymbol, VarDecl: param.VarDecl, Param: param}
		c.table.Define(name, sym)
		c.resolve(param.VarDecl.Name, sym)
	}
	c.declareAll(pd.Decls, false)
	c.checkDecls(pd.Decls, false)
	c.checkStmts(pd.Body)
}

// --- statements ---

func (c *Checker) checkStmts(stmts []ast.Statement) {
	for _, s := range stmts {
		c.checkStmt(s)
	}
}

func (c *Checker) checkStmt(s ast.Statement) {
	switch n := s.(type) {
	case *ast.Assign:
		c.checkAssign(n)
	case *ast.If:
		c.exprType(n.Test)
		c.checkStmts(n.Body)
		c.checkStmts(n.Orelse)
	case *ast.For:
		if n.Assignment != nil {
			c.checkAssign(n.Assignment)
		}
		c.exprType(n.Test)
		c.checkStmts(n.Body)
	case *ast.Call:
		c.checkCallExpr(n)
	case *ast.Return:
		// nothing to resolve
	}
}

func (c *Checker) checkAssign(a *ast.Assign) {
	if a == nil {
		return
	}
	targetType := c.checkAssignTarget(a.Target)
	valType := c.exprType(a.Value)
	if targetType == typesystem.Unknown || valType == typesystem.Unknown {
		return
	}
	unified, ok := typesystem.Unify(targetType, valType)
	if !ok {
		c.errorf(a.Tok, diagnostics.ErrTypeMismatch, targetType, valType)
		return
	}
	setNodeType(a.Target, unified)
}

func (c *Checker) checkAssignTarget(target ast.Expression) typesystem.Type {
	switch n := target.(type) {
	case *ast.Name:
		sym, ok := c.table.Resolve(n.Value)
		if !ok {
			c.errorf(n.Tok, diagnostics.ErrUndeclaredName, n.Value)
			return typesystem.Unknown
		}
		if sym.Kind == symbols.ProcSymbol {
			c.errorf(n.Tok, diagnostics.ErrForbiddenOp, "assignment", "a procedure name")
			return typesystem.Unknown
		}
		if sym.Param != nil && sym.Param.Direction == ast.DirIn {
			c.errorf(n.Tok, diagnostics.ErrWriteToIn, n.Value)
		}
		c.resolve(n, sym)
		t := varType(sym.VarDecl)
		n.NodeType = t
		return t
	case *ast.Subscript:
		return c.checkSubscript(n)
	}
	return typesystem.Unknown
}

func setNodeType(e ast.Expression, t typesystem.Type) {
	switch n := e.(type) {
	case *ast.Name:
		n.NodeType = t
	case *ast.Subscript:
		n.NodeType = t
	}
}

// --- expressions ---

func (c *Checker) exprType(e ast.Expression) typesystem.Type {
	switch n := e.(type) {
	case *ast.Num:
		t := typesystem.NumericLiteralType(n.Lexeme)
		n.NodeType = t
		return t
	case *ast.Str:
		n.NodeType = typesystem.String
		return typesystem.String
	case *ast.Bool:
		n.NodeType = typesystem.Bool
		return typesystem.Bool
	case *ast.Name:
		return c.exprTypeName(n)
	case *ast.Subscript:
		return c.checkSubscript(n)
	case *ast.UnaryOp:
		return c.exprTypeUnary(n)
	case *ast.BinaryOp:
		return c.exprTypeBinary(n)
	case *ast.Call:
		return c.checkCallExpr(n)
	}
	return typesystem.Unknown
}

func (c *Checker) exprTypeName(n *ast.Name) typesystem.Type {
	return c.nameType(n, true)
}

// argType types one call argument, suppressing the read-from-out check
// when it's a Name forwarded into an out parameter: §4.4 allows this
// specifically because the argument is passed by reference, not read.
func (c *Checker) argType(arg ast.Expression, dir ast.ParamDirection) typesystem.Type {
	if dir == ast.DirOut {
		if name, ok := arg.(*ast.Name); ok {
			return c.nameType(name, false)
		}
	}
	return c.exprType(arg)
}

// nameType resolves n and annotates its NodeType. checkRead controls
// whether reading an out parameter (any read at all) is flagged; a
// forwarded out-argument (f(x) where x is itself an out parameter) is
// passed by reference, not read, so that call site suppresses the
// check (see checkCallExpr).
func (c *Checker) nameType(n *ast.Name, checkRead bool) typesystem.Type {
	sym, ok := c.table.Resolve(n.Value)
	if !ok {
		c.errorf(n.Tok, diagnostics.ErrUndeclaredName, n.Value)
		return typesystem.Unknown
	}
	if sym.Kind == symbols.ProcSymbol {
		c.errorf(n.Tok, diagnostics.ErrForbiddenOp, "value context", "a procedure name")
		return typesystem.Unknown
	}
	if checkRead && sym.Param != nil && sym.Param.Direction == ast.DirOut {
		c.errorf(n.Tok, diagnostics.ErrReadFromOut, n.Value)
	}
	c.resolve(n, sym)
	t := varType(sym.VarDecl)
	n.NodeType = t
	return t
}

func (c *Checker) checkSubscript(n *ast.Subscript) typesystem.Type {
	idxType := c.exprType(n.Index)
	if idxType != typesystem.Unknown && idxType != typesystem.Int {
		c.errorf(n.Tok, diagnostics.ErrTypeMismatch, typesystem.Int, idxType)
	}
	if n.Name == nil {
		return typesystem.Unknown
	}
	sym, ok := c.table.Resolve(n.Name.Value)
	if !ok {
		c.errorf(n.Name.Tok, diagnostics.ErrUndeclaredName, n.Name.Value)
		return typesystem.Unknown
	}
	if sym.Kind != symbols.VarSymbol || sym.VarDecl == nil || sym.VarDecl.ArrayLength == nil {
		c.errorf(n.Name.Tok, diagnostics.ErrNotAnArray, n.Name.Value)
		return typesystem.Unknown
	}
	c.resolve(n.Name, sym)
	t := varType(sym.VarDecl)
	n.NodeType = t
	n.Name.NodeType = t
	return t
}

func (c *Checker) exprTypeUnary(n *ast.UnaryOp) typesystem.Type {
	operand := c.exprType(n.Operand)
	if n.Op == token.NOT && operand == typesystem.Float {
		c.errorf(n.Tok, diagnostics.ErrForbiddenOp, n.Op, operand)
	}
	n.NodeType = operand
	return operand
}

func (c *Checker) exprTypeBinary(n *ast.BinaryOp) typesystem.Type {
	left := c.exprType(n.Left)
	right := c.exprType(n.Right)
	if left == typesystem.Unknown || right == typesystem.Unknown {
		n.NodeType = typesystem.Unknown
		return typesystem.Unknown
	}
	unified, ok := typesystem.Unify(left, right)
	if !ok {
		c.errorf(n.Tok, diagnostics.ErrTypeMismatch, left, right)
		n.NodeType = typesystem.Unknown
		return typesystem.Unknown
	}
	switch n.Op {
	case token.AND, token.OR:
		if unified != typesystem.Int && unified != typesystem.Bool {
			c.errorf(n.Tok, diagnostics.ErrForbiddenOp, n.Op, unified)
		}
	default:
		if unified != typesystem.Int && unified != typesystem.Float && unified != typesystem.Bool {
			c.errorf(n.Tok, diagnostics.ErrForbiddenOp, n.Op, unified)
		}
	}
	n.NodeType = unified
	return unified
}

// --- calls ---

func (c *Checker) checkCallExpr(call *ast.Call) typesystem.Type {
	if call.FuncName == nil {
		return typesystem.Unknown
	}
	sym, ok := c.table.Resolve(call.FuncName.Value)
	if !ok {
		c.errorf(call.FuncName.Tok, diagnostics.ErrUndeclaredName, call.FuncName.Value)
		c.checkArgsOnly(call.Args)
		return typesystem.Unknown
	}
	if sym.Kind != symbols.ProcSymbol || sym.ProcDecl == nil {
		c.errorf(call.FuncName.Tok, diagnostics.ErrForbiddenOp, "call", "a non-procedure name")
		c.checkArgsOnly(call.Args)
		return typesystem.Unknown
	}
	c.resolve(call.FuncName, sym)

	proc := sym.ProcDecl
	if len(call.Args) != len(proc.Params) {
		c.errorf(call.Tok, diagnostics.ErrArityMismatch, proc.Name.Value, len(proc.Params), len(call.Args))
	}

	n := len(call.Args)
	if len(proc.Params) < n {
		n = len(proc.Params)
	}
	for i := 0; i < n; i++ {
		arg := call.Args[i]
		param := proc.Params[i]
		if param.Direction == ast.DirOut && !isForwardableOutArg(arg) {
			c.errorf(call.Tok, diagnostics.ErrBadOutArgShape, paramNameOf(param))
		}
		argType := c.argType(arg, param.Direction)
		paramType := varType(param.VarDecl)
		if argType != typesystem.Unknown && paramType != typesystem.Unknown {
			if _, ok := typesystem.Unify(argType, paramType); !ok {
				c.errorf(call.Tok, diagnostics.ErrTypeMismatch, paramType, argType)
			}
		}
	}
	// extra args beyond the shorter length are still type-checked so
	// their own sub-expressions get annotated.
	for i := n; i < len(call.Args); i++ {
		c.exprType(call.Args[i])
	}
	return typesystem.Unknown
}

func (c *Checker) checkArgsOnly(args []ast.Expression) {
	for _, a := range args {
		c.exprType(a)
	}
}

func isForwardableOutArg(arg ast.Expression) bool {
	_, ok := arg.(*ast.Name)
	return ok
}

func paramNameOf(param *ast.Param) string {
	if param.VarDecl == nil || param.VarDecl.Name == nil {
		return ""
	}
	return param.VarDecl.Name.Value
}
