package codegen

import (
	"fmt"
	"strings"

	"github.com/ajalt/eece6083-compiler/internal/ast"
	"github.com/ajalt/eece6083-compiler/internal/config"
	"github.com/ajalt/eece6083-compiler/internal/symbols"
)

func (g *Generator) genStmts(buf *strings.Builder, stmts []ast.Statement) {
	for _, s := range stmts {
		g.genStmt(buf, s)
	}
}

func (g *Generator) genStmt(buf *strings.Builder, s ast.Statement) {
	switch n := s.(type) {
	case *ast.Assign:
		g.genAssign(buf, n)
	case *ast.If:
		g.genIf(buf, n)
	case *ast.For:
		g.genFor(buf, n)
	case *ast.Call:
		g.genCallStmt(buf, n)
	case *ast.Return:
		g.genReturn(buf, n)
	case *ast.VarDecl:
		// declarations carry no runtime effect of their own; MM[]/frame
		// slots were already assigned at scan time.
	}
}

func (g *Generator) sourceComment(tok interface{ String() string }) string {
	return fmt.Sprintf("// %s\n", tok.String())
}

func (g *Generator) genAssign(buf *strings.Builder, a *ast.Assign) {
	if g.verbose {
		buf.WriteString(g.sourceComment(a.Tok))
	}
	switch target := a.Target.(type) {
	case *ast.Name:
		sym := g.resolved[target]
		valReg := g.genExpr(buf, a.Value)
		addr := g.scalarAddress(sym)
		fmt.Fprintf(buf, "%s = %s;\n", addr, valReg)
		if sym != nil {
			g.cache[sym] = valReg
		}
	case *ast.Subscript:
		addrReg := g.genSubscriptAddress(buf, target)
		valReg := g.genExpr(buf, a.Value)
		fmt.Fprintf(buf, "%s = %s;\n", mmAt(addrReg.String()), valReg)
		g.reg.release(addrReg)
		g.reg.release(valReg)
	}
}

func (g *Generator) genIf(buf *strings.Builder, n *ast.If) {
	if g.verbose {
		buf.WriteString(g.sourceComment(n.Tok))
	}
	testReg := g.genExpr(buf, n.Test)
	endLabel := g.nextReturnLabel("if_end")
	if len(n.Orelse) == 0 {
		fmt.Fprintf(buf, "if (!%s) goto %s;\n", testReg, endLabel)
		g.reg.release(testReg)
		g.genStmts(buf, n.Body)
		fmt.Fprintf(buf, "%s:\n", endLabel)
		return
	}
	elseLabel := g.nextReturnLabel("if_else")
	fmt.Fprintf(buf, "if (!%s) goto %s;\n", testReg, elseLabel)
	g.reg.release(testReg)
	g.genStmts(buf, n.Body)
	fmt.Fprintf(buf, "goto %s;\n", endLabel)
	fmt.Fprintf(buf, "%s:\n", elseLabel)
	g.genStmts(buf, n.Orelse)
	fmt.Fprintf(buf, "%s:\n", endLabel)
}

func (g *Generator) genFor(buf *strings.Builder, n *ast.For) {
	if g.verbose {
		buf.WriteString(g.sourceComment(n.Tok))
	}
	if n.Assignment != nil {
		g.genAssign(buf, n.Assignment)
	}
	startLabel := g.nextReturnLabel("for_start")
	endLabel := g.nextReturnLabel("for_end")
	fmt.Fprintf(buf, "%s:\n", startLabel)
	testReg := g.genExpr(buf, n.Test)
	fmt.Fprintf(buf, "if (!%s) goto %s;\n", testReg, endLabel)
	g.reg.release(testReg)
	g.genStmts(buf, n.Body)
	fmt.Fprintf(buf, "goto %s;\n", startLabel)
	fmt.Fprintf(buf, "%s:\n", endLabel)
}

func (g *Generator) genReturn(buf *strings.Builder, n *ast.Return) {
	if g.verbose {
		buf.WriteString(g.sourceComment(n.Tok))
	}
	if g.curProc == nil {
		// a bare return at the top level ends the program's body; there
		// is no procedure epilogue to jump to.
		buf.WriteString("return 0;\n")
		return
	}
	fmt.Fprintf(buf, "goto %s;\n", epilogueLabel(g.curProc))
}

// genCallStmt lowers a procedure-call statement, handling the runtime
// I/O hooks (emitted as plain C calls) and user procedures (emitted
// via the computed-goto calling convention) separately.
func (g *Generator) genCallStmt(buf *strings.Builder, call *ast.Call) {
	if g.verbose {
		buf.WriteString(g.sourceComment(call.Tok))
	}
	if config.IsRuntimeHook(call.FuncName.Value) {
		g.genRuntimeHookCall(buf, call)
		return
	}
	g.genUserCall(buf, call)
}

// genRuntimeHookCall emits a direct C call to the fixed-name runtime
// function. get* hooks write their result through a pointer into MM[];
// put* hooks just read a value.
func (g *Generator) genRuntimeHookCall(buf *strings.Builder, call *ast.Call) {
	g.cache = make(map[*symbols.Symbol]Register)
	isGetter := strings.HasPrefix(call.FuncName.Value, "get")
	var argExprs []string
	for _, arg := range call.Args {
		if isGetter {
			sym := g.symbolForLValue(arg)
			if sym != nil {
				argExprs = append(argExprs, g.pointerTo(sym, call.FuncName.Value))
				continue
			}
		}
		reg := g.genExpr(buf, arg)
		argExprs = append(argExprs, reg.String())
	}
	fmt.Fprintf(buf, "%s(%s);\n", call.FuncName.Value, strings.Join(argExprs, ", "))
}

// pointerTo returns a C pointer expression into MM[] naming sym's
// storage, cast to the pointee type the named runtime hook expects.
func (g *Generator) pointerTo(sym *symbols.Symbol, hookName string) string {
	var idx string
	if sym.IsGlobal {
		idx = itoa(g.globals[sym])
	} else if sym.Param != nil && sym.Param.Direction == ast.DirOut {
		layout := g.layouts[g.curProc]
		idx = mmAt(fpMinus(layout.params[sym]))
	} else if sym.Param != nil {
		layout := g.layouts[g.curProc]
		idx = fpMinus(layout.params[sym])
	} else {
		layout := g.layouts[g.curProc]
		idx = fpPlus(layout.locals[sym])
	}
	ptr := fmt.Sprintf("(&MM[%s])", idx)
	switch hookName {
	case "getFloat":
		return "(float *)" + ptr
	case "getBool":
		return "(bool *)" + ptr
	case "getString":
		return "(char **)" + ptr
	default:
		return ptr
	}
}

// genUserCall lowers a call to a user-defined procedure per the
// stdcall-like convention: spill the register cache, write arguments
// and the saved FP/return-label into the callee's future frame
// (relative to the current SP, which the caller never itself bumps;
// the callee's own prologue does that), then jump to the label.
func (g *Generator) genUserCall(buf *strings.Builder, call *ast.Call) {
	sym := g.resolved[call.FuncName]
	g.cache = make(map[*symbols.Symbol]Register)

	var proc *ast.ProcDecl
	if sym != nil {
		proc = sym.ProcDecl
	}
	n := len(call.Args)

	for i, arg := range call.Args {
		slot := fmt.Sprintf("MM[SP + %d]", i+1)
		if proc != nil && i < len(proc.Params) && proc.Params[i].Direction == ast.DirOut {
			argSym := g.symbolForLValue(arg)
			if argSym != nil {
				fmt.Fprintf(buf, "%s = %s;\n", slot, g.forwardAddress(argSym))
				continue
			}
		}
		reg := g.genExpr(buf, arg)
		fmt.Fprintf(buf, "%s = %s;\n", slot, reg)
		g.reg.release(reg)
	}

	fmt.Fprintf(buf, "MM[SP + %d] = FP;\n", n+1)

	calleeLabel := call.FuncName.Value
	if proc != nil {
		calleeLabel = procLabel(proc)
	}
	retLabel := g.nextReturnLabel(calleeLabel)
	fmt.Fprintf(buf, "MM[SP + %d] = (int)(size_t)&&%s;\n", n+2, retLabel)
	fmt.Fprintf(buf, "goto %s;\n", calleeLabel)
	fmt.Fprintf(buf, "%s:\n", retLabel)
}

// symbolForLValue returns the Symbol an out-argument expression
// refers to, for Name or Subscript targets; nil otherwise.
func (g *Generator) symbolForLValue(e ast.Expression) *symbols.Symbol {
	switch a := e.(type) {
	case *ast.Name:
		return g.resolved[a]
	case *ast.Subscript:
		return g.resolved[a.Name]
	}
	return nil
}
