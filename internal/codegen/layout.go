package codegen

import (
	"github.com/ajalt/eece6083-compiler/internal/ast"
	"github.com/ajalt/eece6083-compiler/internal/symbols"
)

// frameLayout records the MM[]-relative addressing scheme assigned to
// one procedure at scan time, per §4.6's three addressing forms.
type frameLayout struct {
	locals    map[*symbols.Symbol]int // MM[FP + k]
	params    map[*symbols.Symbol]int // FP - k (in) or MM[FP - k] (out)
	frameSize int                     // locals + params + 2, for the SP bump in the prologue
}

func declWidth(vd *ast.VarDecl) int {
	if vd.ArrayLength != nil {
		return *vd.ArrayLength
	}
	return 1
}

// scanGlobals assigns every top-level VarDecl an absolute MM[] offset,
// in declaration order, arrays occupying ArrayLength contiguous slots.
func (g *Generator) scanGlobals(prog *ast.Program) {
	offset := 0
	for _, d := range prog.Decls {
		vd, ok := d.(*ast.VarDecl)
		if !ok {
			continue
		}
		sym := g.resolved[vd.Name]
		if sym == nil {
			continue
		}
		g.globals[sym] = offset
		offset += declWidth(vd)
	}
	g.globalSize = offset
}

// scanProcLayouts walks pd and every procedure nested inside it,
// assigning a frameLayout to each. Parameter k follows the calling
// convention diagram: parameter i of N (1-indexed) sits at FP-(N+2-i),
// so the last parameter is nearest FP and the first is furthest.
func (g *Generator) scanProcLayouts(pd *ast.ProcDecl) {
	layout := &frameLayout{
		locals: make(map[*symbols.Symbol]int),
		params: make(map[*symbols.Symbol]int),
	}

	n := len(pd.Params)
	for i, param := range pd.Params {
		if param.VarDecl == nil || param.VarDecl.Name == nil {
			continue
		}
		sym := g.resolved[param.VarDecl.Name]
		if sym == nil {
			continue
		}
		layout.params[sym] = n + 2 - (i + 1)
	}

	localSlots := 0
	for _, d := range pd.Decls {
		vd, ok := d.(*ast.VarDecl)
		if !ok {
			continue
		}
		sym := g.resolved[vd.Name]
		if sym == nil {
			continue
		}
		// locals start one slot above FP, which holds the return address
		layout.locals[sym] = localSlots + 1
		localSlots += declWidth(vd)
	}
	layout.frameSize = localSlots + n + 2

	g.layouts[pd] = layout

	for _, d := range pd.Decls {
		if nested, ok := d.(*ast.ProcDecl); ok {
			g.scanProcLayouts(nested)
		}
	}
}

// flattenProcs returns every ProcDecl reachable from decls, parents
// before their own nested children, in declaration order. The code
// generator emits one flat run of labels since every procedure body
// lives in the same C function.
func flattenProcs(decls []ast.Declaration) []*ast.ProcDecl {
	var out []*ast.ProcDecl
	for _, d := range decls {
		pd, ok := d.(*ast.ProcDecl)
		if !ok {
			continue
		}
		out = append(out, pd)
		out = append(out, flattenProcs(pd.Decls)...)
	}
	return out
}

// scalarAddress returns the C lvalue expression for reading or writing
// sym's current value.
//
// Globals and locals live directly in MM[]; an "in" parameter's value
// is stored directly in its frame slot; an "out" parameter's frame
// slot holds the address of the real variable, so its value is one
// indirection further, MM[MM[FP - k]].
func (g *Generator) scalarAddress(sym *symbols.Symbol) string {
	if sym.IsGlobal {
		return mmAt(itoa(g.globals[sym]))
	}
	if sym.Param != nil {
		layout := g.layouts[g.curProc]
		k := layout.params[sym]
		if sym.Param.Direction == ast.DirOut {
			// the frame slot holds an address; the value is one more
			// indirection past it.
			return mmAt(mmAt(fpMinus(k)))
		}
		return mmAt(fpMinus(k))
	}
	layout := g.layouts[g.curProc]
	return mmAt(fpPlus(layout.locals[sym]))
}

// forwardAddress returns the address expression for sym, suitable for
// pushing as the argument to a callee's "out" parameter: a plain
// numeric MM[] index, not a dereference of one.
func (g *Generator) forwardAddress(sym *symbols.Symbol) string {
	if sym.IsGlobal {
		return itoa(g.globals[sym])
	}
	if sym.Param != nil {
		layout := g.layouts[g.curProc]
		k := layout.params[sym]
		if sym.Param.Direction == ast.DirOut {
			// already holds an address; forward it unchanged.
			return mmAt(fpMinus(k))
		}
		return fpMinus(k) // an in-param's value sits in its own frame slot, at FP - k
	}
	layout := g.layouts[g.curProc]
	return fpPlus(layout.locals[sym])
}
