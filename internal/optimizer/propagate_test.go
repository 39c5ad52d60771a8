package optimizer

import (
	"testing"

	"github.com/ajalt/eece6083-compiler/internal/ast"
	"github.com/ajalt/eece6083-compiler/internal/symbols"
	"github.com/ajalt/eece6083-compiler/internal/token"
)

// nameRef builds a *ast.Name read and registers it in resolved against
// sym, standing in for what the checker would have done.
func nameRef(resolved map[*ast.Name]*symbols.Symbol, value string, sym *symbols.Symbol) *ast.Name {
	n := &ast.Name{Value: value}
	resolved[n] = sym
	return n
}

func TestPropagatorRecordsAndSubstitutesStraightLineConstant(t *testing.T) {
	resolved := map[*ast.Name]*symbols.Symbol{}
	vd := &ast.VarDecl{Name: &ast.Name{Value: "x"}}
	sym := &symbols.Symbol{Name: "x", Kind: symbols.VarSymbol, VarDecl: vd}
	resolved[vd.Name] = sym

	assign1 := &ast.Assign{Target: nameRef(resolved, "x", sym), Value: num("7")}
	assign2 := &ast.Assign{Target: &ast.Name{Value: "y"}, Value: nameRef(resolved, "x", sym)}
	ySym := &symbols.Symbol{Name: "y", Kind: symbols.VarSymbol}
	resolved[assign2.Target.(*ast.Name)] = ySym

	prog := &ast.Program{Body: []ast.Statement{assign1, assign2}}

	prop := newPropagator(resolved)
	if !prop.run(prog) {
		t.Fatal("expected a change")
	}
	got, ok := assign2.Value.(*ast.Num)
	if !ok || got.Lexeme != "7" {
		t.Fatalf("assign2.Value = %#v, want Num(7)", assign2.Value)
	}
}

func TestPropagatorInvalidatesAssignmentInsideBranch(t *testing.T) {
	resolved := map[*ast.Name]*symbols.Symbol{}
	vd := &ast.VarDecl{Name: &ast.Name{Value: "x"}}
	sym := &symbols.Symbol{Name: "x", Kind: symbols.VarSymbol, VarDecl: vd}
	resolved[vd.Name] = sym

	innerAssign := &ast.Assign{Target: nameRef(resolved, "x", sym), Value: num("9")}
	ifStmt := &ast.If{
		Test: &ast.Bool{Value: true},
		Body: []ast.Statement{innerAssign},
	}
	readAfter := &ast.Assign{Target: &ast.Name{Value: "y"}, Value: nameRef(resolved, "x", sym)}
	prog := &ast.Program{Body: []ast.Statement{ifStmt, readAfter}}

	prop := newPropagator(resolved)
	prop.run(prog)

	if _, ok := readAfter.Value.(*ast.Name); !ok {
		t.Errorf("read after a guarded assignment should stay a Name, got %#v", readAfter.Value)
	}
}

func TestPropagatorInvalidatesOutArgumentOfCall(t *testing.T) {
	resolved := map[*ast.Name]*symbols.Symbol{}
	xVd := &ast.VarDecl{Name: &ast.Name{Value: "x"}}
	xSym := &symbols.Symbol{Name: "x", Kind: symbols.VarSymbol, VarDecl: xVd}
	resolved[xVd.Name] = xSym

	setup := &ast.Assign{Target: nameRef(resolved, "x", xSym), Value: num("1")}

	procName := &ast.Name{Value: "fill"}
	outParam := &ast.Param{VarDecl: &ast.VarDecl{Name: &ast.Name{Value: "p"}}, Direction: ast.DirOut}
	proc := &ast.ProcDecl{Name: procName, Params: []*ast.Param{outParam}}
	procSym := &symbols.Symbol{Name: "fill", Kind: symbols.ProcSymbol, ProcDecl: proc}
	resolved[procName] = procSym

	callArg := nameRef(resolved, "x", xSym)
	call := &ast.Call{FuncName: nameRef(resolved, "fill", procSym), Args: []ast.Expression{callArg}}

	readAfter := &ast.Assign{Target: &ast.Name{Value: "y"}, Value: nameRef(resolved, "x", xSym)}
	prog := &ast.Program{Body: []ast.Statement{setup, call, readAfter}}

	prop := newPropagator(resolved)
	prop.run(prog)

	if _, ok := readAfter.Value.(*ast.Name); !ok {
		t.Errorf("x should be invalidated by the out-arg call, got %#v", readAfter.Value)
	}
}

func TestPropagatorFoldsThroughSubstitution(t *testing.T) {
	resolved := map[*ast.Name]*symbols.Symbol{}
	vd := &ast.VarDecl{Name: &ast.Name{Value: "x"}}
	sym := &symbols.Symbol{Name: "x", Kind: symbols.VarSymbol, VarDecl: vd}
	resolved[vd.Name] = sym

	assign1 := &ast.Assign{Target: nameRef(resolved, "x", sym), Value: num("3")}
	sumExpr := &ast.BinaryOp{Op: token.PLUS, Left: nameRef(resolved, "x", sym), Right: num("4")}
	assign2 := &ast.Assign{Target: &ast.Name{Value: "y"}, Value: sumExpr}
	prog := &ast.Program{Body: []ast.Statement{assign1, assign2}}

	prop := newPropagator(resolved)
	prop.run(prog)

	got, ok := assign2.Value.(*ast.Num)
	if !ok || got.Lexeme != "7" {
		t.Fatalf("assign2.Value = %#v, want Num(7)", assign2.Value)
	}
}
