package optimizer

import (
	"testing"

	"github.com/ajalt/eece6083-compiler/internal/ast"
	"github.com/ajalt/eece6083-compiler/internal/symbols"
)

func TestEliminatorDropsDeadStore(t *testing.T) {
	resolved := map[*ast.Name]*symbols.Symbol{}
	vd := &ast.VarDecl{Name: &ast.Name{Value: "x"}}
	sym := &symbols.Symbol{Name: "x", Kind: symbols.VarSymbol, VarDecl: vd}
	resolved[vd.Name] = sym

	target := &ast.Name{Value: "x"}
	resolved[target] = sym
	assign := &ast.Assign{Target: target, Value: num("1")}
	prog := &ast.Program{Body: []ast.Statement{assign}}

	elim := newEliminator(resolved)
	if !elim.run(prog) {
		t.Fatal("expected a change")
	}
	if len(prog.Body) != 0 {
		t.Errorf("dead store should be dropped, got %v", prog.Body)
	}
}

func TestEliminatorKeepsStoreThatIsLaterRead(t *testing.T) {
	resolved := map[*ast.Name]*symbols.Symbol{}
	vd := &ast.VarDecl{Name: &ast.Name{Value: "x"}}
	sym := &symbols.Symbol{Name: "x", Kind: symbols.VarSymbol, VarDecl: vd}
	resolved[vd.Name] = sym

	writeTarget := &ast.Name{Value: "x"}
	resolved[writeTarget] = sym
	write := &ast.Assign{Target: writeTarget, Value: num("1")}

	readRef := &ast.Name{Value: "x"}
	resolved[readRef] = sym
	read := &ast.Call{FuncName: &ast.Name{Value: "putInteger"}, Args: []ast.Expression{readRef}}

	prog := &ast.Program{Body: []ast.Statement{write, read}}

	elim := newEliminator(resolved)
	elim.run(prog)

	if len(prog.Body) != 2 {
		t.Fatalf("both statements should survive, got %v", prog.Body)
	}
}

func TestEliminatorIfConstantFalseKeepsOnlyElseBranch(t *testing.T) {
	// if(0) then f(1); else f(2); end if -- the surviving body is f(2).
	resolved := map[*ast.Name]*symbols.Symbol{}
	fName := &ast.Name{Value: "f"}
	proc := &ast.ProcDecl{Name: fName, Params: []*ast.Param{{VarDecl: &ast.VarDecl{Name: &ast.Name{Value: "p"}}}}}
	procSym := &symbols.Symbol{Name: "f", Kind: symbols.ProcSymbol, ProcDecl: proc}
	resolved[fName] = procSym

	callThen := &ast.Call{FuncName: &ast.Name{Value: "f"}, Args: []ast.Expression{num("1")}}
	resolved[callThen.FuncName] = procSym
	callElse := &ast.Call{FuncName: &ast.Name{Value: "f"}, Args: []ast.Expression{num("2")}}
	resolved[callElse.FuncName] = procSym

	ifStmt := &ast.If{
		Test:   num("0"),
		Body:   []ast.Statement{callThen},
		Orelse: []ast.Statement{callElse},
	}
	prog := &ast.Program{
		Decls: []ast.Declaration{proc},
		Body:  []ast.Statement{ifStmt},
	}

	elim := newEliminator(resolved)
	if !elim.run(prog) {
		t.Fatal("expected a change")
	}
	if len(prog.Body) != 1 || prog.Body[0] != callElse {
		t.Fatalf("surviving body should be just callElse, got %v", prog.Body)
	}
}

func TestEliminatorForFalseTestDropsLoop(t *testing.T) {
	forStmt := &ast.For{Test: num("0")}
	prog := &ast.Program{Body: []ast.Statement{forStmt}}

	elim := newEliminator(map[*ast.Name]*symbols.Symbol{})
	if !elim.run(prog) {
		t.Fatal("expected a change")
	}
	if len(prog.Body) != 0 {
		t.Errorf("for(0) should be dropped entirely, got %v", prog.Body)
	}
}

func TestEliminatorReturnTruncatesRemainingStatements(t *testing.T) {
	resolved := map[*ast.Name]*symbols.Symbol{}
	ret := &ast.Return{}
	afterReturn := &ast.Call{FuncName: &ast.Name{Value: "unreachable"}}
	prog := &ast.Program{Body: []ast.Statement{ret, afterReturn}}

	elim := newEliminator(resolved)
	if !elim.run(prog) {
		t.Fatal("expected a change")
	}
	if len(prog.Body) != 1 || prog.Body[0] != ret {
		t.Fatalf("only the return should survive, got %v", prog.Body)
	}
}

func TestEliminatorDropsUnreferencedVarDeclAndUncalledProc(t *testing.T) {
	// Program declaring unused `int a;` and an empty body -> empty
	// decls and body.
	vd := &ast.VarDecl{Name: &ast.Name{Value: "a"}}
	proc := &ast.ProcDecl{Name: &ast.Name{Value: "unused"}}
	prog := &ast.Program{Decls: []ast.Declaration{vd, proc}}

	elim := newEliminator(map[*ast.Name]*symbols.Symbol{})
	if !elim.run(prog) {
		t.Fatal("expected a change")
	}
	if len(prog.Decls) != 0 {
		t.Errorf("both declarations should be dropped, got %v", prog.Decls)
	}
}
